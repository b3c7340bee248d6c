package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/demile-15/ConcurrentDB/internal/repl"
	"github.com/demile-15/ConcurrentDB/pkg/config"
	"github.com/demile-15/ConcurrentDB/pkg/metrics"
	"github.com/demile-15/ConcurrentDB/pkg/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve <port>",
	Short: "Start the tree server on the given TCP port",
	Long: `Start listening for client connections on the given port and
read operator commands ("p [PATH]", "s", "g") from standard input until
EOF, at which point every client session is drained and the process
exits cleanly.`,
	Args: cobra.ExactArgs(1),
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func parsePort(arg string) (int, error) {
	port, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("port must be a number, got %q", arg)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	port, err := parsePort(args[0])
	if err != nil {
		return err
	}

	// Masks SIGPIPE process-wide (SPEC_FULL.md §D.2); Go's net package
	// already surfaces a write-after-close as an error rather than a
	// signal on most platforms, but the explicit ignore keeps parity
	// with the original server for the platforms where it matters.
	signal.Ignore(syscall.SIGPIPE)

	logLevel, _ := cmd.Flags().GetString("log-level")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	// Explicit flags win over the config file; the config file (or
	// DefaultConfig when none is given) wins over the flag's own default.
	if !cmd.Flags().Changed("log-level") {
		logLevel = cfg.LogLevel
	}
	if !cmd.Flags().Changed("metrics-addr") {
		metricsAddr = cfg.MetricsAddr
	}

	log := container.Logger(logLevel)

	var collector *metrics.Collector
	if metricsAddr != "" {
		collector = metrics.NewCollector()
	}

	sup := container.Supervisor(log, collector)

	ln, err := transport.Listen(fmt.Sprintf("%s:%d", cfg.Bind, port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", port, err)
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())

	// SIGINT is observed only by a small forwarding loop (SPEC_FULL.md
	// §D.3), which turns each OS signal into a send on the one-slot wake
	// channel HandleInterrupt consumes; a signal arriving while a wake is
	// still pending is merged into it. No other goroutine needs
	// signal.Notify of its own.
	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT)
	defer signal.Stop(osSignals)

	interruptCtx, cancelInterrupt := context.WithCancel(context.Background())
	wake := make(chan struct{}, 1)

	g, gctx := errgroup.WithContext(baseCtx)

	g.Go(func() error {
		for {
			select {
			case <-osSignals:
				select {
				case wake <- struct{}{}:
				default:
				}
			case <-interruptCtx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		sup.HandleInterrupt(interruptCtx, wake, os.Stdout)
		return nil
	})

	g.Go(func() error {
		for {
			conn, err := ln.Accept()
			if err != nil {
				select {
				case <-gctx.Done():
					return nil
				default:
					return err
				}
			}
			sup.Accept(baseCtx, conn)
		}
	})

	if collector != nil {
		metricsServer := metrics.NewServer(metricsAddr, collector)
		g.Go(func() error {
			return metricsServer.Run(gctx)
		})
	}

	console := repl.New(sup, os.Stdin, os.Stdout)
	console.Run() // blocks until the operator hits Ctrl-D (EOF)

	cancelInterrupt()
	sup.Shutdown()
	cancelBase()
	ln.Close()

	return g.Wait()
}
