// Package cmd wires the Cobra command tree the teacher's cmd/freyja/cmd
// package follows: a root command carrying persistent flags and a
// dependency container injected by main.main(), plus a serve subcommand.
package cmd

import (
	"fmt"
	"os"

	"github.com/demile-15/ConcurrentDB/pkg/di"
	"github.com/spf13/cobra"
)

var container *di.Container

var rootCmd = &cobra.Command{
	Use:   "treedb",
	Short: "A concurrent, session-supervised binary search tree server",
	Long: `treedb serves a single shared binary search tree over a
line-oriented TCP protocol. Each node is guarded by its own lock, reads
and writes hand-over-hand down the tree, and a supervisor tracks every
open session so the operator console can pause, resume, and drain
clients on demand.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "address for the Prometheus metrics sidecar (disabled if empty)")
	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file (pkg/config.Config); --log-level and --metrics-addr still override values it sets")
}

// SetContainer injects the dependency container main.main() built.
func SetContainer(c *di.Container) {
	container = c
}

// Execute runs the command tree. Called once from main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
