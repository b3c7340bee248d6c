// Package supervisor implements spec.md §4.E: the session registry, the
// admission gate, the pause latch, interrupt-driven mass cancellation,
// and the drain-to-zero shutdown barrier.
package supervisor

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/demile-15/ConcurrentDB/pkg/interp"
	"github.com/demile-15/ConcurrentDB/pkg/metrics"
	"github.com/demile-15/ConcurrentDB/pkg/session"
	"github.com/demile-15/ConcurrentDB/pkg/transport"
	"github.com/demile-15/ConcurrentDB/pkg/tree"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"
)

// Supervisor owns the process-wide session registry and the BST it
// fronts. Construct with New; the zero value is not usable.
type Supervisor struct {
	tree     *tree.Tree
	log      *logrus.Logger
	metrics  *metrics.Collector
	gate     gate
	registry registry
	drain    *drainBarrier
	pause    *pauseLatch
}

// New builds a Supervisor around t. collector may be nil, in which case
// no operational counters are recorded.
func New(t *tree.Tree, log *logrus.Logger, collector *metrics.Collector) *Supervisor {
	return &Supervisor{
		tree:    t,
		log:     log,
		metrics: collector,
		drain:   newDrainBarrier(),
		pause:   newPauseLatch(),
	}
}

// Accept admits conn, spawning the goroutine that runs its Session to
// completion under base, the supervisor's shutdown context.
func (sup *Supervisor) Accept(base context.Context, conn transport.Transport) {
	id := ksuid.New().String()
	ctx, cancel := context.WithCancel(base)
	s := session.New(id, conn, cancel)

	go s.Run(ctx, sup, interpreterAdapter{sup: sup}, sup.log.WithField("component", "session"))
}

// Admit implements session.Controller.
func (sup *Supervisor) Admit(s *session.Session) bool {
	if !sup.gate.Enter() {
		return false
	}
	sup.registry.PushFront(s)
	sup.drain.Inc()
	if sup.metrics != nil {
		sup.metrics.SessionOpened()
	}
	sup.log.WithField("session", s.ID).Info("session admitted")
	return true
}

// Release implements session.Controller.
func (sup *Supervisor) Release(s *session.Session) {
	sup.registry.Remove(s)
	sup.drain.Dec()
	if sup.metrics != nil {
		sup.metrics.SessionClosed()
	}
	sup.log.WithField("session", s.ID).Info("session closed")
}

// WaitWhilePaused implements session.Controller.
func (sup *Supervisor) WaitWhilePaused(ctx context.Context) error {
	return sup.pause.Wait(ctx)
}

// ActiveSessions returns the number of sessions currently registered.
func (sup *Supervisor) ActiveSessions() int {
	return sup.registry.Len()
}

// Stop engages the pause latch ("s" operator command).
func (sup *Supervisor) Stop() {
	sup.pause.Stop()
	if sup.metrics != nil {
		sup.metrics.SetPaused(true)
	}
}

// Go releases the pause latch ("g" operator command).
func (sup *Supervisor) Go() {
	sup.pause.Release()
	if sup.metrics != nil {
		sup.metrics.SetPaused(false)
	}
}

// CancelAll requests asynchronous cancellation of every registered
// session.
func (sup *Supervisor) CancelAll() {
	sup.registry.CancelAll()
}

// Dump writes the tree to stdout, or to a file at path once its leading
// whitespace is trimmed, if that trimmed path is non-empty (spec.md §6,
// SPEC_FULL.md §D.1).
func (sup *Supervisor) Dump(path string, stdout io.Writer) error {
	trimmed := trimLeadingSpace(path)
	if trimmed == "" {
		sup.tree.Dump(stdout)
		return nil
	}
	f, err := createFile(trimmed)
	if err != nil {
		return err
	}
	defer f.Close()
	sup.tree.Dump(f)
	return nil
}

// HandleInterrupt runs the dedicated interrupt handler of spec.md §4.E:
// every signal delivered on sigs is answered with a stdout notice and a
// mass cancellation. It returns once ctx is cancelled.
func (sup *Supervisor) HandleInterrupt(ctx context.Context, sigs <-chan struct{}, stdout io.Writer) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigs:
			fmt.Fprintln(stdout, "SIGINT received, cancelling all clients")
			if sup.metrics != nil {
				sup.metrics.Interrupted()
			}
			sup.CancelAll()
		}
	}
}

// Shutdown implements the ordered shutdown sequence of spec.md §4.E
// steps 2-6 (steps 1 and 7 — stopping the interrupt handler and the
// listener — are owned by the caller, which holds those goroutines'
// lifetimes). It closes the admission gate, cancels every session,
// blocks until the active-session count reaches zero, asserts the
// registry drained, and tears down the tree.
func (sup *Supervisor) Shutdown() {
	sup.gate.Close()
	sup.CancelAll()
	sup.drain.WaitForZero()

	if !sup.registry.Empty() {
		panic("supervisor: session registry non-empty after drain")
	}

	sup.tree.Teardown()
}

type interpreterAdapter struct {
	sup *Supervisor
}

func (a interpreterAdapter) Interpret(ctx context.Context, line string) string {
	response := interp.Interpret(ctx, a.sup.tree, line)
	if a.sup.metrics != nil {
		a.sup.metrics.TreeOp(verb(line), response)
	}
	return response
}

// verb extracts the single-character command verb (a/q/d/f) a metrics
// label can key on, without parsing the rest of the line the way
// pkg/interp does.
func verb(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}
	return trimmed[:1]
}
