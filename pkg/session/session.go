// Package session implements the per-connection worker of spec.md §4.D:
// admission, the pause-wait/read/dispatch/write serve loop, and the
// guaranteed cleanup that runs on EOF or cancellation.
package session

import (
	"context"

	"github.com/demile-15/ConcurrentDB/pkg/transport"
	"github.com/sirupsen/logrus"
)

// Controller is the supervisor-shaped dependency a Session needs: the
// admission gate, the session registry, and the pause latch (spec.md
// §4.D, §4.E). Defined on the consumer side so pkg/supervisor can depend
// on pkg/session without a cycle.
type Controller interface {
	// Admit consults the admission gate and, if open, registers s.
	// It reports whether s was admitted.
	Admit(s *Session) bool

	// Release runs the guaranteed cleanup: unlink s from the registry
	// and account for its exit. Called exactly once, on every exit path.
	Release(s *Session)

	// WaitWhilePaused blocks while the pause latch is set. It returns
	// ctx.Err() if ctx is cancelled while waiting.
	WaitWhilePaused(ctx context.Context) error
}

// Interpreter dispatches one command line to a response.
type Interpreter interface {
	Interpret(ctx context.Context, line string) string
}

// Session is one worker per accepted connection. Prev and Next are the
// intrusive doubly-linked-list pointers described in spec.md §3; they
// are exported so a Controller's registry can splice a Session in and
// out directly, but only the Controller that admitted a Session may
// mutate them, and always under its own list mutex.
type Session struct {
	ID     string
	Prev   *Session
	Next   *Session
	conn   transport.Transport
	cancel context.CancelFunc
}

// New constructs a Session around an accepted transport. cancel is the
// CancelFunc for the context that will be passed to Run; calling Cancel
// invokes it and closes conn, so a Session blocked in ReadLine or the
// pause wait unblocks promptly (spec.md DESIGN NOTES, cancellation of
// blocking reads, strategy (b)).
func New(id string, conn transport.Transport, cancel context.CancelFunc) *Session {
	return &Session{ID: id, conn: conn, cancel: cancel}
}

// Cancel requests asynchronous cancellation of this session's worker.
func (s *Session) Cancel() {
	s.cancel()
	s.conn.Close()
}

// Run is the serve loop of spec.md §4.D.3: admission, then repeatedly
// waiting on the pause latch, reading one command, dispatching it, and
// writing the response, until EOF or cancellation. Cleanup is guaranteed
// via defer regardless of which exit path is taken.
func (s *Session) Run(ctx context.Context, ctrl Controller, interp Interpreter, log *logrus.Entry) {
	if !ctrl.Admit(s) {
		s.conn.Close()
		return
	}

	defer func() {
		ctrl.Release(s)
		s.conn.Close()
	}()

	for {
		if err := ctrl.WaitWhilePaused(ctx); err != nil {
			return
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			return
		}

		if ctx.Err() != nil {
			return
		}

		response := interp.Interpret(ctx, line)
		if err := s.conn.WriteLine(response); err != nil {
			log.WithField("session", s.ID).WithError(err).Debug("write failed, closing session")
			return
		}
	}
}
