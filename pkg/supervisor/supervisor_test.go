package supervisor

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/demile-15/ConcurrentDB/pkg/tree"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLog = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// scriptedTransport feeds a fixed line sequence, then blocks until
// Close is called, so tests can control exactly when a session's read
// unblocks under cancellation.
type scriptedTransport struct {
	mu      sync.Mutex
	lines   []string
	idx     int
	written []string
	closeCh chan struct{}
	once    sync.Once
	closed  bool
}

func newScriptedTransport(lines ...string) *scriptedTransport {
	return &scriptedTransport{lines: lines, closeCh: make(chan struct{})}
}

func (s *scriptedTransport) ReadLine() (string, error) {
	s.mu.Lock()
	if s.idx < len(s.lines) {
		line := s.lines[s.idx]
		s.idx++
		s.mu.Unlock()
		return line, nil
	}
	s.mu.Unlock()

	<-s.closeCh
	return "", errors.New("transport closed")
}

func (s *scriptedTransport) WriteLine(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, line)
	return nil
}

func (s *scriptedTransport) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.once.Do(func() { close(s.closeCh) })
	return nil
}

func (s *scriptedTransport) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.written...)
}

func newTestSupervisor() *Supervisor {
	return New(tree.New(), discardLog, nil)
}

func TestAcceptAdmitsAndServes(t *testing.T) {
	sup := newTestSupervisor()
	tr := newScriptedTransport("a k v", "q k")

	sup.Accept(context.Background(), tr)

	require.Eventually(t, func() bool {
		return len(tr.snapshot()) == 2
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"added", "v"}, tr.snapshot())
	tr.Close()
}

func TestAdmissionDeniedAfterGateClosed(t *testing.T) {
	sup := newTestSupervisor()
	sup.gate.Close()

	tr := newScriptedTransport("q k")
	sup.Accept(context.Background(), tr)

	require.Eventually(t, func() bool { return tr.closed }, time.Second, time.Millisecond)
	assert.Equal(t, 0, sup.ActiveSessions())
}

func TestStopPausesSessionsUntilGo(t *testing.T) {
	sup := newTestSupervisor()
	sup.Stop()

	tr := newScriptedTransport("q k")
	sup.Accept(context.Background(), tr)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, tr.snapshot(), "paused session must not process commands yet")

	sup.Go()
	require.Eventually(t, func() bool {
		return len(tr.snapshot()) == 1
	}, time.Second, time.Millisecond)
	tr.Close()
}

func TestCancelAllUnblocksPausedSessions(t *testing.T) {
	sup := newTestSupervisor()
	sup.Stop()

	tr := newScriptedTransport()
	sup.Accept(context.Background(), tr)

	require.Eventually(t, func() bool { return sup.ActiveSessions() == 1 }, time.Second, time.Millisecond)

	sup.CancelAll()
	require.Eventually(t, func() bool { return sup.ActiveSessions() == 0 }, time.Second, time.Millisecond)
	assert.True(t, tr.closed)
}

func TestShutdownDrainsRegisteredSessions(t *testing.T) {
	sup := newTestSupervisor()
	tr := newScriptedTransport()
	sup.Accept(context.Background(), tr)

	require.Eventually(t, func() bool { return sup.ActiveSessions() == 1 }, time.Second, time.Millisecond)

	done := make(chan struct{})
	go func() {
		sup.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not return")
	}

	assert.True(t, tr.closed)
	assert.Equal(t, 0, sup.ActiveSessions())

	deniedTransport := newScriptedTransport("q k")
	sup.Accept(context.Background(), deniedTransport)
	require.Eventually(t, func() bool { return deniedTransport.closed }, time.Second, time.Millisecond)
}

func TestHandleInterruptCancelsAllAndStopsOnContextDone(t *testing.T) {
	sup := newTestSupervisor()
	tr := newScriptedTransport()
	sup.Accept(context.Background(), tr)
	require.Eventually(t, func() bool { return sup.ActiveSessions() == 1 }, time.Second, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan struct{}, 1)
	var out strings.Builder

	done := make(chan struct{})
	go func() {
		sup.HandleInterrupt(ctx, sigs, &out)
		close(done)
	}()

	sigs <- struct{}{}
	require.Eventually(t, func() bool { return sup.ActiveSessions() == 0 }, time.Second, time.Millisecond)
	assert.Contains(t, out.String(), "cancelling all clients")

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("HandleInterrupt did not return after context cancellation")
	}
}

func TestDumpWritesToStdoutWhenPathBlank(t *testing.T) {
	sup := newTestSupervisor()
	require.NoError(t, sup.tree.Insert("k", "v"))

	var out strings.Builder
	require.NoError(t, sup.Dump("   ", &out))
	assert.Contains(t, out.String(), "k v")
}

func TestDumpWritesToFile(t *testing.T) {
	sup := newTestSupervisor()
	require.NoError(t, sup.tree.Insert("k", "v"))

	path := t.TempDir() + "/dump.txt"
	require.NoError(t, sup.Dump("  "+path, io.Discard))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(contents), "k v")
}
