package supervisor

import "sync"

// gate is the admission gate of spec.md §3/§4.E: a boolean guarded by a
// mutex, starting open, closed exactly once during shutdown.
type gate struct {
	mu     sync.Mutex
	closed bool
}

// Enter reports whether the gate is still open.
func (g *gate) Enter() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.closed
}

// Close shuts the gate. Idempotent.
func (g *gate) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
}
