package supervisor

import (
	"context"
	"sync"
)

// pauseLatch is the pause latch of spec.md §3/§4.E. Sessions call Wait
// between commands; it blocks while the latch is set and is released by
// Stop/Release. Unlike a condition-variable wait, a channel close as the
// wake signal lets Wait select against ctx.Done() too, so a cancelled
// waiter returns immediately without needing to hold any mutex across
// the block — the cancellation-safety spec.md §4.E calls for falls out
// of the channel select rather than a cleanup handler.
type pauseLatch struct {
	mu     sync.Mutex
	paused bool
	resume chan struct{}
}

func newPauseLatch() *pauseLatch {
	return &pauseLatch{resume: make(chan struct{})}
}

// Stop engages the latch. Already-executing commands are unaffected;
// only the gap between commands is throttled.
func (p *pauseLatch) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.paused {
		p.paused = true
		p.resume = make(chan struct{})
	}
}

// Release disengages the latch and wakes every session parked in Wait.
func (p *pauseLatch) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused {
		p.paused = false
		close(p.resume)
	}
}

// Wait blocks while the latch is set. It returns ctx.Err() if ctx is
// cancelled first, and nil once the latch is (or becomes) released.
func (p *pauseLatch) Wait(ctx context.Context) error {
	for {
		p.mu.Lock()
		if !p.paused {
			p.mu.Unlock()
			return nil
		}
		wake := p.resume
		p.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
