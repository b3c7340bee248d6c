package supervisor

import (
	"sync"

	"github.com/demile-15/ConcurrentDB/pkg/session"
)

// registry is the session list of spec.md §3/§4.E: an intrusive doubly
// linked list, push-front on registration, spliced out on cleanup, all
// under its own mutex. It never participates in tree locking.
type registry struct {
	mu   sync.Mutex
	head *session.Session
}

// PushFront links s at the head of the list.
func (r *registry) PushFront(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.Prev = nil
	s.Next = r.head
	if r.head != nil {
		r.head.Prev = s
	}
	r.head = s
}

// Remove unlinks s. Safe to call even if s is not (or no longer) in the
// list.
func (r *registry) Remove(s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Prev != nil {
		s.Prev.Next = s.Next
	} else if r.head == s {
		r.head = s.Next
	}
	if s.Next != nil {
		s.Next.Prev = s.Prev
	}
	s.Prev, s.Next = nil, nil
}

// CancelAll requests cancellation of every session currently in the
// list. Sessions that already exited are not present and are skipped.
func (r *registry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for cur := r.head; cur != nil; cur = cur.Next {
		cur.Cancel()
	}
}

// Empty reports whether the list has no sessions.
func (r *registry) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.head == nil
}

// Len reports the number of sessions currently registered.
func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for cur := r.head; cur != nil; cur = cur.Next {
		n++
	}
	return n
}
