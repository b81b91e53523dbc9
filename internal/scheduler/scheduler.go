// Package scheduler runs delayed continuations on a clockwork clock so
// tests can drive them with a fake clock.
package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type Scheduler struct {
	clock clockwork.Clock

	mu      sync.Mutex
	seq     uint64
	pending map[uint64]clockwork.Timer
	stopped bool
}

func New(clock clockwork.Clock) *Scheduler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Scheduler{clock: clock, pending: make(map[uint64]clockwork.Timer)}
}

// AfterFunc runs fn on its own goroutine once d has elapsed on the clock.
// The returned cancel func is safe to call at any time, including after fn
// ran. After Stop, AfterFunc is a no-op.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return func() {}
	}

	s.seq++
	id := s.seq
	s.pending[id] = s.clock.AfterFunc(d, func() {
		s.mu.Lock()
		_, live := s.pending[id]
		delete(s.pending, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return func() { s.cancel(id) }
}

func (s *Scheduler) cancel(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.pending[id]; ok {
		t.Stop()
		delete(s.pending, id)
	}
}

// Pending reports how many continuations have not fired yet.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels every pending continuation and refuses new ones.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, t := range s.pending {
		t.Stop()
		delete(s.pending, id)
	}
}
