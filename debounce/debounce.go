// Package debounce provides a keyed, cancellable deferred-action scheduler.
//
// Each key holds at most one pending action: scheduling again under the same
// key cancels the previous timer and restarts the window, so a burst of
// edits to the same logical input collapses into a single fire. Keys are
// independent; there is no cross-key ordering.
//
// The action runs on the timer goroutine. Callers that capture evolving
// state should read it inside the action, not at schedule time.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the shared debounce interval used when a Scheduler is
// created without one.
const DefaultWindow = time.Second

type pending struct {
	timer *time.Timer
	fn    func()
}

// Scheduler owns the per-key timers. Safe for concurrent use.
type Scheduler struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*pending
	closed  bool
}

// New creates a Scheduler with the given default window.
// A non-positive window falls back to DefaultWindow.
func New(window time.Duration) *Scheduler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Scheduler{
		window:  window,
		pending: make(map[string]*pending),
	}
}

// Window returns the default debounce window.
func (s *Scheduler) Window() time.Duration { return s.window }

// Schedule queues fn to run after the default window, cancelling any prior
// pending action for the same key.
func (s *Scheduler) Schedule(key string, fn func()) {
	s.ScheduleAfter(key, s.window, fn)
}

// ScheduleAfter is Schedule with an explicit delay.
func (s *Scheduler) ScheduleAfter(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if p, ok := s.pending[key]; ok {
		p.timer.Stop()
	}
	p := &pending{fn: fn}
	p.timer = time.AfterFunc(delay, func() { s.fire(key, p) })
	s.pending[key] = p
}

// fire runs a pending action if it is still the current one for its key.
func (s *Scheduler) fire(key string, p *pending) {
	s.mu.Lock()
	cur, ok := s.pending[key]
	if !ok || cur != p {
		// Cancelled or replaced between timer fire and lock acquisition.
		s.mu.Unlock()
		return
	}
	delete(s.pending, key)
	s.mu.Unlock()

	p.fn()
}

// Cancel drops the pending action for key. Reports whether one was pending.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[key]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.pending, key)
	return true
}

// CancelAll drops every pending action.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pending {
		p.timer.Stop()
	}
	clear(s.pending)
}

// Flush runs the pending action for key immediately, if any.
// Reports whether an action ran.
func (s *Scheduler) Flush(key string) bool {
	s.mu.Lock()
	p, ok := s.pending[key]
	if !ok {
		s.mu.Unlock()
		return false
	}
	p.timer.Stop()
	delete(s.pending, key)
	s.mu.Unlock()

	p.fn()
	return true
}

// Pending reports whether key has a pending action.
func (s *Scheduler) Pending(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[key]
	return ok
}

// Close cancels all pending actions and rejects further scheduling.
// Used on page unmount so no commit fires after the page is gone.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, p := range s.pending {
		p.timer.Stop()
	}
	clear(s.pending)
}
