package state_managers

import (
	"context"
	"sync"
	"time"
)

// RefreshSignal is a level-triggered flag asking a device poller to poll now.
// Any number of Set calls before a Clear leave exactly one pending refresh.
type RefreshSignal struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{} // closed while set
}

// NewRefreshSignal returns a cleared signal.
func NewRefreshSignal() *RefreshSignal {
	return &RefreshSignal{ch: make(chan struct{})}
}

// Set raises the flag and wakes every waiter.
func (s *RefreshSignal) Set() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		s.set = true
		close(s.ch)
	}
}

// Clear lowers the flag.
func (s *RefreshSignal) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
}

// IsSet reports whether a refresh is pending.
func (s *RefreshSignal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}

// Done returns a channel that is closed once the flag is set.
func (s *RefreshSignal) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Wait sleeps for timeout unless the flag is or becomes set first.
// It reports whether it was woken by the flag.
func (s *RefreshSignal) Wait(ctx context.Context, timeout time.Duration) (bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-s.Done():
		return true, nil
	case <-timer.C:
		return false, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}
