package driver

import (
	"sync"
	"time"
)

// Scheduler runs a callback on the next display frame. A new request replaces
// any pending one. Cancel drops the pending callback and refuses new ones.
type Scheduler interface {
	RequestTick(cb func())
	Cancel()
}

// TickerScheduler fires pending callbacks from a time.Ticker goroutine.
type TickerScheduler struct {
	interval time.Duration

	mu       sync.Mutex
	pending  func()
	started  bool
	canceled bool
	stopCh   chan struct{}
	done     chan struct{}
}

// NewTickerScheduler creates a scheduler ticking fps times per second.
func NewTickerScheduler(fps int) *TickerScheduler {
	if fps <= 0 {
		fps = 60
	}
	return &TickerScheduler{
		interval: time.Second / time.Duration(fps),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// RequestTick implements Scheduler. The ticker goroutine starts on first use.
func (s *TickerScheduler) RequestTick(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canceled {
		return
	}
	s.pending = cb
	if !s.started {
		s.started = true
		go s.loop()
	}
}

func (s *TickerScheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.mu.Lock()
			cb := s.pending
			s.pending = nil
			s.mu.Unlock()

			if cb != nil {
				cb()
			}
		}
	}
}

// Cancel implements Scheduler. It does not wait; use Done for that.
func (s *TickerScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.canceled {
		return
	}
	s.canceled = true
	s.pending = nil
	close(s.stopCh)
	if !s.started {
		close(s.done)
	}
}

// Done is closed once the ticker goroutine has exited after Cancel.
func (s *TickerScheduler) Done() <-chan struct{} {
	return s.done
}

// ManualScheduler runs callbacks only when Step is called.
type ManualScheduler struct {
	mu       sync.Mutex
	pending  func()
	canceled bool
}

// NewManualScheduler creates a ManualScheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// RequestTick implements Scheduler.
func (s *ManualScheduler) RequestTick(cb func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canceled {
		s.pending = cb
	}
}

// Cancel implements Scheduler.
func (s *ManualScheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.canceled = true
	s.pending = nil
}

// Step runs the pending callback, if any, and reports whether it ran.
func (s *ManualScheduler) Step() bool {
	s.mu.Lock()
	cb := s.pending
	s.pending = nil
	s.mu.Unlock()

	if cb == nil {
		return false
	}
	cb()
	return true
}

// Run steps up to n times and returns how many callbacks ran.
func (s *ManualScheduler) Run(n int) int {
	ran := 0
	for i := 0; i < n && s.Step(); i++ {
		ran++
	}
	return ran
}

// Pending reports whether a callback is waiting.
func (s *ManualScheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}
