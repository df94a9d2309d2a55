package viewport

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display frame.
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler coalesces bursts of scroll/resize callbacks to at most one
// execution per frame interval using cancel-and-reschedule: only the latest
// scheduled function runs.
type FrameScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewFrameScheduler creates a scheduler; a non-positive interval falls back
// to DefaultFrameInterval.
func NewFrameScheduler(interval time.Duration) *FrameScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &FrameScheduler{interval: interval}
}

// Schedule cancels any pending callback and arms fn to run after the frame
// interval. A burst of calls collapses to the last fn only.
func (s *FrameScheduler) Schedule(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.interval, fn)
}

// Stop cancels any pending callback and rejects future schedules.
func (s *FrameScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
