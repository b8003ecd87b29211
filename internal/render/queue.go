package render

import (
	"sync"
	"time"
)

// FrameQueue is a Host for event loops that pump frames themselves: the
// desktop window and the headless ticker. It holds at most one pending
// callback, like requestAnimationFrame does for a single requester.
type FrameQueue struct {
	mu      sync.Mutex
	pending func(time.Time)
}

// RequestFrame replaces any pending callback with fn.
func (q *FrameQueue) RequestFrame(fn func(now time.Time)) {
	q.mu.Lock()
	q.pending = fn
	q.mu.Unlock()
}

// Pending reports whether a callback is waiting.
func (q *FrameQueue) Pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending != nil
}

// Dispatch runs the pending callback, if any, with now. The callback may
// request the next frame. It reports whether a callback ran.
func (q *FrameQueue) Dispatch(now time.Time) bool {
	q.mu.Lock()
	fn := q.pending
	q.pending = nil
	q.mu.Unlock()

	if fn == nil {
		return false
	}
	fn(now)
	return true
}
