package throttle

import (
	"context"
	"sync"
	"time"
)

// Throttle enforces a minimum interval between outbound calls to one
// upstream host. It is shared process-wide: concurrent analyses serialize
// their calls to the same provider through one instance.
type Throttle struct {
	interval time.Duration
	lastCall time.Time
	mu       sync.Mutex
}

// New creates a throttle with the given minimum inter-call interval.
func New(interval time.Duration) *Throttle {
	if interval < 0 {
		interval = 0
	}
	return &Throttle{interval: interval}
}

// Wait blocks until the minimum interval since the previous call has
// elapsed, or the context is cancelled. The reservation is taken before
// sleeping so concurrent callers queue up behind each other.
func (t *Throttle) Wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	next := t.lastCall.Add(t.interval)
	if next.Before(now) {
		next = now
	}
	wait := next.Sub(now)
	t.lastCall = next
	t.mu.Unlock()

	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
