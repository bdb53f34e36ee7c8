package session

import (
	"sync"
	"time"
)

// windowLimiter admits at most limit events per sliding window. Timestamps
// older than the window are pruned on each check, so the quota is enforced
// against the last window-worth of messages, not a fixed clock boundary.
type windowLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time
}

func newWindowLimiter(limit int, window time.Duration) *windowLimiter {
	if limit <= 0 {
		limit = 10
	}
	if window <= 0 {
		window = time.Second
	}
	return &windowLimiter{limit: limit, window: window}
}

// Allow records an event at now and reports whether it is within quota.
// An over-quota event is not recorded; the caller is expected to terminate
// the session anyway.
func (l *windowLimiter) Allow(now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	kept := l.stamps[:0]
	for _, ts := range l.stamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.stamps = kept

	if len(l.stamps) >= l.limit {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}
