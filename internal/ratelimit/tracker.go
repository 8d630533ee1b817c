package ratelimit

import (
	"sync"
	"time"
)

// sweepThreshold is the number of tracked clients above which expired
// windows are dropped on insert.
const sweepThreshold = 4096

type window struct {
	start time.Time
	count int
}

// Limiter tracks fixed windows per client key. Safe for concurrent use.
type Limiter struct {
	limit Limit
	now   func() time.Time

	mu      sync.Mutex
	windows map[string]*window
}

// New creates a Limiter. A disabled limit allows everything.
func New(limit Limit) *Limiter {
	return &Limiter{
		limit:   limit,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// Limit returns the configured budget.
func (l *Limiter) Limit() Limit {
	return l.limit
}

// Allow records a request for key and reports whether it fits the budget.
// Rejected requests are not counted.
func (l *Limiter) Allow(key string) CheckResult {
	if l == nil || !l.limit.Enabled() {
		return CheckResult{}
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.snapshot(key, now)
	result := Check(w.count, l.limit)
	if !result.Exceeded {
		w.count++
	} else {
		result.RetryAfter = w.start.Add(l.limit.Window).Sub(now)
	}
	return result
}

// snapshot returns the window for key, resetting it once expired.
// Caller holds mu.
func (l *Limiter) snapshot(key string, now time.Time) *window {
	w, ok := l.windows[key]
	if !ok {
		if len(l.windows) >= sweepThreshold {
			l.sweep(now)
		}
		w = &window{start: now}
		l.windows[key] = w
		return w
	}
	if now.Sub(w.start) >= l.limit.Window {
		w.start = now
		w.count = 0
	}
	return w
}

func (l *Limiter) sweep(now time.Time) {
	for k, w := range l.windows {
		if now.Sub(w.start) >= l.limit.Window {
			delete(l.windows, k)
		}
	}
}

// Tracked returns the number of clients with a window.
func (l *Limiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}
