package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Limiter is a fixed-window counter limiter. The first request for a key
// opens a window; every request in that window consumes one unit until the
// cap is reached; the window expires as a whole and the next request opens
// a fresh one.
type Limiter struct {
	counters *cache.Cache
	mu       sync.Mutex
	limit    int
	window   time.Duration
}

// New creates a limiter allowing limit units per window for each key.
func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		counters: cache.New(window, 2*window),
		limit:    limit,
		window:   window,
	}
}

// Allow consumes one unit for key and reports whether the request may
// proceed. The add+increment pair is guarded by one mutex so concurrent
// requests cannot slip past the cap together.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, found := l.counters.Get(key)
	if !found {
		l.counters.Set(key, 1, l.window)
		return true
	}

	if current.(int) >= l.limit {
		return false
	}

	// IncrementInt keeps the entry's original expiration, so the window
	// does not slide.
	if _, err := l.counters.IncrementInt(key, 1); err != nil {
		// Entry expired between Get and Increment; open a new window.
		l.counters.Set(key, 1, l.window)
	}
	return true
}

// Refund returns one unit to key's current window. Used to not count
// requests that subsequently fail.
func (l *Limiter) Refund(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, found := l.counters.Get(key)
	if !found || current.(int) <= 0 {
		return
	}
	l.counters.DecrementInt(key, 1)
}

// Remaining reports the units left in key's current window.
func (l *Limiter) Remaining(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	current, found := l.counters.Get(key)
	if !found {
		return l.limit
	}
	remaining := l.limit - current.(int)
	if remaining < 0 {
		return 0
	}
	return remaining
}
