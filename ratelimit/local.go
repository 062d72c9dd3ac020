package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type localEntry struct {
	limiter *rate.Limiter
	expires time.Time
}

// LocalLimiter approximates the sliding window with an in-process token
// bucket per subject key. It serves deployments without Redis and tests;
// counters are lost on restart and not shared between replicas.
type LocalLimiter struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

// NewLocalLimiter builds a limiter allowing limit requests per window.
func NewLocalLimiter(limit int, window time.Duration) *LocalLimiter {
	if limit < 1 {
		limit = 1
	}
	return &LocalLimiter{
		entries: map[string]*localEntry{},
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		ttl:     5 * time.Minute,
	}
}

// Allow consumes a token for key, creating the bucket on first sight.
func (l *LocalLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweepLocked()

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = entry
	}
	entry.expires = time.Now().Add(l.ttl)

	return entry.limiter.Allow(), nil
}

func (l *LocalLimiter) sweepLocked() {
	now := time.Now()
	for key, entry := range l.entries {
		if now.After(entry.expires) {
			delete(l.entries, key)
		}
	}
}
