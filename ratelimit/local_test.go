package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLimiterAllowsUpToLimit(t *testing.T) {
	l := NewLocalLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "user_a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := l.Allow(ctx, "user_a")
	require.NoError(t, err)
	assert.False(t, ok, "fourth request should be denied")
}

func TestLocalLimiterKeysAreIndependent(t *testing.T) {
	l := NewLocalLimiter(1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "user_a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "user_a")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Allow(ctx, "user_b")
	require.NoError(t, err)
	assert.True(t, ok, "a different subject starts with a fresh bucket")
}

func TestLocalLimiterSweepsExpiredEntries(t *testing.T) {
	l := NewLocalLimiter(3, time.Minute)
	l.ttl = time.Millisecond
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := l.Allow(ctx, fmt.Sprintf("user_%d", i))
		require.NoError(t, err)
	}
	time.Sleep(5 * time.Millisecond)

	_, err := l.Allow(ctx, "user_fresh")
	require.NoError(t, err)

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.entries, 1, "stale buckets are dropped on the next call")
}
