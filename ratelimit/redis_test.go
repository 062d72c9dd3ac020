package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLimiterSlidingWindow(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, "ratelimit:posts", 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "user_a")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := l.Allow(ctx, "user_a")
	require.NoError(t, err)
	assert.False(t, ok, "fourth request inside the window should be denied")

	// Once the window has elapsed the old entries fall out of score range.
	mr.FastForward(61 * time.Second)
	ok, err = l.Allow(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, ok, "window rolled over, quota is fresh")
}

func TestRedisLimiterKeysAreIndependent(t *testing.T) {
	_, client := newTestRedis(t)
	l := NewRedisLimiter(client, "ratelimit:comments", 1, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "user_a")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = l.Allow(ctx, "user_a")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Allow(ctx, "user_b")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterPrefixesAreIndependent(t *testing.T) {
	_, client := newTestRedis(t)
	posts := NewRedisLimiter(client, "ratelimit:posts", 1, time.Minute)
	comments := NewRedisLimiter(client, "ratelimit:comments", 1, time.Minute)
	ctx := context.Background()

	ok, err := posts.Allow(ctx, "user_a")
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = posts.Allow(ctx, "user_a")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = comments.Allow(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, ok, "comment quota is tracked separately from post quota")
}

func TestRedisLimiterDeniedProbeDoesNotConsume(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, "ratelimit:posts", 2, time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "user_a")
		require.NoError(t, err)
		require.True(t, ok)
	}
	for i := 0; i < 5; i++ {
		ok, err := l.Allow(ctx, "user_a")
		require.NoError(t, err)
		require.False(t, ok)
	}

	// Denied probes were removed, so only the two admitted members remain
	// and both expire together.
	mr.FastForward(61 * time.Second)
	ok, err := l.Allow(ctx, "user_a")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterErrorsOnDeadBackend(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRedisLimiter(client, "ratelimit:posts", 3, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "user_a")
	assert.Error(t, err)
}
