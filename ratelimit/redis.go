package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisLimiter implements a sliding window over a Redis sorted set, one set
// per subject key. Members are scored by request time; a request is allowed
// when the set holds no more than limit members inside the window after it
// is added. Concurrent bursts are arbitrated by Redis, not by this process.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewRedisLimiter builds a limiter allowing limit requests per window.
// The prefix keeps counter families independent (posts vs comments).
func NewRedisLimiter(client *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Allow records the request and reports whether it fits the window.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	redisKey := l.prefix + ":" + key
	windowStart := now.Add(-l.window)
	member := uuid.NewString()

	pipe := l.client.TxPipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart.UnixNano(), 10))
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: member})
	card := pipe.ZCard(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	if card.Val() > int64(l.limit) {
		// Over quota: the probe member must not occupy a slot once inside the window.
		_ = l.client.ZRem(ctx, redisKey, member).Err()
		return false, nil
	}
	return true, nil
}
