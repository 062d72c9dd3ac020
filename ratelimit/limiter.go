package ratelimit

import "context"

// Limiter is the mutation-quota capability: one call both checks and
// consumes a slot for the subject key. Implementations decide where the
// window state lives, so the request layer never knows about Redis.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
