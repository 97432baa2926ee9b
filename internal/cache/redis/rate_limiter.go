package redis

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/eveexchange/backend/internal/domain"
)

//go:embed scripts/sliding_window.lua
var slidingWindowScript string

// RateLimiter implements a sliding-window rate limiter with a Lua script
// so the check-and-record is atomic across API instances.
type RateLimiter struct {
	rdb    *redis.Client
	script *redis.Script
}

// NewRateLimiter creates a RateLimiter backed by the given Client.
func NewRateLimiter(c *Client) *RateLimiter {
	return &RateLimiter{
		rdb:    c.Underlying(),
		script: redis.NewScript(slidingWindowScript),
	}
}

// Allow records one request against the key and reports whether it fits
// inside the window. Fails open is not an option here: a Redis error is
// returned to the caller to decide.
func (rl *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixMilli()
	res, err := rl.script.Run(ctx, rl.rdb,
		[]string{"rl:" + key},
		now, window.Milliseconds(), limit,
	).Result()
	if err != nil {
		return false, fmt.Errorf("redis: rate limit %s: %w", key, err)
	}

	vals, ok := res.([]any)
	if !ok || len(vals) < 1 {
		return false, fmt.Errorf("redis: rate limit %s: unexpected reply %v", key, res)
	}
	allowed, _ := vals[0].(int64)
	return allowed == 1, nil
}

// Compile-time interface check.
var _ domain.RateLimiter = (*RateLimiter)(nil)
