package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RateLimiter bounds how often an action keyed by caller identity may run.
type RateLimiter interface {
	// Allow reports whether the action under key is within limit for
	// the window. It fails open on infrastructure errors: a degraded
	// Redis must not lock every operator out.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisRateLimiter struct {
	client  *redis.Client
	enabled bool
	logger  *zap.Logger
}

// NewRedisRateLimiter creates a fixed-window limiter backed by Redis
// INCR/EXPIRE.
func NewRedisRateLimiter(client *redis.Client, enabled bool, logger *zap.Logger) RateLimiter {
	return &redisRateLimiter{client: client, enabled: enabled, logger: logger}
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if !r.enabled || limit <= 0 {
		return true, nil
	}

	redisKey := fmt.Sprintf("ratelimit:%s", key)

	count, err := r.client.Incr(ctx, redisKey).Result()
	if err != nil {
		r.logger.Error("rate limit INCR failed, failing open",
			zap.String("key", redisKey), zap.Error(err))
		return true, fmt.Errorf("redis operation failed during rate limit check: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, redisKey, window).Err(); err != nil {
			r.logger.Error("rate limit EXPIRE failed",
				zap.String("key", redisKey), zap.Error(err))
		}
	}

	return count <= int64(limit), nil
}

// NoopRateLimiter always allows; used when rate limiting is disabled
// and in tests.
type NoopRateLimiter struct{}

func (NoopRateLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, nil
}
