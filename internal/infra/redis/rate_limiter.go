package redis

import (
	"context"
	"fmt"
	"time"

	"subsavvy/internal/domain/ports/repository"
)

var _ repository.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a fixed-window counter keyed by caller.
type RateLimiter struct {
	client RedisClient
}

func NewRateLimiter(client RedisClient) *RateLimiter {
	return &RateLimiter{client: client}
}

func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	// Increment and expiry are one script: a counter never outlives its window.
	count, err := r.client.IncrExpire(ctx, key, window)
	if err != nil {
		return false, err
	}

	if count > int64(limit) {
		return false, nil
	}

	return true, nil
}

func UserRouteKey(userID, route string) string {
	return fmt.Sprintf("rate_limit:%s:%s", userID, route)
}
