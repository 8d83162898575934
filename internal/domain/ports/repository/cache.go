package repository

import (
	"context"
	"time"

	"subsavvy/internal/domain/model"
)

// Locker is a best-effort distributed mutex.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// GuideCache stores generated cancellation guides. Get returns
// domain.ErrNotFound on a miss.
type GuideCache interface {
	Get(ctx context.Context, service string) (*model.CancellationGuide, error)
	Set(ctx context.Context, service string, g *model.CancellationGuide, ttl time.Duration) error
}

// LinkCodeStore holds one-time codes that bind a Telegram chat to a user.
// Redeem consumes the code and returns domain.ErrNotFound for unknown,
// expired or already used codes.
type LinkCodeStore interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (string, error)
	Redeem(ctx context.Context, code string) (string, error)
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
