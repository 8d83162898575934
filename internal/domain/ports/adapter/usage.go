package adapter

import (
	"context"
	"time"

	"subsavvy/internal/domain/model"
)

// UsageSource reports listening/watching time for a connected provider.
// The returned stat has no SubscriptionID; the caller assigns it.
type UsageSource interface {
	RecentUsage(ctx context.Context, conn *model.Connection, since time.Time) (model.UsageStat, error)
}
