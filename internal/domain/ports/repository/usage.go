package repository

import (
	"context"

	"subsavvy/internal/domain/model"
)

type UsageRepository interface {
	// Save keeps the latest stat per subscription.
	Save(ctx context.Context, tx Tx, u *model.UsageStat) error
	ListBySubscriptions(ctx context.Context, tx Tx, subscriptionIDs []string) (map[string]model.UsageStat, error)
}
