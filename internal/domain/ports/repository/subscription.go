package repository

import (
	"context"
	"time"

	"subsavvy/internal/domain/model"
)

// SubscriptionRepository is the port for tracked subscriptions.
type SubscriptionRepository interface {
	// Save inserts or updates by ID.
	Save(ctx context.Context, tx Tx, sub *model.Subscription) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Subscription, error)
	// ListByUser filters by status unless status is empty.
	ListByUser(ctx context.Context, tx Tx, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error)
	Delete(ctx context.Context, tx Tx, id string) error

	// FindRenewing returns active subscriptions whose next billing date is in [from, to].
	FindRenewing(ctx context.Context, tx Tx, from, to time.Time) ([]*model.Subscription, error)
	// ListUserIDsWithActive returns every user that has at least one active subscription.
	ListUserIDsWithActive(ctx context.Context, tx Tx) ([]string, error)
}
