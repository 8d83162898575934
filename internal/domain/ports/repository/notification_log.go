package repository

import (
	"context"
	"time"
)

// NotificationLogRepository records sent reminders so each billing date is
// announced once.
type NotificationLogRepository interface {
	Save(ctx context.Context, tx Tx, subscriptionID, userID, kind string, dueOn time.Time) error
	Exists(ctx context.Context, tx Tx, subscriptionID, kind string, dueOn time.Time) (bool, error)
}
