package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain/ports/repository"
)

var _ repository.NotificationLogRepository = (*notificationLogRepo)(nil)

type notificationLogRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationLogRepo(pool *pgxpool.Pool) repository.NotificationLogRepository {
	return &notificationLogRepo{pool: pool}
}

// Save leaves duplicate prevention to UNIQUE (subscription_id, kind, due_on).
func (r *notificationLogRepo) Save(ctx context.Context, tx repository.Tx, subscriptionID, userID, kind string, dueOn time.Time) error {
	const q = `
INSERT INTO subscription_notifications (id, subscription_id, user_id, kind, due_on)
VALUES ($1, $2, $3, $4, $5)`
	_, err := execSQL(ctx, r.pool, tx, q, uuid.NewString(), subscriptionID, userID, kind, dueDate(dueOn))
	return err
}

func (r *notificationLogRepo) Exists(ctx context.Context, tx repository.Tx, subscriptionID, kind string, dueOn time.Time) (bool, error) {
	const q = `
SELECT EXISTS(
    SELECT 1 FROM subscription_notifications
    WHERE subscription_id = $1 AND kind = $2 AND due_on = $3
)`
	row, err := pickRow(ctx, r.pool, tx, q, subscriptionID, kind, dueDate(dueOn))
	if err != nil {
		return false, err
	}
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, scanErr(err)
	}
	return exists, nil
}

func dueDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
