package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, service_name, cost, currency, billing_cycle, status,
  category, next_billing_date, source, created_at, updated_at, cancelled_at`

func (r *subscriptionRepo) Save(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  service_name=$3, cost=$4, currency=$5, billing_cycle=$6, status=$7,
  category=$8, next_billing_date=$9, source=$10, updated_at=$12, cancelled_at=$13;`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.ServiceName, s.Cost, s.Currency, string(s.BillingCycle), string(s.Status),
		s.Category, s.NextBillingDate, string(s.Source), s.CreatedAt, s.UpdatedAt, s.CancelledAt)
	return err
}

func (r *subscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSubscription(row)
}

func (r *subscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE user_id=$1 AND ($2::text = '' OR status=$2)
 ORDER BY created_at ASC, id ASC;`
	return r.list(ctx, tx, q, userID, string(status))
}

func (r *subscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM subscriptions WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepo) FindRenewing(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionColumns + `
  FROM subscriptions
 WHERE status='active' AND next_billing_date BETWEEN $1 AND $2
 ORDER BY next_billing_date ASC;`
	return r.list(ctx, tx, q, from, to)
}

func (r *subscriptionRepo) ListUserIDsWithActive(ctx context.Context, tx repository.Tx) ([]string, error) {
	const q = `SELECT DISTINCT user_id FROM subscriptions WHERE status='active' ORDER BY user_id;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, scanErr(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return ids, nil
}

func (r *subscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var (
		s                     model.Subscription
		cycle, status, source string
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &s.ServiceName, &s.Cost, &s.Currency, &cycle, &status,
		&s.Category, &s.NextBillingDate, &source, &s.CreatedAt, &s.UpdatedAt, &s.CancelledAt,
	); err != nil {
		return nil, scanErr(err)
	}
	s.BillingCycle = model.BillingCycle(cycle)
	s.Status = model.SubscriptionStatus(status)
	s.Source = model.SubscriptionSource(source)
	return &s, nil
}
