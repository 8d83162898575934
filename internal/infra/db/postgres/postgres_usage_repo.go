package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.UsageRepository = (*usageRepo)(nil)

type usageRepo struct {
	pool *pgxpool.Pool
}

func NewUsageRepo(pool *pgxpool.Pool) *usageRepo {
	return &usageRepo{pool: pool}
}

func (r *usageRepo) Save(ctx context.Context, tx repository.Tx, u *model.UsageStat) error {
	const q = `
INSERT INTO usage_stats (subscription_id, minutes, last_used_at, source, window_days, collected_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (subscription_id) DO UPDATE SET
  minutes=$2, last_used_at=$3, source=$4, window_days=$5, collected_at=$6;`
	_, err := execSQL(ctx, r.pool, tx, q, u.SubscriptionID, u.Minutes, u.LastUsedAt, u.Source, u.WindowDays, u.CollectedAt)
	return err
}

func (r *usageRepo) ListBySubscriptions(ctx context.Context, tx repository.Tx, subscriptionIDs []string) (map[string]model.UsageStat, error) {
	out := make(map[string]model.UsageStat, len(subscriptionIDs))
	if len(subscriptionIDs) == 0 {
		return out, nil
	}
	const q = `
SELECT subscription_id, minutes, last_used_at, source, window_days, collected_at
  FROM usage_stats
 WHERE subscription_id = ANY($1);`
	rows, err := queryRows(ctx, r.pool, tx, q, subscriptionIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var u model.UsageStat
		if err := rows.Scan(&u.SubscriptionID, &u.Minutes, &u.LastUsedAt, &u.Source, &u.WindowDays, &u.CollectedAt); err != nil {
			return nil, scanErr(err)
		}
		out[u.SubscriptionID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
