package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.RecommendationRepository = (*recommendationRepo)(nil)

type recommendationRepo struct {
	pool *pgxpool.Pool
}

func NewRecommendationRepo(pool *pgxpool.Pool) *recommendationRepo {
	return &recommendationRepo{pool: pool}
}

func (r *recommendationRepo) Save(ctx context.Context, tx repository.Tx, rec *model.Recommendation) error {
	const q = `
INSERT INTO recommendations (id, user_id, subscription_id, bundle_id, kind, title, detail, monthly_savings, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.ID, rec.UserID, nullString(rec.SubscriptionID), nullString(rec.BundleID),
		string(rec.Kind), rec.Title, rec.Detail, rec.MonthlySavings, rec.CreatedAt)
	return err
}

func (r *recommendationRepo) DeleteByUser(ctx context.Context, tx repository.Tx, userID string) error {
	_, err := execSQL(ctx, r.pool, tx, `DELETE FROM recommendations WHERE user_id=$1;`, userID)
	return err
}

// ListByUser returns the stored set in the order the recommender ranks it.
func (r *recommendationRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Recommendation, error) {
	const q = `
SELECT id, user_id, subscription_id, bundle_id, kind, title, detail, monthly_savings, created_at
  FROM recommendations
 WHERE user_id=$1
 ORDER BY monthly_savings DESC,
          CASE kind WHEN 'cancel' THEN 0 WHEN 'downgrade' THEN 1 WHEN 'overlap' THEN 2 ELSE 3 END,
          COALESCE(subscription_id, '') COLLATE "C",
          COALESCE(bundle_id, '') COLLATE "C";`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Recommendation, 0)
	for rows.Next() {
		var (
			rec           model.Recommendation
			subID, bundle *string
			kind          string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &subID, &bundle, &kind, &rec.Title, &rec.Detail, &rec.MonthlySavings, &rec.CreatedAt); err != nil {
			return nil, scanErr(err)
		}
		rec.SubscriptionID = derefString(subID)
		rec.BundleID = derefString(bundle)
		rec.Kind = model.RecommendationKind(kind)
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}
