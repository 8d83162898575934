package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.BundleRepository = (*bundleRepo)(nil)

type bundleRepo struct {
	pool *pgxpool.Pool
}

func NewBundleRepo(pool *pgxpool.Pool) *bundleRepo {
	return &bundleRepo{pool: pool}
}

func (r *bundleRepo) Save(ctx context.Context, tx repository.Tx, b *model.Bundle) error {
	const q = `
INSERT INTO bundles (id, provider, plan_name, monthly_price, included_services, is_active, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  provider=$2, plan_name=$3, monthly_price=$4, included_services=$5, is_active=$6, updated_at=$7;`
	services := b.IncludedServices
	if services == nil {
		services = []string{}
	}
	_, err := execSQL(ctx, r.pool, tx, q, b.ID, b.Provider, b.PlanName, b.MonthlyPrice, services, b.IsActive, b.UpdatedAt)
	return err
}

func (r *bundleRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Bundle, error) {
	const q = `
SELECT id, provider, plan_name, monthly_price, included_services, is_active, updated_at
  FROM bundles WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanBundle(row)
}

func (r *bundleRepo) ListActive(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	const q = `
SELECT id, provider, plan_name, monthly_price, included_services, is_active, updated_at
  FROM bundles WHERE is_active ORDER BY provider, plan_name, id;`
	return r.list(ctx, tx, q)
}

func (r *bundleRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Bundle, error) {
	const q = `
SELECT id, provider, plan_name, monthly_price, included_services, is_active, updated_at
  FROM bundles ORDER BY provider, plan_name, id;`
	return r.list(ctx, tx, q)
}

func (r *bundleRepo) Deactivate(ctx context.Context, tx repository.Tx, id string) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE bundles SET is_active=false, updated_at=now() WHERE id=$1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *bundleRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Bundle, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Bundle, 0)
	for rows.Next() {
		b, err := scanBundle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func scanBundle(row pgx.Row) (*model.Bundle, error) {
	var b model.Bundle
	if err := row.Scan(&b.ID, &b.Provider, &b.PlanName, &b.MonthlyPrice, &b.IncludedServices, &b.IsActive, &b.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	return &b, nil
}
