package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

type catalogRepo struct {
	pool *pgxpool.Pool
}

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) Save(ctx context.Context, tx repository.Tx, s *model.CatalogService) error {
	const q = `
INSERT INTO catalog_services (id, name, category, website, cancel_url, cancel_steps, plans)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  name=$2, category=$3, website=$4, cancel_url=$5, cancel_steps=$6, plans=$7;`
	plans, err := json.Marshal(s.Plans)
	if err != nil {
		return fmt.Errorf("%w: plans: %v", domain.ErrInvalidArgument, err)
	}
	steps := s.CancelSteps
	if steps == nil {
		steps = []string{}
	}
	_, err = execSQL(ctx, r.pool, tx, q, s.ID, s.Name, s.Category, s.Website, s.CancelURL, steps, plans)
	return err
}

func (r *catalogRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.CatalogService, error) {
	const q = `
SELECT id, name, category, website, cancel_url, cancel_steps, plans
  FROM catalog_services WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCatalog(row)
}

func (r *catalogRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.CatalogService, error) {
	const q = `
SELECT id, name, category, website, cancel_url, cancel_steps, plans
  FROM catalog_services ORDER BY name;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.CatalogService
	for rows.Next() {
		s, err := scanCatalog(rows)
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

func scanCatalog(row pgx.Row) (*model.CatalogService, error) {
	var (
		s     model.CatalogService
		plans []byte
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Category, &s.Website, &s.CancelURL, &s.CancelSteps, &plans); err != nil {
		return nil, scanErr(err)
	}
	if len(plans) > 0 {
		if err := json.Unmarshal(plans, &s.Plans); err != nil {
			return nil, fmt.Errorf("%w: plans: %v", domain.ErrReadDatabaseRow, err)
		}
	}
	return &s, nil
}
