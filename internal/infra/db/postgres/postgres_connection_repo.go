package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.ConnectionRepository = (*connectionRepo)(nil)

type connectionRepo struct {
	pool *pgxpool.Pool
}

func NewConnectionRepo(pool *pgxpool.Pool) *connectionRepo {
	return &connectionRepo{pool: pool}
}

func (r *connectionRepo) Save(ctx context.Context, tx repository.Tx, c *model.Connection) error {
	const q = `
INSERT INTO connections (user_id, provider, access_token, refresh_token, token_type, expiry, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id, provider) DO UPDATE SET
  access_token=$3, refresh_token=$4, token_type=$5, expiry=$6, updated_at=$7;`
	_, err := execSQL(ctx, r.pool, tx, q, c.UserID, string(c.Provider), c.AccessToken, c.RefreshToken, c.TokenType, c.Expiry, c.UpdatedAt)
	return err
}

func (r *connectionRepo) Find(ctx context.Context, tx repository.Tx, userID string, provider model.Provider) (*model.Connection, error) {
	const q = `
SELECT user_id, provider, access_token, refresh_token, token_type, expiry, updated_at
  FROM connections WHERE user_id=$1 AND provider=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, userID, string(provider))
	if err != nil {
		return nil, err
	}
	var (
		c    model.Connection
		prov string
	)
	if err := row.Scan(&c.UserID, &prov, &c.AccessToken, &c.RefreshToken, &c.TokenType, &c.Expiry, &c.UpdatedAt); err != nil {
		return nil, scanErr(err)
	}
	c.Provider = model.Provider(prov)
	return &c, nil
}

func (r *connectionRepo) Delete(ctx context.Context, tx repository.Tx, userID string, provider model.Provider) error {
	tag, err := execSQL(ctx, r.pool, tx, `DELETE FROM connections WHERE user_id=$1 AND provider=$2;`, userID, string(provider))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
