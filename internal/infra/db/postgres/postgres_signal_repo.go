package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.SignalRepository = (*signalRepo)(nil)

type signalRepo struct {
	pool *pgxpool.Pool
}

func NewSignalRepo(pool *pgxpool.Pool) *signalRepo {
	return &signalRepo{pool: pool}
}

const signalColumns = `id, user_id, service_name, amount, currency, billing_cycle, confidence,
  message_id, received_at, status, created_at`

// Save relies on UNIQUE (user_id, message_id); a rescan of the same mail
// surfaces as domain.ErrAlreadyExists.
func (r *signalRepo) Save(ctx context.Context, tx repository.Tx, s *model.DetectedSignal) error {
	const q = `
INSERT INTO detected_signals (` + signalColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.UserID, s.ServiceName, s.Amount, s.Currency, string(s.BillingCycle), s.Confidence,
		s.MessageID, s.ReceivedAt, string(s.Status), s.CreatedAt)
	return err
}

func (r *signalRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.DetectedSignal, error) {
	const q = `SELECT ` + signalColumns + ` FROM detected_signals WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanSignal(row)
}

func (r *signalRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string, status model.SignalStatus) ([]*model.DetectedSignal, error) {
	const q = `
SELECT ` + signalColumns + `
  FROM detected_signals
 WHERE user_id=$1 AND ($2::text = '' OR status=$2)
 ORDER BY received_at DESC, id;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.DetectedSignal, 0)
	for rows.Next() {
		s, err := scanSignal(rows)
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

func (r *signalRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.SignalStatus) error {
	tag, err := execSQL(ctx, r.pool, tx, `UPDATE detected_signals SET status=$2 WHERE id=$1;`, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSignal(row pgx.Row) (*model.DetectedSignal, error) {
	var (
		s             model.DetectedSignal
		cycle, status string
	)
	if err := row.Scan(
		&s.ID, &s.UserID, &s.ServiceName, &s.Amount, &s.Currency, &cycle, &s.Confidence,
		&s.MessageID, &s.ReceivedAt, &status, &s.CreatedAt,
	); err != nil {
		return nil, scanErr(err)
	}
	s.BillingCycle = model.BillingCycle(cycle)
	s.Status = model.SignalStatus(status)
	return &s, nil
}
