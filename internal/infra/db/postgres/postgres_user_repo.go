package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
)

var _ repository.UserRepository = (*userRepo)(nil)

type userRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *userRepo {
	return &userRepo{pool: pool}
}

func (r *userRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	const q = `
INSERT INTO users (id, email, telegram_chat_id, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (id) DO UPDATE SET email=$2, telegram_chat_id=$3;`
	var chat *int64
	if u.TelegramChatID != 0 {
		chat = &u.TelegramChatID
	}
	_, err := execSQL(ctx, r.pool, tx, q, u.ID, u.Email, chat, u.CreatedAt)
	return err
}

func (r *userRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	const q = `SELECT id, email, telegram_chat_id, created_at FROM users WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var (
		u    model.User
		chat *int64
	)
	if err := row.Scan(&u.ID, &u.Email, &chat, &u.CreatedAt); err != nil {
		return nil, scanErr(err)
	}
	if chat != nil {
		u.TelegramChatID = *chat
	}
	return &u, nil
}
