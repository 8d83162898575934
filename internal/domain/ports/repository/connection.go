package repository

import (
	"context"

	"subsavvy/internal/domain/model"
)

// ConnectionRepository stores third-party OAuth tokens. Tokens arrive and
// leave encrypted; callers own the cipher.
type ConnectionRepository interface {
	Save(ctx context.Context, tx Tx, c *model.Connection) error
	Find(ctx context.Context, tx Tx, userID string, provider model.Provider) (*model.Connection, error)
	Delete(ctx context.Context, tx Tx, userID string, provider model.Provider) error
}
