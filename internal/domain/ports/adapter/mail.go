package adapter

import (
	"context"
	"time"

	"subsavvy/internal/domain/model"
)

// MailSource reads a user's mailbox through a stored connection. conn
// carries decrypted tokens.
type MailSource interface {
	FetchMessages(ctx context.Context, conn *model.Connection, since time.Time, max int) ([]model.MailMessage, error)
}
