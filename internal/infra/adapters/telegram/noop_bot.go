package telegram

import (
	"context"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/logging"
)

var _ adapter.TelegramBotAdapter = (*NoopBotAdapter)(nil)

// NoopBotAdapter logs reminders instead of sending them. Used when no bot
// token is configured.
type NoopBotAdapter struct {
	log *zerolog.Logger
}

func NewNoopBotAdapter(logger *zerolog.Logger) *NoopBotAdapter {
	return &NoopBotAdapter{log: logging.Component(logger, "telegram_noop")}
}

func (b *NoopBotAdapter) SendMessage(ctx context.Context, chatID int64, text string) error {
	return b.SendButtons(ctx, chatID, text, nil)
}

func (b *NoopBotAdapter) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.log.Info().Int64("chat_id", chatID).Str("text", text).Int("button_rows", len(rows)).Msg("reminder (noop)")
	return nil
}
