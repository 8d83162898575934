package telegram

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/logging"
)

var _ adapter.TelegramBotAdapter = (*Notifier)(nil)

// Notifier sends renewal reminders through the Bot API.
type Notifier struct {
	bot *tgbotapi.BotAPI
	log *zerolog.Logger
}

func NewNotifier(token string, logger *zerolog.Logger) (*Notifier, error) {
	return NewNotifierWithEndpoint(token, tgbotapi.APIEndpoint, nil, logger)
}

// NewNotifierWithEndpoint takes an endpoint format such as tgbotapi.APIEndpoint.
func NewNotifierWithEndpoint(token, endpoint string, client *http.Client, logger *zerolog.Logger) (*Notifier, error) {
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, err
	}
	l := logging.Component(logger, "telegram")
	l.Info().Str("bot", bot.Self.UserName).Msg("telegram bot authorized")
	return &Notifier{bot: bot, log: l}, nil
}

func (n *Notifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	return n.SendButtons(ctx, chatID, text, nil)
}

func (n *Notifier) SendButtons(ctx context.Context, chatID int64, text string, rows [][]adapter.InlineButton) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if markup, ok := keyboard(rows); ok {
		msg.ReplyMarkup = markup
	}
	if _, err := n.bot.Send(msg); err != nil {
		logging.With(ctx, n.log).Warn().Err(err).Int64("chat_id", chatID).Msg("telegram send failed")
		return err
	}
	return nil
}

func keyboard(rows [][]adapter.InlineButton) (tgbotapi.InlineKeyboardMarkup, bool) {
	kbRows := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		r := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			label := strings.TrimSpace(btn.Text)
			if label == "" {
				continue
			}
			switch {
			case btn.URL != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonURL(label, btn.URL))
			case btn.Data != "":
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, btn.Data))
			default:
				r = append(r, tgbotapi.NewInlineKeyboardButtonData(label, label))
			}
		}
		if len(r) > 0 {
			kbRows = append(kbRows, r)
		}
	}
	if len(kbRows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(kbRows...), true
}
