package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/i18n"
	"subsavvy/internal/infra/logging"
	red "subsavvy/internal/infra/redis"
)

const (
	callbackGuide = "guide:"
	callbackKeep  = "keep:"

	pollTimeoutSec  = 50
	chatRateLimit   = 20
	chatRateWindow  = time.Minute
	defaultWorkers  = 4
	updateQueueSize = 100
)

type SubscriptionLookup interface {
	FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Subscription, error)
}

type UserLookup interface {
	FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
}

type GuideLookup interface {
	Get(ctx context.Context, serviceName string) (*model.CancellationGuide, error)
}

type ChatLinker interface {
	ConfirmTelegramLink(ctx context.Context, code string, chatID int64) (*model.User, error)
}

// Listener answers /start, which links the chat when it carries a code,
// and the buttons attached to renewal reminders.
type Listener struct {
	n          *Notifier
	subs       SubscriptionLookup
	users      UserLookup
	guides     GuideLookup
	linker     ChatLinker
	limiter    repository.RateLimiter
	translator *i18n.Translator
	workers    int
	log        *zerolog.Logger
}

// NewListener accepts a nil limiter.
func NewListener(
	n *Notifier,
	subs SubscriptionLookup,
	users UserLookup,
	guides GuideLookup,
	linker ChatLinker,
	limiter repository.RateLimiter,
	translator *i18n.Translator,
	workers int,
	logger *zerolog.Logger,
) *Listener {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Listener{
		n:          n,
		subs:       subs,
		users:      users,
		guides:     guides,
		linker:     linker,
		limiter:    limiter,
		translator: translator,
		workers:    workers,
		log:        logging.Component(logger, "telegram_listener"),
	}
}

// Run long-polls updates until ctx ends.
func (l *Listener) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSec
	updates := l.n.bot.GetUpdatesChan(u)
	defer l.n.bot.StopReceivingUpdates()

	queue := make(chan tgbotapi.Update, updateQueueSize)
	var wg sync.WaitGroup
	for i := 0; i < l.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for up := range queue {
				if err := l.handleUpdate(ctx, up); err != nil {
					l.log.Error().Err(err).Int("worker", id).Int("update_id", up.UpdateID).Msg("update failed")
				}
			}
		}(i)
	}

	defer func() {
		close(queue)
		wg.Wait()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case up, ok := <-updates:
			if !ok {
				return nil
			}
			select {
			case queue <- up:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (l *Listener) handleUpdate(ctx context.Context, up tgbotapi.Update) error {
	if q := up.CallbackQuery; q != nil {
		defer func() { _, _ = l.n.bot.Request(tgbotapi.NewCallback(q.ID, "")) }()
		var chatID int64
		switch {
		case q.Message != nil && q.Message.Chat != nil:
			chatID = q.Message.Chat.ID
		case q.From != nil:
			chatID = q.From.ID
		default:
			return nil
		}
		if !l.allow(ctx, chatID) {
			return nil
		}
		return l.handleCallback(ctx, chatID, q.Data)
	}

	if up.Message != nil && up.Message.Chat != nil && up.Message.IsCommand() && up.Message.Command() == "start" {
		chatID := up.Message.Chat.ID
		if !l.allow(ctx, chatID) {
			return nil
		}
		return l.handleStart(ctx, chatID, up.Message.CommandArguments())
	}
	return nil
}

func (l *Listener) handleStart(ctx context.Context, chatID int64, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return l.n.SendMessage(ctx, chatID, l.translator.T("bot_start"))
	}
	user, err := l.linker.ConfirmTelegramLink(ctx, code, chatID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return l.n.SendMessage(ctx, chatID, l.translator.T("bot_link_invalid"))
	case err != nil:
		return err
	}
	logging.With(ctx, l.log).Info().Str("user_id", user.ID).Int64("chat_id", chatID).Msg("chat linked")
	return l.n.SendMessage(ctx, chatID, l.translator.T("bot_linked"))
}

func (l *Listener) allow(ctx context.Context, chatID int64) bool {
	if l.limiter == nil {
		return true
	}
	ok, err := l.limiter.Allow(ctx, red.UserRouteKey(strconv.FormatInt(chatID, 10), "telegram"), chatRateLimit, chatRateWindow)
	if err != nil {
		l.log.Warn().Err(err).Msg("rate limiter unavailable")
		return true
	}
	if !ok {
		_ = l.n.SendMessage(ctx, chatID, l.translator.T("bot_rate_limited"))
	}
	return ok
}

func (l *Listener) handleCallback(ctx context.Context, chatID int64, data string) error {
	var subID string
	var guide bool
	switch {
	case strings.HasPrefix(data, callbackGuide):
		subID, guide = strings.TrimPrefix(data, callbackGuide), true
	case strings.HasPrefix(data, callbackKeep):
		subID = strings.TrimPrefix(data, callbackKeep)
	default:
		return nil
	}

	sub, err := l.ownedSubscription(ctx, chatID, subID)
	if errors.Is(err, domain.ErrNotFound) {
		return l.n.SendMessage(ctx, chatID, l.translator.T("callback_unknown"))
	}
	if err != nil {
		return err
	}

	if !guide {
		return l.n.SendMessage(ctx, chatID, l.translator.T("keep_ack", sub.ServiceName))
	}
	g, err := l.guides.Get(ctx, sub.ServiceName)
	if err != nil {
		logging.With(ctx, l.log).Warn().Err(err).Str("service", sub.ServiceName).Msg("guide unavailable")
		return l.n.SendMessage(ctx, chatID, l.translator.T("guide_no_steps", sub.ServiceName))
	}
	return l.n.SendMessage(ctx, chatID, l.guideText(g))
}

// ownedSubscription hides subscriptions that do not belong to the chat.
func (l *Listener) ownedSubscription(ctx context.Context, chatID int64, subID string) (*model.Subscription, error) {
	if subID == "" {
		return nil, domain.ErrNotFound
	}
	sub, err := l.subs.FindByID(ctx, repository.NoTX, subID)
	if err != nil {
		return nil, err
	}
	user, err := l.users.FindByID(ctx, repository.NoTX, sub.UserID)
	if err != nil {
		return nil, err
	}
	if user.TelegramChatID != chatID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (l *Listener) guideText(g *model.CancellationGuide) string {
	var b strings.Builder
	if len(g.Steps) == 0 {
		b.WriteString(l.translator.T("guide_no_steps", g.Service))
	} else {
		b.WriteString(l.translator.T("guide_header", g.Service))
		for i, s := range g.Steps {
			fmt.Fprintf(&b, "\n%d. %s", i+1, s)
		}
	}
	if g.CancelURL != "" {
		b.WriteString("\n")
		b.WriteString(l.translator.T("guide_link", g.CancelURL))
	}
	return b.String()
}
