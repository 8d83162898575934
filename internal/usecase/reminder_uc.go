package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/i18n"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
)

// Compile-time check
var _ ReminderUseCase = (*reminderUC)(nil)

const reminderKindRenewal = "renewal"

type ReminderUseCase interface {
	// CheckAndNotify sends one telegram reminder per upcoming renewal within
	// withinDays and returns how many were sent.
	CheckAndNotify(ctx context.Context, withinDays int) (int, error)
}

type reminderUC struct {
	subs       repository.SubscriptionRepository
	users      repository.UserRepository
	notifLog   repository.NotificationLogRepository
	bot        adapter.TelegramBotAdapter
	translator *i18n.Translator
	log        *zerolog.Logger
	now        func() time.Time
}

func NewReminderUseCase(
	subs repository.SubscriptionRepository,
	users repository.UserRepository,
	notifLog repository.NotificationLogRepository,
	bot adapter.TelegramBotAdapter,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *reminderUC {
	return &reminderUC{
		subs:       subs,
		users:      users,
		notifLog:   notifLog,
		bot:        bot,
		translator: translator,
		log:        logging.Component(logger, "reminder_uc"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (u *reminderUC) CheckAndNotify(ctx context.Context, withinDays int) (int, error) {
	if withinDays <= 0 {
		return 0, domain.ErrInvalidArgument
	}
	now := u.now()
	subs, err := u.subs.FindRenewing(ctx, repository.NoTX, now, now.AddDate(0, 0, withinDays))
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if sub.NextBillingDate == nil {
			continue
		}
		log := u.log.With().Str("subscription_id", sub.ID).Str("user_id", sub.UserID).Logger()
		due := *sub.NextBillingDate

		exists, err := u.notifLog.Exists(ctx, repository.NoTX, sub.ID, reminderKindRenewal, due)
		if err != nil {
			log.Error().Err(err).Msg("failed to check notification log")
			continue
		}
		if exists {
			continue
		}

		user, err := u.users.FindByID(ctx, repository.NoTX, sub.UserID)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				log.Error().Err(err).Msg("failed to load user")
			}
			continue
		}
		if !user.CanBeNotified() {
			continue
		}

		rows := [][]adapter.InlineButton{{
			{Text: u.translator.T("reminder_btn_cancel"), Data: "guide:" + sub.ID},
			{Text: u.translator.T("reminder_btn_keep"), Data: "keep:" + sub.ID},
		}}
		if err := u.bot.SendButtons(ctx, user.TelegramChatID, u.reminderText(sub, now), rows); err != nil {
			metrics.IncReminder("failed")
			log.Error().Err(err).Msg("failed to send renewal reminder")
			continue
		}
		if err := u.notifLog.Save(ctx, repository.NoTX, sub.ID, sub.UserID, reminderKindRenewal, due); err != nil {
			log.Error().Err(err).Msg("reminder sent but not logged")
		}
		metrics.IncReminder("sent")
		sent++
	}

	if sent > 0 {
		logging.With(ctx, u.log).Info().Int("sent", sent).Int("within_days", withinDays).Msg("renewal reminders sent")
	}
	return sent, nil
}

func (u *reminderUC) reminderText(sub *model.Subscription, now time.Time) string {
	due := sub.NextBillingDate.UTC()
	cost := sub.Cost.StringFixed(2)
	if y, m, d := due.Date(); y == now.Year() && m == now.Month() && d == now.Day() {
		return u.translator.T("reminder_renewal_today", sub.ServiceName, sub.Currency, cost)
	}
	return u.translator.T("reminder_renewal", sub.ServiceName, due.Format("02 Jan"), sub.Currency, cost)
}
