package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/domain/signal"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
)

var _ ScanUseCase = (*scanUC)(nil)

const (
	MinScanDays    = 1
	MaxScanDays    = 365
	MinScanResults = 10
	MaxScanResults = 500

	scanLockTTL = 5 * time.Minute
)

type ScanResult struct {
	RunID    string                  `json:"run_id"`
	Scanned  int                     `json:"scanned"`
	Detected int                     `json:"detected"`
	Stored   int                     `json:"stored"`
	Signals  []*model.DetectedSignal `json:"signals"`
}

type ScanUseCase interface {
	Scan(ctx context.Context, userID string, days, maxResults int) (*ScanResult, error)
	ListSignals(ctx context.Context, userID string, status model.SignalStatus) ([]*model.DetectedSignal, error)
	ConfirmSignal(ctx context.Context, userID, signalID string) (*model.Subscription, error)
	DismissSignal(ctx context.Context, userID, signalID string) error
}

type scanUC struct {
	locker  repository.Locker
	conns   ConnectionUseCase
	mail    adapter.MailSource
	signals repository.SignalRepository
	subs    repository.SubscriptionRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewScanUseCase(
	locker repository.Locker,
	conns ConnectionUseCase,
	mail adapter.MailSource,
	signals repository.SignalRepository,
	subs repository.SubscriptionRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *scanUC {
	return &scanUC{
		locker:  locker,
		conns:   conns,
		mail:    mail,
		signals: signals,
		subs:    subs,
		tm:      tm,
		log:     logging.Component(logger, "scan_uc"),
	}
}

func scanLockKey(userID string) string { return "lock:scan:" + userID }

// Scan reads the user's mailbox for the last days and stores newly detected
// recurring-payment signals. One scan per user runs at a time.
func (u *scanUC) Scan(ctx context.Context, userID string, days, maxResults int) (*ScanResult, error) {
	if days < MinScanDays || days > MaxScanDays || maxResults < MinScanResults || maxResults > MaxScanResults {
		return nil, domain.ErrInvalidArgument
	}

	runID := ulid.Make().String()
	ctx = logging.WithJobID(ctx, runID)
	log := logging.With(ctx, u.log)

	token, err := u.locker.TryLock(ctx, scanLockKey(userID), scanLockTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := u.locker.Unlock(context.WithoutCancel(ctx), scanLockKey(userID), token); err != nil {
			log.Warn().Err(err).Msg("failed to release scan lock")
		}
	}()

	conn, err := u.conns.Get(ctx, userID, model.ProviderGmail)
	if err != nil {
		metrics.IncScan("not_connected")
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	msgs, err := u.mail.FetchMessages(ctx, conn, since, maxResults)
	if err != nil {
		metrics.IncScan("failed")
		log.Error().Err(err).Msg("mail fetch failed")
		return nil, err
	}

	var detected []model.DetectedSignal
	for _, m := range msgs {
		if s, ok := signal.Detect(m); ok {
			detected = append(detected, s)
		}
	}
	detected = signal.Deduplicate(detected)

	res := &ScanResult{RunID: runID, Scanned: len(msgs), Detected: len(detected), Signals: []*model.DetectedSignal{}}
	now := time.Now().UTC()
	for i := range detected {
		s := &detected[i]
		s.ID = uuid.NewString()
		s.UserID = userID
		s.Status = model.SignalStatusNew
		s.CreatedAt = now
		if err := u.signals.Save(ctx, repository.NoTX, s); err != nil {
			if errors.Is(err, domain.ErrAlreadyExists) {
				continue
			}
			metrics.IncScan("failed")
			return nil, err
		}
		res.Stored++
		res.Signals = append(res.Signals, s)
	}

	metrics.IncScan("ok")
	metrics.AddSignalsDetected(res.Stored)
	log.Info().
		Int("scanned", res.Scanned).
		Int("detected", res.Detected).
		Int("stored", res.Stored).
		Msg("mailbox scan finished")
	return res, nil
}

func (u *scanUC) ListSignals(ctx context.Context, userID string, status model.SignalStatus) ([]*model.DetectedSignal, error) {
	switch status {
	case "", model.SignalStatusNew, model.SignalStatusConfirmed, model.SignalStatusDismissed:
	default:
		return nil, domain.ErrInvalidArgument
	}
	return u.signals.ListByUser(ctx, repository.NoTX, userID, status)
}

// ConfirmSignal turns a new signal into a tracked subscription.
func (u *scanUC) ConfirmSignal(ctx context.Context, userID, signalID string) (*model.Subscription, error) {
	s, err := u.ownedSignal(ctx, userID, signalID)
	if err != nil {
		return nil, err
	}
	if s.Status != model.SignalStatusNew {
		return nil, domain.ErrInvalidTransition
	}

	sub, err := model.NewSubscription(userID, s.ServiceName, s.Amount, s.BillingCycle)
	if err != nil {
		return nil, err
	}
	sub.Source = model.SourceGmail
	if s.Currency != "" {
		sub.Currency = s.Currency
	}
	if info, ok := matching.LookupService(s.ServiceName); ok {
		sub.Category = info.Category
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.subs.Save(ctx, tx, sub); err != nil {
			return err
		}
		return u.signals.UpdateStatus(ctx, tx, s.ID, model.SignalStatusConfirmed)
	})
	if err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("signal_id", s.ID).Str("subscription_id", sub.ID).Msg("signal confirmed")
	return sub, nil
}

func (u *scanUC) DismissSignal(ctx context.Context, userID, signalID string) error {
	s, err := u.ownedSignal(ctx, userID, signalID)
	if err != nil {
		return err
	}
	switch s.Status {
	case model.SignalStatusDismissed:
		return nil
	case model.SignalStatusConfirmed:
		return domain.ErrInvalidTransition
	}
	return u.signals.UpdateStatus(ctx, repository.NoTX, s.ID, model.SignalStatusDismissed)
}

func (u *scanUC) ownedSignal(ctx context.Context, userID, signalID string) (*model.DetectedSignal, error) {
	s, err := u.signals.FindByID(ctx, repository.NoTX, signalID)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return s, nil
}
