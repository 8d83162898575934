package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
)

var _ UsageUseCase = (*usageUC)(nil)

const usageWindowDays = 30

type UsageUseCase interface {
	// SyncSpotify records recent listening time against the user's active
	// Spotify subscription.
	SyncSpotify(ctx context.Context, userID string) (*model.UsageStat, error)
}

type usageUC struct {
	subs    repository.SubscriptionRepository
	usage   repository.UsageRepository
	conns   ConnectionUseCase
	spotify adapter.UsageSource
	log     *zerolog.Logger
}

func NewUsageUseCase(
	subs repository.SubscriptionRepository,
	usage repository.UsageRepository,
	conns ConnectionUseCase,
	spotify adapter.UsageSource,
	logger *zerolog.Logger,
) *usageUC {
	return &usageUC{subs: subs, usage: usage, conns: conns, spotify: spotify, log: logging.Component(logger, "usage_uc")}
}

func (u *usageUC) SyncSpotify(ctx context.Context, userID string) (*model.UsageStat, error) {
	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID, model.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	want := matching.NormalizeServiceName("Spotify")
	var target *model.Subscription
	for _, s := range subs {
		if matching.ServiceNamesMatch(want, matching.NormalizeServiceName(s.ServiceName)) {
			target = s
			break
		}
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}

	conn, err := u.conns.Get(ctx, userID, model.ProviderSpotify)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stat, err := u.spotify.RecentUsage(ctx, conn, now.AddDate(0, 0, -usageWindowDays))
	if err != nil {
		metrics.IncUsageSync(string(model.ProviderSpotify), "failed")
		return nil, err
	}
	stat.SubscriptionID = target.ID
	stat.Source = string(model.ProviderSpotify)
	stat.WindowDays = usageWindowDays
	stat.CollectedAt = now
	if err := u.usage.Save(ctx, repository.NoTX, &stat); err != nil {
		metrics.IncUsageSync(string(model.ProviderSpotify), "failed")
		return nil, err
	}

	metrics.IncUsageSync(string(model.ProviderSpotify), "ok")
	logging.With(ctx, u.log).Info().Int("minutes", stat.Minutes).Msg("spotify usage synced")
	return &stat, nil
}
