package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
)

var _ BundleUseCase = (*bundleUC)(nil)

type BundleUseCase interface {
	ListActive(ctx context.Context) ([]*model.Bundle, error)
	ListAll(ctx context.Context) ([]*model.Bundle, error)
	Upsert(ctx context.Context, b *model.Bundle) error
	Deactivate(ctx context.Context, id string) error
	FindMatches(ctx context.Context, userID string, cfg matching.MatchConfig) ([]model.MatchResult, error)
}

type bundleUC struct {
	bundles repository.BundleRepository
	subs    repository.SubscriptionRepository
	log     *zerolog.Logger
}

func NewBundleUseCase(bundles repository.BundleRepository, subs repository.SubscriptionRepository, logger *zerolog.Logger) *bundleUC {
	return &bundleUC{bundles: bundles, subs: subs, log: logging.Component(logger, "bundle_uc")}
}

func (u *bundleUC) ListActive(ctx context.Context) ([]*model.Bundle, error) {
	return u.bundles.ListActive(ctx, repository.NoTX)
}

func (u *bundleUC) ListAll(ctx context.Context) ([]*model.Bundle, error) {
	return u.bundles.ListAll(ctx, repository.NoTX)
}

func (u *bundleUC) Upsert(ctx context.Context, b *model.Bundle) error {
	if b == nil || strings.TrimSpace(b.ID) == "" || strings.TrimSpace(b.Provider) == "" ||
		strings.TrimSpace(b.PlanName) == "" || b.MonthlyPrice.IsNegative() {
		return domain.ErrInvalidArgument
	}
	services := make([]string, 0, len(b.IncludedServices))
	for _, s := range b.IncludedServices {
		if s = strings.TrimSpace(s); s != "" {
			services = append(services, s)
		}
	}
	if len(services) == 0 {
		return domain.ErrInvalidArgument
	}
	b.IncludedServices = services
	b.UpdatedAt = time.Now().UTC()
	if err := u.bundles.Save(ctx, repository.NoTX, b); err != nil {
		return err
	}
	logging.With(ctx, u.log).Info().Str("bundle_id", b.ID).Bool("active", b.IsActive).Msg("bundle saved")
	return nil
}

func (u *bundleUC) Deactivate(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidArgument
	}
	return u.bundles.Deactivate(ctx, repository.NoTX, id)
}

// FindMatches runs the bundle matcher over the user's active subscriptions.
func (u *bundleUC) FindMatches(ctx context.Context, userID string, cfg matching.MatchConfig) ([]model.MatchResult, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "BundleUC.FindMatches")()

	if cfg.MinSavings.IsNegative() || cfg.MinMatchPercentage < 0 || cfg.MinMatchPercentage > 100 || cfg.MaxResults < 0 {
		return nil, domain.ErrInvalidArgument
	}

	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID, model.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	bundles, err := u.bundles.ListActive(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	results := matching.ComputeBundleMatches(derefSubs(subs), derefBundles(bundles), cfg)
	metrics.ObserveMatchRun(len(results), time.Since(start))

	log.Debug().
		Int("subscriptions", len(subs)).
		Int("bundles", len(bundles)).
		Int("matches", len(results)).
		Msg("bundle matches computed")
	return results, nil
}

func derefSubs(in []*model.Subscription) []model.Subscription {
	out := make([]model.Subscription, 0, len(in))
	for _, s := range in {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out
}

func derefBundles(in []*model.Bundle) []model.Bundle {
	out := make([]model.Bundle, 0, len(in))
	for _, b := range in {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}
