package usecase

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/domain/recommend"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
)

var _ RecommendationUseCase = (*recommendationUC)(nil)

type RecommendationUseCase interface {
	// Generate recomputes and replaces the stored recommendations of a user.
	Generate(ctx context.Context, userID string) ([]*model.Recommendation, error)
	List(ctx context.Context, userID string) ([]*model.Recommendation, error)
	ListRefreshTargets(ctx context.Context) ([]string, error)
}

type recommendationUC struct {
	subs     repository.SubscriptionRepository
	usage    repository.UsageRepository
	catalog  repository.CatalogRepository
	recs     repository.RecommendationRepository
	bundles  BundleUseCase
	tm       repository.TransactionManager
	rules    recommend.Rules
	matchCfg matching.MatchConfig
	log      *zerolog.Logger
}

func NewRecommendationUseCase(
	subs repository.SubscriptionRepository,
	usage repository.UsageRepository,
	catalog repository.CatalogRepository,
	recs repository.RecommendationRepository,
	bundles BundleUseCase,
	tm repository.TransactionManager,
	rules recommend.Rules,
	matchCfg matching.MatchConfig,
	logger *zerolog.Logger,
) *recommendationUC {
	return &recommendationUC{
		subs:     subs,
		usage:    usage,
		catalog:  catalog,
		recs:     recs,
		bundles:  bundles,
		tm:       tm,
		rules:    rules,
		matchCfg: matchCfg,
		log:      logging.Component(logger, "recommendation_uc"),
	}
}

func (u *recommendationUC) Generate(ctx context.Context, userID string) ([]*model.Recommendation, error) {
	log := logging.With(ctx, u.log)
	defer logging.TraceDuration(log, "RecommendationUC.Generate")()

	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID, model.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.ID)
	}
	usage, err := u.usage.ListBySubscriptions(ctx, repository.NoTX, ids)
	if err != nil {
		return nil, err
	}
	catalog, err := u.catalog.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	matches, err := u.bundles.FindMatches(ctx, userID, u.matchCfg)
	if err != nil {
		return nil, err
	}

	entries := make([]model.CatalogService, 0, len(catalog))
	for _, c := range catalog {
		entries = append(entries, *c)
	}
	generated := recommend.Generate(recommend.Input{
		UserID:        userID,
		Subscriptions: derefSubs(subs),
		Usage:         usage,
		Catalog:       entries,
		Matches:       matches,
		Now:           time.Now().UTC(),
	}, u.rules)

	out := make([]*model.Recommendation, len(generated))
	for i := range generated {
		out[i] = &generated[i]
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.recs.DeleteByUser(ctx, tx, userID); err != nil {
			return err
		}
		for _, r := range out {
			if err := u.recs.Save(ctx, tx, r); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to store recommendations")
		return nil, err
	}

	for _, r := range out {
		metrics.IncRecommendation(string(r.Kind))
	}
	log.Info().Int("count", len(out)).Msg("recommendations generated")
	return out, nil
}

func (u *recommendationUC) List(ctx context.Context, userID string) ([]*model.Recommendation, error) {
	recs, err := u.recs.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []*model.Recommendation{}
	}
	return recs, nil
}

func (u *recommendationUC) ListRefreshTargets(ctx context.Context) ([]string, error) {
	return u.subs.ListUserIDsWithActive(ctx, repository.NoTX)
}
