package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain/ports/usecase"
	"subsavvy/internal/infra/logging"
)

// Submitter is the part of worker.Pool the refresh loop uses.
type Submitter interface {
	Submit(kind, id string, task func(ctx context.Context) error) error
}

const jobKindRecommendations = "recommendations"

// RecommendationWorker periodically rebuilds recommendations for every user
// with active subscriptions.
type RecommendationWorker struct {
	interval time.Duration
	recs     usecase.RecommendationRefresher
	pool     Submitter
	log      *zerolog.Logger
}

func NewRecommendationWorker(interval time.Duration, recs usecase.RecommendationRefresher, pool Submitter, logger *zerolog.Logger) *RecommendationWorker {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &RecommendationWorker{
		interval: interval,
		recs:     recs,
		pool:     pool,
		log:      logging.Component(logger, "recommendation_worker"),
	}
}

func (w *RecommendationWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("starting recommendation worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("stopping recommendation worker")
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.RunOnce(ctx); err != nil {
				w.log.Error().Err(err).Msg("recommendation refresh failed")
			}
		}
	}
}

// RunOnce submits one refresh job per target user and returns how many were
// queued.
func (w *RecommendationWorker) RunOnce(ctx context.Context) (int, error) {
	users, err := w.recs.ListRefreshTargets(ctx)
	if err != nil {
		return 0, err
	}
	queued := 0
	for _, id := range users {
		userID := id
		err := w.pool.Submit(jobKindRecommendations, userID, func(ctx context.Context) error {
			_, err := w.recs.Generate(logging.WithUserID(ctx, userID), userID)
			return err
		})
		if err != nil {
			w.log.Warn().Err(err).Str("user_id", userID).Msg("refresh not queued")
			continue
		}
		queued++
	}
	if queued > 0 {
		w.log.Info().Int("queued", queued).Int("targets", len(users)).Msg("recommendation refresh queued")
	}
	return queued, nil
}
