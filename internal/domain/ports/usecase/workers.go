package usecase

import (
	"context"

	"subsavvy/internal/domain/model"
)

// RecommendationRefresher is what background workers need to rebuild
// recommendation sets.
type RecommendationRefresher interface {
	ListRefreshTargets(ctx context.Context) ([]string, error)
	Generate(ctx context.Context, userID string) ([]*model.Recommendation, error)
}

// ReminderSender is driven by the reminder scheduler.
type ReminderSender interface {
	CheckAndNotify(ctx context.Context, withinDays int) (int, error)
}
