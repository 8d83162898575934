package repository

import (
	"context"

	"subsavvy/internal/domain/model"
)

type RecommendationRepository interface {
	Save(ctx context.Context, tx Tx, r *model.Recommendation) error
	DeleteByUser(ctx context.Context, tx Tx, userID string) error
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Recommendation, error)
}
