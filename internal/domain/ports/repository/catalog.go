package repository

import (
	"context"

	"subsavvy/internal/domain/model"
)

// CatalogRepository holds the known services with their plans and
// cancellation instructions.
type CatalogRepository interface {
	Save(ctx context.Context, tx Tx, s *model.CatalogService) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.CatalogService, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.CatalogService, error)
}
