package repository

import (
	"context"

	"subsavvy/internal/domain/model"
)

type BundleRepository interface {
	Save(ctx context.Context, tx Tx, b *model.Bundle) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Bundle, error)
	ListActive(ctx context.Context, tx Tx) ([]*model.Bundle, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Bundle, error)
	Deactivate(ctx context.Context, tx Tx, id string) error
}
