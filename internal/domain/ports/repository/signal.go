package repository

import (
	"context"

	"subsavvy/internal/domain/model"
)

type SignalRepository interface {
	// Save returns domain.ErrAlreadyExists when the message was already recorded for the user.
	Save(ctx context.Context, tx Tx, s *model.DetectedSignal) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.DetectedSignal, error)
	ListByUser(ctx context.Context, tx Tx, userID string, status model.SignalStatus) ([]*model.DetectedSignal, error)
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.SignalStatus) error
}
