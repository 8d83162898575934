package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/logging"
)

var _ ConnectionUseCase = (*connectionUC)(nil)

// ConnectionUseCase stores OAuth tokens obtained elsewhere. Callers always
// see plaintext; storage only sees ciphertext.
type ConnectionUseCase interface {
	Save(ctx context.Context, c *model.Connection) error
	// Get returns domain.ErrNotConnected when the user never linked provider.
	Get(ctx context.Context, userID string, provider model.Provider) (*model.Connection, error)
	Delete(ctx context.Context, userID string, provider model.Provider) error
}

type connectionUC struct {
	conns  repository.ConnectionRepository
	cipher adapter.Cipher
	log    *zerolog.Logger
}

func NewConnectionUseCase(conns repository.ConnectionRepository, cipher adapter.Cipher, logger *zerolog.Logger) *connectionUC {
	return &connectionUC{conns: conns, cipher: cipher, log: logging.Component(logger, "connection_uc")}
}

func (u *connectionUC) Save(ctx context.Context, c *model.Connection) error {
	if c == nil || c.UserID == "" || !c.Provider.Valid() || strings.TrimSpace(c.AccessToken) == "" {
		return domain.ErrInvalidArgument
	}
	stored := *c
	var err error
	if stored.AccessToken, err = u.cipher.Encrypt(c.AccessToken); err != nil {
		return err
	}
	if c.RefreshToken != "" {
		if stored.RefreshToken, err = u.cipher.Encrypt(c.RefreshToken); err != nil {
			return err
		}
	}
	stored.UpdatedAt = time.Now().UTC()
	if err := u.conns.Save(ctx, repository.NoTX, &stored); err != nil {
		return err
	}
	logging.With(ctx, u.log).Info().Str("provider", string(c.Provider)).Msg("connection stored")
	return nil
}

func (u *connectionUC) Get(ctx context.Context, userID string, provider model.Provider) (*model.Connection, error) {
	if !provider.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	c, err := u.conns.Find(ctx, repository.NoTX, userID, provider)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	if c.AccessToken, err = u.cipher.Decrypt(c.AccessToken); err != nil {
		return nil, err
	}
	if c.RefreshToken != "" {
		if c.RefreshToken, err = u.cipher.Decrypt(c.RefreshToken); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (u *connectionUC) Delete(ctx context.Context, userID string, provider model.Provider) error {
	if !provider.Valid() {
		return domain.ErrInvalidArgument
	}
	err := u.conns.Delete(ctx, repository.NoTX, userID, provider)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrNotConnected
	}
	return err
}
