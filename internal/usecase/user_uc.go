package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/logging"
)

var _ UserUseCase = (*userUC)(nil)

const telegramLinkTTL = 10 * time.Minute

// UserUseCase keeps the local profile of an externally authenticated user.
type UserUseCase interface {
	Get(ctx context.Context, id string) (*model.User, error)
	// Upsert creates the profile on first use. The Telegram chat is never
	// set here; see StartTelegramLink.
	Upsert(ctx context.Context, id, email string) (*model.User, error)
	// StartTelegramLink issues a one-time code the user sends to the bot.
	StartTelegramLink(ctx context.Context, id string) (*model.TelegramLink, error)
	// ConfirmTelegramLink binds chatID to the user that issued code.
	ConfirmTelegramLink(ctx context.Context, code string, chatID int64) (*model.User, error)
}

type userUC struct {
	users repository.UserRepository
	codes repository.LinkCodeStore
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, codes repository.LinkCodeStore, logger *zerolog.Logger) *userUC {
	return &userUC{users: users, codes: codes, log: logging.Component(logger, "user_uc")}
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) Upsert(ctx context.Context, id, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	user, err := u.users.FindByID(ctx, repository.NoTX, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		if user, err = model.NewUser(id, email); err != nil {
			return nil, err
		}
		logging.With(ctx, u.log).Info().Str("email", logging.Redact(email, false)).Msg("profile created")
	case err != nil:
		return nil, err
	case email != "":
		user.Email = email
	}
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (u *userUC) StartTelegramLink(ctx context.Context, id string) (*model.TelegramLink, error) {
	if _, err := u.users.FindByID(ctx, repository.NoTX, id); err != nil {
		return nil, err
	}
	code, err := u.codes.Issue(ctx, id, telegramLinkTTL)
	if err != nil {
		return nil, err
	}
	return &model.TelegramLink{Code: code, ExpiresAt: time.Now().UTC().Add(telegramLinkTTL)}, nil
}

func (u *userUC) ConfirmTelegramLink(ctx context.Context, code string, chatID int64) (*model.User, error) {
	if chatID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	id, err := u.codes.Redeem(ctx, code)
	if err != nil {
		return nil, err
	}
	user, err := u.users.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	user.TelegramChatID = chatID
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("user_id", id).Msg("telegram chat linked")
	return user, nil
}
