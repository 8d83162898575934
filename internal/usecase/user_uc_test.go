//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/usecase"
)

func TestUserUseCase_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepo()
	uc := usecase.NewUserUseCase(repo, NewMockLinkCodes(), newTestLogger())

	u, err := uc.Upsert(ctx, "u1", " a@example.com ")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if u.Email != "a@example.com" || u.TelegramChatID != 0 {
		t.Errorf("unexpected user %+v", u)
	}

	repo.byID["u1"].TelegramChatID = 1234
	u, err = uc.Upsert(ctx, "u1", "")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if u.Email != "a@example.com" || u.TelegramChatID != 1234 {
		t.Errorf("expected email and linked chat kept, got %+v", u)
	}

	u, _ = uc.Upsert(ctx, "u1", "b@example.com")
	if u.TelegramChatID != 1234 || u.Email != "b@example.com" {
		t.Errorf("unexpected user %+v", u)
	}

	if _, err := uc.Upsert(ctx, "u2", ""); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("new profile needs an email, got %v", err)
	}

	stored, err := uc.Get(ctx, "u1")
	if err != nil || stored.Email != "b@example.com" {
		t.Fatalf("unexpected stored user %+v %v", stored, err)
	}
}

func TestUserUseCase_Upsert_StorageError(t *testing.T) {
	repo := NewMockUserRepo()
	boom := errors.New("db down")
	repo.FindByIDFunc = func(context.Context, repository.Tx, string) (*model.User, error) { return nil, boom }
	uc := usecase.NewUserUseCase(repo, NewMockLinkCodes(), newTestLogger())
	if _, err := uc.Upsert(context.Background(), "u1", "a@b.c"); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestUserUseCase_TelegramLink(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepo()
	codes := NewMockLinkCodes()
	uc := usecase.NewUserUseCase(repo, codes, newTestLogger())

	if _, err := uc.StartTelegramLink(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("link needs a profile, got %v", err)
	}
	if _, err := uc.Upsert(ctx, "u1", "a@example.com"); err != nil {
		t.Fatal(err)
	}

	link, err := uc.StartTelegramLink(ctx, "u1")
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if link.Code == "" || codes.TTLs[link.Code] != 10*time.Minute || time.Until(link.ExpiresAt) <= 0 {
		t.Errorf("unexpected link %+v", link)
	}

	if _, err := uc.ConfirmTelegramLink(ctx, link.Code, 0); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for zero chat, got %v", err)
	}

	u, err := uc.ConfirmTelegramLink(ctx, link.Code, 4242)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if u.TelegramChatID != 4242 {
		t.Errorf("expected chat linked, got %+v", u)
	}
	if stored, _ := uc.Get(ctx, "u1"); stored.TelegramChatID != 4242 {
		t.Errorf("chat id not stored: %+v", stored)
	}

	if _, err := uc.ConfirmTelegramLink(ctx, link.Code, 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("reused code must fail, got %v", err)
	}
	if _, err := uc.ConfirmTelegramLink(ctx, "guess", 999); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown code must fail, got %v", err)
	}
	if stored, _ := uc.Get(ctx, "u1"); stored.TelegramChatID != 4242 {
		t.Errorf("chat id changed by a rejected code: %+v", stored)
	}
}

func TestUserUseCase_StartTelegramLink_StoreError(t *testing.T) {
	ctx := context.Background()
	repo := NewMockUserRepo()
	codes := NewMockLinkCodes()
	codes.IssueErr = errors.New("redis down")
	uc := usecase.NewUserUseCase(repo, codes, newTestLogger())
	if _, err := uc.Upsert(ctx, "u1", "a@example.com"); err != nil {
		t.Fatal(err)
	}
	if _, err := uc.StartTelegramLink(ctx, "u1"); err == nil {
		t.Fatal("expected store error")
	}
}
