//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/usecase"
)

func TestConnectionUseCase(t *testing.T) {
	ctx := context.Background()
	repo := NewMockConnectionRepo()
	uc := usecase.NewConnectionUseCase(repo, prefixCipher{}, newTestLogger())

	in := &model.Connection{UserID: "u1", Provider: model.ProviderGmail, AccessToken: "access", RefreshToken: "refresh"}
	if err := uc.Save(ctx, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if in.AccessToken != "access" {
		t.Error("Save must not modify the caller's connection")
	}

	raw, err := repo.Find(ctx, nil, "u1", model.ProviderGmail)
	if err != nil {
		t.Fatal(err)
	}
	if raw.AccessToken != "enc:access" || raw.RefreshToken != "enc:refresh" {
		t.Errorf("tokens must be stored encrypted, got %q %q", raw.AccessToken, raw.RefreshToken)
	}

	got, err := uc.Get(ctx, "u1", model.ProviderGmail)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Errorf("expected decrypted tokens, got %+v", got)
	}

	if _, err := uc.Get(ctx, "u1", model.ProviderSpotify); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := uc.Get(ctx, "u1", "dropbox"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
	if err := uc.Save(ctx, &model.Connection{UserID: "u1", Provider: model.ProviderGmail}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for empty token, got %v", err)
	}

	if err := uc.Delete(ctx, "u1", model.ProviderGmail); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := uc.Delete(ctx, "u1", model.ProviderGmail); !errors.Is(err, domain.ErrNotConnected) {
		t.Errorf("expected ErrNotConnected on second delete, got %v", err)
	}
}
