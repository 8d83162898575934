//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/usecase"
)

func TestUsageUseCase_SyncSpotify(t *testing.T) {
	ctx := context.Background()

	setup := func(connected bool) (*MockSubscriptionRepo, *MockUsageRepo, *MockUsageSource, usecase.UsageUseCase) {
		subs := NewMockSubscriptionRepo()
		usage := NewMockUsageRepo()
		source := &MockUsageSource{}
		conns := usecase.NewConnectionUseCase(NewMockConnectionRepo(), prefixCipher{}, newTestLogger())
		if connected {
			_ = conns.Save(ctx, &model.Connection{UserID: "u1", Provider: model.ProviderSpotify, AccessToken: "tok"})
		}
		return subs, usage, source, usecase.NewUsageUseCase(subs, usage, conns, source, newTestLogger())
	}

	t.Run("records usage against the spotify subscription", func(t *testing.T) {
		subs, usage, source, uc := setup(true)
		subs.Seed(
			activeSub("s1", "u1", "Netflix", 649, model.BillingCycleMonthly),
			activeSub("s2", "u1", "Spotify Premium Individual", 119, model.BillingCycleMonthly),
		)
		last := time.Now().Add(-2 * time.Hour)
		source.Stat = model.UsageStat{Minutes: 95, LastUsedAt: &last}

		stat, err := uc.SyncSpotify(ctx, "u1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if stat.SubscriptionID != "s2" || stat.Source != "spotify" || stat.WindowDays != 30 || stat.Minutes != 95 {
			t.Errorf("unexpected stat %+v", stat)
		}
		stored, _ := usage.ListBySubscriptions(ctx, nil, []string{"s2"})
		if stored["s2"].Minutes != 95 {
			t.Errorf("usage not stored: %+v", stored)
		}
	})

	t.Run("no spotify subscription", func(t *testing.T) {
		subs, _, _, uc := setup(true)
		subs.Seed(activeSub("s1", "u1", "Netflix", 649, model.BillingCycleMonthly))
		if _, err := uc.SyncSpotify(ctx, "u1"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("not connected", func(t *testing.T) {
		subs, _, _, uc := setup(false)
		subs.Seed(activeSub("s1", "u1", "Spotify", 119, model.BillingCycleMonthly))
		if _, err := uc.SyncSpotify(ctx, "u1"); !errors.Is(err, domain.ErrNotConnected) {
			t.Fatalf("expected ErrNotConnected, got %v", err)
		}
	})

	t.Run("provider failure", func(t *testing.T) {
		subs, _, source, uc := setup(true)
		subs.Seed(activeSub("s1", "u1", "Spotify", 119, model.BillingCycleMonthly))
		source.Err = errors.New("401")
		if _, err := uc.SyncSpotify(ctx, "u1"); !errors.Is(err, source.Err) {
			t.Fatalf("expected provider error, got %v", err)
		}
	})
}
