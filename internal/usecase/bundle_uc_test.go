//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/usecase"
)

func activeSub(id, userID, name string, cost int64, cycle model.BillingCycle) *model.Subscription {
	s, err := model.NewSubscription(userID, name, decimal.NewFromInt(cost), cycle)
	if err != nil {
		panic(err)
	}
	s.ID = id
	return s
}

func TestBundleUseCase_FindMatches(t *testing.T) {
	ctx := context.Background()
	subs := NewMockSubscriptionRepo()
	bundles := NewMockBundleRepo()
	uc := usecase.NewBundleUseCase(bundles, subs, newTestLogger())

	subs.Seed(
		activeSub("s1", "u1", "Netflix", 649, model.BillingCycleMonthly),
		activeSub("s2", "u1", "Amazon Prime", 1499, model.BillingCycleYearly),
		activeSub("s3", "u1", "Disney+ Hotstar", 299, model.BillingCycleMonthly),
		activeSub("s4", "u2", "Spotify", 119, model.BillingCycleMonthly),
	)
	if err := uc.Upsert(ctx, &model.Bundle{
		ID: "jio-799", Provider: "Jio", PlanName: "Postpaid 799", MonthlyPrice: decimal.NewFromInt(799),
		IncludedServices: []string{"Netflix", "Amazon Prime", "JioHotstar"}, IsActive: true,
	}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	t.Run("returns savings for the user's own subscriptions", func(t *testing.T) {
		results, err := uc.FindMatches(ctx, "u1", matching.DefaultMatchConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 match, got %d", len(results))
		}
		if results[0].MatchedCount != 3 {
			t.Errorf("expected 3 matched services, got %d", results[0].MatchedCount)
		}
	})

	t.Run("another user with one subscription gets nothing", func(t *testing.T) {
		results, err := uc.FindMatches(ctx, "u2", matching.DefaultMatchConfig())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if results == nil || len(results) != 0 {
			t.Fatalf("expected empty non-nil result, got %v", results)
		}
	})

	t.Run("deactivated bundles are skipped", func(t *testing.T) {
		if err := uc.Deactivate(ctx, "jio-799"); err != nil {
			t.Fatalf("Deactivate failed: %v", err)
		}
		results, _ := uc.FindMatches(ctx, "u1", matching.DefaultMatchConfig())
		if len(results) != 0 {
			t.Fatalf("expected no matches, got %d", len(results))
		}
	})

	t.Run("rejects out of range config", func(t *testing.T) {
		cfg := matching.DefaultMatchConfig()
		cfg.MinMatchPercentage = 150
		if _, err := uc.FindMatches(ctx, "u1", cfg); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBundleUseCase_Upsert(t *testing.T) {
	ctx := context.Background()
	bundles := NewMockBundleRepo()
	uc := usecase.NewBundleUseCase(bundles, NewMockSubscriptionRepo(), newTestLogger())

	cases := []struct {
		name string
		b    *model.Bundle
	}{
		{"nil", nil},
		{"no id", &model.Bundle{Provider: "Jio", PlanName: "p", IncludedServices: []string{"Netflix"}}},
		{"negative price", &model.Bundle{ID: "x", Provider: "Jio", PlanName: "p", MonthlyPrice: decimal.NewFromInt(-1), IncludedServices: []string{"Netflix"}}},
		{"blank services", &model.Bundle{ID: "x", Provider: "Jio", PlanName: "p", IncludedServices: []string{" ", ""}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := uc.Upsert(ctx, tc.b); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}

	t.Run("trims services and stamps update time", func(t *testing.T) {
		b := &model.Bundle{ID: "airtel", Provider: "Airtel", PlanName: "Black", MonthlyPrice: decimal.NewFromInt(1099),
			IncludedServices: []string{" Netflix ", "", "Amazon Prime"}, IsActive: true}
		if err := uc.Upsert(ctx, b); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
		stored, _ := bundles.FindByID(ctx, nil, "airtel")
		if len(stored.IncludedServices) != 2 || stored.IncludedServices[0] != "Netflix" {
			t.Errorf("unexpected services %v", stored.IncludedServices)
		}
		if stored.UpdatedAt.IsZero() {
			t.Error("expected UpdatedAt to be set")
		}
	})
}
