package recommend

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"subsavvy/internal/domain/model"
)

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func active(id, name string, cost int64) model.Subscription {
	return model.Subscription{
		ID:           id,
		UserID:       "u1",
		ServiceName:  name,
		Cost:         decimal.NewFromInt(cost),
		BillingCycle: model.BillingCycleMonthly,
		Status:       model.SubscriptionStatusActive,
	}
}

func daysAgo(n int) *time.Time {
	t := now.AddDate(0, 0, -n)
	return &t
}

func kinds(recs []model.Recommendation) map[string]model.RecommendationKind {
	out := make(map[string]model.RecommendationKind, len(recs))
	for _, r := range recs {
		key := r.SubscriptionID
		if key == "" {
			key = r.BundleID
		}
		out[key] = r.Kind
	}
	return out
}

func TestGenerate_Cancel(t *testing.T) {
	in := Input{
		UserID:        "u1",
		Subscriptions: []model.Subscription{active("s1", "Netflix", 649)},
		Usage: map[string]model.UsageStat{
			"s1": {SubscriptionID: "s1", Minutes: 0, LastUsedAt: daysAgo(45)},
		},
		Now: now,
	}
	recs := Generate(in, DefaultRules())
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecommendationCancel, recs[0].Kind)
	assert.Equal(t, "s1", recs[0].SubscriptionID)
	assert.True(t, recs[0].MonthlySavings.Equal(decimal.NewFromInt(649)))
	assert.Equal(t, "u1", recs[0].UserID)
}

func TestGenerate_RecentUseIsNotCancelled(t *testing.T) {
	in := Input{
		Subscriptions: []model.Subscription{active("s1", "Netflix", 649)},
		Usage: map[string]model.UsageStat{
			"s1": {SubscriptionID: "s1", Minutes: 600, LastUsedAt: daysAgo(2)},
		},
		Now: now,
	}
	assert.Empty(t, Generate(in, DefaultRules()))
}

func TestGenerate_NoUsageDataNeverCancels(t *testing.T) {
	in := Input{
		Subscriptions: []model.Subscription{active("s1", "Netflix", 649)},
		Catalog: []model.CatalogService{{
			Name:  "Netflix",
			Plans: []model.CatalogPlan{{Name: "Mobile", Price: decimal.NewFromInt(149), BillingCycle: model.BillingCycleMonthly}},
		}},
		Now: now,
	}
	assert.Empty(t, Generate(in, DefaultRules()))
}

func TestGenerate_Downgrade(t *testing.T) {
	catalog := []model.CatalogService{{
		Name:     "Netflix",
		Category: "video",
		Plans: []model.CatalogPlan{
			{Name: "Premium", Price: decimal.NewFromInt(649), BillingCycle: model.BillingCycleMonthly},
			{Name: "Basic", Price: decimal.NewFromInt(199), BillingCycle: model.BillingCycleMonthly},
			{Name: "Mobile", Price: decimal.NewFromInt(149), BillingCycle: model.BillingCycleMonthly},
		},
	}}
	in := Input{
		Subscriptions: []model.Subscription{active("s1", "netflix", 649)},
		Usage: map[string]model.UsageStat{
			"s1": {SubscriptionID: "s1", Minutes: 40, LastUsedAt: daysAgo(3)},
		},
		Catalog: catalog,
		Now:     now,
	}
	recs := Generate(in, DefaultRules())
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecommendationDowngrade, recs[0].Kind)
	assert.True(t, recs[0].MonthlySavings.Equal(decimal.NewFromInt(500)))
	assert.Contains(t, recs[0].Title, "Mobile")
}

func TestGenerate_Overlap(t *testing.T) {
	in := Input{
		Subscriptions: []model.Subscription{
			active("s1", "Spotify", 119),
			active("s2", "JioSaavn", 99),
			active("s3", "Gaana", 99),
		},
		Usage: map[string]model.UsageStat{
			"s1": {SubscriptionID: "s1", Minutes: 900, LastUsedAt: daysAgo(1)},
			"s2": {SubscriptionID: "s2", Minutes: 300, LastUsedAt: daysAgo(1)},
			"s3": {SubscriptionID: "s3", Minutes: 200, LastUsedAt: daysAgo(1)},
		},
		Now: now,
	}
	recs := Generate(in, DefaultRules())
	got := kinds(recs)
	assert.Len(t, recs, 2)
	assert.NotContains(t, got, "s1")
	assert.Equal(t, model.RecommendationOverlap, got["s2"])
	assert.Equal(t, model.RecommendationOverlap, got["s3"])
}

func TestGenerate_CancelWinsOverOverlap(t *testing.T) {
	in := Input{
		Subscriptions: []model.Subscription{
			active("s1", "Spotify", 119),
			active("s2", "Wynk Music", 99),
		},
		Usage: map[string]model.UsageStat{
			"s1": {SubscriptionID: "s1", Minutes: 900, LastUsedAt: daysAgo(1)},
			"s2": {SubscriptionID: "s2", Minutes: 0, LastUsedAt: daysAgo(60)},
		},
		Now: now,
	}
	recs := Generate(in, DefaultRules())
	require.Len(t, recs, 1)
	assert.Equal(t, model.RecommendationCancel, recs[0].Kind)
	assert.Equal(t, "s2", recs[0].SubscriptionID)
}

func TestGenerate_BundleAndOrdering(t *testing.T) {
	in := Input{
		Subscriptions: []model.Subscription{
			active("s1", "Netflix", 649),
			active("s2", "Spotify", 119),
		},
		Usage: map[string]model.UsageStat{
			"s2": {SubscriptionID: "s2", Minutes: 0, LastUsedAt: daysAgo(90)},
		},
		Matches: []model.MatchResult{
			{BundleID: "b1", Provider: "Jio", PlanName: "Max", MatchedCount: 2,
				CurrentMonthlyCost: decimal.NewFromInt(768), BundleMonthlyCost: decimal.NewFromInt(499),
				MonthlySavings: decimal.NewFromInt(269)},
		},
		Now: now,
	}
	recs := Generate(in, DefaultRules())
	require.Len(t, recs, 2)
	assert.Equal(t, model.RecommendationBundle, recs[0].Kind)
	assert.Equal(t, "b1", recs[0].BundleID)
	assert.Empty(t, recs[0].SubscriptionID)
	assert.Equal(t, model.RecommendationCancel, recs[1].Kind)

	for i := 1; i < len(recs); i++ {
		assert.True(t, recs[i-1].MonthlySavings.GreaterThanOrEqual(recs[i].MonthlySavings))
	}
}

func TestGenerate_IgnoresInactive(t *testing.T) {
	s := active("s1", "Netflix", 649)
	s.Status = model.SubscriptionStatusCancelled
	in := Input{
		Subscriptions: []model.Subscription{s},
		Usage:         map[string]model.UsageStat{"s1": {SubscriptionID: "s1"}},
		Now:           now,
	}
	assert.Empty(t, Generate(in, DefaultRules()))
}
