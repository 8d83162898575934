package matching

import (
	"sort"

	"github.com/shopspring/decimal"

	"subsavvy/internal/domain/model"
)

// MinMatchedServices is the smallest overlap that makes a bundle worth
// suggesting.
const MinMatchedServices = 2

// MatchConfig tunes which bundles qualify. Bounds are validated by callers.
type MatchConfig struct {
	MinSavings         decimal.Decimal
	MinMatchPercentage float64 // 0-100, ignored when 0
	MaxResults         int     // no limit when <= 0
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		MinSavings: decimal.NewFromInt(100),
		MaxResults: 10,
	}
}

type normalizedSub struct {
	id      string
	names   []string
	monthly decimal.Decimal
}

// ComputeBundleMatches returns the bundles whose included services cover at
// least two of the user's active subscriptions and save at least
// cfg.MinSavings per month, ordered by savings descending.
func ComputeBundleMatches(subs []model.Subscription, bundles []model.Bundle, cfg MatchConfig) []model.MatchResult {
	active := make([]normalizedSub, 0, len(subs))
	for i := range subs {
		s := &subs[i]
		if s.Status != "" && s.Status != model.SubscriptionStatusActive {
			continue
		}
		active = append(active, normalizedSub{
			id:      s.ID,
			names:   NormalizeServiceName(s.ServiceName),
			monthly: NormalizeMonthlyCost(s.Cost, string(s.BillingCycle)),
		})
	}

	results := make([]model.MatchResult, 0)
	if len(active) < MinMatchedServices {
		return results
	}

	for i := range bundles {
		if r, ok := matchBundle(&bundles[i], active, cfg); ok {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if c := a.MonthlySavings.Cmp(b.MonthlySavings); c != 0 {
			return c > 0
		}
		if a.MatchedCount != b.MatchedCount {
			return a.MatchedCount > b.MatchedCount
		}
		return a.BundleID < b.BundleID
	})

	if cfg.MaxResults > 0 && len(results) > cfg.MaxResults {
		results = results[:cfg.MaxResults]
	}
	return results
}

func matchBundle(b *model.Bundle, subs []normalizedSub, cfg MatchConfig) (model.MatchResult, bool) {
	if !b.IsActive || len(b.IncludedServices) == 0 {
		return model.MatchResult{}, false
	}

	var (
		ids      []string
		services []string
		current  = decimal.Zero
		seen     = make(map[string]struct{})
	)
	for _, s := range subs {
		hit := false
		for _, included := range b.IncludedServices {
			if !ServiceNamesMatch(s.names, []string{included}) {
				continue
			}
			hit = true
			if _, dup := seen[included]; !dup {
				seen[included] = struct{}{}
				services = append(services, included)
			}
		}
		if hit {
			ids = append(ids, s.id)
			current = current.Add(s.monthly)
		}
	}

	if len(ids) < MinMatchedServices {
		return model.MatchResult{}, false
	}
	savings := current.Sub(b.MonthlyPrice)
	if savings.LessThan(cfg.MinSavings) {
		return model.MatchResult{}, false
	}
	if cfg.MinMatchPercentage > 0 {
		pct := float64(len(ids)) * 100 / float64(len(subs))
		if pct < cfg.MinMatchPercentage {
			return model.MatchResult{}, false
		}
	}

	return model.MatchResult{
		BundleID:               b.ID,
		Provider:               b.Provider,
		PlanName:               b.PlanName,
		MatchedSubscriptionIDs: ids,
		MatchedServices:        services,
		MatchedCount:           len(ids),
		CurrentMonthlyCost:     current,
		BundleMonthlyCost:      b.MonthlyPrice,
		MonthlySavings:         savings,
	}, true
}
