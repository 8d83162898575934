// Package recommend turns subscriptions, usage and bundle matches into
// savings suggestions. It is pure: callers load the inputs and persist the
// output.
package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
)

type Rules struct {
	UnusedDays      int
	LowUsageMinutes int
}

func DefaultRules() Rules {
	return Rules{UnusedDays: 30, LowUsageMinutes: 120}
}

type Input struct {
	UserID        string
	Subscriptions []model.Subscription
	Usage         map[string]model.UsageStat // keyed by subscription ID
	Catalog       []model.CatalogService
	Matches       []model.MatchResult
	Now           time.Time
}

var kindRank = map[model.RecommendationKind]int{
	model.RecommendationCancel:    0,
	model.RecommendationDowngrade: 1,
	model.RecommendationOverlap:   2,
	model.RecommendationBundle:    3,
}

type candidate struct {
	sub      *model.Subscription
	monthly  decimal.Decimal
	category string
	catalog  *model.CatalogService
	usage    *model.UsageStat
}

// Generate applies the rules in priority order. A subscription receives at
// most one of cancel, downgrade or overlap; every bundle match yields one
// bundle recommendation. The result is sorted by monthly savings descending.
func Generate(in Input, cfg Rules) []model.Recommendation {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if cfg.UnusedDays <= 0 {
		cfg.UnusedDays = DefaultRules().UnusedDays
	}
	if cfg.LowUsageMinutes <= 0 {
		cfg.LowUsageMinutes = DefaultRules().LowUsageMinutes
	}

	cands := make([]candidate, 0, len(in.Subscriptions))
	for i := range in.Subscriptions {
		s := &in.Subscriptions[i]
		if !s.IsActive() {
			continue
		}
		c := candidate{
			sub:     s,
			monthly: matching.NormalizeMonthlyCost(s.Cost, string(s.BillingCycle)),
			catalog: findCatalog(in.Catalog, s.ServiceName),
		}
		if u, ok := in.Usage[s.ID]; ok {
			c.usage = &u
		}
		c.category = categoryOf(s, c.catalog)
		cands = append(cands, c)
	}

	out := make([]model.Recommendation, 0)
	claimed := make(map[string]bool)

	for _, c := range cands {
		if r, ok := cancelRule(in, cfg, c); ok {
			out = append(out, r)
			claimed[c.sub.ID] = true
			continue
		}
		if r, ok := downgradeRule(in, cfg, c); ok {
			out = append(out, r)
			claimed[c.sub.ID] = true
		}
	}

	out = append(out, overlapRule(in, cands, claimed)...)

	for _, m := range in.Matches {
		if !m.MonthlySavings.IsPositive() {
			continue
		}
		r := model.NewRecommendation(in.UserID, model.RecommendationBundle,
			fmt.Sprintf("Switch to %s %s", m.Provider, m.PlanName),
			fmt.Sprintf("Covers %d of your subscriptions for %s a month instead of %s.",
				m.MatchedCount, m.BundleMonthlyCost.StringFixed(2), m.CurrentMonthlyCost.StringFixed(2)),
			m.MonthlySavings)
		r.BundleID = m.BundleID
		out = append(out, *r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := a.MonthlySavings.Cmp(b.MonthlySavings); c != 0 {
			return c > 0
		}
		if kindRank[a.Kind] != kindRank[b.Kind] {
			return kindRank[a.Kind] < kindRank[b.Kind]
		}
		if a.SubscriptionID != b.SubscriptionID {
			return a.SubscriptionID < b.SubscriptionID
		}
		return a.BundleID < b.BundleID
	})
	return out
}

// cancelRule fires only when usage data exists and shows no activity in the
// last cfg.UnusedDays days.
func cancelRule(in Input, cfg Rules, c candidate) (model.Recommendation, bool) {
	if c.usage == nil || !c.monthly.IsPositive() {
		return model.Recommendation{}, false
	}
	var idle bool
	if c.usage.LastUsedAt != nil {
		idle = in.Now.Sub(*c.usage.LastUsedAt) >= time.Duration(cfg.UnusedDays)*24*time.Hour
	} else {
		idle = c.usage.Minutes == 0
	}
	if !idle {
		return model.Recommendation{}, false
	}
	r := model.NewRecommendation(in.UserID, model.RecommendationCancel,
		fmt.Sprintf("Cancel %s", c.sub.ServiceName),
		fmt.Sprintf("No usage recorded in the last %d days.", cfg.UnusedDays),
		c.monthly)
	r.SubscriptionID = c.sub.ID
	return *r, true
}

func downgradeRule(in Input, cfg Rules, c candidate) (model.Recommendation, bool) {
	if c.usage == nil || c.catalog == nil || c.usage.Minutes >= cfg.LowUsageMinutes {
		return model.Recommendation{}, false
	}
	var (
		best    *model.CatalogPlan
		bestMon decimal.Decimal
	)
	for i := range c.catalog.Plans {
		p := &c.catalog.Plans[i]
		m := matching.NormalizeMonthlyCost(p.Price, string(p.BillingCycle))
		if !m.IsPositive() || !m.LessThan(c.monthly) {
			continue
		}
		if best == nil || m.LessThan(bestMon) {
			best, bestMon = p, m
		}
	}
	if best == nil {
		return model.Recommendation{}, false
	}
	r := model.NewRecommendation(in.UserID, model.RecommendationDowngrade,
		fmt.Sprintf("Downgrade %s to %s", c.sub.ServiceName, best.Name),
		fmt.Sprintf("Only %d minutes used recently; the %s plan costs %s a month.",
			c.usage.Minutes, best.Name, bestMon.StringFixed(2)),
		c.monthly.Sub(bestMon))
	r.SubscriptionID = c.sub.ID
	return *r, true
}

// overlapRule keeps one unclaimed subscription per category and suggests
// dropping the rest. The kept one is the most used, or the most expensive
// without usage data.
func overlapRule(in Input, cands []candidate, claimed map[string]bool) []model.Recommendation {
	groups := make(map[string][]candidate)
	var order []string
	for _, c := range cands {
		if c.category == "" || claimed[c.sub.ID] {
			continue
		}
		if _, ok := groups[c.category]; !ok {
			order = append(order, c.category)
		}
		groups[c.category] = append(groups[c.category], c)
	}

	var out []model.Recommendation
	for _, cat := range order {
		g := groups[cat]
		if len(g) < 2 {
			continue
		}
		keep := 0
		for i := 1; i < len(g); i++ {
			if keeps(g[i], g[keep]) {
				keep = i
			}
		}
		for i, c := range g {
			if i == keep || !c.monthly.IsPositive() {
				continue
			}
			r := model.NewRecommendation(in.UserID, model.RecommendationOverlap,
				fmt.Sprintf("Drop %s", c.sub.ServiceName),
				fmt.Sprintf("You already pay for %s, another %s service.", g[keep].sub.ServiceName, cat),
				c.monthly)
			r.SubscriptionID = c.sub.ID
			out = append(out, *r)
			claimed[c.sub.ID] = true
		}
	}
	return out
}

// keeps reports whether a should be kept over b.
func keeps(a, b candidate) bool {
	am, bm := minutes(a), minutes(b)
	if am != bm {
		return am > bm
	}
	if c := a.monthly.Cmp(b.monthly); c != 0 {
		return c > 0
	}
	return a.sub.ID < b.sub.ID
}

func minutes(c candidate) int {
	if c.usage == nil {
		return -1
	}
	return c.usage.Minutes
}

func findCatalog(catalog []model.CatalogService, serviceName string) *model.CatalogService {
	names := matching.NormalizeServiceName(serviceName)
	for i := range catalog {
		if matching.ServiceNamesMatch(names, []string{catalog[i].Name}) {
			return &catalog[i]
		}
	}
	return nil
}

func categoryOf(s *model.Subscription, cs *model.CatalogService) string {
	if s.Category != "" {
		return s.Category
	}
	if cs != nil && cs.Category != "" {
		return cs.Category
	}
	if info, ok := matching.LookupService(s.ServiceName); ok {
		return info.Category
	}
	return ""
}
