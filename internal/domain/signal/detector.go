// Package signal extracts recurring-payment hints from email messages.
package signal

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
)

const (
	baseConfidence      = 0.5
	amountConfidence    = 0.2
	recurringConfidence = 0.2
)

var amountRe = regexp.MustCompile(`(?i)(₹|\brs\.?|\binr|\$|\busd)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)

type cycleRule struct {
	cycle    model.BillingCycle
	keywords []string
}

// Checked in order; more specific phrases first.
var cycleRules = []cycleRule{
	{model.BillingCycleHalfYearly, []string{"half-yearly", "half yearly", "6 months", "six months"}},
	{model.BillingCycle84Days, []string{"84 days", "84-day"}},
	{model.BillingCycle28Days, []string{"28 days", "28-day"}},
	{model.BillingCycleQuarterly, []string{"quarterly", "quarter", "3 months", "three months"}},
	{model.BillingCycleYearly, []string{"annual", "yearly", "per year", "12 months", "/yr"}},
	{model.BillingCycleMonthly, []string{"monthly", "per month", "/mo"}},
}

var recurringKeywords = []string{"renew", "subscription", "membership", "auto-pay", "autopay", "recurring"}

// Detect returns a signal when msg names a known service. The caller fills
// in ID, UserID, Status and CreatedAt.
func Detect(msg model.MailMessage) (model.DetectedSignal, bool) {
	service, ok := resolveService(msg.From + " " + msg.Subject)
	if !ok {
		return model.DetectedSignal{}, false
	}

	text := strings.Join([]string{msg.Subject, msg.Snippet, msg.Body}, "\n")
	lower := strings.ToLower(text)

	sig := model.DetectedSignal{
		ServiceName:  service,
		BillingCycle: detectCycle(lower),
		Confidence:   baseConfidence,
		MessageID:    msg.ID,
		ReceivedAt:   msg.ReceivedAt,
	}

	if amount, currency, ok := extractAmount(text); ok {
		sig.Amount = amount
		sig.Currency = currency
		sig.Confidence += amountConfidence
	}
	for _, kw := range recurringKeywords {
		if strings.Contains(lower, kw) {
			sig.Confidence += recurringConfidence
			break
		}
	}
	sig.Confidence = math.Min(sig.Confidence, 1.0)
	return sig, true
}

// Deduplicate keeps the most recent signal per service, newest first.
func Deduplicate(signals []model.DetectedSignal) []model.DetectedSignal {
	latest := make(map[string]model.DetectedSignal, len(signals))
	for _, s := range signals {
		cur, ok := latest[s.ServiceName]
		if !ok || s.ReceivedAt.After(cur.ReceivedAt) {
			latest[s.ServiceName] = s
		}
	}
	out := make([]model.DetectedSignal, 0, len(latest))
	for _, s := range latest {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ReceivedAt.After(out[j].ReceivedAt)
		}
		return out[i].ServiceName < out[j].ServiceName
	})
	return out
}

func resolveService(header string) (string, bool) {
	if strings.TrimSpace(header) == "" {
		return "", false
	}
	for _, canonical := range matching.CanonicalServices() {
		if matching.ServiceNamesMatch(matching.NormalizeServiceName(canonical), []string{header}) {
			return canonical, true
		}
	}
	return "", false
}

func extractAmount(text string) (decimal.Decimal, string, bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, "", false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, "", false
	}
	currency := "INR"
	switch strings.ToLower(m[1]) {
	case "$", "usd":
		currency = "USD"
	}
	return amount, currency, true
}

func detectCycle(lower string) model.BillingCycle {
	for _, r := range cycleRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.cycle
			}
		}
	}
	return model.BillingCycleMonthly
}
