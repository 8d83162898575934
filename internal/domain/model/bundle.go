package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bundle is a provider plan (typically telecom) that includes otherwise
// separately billed services at a combined monthly price.
type Bundle struct {
	ID               string
	Provider         string
	PlanName         string
	MonthlyPrice     decimal.Decimal
	IncludedServices []string // as published by the provider
	IsActive         bool
	UpdatedAt        time.Time
}

// MatchResult is a savings opportunity computed for one bundle. It is never
// persisted by the matcher; callers own it.
type MatchResult struct {
	BundleID               string          `json:"bundle_id"`
	Provider               string          `json:"provider"`
	PlanName               string          `json:"plan_name"`
	MatchedSubscriptionIDs []string        `json:"matched_subscription_ids"`
	MatchedServices        []string        `json:"matched_services"`
	MatchedCount           int             `json:"matched_count"`
	CurrentMonthlyCost     decimal.Decimal `json:"current_monthly_cost"`
	BundleMonthlyCost      decimal.Decimal `json:"bundle_monthly_cost"`
	MonthlySavings         decimal.Decimal `json:"monthly_savings"`
}
