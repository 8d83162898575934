package model

import "github.com/shopspring/decimal"

// CatalogPlan is one published price point of a catalog service.
type CatalogPlan struct {
	Name         string          `json:"name" yaml:"name"`
	Price        decimal.Decimal `json:"price" yaml:"price"`
	BillingCycle BillingCycle    `json:"billing_cycle" yaml:"billing_cycle"`
}

// CatalogService describes a known subscription service and how to leave it.
type CatalogService struct {
	ID          string        `json:"id" yaml:"id"`
	Name        string        `json:"name" yaml:"name"`
	Category    string        `json:"category" yaml:"category"`
	Website     string        `json:"website" yaml:"website"`
	CancelURL   string        `json:"cancel_url" yaml:"cancel_url"`
	CancelSteps []string      `json:"cancel_steps" yaml:"cancel_steps"`
	Plans       []CatalogPlan `json:"plans" yaml:"plans"`
}

type GuideSource string

const (
	GuideSourceCatalog GuideSource = "catalog"
	GuideSourceAI      GuideSource = "ai"
)

// CancellationGuide is what the user sees when asking how to cancel a service.
type CancellationGuide struct {
	Service   string      `json:"service"`
	CancelURL string      `json:"cancel_url,omitempty"`
	Steps     []string    `json:"steps"`
	Source    GuideSource `json:"source"`
}
