package model

import (
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type RecommendationKind string

const (
	RecommendationCancel    RecommendationKind = "cancel"
	RecommendationDowngrade RecommendationKind = "downgrade"
	RecommendationOverlap   RecommendationKind = "overlap"
	RecommendationBundle    RecommendationKind = "bundle"
)

type Recommendation struct {
	ID             string
	UserID         string
	SubscriptionID string // empty for bundle recommendations
	BundleID       string // empty unless Kind == bundle
	Kind           RecommendationKind
	Title          string
	Detail         string
	MonthlySavings decimal.Decimal
	CreatedAt      time.Time
}

// NewRecommendation assigns a ULID so stored sets sort by creation order.
func NewRecommendation(userID string, kind RecommendationKind, title, detail string, savings decimal.Decimal) *Recommendation {
	return &Recommendation{
		ID:             ulid.Make().String(),
		UserID:         userID,
		Kind:           kind,
		Title:          title,
		Detail:         detail,
		MonthlySavings: savings,
		CreatedAt:      time.Now().UTC(),
	}
}
