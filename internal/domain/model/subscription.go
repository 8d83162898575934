package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"subsavvy/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusPaused    SubscriptionStatus = "paused"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusPaused, SubscriptionStatusCancelled:
		return true
	}
	return false
}

// BillingCycle is kept as free text on purpose: providers publish cycles like
// "28 days" that do not fit a closed enum. The constants are the known values.
type BillingCycle string

const (
	BillingCycleMonthly    BillingCycle = "monthly"
	BillingCycleQuarterly  BillingCycle = "quarterly"
	BillingCycleHalfYearly BillingCycle = "half_yearly"
	BillingCycleYearly     BillingCycle = "yearly"
	BillingCycle28Days     BillingCycle = "28 days"
	BillingCycle84Days     BillingCycle = "84 days"
)

type SubscriptionSource string

const (
	SourceManual SubscriptionSource = "manual"
	SourceGmail  SubscriptionSource = "gmail"
)

// Subscription is a recurring payment tracked for a user.
type Subscription struct {
	ID              string
	UserID          string
	ServiceName     string
	Cost            decimal.Decimal
	Currency        string
	BillingCycle    BillingCycle
	Status          SubscriptionStatus
	Category        string
	NextBillingDate *time.Time
	Source          SubscriptionSource
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CancelledAt     *time.Time
}

// NewSubscription validates input and returns an active subscription.
func NewSubscription(userID, serviceName string, cost decimal.Decimal, cycle BillingCycle) (*Subscription, error) {
	serviceName = strings.TrimSpace(serviceName)
	if userID == "" || serviceName == "" || !cost.IsPositive() {
		return nil, domain.ErrInvalidArgument
	}
	if strings.TrimSpace(string(cycle)) == "" {
		cycle = BillingCycleMonthly
	}
	now := time.Now().UTC()
	return &Subscription{
		ID:           uuid.NewString(),
		UserID:       userID,
		ServiceName:  serviceName,
		Cost:         cost,
		Currency:     "INR",
		BillingCycle: cycle,
		Status:       SubscriptionStatusActive,
		Source:       SourceManual,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Subscription) IsActive() bool { return s != nil && s.Status == SubscriptionStatusActive }

// Cancel is terminal; cancelling twice is a no-op.
func (s *Subscription) Cancel(now time.Time) error {
	if s.Status == SubscriptionStatusCancelled {
		return nil
	}
	s.Status = SubscriptionStatusCancelled
	s.CancelledAt = &now
	s.UpdatedAt = now
	return nil
}

func (s *Subscription) Pause(now time.Time) error {
	switch s.Status {
	case SubscriptionStatusPaused:
		return nil
	case SubscriptionStatusCancelled:
		return domain.ErrInvalidTransition
	}
	s.Status = SubscriptionStatusPaused
	s.UpdatedAt = now
	return nil
}

func (s *Subscription) Resume(now time.Time) error {
	switch s.Status {
	case SubscriptionStatusActive:
		return nil
	case SubscriptionStatusCancelled:
		return domain.ErrInvalidTransition
	}
	s.Status = SubscriptionStatusActive
	s.UpdatedAt = now
	return nil
}
