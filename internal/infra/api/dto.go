package api

import (
	"time"

	"github.com/shopspring/decimal"

	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
)

type subscriptionDTO struct {
	ID              string          `json:"id"`
	ServiceName     string          `json:"service_name"`
	Cost            decimal.Decimal `json:"cost"`
	MonthlyCost     decimal.Decimal `json:"monthly_cost"`
	Currency        string          `json:"currency"`
	BillingCycle    string          `json:"billing_cycle"`
	Status          string          `json:"status"`
	Category        string          `json:"category,omitempty"`
	NextBillingDate *time.Time      `json:"next_billing_date,omitempty"`
	Source          string          `json:"source"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	CancelledAt     *time.Time      `json:"cancelled_at,omitempty"`
}

func toSubscriptionDTO(s *model.Subscription) subscriptionDTO {
	return subscriptionDTO{
		ID:              s.ID,
		ServiceName:     s.ServiceName,
		Cost:            s.Cost,
		MonthlyCost:     matching.NormalizeMonthlyCost(s.Cost, string(s.BillingCycle)),
		Currency:        s.Currency,
		BillingCycle:    string(s.BillingCycle),
		Status:          string(s.Status),
		Category:        s.Category,
		NextBillingDate: s.NextBillingDate,
		Source:          string(s.Source),
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
		CancelledAt:     s.CancelledAt,
	}
}

func toSubscriptionDTOs(subs []*model.Subscription) []subscriptionDTO {
	out := make([]subscriptionDTO, 0, len(subs))
	for _, s := range subs {
		out = append(out, toSubscriptionDTO(s))
	}
	return out
}

type subscriptionRequest struct {
	ServiceName     string          `json:"service_name"`
	Cost            decimal.Decimal `json:"cost"`
	Currency        string          `json:"currency"`
	BillingCycle    string          `json:"billing_cycle"`
	Category        string          `json:"category"`
	NextBillingDate *time.Time      `json:"next_billing_date"`
}

type bundleDTO struct {
	ID               string          `json:"id"`
	Provider         string          `json:"provider"`
	PlanName         string          `json:"plan_name"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	IncludedServices []string        `json:"included_services"`
	IsActive         bool            `json:"is_active"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func toBundleDTOs(bundles []*model.Bundle) []bundleDTO {
	out := make([]bundleDTO, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, bundleDTO{
			ID:               b.ID,
			Provider:         b.Provider,
			PlanName:         b.PlanName,
			MonthlyPrice:     b.MonthlyPrice,
			IncludedServices: b.IncludedServices,
			IsActive:         b.IsActive,
			UpdatedAt:        b.UpdatedAt,
		})
	}
	return out
}

type bundleRequest struct {
	Provider         string          `json:"provider"`
	PlanName         string          `json:"plan_name"`
	MonthlyPrice     decimal.Decimal `json:"monthly_price"`
	IncludedServices []string        `json:"included_services"`
	IsActive         *bool           `json:"is_active"`
}

type recommendationDTO struct {
	ID             string          `json:"id"`
	Kind           string          `json:"kind"`
	SubscriptionID string          `json:"subscription_id,omitempty"`
	BundleID       string          `json:"bundle_id,omitempty"`
	Title          string          `json:"title"`
	Detail         string          `json:"detail"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
	CreatedAt      time.Time       `json:"created_at"`
}

func toRecommendationDTOs(recs []*model.Recommendation) []recommendationDTO {
	out := make([]recommendationDTO, 0, len(recs))
	for _, r := range recs {
		out = append(out, recommendationDTO{
			ID:             r.ID,
			Kind:           string(r.Kind),
			SubscriptionID: r.SubscriptionID,
			BundleID:       r.BundleID,
			Title:          r.Title,
			Detail:         r.Detail,
			MonthlySavings: r.MonthlySavings,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out
}

type signalDTO struct {
	ID           string          `json:"id"`
	ServiceName  string          `json:"service_name"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	BillingCycle string          `json:"billing_cycle"`
	Confidence   float64         `json:"confidence"`
	ReceivedAt   time.Time       `json:"received_at"`
	Status       string          `json:"status"`
}

func toSignalDTOs(signals []*model.DetectedSignal) []signalDTO {
	out := make([]signalDTO, 0, len(signals))
	for _, s := range signals {
		out = append(out, signalDTO{
			ID:           s.ID,
			ServiceName:  s.ServiceName,
			Amount:       s.Amount,
			Currency:     s.Currency,
			BillingCycle: string(s.BillingCycle),
			Confidence:   s.Confidence,
			ReceivedAt:   s.ReceivedAt,
			Status:       string(s.Status),
		})
	}
	return out
}

type scanRequest struct {
	Days       int `json:"days"`
	MaxResults int `json:"max_results"`
}

type scanResponse struct {
	RunID    string      `json:"run_id"`
	Scanned  int         `json:"scanned"`
	Detected int         `json:"detected"`
	Stored   int         `json:"stored"`
	Signals  []signalDTO `json:"signals"`
}

type usageDTO struct {
	SubscriptionID string     `json:"subscription_id"`
	Minutes        int        `json:"minutes"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	Source         string     `json:"source"`
	WindowDays     int        `json:"window_days"`
	CollectedAt    time.Time  `json:"collected_at"`
}

type connectionRequest struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

type connectionDTO struct {
	Provider  string    `json:"provider"`
	Connected bool      `json:"connected"`
	Expiry    time.Time `json:"expiry,omitempty"`
}

type profileRequest struct {
	Email string `json:"email"`
}

type profileDTO struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toProfileDTO(u *model.User) profileDTO {
	return profileDTO{ID: u.ID, Email: u.Email, TelegramChatID: u.TelegramChatID, CreatedAt: u.CreatedAt}
}

type telegramLinkDTO struct {
	Code         string    `json:"code"`
	StartCommand string    `json:"start_command"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func toTelegramLinkDTO(l *model.TelegramLink) telegramLinkDTO {
	return telegramLinkDTO{Code: l.Code, StartCommand: "/start " + l.Code, ExpiresAt: l.ExpiresAt}
}

type normalizeResponse struct {
	Input     string   `json:"input"`
	Known     bool     `json:"known"`
	Canonical string   `json:"canonical"`
	Category  string   `json:"category,omitempty"`
	Names     []string `json:"names"`
}
