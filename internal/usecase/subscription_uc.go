// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionInput carries the user-editable fields of a subscription.
type SubscriptionInput struct {
	ServiceName     string
	Cost            decimal.Decimal
	Currency        string
	BillingCycle    model.BillingCycle
	Category        string
	NextBillingDate *time.Time
}

// SpendSummary is the normalized monthly spend of a user's active subscriptions.
type SpendSummary struct {
	TotalMonthly decimal.Decimal            `json:"total_monthly"`
	ByCategory   map[string]decimal.Decimal `json:"by_category"`
	ActiveCount  int                        `json:"active_count"`
}

type SubscriptionUseCase interface {
	Create(ctx context.Context, userID string, in SubscriptionInput) (*model.Subscription, error)
	Get(ctx context.Context, userID, id string) (*model.Subscription, error)
	List(ctx context.Context, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error)
	Update(ctx context.Context, userID, id string, in SubscriptionInput) (*model.Subscription, error)
	Cancel(ctx context.Context, userID, id string) (*model.Subscription, error)
	Pause(ctx context.Context, userID, id string) (*model.Subscription, error)
	Resume(ctx context.Context, userID, id string) (*model.Subscription, error)
	Delete(ctx context.Context, userID, id string) error
	MonthlySpend(ctx context.Context, userID string) (*SpendSummary, error)
}

type subscriptionUC struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, logger *zerolog.Logger) *subscriptionUC {
	return &subscriptionUC{subs: subs, log: logging.Component(logger, "subscription_uc")}
}

func (u *subscriptionUC) Create(ctx context.Context, userID string, in SubscriptionInput) (*model.Subscription, error) {
	sub, err := model.NewSubscription(userID, in.ServiceName, in.Cost, in.BillingCycle)
	if err != nil {
		return nil, err
	}
	applyInput(sub, in)
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().Str("subscription_id", sub.ID).Str("service", sub.ServiceName).Msg("subscription created")
	return sub, nil
}

// Get hides other users' subscriptions behind ErrNotFound.
func (u *subscriptionUC) Get(ctx context.Context, userID, id string) (*model.Subscription, error) {
	sub, err := u.subs.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

func (u *subscriptionUC) List(ctx context.Context, userID string, status model.SubscriptionStatus) ([]*model.Subscription, error) {
	if status != "" && !status.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID, status)
	if err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []*model.Subscription{}
	}
	return subs, nil
}

func (u *subscriptionUC) Update(ctx context.Context, userID, id string, in SubscriptionInput) (*model.Subscription, error) {
	sub, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	// validate through the constructor so create and update share rules
	if _, err := model.NewSubscription(userID, in.ServiceName, in.Cost, in.BillingCycle); err != nil {
		return nil, err
	}
	sub.ServiceName = strings.TrimSpace(in.ServiceName)
	sub.Cost = in.Cost
	sub.BillingCycle = in.BillingCycle
	if strings.TrimSpace(string(sub.BillingCycle)) == "" {
		sub.BillingCycle = model.BillingCycleMonthly
	}
	sub.Category = ""
	applyInput(sub, in)
	sub.UpdatedAt = time.Now().UTC()
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (u *subscriptionUC) Cancel(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return u.transition(ctx, userID, id, (*model.Subscription).Cancel)
}

func (u *subscriptionUC) Pause(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return u.transition(ctx, userID, id, (*model.Subscription).Pause)
}

func (u *subscriptionUC) Resume(ctx context.Context, userID, id string) (*model.Subscription, error) {
	return u.transition(ctx, userID, id, (*model.Subscription).Resume)
}

func (u *subscriptionUC) transition(ctx context.Context, userID, id string, fn func(*model.Subscription, time.Time) error) (*model.Subscription, error) {
	sub, err := u.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	before := sub.Status
	if err := fn(sub, time.Now().UTC()); err != nil {
		return nil, err
	}
	if sub.Status == before {
		return sub, nil
	}
	if err := u.subs.Save(ctx, repository.NoTX, sub); err != nil {
		return nil, err
	}
	logging.With(ctx, u.log).Info().
		Str("subscription_id", sub.ID).
		Str("from", string(before)).
		Str("to", string(sub.Status)).
		Msg("subscription status changed")
	return sub, nil
}

func (u *subscriptionUC) Delete(ctx context.Context, userID, id string) error {
	if _, err := u.Get(ctx, userID, id); err != nil {
		return err
	}
	return u.subs.Delete(ctx, repository.NoTX, id)
}

func (u *subscriptionUC) MonthlySpend(ctx context.Context, userID string) (*SpendSummary, error) {
	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID, model.SubscriptionStatusActive)
	if err != nil {
		return nil, err
	}
	out := &SpendSummary{TotalMonthly: decimal.Zero, ByCategory: map[string]decimal.Decimal{}}
	for _, s := range subs {
		monthly := matching.NormalizeMonthlyCost(s.Cost, string(s.BillingCycle))
		cat := categoryFor(s)
		out.TotalMonthly = out.TotalMonthly.Add(monthly)
		out.ByCategory[cat] = out.ByCategory[cat].Add(monthly)
		out.ActiveCount++
	}
	return out, nil
}

func applyInput(sub *model.Subscription, in SubscriptionInput) {
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		sub.Currency = c
	}
	sub.Category = strings.TrimSpace(in.Category)
	if sub.Category == "" {
		if info, ok := matching.LookupService(sub.ServiceName); ok {
			sub.Category = info.Category
		}
	}
	sub.NextBillingDate = in.NextBillingDate
}

func categoryFor(s *model.Subscription) string {
	if s.Category != "" {
		return s.Category
	}
	if info, ok := matching.LookupService(s.ServiceName); ok {
		return info.Category
	}
	return "other"
}
