package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/usecase"
)

func (r subscriptionRequest) input() usecase.SubscriptionInput {
	return usecase.SubscriptionInput{
		ServiceName:     r.ServiceName,
		Cost:            r.Cost,
		Currency:        r.Currency,
		BillingCycle:    model.BillingCycle(r.BillingCycle),
		Category:        r.Category,
		NextBillingDate: r.NextBillingDate,
	}
}

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	status := model.SubscriptionStatus(r.URL.Query().Get("status"))
	subs, err := s.uc.Subscriptions.List(r.Context(), logging.UserID(r.Context()), status)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[subscriptionDTO]{Items: toSubscriptionDTOs(subs)})
}

func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := s.uc.Subscriptions.Create(r.Context(), logging.UserID(r.Context()), req.input())
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriptionDTO(sub))
}

func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := s.uc.Subscriptions.Get(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (s *Server) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var req subscriptionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sub, err := s.uc.Subscriptions.Update(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id"), req.input())
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (s *Server) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Subscriptions.Delete(r.Context(), logging.UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		fail(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) transitionSubscription(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, id := logging.UserID(ctx), chi.URLParam(r, "id")

	var (
		sub *model.Subscription
		err error
	)
	switch chi.URLParam(r, "action") {
	case "cancel":
		sub, err = s.uc.Subscriptions.Cancel(ctx, userID, id)
	case "pause":
		sub, err = s.uc.Subscriptions.Pause(ctx, userID, id)
	case "resume":
		sub, err = s.uc.Subscriptions.Resume(ctx, userID, id)
	default:
		err = domain.ErrNotFound
	}
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriptionDTO(sub))
}

func (s *Server) monthlySpend(w http.ResponseWriter, r *http.Request) {
	sum, err := s.uc.Subscriptions.MonthlySpend(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
