package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/infra/logging"
)

const maxMatchResults = 50

// matchConfig starts from the configured defaults and applies query overrides.
func (s *Server) matchConfig(r *http.Request) (matching.MatchConfig, string) {
	cfg := matching.MatchConfig{
		MinSavings:         s.cfg.Matching.MinSavings,
		MinMatchPercentage: s.cfg.Matching.MinMatchPercentage,
		MaxResults:         s.cfg.Matching.MaxResults,
	}
	q := r.URL.Query()
	if v := q.Get("min_savings"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil || d.IsNegative() {
			return cfg, "min_savings must be a non-negative number"
		}
		cfg.MinSavings = d
	}
	if v := q.Get("min_match_percentage"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 || p > 100 {
			return cfg, "min_match_percentage must be between 0 and 100"
		}
		cfg.MinMatchPercentage = p
	}
	if v := q.Get("max_results"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxMatchResults {
			return cfg, "max_results must be between 1 and 50"
		}
		cfg.MaxResults = n
	}
	return cfg, ""
}

func (s *Server) bundleMatches(w http.ResponseWriter, r *http.Request) {
	cfg, msg := s.matchConfig(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	matches, err := s.uc.Bundles.FindMatches(r.Context(), logging.UserID(r.Context()), cfg)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	if matches == nil {
		matches = []model.MatchResult{}
	}
	writeJSON(w, http.StatusOK, listBody[model.MatchResult]{Items: matches})
}

func (s *Server) adminListBundles(w http.ResponseWriter, r *http.Request) {
	bundles, err := s.uc.Bundles.ListAll(r.Context())
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[bundleDTO]{Items: toBundleDTOs(bundles)})
}

func (s *Server) adminPutBundle(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	b := &model.Bundle{
		ID:               chi.URLParam(r, "id"),
		Provider:         req.Provider,
		PlanName:         req.PlanName,
		MonthlyPrice:     req.MonthlyPrice,
		IncludedServices: req.IncludedServices,
		IsActive:         req.IsActive == nil || *req.IsActive,
	}
	if err := s.uc.Bundles.Upsert(r.Context(), b); err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toBundleDTOs([]*model.Bundle{b})[0])
}

func (s *Server) adminDeleteBundle(w http.ResponseWriter, r *http.Request) {
	if err := s.uc.Bundles.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		fail(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
