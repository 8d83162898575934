package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/usecase"
)

func (s *Server) listRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.uc.Recommendations.List(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[recommendationDTO]{Items: toRecommendationDTOs(recs)})
}

func (s *Server) generateRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := s.uc.Recommendations.Generate(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[recommendationDTO]{Items: toRecommendationDTOs(recs)})
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if req.Days == 0 {
		req.Days = s.cfg.Scan.DefaultDays
	}
	if req.MaxResults == 0 {
		req.MaxResults = s.cfg.Scan.MaxResults
	}
	if req.Days < usecase.MinScanDays || req.Days > usecase.MaxScanDays {
		writeError(w, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}
	if req.MaxResults < usecase.MinScanResults || req.MaxResults > usecase.MaxScanResults {
		writeError(w, http.StatusBadRequest, "max_results must be between 10 and 500")
		return
	}

	res, err := s.uc.Scans.Scan(r.Context(), logging.UserID(r.Context()), req.Days, req.MaxResults)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, scanResponse{
		RunID:    res.RunID,
		Scanned:  res.Scanned,
		Detected: res.Detected,
		Stored:   res.Stored,
		Signals:  toSignalDTOs(res.Signals),
	})
}

func (s *Server) listSignals(w http.ResponseWriter, r *http.Request) {
	status := model.SignalStatus(r.URL.Query().Get("status"))
	signals, err := s.uc.Scans.ListSignals(r.Context(), logging.UserID(r.Context()), status)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, listBody[signalDTO]{Items: toSignalDTOs(signals)})
}

func (s *Server) transitionSignal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, id := logging.UserID(ctx), chi.URLParam(r, "id")
	switch chi.URLParam(r, "action") {
	case "confirm":
		sub, err := s.uc.Scans.ConfirmSignal(ctx, userID, id)
		if err != nil {
			fail(w, r, s.log, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSubscriptionDTO(sub))
	case "dismiss":
		if err := s.uc.Scans.DismissSignal(ctx, userID, id); err != nil {
			fail(w, r, s.log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		fail(w, r, s.log, domain.ErrNotFound)
	}
}

func (s *Server) normalizeService(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	resp := normalizeResponse{Input: name, Canonical: name, Names: matching.NormalizeServiceName(name)}
	if info, ok := matching.LookupService(name); ok {
		resp.Known = true
		resp.Canonical = info.Canonical
		resp.Category = info.Category
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) cancellationGuide(w http.ResponseWriter, r *http.Request) {
	g, err := s.uc.Guides.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func providerParam(r *http.Request) (model.Provider, error) {
	p := model.Provider(strings.ToLower(chi.URLParam(r, "provider")))
	if !p.Valid() {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (s *Server) getConnection(w http.ResponseWriter, r *http.Request) {
	p, err := providerParam(r)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	c, err := s.uc.Connections.Get(r.Context(), logging.UserID(r.Context()), p)
	switch {
	case errors.Is(err, domain.ErrNotConnected):
		writeJSON(w, http.StatusOK, connectionDTO{Provider: string(p)})
	case err != nil:
		fail(w, r, s.log, err)
	default:
		writeJSON(w, http.StatusOK, connectionDTO{Provider: string(p), Connected: true, Expiry: c.Expiry})
	}
}

func (s *Server) saveConnection(w http.ResponseWriter, r *http.Request) {
	p, err := providerParam(r)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	var req connectionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	c := &model.Connection{
		UserID:       logging.UserID(r.Context()),
		Provider:     p,
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    req.TokenType,
		Expiry:       req.Expiry,
	}
	if err := s.uc.Connections.Save(r.Context(), c); err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, connectionDTO{Provider: string(p), Connected: true, Expiry: req.Expiry})
}

func (s *Server) deleteConnection(w http.ResponseWriter, r *http.Request) {
	p, err := providerParam(r)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	if err := s.uc.Connections.Delete(r.Context(), logging.UserID(r.Context()), p); err != nil {
		fail(w, r, s.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) syncSpotify(w http.ResponseWriter, r *http.Request) {
	stat, err := s.uc.Usage.SyncSpotify(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, usageDTO{
		SubscriptionID: stat.SubscriptionID,
		Minutes:        stat.Minutes,
		LastUsedAt:     stat.LastUsedAt,
		Source:         stat.Source,
		WindowDays:     stat.WindowDays,
		CollectedAt:    stat.CollectedAt,
	})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.uc.Users.Get(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(u))
}

// putProfile falls back to the token's email claim when the body has none.
func (s *Server) putProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		if c := claimsFrom(r.Context()); c != nil {
			req.Email = c.Email
		}
	}
	u, err := s.uc.Users.Upsert(r.Context(), logging.UserID(r.Context()), req.Email)
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileDTO(u))
}

// linkTelegram issues a code the user sends to the bot as "/start <code>".
func (s *Server) linkTelegram(w http.ResponseWriter, r *http.Request) {
	link, err := s.uc.Users.StartTelegramLink(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		fail(w, r, s.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTelegramLinkDTO(link))
}
