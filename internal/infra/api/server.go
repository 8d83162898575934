package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"subsavvy/internal/config"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/usecase"
)

// UseCases are the application services exposed over HTTP.
type UseCases struct {
	Subscriptions   usecase.SubscriptionUseCase
	Bundles         usecase.BundleUseCase
	Recommendations usecase.RecommendationUseCase
	Scans           usecase.ScanUseCase
	Guides          usecase.GuideUseCase
	Connections     usecase.ConnectionUseCase
	Usage           usecase.UsageUseCase
	Users           usecase.UserUseCase
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Server struct {
	uc      UseCases
	cfg     *config.Config
	auth    *Authenticator
	limiter repository.RateLimiter
	checks  map[string]HealthCheck
	log     *zerolog.Logger
	srv     *http.Server
}

// NewServer wires handlers; limiter may be nil to disable rate limiting.
func NewServer(
	uc UseCases,
	cfg *config.Config,
	auth *Authenticator,
	limiter repository.RateLimiter,
	checks map[string]HealthCheck,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		uc:      uc,
		cfg:     cfg,
		auth:    auth,
		limiter: limiter,
		checks:  checks,
		log:     logging.Component(logger, "http"),
	}
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log), Timeout(s.cfg.Server.RequestTimeout))

	r.Get("/health", s.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.auth.Middleware(), RateLimit(s.limiter, s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window, s.log))

			r.Get("/profile", s.getProfile)
			r.Put("/profile", s.putProfile)
			r.Post("/profile/telegram", s.linkTelegram)

			r.Get("/subscriptions", s.listSubscriptions)
			r.Post("/subscriptions", s.createSubscription)
			r.Get("/subscriptions/{id}", s.getSubscription)
			r.Put("/subscriptions/{id}", s.updateSubscription)
			r.Delete("/subscriptions/{id}", s.deleteSubscription)
			r.Post("/subscriptions/{id}/{action}", s.transitionSubscription)
			r.Get("/spend", s.monthlySpend)

			r.Get("/bundles/matches", s.bundleMatches)

			r.Get("/recommendations", s.listRecommendations)
			r.Post("/recommendations/generate", s.generateRecommendations)

			r.Post("/scan", s.scan)
			r.Get("/signals", s.listSignals)
			r.Post("/signals/{id}/{action}", s.transitionSignal)

			r.Get("/services/normalize", s.normalizeService)
			r.Get("/services/{name}/cancellation", s.cancellationGuide)

			r.Get("/connections/{provider}", s.getConnection)
			r.Post("/connections/{provider}", s.saveConnection)
			r.Delete("/connections/{provider}", s.deleteConnection)
			r.Post("/usage/spotify/sync", s.syncSpotify)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(APIKey(s.cfg.Server.APIKey, s.log))
			r.Get("/bundles", s.adminListBundles)
			r.Put("/bundles/{id}", s.adminPutBundle)
			r.Delete("/bundles/{id}", s.adminDeleteBundle)
		})
	})
	return r
}

func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info().Int("port", s.cfg.Server.Port).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{}
	code := http.StatusOK
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			status[name] = err.Error()
			code = http.StatusServiceUnavailable
			continue
		}
		status[name] = "ok"
	}
	writeJSON(w, code, map[string]any{"status": http.StatusText(code), "checks": status})
}
