// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/rs/zerolog"

	"subsavvy/internal/config"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/recommend"
	aiAdapters "subsavvy/internal/infra/adapters/ai"
	"subsavvy/internal/infra/adapters/gmail"
	"subsavvy/internal/infra/adapters/spotify"
	tele "subsavvy/internal/infra/adapters/telegram"
	"subsavvy/internal/infra/api"
	pg "subsavvy/internal/infra/db/postgres"
	"subsavvy/internal/infra/i18n"
	"subsavvy/internal/infra/logging"
	"subsavvy/internal/infra/metrics"
	red "subsavvy/internal/infra/redis"
	"subsavvy/internal/infra/sched"
	"subsavvy/internal/infra/scheduler"
	"subsavvy/internal/infra/security"
	"subsavvy/internal/infra/worker"
	"subsavvy/internal/usecase"
)

// Set with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("development mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.Connect(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pollPoolStats(ctx, pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	rateLimiter := red.NewRateLimiter(redisClient)
	locker := red.NewLocker(redisClient)
	guideCache := red.NewGuideCache(redisClient)
	linkCodes := red.NewLinkCodeStore(redisClient)

	// ---- Token encryption ----
	var cipher adapter.Cipher
	if cfg.Security.EncryptionKey == "" {
		if !cfg.Runtime.Dev {
			logger.Fatal().Msg("security.encryption_key is required outside dev mode")
		}
		logger.Warn().Msg("security.encryption_key not set; using an ephemeral key, stored tokens will not survive a restart")
		cipher, err = security.NewEphemeralCipher()
	} else {
		cipher, err = security.NewTokenCipher(cfg.Security.EncryptionKey)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("encryption")
	}

	translator, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	bundleRepo := pg.NewBundleRepoCacheDecorator(pg.NewBundleRepo(pool), redisClient, cfg.Redis.TTL)
	catalogRepo := pg.NewCatalogRepo(pool)
	recRepo := pg.NewRecommendationRepo(pool)
	signalRepo := pg.NewSignalRepo(pool)
	usageRepo := pg.NewUsageRepo(pool)
	connRepo := pg.NewConnectionRepo(pool)
	notifLogRepo := pg.NewNotificationLogRepo(pool)

	// ---- Adapters ----
	aiSvc := buildAI(ctx, cfg.AI, logger)
	mailSource := gmail.NewSource(cfg.Google, logger)
	usageSource := spotify.NewUsageSource(cfg.Spotify, logger)

	var (
		bot      adapter.TelegramBotAdapter
		notifier *tele.Notifier
	)
	if cfg.Telegram.Token != "" {
		notifier, err = tele.NewNotifier(cfg.Telegram.Token, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram")
		}
		bot = notifier
	} else {
		logger.Warn().Msg("telegram.token not set; reminders are logged only")
		bot = tele.NewNoopBotAdapter(logger)
	}

	// ---- Use cases ----
	matchCfg := matching.MatchConfig{
		MinSavings:         cfg.Matching.MinSavings,
		MinMatchPercentage: cfg.Matching.MinMatchPercentage,
		MaxResults:         cfg.Matching.MaxResults,
	}
	rules := recommend.Rules{UnusedDays: cfg.Recommend.UnusedDays, LowUsageMinutes: cfg.Recommend.LowUsageMinutes}

	userUC := usecase.NewUserUseCase(userRepo, linkCodes, logger)
	subUC := usecase.NewSubscriptionUseCase(subRepo, logger)
	bundleUC := usecase.NewBundleUseCase(bundleRepo, subRepo, logger)
	connUC := usecase.NewConnectionUseCase(connRepo, cipher, logger)
	recUC := usecase.NewRecommendationUseCase(subRepo, usageRepo, catalogRepo, recRepo, bundleUC, tm, rules, matchCfg, logger)
	scanUC := usecase.NewScanUseCase(locker, connUC, mailSource, signalRepo, subRepo, tm, logger)
	usageUC := usecase.NewUsageUseCase(subRepo, usageRepo, connUC, usageSource, logger)
	guideUC := usecase.NewGuideUseCase(catalogRepo, guideCache, aiSvc, cfg.AI.DefaultModel, cfg.AI.MaxPromptTokens, translator, logger)
	reminderUC := usecase.NewReminderUseCase(subRepo, userRepo, notifLogRepo, bot, translator, logger)

	// ---- Telegram listener ----
	if notifier != nil {
		listener := tele.NewListener(notifier, subRepo, userRepo, guideUC, userUC, rateLimiter, translator, 0, logger)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("telegram listener stopped")
			}
		}()
	}

	// ---- Background work ----
	jobs := worker.NewPool(cfg.Recommend.Workers, logger)
	jobs.Start(ctx)
	recWorker := sched.NewRecommendationWorker(cfg.Recommend.RefreshInterval, recUC, jobs, logger)
	go func() { _ = recWorker.Run(ctx) }()

	reminders := scheduler.NewScheduler(cfg.Telegram.Interval, cfg.Telegram.ReminderDays, reminderUC, logger)
	reminders.Start(ctx)

	// ---- HTTP ----
	srv := api.NewServer(api.UseCases{
		Subscriptions:   subUC,
		Bundles:         bundleUC,
		Recommendations: recUC,
		Scans:           scanUC,
		Guides:          guideUC,
		Connections:     connUC,
		Usage:           usageUC,
		Users:           userUC,
	}, cfg, api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.Issuer), rateLimiter, map[string]api.HealthCheck{
		"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
		"redis":    redisClient.Ping,
	}, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	logger.Info().Str("version", version).Msg("subsavvy started")
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	reminders.Stop()
	jobs.Stop()
	logger.Info().Msg("bye")
}

// buildAI returns nil when no provider is configured; guides then fall back
// to the catalog only.
func buildAI(ctx context.Context, cfg config.AIConfig, logger *zerolog.Logger) adapter.AIServiceAdapter {
	providers := map[string]adapter.AIServiceAdapter{}
	defaultProvider := ""

	if cfg.GeminiKey != "" {
		g, err := aiAdapters.NewGeminiAdapter(ctx, cfg.GeminiKey, cfg.GeminiURL, cfg.DefaultModel)
		if err != nil {
			logger.Error().Err(err).Msg("gemini adapter disabled")
		} else {
			providers[aiAdapters.ProviderGemini] = g
			defaultProvider = aiAdapters.ProviderGemini
		}
	}
	if cfg.OpenAIKey != "" {
		o, err := aiAdapters.NewOpenAIAdapter(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.DefaultModel)
		if err != nil {
			logger.Error().Err(err).Msg("openai adapter disabled")
		} else {
			providers[aiAdapters.ProviderOpenAI] = o
			defaultProvider = aiAdapters.ProviderOpenAI
		}
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no AI provider configured")
		return nil
	}

	multi := aiAdapters.NewMultiAIAdapter(defaultProvider, providers, nil)
	logger.Info().Int("providers", multi.Len()).Str("default", defaultProvider).Str("model", cfg.DefaultModel).Msg("ai adapters ready")
	return aiAdapters.NewLimitedAI(multi, cfg.ConcurrentLimit)
}

func pollPoolStats(ctx context.Context, pool *pgxpool.Pool) {
	t := time.NewTicker(15 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			metrics.ObservePool(pool.Stat())
		}
	}
}
