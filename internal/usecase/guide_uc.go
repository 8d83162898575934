package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"subsavvy/internal/domain"
	"subsavvy/internal/domain/matching"
	"subsavvy/internal/domain/model"
	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/domain/ports/repository"
	"subsavvy/internal/infra/i18n"
	"subsavvy/internal/infra/logging"
)

var _ GuideUseCase = (*guideUC)(nil)

const (
	guideCacheTTL = 7 * 24 * time.Hour
	maxGuideSteps = 8

	defaultPromptTokens = 512
)

var errPromptTooLong = fmt.Errorf("%w: service name too long", domain.ErrInvalidArgument)

type GuideUseCase interface {
	// Get never fails for a service the catalog or alias table knows;
	// an unknown service with no AI provider yields domain.ErrAIUnavailable.
	Get(ctx context.Context, serviceName string) (*model.CancellationGuide, error)
}

type guideUC struct {
	catalog    repository.CatalogRepository
	cache      repository.GuideCache
	ai         adapter.AIServiceAdapter
	model      string
	maxTokens  int
	translator *i18n.Translator
	log        *zerolog.Logger
}

// NewGuideUseCase accepts a nil ai when no provider is configured.
// maxPromptTokens <= 0 selects the default budget.
func NewGuideUseCase(
	catalog repository.CatalogRepository,
	cache repository.GuideCache,
	ai adapter.AIServiceAdapter,
	modelName string,
	maxPromptTokens int,
	translator *i18n.Translator,
	logger *zerolog.Logger,
) *guideUC {
	if maxPromptTokens <= 0 {
		maxPromptTokens = defaultPromptTokens
	}
	return &guideUC{
		catalog:    catalog,
		cache:      cache,
		ai:         ai,
		model:      modelName,
		maxTokens:  maxPromptTokens,
		translator: translator,
		log:        logging.Component(logger, "guide_uc"),
	}
}

func (u *guideUC) Get(ctx context.Context, serviceName string) (*model.CancellationGuide, error) {
	name := strings.TrimSpace(serviceName)
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	log := logging.With(ctx, u.log)

	canonical := name
	info, known := matching.LookupService(name)
	if known {
		canonical = info.Canonical
	}

	entry, err := u.findCatalog(ctx, name)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		known = true
		canonical = entry.Name
		if len(entry.CancelSteps) > 0 {
			return &model.CancellationGuide{
				Service:   entry.Name,
				CancelURL: entry.CancelURL,
				Steps:     entry.CancelSteps,
				Source:    model.GuideSourceCatalog,
			}, nil
		}
	}

	if g, err := u.cache.Get(ctx, canonical); err == nil {
		return g, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Msg("guide cache read failed")
	}

	steps, aiErr := u.askAI(ctx, canonical)
	if aiErr == nil {
		g := &model.CancellationGuide{Service: canonical, Steps: steps, Source: model.GuideSourceAI}
		if entry != nil {
			g.CancelURL = entry.CancelURL
		}
		if err := u.cache.Set(ctx, canonical, g, guideCacheTTL); err != nil {
			log.Warn().Err(err).Msg("guide cache write failed")
		}
		return g, nil
	}
	if errors.Is(aiErr, errPromptTooLong) {
		return nil, aiErr
	}

	log.Warn().Err(aiErr).Str("service", canonical).Msg("ai guide unavailable")
	if !known {
		return nil, domain.ErrAIUnavailable
	}
	g := &model.CancellationGuide{Service: canonical, Steps: []string{}, Source: model.GuideSourceCatalog}
	if entry != nil {
		g.CancelURL = entry.CancelURL
	}
	return g, nil
}

func (u *guideUC) findCatalog(ctx context.Context, name string) (*model.CatalogService, error) {
	entries, err := u.catalog.ListAll(ctx, repository.NoTX)
	if err != nil {
		return nil, err
	}
	want := matching.NormalizeServiceName(name)
	for _, e := range entries {
		if matching.ServiceNamesMatch(want, matching.NormalizeServiceName(e.Name)) {
			return e, nil
		}
	}
	return nil, nil
}

func (u *guideUC) askAI(ctx context.Context, service string) ([]string, error) {
	if u.ai == nil {
		return nil, domain.ErrAIUnavailable
	}
	msgs := []adapter.Message{
		{Role: "system", Content: u.translator.T("guide_system_prompt")},
		{Role: "user", Content: u.translator.T("guide_user_prompt", service)},
	}

	// Counting is best-effort; a failed count does not block the call.
	tokens, err := u.ai.CountTokens(ctx, u.model, msgs)
	if err != nil {
		logging.With(ctx, u.log).Debug().Err(err).Msg("prompt token count failed")
	} else {
		logging.With(ctx, u.log).Debug().Int("prompt_tokens", tokens).Str("model", u.model).Msg("guide prompt")
		if tokens > u.maxTokens {
			return nil, errPromptTooLong
		}
	}

	reply, err := u.ai.Chat(ctx, u.model, msgs)
	if err != nil {
		return nil, err
	}
	steps := parseSteps(reply)
	if len(steps) == 0 {
		return nil, domain.ErrAIUnavailable
	}
	return steps, nil
}

var stepPrefix = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s*`)

// parseSteps turns a numbered list reply into plain steps.
func parseSteps(reply string) []string {
	reply = strings.TrimSpace(reply)
	if reply == "" || strings.EqualFold(strings.Trim(reply, ". "), "unknown") {
		return nil
	}
	var steps []string
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(stepPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}
		steps = append(steps, line)
		if len(steps) == maxGuideSteps {
			break
		}
	}
	return steps
}
