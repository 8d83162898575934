package ai

import (
	"context"
	"errors"
	"sort"
	"strings"

	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*MultiAIAdapter)(nil)

var ErrNoProvider = errors.New("ai: no provider configured")

// MultiAIAdapter routes a model to its provider and retries a failed chat on
// the remaining providers with their default model.
type MultiAIAdapter struct {
	defaultProvider string
	byProvider      map[string]adapter.AIServiceAdapter
	modelToProvider map[string]string
	order           []string
}

func NewMultiAIAdapter(
	defaultProvider string,
	byProvider map[string]adapter.AIServiceAdapter,
	modelToProvider map[string]string,
) *MultiAIAdapter {
	m := &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      map[string]adapter.AIServiceAdapter{},
		modelToProvider: modelToProvider,
	}
	for name, a := range byProvider {
		if a != nil {
			m.byProvider[strings.ToLower(name)] = a
			m.order = append(m.order, strings.ToLower(name))
		}
	}
	sort.Strings(m.order)
	return m
}

// Len reports how many providers are configured.
func (m *MultiAIAdapter) Len() int { return len(m.order) }

func (m *MultiAIAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return ProviderGemini
	case strings.HasPrefix(l, "gpt"), strings.HasPrefix(l, "o1"), strings.HasPrefix(l, "o3"):
		return ProviderOpenAI
	default:
		return m.defaultProvider
	}
}

// candidates returns the primary provider first, then the others.
func (m *MultiAIAdapter) candidates(model string) []string {
	primary := m.resolveProvider(model)
	out := make([]string, 0, len(m.order))
	if _, ok := m.byProvider[primary]; ok {
		out = append(out, primary)
	}
	for _, name := range m.order {
		if name != primary {
			out = append(out, name)
		}
	}
	return out
}

func (m *MultiAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	names := m.candidates(model)
	if len(names) == 0 {
		return 0, ErrNoProvider
	}
	return m.byProvider[names[0]].CountTokens(ctx, model, messages)
}

func (m *MultiAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := m.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (m *MultiAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	names := m.candidates(model)
	if len(names) == 0 {
		return "", adapter.Usage{}, ErrNoProvider
	}

	var errs []error
	for i, name := range names {
		if i > 0 {
			if ctx.Err() != nil {
				break
			}
			metrics.IncAIFallback(names[i-1], name)
		}
		reply, usage, err := m.byProvider[name].ChatWithUsage(ctx, model, messages)
		if err == nil {
			return reply, usage, nil
		}
		errs = append(errs, err)
	}
	return "", adapter.Usage{}, errors.Join(errs...)
}
