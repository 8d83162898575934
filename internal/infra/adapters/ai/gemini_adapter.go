package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/metrics"
)

var _ adapter.AIServiceAdapter = (*GeminiAdapter)(nil)

const (
	ProviderGemini = "gemini"

	defaultGeminiModel = "gemini-2.0-flash"
	geminiMaxOutput    = 1024
)

type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
	maxOut       int
}

// NewGeminiAdapter creates a Gemini adapter using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	if defaultModel == "" {
		defaultModel = defaultGeminiModel
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel, maxOut: geminiMaxOutput}, nil
}

func (g *GeminiAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	_, contents := toGenAIContents(messages)
	resp, err := g.client.Models.CountTokens(ctx, g.modelName(model), contents, nil)
	if err != nil {
		return 0, err
	}
	return int(resp.TotalTokens), nil
}

func (g *GeminiAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := g.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (g *GeminiAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	model = g.modelName(model)
	system, contents := toGenAIContents(messages)
	if len(contents) == 0 {
		return "", adapter.Usage{}, errors.New("gemini: no messages")
	}

	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(g.maxOut)}
	if system != nil {
		cfg.SystemInstruction = system
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, contents, cfg)
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveChatUsage(ProviderGemini, model, 0, 0, latency, false)
		return "", adapter.Usage{}, err
	}

	u := adapter.Usage{}
	if resp.UsageMetadata != nil {
		u.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		u.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		u.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	}
	text := ""
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p != nil {
				text += p.Text
			}
		}
	}
	ok := strings.TrimSpace(text) != ""
	metrics.ObserveChatUsage(ProviderGemini, model, u.PromptTokens, u.CompletionTokens, latency, ok)
	if !ok {
		return "", u, errors.New("gemini: empty response")
	}
	return text, u, nil
}

// modelName ignores models meant for another provider, which happens when
// the multi adapter falls back.
func (g *GeminiAdapter) modelName(model string) string {
	if !strings.HasPrefix(strings.ToLower(model), "gemini") {
		return g.defaultModel
	}
	return model
}

// toGenAIContents splits system messages into a system instruction; Gemini
// has no system role in the turn history.
func toGenAIContents(msgs []adapter.Message) (*genai.Content, []*genai.Content) {
	var (
		system *genai.Content
		out    = make([]*genai.Content, 0, len(msgs))
	)
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: m.Content})
			continue
		case "assistant", "model":
			out = append(out, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			out = append(out, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	return system, out
}
