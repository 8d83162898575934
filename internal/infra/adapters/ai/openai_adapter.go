package ai

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/pkoukk/tiktoken-go"

	"subsavvy/internal/domain/ports/adapter"
	"subsavvy/internal/infra/metrics"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

const (
	ProviderOpenAI = "openai"

	fallbackEncoding = "cl100k_base"
	// per-message framing overhead of the chat format
	tokensPerMessage = 3
	tokensPerReply   = 3
)

// OpenAIAdapter implements adapter.AIServiceAdapter with the official SDK.
type OpenAIAdapter struct {
	client openai.Client
	model  string

	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewOpenAIAdapter accepts an empty baseURL for the public API.
func NewOpenAIAdapter(apiKey, baseURL, model string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai api key empty")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(30 * time.Second),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIAdapter{
		client:   openai.NewClient(opts...),
		model:    model,
		encoders: map[string]*tiktoken.Tiktoken{},
	}, nil
}

// CountTokens estimates prompt tokens locally with tiktoken.
func (o *OpenAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	enc, err := o.encoder(modelOrDefault(model, o.model))
	if err != nil {
		return 0, err
	}
	n := tokensPerReply
	for _, m := range messages {
		n += tokensPerMessage
		n += len(enc.Encode(m.Role, nil, nil))
		n += len(enc.Encode(m.Content, nil, nil))
	}
	return n, nil
}

func (o *OpenAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	reply, _, err := o.ChatWithUsage(ctx, model, messages)
	return reply, err
}

func (o *OpenAIAdapter) ChatWithUsage(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error) {
	model = modelOrDefault(model, o.model)
	if len(messages) == 0 {
		return "", adapter.Usage{}, errors.New("openai: no messages")
	}

	start := time.Now()
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toOpenAIMessages(messages),
	})
	latency := int(time.Since(start).Milliseconds())
	if err != nil {
		metrics.ObserveChatUsage(ProviderOpenAI, model, 0, 0, latency, false)
		return "", adapter.Usage{}, err
	}

	u := adapter.Usage{
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			metrics.ObserveChatUsage(ProviderOpenAI, model, u.PromptTokens, u.CompletionTokens, latency, true)
			return c.Message.Content, u, nil
		}
	}
	metrics.ObserveChatUsage(ProviderOpenAI, model, u.PromptTokens, u.CompletionTokens, latency, false)
	return "", u, errors.New("openai: no choice content")
}

func (o *OpenAIAdapter) encoder(model string) (*tiktoken.Tiktoken, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if enc, ok := o.encoders[model]; ok {
		return enc, nil
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		// unknown or non-openai model names
		if enc, err = tiktoken.GetEncoding(fallbackEncoding); err != nil {
			return nil, err
		}
	}
	o.encoders[model] = enc
	return enc, nil
}

func toOpenAIMessages(msgs []adapter.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch strings.ToLower(m.Role) {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
