package adapters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/sashabaranov/go-openai"
)

const defaultOpenAITemperature = 0.7

// OpenAIProvider talks to the OpenAI chat completions API. The canonical roles
// map one to one onto OpenAI roles.
type OpenAIProvider struct {
	client      *openai.Client
	timeout     time.Duration
	temperature float32
	maxTokens   int
}

// NewOpenAIProvider never fails; without an API key the provider is built in
// an unavailable state and every call returns ErrProviderUnavailable.
func NewOpenAIProvider(cfg config.ProviderConfig, httpClient *http.Client, timeout time.Duration) *OpenAIProvider {
	p := &OpenAIProvider{
		timeout:     timeout,
		temperature: defaultOpenAITemperature,
		maxTokens:   cfg.MaxTokens,
	}
	if cfg.Temperature != nil {
		p.temperature = float32(*cfg.Temperature)
	}
	if cfg.APIKey == "" {
		return p
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = httpClient
	p.client = openai.NewClientWithConfig(clientCfg)
	return p
}

func (p *OpenAIProvider) ID() types.ProviderID { return types.ProviderOpenAI }

func (p *OpenAIProvider) Available() bool { return p.client != nil }

func (p *OpenAIProvider) Generate(ctx context.Context, model string, messages []types.LlmMessage) (*types.LlmResponse, error) {
	if p.client == nil {
		return nil, types.Unavailable(p.ID(), model, errMissingCredential)
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(messages),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return nil, types.GenerationFailed(p.ID(), model, fmt.Errorf("openai chat completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, types.GenerationFailed(p.ID(), model, errEmptyResponse)
	}

	return &types.LlmResponse{
		Content:        resp.Choices[0].Message.Content,
		BackendModelID: reportedModel(resp.Model, model),
	}, nil
}

func toOpenAIMessages(messages []types.LlmMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case types.LlmRoleSystem:
			role = openai.ChatMessageRoleSystem
		case types.LlmRoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		out = append(out, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return out
}
