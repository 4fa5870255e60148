package adapters

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Anthropic requires max_tokens on every request.
const defaultAnthropicMaxTokens = 1024

// AnthropicProvider talks to the Anthropic Messages API.
type AnthropicProvider struct {
	client    *anthropic.Client
	timeout   time.Duration
	maxTokens int64
}

func NewAnthropicProvider(cfg config.ProviderConfig, httpClient *http.Client, timeout time.Duration) *AnthropicProvider {
	p := &AnthropicProvider{
		timeout:   timeout,
		maxTokens: defaultAnthropicMaxTokens,
	}
	if cfg.MaxTokens > 0 {
		p.maxTokens = int64(cfg.MaxTokens)
	}
	if cfg.APIKey == "" {
		return p
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		// Retry policy belongs to the caller.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	client := anthropic.NewClient(opts...)
	p.client = &client
	return p
}

func (p *AnthropicProvider) ID() types.ProviderID { return types.ProviderAnthropic }

func (p *AnthropicProvider) Available() bool { return p.client != nil }

func (p *AnthropicProvider) Generate(ctx context.Context, model string, messages []types.LlmMessage) (*types.LlmResponse, error) {
	if p.client == nil {
		return nil, types.Unavailable(p.ID(), model, errMissingCredential)
	}

	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Messages.New(ctx, toAnthropicParams(model, p.maxTokens, messages))
	if err != nil {
		return nil, types.GenerationFailed(p.ID(), model, fmt.Errorf("anthropic messages: %w", err))
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}

	return &types.LlmResponse{
		Content:        content,
		BackendModelID: reportedModel(string(resp.Model), model),
	}, nil
}

// toAnthropicParams lifts system messages into the top-level system prompt;
// the Messages API only accepts user and assistant turns.
func toAnthropicParams(model string, maxTokens int64, messages []types.LlmMessage) anthropic.MessageNewParams {
	var system []string
	turns := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case types.LlmRoleSystem:
			system = append(system, m.Content)
		case types.LlmRoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	return params
}
