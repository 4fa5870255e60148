package adapters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/schema"
)

// OllamaProvider talks to a self-hosted Ollama server. Its credential is the
// server URL.
type OllamaProvider struct {
	llm       contentGenerator
	timeout   time.Duration
	callOpts  []llms.CallOption
	initError error
}

func NewOllamaProvider(cfg config.ProviderConfig, httpClient *http.Client, timeout time.Duration) *OllamaProvider {
	p := &OllamaProvider{
		timeout:  timeout,
		callOpts: callOptions(cfg.MaxTokens, cfg.Temperature),
	}
	if cfg.BaseURL == "" {
		return p
	}

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		p.initError = fmt.Errorf("create ollama client: %w", err)
		return p
	}
	p.llm = llm
	return p
}

func (p *OllamaProvider) ID() types.ProviderID { return types.ProviderOllama }

func (p *OllamaProvider) Available() bool { return p.llm != nil }

// InitError reports why a configured client could not be built.
func (p *OllamaProvider) InitError() error { return p.initError }

func (p *OllamaProvider) Generate(ctx context.Context, model string, messages []types.LlmMessage) (*types.LlmResponse, error) {
	if p.llm == nil {
		cause := errMissingCredential
		if p.initError != nil {
			cause = p.initError
		}
		return nil, types.Unavailable(p.ID(), model, cause)
	}
	return langchainCall(ctx, p.ID(), p.llm, p.timeout, model, toLangchainMessages(messages), p.callOpts...)
}

// toLangchainMessages passes the three canonical roles straight through.
func toLangchainMessages(messages []types.LlmMessage) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		role := schema.ChatMessageTypeHuman
		switch m.Role {
		case types.LlmRoleSystem:
			role = schema.ChatMessageTypeSystem
		case types.LlmRoleAssistant:
			role = schema.ChatMessageTypeAI
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}
