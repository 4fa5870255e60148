package adapters

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/schema"
)

// GeminiProvider talks to Google Gemini through langchaingo's googleai client.
type GeminiProvider struct {
	llm       contentGenerator
	timeout   time.Duration
	callOpts  []llms.CallOption
	initError error
}

func NewGeminiProvider(ctx context.Context, cfg config.ProviderConfig, timeout time.Duration) *GeminiProvider {
	p := &GeminiProvider{
		timeout:  timeout,
		callOpts: callOptions(cfg.MaxTokens, cfg.Temperature),
	}
	if cfg.APIKey == "" {
		return p
	}

	llm, err := googleai.New(ctx, googleai.WithAPIKey(cfg.APIKey))
	if err != nil {
		p.initError = fmt.Errorf("create googleai client: %w", err)
		return p
	}
	p.llm = llm
	return p
}

func (p *GeminiProvider) ID() types.ProviderID { return types.ProviderGemini }

func (p *GeminiProvider) Available() bool { return p.llm != nil }

// InitError reports why a configured client could not be built.
func (p *GeminiProvider) InitError() error { return p.initError }

func (p *GeminiProvider) Generate(ctx context.Context, model string, messages []types.LlmMessage) (*types.LlmResponse, error) {
	if p.llm == nil {
		cause := errMissingCredential
		if p.initError != nil {
			cause = p.initError
		}
		return nil, types.Unavailable(p.ID(), model, cause)
	}
	return langchainCall(ctx, p.ID(), p.llm, p.timeout, model, toGeminiMessages(messages), p.callOpts...)
}

// toGeminiMessages folds system content into the first user turn, since Gemini
// chat sessions have no system role. Assistant turns become model turns.
func toGeminiMessages(messages []types.LlmMessage) []llms.MessageContent {
	var system []string
	for _, m := range messages {
		if m.Role == types.LlmRoleSystem {
			system = append(system, m.Content)
		}
	}
	preamble := strings.Join(system, "\n\n")

	out := make([]llms.MessageContent, 0, len(messages))
	folded := preamble == ""
	for _, m := range messages {
		switch m.Role {
		case types.LlmRoleSystem:
			continue
		case types.LlmRoleAssistant:
			out = append(out, llms.TextParts(schema.ChatMessageTypeAI, m.Content))
		default:
			content := m.Content
			if !folded {
				content = preamble + "\n\n" + content
				folded = true
			}
			out = append(out, llms.TextParts(schema.ChatMessageTypeHuman, content))
		}
	}
	if !folded {
		out = append([]llms.MessageContent{llms.TextParts(schema.ChatMessageTypeHuman, preamble)}, out...)
	}
	return out
}
