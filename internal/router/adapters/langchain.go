package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/tmc/langchaingo/llms"
)

// contentGenerator is the slice of llms.Model used by the langchaingo-backed
// providers.
type contentGenerator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// langchainCall runs one request through a langchaingo model. langchaingo does
// not surface the backend's model identifier, so the requested one is reported.
func langchainCall(
	ctx context.Context,
	id types.ProviderID,
	llm contentGenerator,
	timeout time.Duration,
	model string,
	messages []llms.MessageContent,
	opts ...llms.CallOption,
) (*types.LlmResponse, error) {
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	opts = append(opts, llms.WithModel(model))
	resp, err := llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, types.GenerationFailed(id, model, fmt.Errorf("%s generate content: %w", id, err))
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, types.GenerationFailed(id, model, errEmptyResponse)
	}

	return &types.LlmResponse{
		Content:        resp.Choices[0].Content,
		BackendModelID: model,
	}, nil
}

func callOptions(maxTokens int, temperature *float64) []llms.CallOption {
	var opts []llms.CallOption
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	if temperature != nil {
		opts = append(opts, llms.WithTemperature(*temperature))
	}
	return opts
}
