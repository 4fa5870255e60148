package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var sampleConversation = []types.LlmMessage{
	{Role: types.LlmRoleSystem, Content: "be brief"},
	{Role: types.LlmRoleUser, Content: "hi"},
	{Role: types.LlmRoleAssistant, Content: "hello"},
	{Role: types.LlmRoleUser, Content: "what is go?"},
}

func TestProviders_MissingCredentialIsUnavailable(t *testing.T) {
	client := NewHTTPClient(config.ProviderConfig{MaxConcurrent: 1}, time.Second)
	providers := []Provider{
		NewOpenAIProvider(config.ProviderConfig{}, client, time.Second),
		NewAnthropicProvider(config.ProviderConfig{}, client, time.Second),
		NewGeminiProvider(context.Background(), config.ProviderConfig{}, time.Second),
		NewOllamaProvider(config.ProviderConfig{}, client, time.Second),
	}

	for _, p := range providers {
		t.Run(string(p.ID()), func(t *testing.T) {
			assert.False(t, p.Available())
			resp, err := p.Generate(context.Background(), "some-model", sampleConversation)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, types.ErrProviderUnavailable)

			var pe *types.ProviderError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, p.ID(), pe.Provider)
			assert.Equal(t, "some-model", pe.Model)
		})
	}
}

func TestOpenAIProvider_Generate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "tenant-a", r.Header.Get("X-Tenant"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-2024-08-06",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Go is a language."}, "finish_reason": "stop"}]
		}`))
	}))
	defer srv.Close()

	cfg := config.ProviderConfig{
		APIKey:        "sk-test",
		BaseURL:       srv.URL + "/v1",
		MaxConcurrent: 2,
		Headers:       map[string]string{"X-Tenant": "tenant-a"},
	}
	p := NewOpenAIProvider(cfg, NewHTTPClient(cfg, 5*time.Second), 5*time.Second)
	require.True(t, p.Available())

	resp, err := p.Generate(context.Background(), "gpt-4o", sampleConversation)
	require.NoError(t, err)
	assert.Equal(t, "Go is a language.", resp.Content)
	assert.Equal(t, "gpt-4o-2024-08-06", resp.BackendModelID)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[2].Role)
	assert.Equal(t, "what is go?", got.Messages[3].Content)
}

func TestOpenAIProvider_BackendErrorIsGenerationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	cfg := config.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", MaxConcurrent: 1}
	p := NewOpenAIProvider(cfg, NewHTTPClient(cfg, 5*time.Second), 5*time.Second)

	_, err := p.Generate(context.Background(), "gpt-4o", sampleConversation)
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
	assert.NotErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestOpenAIProvider_TimeoutIsGenerationFailed(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := config.ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL + "/v1", MaxConcurrent: 1}
	p := NewOpenAIProvider(cfg, NewHTTPClient(cfg, 0), 50*time.Millisecond)

	_, err := p.Generate(context.Background(), "gpt-4o", sampleConversation)
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
}

func TestAnthropicProvider_Generate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("X-Api-Key"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-sonnet-20241022",
			"content": [{"type": "text", "text": "Go is a language."}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 12, "output_tokens": 5}
		}`))
	}))
	defer srv.Close()

	cfg := config.ProviderConfig{APIKey: "sk-ant-test", BaseURL: srv.URL + "/", MaxConcurrent: 1}
	p := NewAnthropicProvider(cfg, NewHTTPClient(cfg, 5*time.Second), 5*time.Second)

	resp, err := p.Generate(context.Background(), "claude-3-5-sonnet", sampleConversation)
	require.NoError(t, err)
	assert.Equal(t, "Go is a language.", resp.Content)
	assert.Equal(t, "claude-3-5-sonnet-20241022", resp.BackendModelID)

	assert.Equal(t, "claude-3-5-sonnet", got["model"])
	assert.EqualValues(t, defaultAnthropicMaxTokens, got["max_tokens"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)
}

func TestAnthropicProvider_BackendErrorIsGenerationFailed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type": "error", "error": {"type": "invalid_request_error", "message": "bad model"}}`))
	}))
	defer srv.Close()

	cfg := config.ProviderConfig{APIKey: "sk-ant-test", BaseURL: srv.URL + "/", MaxConcurrent: 1}
	p := NewAnthropicProvider(cfg, NewHTTPClient(cfg, 5*time.Second), 5*time.Second)

	_, err := p.Generate(context.Background(), "claude-nope", sampleConversation)
	assert.ErrorIs(t, err, types.ErrGenerationFailed)
}

func TestToAnthropicParams_LiftsSystem(t *testing.T) {
	params := toAnthropicParams("claude", 512, []types.LlmMessage{
		{Role: types.LlmRoleSystem, Content: "rule one"},
		{Role: types.LlmRoleUser, Content: "hi"},
		{Role: types.LlmRoleSystem, Content: "rule two"},
	})

	require.Len(t, params.System, 1)
	assert.Equal(t, "rule one\n\nrule two", params.System[0].Text)
	assert.Len(t, params.Messages, 1)
	assert.EqualValues(t, 512, params.MaxTokens)
}

func TestToAnthropicParams_NoSystem(t *testing.T) {
	params := toAnthropicParams("claude", 512, []types.LlmMessage{{Role: types.LlmRoleUser, Content: "hi"}})
	assert.Empty(t, params.System)
}

func TestToOpenAIMessages_RolesPassThrough(t *testing.T) {
	out := toOpenAIMessages(sampleConversation)
	roles := make([]string, len(out))
	for i, m := range out {
		roles[i] = m.Role
	}
	assert.Equal(t, []string{"system", "user", "assistant", "user"}, roles)
}

func TestToGeminiMessages_FoldsSystemIntoFirstUserTurn(t *testing.T) {
	out := toGeminiMessages(sampleConversation)

	require.Len(t, out, 3)
	assert.Equal(t, schema.ChatMessageTypeHuman, out[0].Role)
	assert.Equal(t, "be brief\n\nhi", textOf(t, out[0]))
	assert.Equal(t, schema.ChatMessageTypeAI, out[1].Role)
	assert.Equal(t, "what is go?", textOf(t, out[2]))
}

func TestToGeminiMessages_SystemOnly(t *testing.T) {
	out := toGeminiMessages([]types.LlmMessage{{Role: types.LlmRoleSystem, Content: "classify this"}})

	require.Len(t, out, 1)
	assert.Equal(t, schema.ChatMessageTypeHuman, out[0].Role)
	assert.Equal(t, "classify this", textOf(t, out[0]))
}

func TestToLangchainMessages_RolesPassThrough(t *testing.T) {
	out := toLangchainMessages(sampleConversation)
	require.Len(t, out, 4)
	assert.Equal(t, schema.ChatMessageTypeSystem, out[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, out[1].Role)
	assert.Equal(t, schema.ChatMessageTypeAI, out[2].Role)
}

type fakeGenerator struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeGenerator) GenerateContent(_ context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, o := range options {
		o(&f.opts)
	}
	return f.resp, f.err
}

func TestGeminiProvider_GenerateWithClient(t *testing.T) {
	gen := &fakeGenerator{resp: &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: "hola"}}}}
	p := &GeminiProvider{llm: gen, timeout: time.Second}

	resp, err := p.Generate(context.Background(), "gemini-1.5-pro", sampleConversation)
	require.NoError(t, err)
	assert.Equal(t, "hola", resp.Content)
	assert.Equal(t, "gemini-1.5-pro", resp.BackendModelID)
	assert.Equal(t, "gemini-1.5-pro", gen.opts.Model)
	assert.Len(t, gen.messages, 3)
}

func TestOllamaProvider_Failures(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"backend error", &fakeGenerator{err: errors.New("connection refused")}},
		{"no choices", &fakeGenerator{resp: &llms.ContentResponse{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &OllamaProvider{llm: tt.gen, timeout: time.Second}
			_, err := p.Generate(context.Background(), "llama3.1:8b", sampleConversation)
			assert.ErrorIs(t, err, types.ErrGenerationFailed)
		})
	}
}

func TestCallOptions(t *testing.T) {
	temp := 0.2
	var opts llms.CallOptions
	for _, o := range callOptions(256, &temp) {
		o(&opts)
	}
	assert.Equal(t, 256, opts.MaxTokens)
	assert.InDelta(t, 0.2, opts.Temperature, 1e-9)

	assert.Empty(t, callOptions(0, nil))
}

func textOf(t *testing.T, mc llms.MessageContent) string {
	t.Helper()
	require.Len(t, mc.Parts, 1)
	part, ok := mc.Parts[0].(llms.TextContent)
	require.True(t, ok, "expected text part, got %T", mc.Parts[0])
	return part.Text
}
