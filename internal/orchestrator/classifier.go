package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/router"
	"github.com/af-corp/chat-orchestrator/internal/router/adapters"
	"github.com/af-corp/chat-orchestrator/internal/telemetry"
	"github.com/af-corp/chat-orchestrator/internal/types"
)

// Classifier suggests an intent and model for a draft message using one fixed
// router backend. Every failure degrades to a default result.
type Classifier struct {
	provider     adapters.Provider
	model        string
	defaultModel string
	allowed      map[string]struct{}
	prompt       string
	timeout      time.Duration
	metrics      *telemetry.Metrics
	logger       *slog.Logger
}

func NewClassifier(registry *router.Registry, cfg config.ClassifierConfig, metrics *telemetry.Metrics, logger *slog.Logger) *Classifier {
	c := &Classifier{
		model:        cfg.Model,
		defaultModel: cfg.DefaultModel,
		allowed:      make(map[string]struct{}, len(cfg.AllowedModels)),
		prompt:       classifierPrompt(cfg.AllowedModels),
		timeout:      cfg.Timeout,
		metrics:      metrics,
		logger:       logger,
	}
	for _, m := range cfg.AllowedModels {
		c.allowed[m] = struct{}{}
	}
	if id, ok := types.ParseProviderID(cfg.Provider); ok {
		if p, ok := registry.Get(id); ok {
			c.provider = p
		}
	}
	if c.provider == nil {
		logger.Warn("classifier backend not registered, previews will use the default", "provider", cfg.Provider)
	}
	return c
}

func classifierPrompt(allowedModels []string) string {
	intents := make([]string, 0, len(types.Intents()))
	for _, i := range types.Intents() {
		intents = append(intents, string(i))
	}
	var b strings.Builder
	b.WriteString("You route chat messages to the most suitable model.\n")
	b.WriteString("Reply with exactly one JSON object and nothing else:\n")
	fmt.Fprintf(&b, `{"intent": "<%s>", "suggestedModel": "<model>", "reason": "<one short sentence>"}`+"\n", strings.Join(intents, "|"))
	b.WriteString("Intents:\n")
	b.WriteString("- chat: casual conversation and general questions\n")
	b.WriteString("- code: writing, reviewing or debugging code\n")
	b.WriteString("- analysis: reasoning over data, documents or numbers\n")
	b.WriteString("- rewrite: editing, summarizing or translating supplied text\n")
	fmt.Fprintf(&b, "suggestedModel must be one of: %s\n", strings.Join(allowedModels, ", "))
	return b.String()
}

func (c *Classifier) defaultResult() types.ClassificationResult {
	return types.ClassificationResult{Intent: types.IntentChat, SuggestedModel: c.defaultModel, Reason: ""}
}

// Classify never fails. It does not block or influence reply generation.
func (c *Classifier) Classify(ctx context.Context, content, lastModelHint string) types.ClassificationResult {
	if c.provider == nil {
		return c.fallback("no classifier backend", nil)
	}

	user := "Message:\n" + content
	if lastModelHint != "" {
		user += "\n\nLast model used: " + lastModelHint
	}
	messages := []types.LlmMessage{
		{Role: types.LlmRoleSystem, Content: c.prompt},
		{Role: types.LlmRoleUser, Content: user},
	}

	raw, err := c.generate(ctx, messages)
	if err != nil {
		return c.fallback("classifier call failed", err)
	}

	result, err := c.parse(raw)
	if err != nil {
		return c.fallback("classifier output rejected", err)
	}
	if c.metrics != nil {
		c.metrics.RecordClassification(string(result.Intent), telemetry.ClassificationParsed)
	}
	return result
}

func (c *Classifier) generate(ctx context.Context, messages []types.LlmMessage) (content string, err error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier backend panic: %v", r)
		}
	}()

	resp, err := c.provider.Generate(ctx, c.model, messages)
	if err != nil {
		return "", err
	}
	if resp == nil {
		return "", errors.New("classifier backend returned no response")
	}
	return resp.Content, nil
}

type classifierReply struct {
	Intent         *string `json:"intent"`
	SuggestedModel *string `json:"suggestedModel"`
	Reason         *string `json:"reason"`
}

// parse accepts the JSON object optionally wrapped in a markdown code fence.
// intent and suggestedModel are required; reason may be omitted.
func (c *Classifier) parse(raw string) (types.ClassificationResult, error) {
	var reply classifierReply
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &reply); err != nil {
		return types.ClassificationResult{}, fmt.Errorf("decode classifier output: %w", err)
	}
	if reply.Intent == nil || reply.SuggestedModel == nil {
		return types.ClassificationResult{}, errors.New("classifier output missing intent or suggestedModel")
	}

	intent, ok := types.ParseIntent(*reply.Intent)
	if !ok {
		return types.ClassificationResult{}, fmt.Errorf("unknown intent %q", *reply.Intent)
	}
	if _, ok := c.allowed[*reply.SuggestedModel]; !ok {
		return types.ClassificationResult{}, fmt.Errorf("suggested model %q not allowed", *reply.SuggestedModel)
	}

	result := types.ClassificationResult{Intent: intent, SuggestedModel: *reply.SuggestedModel}
	if reply.Reason != nil {
		result.Reason = *reply.Reason
	}
	return result, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// Drop the language tag line.
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (c *Classifier) fallback(reason string, err error) types.ClassificationResult {
	attrs := []any{"reason", reason}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	c.logger.Warn("routing preview degraded to default", attrs...)
	result := c.defaultResult()
	if c.metrics != nil {
		c.metrics.RecordClassification(string(result.Intent), telemetry.ClassificationDefault)
	}
	return result
}
