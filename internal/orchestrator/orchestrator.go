// Package orchestrator decides which backend answers a conversation turn and
// isolates failures of that call from the rest of the request.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/config"
	"github.com/af-corp/chat-orchestrator/internal/router"
	"github.com/af-corp/chat-orchestrator/internal/store"
	"github.com/af-corp/chat-orchestrator/internal/telemetry"
	"github.com/af-corp/chat-orchestrator/internal/types"
)

// Stage is a step of one reply generation.
type Stage int

const (
	StageResolvingRoute Stage = iota
	StageBuildingContext
	StageCallingProvider
	StageSucceeded
	StageProviderFailed
)

func (s Stage) String() string {
	switch s {
	case StageResolvingRoute:
		return "resolving_route"
	case StageBuildingContext:
		return "building_context"
	case StageCallingProvider:
		return "calling_provider"
	case StageSucceeded:
		return "succeeded"
	case StageProviderFailed:
		return "provider_failed"
	default:
		return "unknown"
	}
}

// Deps are the collaborators of an Orchestrator. Metrics may be nil.
type Deps struct {
	Store      store.Reader
	Registry   *router.Registry
	Profiles   *router.ProfileTable
	Classifier *Classifier
	Metrics    *telemetry.Metrics
	Logger     *slog.Logger
}

// Orchestrator generates assistant replies. It holds no mutable state and is
// safe for concurrent use.
type Orchestrator struct {
	store         store.Reader
	registry      *router.Registry
	profiles      *router.ProfileTable
	classifier    *Classifier
	metrics       *telemetry.Metrics
	logger        *slog.Logger
	systemDefault string
	maxTurns      int
}

func New(deps Deps, cfg config.RoutingConfig) *Orchestrator {
	maxTurns := cfg.ContextWindow
	if maxTurns <= 0 {
		maxTurns = config.DefaultContextWindow
	}
	return &Orchestrator{
		store:         deps.Store,
		registry:      deps.Registry,
		profiles:      deps.Profiles,
		classifier:    deps.Classifier,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		systemDefault: cfg.DefaultModelProfile,
		maxTurns:      maxTurns,
	}
}

// GenerateReply produces the assistant reply for a conversation. It never
// persists anything and never retries. Failures are typed: match them with
// errors.Is against types.ErrConversationNotFound, types.ErrProviderUnavailable
// or types.ErrGenerationFailed. A provider failure means no reply was
// produced; the caller still completes the rest of its turn.
func (o *Orchestrator) GenerateReply(ctx context.Context, conversationID, overrideProfile string) (*types.LlmResponse, error) {
	conv, err := o.store.GetConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", conversationID, err)
	}
	if conv == nil {
		return nil, fmt.Errorf("generate reply for %s: %w", conversationID, types.ErrConversationNotFound)
	}
	history, err := o.store.GetRecentMessages(ctx, conversationID, o.maxTurns)
	if err != nil {
		return nil, fmt.Errorf("load messages for %s: %w", conversationID, err)
	}

	o.trace(conversationID, StageResolvingRoute)
	profile := router.EffectiveProfile(overrideProfile, conv.ModelProfile)
	route := o.profiles.Resolve(profile, o.systemDefault)

	o.trace(conversationID, StageBuildingContext)
	messages := router.BuildContext(history, o.maxTurns)

	o.trace(conversationID, StageCallingProvider)
	start := time.Now()
	resp, err := o.call(ctx, route, messages)
	durationMs := float64(time.Since(start).Milliseconds())

	if err != nil {
		o.logger.Error("reply generation failed",
			"conversation_id", conversationID,
			"stage", StageProviderFailed.String(),
			"profile", profile,
			"provider", route.ProviderID,
			"model", route.BackendModelID,
			"duration_ms", durationMs,
			"error", err,
		)
		o.record(route, outcomeOf(err), durationMs)
		return nil, err
	}

	o.logger.Info("reply generated",
		"conversation_id", conversationID,
		"stage", StageSucceeded.String(),
		"profile", profile,
		"provider", route.ProviderID,
		"model", resp.BackendModelID,
		"context_messages", len(messages),
		"duration_ms", durationMs,
	)
	o.record(route, telemetry.OutcomeSucceeded, durationMs)
	return resp, nil
}

// PreviewRouting classifies a draft message to suggest a model. It never fails
// and does not touch the conversation store.
func (o *Orchestrator) PreviewRouting(ctx context.Context, content, lastModelHint string) types.ClassificationResult {
	return o.classifier.Classify(ctx, content, lastModelHint)
}

// call invokes the provider and normalizes every failure, including panics,
// into a *types.ProviderError.
func (o *Orchestrator) call(ctx context.Context, route types.ResolvedRoute, messages []types.LlmMessage) (resp *types.LlmResponse, err error) {
	provider, ok := o.registry.Get(route.ProviderID)
	if !ok {
		return nil, types.Unavailable(route.ProviderID, route.BackendModelID, errors.New("provider not registered"))
	}

	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = types.GenerationFailed(route.ProviderID, route.BackendModelID, fmt.Errorf("provider panic: %v", r))
		}
	}()

	resp, err = provider.Generate(ctx, route.BackendModelID, messages)
	if err != nil {
		var pe *types.ProviderError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, types.GenerationFailed(route.ProviderID, route.BackendModelID, err)
	}
	if resp == nil {
		return nil, types.GenerationFailed(route.ProviderID, route.BackendModelID, errors.New("provider returned no response"))
	}
	if resp.BackendModelID == "" {
		resp.BackendModelID = route.BackendModelID
	}
	return resp, nil
}

func (o *Orchestrator) trace(conversationID string, stage Stage) {
	o.logger.Debug("reply stage", "conversation_id", conversationID, "stage", stage.String())
}

func (o *Orchestrator) record(route types.ResolvedRoute, outcome string, durationMs float64) {
	if o.metrics == nil {
		return
	}
	o.metrics.RecordReply(telemetry.ReplyLabels{
		Provider:   string(route.ProviderID),
		Model:      route.BackendModelID,
		Outcome:    outcome,
		DurationMs: durationMs,
	})
}

func outcomeOf(err error) string {
	if errors.Is(err, types.ErrProviderUnavailable) {
		return telemetry.OutcomeProviderUnavailable
	}
	return telemetry.OutcomeGenerationFailed
}
