// Package conversation runs a chat turn: it persists the user's message, asks
// the orchestrator for a reply and stores the reply when there is one.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/store"
	"github.com/af-corp/chat-orchestrator/internal/telemetry"
	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/google/uuid"
)

const (
	DefaultTitle   = "New conversation"
	DefaultProfile = "gpt-4o"
)

// Replier generates the assistant reply for a conversation.
type Replier interface {
	GenerateReply(ctx context.Context, conversationID, overrideProfile string) (*types.LlmResponse, error)
}

// TurnResult is the outcome of AddMessage. AssistantMessage is nil when no
// reply was produced; ReplyError then says why.
type TurnResult struct {
	UserMessage      types.Message  `json:"userMessage"`
	AssistantMessage *types.Message `json:"assistantMessage"`
	ReplyError       error          `json:"-"`
}

type Service struct {
	store   store.Store
	replier Replier
	metrics *telemetry.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(st store.Store, replier Replier, metrics *telemetry.Metrics, logger *slog.Logger) *Service {
	return &Service{store: st, replier: replier, metrics: metrics, logger: logger, now: time.Now}
}

// Create starts a conversation. Blank fields get the defaults.
func (s *Service) Create(ctx context.Context, title, modelProfile string) (*types.Conversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultTitle
	}
	modelProfile = strings.TrimSpace(modelProfile)
	if modelProfile == "" {
		modelProfile = DefaultProfile
	}

	now := s.now().UTC()
	conv := types.Conversation{
		ID:           uuid.NewString(),
		Title:        title,
		ModelProfile: modelProfile,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	s.logger.Info("conversation created", "conversation_id", conv.ID, "profile", conv.ModelProfile)
	return &conv, nil
}

// Update changes the title and/or the stored model profile. Nil fields are
// left alone; blank strings are treated as nil.
func (s *Service) Update(ctx context.Context, id string, title, modelProfile *string) (*types.Conversation, error) {
	patch := store.ConversationPatch{
		Title:        trimmedOrNil(title),
		ModelProfile: trimmedOrNil(modelProfile),
		UpdatedAt:    s.now().UTC(),
	}
	conv, err := s.store.UpdateConversation(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update conversation %s: %w", id, err)
	}
	if conv == nil {
		return nil, fmt.Errorf("update conversation %s: %w", id, types.ErrConversationNotFound)
	}
	return conv, nil
}

func (s *Service) ListMessages(ctx context.Context, id string) ([]types.Message, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}
	msgs, err := s.store.ListMessages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list messages for %s: %w", id, err)
	}
	return msgs, nil
}

// AddMessage persists the user's message before generating, so a failed
// generation never loses it. Generation failures are logged and reported in
// TurnResult.ReplyError; they do not fail the call.
func (s *Service) AddMessage(ctx context.Context, id, content, overrideProfile string) (*TurnResult, error) {
	if err := s.ensureExists(ctx, id); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	userMsg := types.Message{
		ID:             uuid.NewString(),
		ConversationID: id,
		Role:           types.RoleUser,
		Content:        content,
		CreatedAt:      now,
	}
	if err := s.store.AppendMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("store user message: %w", err)
	}
	s.countMessage(types.RoleUser)
	if err := s.store.TouchConversation(ctx, id, now); err != nil {
		return nil, fmt.Errorf("touch conversation %s: %w", id, err)
	}

	result := &TurnResult{UserMessage: userMsg}

	resp, err := s.replier.GenerateReply(ctx, id, strings.TrimSpace(overrideProfile))
	if err != nil {
		s.logger.Error("assistant reply not produced", "conversation_id", id, "error", err)
		result.ReplyError = err
		return result, nil
	}

	model := resp.BackendModelID
	assistantMsg := types.Message{
		ID:             uuid.NewString(),
		ConversationID: id,
		Role:           types.RoleAssistant,
		Content:        resp.Content,
		ModelUsed:      &model,
		CreatedAt:      s.now().UTC(),
	}
	if assistantMsg.CreatedAt.Before(userMsg.CreatedAt) {
		assistantMsg.CreatedAt = userMsg.CreatedAt
	}
	if err := s.store.AppendMessage(ctx, assistantMsg); err != nil {
		s.logger.Error("assistant reply not stored", "conversation_id", id, "error", err)
		result.ReplyError = fmt.Errorf("store assistant message: %w", err)
		return result, nil
	}
	s.countMessage(types.RoleAssistant)

	result.AssistantMessage = &assistantMsg
	return result, nil
}

func (s *Service) ensureExists(ctx context.Context, id string) error {
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return fmt.Errorf("load conversation %s: %w", id, err)
	}
	if conv == nil {
		return fmt.Errorf("conversation %s: %w", id, types.ErrConversationNotFound)
	}
	return nil
}

func (s *Service) countMessage(role types.Role) {
	if s.metrics != nil {
		s.metrics.RecordMessage(string(role))
	}
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
