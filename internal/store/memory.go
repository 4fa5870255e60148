package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/types"
)

// MemoryStore keeps everything in process memory. Messages are kept in
// insertion order, which is also creation order.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]types.Conversation
	messages      map[string][]types.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]types.Conversation),
		messages:      make(map[string][]types.Message),
	}
}

func (s *MemoryStore) GetConversation(_ context.Context, id string) (*types.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	return &conv, nil
}

func (s *MemoryStore) GetRecentMessages(_ context.Context, conversationID string, limit int) ([]types.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.messages[conversationID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]types.Message(nil), msgs...), nil
}

func (s *MemoryStore) CreateConversation(_ context.Context, conv types.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.conversations[conv.ID]; exists {
		return fmt.Errorf("create conversation %s: already exists", conv.ID)
	}
	s.conversations[conv.ID] = conv
	return nil
}

func (s *MemoryStore) UpdateConversation(_ context.Context, id string, patch ConversationPatch) (*types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	if patch.Title != nil {
		conv.Title = *patch.Title
	}
	if patch.ModelProfile != nil {
		conv.ModelProfile = *patch.ModelProfile
	}
	conv.UpdatedAt = patch.UpdatedAt
	s.conversations[id] = conv
	return &conv, nil
}

func (s *MemoryStore) TouchConversation(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("touch conversation %s: %w", id, types.ErrConversationNotFound)
	}
	conv.UpdatedAt = at
	s.conversations[id] = conv
	return nil
}

func (s *MemoryStore) AppendMessage(_ context.Context, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[msg.ConversationID]; !ok {
		return fmt.Errorf("append message: %w", types.ErrConversationNotFound)
	}
	s.messages[msg.ConversationID] = append(s.messages[msg.ConversationID], msg)
	return nil
}

func (s *MemoryStore) ListMessages(ctx context.Context, conversationID string) ([]types.Message, error) {
	return s.GetRecentMessages(ctx, conversationID, 0)
}
