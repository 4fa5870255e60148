// Package store persists conversations and their messages.
package store

import (
	"context"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/types"
)

// Reader is the read-only view the reply orchestrator depends on.
type Reader interface {
	// GetConversation returns nil, nil when the conversation does not exist.
	GetConversation(ctx context.Context, id string) (*types.Conversation, error)
	// GetRecentMessages returns at most limit of the newest messages, oldest
	// first. A non-positive limit returns the whole history.
	GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]types.Message, error)
}

// Writer is used by the conversation turn service.
type Writer interface {
	CreateConversation(ctx context.Context, conv types.Conversation) error
	// UpdateConversation applies the non-nil fields of patch. It returns
	// nil, nil when the conversation does not exist.
	UpdateConversation(ctx context.Context, id string, patch ConversationPatch) (*types.Conversation, error)
	TouchConversation(ctx context.Context, id string, at time.Time) error
	AppendMessage(ctx context.Context, msg types.Message) error
	// ListMessages returns the full history, oldest first.
	ListMessages(ctx context.Context, conversationID string) ([]types.Message, error)
}

type Store interface {
	Reader
	Writer
}

// ConversationPatch holds the mutable conversation fields.
type ConversationPatch struct {
	Title        *string
	ModelProfile *string
	UpdatedAt    time.Time
}
