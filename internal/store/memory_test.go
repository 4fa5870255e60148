package store

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func seedConversation(t *testing.T, s Store, id string, messages int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.CreateConversation(ctx, types.Conversation{
		ID: id, Title: "New conversation", ModelProfile: "gpt-4o", CreatedAt: t0, UpdatedAt: t0,
	}))
	for i := 0; i < messages; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		require.NoError(t, s.AppendMessage(ctx, types.Message{
			ID:             fmt.Sprintf("%s-m%d", id, i),
			ConversationID: id,
			Role:           role,
			Content:        fmt.Sprintf("message %d", i),
			CreatedAt:      t0.Add(time.Duration(i) * time.Second),
		}))
	}
}

// storeContract runs the behaviour every Store implementation must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("missing conversation is nil", func(t *testing.T) {
		s := newStore(t)
		conv, err := s.GetConversation(ctx, "does-not-exist")
		require.NoError(t, err)
		assert.Nil(t, conv)
	})

	t.Run("recent messages newest N ascending", func(t *testing.T) {
		s := newStore(t)
		seedConversation(t, s, "c-recent", 35)

		msgs, err := s.GetRecentMessages(ctx, "c-recent", 30)
		require.NoError(t, err)
		require.Len(t, msgs, 30)
		assert.Equal(t, "message 5", msgs[0].Content)
		assert.Equal(t, "message 34", msgs[29].Content)

		all, err := s.ListMessages(ctx, "c-recent")
		require.NoError(t, err)
		assert.Len(t, all, 35)
	})

	t.Run("update applies only set fields", func(t *testing.T) {
		s := newStore(t)
		seedConversation(t, s, "c-update", 0)

		title := "Renamed"
		later := t0.Add(time.Hour)
		conv, err := s.UpdateConversation(ctx, "c-update", ConversationPatch{Title: &title, UpdatedAt: later})
		require.NoError(t, err)
		require.NotNil(t, conv)
		assert.Equal(t, "Renamed", conv.Title)
		assert.Equal(t, "gpt-4o", conv.ModelProfile)
		assert.True(t, conv.UpdatedAt.Equal(later))

		missing, err := s.UpdateConversation(ctx, "nope", ConversationPatch{Title: &title, UpdatedAt: later})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("touch bumps updatedAt", func(t *testing.T) {
		s := newStore(t)
		seedConversation(t, s, "c-touch", 0)

		later := t0.Add(2 * time.Hour)
		require.NoError(t, s.TouchConversation(ctx, "c-touch", later))
		conv, err := s.GetConversation(ctx, "c-touch")
		require.NoError(t, err)
		assert.True(t, conv.UpdatedAt.Equal(later))

		assert.ErrorIs(t, s.TouchConversation(ctx, "nope", later), types.ErrConversationNotFound)
	})

	t.Run("model used round trips", func(t *testing.T) {
		s := newStore(t)
		seedConversation(t, s, "c-model", 0)

		model := "gpt-4o-2024-08-06"
		require.NoError(t, s.AppendMessage(ctx, types.Message{
			ID: "c-model-a", ConversationID: "c-model", Role: types.RoleAssistant,
			Content: "hi", ModelUsed: &model, CreatedAt: t0,
		}))
		msgs, err := s.ListMessages(ctx, "c-model")
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		require.NotNil(t, msgs[0].ModelUsed)
		assert.Equal(t, model, *msgs[0].ModelUsed)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(*testing.T) Store { return NewMemoryStore() })
}

func TestCachedStore_NilRedisPassesThrough(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	storeContract(t, func(*testing.T) Store {
		return NewCachedStore(NewMemoryStore(), nil, 0, logger)
	})
}

func TestMemoryStore_AppendToMissingConversation(t *testing.T) {
	s := NewMemoryStore()
	err := s.AppendMessage(context.Background(), types.Message{ID: "m", ConversationID: "nope"})
	assert.ErrorIs(t, err, types.ErrConversationNotFound)
}

func TestMemoryStore_ReturnedSlicesAreCopies(t *testing.T) {
	s := NewMemoryStore()
	seedConversation(t, s, "c", 2)

	msgs, _ := s.GetRecentMessages(context.Background(), "c", 10)
	msgs[0].Content = "mutated"

	again, _ := s.GetRecentMessages(context.Background(), "c", 10)
	assert.Equal(t, "message 0", again[0].Content)
}

func TestMemoryStore_DuplicateCreate(t *testing.T) {
	s := NewMemoryStore()
	seedConversation(t, s, "c", 0)
	err := s.CreateConversation(context.Background(), types.Conversation{ID: "c"})
	assert.Error(t, err)
}
