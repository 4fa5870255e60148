package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store on the schema in migrations/.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const conversationColumns = `id, title, model_profile, created_at, updated_at`

func scanConversation(row pgx.Row) (*types.Conversation, error) {
	var c types.Conversation
	if err := row.Scan(&c.ID, &c.Title, &c.ModelProfile, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	conv, err := scanConversation(s.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query conversation %s: %w", id, err)
	}
	return conv, nil
}

func (s *PostgresStore) GetRecentMessages(ctx context.Context, conversationID string, limit int) ([]types.Message, error) {
	if limit <= 0 {
		return s.ListMessages(ctx, conversationID)
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, role, content, model_used, created_at
		FROM (
			SELECT id, conversation_id, role, content, model_used, created_at, seq
			FROM messages
			WHERE conversation_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, seq ASC
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent messages: %w", err)
	}
	return collectMessages(rows)
}

func (s *PostgresStore) ListMessages(ctx context.Context, conversationID string) ([]types.Message, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, conversation_id, role, content, model_used, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, seq ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]types.Message, error) {
	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.Message, error) {
		var m types.Message
		var role string
		err := row.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.ModelUsed, &m.CreatedAt)
		m.Role = types.Role(role)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages: %w", err)
	}
	return msgs, nil
}

func (s *PostgresStore) CreateConversation(ctx context.Context, conv types.Conversation) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO conversations (id, title, model_profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, conv.ID, conv.Title, conv.ModelProfile, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateConversation(ctx context.Context, id string, patch ConversationPatch) (*types.Conversation, error) {
	conv, err := scanConversation(s.db.QueryRow(ctx, `
		UPDATE conversations
		SET title = COALESCE($2, title),
		    model_profile = COALESCE($3, model_profile),
		    updated_at = $4
		WHERE id = $1
		RETURNING `+conversationColumns,
		id, patch.Title, patch.ModelProfile, patch.UpdatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update conversation %s: %w", id, err)
	}
	return conv, nil
}

func (s *PostgresStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	tag, err := s.db.Exec(ctx, `UPDATE conversations SET updated_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("touch conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("touch conversation %s: %w", id, types.ErrConversationNotFound)
	}
	return nil
}

func (s *PostgresStore) AppendMessage(ctx context.Context, msg types.Message) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, model_used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, msg.ID, msg.ConversationID, string(msg.Role), msg.Content, msg.ModelUsed, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}
