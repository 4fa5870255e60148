package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/af-corp/chat-orchestrator/internal/types"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	redisKeyPrefix  = "orchestrator:conversation:"
)

// CachedStore caches conversation rows in Redis in front of another Store.
// Messages are never cached. A nil Redis client disables caching.
type CachedStore struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCachedStore(inner Store, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{Store: inner, redis: rdb, ttl: ttl, logger: logger}
}

func cacheKey(id string) string { return redisKeyPrefix + id }

func (s *CachedStore) GetConversation(ctx context.Context, id string) (*types.Conversation, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey(id)).Bytes()
		if err == nil {
			var conv types.Conversation
			if err := json.Unmarshal(cached, &conv); err == nil {
				return &conv, nil
			}
		}
	}

	conv, err := s.Store.GetConversation(ctx, id)
	if err != nil || conv == nil {
		return conv, err
	}

	if s.redis != nil {
		if data, err := json.Marshal(conv); err == nil {
			if err := s.redis.Set(ctx, cacheKey(id), data, s.ttl).Err(); err != nil {
				s.logger.Warn("conversation cache write failed", "conversation_id", id, "error", err)
			}
		}
	}
	return conv, nil
}

func (s *CachedStore) UpdateConversation(ctx context.Context, id string, patch ConversationPatch) (*types.Conversation, error) {
	conv, err := s.Store.UpdateConversation(ctx, id, patch)
	s.invalidate(ctx, id)
	return conv, err
}

func (s *CachedStore) TouchConversation(ctx context.Context, id string, at time.Time) error {
	err := s.Store.TouchConversation(ctx, id, at)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedStore) invalidate(ctx context.Context, id string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey(id)).Err(); err != nil {
		s.logger.Warn("conversation cache invalidation failed", "conversation_id", id, "error", err)
	}
}
