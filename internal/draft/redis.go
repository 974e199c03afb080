package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thena-travel/flightdesk/config"
	"github.com/thena-travel/flightdesk/internal/workflow"
)

// RedisStore keeps workflow sessions under one fixed key per session with a
// TTL, modelling the original's session-scoped storage: a draft survives
// reloads within its session, never a new one. Last write wins; the UI is
// single-writer per stage so no coordination is needed.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (s *RedisStore) Save(ctx context.Context, session *workflow.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.ID), payload, s.ttl).Err()
}

func (s *RedisStore) Load(ctx context.Context, id string) (*workflow.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, workflow.ErrSessionNotFound
		}
		return nil, err
	}

	var session workflow.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}

func sessionKey(id string) string {
	return fmt.Sprintf("draft:%s", id)
}

var _ workflow.DraftStore = (*RedisStore)(nil)
