package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"inkwell/pkg/platform/sentinel"
)

// Redis key for the single session record.
const redisSessionKey = "inkwell:" + recordKey

// RedisStore persists the session record in Redis, for deployments where the
// client runs as a long-lived agent and the session should survive the host
// filesystem. Client lifecycle is managed externally.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context) (Session, error) {
	raw, err := s.client.Get(ctx, redisSessionKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, sentinel.ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session from redis: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Session{}, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Token == "" {
		return Session{}, sentinel.ErrNoSession
	}
	return rec.session(), nil
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	raw, err := json.Marshal(toRecord(sess))
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	// No TTL: the record lives until logout, matching the durable local record.
	if err := s.client.Set(ctx, redisSessionKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("save session to redis: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, redisSessionKey).Err(); err != nil {
		return fmt.Errorf("clear session in redis: %w", err)
	}
	return nil
}
