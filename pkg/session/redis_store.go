package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares session state between processes talking to the same
// system. Values are JSON encoded State.
type RedisStore struct {
	client redis.Cmdable
	prefix string
}

func NewRedisStore(client redis.Cmdable, prefix string) *RedisStore {
	if client == nil {
		return nil
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Load(ctx context.Context, key string) (*State, error) {
	if s == nil {
		return nil, fmt.Errorf("session store not configured")
	}
	val, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var st State
	if err := json.Unmarshal([]byte(val), &st); err != nil {
		return nil, fmt.Errorf("session: decode %s: %w", key, err)
	}
	return &st, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, state State, ttl time.Duration) error {
	if s == nil {
		return fmt.Errorf("session store not configured")
	}
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(key), data, ttl).Err()
}

func (s *RedisStore) Invalidate(ctx context.Context, key string) error {
	if s == nil {
		return fmt.Errorf("session store not configured")
	}
	return s.client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}
