package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"imgchat/internal/models"
	"imgchat/internal/redis"
)

const redisKeyPrefix = "session:transcript:"

// RedisStore keeps transcripts in redis so several server processes can share them.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.Transcript, error) {
	raw, err := s.client.Get(ctx, redisKey(id))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load transcript: %w", err)
	}
	var t models.Transcript
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &t, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, t *models.Transcript, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(id), data, ttl); err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)); err != nil {
		return fmt.Errorf("delete transcript: %w", err)
	}
	return nil
}
