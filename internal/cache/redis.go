// ABOUTME: Redis-backed crawl cache stored under a single key
// ABOUTME: SET replaces the whole blob so readers never see a partial update
package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/harper/notion-rag/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps the crawl cache in one Redis string
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store using key on client
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

// Load fetches the cached blob; a missing key is a miss
func (s *RedisStore) Load(ctx context.Context) ([]models.RawUnit, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get crawl cache: %w", err)
	}

	units, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return units, true, nil
}

// Save overwrites the cached blob without expiry
func (s *RedisStore) Save(ctx context.Context, units []models.RawUnit) error {
	data, err := encode(units)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set crawl cache: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisStore) Close() error {
	return s.client.Close()
}
