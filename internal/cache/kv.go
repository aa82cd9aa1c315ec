// ABOUTME: Crawl cache over a generic byte key-value store such as charm KV
// ABOUTME: The KV contract returns nil data for a missing key
package cache

import (
	"context"

	"github.com/harper/notion-rag/internal/models"
)

// KV is the subset of a key-value client the cache needs
type KV interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, error)
}

// KVStore keeps the crawl cache under one key of a KV
type KVStore struct {
	kv  KV
	key string
}

// NewKVStore creates a store using key on kv
func NewKVStore(kv KV, key string) *KVStore {
	return &KVStore{kv: kv, key: key}
}

// Load reads the cached blob
func (s *KVStore) Load(ctx context.Context) ([]models.RawUnit, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := s.kv.Get(s.key)
	if err != nil {
		return nil, false, err
	}
	if data == nil {
		return nil, false, nil
	}

	units, err := decode(data)
	if err != nil {
		return nil, false, err
	}
	return units, true, nil
}

// Save overwrites the cached blob
func (s *KVStore) Save(ctx context.Context, units []models.RawUnit) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := encode(units)
	if err != nil {
		return err
	}
	return s.kv.Set(s.key, data)
}

// Close closes the underlying KV when it supports closing
func (s *KVStore) Close() error {
	if c, ok := s.kv.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
