// ABOUTME: Crawl cache contract and backend selection
// ABOUTME: The whole raw-unit list is one blob that is always overwritten, never patched
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harper/notion-rag/internal/charm"
	"github.com/harper/notion-rag/internal/config"
	"github.com/harper/notion-rag/internal/models"
	"github.com/redis/go-redis/v9"
)

// formatVersion is bumped when the envelope layout changes
const formatVersion = 1

// Store persists the most recent crawl result
type Store interface {
	// Load returns the cached units, or false when nothing is cached
	Load(ctx context.Context) ([]models.RawUnit, bool, error)
	// Save replaces the cached units
	Save(ctx context.Context, units []models.RawUnit) error
	Close() error
}

type envelope struct {
	Version int              `json:"version"`
	SavedAt time.Time        `json:"saved_at"`
	Units   []models.RawUnit `json:"units"`
}

func encode(units []models.RawUnit) ([]byte, error) {
	if units == nil {
		units = []models.RawUnit{}
	}
	data, err := json.Marshal(envelope{Version: formatVersion, SavedAt: time.Now().UTC(), Units: units})
	if err != nil {
		return nil, fmt.Errorf("failed to encode crawl cache: %w", err)
	}
	return data, nil
}

func decode(data []byte) ([]models.RawUnit, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode crawl cache: %w", err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("unsupported crawl cache version %d", env.Version)
	}
	return env.Units, nil
}

// Open builds the store selected by cfg.CacheBackend
func Open(cfg *config.Config) (Store, error) {
	switch cfg.CacheBackend {
	case config.CacheFile, "":
		return NewFileStore(cfg.CachePath), nil

	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return NewRedisStore(client, cfg.RedisKey), nil

	case config.CacheCharm:
		cc := charm.DefaultConfig()
		if cfg.CharmHost != "" {
			cc.Host = cfg.CharmHost
		}
		if cfg.CharmDBName != "" {
			cc.DBName = cfg.CharmDBName
		}
		client, err := charm.NewClient(cc)
		if err != nil {
			return nil, err
		}
		return NewKVStore(client, charm.CrawlKey(cfg.CharmDBName)), nil
	}

	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}
