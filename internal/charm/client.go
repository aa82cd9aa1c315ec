// ABOUTME: Charm KV client wrapper for the cloud-synced crawl cache
// ABOUTME: Authenticates with the local SSH key and syncs after every write
package charm

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// CrawlPrefix namespaces crawl snapshot keys
const CrawlPrefix = "crawl:"

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// DefaultConfig returns the default configuration, honoring CHARM_HOST
func DefaultConfig() *Config {
	host := os.Getenv("CHARM_HOST")
	if host == "" {
		host = "cloud.charm.sh"
	}
	return &Config{
		Host:     host,
		DBName:   "notionrag",
		AutoSync: true,
	}
}

// Client wraps charm KV for cache storage
type Client struct {
	kv     *kv.KV
	config *Config
	mu     sync.Mutex
}

// NewClient opens the KV database and pulls remote data when AutoSync is set
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	// kv reads the host from the environment
	if cfg.Host != "" {
		os.Setenv("CHARM_HOST", cfg.Host)
	}

	db, err := kv.OpenWithDefaults(cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv: %w", err)
	}

	c := &Client{
		kv:     db,
		config: cfg,
	}

	if cfg.AutoSync {
		_ = db.Sync()
	}

	return c, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv != nil {
		err := c.kv.Close()
		c.kv = nil
		return err
	}
	return nil
}

func (c *Client) syncIfEnabled() {
	if c.config.AutoSync {
		_ = c.kv.Sync()
	}
}

// Set stores a value with the given key
func (c *Client) Set(key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return errors.New("charm kv is closed")
	}
	if err := c.kv.Set([]byte(key), value); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	c.syncIfEnabled()
	return nil
}

// Get retrieves a value by key. A missing key returns nil data and no error.
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return nil, errors.New("charm kv is closed")
	}
	data, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return data, nil
}

// Sync manually triggers a sync with the cloud
func (c *Client) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kv == nil {
		return errors.New("charm kv is closed")
	}
	return c.kv.Sync()
}

// CrawlKey returns the key holding the named crawl snapshot
func CrawlKey(name string) string {
	return CrawlPrefix + name
}
