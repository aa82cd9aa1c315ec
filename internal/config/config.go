// ABOUTME: Centralized configuration for the workspace RAG service
// ABOUTME: Defaults, optional YAML file, then environment overrides, then validation
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Cache backends
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheCharm = "charm"
)

// Config holds all configuration for the service. It is built once at startup
// and treated as read-only afterwards.
type Config struct {
	// OpenAI settings
	OpenAIKey      string        `yaml:"-"`
	OpenAIBaseURL  string        `yaml:"openai_base_url"`
	ChatModel      string        `yaml:"chat_model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	Temperature    float64       `yaml:"temperature"`

	// Workspace settings
	NotionKey       string   `yaml:"-"`
	NotionLinkBase  string   `yaml:"notion_link_base"`
	NotionRateLimit float64  `yaml:"notion_rate_limit"`
	RootIDs         []string `yaml:"root_ids"`
	CrawlDepth      int      `yaml:"crawl_depth"`

	// Ingest settings
	ChunkTokens              int     `yaml:"chunk_tokens"`
	EmbedBatchSize           int     `yaml:"embed_batch_size"`
	EmbedWorkers             int     `yaml:"embed_workers"`
	MaxEmbeddingFailureRatio float64 `yaml:"max_embedding_failure_ratio"`

	// Retrieval settings
	TopK                int     `yaml:"top_k"`
	RelevanceThreshold  float64 `yaml:"relevance_threshold"`
	MaxCitations        int     `yaml:"max_citations"`
	ContextPreviewChars int     `yaml:"context_preview_chars"`
	SourcePreviewChars  int     `yaml:"source_preview_chars"`
	MinKeyPhraseLength  int     `yaml:"min_key_phrase_length"`

	// Refresh settings
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	ForceRefresh    bool          `yaml:"force_refresh"`

	// Cache settings
	CacheBackend string `yaml:"cache_backend"`
	CachePath    string `yaml:"cache_path"`
	RedisAddr    string `yaml:"redis_addr"`
	RedisKey     string `yaml:"redis_key"`
	CharmHost    string `yaml:"charm_host"`
	CharmDBName  string `yaml:"charm_db"`

	// Server settings
	HTTPAddr    string   `yaml:"http_addr"`
	CORSOrigins []string `yaml:"cors_origins"`
	LogLevel    string   `yaml:"log_level"`
	LogFormat   string   `yaml:"log_format"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		OpenAIBaseURL:            "https://api.openai.com/v1",
		ChatModel:                "gpt-4",
		EmbeddingModel:           "text-embedding-3-small",
		Timeout:                  30 * time.Second,
		MaxRetries:               3,
		RetryDelay:               2 * time.Second,
		Temperature:              0.2,
		NotionLinkBase:           "https://www.notion.so",
		NotionRateLimit:          3,
		CrawlDepth:               3,
		ChunkTokens:              300,
		EmbedBatchSize:           10,
		EmbedWorkers:             6,
		MaxEmbeddingFailureRatio: 0.5,
		TopK:                     15,
		RelevanceThreshold:       1.0,
		MaxCitations:             3,
		ContextPreviewChars:      200,
		SourcePreviewChars:       60,
		MinKeyPhraseLength:       5,
		RefreshInterval:          20 * time.Minute,
		CacheBackend:             CacheFile,
		CachePath:                "chunks_cache.json",
		RedisAddr:                "localhost:6379",
		RedisKey:                 "notionrag:crawl",
		CharmHost:                "cloud.charm.sh",
		CharmDBName:              "notionrag",
		HTTPAddr:                 ":5000",
		CORSOrigins:              []string{"*"},
		LogLevel:                 "info",
		LogFormat:                "json",
	}
}

// Load reads configuration from environment variables on top of the defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads an optional YAML file, then applies environment overrides.
// A missing file at an explicitly given path is an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	cfg.RootIDs = cleanIDs(cfg.RootIDs)

	return cfg, cfg.Validate()
}

func applyEnv(c *Config) {
	c.OpenAIKey = getEnv("OPENAI_API_KEY", c.OpenAIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.ChatModel = getEnv("RAG_CHAT_MODEL", c.ChatModel)
	c.EmbeddingModel = getEnv("RAG_EMBEDDING_MODEL", c.EmbeddingModel)
	c.Timeout = getEnvDuration("OPENAI_TIMEOUT", c.Timeout)
	c.MaxRetries = getEnvInt("OPENAI_MAX_RETRIES", c.MaxRetries)
	c.RetryDelay = getEnvDuration("OPENAI_RETRY_DELAY", c.RetryDelay)
	c.Temperature = getEnvFloat("RAG_TEMPERATURE", c.Temperature)

	c.NotionKey = getEnv("NOTION_API_KEY", c.NotionKey)
	c.NotionLinkBase = getEnv("NOTION_LINK_BASE", c.NotionLinkBase)
	c.NotionRateLimit = getEnvFloat("NOTION_RATE_LIMIT", c.NotionRateLimit)
	c.RootIDs = getEnvList("RAG_ROOT_IDS", c.RootIDs)
	c.CrawlDepth = getEnvInt("RAG_CRAWL_DEPTH", c.CrawlDepth)

	c.ChunkTokens = getEnvInt("RAG_CHUNK_TOKENS", c.ChunkTokens)
	c.EmbedBatchSize = getEnvInt("RAG_EMBED_BATCH_SIZE", c.EmbedBatchSize)
	c.EmbedWorkers = getEnvInt("RAG_EMBED_WORKERS", c.EmbedWorkers)
	c.MaxEmbeddingFailureRatio = getEnvFloat("RAG_MAX_EMBED_FAILURE_RATIO", c.MaxEmbeddingFailureRatio)

	c.TopK = getEnvInt("RAG_TOP_K", c.TopK)
	c.RelevanceThreshold = getEnvFloat("RAG_RELEVANCE_THRESHOLD", c.RelevanceThreshold)
	c.MaxCitations = getEnvInt("RAG_MAX_CITATIONS", c.MaxCitations)
	c.ContextPreviewChars = getEnvInt("RAG_CONTEXT_PREVIEW_CHARS", c.ContextPreviewChars)
	c.SourcePreviewChars = getEnvInt("RAG_SOURCE_PREVIEW_CHARS", c.SourcePreviewChars)
	c.MinKeyPhraseLength = getEnvInt("RAG_MIN_KEY_PHRASE_LENGTH", c.MinKeyPhraseLength)

	c.RefreshInterval = getEnvDuration("RAG_REFRESH_INTERVAL", c.RefreshInterval)
	c.ForceRefresh = getEnvBool("RAG_FORCE_REFRESH", c.ForceRefresh)

	c.CacheBackend = getEnv("RAG_CACHE_BACKEND", c.CacheBackend)
	c.CachePath = getEnv("RAG_CACHE_PATH", c.CachePath)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisKey = getEnv("RAG_REDIS_KEY", c.RedisKey)
	c.CharmHost = getEnv("CHARM_HOST", c.CharmHost)
	c.CharmDBName = getEnv("CHARM_DB", c.CharmDBName)

	c.HTTPAddr = getEnv("RAG_HTTP_ADDR", c.HTTPAddr)
	c.CORSOrigins = getEnvList("RAG_CORS_ORIGINS", c.CORSOrigins)
	c.LogLevel = getEnv("RAG_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("RAG_LOG_FORMAT", c.LogFormat)
}

func (c *Config) Validate() error {
	var errs []error

	if c.CrawlDepth < 0 {
		errs = append(errs, fmt.Errorf("RAG_CRAWL_DEPTH must be >= 0, got %d", c.CrawlDepth))
	}
	if c.ChunkTokens <= 0 {
		errs = append(errs, fmt.Errorf("RAG_CHUNK_TOKENS must be positive, got %d", c.ChunkTokens))
	}
	if c.EmbedBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("RAG_EMBED_BATCH_SIZE must be positive, got %d", c.EmbedBatchSize))
	}
	if c.EmbedWorkers <= 0 {
		errs = append(errs, fmt.Errorf("RAG_EMBED_WORKERS must be positive, got %d", c.EmbedWorkers))
	}
	if c.MaxEmbeddingFailureRatio < 0 || c.MaxEmbeddingFailureRatio > 1 {
		errs = append(errs, fmt.Errorf("RAG_MAX_EMBED_FAILURE_RATIO must be 0-1, got %f", c.MaxEmbeddingFailureRatio))
	}
	if c.TopK <= 0 {
		errs = append(errs, fmt.Errorf("RAG_TOP_K must be positive, got %d", c.TopK))
	}
	if c.RelevanceThreshold <= 0 {
		errs = append(errs, fmt.Errorf("RAG_RELEVANCE_THRESHOLD must be positive, got %f", c.RelevanceThreshold))
	}
	if c.MaxCitations <= 0 {
		errs = append(errs, fmt.Errorf("RAG_MAX_CITATIONS must be positive, got %d", c.MaxCitations))
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10, got %d", c.MaxRetries))
	}
	if c.NotionRateLimit <= 0 {
		errs = append(errs, fmt.Errorf("NOTION_RATE_LIMIT must be positive, got %f", c.NotionRateLimit))
	}
	if c.RefreshInterval < time.Minute {
		errs = append(errs, fmt.Errorf("RAG_REFRESH_INTERVAL must be at least 1m, got %s", c.RefreshInterval))
	}
	switch c.CacheBackend {
	case CacheFile, CacheRedis, CacheCharm:
	default:
		errs = append(errs, fmt.Errorf("RAG_CACHE_BACKEND must be one of file, redis, charm, got %q", c.CacheBackend))
	}

	return errors.Join(errs...)
}

// RequireCredentials checks the keys needed to crawl and query
func (c *Config) RequireCredentials() error {
	var errs []error
	if c.OpenAIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
	}
	if c.NotionKey == "" {
		errs = append(errs, errors.New("NOTION_API_KEY is not set"))
	}
	if len(c.RootIDs) == 0 {
		errs = append(errs, errors.New("RAG_ROOT_IDS is empty"))
	}
	return errors.Join(errs...)
}

// Helper functions
func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v == "true" || v == "1"
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return strings.Split(v, ",")
}

// cleanIDs trims whitespace and drops empty ids
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
