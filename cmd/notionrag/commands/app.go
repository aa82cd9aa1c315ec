// ABOUTME: Shared bootstrap wiring config, logging, clients and the refresh pipeline
// ABOUTME: Every long-running command builds one app and closes it on exit
package commands

import (
	"fmt"

	"github.com/harper/notion-rag/internal/cache"
	"github.com/harper/notion-rag/internal/chunker"
	"github.com/harper/notion-rag/internal/config"
	"github.com/harper/notion-rag/internal/crawler"
	"github.com/harper/notion-rag/internal/embedding"
	"github.com/harper/notion-rag/internal/llm"
	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/metrics"
	"github.com/harper/notion-rag/internal/notion"
	"github.com/harper/notion-rag/internal/refresh"
	"github.com/harper/notion-rag/internal/retrieval"
	"github.com/harper/notion-rag/internal/snapshot"
	"github.com/prometheus/client_golang/prometheus"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	registry    *prometheus.Registry
	metrics     *metrics.Metrics
	openai      *llm.OpenAIClient
	crawler     *crawler.Crawler
	store       cache.Store
	coordinator *refresh.Coordinator
	composer    *retrieval.Composer
}

// loadConfig reads the config file and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if forceRefresh {
		cfg.ForceRefresh = true
	}
	switch {
	case verbose:
		cfg.LogLevel = "debug"
	case quiet:
		cfg.LogLevel = "error"
	}
	return cfg, nil
}

// newApp builds the full pipeline. Callers must call close.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	openaiClient, err := llm.NewOpenAIClientWithConfig(openAIConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("initializing OpenAI client: %w", err)
	}

	notionClient, err := notion.NewClient(cfg.NotionKey, notion.Options{
		RequestsPerSecond: cfg.NotionRateLimit,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing Notion client: %w", err)
	}

	store, err := cache.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening crawl cache: %w", err)
	}

	crawl := crawler.New(notionClient, cfg.CrawlDepth, logger, m)
	chunks := chunker.New(newTokenizer(cfg), cfg.ChunkTokens)
	pipeline := embedding.NewPipeline(openaiClient, embedding.Config{
		BatchSize:   cfg.EmbedBatchSize,
		Concurrency: cfg.EmbedWorkers,
	}, logger, m)

	holder := snapshot.NewHolder()
	coordinator := refresh.New(crawl, chunks, pipeline, store, holder, refresh.Options{
		Roots:           cfg.RootIDs,
		Interval:        cfg.RefreshInterval,
		ForceRefresh:    cfg.ForceRefresh,
		MaxFailureRatio: cfg.MaxEmbeddingFailureRatio,
	}, logger, m)

	composer := retrieval.New(holder, openaiClient, openaiClient, retrieval.Options{
		TopK:                cfg.TopK,
		RelevanceThreshold:  cfg.RelevanceThreshold,
		MaxCitations:        cfg.MaxCitations,
		ContextPreviewChars: cfg.ContextPreviewChars,
		SourcePreviewChars:  cfg.SourcePreviewChars,
		MinKeyPhraseLength:  cfg.MinKeyPhraseLength,
		LinkBase:            cfg.NotionLinkBase,
	}, logger, m)

	return &app{
		cfg:         cfg,
		logger:      logger,
		registry:    registry,
		metrics:     m,
		openai:      openaiClient,
		crawler:     crawl,
		store:       store,
		coordinator: coordinator,
		composer:    composer,
	}, nil
}

// openAIConfig layers the service config over the client defaults
func openAIConfig(cfg *config.Config) *llm.ClientConfig {
	oc := llm.DefaultConfig(cfg.OpenAIKey)
	oc.BaseURL = cfg.OpenAIBaseURL
	if cfg.ChatModel != "" {
		oc.ChatModel = cfg.ChatModel
	}
	if cfg.EmbeddingModel != "" {
		oc.EmbeddingModel = openai.EmbeddingModel(cfg.EmbeddingModel)
	}
	oc.Temperature = float32(cfg.Temperature)
	oc.Timeout = cfg.Timeout
	oc.MaxRetries = cfg.MaxRetries
	oc.RetryDelay = cfg.RetryDelay
	return oc
}

// newTokenizer cuts windows in the chat model's vocabulary, since chunks
// are replayed to that model as context
func newTokenizer(cfg *config.Config) *chunker.TiktokenTokenizer {
	return chunker.NewTiktokenTokenizer(cfg.ChatModel)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing crawl cache", zap.Error(err))
	}
	_ = a.logger.Sync()
}
