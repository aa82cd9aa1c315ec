// ABOUTME: Answer composer that retrieves nearest chunks and generates a cited reply
// ABOUTME: Copies the snapshot pointer once per query and holds no lock across I/O
package retrieval

import (
	"context"
	"time"

	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/metrics"
	"github.com/harper/notion-rag/internal/models"
	"github.com/harper/notion-rag/internal/snapshot"
	"go.uber.org/zap"
)

// QueryEmbedder embeds a single query text
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a completion for a conversation
type Generator interface {
	Complete(ctx context.Context, messages []models.Message) (string, error)
}

// Options tunes retrieval and citation behavior
type Options struct {
	TopK                int
	RelevanceThreshold  float64
	MaxCitations        int
	ContextPreviewChars int
	SourcePreviewChars  int
	MinKeyPhraseLength  int
	LinkBase            string
}

// DefaultOptions returns the standard retrieval settings
func DefaultOptions() Options {
	return Options{
		TopK:                15,
		RelevanceThreshold:  1.0,
		MaxCitations:        3,
		ContextPreviewChars: 200,
		SourcePreviewChars:  60,
		MinKeyPhraseLength:  5,
		LinkBase:            models.DefaultLinkBase,
	}
}

// Composer answers queries against the installed snapshot
type Composer struct {
	holder    *snapshot.Holder
	embedder  QueryEmbedder
	generator Generator
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// New creates a composer. Zero option fields take their defaults.
func New(holder *snapshot.Holder, embedder QueryEmbedder, generator Generator, opts Options, logger *zap.Logger, m *metrics.Metrics) *Composer {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.RelevanceThreshold <= 0 {
		opts.RelevanceThreshold = def.RelevanceThreshold
	}
	if opts.MaxCitations <= 0 {
		opts.MaxCitations = def.MaxCitations
	}
	if opts.ContextPreviewChars <= 0 {
		opts.ContextPreviewChars = def.ContextPreviewChars
	}
	if opts.SourcePreviewChars <= 0 {
		opts.SourcePreviewChars = def.SourcePreviewChars
	}
	if opts.MinKeyPhraseLength <= 0 {
		opts.MinKeyPhraseLength = def.MinKeyPhraseLength
	}
	if opts.LinkBase == "" {
		opts.LinkBase = def.LinkBase
	}

	return &Composer{
		holder:    holder,
		embedder:  embedder,
		generator: generator,
		opts:      opts,
		logger:    logging.OrNop(logger).With(zap.String("component", "retrieval")),
		metrics:   m,
	}
}

// Retrieve embeds text and returns the nearest chunks of snap, nearest first
func (c *Composer) Retrieve(ctx context.Context, snap *snapshot.Snapshot, text string) (*models.RetrievalResult, error) {
	vec, err := c.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, &models.QueryEmbeddingError{Err: err}
	}

	hits, err := snap.Index.Search(vec, c.opts.TopK)
	if err != nil {
		return nil, &models.QueryEmbeddingError{Err: err}
	}

	result := &models.RetrievalResult{
		Chunks:    make([]models.TextChunk, len(hits)),
		Distances: make([]float64, len(hits)),
	}
	for i, h := range hits {
		result.Chunks[i] = snap.Chunks[h.Row]
		result.Distances[i] = h.Distance
	}
	if len(hits) > 0 {
		result.MinDistance = hits[0].Distance
	}
	return result, nil
}

// Answer retrieves context for q, generates a reply, and attaches up to
// MaxCitations sources when the nearest chunk passed the relevance gate.
func (c *Composer) Answer(ctx context.Context, q models.Query) (*models.Answer, error) {
	start := time.Now()
	path := metrics.PathError
	defer func() { c.metrics.ObserveQuery(path, time.Since(start)) }()

	snap, ok := c.holder.Current()
	if !ok {
		path = metrics.PathNotReady
		return nil, models.ErrIndexNotReady
	}

	retrieved, err := c.Retrieve(ctx, snap, q.Text)
	if err != nil {
		c.logger.Error("query embedding failed", zap.Error(err))
		return nil, err
	}

	inContext := retrieved.MinDistance < c.opts.RelevanceThreshold
	log := c.logger.With(
		zap.String("generation", snap.Generation.String()),
		zap.Float64("min_distance", retrieved.MinDistance),
		zap.Bool("in_context", inContext))
	if len(retrieved.Chunks) > 0 {
		log.Debug("nearest chunk", zap.Stringer("source", retrieved.Chunks[0].Source))
	}

	var grounding []models.TextChunk
	if inContext {
		grounding = retrieved.Chunks
	}
	messages := BuildMessages(q.Text, q.History, grounding, c.opts.ContextPreviewChars, c.opts.LinkBase)

	text, err := c.generator.Complete(ctx, messages)
	if err != nil {
		log.Error("generation failed", zap.Error(err))
		return nil, &models.GenerationError{Err: err}
	}

	answer := &models.Answer{
		Reply:       text,
		Text:        text,
		InContext:   inContext,
		MinDistance: retrieved.MinDistance,
		Generation:  snap.Generation.String(),
	}

	if inContext {
		path = metrics.PathContext
		cited := SelectCitations(text, retrieved.Chunks, c.opts.MaxCitations, c.opts.MinKeyPhraseLength)
		for _, ch := range cited {
			answer.Sources = append(answer.Sources, ch.Source)
		}
		answer.Reply = FormatReply(text, cited, c.opts.SourcePreviewChars, c.opts.LinkBase)
	} else {
		path = metrics.PathNoContext
	}

	log.Info("answered query", zap.Int("sources", len(answer.Sources)))
	return answer, nil
}
