// ABOUTME: Refresh coordinator running crawl, chunk, embed, index and swap cycles
// ABOUTME: Builds each snapshot off to the side; the swap is the only shared-state write
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/harper/notion-rag/internal/cache"
	"github.com/harper/notion-rag/internal/crawler"
	"github.com/harper/notion-rag/internal/embedding"
	"github.com/harper/notion-rag/internal/index"
	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/metrics"
	"github.com/harper/notion-rag/internal/models"
	"github.com/harper/notion-rag/internal/snapshot"
	"go.uber.org/zap"
)

// DefaultMaxFailureRatio is the placeholder fraction above which a cycle aborts
const DefaultMaxFailureRatio = 0.5

// Crawler produces raw units from the workspace roots
type Crawler interface {
	Crawl(ctx context.Context, roots []string) (*crawler.Result, error)
}

// Chunker splits raw units into token-bounded chunks
type Chunker interface {
	Chunk(units []models.RawUnit) ([]models.TextChunk, error)
}

// Embedder computes one vector slot per chunk
type Embedder interface {
	Embed(ctx context.Context, chunks []models.TextChunk) (*embedding.Result, error)
}

// Options configures the coordinator
type Options struct {
	Roots           []string
	Interval        time.Duration
	ForceRefresh    bool
	MaxFailureRatio float64
}

// Coordinator owns the refresh lifecycle of a snapshot.Holder
type Coordinator struct {
	crawler  Crawler
	chunker  Chunker
	embedder Embedder
	store    cache.Store
	holder   *snapshot.Holder
	opts     Options
	logger   *zap.Logger
	metrics  *metrics.Metrics

	// running admits one cycle at a time
	running sync.Mutex
	// cacheConsulted is guarded by running
	cacheConsulted bool

	statusMu     sync.RWMutex
	state        State
	cycles       int
	failures     int
	lastSuccess  time.Time
	lastError    string
	lastDuration time.Duration
}

// New creates a coordinator. store may be nil to disable the crawl cache.
// A MaxFailureRatio of 0 aborts on any failed embedding; values outside
// [0, 1] fall back to DefaultMaxFailureRatio.
func New(c Crawler, ch Chunker, e Embedder, store cache.Store, holder *snapshot.Holder, opts Options, logger *zap.Logger, m *metrics.Metrics) *Coordinator {
	if opts.MaxFailureRatio < 0 || opts.MaxFailureRatio > 1 {
		opts.MaxFailureRatio = DefaultMaxFailureRatio
	}

	return &Coordinator{
		crawler:  c,
		chunker:  ch,
		embedder: e,
		store:    store,
		holder:   holder,
		opts:     opts,
		logger:   logging.OrNop(logger).With(zap.String("component", "refresh")),
		metrics:  m,
		state:    StateIdle,
	}
}

// Holder returns the snapshot holder this coordinator writes to
func (c *Coordinator) Holder() *snapshot.Holder {
	return c.holder
}

// RunOnce executes a single refresh cycle. The first cycle may be served
// from the crawl cache; later cycles always crawl.
func (c *Coordinator) RunOnce(ctx context.Context) error {
	return c.run(ctx, false)
}

// Trigger executes an on-demand refresh cycle that always crawls
func (c *Coordinator) Trigger(ctx context.Context) error {
	return c.run(ctx, true)
}

// Run refreshes once immediately and then on every interval until ctx is done
func (c *Coordinator) Run(ctx context.Context) error {
	if c.opts.Interval <= 0 {
		return errors.New("refresh interval must be positive")
	}

	c.runLogged(ctx)

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.runLogged(ctx)
		}
	}
}

// runLogged runs a cycle for the timer loop; run already logs aborted cycles
func (c *Coordinator) runLogged(ctx context.Context) {
	if err := c.RunOnce(ctx); errors.Is(err, models.ErrRefreshInProgress) {
		c.logger.Debug("previous refresh still running, skipping tick")
	}
}

func (c *Coordinator) run(ctx context.Context, forceCrawl bool) error {
	if !c.running.TryLock() {
		return models.ErrRefreshInProgress
	}
	defer c.running.Unlock()

	useCache := !forceCrawl && !c.opts.ForceRefresh && !c.cacheConsulted && c.store != nil
	c.cacheConsulted = true

	log := c.logger.With(zap.String("cycle_id", uuid.NewString()))
	log.Info("refresh cycle starting", zap.Bool("use_cache", useCache))

	start := time.Now()
	snap, err := c.cycle(ctx, log, useCache)
	elapsed := time.Since(start)
	c.setState(StateIdle)

	c.statusMu.Lock()
	c.cycles++
	c.lastDuration = elapsed
	if err != nil {
		c.failures++
		c.lastError = err.Error()
	} else {
		c.lastError = ""
		c.lastSuccess = time.Now().UTC()
	}
	c.statusMu.Unlock()

	if err != nil {
		c.metrics.ObserveRefresh(metrics.RefreshAborted, elapsed)
		log.Error("refresh cycle aborted, keeping previous snapshot",
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return err
	}

	c.metrics.ObserveRefresh(metrics.RefreshOK, elapsed)
	c.metrics.SetSnapshotChunks(snap.Len())
	log.Info("refresh cycle complete",
		zap.String("generation", snap.Generation.String()),
		zap.Int("chunks", snap.Len()),
		zap.Int("dim", snap.Index.Dim()),
		zap.Duration("elapsed", elapsed))
	return nil
}

func (c *Coordinator) cycle(ctx context.Context, log *zap.Logger, useCache bool) (*snapshot.Snapshot, error) {
	c.setState(StateCrawling)
	units, err := c.units(ctx, log, useCache)
	if err != nil {
		return nil, err
	}

	c.setState(StateChunking)
	chunks, err := c.chunker.Chunk(units)
	if err != nil {
		return nil, fmt.Errorf("chunking: %w", err)
	}
	if len(chunks) == 0 {
		return nil, models.ErrEmptyCrawl
	}

	c.setState(StateEmbedding)
	embedded, err := c.embedder.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding: %w", err)
	}
	keptChunks, keptVectors, err := c.keepEmbedded(log, chunks, embedded)
	if err != nil {
		return nil, err
	}

	c.setState(StateIndexing)
	idx, err := index.Build(keptVectors)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	snap, err := snapshot.New(keptChunks, idx)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.setState(StateSwapping)
	c.holder.Swap(snap)
	return snap, nil
}

// units returns the raw units for this cycle, from the cache or a fresh crawl
func (c *Coordinator) units(ctx context.Context, log *zap.Logger, useCache bool) ([]models.RawUnit, error) {
	if useCache {
		units, ok, err := c.store.Load(ctx)
		switch {
		case err != nil:
			log.Warn("crawl cache unreadable, crawling instead", zap.Error(err))
		case ok && len(units) > 0:
			log.Info("loaded crawl from cache", zap.Int("units", len(units)))
			return units, nil
		}
	}

	result, err := c.crawler.Crawl(ctx, c.opts.Roots)
	if err != nil {
		return nil, fmt.Errorf("crawling: %w", err)
	}
	if len(result.Units) == 0 {
		return nil, models.ErrEmptyCrawl
	}

	if c.store != nil {
		if err := c.store.Save(ctx, result.Units); err != nil {
			log.Warn("failed to save crawl cache", zap.Error(err))
		}
	}
	return result.Units, nil
}

// keepEmbedded drops chunks whose vector is a placeholder so rows stay
// aligned, or aborts when too many vectors are missing.
func (c *Coordinator) keepEmbedded(log *zap.Logger, chunks []models.TextChunk, embedded *embedding.Result) ([]models.TextChunk, [][]float32, error) {
	failed := embedded.FailedCount()
	if failed == len(chunks) || embedded.FailureRatio() > c.opts.MaxFailureRatio {
		return nil, nil, &models.InsufficientEmbeddingsError{
			Total:    len(chunks),
			Failed:   failed,
			MaxRatio: c.opts.MaxFailureRatio,
		}
	}

	if failed == 0 {
		return chunks, embedded.Vectors, nil
	}

	keptChunks := make([]models.TextChunk, 0, len(chunks)-failed)
	keptVectors := make([][]float32, 0, len(chunks)-failed)
	for i, v := range embedded.Vectors {
		if v == nil {
			continue
		}
		keptChunks = append(keptChunks, chunks[i])
		keptVectors = append(keptVectors, v)
	}

	log.Warn("dropped chunks with failed embeddings",
		zap.Int("dropped", failed),
		zap.Int("kept", len(keptChunks)),
		zap.Int("failed_batches", len(embedded.Failed)))
	return keptChunks, keptVectors, nil
}

func (c *Coordinator) setState(s State) {
	c.statusMu.Lock()
	c.state = s
	c.statusMu.Unlock()
}
