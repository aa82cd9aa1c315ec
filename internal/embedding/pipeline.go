// ABOUTME: Order-preserving batched embedding over a bounded worker pool
// ABOUTME: A failed batch leaves nil placeholders in its slots instead of aborting the run
package embedding

import (
	"context"
	"fmt"

	"github.com/harper/notion-rag/internal/logging"
	"github.com/harper/notion-rag/internal/metrics"
	"github.com/harper/notion-rag/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Defaults used when the pipeline config leaves a field at zero
const (
	DefaultBatchSize   = 10
	DefaultConcurrency = 6
)

// BatchEmbedder embeds a batch of texts, returning one vector per text in input order
type BatchEmbedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Config sizes the pipeline
type Config struct {
	BatchSize   int
	Concurrency int
}

// Pipeline dispatches contiguous batches to a BatchEmbedder concurrently
type Pipeline struct {
	embedder    BatchEmbedder
	batchSize   int
	concurrency int
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// Result holds one vector slot per input chunk. A nil slot is a placeholder
// for a chunk whose batch failed.
type Result struct {
	Vectors [][]float32
	Failed  []*models.EmbeddingBatchError
}

// FailedCount returns the number of placeholder slots
func (r *Result) FailedCount() int {
	n := 0
	for _, v := range r.Vectors {
		if v == nil {
			n++
		}
	}
	return n
}

// FailureRatio returns the fraction of placeholder slots, 0 for an empty result
func (r *Result) FailureRatio() float64 {
	if len(r.Vectors) == 0 {
		return 0
	}
	return float64(r.FailedCount()) / float64(len(r.Vectors))
}

// NewPipeline creates a pipeline. Nil logger and metrics are allowed.
func NewPipeline(embedder BatchEmbedder, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	return &Pipeline{
		embedder:    embedder,
		batchSize:   cfg.BatchSize,
		concurrency: cfg.Concurrency,
		logger:      logging.OrNop(logger).With(zap.String("component", "embedding")),
		metrics:     m,
	}
}

// Embed computes a vector for every chunk. The output has exactly
// len(chunks) slots in input order regardless of batch completion order.
// The only returned error is context cancellation.
func (p *Pipeline) Embed(ctx context.Context, chunks []models.TextChunk) (*Result, error) {
	vectors := make([][]float32, len(chunks))
	numBatches := (len(chunks) + p.batchSize - 1) / p.batchSize
	batchErrs := make([]*models.EmbeddingBatchError, numBatches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for b := 0; b < numBatches; b++ {
		start := b * p.batchSize
		end := min(start+p.batchSize, len(chunks))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			texts := make([]string, end-start)
			for i, c := range chunks[start:end] {
				texts[i] = c.Text
			}

			got, err := p.embedder.EmbedTexts(gctx, texts)
			if err == nil && len(got) != len(texts) {
				err = fmt.Errorf("got %d vectors for %d texts", len(got), len(texts))
			}
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				batchErrs[b] = &models.EmbeddingBatchError{Batch: b, Start: start, Size: end - start, Err: err}
				p.metrics.IncEmbeddingBatch(metrics.BatchFailed)
				p.logger.Warn("embedding batch failed",
					zap.Int("batch", b),
					zap.Int("start", start),
					zap.Int("size", end-start),
					zap.Error(err))
				return nil
			}

			// each goroutine writes only its own [start, end) range
			copy(vectors[start:end], got)
			p.metrics.IncEmbeddingBatch(metrics.BatchOK)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Vectors: vectors}
	for _, e := range batchErrs {
		if e != nil {
			result.Failed = append(result.Failed, e)
		}
	}

	p.logger.Debug("embedded chunks",
		zap.Int("chunks", len(chunks)),
		zap.Int("batches", numBatches),
		zap.Int("failed_batches", len(result.Failed)))

	return result, nil
}
