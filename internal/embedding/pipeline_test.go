// ABOUTME: Tests for the batched embedding pipeline
// ABOUTME: Randomized completion delays must never reorder vectors or shift placeholders
package embedding

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/harper/notion-rag/internal/metrics"
	"github.com/harper/notion-rag/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"
)

// fakeEmbedder encodes each text "chunk-N" as the vector {N}. Batches whose
// first text is listed in fail return an error; delay staggers completion.
type fakeEmbedder struct {
	fail  map[string]bool
	delay func(first string) time.Duration

	mu       sync.Mutex
	inFlight int
	maxSeen  int
	calls    atomic.Int32
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.inFlight++
	f.maxSeen = max(f.maxSeen, f.inFlight)
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay != nil {
		select {
		case <-time.After(f.delay(texts[0])):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail[texts[0]] {
		return nil, errors.New("service unavailable")
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		n, err := strconv.Atoi(text[len("chunk-"):])
		if err != nil {
			return nil, err
		}
		out[i] = []float32{float32(n)}
	}
	return out, nil
}

func makeChunks(n int) []models.TextChunk {
	chunks := make([]models.TextChunk, n)
	for i := range chunks {
		chunks[i] = models.TextChunk{Text: fmt.Sprintf("chunk-%d", i)}
	}
	return chunks
}

func TestEmbed_PreservesOrderUnderStaggeredCompletion(t *testing.T) {
	// earlier batches finish last
	emb := &fakeEmbedder{delay: func(first string) time.Duration {
		n, _ := strconv.Atoi(first[len("chunk-"):])
		return time.Duration(40-n) * time.Millisecond
	}}
	p := NewPipeline(emb, Config{BatchSize: 3, Concurrency: 4}, zaptest.NewLogger(t), nil)

	result, err := p.Embed(context.Background(), makeChunks(20))
	require.NoError(t, err)
	require.Len(t, result.Vectors, 20)
	for i, v := range result.Vectors {
		assert.Equal(t, []float32{float32(i)}, v, "slot %d", i)
	}
	assert.Empty(t, result.Failed)
	assert.Equal(t, int32(7), emb.calls.Load())
	assert.LessOrEqual(t, emb.maxSeen, 4)
}

func TestEmbed_FailedBatchLeavesPlaceholders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	emb := &fakeEmbedder{fail: map[string]bool{"chunk-4": true}}
	p := NewPipeline(emb, Config{BatchSize: 4, Concurrency: 2}, zaptest.NewLogger(t), m)

	result, err := p.Embed(context.Background(), makeChunks(10))
	require.NoError(t, err)
	require.Len(t, result.Vectors, 10)

	for i, v := range result.Vectors {
		if i >= 4 && i < 8 {
			assert.Nil(t, v, "slot %d should be a placeholder", i)
		} else {
			assert.Equal(t, []float32{float32(i)}, v, "slot %d", i)
		}
	}

	require.Len(t, result.Failed, 1)
	assert.Equal(t, 1, result.Failed[0].Batch)
	assert.Equal(t, 4, result.Failed[0].Start)
	assert.Equal(t, 4, result.Failed[0].Size)
	assert.Equal(t, 4, result.FailedCount())
	assert.InDelta(t, 0.4, result.FailureRatio(), 1e-9)

	expected := `
# HELP notionrag_embedding_batches_total Embedding batches by status
# TYPE notionrag_embedding_batches_total counter
notionrag_embedding_batches_total{status="failed"} 1
notionrag_embedding_batches_total{status="ok"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "notionrag_embedding_batches_total"))
}

type shortEmbedder struct{}

func (shortEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	return [][]float32{{1}}, nil
}

func TestEmbed_CountMismatchIsBatchFailure(t *testing.T) {
	p := NewPipeline(shortEmbedder{}, Config{BatchSize: 2, Concurrency: 1}, nil, nil)

	result, err := p.Embed(context.Background(), makeChunks(2))
	require.NoError(t, err)
	assert.Equal(t, [][]float32{nil, nil}, result.Vectors)
	require.Len(t, result.Failed, 1)
	assert.ErrorContains(t, result.Failed[0], "got 1 vectors for 2 texts")
}

func TestEmbed_Empty(t *testing.T) {
	p := NewPipeline(&fakeEmbedder{}, Config{}, nil, nil)

	result, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Vectors)
	assert.Equal(t, 0.0, result.FailureRatio())
}

func TestEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPipeline(&fakeEmbedder{}, Config{BatchSize: 2, Concurrency: 2}, nil, nil)
	_, err := p.Embed(ctx, makeChunks(6))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbed_Property_OrderAndPlaceholders(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 60).Draw(rt, "n")
		batchSize := rapid.IntRange(1, 8).Draw(rt, "batchSize")
		workers := rapid.IntRange(1, 5).Draw(rt, "workers")

		fail := make(map[string]bool)
		failedBatches := make(map[int]bool)
		for b := 0; b*batchSize < n; b++ {
			if rapid.Bool().Draw(rt, "fail") {
				fail[fmt.Sprintf("chunk-%d", b*batchSize)] = true
				failedBatches[b] = true
			}
		}
		delays := rapid.SliceOfN(rapid.IntRange(0, 2), n+1, n+1).Draw(rt, "delays")

		emb := &fakeEmbedder{fail: fail, delay: func(first string) time.Duration {
			i, _ := strconv.Atoi(first[len("chunk-"):])
			return time.Duration(delays[i]) * time.Millisecond
		}}
		p := NewPipeline(emb, Config{BatchSize: batchSize, Concurrency: workers}, nil, nil)

		result, err := p.Embed(context.Background(), makeChunks(n))
		require.NoError(rt, err)
		require.Len(rt, result.Vectors, n)
		require.Len(rt, result.Failed, len(failedBatches))

		for i, v := range result.Vectors {
			if failedBatches[i/batchSize] {
				require.Nil(rt, v)
			} else {
				require.Equal(rt, []float32{float32(i)}, v)
			}
		}
	})
}
