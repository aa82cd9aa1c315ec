// ABOUTME: Tests for the Prometheus collectors
// ABOUTME: Verifies registration, recording, and nil-safety
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveRefresh("ok", 3*time.Second)
	m.ObserveRefresh("aborted", time.Second)
	m.SetSnapshotChunks(42)
	m.IncCrawlSkip("list_children")
	m.IncEmbeddingBatch("ok")
	m.IncEmbeddingBatch("failed")
	m.ObserveQuery(PathContext, 200*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshCycles.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.refreshCycles.WithLabelValues("aborted")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.snapshotChunks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.crawlSkips.WithLabelValues("list_children")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.embeddingBatches.WithLabelValues("failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(PathContext)))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh("ok", time.Second)
		m.SetSnapshotChunks(1)
		m.IncCrawlSkip("x")
		m.IncEmbeddingBatch("ok")
		m.ObserveQuery(PathError, time.Second)
	})
}
