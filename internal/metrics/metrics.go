// ABOUTME: Prometheus collectors for refresh cycles, ingest stages and queries
// ABOUTME: All recording methods are safe to call on a nil *Metrics
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "notionrag"

// Query paths recorded by ObserveQuery
const (
	PathContext   = "context"
	PathNoContext = "no_context"
	PathNotReady  = "not_ready"
	PathError     = "error"
)

// Embedding batch statuses recorded by IncEmbeddingBatch
const (
	BatchOK     = "ok"
	BatchFailed = "failed"
)

// Refresh results recorded by ObserveRefresh
const (
	RefreshOK      = "ok"
	RefreshAborted = "aborted"
)

// Metrics groups the service collectors
type Metrics struct {
	refreshCycles    *prometheus.CounterVec
	refreshDuration  prometheus.Histogram
	snapshotChunks   prometheus.Gauge
	crawlSkips       *prometheus.CounterVec
	embeddingBatches *prometheus.CounterVec
	queriesTotal     *prometheus.CounterVec
	queryDuration    *prometheus.HistogramVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		refreshCycles: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_cycles_total",
			Help:      "Refresh cycles by result",
		}, []string{"result"}),
		refreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh cycles",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		snapshotChunks: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_chunks",
			Help:      "Chunks in the currently installed snapshot",
		}),
		crawlSkips: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawl_skipped_total",
			Help:      "Pages or databases skipped after a fetch error",
		}, []string{"op"}),
		embeddingBatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_batches_total",
			Help:      "Embedding batches by status",
		}, []string{"status"}),
		queriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Answered queries by path",
		}, []string{"path"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Query latency including embedding and generation",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"path"}),
	}
}

// ObserveRefresh records a finished refresh cycle
func (m *Metrics) ObserveRefresh(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshCycles.WithLabelValues(result).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

// SetSnapshotChunks records the size of the installed snapshot
func (m *Metrics) SetSnapshotChunks(n int) {
	if m == nil {
		return
	}
	m.snapshotChunks.Set(float64(n))
}

// IncCrawlSkip records a skipped subtree
func (m *Metrics) IncCrawlSkip(op string) {
	if m == nil {
		return
	}
	m.crawlSkips.WithLabelValues(op).Inc()
}

// IncEmbeddingBatch records one embedding batch
func (m *Metrics) IncEmbeddingBatch(status string) {
	if m == nil {
		return
	}
	m.embeddingBatches.WithLabelValues(status).Inc()
}

// ObserveQuery records one answered query
func (m *Metrics) ObserveQuery(path string, d time.Duration) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(path).Inc()
	m.queryDuration.WithLabelValues(path).Observe(d.Seconds())
}
