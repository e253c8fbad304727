// Package metrics defines the Prometheus collectors for recommendation,
// ledger storage and catalog traffic.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsTotal counts next-song draws by mood and result.
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodqueue_recommendations_total",
			Help: "Total number of next-song draws",
		},
		[]string{"mood", "result"},
	)

	// CandidatesPerDraw tracks how many candidates a draw was offered.
	CandidatesPerDraw = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodqueue_candidates_per_draw",
			Help:    "Number of candidate songs offered to a draw",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		},
	)

	// OutcomesTotal counts recorded outcomes by kind and mood.
	OutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodqueue_outcomes_total",
			Help: "Total number of recorded playback outcomes",
		},
		[]string{"outcome", "mood"},
	)

	// StoreOperationsTotal counts backend operations by op and result.
	StoreOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodqueue_store_operations_total",
			Help: "Total number of ledger backend operations",
		},
		[]string{"op", "result"},
	)

	// StoreOperationDuration tracks backend latency by op.
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "moodqueue_store_operation_duration_seconds",
			Help:    "Duration of ledger backend operations in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"op"},
	)

	// LedgerCacheHitsTotal counts ledgers served from the in-process cache.
	LedgerCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodqueue_ledger_cache_hits_total",
			Help: "Total number of ledger cache hits",
		},
	)

	// LedgerCacheMissesTotal counts ledgers loaded from the backend.
	LedgerCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "moodqueue_ledger_cache_misses_total",
			Help: "Total number of ledger cache misses",
		},
	)

	// CachedLedgers is the number of ledgers held in the in-process cache.
	CachedLedgers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodqueue_cached_ledgers",
			Help: "Ledgers held in the in-process cache",
		},
	)

	// StoredLedgers is the number of ledgers in the backend when last counted.
	StoredLedgers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodqueue_stored_ledgers",
			Help: "Ledgers in the backing store at last count",
		},
	)

	// DirtyLedgers is the number of cached ledgers not yet durable.
	DirtyLedgers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "moodqueue_dirty_ledgers",
			Help: "Cached ledgers whose last persist failed",
		},
	)

	// CatalogRequestsTotal counts catalog calls by operation and result.
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodqueue_catalog_requests_total",
			Help: "Total number of catalog provider requests",
		},
		[]string{"op", "result"},
	)

	// CatalogAttemptsTotal counts individual HTTP attempts against the
	// catalog, including retries.
	CatalogAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodqueue_catalog_attempts_total",
			Help: "Total number of catalog HTTP attempts by outcome",
		},
		[]string{"outcome"},
	)
)

// ObserveStoreOp records one backend operation.
func ObserveStoreOp(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	StoreOperationsTotal.WithLabelValues(op, result).Inc()
	StoreOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// RecordOutcome counts one outcome for mood.
func RecordOutcome(outcome, mood string) {
	OutcomesTotal.WithLabelValues(outcome, mood).Inc()
}

// RecordCatalogRequest counts one catalog call.
func RecordCatalogRequest(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CatalogRequestsTotal.WithLabelValues(op, result).Inc()
}

// RecordCatalogAttempt counts one catalog HTTP attempt.
func RecordCatalogAttempt(outcome string) {
	CatalogAttemptsTotal.WithLabelValues(outcome).Inc()
}
