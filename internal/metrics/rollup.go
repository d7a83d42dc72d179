package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Rollup engine Prometheus metrics.
var (
	FetchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollup",
			Name:      "fetch_requests_total",
			Help:      "Total number of source fetches",
		},
		[]string{"kind", "status"}, // status: "ok" / "error" / "skipped"
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rollup",
			Name:      "fetch_duration_seconds",
			Help:      "Source fetch duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollup",
			Name:      "cache_total",
			Help:      "Item cache lookups by result",
		},
		[]string{"result"}, // "hit" / "miss" / "error" / "bypass"
	)

	RenderErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rollup",
			Name:      "render_errors_total",
			Help:      "Template failures by stage",
		},
		[]string{"stage"}, // "compile" / "render" / "canceled"
	)

	MergedItems = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rollup",
			Name:      "merged_items",
			Help:      "Items per fetch cycle after merge and dedup",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)

var registerOnce sync.Once

// RegisterRollupMetrics registers the engine metrics on the default registry. Safe to call repeatedly.
func RegisterRollupMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(FetchRequestsTotal)
		prometheus.MustRegister(FetchDuration)
		prometheus.MustRegister(CacheTotal)
		prometheus.MustRegister(RenderErrorsTotal)
		prometheus.MustRegister(MergedItems)
	})
}
