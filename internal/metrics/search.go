package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "searches_total",
			Help:      "Total number of search requests",
		},
		[]string{"tier", "state"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "search_duration_seconds",
			Help:      "Search orchestration duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"tier"},
	)

	SearchDegradedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "search_degraded_total",
			Help:      "Searches assembled with at least one failed sub-query",
		},
	)

	TrendingRefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "discovery",
			Name:      "trending_refresh_duration_seconds",
			Help:      "Trending snapshot recomputation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"timeframe"},
	)

	AnalyticsDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "discovery",
			Name:      "analytics_dropped_total",
			Help:      "Analytics records dropped due to a full dispatch buffer",
		},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchDegradedTotal)
	prometheus.MustRegister(TrendingRefreshDuration)
	prometheus.MustRegister(AnalyticsDroppedTotal)
	searchMetricsRegistered = true
}
