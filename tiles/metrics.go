package tiles

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	tileLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gioviewport",
		Subsystem: "tiles",
		Name:      "loads_total",
		Help:      "Tile load outcomes",
	}, []string{"result"})

	tileRetries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gioviewport",
		Subsystem: "tiles",
		Name:      "retries_total",
		Help:      "Tile loads retried after a failure",
	})

	tilesEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gioviewport",
		Subsystem: "tiles",
		Name:      "evicted_total",
		Help:      "Tiles dropped after leaving the viewport",
	})

	layerRefreshes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gioviewport",
		Subsystem: "tiles",
		Name:      "refreshes_total",
		Help:      "Tile layer recomputations",
	})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gioviewport",
		Subsystem: "http",
		Name:      "fetch_duration_seconds",
		Help:      "Tile HTTP fetch latency in seconds",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gioviewport",
		Subsystem: "http",
		Name:      "cache_hits_total",
		Help:      "Tile images served from the in-memory cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gioviewport",
		Subsystem: "http",
		Name:      "cache_misses_total",
		Help:      "Tile images fetched over HTTP",
	})
)
