package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "manifold_watcher_events_total",
		Help: "Total number of file system events received by the source watcher.",
	})

	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "manifold_manifest_requests_total",
		Help: "Total number of segment-manifest requests received.",
	})

	RequestNoopsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "manifold_manifest_request_noops_total",
		Help: "Total number of manifest requests absorbed as idempotent no-ops.",
	})

	RebuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "manifold_segment_rebuilds_total",
		Help: "Total number of segment manifest rebuilds, by trigger.",
	}, []string{"trigger"})

	RebuildErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "manifold_segment_rebuild_errors_total",
		Help: "Total number of segment rebuilds that failed and were skipped.",
	})

	RebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "manifold_segment_rebuild_seconds",
		Help:    "Time spent rebuilding one segment manifest.",
		Buckets: prometheus.DefBuckets,
	})

	SegmentsTracked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "manifold_segments_tracked",
		Help: "Number of segments currently known to the engine.",
	})

	FileCacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "manifold_file_cache_entries",
		Help: "Number of file records currently held by the file cache.",
	})

	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "manifold_parsing_seconds",
		Help:    "Time spent parsing a source file for import extraction.",
		Buckets: prometheus.DefBuckets,
	}, []string{"language"})
)
