// Package metrics exposes Prometheus metrics for indexing, search and the HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fileseekr"

var (
	// ScansTotal counts completed scan cycles.
	ScansTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "scans_total",
			Help:      "Total number of completed scan cycles",
		},
	)

	// ScanDuration tracks how long scan cycles take.
	ScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "scan_duration_seconds",
			Help:      "Duration of scan cycles in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)

	// FilesProcessed counts pipeline jobs by result.
	// Labels: result (indexed, failed, unchanged, discarded)
	FilesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "files_processed_total",
			Help:      "Total number of files processed by the indexing pipeline",
		},
		[]string{"result"},
	)

	// FileFailures counts failed files by reason.
	FileFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "file_failures_total",
			Help:      "Total number of files recorded as failed, by reason",
		},
		[]string{"reason"},
	)

	// FileDuration tracks per-file processing time.
	FileDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "file_duration_seconds",
			Help:      "Duration of extraction, embedding and upsert for one file",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// FilesDeleted counts records removed by reconciliation.
	FilesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "files_deleted_total",
			Help:      "Total number of file records deleted during reconciliation",
		},
	)

	// RootErrors counts scan roots that could not be read.
	RootErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "indexing",
			Name:      "root_errors_total",
			Help:      "Total number of unreadable scan roots",
		},
	)

	// IndexRecords reports the size of the file index.
	// Labels: state (total, indexed)
	IndexRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "records",
			Help:      "Number of file records in the index",
		},
		[]string{"state"},
	)

	// SearchesTotal counts searches by result.
	// Labels: result (ok, error)
	SearchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "queries_total",
			Help:      "Total number of search queries",
		},
		[]string{"result"},
	)

	// SearchDuration tracks search latency.
	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "query_duration_seconds",
			Help:      "Duration of search queries in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// SearchResults tracks how many results a search returns.
	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	// HTTPRequests counts API requests.
	// Labels: method, route, status
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by method, route and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPDuration tracks API request latency.
	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds by method and route",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)
)

// UpdateIndexSize sets the index size gauges.
func UpdateIndexSize(total, indexed int) {
	IndexRecords.WithLabelValues("total").Set(float64(total))
	IndexRecords.WithLabelValues("indexed").Set(float64(indexed))
}
