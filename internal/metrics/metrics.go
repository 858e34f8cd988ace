package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
)

// Catalog store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_db_queries_total",
			Help: "Total number of catalog database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_db_query_duration_seconds",
			Help:    "Catalog database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Synchronization engine metrics
var (
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_runs_total",
			Help: "Total number of folder synchronization runs",
		},
		[]string{"outcome"}, // "completed", "short_circuit", "error"
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_sync_run_duration_seconds",
			Help:    "Duration of folder synchronization runs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	SyncFilesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_files_upserted_total",
			Help: "Total number of file records upserted by sync runs",
		},
	)

	SyncFilesDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_files_deleted_total",
			Help: "Total number of file records deleted by sync runs",
		},
	)

	SyncFilesUnchanged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_sync_files_unchanged_total",
			Help: "Total number of files skipped as unchanged by sync runs",
		},
	)
)

// Scanner metrics
var (
	ScannerFilesScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scanner_files_scanned_total",
			Help: "Total number of files seen by shallow scans",
		},
	)

	ScannerUnreadableEntries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scanner_unreadable_entries_total",
			Help: "Total number of directory entries skipped because metadata could not be read",
		},
	)

	ScannerDimensionProbeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_scanner_dimension_probe_failures_total",
			Help: "Total number of files whose image dimensions could not be decoded",
		},
	)
)

// Thumbnail cache metrics
var (
	ThumbnailsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_thumbnails_generated_total",
			Help: "Total number of thumbnails generated",
		},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail requests served from the cache",
		},
	)

	ThumbnailErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_thumbnail_errors_total",
			Help: "Total number of thumbnail generation failures",
		},
	)

	ThumbnailDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_catalog_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail decode/resize/encode duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)
)

// Live watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_catalog_watcher_events_total",
			Help: "Total number of filesystem events handled by the live watcher",
		},
		[]string{"kind"}, // "create", "write", "remove", "rename"
	)

	WatcherFoldersWatched = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_catalog_watcher_folders_watched",
			Help: "Number of folders currently watched for live changes",
		},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_catalog_watcher_errors_total",
			Help: "Total number of watcher errors",
		},
	)
)
