package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// All metrics share one namespace so the exporter surface stays greppable.
const namespace = "texture_index"

// Request handling, recorded by the HTTP middleware.
var (
	HTTPRequestsTotal    = counterVec("http_requests_total", "HTTP requests served.", "method", "path", "status")
	HTTPRequestDuration  = histogramVec("http_request_duration_seconds", "Time spent serving HTTP requests.", prometheus.DefBuckets, "method", "path")
	HTTPRequestsInFlight = gauge("http_requests_in_flight", "Requests currently being served.")
)

// SQLite access, recorded by the database layer.
var (
	DBQueryTotal          = counterVec("db_queries_total", "Queries issued against the index database.", "operation", "status")
	DBQueryDuration       = histogramVec("db_query_duration_seconds", "Query latency.", queryBuckets, "operation")
	DBTransactionDuration = histogramVec("db_transaction_duration_seconds", "Write transaction lifetime by outcome.", txBuckets, "outcome")
	DBRowsAffected        = histogramVec("db_rows_affected", "Rows touched per write statement.", rowBuckets, "operation")
	DBConnectionsOpen     = gauge("db_connections_open", "Open connections in the sql.DB pool.")
	DBSizeBytes           = gaugeVec("db_size_bytes", "On-disk size of the database, WAL and SHM files.", "file")
)

// Index runs and change polling.
var (
	IndexerRunsTotal           = counter("indexer_runs_total", "Completed indexer runs.")
	IndexerLastRunTimestamp    = gauge("indexer_last_run_timestamp", "Unix time of the last indexer run.")
	IndexerLastRunDuration     = gauge("indexer_last_run_duration_seconds", "Wall time of the last indexer run.")
	IndexerFilesProcessed      = counter("indexer_files_processed_total", "Files visited across all runs.")
	IndexerFilesIndexed        = counter("indexer_files_indexed_total", "Files written to the index.")
	IndexerFilesSkipped        = counter("indexer_files_skipped_total", "Unchanged files skipped.")
	IndexerErrors              = counter("indexer_errors_total", "Errors during index runs.")
	IndexerIsRunning           = gauge("indexer_running", "1 while a run is in progress, 0 when idle.")
	IndexerPollChecksTotal     = counter("indexer_poll_checks_total", "Change detection polls performed.")
	IndexerPollChangesDetected = counter("indexer_poll_changes_detected_total", "Polls that found the library changed.")
	IndexerPollDuration        = histogram("indexer_poll_duration_seconds", "Change detection poll latency.", pollBuckets)
)

// Directory walks and per-file probing, recorded by the scanner.
var (
	ScannerFilesDiscovered = counter("scanner_files_discovered_total", "Texture files found during walks.")
	ScannerPathErrors      = counter("scanner_path_errors_total", "Paths the walk could not read.")
	ScannerProbeFailures   = counter("scanner_probe_failures_total", "Files whose dimensions could not be decoded.")
	ScannerHashFailures    = counter("scanner_hash_failures_total", "Files whose contents could not be hashed.")
)

// Thumbnail generation and cache behavior, recorded by the media package.
var (
	ThumbnailGenerations        = counterVec("thumbnail_generations_total", "Thumbnail generations by end status.", "status")
	ThumbnailGenerationDuration = histogram("thumbnail_generation_duration_seconds", "Time to render one thumbnail.", thumbBuckets)
	ThumbnailCacheHits          = counter("thumbnail_cache_hits_total", "Thumbnails served from the cache.")
	ThumbnailCacheMisses        = counter("thumbnail_cache_misses_total", "Thumbnails that had to be rendered.")
	ThumbnailCacheSize          = gauge("thumbnail_cache_size_bytes", "Bytes held in the thumbnail cache.")
	ThumbnailCacheCount         = gauge("thumbnail_cache_count", "Thumbnails held in the cache.")
	ThumbnailPrewarmFiles       = counterVec("thumbnail_prewarm_files_total", "Files handled by cache pre-warming.", "status")
	ThumbnailPrewarmDuration    = gauge("thumbnail_prewarm_duration_seconds", "Wall time of the last pre-warm pass.")
)

// Retry behavior on network mounts, fed through the filesystem observer.
var (
	FilesystemRetryAttempts = counterVec("filesystem_retry_attempts_total", "Individual retry attempts.", "operation", "volume")
	FilesystemRetrySuccess  = counterVec("filesystem_retry_success_total", "Operations that recovered after retrying.", "operation", "volume")
	FilesystemRetryFailures = counterVec("filesystem_retry_failures_total", "Operations that exhausted their retries.", "operation", "volume")
	FilesystemRetryDuration = histogramVec("filesystem_retry_duration_seconds", "End-to-end latency of retried operations.", fsBuckets, "operation", "volume")
	FilesystemStaleErrors   = counterVec("filesystem_stale_errors_total", "Stale NFS file handle errors seen.", "operation", "volume")
)

// Index contents, refreshed by the Collector.
var (
	TexturesTotal      = gauge("textures_total", "Textures currently in the index.")
	TexturesByCategory = gaugeVec("textures_by_category", "Indexed textures per category.", "category")
	TexturesByFormat   = gaugeVec("textures_by_format", "Indexed textures per file format.", "format")
)

// Memory pressure, recorded by the limit watcher.
var (
	MemoryUsageRatio = gauge("memory_usage_ratio", "Heap in use as a fraction of the configured limit.")
	MemoryPaused     = gauge("memory_paused", "1 while background work is paused for memory pressure.")
	MemoryGCPauses   = counter("memory_gc_pauses_total", "Garbage collections forced by memory pressure.")
)

// AppInfo carries build metadata as labels on a constant gauge.
var AppInfo = gaugeVec("app_info", "Build information.", "version", "commit", "go_version")

// SetAppInfo publishes the build identity. The gauge value is always 1.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}

// Bucket layouts. SQLite on local disk resolves most queries well under a
// millisecond, while decoding a large source image can take whole seconds.
var (
	queryBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}
	txBuckets    = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}
	rowBuckets   = []float64{1, 5, 10, 50, 100, 500, 1000}
	pollBuckets  = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	thumbBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	fsBuckets    = []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10}
)

func counter(name, help string) prometheus.Counter {
	return promauto.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help})
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func gauge(name, help string) prometheus.Gauge {
	return promauto.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func gaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	return promauto.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, labels)
}

func histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets})
}

func histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: name, Help: help, Buckets: buckets}, labels)
}
