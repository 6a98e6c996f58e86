// Package startup owns process bring-up: reading configuration from the
// environment, preparing the working directories, and printing the
// sectioned report the service emits while it boots.
//
// [LoadConfig] resolves every setting in one pass:
//
//	TEXTURE_DIR         texture tree to index (default /textures)
//	CACHE_DIR           cache root for thumbnails (default /cache)
//	DATABASE_DIR        SQLite database location (default /database)
//	PORT                HTTP port (default 8080)
//	METRICS_PORT        Prometheus port (default 9090)
//	METRICS_ENABLED     serve /metrics (default true)
//	INDEX_INTERVAL      full re-index cadence, Go duration (default 30m)
//	POLL_CHANGES        cheap change detection between runs (default true)
//	THUMBNAILS_ENABLED  generate thumbnails (default true)
//	THUMBNAIL_PREWARM   pre-generate thumbnails after indexing (default false)
//	LOG_LEVEL           debug, info, warn, error (default info)
//	LOG_STATIC_FILES    include static files in the access log (default false)
//	LOG_HEALTH_CHECKS   include health probes in the access log (default true)
//
// The database directory must exist and be writable or LoadConfig fails.
// The thumbnail cache is optional: a read-only or missing cache disables
// thumbnails instead of stopping the process. The texture tree itself only
// earns a warning when absent because the indexer keeps retrying.
//
// The rest of the package is the startup and shutdown report. main calls
// the Log functions in boot order, for example [LogDatabaseInit] after the
// schema is ready and [LogServerStarted] once ListenAndServe is running,
// so the log reads as a sequence of titled sections ending in the
// endpoint summary. [GetBuildInfo] exposes the version, commit, and build
// timestamp stamped at link time:
//
//	go build -ldflags "-X texture-index/internal/startup.Version=v1.2.0"
package startup
