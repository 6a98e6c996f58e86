// Package main provides the entry point for the Texture Index server.
//
// Texture Index is a self-hosted web service that scans a directory tree of
// game texture assets, indexes image metadata into SQLite, and serves search,
// statistics, export, and thumbnail endpoints over HTTP.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Memory Configuration: Sets GOMEMLIMIT from environment or cgroup limits
//  2. Configuration Loading: Reads environment variables and validates directories
//  3. Database Initialization: Opens SQLite database and applies the schema
//  4. Component Initialization:
//     - Memory Monitor: Tracks system memory usage
//     - Thumbnail Generator: Initializes libvips for memory-efficient decoding
//     - Indexer: Walks the texture directory and maintains texture records
//     - Metrics Collector: Gathers Prometheus metrics
//  5. HTTP Server Setup: Configures routes, middleware, and starts server
//  6. Graceful Shutdown: Handles SIGINT/SIGTERM, stops all components cleanly
//
// # Background Services
//
// Several goroutines run throughout the application lifecycle:
//
//   - Indexer: Periodically rescans the texture directory for changes
//   - Change Poller: Cheap mtime sweep that triggers early rescans
//   - Metrics Collector: Updates Prometheus metrics every minute
//   - Memory Monitor: Pauses thumbnail work under memory pressure
//
// # Memory Management
//
// The application implements multi-tier memory management:
//
//   - Container-aware GOMEMLIMIT configuration (80% of cgroup limit)
//   - Memory monitor that tracks system memory pressure
//   - libvips integration for decode-time image shrinking
//   - Explicit GC calls after processing large images
//   - Thumbnail generation pauses under memory pressure
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Static file serving for the search UI
//     - API endpoints for texture search, stats, categories, and export
//     - Raw texture file and thumbnail serving with caching
//     - Re-index trigger and scan progress reporting
//     - Health, liveness, readiness, and version endpoints
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//
// # Environment Variables
//
// Configuration is primarily through environment variables:
//
//   - TEXTURE_DIR: Root directory containing texture files (default: /textures)
//   - CACHE_DIR: Directory for generated thumbnails (default: /cache)
//   - DATABASE_DIR: Directory for the SQLite database (default: /database)
//   - PORT: Main HTTP server port (default: 8080)
//   - METRICS_PORT: Metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable metrics server (default: true)
//   - INDEX_INTERVAL: Texture directory scan interval (default: 30m)
//   - POLL_CHANGES: Poll directory mtimes between scans (default: true)
//   - THUMBNAILS_ENABLED: Generate and serve thumbnails (default: true)
//   - THUMBNAIL_PREWARM: Pre-generate thumbnails after each scan (default: false)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - LOG_LEVEL: Logging level (debug/info/warn/error)
//   - GOMEMLIMIT: Memory limit (auto-detected from cgroups if not set)
//
// # Graceful Shutdown
//
// The application handles SIGINT and SIGTERM signals gracefully:
//
//  1. Stop indexer (current batch commits)
//  2. Stop metrics collector
//  3. Stop memory monitor
//  4. Shutdown main HTTP server (30s timeout)
//  5. Close database connections
//
// # Build Requirements
//
// The application requires CGO for SQLite, and uses libvips when present:
//
//   - SQLite: texture record storage and search
//   - libvips: memory-efficient image decoding (optional at runtime; pure Go
//     decoders cover PNG, JPEG, and BMP without it. TGA and PSD files are
//     indexed without dimensions or thumbnails either way)
//
// # Companion CLI
//
// The texidx command (cmd/texidx) operates on the same database directly for
// scripted indexing, searching, and exporting without a running server.
//
// # Related Packages
//
//   - [texture-index/internal/database]: SQLite-backed texture repository
//   - [texture-index/internal/handlers]: HTTP request handlers
//   - [texture-index/internal/indexer]: Texture directory scanning
//   - [texture-index/internal/media]: Thumbnail generation and libvips integration
//   - [texture-index/internal/middleware]: HTTP middleware (logging, compression, metrics)
//   - [texture-index/internal/startup]: Configuration and initialization
package main
