package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"texture-index/internal/database"
	"texture-index/internal/filesystem"
	"texture-index/internal/handlers"
	"texture-index/internal/indexer"
	"texture-index/internal/logging"
	"texture-index/internal/media"
	"texture-index/internal/memory"
	"texture-index/internal/metrics"
	"texture-index/internal/middleware"
	"texture-index/internal/startup"
	"texture-index/internal/texture"

	"github.com/gorilla/mux"
)

func main() {
	startTime := time.Now()

	// GOMEMLIMIT has to land before anything allocates in earnest
	memResult := memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}
	startup.LogMemoryConfig(memResult)

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Database startup failed: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Metrics catalog and observers
	metrics.InitializeMetrics()
	buildInfo := startup.GetBuildInfo()
	metrics.SetAppInfo(buildInfo.Version, buildInfo.Commit, buildInfo.GoVersion)
	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"textures": config.TextureDir,
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	}))

	// libvips speeds up thumbnail decode; pure Go decoders cover its absence
	if err := media.InitVips(); err != nil {
		logging.Warn("libvips unavailable, falling back to Go decoders: %v", err)
	}
	defer media.ShutdownVips()

	startup.LogThumbnailInit(config.ThumbnailsEnabled)
	thumbGen := media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	thumbGen.SetThrottle(monitor)

	startup.LogIndexerInit(config.IndexInterval)
	idx := indexer.New(db, config.TextureDir, config.IndexInterval)
	idx.SetChangePolling(config.PollChanges)
	if config.ThumbnailPrewarm {
		idx.SetOnIndexComplete(func() {
			go prewarmThumbnails(db, thumbGen)
		})
	}

	// The first pass can take minutes on a large library, so the server
	// comes up while it runs
	go func() {
		if err := idx.Start(); err != nil {
			logging.Error("Indexer start failed: %v", err)
		}
	}()
	startup.LogIndexerStarted()

	// Library gauges refresh on a timer; the DB and thumbnail cache
	// piggyback on the same cycle
	collector := metrics.NewCollector(db, time.Minute)
	collector.AddUpdater(db.UpdateDBMetrics)
	collector.AddUpdater(func() {
		if _, _, err := thumbGen.GetCacheSize(); err != nil {
			logging.Debug("Thumbnail cache size check failed: %v", err)
		}
	})
	collector.Start()

	h := handlers.New(db, idx, thumbGen, config)
	router := newRouter(h)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Middleware order is outside-in: compression sees logged and metered
	// responses, metrics sit closest to the handlers
	var handler http.Handler = router
	handler = middleware.Metrics(middleware.DefaultMetricsConfig())(handler)

	logCfg := middleware.DefaultLoggingConfig()
	logCfg.LogStaticFiles = config.LogStaticFiles
	logCfg.LogHealthChecks = config.LogHealthChecks
	handler = middleware.Logger(logCfg)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	// Metrics listener stays on its own port so the main one can be
	// exposed without leaking operational detail
	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort, h)
	}

	srv := newServer(config.Port, handler)
	go handleShutdown(srv, idx, monitor, collector)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

// newServer builds the public listener. No write timeout: full-size
// texture downloads and whole-index exports can outlive any fixed limit.
func newServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:        ":" + port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

func newRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Probes answer on both the plain and the z-suffixed paths
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthCheck).Methods(http.MethodGet)
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods(http.MethodGet)
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/categories", h.GetCategories).Methods(http.MethodGet)
	api.HandleFunc("/export", h.Export).Methods(http.MethodGet)
	api.HandleFunc("/texture", h.GetTexture).Methods(http.MethodGet)
	api.HandleFunc("/file", h.GetFile).Methods(http.MethodGet)
	api.HandleFunc("/thumbnail", h.GetThumbnail).Methods(http.MethodGet)
	api.HandleFunc("/index", h.TriggerIndex).Methods(http.MethodPost)
	api.HandleFunc("/index/status", h.IndexStatus).Methods(http.MethodGet)

	// Everything else is the web UI
	r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))

	return r
}

// serveMetrics runs the Prometheus exposition endpoint on its own listener.
func serveMetrics(port string, h *handlers.Handlers) {
	mx := http.NewServeMux()
	mx.Handle("/metrics", h.MetricsHandler())

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mx,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logging.Error("Metrics server error: %v", err)
	}
}

// prewarmThumbnails generates thumbnails for every indexed texture. Runs
// after each index pass; already cached thumbnails are skipped cheaply.
func prewarmThumbnails(repo texture.Repository, thumbGen *media.ThumbnailGenerator) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	records, err := repo.All(ctx)
	if err != nil {
		logging.Error("Thumbnail pre-warm skipped: %v", err)
		return
	}

	paths := make([]string, 0, len(records))
	for _, rec := range records {
		paths = append(paths, rec.Path)
	}
	thumbGen.Warm(ctx, paths)
}

// handleShutdown waits for SIGINT or SIGTERM, then stops the background
// workers before draining the HTTP server.
func handleShutdown(srv *http.Server, idx *indexer.Indexer, monitor *memory.Monitor, collector *metrics.Collector) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	startup.LogShutdownInitiated((<-sigs).String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	stages := []struct {
		name string
		stop func()
	}{
		{"indexer", idx.Stop},
		{"metrics collector", collector.Stop},
		{"memory monitor", monitor.Stop},
	}
	for _, stage := range stages {
		startup.LogShutdownStep("Stopping " + stage.name)
		stage.stop()
		startup.LogShutdownStepComplete(stage.name + " stopped")
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownComplete()
}
