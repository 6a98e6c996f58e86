package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"texture-index/internal/logging"
)

// Config carries everything main needs to wire the application together.
// All values come from the environment; the defaults match the container
// image layout.
type Config struct {
	TextureDir      string
	CacheDir        string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	IndexInterval   time.Duration
	PollChanges     bool
	LogStaticFiles  bool
	LogHealthChecks bool
	MetricsEnabled  bool

	// Derived from the directories above.
	DatabasePath string
	ThumbnailDir string

	// Effective feature state after directory checks.
	ThumbnailsEnabled bool
	ThumbnailPrewarm  bool
}

// LoadConfig reads the environment, prepares the working directories, and
// prints the CONFIGURATION and DIRECTORY SETUP sections of the startup
// report. An error means the process cannot run at all; recoverable
// problems only disable the affected feature.
func LoadConfig() (*Config, error) {
	printBanner()
	logRuntime()

	section("CONFIGURATION")

	cfg := &Config{
		TextureDir:        envString("TEXTURE_DIR", "/textures"),
		CacheDir:          envString("CACHE_DIR", "/cache"),
		DatabaseDir:       envString("DATABASE_DIR", "/database"),
		Port:              envString("PORT", "8080"),
		MetricsPort:       envString("METRICS_PORT", "9090"),
		IndexInterval:     envDuration("INDEX_INTERVAL", 30*time.Minute),
		PollChanges:       envBool("POLL_CHANGES", true),
		ThumbnailsEnabled: envBool("THUMBNAILS_ENABLED", true),
		ThumbnailPrewarm:  envBool("THUMBNAIL_PREWARM", false),
		LogStaticFiles:    envBool("LOG_STATIC_FILES", false),
		LogHealthChecks:   envBool("LOG_HEALTH_CHECKS", true),
		MetricsEnabled:    envBool("METRICS_ENABLED", true),
	}

	for _, setting := range []struct {
		name  string
		value any
	}{
		{"TEXTURE_DIR", cfg.TextureDir},
		{"CACHE_DIR", cfg.CacheDir},
		{"DATABASE_DIR", cfg.DatabaseDir},
		{"PORT", cfg.Port},
		{"METRICS_PORT", cfg.MetricsPort},
		{"METRICS_ENABLED", cfg.MetricsEnabled},
		{"INDEX_INTERVAL", cfg.IndexInterval},
		{"POLL_CHANGES", cfg.PollChanges},
		{"THUMBNAILS_ENABLED", cfg.ThumbnailsEnabled},
		{"THUMBNAIL_PREWARM", cfg.ThumbnailPrewarm},
		{"LOG_STATIC_FILES", cfg.LogStaticFiles},
		{"LOG_HEALTH_CHECKS", cfg.LogHealthChecks},
		{"LOG_LEVEL", logging.GetLevel()},
	} {
		logging.Info("  %-20s %v", setting.name+":", setting.value)
	}

	section("DIRECTORY SETUP")

	var err error
	if cfg.TextureDir, err = absDir(cfg.TextureDir, "texture"); err != nil {
		return nil, err
	}
	if cfg.CacheDir, err = absDir(cfg.CacheDir, "cache"); err != nil {
		return nil, err
	}
	if cfg.DatabaseDir, err = absDir(cfg.DatabaseDir, "database"); err != nil {
		return nil, err
	}

	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "texture_index.db")
	cfg.ThumbnailDir = filepath.Join(cfg.CacheDir, "thumbnails")

	// The texture tree is usually a read-only mount that can appear after
	// the container starts. A problem here is worth a warning, not a
	// refusal to boot: the indexer retries on its own schedule.
	if err := prepareDir(cfg.TextureDir); err != nil {
		logging.Warn("  Texture directory: %v", err)
	} else {
		surveyTextureDir(cfg.TextureDir)
	}

	// SQLite creates the database file plus WAL and SHM siblings, so the
	// database directory must accept writes before anything else runs.
	if err := prepareDir(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory: %w", err)
	}
	if err := probeWrite(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory must be writable: %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	// Thumbnails degrade instead of failing: a broken cache mount turns
	// the feature off and the API answers 503 for thumbnail requests.
	if cfg.ThumbnailsEnabled {
		if err := prepareWritableDir(cfg.ThumbnailDir); err != nil {
			logging.Warn("  Thumbnail cache unusable, disabling thumbnails: %v", err)
			cfg.ThumbnailsEnabled = false
		}
	} else {
		logging.Info("  Thumbnails disabled via THUMBNAILS_ENABLED")
	}
	cfg.ThumbnailPrewarm = cfg.ThumbnailPrewarm && cfg.ThumbnailsEnabled

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Database:    ENABLED (required)")
	logging.Info("    Thumbnails:  %s", featureState(cfg.ThumbnailsEnabled))
	logging.Info("    Pre-warm:    %s", featureState(cfg.ThumbnailPrewarm))
	logging.Info("    Metrics:     %s", featureState(cfg.MetricsEnabled))

	return cfg, nil
}

// absDir resolves path and echoes the result so the report always shows
// where a relative TEXTURE_DIR actually landed.
func absDir(path, what string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s directory %q: %w", what, path, err)
	}
	logging.Info("  Resolved %s directory: %s", what, abs)
	return abs, nil
}

// prepareDir creates path if it is missing and verifies it is a directory.
func prepareDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(path, 0o755)
	case err != nil:
		return err
	case !info.IsDir():
		return fmt.Errorf("%s exists but is not a directory", path)
	}
	return nil
}

// probeWrite confirms path accepts new files by writing and removing a
// probe file.
func probeWrite(path string) error {
	probe := filepath.Join(path, ".write-probe")
	if err := os.WriteFile(probe, []byte("probe"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(probe); err != nil {
		logging.Warn("  Could not remove write probe %s: %v", probe, err)
	}
	return nil
}

func prepareWritableDir(path string) error {
	if err := prepareDir(path); err != nil {
		return err
	}
	return probeWrite(path)
}

// surveyTextureDir reports a top-level entry count at debug level so an
// empty or mis-mounted texture root is visible in the logs.
func surveyTextureDir(path string) {
	if !logging.IsDebugEnabled() {
		return
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return
	}
	var files, dirs int
	for _, entry := range entries {
		if entry.IsDir() {
			dirs++
		} else {
			files++
		}
	}
	logging.Debug("  Texture root holds %d files and %d directories at the top level", files, dirs)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logging.Warn("%s=%q is not a boolean, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logging.Warn("%s=%q is not a duration, using %v", key, v, fallback)
		return fallback
	}
	return d
}
