package startup

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"texture-index/internal/logging"
	"texture-index/internal/memory"
)

const rule = "------------------------------------------------------------"

const banner = `
------------------------------------------------------------
  ______          __                      ____          __
 /_  __/__  _  __/ /___  __________     /  _/___  ____/ /__  _  __
  / / / _ \| |/_/ __/ / / / ___/ _ \    / // __ \/ __  / _ \| |/_/
 / / /  __/>  </ /_/ /_/ / /  /  __/  _/ // / / / /_/ /  __/>  <
/_/  \___/_/|_|\__/\__,_/_/   \___/  /___/_/ /_/\__,_/\___/_/|_|

------------------------------------------------------------`

// section prints the heading that opens each phase of the startup report.
func section(title string) {
	logging.Info("")
	logging.Info(rule)
	logging.Info(title)
	logging.Info(rule)
}

func printBanner() {
	fmt.Println(banner)
	logging.Info("  Version %s (%s) built %s", Version, Commit, BuildTime)
	logging.Info("  Started %s", time.Now().Format(time.RFC1123))
}

func logRuntime() {
	section("RUNTIME")
	logging.Info("  Go:        %s", runtime.Version())
	logging.Info("  Platform:  %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs:      %d (GOMAXPROCS %d)", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  Scheduler capped below CPU count, container limit assumed")
	}
	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Workdir:   %s", wd)
		}
		if host, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:  %s", host)
		}
	}
}

// LogMemoryConfig reports how the Go heap limit was derived. It belongs
// to the CONFIGURATION section, so main calls it right after LoadConfig.
func LogMemoryConfig(result memory.ConfigResult) {
	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("  Memory limit:        %s (from GOMEMLIMIT)", humanBytes(result.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("  Memory limit:        %s (%.0f%% of %s container limit)",
			humanBytes(result.GoMemLimit),
			result.Ratio*100,
			humanBytes(result.ContainerLimit))
	default:
		logging.Debug("  Memory limit:        not configured")
	}
}

// LogDatabaseInit closes the database phase of the startup report.
func LogDatabaseInit(elapsed time.Duration) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", elapsed)
}

// LogThumbnailInit notes when thumbnails are unavailable. There is no
// output in the normal case, the feature summary already covers it.
func LogThumbnailInit(enabled bool) {
	if !enabled {
		logging.Info("  Thumbnails disabled (off or cache directory not writable)")
		logging.Info("  Thumbnail requests will return 503")
	}
}

// LogIndexerInit opens the indexer phase of the startup report.
func LogIndexerInit(interval time.Duration) {
	section("INDEXER INITIALIZATION")
	logging.Info("  Index interval: %v", interval)
	logging.Info("  Starting indexer...")
}

// LogIndexerStarted confirms the background indexer is running.
func LogIndexerStarted() {
	logging.Info("  [OK] Indexer started")
}

// ServerConfig describes the listening endpoints for LogServerStarted.
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted prints the closing section of the startup report with
// the addresses a local operator would paste into a browser.
func LogServerStarted(config ServerConfig) {
	section("SERVER STARTED")
	logging.Info("  Ready in %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Web UI and API:  http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop")
	logging.Info(rule)
	logging.Info("")
}

// LogShutdownInitiated opens the shutdown section. The signal name makes
// an orchestrator restart distinguishable from an operator interrupt.
func LogShutdownInitiated(signal string) {
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep traces a shutdown stage at debug level.
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete confirms a shutdown stage.
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete is the last line the process prints.
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs the message and exits with status 1.
func LogFatal(format string, args ...any) {
	logging.Fatal(format, args...)
}

func featureState(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// humanBytes renders b in binary units with one decimal, matching the
// style of the rest of the startup report.
func humanBytes(b int64) string {
	if b < 1024 {
		return strconv.FormatInt(b, 10) + " B"
	}
	value := float64(b)
	for _, unit := range []string{"KiB", "MiB", "GiB", "TiB", "PiB"} {
		value /= 1024
		if value < 1024 {
			return strconv.FormatFloat(value, 'f', 1, 64) + " " + unit
		}
	}
	return strconv.FormatFloat(value/1024, 'f', 1, 64) + " EiB"
}
