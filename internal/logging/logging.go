package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
)

// LogLevel orders message severities. Lower values are chattier.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level     LogLevel
	levelOnce sync.Once
)

// levelFromEnv resolves the starting level. A truthy DEBUG wins over
// LOG_LEVEL so one variable can force verbosity on a running deployment.
func levelFromEnv() LogLevel {
	switch strings.ToLower(os.Getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// GetLevel returns the active level, reading the environment on first use.
func GetLevel() LogLevel {
	levelOnce.Do(func() { level = levelFromEnv() })
	return level
}

// SetLevel pins the level for the rest of the process, overriding the
// environment. The CLI uses it to keep stderr quiet unless asked.
func SetLevel(l LogLevel) {
	// Consume the once so a later GetLevel cannot clobber the override.
	levelOnce.Do(func() {})
	level = l
}

// IsDebugEnabled reports whether Debug output is live, for callers that
// would otherwise build expensive debug strings for nothing.
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func emit(l LogLevel, tag, format string, args []any) {
	if GetLevel() <= l {
		log.Printf(tag+format, args...)
	}
}

// Debug logs fine-grained progress, visible only at debug level.
func Debug(format string, args ...any) { emit(LevelDebug, "[DEBUG] ", format, args) }

// Info logs normal operation.
func Info(format string, args ...any) { emit(LevelInfo, "[INFO] ", format, args) }

// Warn logs recoverable problems.
func Warn(format string, args ...any) { emit(LevelWarn, "[WARN] ", format, args) }

// Error logs failures that need attention.
func Error(format string, args ...any) { emit(LevelError, "[ERROR] ", format, args) }

// Fatal logs the message and terminates the process with status 1.
func Fatal(format string, args ...any) {
	log.Fatalf("[FATAL] "+format, args...)
}

// String renders the level the way LOG_LEVEL spells it.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}
