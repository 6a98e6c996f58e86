package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"texture-index/internal/logging"
)

// RetryConfig controls how stale-handle retries behave.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// VolumeResolver overrides the package default for this operation.
	// Nil falls through to the resolver set at startup.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig retries three times, backing off from 50ms to a 500ms
// cap. Worst case a permanently stale path costs about a second.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// StatWithRetry is os.Stat with stale NFS handle retries.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry is os.Open with stale NFS handle retries.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// isStaleHandle reports whether err is ESTALE from any depth of wrapping.
func isStaleHandle(err error) bool {
	var errno syscall.Errno
	return errors.As(err, &errno) && errno == syscall.ESTALE
}

// withRetry runs op until it stops failing with a stale handle, sleeping
// between attempts with doubling backoff. Errors other than ESTALE return
// on the spot.
func withRetry[T any](opName, path string, config RetryConfig, op func() (T, error)) (T, error) {
	var zero T
	volume := config.resolveVolume(path)

	start := time.Now()
	defer func() {
		observer.ObserveRetryDuration(opName, volume, time.Since(start).Seconds())
	}()

	delay := config.InitialBackoff
	for attempt := 0; ; attempt++ {
		result, err := op()
		if err == nil {
			if attempt > 0 {
				logging.Info("NFS %s recovered on retry %d for %s", opName, attempt, path)
				observer.ObserveRetrySuccess(opName, volume)
			}
			return result, nil
		}
		if !isStaleHandle(err) {
			return zero, err
		}

		observer.ObserveStaleError(opName, volume)

		if attempt == config.MaxRetries {
			logging.Warn("NFS %s failed after %d retries for %s: %v", opName, config.MaxRetries, path, err)
			observer.ObserveRetryFailure(opName, volume)
			return zero, err
		}

		observer.ObserveRetryAttempt(opName, volume)
		logging.Debug("Stale NFS handle on %s %s, retry %d/%d in %v",
			opName, path, attempt+1, config.MaxRetries, delay)
		time.Sleep(delay)

		if delay *= 2; delay > config.MaxBackoff {
			delay = config.MaxBackoff
		}
	}
}
