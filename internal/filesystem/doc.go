// Package filesystem wraps os.Stat and os.Open with retries for stale NFS
// file handles.
//
// Texture libraries usually live on network mounts. When the NFS server
// re-exports or a file is replaced underneath a cached handle, reads fail
// with ESTALE even though the path is perfectly valid. A fresh lookup
// recovers, so [StatWithRetry] and [OpenWithRetry] reissue the operation
// with capped exponential backoff:
//
//	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
//
// The defaults retry three times starting at 50ms and capping at 500ms.
// Only ESTALE triggers a retry; every other error returns immediately, so
// a missing file costs exactly one syscall.
//
// The scanner's stat-and-hash pass, thumbnail source reads, and original
// file serving all come through here. Retry outcomes flow to Prometheus
// through [Observer], implemented by the metrics package and installed at
// startup with [SetObserver]; metric labels carry a volume name resolved
// from the path by [VolumeResolver] so a flaky mount is identifiable in
// dashboards.
package filesystem
