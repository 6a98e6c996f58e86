package metrics

// filesystemObserver feeds retry outcomes into the Filesystem* metrics. It
// lives here rather than in the filesystem package so that package stays
// free of a metrics import.
type filesystemObserver struct{}

// NewFilesystemObserver returns an observer for filesystem.SetObserver.
func NewFilesystemObserver() filesystemObserver {
	return filesystemObserver{}
}

func (filesystemObserver) ObserveRetryAttempt(op, volume string) {
	FilesystemRetryAttempts.WithLabelValues(op, volume).Inc()
}

func (filesystemObserver) ObserveRetrySuccess(op, volume string) {
	FilesystemRetrySuccess.WithLabelValues(op, volume).Inc()
}

func (filesystemObserver) ObserveRetryFailure(op, volume string) {
	FilesystemRetryFailures.WithLabelValues(op, volume).Inc()
}

func (filesystemObserver) ObserveRetryDuration(op, volume string, seconds float64) {
	FilesystemRetryDuration.WithLabelValues(op, volume).Observe(seconds)
}

func (filesystemObserver) ObserveStaleError(op, volume string) {
	FilesystemStaleErrors.WithLabelValues(op, volume).Inc()
}
