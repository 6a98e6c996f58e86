package metrics

// InitializeMetrics pre-populates labeled metrics with zero values so they
// are present in the first scrape instead of appearing only after the
// corresponding event fires.
func InitializeMetrics() {
	dbOperations := []string{"upsert", "get_by_path", "search", "all", "stats"}
	statuses := []string{"success", "error"}

	for _, op := range dbOperations {
		for _, status := range statuses {
			DBQueryTotal.WithLabelValues(op, status)
		}
		DBQueryDuration.WithLabelValues(op)
	}

	for _, outcome := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(outcome)
	}
	DBRowsAffected.WithLabelValues("upsert")

	fsOperations := []string{"stat", "open"}
	volumes := []string{"textures", "cache", "database", "unknown"}
	for _, op := range fsOperations {
		for _, volume := range volumes {
			FilesystemRetryAttempts.WithLabelValues(op, volume)
			FilesystemRetrySuccess.WithLabelValues(op, volume)
			FilesystemRetryFailures.WithLabelValues(op, volume)
			FilesystemRetryDuration.WithLabelValues(op, volume)
			FilesystemStaleErrors.WithLabelValues(op, volume)
		}
	}

	for _, status := range []string{"ok", "error"} {
		ThumbnailGenerations.WithLabelValues(status)
		ThumbnailPrewarmFiles.WithLabelValues(status)
	}
}
