package filesystem

// Observer receives retry outcomes. The metrics package implements it;
// keeping the interface here breaks the import cycle that a direct metrics
// dependency would create.
type Observer interface {
	// opName is "stat" or "open"; volume comes from the VolumeResolver.
	ObserveRetryAttempt(opName, volume string)
	ObserveRetrySuccess(opName, volume string)
	ObserveRetryFailure(opName, volume string)
	ObserveRetryDuration(opName, volume string, seconds float64)
	ObserveStaleError(opName, volume string)
}

// observer starts as a no-op so tests and tools that never call SetObserver
// still work.
var observer Observer = nopObserver{}

// SetObserver installs the metrics sink. Call once at startup, before the
// first retried operation.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	observer = o
}

type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveStaleError(string, string)             {}
