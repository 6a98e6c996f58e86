package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// metricValue reads the current sample of a single metric.
func metricValue(t *testing.T, m prometheus.Metric) *dto.Metric {
	t.Helper()
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("reading metric: %v", err)
	}
	return &out
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	return metricValue(t, c).GetCounter().GetValue()
}

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	return metricValue(t, g).GetGauge().GetValue()
}

// family fetches one metric family from the default registry by full name.
func family(t *testing.T, name string) *dto.MetricFamily {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	t.Fatalf("metric family %s not registered", name)
	return nil
}

// touchVecs instantiates one child per labeled family. WithLabelValues
// panics when the label count is wrong, so reaching the end is the point.
func touchVecs() {
	HTTPRequestsTotal.WithLabelValues("GET", "/api/textures", "200").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/api/textures").Observe(0.01)
	DBQueryTotal.WithLabelValues("search", "success").Inc()
	DBQueryDuration.WithLabelValues("search").Observe(0.001)
	DBTransactionDuration.WithLabelValues("commit").Observe(0.05)
	DBRowsAffected.WithLabelValues("upsert").Observe(100)
	DBSizeBytes.WithLabelValues("wal").Set(4096)
	ThumbnailGenerations.WithLabelValues("ok").Inc()
	ThumbnailPrewarmFiles.WithLabelValues("error").Inc()
	FilesystemRetryAttempts.WithLabelValues("stat", "textures").Inc()
	FilesystemRetrySuccess.WithLabelValues("stat", "textures").Inc()
	FilesystemRetryFailures.WithLabelValues("open", "cache").Inc()
	FilesystemRetryDuration.WithLabelValues("open", "cache").Observe(0.4)
	FilesystemStaleErrors.WithLabelValues("stat", "textures").Inc()
	TexturesByCategory.WithLabelValues("Apparel").Set(12)
	TexturesByFormat.WithLabelValues(".png").Set(40)
	AppInfo.WithLabelValues("dev", "none", "go1.25").Set(1)
}

func TestVecsAcceptDeclaredLabels(t *testing.T) {
	touchVecs()
}

// Every declared family must reach the gatherer under the shared namespace.
// Unlabeled metrics gather unconditionally; labeled ones need at least one
// child, which touchVecs provides.
func TestAllFamiliesGather(t *testing.T) {
	touchVecs()

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	count := 0
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), namespace+"_") {
			count++
		}
	}
	if count != 44 {
		t.Errorf("gathered %d %s families, want 44", count, namespace)
	}
}

func TestCountersAccumulate(t *testing.T) {
	before := counterValue(t, ScannerFilesDiscovered)
	ScannerFilesDiscovered.Inc()
	ScannerFilesDiscovered.Add(4)
	if d := counterValue(t, ScannerFilesDiscovered) - before; d != 5 {
		t.Errorf("counter delta = %v, want 5", d)
	}
}

func TestHistogramRecordsObservations(t *testing.T) {
	before := metricValue(t, IndexerPollDuration).GetHistogram().GetSampleCount()
	IndexerPollDuration.Observe(0.002)
	IndexerPollDuration.Observe(0.2)
	after := metricValue(t, IndexerPollDuration).GetHistogram().GetSampleCount()
	if d := after - before; d != 2 {
		t.Errorf("sample count delta = %d, want 2", d)
	}
}

func TestQueryDurationBuckets(t *testing.T) {
	DBQueryDuration.WithLabelValues("stats").Observe(0.004)

	mf := family(t, "texture_index_db_query_duration_seconds")
	buckets := mf.GetMetric()[0].GetHistogram().GetBucket()
	if len(buckets) != len(queryBuckets) {
		t.Fatalf("bucket count = %d, want %d", len(buckets), len(queryBuckets))
	}
	if got := buckets[0].GetUpperBound(); got != 0.001 {
		t.Errorf("first bucket bound = %v, want 0.001", got)
	}
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("v9.9.9", "abc1234", "go1.25.0")

	g, err := AppInfo.GetMetricWithLabelValues("v9.9.9", "abc1234", "go1.25.0")
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues: %v", err)
	}
	if v := gaugeValue(t, g); v != 1 {
		t.Errorf("app info gauge = %v, want 1", v)
	}
}

func TestInitializeMetricsPopulatesSeries(t *testing.T) {
	InitializeMetrics()
	InitializeMetrics() // WithLabelValues is get-or-create, repeat calls are harmless

	// 5 operations x 2 statuses.
	if n := len(family(t, "texture_index_db_queries_total").GetMetric()); n < 10 {
		t.Errorf("db_queries_total has %d series, want at least 10", n)
	}
	// 2 operations x 4 volumes.
	if n := len(family(t, "texture_index_filesystem_retry_attempts_total").GetMetric()); n < 8 {
		t.Errorf("filesystem_retry_attempts_total has %d series, want at least 8", n)
	}
}

func TestConcurrentUpdates(t *testing.T) {
	const workers, rounds = 8, 250

	before := counterValue(t, IndexerFilesProcessed)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				IndexerFilesProcessed.Inc()
				HTTPRequestsInFlight.Inc()
				HTTPRequestsInFlight.Dec()
				MemoryUsageRatio.Set(0.5)
			}
		}()
	}
	wg.Wait()

	if d := counterValue(t, IndexerFilesProcessed) - before; d != workers*rounds {
		t.Errorf("counter delta = %v, want %d", d, workers*rounds)
	}
}
