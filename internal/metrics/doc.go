// Package metrics defines the Prometheus instrumentation for the service.
//
// Every collector lives under the texture_index namespace and registers with
// the default registry at package load, so importing the package is enough to
// make a metric scrapeable through promhttp.Handler on the metrics port.
// Counters and histograms are updated inline by the packages doing the work:
// the HTTP middleware, the database layer, the indexer and scanner, the
// thumbnail pipeline, the filesystem retry wrapper and the memory watcher.
//
// Gauges describing the index as a whole are refreshed by a Collector, which
// polls a StatsProvider on a fixed interval and then runs any updater
// functions attached with AddUpdater (database file sizes, thumbnail cache
// totals). InitializeMetrics pre-registers the label combinations dashboards
// rely on, so rate() starts from a zero sample instead of an absent series.
//
// Queries this surface is designed around:
//
//	histogram_quantile(0.95, sum(rate(texture_index_http_request_duration_seconds_bucket[5m])) by (le, path))
//	rate(texture_index_thumbnail_cache_hits_total[5m])
//	texture_index_indexer_running
package metrics
