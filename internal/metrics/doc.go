// Package metrics provides Prometheus instrumentation for nyapix.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "nyapix_".
//
// # Metric Categories
//
// HTTP metrics track request counts, durations and in-flight requests.
//
// Database metrics track query counts and durations per operation, as well
// as transaction durations by outcome and open connections.
//
// Search metrics record, per search kind ("content" or "album"), the number
// of requests by status, their duration, the size of the candidate set the
// facet query produced and the number of results left after access
// filtering.
//
// Catalogue metrics are gauges refreshed by a [Collector]: content items by
// media kind, facets by kind, albums and users. Upload counters are updated
// as media is stored.
//
// # Collector
//
//	collector := metrics.NewCollector(db, time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// P95 content search latency:
//
//	histogram_quantile(0.95, sum(rate(nyapix_search_duration_seconds_bucket{kind="content"}[5m])) by (le))
//
// Share of candidates hidden by the access rule:
//
//	1 - sum(rate(nyapix_search_results_sum[5m])) / sum(rate(nyapix_search_candidates_sum[5m]))
package metrics
