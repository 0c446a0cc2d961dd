package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nyapix_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nyapix_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nyapix_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nyapix_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nyapix_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nyapix_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds by outcome",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nyapix_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Search metrics
var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nyapix_search_requests_total",
			Help: "Total number of searches by kind and status",
		},
		[]string{"kind", "status"}, // kind: "content", "album"
	)

	SearchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nyapix_search_duration_seconds",
			Help:    "Search duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	SearchCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nyapix_search_candidates",
			Help:    "Number of items matching the facet query before access filtering",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"kind"},
	)

	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nyapix_search_results",
			Help:    "Number of items matching a search after access filtering",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000, 10000, 50000},
		},
		[]string{"kind"},
	)
)

// Catalogue metrics
var (
	ContentsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nyapix_contents_total",
			Help: "Total number of content items by media kind",
		},
		[]string{"media"}, // "image", "video", "audio", "none"
	)

	FacetsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nyapix_facets_total",
			Help: "Total number of facets by kind",
		},
		[]string{"kind"},
	)

	AlbumsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nyapix_albums_total",
			Help: "Total number of albums",
		},
	)

	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nyapix_users_total",
			Help: "Total number of user accounts",
		},
	)

	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nyapix_uploads_total",
			Help: "Total number of media uploads by media kind and status",
		},
		[]string{"media", "status"},
	)

	UploadBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nyapix_upload_bytes_total",
			Help: "Total bytes stored by media uploads",
		},
		[]string{"media"},
	)
)

// Authentication metrics
var (
	AuthAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nyapix_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"status"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nyapix_memory_usage_ratio",
			Help: "Heap usage as a ratio of the configured memory limit",
		},
	)

	MemoryThrottled = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nyapix_memory_throttled",
			Help: "Whether uploads are refused because of memory pressure (1 = refusing)",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "nyapix_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
