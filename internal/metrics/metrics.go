package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Wallet analysis metrics
	WalletAnalyses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletscore_wallet_analyses_total",
			Help: "Total number of wallet analyses",
		},
		[]string{"network", "status"}, // success, cached, failed
	)

	WalletAnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walletscore_wallet_analysis_duration_seconds",
			Help:    "Duration of wallet analyses",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"network"},
	)

	TrustScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "walletscore_trust_scores",
			Help:    "Distribution of computed trust scores (0-100)",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// Provider metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletscore_provider_requests_total",
			Help: "Total number of upstream provider requests",
		},
		[]string{"provider", "status"}, // success, error, not_configured
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "walletscore_provider_request_duration_seconds",
			Help:    "Duration of upstream provider requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"provider"},
	)

	// Cache metrics
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletscore_cache_operations_total",
			Help: "Total number of cache operations",
		},
		[]string{"operation", "status"}, // get/set/delete, hit/miss/success/error
	)

	// Rate limiting metrics
	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletscore_rate_limit_rejections_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"window"}, // minute, hour
	)

	// Anomaly metrics
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletscore_anomalies_detected_total",
			Help: "Total number of anomalies flagged during analyses",
		},
		[]string{"type"},
	)

	// System health
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "walletscore_health_checks_total",
			Help: "Total number of health check requests",
		},
		[]string{"status"}, // healthy/unhealthy
	)
)

// RecordAnalysis records wallet analysis metrics
func RecordAnalysis(network, status string, duration time.Duration) {
	WalletAnalyses.WithLabelValues(network, status).Inc()
	WalletAnalysisDuration.WithLabelValues(network).Observe(duration.Seconds())
}

// RecordProviderRequest records upstream provider request metrics
func RecordProviderRequest(provider string, duration time.Duration, status string) {
	ProviderRequests.WithLabelValues(provider, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCacheOperation records cache operation metrics
func RecordCacheOperation(operation, status string) {
	CacheOperations.WithLabelValues(operation, status).Inc()
}

// RecordHealthCheck records health check status
func RecordHealthCheck(healthy bool) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	HealthChecks.WithLabelValues(status).Inc()
}
