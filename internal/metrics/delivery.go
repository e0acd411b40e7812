// Package metrics provides Prometheus metrics for the trackgate delivery path.
// Labels are bounded enums; resource, lobby and principal ids never become labels.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TokensIssuedTotal counts minted tokens by kind (stream|segment|preload|legacy).
	TokensIssuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_tokens_issued_total",
		Help: "Total number of tokens minted, by kind.",
	}, []string{"kind"})

	// TokenVerificationsTotal counts verification outcomes by kind and result
	// (ok or one of the rejection reasons).
	TokenVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_token_verifications_total",
		Help: "Total number of token verifications, by kind and result.",
	}, []string{"kind", "result"})

	// ManifestsIssuedTotal counts manifests handed to clients.
	ManifestsIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trackgate_manifests_issued_total",
		Help: "Total number of segment manifests issued.",
	})

	// ManifestSegments tracks how many segments each manifest carries.
	ManifestSegments = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackgate_manifest_segments",
		Help:    "Number of segments per issued manifest.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	// BytesServedTotal counts payload bytes written per endpoint (segment|stream|hls|legacy).
	BytesServedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_bytes_served_total",
		Help: "Total media bytes served, by endpoint.",
	}, []string{"endpoint"})

	// OriginRejectedTotal counts requests refused by the origin heuristic.
	OriginRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_origin_rejected_total",
		Help: "Total number of requests rejected by the origin check, by endpoint.",
	}, []string{"endpoint"})

	// FetchDuration tracks backend range/info latency.
	FetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackgate_fetch_duration_seconds",
		Help:    "Backend fetch latency by backend and operation.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"backend", "op"})

	// FetchFailuresTotal counts backend errors other than not-found.
	FetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_fetch_failures_total",
		Help: "Total number of backend fetch failures, by backend and operation.",
	}, []string{"backend", "op"})

	// SizeCacheTotal counts size cache lookups by result (hit|miss|invalidate).
	SizeCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_size_cache_total",
		Help: "Size cache lookups by result.",
	}, []string{"result"})

	// AnalyzerDuration tracks FFT analysis latency by FFT size.
	AnalyzerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackgate_analyzer_duration_seconds",
		Help:    "Time spent computing frequency data, by fft size.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	}, []string{"fft_size"})

	// PoolInFlight reports running jobs per work pool.
	PoolInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trackgate_pool_in_flight",
		Help: "Jobs currently running, by work pool.",
	}, []string{"pool"})

	// PoolRejectedTotal counts jobs abandoned while waiting for a pool slot.
	PoolRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackgate_pool_rejected_total",
		Help: "Jobs whose context ended before a pool slot was free, by pool.",
	}, []string{"pool"})
)

// IncTokenIssued records a minted token.
func IncTokenIssued(kind string) {
	TokensIssuedTotal.WithLabelValues(kind).Inc()
}

// IncTokenIssuedN records n minted tokens of one kind.
func IncTokenIssuedN(kind string, n int) {
	if n > 0 {
		TokensIssuedTotal.WithLabelValues(kind).Add(float64(n))
	}
}

// IncTokenVerification records a verification outcome. An empty reason means success.
func IncTokenVerification(kind, reason string) {
	result := "ok"
	if reason != "" {
		result = reason
	}
	TokenVerificationsTotal.WithLabelValues(kind, result).Inc()
}

// ObserveManifest records an issued manifest.
func ObserveManifest(segments int) {
	ManifestsIssuedTotal.Inc()
	ManifestSegments.Observe(float64(segments))
}

// AddBytesServed records payload bytes for an endpoint.
func AddBytesServed(endpoint string, n int) {
	if n > 0 {
		BytesServedTotal.WithLabelValues(endpoint).Add(float64(n))
	}
}

// IncOriginRejected records an origin rejection.
func IncOriginRejected(endpoint string) {
	OriginRejectedTotal.WithLabelValues(endpoint).Inc()
}

// ObserveFetch records one backend call.
func ObserveFetch(backend, op string, d time.Duration, failed bool) {
	FetchDuration.WithLabelValues(backend, op).Observe(d.Seconds())
	if failed {
		FetchFailuresTotal.WithLabelValues(backend, op).Inc()
	}
}

// IncSizeCache records a size cache event.
func IncSizeCache(result string) {
	SizeCacheTotal.WithLabelValues(result).Inc()
}

// ObserveAnalyzer records one analysis pass.
func ObserveAnalyzer(fftSize string, d time.Duration) {
	AnalyzerDuration.WithLabelValues(fftSize).Observe(d.Seconds())
}

// IncPoolRejected records a job that gave up waiting for a slot.
func IncPoolRejected(pool string) {
	PoolRejectedTotal.WithLabelValues(pool).Inc()
}
