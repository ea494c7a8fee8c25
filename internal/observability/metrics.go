package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the evidence service.
// Metrics are organized by subsystem: resolutions, tiers, upstream sources,
// the DOI cache, and evidence extraction. All counters and histograms are
// registered via promauto for automatic registration with the default
// Prometheus registry.
type Metrics struct {
	// ResolutionsStarted counts full-text resolutions initiated.
	ResolutionsStarted prometheus.Counter

	// ResolutionsCompleted counts resolutions that produced a usable
	// document, labeled by the source that won.
	ResolutionsCompleted *prometheus.CounterVec

	// ResolutionsFailed counts resolutions where every tier was exhausted.
	ResolutionsFailed prometheus.Counter

	// ResolutionDuration observes end-to-end resolution duration in seconds.
	ResolutionDuration prometheus.Histogram

	// TierAttempts counts retrieval attempts, labeled by source tier.
	TierAttempts *prometheus.CounterVec

	// TierFailures counts tier attempts that yielded no usable document,
	// labeled by source tier.
	TierFailures *prometheus.CounterVec

	// TierDuration observes per-tier retrieval duration in seconds.
	TierDuration *prometheus.HistogramVec

	// SourceRequestsTotal counts HTTP requests to upstream sources, labeled
	// by source.
	SourceRequestsTotal *prometheus.CounterVec

	// SourceRequestRetries counts retried upstream requests, labeled by
	// source and reason ("server_error", "rate_limited", "transport").
	SourceRequestRetries *prometheus.CounterVec

	// SourceRateLimited counts 429 responses from upstream sources.
	SourceRateLimited *prometheus.CounterVec

	// CacheHits counts resolutions served from the DOI cache.
	CacheHits prometheus.Counter

	// CacheMisses counts resolutions that had to go upstream.
	CacheMisses prometheus.Counter

	// ExtractionsTotal counts evidence extraction runs, labeled by analysis
	// domain.
	ExtractionsTotal *prometheus.CounterVec

	// ExtractionDuration observes evidence extraction duration in seconds,
	// labeled by analysis domain.
	ExtractionDuration *prometheus.HistogramVec

	// KeywordsFound observes the number of distinct keywords per extraction,
	// labeled by analysis domain.
	KeywordsFound *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Resolutions
		ResolutionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_started_total",
			Help:      "Total number of full-text resolutions started",
		}),
		ResolutionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_completed_total",
			Help:      "Total number of resolutions completed by winning source",
		}, []string{"source"}),
		ResolutionsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_failed_total",
			Help:      "Total number of resolutions with all tiers exhausted",
		}),
		ResolutionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolution_duration_seconds",
			Help:      "End-to-end duration of full-text resolutions in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),

		// Tiers
		TierAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_attempts_total",
			Help:      "Total number of retrieval attempts by source tier",
		}, []string{"source"}),
		TierFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_failures_total",
			Help:      "Total number of tier attempts without a usable document",
		}, []string{"source"}),
		TierDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tier_duration_seconds",
			Help:      "Duration of per-tier retrieval attempts in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"source"}),

		// Upstream sources
		SourceRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_requests_total",
			Help:      "Total number of HTTP requests to upstream sources",
		}, []string{"source"}),
		SourceRequestRetries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_request_retries_total",
			Help:      "Total number of retried upstream requests by reason",
		}, []string{"source", "reason"}),
		SourceRateLimited: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_rate_limited_total",
			Help:      "Total number of rate limit responses from upstream sources",
		}, []string{"source"}),

		// Cache
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of resolutions served from the DOI cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of resolutions not found in the DOI cache",
		}),

		// Extraction
		ExtractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of evidence extraction runs by domain",
		}, []string{"domain"}),
		ExtractionDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Duration of evidence extraction runs in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"domain"}),
		KeywordsFound: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "keywords_found",
			Help:      "Number of distinct keywords found per extraction",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"domain"}),
	}
}

// RecordResolutionStarted records that a resolution has started.
func (m *Metrics) RecordResolutionStarted() {
	m.ResolutionsStarted.Inc()
}

// RecordResolutionCompleted records a resolution won by the given source.
func (m *Metrics) RecordResolutionCompleted(source string, durationSeconds float64) {
	m.ResolutionsCompleted.WithLabelValues(source).Inc()
	m.ResolutionDuration.Observe(durationSeconds)
}

// RecordResolutionFailed records a resolution that exhausted all tiers.
func (m *Metrics) RecordResolutionFailed(durationSeconds float64) {
	m.ResolutionsFailed.Inc()
	m.ResolutionDuration.Observe(durationSeconds)
}

// RecordTierAttempt records one tier retrieval attempt and its outcome.
func (m *Metrics) RecordTierAttempt(source string, usable bool, durationSeconds float64) {
	m.TierAttempts.WithLabelValues(source).Inc()
	m.TierDuration.WithLabelValues(source).Observe(durationSeconds)
	if !usable {
		m.TierFailures.WithLabelValues(source).Inc()
	}
}

// RecordSourceRequest records an HTTP request to an upstream source.
func (m *Metrics) RecordSourceRequest(source string) {
	m.SourceRequestsTotal.WithLabelValues(source).Inc()
}

// RecordSourceRetry records a retried upstream request.
func (m *Metrics) RecordSourceRetry(source, reason string) {
	m.SourceRequestRetries.WithLabelValues(source, reason).Inc()
}

// RecordSourceRateLimited records a rate limit response from a source.
func (m *Metrics) RecordSourceRateLimited(source string) {
	m.SourceRateLimited.WithLabelValues(source).Inc()
}

// RecordCacheHit records a resolution served from the cache.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss records a resolution that missed the cache.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// RecordExtraction records an evidence extraction run.
func (m *Metrics) RecordExtraction(domain string, keywordCount int, durationSeconds float64) {
	m.ExtractionsTotal.WithLabelValues(domain).Inc()
	m.ExtractionDuration.WithLabelValues(domain).Observe(durationSeconds)
	m.KeywordsFound.WithLabelValues(domain).Observe(float64(keywordCount))
}
