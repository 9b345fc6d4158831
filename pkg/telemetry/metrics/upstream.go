package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UpstreamMetrics tracks metrics for upstream members and health probes.
//
// Metrics:
//   - charon_proxy_upstream_healthy: Member health status (1=healthy, 0=unhealthy)
//   - charon_proxy_upstream_active_requests: In-flight forwarded requests per member
//   - charon_proxy_upstream_requests_total: Forward outcomes per member
//   - charon_proxy_upstream_forward_duration_seconds: Forward latency per member
//   - charon_proxy_health_checks_total: Probe results per member
type UpstreamMetrics struct {
	// Member health status (gauge: 1=healthy, 0=unhealthy)
	healthy *prometheus.GaugeVec

	// In-flight forwarded requests per member
	active *prometheus.GaugeVec

	// Forward outcome counter
	requests *prometheus.CounterVec

	// Forward latency histogram
	forwardDuration *prometheus.HistogramVec

	// Health probe counter
	healthChecks *prometheus.CounterVec
}

// NewUpstreamMetrics creates and registers upstream metrics with the provided registry.
func NewUpstreamMetrics(cfg Config, registry *prometheus.Registry) *UpstreamMetrics {
	um := &UpstreamMetrics{
		healthy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_healthy",
				Help:      "Upstream member health status (1=healthy, 0=unhealthy)",
			},
			[]string{"upstream"},
		),

		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_active_requests",
				Help:      "In-flight forwarded requests per upstream member",
			},
			[]string{"upstream"},
		),

		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_requests_total",
				Help:      "Total forwarded requests per upstream member by outcome",
			},
			[]string{"upstream", "outcome"},
		),

		forwardDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "upstream_forward_duration_seconds",
				Help:      "Forward latency per upstream member in seconds",
				Buckets:   cfg.DurationBuckets, // Reuse request duration buckets
			},
			[]string{"upstream"},
		),

		healthChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "health_checks_total",
				Help:      "Total health probes per upstream member by result",
			},
			[]string{"upstream", "result"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		um.healthy,
		um.active,
		um.requests,
		um.forwardDuration,
		um.healthChecks,
	)

	return um
}

// UpdateHealth updates the health status gauge for a member.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (um *UpstreamMetrics) UpdateHealth(upstream string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	um.healthy.WithLabelValues(upstream).Set(value)
}

// UpdateActive sets the in-flight request gauge for a member.
func (um *UpstreamMetrics) UpdateActive(upstream string, n int64) {
	um.active.WithLabelValues(upstream).Set(float64(n))
}

// RecordForward records the outcome and latency of one forwarded request.
//
// Outcomes:
//   - "success": upstream response relayed (any HTTP status)
//   - "timeout": forward deadline exceeded
//   - "connection_failed": dial error
//   - "error": any other transport failure
func (um *UpstreamMetrics) RecordForward(upstream, outcome string, duration time.Duration) {
	um.requests.WithLabelValues(upstream, outcome).Inc()
	um.forwardDuration.WithLabelValues(upstream).Observe(duration.Seconds())
}

// RecordHealthCheck records one probe result for a member.
func (um *UpstreamMetrics) RecordHealthCheck(upstream string, success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	um.healthChecks.WithLabelValues(upstream, result).Inc()
}
