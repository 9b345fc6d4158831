package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks metrics for data-plane request processing.
//
// Metrics:
//   - charon_proxy_requests_total: Total request count by route, upstream, status
//   - charon_proxy_request_duration_seconds: Request duration histogram
//   - charon_proxy_request_size_bytes: Admitted request body sizes
//   - charon_proxy_active_connections: Currently open client connections
type RequestMetrics struct {
	// Total request count
	requestsTotal *prometheus.CounterVec

	// Request duration histogram
	requestDuration *prometheus.HistogramVec

	// Request body size in bytes
	sizeBytes *prometheus.HistogramVec

	// Open client connections
	activeConnections prometheus.Gauge
}

// NewRequestMetrics creates and registers request metrics with the provided registry.
func NewRequestMetrics(cfg Config, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of requests processed",
			},
			[]string{"route", "upstream", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_duration_seconds",
				Help:      "Duration of requests in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"route", "upstream"},
		),

		sizeBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "request_size_bytes",
				Help:      "Size of admitted request bodies in bytes",
				Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256B to 64MB
			},
			[]string{"route"},
		),

		activeConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "active_connections",
				Help:      "Currently open client connections",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.sizeBytes,
		rm.activeConnections,
	)

	return rm
}

// RecordRequest records metrics for a completed request.
func (rm *RequestMetrics) RecordRequest(route, upstream string, status int, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(route, upstream, strconv.Itoa(status)).Inc()
	rm.requestDuration.WithLabelValues(route, upstream).Observe(duration.Seconds())
}

// RecordSize records the size of an admitted request body.
func (rm *RequestMetrics) RecordSize(route string, sizeBytes int64) {
	if sizeBytes > 0 {
		rm.sizeBytes.WithLabelValues(route).Observe(float64(sizeBytes))
	}
}

// UpdateActiveConnections sets the open client connection gauge.
func (rm *RequestMetrics) UpdateActiveConnections(n int) {
	rm.activeConnections.Set(float64(n))
}
