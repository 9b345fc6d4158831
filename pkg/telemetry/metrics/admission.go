package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AdmissionMetrics tracks metrics for the admission controller.
//
// Metrics:
//   - charon_proxy_admission_decisions_total: Admission verdicts by name
//   - charon_proxy_blocks_total: Block record creations by reason
//   - charon_proxy_blocked_ips: Currently active block records
//   - charon_proxy_tracked_ips: IPs with a live per-IP token bucket
type AdmissionMetrics struct {
	// Admission verdict counter
	decisions *prometheus.CounterVec

	// Block record creation counter
	blocks *prometheus.CounterVec

	// Active block record gauge
	blockedIPs prometheus.Gauge

	// Per-IP bucket table size gauge
	trackedIPs prometheus.Gauge
}

// NewAdmissionMetrics creates and registers admission metrics with the provided registry.
func NewAdmissionMetrics(cfg Config, registry *prometheus.Registry) *AdmissionMetrics {
	am := &AdmissionMetrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "admission_decisions_total",
				Help:      "Total admission evaluations by verdict",
			},
			[]string{"verdict"},
		),

		blocks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "blocks_total",
				Help:      "Total block records created by reason",
			},
			[]string{"reason"},
		),

		blockedIPs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "blocked_ips",
				Help:      "Currently active block records",
			},
		),

		trackedIPs: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tracked_ips",
				Help:      "Source IPs with a live per-IP token bucket",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		am.decisions,
		am.blocks,
		am.blockedIPs,
		am.trackedIPs,
	)

	return am
}

// RecordDecision increments the verdict counter for one admission check.
// Verdict names are a small fixed set, so the label is safe to use as-is.
func (am *AdmissionMetrics) RecordDecision(verdict string) {
	am.decisions.WithLabelValues(verdict).Inc()
}

// RecordBlock increments the block counter for one created block record.
//
// Reasons:
//   - "rate_limit_exceeded": per-IP token bucket tripped with auto-block on
//   - "request_too_large": request body above the configured maximum
//   - "too_many_connections": concurrent connection ceiling exceeded
//   - "ddos_detection": connection rate over the sliding window exceeded
func (am *AdmissionMetrics) RecordBlock(reason string) {
	am.blocks.WithLabelValues(reason).Inc()
}

// UpdateBlockedIPs sets the active block record gauge.
func (am *AdmissionMetrics) UpdateBlockedIPs(n int) {
	am.blockedIPs.Set(float64(n))
}

// UpdateTrackedIPs sets the per-IP bucket table size gauge.
func (am *AdmissionMetrics) UpdateTrackedIPs(n int) {
	am.trackedIPs.Set(float64(n))
}
