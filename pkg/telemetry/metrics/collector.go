package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config contains settings for the metrics collector.
type Config struct {
	// Enabled controls whether metrics are recorded. When false every
	// Record method returns immediately.
	Enabled bool

	// Namespace is the metric name prefix. Default: "charon"
	Namespace string

	// Subsystem is the second metric name segment. Default: "proxy"
	Subsystem string

	// DurationBuckets are the histogram buckets for request durations in
	// seconds. Default covers 1ms to 30s.
	DurationBuckets []float64
}

// Collector is the main orchestrator for all Prometheus metrics in Charon.
// It manages metric registration and provides a unified interface for
// recording metrics across all components.
//
// The collector is designed for minimal overhead on the request path:
//   - Pre-allocated metric instances
//   - Bounded label values (route patterns, upstream names, verdicts)
//   - Cardinality limits as a backstop against label explosions
type Collector struct {
	config   Config
	registry *prometheus.Registry

	// Request metrics
	requestMetrics *RequestMetrics

	// Admission metrics
	admissionMetrics *AdmissionMetrics

	// Upstream metrics
	upstreamMetrics *UpstreamMetrics

	// Journal metrics
	journalMetrics *JournalMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
//
// Example:
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//	http.Handle("/metrics", collector.Handler())
func NewCollector(cfg Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "charon"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "proxy"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Reverse-proxy latencies: most requests finish well under a
		// second, the tail is bounded by the forward timeout.
		cfg.DurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	// Initialize metric subsystems
	c.requestMetrics = NewRequestMetrics(cfg, registry)
	c.admissionMetrics = NewAdmissionMetrics(cfg, registry)
	c.upstreamMetrics = NewUpstreamMetrics(cfg, registry)
	c.journalMetrics = NewJournalMetrics(cfg, registry)

	return c
}

// RecordRequest records metrics for a completed data-plane request.
//
// Parameters:
//   - route: matched route pattern (e.g., "/api/*"), or "unmatched"
//   - upstream: upstream member name, or "" for non-proxy destinations
//   - status: HTTP status code returned to the client
//   - duration: total request duration
func (c *Collector) RecordRequest(route, upstream string, status int, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	// Check cardinality limit
	labelSet := fmt.Sprintf("request:%s:%s", route, upstream)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		route = "other"
	}

	c.requestMetrics.RecordRequest(route, upstream, status, duration)
}

// RecordRequestSize records the admitted request body size in bytes.
func (c *Collector) RecordRequestSize(route string, sizeBytes int64) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.RecordSize(route, sizeBytes)
}

// UpdateActiveConnections sets the current number of open client
// connections on the data plane.
func (c *Collector) UpdateActiveConnections(n int) {
	if !c.config.Enabled {
		return
	}

	c.requestMetrics.UpdateActiveConnections(n)
}

// RecordAdmission records the verdict of one admission evaluation.
//
// Parameters:
//   - verdict: admission verdict name (e.g., "allowed", "rate_limited")
func (c *Collector) RecordAdmission(verdict string) {
	if !c.config.Enabled {
		return
	}

	c.admissionMetrics.RecordDecision(verdict)
}

// RecordBlock records the creation of a block record.
//
// Parameters:
//   - reason: block reason (e.g., "rate_limit_exceeded", "ddos_detection")
func (c *Collector) RecordBlock(reason string) {
	if !c.config.Enabled {
		return
	}

	c.admissionMetrics.RecordBlock(reason)
}

// UpdateBlockedIPs sets the current number of active block records.
func (c *Collector) UpdateBlockedIPs(n int) {
	if !c.config.Enabled {
		return
	}

	c.admissionMetrics.UpdateBlockedIPs(n)
}

// UpdateTrackedIPs sets the current number of per-IP connection trackers.
func (c *Collector) UpdateTrackedIPs(n int) {
	if !c.config.Enabled {
		return
	}

	c.admissionMetrics.UpdateTrackedIPs(n)
}

// RecordUpstreamRequest records the outcome of one forwarded request.
//
// Parameters:
//   - upstream: upstream member name
//   - outcome: "success", "timeout", "connection_failed", or "error"
//   - duration: forward duration
func (c *Collector) RecordUpstreamRequest(upstream, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordForward(upstream, outcome, duration)
}

// UpdateUpstreamHealth updates the health gauge for an upstream member.
// The health metric is a gauge where 1=healthy, 0=unhealthy.
func (c *Collector) UpdateUpstreamHealth(upstream string, healthy bool) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.UpdateHealth(upstream, healthy)
}

// UpdateUpstreamActive sets the in-flight request gauge for a member.
func (c *Collector) UpdateUpstreamActive(upstream string, n int64) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.UpdateActive(upstream, n)
}

// RecordHealthCheck records one health probe result.
//
// Parameters:
//   - upstream: upstream member name
//   - success: whether the probe returned the expected status
func (c *Collector) RecordHealthCheck(upstream string, success bool) {
	if !c.config.Enabled {
		return
	}

	c.upstreamMetrics.RecordHealthCheck(upstream, success)
}

// RecordJournalEvent records a journal event write by kind.
func (c *Collector) RecordJournalEvent(kind string) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordEvent(kind)
}

// RecordJournalDrop records a journal event dropped at a full buffer.
func (c *Collector) RecordJournalDrop() {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordDrop()
}

// RecordJournalPrune records a retention prune run and the rows it removed.
func (c *Collector) RecordJournalPrune(removed int64) {
	if !c.config.Enabled {
		return
	}

	c.journalMetrics.RecordPrune(removed)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric.
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
