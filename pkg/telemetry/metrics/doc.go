// Package metrics provides Prometheus metrics collection for Charon.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring
// request forwarding, admission control, upstream health, and the
// traffic journal. It provides high-performance metric collection with
// minimal overhead per request.
//
// # Metrics Categories
//
//   - Request Metrics: request count, duration, sizes, active connections
//   - Admission Metrics: decisions by verdict, blocks by reason, blocked
//     and tracked IP gauges
//   - Upstream Metrics: per-member request outcomes, health state,
//     active connections, health-check results
//   - Journal Metrics: recorded events, drops, prune runs
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(config, registry)
//
//	// Record request metrics
//	collector.RecordRequest(
//		"/api/*",        // route
//		"backend-1",     // upstream
//		200,             // status
//		150*time.Millisecond,
//	)
//
//	// Record admission metrics
//	collector.RecordAdmission("rate_limited")
//	collector.RecordBlock("ddos_detection")
//
//	// Record upstream metrics
//	collector.UpdateUpstreamHealth("backend-1", true)
//
// # Prometheus Endpoint
//
// All metrics are exposed on the admin listener's /metrics endpoint in
// standard Prometheus format:
//
//	# HELP charon_proxy_requests_total Total number of requests
//	# TYPE charon_proxy_requests_total counter
//	charon_proxy_requests_total{route="/api/*",upstream="backend-1",status="200"} 1234
//
// # Cardinality Management
//
// The collector implements cardinality limits to prevent memory issues:
//
//   - Maximum 10,000 unique label combinations per metric
//   - Overflow label sets aggregated into "other"
//
// Route and upstream labels come from configuration and stay small;
// source IPs are unbounded and deliberately never become labels.
package metrics
