// Charon is a reverse proxy traffic engine for HTTP backends.
//
// It sits in front of pools of upstream servers, providing:
//   - Admission control: token-bucket rate limiting, request size caps,
//     automatic temporary IP blocking, and connection flood protection
//   - Priority-ordered routing with exact, prefix, and parameterized
//     path patterns
//   - Load-balanced forwarding with active upstream health checks
//   - An append-only traffic journal for audit
//   - Prometheus metrics and OpenTelemetry tracing
//
// Usage:
//
//	# Start server with default configuration
//	charon run
//
//	# Start with custom configuration file
//	charon run --config /path/to/config.yaml
//
//	# Validate a configuration file
//	charon validate --config /path/to/config.yaml
//
//	# Show status of a running instance
//	charon status
//
//	# Remove an IP from the blocklist
//	charon unblock 203.0.113.7
//
//	# Query the traffic journal
//	charon journal query --kind ip_blocked --limit 20
//
// For complete documentation, see: https://github.com/stratos-hq/charon
package main

func main() {
	Execute()
}
