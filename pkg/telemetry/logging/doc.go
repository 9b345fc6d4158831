// Package logging provides structured logging for the proxy.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Context-aware logging with request IDs and routing metadata
//   - Component-tagged child loggers
//   - Configurable log levels (debug, info, warn, error)
//
// # Usage
//
//	// Create a logger
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	// Log structured data
//	logger.Info("request forwarded",
//	    "request_id", "req-123",
//	    "upstream", "backend-2",
//	    "duration_ms", 12,
//	)
//
//	// Create context-aware logger
//	ctx := logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithClientIP(ctx, "203.0.113.7")
//	ctxLogger := logger.WithContext(ctx)
//	ctxLogger.Info("admitted") // Includes request_id and client_ip automatically
//
// # Component Loggers
//
// Subsystems tag their log lines with a component attribute so output can
// be filtered per concern:
//
//	admissionLog := logger.WithComponent("admission")
//	admissionLog.Warn("source blocked", "ip", ip, "reason", reason)
//
// # Performance
//
// Disabled levels return before argument processing, so debug logging in
// hot paths costs under a microsecond when filtered out.
package logging
