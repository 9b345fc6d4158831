// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// This package implements middleware functions that handle common functionality
// across all data-plane requests: request ID generation, structured logging,
// panic recovery, and timeout propagation.
//
// # Middleware Chain
//
// Middleware functions are chained in a specific order:
//
//	handler = Recovery(Logging(RequestID(Timeout(handler))))
//
// Order (innermost to outermost):
//  1. Timeout: attach the per-request deadline to the context
//  2. RequestID: generate and propagate request ID
//  3. Logging: log request/response details
//  4. Recovery: recover from panics
//
// Recovery sits outermost so a panic anywhere in the chain still
// produces a well-formed 500 response.
//
// # Request ID
//
// RequestIDMiddleware generates a 32-character hex ID for each request
// (or trusts one the client supplied):
//
//	X-Request-ID: a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6
//
// The request ID is:
//   - Added to context for handler access
//   - Included in response headers
//   - Logged with all request/response logs
//
// # Logging
//
// LoggingMiddleware uses structured logging (log/slog) to record request details:
//
//	{
//	  "time": "2026-08-25T10:30:00Z",
//	  "level": "INFO",
//	  "msg": "request completed",
//	  "method": "GET",
//	  "path": "/api/users",
//	  "status": 200,
//	  "latency_ms": 12,
//	  "request_id": "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
//	}
//
// The completion log level follows the status code: 5xx logs at error,
// 4xx at warn, everything else at info.
//
// # Recovery
//
// RecoveryMiddleware catches panics in handlers and converts them to HTTP 500
// errors in the standard error envelope:
//
//	{
//	  "error": {
//	    "message": "An internal error occurred. Please try again later.",
//	    "status": 500,
//	    "reason": "internal_error"
//	  }
//	}
//
// The panic stack trace is logged but not exposed to clients.
//
// # Timeout
//
// TimeoutMiddleware attaches a deadline to the request context:
//
//	ctx, cancel := context.WithTimeout(r.Context(), timeout)
//	defer cancel()
//
// The deadline rides the context into the outbound forward; when it
// expires the forward fails with a timeout and the destination handler
// answers 504. The middleware itself never writes a response, so there
// is only ever one writer per request.
//
// # Context Values
//
// Middleware stores values in context for handler access:
//
//	type contextKey string
//
//	const (
//	    RequestIDKey contextKey = "request_id"
//	    StartTimeKey contextKey = "start_time"
//	)
//
// Handlers retrieve them through GetRequestID and GetStartTime.
//
// # Thread Safety
//
// All middleware functions are thread-safe and can be called concurrently
// from multiple goroutines.
package middleware
