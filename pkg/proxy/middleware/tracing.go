package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"stratos-hq/charon/pkg/telemetry/tracing"
)

// TracingMiddleware opens a server span around each request. The span
// continues a trace carried in the inbound W3C headers when present and
// starts a new root otherwise; the forwarding path injects the active
// context into the outbound request so the trace runs caller, proxy,
// upstream.
//
// With tracing disabled the tracer hands out noop spans, so the header
// extraction still keeps cross-proxy propagation intact.
//
// Example usage:
//
//	handler = TracingMiddleware(tracer)(handler)
func TracingMiddleware(tracer *tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracing.Extract(r.Context(), r.Header)

			ctx, span := tracer.Start(ctx, "proxy.request",
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPMethod(r.Method),
					semconv.HTTPTarget(r.URL.Path),
				),
			)
			defer span.End()

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r.WithContext(ctx))

			span.SetAttributes(semconv.HTTPStatusCode(sw.status))
			if sw.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(sw.status))
			}
		})
	}
}
