package tracing

import (
	"context"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
)

// W3C Trace Context rides two headers:
//
//	traceparent: version-trace_id-parent_id-trace_flags
//	             00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//	tracestate:  vendor-specific key=value pairs
//
// The proxy extracts them from inbound requests and injects the active
// span's context into outbound forwards, so a trace started by the
// caller continues through the proxy into the upstream.

// propagator handles both headers plus W3C Baggage. It is fixed rather
// than read from the otel global so Extract and Inject behave the same
// whether or not a tracer was ever initialized.
var propagator = propagation.NewCompositeTextMapPropagator(
	propagation.TraceContext{},
	propagation.Baggage{},
)

// Propagator returns the text map propagator used by Extract and Inject.
func Propagator() propagation.TextMapPropagator {
	return propagator
}

// Extract returns ctx extended with the trace context found in headers.
// With no (or malformed) trace headers, ctx comes back unchanged.
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "proxy.request")
func Extract(ctx context.Context, headers http.Header) context.Context {
	return propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the trace context from ctx into headers. A ctx without
// a valid span context injects nothing.
//
//	tracing.Inject(ctx, out.Header)
func Inject(ctx context.Context, headers http.Header) {
	propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}
