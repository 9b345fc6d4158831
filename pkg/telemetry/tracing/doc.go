// Package tracing provides OpenTelemetry distributed tracing for the
// proxy: span creation around proxied requests and W3C Trace Context
// propagation from clients through to upstream members.
//
// Spans are exported over OTLP gRPC. When tracing is disabled in the
// configuration, New returns a tracer backed by the noop provider and
// every operation in this package costs almost nothing.
//
// # Basic Usage
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	srv.SetTracing(tracer)       // server span per request
//	upstreams.SetTracer(tracer)  // client span per forward
//
// The data-plane middleware extracts any inbound traceparent header, so
// requests arriving from instrumented callers join their existing trace.
// The upstream manager injects the active span context into outbound
// headers, so instrumented backends continue it.
//
// # Span Layout
//
// One server span ("proxy.request") covers the whole pipeline: admission,
// routing, and dispatch. Forwarded requests add a client span
// ("proxy.forward") that lasts until the relayed response body is closed,
// carrying the pool and member that served the request.
//
// # Sampling
//
// The sample_ratio setting drives a TraceIDRatioBased sampler wrapped in
// ParentBased: requests that arrive with a sampled (or explicitly
// unsampled) parent follow the parent's decision, and only trace roots
// consult the ratio. Ratio 1.0 records everything, 0.0 nothing.
package tracing
