package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newSampler builds the sampler for the configured ratio. The ratio
// applies to trace roots only: the sampler is wrapped in ParentBased, so
// a span whose parent arrived over the wire inherits the parent's
// sampling decision. That keeps distributed traces whole: either every
// hop records or none does.
//
// The ratio decision hashes the trace ID, so all spans of one trace land
// on the same side of the cut regardless of which service asks.
func newSampler(ratio float64) (sdktrace.Sampler, error) {
	if ratio < 0.0 || ratio > 1.0 {
		return nil, fmt.Errorf("sample ratio must be in [0.0, 1.0], got %g", ratio)
	}

	var base sdktrace.Sampler
	switch ratio {
	case 0.0:
		base = sdktrace.NeverSample()
	case 1.0:
		base = sdktrace.AlwaysSample()
	default:
		base = sdktrace.TraceIDRatioBased(ratio)
	}

	return sdktrace.ParentBased(base), nil
}
