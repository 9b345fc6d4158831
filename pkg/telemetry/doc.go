// Package telemetry groups the observability layers of the proxy.
//
// The package itself holds no code; each concern lives in its own
// subpackage and is wired independently, so a deployment can run any
// subset:
//
//   - logging: structured slog logging (JSON or text)
//   - metrics: Prometheus collector, served on the admin listener
//   - tracing: OpenTelemetry spans with W3C trace context propagation
//   - health: liveness and readiness checks for the probe endpoints
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	logger.InstallDefault()
//
//	collector := metrics.NewCollector(metrics.Config{Enabled: true}, nil)
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// Everything here stays off the data plane's hot path where possible:
// the logging middleware writes one line per request, metric updates
// are counter increments, and spans are only recorded when sampled.
package telemetry
