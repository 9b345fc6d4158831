// Package health runs named component checks and serves the probe
// endpoints on the admin listener.
//
// A Checker holds one CheckFunc per component. The composition root
// registers checks for whatever the process depends on; the engine's
// standard set is the data-plane listener, the upstream pool, and
// journal storage. Checks run concurrently, each under its own timeout,
// so one stuck component cannot wedge a probe.
//
// Liveness answers immediately without running checks. Readiness runs
// the full set and degrades when any component reports unhealthy; the
// HTTP handler turns that into a 503 so load balancers and orchestrators
// pull the instance.
//
// # Basic Usage
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("upstreams", func(ctx context.Context) error {
//	    if pool.Stats().HealthyMembers == 0 {
//	        return errors.New("no healthy members")
//	    }
//	    return nil
//	})
//
//	mux.HandleFunc("/health", checker.LivenessHandler())
//	mux.HandleFunc("/ready", checker.ReadinessHandler())
//
// The admin API also wraps CheckReadiness for its /admin/health
// endpoint, so operators and probes see the same component verdicts.
package health
