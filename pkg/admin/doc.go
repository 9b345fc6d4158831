// Package admin serves the operator API on its own listener, separate
// from the data plane.
//
// The listener defaults to 127.0.0.1:9090 and is never reachable
// through the proxy's route table; a data-plane route whose destination
// is the admin kind returns 404 there. Everything an operator needs at
// runtime lives here: aggregate health, traffic statistics, the active
// route table, the running configuration, reload and unblock controls,
// and the Prometheus scrape endpoint.
//
// # Endpoints
//
//	GET  /health         liveness probe (process is up)
//	GET  /ready          readiness probe (component checks, 503 when degraded)
//	GET  /status         process status: uptime, version, Go runtime
//	GET  /admin/health   aggregate component health, wrapped in the API envelope
//	GET  /admin/stats    upstream pool, admission, and route table statistics
//	GET  /admin/routes   the active route table in match order
//	GET  /admin/config   the running configuration as YAML, secrets masked
//	POST /admin/reload   re-read the configuration file and apply tunables
//	POST /admin/unblock  remove a live block record, body {"ip": "..."}
//	GET  /metrics        Prometheus exposition (path configurable)
//
// Every /admin and /status response uses a single envelope:
//
//	{
//	    "success": true,
//	    "data": { ... },
//	    "message": "only set when success is false"
//	}
//
// The probe endpoints (/health, /ready), /admin/config (YAML), and
// /metrics keep their bare formats so standard tooling can consume
// them directly.
//
// # Authentication
//
// When an API key is configured, the mutating and config-exposing
// endpoints (/admin/config, /admin/reload, /admin/unblock) require it
// in the X-Admin-Key header. Keys are compared in constant time.
// Read-only statistics and the probe endpoints stay open; the listener
// binds to loopback by default, which is the primary boundary.
//
// # Basic Usage
//
//	srv := admin.NewServer(cfg.Admin, admin.Deps{
//	    Admission: controller,
//	    Upstreams: pool,
//	    Routes:    table,
//	    Checker:   checker,
//	    Collector: collector,
//	    Config:    config.GetConfig,
//	    Reload:    reloadFn,
//	})
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Shutdown(context.Background())
package admin
