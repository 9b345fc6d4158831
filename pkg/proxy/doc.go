// Package proxy implements the data-plane request pipeline.
//
// Every inbound request passes three stages in order: admission control,
// route matching, destination dispatch. Denials and routing misses are
// answered directly; admitted, matched requests are forwarded to an
// upstream pool member, served from a static root, or answered by the
// built-in health endpoint.
//
// # Architecture
//
// The pipeline is a plain http.Handler wrapped by the middleware chain:
//
//	Recovery(Logging(RequestID(Timeout(Handler))))
//
// Inside the handler:
//
//	admission.CheckRequest(sourceIP, size)
//	     ↓ denied: 403/429/503 + journal entry
//	routes.Match(method, path, host)
//	     ↓ miss: 404
//	dispatch by destination kind
//	     proxy  -> upstreams.Forward, relay the response
//	     static -> http.FileServer under the route's root
//	     health -> 200 JSON liveness
//	     admin  -> 404 (admin has its own listener)
//
// # Status Mapping
//
// The pipeline produces errors only in the standard envelope (see
// ErrorResponse); upstream responses, including upstream errors, are
// relayed untouched.
//
//	Admission denied (blocked, rate limited, globally limited)  429 + Retry-After
//	Admission denied (blacklisted)                              403
//	Admission denied (connection ceiling)                       503
//	No matching route                                           404
//	No healthy upstream / connection failed / unavailable       502
//	Forward deadline exceeded                                   504
//
// # Basic Usage
//
//	handler := proxy.NewHandler(ctrl, routes, upstreams)
//	handler.SetJournal(rec)
//	handler.SetMetrics(collector)
//
//	chain := middleware.RecoveryMiddleware(
//	    middleware.LoggingMiddleware(
//	        middleware.RequestIDMiddleware(
//	            middleware.TimeoutMiddleware(cfg.Server.ForwardTimeout)(handler))))
//
// # Observability
//
// With a metrics collector attached the handler records one admission
// verdict and one request observation (route, member, status, duration)
// per request. Denied requests are journaled as admission_denied events;
// the journal write never blocks the request path.
package proxy
