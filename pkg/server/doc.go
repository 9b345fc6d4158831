// Package server runs the data-plane HTTP listener.
//
// This package ties the pipeline handler and the middleware chain to an
// http.Server and manages its lifecycle: start, graceful shutdown, and
// OS signal handling.
//
// # Architecture
//
// The server is the outermost layer of the data plane:
//   - Wraps the pipeline handler in the middleware chain
//     (Recovery, Logging, RequestID, Timeout)
//   - Feeds connection open/close events into admission control via the
//     http.Server ConnState hook; a connection the controller refuses
//     is closed before a single byte is read
//   - Maintains the active-connection gauge
//   - Manages graceful shutdown with a drain timeout
//   - Handles OS signals (SIGTERM, SIGINT)
//
// The listener speaks plain HTTP. TLS termination belongs in front of
// the proxy.
//
// # Basic Usage
//
//	pipeline := proxy.NewHandler(ctrl, routes, upstreams)
//
//	srv := server.NewServer(cfg.Server, pipeline, ctrl)
//	srv.SetMetrics(collector)
//
//	if err := srv.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Start blocks until the context is cancelled, a shutdown signal
// arrives, or Stop is called from another goroutine.
//
// # Graceful Shutdown
//
// Shutdown stops accepting new connections and drains in-flight
// requests up to ServerConfig.ShutdownTimeout. Connections still open
// after the timeout are dropped.
package server
