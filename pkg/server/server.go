// Package server runs the data-plane HTTP listener.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/config"
	"stratos-hq/charon/pkg/proxy/middleware"
	"stratos-hq/charon/pkg/telemetry/metrics"
	"stratos-hq/charon/pkg/telemetry/tracing"
)

// Server is the data-plane HTTP server. It owns the listener, wraps the
// pipeline handler in the middleware chain, and feeds connection events
// into admission control.
type Server struct {
	config       config.ServerConfig
	admission    *admission.Controller
	inner        http.Handler
	collector    *metrics.Collector
	tracer       *tracing.Tracer
	httpServer   *http.Server
	activeConns  atomic.Int64
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	stopOnce     sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates the data-plane server around the pipeline handler.
// The controller receives connection open/close events through the
// http.Server ConnState hook.
func NewServer(cfg config.ServerConfig, handler http.Handler, ctrl *admission.Controller) *Server {
	return &Server{
		config:       cfg,
		admission:    ctrl,
		inner:        handler,
		shutdownChan: make(chan struct{}),
	}
}

// SetMetrics attaches a metrics collector. Call before Start.
func (s *Server) SetMetrics(collector *metrics.Collector) {
	s.collector = collector
}

// SetTracer attaches a tracer; each request then runs under a server
// span. Call before Start.
func (s *Server) SetTracer(tracer *tracing.Tracer) {
	s.tracer = tracer
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.buildChain(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
		ConnState:      s.connState,
	}

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server", "address", s.config.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Set up signal handlers
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		slog.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		slog.Info("shutdown requested")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server, draining in-flight
// requests up to the configured shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		slog.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("proxy server stopped")
	})

	return shutdownErr
}

// Stop requests shutdown from another goroutine. Start returns once the
// shutdown completes.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// ActiveConnections returns the number of currently open client
// connections.
func (s *Server) ActiveConnections() int64 {
	return s.activeConns.Load()
}

// Handler returns the fully wrapped HTTP handler. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.buildChain()
}

// buildChain wraps the pipeline handler in the middleware chain.
// Recovery sits outermost so panics anywhere below still produce a
// well-formed response.
func (s *Server) buildChain() http.Handler {
	handler := s.inner

	handler = middleware.TimeoutMiddleware(s.config.ForwardTimeout)(handler)
	if s.tracer != nil {
		handler = middleware.TracingMiddleware(s.tracer)(handler)
	}
	handler = middleware.RequestIDMiddleware(handler)
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.RecoveryMiddleware(handler)

	return handler
}

// connState feeds connection lifecycle events into admission control
// and the active-connection gauge. A connection the controller refuses
// is closed before a single byte is read.
func (s *Server) connState(conn net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		n := s.activeConns.Add(1)
		s.updateGauge(n)

		ip := remoteIP(conn)
		if !s.admission.TrackConnection(ip, true) {
			slog.Warn("connection refused by admission control", "source_ip", ip)
			conn.Close()
		}

	case http.StateClosed, http.StateHijacked:
		s.admission.TrackConnection(remoteIP(conn), false)
		n := s.activeConns.Add(-1)
		s.updateGauge(n)
	}
}

func (s *Server) updateGauge(n int64) {
	if s.collector != nil {
		s.collector.UpdateActiveConnections(int(n))
	}
}

// remoteIP extracts the bare IP from a connection's remote address.
func remoteIP(conn net.Conn) string {
	addr := conn.RemoteAddr().String()
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
