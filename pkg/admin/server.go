package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/config"
	"stratos-hq/charon/pkg/router"
	"stratos-hq/charon/pkg/telemetry/health"
	"stratos-hq/charon/pkg/telemetry/metrics"
	"stratos-hq/charon/pkg/upstream"
)

// Deps collects the components the admin API reports on and controls.
type Deps struct {
	// Admission serves the stats snapshot and the unblock endpoint.
	// Required.
	Admission *admission.Controller

	// Upstreams serves the pool snapshot on /admin/stats. Required.
	Upstreams *upstream.Manager

	// Routes serves /admin/routes and the route count. Required.
	Routes *router.Table

	// Checker runs the component checks behind /ready and /admin/health.
	// When nil an empty checker is used and the probes always pass.
	Checker *health.Checker

	// Collector backs the Prometheus scrape endpoint. When nil the
	// endpoint is not mounted.
	Collector *metrics.Collector

	// Config supplies the active configuration for /admin/config.
	// When nil the endpoint reports 503.
	Config func() *config.Config

	// Reload triggers a configuration reload for /admin/reload.
	// When nil the endpoint reports 503.
	Reload func() error

	// Version is the build version reported by /status.
	Version string

	// MetricsPath is where the scrape endpoint mounts. Default: "/metrics"
	MetricsPath string
}

// Server is the operator API listener.
type Server struct {
	config config.AdminConfig
	deps   Deps
	logger *slog.Logger

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
	started    time.Time
	isRunning  bool
}

// NewServer creates the admin server. Call Start to bind the listener.
func NewServer(cfg config.AdminConfig, deps Deps) *Server {
	if deps.Checker == nil {
		deps.Checker = health.New(0)
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = "/metrics"
	}

	return &Server{
		config: cfg,
		deps:   deps,
		logger: slog.Default().With("component", "admin"),
	}
}

// Start binds the listener and begins serving in the background. It
// returns once the address is bound, so a bad address fails fast; serve
// errors after that are logged, not returned.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("admin server already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("admin listener on %s: %w", s.config.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler: s.buildHandler(),

		// Admin payloads are small; fixed modest timeouts are enough.
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.started = time.Now()
	s.isRunning = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("admin server failed", "error", err)
		}
	}()

	s.logger.Info("admin server started",
		"address", ln.Addr().String(),
		"auth", s.config.APIKey != "",
	)
	return nil
}

// Shutdown stops the listener gracefully, waiting for in-flight
// requests up to the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}
	s.isRunning = false

	err := s.httpServer.Shutdown(ctx)
	s.logger.Info("admin server stopped")
	return err
}

// Addr returns the bound listen address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// IsRunning reports whether the listener is up.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the admin handler without binding a listener.
func (s *Server) Handler() http.Handler {
	return s.buildHandler()
}

// buildHandler assembles the endpoint mux wrapped with panic recovery.
func (s *Server) buildHandler() http.Handler {
	mux := http.NewServeMux()

	// Probe endpoints keep their bare formats for standard tooling.
	mux.HandleFunc("/health", s.deps.Checker.LivenessHandler())
	mux.HandleFunc("/ready", s.deps.Checker.ReadinessHandler())

	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/admin/health", s.handleHealth)
	mux.HandleFunc("/admin/stats", s.handleStats)
	mux.HandleFunc("/admin/routes", s.handleRoutes)

	// Key-guarded: these expose or change configuration and state.
	mux.HandleFunc("/admin/config", s.requireKey(s.handleConfig))
	mux.HandleFunc("/admin/reload", s.requireKey(s.handleReload))
	mux.HandleFunc("/admin/unblock", s.requireKey(s.handleUnblock))

	if s.deps.Collector != nil {
		mux.Handle(s.deps.MetricsPath, s.deps.Collector.Handler())
	}

	return s.recoverPanics(mux)
}

// recoverPanics keeps a handler panic from killing the listener.
func (s *Server) recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("admin handler panic",
					"panic", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeJSON(w, http.StatusInternalServerError, Response{
					Success: false,
					Message: "internal error",
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// uptimeSeconds is the whole seconds since Start.
func (s *Server) uptimeSeconds() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.started.IsZero() {
		return 0
	}
	return int64(time.Since(s.started).Seconds())
}
