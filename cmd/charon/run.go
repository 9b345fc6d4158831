package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/admin"
	"stratos-hq/charon/pkg/admission"
	"stratos-hq/charon/pkg/cli"
	"stratos-hq/charon/pkg/config"
	"stratos-hq/charon/pkg/journal"
	"stratos-hq/charon/pkg/journal/recorder"
	"stratos-hq/charon/pkg/journal/retention"
	"stratos-hq/charon/pkg/journal/storage"
	"stratos-hq/charon/pkg/proxy"
	"stratos-hq/charon/pkg/router"
	"stratos-hq/charon/pkg/server"
	"stratos-hq/charon/pkg/telemetry/health"
	"stratos-hq/charon/pkg/telemetry/logging"
	"stratos-hq/charon/pkg/telemetry/metrics"
	"stratos-hq/charon/pkg/telemetry/tracing"
	"stratos-hq/charon/pkg/upstream"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Charon proxy server",
	Long: `Start the Charon proxy server with the specified configuration.

The server listens on the configured address, runs every request through
admission control, matches it against the route table, and forwards it to
a load-balanced upstream pool. Operational state is served on a separate
admin listener.

Examples:
  # Start with default config
  charon run

  # Start with custom config
  charon run --config /etc/charon/config.yaml

  # Override listen address
  charon run --listen 0.0.0.0:8080

  # Validate config without starting server
  charon run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	// Initialize logging based on config
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.InstallDefault()

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics collector
	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.IsEnabled() {
		collector = metrics.NewCollector(metrics.Config{Enabled: true}, nil)
	}

	// Tracing
	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to initialize tracing: %w", err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		if err := tracer.Shutdown(flushCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()
	if tracer.Enabled() {
		fmt.Printf("✓ Tracing enabled (exporting to %s)\n", cfg.Telemetry.Tracing.Endpoint)
	}

	// Traffic journal (if enabled)
	var journalStorage journal.Storage
	var rec *recorder.Recorder
	if cfg.Journal.IsEnabled() {
		slog.Info("initializing journal", "backend", cfg.Journal.Backend)

		switch cfg.Journal.Backend {
		case "sqlite":
			journalStorage, err = storage.NewSQLiteStorage(&storage.SQLiteConfig{
				Path:         cfg.Journal.SQLite.Path,
				MaxOpenConns: cfg.Journal.SQLite.MaxOpenConns,
				MaxIdleConns: cfg.Journal.SQLite.MaxIdleConns,
				BusyTimeout:  cfg.Journal.SQLite.BusyTimeout,
			})
			if err != nil {
				return fmt.Errorf("failed to create SQLite storage: %w", err)
			}
		case "memory":
			journalStorage = storage.NewMemoryStorage()
		default:
			return fmt.Errorf("unsupported journal backend: %s", cfg.Journal.Backend)
		}
		defer journalStorage.Close()

		rec = recorder.NewRecorder(journalStorage, &recorder.Config{
			Buffer:       cfg.Journal.Recorder.Buffer,
			WriteTimeout: cfg.Journal.Recorder.WriteTimeout,
		})
		rec.SetMetrics(collector)
		defer rec.Close()

		// Start retention pruner if a schedule is configured
		if cfg.Journal.Retention.PruneSchedule != "" {
			pruner := retention.NewPruner(journalStorage, &retention.Config{
				Days:       cfg.Journal.Retention.Days,
				Schedule:   cfg.Journal.Retention.PruneSchedule,
				MaxRecords: cfg.Journal.Retention.MaxRecords,
			})
			pruner.SetMetrics(collector)
			if err := pruner.Start(ctx); err != nil {
				slog.Warn("failed to start retention scheduler", "error", err)
			} else {
				defer pruner.Stop()
				if next := pruner.NextPruning(); next != nil {
					slog.Debug("journal retention scheduler started", "next_pruning", next)
				}
			}
		}

		fmt.Printf("✓ Journal initialized (%s)\n", cfg.Journal.Backend)
	}

	hooks := &journalHooks{rec: rec}

	// Admission controller
	slog.Info("initializing admission control",
		"rate_limit_enabled", cfg.RateLimit.Enabled,
		"ddos_enabled", cfg.DDoS.Enabled,
	)
	ctrl := admission.NewController(cfg.RateLimit, cfg.DDoS)
	ctrl.SetMetrics(collector)
	if rec != nil {
		ctrl.SetBlockListener(hooks)
	}
	ctrl.StartCleanup(ctx)
	defer ctrl.Stop()

	// Route table
	table := router.NewTable(router.FromConfig(cfg.Routes))
	fmt.Printf("✓ Route table loaded (%d routes)\n", table.Len())

	// Upstream pool
	manager, err := upstream.NewManager(cfg.Upstreams, cfg.LoadBalancing, cfg.HealthCheck, cfg.Server.ForwardTimeout)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to create upstream manager: %w", err))
	}
	manager.SetMetrics(collector)
	if rec != nil {
		manager.SetHealthListener(hooks)
	}
	manager.StartHealthChecks(ctx)
	defer manager.StopHealthChecks()
	fmt.Printf("✓ Upstream pool initialized (%d members, %s)\n",
		len(manager.Members()), cfg.LoadBalancing.Method)

	// Data-plane pipeline and server
	handler := proxy.NewHandler(ctrl, table, manager)
	handler.SetMetrics(collector)
	if rec != nil {
		handler.SetJournal(rec)
	}

	srv := server.NewServer(cfg.Server, handler, ctrl)
	srv.SetMetrics(collector)
	srv.SetTracer(tracer)

	// Reload path shared by the admin endpoint and the config watcher.
	// Routes, admission settings, and probe tuning apply live; upstream
	// membership is fixed for the life of the process.
	applyConfig := func(newCfg *config.Config) {
		table.Replace(router.FromConfig(newCfg.Routes))
		ctrl.ApplyConfig(newCfg.RateLimit, newCfg.DDoS)
		manager.ApplyHealthConfig(newCfg.HealthCheck)

		if upstreamsChanged(cfg.Upstreams, newCfg.Upstreams) {
			slog.Warn("upstream pool changed in config, restart required to apply")
		}

		if rec != nil {
			rec.Record(&journal.Event{
				Kind:   journal.KindConfigReloaded,
				Detail: cfgFile,
			})
		}

		slog.Info("configuration applied",
			"routes", table.Len(),
			"rate_limit_enabled", newCfg.RateLimit.Enabled,
			"ddos_enabled", newCfg.DDoS.Enabled,
		)
	}

	// Admin API (if enabled)
	if cfg.Admin.IsEnabled() {
		checker := health.New(0)
		checker.RegisterCheck("proxy", func(ctx context.Context) error {
			if !srv.IsRunning() {
				return fmt.Errorf("data plane not running")
			}
			return nil
		})
		checker.RegisterCheck("upstreams", func(ctx context.Context) error {
			if manager.Stats().HealthyMembers == 0 {
				return upstream.ErrNoHealthyUpstream
			}
			return nil
		})
		if sqlite, ok := journalStorage.(*storage.SQLiteStorage); ok {
			checker.RegisterCheck("journal", sqlite.Ping)
		}

		adminSrv := admin.NewServer(cfg.Admin, admin.Deps{
			Admission: ctrl,
			Upstreams: manager,
			Routes:    table,
			Checker:   checker,
			Collector: collector,
			Config:    config.GetConfig,
			Reload: func() error {
				if err := config.ReloadConfig(cfgFile); err != nil {
					return err
				}
				applyConfig(config.GetConfig())
				return nil
			},
			Version:     Version,
			MetricsPath: cfg.Telemetry.Metrics.Path,
		})
		if err := adminSrv.Start(); err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to start admin server: %w", err))
		}
		defer func() {
			drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer drainCancel()
			if err := adminSrv.Shutdown(drainCtx); err != nil {
				slog.Error("admin server shutdown failed", "error", err)
			}
		}()
		fmt.Printf("✓ Admin API listening on %s\n", adminSrv.Addr())
	}

	// Config file watcher for hot reload
	watcher, err := config.NewWatcher(cfgFile, func(newCfg *config.Config) {
		config.SetConfig(newCfg)
		applyConfig(newCfg)
	})
	if err != nil {
		slog.Warn("config watcher unavailable, hot reload disabled", "error", err)
	} else if err := watcher.Start(ctx); err != nil {
		slog.Warn("config watcher failed to start, hot reload disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	// Start data-plane server in background goroutine
	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting proxy server", "address", cfg.Server.ListenAddress)
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// Wait for server to be ready
	if err := waitForServerReady(cfg.Server.ListenAddress, 5*time.Second); err != nil {
		return fmt.Errorf("server failed to start: %w", err)
	}

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		// Graceful shutdown with timeout
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Charon v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	slog.Debug("engine configured",
		"upstreams", len(cfg.Upstreams),
		"routes", len(cfg.Routes),
		"lb_method", cfg.LoadBalancing.Method,
	)

	if cfg.RateLimit.Enabled {
		slog.Debug("rate limiting enabled",
			"requests_per_minute", cfg.RateLimit.RequestsPerMinute,
			"burst", cfg.RateLimit.Burst,
		)
	}
	if cfg.DDoS.Enabled {
		slog.Debug("flood protection enabled",
			"max_connections_per_ip", cfg.DDoS.MaxConnectionsPerIP,
			"connection_rate_limit", cfg.DDoS.ConnectionRateLimit,
		)
	}
	if cfg.Journal.IsEnabled() {
		slog.Debug("journal enabled", "backend", cfg.Journal.Backend)
	}
}

// upstreamsChanged reports whether the configured member set differs.
// Membership is fixed at startup; the reload path only retunes routes,
// admission, and probe settings.
func upstreamsChanged(prev, next []config.UpstreamConfig) bool {
	if len(prev) != len(next) {
		return true
	}
	addrs := make(map[string]string, len(prev))
	for _, u := range prev {
		addrs[u.Name] = fmt.Sprintf("%s:%d/%d", u.Address, u.Port, u.Weight)
	}
	for _, u := range next {
		if addrs[u.Name] != fmt.Sprintf("%s:%d/%d", u.Address, u.Port, u.Weight) {
			return true
		}
	}
	return false
}

// waitForServerReady polls the listen address until it accepts
// connections or the timeout passes.
func waitForServerReady(address string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", address, 250*time.Millisecond)
		if err == nil {
			conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("no listener on %s after %s", address, timeout)
}
