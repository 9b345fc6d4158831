package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "0.0.0.0:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultForwardTimeout  = 30 * time.Second
	DefaultMaxHeaderBytes  = 1048576 // 1MB

	// Admin defaults
	DefaultAdminListenAddress = "127.0.0.1:9090"

	// Upstream defaults
	DefaultUpstreamWeight   = 1
	DefaultUpstreamMaxFails = 3

	// Health check defaults
	DefaultHealthCheckInterval       = 30 * time.Second
	DefaultHealthCheckTimeout        = 5 * time.Second
	DefaultHealthCheckPath           = "/health"
	DefaultHealthCheckExpectedStatus = 200

	// Rate limit defaults
	DefaultRequestsPerMinute = 60
	DefaultBurst             = 10
	DefaultMaxRequestSize    = int64(10 << 20) // 10MiB
	DefaultBlockDuration     = 300 * time.Second

	// DDoS defaults
	DefaultMaxConnectionsPerIP = 100
	DefaultConnectionRateLimit = 50
	DefaultDDoSWindowSize      = 60 * time.Second

	// Load balancing defaults
	DefaultLoadBalancingMethod = "round_robin"

	// Journal defaults
	DefaultJournalBackend        = "sqlite"
	DefaultJournalSQLitePath     = "data/journal.db"
	DefaultJournalMaxOpenConns   = 10
	DefaultJournalMaxIdleConns   = 5
	DefaultJournalBusyTimeout    = 5 * time.Second
	DefaultJournalRecorderBuffer = 1024
	DefaultJournalWriteTimeout   = 5 * time.Second
	DefaultJournalRetentionDays  = 30
	DefaultJournalPruneSchedule  = "0 3 * * *"

	// Telemetry defaults
	DefaultLoggingLevel       = "info"
	DefaultLoggingFormat      = "json"
	DefaultMetricsPath        = "/metrics"
	DefaultTracingServiceName = "charon"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingTimeout     = 10 * time.Second
)

// ApplyDefaults applies default values to a Config struct.
// It sets defaults for any fields that have zero values.
// This function is idempotent and safe to call multiple times.
func ApplyDefaults(cfg *Config) {
	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.Server.ForwardTimeout == 0 {
		cfg.Server.ForwardTimeout = DefaultForwardTimeout
	}
	if cfg.Server.MaxHeaderBytes == 0 {
		cfg.Server.MaxHeaderBytes = DefaultMaxHeaderBytes
	}

	// Admin defaults
	if cfg.Admin.Enabled == nil {
		cfg.Admin.Enabled = boolPtr(true)
	}
	if cfg.Admin.ListenAddress == "" {
		cfg.Admin.ListenAddress = DefaultAdminListenAddress
	}

	// Upstream defaults, applied per member
	for i := range cfg.Upstreams {
		if cfg.Upstreams[i].Weight == 0 {
			cfg.Upstreams[i].Weight = DefaultUpstreamWeight
		}
		if cfg.Upstreams[i].MaxFails == 0 {
			cfg.Upstreams[i].MaxFails = DefaultUpstreamMaxFails
		}
		if cfg.Upstreams[i].Enabled == nil {
			cfg.Upstreams[i].Enabled = boolPtr(true)
		}
	}

	// Route defaults: kind is inferred from the destination fields.
	for i := range cfg.Routes {
		if cfg.Routes[i].Kind == "" {
			if cfg.Routes[i].Upstream != "" {
				cfg.Routes[i].Kind = "proxy"
			} else if cfg.Routes[i].Root != "" {
				cfg.Routes[i].Kind = "static"
			}
		}
	}

	// Load balancing defaults
	if cfg.LoadBalancing.Method == "" {
		cfg.LoadBalancing.Method = DefaultLoadBalancingMethod
	}

	// Health check defaults
	if cfg.HealthCheck.Enabled == nil {
		cfg.HealthCheck.Enabled = boolPtr(true)
	}
	if cfg.HealthCheck.Interval == 0 {
		cfg.HealthCheck.Interval = DefaultHealthCheckInterval
	}
	if cfg.HealthCheck.Timeout == 0 {
		cfg.HealthCheck.Timeout = DefaultHealthCheckTimeout
	}
	if cfg.HealthCheck.Path == "" {
		cfg.HealthCheck.Path = DefaultHealthCheckPath
	}
	if cfg.HealthCheck.ExpectedStatus == 0 {
		cfg.HealthCheck.ExpectedStatus = DefaultHealthCheckExpectedStatus
	}

	// Rate limit defaults
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = DefaultRequestsPerMinute
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = DefaultBurst
	}
	if cfg.RateLimit.MaxRequestSize == 0 {
		cfg.RateLimit.MaxRequestSize = DefaultMaxRequestSize
	}
	if cfg.RateLimit.BlockDuration == 0 {
		cfg.RateLimit.BlockDuration = DefaultBlockDuration
	}

	// DDoS defaults
	if cfg.DDoS.MaxConnectionsPerIP == 0 {
		cfg.DDoS.MaxConnectionsPerIP = DefaultMaxConnectionsPerIP
	}
	if cfg.DDoS.ConnectionRateLimit == 0 {
		cfg.DDoS.ConnectionRateLimit = DefaultConnectionRateLimit
	}
	if cfg.DDoS.WindowSize == 0 {
		cfg.DDoS.WindowSize = DefaultDDoSWindowSize
	}

	// Journal defaults
	if cfg.Journal.Enabled == nil {
		cfg.Journal.Enabled = boolPtr(true)
	}
	if cfg.Journal.Backend == "" {
		cfg.Journal.Backend = DefaultJournalBackend
	}
	if cfg.Journal.SQLite.Path == "" {
		cfg.Journal.SQLite.Path = DefaultJournalSQLitePath
	}
	if cfg.Journal.SQLite.MaxOpenConns == 0 {
		cfg.Journal.SQLite.MaxOpenConns = DefaultJournalMaxOpenConns
	}
	if cfg.Journal.SQLite.MaxIdleConns == 0 {
		cfg.Journal.SQLite.MaxIdleConns = DefaultJournalMaxIdleConns
	}
	if cfg.Journal.SQLite.BusyTimeout == 0 {
		cfg.Journal.SQLite.BusyTimeout = DefaultJournalBusyTimeout
	}
	if cfg.Journal.Recorder.Buffer == 0 {
		cfg.Journal.Recorder.Buffer = DefaultJournalRecorderBuffer
	}
	if cfg.Journal.Recorder.WriteTimeout == 0 {
		cfg.Journal.Recorder.WriteTimeout = DefaultJournalWriteTimeout
	}
	if cfg.Journal.Retention.Days == 0 {
		cfg.Journal.Retention.Days = DefaultJournalRetentionDays
	}
	if cfg.Journal.Retention.PruneSchedule == "" {
		cfg.Journal.Retention.PruneSchedule = DefaultJournalPruneSchedule
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = boolPtr(true)
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}

func boolPtr(b bool) *bool {
	return &b
}
