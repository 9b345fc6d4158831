package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	tests := []struct {
		name  string
		input Config
		check func(*testing.T, *Config)
	}{
		{
			name:  "empty config gets all defaults",
			input: Config{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != DefaultListenAddress {
					t.Errorf("expected listen address %q, got %q", DefaultListenAddress, cfg.Server.ListenAddress)
				}
				if cfg.Server.ReadTimeout != DefaultReadTimeout {
					t.Errorf("expected read timeout %v, got %v", DefaultReadTimeout, cfg.Server.ReadTimeout)
				}
				if cfg.Server.ForwardTimeout != DefaultForwardTimeout {
					t.Errorf("expected forward timeout %v, got %v", DefaultForwardTimeout, cfg.Server.ForwardTimeout)
				}
				if cfg.Admin.ListenAddress != DefaultAdminListenAddress {
					t.Errorf("expected admin listen address %q, got %q", DefaultAdminListenAddress, cfg.Admin.ListenAddress)
				}
				if !cfg.Admin.IsEnabled() {
					t.Error("expected admin enabled by default")
				}
				if cfg.LoadBalancing.Method != DefaultLoadBalancingMethod {
					t.Errorf("expected load balancing method %q, got %q", DefaultLoadBalancingMethod, cfg.LoadBalancing.Method)
				}
				if cfg.HealthCheck.Interval != DefaultHealthCheckInterval {
					t.Errorf("expected health check interval %v, got %v", DefaultHealthCheckInterval, cfg.HealthCheck.Interval)
				}
				if cfg.HealthCheck.Path != DefaultHealthCheckPath {
					t.Errorf("expected health check path %q, got %q", DefaultHealthCheckPath, cfg.HealthCheck.Path)
				}
				if cfg.HealthCheck.ExpectedStatus != DefaultHealthCheckExpectedStatus {
					t.Errorf("expected health check status %d, got %d", DefaultHealthCheckExpectedStatus, cfg.HealthCheck.ExpectedStatus)
				}
				if cfg.RateLimit.RequestsPerMinute != DefaultRequestsPerMinute {
					t.Errorf("expected requests per minute %d, got %d", DefaultRequestsPerMinute, cfg.RateLimit.RequestsPerMinute)
				}
				if cfg.RateLimit.Burst != DefaultBurst {
					t.Errorf("expected burst %d, got %d", DefaultBurst, cfg.RateLimit.Burst)
				}
				if cfg.RateLimit.MaxRequestSize != DefaultMaxRequestSize {
					t.Errorf("expected max request size %d, got %d", DefaultMaxRequestSize, cfg.RateLimit.MaxRequestSize)
				}
				if cfg.RateLimit.BlockDuration != DefaultBlockDuration {
					t.Errorf("expected block duration %v, got %v", DefaultBlockDuration, cfg.RateLimit.BlockDuration)
				}
				if cfg.DDoS.MaxConnectionsPerIP != DefaultMaxConnectionsPerIP {
					t.Errorf("expected max connections per IP %d, got %d", DefaultMaxConnectionsPerIP, cfg.DDoS.MaxConnectionsPerIP)
				}
				if cfg.DDoS.WindowSize != DefaultDDoSWindowSize {
					t.Errorf("expected ddos window %v, got %v", DefaultDDoSWindowSize, cfg.DDoS.WindowSize)
				}
				if cfg.Journal.Backend != DefaultJournalBackend {
					t.Errorf("expected journal backend %q, got %q", DefaultJournalBackend, cfg.Journal.Backend)
				}
				if cfg.Journal.SQLite.Path != DefaultJournalSQLitePath {
					t.Errorf("expected SQLite path %q, got %q", DefaultJournalSQLitePath, cfg.Journal.SQLite.Path)
				}
				if cfg.Journal.Retention.Days != DefaultJournalRetentionDays {
					t.Errorf("expected retention days %d, got %d", DefaultJournalRetentionDays, cfg.Journal.Retention.Days)
				}
				if cfg.Journal.Retention.PruneSchedule != DefaultJournalPruneSchedule {
					t.Errorf("expected prune schedule %q, got %q", DefaultJournalPruneSchedule, cfg.Journal.Retention.PruneSchedule)
				}
				if cfg.Telemetry.Logging.Level != DefaultLoggingLevel {
					t.Errorf("expected logging level %q, got %q", DefaultLoggingLevel, cfg.Telemetry.Logging.Level)
				}
				if cfg.Telemetry.Logging.Format != DefaultLoggingFormat {
					t.Errorf("expected logging format %q, got %q", DefaultLoggingFormat, cfg.Telemetry.Logging.Format)
				}
				if cfg.Telemetry.Metrics.Path != DefaultMetricsPath {
					t.Errorf("expected metrics path %q, got %q", DefaultMetricsPath, cfg.Telemetry.Metrics.Path)
				}
				if cfg.Telemetry.Tracing.SampleRatio != DefaultTracingSampleRatio {
					t.Errorf("expected tracing sample ratio %v, got %v", DefaultTracingSampleRatio, cfg.Telemetry.Tracing.SampleRatio)
				}
			},
		},
		{
			name: "existing values are preserved",
			input: Config{
				Server: ServerConfig{
					ListenAddress:  "192.168.1.1:9090",
					ReadTimeout:    60 * time.Second,
					MaxHeaderBytes: 2097152,
				},
				RateLimit: RateLimitConfig{
					RequestsPerMinute: 240,
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.ListenAddress != "192.168.1.1:9090" {
					t.Error("existing listen address was overwritten")
				}
				if cfg.Server.ReadTimeout != 60*time.Second {
					t.Error("existing read timeout was overwritten")
				}
				if cfg.Server.MaxHeaderBytes != 2097152 {
					t.Error("existing max header bytes was overwritten")
				}
				if cfg.RateLimit.RequestsPerMinute != 240 {
					t.Error("existing requests per minute was overwritten")
				}
				// Check that unset values got defaults
				if cfg.Server.WriteTimeout != DefaultWriteTimeout {
					t.Error("write timeout should get default when not set")
				}
			},
		},
		{
			name: "upstream defaults applied",
			input: Config{
				Upstreams: []UpstreamConfig{
					{
						Name:    "api",
						Address: "10.0.0.5",
						Port:    8081,
						// Weight and MaxFails not set
					},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				u := cfg.Upstreams[0]
				if u.Weight != DefaultUpstreamWeight {
					t.Errorf("expected upstream weight %d, got %d", DefaultUpstreamWeight, u.Weight)
				}
				if u.MaxFails != DefaultUpstreamMaxFails {
					t.Errorf("expected upstream max fails %d, got %d", DefaultUpstreamMaxFails, u.MaxFails)
				}
				if !u.IsEnabled() {
					t.Error("expected upstream enabled by default")
				}
				// Verify existing values preserved
				if u.Address != "10.0.0.5" {
					t.Error("existing address was overwritten")
				}
			},
		},
		{
			name: "route kind inferred from fields",
			input: Config{
				Routes: []RouteConfig{
					{Path: "/api/*", Upstream: "api"},
					{Path: "/assets/*", Root: "/var/www"},
					{Path: "/explicit", Kind: "health"},
				},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Routes[0].Kind != "proxy" {
					t.Errorf("expected kind %q for upstream route, got %q", "proxy", cfg.Routes[0].Kind)
				}
				if cfg.Routes[1].Kind != "static" {
					t.Errorf("expected kind %q for root route, got %q", "static", cfg.Routes[1].Kind)
				}
				if cfg.Routes[2].Kind != "health" {
					t.Errorf("expected explicit kind preserved, got %q", cfg.Routes[2].Kind)
				}
			},
		},
		{
			name: "disabled flags preserved",
			input: Config{
				Admin:       AdminConfig{Enabled: boolPtr(false)},
				HealthCheck: HealthCheckConfig{Enabled: boolPtr(false)},
				Journal:     JournalConfig{Enabled: boolPtr(false)},
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Admin.IsEnabled() {
					t.Error("explicit admin disable was overwritten")
				}
				if cfg.HealthCheck.IsEnabled() {
					t.Error("explicit health check disable was overwritten")
				}
				if cfg.Journal.IsEnabled() {
					t.Error("explicit journal disable was overwritten")
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.input
			ApplyDefaults(&cfg)
			tt.check(t, &cfg)
		})
	}
}

func TestApplyDefaults_Idempotent(t *testing.T) {
	cfg := Config{}

	// Apply defaults twice
	ApplyDefaults(&cfg)
	firstPass := cfg.Server.ListenAddress

	ApplyDefaults(&cfg)
	secondPass := cfg.Server.ListenAddress

	if firstPass != secondPass {
		t.Error("ApplyDefaults should be idempotent")
	}
}
