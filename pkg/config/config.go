package config

import "time"

// Config is the root configuration structure for Charon.
// It contains all configuration sections for the data-plane server, the
// admin API, upstream pools, routing, admission control, the traffic
// journal, and telemetry.
type Config struct {
	// Server contains data-plane HTTP server configuration including the
	// listen address, timeouts, and header limits.
	Server ServerConfig `yaml:"server"`

	// Admin contains configuration for the administrative API listener.
	Admin AdminConfig `yaml:"admin"`

	// Upstreams lists the backend members requests are forwarded to.
	Upstreams []UpstreamConfig `yaml:"upstreams"`

	// Routes lists the routing rules matched against inbound requests.
	Routes []RouteConfig `yaml:"routes"`

	// LoadBalancing selects the upstream selection method.
	LoadBalancing LoadBalancingConfig `yaml:"load_balancing"`

	// HealthCheck configures the background upstream health probes.
	HealthCheck HealthCheckConfig `yaml:"health_check"`

	// RateLimit configures per-IP and global admission control.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// DDoS configures connection-level flood protection.
	DDoS DDoSConfig `yaml:"ddos"`

	// Journal configures the append-only traffic event journal.
	Journal JournalConfig `yaml:"journal"`

	// Telemetry contains observability configuration: logging, metrics,
	// and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the data-plane HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port the proxy listens on.
	// Format: "host:port". Default: "0.0.0.0:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body. Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum time to wait for the next request on a
	// kept-alive connection. Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// ForwardTimeout bounds a single outbound call to an upstream member,
	// including connect, request write, and response header read.
	// Default: 30s
	ForwardTimeout time.Duration `yaml:"forward_timeout"`

	// MaxHeaderBytes limits the size of request headers. Default: 1MB
	MaxHeaderBytes int `yaml:"max_header_bytes"`
}

// AdminConfig contains configuration for the admin API listener.
// The admin API serves stats, route listings, manual unblock, config
// inspection, reload, and the Prometheus metrics endpoint.
type AdminConfig struct {
	// Enabled controls whether the admin listener is started.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// ListenAddress is the address and port for the admin API.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// APIKey, when non-empty, is required on mutating and config-exposing
	// admin endpoints via the X-Admin-Key header. Read-only stats stay open.
	APIKey string `yaml:"api_key"`
}

// UpstreamConfig describes one backend member.
type UpstreamConfig struct {
	// Name identifies the member and the pool it can be pinned by.
	Name string `yaml:"name"`

	// Address is the backend host (IP or hostname, no scheme).
	Address string `yaml:"address"`

	// Port is the backend TCP port.
	Port int `yaml:"port"`

	// Weight biases weighted selection toward this member. Default: 1
	Weight int `yaml:"weight"`

	// MaxFails is the consecutive probe failure count at which the member
	// is marked unhealthy. Default: 3
	MaxFails int `yaml:"max_fails"`

	// Enabled controls whether the member participates at all.
	// Default: true
	Enabled *bool `yaml:"enabled"`
}

// RouteConfig describes one routing rule.
type RouteConfig struct {
	// Path is the path pattern: exact ("/api/users"), prefix wildcard
	// ("/api/*"), or parameterized segments ("/users/:id").
	Path string `yaml:"path"`

	// Host, when set, must equal the request host for the route to match.
	Host string `yaml:"host"`

	// Methods, when non-empty, restricts the route to the listed HTTP
	// methods.
	Methods []string `yaml:"methods"`

	// Kind is the destination kind: "proxy", "static", "health", or
	// "admin". Default: "proxy" when Upstream is set.
	Kind string `yaml:"kind"`

	// Upstream is the pool name for proxy routes. "*" selects purely by
	// load balancing.
	Upstream string `yaml:"upstream"`

	// Root is the filesystem directory served by static routes.
	Root string `yaml:"root"`

	// Priority orders the route table; higher matches first. Zero picks
	// the kind default (health 100, proxy 50, static 10).
	Priority int `yaml:"priority"`
}

// LoadBalancingConfig selects the upstream selection method.
type LoadBalancingConfig struct {
	// Method is one of "round_robin", "least_connections", "random",
	// "weighted", "ip_hash". Default: "round_robin"
	Method string `yaml:"method"`
}

// HealthCheckConfig configures the background health probe loop.
type HealthCheckConfig struct {
	// Enabled controls whether probes run. Default: true
	Enabled *bool `yaml:"enabled"`

	// Interval is the time between probe rounds. Default: 30s
	Interval time.Duration `yaml:"interval"`

	// Timeout bounds a single probe. Default: 5s
	Timeout time.Duration `yaml:"timeout"`

	// Path is the probe request path. Default: "/health"
	Path string `yaml:"path"`

	// ExpectedStatus is the HTTP status that counts as success.
	// Default: 200
	ExpectedStatus int `yaml:"expected_status"`
}

// RateLimitConfig configures request admission control.
type RateLimitConfig struct {
	// Enabled turns admission control on. When false every request is
	// admitted. Default: false
	Enabled bool `yaml:"enabled"`

	// RequestsPerMinute is the refill rate of both the global and per-IP
	// token buckets. Default: 60
	RequestsPerMinute int `yaml:"requests_per_minute"`

	// Burst is the token bucket capacity. Default: 10
	Burst int `yaml:"burst"`

	// MaxRequestSize is the largest admitted request body in bytes.
	// Requests above it are denied and the source blocked for 300s.
	// Default: 10MiB
	MaxRequestSize int64 `yaml:"max_request_size"`

	// Whitelist lists source IPs admitted unconditionally.
	Whitelist []string `yaml:"whitelist"`

	// Blacklist lists source IPs denied unconditionally.
	Blacklist []string `yaml:"blacklist"`

	// AutoBlockEnabled creates a block record when a per-IP limit trips.
	AutoBlockEnabled bool `yaml:"auto_block_enabled"`

	// BlockDuration is the lifetime of auto-created block records.
	// Default: 300s
	BlockDuration time.Duration `yaml:"block_duration"`
}

// DDoSConfig configures connection-level flood protection.
type DDoSConfig struct {
	// Enabled turns connection tracking enforcement on. Default: false
	Enabled bool `yaml:"enabled"`

	// MaxConnectionsPerIP is the concurrent connection ceiling per source
	// IP. Default: 100
	MaxConnectionsPerIP int `yaml:"max_connections_per_ip"`

	// ConnectionRateLimit is the maximum connections per window before a
	// source is blocked. Default: 50
	ConnectionRateLimit int `yaml:"connection_rate_limit"`

	// WindowSize is the sliding window over which connection rate is
	// measured. Default: 60s
	WindowSize time.Duration `yaml:"window_size"`
}

// JournalConfig configures the append-only traffic event journal.
type JournalConfig struct {
	// Enabled turns journaling on. Default: true
	Enabled *bool `yaml:"enabled"`

	// Backend selects the storage backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the SQLite backend.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Recorder configures the async event recorder.
	Recorder RecorderConfig `yaml:"recorder"`

	// Retention configures scheduled pruning of old events.
	Retention RetentionConfig `yaml:"retention"`
}

// SQLiteConfig contains SQLite backend settings for the journal.
type SQLiteConfig struct {
	// Path is the database file path. Default: "data/journal.db"
	Path string `yaml:"path"`

	// MaxOpenConns limits open database connections. Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns limits idle pooled connections. Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// BusyTimeout is how long SQLite waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RecorderConfig contains async recorder settings for the journal.
type RecorderConfig struct {
	// Buffer is the size of the async write channel. Events are dropped
	// (with a log line) when it is full. Default: 1024
	Buffer int `yaml:"buffer"`

	// WriteTimeout bounds a single storage write. Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// RetentionConfig contains journal retention settings.
type RetentionConfig struct {
	// Days is how long events are kept. Default: 30
	Days int `yaml:"days"`

	// PruneSchedule is a cron expression for the pruning job.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`

	// MaxRecords caps the journal size; zero means unlimited.
	MaxRecords int64 `yaml:"max_records"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains structured logging settings.
type LoggingConfig struct {
	// Level is one of "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text". Default: "json"
	Format string `yaml:"format"`

	// AddSource includes source file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected and served.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the scrape endpoint on the admin listener.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	// Enabled turns tracing on. Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port).
	Endpoint string `yaml:"endpoint"`

	// ServiceName overrides the reported service name.
	// Default: "charon"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of requests traced (0.0-1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Insecure disables TLS on the exporter connection.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds exporter calls. Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Redacted returns a copy of the configuration with secrets masked,
// suitable for serving from the admin config endpoint.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Admin.APIKey != "" {
		out.Admin.APIKey = "[redacted]"
	}
	// Slices are shared with the original; callers must not mutate them.
	return &out
}

// IsEnabled reports whether the member participates, applying the
// default (true) when the flag is unset.
func (u *UpstreamConfig) IsEnabled() bool {
	return u.Enabled == nil || *u.Enabled
}

// IsEnabled reports whether the admin listener should start.
func (a *AdminConfig) IsEnabled() bool {
	return a.Enabled == nil || *a.Enabled
}

// IsEnabled reports whether background health probes run.
func (h *HealthCheckConfig) IsEnabled() bool {
	return h.Enabled == nil || *h.Enabled
}

// IsEnabled reports whether the journal records events.
func (j *JournalConfig) IsEnabled() bool {
	return j.Enabled == nil || *j.Enabled
}

// IsEnabled reports whether metrics are collected and served.
func (m *MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}
