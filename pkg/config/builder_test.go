package config

import "time"

// ConfigBuilder provides a fluent API for building Config instances in tests.
// It starts with default values and allows selective overrides.
type ConfigBuilder struct {
	cfg Config
}

// NewTestConfig creates a new ConfigBuilder with sensible defaults for testing.
// The resulting configuration is valid and can be used immediately.
func NewTestConfig() *ConfigBuilder {
	cfg := Config{}
	ApplyDefaults(&cfg)

	// Add a default upstream and route for tests
	cfg.Upstreams = []UpstreamConfig{
		{
			Name:     "backend-1",
			Address:  "127.0.0.1",
			Port:     8081,
			Weight:   DefaultUpstreamWeight,
			MaxFails: DefaultUpstreamMaxFails,
		},
	}
	cfg.Routes = []RouteConfig{
		{Path: "/*", Upstream: "backend-1", Kind: "proxy"},
	}

	return &ConfigBuilder{cfg: cfg}
}

// Build returns the built Config instance.
func (b *ConfigBuilder) Build() *Config {
	return &b.cfg
}

// WithListenAddress sets the server listen address.
func (b *ConfigBuilder) WithListenAddress(addr string) *ConfigBuilder {
	b.cfg.Server.ListenAddress = addr
	return b
}

// WithForwardTimeout sets the upstream forward timeout.
func (b *ConfigBuilder) WithForwardTimeout(d time.Duration) *ConfigBuilder {
	b.cfg.Server.ForwardTimeout = d
	return b
}

// WithUpstream appends an upstream member.
func (b *ConfigBuilder) WithUpstream(u UpstreamConfig) *ConfigBuilder {
	if u.Weight == 0 {
		u.Weight = DefaultUpstreamWeight
	}
	if u.MaxFails == 0 {
		u.MaxFails = DefaultUpstreamMaxFails
	}
	b.cfg.Upstreams = append(b.cfg.Upstreams, u)
	return b
}

// WithUpstreams replaces the upstream list.
func (b *ConfigBuilder) WithUpstreams(upstreams ...UpstreamConfig) *ConfigBuilder {
	b.cfg.Upstreams = nil
	for _, u := range upstreams {
		b.WithUpstream(u)
	}
	return b
}

// WithRoute appends a routing rule.
func (b *ConfigBuilder) WithRoute(r RouteConfig) *ConfigBuilder {
	b.cfg.Routes = append(b.cfg.Routes, r)
	return b
}

// WithRoutes replaces the route list.
func (b *ConfigBuilder) WithRoutes(routes ...RouteConfig) *ConfigBuilder {
	b.cfg.Routes = routes
	return b
}

// WithLoadBalancingMethod sets the upstream selection method.
func (b *ConfigBuilder) WithLoadBalancingMethod(method string) *ConfigBuilder {
	b.cfg.LoadBalancing.Method = method
	return b
}

// WithRateLimit enables admission control with the given rate and burst.
func (b *ConfigBuilder) WithRateLimit(rpm, burst int) *ConfigBuilder {
	b.cfg.RateLimit.Enabled = true
	b.cfg.RateLimit.RequestsPerMinute = rpm
	b.cfg.RateLimit.Burst = burst
	return b
}

// WithDDoS enables connection-level protection with the given ceilings.
func (b *ConfigBuilder) WithDDoS(maxConns, rateLimit int) *ConfigBuilder {
	b.cfg.DDoS.Enabled = true
	b.cfg.DDoS.MaxConnectionsPerIP = maxConns
	b.cfg.DDoS.ConnectionRateLimit = rateLimit
	return b
}

// WithJournalBackend sets the journal storage backend.
func (b *ConfigBuilder) WithJournalBackend(backend string) *ConfigBuilder {
	b.cfg.Journal.Backend = backend
	return b
}

// WithSQLitePath sets the SQLite database path for the journal.
func (b *ConfigBuilder) WithSQLitePath(path string) *ConfigBuilder {
	b.cfg.Journal.Backend = "sqlite"
	b.cfg.Journal.SQLite.Path = path
	return b
}

// WithAdminAPIKey sets the admin API key.
func (b *ConfigBuilder) WithAdminAPIKey(key string) *ConfigBuilder {
	b.cfg.Admin.APIKey = key
	return b
}

// WithLoggingLevel sets the logging level.
func (b *ConfigBuilder) WithLoggingLevel(level string) *ConfigBuilder {
	b.cfg.Telemetry.Logging.Level = level
	return b
}

// WithTracingEnabled sets whether tracing is enabled.
func (b *ConfigBuilder) WithTracingEnabled(enabled bool, endpoint string) *ConfigBuilder {
	b.cfg.Telemetry.Tracing.Enabled = enabled
	b.cfg.Telemetry.Tracing.Endpoint = endpoint
	if b.cfg.Telemetry.Tracing.SampleRatio == 0 {
		b.cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	return b
}

// MinimalConfig returns a minimal valid configuration for testing.
// This is useful for tests that don't care about most configuration values.
func MinimalConfig() *Config {
	return NewTestConfig().Build()
}
