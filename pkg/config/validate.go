package config

import (
	"fmt"
	"net"
	"strings"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// validLoadBalancingMethods enumerates the accepted method names.
var validLoadBalancingMethods = map[string]bool{
	"round_robin":       true,
	"least_connections": true,
	"random":            true,
	"weighted":          true,
	"ip_hash":           true,
}

// validRouteKinds enumerates the accepted destination kinds.
var validRouteKinds = map[string]bool{
	"proxy":  true,
	"static": true,
	"health": true,
	"admin":  true,
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateAdmin(&cfg.Admin)...)
	errs = append(errs, validateUpstreams(cfg.Upstreams)...)
	errs = append(errs, validateRoutes(cfg)...)
	errs = append(errs, validateLoadBalancing(&cfg.LoadBalancing)...)
	errs = append(errs, validateHealthCheck(&cfg.HealthCheck)...)
	errs = append(errs, validateRateLimit(&cfg.RateLimit)...)
	errs = append(errs, validateDDoS(&cfg.DDoS)...)
	errs = append(errs, validateJournal(&cfg.Journal)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"server.listen_address", "must not be empty"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{"server.listen_address", fmt.Sprintf("invalid host:port: %v", err)})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{"server.read_timeout", "must not be negative"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{"server.write_timeout", "must not be negative"})
	}
	if cfg.ForwardTimeout <= 0 {
		errs = append(errs, FieldError{"server.forward_timeout", "must be positive"})
	}
	if cfg.MaxHeaderBytes < 0 {
		errs = append(errs, FieldError{"server.max_header_bytes", "must not be negative"})
	}

	return errs
}

func validateAdmin(cfg *AdminConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled != nil && !*cfg.Enabled {
		return nil
	}
	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{"admin.listen_address", "must not be empty"})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{"admin.listen_address", fmt.Sprintf("invalid host:port: %v", err)})
	}

	return errs
}

func validateUpstreams(upstreams []UpstreamConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(upstreams))
	for i, u := range upstreams {
		field := fmt.Sprintf("upstreams[%d]", i)
		if u.Name == "" {
			errs = append(errs, FieldError{field + ".name", "must not be empty"})
		} else if seen[u.Name] {
			errs = append(errs, FieldError{field + ".name", fmt.Sprintf("duplicate upstream name %q", u.Name)})
		} else {
			seen[u.Name] = true
		}
		if u.Address == "" {
			errs = append(errs, FieldError{field + ".address", "must not be empty"})
		}
		if u.Port < 1 || u.Port > 65535 {
			errs = append(errs, FieldError{field + ".port", "must be in 1..65535"})
		}
		if u.Weight < 0 {
			errs = append(errs, FieldError{field + ".weight", "must not be negative"})
		}
		if u.MaxFails < 1 {
			errs = append(errs, FieldError{field + ".max_fails", "must be at least 1"})
		}
	}

	return errs
}

func validateRoutes(cfg *Config) []FieldError {
	var errs []FieldError

	names := make(map[string]bool, len(cfg.Upstreams))
	for _, u := range cfg.Upstreams {
		names[u.Name] = true
	}

	for i, r := range cfg.Routes {
		field := fmt.Sprintf("routes[%d]", i)
		if r.Path == "" {
			errs = append(errs, FieldError{field + ".path", "must not be empty"})
		}
		if r.Kind != "" && !validRouteKinds[r.Kind] {
			errs = append(errs, FieldError{field + ".kind", fmt.Sprintf("unknown kind %q", r.Kind)})
			continue
		}
		switch r.Kind {
		case "proxy", "":
			if r.Upstream == "" {
				errs = append(errs, FieldError{field + ".upstream", "proxy routes must name an upstream (or \"*\")"})
			} else if r.Upstream != "*" && !names[r.Upstream] {
				errs = append(errs, FieldError{field + ".upstream", fmt.Sprintf("unknown upstream %q", r.Upstream)})
			}
		case "static":
			if r.Root == "" {
				errs = append(errs, FieldError{field + ".root", "static routes must set a root directory"})
			}
		}
		if r.Priority < 0 {
			errs = append(errs, FieldError{field + ".priority", "must not be negative"})
		}
	}

	return errs
}

func validateLoadBalancing(cfg *LoadBalancingConfig) []FieldError {
	if cfg.Method != "" && !validLoadBalancingMethods[cfg.Method] {
		return []FieldError{{"load_balancing.method", fmt.Sprintf("unknown method %q", cfg.Method)}}
	}
	return nil
}

func validateHealthCheck(cfg *HealthCheckConfig) []FieldError {
	var errs []FieldError

	if cfg.Interval < 0 {
		errs = append(errs, FieldError{"health_check.interval", "must not be negative"})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{"health_check.timeout", "must not be negative"})
	}
	if cfg.Path != "" && !strings.HasPrefix(cfg.Path, "/") {
		errs = append(errs, FieldError{"health_check.path", "must start with /"})
	}
	if cfg.ExpectedStatus != 0 && (cfg.ExpectedStatus < 100 || cfg.ExpectedStatus > 599) {
		errs = append(errs, FieldError{"health_check.expected_status", "must be a valid HTTP status"})
	}

	return errs
}

func validateRateLimit(cfg *RateLimitConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}
	if cfg.RequestsPerMinute <= 0 {
		errs = append(errs, FieldError{"rate_limit.requests_per_minute", "must be positive"})
	}
	if cfg.Burst <= 0 {
		errs = append(errs, FieldError{"rate_limit.burst", "must be positive"})
	}
	if cfg.MaxRequestSize < 0 {
		errs = append(errs, FieldError{"rate_limit.max_request_size", "must not be negative"})
	}
	if cfg.BlockDuration <= 0 {
		errs = append(errs, FieldError{"rate_limit.block_duration", "must be positive"})
	}
	for i, ip := range cfg.Whitelist {
		if net.ParseIP(ip) == nil {
			errs = append(errs, FieldError{fmt.Sprintf("rate_limit.whitelist[%d]", i), fmt.Sprintf("invalid IP %q", ip)})
		}
	}
	for i, ip := range cfg.Blacklist {
		if net.ParseIP(ip) == nil {
			errs = append(errs, FieldError{fmt.Sprintf("rate_limit.blacklist[%d]", i), fmt.Sprintf("invalid IP %q", ip)})
		}
	}

	return errs
}

func validateDDoS(cfg *DDoSConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}
	if cfg.MaxConnectionsPerIP <= 0 {
		errs = append(errs, FieldError{"ddos.max_connections_per_ip", "must be positive"})
	}
	if cfg.ConnectionRateLimit <= 0 {
		errs = append(errs, FieldError{"ddos.connection_rate_limit", "must be positive"})
	}
	if cfg.WindowSize <= 0 {
		errs = append(errs, FieldError{"ddos.window_size", "must be positive"})
	}

	return errs
}

func validateJournal(cfg *JournalConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled != nil && !*cfg.Enabled {
		return nil
	}
	switch cfg.Backend {
	case "", "sqlite", "memory":
	default:
		errs = append(errs, FieldError{"journal.backend", fmt.Sprintf("unsupported backend %q", cfg.Backend)})
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		errs = append(errs, FieldError{"journal.sqlite.path", "must not be empty"})
	}
	if cfg.Recorder.Buffer < 0 {
		errs = append(errs, FieldError{"journal.recorder.buffer", "must not be negative"})
	}
	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{"journal.retention.days", "must not be negative"})
	}
	if cfg.Retention.MaxRecords < 0 {
		errs = append(errs, FieldError{"journal.retention.max_records", "must not be negative"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{"telemetry.logging.level", fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, FieldError{"telemetry.logging.format", fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}
	if cfg.Metrics.Path != "" && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{"telemetry.metrics.path", "must start with /"})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{"telemetry.tracing.endpoint", "required when tracing is enabled"})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{"telemetry.tracing.sample_ratio", "must be in [0.0, 1.0]"})
	}

	return errs
}
