// Package config provides configuration management for Charon.
//
// This package handles loading, validating, and managing configuration from
// YAML files with environment variable overrides. It provides a type-safe
// configuration system with validation and sensible defaults for every
// tunable the proxy exposes.
//
// # Configuration Loading
//
// Configuration can be loaded in two ways:
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("charon.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("charon.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CHARON_SECTION_FIELD.
// For example:
//
//   - CHARON_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - CHARON_ADMIN_API_KEY overrides admin.api_key
//   - CHARON_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Environment variables always take precedence over file-based configuration.
//
// # Configuration Precedence
//
// Configuration values are applied in the following order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Hot Reload
//
// A Watcher can monitor the configuration file and deliver freshly loaded
// configurations through a callback:
//
//	w, err := config.NewWatcher("charon.yaml", func(cfg *config.Config) {
//	    engine.ApplyConfig(cfg)
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Reloads that fail to parse or validate are logged and discarded; the
// previous configuration stays in effect. Upstream membership changes
// require a restart, everything else applies live.
//
// # Singleton Pattern
//
// For application-wide configuration access, use the singleton pattern:
//
//	// At application startup
//	if err := config.Initialize("charon.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Anywhere in the application
//	cfg := config.GetConfig()
//	fmt.Println(cfg.Server.ListenAddress)
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Validation
//
// All configuration is validated automatically during loading. Validation
// errors include field paths and helpful messages:
//
//	configuration validation failed with 2 errors:
//	  - upstreams[0].port: must be between 1 and 65535
//	  - routes[2].upstream: references unknown upstream "api"
//
// # Example Configuration
//
// Here is a minimal configuration file:
//
//	server:
//	  listen_address: "0.0.0.0:8080"
//
//	upstreams:
//	  - name: "api"
//	    address: "10.0.0.5"
//	    port: 8081
//
//	routes:
//	  - path: "/api/*"
//	    upstream: "api"
//
//	rate_limit:
//	  enabled: true
//	  requests_per_minute: 60
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//
// # Thread Safety
//
// All configuration access is thread-safe. The singleton pattern uses
// read-write locks to allow concurrent reads while protecting against
// concurrent writes during reload operations.
package config
