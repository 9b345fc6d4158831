package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/cli"
	"stratos-hq/charon/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check a configuration file for errors without starting the server.

Validation covers listen addresses, upstream definitions, route patterns
and their pool references, the load balancing method, admission control
bounds, journal settings, and telemetry endpoints. Environment variable
overrides (CHARON_*) are applied before validation, so the check sees
the configuration the server would actually run with.

Examples:
  # Validate the default config file
  charon validate

  # Validate a specific file
  charon validate --config /etc/charon/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("%s: %v", cfgFile, err))
	}

	fmt.Printf("✓ %s is valid\n", cfgFile)
	fmt.Println()
	fmt.Printf("Listen address:   %s\n", cfg.Server.ListenAddress)
	fmt.Printf("Admin address:    %s\n", adminSummary(cfg))
	fmt.Printf("Upstreams:        %d\n", len(cfg.Upstreams))
	fmt.Printf("Routes:           %d\n", len(cfg.Routes))
	fmt.Printf("Load balancing:   %s\n", cfg.LoadBalancing.Method)
	fmt.Printf("Rate limiting:    %s\n", enabledWord(cfg.RateLimit.Enabled))
	fmt.Printf("Flood protection: %s\n", enabledWord(cfg.DDoS.Enabled))
	fmt.Printf("Journal:          %s\n", journalSummary(cfg))

	return nil
}

func adminSummary(cfg *config.Config) string {
	if !cfg.Admin.IsEnabled() {
		return "disabled"
	}
	return cfg.Admin.ListenAddress
}

func journalSummary(cfg *config.Config) string {
	if !cfg.Journal.IsEnabled() {
		return "disabled"
	}
	if cfg.Journal.Backend == "sqlite" {
		return fmt.Sprintf("sqlite (%s)", cfg.Journal.SQLite.Path)
	}
	return cfg.Journal.Backend
}

func enabledWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}
