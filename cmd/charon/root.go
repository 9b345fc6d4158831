package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "charon",
	Short: "Charon - reverse proxy traffic engine",
	Long: `Charon is an open-source reverse proxy that puts admission control,
priority routing, and load balancing in front of pools of HTTP backends.

Every request passes through three stages:
  - Admission control: rate limits, size caps, temporary IP blocks,
    and connection flood protection decide whether it gets in
  - Routing: priority-ordered patterns pick the destination
  - Forwarding: a load-balanced, health-checked upstream pool serves it

Operational state is exposed on a separate admin listener, and denials,
blocks, and health transitions land in an append-only traffic journal.

For more information, visit: https://github.com/stratos-hq/charon`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
