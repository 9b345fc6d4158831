package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/admin"
	"stratos-hq/charon/pkg/cli"
)

var statusFlags struct {
	format string
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine statistics from a running instance",
	Long: `Fetch engine statistics from a running instance's admin API.

The output covers the upstream pool (per-member health, active
connections, request counts), admission control (blocked and tracked
sources), and the route table size.

Examples:
  # Status of the local instance
  charon status

  # Status of a remote instance
  charon status --admin 10.0.0.5:9090

  # Machine-readable output
  charon status --format json`,
	RunE: showStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	addAdminFlags(statusCmd)
	statusCmd.Flags().StringVar(&statusFlags.format, "format", "text", "output format: text, json")
}

func showStatus(cmd *cobra.Command, args []string) error {
	var stats admin.Stats
	if err := adminCall(http.MethodGet, "/admin/stats", nil, &stats); err != nil {
		return cli.NewCommandError("status", err)
	}

	if statusFlags.format == "json" {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, stats)
	}

	uptime := time.Duration(stats.UptimeSeconds) * time.Second
	fmt.Printf("Uptime:             %s\n", uptime)
	fmt.Printf("Routes:             %d\n", stats.Routes)
	fmt.Printf("Total requests:     %d\n", stats.Upstreams.TotalRequests)
	fmt.Printf("Active connections: %d\n", stats.Admission.ActiveConnections)
	fmt.Println()

	fmt.Printf("Upstreams (%d/%d healthy):\n",
		stats.Upstreams.HealthyMembers, len(stats.Upstreams.Members))
	for _, m := range stats.Upstreams.Members {
		state := "healthy"
		if !m.Healthy {
			state = "unhealthy"
		}
		fmt.Printf("  %-16s %-21s %-9s active=%d requests=%d\n",
			m.Name, m.Address, state, m.ActiveConnections, m.TotalRequests)
	}

	fmt.Println()
	fmt.Printf("Blocked IPs (%d):\n", stats.Admission.BlockedIPCount)
	if stats.Admission.BlockedIPCount == 0 {
		fmt.Println("  none")
		return nil
	}
	for _, b := range stats.Admission.BlockedIPs {
		fmt.Printf("  %-16s %-24s expires in %ds (block #%d)\n",
			b.IP, b.Reason, b.RemainingSeconds, b.BlockCount)
	}

	return nil
}
