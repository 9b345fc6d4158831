package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/admin"
	"stratos-hq/charon/pkg/cli"
)

var unblockCmd = &cobra.Command{
	Use:   "unblock <ip>",
	Short: "Remove an IP from the blocklist",
	Long: `Remove a source IP from a running instance's blocklist.

Blocks expire on their own; unblock lifts one early, typically after a
legitimate client tripped the rate limiter. The command fails when the
IP is not currently blocked.

When the admin API has a key configured, pass it with --api-key or set
it in the config file.

Examples:
  # Unblock a source
  charon unblock 203.0.113.7

  # Against a remote instance with a key
  charon unblock 203.0.113.7 --admin 10.0.0.5:9090 --api-key "$CHARON_ADMIN_KEY"`,
	Args: cobra.ExactArgs(1),
	RunE: unblockIP,
}

func init() {
	rootCmd.AddCommand(unblockCmd)

	addAdminFlags(unblockCmd)
}

func unblockIP(cmd *cobra.Command, args []string) error {
	ip := args[0]
	if net.ParseIP(ip) == nil {
		return cli.NewCommandError("unblock", fmt.Errorf("invalid IP address: %s", ip))
	}

	body, err := json.Marshal(admin.UnblockRequest{IP: ip})
	if err != nil {
		return err
	}

	var result admin.UnblockResult
	if err := adminCall(http.MethodPost, "/admin/unblock", bytes.NewReader(body), &result); err != nil {
		return cli.NewCommandError("unblock", err)
	}

	fmt.Printf("✓ %s unblocked\n", result.IP)
	return nil
}
