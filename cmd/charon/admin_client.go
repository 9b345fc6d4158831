package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"stratos-hq/charon/pkg/admin"
	"stratos-hq/charon/pkg/config"
)

// adminFlags are shared by the commands that talk to a running
// instance's admin API (status, routes, unblock).
var adminFlags struct {
	addr   string
	apiKey string
}

// addAdminFlags registers the admin connection flags on a command.
func addAdminFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&adminFlags.addr, "admin", "", "admin API address (default: from config)")
	cmd.Flags().StringVar(&adminFlags.apiKey, "api-key", "", "admin API key (default: from config)")
}

// adminEnvelope mirrors the admin API response wrapper for decoding.
type adminEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// adminAddress resolves the admin listener address: the --admin flag
// wins, then the config file, then the built-in default. The API key
// falls back to the config the same way.
func adminAddress() string {
	addr := adminFlags.addr

	if cfg, err := config.LoadConfigWithEnvOverrides(cfgFile); err == nil {
		if addr == "" {
			addr = cfg.Admin.ListenAddress
		}
		if adminFlags.apiKey == "" {
			adminFlags.apiKey = cfg.Admin.APIKey
		}
	}

	if addr == "" {
		addr = "127.0.0.1:9090"
	}
	return addr
}

// adminCall performs one admin API request and unmarshals the envelope
// payload into out (which may be nil when no payload is expected).
func adminCall(method, path string, body io.Reader, out any) error {
	addr := adminAddress()

	req, err := http.NewRequest(method, "http://"+addr+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if adminFlags.apiKey != "" {
		req.Header.Set(admin.AdminKeyHeader, adminFlags.apiKey)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("admin API unreachable at %s (is the server running?): %w", addr, err)
	}
	defer resp.Body.Close()

	var env adminEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode admin response: %w", err)
	}

	if !env.Success {
		if env.Message != "" {
			return fmt.Errorf("admin API: %s", env.Message)
		}
		return fmt.Errorf("admin API: %s", resp.Status)
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode admin payload: %w", err)
		}
	}
	return nil
}
