//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestServerStartStop tests the server start and graceful shutdown
func TestServerStartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()

	configFile := filepath.Join(tmpDir, "config.yaml")
	createTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18080"

admin:
  enabled: false

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18180

routes:
  - path: "/health"
    kind: "health"
  - path: "/api/*"
    upstream: "*"

health_check:
  enabled: false

journal:
  enabled: false

telemetry:
  logging:
    level: "info"
    format: "json"
  metrics:
    enabled: false
  tracing:
    enabled: false
`)

	binaryPath := buildCharonBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "run", "--config", configFile)
	cmd.Dir = tmpDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
	}()

	if !waitForHealthy("http://127.0.0.1:18080/health", 10*time.Second) {
		t.Fatalf("server failed to start\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	// Verify health endpoint
	resp, err := http.Get("http://127.0.0.1:18080/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	// Test graceful shutdown
	if err := cmd.Process.Signal(os.Interrupt); err != nil {
		t.Errorf("failed to send SIGINT: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case err := <-done:
		// Clean exit, or 130 if the signal landed before the handler
		// was installed.
		if err != nil {
			exitErr, ok := err.(*exec.ExitError)
			if !ok || exitErr.ExitCode() != 130 {
				t.Logf("shutdown output - Stdout: %s\nStderr: %s", stdout.String(), stderr.String())
				t.Errorf("unexpected shutdown error: %v", err)
			}
		}
	case <-time.After(5 * time.Second):
		t.Error("server did not shut down within 5 seconds")
	}
}

// TestStatusPipeline starts a server and reads it back through the
// status and routes commands.
func TestStatusPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()

	configFile := filepath.Join(tmpDir, "config.yaml")
	createTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18081"

admin:
  enabled: true
  listen_address: "127.0.0.1:19081"

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18181
  - name: "backend-2"
    address: "127.0.0.1"
    port: 18182

routes:
  - path: "/health"
    kind: "health"
  - path: "/api/*"
    upstream: "*"

health_check:
  enabled: false

journal:
  enabled: false

telemetry:
  logging:
    level: "warn"
    format: "json"
  metrics:
    enabled: false
  tracing:
    enabled: false
`)

	binaryPath := buildCharonBinary(t)
	stop := startServer(t, binaryPath, configFile, tmpDir, "http://127.0.0.1:18081/health")
	defer stop()

	// Text status
	t.Log("Querying status...")
	statusCmd := exec.Command(binaryPath, "status", "--admin", "127.0.0.1:19081")
	output, err := statusCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("status failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("Upstreams (2/2 healthy)")) {
		t.Errorf("expected upstream summary in status output, got: %s", output)
	}

	// JSON status
	statusJSONCmd := exec.Command(binaryPath, "status", "--admin", "127.0.0.1:19081", "--format", "json")
	jsonOutput, err := statusJSONCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("status --format json failed: %v\nOutput: %s", err, jsonOutput)
	}
	var stats map[string]interface{}
	if err := json.Unmarshal(jsonOutput, &stats); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, jsonOutput)
	}
	if stats["upstreams"] == nil {
		t.Errorf("JSON status missing 'upstreams' field: %+v", stats)
	}

	// Routes listing
	t.Log("Querying routes...")
	routesCmd := exec.Command(binaryPath, "routes", "--admin", "127.0.0.1:19081")
	output, err = routesCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("routes failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("/api/*")) {
		t.Errorf("expected /api/* in routes output, got: %s", output)
	}
}

// TestUnblockPipeline trips the rate limiter to create a block, then
// removes it through the unblock command.
func TestUnblockPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()

	configFile := filepath.Join(tmpDir, "config.yaml")
	createTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18082"

admin:
  enabled: true
  listen_address: "127.0.0.1:19082"

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18183

routes:
  - path: "/health"
    kind: "health"

rate_limit:
  enabled: true
  requests_per_minute: 6000
  burst: 100
  max_request_size: 64
  block_duration: 300s

health_check:
  enabled: false

journal:
  enabled: false

telemetry:
  logging:
    level: "warn"
    format: "json"
  metrics:
    enabled: false
  tracing:
    enabled: false
`)

	binaryPath := buildCharonBinary(t)
	stop := startServer(t, binaryPath, configFile, tmpDir, "http://127.0.0.1:18082/health")
	defer stop()

	// An oversize request earns a block record.
	t.Log("Creating a block with an oversize request...")
	oversize := strings.Repeat("x", 256)
	resp, err := http.Post("http://127.0.0.1:18082/health", "text/plain", strings.NewReader(oversize))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for oversize request, got %d", resp.StatusCode)
	}

	// The source is now blocked outright.
	resp, err = http.Get("http://127.0.0.1:18082/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 while blocked, got %d", resp.StatusCode)
	}

	// Unblock through the CLI.
	t.Log("Unblocking...")
	unblockCmd := exec.Command(binaryPath, "unblock", "127.0.0.1", "--admin", "127.0.0.1:19082")
	output, err := unblockCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("unblock failed: %v\nOutput: %s", err, output)
	}
	if !bytes.Contains(output, []byte("unblocked")) {
		t.Errorf("expected 'unblocked' in output, got: %s", output)
	}

	// A second unblock has nothing to remove.
	unblockAgain := exec.Command(binaryPath, "unblock", "127.0.0.1", "--admin", "127.0.0.1:19082")
	if output, err := unblockAgain.CombinedOutput(); err == nil {
		t.Errorf("second unblock should fail, got: %s", output)
	}
}

// TestJournalQueryPipeline generates journal events through denied
// traffic and reads them back with the journal command.
func TestJournalQueryPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "journal.db")

	configFile := filepath.Join(tmpDir, "config.yaml")
	createTestConfig(t, configFile, fmt.Sprintf(`
server:
  listen_address: "127.0.0.1:18083"

admin:
  enabled: false

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18184

routes:
  - path: "/health"
    kind: "health"

rate_limit:
  enabled: true
  requests_per_minute: 6000
  burst: 100
  max_request_size: 64
  block_duration: 300s

health_check:
  enabled: false

journal:
  enabled: true
  backend: "sqlite"
  sqlite:
    path: "%s"

telemetry:
  logging:
    level: "warn"
    format: "json"
  metrics:
    enabled: false
  tracing:
    enabled: false
`, dbPath))

	binaryPath := buildCharonBinary(t)
	stop := startServer(t, binaryPath, configFile, tmpDir, "http://127.0.0.1:18083/health")

	// Generate denials: an oversize request blocks the source, and the
	// requests after it are denied against the block record.
	t.Log("Generating denied traffic...")
	oversize := strings.Repeat("x", 256)
	resp, err := http.Post("http://127.0.0.1:18083/health", "text/plain", strings.NewReader(oversize))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	for i := 0; i < 3; i++ {
		resp, err := http.Get("http://127.0.0.1:18083/health")
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
	}

	// Stop the server so the recorder drains to SQLite.
	stop()

	t.Log("Querying journal...")
	queryCmd := exec.Command(binaryPath, "journal", "query",
		"--config", configFile,
		"--limit", "50",
		"--format", "json")

	output, err := queryCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("journal query failed: %v\nOutput: %s", err, output)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(output, &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, output)
	}

	events, ok := result["events"].([]interface{})
	if !ok {
		t.Fatalf("JSON output missing 'events' field: %+v", result)
	}
	if len(events) == 0 {
		t.Error("expected journal events, got none")
	}

	t.Logf("Successfully queried %d journal events", len(events))

	// Filtering by kind narrows the result.
	kindCmd := exec.Command(binaryPath, "journal", "query",
		"--config", configFile,
		"--kind", "ip_blocked",
		"--format", "json")

	output, err = kindCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("journal query --kind failed: %v\nOutput: %s", err, output)
	}
	if err := json.Unmarshal(output, &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, output)
	}
	blocked, _ := result["events"].([]interface{})
	if len(blocked) == 0 {
		t.Error("expected at least one ip_blocked event")
	}
}

// TestCommandVersionOutput tests the version command
func TestCommandVersionOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildCharonBinary(t)

	cmd := exec.Command(binaryPath, "version")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v\nOutput: %s", err, output)
	}

	if !bytes.Contains(output, []byte("Charon")) {
		t.Errorf("version output should contain 'Charon', got: %s", output)
	}
}

// TestDryRunValidation tests config validation with --dry-run
func TestDryRunValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()

	t.Run("valid config", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "valid-config.yaml")
		createTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18084"

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18185

routes:
  - path: "/api/*"
    upstream: "backend-1"

journal:
  enabled: false
`)

		binaryPath := buildCharonBinary(t)
		cmd := exec.Command(binaryPath, "run", "--config", configFile, "--dry-run")
		cmd.Dir = tmpDir

		output, err := cmd.CombinedOutput()
		if err != nil {
			t.Errorf("dry-run should succeed with valid config: %v\nOutput: %s", err, output)
		}
		if !bytes.Contains(output, []byte("Configuration valid")) {
			t.Errorf("expected confirmation in output, got: %s", output)
		}
	})

	t.Run("invalid config", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "invalid-config.yaml")
		createTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18085"

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18186

routes:
  - path: "/api/*"
    upstream: "no-such-pool"
`)

		binaryPath := buildCharonBinary(t)
		cmd := exec.Command(binaryPath, "run", "--config", configFile, "--dry-run")

		output, err := cmd.CombinedOutput()
		if err == nil {
			t.Errorf("dry-run should fail with invalid config\nOutput: %s", output)
		}
	})
}

// TestValidateCommand tests the standalone validate command
func TestValidateCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()

	configFile := filepath.Join(tmpDir, "config.yaml")
	createTestConfig(t, configFile, `
server:
  listen_address: "127.0.0.1:18086"

upstreams:
  - name: "backend-1"
    address: "127.0.0.1"
    port: 18187

routes:
  - path: "/api/*"
    upstream: "*"

journal:
  enabled: false
`)

	binaryPath := buildCharonBinary(t)
	cmd := exec.Command(binaryPath, "validate", "--config", configFile)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("validate failed: %v\nOutput: %s", err, output)
	}

	if !bytes.Contains(output, []byte("is valid")) {
		t.Errorf("expected 'is valid' in output, got: %s", output)
	}
}

// Helper functions

// buildCharonBinary builds the charon binary for testing
func buildCharonBinary(t *testing.T) string {
	t.Helper()

	binaryPath := "../bin/charon"
	if _, err := os.Stat(binaryPath); err == nil {
		return binaryPath
	}

	t.Log("Building charon binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../cmd/charon")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build charon: %v\nOutput: %s", err, output)
	}

	return binaryPath
}

// startServer starts the charon binary and waits until its health
// endpoint answers. The returned stop function sends SIGINT and waits
// for the process to exit.
func startServer(t *testing.T, binaryPath, configFile, dir, healthURL string) func() {
	t.Helper()

	cmd := exec.Command(binaryPath, "run", "--config", configFile)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	if !waitForHealthy(healthURL, 10*time.Second) {
		cmd.Process.Kill()
		t.Fatalf("server failed to start\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
	}

	var once bool
	return func() {
		if once {
			return
		}
		once = true

		cmd.Process.Signal(os.Interrupt)

		done := make(chan struct{})
		go func() {
			cmd.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(10 * time.Second):
			cmd.Process.Kill()
			t.Errorf("server did not shut down\nStdout: %s\nStderr: %s", stdout.String(), stderr.String())
		}
	}
}

// waitForHealthy waits for a health endpoint to return 200
func waitForHealthy(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// createTestConfig creates a test configuration file
func createTestConfig(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
}
