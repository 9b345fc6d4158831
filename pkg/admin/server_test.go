package admin

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"stratos-hq/charon/pkg/config"
)

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestServer_StartAndShutdown(t *testing.T) {
	srv := NewServer(config.AdminConfig{ListenAddress: "127.0.0.1:0"}, testDeps(t))

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown(context.Background())

	if !srv.IsRunning() {
		t.Error("Expected IsRunning after Start")
	}

	addr := srv.Addr()
	if addr == "" {
		t.Fatal("Expected bound address")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if srv.IsRunning() {
		t.Error("Expected not running after Shutdown")
	}
}

func TestServer_StartTwice(t *testing.T) {
	srv := NewServer(config.AdminConfig{ListenAddress: "127.0.0.1:0"}, testDeps(t))

	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer srv.Shutdown(context.Background())

	if err := srv.Start(); err == nil {
		t.Error("Expected error starting an already running server")
	}
}

func TestServer_BadAddress(t *testing.T) {
	srv := NewServer(config.AdminConfig{ListenAddress: "definitely not an address"}, testDeps(t))

	if err := srv.Start(); err == nil {
		srv.Shutdown(context.Background())
		t.Fatal("Expected bind error for malformed address")
	}
}

func TestServer_ShutdownBeforeStart(t *testing.T) {
	srv := NewServer(config.AdminConfig{}, testDeps(t))

	if err := srv.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown before Start should be a no-op, got %v", err)
	}
}

// =============================================================================
// Handler Wrapper Tests
// =============================================================================

func TestServer_RecoverPanics(t *testing.T) {
	srv := NewServer(config.AdminConfig{}, testDeps(t))

	h := srv.recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	w := doRequest(h, http.MethodGet, "/admin/stats", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Status = %d, want 500", w.Code)
	}
	if resp := decodeEnvelope(t, w); resp.Success {
		t.Error("Expected failure envelope after panic")
	}
}

func TestServer_UptimeBeforeStart(t *testing.T) {
	srv := NewServer(config.AdminConfig{}, testDeps(t))

	if got := srv.uptimeSeconds(); got != 0 {
		t.Errorf("uptimeSeconds = %d before Start, want 0", got)
	}
}
