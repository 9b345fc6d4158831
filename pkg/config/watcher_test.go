package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

const watcherTestConfig = `
server:
  listen_address: "127.0.0.1:8080"

upstreams:
  - name: "api"
    address: "10.0.0.5"
    port: 8081
`

func writeWatcherConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestNewWatcher(t *testing.T) {
	w, err := NewWatcher("charon.yaml", func(*Config) {})
	if err != nil {
		t.Fatalf("NewWatcher() error = %v, want nil", err)
	}
	if w == nil {
		t.Fatal("NewWatcher() returned nil")
	}
	if w.watcher == nil {
		t.Error("w.watcher is nil")
	}
	if w.debounce != DefaultWatchDebounce {
		t.Errorf("w.debounce = %v, want %v", w.debounce, DefaultWatchDebounce)
	}

	// Cleanup without Start: only the fsnotify watcher needs closing
	w.watcher.Close()
}

func TestNewWatcher_NilCallback(t *testing.T) {
	_, err := NewWatcher("charon.yaml", nil)
	if err == nil {
		t.Error("expected error for nil callback")
	}
}

func TestWatcher_ReloadOnWrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "charon.yaml")
	writeWatcherConfig(t, configPath, watcherTestConfig)

	reloaded := make(chan *Config, 10)
	w, err := NewWatcher(configPath, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 50 * time.Millisecond
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Wait for watcher to start
	time.Sleep(100 * time.Millisecond)

	// Modify file
	updated := `
server:
  listen_address: "0.0.0.0:9090"

upstreams:
  - name: "api"
    address: "10.0.0.5"
    port: 8081
`
	writeWatcherConfig(t, configPath, updated)

	// Wait for reload to be delivered (with timeout)
	select {
	case cfg := <-reloaded:
		if cfg.Server.ListenAddress != "0.0.0.0:9090" {
			t.Errorf("expected reloaded listen address %q, got %q", "0.0.0.0:9090", cfg.Server.ListenAddress)
		}
	case <-time.After(2 * time.Second):
		t.Error("reload not delivered after file modification")
	}
}

func TestWatcher_InvalidReloadDiscarded(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "charon.yaml")
	writeWatcherConfig(t, configPath, watcherTestConfig)

	var reloadCount atomic.Int32
	w, err := NewWatcher(configPath, func(*Config) {
		reloadCount.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 50 * time.Millisecond
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	// Write a config that fails validation
	invalid := `
server:
  listen_address: "127.0.0.1:8080"

upstreams:
  - name: "api"
    address: "10.0.0.5"
    port: 8081

routes:
  - path: "/api/*"
    upstream: "nonexistent"
`
	writeWatcherConfig(t, configPath, invalid)

	// Give the watcher time to see the event and attempt the reload
	time.Sleep(300 * time.Millisecond)

	if got := reloadCount.Load(); got != 0 {
		t.Errorf("invalid config delivered %d times, want 0", got)
	}
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "charon.yaml")
	writeWatcherConfig(t, configPath, watcherTestConfig)

	var reloadCount atomic.Int32
	w, err := NewWatcher(configPath, func(*Config) {
		reloadCount.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 200 * time.Millisecond
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	// Make multiple rapid modifications
	for i := 0; i < 5; i++ {
		writeWatcherConfig(t, configPath, watcherTestConfig+"\n# revision "+string(rune('0'+i)))
		time.Sleep(30 * time.Millisecond) // Less than debounce interval
	}

	// Wait for debounce interval + some buffer
	time.Sleep(400 * time.Millisecond)

	// Reload should be called only once (or at most twice) due to debouncing
	count := reloadCount.Load()
	if count == 0 {
		t.Error("reload was never called")
	}
	if count > 2 {
		t.Errorf("reload called %d times, want <= 2 (debouncing failed)", count)
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "charon.yaml")
	writeWatcherConfig(t, configPath, watcherTestConfig)

	var reloadCount atomic.Int32
	w, err := NewWatcher(configPath, func(*Config) {
		reloadCount.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}
	w.debounce = 50 * time.Millisecond
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(100 * time.Millisecond)

	// Write a different file in the same directory
	sibling := filepath.Join(tmpDir, "notes.txt")
	if err := os.WriteFile(sibling, []byte("unrelated"), 0644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)

	if got := reloadCount.Load(); got != 0 {
		t.Errorf("sibling file triggered %d reloads, want 0", got)
	}
}

func TestWatcher_DoubleStart(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "charon.yaml")
	writeWatcherConfig(t, configPath, watcherTestConfig)

	w, err := NewWatcher(configPath, func(*Config) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := w.Start(ctx); err == nil {
		t.Error("second Start() call error = nil, want error")
	}
}

func TestWatcher_Stop(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "charon.yaml")
	writeWatcherConfig(t, configPath, watcherTestConfig)

	w, err := NewWatcher(configPath, func(*Config) {})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}

	time.Sleep(50 * time.Millisecond)

	// Stop blocks until the loop exits
	w.Stop()

	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	if running {
		t.Error("watcher still running after Stop()")
	}

	// Second Stop is a no-op
	w.Stop()
}
