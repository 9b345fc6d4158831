package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"stratos-hq/charon/pkg/journal"
)

// createTempDB creates a temporary SQLite journal database for testing.
func createTempDB(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "journal.db")

	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		BusyTimeout:  5 * time.Second,
	}

	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}

	return store, dbPath
}

func testEvent(id string, at time.Time, kind journal.Kind, ip string) *journal.Event {
	return &journal.Event{
		ID:       id,
		Time:     at,
		Kind:     kind,
		SourceIP: ip,
		Reason:   "rate_limit_exceeded",
	}
}

func TestSQLiteStorage_Initialize(t *testing.T) {
	store, dbPath := createTempDB(t)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}

	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping() failed: %v", err)
	}
}

func TestSQLiteStorage_AppendAndList(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now()

	event := &journal.Event{
		ID:                "ev-1",
		Time:              now,
		Kind:              journal.KindAdmissionDenied,
		SourceIP:          "203.0.113.9",
		Reason:            "rate_limit_exceeded",
		RetryAfterSeconds: 60,
		Route:             "/api/*",
		Detail:            "burst exhausted",
	}

	if err := store.Append(ctx, event); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}

	results, err := store.List(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(results))
	}

	got := results[0]
	if got.ID != "ev-1" || got.Kind != journal.KindAdmissionDenied {
		t.Errorf("Round-trip identity mismatch: %+v", got)
	}
	if got.SourceIP != "203.0.113.9" || got.Reason != "rate_limit_exceeded" {
		t.Errorf("Round-trip admission fields mismatch: %+v", got)
	}
	if got.RetryAfterSeconds != 60 || got.Route != "/api/*" || got.Detail != "burst exhausted" {
		t.Errorf("Round-trip detail fields mismatch: %+v", got)
	}
	if !got.Time.Equal(now) {
		t.Errorf("Expected time %v, got %v", now, got.Time)
	}
	if got.Upstream != "" {
		t.Errorf("Expected empty upstream, got %q", got.Upstream)
	}
}

func TestSQLiteStorage_ListNewestFirst(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		event := testEvent(fmt.Sprintf("ev-%d", i), base.Add(time.Duration(i)*time.Second), journal.KindIPBlocked, "198.51.100.1")
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	results, err := store.List(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 events, got %d", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Time.After(results[i-1].Time) {
			t.Fatalf("Events out of order at %d: %v then %v", i, results[i-1].Time, results[i].Time)
		}
	}
}

func TestSQLiteStorage_ListFilters(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	events := []*journal.Event{
		testEvent("ev-1", base.Add(-2*time.Hour), journal.KindIPBlocked, "198.51.100.1"),
		testEvent("ev-2", base.Add(-time.Hour), journal.KindAdmissionDenied, "198.51.100.1"),
		testEvent("ev-3", base, journal.KindAdmissionDenied, "203.0.113.9"),
	}
	for _, event := range events {
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	// Filter by kind
	results, err := store.List(ctx, &journal.Query{Kind: journal.KindAdmissionDenied})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("Kind filter: expected 2 events, got %d", len(results))
	}

	// Filter by source IP
	results, err = store.List(ctx, &journal.Query{SourceIP: "203.0.113.9"})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ev-3" {
		t.Errorf("SourceIP filter: expected ev-3, got %+v", results)
	}

	// Filter by time range
	since := base.Add(-90 * time.Minute)
	until := base.Add(-time.Minute)
	results, err = store.List(ctx, &journal.Query{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ev-2" {
		t.Errorf("Time filter: expected ev-2, got %+v", results)
	}

	// Combined filters
	results, err = store.List(ctx, &journal.Query{Kind: journal.KindAdmissionDenied, SourceIP: "198.51.100.1"})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ev-2" {
		t.Errorf("Combined filter: expected ev-2, got %+v", results)
	}
}

func TestSQLiteStorage_ListPagination(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 10; i++ {
		event := testEvent(fmt.Sprintf("ev-%d", i), base.Add(time.Duration(i)*time.Second), journal.KindIPBlocked, "198.51.100.1")
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	page1, err := store.List(ctx, &journal.Query{Limit: 3})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	page2, err := store.List(ctx, &journal.Query{Limit: 3, Offset: 3})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	if len(page1) != 3 || len(page2) != 3 {
		t.Fatalf("Expected 3-event pages, got %d and %d", len(page1), len(page2))
	}
	// Newest first: page1 starts at ev-9, page2 at ev-6.
	if page1[0].ID != "ev-9" || page2[0].ID != "ev-6" {
		t.Errorf("Pagination order wrong: page1[0]=%s page2[0]=%s", page1[0].ID, page2[0].ID)
	}
}

func TestSQLiteStorage_Count(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 4; i++ {
		kind := journal.KindIPBlocked
		if i%2 == 0 {
			kind = journal.KindAdmissionDenied
		}
		event := testEvent(fmt.Sprintf("ev-%d", i), base.Add(time.Duration(i)*time.Second), kind, "198.51.100.1")
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	total, err := store.Count(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if total != 4 {
		t.Errorf("Expected 4 events, got %d", total)
	}

	blocked, err := store.Count(ctx, &journal.Query{Kind: journal.KindIPBlocked})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if blocked != 2 {
		t.Errorf("Expected 2 blocked events, got %d", blocked)
	}
}

func TestSQLiteStorage_PruneBefore(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	old := testEvent("ev-old", base.Add(-48*time.Hour), journal.KindIPBlocked, "198.51.100.1")
	fresh := testEvent("ev-new", base, journal.KindIPBlocked, "198.51.100.1")
	for _, event := range []*journal.Event{old, fresh} {
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	removed, err := store.PruneBefore(ctx, base.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneBefore() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 event pruned, got %d", removed)
	}

	results, err := store.List(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "ev-new" {
		t.Errorf("Expected only ev-new to survive, got %+v", results)
	}
}

func TestSQLiteStorage_Trim(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 10; i++ {
		event := testEvent(fmt.Sprintf("ev-%d", i), base.Add(time.Duration(i)*time.Second), journal.KindIPBlocked, "198.51.100.1")
		if err := store.Append(ctx, event); err != nil {
			t.Fatalf("Append() failed: %v", err)
		}
	}

	removed, err := store.Trim(ctx, 3)
	if err != nil {
		t.Fatalf("Trim() failed: %v", err)
	}
	if removed != 7 {
		t.Errorf("Expected 7 events trimmed, got %d", removed)
	}

	results, err := store.List(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 surviving events, got %d", len(results))
	}
	// The newest three survive.
	if results[0].ID != "ev-9" || results[2].ID != "ev-7" {
		t.Errorf("Trim kept wrong events: %s .. %s", results[0].ID, results[2].ID)
	}

	// Trimming under the cap is a no-op.
	removed, err = store.Trim(ctx, 5)
	if err != nil {
		t.Fatalf("Trim() failed: %v", err)
	}
	if removed != 0 {
		t.Errorf("Expected no-op trim, removed %d", removed)
	}
}

func TestSQLiteStorage_ConcurrentAppends(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 5; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				event := testEvent(fmt.Sprintf("ev-%d-%d", g, i), time.Now(), journal.KindAdmissionDenied, "198.51.100.1")
				if err := store.Append(ctx, event); err != nil {
					t.Errorf("Append() failed: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	total, err := store.Count(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if total != 100 {
		t.Errorf("Expected 100 events, got %d", total)
	}
}

func TestSQLiteStorage_ReopenKeepsEvents(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	config := &SQLiteConfig{Path: dbPath, MaxOpenConns: 5, MaxIdleConns: 2, BusyTimeout: 5 * time.Second}

	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Append(ctx, testEvent("ev-1", time.Now(), journal.KindConfigReloaded, "")); err != nil {
		t.Fatalf("Append() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	reopened, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	total, err := reopened.Count(ctx, &journal.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if total != 1 {
		t.Errorf("Expected 1 event after reopen, got %d", total)
	}
}

func BenchmarkSQLiteStorage_Append(b *testing.B) {
	dbPath := filepath.Join(b.TempDir(), "journal.db")
	store, err := NewSQLiteStorage(&SQLiteConfig{Path: dbPath, MaxOpenConns: 5, MaxIdleConns: 2, BusyTimeout: 5 * time.Second})
	if err != nil {
		b.Fatalf("NewSQLiteStorage() failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		event := testEvent(fmt.Sprintf("ev-%d", i), time.Now(), journal.KindAdmissionDenied, "198.51.100.1")
		if err := store.Append(ctx, event); err != nil {
			b.Fatalf("Append() failed: %v", err)
		}
	}
}
