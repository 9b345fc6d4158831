// Package journal provides an append-only record of notable traffic
// events: denied requests, blocklist changes, upstream health
// transitions, and configuration reloads.
//
// # Architecture
//
// The journal consists of three layers:
//
//  1. Recorder - accepts events from the engine without blocking it
//  2. Storage backend - persists events (SQLite, in-memory)
//  3. Retention pruner - deletes events past the retention window
//
// # Recording Flow
//
// Events are recorded asynchronously so a slow disk never stalls the
// data plane:
//
//	Engine event (denial, block, health flip, reload)
//	     ↓
//	Recorder channel (buffered; full channel drops the event)
//	     ↓
//	Background worker
//	     ↓
//	Storage backend (SQLite, WAL mode)
//
// The journal is write-only from the engine's point of view. Nothing is
// read back at startup: blocks and rate state always begin empty.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path: "data/journal.db",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	rec := recorder.NewRecorder(store, nil)
//	defer rec.Close()
//
//	rec.Record(&journal.Event{
//	    Kind:     journal.KindIPBlocked,
//	    SourceIP: "203.0.113.9",
//	    Reason:   "rate_limit_exceeded",
//	})
//
// # Retention
//
// Old events are pruned on a cron schedule:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    Days:     30,
//	    Schedule: "0 3 * * *", // daily at 3 AM
//	})
//	pruner.Start(ctx)
//	defer pruner.Stop()
//
// Retention enforces both an age limit (Days) and an optional total
// size cap (MaxRecords).
package journal
