// Package storage provides storage backends for journal events.
//
// # Storage Backends
//
// The package implements the journal.Storage interface twice:
//
//   - SQLite: embedded database for single-node deployments
//   - Memory: in-memory storage for testing
//
// # SQLite Backend
//
// The SQLite backend provides durable storage with:
//
//   - WAL mode for concurrent reads and writes
//   - Indexes on time, kind, and source_ip
//   - Connection pooling and a busy timeout for lock contention
//   - A schema_version table for future migrations
//
// The database/sql driver is selected at build time: cgo builds use
// github.com/mattn/go-sqlite3, cgo-less builds fall back to the pure-Go
// modernc.org/sqlite driver. Both read the same database files because
// timestamps are stored as plain integers.
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
//	err = store.Append(ctx, event)
//
// # Thread Safety
//
// All storage backends are safe for concurrent use. Append can be
// called concurrently with List, Count, and the retention operations.
package storage
