//go:build cgo

package storage

import (
	// Registers the cgo-backed "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

// sqliteDriver is the database/sql driver name used for the journal
// database. Builds with cgo use mattn/go-sqlite3.
const sqliteDriver = "sqlite3"
