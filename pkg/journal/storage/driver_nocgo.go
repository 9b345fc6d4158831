//go:build !cgo

package storage

import (
	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

// sqliteDriver is the database/sql driver name used for the journal
// database. Builds without cgo fall back to the pure-Go modernc driver,
// which keeps cross-compilation working.
const sqliteDriver = "sqlite"
