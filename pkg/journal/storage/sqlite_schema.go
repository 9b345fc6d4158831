package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the journal schema.
// Timestamps are stored as Unix nanoseconds so the cgo and pure-Go
// drivers read each other's databases byte for byte.
const Schema = `
-- Journal events table
CREATE TABLE IF NOT EXISTS journal (
    id TEXT PRIMARY KEY,
    time INTEGER NOT NULL,
    kind TEXT NOT NULL,

    -- Admission events
    source_ip TEXT,
    reason TEXT,
    retry_after_seconds INTEGER,

    -- Upstream and routing events
    upstream TEXT,
    route TEXT,

    -- Free-form context
    detail TEXT
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_journal_time ON journal(time);
CREATE INDEX IF NOT EXISTS idx_journal_kind ON journal(kind);
CREATE INDEX IF NOT EXISTS idx_journal_source_ip ON journal(source_ip);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
