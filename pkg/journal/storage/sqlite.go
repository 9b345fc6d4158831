package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"stratos-hq/charon/pkg/journal"
)

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns is the maximum number of open connections to the database.
	// Default: 10
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/journal.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface using SQLite. WAL mode
// is always enabled; the journal is written on the data plane's hot path
// and readers must not block writers.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage creates a new SQLite storage backend.
// It initializes the database schema and enables WAL mode.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	logger := slog.Default().With("component", "journal.storage.sqlite")

	db, err := sql.Open(sqliteDriver, config.Path)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "open", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: logger,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("SQLite journal storage initialized",
		"path", config.Path,
		"driver", sqliteDriver,
		"max_open_conns", config.MaxOpenConns,
	)

	return s, nil
}

// initialize sets up the database schema and enables WAL mode.
func (s *SQLiteStorage) initialize() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return journal.NewStorageError("sqlite", "enable_wal", err)
	}

	busyTimeoutMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyTimeoutMs)); err != nil {
		return journal.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return journal.NewStorageError("sqlite", "create_schema", err)
	}

	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return journal.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	err := s.db.QueryRow(GetSchemaVersion).Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return journal.NewStorageError("sqlite", "get_schema_version", err)
	}

	if version != SchemaVersion {
		return journal.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	return nil
}

// Append persists one journal event to the database.
func (s *SQLiteStorage) Append(ctx context.Context, event *journal.Event) error {
	query := `
		INSERT INTO journal (
			id, time, kind,
			source_ip, reason, retry_after_seconds,
			upstream, route, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		event.ID, event.Time.UnixNano(), string(event.Kind),
		nullable(event.SourceIP), nullable(event.Reason), event.RetryAfterSeconds,
		nullable(event.Upstream), nullable(event.Route), nullable(event.Detail),
	)
	if err != nil {
		return journal.NewStorageError("sqlite", "append", err)
	}

	return nil
}

// List retrieves events matching the query, newest first.
func (s *SQLiteStorage) List(ctx context.Context, query *journal.Query) ([]*journal.Event, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT id, time, kind, source_ip, reason, retry_after_seconds, upstream, route, detail FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}
	sqlQuery += " ORDER BY time DESC"

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	sqlQuery += fmt.Sprintf(" LIMIT %d", limit)

	if query.Offset > 0 {
		sqlQuery += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, journal.NewStorageError("sqlite", "list", err)
	}
	defer rows.Close()

	events := []*journal.Event{}
	for rows.Next() {
		event, err := scanRow(rows)
		if err != nil {
			return nil, journal.NewStorageError("sqlite", "scan", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, journal.NewStorageError("sqlite", "list", err)
	}

	return events, nil
}

// Count returns the number of events matching the query.
func (s *SQLiteStorage) Count(ctx context.Context, query *journal.Query) (int64, error) {
	whereClause, args := buildWhereClause(query)

	sqlQuery := "SELECT COUNT(*) FROM journal"
	if whereClause != "" {
		sqlQuery += " WHERE " + whereClause
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, sqlQuery, args...).Scan(&count); err != nil {
		return 0, journal.NewStorageError("sqlite", "count", err)
	}

	return count, nil
}

// PruneBefore deletes events older than the cutoff.
func (s *SQLiteStorage) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM journal WHERE time < ?", cutoff.UnixNano())
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "prune", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "prune", err)
	}

	return removed, nil
}

// Trim deletes the oldest events until at most max remain.
func (s *SQLiteStorage) Trim(ctx context.Context, max int64) (int64, error) {
	// Single statement keeps the newest max rows without a separate
	// count-then-delete round trip.
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM journal WHERE id NOT IN (SELECT id FROM journal ORDER BY time DESC LIMIT ?)", max)
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "trim", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, journal.NewStorageError("sqlite", "trim", err)
	}

	return removed, nil
}

// Close releases resources held by the storage backend.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return journal.NewStorageError("sqlite", "close", err)
	}

	s.logger.Info("SQLite journal storage closed")
	return nil
}

// Ping verifies the database connection. The admin health endpoint uses
// this to report journal availability.
func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return journal.NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// buildWhereClause builds a SQL WHERE clause from query filters.
// Returns the clause (without "WHERE") and the query arguments.
func buildWhereClause(query *journal.Query) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if query.Since != nil {
		conditions = append(conditions, "time >= ?")
		args = append(args, query.Since.UnixNano())
	}
	if query.Until != nil {
		conditions = append(conditions, "time <= ?")
		args = append(args, query.Until.UnixNano())
	}
	if query.Kind != "" {
		conditions = append(conditions, "kind = ?")
		args = append(args, string(query.Kind))
	}
	if query.SourceIP != "" {
		conditions = append(conditions, "source_ip = ?")
		args = append(args, query.SourceIP)
	}

	whereClause := ""
	for i, condition := range conditions {
		if i > 0 {
			whereClause += " AND "
		}
		whereClause += condition
	}

	return whereClause, args
}

// scanRow scans a database row into an Event.
func scanRow(rows *sql.Rows) (*journal.Event, error) {
	var event journal.Event
	var timeNanos int64
	var kind string
	var sourceIP, reason, upstream, route, detail sql.NullString

	err := rows.Scan(
		&event.ID, &timeNanos, &kind,
		&sourceIP, &reason, &event.RetryAfterSeconds,
		&upstream, &route, &detail,
	)
	if err != nil {
		return nil, err
	}

	event.Time = time.Unix(0, timeNanos)
	event.Kind = journal.Kind(kind)
	event.SourceIP = sourceIP.String
	event.Reason = reason.String
	event.Upstream = upstream.String
	event.Route = route.String
	event.Detail = detail.String

	return &event, nil
}

// nullable converts empty strings to NULL for optional columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
