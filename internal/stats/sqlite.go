package stats

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	subject  TEXT NOT NULL,
	scope    TEXT NOT NULL,
	tier     TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	allowed  INTEGER NOT NULL,
	degraded INTEGER NOT NULL,
	at       TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_at ON decisions(at);
`

// SQLiteStore persists decision events in a SQLite database. It is the
// durable single-node option; multi-instance deployments use postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database at the given DSN and ensures the schema
// exists.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required for SQLite stats")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// RecordDecision appends one decision event.
func (ss *SQLiteStore) RecordDecision(ctx context.Context, ev Event) error {
	_, err := ss.db.ExecContext(ctx,
		`INSERT INTO decisions (subject, scope, tier, outcome, allowed, degraded, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Subject, ev.Scope, ev.Tier, ev.Outcome, boolToInt(ev.Allowed), boolToInt(ev.Degraded), ev.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (ss *SQLiteStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultMaxEntries
	}

	rows, err := ss.db.QueryContext(ctx,
		`SELECT subject, scope, tier, outcome, allowed, degraded, at
		 FROM decisions ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var ev Event
		var allowed, degraded int
		if err := rows.Scan(&ev.Subject, &ev.Scope, &ev.Tier, &ev.Outcome, &allowed, &degraded, &ev.At); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		ev.Allowed = allowed != 0
		ev.Degraded = degraded != 0
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read decisions: %w", err)
	}

	return events, nil
}

func (ss *SQLiteStore) Ping(ctx context.Context) error {
	return ss.db.PingContext(ctx)
}

func (ss *SQLiteStore) Close() error {
	return ss.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
