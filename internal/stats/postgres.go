package stats

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id       BIGSERIAL PRIMARY KEY,
	subject  TEXT NOT NULL,
	scope    TEXT NOT NULL,
	tier     TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	allowed  BOOLEAN NOT NULL,
	degraded BOOLEAN NOT NULL,
	at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_decisions_at ON decisions(at);
`

// PostgresStore persists decision events in PostgreSQL. The production
// choice when several gate instances should share one audit trail.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a connection pool for the given DSN and ensures
// the schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("dsn is required for PostgreSQL stats")
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(context.Background(), postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// RecordDecision appends one decision event.
func (ps *PostgresStore) RecordDecision(ctx context.Context, ev Event) error {
	_, err := ps.pool.Exec(ctx,
		`INSERT INTO decisions (subject, scope, tier, outcome, allowed, degraded, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.Subject, ev.Scope, ev.Tier, ev.Outcome, ev.Allowed, ev.Degraded, ev.At.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record decision: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (ps *PostgresStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = defaultMaxEntries
	}

	rows, err := ps.pool.Query(ctx,
		`SELECT subject, scope, tier, outcome, allowed, degraded, at
		 FROM decisions ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0, limit)
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Subject, &ev.Scope, &ev.Tier, &ev.Outcome, &ev.Allowed, &ev.Degraded, &ev.At); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read decisions: %w", err)
	}

	return events, nil
}

func (ps *PostgresStore) Ping(ctx context.Context) error {
	return ps.pool.Ping(ctx)
}

func (ps *PostgresStore) Close() error {
	ps.pool.Close()
	return nil
}
