// Package stats persists recently issued admission decisions for operator
// inspection. Recording is strictly best-effort: a failing sink must never
// influence a gate decision, so callers log sink errors and move on.
package stats

import (
	"context"
	"time"
)

// Event is one audited admission decision.
type Event struct {
	Subject  string    `json:"subject"`
	Scope    string    `json:"scope"`
	Tier     string    `json:"tier"`
	Outcome  string    `json:"outcome"`
	Allowed  bool      `json:"allowed"`
	Degraded bool      `json:"degraded"`
	At       time.Time `json:"at"`
}

// Store defines the interface for decision audit persistence. It can be
// implemented by different backends such as an in-process ring buffer or a
// SQL database.
type Store interface {
	// RecordDecision appends one decision event.
	RecordDecision(ctx context.Context, ev Event) error

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close closes the store and cleans up resources.
	Close() error
}
