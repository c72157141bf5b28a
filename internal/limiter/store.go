package limiter

import (
	"context"
	"errors"
	"time"
)

// Store failure taxonomy. Callers distinguish "could not reach the store" from
// "store reached but too slow"; neither is retried inside the store itself.
// The Gate decides whether to fail open or closed.
var (
	// ErrStoreUnavailable indicates the counter store could not be reached.
	ErrStoreUnavailable = errors.New("counter store unavailable")

	// ErrStoreTimeout indicates the store was reached but did not respond
	// within the configured operation timeout.
	ErrStoreTimeout = errors.New("counter store timeout")
)

// WindowCount is what one atomic record-and-count operation observed.
type WindowCount struct {
	// Count is the number of entries inside the window after the new entry
	// was inserted. Always >= 1 on success.
	Count int64

	// Oldest is the timestamp of the oldest entry still inside the window.
	// Used to compute an exact reset time instead of approximating it with
	// the window duration.
	Oldest time.Time
}

// CounterStore is the ordered-set-per-key abstraction backing the limiter.
//
// RecordAndCount must execute four sub-operations as one indivisible batch:
// remove entries scored before now-window, insert a new entry scored at now
// with a unique member, count the remaining entries, and refresh the key's
// TTL to the window duration so abandoned keys self-clean. Splitting the
// batch into separate round trips would let a concurrent check read a stale
// count, which is exactly the bug this interface exists to prevent.
//
// Each key is independent; no cross-key transaction support is required.
// Implementations must be safe for concurrent use.
type CounterStore interface {
	// RecordAndCount records one entry at now and returns the post-insert
	// window state. Errors are ErrStoreUnavailable or ErrStoreTimeout
	// (wrapped), never partial results.
	RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration) (WindowCount, error)

	// Ping verifies the store is reachable. Used by health checks.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close() error
}
