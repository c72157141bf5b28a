package limiter

import (
	"context"
	"errors"
	"time"
)

// ErrInvalidPolicy indicates a check was attempted with a non-positive limit
// or window. Policies are validated at load time, so hitting this at runtime
// means a programming error, not bad user input.
var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// Accountant performs the sliding-window check against a CounterStore.
//
// Contract: Check records an entry on EVERY call, including calls that return
// a denied decision. A client hammering a key that is already over its limit
// keeps pushing its window forward and keeps being denied; retries are never
// free. The entries are bounded by the store's key TTL, so a key that goes
// quiet self-cleans after one window.
type Accountant struct {
	store CounterStore
	now   func() time.Time
}

// AccountantOption configures an Accountant.
type AccountantOption func(*Accountant)

// WithClock overrides the time source. Used by tests to drive the window
// deterministically.
func WithClock(now func() time.Time) AccountantOption {
	return func(a *Accountant) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAccountant creates an Accountant over the given store.
func NewAccountant(store CounterStore, opts ...AccountantOption) *Accountant {
	a := &Accountant{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Check runs one atomic expire/record/count cycle for key and derives the
// decision from the observed count.
//
// The decision reflects the count as measured at decision time: under
// concurrent checks against the same key the store may transiently hold more
// than limit entries, each racing caller sees its own post-insert count, and
// every caller that observed count > limit is denied. Enforcement is
// eventually accurate rather than a hard atomic ceiling; adding client-side
// locking to close that gap would reintroduce the single point of
// serialization this design exists to avoid.
//
// Store errors (ErrStoreUnavailable, ErrStoreTimeout) propagate unchanged so
// the caller can apply its fail-open or fail-closed policy.
func (a *Accountant) Check(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 || window <= 0 {
		return Decision{}, ErrInvalidPolicy
	}

	now := a.now()

	wc, err := a.store.RecordAndCount(ctx, key, now, window)
	if err != nil {
		return Decision{}, err
	}

	remaining := limit - int(wc.Count)
	if remaining < 0 {
		remaining = 0
	}

	// The oldest surviving entry falls out of the window at oldest+window;
	// that is when one slot frees up.
	reset := wc.Oldest.Add(window).Sub(now)
	if reset < 0 {
		reset = 0
	}

	d := Decision{
		Allowed:   wc.Count <= int64(limit),
		Limit:     limit,
		Remaining: remaining,
		Reset:     reset,
	}
	if !d.Allowed {
		d.RetryAfter = reset
	}

	return d, nil
}
