// Package limiter implements distributed sliding-window-log rate limiting.
// Every check records one timestamped entry in a per-key ordered set held in a
// shared counter store, expires entries older than the window, and counts what
// remains, all in a single atomic store round trip. Because the store is the
// only shared state, any number of gate instances can enforce the same limits
// without coordinating with each other.
//
// A deliberate property of this design: the check always records, even when the
// request is rejected. Rejected attempts keep consuming window slots until they
// age out, so clients cannot retry for free. See Accountant.Check.
package limiter

import "time"

// Decision is the outcome of a single rate limit check. It is computed from the
// count observed at decision time and is not persisted anywhere.
type Decision struct {
	Allowed   bool          // whether the request may proceed
	Limit     int           // the resolved request limit for the window
	Remaining int           // max(0, limit - observed count), never negative
	Reset     time.Duration // time until the oldest counted entry leaves the window

	// RetryAfter is how long the client should wait before trying again.
	// Meaningful only when Allowed is false.
	RetryAfter time.Duration
}
