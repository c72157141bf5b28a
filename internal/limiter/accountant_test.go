package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore returns a fixed error from every operation.
type failingStore struct {
	err error
}

func (f *failingStore) RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration) (WindowCount, error) {
	return WindowCount{}, f.err
}

func (f *failingStore) Ping(ctx context.Context) error { return f.err }
func (f *failingStore) Close() error                   { return nil }

// manualClock drives an Accountant deterministically.
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestAccountant(store CounterStore) (*Accountant, *manualClock) {
	clock := &manualClock{now: time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)}
	return NewAccountant(store, WithClock(clock.Now)), clock
}

func TestAccountant_AllowsUpToLimit(t *testing.T) {
	acct, clock := newTestAccountant(NewMemoryStore())

	const limit = 5
	window := time.Minute

	for i := 1; i <= limit; i++ {
		d, err := acct.Check(context.Background(), "k", limit, window)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "check %d should be allowed", i)
		assert.Equal(t, limit-i, d.Remaining)
		assert.Zero(t, d.RetryAfter)
		clock.Advance(time.Second)
	}

	d, err := acct.Check(context.Background(), "k", limit, window)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Zero(t, d.Remaining)
	assert.Positive(t, d.RetryAfter)
}

func TestAccountant_RemainingNeverNegative(t *testing.T) {
	acct, _ := newTestAccountant(NewMemoryStore())

	for i := 0; i < 10; i++ {
		d, err := acct.Check(context.Background(), "k", 3, time.Minute)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d.Remaining, 0)
	}
}

func TestAccountant_DeniedChecksStillConsume(t *testing.T) {
	acct, clock := newTestAccountant(NewMemoryStore())

	window := time.Minute

	// Exhaust a limit of 1.
	d, err := acct.Check(context.Background(), "k", 1, window)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// Keep hammering from just inside the window boundary. Every denied
	// check records an entry of its own, so the window never drains while
	// the client keeps retrying: no free retries.
	for i := 0; i < 5; i++ {
		clock.Advance(window - time.Second)
		d, err = acct.Check(context.Background(), "k", 1, window)
		require.NoError(t, err)
		assert.False(t, d.Allowed, "retry %d must stay denied", i)
	}
}

func TestAccountant_WindowSlides(t *testing.T) {
	acct, clock := newTestAccountant(NewMemoryStore())

	window := time.Minute

	d, err := acct.Check(context.Background(), "k", 2, window)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// After a full window of silence the key behaves as fresh.
	clock.Advance(window + time.Second)
	d, err = acct.Check(context.Background(), "k", 2, window)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Remaining)
}

func TestAccountant_ResetTracksOldestEntry(t *testing.T) {
	acct, clock := newTestAccountant(NewMemoryStore())

	window := time.Minute

	d, err := acct.Check(context.Background(), "k", 5, window)
	require.NoError(t, err)
	assert.Equal(t, window, d.Reset)

	// 20s later the first entry has 40s of window left.
	clock.Advance(20 * time.Second)
	d, err = acct.Check(context.Background(), "k", 5, window)
	require.NoError(t, err)
	assert.Equal(t, 40*time.Second, d.Reset)
}

func TestAccountant_InvalidPolicy(t *testing.T) {
	acct, _ := newTestAccountant(NewMemoryStore())

	_, err := acct.Check(context.Background(), "k", 0, time.Minute)
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = acct.Check(context.Background(), "k", 10, 0)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestAccountant_PropagatesStoreErrors(t *testing.T) {
	for _, storeErr := range []error{ErrStoreUnavailable, ErrStoreTimeout} {
		acct, _ := newTestAccountant(&failingStore{err: storeErr})

		_, err := acct.Check(context.Background(), "k", 5, time.Minute)
		assert.ErrorIs(t, err, storeErr)
	}
}
