package stats

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(subject string, at time.Time) Event {
	return Event{
		Subject: subject,
		Scope:   "/api/v1/orders",
		Tier:    "free",
		Outcome: "admitted",
		Allowed: true,
		At:      at,
	}
}

func TestMemoryStore_RecordAndRecent(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.RecordDecision(ctx, testEvent(fmt.Sprintf("user-%d", i), base.Add(time.Duration(i)*time.Second))))
	}

	events, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Newest first.
	assert.Equal(t, "user-2", events[0].Subject)
	assert.Equal(t, "user-0", events[2].Subject)
}

func TestMemoryStore_RingBufferEvicts(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordDecision(ctx, testEvent(fmt.Sprintf("user-%d", i), base)))
	}

	events, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)

	// Only the three newest survive.
	assert.Equal(t, "user-4", events[0].Subject)
	assert.Equal(t, "user-3", events[1].Subject)
	assert.Equal(t, "user-2", events[2].Subject)
}

func TestMemoryStore_RecentLimit(t *testing.T) {
	store := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordDecision(ctx, testEvent(fmt.Sprintf("user-%d", i), time.Now())))
	}

	events, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "user-4", events[0].Subject)
}

func TestMemoryStore_EmptyRecent(t *testing.T) {
	store := NewMemoryStore(10)

	events, err := store.Recent(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestMemoryStore_DefaultCapacity(t *testing.T) {
	store := NewMemoryStore(0)
	assert.Len(t, store.events, defaultMaxEntries)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	store := NewMemoryStore(10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.RecordDecision(ctx, testEvent("user-1", time.Now())))
	_, err := store.Recent(ctx, 5)
	assert.Error(t, err)
}
