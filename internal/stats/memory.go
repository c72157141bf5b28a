package stats

import (
	"context"
	"sync"
)

const defaultMaxEntries = 1024

// MemoryStore keeps the most recent events in a fixed-size ring buffer.
// Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu     sync.Mutex
	events []Event
	next   int
	filled bool
}

// NewMemoryStore creates a ring buffer holding at most maxEntries events.
// Non-positive maxEntries falls back to the default capacity.
func NewMemoryStore(maxEntries int) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryStore{
		events: make([]Event, maxEntries),
	}
}

// RecordDecision appends one event, evicting the oldest when full.
func (ms *MemoryStore) RecordDecision(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.events[ms.next] = ev
	ms.next++
	if ms.next == len(ms.events) {
		ms.next = 0
		ms.filled = true
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (ms *MemoryStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	size := ms.next
	if ms.filled {
		size = len(ms.events)
	}
	if limit <= 0 || limit > size {
		limit = size
	}

	out := make([]Event, 0, limit)
	idx := ms.next - 1
	for len(out) < limit {
		if idx < 0 {
			idx = len(ms.events) - 1
		}
		out = append(out, ms.events[idx])
		idx--
	}
	return out, nil
}

func (ms *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (ms *MemoryStore) Close() error {
	return nil
}
