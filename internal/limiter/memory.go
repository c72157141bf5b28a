package limiter

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements CounterStore with in-process state. It is intended
// for development, tests, and single-instance deployments; it provides the
// same record-and-count semantics as RedisStore but limits are obviously not
// shared across processes.
//
// Cleanup is lazy, matching the distributed design: stale entries are pruned
// on every check and empty keys are deleted outright. No background goroutine
// is started.
type MemoryStore struct {
	mu   sync.Mutex
	keys map[string]*memoryWindow
}

// memoryWindow holds the recorded entry timestamps for one key, oldest first.
// expiresAt mirrors the key-wide TTL the Redis store sets with PEXPIRE.
type memoryWindow struct {
	entries   []time.Time
	expiresAt time.Time
}

// NewMemoryStore creates an empty in-process counter store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		keys: make(map[string]*memoryWindow),
	}
}

// RecordAndCount records one entry at now and returns the post-insert window
// state. The mutex makes the expire/insert/count sequence atomic, playing the
// role the MULTI/EXEC transaction plays in the Redis store.
func (m *MemoryStore) RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration) (WindowCount, error) {
	if err := ctx.Err(); err != nil {
		return WindowCount{}, wrapStoreErr(key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.keys[key]
	if !exists || now.After(w.expiresAt) {
		w = &memoryWindow{}
		m.keys[key] = w
	}

	cutoff := now.Add(-window)

	// Drop entries strictly older than the window boundary. Entries are
	// appended in arrival order, so a single scan from the front suffices.
	i := 0
	for i < len(w.entries) && w.entries[i].Before(cutoff) {
		i++
	}
	w.entries = append(w.entries[:0], w.entries[i:]...)

	w.entries = append(w.entries, now)
	w.expiresAt = now.Add(window)

	return WindowCount{
		Count:  int64(len(w.entries)),
		Oldest: w.entries[0],
	}, nil
}

// Ping always succeeds for the in-process store.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close drops all recorded state.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = make(map[string]*memoryWindow)
	return nil
}

// Len reports the number of live keys. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
