package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultOpTimeout bounds a single store round trip. It is deliberately much
// shorter than typical request timeouts so a slow Redis cannot stall every
// protected request for the full request deadline.
const DefaultOpTimeout = 500 * time.Millisecond

// RedisStore implements CounterStore on a Redis sorted set per key. Entries
// are scored by unix-millisecond timestamp; members are UUIDs so two entries
// landing in the same millisecond never overwrite each other's accounting.
type RedisStore struct {
	client    redis.UniversalClient
	opTimeout time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithOpTimeout overrides the per-operation timeout.
func WithOpTimeout(d time.Duration) RedisStoreOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.opTimeout = d
		}
	}
}

// NewRedisStore creates a counter store backed by the given Redis client.
// The store does not own the client; closing the store is a no-op on it.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		opTimeout: DefaultOpTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordAndCount runs the expire/insert/count/touch sequence as a single
// MULTI/EXEC transaction: one round trip, no interleaving with concurrent
// checks against the same key.
func (s *RedisStore) RecordAndCount(ctx context.Context, key string, now time.Time, window time.Duration) (WindowCount, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	cutoff := now.Add(-window).UnixMilli()

	pipe := s.client.TxPipeline()

	// Entries scored at exactly now-window are still inside the window, so
	// the removal bound is exclusive.
	pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: uuid.NewString(),
	})
	countCmd := pipe.ZCard(ctx, key)
	oldestCmd := pipe.ZRangeWithScores(ctx, key, 0, 0)
	pipe.PExpire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return WindowCount{}, wrapStoreErr(key, err)
	}

	count, err := countCmd.Result()
	if err != nil {
		return WindowCount{}, wrapStoreErr(key, err)
	}

	wc := WindowCount{Count: count}
	if members, err := oldestCmd.Result(); err == nil && len(members) > 0 {
		wc.Oldest = time.UnixMilli(int64(members[0].Score))
	} else {
		// The entry we just inserted guarantees a non-empty set; if the
		// read-back is missing for any reason, fall back to now so reset
		// degrades to the full window duration.
		wc.Oldest = now
	}

	return wc, nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrapStoreErr("ping", err)
	}
	return nil
}

// Close is a no-op; the Redis client is injected and owned by the caller.
func (s *RedisStore) Close() error {
	return nil
}

// wrapStoreErr maps transport errors onto the store failure taxonomy while
// preserving the underlying cause for logs.
func wrapStoreErr(key string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: key %s: %v", ErrStoreTimeout, key, err)
	}
	return fmt.Errorf("%w: key %s: %v", ErrStoreUnavailable, key, err)
}
