package store

import (
	"context"
	"time"
)

// KV is the shared backing store consumed by the result cache and the
// admission controller. Implementations must keep every call bounded by a
// short I/O timeout; callers treat any returned error as "store
// unavailable" and degrade locally (Miss / Allow), never surface it.
type KV interface {
	// Get returns (value, found, err). A missing key is (_, false, nil).
	Get(ctx context.Context, key string) (string, bool, error)
	// SetWithTTL stores value under key with the given expiry.
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	// IncrWithTTL atomically increments the counter at key and returns the
	// post-increment value. The first increment in a counter's life arms
	// the ttl so the key is reclaimed even if no further requests arrive.
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
