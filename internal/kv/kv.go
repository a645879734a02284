package kv

import (
	"context"
	"time"
)

// Store is the single-key contract the pipeline requires. No transactional
// guarantees are assumed; absence of a key is a miss, never an error.
type Store interface {
	// Get returns the value and true on a hit. A miss returns (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A non-positive ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
}
