package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock is already held by someone else.
var ErrNotAcquired = errors.New("lock not acquired")

// Lease is proof of a held lock. The token guards release against deleting a
// lock that expired and was re-acquired by another worker.
type Lease struct {
	Name  string
	Token string
}

// Locker is a cooperative mutual-exclusion primitive. Acquire fails fast with
// ErrNotAcquired when the lock is held; any other error means the lock store
// itself is unavailable, which callers must treat as acquisition failure
// (refusing concurrent work is safer than proceeding unprotected).
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (*Lease, error)
	Release(ctx context.Context, lease *Lease) error
}
