package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryLease struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker implements Locker with process-local state. It honors the same
// TTL and token semantics as the Redis implementation so tests exercise
// identical behavior.
type MemoryLocker struct {
	mu     sync.Mutex
	leases map[string]memoryLease
	now    func() time.Time
}

// NewMemoryLocker returns an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		leases: make(map[string]memoryLease),
		now:    time.Now,
	}
}

func (l *MemoryLocker) Acquire(_ context.Context, name string, ttl time.Duration) (*Lease, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("lock ttl must be positive")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if existing, ok := l.leases[name]; ok && existing.expiresAt.After(now) {
		return nil, ErrNotAcquired
	}
	token := uuid.NewString()
	l.leases[name] = memoryLease{token: token, expiresAt: now.Add(ttl)}
	return &Lease{Name: name, Token: token}, nil
}

func (l *MemoryLocker) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.leases[lease.Name]; ok && existing.token == lease.Token {
		delete(l.leases, lease.Name)
	}
	return nil
}

// SetClock overrides the time source for expiry tests.
func (l *MemoryLocker) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}
