package lock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"docket/internal/lock"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	locker := lock.NewMemoryLocker()
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "lock:doc-1:ocr", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := locker.Acquire(ctx, "lock:doc-1:ocr", time.Minute); !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatalf("expected ErrNotAcquired for held lock, got %v", err)
	}
	// A different name is independent.
	if _, err := locker.Acquire(ctx, "lock:doc-1:chunk", time.Minute); err != nil {
		t.Fatalf("Acquire independent lock: %v", err)
	}

	if err := locker.Release(ctx, lease); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := locker.Acquire(ctx, "lock:doc-1:ocr", time.Minute); err != nil {
		t.Fatalf("expected re-acquire after release, got %v", err)
	}
}

func TestMemoryLockerReleaseIsIdempotentAndTokenChecked(t *testing.T) {
	locker := lock.NewMemoryLocker()
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, "lock:x", time.Minute)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := locker.Release(ctx, lease); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := locker.Release(ctx, lease); err != nil {
		t.Fatalf("second Release: %v", err)
	}

	// A stale lease must not release the successor's lock.
	successor, err := locker.Acquire(ctx, "lock:x", time.Minute)
	if err != nil {
		t.Fatalf("Acquire successor: %v", err)
	}
	if err := locker.Release(ctx, lease); err != nil {
		t.Fatalf("stale Release: %v", err)
	}
	if _, err := locker.Acquire(ctx, "lock:x", time.Minute); !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatal("stale lease released the successor's lock")
	}
	if err := locker.Release(ctx, successor); err != nil {
		t.Fatalf("Release successor: %v", err)
	}
}

func TestMemoryLockerExpiry(t *testing.T) {
	locker := lock.NewMemoryLocker()
	ctx := context.Background()

	current := time.Now()
	locker.SetClock(func() time.Time { return current })

	if _, err := locker.Acquire(ctx, "lock:x", 30*time.Second); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if _, err := locker.Acquire(ctx, "lock:x", 30*time.Second); !errors.Is(err, lock.ErrNotAcquired) {
		t.Fatalf("expected held lock, got %v", err)
	}

	current = current.Add(time.Minute)
	if _, err := locker.Acquire(ctx, "lock:x", 30*time.Second); err != nil {
		t.Fatalf("expected acquisition after TTL expiry, got %v", err)
	}
}

func TestMemoryLockerRejectsNonPositiveTTL(t *testing.T) {
	locker := lock.NewMemoryLocker()
	if _, err := locker.Acquire(context.Background(), "lock:x", 0); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}
