package rdx

import (
	"context"
	"testing"
	"time"
)

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()

	release, ok, err := l.Acquire(ctx, "booking_lock:1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first Acquire = %v, %v", ok, err)
	}
	if _, ok, _ := l.Acquire(ctx, "booking_lock:1", time.Minute); ok {
		t.Fatal("second Acquire succeeded while held")
	}
	if _, ok, _ := l.Acquire(ctx, "booking_lock:2", time.Minute); !ok {
		t.Fatal("different key should not be blocked")
	}

	release()
	if _, ok, _ := l.Acquire(ctx, "booking_lock:1", time.Minute); !ok {
		t.Fatal("Acquire after release failed")
	}
}

func TestLocalLockerExpires(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	if _, ok, _ := l.Acquire(ctx, "k", -time.Second); !ok {
		t.Fatal("Acquire failed")
	}
	if _, ok, _ := l.Acquire(ctx, "k", time.Minute); !ok {
		t.Fatal("expired lock should be reclaimable")
	}
}
