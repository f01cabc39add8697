package checkout

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLocker_ExclusivePerKey(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "tok-1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("first acquire: ok=%v err=%v", ok, err)
	}
	ok, err = l.Acquire(ctx, "tok-1", time.Minute)
	if err != nil || ok {
		t.Fatalf("second acquire must fail: ok=%v err=%v", ok, err)
	}
	ok, err = l.Acquire(ctx, "tok-2", time.Minute)
	if err != nil || !ok {
		t.Fatalf("other key must be free: ok=%v err=%v", ok, err)
	}
}

func TestMemoryLocker_ReleaseFreesTheKey(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "tok-1", time.Minute); !ok {
		t.Fatal("first acquire failed")
	}
	if err := l.Release(ctx, "tok-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok, _ := l.Acquire(ctx, "tok-1", time.Minute); !ok {
		t.Fatal("acquire after release failed")
	}
}

func TestMemoryLocker_ExpiredLockIsReacquirable(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	if ok, _ := l.Acquire(ctx, "tok-1", 5*time.Millisecond); !ok {
		t.Fatal("first acquire failed")
	}
	time.Sleep(10 * time.Millisecond)
	if ok, _ := l.Acquire(ctx, "tok-1", time.Minute); !ok {
		t.Fatal("expired lock must be reacquirable")
	}
}
