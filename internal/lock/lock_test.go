package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"galla/backend/internal/store"
)

func TestLocalSerializesSameKey(t *testing.T) {
	locker := NewLocal()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), DayKey("2026-03-14"))
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			release()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxInside)
	}
	if len(locker.entries) != 0 {
		t.Fatalf("expected entries to be cleaned up, got %d", len(locker.entries))
	}
}

func TestLocalDisjointKeysDoNotBlock(t *testing.T) {
	locker := NewLocal()
	release, err := locker.Acquire(context.Background(), SaleKey("a"))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	other, err := locker.Acquire(ctx, SaleKey("b"), DueKey("c"))
	if err != nil {
		t.Fatalf("disjoint keys should not block: %v", err)
	}
	other()
}

func TestLocalTimesOutWithConflict(t *testing.T) {
	locker := NewLocal()
	release, err := locker.Acquire(context.Background(), DueKey("d1"), DayKey("2026-03-14"))
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.Acquire(ctx, DayKey("2026-03-14")); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	release()
	release()
	again, err := locker.Acquire(context.Background(), DayKey("2026-03-14"), DayKey("2026-03-14"))
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	again()
}

func TestReleaseOnceIgnoresRepeatCalls(t *testing.T) {
	calls := 0
	release := releaseOnce(func() { calls++ })
	release()
	release()
	if calls != 1 {
		t.Fatalf("expected release to run once, got %d", calls)
	}
}
