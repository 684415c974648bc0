package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestChanPoolNeverExceedsCapacity(t *testing.T) {
	pools := NewPools(map[string]int{"tight": 1}, nil, 0)

	var (
		inFlight atomic.Int32
		maxSeen  atomic.Int32
		wg       sync.WaitGroup
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := pools.Acquire(context.Background(), "tight")
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			defer release()

			current := inFlight.Add(1)
			for {
				seen := maxSeen.Load()
				if current <= seen || maxSeen.CompareAndSwap(seen, current) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		}()
	}
	wg.Wait()

	if maxSeen.Load() > 1 {
		t.Errorf("capacity-1 limiter allowed %d concurrent holders", maxSeen.Load())
	}
}

func TestAcquireTimesOutWhenNoSlot(t *testing.T) {
	pools := NewPools(map[string]int{"tight": 1}, nil, 25*time.Millisecond)

	release, err := pools.Acquire(context.Background(), "tight")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	if _, err := pools.Acquire(context.Background(), "tight"); err == nil {
		t.Fatal("second Acquire should have timed out")
	}

	release()

	// Slot is free again.
	release2, err := pools.Acquire(context.Background(), "tight")
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	release2()
}

func TestUnknownTagIsUnlimited(t *testing.T) {
	pools := NewPools(map[string]int{"tight": 1}, nil, 10*time.Millisecond)

	for i := 0; i < 100; i++ {
		release, err := pools.Acquire(context.Background(), "")
		if err != nil {
			t.Fatalf("Acquire on default tag failed: %v", err)
		}
		defer release()
	}
}

func TestAcquireHonorsCallerContext(t *testing.T) {
	pools := NewPools(map[string]int{"tight": 1}, nil, 0)

	release, err := pools.Acquire(context.Background(), "tight")
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer release()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	if _, err := pools.Acquire(ctx, "tight"); err == nil {
		t.Fatal("Acquire should fail when the caller context is cancelled")
	}
}

func TestRateLimiterPacing(t *testing.T) {
	pools := NewPools(nil, map[string]float64{"paced": 100}, 0)

	start := time.Now()
	for i := 0; i < 5; i++ {
		release, err := pools.Acquire(context.Background(), "paced")
		if err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		release()
	}

	// 5 acquisitions at 100/s with burst 1 need at least ~40ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("rate limiter did not pace acquisitions: took %v", elapsed)
	}
}
