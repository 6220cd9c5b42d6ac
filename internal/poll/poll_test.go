package poll

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunStopsWhenDone(t *testing.T) {
	var calls int32
	err := Run(context.Background(), Options{Interval: 5 * time.Millisecond}, func(ctx context.Context) (bool, error) {
		return atomic.AddInt32(&calls, 1) == 3, nil
	})
	if err != nil {
		t.Fatal("Run failed:", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("Expected 3 calls, got %d", got)
	}
}

func TestRunSkipsOverlappingCalls(t *testing.T) {
	var inFlight, maxInFlight, calls int32
	err := Run(context.Background(), Options{Interval: 2 * time.Millisecond}, func(ctx context.Context) (bool, error) {
		n := atomic.AddInt32(&inFlight, 1)
		defer atomic.AddInt32(&inFlight, -1)
		if n > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, n)
		}
		time.Sleep(15 * time.Millisecond)
		return atomic.AddInt32(&calls, 1) == 3, nil
	})
	if err != nil {
		t.Fatal("Run failed:", err)
	}
	if maxInFlight != 1 {
		t.Errorf("Expected at most one call in flight, saw %d", maxInFlight)
	}
}

func TestRunExhaustsAttempts(t *testing.T) {
	boom := errors.New("backend down")
	err := Run(context.Background(), Options{Interval: time.Millisecond, MaxAttempts: 3}, func(ctx context.Context) (bool, error) {
		return false, boom
	})
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, boom) {
		t.Errorf("Expected ErrExhausted wrapping the last error, got %v", err)
	}
}

func TestRunStopsOnPermanentError(t *testing.T) {
	denied := errors.New("session rejected")
	var calls int32
	err := Run(context.Background(), Options{
		Interval:    time.Millisecond,
		MaxAttempts: 30,
		Retryable:   func(err error) bool { return !errors.Is(err, denied) },
	}, func(ctx context.Context) (bool, error) {
		atomic.AddInt32(&calls, 1)
		return false, denied
	})
	if !errors.Is(err, denied) || errors.Is(err, ErrExhausted) {
		t.Errorf("Expected the permanent error as is, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected a single call, got %d", got)
	}
}

func TestRunHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := Run(ctx, Options{Interval: 5 * time.Millisecond}, func(ctx context.Context) (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestRetry(t *testing.T) {
	timeout := errors.New("timeout")
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func(err error) bool {
		return errors.Is(err, timeout)
	}, func(ctx context.Context) error {
		calls++
		return timeout
	})
	if !errors.Is(err, timeout) || calls != 3 {
		t.Errorf("Expected 3 attempts ending in timeout, got %d calls and %v", calls, err)
	}

	calls = 0
	err = Retry(context.Background(), 3, time.Millisecond, func(err error) bool {
		return errors.Is(err, timeout)
	}, func(ctx context.Context) error {
		calls++
		return errors.New("bad request")
	})
	if err == nil || calls != 1 {
		t.Errorf("Expected non-retryable error to stop after 1 call, got %d calls", calls)
	}
}
