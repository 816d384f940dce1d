package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("Expected success on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
}

func TestDoReturnsLastErrorWhenExhausted(t *testing.T) {
	calls := 0
	lastErr := errors.New("still failing")
	err := Do(context.Background(), Policy{MaxAttempts: 3, Delay: time.Millisecond}, func() error {
		calls++
		return lastErr
	})
	if !errors.Is(err, lastErr) {
		t.Errorf("Expected last error to surface, got %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", calls)
	}
}

func TestDoStopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 5, Delay: time.Millisecond}, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("Expected a single successful call, got calls=%d err=%v", calls, err)
	}
}

func TestDoTreatsZeroAttemptsAsOne(t *testing.T) {
	calls := 0
	_ = Do(context.Background(), Policy{}, func() error {
		calls++
		return errors.New("fail")
	})
	if calls != 1 {
		t.Errorf("Expected at least one attempt, got %d", calls)
	}
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, Delay: time.Minute}, func() error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled between attempts, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single attempt before the canceled wait, got %d", calls)
	}
}
