package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Policy Tests ---

func TestExponentialSeries(t *testing.T) {
	policy := Exponential(1*time.Second, 300*time.Second)

	expected := []time.Duration{
		1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	}
	for attempt, want := range expected {
		if got := policy(attempt); got != want {
			t.Errorf("attempt %d: expected %s, got %s", attempt, want, got)
		}
	}
}

func TestExponentialCap(t *testing.T) {
	policy := Exponential(1*time.Second, 300*time.Second)

	// 2^9 = 512 > 300, so attempts 9 and beyond all clamp to the cap.
	if got := policy(9); got != 300*time.Second {
		t.Errorf("expected cap 300s, got %s", got)
	}
	if got := policy(20); got != 300*time.Second {
		t.Errorf("expected cap 300s, got %s", got)
	}

	// The series never decreases.
	prev := time.Duration(0)
	for attempt := 0; attempt < 15; attempt++ {
		d := policy(attempt)
		if d < prev {
			t.Fatalf("wait decreased at attempt %d: %s < %s", attempt, d, prev)
		}
		prev = d
	}
}

func TestFixedPolicy(t *testing.T) {
	policy := Fixed(2 * time.Second)
	for attempt := 0; attempt < 5; attempt++ {
		if got := policy(attempt); got != 2*time.Second {
			t.Errorf("attempt %d: expected 2s, got %s", attempt, got)
		}
	}
}

// --- Do Tests ---

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, NoDelay(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, NoDelay(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	sentinel := errors.New("always fails")
	calls := 0
	err := Do(context.Background(), 3, NoDelay(), func() error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if !IsExhausted(err) {
		t.Error("expected exhaustion to be reported")
	}
	if !errors.Is(err, sentinel) {
		t.Error("expected last error to be wrapped")
	}
}

func TestDoPermanentStops(t *testing.T) {
	sentinel := errors.New("not found")
	calls := 0
	err := Do(context.Background(), 5, NoDelay(), func() error {
		calls++
		return Stop(sentinel)
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel, got %v", err)
	}
}

func TestDoContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, 3, NoDelay(), func() error {
		t.Fatal("op should not run after cancellation")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDoContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, 3, Fixed(10*time.Second), func() error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not abort the wait on cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestDoValue(t *testing.T) {
	calls := 0
	got, err := DoValue(context.Background(), 3, NoDelay(), func() (string, error) {
		calls++
		if calls < 2 {
			return "", errors.New("transient")
		}
		return "hello", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello" {
		t.Errorf("expected %q, got %q", "hello", got)
	}
}

// --- Benchmarks ---

func BenchmarkDoSuccess(b *testing.B) {
	ctx := context.Background()
	op := func() error { return nil }

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Do(ctx, 3, NoDelay(), op)
	}
}
