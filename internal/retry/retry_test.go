package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return nil
}

func recordSleeps(t *testing.T) *sleepRecorder {
	t.Helper()
	rec := &sleepRecorder{}
	orig := sleep
	sleep = rec.sleep
	t.Cleanup(func() { sleep = orig })
	return rec
}

func TestDoSucceedsFirstTryWithoutDelay(t *testing.T) {
	rec := recordSleeps(t)

	calls := 0
	got, err := Do(context.Background(), DefaultPolicy(), func(context.Context) (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 || calls != 1 {
		t.Fatalf("got %d after %d calls", got, calls)
	}
	if len(rec.delays) != 0 {
		t.Fatalf("expected no delay, got %v", rec.delays)
	}
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	rec := recordSleeps(t)

	const retries = 3
	calls := 0
	got, err := Do(context.Background(), Policy{MaxRetries: retries, BaseDelay: 100 * time.Millisecond}, func(context.Context) (string, error) {
		calls++
		if calls <= retries {
			return "", errors.New("rpc timeout")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != retries+1 {
		t.Fatalf("got %q after %d calls", got, calls)
	}

	want := []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond}
	if len(rec.delays) != len(want) {
		t.Fatalf("delays mismatch: %v", rec.delays)
	}
	for i := range want {
		if rec.delays[i] != want[i] {
			t.Fatalf("delay %d: %v != %v", i, rec.delays[i], want[i])
		}
		if i > 0 && rec.delays[i] <= rec.delays[i-1] {
			t.Fatalf("delays not strictly increasing: %v", rec.delays)
		}
	}
}

func TestDoExhaustsAndReturnsSameError(t *testing.T) {
	rec := recordSleeps(t)

	failure := errors.New("rate limited")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxRetries: 2}, func(context.Context) (int, error) {
		calls++
		return 0, failure
	})
	if err != failure {
		t.Fatalf("expected identical error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(rec.delays) != 2 {
		t.Fatalf("expected 2 delays, got %v", rec.delays)
	}
}

func TestDoZeroRetries(t *testing.T) {
	rec := recordSleeps(t)

	failure := errors.New("boom")
	calls := 0
	err := Run(context.Background(), Policy{MaxRetries: 0}, func(context.Context) error {
		calls++
		return failure
	})
	if err != failure || calls != 1 {
		t.Fatalf("got err=%v calls=%d", err, calls)
	}
	if len(rec.delays) != 0 {
		t.Fatalf("expected no delay, got %v", rec.delays)
	}
}

func TestZeroPolicyMakesOneAttempt(t *testing.T) {
	rec := recordSleeps(t)

	calls := 0
	err := Run(context.Background(), Policy{}, func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	if err == nil || calls != 1 || len(rec.delays) != 0 {
		t.Fatalf("got err=%v calls=%d delays=%v", err, calls, rec.delays)
	}
	if !(Policy{}).IsZero() || DefaultPolicy().IsZero() {
		t.Fatalf("IsZero mismatch")
	}
}

func TestExponentialIsCapped(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 1; attempt <= 100; attempt++ {
		d := Exponential(attempt, 100*time.Millisecond)
		if d <= 0 || d > MaxDelay {
			t.Fatalf("attempt %d: delay %s out of range", attempt, d)
		}
		if d < prev {
			t.Fatalf("attempt %d: delay shrank from %s to %s", attempt, prev, d)
		}
		prev = d
	}
	if Exponential(70, 100*time.Millisecond) != MaxDelay {
		t.Fatalf("large attempt not capped")
	}
	if Exponential(3, 100*time.Millisecond) != 800*time.Millisecond {
		t.Fatalf("small attempts must stay exact")
	}
}

func TestDoLongRunKeepsPositiveDelays(t *testing.T) {
	rec := recordSleeps(t)

	_ = Run(context.Background(), Policy{MaxRetries: 70, BaseDelay: 100 * time.Millisecond}, func(context.Context) error {
		return errors.New("down")
	})
	if len(rec.delays) != 70 {
		t.Fatalf("expected 70 delays, got %d", len(rec.delays))
	}
	for i, d := range rec.delays {
		if d <= 0 || d > MaxDelay {
			t.Fatalf("delay %d = %s", i+1, d)
		}
	}
}

func TestDoStopsOnPermanentError(t *testing.T) {
	rec := recordSleeps(t)

	inner := errors.New("no route")
	calls := 0
	err := Run(context.Background(), DefaultPolicy(), func(context.Context) error {
		calls++
		return Permanent(inner)
	})
	if calls != 1 {
		t.Fatalf("permanent error retried %d times", calls)
	}
	if !errors.Is(err, inner) || err.Error() != inner.Error() {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.delays) != 0 {
		t.Fatalf("expected no delay, got %v", rec.delays)
	}
}

func TestDoCancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Run(ctx, Policy{MaxRetries: 5, BaseDelay: time.Hour}, func(context.Context) error {
		calls++
		return errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestDoReportsRetries(t *testing.T) {
	recordSleeps(t)

	var attempts []int
	p := Policy{MaxRetries: 2, OnRetry: func(attempt int, _ time.Duration, _ error) {
		attempts = append(attempts, attempt)
	}}
	_ = Run(context.Background(), p, func(context.Context) error { return errors.New("x") })

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Fatalf("unexpected retry attempts: %v", attempts)
	}
}
