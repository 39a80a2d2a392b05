package retry

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 100 * time.Millisecond
	// MaxDelay caps a single backoff wait.
	MaxDelay = time.Minute
)

// Policy configures Do. The zero value makes a single attempt; use
// DefaultPolicy for DefaultMaxRetries retries from DefaultBaseDelay.
type Policy struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	BaseDelay  time.Duration
	// Backoff returns the wait before retry number attempt (starting at 1).
	Backoff func(attempt int, base time.Duration) time.Duration
	// OnRetry, when set, observes each failed attempt that will be retried.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay, Backoff: Exponential}
}

// IsZero reports whether p is the zero Policy.
func (p Policy) IsZero() bool {
	return p.MaxRetries == 0 && p.BaseDelay == 0 && p.Backoff == nil && p.OnRetry == nil
}

// Exponential waits base * 2^attempt, capped at MaxDelay.
func Exponential(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if base >= MaxDelay || attempt >= 62 || base > MaxDelay>>uint(attempt) {
		return MaxDelay
	}
	return base << uint(attempt)
}

// Permanent marks err as not retryable. The returned error keeps err's message
// and unwraps to it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

type permanentError struct {
	err error
}

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Permanent() bool { return true }

// IsPermanent reports whether any error in err's chain declares itself permanent.
func IsPermanent(err error) bool {
	var p interface{ Permanent() bool }
	return errors.As(err, &p) && p.Permanent()
}

// sleep is replaced in tests.
var sleep = func(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds, returns a permanent error, or the retry budget
// is spent. The last failure is returned as is.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	backoff := p.Backoff
	if backoff == nil {
		backoff = Exponential
	}

	for attempt := 0; ; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if attempt >= maxRetries || IsPermanent(err) {
			return res, err
		}

		delay := backoff(attempt+1, base)
		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delay, err)
		}
		if err := sleep(ctx, delay); err != nil {
			var zero T
			return zero, err
		}
	}
}

// Run is Do for operations without a result.
func Run(ctx context.Context, p Policy, fn func(context.Context) error) error {
	_, err := Do(ctx, p, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
