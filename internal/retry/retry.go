// Package retry provides the retry combinator shared by the navigation,
// search, fetch, and storage paths.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IshaanNene/PressGang/internal/types"
)

// Policy computes the wait before the given zero-based attempt is retried.
type Policy func(attempt int) time.Duration

// Fixed waits the same duration between every attempt.
func Fixed(d time.Duration) Policy {
	return func(int) time.Duration { return d }
}

// Exponential waits base*2^attempt, capped. The cap bounds challenge-style
// backoff at five minutes regardless of how many detections preceded it.
func Exponential(base, cap time.Duration) Policy {
	return func(attempt int) time.Duration {
		d := base
		for i := 0; i < attempt; i++ {
			d *= 2
			if d >= cap {
				return cap
			}
		}
		if d > cap {
			return cap
		}
		return d
	}
}

// NoDelay retries immediately.
func NoDelay() Policy {
	return func(int) time.Duration { return 0 }
}

// Permanent marks an error as not retryable. Do returns it immediately.
type Permanent struct {
	Err error
}

func (p *Permanent) Error() string { return p.Err.Error() }

func (p *Permanent) Unwrap() error { return p.Err }

// Stop wraps err so Do gives up without further attempts.
func Stop(err error) error {
	return &Permanent{Err: err}
}

// Do runs op up to attempts times, waiting per policy between failures.
// Context cancellation aborts the wait and returns the context error joined
// with the last op error.
func Do(ctx context.Context, attempts int, policy Policy, op func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return joinAbort(err, lastErr)
		}

		lastErr = op()
		if lastErr == nil {
			return nil
		}
		var perm *Permanent
		if errors.As(lastErr, &perm) {
			return perm.Err
		}
		if attempt == attempts-1 {
			break
		}

		wait := policy(attempt)
		if wait <= 0 {
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return joinAbort(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", types.ErrMaxRetries, attempts, lastErr)
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, attempts int, policy Policy, op func() (T, error)) (T, error) {
	var out T
	err := Do(ctx, attempts, policy, func() error {
		v, err := op()
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	return errors.Is(err, types.ErrMaxRetries)
}

func joinAbort(ctxErr, lastErr error) error {
	if lastErr == nil {
		return ctxErr
	}
	return fmt.Errorf("%w (last error: %w)", ctxErr, lastErr)
}
