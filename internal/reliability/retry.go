package reliability

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetriesExhausted wraps the final failure after a policy runs out of attempts.
var ErrRetriesExhausted = errors.New("retries exhausted")

// IsRetryableHTTPStatus classifies retryable HTTP status codes.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// ExponentialBackoff computes a deterministic capped backoff duration.
func ExponentialBackoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}

// Policy retries a fallible call with exponential backoff. The zero value is
// not usable; construct with NewPolicy.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Cap         time.Duration

	// sleep is swapped out in tests to observe delays without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewPolicy(maxAttempts int, baseDelay, cap time.Duration) Policy {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if cap <= 0 {
		cap = 30 * time.Second
	}
	return Policy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Cap:         cap,
		sleep:       sleepCtx,
	}
}

// WithSleep returns a copy of the policy using the given sleep function.
func (p Policy) WithSleep(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

// Do runs fn up to MaxAttempts times, sleeping base*2^attempt (capped) between
// attempts. Errors exposing Retryable() bool stop the loop when they report
// false. The returned error wraps ErrRetriesExhausted and the last cause.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 0; attempt < p.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, ExponentialBackoff(attempt-1, p.BaseDelay, p.Cap)); err != nil {
				return err
			}
		}
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return lastErr
		}
		var pe interface{ Retryable() bool }
		if errors.As(lastErr, &pe) && !pe.Retryable() {
			return lastErr
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, p.MaxAttempts, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
