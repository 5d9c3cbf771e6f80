// Package retry paces repeated attempts at an operation that can fail
// temporarily.  The listener uses it to ride out accept errors such as
// descriptor exhaustion without spinning on the CPU.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  Do returns the inner error
// immediately.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Backoff ──────────────────────────────────────────────────────────

const (
	defaultInitialDelay = 5 * time.Millisecond
	defaultMaxDelay     = time.Second
	defaultMultiplier   = 2.0
)

// Backoff implements exponential backoff with optional jitter.  The
// zero value is usable.
type Backoff struct {
	InitialDelay time.Duration // default 5ms
	MaxDelay     time.Duration // default 1s
	Multiplier   float64       // default 2.0

	// Jitter spreads each wait by ±25%.
	Jitter bool

	// OnRetry, if set, is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// DefaultBackoff returns the accept-loop configuration: start at 5ms,
// double up to 1s, never give up on a temporary error.
func DefaultBackoff() *Backoff {
	return &Backoff{
		InitialDelay: defaultInitialDelay,
		MaxDelay:     defaultMaxDelay,
		Multiplier:   defaultMultiplier,
		Jitter:       true,
	}
}

// Delay returns the wait after the given 1-based failed attempt,
// before jitter.
func (b *Backoff) Delay(attempt int) time.Duration {
	initial, maxDelay, mult := b.InitialDelay, b.MaxDelay, b.Multiplier
	if initial <= 0 {
		initial = defaultInitialDelay
	}
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	if mult <= 0 {
		mult = defaultMultiplier
	}
	if attempt < 1 {
		attempt = 1
	}

	d := float64(initial) * math.Pow(mult, float64(attempt-1))
	if d > float64(maxDelay) {
		return maxDelay
	}
	return time.Duration(d)
}

// Do calls fn until it succeeds, returns an error marked Permanent, or
// ctx is cancelled.  Every other error is retried.  The attempt passed
// to fn is 1-based.
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}

		wait := b.Delay(attempt)
		if b.Jitter {
			wait = addJitter(wait)
		}
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
}

// addJitter adds ±25% randomisation to a duration.
func addJitter(d time.Duration) time.Duration {
	quarter := float64(d) * 0.25
	delta := (rand.Float64() * 2 * quarter) - quarter
	return time.Duration(math.Max(float64(d)+delta, float64(time.Millisecond)))
}
