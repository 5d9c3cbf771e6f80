package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// BenchmarkBackoff_AcceptFastPath measures the overhead the accept loop
// pays on every successful Accept.
func BenchmarkBackoff_AcceptFastPath(b *testing.B) {
	bo := DefaultBackoff()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(int) error { return nil }) //nolint:errcheck
	}
}

// BenchmarkBackoff_Permanent measures the exit when the listener has
// been closed.
func BenchmarkBackoff_Permanent(b *testing.B) {
	closed := errors.New("use of closed network connection")
	bo := DefaultBackoff()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		bo.Do(ctx, func(int) error { return Permanent(closed) }) //nolint:errcheck
	}
}

// BenchmarkBackoff_Delay measures the schedule computation alone.
func BenchmarkBackoff_Delay(b *testing.B) {
	bo := DefaultBackoff()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = bo.Delay(i%12 + 1)
	}
}

// BenchmarkJitter measures the jitter helper without backoff overhead.
func BenchmarkJitter(b *testing.B) {
	d := 100 * time.Millisecond
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = addJitter(d)
	}
}
