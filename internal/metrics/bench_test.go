package metrics

import (
	"fmt"
	"testing"
)

// BenchmarkCollector_Session measures the counters one short session
// touches: open, greeting, one chunk, end.
func BenchmarkCollector_Session(b *testing.B) {
	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SessionOpened()
		c.BytesSent(14)
		c.GreetingSent()
		c.ChunkReceived(512)
		c.SessionEnded()
	}
}

// BenchmarkCollector_ChunkParallel measures contention on the chunk
// counters with many concurrent sessions.
func BenchmarkCollector_ChunkParallel(b *testing.B) {
	c := New()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.ChunkReceived(32768)
		}
	})
}

// BenchmarkCollector_SessionFailed measures the locked failure path.
func BenchmarkCollector_SessionFailed(b *testing.B) {
	c := New()
	err := fmt.Errorf("read: connection reset by peer")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SessionOpened()
		c.SessionFailed(err)
	}
}

// BenchmarkCollector_JSON measures the shutdown snapshot export.
func BenchmarkCollector_JSON(b *testing.B) {
	c := New()
	c.SessionOpened()
	c.GreetingSent()
	c.ListenerFailed(fmt.Errorf("accept: too many open files"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.JSON()
	}
}

// BenchmarkNilCollector verifies nil-safe no-ops have zero overhead.
func BenchmarkNilCollector(b *testing.B) {
	var c *Collector
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.SessionOpened()
		c.ChunkReceived(1)
		c.SessionEnded()
	}
}
