// Package metrics counts what a greetlog listener has seen: sessions
// opened and how they ended, greetings, data chunks and bytes, and
// failures grouped by the operation that failed.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	gerrors "greetlog/internal/errors"
)

// Collector tracks runtime metrics for one listener and its sessions.
type Collector struct {
	active     atomic.Int64
	opened     atomic.Int64
	ended      atomic.Int64
	failed     atomic.Int64
	handshakes atomic.Int64

	greetings atomic.Int64
	chunks    atomic.Int64
	bytesIn   atomic.Int64
	bytesOut  atomic.Int64

	started time.Time

	mu       sync.Mutex
	failures map[string]int64 // by operation
	lastErr  string
	lastAt   time.Time
}

// New creates a collector whose uptime starts now.
func New() *Collector {
	return &Collector{started: time.Now(), failures: make(map[string]int64)}
}

// ── Session lifecycle ────────────────────────────────────────────────

// SessionOpened records an accepted connection.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.active.Add(1)
	c.opened.Add(1)
}

// SessionEnded records a session closed by end of stream.
func (c *Collector) SessionEnded() {
	if c == nil {
		return
	}
	c.active.Add(-1)
	c.ended.Add(1)
}

// SessionFailed records a session closed by err.
func (c *Collector) SessionFailed(err error) {
	if c == nil {
		return
	}
	c.active.Add(-1)
	c.failed.Add(1)
	c.recordFailure(err)
}

// HandshakeCompleted records a successful TLS handshake.
func (c *Collector) HandshakeCompleted() {
	if c == nil {
		return
	}
	c.handshakes.Add(1)
}

// ListenerFailed records an accept-loop failure that is not tied to a
// session.
func (c *Collector) ListenerFailed(err error) {
	if c == nil {
		return
	}
	c.recordFailure(err)
}

func (c *Collector) recordFailure(err error) {
	op, msg := "other", "unknown error"
	if err != nil {
		msg = err.Error()
		var ce *gerrors.ConnectionError
		if gerrors.As(err, &ce) {
			op = ce.Op
		}
	}
	c.mu.Lock()
	c.failures[op]++
	c.lastErr = msg
	c.lastAt = time.Now()
	c.mu.Unlock()
}

// ── Traffic ──────────────────────────────────────────────────────────

// GreetingSent records a greeting written to a new session.
func (c *Collector) GreetingSent() {
	if c == nil {
		return
	}
	c.greetings.Add(1)
}

// ChunkReceived records one data event of n bytes.
func (c *Collector) ChunkReceived(n int) {
	if c == nil {
		return
	}
	c.chunks.Add(1)
	c.bytesIn.Add(int64(n))
}

// BytesSent records n bytes written to a peer.
func (c *Collector) BytesSent(n int) {
	if c == nil {
		return
	}
	c.bytesOut.Add(int64(n))
}

// ── Readers ──────────────────────────────────────────────────────────

func load(c *Collector, f func(*Collector) *atomic.Int64) int64 {
	if c == nil {
		return 0
	}
	return f(c).Load()
}

// Active returns the number of open sessions.
func (c *Collector) Active() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.active })
}

// Opened returns the lifetime session count.
func (c *Collector) Opened() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.opened })
}

// Ended returns the number of sessions closed by end of stream.
func (c *Collector) Ended() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.ended })
}

// Failed returns the number of sessions closed by an error.
func (c *Collector) Failed() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.failed })
}

// Greetings returns the number of greetings sent.
func (c *Collector) Greetings() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.greetings })
}

// Chunks returns the number of data events dispatched.
func (c *Collector) Chunks() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.chunks })
}

// BytesIn returns the total bytes received.
func (c *Collector) BytesIn() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.bytesIn })
}

// BytesOut returns the total bytes sent.
func (c *Collector) BytesOut() int64 {
	return load(c, func(c *Collector) *atomic.Int64 { return &c.bytesOut })
}

// Failures returns a copy of the failure counts by operation.
func (c *Collector) Failures() map[string]int64 {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.failures))
	for op, n := range c.failures {
		out[op] = n
	}
	return out
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime   string         `json:"uptime"`
	Sessions SessionCounts  `json:"sessions"`
	Traffic  TrafficCounts  `json:"traffic"`
	Failures []FailureCount `json:"failures,omitempty"`

	LastError   string `json:"last_error,omitempty"`
	LastErrorAt string `json:"last_error_at,omitempty"`
}

// SessionCounts groups the session lifecycle counters.
type SessionCounts struct {
	Active     int64 `json:"active"`
	Opened     int64 `json:"opened"`
	Ended      int64 `json:"ended"`
	Failed     int64 `json:"failed"`
	Handshakes int64 `json:"tls_handshakes"`
}

// TrafficCounts groups the data counters.
type TrafficCounts struct {
	Greetings int64 `json:"greetings_sent"`
	Chunks    int64 `json:"chunks_received"`
	BytesIn   int64 `json:"bytes_in"`
	BytesOut  int64 `json:"bytes_out"`
}

// FailureCount is the number of failures of one operation.
type FailureCount struct {
	Op    string `json:"op"`
	Count int64  `json:"count"`
}

// Snapshot returns a copy of all current metrics.  Failures are sorted
// by operation name.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	s := Snapshot{
		Uptime: time.Since(c.started).Truncate(time.Second).String(),
		Sessions: SessionCounts{
			Active:     c.active.Load(),
			Opened:     c.opened.Load(),
			Ended:      c.ended.Load(),
			Failed:     c.failed.Load(),
			Handshakes: c.handshakes.Load(),
		},
		Traffic: TrafficCounts{
			Greetings: c.greetings.Load(),
			Chunks:    c.chunks.Load(),
			BytesIn:   c.bytesIn.Load(),
			BytesOut:  c.bytesOut.Load(),
		},
	}

	c.mu.Lock()
	for op, n := range c.failures {
		s.Failures = append(s.Failures, FailureCount{Op: op, Count: n})
	}
	if !c.lastAt.IsZero() {
		s.LastError = c.lastErr
		s.LastErrorAt = c.lastAt.Format(time.RFC3339)
	}
	c.mu.Unlock()

	sort.Slice(s.Failures, func(i, j int) bool { return s.Failures[i].Op < s.Failures[j].Op })
	return s
}

// JSON returns the snapshot as compact JSON, one line for the log.
func (c *Collector) JSON() string {
	data, _ := json.Marshal(c.Snapshot())
	return string(data)
}
