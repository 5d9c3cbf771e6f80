package metrics

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	gerrors "greetlog/internal/errors"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	c.SessionOpened()
	if c.Active() != 3 || c.Opened() != 3 {
		t.Errorf("active/opened = %d/%d, want 3/3", c.Active(), c.Opened())
	}

	c.SessionEnded()
	c.SessionFailed(gerrors.Connection("read", "1.2.3.4:5", fmt.Errorf("reset")))
	if c.Active() != 1 {
		t.Errorf("active = %d, want 1", c.Active())
	}
	if c.Ended() != 1 || c.Failed() != 1 {
		t.Errorf("ended/failed = %d/%d, want 1/1", c.Ended(), c.Failed())
	}
	if c.Opened() != 3 {
		t.Errorf("opened should remain 3, got %d", c.Opened())
	}
}

func TestCollector_Traffic(t *testing.T) {
	c := New()

	c.GreetingSent()
	c.BytesSent(14)
	c.ChunkReceived(4)
	c.ChunkReceived(100)

	if c.Greetings() != 1 {
		t.Errorf("greetings = %d, want 1", c.Greetings())
	}
	if c.Chunks() != 2 {
		t.Errorf("chunks = %d, want 2", c.Chunks())
	}
	if c.BytesIn() != 104 || c.BytesOut() != 14 {
		t.Errorf("bytes in/out = %d/%d, want 104/14", c.BytesIn(), c.BytesOut())
	}
}

func TestCollector_FailuresByOp(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	c.SessionOpened()
	c.SessionFailed(gerrors.Connection("handshake", "a", fmt.Errorf("bad certificate")))
	c.SessionFailed(gerrors.Connection("read", "b", fmt.Errorf("timeout")))
	c.SessionFailed(gerrors.Connection("read", "c", fmt.Errorf("reset")))
	c.ListenerFailed(fmt.Errorf("accept: invalid argument"))

	want := map[string]int64{"handshake": 1, "read": 2, "other": 1}
	if got := c.Failures(); !reflect.DeepEqual(got, want) {
		t.Errorf("Failures() = %v, want %v", got, want)
	}
	if c.Failed() != 3 {
		t.Errorf("failed sessions = %d, want 3 (listener failures excluded)", c.Failed())
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.HandshakeCompleted()
	c.ChunkReceived(100)
	c.BytesSent(50)
	c.SessionFailed(gerrors.Connection("write", "x", fmt.Errorf("broken pipe")))
	c.ListenerFailed(gerrors.Connection("accept", "", fmt.Errorf("emfile")))

	snap := c.Snapshot()
	if snap.Sessions.Failed != 1 || snap.Sessions.Handshakes != 1 {
		t.Errorf("sessions = %+v", snap.Sessions)
	}
	if snap.Traffic.Chunks != 1 || snap.Traffic.BytesIn != 100 || snap.Traffic.BytesOut != 50 {
		t.Errorf("traffic = %+v", snap.Traffic)
	}
	wantFailures := []FailureCount{{"accept", 1}, {"write", 1}}
	if !reflect.DeepEqual(snap.Failures, wantFailures) {
		t.Errorf("failures = %v, want %v (sorted by op)", snap.Failures, wantFailures)
	}
	if !strings.Contains(snap.LastError, "emfile") || snap.LastErrorAt == "" {
		t.Errorf("last error = %q at %q", snap.LastError, snap.LastErrorAt)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.GreetingSent()
	c.BytesSent(42)

	raw := c.JSON()
	if strings.Contains(raw, "\n") {
		t.Errorf("JSON should be a single line: %q", raw)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.Sessions.Active != 1 || snap.Traffic.Greetings != 1 || snap.Traffic.BytesOut != 42 {
		t.Errorf("decoded snapshot = %+v", snap)
	}
	if !strings.Contains(raw, `"greetings_sent":1`) {
		t.Errorf("missing greetings_sent key: %s", raw)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.SessionOpened()
	c.SessionEnded()
	c.SessionFailed(fmt.Errorf("x"))
	c.ListenerFailed(fmt.Errorf("x"))
	c.HandshakeCompleted()
	c.GreetingSent()
	c.ChunkReceived(100)
	c.BytesSent(100)

	if c.Active() != 0 || c.BytesIn() != 0 || c.Failed() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.Failures() != nil {
		t.Error("nil collector should have no failures")
	}
	if snap := c.Snapshot(); snap.Sessions.Active != 0 {
		t.Error("nil snapshot should be zero")
	}
	if c.JSON() == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
