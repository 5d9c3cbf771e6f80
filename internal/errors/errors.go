// Package errors provides domain-specific error types for greetlog.
//
// Three layers fail in different ways: binding the listener, loading TLS
// credentials, and the traffic on an established session.  Each gets its
// own type so callers can tell a fatal startup failure from a fault that
// only ends one connection.
package errors

import (
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrListenerClosed = errors.New("listener is closed")
	ErrAlreadyStarted = errors.New("listener already started")
	ErrNotStarted     = errors.New("listener not started")
	ErrSessionClosed  = errors.New("session is closed")
	ErrNoCredentials  = errors.New("no certificate material configured")
)

// ── Structured error types ───────────────────────────────────────────

// BindError reports that the listening socket could not be opened.
// It is fatal: startup aborts.
type BindError struct {
	Network string // "tcp" or "tls"
	Addr    string
	Err     error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind %s %s: %v", e.Network, e.Addr, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// CredentialError reports unreadable or malformed certificate material.
type CredentialError struct {
	Kind string // "certificate", "key", "pkcs12", "client-ca"
	Path string
	Err  error
}

func (e *CredentialError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Path, e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// ConnectionError is a transport fault on an established session.  It
// terminates that session and nothing else.
type ConnectionError struct {
	Op     string // "read", "write", "handshake"
	Remote string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Remote, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
	Err     error       // underlying cause (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// Bind creates a BindError.
func Bind(network, addr string, err error) *BindError {
	return &BindError{Network: network, Addr: addr, Err: err}
}

// Credential creates a CredentialError.
func Credential(kind, path string, err error) *CredentialError {
	return &CredentialError{Kind: kind, Path: path, Err: err}
}

// Connection creates a ConnectionError.
func Connection(op, remote string, err error) *ConnectionError {
	return &ConnectionError{Op: op, Remote: remote, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTemporary reports whether err represents a temporary condition, such
// as an accept that failed because the process ran out of descriptors.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EMFILE) || errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Temporary() //nolint:staticcheck // Temporary is deprecated but still useful
	}
	return false
}

// IsClosed reports whether err is the expected result of reading from a
// connection that was closed, either by the peer or locally.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}

// ── Re-exports for convenience ───────────────────────────────────────

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }
