package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultMode is the transport used when none is configured.
	DefaultMode = ModeTCP

	// DefaultTCPHost and DefaultTCPPort are the plaintext bind address.
	DefaultTCPHost = "0.0.0.0"
	DefaultTCPPort = 8080

	// DefaultTLSHost and DefaultTLSPort are the TLS bind address.
	DefaultTLSHost = "127.0.0.1"
	DefaultTLSPort = 1337

	// DefaultGreeting is written to every plaintext client on connect.
	DefaultGreeting = "Hello, client."

	// DefaultEncoding decodes received chunks for logging.
	DefaultEncoding = "utf-8"

	// DefaultVerbosity is the log level without -q or -v (normal).
	DefaultVerbosity = 1

	// DefaultHandshakeTimeout bounds a TLS handshake.
	DefaultHandshakeTimeout = 120 * time.Second

	// DefaultSelfSignedValidity is the lifetime of a --self-signed
	// certificate.
	DefaultSelfSignedValidity = 24 * time.Hour

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "GREETLOG_"
)
