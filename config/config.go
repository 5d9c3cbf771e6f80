// Package config defines the runtime configuration for greetlog and
// the layering of defaults, config file, environment, and CLI flags.
package config

import (
	"fmt"
	"strconv"
	"time"

	gerrors "greetlog/internal/errors"
	"greetlog/util"
)

// Transport modes.
const (
	ModeTCP = "tcp"
	ModeTLS = "tls"
)

// Config holds every tuneable for a greetlog listener.
type Config struct {
	// ── Listener ─────────────────────────────────────────────────────
	Mode        string // "tcp" or "tls"
	Host        string
	Port        int
	IdleTimeout time.Duration // 0 = never time out

	// ── TLS ──────────────────────────────────────────────────────────
	CertFile             string
	KeyFile              string
	PKCS12File           string
	KeyPassphrase        string // for an encrypted key or bundle
	PromptPassphrase     bool   // true → ask on the terminal
	ClientCAFile         string
	RequireValidPeerCert bool // false → accept any client
	SelfSigned           bool // generate a throwaway certificate

	// ── Session ──────────────────────────────────────────────────────
	Greeting   string // overrides the mode default
	NoGreeting bool
	Encoding   string

	// ── Output ───────────────────────────────────────────────────────
	Verbose int // extra verbosity from -v
	Quiet   bool

	// ── Process ──────────────────────────────────────────────────────
	ConfigFile string
	DryRun     bool
}

// ApplyDefaults fills every unset field with its mode-specific default.
func (c *Config) ApplyDefaults() {
	if c.Mode == "" {
		c.Mode = DefaultMode
	}
	if c.Host == "" {
		if c.Mode == ModeTLS {
			c.Host = DefaultTLSHost
		} else {
			c.Host = DefaultTCPHost
		}
	}
	if c.Port == 0 {
		if c.Mode == ModeTLS {
			c.Port = DefaultTLSPort
		} else {
			c.Port = DefaultTCPPort
		}
	}
	if c.Encoding == "" {
		c.Encoding = DefaultEncoding
	}
}

// Address returns the bind address as host:port.
func (c *Config) Address() string {
	return util.FormatAddr(c.Host, c.Port)
}

// TLS reports whether the listener terminates TLS.
func (c *Config) TLS() bool { return c.Mode == ModeTLS }

// GreetingMessage is what a new session sends before reading.  Plaintext
// listeners greet by default; TLS listeners only when asked to.
func (c *Config) GreetingMessage() string {
	switch {
	case c.NoGreeting:
		return ""
	case c.Greeting != "":
		return c.Greeting
	case c.Mode == ModeTCP:
		return DefaultGreeting
	default:
		return ""
	}
}

// LogLevel converts -q / -v into a util.LogLevel value.
func (c *Config) LogLevel() int {
	if c.Quiet {
		return int(util.LogQuiet)
	}
	level := DefaultVerbosity + c.Verbose
	if level > int(util.LogDebug) {
		level = int(util.LogDebug)
	}
	return level
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port number in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Call it after ApplyDefaults.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeTCP, ModeTLS:
	default:
		return &gerrors.ConfigError{
			Field: "mode", Value: c.Mode,
			Message: "unknown transport mode",
			Hint:    "use --mode=tcp or --mode=tls",
		}
	}

	if c.Port < 1 || c.Port > 65535 {
		return &gerrors.ConfigError{
			Field: "port", Value: c.Port,
			Message: "out of range 1-65535",
			Hint:    "use a port between 1 and 65535",
		}
	}

	if c.IdleTimeout < 0 {
		return &gerrors.ConfigError{
			Field: "idle-timeout", Value: c.IdleTimeout,
			Message: "must not be negative",
		}
	}

	if c.Greeting != "" && c.NoGreeting {
		return &gerrors.ConfigError{
			Field:   "greeting",
			Message: "--greeting and --no-greeting are mutually exclusive",
		}
	}

	if _, err := util.NewTextDecoder(c.Encoding); err != nil {
		return &gerrors.ConfigError{
			Field: "encoding", Value: c.Encoding,
			Message: "unknown encoding",
			Hint:    "use a WHATWG label such as utf-8 or latin1",
		}
	}

	if c.Mode == ModeTLS {
		return c.validateTLS()
	}
	if c.hasTLSOptions() {
		return &gerrors.ConfigError{
			Field:   "mode",
			Value:   c.Mode,
			Message: "TLS options given for a plaintext listener",
			Hint:    "add --mode=tls",
		}
	}
	return nil
}

func (c *Config) validateTLS() error {
	sources := 0
	if c.CertFile != "" || c.KeyFile != "" {
		sources++
		if c.CertFile == "" || c.KeyFile == "" {
			return &gerrors.ConfigError{
				Field:   "cert",
				Message: "--cert and --key must be given together",
			}
		}
	}
	if c.PKCS12File != "" {
		sources++
	}
	if c.SelfSigned {
		sources++
	}

	switch {
	case sources == 0:
		return &gerrors.ConfigError{
			Field:   "cert",
			Message: "required with --mode=tls",
			Hint:    "pass --cert and --key, --pkcs12, or --self-signed",
			Err:     gerrors.ErrNoCredentials,
		}
	case sources > 1:
		return &gerrors.ConfigError{
			Field:   "cert",
			Message: "--cert/--key, --pkcs12 and --self-signed are mutually exclusive",
		}
	}

	if c.RequireValidPeerCert && c.ClientCAFile == "" {
		return &gerrors.ConfigError{
			Field:   "require-peer-cert",
			Message: "needs a CA to verify client certificates against",
			Hint:    "pass --client-ca <file>",
		}
	}
	return nil
}

func (c *Config) hasTLSOptions() bool {
	return c.CertFile != "" || c.KeyFile != "" || c.PKCS12File != "" ||
		c.ClientCAFile != "" || c.RequireValidPeerCert || c.SelfSigned
}
