package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the GREETLOG_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty
// env vars override the existing value.  Call it BEFORE registering CLI
// flags so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := env("MODE"); v != "" {
		cfg.Mode = strings.ToLower(v)
	}
	if v := env("HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("PORT"); v > 0 {
		cfg.Port = v
	}
	if v := envInt("IDLE_TIMEOUT"); v > 0 {
		cfg.IdleTimeout = secondsDuration(v)
	}

	// TLS
	if v := env("CERT"); v != "" {
		cfg.CertFile = v
	}
	if v := env("KEY"); v != "" {
		cfg.KeyFile = v
	}
	if v := env("PKCS12"); v != "" {
		cfg.PKCS12File = v
	}
	if v := env("KEY_PASSPHRASE"); v != "" {
		cfg.KeyPassphrase = v
	}
	if v := env("CLIENT_CA"); v != "" {
		cfg.ClientCAFile = v
	}
	if envBool("REQUIRE_PEER_CERT") {
		cfg.RequireValidPeerCert = true
	}
	if envBool("SELF_SIGNED") {
		cfg.SelfSigned = true
	}

	// Session
	if v := env("GREETING"); v != "" {
		cfg.Greeting = v
	}
	if envBool("NO_GREETING") {
		cfg.NoGreeting = true
	}
	if v := env("ENCODING"); v != "" {
		cfg.Encoding = v
	}

	// Output
	if v := envInt("VERBOSE"); v > 0 {
		cfg.Verbose = v
	}
	if envBool("QUIET") {
		cfg.Quiet = true
	}
	if v := env("CONFIG"); v != "" {
		cfg.ConfigFile = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}

func envInt(name string) int {
	v := env(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(name string) bool {
	v := strings.ToLower(env(name))
	return v == "1" || v == "true" || v == "yes"
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
