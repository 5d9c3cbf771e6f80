package config

// file.go - configuration loading from an INI file.
//
//	mode = tls
//
//	[listener]
//	host = 127.0.0.1
//	port = 1337
//	idle_timeout = 30
//
//	[tls]
//	cert = server.pem
//	key = server-key.pem
//	client_ca = clients.pem
//	require_peer_cert = true
//
//	[session]
//	greeting = Hello, client.
//	encoding = utf-8
//
//	[log]
//	verbose = 1
//
// Relative paths in [tls] resolve against the file's directory.
// Passphrases are never read from the file.

import (
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	gerrors "greetlog/internal/errors"
)

type fileConfig struct {
	Mode     string          `ini:"mode"`
	Listener listenerSection `ini:"listener"`
	TLS      tlsSection      `ini:"tls"`
	Session  sessionSection  `ini:"session"`
	Log      logSection      `ini:"log"`
}

type listenerSection struct {
	Host        string `ini:"host"`
	Port        int    `ini:"port"`
	IdleTimeout int    `ini:"idle_timeout"` // seconds
}

type tlsSection struct {
	Cert            string `ini:"cert"`
	Key             string `ini:"key"`
	PKCS12          string `ini:"pkcs12"`
	ClientCA        string `ini:"client_ca"`
	RequirePeerCert bool   `ini:"require_peer_cert"`
	SelfSigned      bool   `ini:"self_signed"`
}

type sessionSection struct {
	Greeting   string `ini:"greeting"`
	NoGreeting bool   `ini:"no_greeting"`
	Encoding   string `ini:"encoding"`
}

type logSection struct {
	Verbose int  `ini:"verbose"`
	Quiet   bool `ini:"quiet"`
}

// LoadFile overlays the INI file at path onto cfg.  Only keys present
// with a non-zero value override the existing value.
func LoadFile(cfg *Config, path string) error {
	f, err := ini.Load(path)
	if err != nil {
		return &gerrors.ConfigError{
			Field: "config", Value: path,
			Message: err.Error(),
		}
	}

	var fc fileConfig
	if err := f.StrictMapTo(&fc); err != nil {
		return &gerrors.ConfigError{
			Field: "config", Value: path,
			Message: err.Error(),
			Hint:    "check value types in the file",
		}
	}

	dir := filepath.Dir(path)
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	if fc.Mode != "" {
		cfg.Mode = strings.ToLower(fc.Mode)
	}
	if fc.Listener.Host != "" {
		cfg.Host = fc.Listener.Host
	}
	if fc.Listener.Port > 0 {
		cfg.Port = fc.Listener.Port
	}
	if fc.Listener.IdleTimeout > 0 {
		cfg.IdleTimeout = secondsDuration(fc.Listener.IdleTimeout)
	}

	if fc.TLS.Cert != "" {
		cfg.CertFile = resolve(fc.TLS.Cert)
	}
	if fc.TLS.Key != "" {
		cfg.KeyFile = resolve(fc.TLS.Key)
	}
	if fc.TLS.PKCS12 != "" {
		cfg.PKCS12File = resolve(fc.TLS.PKCS12)
	}
	if fc.TLS.ClientCA != "" {
		cfg.ClientCAFile = resolve(fc.TLS.ClientCA)
	}
	if fc.TLS.RequirePeerCert {
		cfg.RequireValidPeerCert = true
	}
	if fc.TLS.SelfSigned {
		cfg.SelfSigned = true
	}

	if fc.Session.Greeting != "" {
		cfg.Greeting = fc.Session.Greeting
	}
	if fc.Session.NoGreeting {
		cfg.NoGreeting = true
	}
	if fc.Session.Encoding != "" {
		cfg.Encoding = fc.Session.Encoding
	}

	if fc.Log.Verbose > 0 {
		cfg.Verbose = fc.Log.Verbose
	}
	if fc.Log.Quiet {
		cfg.Quiet = true
	}
	return nil
}
