package core

import (
	"crypto/tls"
	"net"
	"os"

	"greetlog/config"
	"greetlog/internal/capability"
	"greetlog/internal/credentials"
	gerrors "greetlog/internal/errors"
	"greetlog/internal/metrics"
	"greetlog/internal/transport"
	"greetlog/util"
)

// Build constructs the listener described by cfg.  cfg must already
// have defaults applied and be validated.  In TLS mode the credentials
// are loaded here, so a bad certificate fails before anything binds.
func Build(cfg *config.Config, logger *util.Logger) (Mode, error) {
	decoder, err := util.NewTextDecoder(cfg.Encoding)
	if err != nil {
		return nil, &gerrors.ConfigError{
			Field: "encoding", Value: cfg.Encoding,
			Message: err.Error(),
		}
	}

	binder, err := buildBinder(cfg, logger)
	if err != nil {
		return nil, err
	}

	return &ListenMode{
		Address:          cfg.Address(),
		Binder:           binder,
		Handler:          buildChain(cfg),
		Logger:           logger,
		Metrics:          metrics.New(),
		Decoder:          decoder,
		IdleTimeout:      cfg.IdleTimeout,
		HandshakeTimeout: config.DefaultHandshakeTimeout,
	}, nil
}

// ── binder ───────────────────────────────────────────────────────────

func buildBinder(cfg *config.Config, logger *util.Logger) (transport.Binder, error) {
	if !cfg.TLS() {
		return &transport.TCPBinder{}, nil
	}

	cert, err := loadCertificate(cfg, logger)
	if err != nil {
		return nil, err
	}

	opts := transport.TLSOptions{
		Certificate:          cert,
		RequireValidPeerCert: cfg.RequireValidPeerCert,
	}
	if cfg.ClientCAFile != "" {
		pool, err := credentials.LoadCertPool(cfg.ClientCAFile)
		if err != nil {
			return nil, err
		}
		opts.ClientCAs = pool
	}
	if !cfg.RequireValidPeerCert {
		logger.Verbose("peer certificates are not verified; any client may connect")
	}

	tlsCfg, err := transport.ServerTLSConfig(opts)
	if err != nil {
		return nil, gerrors.Credential("tls", "", err)
	}
	return &transport.TLSBinder{Config: tlsCfg}, nil
}

func loadCertificate(cfg *config.Config, logger *util.Logger) (tls.Certificate, error) {
	pass := passphrase(cfg)
	switch {
	case cfg.PKCS12File != "":
		logger.Verbose("loading PKCS#12 bundle %s", cfg.PKCS12File)
		return credentials.LoadPKCS12(cfg.PKCS12File, pass)
	case cfg.SelfSigned:
		logger.Warn("serving a generated self-signed certificate")
		cert, err := credentials.SelfSigned(selfSignedHosts(cfg.Host), config.DefaultSelfSignedValidity)
		if err != nil {
			return tls.Certificate{}, gerrors.Credential("self-signed", "", err)
		}
		return cert, nil
	default:
		logger.Verbose("loading certificate %s and key %s", cfg.CertFile, cfg.KeyFile)
		return credentials.LoadKeyPair(cfg.CertFile, cfg.KeyFile, pass)
	}
}

// passphrase picks where an encrypted key's passphrase comes from.  A
// nil result means encrypted keys fail to load.
func passphrase(cfg *config.Config) credentials.PassphraseFunc {
	switch {
	case cfg.KeyPassphrase != "":
		return credentials.StaticPassphrase(cfg.KeyPassphrase)
	case cfg.PromptPassphrase:
		return credentials.TerminalPassphrase(os.Stdin, os.Stderr)
	default:
		return nil
	}
}

func selfSignedHosts(bind string) []string {
	hosts := []string{"localhost", "127.0.0.1", "::1"}
	if ip := net.ParseIP(bind); ip != nil && ip.IsUnspecified() {
		return hosts
	}
	for _, h := range hosts {
		if h == bind {
			return hosts
		}
	}
	return append(hosts, bind)
}

// ── capabilities ─────────────────────────────────────────────────────

// buildChain selects the per-session behaviour for the transport mode.
// The plaintext listener announces connections at info level; the TLS
// listener only at verbose level and logs each chunk twice, once
// stripped of newlines.
func buildChain(cfg *config.Config) capability.Chain {
	chain := capability.Chain{capability.Announce{Quiet: cfg.TLS()}}
	if msg := cfg.GreetingMessage(); msg != "" {
		chain = append(chain, capability.Greet{Message: msg})
	}
	if cfg.TLS() {
		chain = append(chain, capability.StrippedDataLog{})
	}
	return append(chain, capability.DataLog{}, capability.Teardown{})
}
