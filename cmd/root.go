// Package cmd wires up the CLI flags and dispatches to the listener core.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"greetlog/config"
	"greetlog/internal/core"
	"greetlog/util"
)

// version is overridable at link time:
//
//	go build -ldflags "-X greetlog/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// Execute parses args and runs the listener until ctx is cancelled.
//
// Configuration is layered lowest to highest: defaults, the --config
// file, GREETLOG_* environment variables, then flags.
func Execute(ctx context.Context, args []string) error {
	cfg := &config.Config{}
	if path := configPath(args); path != "" {
		if err := config.LoadFile(cfg, path); err != nil {
			return err
		}
		cfg.ConfigFile = path
	}
	config.LoadFromEnv(cfg)

	fs := flag.NewFlagSet("greetlog", flag.ContinueOnError)

	// ── listener ─────────────────────────────────────────────────
	fs.StringVarP(&cfg.Mode, "mode", "m", cfg.Mode, "Transport: tcp or tls (default tcp)")
	fs.StringVarP(&cfg.Host, "bind", "b", cfg.Host, "Bind address (default 0.0.0.0, or 127.0.0.1 for tls)")
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "Bind port (default 8080, or 1337 for tls)")

	idleSec := int(cfg.IdleTimeout / time.Second)
	fs.IntVarP(&idleSec, "idle-timeout", "w", idleSec, "Close sessions idle for this many seconds (0 = never)")

	// ── TLS ──────────────────────────────────────────────────────
	fs.StringVar(&cfg.CertFile, "cert", cfg.CertFile, "PEM certificate chain")
	fs.StringVar(&cfg.KeyFile, "key", cfg.KeyFile, "PEM private key (may be encrypted)")
	fs.StringVar(&cfg.PKCS12File, "pkcs12", cfg.PKCS12File, "PKCS#12 bundle instead of --cert/--key")
	fs.BoolVar(&cfg.PromptPassphrase, "ask-pass", cfg.PromptPassphrase, "Prompt for the key or bundle passphrase")
	fs.BoolVar(&cfg.SelfSigned, "self-signed", cfg.SelfSigned, "Serve a generated self-signed certificate")
	fs.StringVar(&cfg.ClientCAFile, "client-ca", cfg.ClientCAFile, "PEM CA bundle for client certificates")
	fs.BoolVar(&cfg.RequireValidPeerCert, "require-peer-cert", cfg.RequireValidPeerCert,
		"Require a client certificate signed by --client-ca (default: accept any peer)")

	// ── session ──────────────────────────────────────────────────
	fs.StringVar(&cfg.Greeting, "greeting", cfg.Greeting, "Greeting sent on connect (tcp default \"Hello, client.\")")
	fs.BoolVar(&cfg.NoGreeting, "no-greeting", cfg.NoGreeting, "Send no greeting")
	fs.StringVarP(&cfg.Encoding, "encoding", "e", cfg.Encoding, "Text encoding of received data (default utf-8)")

	// ── output ───────────────────────────────────────────────────
	envVerbose := cfg.Verbose
	fs.CountVarP(&cfg.Verbose, "verbose", "v", "Increase verbosity (repeatable)")
	fs.BoolVarP(&cfg.Quiet, "quiet", "q", cfg.Quiet, "Only log errors")
	var timestamps bool
	fs.BoolVarP(&timestamps, "timestamps", "t", false, "Prefix log lines with the time")

	// ── process ──────────────────────────────────────────────────
	var configFile string
	fs.StringVarP(&configFile, "config", "f", cfg.ConfigFile, "INI configuration file")
	fs.BoolVar(&cfg.DryRun, "dry-run", false, "Validate configuration and credentials, then exit")

	var showVersion, showHelp bool
	fs.BoolVar(&showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }

	// ── parse ────────────────────────────────────────────────────
	if err := fs.Parse(args); err != nil {
		return err
	}

	if showHelp {
		printUsage(fs)
		return nil
	}
	if showVersion {
		fmt.Printf("greetlog %s\n", version)
		return nil
	}

	if !fs.Changed("verbose") {
		cfg.Verbose = envVerbose
	}
	cfg.IdleTimeout = time.Duration(idleSec) * time.Second
	cfg.Mode = strings.ToLower(cfg.Mode)

	// ── positional arguments ─────────────────────────────────────
	if err := parsePositional(cfg, fs.Args()); err != nil {
		return err
	}

	// ── validate ─────────────────────────────────────────────────
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// ── build components ─────────────────────────────────────────
	logger := util.NewLogger(cfg.LogLevel())
	logger.SetTimestamps(timestamps)
	if cfg.ConfigFile != "" {
		logger.Verbose("loaded configuration from %s", cfg.ConfigFile)
	}

	mode, err := core.Build(cfg, logger)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		logger.Info("configuration OK: %s listener on %s", cfg.Mode, cfg.Address())
		return nil
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// configPath finds --config (or GREETLOG_CONFIG) before the real parse,
// so the file can sit below environment and flags.
func configPath(args []string) string {
	pre := flag.NewFlagSet("greetlog", flag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.SetOutput(io.Discard)
	pre.Usage = func() {}

	path := pre.StringP("config", "f", os.Getenv(config.EnvPrefix+"CONFIG"), "")
	pre.BoolP("help", "h", false, "")
	pre.Parse(args) //nolint:errcheck // the real parse reports errors
	return *path
}

// parsePositional accepts an optional [host [port]] after the flags.
func parsePositional(cfg *config.Config, remaining []string) error {
	switch len(remaining) {
	case 0:
	case 1:
		cfg.Host = remaining[0]
	case 2:
		cfg.Host = remaining[0]
		port, err := config.ParsePort(remaining[1])
		if err != nil {
			return fmt.Errorf("port: %w", err)
		}
		cfg.Port = port
	default:
		return fmt.Errorf("too many arguments (use --help for usage)")
	}
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `greetlog – greeting and logging listener v%s

Accepts TCP or TLS connections, greets each client and logs what it sends.

Usage:
  greetlog [options] [host [port]]

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Environment:
  Every option can also be set as %sNAME (for example %sPORT=9000,
  %sKEY_PASSPHRASE=...).  Flags win over the environment, which wins
  over the --config file.

Examples:
  greetlog                                    Plaintext on 0.0.0.0:8080
  greetlog -m tls --cert srv.pem --key srv.key
                                              TLS on 127.0.0.1:1337
  greetlog -m tls --self-signed -v            TLS with a throwaway cert
  greetlog -m tls --pkcs12 srv.p12 --ask-pass --client-ca ca.pem --require-peer-cert
                                              Mutual TLS
`, config.EnvPrefix, config.EnvPrefix, config.EnvPrefix)
}
