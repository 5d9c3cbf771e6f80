package transport

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
)

// TLSOptions configures the server side of a TLS listener.
type TLSOptions struct {
	Certificate tls.Certificate

	// RequireValidPeerCert makes the server demand a client certificate
	// that chains to ClientCAs.  When false the server does not ask for
	// one, so any client, self-signed or anonymous, can connect.
	RequireValidPeerCert bool
	ClientCAs            *x509.CertPool
}

// ServerTLSConfig builds the tls.Config for a listener.
func ServerTLSConfig(opts TLSOptions) (*tls.Config, error) {
	if len(opts.Certificate.Certificate) == 0 {
		return nil, fmt.Errorf("tls: server certificate is empty")
	}
	cfg := &tls.Config{
		Certificates: []tls.Certificate{opts.Certificate},
		MinVersion:   tls.VersionTLS12,
		ClientAuth:   tls.NoClientCert,
	}
	if opts.RequireValidPeerCert {
		if opts.ClientCAs == nil {
			return nil, fmt.Errorf("tls: peer verification requires a client CA pool")
		}
		cfg.ClientAuth = tls.RequireAndVerifyClientCert
		cfg.ClientCAs = opts.ClientCAs
	}
	return cfg, nil
}

// TLSBinder listens for TLS connections.  The handshake is not performed
// on Accept; it runs on the connection's first read or write.
type TLSBinder struct {
	TCP    TCPBinder
	Config *tls.Config
}

// Listen binds address over TCP and wraps the listener in TLS.
func (b *TLSBinder) Listen(ctx context.Context, address string) (net.Listener, error) {
	if b.Config == nil {
		return nil, fmt.Errorf("tls: no server configuration")
	}
	ln, err := b.TCP.Listen(ctx, address)
	if err != nil {
		return nil, err
	}
	return tls.NewListener(ln, b.Config), nil
}

// Name returns "tls".
func (b *TLSBinder) Name() string { return "tls" }
