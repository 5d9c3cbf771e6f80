// Package credentials loads the certificate material a TLS listener
// serves: PEM certificate/key pairs (optionally passphrase-protected),
// PKCS#12 bundles, client CA pools, and throwaway self-signed pairs.
//
// Every failure is a *errors.CredentialError so startup can report it
// as a credential problem rather than a generic I/O error.
package credentials

import (
	"crypto/ed25519"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
	"software.sslmate.com/src/go-pkcs12"

	gerrors "greetlog/internal/errors"
)

// PassphraseFunc supplies the passphrase for an encrypted key or bundle.
// prompt names the file being unlocked.
type PassphraseFunc func(prompt string) ([]byte, error)

// StaticPassphrase always returns p.
func StaticPassphrase(p string) PassphraseFunc {
	return func(string) ([]byte, error) { return []byte(p), nil }
}

// TerminalPassphrase reads the passphrase from in without echo.  It
// refuses to prompt when in is not a terminal.
func TerminalPassphrase(in *os.File, out io.Writer) PassphraseFunc {
	return func(prompt string) ([]byte, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("cannot prompt for passphrase: input is not a terminal")
		}
		fmt.Fprint(out, prompt)
		pass, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return nil, fmt.Errorf("reading passphrase: %w", err)
		}
		return pass, nil
	}
}

// LoadKeyPair reads a PEM certificate chain and private key from disk.
func LoadKeyPair(certFile, keyFile string, pass PassphraseFunc) (tls.Certificate, error) {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("certificate", certFile, err)
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("key", keyFile, err)
	}
	return parseKeyPair(certPEM, keyPEM, certFile, keyFile, pass)
}

// ParseKeyPair is LoadKeyPair for in-memory PEM data.
func ParseKeyPair(certPEM, keyPEM []byte, pass PassphraseFunc) (tls.Certificate, error) {
	return parseKeyPair(certPEM, keyPEM, "", "", pass)
}

func parseKeyPair(certPEM, keyPEM []byte, certPath, keyPath string, pass PassphraseFunc) (tls.Certificate, error) {
	if !hasBlock(certPEM, "CERTIFICATE") {
		return tls.Certificate{}, gerrors.Credential("certificate", certPath,
			fmt.Errorf("no CERTIFICATE block found"))
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err == nil {
		return cert, nil
	}

	// X509KeyPair cannot read encrypted keys.  The ssh key parser can,
	// and reports whether a passphrase is what is missing.
	if _, perr := ssh.ParseRawPrivateKey(keyPEM); !isPassphraseMissing(perr) {
		return tls.Certificate{}, gerrors.Credential("key", keyPath, err)
	}
	if pass == nil {
		return tls.Certificate{}, gerrors.Credential("key", keyPath,
			fmt.Errorf("private key is encrypted and no passphrase was given"))
	}

	label := keyPath
	if label == "" {
		label = "private key"
	}
	phrase, err := pass(fmt.Sprintf("Enter passphrase for %s: ", label))
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("key", keyPath, err)
	}
	raw, err := ssh.ParseRawPrivateKeyWithPassphrase(keyPEM, phrase)
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("key", keyPath, fmt.Errorf("decrypting key: %w", err))
	}

	plain, err := encodePKCS8(raw)
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("key", keyPath, err)
	}
	cert, err = tls.X509KeyPair(certPEM, plain)
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("key", keyPath, err)
	}
	return cert, nil
}

// LoadPKCS12 reads a PKCS#12 (.p12/.pfx) bundle holding the certificate,
// its key and any intermediates.  Both the legacy 3DES/RC2 encoding and
// the PBES2/AES one OpenSSL 3 writes by default are accepted.  An empty
// password is tried first; pass is consulted only when that fails.
func LoadPKCS12(file string, pass PassphraseFunc) (tls.Certificate, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("pkcs12", file, err)
	}

	key, leaf, chain, err := pkcs12.DecodeChain(data, "")
	if gerrors.Is(err, pkcs12.ErrIncorrectPassword) && pass != nil {
		var phrase []byte
		phrase, err = pass(fmt.Sprintf("Enter password for %s: ", file))
		if err != nil {
			return tls.Certificate{}, gerrors.Credential("pkcs12", file, err)
		}
		key, leaf, chain, err = pkcs12.DecodeChain(data, string(phrase))
	}
	if err != nil {
		return tls.Certificate{}, gerrors.Credential("pkcs12", file, err)
	}

	cert := tls.Certificate{
		Certificate: [][]byte{leaf.Raw},
		PrivateKey:  key,
		Leaf:        leaf,
	}
	for _, c := range chain {
		cert.Certificate = append(cert.Certificate, c.Raw)
	}
	return cert, nil
}

// LoadCertPool reads PEM CA certificates for verifying client certificates.
func LoadCertPool(file string) (*x509.CertPool, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, gerrors.Credential("client-ca", file, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, gerrors.Credential("client-ca", file, fmt.Errorf("no certificates found"))
	}
	return pool, nil
}

// ── helpers ──────────────────────────────────────────────────────────

func isPassphraseMissing(err error) bool {
	var pm *ssh.PassphraseMissingError
	return gerrors.As(err, &pm)
}

func hasBlock(data []byte, typ string) bool {
	for {
		var b *pem.Block
		b, data = pem.Decode(data)
		if b == nil {
			return false
		}
		if b.Type == typ {
			return true
		}
	}
}

func encodePKCS8(key interface{}) ([]byte, error) {
	// The OpenSSH format yields a pointer for ed25519 keys.
	if k, ok := key.(*ed25519.PrivateKey); ok {
		key = *k
	}
	der, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("encoding key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}
