package credentials

import (
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	gerrors "greetlog/internal/errors"
)

func selfSigned(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	certPEM, keyPEM, err := GenerateSelfSigned([]string{"127.0.0.1", "localhost"}, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return certPEM, keyPEM
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// encryptKey re-encodes a PKCS#8 EC key as a legacy passphrase-protected
// "EC PRIVATE KEY" block.
func encryptKey(t *testing.T, keyPEM []byte, pass string) []byte {
	t.Helper()
	block, _ := pem.Decode(keyPEM)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		t.Fatal(err)
	}
	der, err := x509.MarshalECPrivateKey(key.(*ecdsa.PrivateKey))
	if err != nil {
		t.Fatal(err)
	}
	enc, err := x509.EncryptPEMBlock(rand.Reader, "EC PRIVATE KEY", der, []byte(pass), x509.PEMCipherAES256) //nolint:staticcheck // legacy format under test
	if err != nil {
		t.Fatal(err)
	}
	return pem.EncodeToMemory(enc)
}

func credentialKind(t *testing.T, err error) string {
	t.Helper()
	var ce *gerrors.CredentialError
	if !gerrors.As(err, &ce) {
		t.Fatalf("expected *CredentialError, got %T: %v", err, err)
	}
	return ce.Kind
}

func TestGenerateSelfSigned(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)

	cert, err := ParseKeyPair(certPEM, keyPEM, nil)
	if err != nil {
		t.Fatalf("ParseKeyPair: %v", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(leaf.IPAddresses) != 1 || !leaf.IPAddresses[0].Equal([]byte{127, 0, 0, 1}) {
		t.Errorf("IP SANs = %v, want [127.0.0.1]", leaf.IPAddresses)
	}
	if len(leaf.DNSNames) != 1 || leaf.DNSNames[0] != "localhost" {
		t.Errorf("DNS SANs = %v, want [localhost]", leaf.DNSNames)
	}
	if !leaf.IsCA {
		t.Error("self-signed certificate should be its own CA")
	}
}

func TestLoadKeyPair(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	certFile := writeFile(t, "cert.pem", certPEM)
	keyFile := writeFile(t, "key.pem", keyPEM)

	cert, err := LoadKeyPair(certFile, keyFile, nil)
	if err != nil {
		t.Fatalf("LoadKeyPair: %v", err)
	}
	if len(cert.Certificate) != 1 {
		t.Errorf("chain length = %d, want 1", len(cert.Certificate))
	}
}

func TestLoadKeyPair_Errors(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	goodCert := writeFile(t, "cert.pem", certPEM)
	goodKey := writeFile(t, "key.pem", keyPEM)
	garbage := writeFile(t, "garbage.pem", []byte("not pem"))
	missing := filepath.Join(t.TempDir(), "missing.pem")

	tests := []struct {
		name     string
		cert     string
		key      string
		wantKind string
	}{
		{"missing cert", missing, goodKey, "certificate"},
		{"missing key", goodCert, missing, "key"},
		{"garbage cert", garbage, goodKey, "certificate"},
		{"garbage key", goodCert, garbage, "key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadKeyPair(tt.cert, tt.key, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if kind := credentialKind(t, err); kind != tt.wantKind {
				t.Errorf("kind = %q, want %q", kind, tt.wantKind)
			}
		})
	}
}

func TestParseKeyPair_EncryptedKey(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	encrypted := encryptKey(t, keyPEM, "secret")

	t.Run("correct passphrase", func(t *testing.T) {
		var prompted string
		pass := func(prompt string) ([]byte, error) {
			prompted = prompt
			return []byte("secret"), nil
		}
		if _, err := ParseKeyPair(certPEM, encrypted, pass); err != nil {
			t.Fatalf("ParseKeyPair: %v", err)
		}
		if prompted == "" {
			t.Error("passphrase func was not consulted")
		}
	})

	t.Run("no passphrase source", func(t *testing.T) {
		_, err := ParseKeyPair(certPEM, encrypted, nil)
		if err == nil {
			t.Fatal("expected error")
		}
		if kind := credentialKind(t, err); kind != "key" {
			t.Errorf("kind = %q, want key", kind)
		}
	})

	t.Run("wrong passphrase", func(t *testing.T) {
		_, err := ParseKeyPair(certPEM, encrypted, StaticPassphrase("wrong"))
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

// The bundles under testdata were exported by OpenSSL 3 from one EC key
// and a localhost certificate, with password "secret": modern.p12 with
// the default PBES2/AES-256 and SHA-256 MAC, legacy.p12 with -legacy.
func TestLoadPKCS12(t *testing.T) {
	for _, name := range []string{"modern.p12", "legacy.p12"} {
		t.Run(name, func(t *testing.T) {
			var prompts int
			pass := func(string) ([]byte, error) {
				prompts++
				return []byte("secret"), nil
			}
			cert, err := LoadPKCS12(filepath.Join("testdata", name), pass)
			if err != nil {
				t.Fatalf("LoadPKCS12: %v", err)
			}
			if prompts != 1 {
				t.Errorf("passphrase consulted %d times, want 1", prompts)
			}
			if cert.Leaf == nil || cert.Leaf.Subject.CommonName != "localhost" {
				t.Errorf("leaf = %v, want CN=localhost", cert.Leaf)
			}
			if len(cert.Certificate) != 1 {
				t.Errorf("chain length = %d, want 1", len(cert.Certificate))
			}
			if _, ok := cert.PrivateKey.(*ecdsa.PrivateKey); !ok {
				t.Errorf("private key is %T, want *ecdsa.PrivateKey", cert.PrivateKey)
			}
		})
	}
}

func TestLoadPKCS12_Password(t *testing.T) {
	bundle := filepath.Join("testdata", "modern.p12")

	tests := []struct {
		name string
		pass PassphraseFunc
	}{
		{"no passphrase source", nil},
		{"wrong passphrase", StaticPassphrase("wrong")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPKCS12(bundle, tt.pass)
			if err == nil {
				t.Fatal("expected error")
			}
			if kind := credentialKind(t, err); kind != "pkcs12" {
				t.Errorf("kind = %q, want pkcs12", kind)
			}
		})
	}
}

func TestLoadPKCS12_Errors(t *testing.T) {
	garbage := writeFile(t, "bundle.p12", []byte("definitely not asn.1"))
	_, err := LoadPKCS12(garbage, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if kind := credentialKind(t, err); kind != "pkcs12" {
		t.Errorf("kind = %q, want pkcs12", kind)
	}

	_, err = LoadPKCS12(filepath.Join(t.TempDir(), "missing.p12"), nil)
	if err == nil {
		t.Fatal("expected error for missing bundle")
	}
}

func TestLoadCertPool(t *testing.T) {
	certPEM, _ := selfSigned(t)
	pool, err := LoadCertPool(writeFile(t, "ca.pem", certPEM))
	if err != nil {
		t.Fatalf("LoadCertPool: %v", err)
	}
	if pool == nil {
		t.Fatal("nil pool")
	}

	_, err = LoadCertPool(writeFile(t, "empty.pem", []byte("nothing here")))
	if err == nil {
		t.Fatal("expected error for a file without certificates")
	}
	if kind := credentialKind(t, err); kind != "client-ca" {
		t.Errorf("kind = %q, want client-ca", kind)
	}
}
