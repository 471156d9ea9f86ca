package signing_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/hex"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/jpk-vat/internal/adapters/signing"
	"github.com/csg33k/jpk-vat/internal/domain"
)

func selfSigned(t *testing.T, notAfter time.Time) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(4242),
		Subject:      pkix.Name{CommonName: "Jan Kowalski", Country: []string{"PL"}},
		NotBefore:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return key, cert
}

func digest(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestCertSigner_SignAndVerify(t *testing.T) {
	notAfter := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	key, cert := selfSigned(t, notAfter)
	s, err := signing.NewCertSigner(key, cert)
	require.NoError(t, err)

	doc := []byte("<JPK>deklaracja</JPK>")
	env, err := s.Sign(context.Background(), doc, digest(doc))
	require.NoError(t, err)
	assert.Equal(t, digest(doc), env.Digest)
	assert.Equal(t, notAfter, env.NotAfter)
	assert.Contains(t, env.CertSubject, "Jan Kowalski")

	payload, err := s.Verify(env.Signed)
	require.NoError(t, err)
	assert.Equal(t, doc, payload)
}

func TestCertSigner_DigestMismatch(t *testing.T) {
	key, cert := selfSigned(t, time.Now().AddDate(1, 0, 0))
	s, err := signing.NewCertSigner(key, cert)
	require.NoError(t, err)

	_, err = s.Sign(context.Background(), []byte("a"), digest([]byte("b")))
	assert.Equal(t, domain.KindValidation, domain.KindOf(err))
}

func TestLoadPEM(t *testing.T) {
	key, cert := selfSigned(t, time.Now().AddDate(1, 0, 0))
	dir := t.TempDir()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	s, err := signing.LoadPEM(certPath, keyPath)
	require.NoError(t, err)
	doc := []byte("x")
	_, err = s.Sign(context.Background(), doc, digest(doc))
	require.NoError(t, err)

	_, err = signing.LoadPEM(filepath.Join(dir, "missing.pem"), keyPath)
	assert.Error(t, err)
	_, err = signing.LoadPEM(keyPath, keyPath)
	assert.Error(t, err, "a key is not a certificate")
}
