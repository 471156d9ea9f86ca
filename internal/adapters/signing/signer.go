// Package signing signs declaration documents with a taxpayer certificate
// before they are uploaded.
package signing

import (
	"context"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"

	"github.com/csg33k/jpk-vat/internal/domain"
)

// CertSigner produces a compact JWS (RS256 or ES256, following the key)
// over the document bytes and reports the certificate's validity window.
type CertSigner struct {
	key  crypto.Signer
	cert *x509.Certificate
	alg  jwa.SignatureAlgorithm
}

func NewCertSigner(key crypto.Signer, cert *x509.Certificate) (*CertSigner, error) {
	if key == nil || cert == nil {
		return nil, errors.New("signing key and certificate are required")
	}
	alg, err := algorithmFor(cert)
	if err != nil {
		return nil, err
	}
	return &CertSigner{key: key, cert: cert, alg: alg}, nil
}

// LoadPEM reads a PEM certificate and a PKCS#8 private key from disk.
func LoadPEM(certPath, keyPath string) (*CertSigner, error) {
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	cb, _ := pem.Decode(certPEM)
	if cb == nil {
		return nil, errors.New("certificate file holds no PEM block")
	}
	cert, err := x509.ParseCertificate(cb.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	kb, _ := pem.Decode(keyPEM)
	if kb == nil {
		return nil, errors.New("key file holds no PEM block")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(kb.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	key, ok := parsed.(crypto.Signer)
	if !ok {
		return nil, fmt.Errorf("key type %T cannot sign", parsed)
	}
	return NewCertSigner(key, cert)
}

func algorithmFor(cert *x509.Certificate) (jwa.SignatureAlgorithm, error) {
	switch cert.PublicKeyAlgorithm {
	case x509.RSA:
		return jwa.RS256, nil
	case x509.ECDSA:
		return jwa.ES256, nil
	default:
		return "", fmt.Errorf("unsupported certificate key algorithm %s", cert.PublicKeyAlgorithm)
	}
}

// Sign refuses to sign bytes that do not hash to digest. An expired
// certificate still signs; the orchestrator rejects the envelope.
func (s *CertSigner) Sign(_ context.Context, document []byte, digest string) (domain.SignatureEnvelope, error) {
	sum := sha256.Sum256(document)
	if got := hex.EncodeToString(sum[:]); got != digest {
		return domain.SignatureEnvelope{}, domain.NewValidation("digest", "document hashes to %s, caller expected %s", got, digest)
	}

	hdr := jws.NewHeaders()
	if err := hdr.Set(jws.KeyIDKey, s.cert.SerialNumber.String()); err != nil {
		return domain.SignatureEnvelope{}, err
	}
	signed, err := jws.Sign(document, jws.WithKey(s.alg, s.key, jws.WithProtectedHeaders(hdr)))
	if err != nil {
		return domain.SignatureEnvelope{}, domain.NewCredential("SIGNING_FAILED", "signing with "+s.cert.Subject.CommonName+" failed", err)
	}
	return domain.SignatureEnvelope{
		Signed:      signed,
		Digest:      digest,
		CertSubject: s.cert.Subject.String(),
		NotBefore:   s.cert.NotBefore,
		NotAfter:    s.cert.NotAfter,
	}, nil
}

// Verify checks a compact JWS produced by Sign and returns the document.
func (s *CertSigner) Verify(signed []byte) ([]byte, error) {
	return jws.Verify(signed, jws.WithKey(s.alg, s.cert.PublicKey))
}
