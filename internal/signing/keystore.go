package signing

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	dErrors "wfap/pkg/domain-errors"
)

const keyBits = 2048

// LoadOrGenerate returns the RSA keypair for the given identity, reading it
// from <dir>/<identity>_private.pem when present and generating and
// persisting a fresh 2048-bit pair otherwise. Generation is idempotent per
// identity: subsequent calls reload the same key.
func LoadOrGenerate(dir, identity string) (*rsa.PrivateKey, error) {
	privPath := filepath.Join(dir, identity+"_private.pem")
	pubPath := filepath.Join(dir, identity+"_public.pem")

	if raw, err := os.ReadFile(privPath); err == nil {
		return parsePrivatePEM(raw)
	} else if !os.IsNotExist(err) {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "reading private key", err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "creating key directory", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "generating RSA key", err)
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "encoding private key", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "writing private key", err)
	}

	pubPEM, err := EncodePublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(pubPath, []byte(pubPEM), 0o644); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "writing public key", err)
	}

	return key, nil
}

func parsePrivatePEM(raw []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, dErrors.New(dErrors.CodeKeyUnavailable, "private key file is not PEM")
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeKeyUnavailable, "parsing private key", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeKeyUnavailable, fmt.Sprintf("private key is %T, expected RSA", parsed))
	}
	return key, nil
}

// EncodePublicKey renders an RSA public key as a SubjectPublicKeyInfo PEM
// string, the form carried in the payload envelope.
func EncodePublicKey(pub *rsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeKeyUnavailable, "encoding public key", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// Verification re-parses the same handful of peer keys on every reply, so
// parsed keys are memoized by their PEM text. Bad PEM is never cached.
var publicKeyCache sync.Map // string -> *rsa.PublicKey

// ParsePublicKey reads a SubjectPublicKeyInfo PEM string back into a key.
func ParsePublicKey(pemStr string) (*rsa.PublicKey, error) {
	if cached, ok := publicKeyCache.Load(pemStr); ok {
		return cached.(*rsa.PublicKey), nil
	}
	pub, err := parsePublicPEM(pemStr)
	if err != nil {
		return nil, err
	}
	publicKeyCache.Store(pemStr, pub)
	return pub, nil
}

func parsePublicPEM(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, dErrors.New(dErrors.CodeSignature, "public key is not PEM")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeSignature, "parsing public key", err)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, dErrors.New(dErrors.CodeSignature, fmt.Sprintf("public key is %T, expected RSA", parsed))
	}
	return pub, nil
}
