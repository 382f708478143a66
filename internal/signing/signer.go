package signing

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"

	dErrors "wfap/pkg/domain-errors"
)

// Signer signs outbound payloads and verifies inbound ones for a single
// identity. The zero value is unusable; construct with New.
type Signer struct {
	identity string
	key      *rsa.PrivateKey
	pubPEM   string
	logger   *slog.Logger
}

// Option configures a Signer.
type Option func(*Signer)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Signer) { s.logger = logger }
}

// New builds a Signer for identity, loading or generating its keypair under
// keysDir.
func New(keysDir, identity string, opts ...Option) (*Signer, error) {
	key, err := LoadOrGenerate(keysDir, identity)
	if err != nil {
		return nil, err
	}
	pubPEM, err := EncodePublicKey(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	s := &Signer{
		identity: identity,
		key:      key,
		pubPEM:   pubPEM,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Identity returns the signer name placed in the envelope.
func (s *Signer) Identity() string { return s.identity }

// PublicKeyPEM returns the signer's public key in PEM form.
func (s *Signer) PublicKeyPEM() string { return s.pubPEM }

// Sign canonicalizes the payload, signs the SHA-256 digest with PKCS#1 v1.5
// and returns a new map carrying the original fields plus the signature
// envelope. The input map is not modified. Any pre-existing envelope fields
// in the input are replaced, so re-signing a verified payload is safe.
func (s *Signer) Sign(payload map[string]any) (map[string]any, error) {
	if s.key == nil {
		return nil, dErrors.New(dErrors.CodeKeyUnavailable, "signer has no private key")
	}

	canonical, err := Canonicalize(stripEnvelope(payload))
	if err != nil {
		return nil, err
	}
	digest := sha256.Sum256(canonical)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeSignature, "signing payload", err)
	}

	signed := stripEnvelope(payload)
	signed[FieldSignature] = base64.StdEncoding.EncodeToString(sig)
	signed[FieldPublicKey] = s.pubPEM
	signed[FieldSigner] = s.identity
	return signed, nil
}

// Verification is the outcome of checking a signed payload. Valid is false
// for any payload whose signature does not match its content; Diagnostic
// says why in human terms.
type Verification struct {
	Valid      bool
	Signer     string
	Payload    map[string]any
	Diagnostic string
}

// Verify checks a signed payload received on the wire. It returns an error
// only for malformed input (not JSON, or no signature envelope at all);
// everything else, including tampered content and undecodable keys, comes
// back as Valid=false with a diagnostic. Payload in the result is the
// content with the envelope stripped, regardless of validity.
func (s *Signer) Verify(raw []byte) (Verification, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Verification{}, dErrors.Wrap(dErrors.CodeMalformedInput, "signed payload is not valid JSON", err)
	}
	return s.VerifyMap(payload)
}

// VerifyMap is Verify for payloads already decoded to a map.
func (s *Signer) VerifyMap(payload map[string]any) (Verification, error) {
	sigB64, okSig := payload[FieldSignature].(string)
	pubPEM, okPub := payload[FieldPublicKey].(string)
	if !okSig || !okPub || sigB64 == "" || pubPEM == "" {
		return Verification{}, dErrors.New(dErrors.CodeMalformedInput, "payload carries no signature envelope")
	}
	signer, _ := payload[FieldSigner].(string)

	result := Verification{
		Signer:  signer,
		Payload: stripEnvelope(payload),
	}

	sig, err := base64.StdEncoding.DecodeString(sigB64)
	if err != nil {
		result.Diagnostic = "signature is not valid base64"
		return result, nil
	}
	pub, err := ParsePublicKey(pubPEM)
	if err != nil {
		result.Diagnostic = "public key is not a valid RSA key"
		return result, nil
	}

	canonical, err := Canonicalize(result.Payload)
	if err != nil {
		result.Diagnostic = "payload cannot be canonicalized"
		return result, nil
	}
	digest := sha256.Sum256(canonical)
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		s.logger.Warn("signature verification failed", "signer", signer)
		result.Diagnostic = "signature does not match payload content"
		return result, nil
	}

	result.Valid = true
	return result, nil
}
