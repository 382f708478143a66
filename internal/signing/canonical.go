// Package signing implements payload integrity for WFAP messages: payloads
// are canonicalized to RFC 8785 JSON, hashed with SHA-256 and signed with
// RSA PKCS#1 v1.5. The signature, the signer's public key and the signer
// identity ride inside the payload itself so a receiver needs no out-of-band
// key distribution to verify.
package signing

import (
	"encoding/json"

	"github.com/gowebpki/jcs"

	dErrors "wfap/pkg/domain-errors"
)

// Envelope field names appended to a payload by Sign and stripped by Verify.
const (
	FieldSignature = "signature"
	FieldPublicKey = "public_key"
	FieldSigner    = "signer"
)

// Canonicalize renders a payload in RFC 8785 canonical form: object keys
// sorted, no insignificant whitespace, deterministic number formatting. Two
// payloads with equal content always canonicalize to identical bytes.
func Canonicalize(payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "payload marshal failed", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "payload canonicalization failed", err)
	}
	return canonical, nil
}

// stripEnvelope returns a copy of the payload without the signature envelope
// fields, which is the exact byte surface the signature covers.
func stripEnvelope(payload map[string]any) map[string]any {
	stripped := make(map[string]any, len(payload))
	for k, v := range payload {
		switch k {
		case FieldSignature, FieldPublicKey, FieldSigner:
			continue
		}
		stripped[k] = v
	}
	return stripped
}
