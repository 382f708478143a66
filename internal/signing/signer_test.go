package signing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "wfap/pkg/domain-errors"
)

func newTestSigner(t *testing.T, identity string) *Signer {
	t.Helper()
	s, err := New(t.TempDir(), identity)
	require.NoError(t, err)
	return s
}

func TestCanonicalize(t *testing.T) {
	t.Run("is insensitive to construction order", func(t *testing.T) {
		a, err := Canonicalize(map[string]any{"b": 2.0, "a": "x", "c": map[string]any{"z": true, "y": nil}})
		require.NoError(t, err)
		b, err := Canonicalize(map[string]any{"c": map[string]any{"y": nil, "z": true}, "a": "x", "b": 2.0})
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("sorts keys and drops whitespace", func(t *testing.T) {
		out, err := Canonicalize(map[string]any{"beta": 1.0, "alpha": 2.0})
		require.NoError(t, err)
		assert.Equal(t, `{"alpha":2,"beta":1}`, string(out))
	})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := newTestSigner(t, "BANK-A")

	payload := map[string]any{
		"intent_id":    "intent-7",
		"amount_value": 250_000.0,
		"financials":   map[string]any{"annual_revenue": 1_000_000.0},
	}
	signed, err := s.Sign(payload)
	require.NoError(t, err)
	assert.Equal(t, "BANK-A", signed[FieldSigner])
	assert.NotEmpty(t, signed[FieldSignature])
	assert.NotEmpty(t, signed[FieldPublicKey])

	// The input map stays untouched.
	_, tainted := payload[FieldSignature]
	assert.False(t, tainted)

	raw, err := json.Marshal(signed)
	require.NoError(t, err)

	// Any party can verify; the key travels with the payload.
	verifier := newTestSigner(t, "BANK-B")
	result, err := verifier.Verify(raw)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "BANK-A", result.Signer)
	assert.Equal(t, "intent-7", result.Payload["intent_id"])
	_, envelopeLeft := result.Payload[FieldSignature]
	assert.False(t, envelopeLeft)
}

func TestVerifyDetectsTampering(t *testing.T) {
	s := newTestSigner(t, "BANK-A")
	signed, err := s.Sign(map[string]any{"amount_value": 250_000.0, "purpose": "inventory"})
	require.NoError(t, err)

	signed["amount_value"] = 250_001.0
	raw, err := json.Marshal(signed)
	require.NoError(t, err)

	result, err := s.Verify(raw)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "signature does not match payload content", result.Diagnostic)
}

func TestVerifyMalformedInput(t *testing.T) {
	s := newTestSigner(t, "BANK-A")

	t.Run("non-JSON input is an error", func(t *testing.T) {
		_, err := s.Verify([]byte("{broken"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedInput))
	})

	t.Run("missing envelope is an error", func(t *testing.T) {
		_, err := s.Verify([]byte(`{"intent_id":"x"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedInput))
	})

	t.Run("garbage base64 signature is invalid, not an error", func(t *testing.T) {
		result, err := s.Verify([]byte(`{"signature":"!!!","public_key":"---","signer":"x"}`))
		require.NoError(t, err)
		assert.False(t, result.Valid)
	})

	t.Run("undecodable public key is invalid, not an error", func(t *testing.T) {
		result, err := s.Verify([]byte(`{"signature":"YWJj","public_key":"not a pem","signer":"x"}`))
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, "public key is not a valid RSA key", result.Diagnostic)
	})
}

func TestReSignVerifiedPayload(t *testing.T) {
	consumer := newTestSigner(t, "CONSUMER")
	bank := newTestSigner(t, "BANK")

	signed, err := consumer.Sign(map[string]any{"intent_id": "i1"})
	require.NoError(t, err)

	resigned, err := bank.Sign(signed)
	require.NoError(t, err)
	assert.Equal(t, "BANK", resigned[FieldSigner])

	raw, err := json.Marshal(resigned)
	require.NoError(t, err)
	result, err := consumer.Verify(raw)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "BANK", result.Signer)
}

func TestLoadOrGenerateIsStable(t *testing.T) {
	dir := t.TempDir()
	first, err := LoadOrGenerate(dir, "BANK-X")
	require.NoError(t, err)
	second, err := LoadOrGenerate(dir, "BANK-X")
	require.NoError(t, err)
	assert.True(t, first.Equal(second), "reloading must return the persisted key")

	other, err := LoadOrGenerate(dir, "BANK-Y")
	require.NoError(t, err)
	assert.False(t, first.Equal(other), "identities must not share keys")
}
