package wfap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "wfap/pkg/domain-errors"
)

func TestParseOffer(t *testing.T) {
	t.Run("decodes an extended offer", func(t *testing.T) {
		raw := []byte(`{
			"offer_id": "offer-1",
			"intent_id": "intent-001",
			"bank_id": "WF-BANK-AGENT-001",
			"status": "OFFER_EXTENDED",
			"amount_approved": 2000000,
			"interest_rate_annual": 10.25,
			"repayment_duration_months": 24,
			"offer_terms": {
				"approved_amount": 2000000,
				"interest_rate": 10.25,
				"repayment_period": 24,
				"origination_fee": 20000
			}
		}`)
		offer, err := ParseOffer(raw)
		require.NoError(t, err)
		assert.True(t, offer.Extended())
		require.NotNil(t, offer.OfferTerms)
		assert.InDelta(t, 20_000, offer.OfferTerms.OriginationFee, 0.001)
	})

	t.Run("modified offers still count as extended", func(t *testing.T) {
		offer, err := ParseOffer([]byte(`{"status":"OFFER_EXTENDED_WITH_MODIFICATIONS"}`))
		require.NoError(t, err)
		assert.True(t, offer.Extended())
	})

	t.Run("rejections are not extended", func(t *testing.T) {
		offer, err := ParseOffer([]byte(`{"status":"REJECTED","rejection_reasons":["Minimum Revenue Requirement"]}`))
		require.NoError(t, err)
		assert.False(t, offer.Extended())
		assert.Contains(t, offer.RejectionReasons, "Minimum Revenue Requirement")
	})

	t.Run("rejects offers without a status", func(t *testing.T) {
		_, err := ParseOffer([]byte(`{"offer_id":"x"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeParse))
	})

	t.Run("rejects non-JSON input", func(t *testing.T) {
		_, err := ParseOffer([]byte("nope"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeParse))
	})

	t.Run("tolerates unknown fields from newer peers", func(t *testing.T) {
		offer, err := ParseOffer([]byte(`{"status":"OFFER_EXTENDED","future_field":{"a":1}}`))
		require.NoError(t, err)
		assert.True(t, offer.Extended())
	})
}

func TestParseMessage(t *testing.T) {
	t.Run("round trips an envelope", func(t *testing.T) {
		msg, err := NewMessage("ctx-42", map[string]any{"k": "v"})
		require.NoError(t, err)
		assert.NotEmpty(t, msg.MessageID)

		raw := []byte(`{"message_id":"` + msg.MessageID + `","context_id":"ctx-42","payload":{"k":"v"}}`)
		parsed, err := ParseMessage(raw)
		require.NoError(t, err)
		assert.Equal(t, "ctx-42", parsed.ContextID)
	})

	t.Run("rejects an empty payload", func(t *testing.T) {
		_, err := ParseMessage([]byte(`{"message_id":"m1","context_id":"c1"}`))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedInput))
	})
}
