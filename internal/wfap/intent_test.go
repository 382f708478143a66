package wfap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "wfap/pkg/domain-errors"
)

func validIntentJSON(t *testing.T, mutate func(m map[string]any)) []byte {
	t.Helper()
	m := map[string]any{
		"intent_id":            "intent-001",
		"created_at":           "2026-08-26T10:00:00Z",
		"protocol_version":     ProtocolVersion,
		"sender_id":            "ACME-CORP-001",
		"sender_name":          "Acme Corp",
		"sender_contact_email": "finance@acme.example",
		"jurisdiction":         "US",
		"industry_code":        "444190",
		"financials": map[string]any{
			"annual_revenue":    95_000_000.0,
			"net_income":        4_750_000.0,
			"assets_total":      78_000_000.0,
			"liabilities_total": 42_000_000.0,
		},
		"amount_value":       2_000_000.0,
		"repayment_duration": 24,
		"purpose":            "working_capital",
	}
	if mutate != nil {
		mutate(m)
	}
	raw, err := json.Marshal(m)
	require.NoError(t, err)
	return raw
}

func TestParseIntent(t *testing.T) {
	t.Run("accepts a complete intent", func(t *testing.T) {
		intent, err := ParseIntent(validIntentJSON(t, nil))
		require.NoError(t, err)
		assert.Equal(t, "intent-001", intent.IntentID)
		assert.Equal(t, "Acme Corp", intent.SenderName)
		assert.InDelta(t, 95_000_000, intent.Financials.AnnualRevenue, 0.01)
		assert.False(t, intent.VersionMismatch())
	})

	t.Run("defaults protocol version when absent", func(t *testing.T) {
		intent, err := ParseIntent(validIntentJSON(t, func(m map[string]any) {
			delete(m, "protocol_version")
		}))
		require.NoError(t, err)
		assert.Equal(t, ProtocolVersion, intent.ProtocolVersion)
	})

	t.Run("flags a foreign protocol version without rejecting", func(t *testing.T) {
		intent, err := ParseIntent(validIntentJSON(t, func(m map[string]any) {
			m["protocol_version"] = "WFAP-2.0"
		}))
		require.NoError(t, err)
		assert.True(t, intent.VersionMismatch())
	})

	t.Run("rejects non-JSON input", func(t *testing.T) {
		_, err := ParseIntent([]byte("{not json"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformedInput))
	})

	t.Run("collects every validation problem", func(t *testing.T) {
		_, err := ParseIntent(validIntentJSON(t, func(m map[string]any) {
			delete(m, "intent_id")
			m["amount_value"] = -5.0
			m["sender_contact_email"] = "not-an-email"
		}))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Contains(t, err.Error(), "intent_id is required")
		assert.Contains(t, err.Error(), "amount_value must be positive")
		assert.Contains(t, err.Error(), "sender_contact_email is not a valid email")
	})

	t.Run("rejects zero duration", func(t *testing.T) {
		_, err := ParseIntent(validIntentJSON(t, func(m map[string]any) {
			m["repayment_duration"] = 0
		}))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "repayment_duration must be positive")
	})

	t.Run("rejects a malformed reporting URL", func(t *testing.T) {
		_, err := ParseIntent(validIntentJSON(t, func(m map[string]any) {
			m["esg_reporting_url"] = "::::not a url"
		}))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestToMap(t *testing.T) {
	intent, err := ParseIntent(validIntentJSON(t, nil))
	require.NoError(t, err)

	m, err := ToMap(intent)
	require.NoError(t, err)
	assert.Equal(t, "intent-001", m["intent_id"])
	fin, ok := m["financials"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 4_750_000, fin["net_income"].(float64), 0.01)

	// Empty optional fields stay off the wire.
	_, present := m["esg_reporting_url"]
	assert.False(t, present)
}
