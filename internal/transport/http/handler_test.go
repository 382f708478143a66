package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfap/internal/audit"
	"wfap/internal/signing"
	"wfap/internal/underwriting"
	"wfap/internal/wfap"
	"wfap/pkg/platform/secrets"
)

const (
	testBankName = "Wells Credit"
	testSecret   = "shared-peer-secret"
)

// syncRecorder writes audit events straight to the store so tests can assert
// on them without waiting for a worker.
type syncRecorder struct {
	store *audit.MemoryStore
}

func (r syncRecorder) Record(kind audit.Kind, intentID, sender, requestID string, payload any) {
	raw, _ := json.Marshal(payload)
	_ = r.store.Insert(context.Background(), audit.Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		IntentID:   intentID,
		Sender:     sender,
		RequestID:  requestID,
		Payload:    raw,
		RecordedAt: time.Now(),
	})
}

type bankFixture struct {
	server   *httptest.Server
	bank     *signing.Signer
	consumer *signing.Signer
	store    *audit.MemoryStore
	admin    string
}

func newBankFixture(t *testing.T) *bankFixture {
	t.Helper()

	bank, err := signing.New(t.TempDir(), "WF-BANK-AGENT-001")
	require.NoError(t, err)
	consumer, err := signing.New(t.TempDir(), "host_agent")
	require.NoError(t, err)

	store := audit.NewMemoryStore()
	engine := underwriting.NewEngine(underwriting.DefaultPolicies(), "WF-BANK-AGENT-001", testBankName)
	handler := New(bank, engine, syncRecorder{store: store}, store, testLogger())

	adminToken := "operator-token"
	adminHash, err := secrets.Hash(adminToken)
	require.NoError(t, err)

	router := NewRouter(handler, RouterConfig{
		PeerSecret:     []byte(testSecret),
		Audience:       testBankName,
		AdminTokenHash: adminHash,
	}, testLogger())

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &bankFixture{server: server, bank: bank, consumer: consumer, store: store, admin: adminToken}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bearer(t *testing.T, issuer string) string {
	t.Helper()
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": issuer,
		"aud": testBankName,
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func intentMap() map[string]any {
	return map[string]any{
		"intent_id":        "intent-http-1",
		"created_at":       "2026-08-26T10:00:00Z",
		"protocol_version": wfap.ProtocolVersion,
		"sender_id":        "host_agent",
		"sender_name":      "Pacific Fixtures LLC",
		"jurisdiction":     "US",
		"industry_code":    "444190",
		"financials": map[string]any{
			"annual_revenue":    95_000_000,
			"net_income":        4_750_000,
			"assets_total":      78_000_000,
			"liabilities_total": 42_000_000,
		},
		"amount_value":       2_000_000,
		"repayment_duration": 24,
		"purpose":            "working_capital",
		"yearsinbusiness":    12,
	}
}

func (f *bankFixture) post(t *testing.T, path string, payload map[string]any, token string) *http.Response {
	t.Helper()
	signed, err := f.consumer.Sign(payload)
	require.NoError(t, err)
	msg, err := wfap.NewMessage("ctx-http-1", signed)
	require.NoError(t, err)
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeOffer(t *testing.T, f *bankFixture, resp *http.Response) (*wfap.Message, *wfap.Offer) {
	t.Helper()
	defer resp.Body.Close()
	var msg wfap.Message
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))

	verification, err := f.consumer.Verify(msg.Payload)
	require.NoError(t, err)
	require.True(t, verification.Valid, "bank reply must verify: %s", verification.Diagnostic)
	assert.Equal(t, "WF-BANK-AGENT-001", verification.Signer)

	raw, err := json.Marshal(verification.Payload)
	require.NoError(t, err)
	offer, err := wfap.ParseOffer(raw)
	require.NoError(t, err)
	return &msg, offer
}

func TestHandleIntentExtendsSignedOffer(t *testing.T) {
	f := newBankFixture(t)

	resp := f.post(t, "/wfap/intent", intentMap(), bearer(t, "host_agent"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	msg, offer := decodeOffer(t, f, resp)
	assert.Equal(t, "ctx-http-1", msg.ContextID)
	assert.Equal(t, wfap.StatusOfferExtended, offer.Status)
	assert.Equal(t, "intent-http-1", offer.IntentID)
	assert.InDelta(t, 12.0, offer.InterestRateAnnual, 1e-9)
	require.NotNil(t, offer.IntentSignatureVerified)
	assert.True(t, *offer.IntentSignatureVerified)

	events, err := f.store.ListByIntent(context.Background(), "intent-http-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.KindIntentReceived, events[0].Kind)
	assert.Equal(t, audit.KindOfferExtended, events[1].Kind)
}

func TestHandleIntentTamperedSignatureStillAnswers(t *testing.T) {
	f := newBankFixture(t)

	signed, err := f.consumer.Sign(intentMap())
	require.NoError(t, err)
	signed["amount_value"] = 9_000_000 // tamper after signing

	msg, err := wfap.NewMessage("ctx-tampered", signed)
	require.NoError(t, err)
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, f.server.URL+"/wfap/intent", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+bearer(t, "host_agent"))
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, offer := decodeOffer(t, f, resp)
	require.NotNil(t, offer.IntentSignatureVerified)
	assert.False(t, *offer.IntentSignatureVerified)

	events, err := f.store.ListByIntent(context.Background(), "intent-http-1")
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, audit.KindIntentUnverified, events[0].Kind)
}

func TestHandleIntentValidationFailure(t *testing.T) {
	f := newBankFixture(t)

	payload := intentMap()
	delete(payload, "sender_name")
	payload["amount_value"] = 0

	resp := f.post(t, "/wfap/intent", payload, bearer(t, "host_agent"))
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var envelope map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
	assert.Equal(t, "validation_error", envelope["error"])
}

func TestHandleIntentRejectsMissingBearer(t *testing.T) {
	f := newBankFixture(t)

	resp := f.post(t, "/wfap/intent", intentMap(), "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleIntentRejectsWrongAudience(t *testing.T) {
	f := newBankFixture(t)

	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "host_agent",
		"aud": "some other bank",
		"iat": now.Unix(),
		"exp": now.Add(time.Minute).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	resp := f.post(t, "/wfap/intent", intentMap(), token)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleNegotiateReprices(t *testing.T) {
	f := newBankFixture(t)

	counter := map[string]any{
		"intent_id":                 "intent-http-1",
		"offer_id":                  "offer-round-1",
		"negotiation_score":         10,
		"current_rate":              9.0,
		"amount_approved":           2_000_000,
		"repayment_duration_months": 24,
	}
	resp := f.post(t, "/wfap/negotiate", counter, bearer(t, "host_agent"))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_, offer := decodeOffer(t, f, resp)
	assert.InDelta(t, 8.60, offer.InterestRateAnnual, 1e-9)
	assert.NotEqual(t, "offer-round-1", offer.OfferID, "counter offers are append-only")
	assert.Equal(t, "intent-http-1", offer.IntentID)
	assert.Equal(t, 24, offer.RepaymentDurationMonths)

	events, err := f.store.ListByIntent(context.Background(), "intent-http-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.KindNegotiationRound, events[0].Kind)
}

func TestHandleNegotiateValidatesScore(t *testing.T) {
	f := newBankFixture(t)

	counter := map[string]any{
		"intent_id":                 "intent-http-1",
		"offer_id":                  "offer-round-1",
		"negotiation_score":         42,
		"current_rate":              9.0,
		"amount_approved":           2_000_000,
		"repayment_duration_months": 24,
	}
	resp := f.post(t, "/wfap/negotiate", counter, bearer(t, "host_agent"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAuditTrailEndpoint(t *testing.T) {
	f := newBankFixture(t)

	resp := f.post(t, "/wfap/intent", intentMap(), bearer(t, "host_agent"))
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/wfap/audit/intent-http-1", nil)
	require.NoError(t, err)
	noAuth, err := f.server.Client().Do(req)
	require.NoError(t, err)
	noAuth.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, noAuth.StatusCode)

	req, err = http.NewRequest(http.MethodGet, f.server.URL+"/wfap/audit/intent-http-1", nil)
	require.NoError(t, err)
	req.Header.Set("X-Admin-Token", f.admin)
	authed, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	require.Equal(t, http.StatusOK, authed.StatusCode)

	var trail struct {
		IntentID string        `json:"intent_id"`
		Events   []audit.Event `json:"events"`
	}
	require.NoError(t, json.NewDecoder(authed.Body).Decode(&trail))
	assert.Equal(t, "intent-http-1", trail.IntentID)
	assert.Len(t, trail.Events, 2)
}

func TestHealthz(t *testing.T) {
	f := newBankFixture(t)

	resp, err := f.server.Client().Get(f.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
