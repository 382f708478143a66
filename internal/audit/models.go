// Package audit records the decision trail of a bank agent: every intent
// received, offer extended or rejected, and negotiation round, persisted to
// a store and optionally streamed to Kafka for downstream consumers.
package audit

import (
	"encoding/json"
	"time"
)

// Kind classifies audit events.
type Kind string

const (
	KindIntentReceived    Kind = "intent_received"
	KindIntentUnverified  Kind = "intent_unverified"
	KindOfferExtended     Kind = "offer_extended"
	KindOfferRejected     Kind = "offer_rejected"
	KindUnderwritingError Kind = "underwriting_error"
	KindNegotiationRound  Kind = "negotiation_round"
)

// Event is one immutable audit record. Events are append-only; nothing in
// the system updates or deletes them.
type Event struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	IntentID   string          `json:"intent_id"`
	Sender     string          `json:"sender,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}
