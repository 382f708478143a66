// Package solicit fans a signed credit intent out to a set of peer banks
// concurrently and collects one outcome per peer, bounded by per-peer and
// global timeouts. No peer failure ever aborts a sibling exchange.
package solicit

import (
	"time"

	"wfap/internal/wfap"
)

// OutcomeKind classifies what came back from one peer.
type OutcomeKind string

const (
	// OutcomeVerified is an offer whose signature checked out.
	OutcomeVerified OutcomeKind = "verified"
	// OutcomeUnverified is a parseable offer with an absent or invalid
	// signature; usable at the caller's discretion.
	OutcomeUnverified OutcomeKind = "unverified"
	// OutcomeTimeout means the peer missed its per-peer deadline.
	OutcomeTimeout OutcomeKind = "timeout"
	// OutcomeGlobalTimeout marks peers still pending when the whole
	// solicitation ran out of time.
	OutcomeGlobalTimeout OutcomeKind = "global_timeout"
	// OutcomeCommunicationError is a transport-level failure.
	OutcomeCommunicationError OutcomeKind = "communication_error"
	// OutcomeAgentException means the peer answered with an ERROR payload.
	OutcomeAgentException OutcomeKind = "agent_exception"
	// OutcomeParseError means the reply could not be decoded at all.
	OutcomeParseError OutcomeKind = "parse_error"
)

// Solicitation states.
const (
	StateComplete      = "COMPLETE"
	StatePartial       = "PARTIAL"
	StateGlobalTimeout = "GLOBAL_TIMEOUT"
)

// PeerOutcome is the recorded result of one peer exchange.
type PeerOutcome struct {
	Peer       string
	Kind       OutcomeKind
	Offer      *wfap.Offer
	Detail     string
	RecordedAt time.Time
	Elapsed    time.Duration
}

// Usable reports whether the outcome carries an offer the caller can act
// on, verified or not.
func (o PeerOutcome) Usable() bool {
	return o.Offer != nil && (o.Kind == OutcomeVerified || o.Kind == OutcomeUnverified)
}

// Result is the complete solicitation outcome: exactly one entry per
// dispatched peer, in sorted peer-name order.
type Result struct {
	RequestID string
	IntentID  string
	ContextID map[string]string
	State     string
	Outcomes  []PeerOutcome
}

// VerifiedOffers returns the offers whose signatures checked out, in peer
// order.
func (r *Result) VerifiedOffers() []*wfap.Offer {
	var offers []*wfap.Offer
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeVerified && o.Offer != nil {
			offers = append(offers, o.Offer)
		}
	}
	return offers
}

// UsableOffers returns verified and unverified offers alike, in peer order.
func (r *Result) UsableOffers() []*wfap.Offer {
	var offers []*wfap.Offer
	for _, o := range r.Outcomes {
		if o.Usable() {
			offers = append(offers, o.Offer)
		}
	}
	return offers
}
