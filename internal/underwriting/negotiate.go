package underwriting

import (
	"math"
	"time"

	"github.com/google/uuid"

	"wfap/internal/wfap"
)

// Negotiate reprices an outstanding offer in response to a counterparty
// counter. Each point of negotiation score buys 0.04 percentage points off
// the current annual rate, never dropping below the policy floor.
func Negotiate(p Policies, negotiationScore, currentRate float64) float64 {
	discount := negotiationScore * 0.04
	return round2(max(p.NegotiationFloorRate, currentRate-discount))
}

// CounterOffer builds the reply for one negotiation round. Negotiations are
// append-only: the repriced terms go out under a fresh offer id against the
// same intent, with the payment schedule recomputed at the new rate.
func (e *Engine) CounterOffer(intentID string, amount float64, months int, negotiationScore, currentRate float64) *wfap.Offer {
	rate := e.Negotiate(negotiationScore, currentRate)
	schedule := amortize(amount, rate, months)

	return &wfap.Offer{
		OfferID:         uuid.NewString(),
		IntentID:        intentID,
		CreatedAt:       e.clock().UTC().Format(time.RFC3339),
		ProtocolVersion: wfap.ProtocolVersion,
		BankID:          e.bankID,
		BankName:        e.bankName,
		Status:          wfap.StatusOfferExtended,

		AmountApproved:          math.Trunc(amount),
		Currency:                "USD",
		InterestRateAnnual:      rate,
		RepaymentDurationMonths: months,
		RepaymentSchedule:       "amortizing",

		OfferTerms: &wfap.OfferTerms{
			ApprovedAmount:  round2(amount),
			InterestRate:    rate,
			RepaymentPeriod: months,
			OriginationFee:  round2(amount * e.policies.OriginationFeeRate),
		},
		PaymentSchedule: &schedule,
	}
}
