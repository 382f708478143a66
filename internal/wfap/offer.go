package wfap

import (
	"encoding/json"

	dErrors "wfap/pkg/domain-errors"
)

// Offer statuses on the wire.
const (
	StatusOfferExtended          = "OFFER_EXTENDED"
	StatusOfferWithModifications = "OFFER_EXTENDED_WITH_MODIFICATIONS"
	StatusRejected               = "REJECTED"
	StatusError                  = "ERROR"
)

// OfferTerms carries the monetary terms of an extended credit line.
type OfferTerms struct {
	ApprovedAmount  float64 `json:"approved_amount"`
	InterestRate    float64 `json:"interest_rate"`
	RepaymentPeriod int     `json:"repayment_period"`
	OriginationFee  float64 `json:"origination_fee"`
	DrawingPeriod   int     `json:"drawing_period,omitempty"`
}

// ESGImpact summarizes the sustainability assessment attached to an offer.
type ESGImpact struct {
	CarbonFootprint    float64 `json:"carbon_footprint"`
	CarbonAdjustedRate float64 `json:"carbon_adjusted_rate"`
	ESGScore           float64 `json:"esg_score"`
	ESGSummary         string  `json:"esg_summary"`
}

// ComplianceCheck is one regulatory screening line item.
type ComplianceCheck struct {
	CheckType string `json:"check_type"`
	Status    string `json:"status"`
	Details   string `json:"details,omitempty"`
}

// RiskAssessment names the overall risk tier and contributing factors.
type RiskAssessment struct {
	RiskLevel   string   `json:"risk_level"`
	RiskFactors []string `json:"risk_factors,omitempty"`
}

// RegulatoryCompliance groups the compliance verdicts for an offer.
type RegulatoryCompliance struct {
	ComplianceChecks []ComplianceCheck `json:"compliance_checks"`
	RiskAssessment   RiskAssessment    `json:"risk_assessment"`
}

// RateCalculation shows how the final rate was assembled, for auditability.
type RateCalculation struct {
	BaseRate    float64 `json:"base_rate"`
	RiskPremium float64 `json:"risk_premium"`
	ESGDiscount float64 `json:"esg_discount"`
	FinalRate   float64 `json:"final_rate"`
}

// PaymentSchedule is the amortization summary for the offered terms.
type PaymentSchedule struct {
	MonthlyPayment float64 `json:"monthly_payment"`
	TotalInterest  float64 `json:"total_interest"`
	TotalRepayment float64 `json:"total_repayment"`
}

// Offer is a bank's reply to an Intent.
type Offer struct {
	OfferID         string `json:"offer_id"`
	IntentID        string `json:"intent_id"`
	CreatedAt       string `json:"created_at"`
	ProtocolVersion string `json:"protocol_version"`
	BankID          string `json:"bank_id"`
	BankName        string `json:"bank_name,omitempty"`
	Status          string `json:"status"`

	AmountApproved          float64 `json:"amount_approved"`
	Currency                string  `json:"currency,omitempty"`
	InterestRateAnnual      float64 `json:"interest_rate_annual"`
	RepaymentDurationMonths int     `json:"repayment_duration_months"`
	RepaymentSchedule       string  `json:"repayment_schedule,omitempty"`
	ESGImpactSummary        string  `json:"esg_impact_summary,omitempty"`

	OfferTerms           *OfferTerms           `json:"offer_terms,omitempty"`
	ESGImpact            *ESGImpact            `json:"esg_impact,omitempty"`
	RegulatoryCompliance *RegulatoryCompliance `json:"regulatory_compliance,omitempty"`
	RateCalculation      *RateCalculation      `json:"rate_calculation,omitempty"`
	PaymentSchedule      *PaymentSchedule      `json:"payment_schedule,omitempty"`

	RejectionReasons []string `json:"rejection_reasons,omitempty"`
	Modifications    []string `json:"modifications,omitempty"`

	// IntentSignatureVerified records whether the bank could verify the
	// consumer's signature on the originating intent.
	IntentSignatureVerified *bool `json:"intent_signature_verified,omitempty"`
}

// ParseOffer decodes an offer payload arriving from a peer bank. Offers are
// validated loosely: a peer speaking a newer protocol revision may include
// fields we do not know, and an unknown status is the scorer's problem.
func ParseOffer(raw []byte) (*Offer, error) {
	var offer Offer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeParse, "offer is not valid JSON", err)
	}
	if offer.Status == "" {
		return nil, dErrors.New(dErrors.CodeParse, "offer has no status")
	}
	return &offer, nil
}

// Extended reports whether the offer actually puts money on the table.
func (o *Offer) Extended() bool {
	return o.Status == StatusOfferExtended || o.Status == StatusOfferWithModifications
}
