// Package wfap defines the wire types for the WFAP credit solicitation
// protocol: the Intent a consumer sends and the Offer a bank returns. The
// flat field names are part of the wire contract and must not change.
package wfap

import (
	"encoding/json"
	"strings"

	"github.com/asaskevich/govalidator"

	dErrors "wfap/pkg/domain-errors"
)

// ProtocolVersion is the wire schema revision this implementation speaks.
// Replies carrying other versions are surfaced to the caller, never rejected.
const ProtocolVersion = "WFAP-1.0"

// Financials is the consumer's financial snapshot.
type Financials struct {
	AnnualRevenue    float64 `json:"annual_revenue"`
	NetIncome        float64 `json:"net_income"`
	AssetsTotal      float64 `json:"assets_total"`
	LiabilitiesTotal float64 `json:"liabilities_total"`
}

// ESGRequirements expresses optional ESG expectations on the request side.
type ESGRequirements struct {
	ESGWeight                float64  `json:"esg_weight,omitempty"`
	CarbonFootprintThreshold *float64 `json:"carbon_footprint_threshold,omitempty"`
	SocialImpactFocus        []string `json:"social_impact_focus,omitempty"`
}

// Intent is a credit request. Immutable once signed; consumed exactly once
// by a bank's underwriting engine per counterparty.
type Intent struct {
	IntentID           string `json:"intent_id"`
	CreatedAt          string `json:"created_at"`
	ProtocolVersion    string `json:"protocol_version"`
	SenderID           string `json:"sender_id"`
	SenderName         string `json:"sender_name"`
	SenderContactEmail string `json:"sender_contact_email,omitempty"`

	Jurisdiction       string     `json:"jurisdiction"`
	IndustryCode       string     `json:"industry_code"`
	TaxID              string     `json:"tax_id,omitempty"`
	RegistrationNumber string     `json:"company_registration_number,omitempty"`
	Financials         Financials `json:"financials"`
	CreditReportRef    string     `json:"credit_report_ref,omitempty"`

	ESGCertifications string  `json:"esg_certifications,omitempty"`
	ESGReportingURL   string  `json:"esg_reporting_url,omitempty"`
	CarbonEmissions   float64 `json:"carbon_emissions,omitempty"`

	AmountValue           float64 `json:"amount_value"`
	RepaymentDuration     int     `json:"repayment_duration"`
	Purpose               string  `json:"purpose"`
	PreferredInterestRate float64 `json:"preferred_interest_rate,omitempty"`
	RepaymentPreference   string  `json:"repayment_preference,omitempty"`
	DrawdownType          string  `json:"drawdown_type,omitempty"`
	CollateralDescription string  `json:"collateral_description,omitempty"`

	ESGRequirements    *ESGRequirements `json:"esg_requirements,omitempty"`
	DataSharingConsent bool             `json:"data_sharing_consent,omitempty"`

	// YearsInBusiness keeps the historical wire spelling for compatibility.
	YearsInBusiness int `json:"yearsinbusiness,omitempty"`
}

// ParseIntent decodes and validates an intent payload. Validation collects
// every problem up front instead of failing at first field access.
func ParseIntent(raw []byte) (*Intent, error) {
	var intent Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeMalformedInput, "intent is not valid JSON", err)
	}
	if intent.ProtocolVersion == "" {
		intent.ProtocolVersion = ProtocolVersion
	}
	if err := intent.Validate(); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Validate enforces required fields and basic shape constraints.
func (i *Intent) Validate() error {
	var problems []string

	if i.IntentID == "" {
		problems = append(problems, "intent_id is required")
	}
	if i.SenderID == "" {
		problems = append(problems, "sender_id is required")
	}
	if i.SenderName == "" {
		problems = append(problems, "sender_name is required")
	}
	if i.Jurisdiction == "" {
		problems = append(problems, "jurisdiction is required")
	}
	if i.IndustryCode == "" {
		problems = append(problems, "industry_code is required")
	}
	if i.AmountValue <= 0 {
		problems = append(problems, "amount_value must be positive")
	}
	if i.RepaymentDuration <= 0 {
		problems = append(problems, "repayment_duration must be positive")
	}
	if i.Purpose == "" {
		problems = append(problems, "purpose is required")
	}
	if i.SenderContactEmail != "" && !govalidator.IsEmail(i.SenderContactEmail) {
		problems = append(problems, "sender_contact_email is not a valid email")
	}
	if i.ESGReportingURL != "" && !govalidator.IsURL(i.ESGReportingURL) {
		problems = append(problems, "esg_reporting_url is not a valid URL")
	}

	if len(problems) > 0 {
		return dErrors.New(dErrors.CodeValidation, strings.Join(problems, "; "))
	}
	return nil
}

// VersionMismatch reports whether the intent carries a protocol version other
// than the one this implementation speaks.
func (i *Intent) VersionMismatch() bool {
	return i.ProtocolVersion != ProtocolVersion
}

// ToMap converts any wire type into the generic payload form the signer
// operates on, going through JSON so field names match the wire exactly.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "payload marshal failed", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "payload remarshal failed", err)
	}
	return m, nil
}
