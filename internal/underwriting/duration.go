package underwriting

import (
	"fmt"
	"strings"
)

// Duration approval statuses.
const (
	DurationFullyApproved = "FULLY_APPROVED"
	DurationReduced       = "DURATION_REDUCED"
	DurationExtended      = "DURATION_EXTENDED"
)

// DurationDecision is the approved repayment term and how it was derived.
type DurationDecision struct {
	Preferred         int     `json:"preferred_duration_months"`
	Approved          int     `json:"final_approved_duration_months"`
	Status            string  `json:"approval_status"`
	Reason            string  `json:"approval_reason"`
	NormalizedPurpose string  `json:"normalized_purpose"`
	PolicyMin         int     `json:"policy_min_duration"`
	PolicyMax         int     `json:"policy_max_duration"`
	RiskFactor        float64 `json:"risk_adjustment_factor"`
	BankMax           int     `json:"bank_final_max"`
}

type purposeAlias struct {
	alias string
	key   string
}

// purposeAliases maps free-form purpose phrasings to policy keys. Exact
// matches win; substring matching is the fallback for phrasings like
// "equipment financing for new line". The slice order is the fallback's
// tie-break, so an input matching several aliases always resolves to the
// same key.
var purposeAliases = []purposeAlias{
	{"working capital", "working_capital"},
	{"working_capital", "working_capital"},
	{"cash flow", "cash_flow_management"},
	{"cash_flow_management", "cash_flow_management"},
	{"inventory", "inventory_financing"},
	{"inventory_financing", "inventory_financing"},
	{"equipment", "equipment_purchase"},
	{"equipment_purchase", "equipment_purchase"},
	{"equipment financing", "equipment_purchase"},
	{"expansion", "business_expansion"},
	{"business_expansion", "business_expansion"},
	{"business expansion", "business_expansion"},
	{"seasonal", "seasonal_financing"},
	{"seasonal_financing", "seasonal_financing"},
	{"bridge", "bridge_financing"},
	{"bridge_financing", "bridge_financing"},
	{"acquisition", "acquisition_financing"},
	{"acquisition_financing", "acquisition_financing"},
	{"refinancing", "refinancing"},
	{"refinance", "refinancing"},
	{"debt consolidation", "debt_consolidation"},
	{"debt_consolidation", "debt_consolidation"},
	{"consolidation", "debt_consolidation"},
	{"general", "general_business_purposes"},
	{"general_business_purposes", "general_business_purposes"},
	{"general business purposes", "general_business_purposes"},
	{"business purposes", "general_business_purposes"},
}

// NormalizePurpose maps a free-form loan purpose to a policy key, falling
// back to general business purposes when nothing matches.
func NormalizePurpose(purpose string) string {
	normalized := strings.ToLower(strings.TrimSpace(purpose))
	if normalized == "" {
		return "general_business_purposes"
	}
	for _, m := range purposeAliases {
		if m.alias == normalized {
			return m.key
		}
	}
	for _, m := range purposeAliases {
		if strings.Contains(normalized, m.alias) || strings.Contains(m.alias, normalized) {
			return m.key
		}
	}
	return "general_business_purposes"
}

// ApproveDuration bounds the requested term by the purpose's policy window,
// with the maximum further capped by risk tier. Terms below the policy
// minimum are extended up to it, terms above the cap reduced down to it.
func ApproveDuration(p Policies, preferred int, purpose string, weightedRisk float64) DurationDecision {
	normalized := NormalizePurpose(purpose)
	limits, ok := p.PurposeDurationLimits[normalized]
	if !ok {
		limits = p.DefaultDurationLimits
	}

	factor := riskDurationFactor(weightedRisk)
	riskAdjustedMax := int(float64(limits.Max) * factor)
	bankMax := min(limits.Max, riskAdjustedMax)
	bankMax = max(bankMax, limits.Min)

	d := DurationDecision{
		Preferred:         preferred,
		NormalizedPurpose: normalized,
		PolicyMin:         limits.Min,
		PolicyMax:         limits.Max,
		RiskFactor:        factor,
		BankMax:           bankMax,
	}

	switch {
	case preferred >= limits.Min && preferred <= bankMax:
		d.Approved = preferred
		d.Status = DurationFullyApproved
		d.Reason = "Requested duration is within policy and risk limits"
	case preferred > bankMax:
		d.Approved = bankMax
		d.Status = DurationReduced
		d.Reason = fmt.Sprintf("Requested duration (%d months) exceeds risk-adjusted maximum (%d months)", preferred, bankMax)
	default:
		d.Approved = limits.Min
		d.Status = DurationExtended
		d.Reason = fmt.Sprintf("Requested duration (%d months) is below policy minimum (%d months)", preferred, limits.Min)
	}
	return d
}
