package underwriting

import "fmt"

// Amount approval statuses.
const (
	AmountFullyApproved     = "FULLY_APPROVED"
	AmountPartiallyApproved = "PARTIALLY_APPROVED"
)

// AmountDecision is the outcome of the dynamic lending ratio model.
type AmountDecision struct {
	Requested      float64 `json:"requested_amount"`
	Approved       float64 `json:"final_approved_amount"`
	Status         string  `json:"approval_status"`
	Reason         string  `json:"approval_reason"`
	BaseRatio      float64 `json:"base_lending_ratio"`
	RiskAdjustment float64 `json:"financial_risk_adjustment"`
	ESGAdjustment  float64 `json:"esg_opportunity_adjustment"`
	AdjustedRatio  float64 `json:"adjusted_lending_ratio"`
	CalculatedMax  float64 `json:"calculated_maximum"`
}

// ApproveAmount sizes the credit line: the base lending ratio of annual
// revenue, adjusted up or down by the risk and ESG tiers, clamped to the
// bank's absolute limits. A request within the resulting capacity is granted
// in full; anything above is cut to the capacity.
func ApproveAmount(p Policies, requested, annualRevenue, weightedRisk, esgScore float64) AmountDecision {
	riskAdj := riskLendingAdjustment(weightedRisk)
	esgAdj := esgLendingAdjustment(esgScore)
	ratio := p.BaseLendingRatio + riskAdj + esgAdj

	maxApproved := annualRevenue * ratio
	maxApproved = min(maxApproved, p.MaxCreditLimit)
	maxApproved = max(maxApproved, p.MinCreditLimit)

	d := AmountDecision{
		Requested:      requested,
		BaseRatio:      p.BaseLendingRatio,
		RiskAdjustment: riskAdj,
		ESGAdjustment:  esgAdj,
		AdjustedRatio:  ratio,
		CalculatedMax:  maxApproved,
	}

	if requested <= maxApproved {
		d.Approved = requested
		d.Status = AmountFullyApproved
		d.Reason = "Requested amount is within calculated risk appetite"
	} else {
		d.Approved = maxApproved
		d.Status = AmountPartiallyApproved
		d.Reason = fmt.Sprintf("Requested amount ($%.2f) exceeds calculated maximum ($%.2f)", requested, maxApproved)
	}
	return d
}
