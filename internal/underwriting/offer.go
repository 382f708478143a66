package underwriting

import (
	"fmt"
	"math"

	"wfap/internal/wfap"
)

// finalRate assembles the annual rate from its three components, rounded to
// two decimals.
func finalRate(p Policies, premium, discount float64) float64 {
	return round2(p.BaseInterestRate + premium - discount)
}

// amortize computes the level monthly payment for an annual rate in percent.
// A zero rate degenerates to straight-line principal repayment.
func amortize(principal float64, annualRatePct float64, months int) wfap.PaymentSchedule {
	if months <= 0 || principal <= 0 {
		return wfap.PaymentSchedule{}
	}

	monthlyRate := annualRatePct / 100 / 12
	var payment float64
	if monthlyRate > 0 {
		growth := math.Pow(1+monthlyRate, float64(months))
		payment = principal * monthlyRate * growth / (growth - 1)
	} else {
		payment = principal / float64(months)
	}

	totalInterest := payment*float64(months) - principal
	return wfap.PaymentSchedule{
		MonthlyPayment: round2(payment),
		TotalInterest:  round2(totalInterest),
		TotalRepayment: round2(principal + totalInterest),
	}
}

// complianceReport folds the screening results into the wire compliance
// structure attached to every offer.
func complianceReport(screening Screening, risk RiskProfile) *wfap.RegulatoryCompliance {
	checks := make([]wfap.ComplianceCheck, 0, len(screening.Results))
	var factors []string
	for _, r := range screening.Results {
		checks = append(checks, wfap.ComplianceCheck{
			CheckType: r.Check,
			Status:    r.Status,
			Details:   r.Reason,
		})
		if r.Status == CheckFail {
			factors = append(factors, r.Reason)
		}
	}
	return &wfap.RegulatoryCompliance{
		ComplianceChecks: checks,
		RiskAssessment: wfap.RiskAssessment{
			RiskLevel:   risk.Category,
			RiskFactors: factors,
		},
	}
}

// buildOffer assembles the wire offer from the pipeline outputs. The status
// is OFFER_EXTENDED only when both amount and duration were granted exactly
// as requested; any bank-side modification downgrades it.
func buildOffer(p Policies, intent *wfap.Intent, d *Decision, offerID, createdAt, bankID, bankName string) *wfap.Offer {
	rate := finalRate(p, d.Risk.Premium, d.ESG.Discount)
	schedule := amortize(d.Amount.Approved, rate, d.Duration.Approved)

	status := wfap.StatusOfferExtended
	var modifications []string
	if d.Amount.Status != AmountFullyApproved {
		status = wfap.StatusOfferWithModifications
		modifications = append(modifications, d.Amount.Reason)
	}
	if d.Duration.Status != DurationFullyApproved {
		status = wfap.StatusOfferWithModifications
		modifications = append(modifications, d.Duration.Reason)
	}

	return &wfap.Offer{
		OfferID:         offerID,
		IntentID:        intent.IntentID,
		CreatedAt:       createdAt,
		ProtocolVersion: wfap.ProtocolVersion,
		BankID:          bankID,
		BankName:        bankName,
		Status:          status,

		// The top-level wire amount is whole dollars; offer_terms keeps cents.
		AmountApproved:          math.Trunc(d.Amount.Approved),
		Currency:                "USD",
		InterestRateAnnual:      rate,
		RepaymentDurationMonths: d.Duration.Approved,
		RepaymentSchedule:       "amortizing",
		ESGImpactSummary:        d.ESG.Summary(),

		OfferTerms: &wfap.OfferTerms{
			ApprovedAmount:  round2(d.Amount.Approved),
			InterestRate:    rate,
			RepaymentPeriod: d.Duration.Approved,
			OriginationFee:  round2(d.Amount.Approved * p.OriginationFeeRate),
		},
		ESGImpact: &wfap.ESGImpact{
			CarbonFootprint:    intent.CarbonEmissions,
			CarbonAdjustedRate: rate,
			ESGScore:           d.ESG.FinalScore,
			ESGSummary:         d.ESG.Category,
		},
		RegulatoryCompliance: complianceReport(d.Screening, d.Risk),
		RateCalculation: &wfap.RateCalculation{
			BaseRate:    p.BaseInterestRate,
			RiskPremium: d.Risk.Premium,
			ESGDiscount: d.ESG.Discount,
			FinalRate:   rate,
		},
		PaymentSchedule: &schedule,
		Modifications:   modifications,
	}
}

// buildRejection assembles the wire offer for a failed screening. Rejections
// carry the same compliance report so the applicant can see exactly which
// checks failed.
func buildRejection(intent *wfap.Intent, d *Decision, offerID, createdAt, bankID, bankName string) *wfap.Offer {
	reasons := d.Screening.FailedChecks()
	return &wfap.Offer{
		OfferID:         offerID,
		IntentID:        intent.IntentID,
		CreatedAt:       createdAt,
		ProtocolVersion: wfap.ProtocolVersion,
		BankID:          bankID,
		BankName:        bankName,
		Status:          wfap.StatusRejected,

		RejectionReasons:     reasons,
		RegulatoryCompliance: complianceReport(d.Screening, d.Risk),
		ESGImpactSummary:     fmt.Sprintf("Not assessed: %s", d.Screening.Summary),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
