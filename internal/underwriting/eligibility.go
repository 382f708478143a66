package underwriting

import (
	"fmt"
	"strings"

	"wfap/internal/wfap"
)

// Check statuses.
const (
	CheckPass = "PASS"
	CheckFail = "FAIL"
)

// Named screening checks. The check names appear verbatim in rejection
// reasons on the wire, so they are part of the contract.
const (
	CheckIndustry     = "Industry Eligibility"
	CheckAmount       = "Loan Amount Limits"
	CheckJurisdiction = "Jurisdiction Eligibility"
	CheckRevenue      = "Minimum Revenue Requirement"
	CheckDebtRatio    = "Debt-to-Asset Ratio"
	CheckHealth       = "Basic Financial Health"
)

// CheckResult is the verdict of a single screening rule.
type CheckResult struct {
	Check        string   `json:"check"`
	Status       string   `json:"status"`
	Reason       string   `json:"reason"`
	Issues       []string `json:"issues,omitempty"`
	ManualReview bool     `json:"manual_review_required,omitempty"`
}

// Screening is the combined initial risk assessment. The overall status is
// FAIL when any individual check fails; every check always runs so the
// applicant sees the full picture.
type Screening struct {
	OverallStatus string        `json:"overall_status"`
	Summary       string        `json:"assessment_summary"`
	Results       []CheckResult `json:"detailed_results"`
}

// Passed reports whether all screening checks passed.
func (s Screening) Passed() bool { return s.OverallStatus == CheckPass }

// FailedChecks lists the names of the checks that failed.
func (s Screening) FailedChecks() []string {
	var failed []string
	for _, r := range s.Results {
		if r.Status == CheckFail {
			failed = append(failed, r.Check)
		}
	}
	return failed
}

// Screen runs the six initial eligibility checks against an intent.
func Screen(p Policies, intent *wfap.Intent) Screening {
	fin := intent.Financials
	results := []CheckResult{
		checkIndustry(p, intent.IndustryCode),
		checkAmount(p, intent.AmountValue),
		checkJurisdiction(p, intent.Jurisdiction),
		checkRevenue(p, fin.AnnualRevenue),
		checkDebtRatio(p, fin.LiabilitiesTotal, fin.AssetsTotal),
		checkHealth(fin),
	}

	overall := CheckPass
	passed := 0
	for _, r := range results {
		if r.Status == CheckFail {
			overall = CheckFail
		} else {
			passed++
		}
	}

	return Screening{
		OverallStatus: overall,
		Summary:       fmt.Sprintf("Passed %d/%d initial risk checks", passed, len(results)),
		Results:       results,
	}
}

func checkIndustry(p Policies, industryCode string) CheckResult {
	name := p.industryName(industryCode)

	if p.ProhibitedIndustries[name] {
		return CheckResult{
			Check:  CheckIndustry,
			Status: CheckFail,
			Reason: fmt.Sprintf("Industry %q is on prohibited list", name),
		}
	}
	if _, known := p.IndustryRiskLevels[name]; known {
		return CheckResult{
			Check:  CheckIndustry,
			Status: CheckPass,
			Reason: fmt.Sprintf("Industry %q is acceptable", name),
		}
	}
	return CheckResult{
		Check:        CheckIndustry,
		Status:       CheckPass,
		Reason:       fmt.Sprintf("Unknown industry code %q requires manual review", industryCode),
		ManualReview: true,
	}
}

func checkAmount(p Policies, amount float64) CheckResult {
	switch {
	case amount < p.MinCreditLimit:
		return CheckResult{
			Check:  CheckAmount,
			Status: CheckFail,
			Reason: fmt.Sprintf("Requested amount $%.2f is below minimum $%.2f", amount, p.MinCreditLimit),
		}
	case amount > p.MaxCreditLimit:
		return CheckResult{
			Check:  CheckAmount,
			Status: CheckFail,
			Reason: fmt.Sprintf("Requested amount $%.2f exceeds maximum $%.2f", amount, p.MaxCreditLimit),
		}
	default:
		return CheckResult{
			Check:  CheckAmount,
			Status: CheckPass,
			Reason: fmt.Sprintf("Requested amount $%.2f is within acceptable limits", amount),
		}
	}
}

func checkJurisdiction(p Policies, jurisdiction string) CheckResult {
	upper := strings.ToUpper(jurisdiction)

	if p.SanctionedCountries[upper] {
		return CheckResult{
			Check:  CheckJurisdiction,
			Status: CheckFail,
			Reason: fmt.Sprintf("Jurisdiction %q is on high-risk/sanctions list", jurisdiction),
		}
	}
	if p.AcceptedJurisdictions[upper] {
		return CheckResult{
			Check:  CheckJurisdiction,
			Status: CheckPass,
			Reason: fmt.Sprintf("Jurisdiction %q is acceptable", jurisdiction),
		}
	}
	return CheckResult{
		Check:        CheckJurisdiction,
		Status:       CheckPass,
		Reason:       fmt.Sprintf("Jurisdiction %q requires additional due diligence", jurisdiction),
		ManualReview: true,
	}
}

func checkRevenue(p Policies, annualRevenue float64) CheckResult {
	if annualRevenue < p.MinAnnualRevenue {
		return CheckResult{
			Check:  CheckRevenue,
			Status: CheckFail,
			Reason: fmt.Sprintf("Annual revenue $%.2f is below minimum $%.2f", annualRevenue, p.MinAnnualRevenue),
		}
	}
	return CheckResult{
		Check:  CheckRevenue,
		Status: CheckPass,
		Reason: fmt.Sprintf("Annual revenue $%.2f meets minimum requirement", annualRevenue),
	}
}

func checkDebtRatio(p Policies, liabilities, assets float64) CheckResult {
	if assets <= 0 {
		return CheckResult{
			Check:  CheckDebtRatio,
			Status: CheckFail,
			Reason: "Total assets must be greater than zero",
		}
	}
	ratio := liabilities / assets
	if ratio > p.MaxDebtToAssetRatio {
		return CheckResult{
			Check:  CheckDebtRatio,
			Status: CheckFail,
			Reason: fmt.Sprintf("Debt-to-asset ratio %.2f%% exceeds maximum %.2f%%", ratio*100, p.MaxDebtToAssetRatio*100),
		}
	}
	return CheckResult{
		Check:  CheckDebtRatio,
		Status: CheckPass,
		Reason: fmt.Sprintf("Debt-to-asset ratio %.2f%% is acceptable", ratio*100),
	}
}

// checkHealth accumulates every financial health concern rather than
// stopping at the first.
func checkHealth(fin wfap.Financials) CheckResult {
	var issues []string

	if fin.NetIncome <= 0 {
		issues = append(issues, fmt.Sprintf("Company is not profitable (Net Income: $%.2f)", fin.NetIncome))
	}
	if fin.AnnualRevenue <= 0 {
		issues = append(issues, "Annual revenue must be positive")
	}
	if fin.AssetsTotal > 0 {
		if turnover := fin.AnnualRevenue / fin.AssetsTotal; turnover < 0.5 {
			issues = append(issues, fmt.Sprintf("Low asset utilization ratio: %.2f", turnover))
		}
	}
	if equity := fin.AssetsTotal - fin.LiabilitiesTotal; equity <= 0 {
		issues = append(issues, "Company has negative equity (insolvent)")
	}

	if len(issues) > 0 {
		return CheckResult{
			Check:  CheckHealth,
			Status: CheckFail,
			Reason: "Multiple financial health concerns identified",
			Issues: issues,
		}
	}
	return CheckResult{
		Check:  CheckHealth,
		Status: CheckPass,
		Reason: "Basic financial health metrics are acceptable",
	}
}
