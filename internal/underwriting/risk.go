package underwriting

import (
	"math"

	"wfap/internal/wfap"
)

// Metric weights for the composite risk score.
const (
	profitabilityWeight = 0.40
	leverageWeight      = 0.40
	scaleWeight         = 0.20
)

// FinancialMetrics are the three inputs to risk scoring.
type FinancialMetrics struct {
	ProfitabilityMargin float64 `json:"profitability_margin"`
	LeverageRatio       float64 `json:"leverage_ratio"`
	CompanyScale        float64 `json:"company_scale"`
}

// RiskScores hold each metric scored on a 1-5 scale, 5 being lowest risk.
type RiskScores struct {
	Profitability float64 `json:"profitability_score"`
	Leverage      float64 `json:"leverage_score"`
	Scale         float64 `json:"scale_score"`
}

// RiskProfile is the full financial risk picture for one applicant.
type RiskProfile struct {
	Metrics       FinancialMetrics `json:"financial_metrics"`
	Scores        RiskScores       `json:"metric_scores"`
	WeightedScore float64          `json:"weighted_risk_score"`
	Category      string           `json:"risk_category"`
	Premium       float64          `json:"risk_premium"`
}

// AssessRisk computes the weighted risk profile from an applicant's
// financials.
func AssessRisk(fin wfap.Financials) RiskProfile {
	metrics := computeMetrics(fin)
	scores := scoreMetrics(metrics)
	weighted := weightedScore(scores)
	return RiskProfile{
		Metrics:       metrics,
		Scores:        scores,
		WeightedScore: weighted,
		Category:      RiskCategory(weighted),
		Premium:       riskPremium(weighted),
	}
}

func computeMetrics(fin wfap.Financials) FinancialMetrics {
	m := FinancialMetrics{CompanyScale: fin.AnnualRevenue}

	if fin.AnnualRevenue > 0 {
		m.ProfitabilityMargin = fin.NetIncome / fin.AnnualRevenue
	} else {
		m.ProfitabilityMargin = -1.0
	}
	if fin.AssetsTotal > 0 {
		m.LeverageRatio = fin.LiabilitiesTotal / fin.AssetsTotal
	} else {
		m.LeverageRatio = 1.0
	}
	return m
}

func scoreMetrics(m FinancialMetrics) RiskScores {
	var s RiskScores

	switch p := m.ProfitabilityMargin; {
	case p >= 0.20:
		s.Profitability = 5.0
	case p >= 0.15:
		s.Profitability = 4.0
	case p >= 0.10:
		s.Profitability = 3.5
	case p >= 0.05:
		s.Profitability = 3.0
	case p >= 0.02:
		s.Profitability = 2.0
	case p > 0:
		s.Profitability = 1.5
	default:
		s.Profitability = 1.0
	}

	switch l := m.LeverageRatio; {
	case l < 0.2:
		s.Leverage = 5.0
	case l < 0.4:
		s.Leverage = 4.0
	case l < 0.6:
		s.Leverage = 3.0
	case l < 0.8:
		s.Leverage = 2.0
	default:
		s.Leverage = 1.0
	}

	switch sc := m.CompanyScale; {
	case sc > 50_000_000:
		s.Scale = 5.0
	case sc > 25_000_000:
		s.Scale = 4.0
	case sc > 10_000_000:
		s.Scale = 3.5
	case sc > 5_000_000:
		s.Scale = 3.0
	case sc > 2_000_000:
		s.Scale = 2.0
	case sc > 1_000_000:
		s.Scale = 1.5
	default:
		s.Scale = 1.0
	}

	return s
}

func weightedScore(s RiskScores) float64 {
	raw := s.Profitability*profitabilityWeight +
		s.Leverage*leverageWeight +
		s.Scale*scaleWeight
	return math.Round(raw*100) / 100
}

// riskPremium maps a weighted score to an annual rate premium in percentage
// points. Scores below 1.5 still price rather than reject, at the maximum
// premium.
func riskPremium(weighted float64) float64 {
	switch {
	case weighted >= 4.5:
		return 0.50
	case weighted >= 3.5:
		return 1.25
	case weighted >= 2.5:
		return 2.75
	case weighted >= 1.5:
		return 4.50
	default:
		return 6.00
	}
}

// RiskCategory names the tier a weighted score falls in.
func RiskCategory(weighted float64) string {
	switch {
	case weighted >= 4.5:
		return "Excellent"
	case weighted >= 3.5:
		return "Good"
	case weighted >= 2.5:
		return "Average"
	case weighted >= 1.5:
		return "Sub-par"
	default:
		return "High-Risk"
	}
}

// riskLendingAdjustment shifts the lending ratio by risk tier.
func riskLendingAdjustment(weighted float64) float64 {
	switch {
	case weighted >= 4.5:
		return 0.05
	case weighted >= 3.5:
		return 0.025
	case weighted >= 2.5:
		return 0.0
	case weighted >= 1.5:
		return -0.05
	default:
		return -0.10
	}
}

// riskDurationFactor caps the policy maximum duration by risk tier.
func riskDurationFactor(weighted float64) float64 {
	switch {
	case weighted >= 4.5:
		return 1.0
	case weighted >= 3.5:
		return 0.9
	case weighted >= 2.5:
		return 0.75
	case weighted >= 1.5:
		return 0.5
	default:
		return 0.25
	}
}
