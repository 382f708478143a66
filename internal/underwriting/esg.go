package underwriting

import (
	"fmt"
	"math"
	"strings"
)

// ESG pillar weights: quantitative carbon performance dominates.
const (
	carbonWeight      = 0.70
	qualitativeWeight = 0.30
)

// ESG categories by final score.
const (
	ESGLeader  = "ESG Leader"
	ESGStrong  = "ESG Strong Performer"
	ESGAverage = "ESG Average Performer"
	ESGLaggard = "ESG Laggard"
)

// RecognizedCertification is one scored certification from the applicant's
// declared list.
type RecognizedCertification struct {
	Certification string `json:"certification"`
	Points        int    `json:"points"`
}

// ESGAssessment is the carbon-adjusted sustainability evaluation of an
// applicant, driving both a rate discount and a lending capacity adjustment.
type ESGAssessment struct {
	FinalScore float64 `json:"final_esg_score"`
	Category   string  `json:"esg_category"`
	Discount   float64 `json:"discount_percentage"`

	CarbonScore         float64 `json:"carbon_score"`
	EmissionsIntensity  float64 `json:"emissions_intensity"`
	IndustryBenchmark   float64 `json:"industry_benchmark"`
	PerformanceCategory string  `json:"performance_category"`

	QualitativeScore float64                   `json:"qualitative_score"`
	Certifications   []RecognizedCertification `json:"certifications,omitempty"`
	Unrecognized     []string                  `json:"unrecognized_certs,omitempty"`
}

// AssessESG scores an applicant's sustainability posture: carbon intensity
// against an industry benchmark plus recognized certifications, weighted
// 70/30.
func AssessESG(p Policies, industryCode string, annualRevenue, carbonEmissions float64, certifications string) ESGAssessment {
	a := ESGAssessment{}
	a.CarbonScore, a.EmissionsIntensity, a.IndustryBenchmark, a.PerformanceCategory =
		carbonPerformance(p, industryCode, annualRevenue, carbonEmissions)
	a.QualitativeScore, a.Certifications, a.Unrecognized = qualitativeScore(p, certifications)

	a.FinalScore = math.Round((a.CarbonScore*carbonWeight+a.QualitativeScore*qualitativeWeight)*10) / 10
	a.Category = ESGCategory(a.FinalScore)
	a.Discount = esgDiscount(a.FinalScore)
	return a
}

func carbonPerformance(p Policies, industryCode string, annualRevenue, emissions float64) (score, intensity, benchmark float64, category string) {
	key := industryCode
	if len(industryCode) >= 3 {
		key = industryCode[:3]
	}
	benchmark = p.DefaultCarbonBenchmark
	if b, ok := p.CarbonBenchmarks[key]; ok {
		benchmark = b
	}

	intensity = math.Inf(1)
	if annualRevenue > 0 {
		intensity = emissions / (annualRevenue / 1_000_000)
	}

	performance := -100.0
	if !math.IsInf(intensity, 1) && benchmark != 0 {
		performance = (benchmark - intensity) / benchmark * 100
	}

	switch {
	case performance > 50:
		return 100, intensity, benchmark, "> 50% Better than Industry"
	case performance > 25:
		return 85, intensity, benchmark, "25-50% Better than Industry"
	case performance > 0:
		return 70, intensity, benchmark, "0-25% Better than Industry"
	case performance > -20:
		return 50, intensity, benchmark, "0-20% Worse than Industry"
	default:
		return 30, intensity, benchmark, "> 20% Worse than Industry"
	}
}

func qualitativeScore(p Policies, certifications string) (float64, []RecognizedCertification, []string) {
	trimmed := strings.TrimSpace(certifications)
	if trimmed == "" || strings.EqualFold(trimmed, "none") || strings.EqualFold(trimmed, "null") {
		return 0, nil, nil
	}

	var (
		total        int
		recognized   []RecognizedCertification
		unrecognized []string
	)
	for _, raw := range strings.Split(trimmed, ",") {
		cert := strings.ToUpper(strings.TrimSpace(raw))
		if cert == "" {
			continue
		}
		if points, ok := p.CertificationPoints[cert]; ok {
			total += points
			recognized = append(recognized, RecognizedCertification{Certification: cert, Points: points})
		} else {
			unrecognized = append(unrecognized, cert)
		}
	}

	capped := min(total, 100)
	return float64(capped), recognized, unrecognized
}

// ESGCategory names the tier a final ESG score falls in.
func ESGCategory(score float64) string {
	switch {
	case score >= 90:
		return ESGLeader
	case score >= 75:
		return ESGStrong
	case score >= 50:
		return ESGAverage
	default:
		return ESGLaggard
	}
}

// esgDiscount maps a final ESG score to an annual rate discount in
// percentage points.
func esgDiscount(score float64) float64 {
	switch {
	case score >= 90:
		return 0.75
	case score >= 75:
		return 0.50
	case score >= 50:
		return 0.25
	default:
		return 0.00
	}
}

// esgLendingAdjustment shifts the lending ratio by ESG tier.
func esgLendingAdjustment(score float64) float64 {
	switch {
	case score >= 90:
		return 0.025
	case score >= 75:
		return 0.015
	case score >= 50:
		return 0.0
	default:
		return -0.01
	}
}

// Summary renders the assessment as a one-line wire string.
func (a ESGAssessment) Summary() string {
	return fmt.Sprintf("%s (score %.1f): carbon intensity %.1f vs benchmark %.0f tCO2e/$M, %d recognized certifications, rate discount %.2f%%",
		a.Category, a.FinalScore, a.EmissionsIntensity, a.IndustryBenchmark, len(a.Certifications), a.Discount)
}
