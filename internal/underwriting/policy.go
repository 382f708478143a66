// Package underwriting evaluates credit intents against bank lending policy.
// The pipeline is deterministic: screening, financial risk scoring, ESG
// assessment, amount and duration approval, rate assembly. Identical inputs
// under the same policy always produce identical offers.
package underwriting

// IndustryRisk classifies an industry for lending purposes.
type IndustryRisk string

const (
	IndustryRiskLow        IndustryRisk = "LOW"
	IndustryRiskMedium     IndustryRisk = "MEDIUM"
	IndustryRiskHigh       IndustryRisk = "HIGH"
	IndustryRiskVeryHigh   IndustryRisk = "VERY_HIGH"
	IndustryRiskProhibited IndustryRisk = "PROHIBITED"
)

// DurationLimits bounds repayment terms for a loan purpose, in months.
type DurationLimits struct {
	Min int
	Max int
}

// Policies holds every tunable of the underwriting pipeline. Construct with
// DefaultPolicies and override fields as needed.
type Policies struct {
	BaseInterestRate    float64
	MinAnnualRevenue    float64
	MinCreditLimit      float64
	MaxCreditLimit      float64
	BaseLendingRatio    float64
	MaxDebtToAssetRatio float64

	// NegotiationFloorRate is the lowest annual rate a negotiation round
	// may reach, regardless of counterparty scoring.
	NegotiationFloorRate float64

	// OriginationFeeRate is charged on the approved principal.
	OriginationFeeRate float64

	// IndustryRiskLevels keys internal industry names derived from the
	// leading three NAICS digits.
	IndustryRiskLevels    map[string]IndustryRisk
	ProhibitedIndustries  map[string]bool
	IndustryNames         map[string]string
	AcceptedJurisdictions map[string]bool
	SanctionedCountries   map[string]bool

	// CarbonBenchmarks maps leading three NAICS digits to tons CO2e per $M
	// revenue; DefaultCarbonBenchmark applies to unlisted industries.
	CarbonBenchmarks       map[string]float64
	DefaultCarbonBenchmark float64

	CertificationPoints map[string]int

	PurposeDurationLimits map[string]DurationLimits
	DefaultDurationLimits DurationLimits
}

// DefaultPolicies returns the bank's standing lending policy.
func DefaultPolicies() Policies {
	return Policies{
		BaseInterestRate:     9.5,
		MinAnnualRevenue:     500_000,
		MinCreditLimit:       50_000,
		MaxCreditLimit:       15_000_000,
		BaseLendingRatio:     0.25,
		MaxDebtToAssetRatio:  0.80,
		NegotiationFloorRate: 7.0,
		OriginationFeeRate:   0.01,

		IndustryNames: map[string]string{
			"621":    "healthcare_services",
			"221":    "utilities",
			"311":    "food_processing",
			"541":    "professional_services",
			"518":    "technology_software",
			"336":    "manufacturing",
			"441":    "retail_trade",
			"484":    "transportation",
			"236":    "construction",
			"423":    "wholesale_trade",
			"211":    "oil_gas",
			"212":    "mining",
			"111":    "agriculture",
			"721":    "hospitality",
			"531":    "real_estate",
			"522":    "cryptocurrency",
			"713":    "gambling",
			"812":    "adult_entertainment",
			"111998": "cannabis",
		},
		IndustryRiskLevels: map[string]IndustryRisk{
			"healthcare_services":   IndustryRiskLow,
			"utilities":             IndustryRiskLow,
			"food_processing":       IndustryRiskLow,
			"professional_services": IndustryRiskLow,
			"technology_software":   IndustryRiskLow,
			"manufacturing":         IndustryRiskMedium,
			"retail_trade":          IndustryRiskMedium,
			"transportation":        IndustryRiskMedium,
			"construction":          IndustryRiskMedium,
			"wholesale_trade":       IndustryRiskMedium,
			"oil_gas":               IndustryRiskHigh,
			"mining":                IndustryRiskHigh,
			"agriculture":           IndustryRiskHigh,
			"hospitality":           IndustryRiskHigh,
			"real_estate":           IndustryRiskHigh,
			"cryptocurrency":        IndustryRiskVeryHigh,
			"gambling":              IndustryRiskVeryHigh,
			"adult_entertainment":   IndustryRiskVeryHigh,
			"cannabis":              IndustryRiskVeryHigh,
		},
		ProhibitedIndustries: map[string]bool{
			"illegal_activities":  true,
			"money_laundering":    true,
			"terrorist_financing": true,
		},
		AcceptedJurisdictions: map[string]bool{
			"US": true, "USA": true, "UNITED STATES": true,
			"CA": true, "CANADA": true,
			"UK": true, "UNITED KINGDOM": true,
			"DE": true, "GERMANY": true,
			"FR": true, "FRANCE": true,
			"AU": true, "AUSTRALIA": true,
			"JP": true, "JAPAN": true,
		},
		SanctionedCountries: map[string]bool{
			"AF": true, "BY": true, "CF": true, "CU": true, "ER": true,
			"HK": true, "IR": true, "IQ": true, "KP": true, "LB": true,
			"LY": true, "MM": true, "NI": true, "RU": true, "SO": true,
			"SS": true, "SD": true, "SY": true, "VE": true, "YE": true,
			"ZW": true,
		},

		CarbonBenchmarks: map[string]float64{
			"541": 10, "518": 10, "311": 250, "336": 180, "441": 80,
			"221": 400, "211": 600, "212": 500, "236": 120, "484": 150,
			"621": 25, "721": 60, "423": 40, "531": 30, "713": 50,
			"111": 200,
		},
		DefaultCarbonBenchmark: 100,

		CertificationPoints: map[string]int{
			"B-CORP":                40,
			"B CORP":                40,
			"ISO14001":              25,
			"ISO 14001":             25,
			"SBTI":                  25,
			"SCIENCE BASED TARGETS": 25,
			"SA8000":                10,
			"SA 8000":               10,
			"LEED":                  15,
			"ENERGY STAR":           10,
			"FAIR TRADE":            15,
			"CARBON NEUTRAL":        20,
			"ISO26000":              15,
			"ISO 26000":             15,
			"GRI":                   10,
			"CDP":                   10,
			"TCFD":                  15,
			"UN GLOBAL COMPACT":     20,
		},

		PurposeDurationLimits: map[string]DurationLimits{
			"working_capital":           {Min: 12, Max: 36},
			"inventory_financing":       {Min: 6, Max: 24},
			"equipment_purchase":        {Min: 24, Max: 60},
			"business_expansion":        {Min: 36, Max: 84},
			"general_business_purposes": {Min: 12, Max: 48},
			"cash_flow_management":      {Min: 6, Max: 24},
			"seasonal_financing":        {Min: 3, Max: 18},
			"bridge_financing":          {Min: 3, Max: 12},
			"acquisition_financing":     {Min: 24, Max: 72},
			"refinancing":               {Min: 12, Max: 60},
			"debt_consolidation":        {Min: 12, Max: 60},
		},
		DefaultDurationLimits: DurationLimits{Min: 12, Max: 36},
	}
}

// industryName maps a NAICS code to the bank's internal industry name via
// its leading three digits; unknown codes map to "unknown".
func (p Policies) industryName(naics string) string {
	if name, ok := p.IndustryNames[naics]; ok {
		return name
	}
	if len(naics) >= 3 {
		if name, ok := p.IndustryNames[naics[:3]]; ok {
			return name
		}
	}
	return "unknown"
}
