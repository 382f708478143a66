package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wfap/internal/wfap"

	dErrors "wfap/pkg/domain-errors"
)

var now = time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(WithClock(func() time.Time { return now }))
}

func request() *wfap.Intent {
	return &wfap.Intent{
		IntentID:              "intent-1",
		AmountValue:           2_000_000,
		RepaymentDuration:     24,
		PreferredInterestRate: 10.0,
		RepaymentPreference:   "amortizing",
	}
}

func freshOffer(bankID string, rate float64) *wfap.Offer {
	return &wfap.Offer{
		BankID:                  bankID,
		Status:                  wfap.StatusOfferExtended,
		CreatedAt:               now.Add(-2 * time.Hour).Format(time.RFC3339),
		AmountApproved:          2_000_000,
		InterestRateAnnual:      rate,
		RepaymentDurationMonths: 24,
		RepaymentSchedule:       "amortizing",
		ESGImpactSummary:        "ESG Average Performer",
	}
}

func TestSelectBestPrefersLowerRate(t *testing.T) {
	a := newTestAnalyzer()
	offers := []*wfap.Offer{
		freshOffer("BANK-HIGH", 12.5),
		freshOffer("BANK-LOW", 9.0),
		freshOffer("BANK-MID", 10.5),
	}

	ranking, err := a.SelectBest(request(), offers)
	require.NoError(t, err)
	assert.Equal(t, "BANK-LOW", ranking.Best.BankID)
	require.Len(t, ranking.Ranked, 3)
	assert.Equal(t, "BANK-MID", ranking.Ranked[1].BankID)
	assert.Equal(t, "BANK-HIGH", ranking.Ranked[2].BankID)
	assert.GreaterOrEqual(t, ranking.Best.Score, ranking.Ranked[1].Score)
	assert.NotEmpty(t, ranking.Summary)
}

func TestSelectBestEmptyOffers(t *testing.T) {
	a := newTestAnalyzer()

	_, err := a.SelectBest(request(), nil)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = a.SelectBest(nil, []*wfap.Offer{freshOffer("B", 9)})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSelectBestStableTieBreak(t *testing.T) {
	a := newTestAnalyzer()
	first := freshOffer("BANK-FIRST", 9.0)
	second := freshOffer("BANK-SECOND", 9.0)

	ranking, err := a.SelectBest(request(), []*wfap.Offer{first, second})
	require.NoError(t, err)
	assert.Equal(t, "BANK-FIRST", ranking.Best.BankID, "equal scores keep input order")
}

func TestScorePerfectOffer(t *testing.T) {
	a := newTestAnalyzer()
	// At or under preferred rate, full amount, exact duration and schedule,
	// ESG narrative present, fresh offer: every criterion maxes out.
	score := a.Score(request(), freshOffer("B", 10.0))
	assert.InDelta(t, 100.0, score, 0.001)
}

func TestScoreInterestRate(t *testing.T) {
	t.Run("under preference scores full", func(t *testing.T) {
		assert.InDelta(t, 100, scoreInterestRate(request(), &wfap.Offer{InterestRateAnnual: 8.0}), 0.001)
	})

	t.Run("ten points per percentage point over", func(t *testing.T) {
		assert.InDelta(t, 75, scoreInterestRate(request(), &wfap.Offer{InterestRateAnnual: 12.5}), 0.001)
	})

	t.Run("floored at zero", func(t *testing.T) {
		assert.InDelta(t, 0, scoreInterestRate(request(), &wfap.Offer{InterestRateAnnual: 25.0}), 0.001)
	})

	t.Run("no preference credits lower absolute rates", func(t *testing.T) {
		req := request()
		req.PreferredInterestRate = 0
		low := scoreInterestRate(req, &wfap.Offer{InterestRateAnnual: 6.0})
		high := scoreInterestRate(req, &wfap.Offer{InterestRateAnnual: 12.0})
		assert.Greater(t, low, high)
		assert.InDelta(t, 60, low, 0.001)
	})
}

func TestScoreAmount(t *testing.T) {
	req := request()

	assert.InDelta(t, 100, scoreAmount(req, &wfap.Offer{AmountApproved: 2_000_000}), 0.001)
	assert.InDelta(t, 100, scoreAmount(req, &wfap.Offer{AmountApproved: 3_000_000}), 0.001, "over-approval capped")
	assert.InDelta(t, 75, scoreAmount(req, &wfap.Offer{AmountApproved: 1_500_000}), 0.001)
	assert.Zero(t, scoreAmount(req, &wfap.Offer{}))
}

func TestScoreRepayment(t *testing.T) {
	req := request()

	t.Run("exact match", func(t *testing.T) {
		offer := &wfap.Offer{RepaymentDurationMonths: 24, RepaymentSchedule: "amortizing"}
		assert.InDelta(t, 100, scoreRepayment(req, offer), 0.001)
	})

	t.Run("duration mismatch penalized two points per month", func(t *testing.T) {
		offer := &wfap.Offer{RepaymentDurationMonths: 34, RepaymentSchedule: "amortizing"}
		// duration 100-20=80, weighted 48; schedule exact 40
		assert.InDelta(t, 88, scoreRepayment(req, offer), 0.001)
	})

	t.Run("different schedule gets partial credit", func(t *testing.T) {
		offer := &wfap.Offer{RepaymentDurationMonths: 24, RepaymentSchedule: "bullet"}
		assert.InDelta(t, 80, scoreRepayment(req, offer), 0.001)
	})
}

func TestScoreESG(t *testing.T) {
	req := request()

	assert.InDelta(t, 100, scoreESG(req, &wfap.Offer{ESGImpactSummary: "strong"}), 0.001)
	assert.InDelta(t, 50, scoreESG(req, &wfap.Offer{}), 0.001)

	reqWithESG := request()
	reqWithESG.ESGReportingURL = "https://example.com/esg"
	assert.InDelta(t, 50, scoreESG(reqWithESG, &wfap.Offer{ESGImpactSummary: "  "}), 0.001,
		"blank narrative earns no bonus even when requested")
}

func TestScoreRecency(t *testing.T) {
	a := newTestAnalyzer()

	cases := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"same day", 2 * time.Hour, 100},
		{"within a week", 3 * 24 * time.Hour, 80},
		{"within a month", 20 * 24 * time.Hour, 60},
		{"stale", 90 * 24 * time.Hour, 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			offer := &wfap.Offer{CreatedAt: now.Add(-tc.age).Format(time.RFC3339)}
			assert.InDelta(t, tc.want, a.scoreRecency(offer), 0.001)
		})
	}

	t.Run("missing date is neutral", func(t *testing.T) {
		assert.InDelta(t, 50, a.scoreRecency(&wfap.Offer{}), 0.001)
	})

	t.Run("unparsable date is neutral", func(t *testing.T) {
		assert.InDelta(t, 50, a.scoreRecency(&wfap.Offer{CreatedAt: "2025-8-20-16:7-932"}), 0.001)
	})
}
