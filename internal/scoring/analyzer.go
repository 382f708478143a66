// Package scoring ranks bank offers against the originating credit request.
// Scoring is a pure function of the request, the offer and the clock; the
// analyzer never mutates its inputs.
package scoring

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	dErrors "wfap/pkg/domain-errors"

	"wfap/internal/wfap"
)

// Criterion weights. They sum to 1; the composite score stays in [0, 100].
const (
	weightInterestRate = 0.40
	weightAmount       = 0.25
	weightRepayment    = 0.15
	weightESG          = 0.10
	weightRecency      = 0.10
)

// Analyzer scores and ranks offers.
type Analyzer struct {
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClock overrides the time source used for recency scoring.
func WithClock(clock func() time.Time) Option {
	return func(a *Analyzer) { a.clock = clock }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = logger }
}

// NewAnalyzer builds an offer analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		clock:  time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ScoredOffer pairs an offer with its composite score.
type ScoredOffer struct {
	BankID string
	Score  float64
	Offer  *wfap.Offer
}

// Ranking is the full analysis result: the winner plus every offer in
// descending score order. Ties keep their original input order.
type Ranking struct {
	Best    ScoredOffer
	Ranked  []ScoredOffer
	Summary string
}

// SelectBest scores every offer against the request and returns the ranking.
// An empty offer list is an error value, not a panic: upstream outcomes like
// timeouts routinely leave nothing to rank.
func (a *Analyzer) SelectBest(request *wfap.Intent, offers []*wfap.Offer) (*Ranking, error) {
	if request == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "no loan request provided")
	}
	if len(offers) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no bank offers provided")
	}

	ranked := make([]ScoredOffer, 0, len(offers))
	for _, offer := range offers {
		ranked = append(ranked, ScoredOffer{
			BankID: offer.BankID,
			Score:  a.Score(request, offer),
			Offer:  offer,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	best := ranked[0]
	a.logger.Info("best offer selected",
		"bank_id", best.BankID, "score", best.Score, "offers", len(offers))

	return &Ranking{
		Best:    best,
		Ranked:  ranked,
		Summary: summarize(request, best.Offer),
	}, nil
}

// Score computes the composite score for one offer, rounded to two decimals.
func (a *Analyzer) Score(request *wfap.Intent, offer *wfap.Offer) float64 {
	score := scoreInterestRate(request, offer)*weightInterestRate +
		scoreAmount(request, offer)*weightAmount +
		scoreRepayment(request, offer)*weightRepayment +
		scoreESG(request, offer)*weightESG +
		a.scoreRecency(offer)*weightRecency
	return math.Round(score*100) / 100
}

// scoreInterestRate rewards rates at or under the requested preference. With
// no preference stated, lower absolute rates score linearly against a 15%
// reference ceiling.
func scoreInterestRate(request *wfap.Intent, offer *wfap.Offer) float64 {
	preferred := request.PreferredInterestRate
	offered := offer.InterestRateAnnual

	if preferred == 0 {
		return max(0, (15-offered)/15*100)
	}
	if offered <= preferred {
		return 100
	}
	penalty := min((offered-preferred)*10, 100)
	return max(0, 100-penalty)
}

// scoreAmount is the approved/requested ratio capped at full credit.
func scoreAmount(request *wfap.Intent, offer *wfap.Offer) float64 {
	if request.AmountValue == 0 || offer.AmountApproved == 0 {
		return 0
	}
	ratio := offer.AmountApproved / request.AmountValue
	if ratio >= 1.0 {
		return 100
	}
	return ratio * 100
}

// scoreRepayment blends duration fit (2-point penalty per month of mismatch,
// 60% of the criterion) with schedule type fit (40 points exact, 20 points
// for any schedule at all).
func scoreRepayment(request *wfap.Intent, offer *wfap.Offer) float64 {
	var score float64

	if request.RepaymentDuration > 0 && offer.RepaymentDurationMonths > 0 {
		diff := math.Abs(float64(offer.RepaymentDurationMonths - request.RepaymentDuration))
		score += max(0, 100-diff*2) * 0.6
	}

	requested := strings.ToLower(request.RepaymentPreference)
	offered := strings.ToLower(offer.RepaymentSchedule)
	if requested != "" && offered != "" {
		if requested == offered {
			score += 40
		} else {
			score += 20
		}
	}

	return min(score, 100)
}

// scoreESG grants a 50-point base plus a 50-point bonus when a non-empty
// ESG narrative accompanies the offer.
func scoreESG(request *wfap.Intent, offer *wfap.Offer) float64 {
	score := 50.0
	if request.ESGReportingURL != "" || offer.ESGImpactSummary != "" {
		if strings.TrimSpace(offer.ESGImpactSummary) != "" {
			score += 50
		}
	}
	return min(score, 100)
}

// scoreRecency steps down with offer age; a missing or unparsable timestamp
// scores the neutral midpoint.
func (a *Analyzer) scoreRecency(offer *wfap.Offer) float64 {
	if offer.CreatedAt == "" {
		return 50
	}
	created, err := time.Parse(time.RFC3339, offer.CreatedAt)
	if err != nil {
		return 50
	}

	age := a.clock().Sub(created)
	switch days := int(age.Hours() / 24); {
	case days <= 1:
		return 100
	case days <= 7:
		return 80
	case days <= 30:
		return 60
	default:
		return 40
	}
}

func summarize(request *wfap.Intent, best *wfap.Offer) string {
	var parts []string

	if request.PreferredInterestRate > 0 {
		if best.InterestRateAnnual <= request.PreferredInterestRate {
			parts = append(parts, fmt.Sprintf("Interest rate of %.2f%% meets or beats preferred rate of %.2f%%",
				best.InterestRateAnnual, request.PreferredInterestRate))
		} else {
			parts = append(parts, fmt.Sprintf("Interest rate of %.2f%% is %.2f%% above preferred rate",
				best.InterestRateAnnual, best.InterestRateAnnual-request.PreferredInterestRate))
		}
	} else {
		parts = append(parts, fmt.Sprintf("Competitive interest rate of %.2f%%", best.InterestRateAnnual))
	}

	if best.AmountApproved >= request.AmountValue {
		parts = append(parts, fmt.Sprintf("Full requested amount of $%.0f approved", best.AmountApproved))
	} else if request.AmountValue > 0 {
		parts = append(parts, fmt.Sprintf("%.1f%% of requested amount approved ($%.0f)",
			best.AmountApproved/request.AmountValue*100, best.AmountApproved))
	}

	if best.RepaymentDurationMonths > 0 {
		parts = append(parts, fmt.Sprintf("%d months repayment term", best.RepaymentDurationMonths))
	}

	return strings.Join(parts, "; ")
}
