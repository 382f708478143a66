package underwriting

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wfap/internal/underwriting/metrics"
	"wfap/internal/wfap"
)

// Decision is the complete outcome of evaluating one intent. Evaluate never
// returns a Go error: anything that goes wrong inside the pipeline surfaces
// as Status ERROR so the caller can still answer the applicant.
type Decision struct {
	Status     string
	IntentID   string
	SenderName string

	Screening Screening
	Risk      RiskProfile
	ESG       ESGAssessment
	Amount    AmountDecision
	Duration  DurationDecision

	Offer *wfap.Offer
	Err   string
}

// Engine runs the deterministic underwriting pipeline. The rules live in
// the sibling files; the engine only sequences them and owns the ambient
// pieces (ids, timestamps, logging, metrics).
type Engine struct {
	policies Policies
	bankID   string
	bankName string
	logger   *slog.Logger
	clock    func() time.Time
	metrics  *metrics.Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithMetrics attaches Prometheus instrumentation. A nil Metrics is safe.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// NewEngine builds an underwriting engine for the given bank identity.
func NewEngine(policies Policies, bankID, bankName string, opts ...Option) *Engine {
	e := &Engine{
		policies: policies,
		bankID:   bankID,
		bankName: bankName,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policies returns the engine's standing policy.
func (e *Engine) Policies() Policies { return e.policies }

// Evaluate runs the full pipeline on a validated intent. Identical intents
// always yield identical decisions under the same policy.
func (e *Engine) Evaluate(ctx context.Context, intent *wfap.Intent) (d *Decision) {
	start := e.clock()
	d = &Decision{
		IntentID:   intent.IntentID,
		SenderName: intent.SenderName,
	}

	// A policy table bug must not take the whole solicitation down; the
	// applicant gets an ERROR decision instead.
	defer func() {
		if r := recover(); r != nil {
			d.Status = wfap.StatusError
			d.Err = fmt.Sprintf("underwriting pipeline failure: %v", r)
			d.Offer = nil
			e.logger.Error("underwriting panic recovered",
				"intent_id", intent.IntentID, "panic", r)
		}
		e.metrics.IncrementDecision(d.Status, d.Duration.NormalizedPurpose)
		e.metrics.ObserveEvaluateLatency(e.clock().Sub(start))
	}()

	offerID := uuid.NewString()
	createdAt := e.clock().UTC().Format(time.RFC3339)

	d.Screening = Screen(e.policies, intent)
	d.Risk = AssessRisk(intent.Financials)

	if !d.Screening.Passed() {
		d.Status = wfap.StatusRejected
		d.Offer = buildRejection(intent, d, offerID, createdAt, e.bankID, e.bankName)
		e.logger.Info("intent rejected at screening",
			"intent_id", intent.IntentID,
			"sender", intent.SenderName,
			"failed_checks", d.Screening.FailedChecks())
		return d
	}

	d.ESG = AssessESG(e.policies, intent.IndustryCode,
		intent.Financials.AnnualRevenue, intent.CarbonEmissions, intent.ESGCertifications)
	d.Amount = ApproveAmount(e.policies, intent.AmountValue,
		intent.Financials.AnnualRevenue, d.Risk.WeightedScore, d.ESG.FinalScore)
	d.Duration = ApproveDuration(e.policies, intent.RepaymentDuration,
		intent.Purpose, d.Risk.WeightedScore)

	d.Offer = buildOffer(e.policies, intent, d, offerID, createdAt, e.bankID, e.bankName)
	d.Status = d.Offer.Status

	e.logger.Info("offer extended",
		"intent_id", intent.IntentID,
		"sender", intent.SenderName,
		"status", d.Status,
		"risk_score", d.Risk.WeightedScore,
		"risk_category", d.Risk.Category,
		"esg_score", d.ESG.FinalScore,
		"rate", d.Offer.InterestRateAnnual,
		"amount_approved", d.Offer.AmountApproved,
		"duration_months", d.Offer.RepaymentDurationMonths)
	return d
}

// Negotiate reprices the rate of an existing offer given a counterparty
// negotiation score.
func (e *Engine) Negotiate(negotiationScore, currentRate float64) float64 {
	repriced := Negotiate(e.policies, negotiationScore, currentRate)
	e.metrics.IncrementNegotiation()
	e.logger.Info("offer repriced",
		"score", negotiationScore, "from", currentRate, "to", repriced)
	return repriced
}
