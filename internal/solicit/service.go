package solicit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"wfap/internal/peer"
	"wfap/internal/signing"
	"wfap/internal/solicit/metrics"
	"wfap/internal/wfap"

	dErrors "wfap/pkg/domain-errors"
)

// Service orchestrates concurrent solicitations. The intent is signed once;
// each peer exchange runs in its own goroutine under a per-peer timeout,
// all jointly bounded by a global timeout.
type Service struct {
	signer   *signing.Signer
	sessions SessionStore

	perPeerTimeout time.Duration
	globalTimeout  time.Duration

	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	clock   func() time.Time

	// Completed results by request id, written once per solicitation.
	results sync.Map
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus instrumentation. A nil Metrics is safe.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService builds a solicitation orchestrator. The global timeout is
// raised to the per-peer timeout when configured lower, since a global
// window shorter than one peer exchange cannot be honored.
func NewService(signer *signing.Signer, sessions SessionStore, perPeerTimeout, globalTimeout time.Duration, opts ...Option) *Service {
	if globalTimeout < perPeerTimeout {
		globalTimeout = perPeerTimeout
	}
	s := &Service{
		signer:         signer,
		sessions:       sessions,
		perPeerTimeout: perPeerTimeout,
		globalTimeout:  globalTimeout,
		logger:         slog.Default(),
		tracer:         otel.Tracer("wfap/solicit"),
		clock:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type indexedOutcome struct {
	idx     int
	outcome PeerOutcome
}

// Solicit signs the intent and dispatches it to every peer concurrently.
// The returned result has exactly one outcome per peer, ordered by peer
// name; individual failures are recorded, never raised. The only hard
// errors are signing failures and an empty peer set.
func (s *Service) Solicit(ctx context.Context, intent *wfap.Intent, peers map[string]peer.Connection) (*Result, error) {
	if len(peers) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "no peers to solicit")
	}

	ctx, span := s.tracer.Start(ctx, "solicit.Solicit",
		trace.WithAttributes(
			attribute.String("intent_id", intent.IntentID),
			attribute.Int("peers", len(peers)),
		))
	defer span.End()
	started := s.clock()
	defer func() { s.metrics.ObserveSolicitLatency(s.clock().Sub(started)) }()

	payload, err := wfap.ToMap(intent)
	if err != nil {
		return nil, err
	}
	signed, err := s.signer.Sign(payload)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(peers))
	for name := range peers {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &Result{
		RequestID: uuid.NewString(),
		IntentID:  intent.IntentID,
		ContextID: make(map[string]string, len(names)),
		Outcomes:  make([]PeerOutcome, len(names)),
	}
	span.SetAttributes(attribute.String("request_id", result.RequestID))

	gctx, cancel := context.WithTimeout(ctx, s.globalTimeout)
	defer cancel()

	// Session contexts resolve before the fan-out so the dispatched tasks
	// share no mutable state with each other or the result.
	filled := make([]bool, len(names))
	dispatched := 0
	for i, name := range names {
		contextID, err := s.sessions.ContextID(gctx, name)
		if err != nil {
			result.Outcomes[i] = PeerOutcome{
				Peer:       name,
				Kind:       OutcomeCommunicationError,
				Detail:     fmt.Sprintf("session lookup failed: %v", err),
				RecordedAt: s.clock(),
			}
			filled[i] = true
			s.metrics.IncrementOutcome(name, string(OutcomeCommunicationError))
			continue
		}
		result.ContextID[name] = contextID
		dispatched++
	}

	// Buffered to peer count so a task finishing after the global timeout
	// never blocks or leaks.
	outcomes := make(chan indexedOutcome, len(names))
	var g errgroup.Group
	for i, name := range names {
		if filled[i] {
			continue
		}
		conn := peers[name]
		contextID := result.ContextID[name]
		g.Go(func() error {
			outcomes <- indexedOutcome{idx: i, outcome: s.exchange(gctx, name, conn, signed, contextID)}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	received := 0
collect:
	for received < dispatched {
		select {
		case res := <-outcomes:
			result.Outcomes[res.idx] = res.outcome
			filled[res.idx] = true
			received++
		case <-gctx.Done():
			break collect
		}
	}

	result.State = StateComplete
	for i, name := range names {
		if !filled[i] {
			result.Outcomes[i] = PeerOutcome{
				Peer:       name,
				Kind:       OutcomeGlobalTimeout,
				Detail:     fmt.Sprintf("no outcome within global timeout of %s", s.globalTimeout),
				RecordedAt: s.clock(),
			}
			result.State = StateGlobalTimeout
			s.metrics.IncrementOutcome(name, string(OutcomeGlobalTimeout))
		}
	}
	if result.State != StateGlobalTimeout {
		for _, o := range result.Outcomes {
			if !o.Usable() {
				result.State = StatePartial
				break
			}
		}
	}

	s.results.Store(result.RequestID, result)
	s.logger.Info("solicitation finished",
		"request_id", result.RequestID,
		"intent_id", intent.IntentID,
		"state", result.State,
		"peers", len(names),
		"usable_offers", len(result.UsableOffers()))
	return result, nil
}

// Result returns a completed solicitation by its request id.
func (s *Service) Result(requestID string) (*Result, bool) {
	if v, ok := s.results.Load(requestID); ok {
		return v.(*Result), true
	}
	return nil, false
}

// Negotiate runs one counter-offer round against a single named peer using
// the same session context as the original solicitation, so the peer can
// correlate the conversation.
func (s *Service) Negotiate(ctx context.Context, message map[string]any, peerName string, peers map[string]peer.Connection) (PeerOutcome, error) {
	conn, ok := peers[peerName]
	if !ok {
		return PeerOutcome{}, dErrors.Newf(dErrors.CodeNotFound, "unknown peer %q", peerName)
	}

	ctx, span := s.tracer.Start(ctx, "solicit.Negotiate",
		trace.WithAttributes(attribute.String("peer", peerName)))
	defer span.End()

	signed, err := s.signer.Sign(message)
	if err != nil {
		return PeerOutcome{}, err
	}

	contextID, err := s.sessions.ContextID(ctx, peerName)
	if err != nil {
		return PeerOutcome{}, dErrors.Wrap(dErrors.CodeInternal, "session lookup failed", err)
	}

	gctx, cancel := context.WithTimeout(ctx, s.globalTimeout)
	defer cancel()
	return s.exchange(gctx, peerName, conn, signed, contextID), nil
}

// exchange performs the full signed round trip with one peer and classifies
// whatever comes back. It never returns an error; everything is an outcome.
func (s *Service) exchange(ctx context.Context, name string, conn peer.Connection, signed map[string]any, contextID string) (out PeerOutcome) {
	ctx, span := s.tracer.Start(ctx, "solicit.exchange",
		trace.WithAttributes(attribute.String("peer", name)))
	defer span.End()

	started := s.clock()
	outcome := func(kind OutcomeKind, offer *wfap.Offer, detail string) PeerOutcome {
		elapsed := s.clock().Sub(started)
		s.metrics.IncrementOutcome(name, string(kind))
		s.metrics.ObservePeerLatency(name, elapsed)
		span.SetAttributes(attribute.String("outcome", string(kind)))
		return PeerOutcome{
			Peer:       name,
			Kind:       kind,
			Offer:      offer,
			Detail:     detail,
			RecordedAt: s.clock(),
			Elapsed:    elapsed,
		}
	}

	// A misbehaving connection implementation must surface as an outcome,
	// not take the whole solicitation down.
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("peer exchange panic recovered", "peer", name, "panic", r)
			out = outcome(OutcomeAgentException, nil, fmt.Sprintf("peer task failure: %v", r))
		}
	}()

	msg, err := wfap.NewMessage(contextID, signed)
	if err != nil {
		return outcome(OutcomeCommunicationError, nil, fmt.Sprintf("building envelope: %v", err))
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return outcome(OutcomeCommunicationError, nil, fmt.Sprintf("encoding envelope: %v", err))
	}

	pctx, cancel := context.WithTimeout(ctx, s.perPeerTimeout)
	defer cancel()

	reply, err := conn.Send(pctx, body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return outcome(OutcomeTimeout, nil, fmt.Sprintf("no reply within %s", s.perPeerTimeout))
		}
		return outcome(OutcomeCommunicationError, nil, err.Error())
	}

	return s.classifyReply(name, reply, outcome)
}

// classifyReply verifies and decodes a peer reply. A failed signature is
// non-fatal: the offer is still surfaced, flagged unverified. Only a reply
// that cannot be decoded at all becomes a parse error.
func (s *Service) classifyReply(name string, reply []byte, outcome func(OutcomeKind, *wfap.Offer, string) PeerOutcome) PeerOutcome {
	payload := reply
	if msg, err := wfap.ParseMessage(reply); err == nil {
		payload = msg.Payload
	}

	verification, err := s.signer.Verify(payload)
	if err != nil {
		return outcome(OutcomeParseError, nil, fmt.Sprintf("reply from %q is unusable: %v", name, err))
	}

	if !verification.Valid {
		offer, perr := wfap.ParseOffer(payload)
		if perr != nil {
			return outcome(OutcomeParseError, nil, fmt.Sprintf("unverified reply from %q is unusable: %v", name, perr))
		}
		s.logger.Warn("peer offer failed verification",
			"peer", name, "diagnostic", verification.Diagnostic)
		return outcome(OutcomeUnverified, offer, verification.Diagnostic)
	}

	verifiedRaw, err := json.Marshal(verification.Payload)
	if err != nil {
		return outcome(OutcomeParseError, nil, fmt.Sprintf("re-encoding verified payload from %q: %v", name, err))
	}
	offer, err := wfap.ParseOffer(verifiedRaw)
	if err != nil {
		return outcome(OutcomeParseError, nil, fmt.Sprintf("verified reply from %q is not an offer: %v", name, err))
	}
	if offer.Status == wfap.StatusError {
		return outcome(OutcomeAgentException, offer, "peer reported an internal error")
	}
	return outcome(OutcomeVerified, offer, "")
}
