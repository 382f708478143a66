// Package http is the bank agent's wire surface: it authenticates peers,
// verifies and signs WFAP payloads, and delegates everything else to the
// underwriting engine.
package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"wfap/internal/audit"
	"wfap/internal/signing"
	"wfap/internal/underwriting"
	"wfap/internal/wfap"
	dErrors "wfap/pkg/domain-errors"
	"wfap/pkg/platform/httputil"
	"wfap/pkg/requestcontext"
)

const requestBodyLimit = 1 << 20

// Signer covers the signing operations the handler needs.
type Signer interface {
	Verify(raw []byte) (signing.Verification, error)
	Sign(payload map[string]any) (map[string]any, error)
}

// Underwriter covers the decisioning operations the handler needs.
type Underwriter interface {
	Evaluate(ctx context.Context, intent *wfap.Intent) *underwriting.Decision
	CounterOffer(intentID string, amount float64, months int, negotiationScore, currentRate float64) *wfap.Offer
}

// Recorder accepts audit events without blocking the request path.
type Recorder interface {
	Record(kind audit.Kind, intentID, sender, requestID string, payload any)
}

// Handler wires the WFAP endpoints to the signer and the underwriting
// engine.
type Handler struct {
	signer Signer
	engine Underwriter
	trail  Recorder
	store  audit.Store
	logger *slog.Logger
	tracer trace.Tracer
}

// New constructs the bank handler with its dependencies.
func New(signer Signer, engine Underwriter, trail Recorder, store audit.Store, logger *slog.Logger) *Handler {
	return &Handler{
		signer: signer,
		engine: engine,
		trail:  trail,
		store:  store,
		logger: logger,
		tracer: otel.Tracer("wfap/bank"),
	}
}

// Register mounts the peer-facing endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/wfap/intent", h.HandleIntent)
	r.Post("/wfap/negotiate", h.HandleNegotiate)
}

// RegisterAdmin mounts the operator endpoints on the router.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/wfap/audit/{intentID}", h.HandleAuditTrail)
}

// HandleIntent handles POST /wfap/intent: one solicitation request in, one
// signed offer (or rejection) out.
func (h *Handler) HandleIntent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "bank.intent")
	defer span.End()
	requestID := requestcontext.RequestID(ctx)
	peer := requestcontext.PeerName(ctx)

	msg, verification, ok := h.readSigned(w, r, requestID)
	if !ok {
		return
	}

	raw, err := json.Marshal(verification.Payload)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "re-encoding intent", err))
		return
	}
	intent, err := wfap.ParseIntent(raw)
	if err != nil {
		h.logger.WarnContext(ctx, "intent rejected at validation",
			"request_id", requestID, "peer", peer, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if intent.VersionMismatch() {
		h.logger.WarnContext(ctx, "intent protocol version mismatch",
			"request_id", requestID,
			"intent_id", intent.IntentID,
			"version", intent.ProtocolVersion)
	}

	kind := audit.KindIntentReceived
	if !verification.Valid {
		kind = audit.KindIntentUnverified
		h.logger.WarnContext(ctx, "intent signature not verified",
			"request_id", requestID,
			"intent_id", intent.IntentID,
			"signer", verification.Signer,
			"diagnostic", verification.Diagnostic)
	}
	h.trail.Record(kind, intent.IntentID, intent.SenderName, requestID, verification.Payload)

	decision := h.engine.Evaluate(ctx, intent)

	offer := decision.Offer
	if offer == nil {
		offer = &wfap.Offer{
			OfferID:         uuid.NewString(),
			IntentID:        intent.IntentID,
			ProtocolVersion: wfap.ProtocolVersion,
			Status:          wfap.StatusError,
			RejectionReasons: []string{
				"internal underwriting failure, please retry",
			},
		}
	}
	offer.IntentSignatureVerified = &verification.Valid

	switch offer.Status {
	case wfap.StatusRejected:
		h.trail.Record(audit.KindOfferRejected, intent.IntentID, intent.SenderName, requestID, offer)
	case wfap.StatusError:
		h.trail.Record(audit.KindUnderwritingError, intent.IntentID, intent.SenderName, requestID, decision.Err)
	default:
		h.trail.Record(audit.KindOfferExtended, intent.IntentID, intent.SenderName, requestID, offer)
	}

	h.reply(w, ctx, requestID, msg.ContextID, offer)
}

// negotiationRequest is the signed payload of a negotiation round.
type negotiationRequest struct {
	IntentID         string  `json:"intent_id"`
	OfferID          string  `json:"offer_id"`
	NegotiationScore float64 `json:"negotiation_score"`
	CurrentRate      float64 `json:"current_rate"`
	AmountApproved   float64 `json:"amount_approved"`
	DurationMonths   int     `json:"repayment_duration_months"`
}

func (req *negotiationRequest) validate() error {
	switch {
	case req.IntentID == "":
		return dErrors.New(dErrors.CodeValidation, "intent_id is required")
	case req.OfferID == "":
		return dErrors.New(dErrors.CodeValidation, "offer_id is required")
	case req.NegotiationScore < 0 || req.NegotiationScore > 10:
		return dErrors.New(dErrors.CodeValidation, "negotiation_score must be between 0 and 10")
	case req.CurrentRate <= 0:
		return dErrors.New(dErrors.CodeValidation, "current_rate must be positive")
	case req.AmountApproved <= 0:
		return dErrors.New(dErrors.CodeValidation, "amount_approved must be positive")
	case req.DurationMonths <= 0:
		return dErrors.New(dErrors.CodeValidation, "repayment_duration_months must be positive")
	}
	return nil
}

// HandleNegotiate handles POST /wfap/negotiate: a counter against an earlier
// offer comes in, a repriced offer under a fresh offer id goes out.
func (h *Handler) HandleNegotiate(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "bank.negotiate")
	defer span.End()
	requestID := requestcontext.RequestID(ctx)

	msg, verification, ok := h.readSigned(w, r, requestID)
	if !ok {
		return
	}

	raw, err := json.Marshal(verification.Payload)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "re-encoding negotiation", err))
		return
	}
	var req negotiationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeMalformedInput, "negotiation payload is not decodable", err))
		return
	}
	if err := req.validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	offer := h.engine.CounterOffer(req.IntentID, req.AmountApproved, req.DurationMonths,
		req.NegotiationScore, req.CurrentRate)
	offer.IntentSignatureVerified = &verification.Valid

	h.trail.Record(audit.KindNegotiationRound, req.IntentID, verification.Signer, requestID, map[string]any{
		"previous_offer_id": req.OfferID,
		"new_offer_id":      offer.OfferID,
		"negotiation_score": req.NegotiationScore,
		"rate_before":       req.CurrentRate,
		"rate_after":        offer.InterestRateAnnual,
	})

	h.reply(w, ctx, requestID, msg.ContextID, offer)
}

// HandleAuditTrail handles GET /wfap/audit/{intentID} for operators.
func (h *Handler) HandleAuditTrail(w http.ResponseWriter, r *http.Request) {
	intentID := chi.URLParam(r, "intentID")
	if intentID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "intent id is required"))
		return
	}
	events, err := h.store.ListByIntent(r.Context(), intentID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "audit trail lookup failed",
			"intent_id", intentID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeInternal, "listing audit events", err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"intent_id": intentID,
		"events":    events,
	})
}

// readSigned decodes the transport envelope and verifies the signature of
// its payload. Verification failure is not fatal here; the caller decides
// what an unverified payload means.
func (h *Handler) readSigned(w http.ResponseWriter, r *http.Request, requestID string) (*wfap.Message, signing.Verification, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, requestBodyLimit))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(dErrors.CodeBadRequest, "reading request body", err))
		return nil, signing.Verification{}, false
	}

	msg, err := wfap.ParseMessage(body)
	if err != nil {
		h.logger.WarnContext(r.Context(), "undecodable message envelope",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return nil, signing.Verification{}, false
	}

	verification, err := h.signer.Verify(msg.Payload)
	if err != nil {
		h.logger.WarnContext(r.Context(), "unverifiable payload",
			"request_id", requestID, "error", err)
		httputil.WriteError(w, err)
		return nil, signing.Verification{}, false
	}
	return msg, verification, true
}

// reply signs the offer and sends it back under the caller's context id.
func (h *Handler) reply(w http.ResponseWriter, ctx context.Context, requestID, contextID string, offer *wfap.Offer) {
	payload, err := wfap.ToMap(offer)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	signed, err := h.signer.Sign(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "offer signing failed",
			"request_id", requestID, "offer_id", offer.OfferID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	reply, err := wfap.NewMessage(contextID, signed)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reply)
}
