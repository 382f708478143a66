package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const defaultInboxSize = 256

// Trail accepts audit events from request handlers and writes them out on a
// background goroutine, so the hot path never blocks on storage or Kafka.
// Recording is best effort: a full inbox drops the event with a warning
// rather than stalling the caller.
type Trail struct {
	store     Store
	publisher Publisher
	inbox     chan Event
	logger    *slog.Logger
	clock     func() time.Time
}

// TrailOption configures a Trail.
type TrailOption func(*Trail)

// WithPublisher streams every stored event to the given publisher as well.
func WithPublisher(p Publisher) TrailOption {
	return func(t *Trail) {
		t.publisher = p
	}
}

// WithLogger sets the logger used for delivery failures.
func WithLogger(logger *slog.Logger) TrailOption {
	return func(t *Trail) {
		t.logger = logger
	}
}

// WithClock overrides the event timestamp source.
func WithClock(clock func() time.Time) TrailOption {
	return func(t *Trail) {
		t.clock = clock
	}
}

// NewTrail creates a trail backed by the given store.
func NewTrail(store Store, opts ...TrailOption) *Trail {
	t := &Trail{
		store:  store,
		inbox:  make(chan Event, defaultInboxSize),
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Record enqueues an event. The payload is JSON-encoded here so callers can
// pass domain values directly; an unencodable payload is recorded without one.
func (t *Trail) Record(kind Kind, intentID, sender, requestID string, payload any) {
	event := Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		IntentID:   intentID,
		Sender:     sender,
		RequestID:  requestID,
		RecordedAt: t.clock().UTC(),
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.logger.Warn("audit payload not encodable", "kind", kind, "intent_id", intentID, "error", err)
		} else {
			event.Payload = raw
		}
	}
	select {
	case t.inbox <- event:
	default:
		t.logger.Warn("audit inbox full, dropping event", "kind", kind, "intent_id", intentID)
	}
}

// Run drains the inbox until ctx is cancelled. Delivery failures are logged
// and the loop keeps going; audit must never take the agent down.
func (t *Trail) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-t.inbox:
			t.deliver(ctx, event)
		}
	}
}

func (t *Trail) deliver(ctx context.Context, event Event) {
	if err := t.store.Insert(ctx, event); err != nil {
		t.logger.Error("persisting audit event", "kind", event.Kind, "intent_id", event.IntentID, "error", err)
	}
	if t.publisher == nil {
		return
	}
	if err := t.publisher.Publish(ctx, event); err != nil {
		t.logger.Error("publishing audit event", "kind", event.Kind, "intent_id", event.IntentID, "error", err)
	}
}
