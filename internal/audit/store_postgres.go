package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists audit events in PostgreSQL. Schema:
//
//	CREATE TABLE audit_events (
//	    id          TEXT PRIMARY KEY,
//	    kind        TEXT NOT NULL,
//	    intent_id   TEXT NOT NULL,
//	    sender      TEXT NOT NULL DEFAULT '',
//	    request_id  TEXT NOT NULL DEFAULT '',
//	    payload     JSONB,
//	    recorded_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX audit_events_intent_idx ON audit_events (intent_id, recorded_at);
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed audit store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Insert implements Store. Events are append-only; a duplicate id is a bug
// upstream and surfaces as a constraint error.
func (s *PostgresStore) Insert(ctx context.Context, event Event) error {
	query := `
		INSERT INTO audit_events (id, kind, intent_id, sender, request_id, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	var payload any
	if len(event.Payload) > 0 {
		payload = []byte(event.Payload)
	}
	_, err := s.db.ExecContext(ctx, query,
		event.ID, string(event.Kind), event.IntentID, event.Sender, event.RequestID, payload, event.RecordedAt)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByIntent implements Store. Events come back oldest first.
func (s *PostgresStore) ListByIntent(ctx context.Context, intentID string) ([]Event, error) {
	query := `
		SELECT id, kind, intent_id, sender, request_id, payload, recorded_at
		FROM audit_events
		WHERE intent_id = $1
		ORDER BY recorded_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, intentID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e       Event
			kind    string
			payload []byte
		)
		if err := rows.Scan(&e.ID, &kind, &e.IntentID, &e.Sender, &e.RequestID, &payload, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Kind = Kind(kind)
		e.Payload = payload
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
