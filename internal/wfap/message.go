package wfap

import (
	"encoding/json"

	"github.com/google/uuid"

	dErrors "wfap/pkg/domain-errors"
)

// Message is the transport envelope carrying a signed payload between a
// consumer and a bank. The context_id is stable across negotiation rounds
// with the same peer so both sides can correlate a conversation.
type Message struct {
	MessageID string          `json:"message_id"`
	ContextID string          `json:"context_id"`
	Payload   json.RawMessage `json:"payload"`
}

// NewMessage wraps a payload in a fresh envelope under the given context.
func NewMessage(contextID string, payload any) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "message payload marshal failed", err)
	}
	return &Message{
		MessageID: uuid.NewString(),
		ContextID: contextID,
		Payload:   raw,
	}, nil
}

// ParseMessage decodes a transport envelope.
func ParseMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeMalformedInput, "message is not valid JSON", err)
	}
	if len(msg.Payload) == 0 {
		return nil, dErrors.New(dErrors.CodeMalformedInput, "message has no payload")
	}
	return &msg, nil
}
