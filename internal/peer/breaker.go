package peer

import (
	"context"
	"fmt"

	"log/slog"

	dErrors "wfap/pkg/domain-errors"
	"wfap/pkg/platform/circuit"
)

// BreakerConnection wraps a Connection with a circuit breaker so a bank that
// keeps failing stops eating its per-peer timeout on every round and fails
// fast instead.
type BreakerConnection struct {
	conn    Connection
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// BreakerOption configures a BreakerConnection.
type BreakerOption func(*BreakerConnection)

// WithBreakerLogger sets the logger for state transitions.
func WithBreakerLogger(logger *slog.Logger) BreakerOption {
	return func(b *BreakerConnection) { b.logger = logger }
}

// WithBreaker replaces the default breaker, e.g. to tune thresholds.
func WithBreaker(breaker *circuit.Breaker) BreakerOption {
	return func(b *BreakerConnection) { b.breaker = breaker }
}

// NewBreakerConnection guards conn with a consecutive-failure breaker.
func NewBreakerConnection(conn Connection, opts ...BreakerOption) *BreakerConnection {
	b := &BreakerConnection{
		conn:    conn,
		breaker: circuit.New(conn.Name()),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements Connection.
func (b *BreakerConnection) Name() string { return b.conn.Name() }

// Send implements Connection. An open circuit returns a communication error
// without touching the network; outcomes feed back into the breaker.
func (b *BreakerConnection) Send(ctx context.Context, body []byte) ([]byte, error) {
	if b.breaker.IsOpen() {
		return nil, dErrors.New(dErrors.CodeCommunication,
			fmt.Sprintf("peer %q circuit is open", b.conn.Name()))
	}

	payload, err := b.conn.Send(ctx, body)
	if err != nil {
		if _, change := b.breaker.RecordFailure(); change.Opened {
			b.logger.Warn("peer circuit opened", "peer", b.conn.Name())
		}
		return nil, err
	}

	if _, change := b.breaker.RecordSuccess(); change.Closed {
		b.logger.Info("peer circuit closed", "peer", b.conn.Name())
	}
	return payload, nil
}
