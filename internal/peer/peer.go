// Package peer abstracts the transport to counterparty banks. The
// orchestrator only sees the Connection interface; the HTTP implementation
// and test doubles both satisfy it.
package peer

import "context"

//go:generate mockgen -source=peer.go -destination=mocks/mocks.go -package=mocks Connection

// Connection delivers one signed request body to a counterparty bank and
// returns the raw response body. Implementations must honor context
// cancellation and return an error rather than block past the deadline.
type Connection interface {
	Name() string
	Send(ctx context.Context, body []byte) ([]byte, error)
}
