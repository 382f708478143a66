// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Middleware sets them; services read them. Keeping
// this package free of net/http lets the underwriting and solicitation code
// stay transport-agnostic.
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	requestIDKey   struct{}
	peerNameKey    struct{}
	contextIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyPeerName    = peerNameKey{}
	ContextKeyContextID   = contextIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// PeerName retrieves the authenticated peer name from the context.
func PeerName(ctx context.Context) string {
	if peer, ok := ctx.Value(ContextKeyPeerName).(string); ok {
		return peer
	}
	return ""
}

// WithPeerName injects the authenticated peer name into the context.
func WithPeerName(ctx context.Context, peer string) context.Context {
	return context.WithValue(ctx, ContextKeyPeerName, peer)
}

// ContextID retrieves the conversational context ID shared with a peer.
func ContextID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyContextID).(string); ok {
		return id
	}
	return ""
}

// WithContextID injects a conversational context ID into the context.
func WithContextID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyContextID, id)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (workers, CLI, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests that don't run the full HTTP middleware chain.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
