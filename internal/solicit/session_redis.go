package solicit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	dErrors "wfap/pkg/domain-errors"
)

const (
	// Redis key prefix for peer session contexts
	sessionKeyPrefix = "wfap:session:"

	// Sessions outlive a single solicitation so negotiation rounds can
	// correlate, but not forever.
	sessionTTL = 24 * time.Hour
)

// RedisSessionStore shares peer session contexts across consumer instances.
// This is the production-recommended implementation for distributed
// deployments.
type RedisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore constructs a Redis-backed session store.
func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

// ContextID implements SessionStore. SetNX keeps the operation atomic when
// two solicitations race on the same peer.
func (s *RedisSessionStore) ContextID(ctx context.Context, peer string) (string, error) {
	key := sessionKeyPrefix + peer

	existing, err := s.client.Get(ctx, key).Result()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", dErrors.Wrap(dErrors.CodeInternal, "reading peer session", err)
	}

	fresh := uuid.NewString()
	created, err := s.client.SetNX(ctx, key, fresh, sessionTTL).Result()
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "storing peer session", err)
	}
	if created {
		return fresh, nil
	}

	// Lost the race; read back the winner's id.
	winner, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "reading peer session after race", err)
	}
	return winner, nil
}
