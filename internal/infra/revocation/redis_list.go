package revocation

import (
	"context"
	"time"

	"github.com/brunoeugeniodev/NaLojaTem/internal/domain/service"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

type redisList struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisList stores one key per revoked token and lets Redis expire it.
func NewRedisList(client redis.UniversalClient, keyPrefix string) service.TokenRevocationList {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}

	return &redisList{client: client, keyPrefix: keyPrefix}
}

func (l *redisList) key(tokenID string) string {
	return l.keyPrefix + tokenID
}

func (l *redisList) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if tokenID == "" || ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.key(tokenID), 1, ttl).Err(); err != nil {
		return errors.Wrap(err, "failed to revoke token")
	}

	return nil
}

func (l *redisList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	n, err := l.client.Exists(ctx, l.key(tokenID)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check token revocation")
	}

	return n > 0, nil
}

// Purge is a no-op: keys carry their own TTL.
func (l *redisList) Purge(context.Context) error {
	return nil
}
