package service

import (
	"context"
	"time"
)

// TokenRevocationList remembers access tokens that were logged out before
// their natural expiry.
type TokenRevocationList interface {
	// Revoke blocks the token id for ttl.
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error

	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// Purge drops entries whose ttl has elapsed. Stores with native expiry may no-op.
	Purge(ctx context.Context) error
}
