// Package revocation records session tokens that were logged out before
// their natural expiry.
package revocation

import (
	"context"
	"time"
)

// Store remembers revoked token IDs until the token would have expired
// anyway. Entries past `until` may be forgotten.
type Store interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
