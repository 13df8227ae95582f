// Package auth implements the authentication boundary: argon2id password
// hashing, HS256 session tokens, cookie/bearer transport and the Identity
// carried through request contexts.
package auth

import (
	"context"
	"time"
)

// Identity is the authenticated principal decoded from a session token.
type Identity struct {
	Subject    string
	Identifier string
	TokenID    string
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

type identityContextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext returns the Identity attached by the access guard.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
