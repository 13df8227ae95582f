// Package common defines shared constants and sentinel errors used across
// the accountd server and admin tooling. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors, the taxonomy surfaced to HTTP callers.
	ErrorInternal           = errors.New("internal error")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorUnauthenticated    = errors.New("unauthenticated")
	ErrorConflict           = errors.New("account already exists")
	ErrorValidation         = errors.New("validation error")

	// Credential verifier errors.
	ErrorMalformedHash = errors.New("malformed password hash")

	// Token errors (invalid signature, tampered or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenRevoked = errors.New("token revoked")
)
