package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the signed payload: standard claims plus the identifier the
// account authenticated with.
type Claims struct {
	jwt.RegisteredClaims
	Identifier string `json:"identifier"`
}

// TokenIssuer issues and verifies HS256 session tokens.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

func NewTokenIssuer(secret []byte, validity time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: secret, validity: validity, now: time.Now}
}

// Validity is the configured token lifetime.
func (t *TokenIssuer) Validity() time.Duration {
	return t.validity
}

// Issue signs a new token for subject. Each token carries a fresh jti so
// it can be revoked individually.
func (t *TokenIssuer) Issue(subject, identifier string) (string, Identity, error) {
	if subject == "" {
		return "", Identity{}, fmt.Errorf("%w: empty subject", common.ErrorValidation)
	}

	now := t.now().Truncate(time.Second)
	id := Identity{
		Subject:    subject,
		Identifier: identifier,
		TokenID:    uuid.NewString(),
		IssuedAt:   now,
		ExpiresAt:  now.Add(t.validity),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject,
			ID:        id.TokenID,
			IssuedAt:  jwt.NewNumericDate(id.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(id.ExpiresAt),
		},
		Identifier: identifier,
	})

	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", Identity{}, err
	}
	return signed, id, nil
}

// Verify checks signature, algorithm and expiry and returns the decoded
// Identity. Expired tokens yield common.ErrTokenExpired, every other
// failure common.ErrInvalidToken.
func (t *TokenIssuer) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return Identity{}, common.ErrInvalidToken
	}

	id := Identity{
		Subject:    claims.Subject,
		Identifier: claims.Identifier,
		TokenID:    claims.ID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		id.IssuedAt = claims.IssuedAt.Time
	}
	return id, nil
}
