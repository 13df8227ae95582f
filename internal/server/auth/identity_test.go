package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	ctx := WithIdentity(context.Background(), Identity{Subject: "u1", Identifier: "alice"})
	got, ok := IdentityFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "u1", got.Subject)
	assert.Equal(t, "alice", got.Identifier)
}
