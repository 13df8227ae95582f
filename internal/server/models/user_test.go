package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_Profile_OmitsCredentials(t *testing.T) {
	first := "Alice"
	u := &User{
		ID:           "u-1",
		Email:        "alice@example.com",
		Username:     "alice",
		FirstName:    &first,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		Blocked:      true,
		Confirmed:    true,
		CreatedAt:    time.Unix(0, 0).UTC(),
	}

	b, err := json.Marshal(u.Profile())
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(b, &body))

	assert.Equal(t, "u-1", body["id"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, "Alice", body["firstName"])
	assert.Nil(t, body["lastName"])
	assert.NotContains(t, body, "hash")
	assert.NotContains(t, body, "passwordHash")
	assert.NotContains(t, body, "PasswordHash")
	assert.NotContains(t, body, "blocked")
}

func TestProfileUpdate_Empty(t *testing.T) {
	assert.True(t, ProfileUpdate{}.Empty())
	name := "bob"
	assert.False(t, ProfileUpdate{Username: &name}.Empty())
}
