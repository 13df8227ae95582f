package revocation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*RedisStore, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	s := NewRedisStore(client)
	fixed := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	return s, mock
}

func TestRedisStore_Revoke_SetsTTLToRemainingLifetime(t *testing.T) {
	s, mock := newMockStore(t)
	until := s.now().Add(30 * time.Minute)

	mock.ExpectSet("revoked:jti-1", "1", 30*time.Minute).SetVal("OK")

	require.NoError(t, s.Revoke(context.Background(), "jti-1", until))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Revoke_ExpiredIsNoop(t *testing.T) {
	s, mock := newMockStore(t)

	require.NoError(t, s.Revoke(context.Background(), "jti-1", s.now().Add(-time.Second)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_Revoke_EmptyID(t *testing.T) {
	s, _ := newMockStore(t)
	assert.Error(t, s.Revoke(context.Background(), "", s.now().Add(time.Hour)))
}

func TestRedisStore_Revoke_Error(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectSet("revoked:jti-1", "1", time.Hour).SetErr(errors.New("conn refused"))

	err := s.Revoke(context.Background(), "jti-1", s.now().Add(time.Hour))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conn refused")
}

func TestRedisStore_IsRevoked(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExists("revoked:jti-1").SetVal(1)
	mock.ExpectExists("revoked:jti-2").SetVal(0)
	mock.ExpectExists("revoked:jti-3").SetErr(errors.New("timeout"))

	ok, err := s.IsRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.IsRevoked(context.Background(), "jti-2")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.IsRevoked(context.Background(), "jti-3")
	assert.Error(t, err)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStore_IsRevoked_EmptyID(t *testing.T) {
	s, mock := newMockStore(t)
	ok, err := s.IsRevoked(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}
