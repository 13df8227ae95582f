package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/models"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/accountd/internal/server/revocation"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type failingRevocations struct{ err error }

func (f failingRevocations) Revoke(context.Context, string, time.Time) error { return f.err }
func (f failingRevocations) IsRevoked(context.Context, string) (bool, error) { return false, f.err }

// -------- fixture --------

const testSecret = "test-secret"

type fixture struct {
	db      *sql.DB
	mock    sqlmock.Sqlmock
	repo    *repotest.Users
	hasher  *auth.Hasher
	tokens  *auth.TokenIssuer
	revoked revocation.Store
	users   *UserService
	auth    *AuthService
}

func newFixture(t *testing.T, verifyAccount bool) *fixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		db:      db,
		mock:    mock,
		repo:    repotest.NewUsers(),
		hasher:  auth.NewHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}, 4),
		tokens:  auth.NewTokenIssuer([]byte(testSecret), time.Hour),
		revoked: revocation.NewMemoryStore(),
	}
	f.rebuild(verifyAccount)
	return f
}

func (f *fixture) rebuild(verifyAccount bool) {
	rm := &repotest.Manager{U: f.repo}
	f.users = NewUserService(f.db, rm, f.hasher, nil, logging.Nop())
	f.auth = NewAuthService(f.db, rm, AuthOptions{
		Users:                  f.users,
		Hasher:                 f.hasher,
		Tokens:                 f.tokens,
		Revocations:            f.revoked,
		VerifyAccountOnResolve: verifyAccount,
		Logger:                 logging.Nop(),
	})
}

// seed stores an account with the given password, bypassing the service.
func (f *fixture) seed(t *testing.T, id, email, username, password string) *models.User {
	t.Helper()
	hash, err := f.hasher.Hash(context.Background(), password)
	require.NoError(t, err)
	u := &models.User{ID: id, Email: email, Username: username, PasswordHash: hash, Confirmed: true}
	f.repo.Put(u)
	return u
}

func (f *fixture) expectTx(commit bool) {
	f.mock.ExpectBegin()
	if commit {
		f.mock.ExpectCommit()
	} else {
		f.mock.ExpectRollback()
	}
}
