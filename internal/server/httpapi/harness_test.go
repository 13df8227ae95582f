package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/config"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/dmitrijs2005/accountd/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/accountd/internal/server/revocation"
	"github.com/dmitrijs2005/accountd/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type harness struct {
	srv    *Server
	mock   sqlmock.Sqlmock
	repo   *repotest.Users
	hasher *auth.Hasher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{}
	cfg.LoadDefaults()

	rm := repotest.NewManager()
	hasher := auth.NewHasher(auth.Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}, 4)
	reg, m := metrics.NewRegistry()

	users := services.NewUserService(db, rm, hasher, m, logging.Nop())
	authSvc := services.NewAuthService(db, rm, services.AuthOptions{
		Users:                  users,
		Hasher:                 hasher,
		Tokens:                 auth.NewTokenIssuer([]byte(cfg.SecretKey), cfg.TokenValidityDuration),
		Revocations:            revocation.NewMemoryStore(),
		VerifyAccountOnResolve: true,
		Metrics:                m,
		Logger:                 logging.Nop(),
	})

	srv := NewServer(Options{
		Address:  "127.0.0.1:0",
		Auth:     authSvc,
		Users:    users,
		Cookie:   auth.CookieOptionsFor(cfg),
		DB:       db,
		Metrics:  m,
		Gatherer: reg,
		Logger:   logging.Nop(),
	})

	return &harness{srv: srv, mock: mock, repo: rm.U, hasher: hasher}
}

type reqOpt func(*http.Request)

func withCookie(c *http.Cookie) reqOpt {
	return func(r *http.Request) { r.AddCookie(c) }
}

func withBearer(token string) reqOpt {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func (h *harness) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler().ServeHTTP(rec, req)
	return rec
}

// register creates an account over HTTP and returns its session cookie.
func (h *harness) register(t *testing.T, email, username, password string) *http.Cookie {
	t.Helper()
	h.mock.ExpectBegin()
	h.mock.ExpectCommit()
	rec := h.do(t, http.MethodPost, "/auth/register", gin.H{"email": email, "username": username, "password": password})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "auth_token" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rec)["error"]
}

