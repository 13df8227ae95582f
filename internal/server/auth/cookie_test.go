package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/accountd/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(env string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Environment = env
	return cfg
}

func TestCookieOptionsFor(t *testing.T) {
	dev := CookieOptionsFor(testConfig(config.EnvDevelopment))
	assert.Equal(t, "auth_token", dev.Name)
	assert.Equal(t, "/", dev.Path)
	assert.True(t, dev.HTTPOnly)
	assert.False(t, dev.Secure)
	assert.Equal(t, http.SameSiteStrictMode, dev.SameSite)
	assert.Equal(t, 24*time.Hour, dev.MaxAge)

	prod := CookieOptionsFor(testConfig(config.EnvProduction))
	assert.True(t, prod.Secure)
}

func TestParseSameSite(t *testing.T) {
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite("Lax"))
	assert.Equal(t, http.SameSiteNoneMode, ParseSameSite("none"))
	assert.Equal(t, http.SameSiteStrictMode, ParseSameSite("strict"))
	assert.Equal(t, http.SameSiteStrictMode, ParseSameSite(""))
}

func TestAttachAndClearCookie_SameAttributes(t *testing.T) {
	opts := CookieOptionsFor(testConfig(config.EnvProduction))

	rec := httptest.NewRecorder()
	AttachCookie(rec, "tok", opts)
	set := rec.Result().Cookies()
	require.Len(t, set, 1)

	rec = httptest.NewRecorder()
	ClearCookie(rec, opts)
	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)

	a, c := set[0], cleared[0]
	assert.Equal(t, "tok", a.Value)
	assert.Equal(t, 86400, a.MaxAge)
	assert.Equal(t, "", c.Value)
	assert.Equal(t, -1, c.MaxAge)

	assert.Equal(t, a.Name, c.Name)
	assert.Equal(t, a.Path, c.Path)
	assert.Equal(t, a.HttpOnly, c.HttpOnly)
	assert.Equal(t, a.Secure, c.Secure)
	assert.Equal(t, a.SameSite, c.SameSite)
}

func TestExtractToken(t *testing.T) {
	cases := []struct {
		name   string
		cookie string
		header string
		want   string
		ok     bool
	}{
		{name: "cookie", cookie: "from-cookie", want: "from-cookie", ok: true},
		{name: "bearer", header: "Bearer from-header", want: "from-header", ok: true},
		{name: "bearer lowercase", header: "bearer t", want: "t", ok: true},
		{name: "cookie wins", cookie: "c", header: "Bearer h", want: "c", ok: true},
		{name: "empty cookie falls back", cookie: "", header: "Bearer h", want: "h", ok: true},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz"},
		{name: "bearer without token", header: "Bearer "},
		{name: "nothing"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.cookie != "" {
				r.AddCookie(&http.Cookie{Name: "auth_token", Value: tc.cookie})
			}
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}
			got, ok := ExtractToken(r, "auth_token")
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}
