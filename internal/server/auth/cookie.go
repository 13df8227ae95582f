package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/server/config"
)

// CookieOptions are the attributes of the session cookie. Attach and clear
// must use the same value so browsers match the cookie on removal.
type CookieOptions struct {
	Name     string
	Path     string
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	MaxAge   time.Duration
}

// CookieOptionsFor derives cookie attributes from cfg. Secure is set only in
// production.
func CookieOptionsFor(cfg *config.Config) CookieOptions {
	name := cfg.CookieName
	if name == "" {
		name = common.DefaultCookieName
	}
	return CookieOptions{
		Name:     name,
		Path:     "/",
		HTTPOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: ParseSameSite(cfg.CookieSameSite),
		MaxAge:   cfg.TokenValidityDuration,
	}
}

// ParseSameSite maps a config value to http.SameSite, defaulting to Strict.
func ParseSameSite(s string) http.SameSite {
	switch strings.ToLower(s) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

func (o CookieOptions) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     o.Name,
		Value:    value,
		Path:     o.Path,
		MaxAge:   maxAge,
		HttpOnly: o.HTTPOnly,
		Secure:   o.Secure,
		SameSite: o.SameSite,
	}
}

// AttachCookie writes the session cookie carrying token.
func AttachCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	http.SetCookie(w, opts.cookie(token, int(opts.MaxAge/time.Second)))
}

// ClearCookie instructs the client to drop the session cookie.
func ClearCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, opts.cookie("", -1))
}

// ExtractToken finds the session token on r: the named cookie first, then
// an "Authorization: Bearer" header. Empty values count as absent.
func ExtractToken(r *http.Request, cookieName string) (string, bool) {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	header := r.Header.Get(common.AuthorizationHeaderName)
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
