package common

const (
	// DefaultCookieName is the session cookie carrying the access token.
	DefaultCookieName = "auth_token"

	// AuthorizationHeaderName and BearerScheme describe the header fallback
	// used by clients that cannot hold cookies.
	AuthorizationHeaderName = "Authorization"
	BearerScheme            = "Bearer"
)
