package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/accountd/internal/common"
	"github.com/dmitrijs2005/accountd/internal/logging"
	"github.com/dmitrijs2005/accountd/internal/server/auth"
	"github.com/dmitrijs2005/accountd/internal/server/metrics"
	"github.com/gin-gonic/gin"
)

// Resolver turns a presented token into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (auth.Identity, error)
}

// PublicRoutes is the set of routes reachable without a session, keyed by
// method and registered path pattern.
type PublicRoutes map[string]struct{}

func NewPublicRoutes() PublicRoutes {
	return PublicRoutes{}
}

func routeKey(method, path string) string {
	return method + " " + path
}

func (p PublicRoutes) Add(method, path string) {
	p[routeKey(method, path)] = struct{}{}
}

func (p PublicRoutes) Contains(method, path string) bool {
	_, ok := p[routeKey(method, path)]
	return ok
}

// Guard rejects requests to non-public routes that do not carry a
// resolvable session token. On success the Identity is attached to the
// request context. Unmatched routes are not public.
func Guard(resolver Resolver, cookieName string, public PublicRoutes, m *metrics.Metrics, logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if route := c.FullPath(); route != "" && public.Contains(c.Request.Method, route) {
			m.Guard(metrics.DecisionPublic)
			c.Next()
			return
		}

		ctx := c.Request.Context()

		token, ok := auth.ExtractToken(c.Request, cookieName)
		if !ok {
			m.Guard(metrics.DecisionDenied)
			writeError(c, common.ErrorUnauthenticated)
			return
		}

		id, err := resolver.Resolve(ctx, token)
		if err != nil {
			m.Guard(metrics.DecisionDenied)
			logger.Debug(ctx, "access denied", "path", c.Request.URL.Path)
			writeError(c, common.ErrorUnauthenticated)
			return
		}

		m.Guard(metrics.DecisionAllowed)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, id))
		c.Next()
	}
}

// identity returns the Identity the guard attached. Guarded handlers can
// rely on it being present.
func identity(c *gin.Context) (auth.Identity, bool) {
	id, ok := auth.IdentityFromContext(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": common.ErrorUnauthenticated.Error()})
	}
	return id, ok
}
