// middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aegis-admin/aegis/authz"
	"github.com/aegis-admin/aegis/identity"
	"github.com/aegis-admin/aegis/util"
)

// Authenticate resolves the Bearer token into an identity snapshot and
// stores it in the request context. Requests without a valid, registered
// token are rejected.
func Authenticate(cache *identity.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header missing"})
			return
		}

		ident, err := cache.Resolve(c.Request.Context(), token)
		if err != nil {
			util.HandleError(c, err)
			c.Abort()
			return
		}

		c.Set(util.IdentityKey, ident)
		c.Next()
	}
}

// Authorize runs the RBAC decision for the route using the identity the
// Authenticate middleware resolved. The permission identifier is bound per
// route; an empty identifier means the route carries no permission tag.
func Authorize(engine *authz.Engine, requiredPerm string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident := util.GetIdentityFromContext(c)
		if ident == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}

		if err := engine.Authorize(c.Request.Context(), ident, requiredPerm, c.FullPath(), c.Request.Method); err != nil {
			util.HandleError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
