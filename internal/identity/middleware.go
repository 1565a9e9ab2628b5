package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const principalKey = "principal"

// Middleware requires a valid bearer token and stores the principal in
// the gin context.
func Middleware(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "unauthenticated",
				"message": "missing or invalid Authorization header",
			})
			return
		}

		p, err := v.Verify(strings.TrimSpace(token))
		if err != nil {
			status, code := http.StatusUnauthorized, "unauthenticated"
			if errors.Is(err, ErrBlocked) {
				status, code = http.StatusForbidden, "forbidden"
			}
			c.AbortWithStatusJSON(status, gin.H{"code": code, "message": "invalid token"})
			return
		}

		c.Set(principalKey, p)
		c.Next()
	}
}

// CurrentPrincipal returns the principal stored by Middleware.
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// CurrentUserID is the id of the authenticated caller, or "".
func CurrentUserID(c *gin.Context) string {
	p, _ := CurrentPrincipal(c)
	return p.ID
}
