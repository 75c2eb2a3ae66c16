package middleware

import (
	"net/http"
	"strings"

	"tourbook/internal/domain"

	"github.com/gin-gonic/gin"
)

const callerKey = "caller"

// TokenParser verifies a bearer token and returns the caller it identifies.
type TokenParser interface {
	ParseToken(raw string) (domain.RequestContext, error)
}

// Auth requires a valid bearer token and stores the caller on the context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		rc, err := parser.ParseToken(strings.TrimSpace(token))
		if err != nil {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		c.Set(callerKey, rc)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not listed.
func RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := Caller(c)
		if !ok {
			abortJSON(c, http.StatusUnauthorized, "unauthorized", "missing caller identity")
			return
		}
		for _, r := range roles {
			if rc.Role == r {
				c.Next()
				return
			}
		}
		abortJSON(c, http.StatusForbidden, "forbidden", "role not allowed for this resource")
	}
}

// Caller returns the authenticated caller set by Auth.
func Caller(c *gin.Context) (domain.RequestContext, bool) {
	v, ok := c.Get(callerKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	rc, ok := v.(domain.RequestContext)
	return rc, ok
}
