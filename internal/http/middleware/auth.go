package middleware

import (
	"net/http"
	"strings"

	"charter/internal/domain"

	"github.com/gin-gonic/gin"
)

const userKey = "auth_user"

// TokenVerifier checks an admin bearer token.
type TokenVerifier interface {
	VerifyAdmin(raw string) (domain.RequestContext, error)
}

// RequireAdmin rejects requests without a valid admin bearer token and
// stores the caller on the context.
func RequireAdmin(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := tokens.VerifyAdmin(bearerToken(c))
		if err != nil {
			abortUnauthorized(c, http.StatusUnauthorized, domain.UnauthorizedReason(err))
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// RequireRoles allows only callers whose role is in allowedRoles. It must run
// after RequireAdmin.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abortUnauthorized(c, http.StatusUnauthorized, domain.ReasonMissing)
			return
		}
		if _, ok := allowed[strings.ToLower(user.Role)]; !ok {
			abortUnauthorized(c, http.StatusForbidden, domain.ReasonForbidden)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the caller set by RequireAdmin.
func CurrentUser(c *gin.Context) (domain.RequestContext, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domain.RequestContext{}, false
	}
	u, ok := v.(domain.RequestContext)
	return u, ok
}

func bearerToken(c *gin.Context) string {
	h := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func abortUnauthorized(c *gin.Context, status int, reason string) {
	if reason == "" {
		reason = domain.ReasonInvalid
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error":      "authentication required",
		"code":       "unauthorized",
		"reason":     reason,
		"request_id": GetRequestID(c),
	})
}
