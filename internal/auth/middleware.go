package auth

import (
	"errors"
	"net/http"
	"strings"

	"marketplace/internal/api"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
)

// AuthMiddleware requires a bearer access token and stores the caller's
// identity on the gin context.
func AuthMiddleware(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		scheme, token, found := strings.Cut(c.GetHeader("Authorization"), " ")
		switch {
		case scheme == "" && !found:
			api.AbortFail(c, http.StatusUnauthorized, "authorization header required")
			return
		case !found || scheme != "Bearer":
			api.AbortFail(c, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		token = strings.TrimSpace(token)
		if token == "" {
			api.AbortFail(c, http.StatusUnauthorized, "token is empty")
			return
		}

		claims, err := tokens.Parse(token, KindAccess)
		if err != nil {
			switch {
			case errors.Is(err, ErrTokenExpired):
				api.AbortFail(c, http.StatusUnauthorized, "token expired")
			case errors.Is(err, ErrInvalidTokenType):
				api.AbortFail(c, http.StatusUnauthorized, "access token required")
			default:
				api.AbortFail(c, http.StatusUnauthorized, "invalid or malformed token")
			}
			return
		}

		SetIdentity(c, claims.Identity())
		c.Next()
	}
}

func SetIdentity(c *gin.Context, id Identity) {
	c.Set(ctxUserID, id.UserID)
	c.Set(ctxUserEmail, id.Email)
	c.Set(ctxUserRole, id.Role)
}

// RequireRole lets the request through when the caller has any of roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetUserRole(c)
		if !ok {
			api.AbortFail(c, http.StatusUnauthorized, "user role not found")
			return
		}

		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}

		api.AbortFail(c, http.StatusForbidden, "insufficient permissions")
	}
}

func GetUserID(c *gin.Context) (int, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(int)
	return id, ok
}

func GetUserRole(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserRole)
	if !ok {
		return "", false
	}
	role, ok := v.(string)
	return role, ok
}

func GetUserEmail(c *gin.Context) string {
	return c.GetString(ctxUserEmail)
}
