package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"userhub/internal/domain/user"
)

// Keep these interfaces small so tests can fake them easily.

type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserGetter
}

func NewAuthMiddleware(jwt TokenVerifier, users UserGetter) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users}
}

// RequireAuth extracts the bearer token, verifies it and resolves the subject
// against the live user record, so a token for a deleted account is rejected
// and downstream checks always see current role and status.
//
// It does not gate on status: a deactivated user still authenticates here and
// can reach non-admin routes until their token expires. Only the admin
// endpoints apply further checks.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c, "Missing or invalid Authorization header")
			return
		}

		raw := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))

		if raw == "" {
			abortUnauthorized(c, "Missing or invalid access token")
			return
		}

		subject, err := m.jwt.Verify(raw)

		if err != nil {
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		u, err := m.users.GetByID(c.Request.Context(), subject)

		if err != nil {
			// covers accounts deleted after the token was issued
			abortUnauthorized(c, "Invalid or expired access token")
			return
		}

		SetCurrentUser(c, u)

		c.Next()
	}
}

// SetCurrentUser stashes the resolved identity on the request context.
func SetCurrentUser(c *gin.Context, u user.User) {
	c.Set(ctxUserKey, u)
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}

// CurrentUser returns the identity resolved by RequireAuth.
func CurrentUser(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)

	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)

	return u, ok
}
