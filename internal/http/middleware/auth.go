// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Authenticate, which resolves the :authToken path
// parameter to a user before any invitation handler runs.
package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-invitations-backend/internal/auth"
	"github.com/tbourn/go-invitations-backend/internal/domain"
)

const (
	// AuthTokenParam is the route parameter carrying the auth token.
	AuthTokenParam = "authToken"

	// userIDKey holds the authenticated username; the rate limiter and the
	// access log read it.
	userIDKey = "userID"
	// userKey holds the authenticated *domain.User.
	userKey = "user"
)

// Authenticator resolves a token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Authenticate aborts requests whose :authToken does not resolve.
//
// Responses:
//   - 400 InvalidContentError when the token is missing
//   - 401 UnauthorizedError when it does not resolve to an account
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.Authenticate(c.Request.Context(), c.Param(AuthTokenParam))
		if err != nil {
			status, code, msg := http.StatusUnauthorized, "UnauthorizedError", "invalid credentials"
			if errors.Is(err, auth.ErrMissingToken) {
				status, code, msg = http.StatusBadRequest, "InvalidContentError", "invalid content"
			}
			c.AbortWithStatusJSON(status, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       code,
				"message":    msg,
			})
			return
		}

		c.Set(userKey, u)
		c.Set(userIDKey, u.Username)
		c.Next()
	}
}

// UserFrom returns the user attached by Authenticate, or nil.
func UserFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}
