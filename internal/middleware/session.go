package middleware

import (
	"context"
	"strings"

	"github.com/Baaaki/procurehub/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	SessionCookie = "access_token"
	UserIDKey     = "user_id"
	ClaimsKey     = "claims"
)

// Authenticator validates a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*utils.Claims, error)
}

// SessionToken returns the token from the session cookie, falling back to
// an "Authorization: Bearer" header.
func SessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	if token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireSession rejects requests without a valid, unrevoked session token
// and stores the caller's id under UserIDKey.
func RequireSession(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := auth.Authenticate(c.Request.Context(), SessionToken(c))
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// CurrentUserID returns the id RequireSession stored.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
