package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/community-api/internal/constants"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/services"
)

// SessionResolver maps a session id to the user it authenticates.
type SessionResolver interface {
	ResolveSession(ctx context.Context, sessionID string) (*services.AuthenticatedUser, error)
}

// LoadSession resolves the session id carried in the cookie session and
// stores the user in the context. Anonymous requests pass through.
func LoadSession(resolver SessionResolver, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, _ := sessions.Default(c).Get(constants.SessionKeyID).(string)
		if sid == "" {
			c.Next()
			return
		}
		c.Set(constants.ContextKeySessionID, sid)

		user, err := resolver.ResolveSession(c.Request.Context(), sid)
		switch {
		case err == nil:
			c.Set(constants.ContextKeyUser, user)
			c.Set(constants.ContextKeyUserID, user.ID)
		case errors.Is(err, services.ErrUnauthorized):
		default:
			log.Error("failed to resolve session", "error", err)
			apierrors.InternalError(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a resolved user
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetUser(c); !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUser retrieves the authenticated user from context
func GetUser(c *gin.Context) (*services.AuthenticatedUser, bool) {
	value, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil, false
	}
	user, ok := value.(*services.AuthenticatedUser)
	return user, ok && user != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}

// GetSessionID returns the session id presented by the client, resolved or not
func GetSessionID(c *gin.Context) string {
	return c.GetString(constants.ContextKeySessionID)
}
