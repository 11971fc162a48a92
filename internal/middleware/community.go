package middleware

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/community-api/internal/errors"
	"github.com/yukikurage/community-api/internal/services"
)

// RequireCommunityMember runs the membership gate for action before the
// handler touches storage.
func RequireCommunityMember(action services.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := GetUser(c)
		decision := services.CheckAccess(user, action)
		if !decision.Allowed {
			switch decision.Reason {
			case services.ReasonLoginRequired:
				apierrors.Unauthorized(c, services.ErrLoginRequired.Error())
			default:
				apierrors.MembershipRequired(c, services.ErrCommunityRequired.Error())
			}
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin allows only users with the admin permission level
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := GetUser(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			apierrors.Forbidden(c, services.ErrAdminRequired.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}
