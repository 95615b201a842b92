package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-management-service/internal/domain/entity"
	"github.com/oksasatya/user-management-service/pkg/response"
)

// RequireRole gates a route to callers holding one of the listed roles.
// Must run after Auth. The role comes from the session, so a role change
// takes effect on the next login.
func RequireRole(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := entity.Role(c.GetString(CtxUserRoleKey))
		for _, r := range roles {
			if held == r {
				c.Next()
				return
			}
		}
		response.AbortError(c, http.StatusForbidden, "insufficient privileges", nil)
	}
}
