package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/user-management-service/internal/container"
	"github.com/oksasatya/user-management-service/internal/domain/entity"
	handlers "github.com/oksasatya/user-management-service/internal/interface/http"
	"github.com/oksasatya/user-management-service/internal/interface/middleware"
	"github.com/oksasatya/user-management-service/pkg/helpers"
)

// AdminModule registers the account administration routes under /api/admin.
// Every route requires an authenticated MANAGER or ADMIN session.

type AdminModule struct {
	Handler *handlers.AdminHandler
	JWT     *helpers.JWTManager
}

func NewAdminModule(h *handlers.AdminHandler, jwt *helpers.JWTManager) *AdminModule {
	return &AdminModule{Handler: h, JWT: jwt}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(container.GetRedis(), m.JWT))
	admin.Use(middleware.RequireRole(entity.RoleManager, entity.RoleAdmin))
	admin.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()))
	{
		admin.GET("/users", m.Handler.List)
		admin.GET("/users/search", m.Handler.Search)
		admin.GET("/users/:id", m.Handler.Get)
		admin.PATCH("/users/:id", m.Handler.Update)
		admin.DELETE("/users/:id", m.Handler.Delete)
		admin.POST("/users/:id/lock", m.Handler.Lock)
		admin.POST("/users/:id/unlock", m.Handler.Unlock)
		admin.POST("/users/:id/reset-attempts", m.Handler.ResetAttempts)
		admin.PUT("/users/:id/professional", m.Handler.SetProfessionalStatus)
	}
}
