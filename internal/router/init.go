package router

import (
	userapp "github.com/oksasatya/user-management-service/internal/application"
	"github.com/oksasatya/user-management-service/internal/container"
	repouser "github.com/oksasatya/user-management-service/internal/domain/repository"
	pginfra "github.com/oksasatya/user-management-service/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/user-management-service/internal/interface/http"
	"github.com/oksasatya/user-management-service/internal/router/modules"
)

type UserModuleDeps struct {
	Repo    repouser.UserRepository
	Service *userapp.Service
}

func buildUserDeps() UserModuleDeps {
	cfg := container.GetConfig()
	repo := pginfra.NewUserRepository(container.GetPGPool())

	service := userapp.NewService(
		repo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRedis(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		container.GetRabbitPub(),
		cfg.AppName,
		cfg.SupportURL,
	)

	return UserModuleDeps{Repo: repo, Service: service}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	deps := buildUserDeps()

	userHandler := handlers.NewUserHandler(deps.Service, container.GetLogger(), cfg.CookieDomain, cfg.CookieSecure)
	authHandler := handlers.NewAuthHandler(deps.Service, container.GetRedis(), container.GetLogger(), cfg, container.GetRabbitPub())
	adminHandler := handlers.NewAdminHandler(deps.Service, container.GetLogger())

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewAuthModule(authHandler, container.GetJWT()))
	r.Add(modules.NewAdminModule(adminHandler, container.GetJWT()))
}
