// Package auth provides the authentication bounded context module:
// sign-in, token refresh, and the /auth HTTP surface. The role enum
// lives in the leaf package auth/roles.
package auth

import (
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/handler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/service"
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    *repository.Repository
}

// NewModule creates and initializes the auth module with all its dependencies.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes. Credential endpoints sit behind the
// stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.AuthRateLimiter.RateLimit())
	group.POST("/sign-in", m.handler.SignIn)
	group.POST("/refresh", m.handler.Refresh)
	group.POST("/sign-out", m.handler.SignOut)

	ctx.Protected.GET("/auth/me", m.handler.Me)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
