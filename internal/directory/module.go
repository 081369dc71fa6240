// Package directory provides the user-directory bounded context module.
// It resolves consultants (activity, roles, derived customer load) for the
// assignment flows and exposes admin user management.
package directory

import (
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/handler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/service"
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the directory bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the directory module with all its dependencies.
func NewModule(pool *pgxpool.Pool, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "directory"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for cross-module wiring (capacity policy).
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts directory routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/consultants", m.handler.ListConsultants)
	ctx.Protected.GET("/consultants/:id", m.handler.GetConsultant)

	adminGroup := ctx.Admin.Group("/users")
	adminGroup.GET("", m.handler.ListUsers)
	adminGroup.POST("", m.handler.CreateUser)
	adminGroup.PATCH("/:id/activate", m.handler.Activate)
	adminGroup.PATCH("/:id/deactivate", m.handler.Deactivate)
	adminGroup.PUT("/:id/roles", m.handler.SetRoles)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
