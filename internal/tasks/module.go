// Package tasks provides the store task bounded context: ad-hoc and
// definition-based tasks, the claimable pool a consultant or runner works
// from, and manager-maintained task definitions.
package tasks

import (
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/handler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/service"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the tasks bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the tasks module.
func NewModule(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "tasks"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for the reminder job.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts task routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/tasks")
	group.POST("", m.handler.Create)
	group.GET("/pool", m.handler.Pool)
	group.GET("/mine", m.handler.Mine)
	group.GET("/created", m.handler.CreatedByMe)
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/take", m.handler.Take)
	group.POST("/:id/complete", m.handler.Complete)
	group.POST("/:id/cancel", m.handler.Cancel)

	ctx.Protected.GET("/task-definitions", m.handler.ListDefinitions)
	defGroup := ctx.Admin.Group("/task-definitions")
	defGroup.POST("", m.handler.CreateDefinition)
	defGroup.PUT("/:id", m.handler.UpdateDefinition)
	defGroup.DELETE("/:id", m.handler.DeleteDefinition)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
