// Package customers provides the customer bounded context: intake,
// profile management, the assignment pool and the capacity policy that
// governs who may take a customer.
package customers

import (
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/handler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/service"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the customers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the customers module. The directory
// and limit source come from their owning modules via the composition
// root.
func NewModule(pool *pgxpool.Pool, directory service.ConsultantDirectory, limits service.CapacityLimitSource, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, directory, limits, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "customers"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts customer routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/customers")
	group.GET("", m.handler.List)
	group.GET("/pool", m.handler.Pool)
	group.POST("", m.handler.Create)
	group.GET("/:id", m.handler.Get)
	group.PATCH("/:id", m.handler.Update)
	group.POST("/:id/take", m.handler.Take)
	group.POST("/:id/transfer", m.handler.Transfer)
	group.POST("/:id/release", m.handler.Release)

	ctx.Admin.DELETE("/customers/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
