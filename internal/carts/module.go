// Package carts provides the cart bounded context: the single open cart
// per customer, line mutations with recomputed totals, checkout into the
// customer's lifetime spend, and sharing carts to the external shopping
// application.
package carts

import (
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/handler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/service"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/scheduler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the carts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the carts module. enqueuer may be
// nil when no background queue is configured.
func NewModule(pool *pgxpool.Pool, enqueuer scheduler.CartShareEnqueuer, bus events.Bus, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, enqueuer, bus, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "carts"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts cart routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.POST("/customers/:id/cart", m.handler.OpenCart)

	group := ctx.Protected.Group("/carts")
	group.GET("/:id", m.handler.Get)
	group.POST("/:id/items", m.handler.AddItem)
	group.PATCH("/:id/items/:itemId", m.handler.UpdateQuantity)
	group.DELETE("/:id/items/:itemId", m.handler.RemoveItem)
	group.POST("/:id/checkout", m.handler.Checkout)
	group.POST("/:id/share", m.handler.Share)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
