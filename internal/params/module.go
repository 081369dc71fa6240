// Package params provides the backoffice parameter bounded context.
// Parameters are generic key/value settings; the consultant capacity
// limit is the one the assignment flow depends on.
package params

import (
	apphttp "github.com/canerkaradagAI/high5-backoffice-sub000/internal/http"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/handler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/service"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/config"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Module is the parameters bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the parameters module. cache may be
// nil when no Redis instance is configured.
func NewModule(pool *pgxpool.Pool, cache *redis.Client, cfg config.CacheConfig, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cache, cfg.GetParameterCacheTTL(), log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "params"
}

// Service returns the service layer for cross-module wiring (capacity limit).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts parameter routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	adminGroup := ctx.Admin.Group("/parameters")
	adminGroup.GET("", m.handler.List)
	adminGroup.GET("/:key", m.handler.Get)
	adminGroup.PUT("", m.handler.Set)
	adminGroup.DELETE("/:key", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
