package service

import (
	"context"
	"strconv"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/params/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyMaxCustomersPerConsultant is the canonical capacity parameter key.
	KeyMaxCustomersPerConsultant = "max_customers_per_consultant"

	// legacyKeyMaxCustomers is the uppercase key older deployments seeded.
	// It is read as a fallback and should be migrated to the canonical key.
	legacyKeyMaxCustomers = "MAX_CUSTOMER_PER_CONSULTANT"

	// defaultMaxCustomers applies when the parameter is missing or invalid.
	defaultMaxCustomers = 1

	cacheKeyPrefix = "params:"
)

// Service manages backoffice parameters with a small read-through cache.
type Service struct {
	repo     repository.Repository
	cache    *redis.Client
	cacheTTL time.Duration
	log      *logger.Logger
}

// New creates a parameter service. cache may be nil; reads then always
// hit the database.
func New(repo repository.Repository, cache *redis.Client, cacheTTL time.Duration, log *logger.Logger) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL, log: log}
}

// List returns all parameters.
func (s *Service) List(ctx context.Context) ([]transport.ParameterResponse, error) {
	params, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list parameters", err).WithOp("params.List")
	}

	out := make([]transport.ParameterResponse, 0, len(params))
	for _, p := range params {
		out = append(out, toResponse(p))
	}
	return out, nil
}

// Get returns one parameter by key.
func (s *Service) Get(ctx context.Context, key string) (transport.ParameterResponse, error) {
	p, err := s.repo.Get(ctx, key)
	if err != nil {
		return transport.ParameterResponse{}, err
	}
	return toResponse(p), nil
}

// Set creates or updates a parameter and drops the cached value.
func (s *Service) Set(ctx context.Context, req transport.SetParameterRequest) (transport.ParameterResponse, error) {
	p, err := s.repo.Upsert(ctx, repository.Parameter{
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
	})
	if err != nil {
		return transport.ParameterResponse{}, apperr.Wrap(apperr.KindInternal, "save parameter", err).WithOp("params.Set")
	}

	s.invalidate(ctx, p.Key)
	return toResponse(p), nil
}

// Delete removes a parameter and drops the cached value.
func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

// MaxCustomersPerConsultant resolves the consultant capacity limit.
// The canonical key wins; the legacy uppercase key is consulted as a
// fallback. Any non-negative value is honored, zero included; missing,
// unparseable or negative values fall back to the default of 1 so
// assignment never becomes unbounded by accident.
func (s *Service) MaxCustomersPerConsultant(ctx context.Context) int {
	raw, ok := s.lookup(ctx, KeyMaxCustomersPerConsultant)
	if !ok {
		raw, ok = s.lookup(ctx, legacyKeyMaxCustomers)
		if ok {
			s.log.Warn("capacity parameter resolved via legacy key",
				"legacy_key", legacyKeyMaxCustomers,
				"canonical_key", KeyMaxCustomersPerConsultant)
		}
	}
	if !ok {
		return defaultMaxCustomers
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		s.log.Warn("invalid capacity parameter value, using default",
			"value", raw, "default", defaultMaxCustomers)
		return defaultMaxCustomers
	}
	return limit
}

// lookup reads a parameter value through the cache.
func (s *Service) lookup(ctx context.Context, key string) (string, bool) {
	if s.cache != nil {
		val, err := s.cache.Get(ctx, cacheKeyPrefix+key).Result()
		if err == nil {
			return val, true
		}
	}

	p, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", false
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKeyPrefix+key, p.Value, s.cacheTTL).Err(); err != nil {
			s.log.Warn("failed to cache parameter", "key", key, "error", err)
		}
	}
	return p.Value, true
}

func (s *Service) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, cacheKeyPrefix+key).Err(); err != nil {
		s.log.Warn("failed to invalidate parameter cache", "key", key, "error", err)
	}
}

func toResponse(p repository.Parameter) transport.ParameterResponse {
	return transport.ParameterResponse{
		Key:         p.Key,
		Value:       p.Value,
		Description: p.Description,
	}
}
