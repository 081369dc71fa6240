package service

import (
	"context"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/password"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/roles"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
)

// Service provides directory lookups and admin user management.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new directory service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetConsultant resolves a consultant with roles and current load.
func (s *Service) GetConsultant(ctx context.Context, id uuid.UUID) (transport.ConsultantResponse, error) {
	c, err := s.repo.GetConsultant(ctx, id)
	if err != nil {
		return transport.ConsultantResponse{}, err
	}
	return toResponse(c), nil
}

// ListConsultants lists active sales consultants with their loads, for the
// assignment screens.
func (s *Service) ListConsultants(ctx context.Context) (transport.ConsultantListResponse, error) {
	items, err := s.repo.ListActiveByRole(ctx, string(roles.RoleSalesConsultant))
	if err != nil {
		return transport.ConsultantListResponse{}, err
	}
	return toListResponse(items), nil
}

// ListUsers lists every user (admin).
func (s *Service) ListUsers(ctx context.Context) (transport.ConsultantListResponse, error) {
	items, err := s.repo.ListUsers(ctx)
	if err != nil {
		return transport.ConsultantListResponse{}, err
	}
	return toListResponse(items), nil
}

// CreateUser creates a user with a validated, closed-set role list.
func (s *Service) CreateUser(ctx context.Context, req transport.CreateUserRequest) (transport.ConsultantResponse, error) {
	for _, role := range req.Roles {
		if !roles.ValidRole(role) {
			return transport.ConsultantResponse{}, apperr.Validation("unknown role: " + role)
		}
	}

	hash, err := password.Hash(req.Password)
	if err != nil {
		return transport.ConsultantResponse{}, apperr.Wrap(apperr.KindInternal, "hash password", err)
	}

	c, err := s.repo.CreateUser(ctx, repository.CreateUserParams{
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		Roles:        req.Roles,
	})
	if err != nil {
		return transport.ConsultantResponse{}, err
	}

	s.log.Info("user created", "id", c.ID, "email", c.Email, "roles", c.Roles)
	return toResponse(c), nil
}

// SetActive toggles a user's active flag.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	if err := s.repo.SetActive(ctx, id, isActive); err != nil {
		return err
	}
	s.log.Info("user active flag updated", "id", id, "isActive", isActive)
	return nil
}

// SetRoles replaces a user's role set with validated labels.
func (s *Service) SetRoles(ctx context.Context, id uuid.UUID, labels []string) error {
	for _, role := range labels {
		if !roles.ValidRole(role) {
			return apperr.Validation("unknown role: " + role)
		}
	}
	if err := s.repo.SetRoles(ctx, id, labels); err != nil {
		return err
	}
	s.log.Info("user roles updated", "id", id, "roles", labels)
	return nil
}

func toResponse(c repository.Consultant) transport.ConsultantResponse {
	return transport.ConsultantResponse{
		ID:          c.ID,
		Email:       c.Email,
		FullName:    c.FullName,
		IsActive:    c.IsActive,
		Roles:       c.Roles,
		PrimaryRole: string(roles.PrimaryRole(c.Roles)),
		CurrentLoad: c.CurrentLoad,
	}
}

func toListResponse(items []repository.Consultant) transport.ConsultantListResponse {
	responses := make([]transport.ConsultantResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	return transport.ConsultantListResponse{Items: responses, Total: len(responses)}
}
