package service

import (
	"context"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/roles"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/tasks/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/timefmt"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
)

// Service implements the task lifecycle: create, claim from the pool,
// complete, cancel, and definition management.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
	now  func() time.Time
}

// New creates a task service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, now: time.Now}
}

// Create registers a task. A task with an assignee starts in progress,
// otherwise it waits in the pool. The definition, when referenced, fills
// in a missing target role.
func (s *Service) Create(ctx context.Context, req transport.CreateTaskRequest, createdByID uuid.UUID) (transport.TaskResponse, error) {
	if req.TargetRole != nil && !roles.ValidRole(*req.TargetRole) {
		return transport.TaskResponse{}, apperr.Validation("unknown target role: " + *req.TargetRole)
	}

	targetRole := req.TargetRole
	if req.DefinitionID != nil {
		def, err := s.repo.GetDefinition(ctx, *req.DefinitionID)
		if err != nil {
			return transport.TaskResponse{}, err
		}
		if targetRole == nil {
			targetRole = def.DefaultTargetRole
		}
		if def.RequiresProductCode && req.ProductCode == nil {
			return transport.TaskResponse{}, apperr.Validation("this task type requires a product code")
		}
	}

	task, err := s.repo.Create(ctx, repository.CreateParams{
		DefinitionID: req.DefinitionID,
		CustomerID:   req.CustomerID,
		Title:        req.Title,
		Description:  req.Description,
		TargetRole:   targetRole,
		ProductCode:  req.ProductCode,
		AssignedToID: req.AssignedToID,
		CreatedByID:  createdByID,
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.bus.Publish(ctx, events.TaskCreated{
		BaseEvent:    events.NewBaseEvent(),
		TaskID:       task.ID,
		CreatedByID:  createdByID,
		AssignedToID: task.AssignedToID,
		TargetRole:   task.TargetRole,
		Title:        task.Title,
	})
	return s.toResponse(task), nil
}

// Get fetches one task.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return s.toResponse(task), nil
}

// Take claims a pool task for the acting user. The task's target role,
// when set, must match the user's primary role, and creators cannot claim
// their own pool tasks. The conditional write makes concurrent claims
// lose with a Conflict instead of reassigning.
func (s *Service) Take(ctx context.Context, taskID, userID uuid.UUID, userRoles []string) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if task.AssignedToID != nil {
		return transport.TaskResponse{}, apperr.Conflict("task is already assigned")
	}
	if task.Status.Terminal() {
		return transport.TaskResponse{}, apperr.Conflict("task is closed")
	}
	if task.CreatedByID == userID {
		return transport.TaskResponse{}, apperr.Forbidden("you cannot claim a task you created")
	}
	if task.TargetRole != nil && roles.Role(*task.TargetRole) != roles.PrimaryRole(userRoles) {
		return transport.TaskResponse{}, apperr.Forbidden("task is reserved for role " + *task.TargetRole)
	}

	if err := s.repo.Claim(ctx, taskID, userID); err != nil {
		return transport.TaskResponse{}, err
	}

	task, err = s.repo.GetByID(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.bus.Publish(ctx, events.TaskClaimed{
		BaseEvent: events.NewBaseEvent(),
		TaskID:    taskID,
		UserID:    userID,
	})
	return s.toResponse(task), nil
}

// Complete finishes a task for its assignee. Tasks whose definition
// requires a product code must present the matching code.
func (s *Service) Complete(ctx context.Context, taskID, userID uuid.UUID, req transport.CompleteTaskRequest) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if task.Status.Terminal() {
		return transport.TaskResponse{}, apperr.Conflict("task is already closed")
	}
	if task.AssignedToID == nil || *task.AssignedToID != userID {
		return transport.TaskResponse{}, apperr.Forbidden("only the assignee can complete a task")
	}

	if task.DefinitionID != nil {
		def, err := s.repo.GetDefinition(ctx, *task.DefinitionID)
		switch {
		case apperr.Is(err, apperr.KindNotFound):
			// Definition deleted after task creation; nothing left to enforce.
		case err != nil:
			return transport.TaskResponse{}, err
		case def.RequiresProductCode:
			if req.ProductCode == nil {
				return transport.TaskResponse{}, apperr.Validation("completion requires the product code confirmation")
			}
			if task.ProductCode != nil && *req.ProductCode != *task.ProductCode {
				return transport.TaskResponse{}, apperr.Validation("product code does not match the task")
			}
		}
	}

	if err := s.repo.Complete(ctx, taskID, userID); err != nil {
		return transport.TaskResponse{}, err
	}

	task, err = s.repo.GetByID(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.bus.Publish(ctx, events.TaskCompleted{
		BaseEvent:   events.NewBaseEvent(),
		TaskID:      taskID,
		UserID:      userID,
		CreatedByID: task.CreatedByID,
		Title:       task.Title,
	})
	return s.toResponse(task), nil
}

// Cancel closes a pool task as cancelled. The creator may cancel their
// own unassigned task; a manager may cancel any pool task. The row is
// kept for audit.
func (s *Service) Cancel(ctx context.Context, taskID, userID uuid.UUID, userRoles []string) (transport.TaskResponse, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	if task.AssignedToID != nil || task.Status.Terminal() {
		return transport.TaskResponse{}, apperr.Conflict("only pending pool tasks can be cancelled")
	}

	isManager := roles.HasRole(userRoles, roles.RoleStoreManager)
	if task.CreatedByID != userID && !isManager {
		return transport.TaskResponse{}, apperr.Forbidden("only the creator or a manager can cancel this task")
	}

	if err := s.repo.Cancel(ctx, taskID); err != nil {
		return transport.TaskResponse{}, err
	}

	task, err = s.repo.GetByID(ctx, taskID)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	s.bus.Publish(ctx, events.TaskCancelled{
		BaseEvent:   events.NewBaseEvent(),
		TaskID:      taskID,
		CancelledBy: userID,
	})
	return s.toResponse(task), nil
}

// Pool lists pending pool tasks claimable by the acting user's primary role.
func (s *Service) Pool(ctx context.Context, userRoles []string, limit, offset int) ([]transport.TaskResponse, error) {
	return s.list(ctx, repository.ListFilter{
		Statuses:   []repository.Status{repository.StatusPending},
		PoolOnly:   true,
		TargetRole: string(roles.PrimaryRole(userRoles)),
		Limit:      limit,
		Offset:     offset,
	})
}

// Mine lists tasks currently assigned to the user.
func (s *Service) Mine(ctx context.Context, userID uuid.UUID, limit, offset int) ([]transport.TaskResponse, error) {
	return s.list(ctx, repository.ListFilter{
		Statuses:     []repository.Status{repository.StatusInProgress},
		AssignedToID: &userID,
		Limit:        limit,
		Offset:       offset,
	})
}

// CreatedBy lists tasks the user created, newest states included.
func (s *Service) CreatedBy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]transport.TaskResponse, error) {
	return s.list(ctx, repository.ListFilter{
		CreatedByID: &userID,
		Limit:       limit,
		Offset:      offset,
	})
}

func (s *Service) list(ctx context.Context, filter repository.ListFilter) ([]transport.TaskResponse, error) {
	tasks, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]transport.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, s.toResponse(t))
	}
	return out, nil
}

// CreateDefinition adds a task definition.
func (s *Service) CreateDefinition(ctx context.Context, req transport.DefinitionRequest) (transport.DefinitionResponse, error) {
	if req.DefaultTargetRole != nil && !roles.ValidRole(*req.DefaultTargetRole) {
		return transport.DefinitionResponse{}, apperr.Validation("unknown target role: " + *req.DefaultTargetRole)
	}
	def, err := s.repo.CreateDefinition(ctx, repository.DefinitionParams{
		Name:                req.Name,
		DefaultTargetRole:   req.DefaultTargetRole,
		RequiresProductCode: req.RequiresProductCode,
	})
	if err != nil {
		return transport.DefinitionResponse{}, err
	}
	return toDefinitionResponse(def), nil
}

// ListDefinitions returns all task definitions.
func (s *Service) ListDefinitions(ctx context.Context) ([]transport.DefinitionResponse, error) {
	defs, err := s.repo.ListDefinitions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.DefinitionResponse, 0, len(defs))
	for _, d := range defs {
		out = append(out, toDefinitionResponse(d))
	}
	return out, nil
}

// UpdateDefinition replaces a task definition's fields.
func (s *Service) UpdateDefinition(ctx context.Context, id uuid.UUID, req transport.DefinitionRequest) (transport.DefinitionResponse, error) {
	if req.DefaultTargetRole != nil && !roles.ValidRole(*req.DefaultTargetRole) {
		return transport.DefinitionResponse{}, apperr.Validation("unknown target role: " + *req.DefaultTargetRole)
	}
	def, err := s.repo.UpdateDefinition(ctx, id, repository.DefinitionParams{
		Name:                req.Name,
		DefaultTargetRole:   req.DefaultTargetRole,
		RequiresProductCode: req.RequiresProductCode,
	})
	if err != nil {
		return transport.DefinitionResponse{}, err
	}
	return toDefinitionResponse(def), nil
}

// DeleteDefinition removes a task definition.
func (s *Service) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteDefinition(ctx, id)
}

func (s *Service) toResponse(t repository.Task) transport.TaskResponse {
	until := s.now()
	if t.CompletedAt != nil {
		until = *t.CompletedAt
	}
	return transport.TaskResponse{
		ID:           t.ID,
		DefinitionID: t.DefinitionID,
		CustomerID:   t.CustomerID,
		Title:        t.Title,
		Description:  t.Description,
		TargetRole:   t.TargetRole,
		ProductCode:  t.ProductCode,
		Status:       string(t.Status),
		AssignedToID: t.AssignedToID,
		CreatedByID:  t.CreatedByID,
		WaitingTime:  timefmt.Waiting(t.CreatedAt, until),
		CreatedAt:    t.CreatedAt,
		CompletedAt:  t.CompletedAt,
		CancelledAt:  t.CancelledAt,
	}
}

func toDefinitionResponse(d repository.Definition) transport.DefinitionResponse {
	return transport.DefinitionResponse{
		ID:                  d.ID,
		Name:                d.Name,
		DefaultTargetRole:   d.DefaultTargetRole,
		RequiresProductCode: d.RequiresProductCode,
		CreatedAt:           d.CreatedAt,
	}
}
