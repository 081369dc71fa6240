package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the task lifecycle state. Completed and Cancelled are
// terminal; cancelled tasks keep their row for audit.
type Status string

const (
	StatusPending    Status = "Bekliyor"
	StatusInProgress Status = "Devam Ediyor"
	StatusCompleted  Status = "Tamamlandı"
	StatusCancelled  Status = "İptal"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Definition is a reusable task template maintained by managers.
type Definition struct {
	ID                  uuid.UUID
	Name                string
	DefaultTargetRole   *string
	RequiresProductCode bool
	CreatedAt           time.Time
}

// Task is a unit of store work, either assigned or waiting in the pool.
type Task struct {
	ID           uuid.UUID
	DefinitionID *uuid.UUID
	CustomerID   *uuid.UUID
	Title        string
	Description  *string
	TargetRole   *string
	ProductCode  *string
	Status       Status
	AssignedToID *uuid.UUID
	CreatedByID  uuid.UUID
	CreatedAt    time.Time
	CompletedAt  *time.Time
	CancelledAt  *time.Time
}

// CreateParams contains the fields for a new task.
type CreateParams struct {
	DefinitionID *uuid.UUID
	CustomerID   *uuid.UUID
	Title        string
	Description  *string
	TargetRole   *string
	ProductCode  *string
	AssignedToID *uuid.UUID
	CreatedByID  uuid.UUID
}

// ListFilter narrows task listings.
type ListFilter struct {
	Statuses     []Status
	PoolOnly     bool
	TargetRole   string
	AssignedToID *uuid.UUID
	CreatedByID  *uuid.UUID
	Limit        int
	Offset       int
}

// DefinitionParams contains fields for creating or updating a definition.
type DefinitionParams struct {
	Name                string
	DefaultTargetRole   *string
	RequiresProductCode bool
}

// Repository provides task and task-definition persistence.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (Task, error)
	List(ctx context.Context, filter ListFilter) ([]Task, error)

	// Claim assigns a pending pool task to a user. The predicate on
	// assignment state makes a lost race surface as a Conflict.
	Claim(ctx context.Context, taskID, userID uuid.UUID) error
	// Complete marks an in-progress task done, only for its assignee.
	Complete(ctx context.Context, taskID, userID uuid.UUID) error
	// Cancel marks a pending unassigned task cancelled.
	Cancel(ctx context.Context, taskID uuid.UUID) error

	// ListPendingOlderThan returns pool tasks waiting beyond the cutoff,
	// for the reminder job.
	ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]Task, error)

	CreateDefinition(ctx context.Context, params DefinitionParams) (Definition, error)
	GetDefinition(ctx context.Context, id uuid.UUID) (Definition, error)
	ListDefinitions(ctx context.Context) ([]Definition, error)
	UpdateDefinition(ctx context.Context, id uuid.UUID, params DefinitionParams) (Definition, error)
	DeleteDefinition(ctx context.Context, id uuid.UUID) error
}
