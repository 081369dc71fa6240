package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateTaskRequest creates a task, either pre-assigned or for the pool.
type CreateTaskRequest struct {
	DefinitionID *uuid.UUID `json:"definitionId,omitempty"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	Title        string     `json:"title" validate:"required,min=2,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	TargetRole   *string    `json:"targetRole,omitempty"`
	ProductCode  *string    `json:"productCode,omitempty" validate:"omitempty,max=64"`
	AssignedToID *uuid.UUID `json:"assignedToId,omitempty"`
}

// CompleteTaskRequest carries the confirmation for completion.
type CompleteTaskRequest struct {
	ProductCode *string `json:"productCode,omitempty" validate:"omitempty,max=64"`
}

// DefinitionRequest creates or updates a task definition.
type DefinitionRequest struct {
	Name                string  `json:"name" validate:"required,min=2,max=200"`
	DefaultTargetRole   *string `json:"defaultTargetRole,omitempty"`
	RequiresProductCode bool    `json:"requiresProductCode"`
}

// TaskResponse is a task as returned by the API.
type TaskResponse struct {
	ID           uuid.UUID  `json:"id"`
	DefinitionID *uuid.UUID `json:"definitionId,omitempty"`
	CustomerID   *uuid.UUID `json:"customerId,omitempty"`
	Title        string     `json:"title"`
	Description  *string    `json:"description,omitempty"`
	TargetRole   *string    `json:"targetRole,omitempty"`
	ProductCode  *string    `json:"productCode,omitempty"`
	Status       string     `json:"status"`
	AssignedToID *uuid.UUID `json:"assignedToId,omitempty"`
	CreatedByID  uuid.UUID  `json:"createdById"`
	WaitingTime  string     `json:"waitingTime"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CancelledAt  *time.Time `json:"cancelledAt,omitempty"`
}

// DefinitionResponse is a task definition as returned by the API.
type DefinitionResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	DefaultTargetRole   *string   `json:"defaultTargetRole,omitempty"`
	RequiresProductCode bool      `json:"requiresProductCode"`
	CreatedAt           time.Time `json:"createdAt"`
}
