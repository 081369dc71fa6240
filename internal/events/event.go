// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Customer Domain Events
// =============================================================================

// CustomerCreated is published when a new customer is registered via intake.
type CustomerCreated struct {
	BaseEvent
	CustomerID uuid.UUID `json:"customerId"`
	Phone      string    `json:"phone"`
	Segment    string    `json:"segment"`
}

func (e CustomerCreated) EventName() string { return "customers.created" }

// CustomerAssigned is published when a customer is taken by or transferred to
// a consultant.
type CustomerAssigned struct {
	BaseEvent
	CustomerID           uuid.UUID  `json:"customerId"`
	CustomerName         string     `json:"customerName"`
	PreviousConsultantID *uuid.UUID `json:"previousConsultantId,omitempty"`
	ConsultantID         uuid.UUID  `json:"consultantId"`
	AssignedByID         uuid.UUID  `json:"assignedById"`
}

func (e CustomerAssigned) EventName() string { return "customers.assigned" }

// CustomerReleased is published when a customer is released back to the pool.
type CustomerReleased struct {
	BaseEvent
	CustomerID   uuid.UUID `json:"customerId"`
	ReleasedByID uuid.UUID `json:"releasedById"`
}

func (e CustomerReleased) EventName() string { return "customers.released" }

// =============================================================================
// Task Domain Events
// =============================================================================

// TaskCreated is published when a task is created, either pre-assigned or
// dropped into the pool.
type TaskCreated struct {
	BaseEvent
	TaskID       uuid.UUID  `json:"taskId"`
	CreatedByID  uuid.UUID  `json:"createdById"`
	AssignedToID *uuid.UUID `json:"assignedToId,omitempty"`
	TargetRole   *string    `json:"targetRole,omitempty"`
	Title        string     `json:"title"`
}

func (e TaskCreated) EventName() string { return "tasks.created" }

// TaskClaimed is published when a user takes a task from the pool.
type TaskClaimed struct {
	BaseEvent
	TaskID uuid.UUID `json:"taskId"`
	UserID uuid.UUID `json:"userId"`
}

func (e TaskClaimed) EventName() string { return "tasks.claimed" }

// TaskCompleted is published when the assignee completes a task.
type TaskCompleted struct {
	BaseEvent
	TaskID      uuid.UUID `json:"taskId"`
	UserID      uuid.UUID `json:"userId"`
	CreatedByID uuid.UUID `json:"createdById"`
	Title       string    `json:"title"`
}

func (e TaskCompleted) EventName() string { return "tasks.completed" }

// TaskCancelled is published when a pool task is cancelled by its creator or
// a manager.
type TaskCancelled struct {
	BaseEvent
	TaskID      uuid.UUID `json:"taskId"`
	CancelledBy uuid.UUID `json:"cancelledBy"`
}

func (e TaskCancelled) EventName() string { return "tasks.cancelled" }

// TaskPoolReminderDue is published by the worker when pool tasks have
// been waiting beyond the reminder threshold.
type TaskPoolReminderDue struct {
	BaseEvent
	PendingCount int         `json:"pendingCount"`
	OldestTaskID uuid.UUID   `json:"oldestTaskId"`
	TaskIDs      []uuid.UUID `json:"taskIds"`
}

func (e TaskPoolReminderDue) EventName() string { return "tasks.pool_reminder_due" }

// =============================================================================
// Cart Domain Events
// =============================================================================

// CartCheckedOut is published when an open cart is completed as a sale.
type CartCheckedOut struct {
	BaseEvent
	CartID     uuid.UUID `json:"cartId"`
	CustomerID uuid.UUID `json:"customerId"`
	TotalCents int64     `json:"totalCents"`
}

func (e CartCheckedOut) EventName() string { return "carts.checked_out" }

// CartShareCompleted is published by the worker once the external application
// acknowledged (or rejected) a shared cart.
type CartShareCompleted struct {
	BaseEvent
	CartID     uuid.UUID `json:"cartId"`
	CustomerID uuid.UUID `json:"customerId"`
	Succeeded  bool      `json:"succeeded"`
	Detail     string    `json:"detail,omitempty"`
}

func (e CartShareCompleted) EventName() string { return "carts.share_completed" }
