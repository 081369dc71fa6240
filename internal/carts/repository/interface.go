package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Cart status values. A customer has at most one OPEN cart; checkout
// closes it as COMPLETED.
const (
	StatusOpen      = "OPEN"
	StatusCompleted = "COMPLETED"
)

// Share outcome values recorded after the external application call.
const (
	ShareStatusPending = "PENDING"
	ShareStatusSent    = "SENT"
	ShareStatusFailed  = "FAILED"
)

// Item is one cart line. Repeated adds of the same sku stay separate
// lines.
type Item struct {
	ID             uuid.UUID
	CartID         uuid.UUID
	SKU            string
	Title          string
	Quantity       int
	UnitPriceCents int64
	CreatedAt      time.Time
}

// Cart aggregates items for a customer. TotalCents is recomputed from
// the lines inside the same transaction as every mutation.
type Cart struct {
	ID          uuid.UUID
	CustomerID  uuid.UUID
	Status      string
	TotalCents  int64
	ShareStatus *string
	SharedAt    *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Items       []Item
}

// AddItemParams contains a new cart line.
type AddItemParams struct {
	SKU            string
	Title          string
	Quantity       int
	UnitPriceCents int64
}

// Repository provides cart persistence.
type Repository interface {
	// GetOrCreateOpen returns the customer's open cart, creating one if
	// absent. A concurrent create loses the unique-index race and returns
	// the winner's cart.
	GetOrCreateOpen(ctx context.Context, customerID uuid.UUID) (Cart, error)
	GetByID(ctx context.Context, id uuid.UUID) (Cart, error)

	AddItem(ctx context.Context, cartID uuid.UUID, params AddItemParams) (Cart, error)
	UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (Cart, error)
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (Cart, error)

	// Checkout completes an open cart and adds its total to the customer's
	// lifetime spend, in one transaction. A closed cart is a Conflict.
	Checkout(ctx context.Context, cartID uuid.UUID) (Cart, error)

	// MarkSharePending stamps the cart before the share job is enqueued.
	MarkSharePending(ctx context.Context, cartID uuid.UUID) error
	// RecordShareOutcome stores the external application's verdict.
	RecordShareOutcome(ctx context.Context, cartID uuid.UUID, succeeded bool) error
}
