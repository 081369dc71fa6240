package transport

import (
	"time"

	"github.com/google/uuid"
)

// AddItemRequest appends a line to the open cart.
type AddItemRequest struct {
	SKU            string `json:"sku" validate:"required,max=64"`
	Title          string `json:"title" validate:"required,max=200"`
	Quantity       int    `json:"quantity" validate:"required,min=1"`
	UnitPriceCents int64  `json:"unitPriceCents" validate:"min=0"`
}

// UpdateQuantityRequest changes a line's quantity.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// ItemResponse is a cart line as returned by the API.
type ItemResponse struct {
	ID             uuid.UUID `json:"id"`
	SKU            string    `json:"sku"`
	Title          string    `json:"title"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	LineTotalCents int64     `json:"lineTotalCents"`
}

// CartResponse is a cart as returned by the API.
type CartResponse struct {
	ID          uuid.UUID      `json:"id"`
	CustomerID  uuid.UUID      `json:"customerId"`
	Status      string         `json:"status"`
	TotalCents  int64          `json:"totalCents"`
	ShareStatus *string        `json:"shareStatus,omitempty"`
	SharedAt    *time.Time     `json:"sharedAt,omitempty"`
	Items       []ItemResponse `json:"items"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}
