package service

import (
	"context"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/scheduler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
)

// Service implements the cart flow: one open cart per customer, line
// mutations with recomputed totals, checkout and sharing to the external
// application.
type Service struct {
	repo     repository.Repository
	enqueuer scheduler.CartShareEnqueuer
	bus      events.Bus
	log      *logger.Logger
}

// New creates a cart service. enqueuer may be nil when no queue is
// configured; sharing then fails with a Conflict.
func New(repo repository.Repository, enqueuer scheduler.CartShareEnqueuer, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, bus: bus, log: log}
}

// OpenCart returns the customer's open cart, creating it if absent.
func (s *Service) OpenCart(ctx context.Context, customerID uuid.UUID) (transport.CartResponse, error) {
	cart, err := s.repo.GetOrCreateOpen(ctx, customerID)
	if err != nil {
		return transport.CartResponse{}, err
	}
	return toResponse(cart), nil
}

// Get fetches one cart.
func (s *Service) Get(ctx context.Context, cartID uuid.UUID) (transport.CartResponse, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return transport.CartResponse{}, err
	}
	return toResponse(cart), nil
}

// AddItem appends a line. Repeated skus are intentionally kept as
// separate lines; the floor staff relies on the add order.
func (s *Service) AddItem(ctx context.Context, cartID uuid.UUID, req transport.AddItemRequest) (transport.CartResponse, error) {
	if req.Quantity < 1 {
		return transport.CartResponse{}, apperr.Validation("quantity must be at least 1")
	}
	if req.UnitPriceCents < 0 {
		return transport.CartResponse{}, apperr.Validation("unit price cannot be negative")
	}

	cart, err := s.repo.AddItem(ctx, cartID, repository.AddItemParams{
		SKU:            req.SKU,
		Title:          req.Title,
		Quantity:       req.Quantity,
		UnitPriceCents: req.UnitPriceCents,
	})
	if err != nil {
		return transport.CartResponse{}, err
	}
	return toResponse(cart), nil
}

// UpdateQuantity changes a line's quantity. Quantities below 1 are
// rejected; removal is its own operation.
func (s *Service) UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (transport.CartResponse, error) {
	if quantity < 1 {
		return transport.CartResponse{}, apperr.Validation("quantity must be at least 1")
	}

	cart, err := s.repo.UpdateQuantity(ctx, cartID, itemID, quantity)
	if err != nil {
		return transport.CartResponse{}, err
	}
	return toResponse(cart), nil
}

// RemoveItem deletes a line.
func (s *Service) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (transport.CartResponse, error) {
	cart, err := s.repo.RemoveItem(ctx, cartID, itemID)
	if err != nil {
		return transport.CartResponse{}, err
	}
	return toResponse(cart), nil
}

// Checkout completes the cart as a sale and rolls its total into the
// customer's lifetime spend.
func (s *Service) Checkout(ctx context.Context, cartID uuid.UUID) (transport.CartResponse, error) {
	cart, err := s.repo.Checkout(ctx, cartID)
	if err != nil {
		return transport.CartResponse{}, err
	}

	s.bus.Publish(ctx, events.CartCheckedOut{
		BaseEvent:  events.NewBaseEvent(),
		CartID:     cart.ID,
		CustomerID: cart.CustomerID,
		TotalCents: cart.TotalCents,
	})
	return toResponse(cart), nil
}

// Share queues delivery of the cart to the external shopping
// application. The worker records the outcome asynchronously.
func (s *Service) Share(ctx context.Context, cartID uuid.UUID) (transport.CartResponse, error) {
	if s.enqueuer == nil {
		return transport.CartResponse{}, apperr.Conflict("cart sharing is not configured")
	}

	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return transport.CartResponse{}, err
	}
	if len(cart.Items) == 0 {
		return transport.CartResponse{}, apperr.Validation("an empty cart cannot be shared")
	}

	if err := s.repo.MarkSharePending(ctx, cartID); err != nil {
		return transport.CartResponse{}, err
	}

	err = s.enqueuer.EnqueueCartShare(ctx, scheduler.CartSharePayload{
		CartID:     cart.ID.String(),
		CustomerID: cart.CustomerID.String(),
	})
	if err != nil {
		s.log.Error("failed to enqueue cart share", "cart_id", cartID, "error", err)
		// No job exists to resolve the pending marker, so record the
		// failure here instead of stranding the cart in PENDING.
		if recErr := s.repo.RecordShareOutcome(ctx, cartID, false); recErr != nil {
			s.log.Error("failed to record share failure", "cart_id", cartID, "error", recErr)
		}
		return transport.CartResponse{}, apperr.Wrap(apperr.KindInternal, "enqueue cart share", err)
	}

	cart, err = s.repo.GetByID(ctx, cartID)
	if err != nil {
		return transport.CartResponse{}, err
	}
	return toResponse(cart), nil
}

func toResponse(c repository.Cart) transport.CartResponse {
	items := make([]transport.ItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, transport.ItemResponse{
			ID:             it.ID,
			SKU:            it.SKU,
			Title:          it.Title,
			Quantity:       it.Quantity,
			UnitPriceCents: it.UnitPriceCents,
			LineTotalCents: int64(it.Quantity) * it.UnitPriceCents,
		})
	}
	return transport.CartResponse{
		ID:          c.ID,
		CustomerID:  c.CustomerID,
		Status:      c.Status,
		TotalCents:  c.TotalCents,
		ShareStatus: c.ShareStatus,
		SharedAt:    c.SharedAt,
		Items:       items,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
