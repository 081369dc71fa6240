package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/carts/transport"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/scheduler"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
)

// stubCartRepo keeps carts in memory and recomputes totals on every
// mutation, matching the SQL implementation's semantics.
type stubCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]repository.Cart
	spend map[uuid.UUID]int64
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{
		carts: make(map[uuid.UUID]repository.Cart),
		spend: make(map[uuid.UUID]int64),
	}
}

func (s *stubCartRepo) GetOrCreateOpen(_ context.Context, customerID uuid.UUID) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.carts {
		if c.CustomerID == customerID && c.Status == repository.StatusOpen {
			return c, nil
		}
	}
	c := repository.Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     repository.StatusOpen,
		Items:      []repository.Item{},
		CreatedAt:  time.Now(),
	}
	s.carts[c.ID] = c
	return c, nil
}

func (s *stubCartRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return repository.Cart{}, apperr.NotFound("cart not found")
	}
	return c, nil
}

func (s *stubCartRepo) mutateOpen(id uuid.UUID, op func(c *repository.Cart) error) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[id]
	if !ok {
		return repository.Cart{}, apperr.NotFound("cart not found")
	}
	if c.Status != repository.StatusOpen {
		return repository.Cart{}, apperr.Conflict("cart is not open")
	}
	if err := op(&c); err != nil {
		return repository.Cart{}, err
	}
	c.TotalCents = 0
	for _, it := range c.Items {
		c.TotalCents += int64(it.Quantity) * it.UnitPriceCents
	}
	s.carts[id] = c
	return c, nil
}

func (s *stubCartRepo) AddItem(_ context.Context, cartID uuid.UUID, params repository.AddItemParams) (repository.Cart, error) {
	return s.mutateOpen(cartID, func(c *repository.Cart) error {
		c.Items = append(c.Items, repository.Item{
			ID:             uuid.New(),
			CartID:         cartID,
			SKU:            params.SKU,
			Title:          params.Title,
			Quantity:       params.Quantity,
			UnitPriceCents: params.UnitPriceCents,
		})
		return nil
	})
}

func (s *stubCartRepo) UpdateQuantity(_ context.Context, cartID, itemID uuid.UUID, quantity int) (repository.Cart, error) {
	return s.mutateOpen(cartID, func(c *repository.Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items[i].Quantity = quantity
				return nil
			}
		}
		return apperr.NotFound("cart item not found")
	})
}

func (s *stubCartRepo) RemoveItem(_ context.Context, cartID, itemID uuid.UUID) (repository.Cart, error) {
	return s.mutateOpen(cartID, func(c *repository.Cart) error {
		for i := range c.Items {
			if c.Items[i].ID == itemID {
				c.Items = append(c.Items[:i], c.Items[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound("cart item not found")
	})
}

func (s *stubCartRepo) Checkout(_ context.Context, cartID uuid.UUID) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return repository.Cart{}, apperr.NotFound("cart not found")
	}
	if c.Status != repository.StatusOpen {
		return repository.Cart{}, apperr.Conflict("cart is not open")
	}
	c.Status = repository.StatusCompleted
	s.carts[cartID] = c
	s.spend[c.CustomerID] += c.TotalCents
	return c, nil
}

func (s *stubCartRepo) MarkSharePending(_ context.Context, cartID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return apperr.NotFound("cart not found")
	}
	status := repository.ShareStatusPending
	c.ShareStatus = &status
	s.carts[cartID] = c
	return nil
}

func (s *stubCartRepo) RecordShareOutcome(_ context.Context, cartID uuid.UUID, succeeded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[cartID]
	if !ok {
		return apperr.NotFound("cart not found")
	}
	status := repository.ShareStatusFailed
	if succeeded {
		status = repository.ShareStatusSent
	}
	now := time.Now()
	c.ShareStatus = &status
	c.SharedAt = &now
	s.carts[cartID] = c
	return nil
}

type stubEnqueuer struct {
	payloads []scheduler.CartSharePayload
	failWith error
}

func (s *stubEnqueuer) EnqueueCartShare(_ context.Context, payload scheduler.CartSharePayload) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.payloads = append(s.payloads, payload)
	return nil
}

type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event) {}

func (nopBus) PublishSync(context.Context, events.Event) error { return nil }

func (nopBus) Subscribe(string, events.Handler) {}

func newTestService() (*Service, *stubCartRepo, *stubEnqueuer) {
	repo := newStubCartRepo()
	enq := &stubEnqueuer{}
	return New(repo, enq, nopBus{}, logger.New("test")), repo, enq
}

func addItem(t *testing.T, svc *Service, cartID uuid.UUID, sku string, qty int, priceCents int64) transport.CartResponse {
	t.Helper()
	cart, err := svc.AddItem(context.Background(), cartID, transport.AddItemRequest{
		SKU:            sku,
		Title:          "Ürün " + sku,
		Quantity:       qty,
		UnitPriceCents: priceCents,
	})
	if err != nil {
		t.Fatalf("AddItem(%s): %v", sku, err)
	}
	return cart
}

func TestTotalRecomputedAfterEveryMutation(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	open, err := svc.OpenCart(ctx, uuid.New())
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}

	cart := addItem(t, svc, open.ID, "SKU-1", 2, 5000)
	if cart.TotalCents != 10000 {
		t.Fatalf("total after first add = %d, want 10000", cart.TotalCents)
	}

	cart = addItem(t, svc, open.ID, "SKU-2", 1, 3000)
	if cart.TotalCents != 13000 {
		t.Fatalf("total after second add = %d, want 13000", cart.TotalCents)
	}

	cart, err = svc.UpdateQuantity(ctx, open.ID, cart.Items[0].ID, 3)
	if err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if cart.TotalCents != 18000 {
		t.Fatalf("total after quantity update = %d, want 18000", cart.TotalCents)
	}

	cart, err = svc.RemoveItem(ctx, open.ID, cart.Items[1].ID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if cart.TotalCents != 15000 {
		t.Fatalf("total after remove = %d, want 15000", cart.TotalCents)
	}

	// The stored total always equals the line sum.
	var sum int64
	for _, it := range cart.Items {
		sum += it.LineTotalCents
	}
	if cart.TotalCents != sum {
		t.Errorf("total %d diverged from line sum %d", cart.TotalCents, sum)
	}
}

func TestRepeatedSkuStaysSeparateLines(t *testing.T) {
	svc, _, _ := newTestService()

	open, err := svc.OpenCart(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}

	addItem(t, svc, open.ID, "SKU-1", 1, 1000)
	cart := addItem(t, svc, open.ID, "SKU-1", 2, 1000)

	if len(cart.Items) != 2 {
		t.Fatalf("lines = %d, want 2 separate lines for repeated sku", len(cart.Items))
	}
	if cart.TotalCents != 3000 {
		t.Errorf("total = %d, want 3000", cart.TotalCents)
	}
}

func TestUpdateQuantityRejectsBelowOne(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	open, err := svc.OpenCart(ctx, uuid.New())
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}
	cart := addItem(t, svc, open.ID, "SKU-1", 2, 1000)

	if _, err := svc.UpdateQuantity(ctx, open.ID, cart.Items[0].ID, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("quantity 0 = %v, want Validation", err)
	}
	if _, err := svc.UpdateQuantity(ctx, open.ID, cart.Items[0].ID, -2); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("negative quantity = %v, want Validation", err)
	}

	got, err := svc.Get(ctx, open.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Items[0].Quantity != 2 {
		t.Errorf("rejected update changed quantity to %d", got.Items[0].Quantity)
	}
}

func TestOneOpenCartPerCustomer(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	customerID := uuid.New()

	first, err := svc.OpenCart(ctx, customerID)
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}
	second, err := svc.OpenCart(ctx, customerID)
	if err != nil {
		t.Fatalf("second OpenCart: %v", err)
	}
	if first.ID != second.ID {
		t.Error("repeated OpenCart created a second open cart")
	}

	// After checkout a fresh open cart is created.
	addItem(t, svc, first.ID, "SKU-1", 1, 1000)
	if _, err := svc.Checkout(ctx, first.ID); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	third, err := svc.OpenCart(ctx, customerID)
	if err != nil {
		t.Fatalf("OpenCart after checkout: %v", err)
	}
	if third.ID == first.ID {
		t.Error("completed cart returned as open")
	}
}

func TestCheckoutUpdatesSpendAndCloses(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	customerID := uuid.New()

	open, err := svc.OpenCart(ctx, customerID)
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}
	addItem(t, svc, open.ID, "SKU-1", 2, 2500)

	cart, err := svc.Checkout(ctx, open.ID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if cart.Status != repository.StatusCompleted {
		t.Errorf("status = %q, want %q", cart.Status, repository.StatusCompleted)
	}
	if repo.spend[customerID] != 5000 {
		t.Errorf("customer spend = %d, want 5000", repo.spend[customerID])
	}

	// A closed cart rejects further mutation and a second checkout.
	if _, err := svc.AddItem(ctx, open.ID, transport.AddItemRequest{SKU: "X", Title: "X", Quantity: 1}); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("AddItem on closed cart = %v, want Conflict", err)
	}
	if _, err := svc.Checkout(ctx, open.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second Checkout = %v, want Conflict", err)
	}
}

func TestShareEnqueuesAndMarksPending(t *testing.T) {
	ctx := context.Background()
	svc, _, enq := newTestService()

	open, err := svc.OpenCart(ctx, uuid.New())
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}

	// Empty carts cannot be shared.
	if _, err := svc.Share(ctx, open.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("Share of empty cart = %v, want Validation", err)
	}

	addItem(t, svc, open.ID, "SKU-1", 1, 1000)
	cart, err := svc.Share(ctx, open.ID)
	if err != nil {
		t.Fatalf("Share: %v", err)
	}
	if len(enq.payloads) != 1 {
		t.Fatalf("enqueued jobs = %d, want 1", len(enq.payloads))
	}
	if enq.payloads[0].CartID != open.ID.String() {
		t.Errorf("enqueued cart id = %s, want %s", enq.payloads[0].CartID, open.ID)
	}
	if cart.ShareStatus == nil || *cart.ShareStatus != repository.ShareStatusPending {
		t.Error("share did not mark the cart pending")
	}
}

func TestShareEnqueueFailureRecordsFailedOutcome(t *testing.T) {
	ctx := context.Background()
	svc, repo, enq := newTestService()

	open, err := svc.OpenCart(ctx, uuid.New())
	if err != nil {
		t.Fatalf("OpenCart: %v", err)
	}
	addItem(t, svc, open.ID, "SKU-1", 1, 1000)

	enq.failWith = errors.New("redis unavailable")
	if _, err := svc.Share(ctx, open.ID); err == nil {
		t.Fatal("Share succeeded despite enqueue failure")
	}

	cart, err := repo.GetByID(ctx, open.ID)
	if err != nil {
		t.Fatal(err)
	}
	// A cart left PENDING with no queued job would never be resolved.
	if cart.ShareStatus == nil || *cart.ShareStatus != repository.ShareStatusFailed {
		t.Errorf("share status = %v, want %q", cart.ShareStatus, repository.ShareStatusFailed)
	}
}
