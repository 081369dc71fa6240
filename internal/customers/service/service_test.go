package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/transport"
	directoryrepo "github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"

	"github.com/google/uuid"
)

// stubCustomerRepo is an in-memory repository with the same conditional
// write semantics as the SQL implementation.
type stubCustomerRepo struct {
	mu        sync.Mutex
	customers map[uuid.UUID]repository.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]repository.Customer)}
}

func (s *stubCustomerRepo) Create(_ context.Context, params repository.CreateParams) (repository.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.customers {
		if c.Phone == params.Phone {
			return repository.Customer{}, apperr.Validation("a customer with this phone number already exists")
		}
		if c.NationalID != nil && params.NationalID != nil && *c.NationalID == *params.NationalID {
			return repository.Customer{}, apperr.Validation("a customer with this national ID already exists")
		}
	}
	c := repository.Customer{
		ID:         uuid.New(),
		FullName:   params.FullName,
		Phone:      params.Phone,
		Email:      params.Email,
		NationalID: params.NationalID,
		Segment:    params.Segment,
	}
	s.customers[c.ID] = c
	return c, nil
}

func (s *stubCustomerRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	return c, nil
}

func (s *stubCustomerRepo) Update(_ context.Context, id uuid.UUID, params repository.UpdateParams) (repository.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[id]
	if !ok {
		return repository.Customer{}, apperr.NotFound("customer not found")
	}
	if params.FullName != nil {
		c.FullName = *params.FullName
	}
	if params.Phone != nil {
		c.Phone = *params.Phone
	}
	if params.Segment != nil {
		c.Segment = *params.Segment
	}
	s.customers[id] = c
	return c, nil
}

func (s *stubCustomerRepo) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[id]; !ok {
		return apperr.NotFound("customer not found")
	}
	delete(s.customers, id)
	return nil
}

func (s *stubCustomerRepo) List(_ context.Context, filter repository.ListFilter) ([]repository.Customer, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.Customer, 0)
	for _, c := range s.customers {
		if filter.PoolOnly && c.AssignedConsultantID != nil {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *stubCustomerRepo) Assign(_ context.Context, customerID, consultantID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return apperr.NotFound("customer not found")
	}
	if c.AssignedConsultantID != nil {
		return apperr.Conflict("customer is already assigned")
	}
	c.AssignedConsultantID = &consultantID
	s.customers[customerID] = c
	return nil
}

func (s *stubCustomerRepo) Transfer(_ context.Context, customerID, fromID, toID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return apperr.NotFound("customer not found")
	}
	if c.AssignedConsultantID == nil || *c.AssignedConsultantID != fromID {
		return apperr.Conflict("customer is not held by the transferring consultant")
	}
	c.AssignedConsultantID = &toID
	s.customers[customerID] = c
	return nil
}

func (s *stubCustomerRepo) Release(_ context.Context, customerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.customers[customerID]
	if !ok {
		return apperr.NotFound("customer not found")
	}
	if c.AssignedConsultantID == nil {
		return apperr.Conflict("customer is already in the pool")
	}
	now := fixedReleaseTime
	c.AssignedConsultantID = nil
	c.MovedToPoolAt = &now
	s.customers[customerID] = c
	return nil
}

// stubDirectory derives consultant loads from the customer repository so
// capacity decisions track assignments made during a test.
type stubDirectory struct {
	repo        *stubCustomerRepo
	consultants map[uuid.UUID]directoryrepo.Consultant
}

func (d *stubDirectory) load(id uuid.UUID) int {
	d.repo.mu.Lock()
	defer d.repo.mu.Unlock()
	n := 0
	for _, c := range d.repo.customers {
		if c.AssignedConsultantID != nil && *c.AssignedConsultantID == id {
			n++
		}
	}
	return n
}

func (d *stubDirectory) GetConsultant(_ context.Context, id uuid.UUID) (directoryrepo.Consultant, error) {
	c, ok := d.consultants[id]
	if !ok {
		return directoryrepo.Consultant{}, apperr.NotFound("user not found")
	}
	c.CurrentLoad = d.load(id)
	return c, nil
}

func (d *stubDirectory) CountOthersWithSpace(_ context.Context, role string, excludeID uuid.UUID, limit int) (int, error) {
	n := 0
	for id, c := range d.consultants {
		if id == excludeID || !c.IsActive {
			continue
		}
		hasRole := false
		isManager := false
		for _, r := range c.Roles {
			if r == role {
				hasRole = true
			}
			if r == "Mağaza Müdürü" {
				isManager = true
			}
		}
		// Manager-role holders are capacity-exempt and never an alternative.
		if hasRole && !isManager && d.load(id) < limit {
			n++
		}
	}
	return n, nil
}

type stubLimits struct{ limit int }

func (s stubLimits) MaxCustomersPerConsultant(context.Context) int { return s.limit }

// nopBus swallows events; handler behavior is out of scope here.
type nopBus struct{}

func (nopBus) Publish(context.Context, events.Event) {}

func (nopBus) PublishSync(context.Context, events.Event) error { return nil }

func (nopBus) Subscribe(string, events.Handler) {}

var fixedReleaseTime = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	svc  *Service
	repo *stubCustomerRepo
	dir  *stubDirectory
}

func newFixture(t *testing.T, limit int) *fixture {
	t.Helper()
	repo := newStubCustomerRepo()
	dir := &stubDirectory{repo: repo, consultants: make(map[uuid.UUID]directoryrepo.Consultant)}
	svc := New(repo, dir, stubLimits{limit: limit}, nopBus{}, logger.New("test"))
	return &fixture{svc: svc, repo: repo, dir: dir}
}

func (f *fixture) addConsultant(roles []string, active bool) uuid.UUID {
	id := uuid.New()
	f.dir.consultants[id] = directoryrepo.Consultant{
		ID:       id,
		IsActive: active,
		Roles:    roles,
	}
	return id
}

func (f *fixture) addCustomer(t *testing.T, phone string) uuid.UUID {
	t.Helper()
	c, err := f.repo.Create(context.Background(), repository.CreateParams{
		FullName: "Test Customer",
		Phone:    phone,
		Segment:  repository.SegmentProspect,
	})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return c.ID
}

var salesRole = []string{"Satış Danışmanı"}

func TestTakeCapacityScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	consultantA := f.addConsultant(salesRole, true)
	consultantB := f.addConsultant(salesRole, true)

	// B already holds one customer, A is idle.
	held := f.addCustomer(t, "+905550000001")
	if _, err := f.svc.Take(ctx, held, consultantB, consultantB); err != nil {
		t.Fatalf("seed assignment for B: %v", err)
	}

	customer := f.addCustomer(t, "+905550000002")

	// B is at capacity and A has room, so B must be denied.
	if _, err := f.svc.Take(ctx, customer, consultantB, consultantB); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Take by consultant at capacity = %v, want Conflict", err)
	}

	// A has room and takes the customer.
	resp, err := f.svc.Take(ctx, customer, consultantA, consultantA)
	if err != nil {
		t.Fatalf("Take by idle consultant: %v", err)
	}
	if resp.AssignedConsultantID == nil || *resp.AssignedConsultantID != consultantA {
		t.Fatalf("customer not assigned to taking consultant")
	}

	// The customer is no longer in the pool. A second take must conflict,
	// never silently transfer. B is now the one with room, so the capacity
	// check itself passes and the conditional write is what rejects.
	_, err = f.svc.Take(ctx, customer, consultantB, consultantB)
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("second Take = %v, want Conflict", err)
	}
	got, err := f.repo.GetByID(ctx, customer)
	if err != nil {
		t.Fatal(err)
	}
	if got.AssignedConsultantID == nil || *got.AssignedConsultantID != consultantA {
		t.Error("second Take moved the customer")
	}
}

func TestTakeLastResortWhenNobodyHasRoom(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	consultantA := f.addConsultant(salesRole, true)
	consultantB := f.addConsultant(salesRole, true)

	// Fill both consultants to the limit.
	for i, id := range []uuid.UUID{consultantA, consultantB} {
		held := f.addCustomer(t, fmt.Sprintf("+9055500010%02d", i))
		if _, err := f.svc.Take(ctx, held, id, id); err != nil {
			t.Fatalf("seed assignment: %v", err)
		}
	}

	customer := f.addCustomer(t, "+905550002000")
	if _, err := f.svc.Take(ctx, customer, consultantA, consultantA); err != nil {
		t.Fatalf("last-resort Take = %v, want success", err)
	}
}

func TestTakeUnlimitedRoleBypassesCapacity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	manager := f.addConsultant([]string{"Mağaza Müdürü", "Satış Danışmanı"}, true)
	f.addConsultant(salesRole, true) // idle consultant with room

	// Load the manager beyond the limit.
	for _, phone := range []string{"+905550003001", "+905550003002"} {
		held := f.addCustomer(t, phone)
		if _, err := f.svc.Take(ctx, held, manager, manager); err != nil {
			t.Fatalf("Take by manager = %v, want success", err)
		}
	}
}

func TestTakeIgnoresManagersWhenCountingAlternatives(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	consultant := f.addConsultant(salesRole, true)
	// The only other consultant-role holder also manages the store, so
	// they are capacity-exempt and must not count as an alternative.
	f.addConsultant([]string{"Mağaza Müdürü", "Satış Danışmanı"}, true)

	held := f.addCustomer(t, "+905550004001")
	if _, err := f.svc.Take(ctx, held, consultant, consultant); err != nil {
		t.Fatalf("seed assignment: %v", err)
	}

	customer := f.addCustomer(t, "+905550004002")
	if _, err := f.svc.Take(ctx, customer, consultant, consultant); err != nil {
		t.Fatalf("Take with only a dual-role alternative = %v, want last-resort success", err)
	}
}

func TestTakeInactiveOrMissingConsultant(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	inactive := f.addConsultant(salesRole, false)
	customer := f.addCustomer(t, "+905550004000")

	if _, err := f.svc.Take(ctx, customer, inactive, inactive); !apperr.Is(err, apperr.KindForbidden) {
		t.Errorf("Take by inactive consultant = %v, want Forbidden", err)
	}
	if _, err := f.svc.Take(ctx, customer, uuid.New(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("Take by unknown consultant = %v, want NotFound", err)
	}
}

func TestReleaseThenReassign(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	consultant := f.addConsultant(salesRole, true)
	customer := f.addCustomer(t, "+905550005000")

	if _, err := f.svc.Take(ctx, customer, consultant, consultant); err != nil {
		t.Fatalf("initial Take: %v", err)
	}

	released, err := f.svc.ReleaseToPool(ctx, customer, consultant)
	if err != nil {
		t.Fatalf("ReleaseToPool: %v", err)
	}
	if released.AssignedConsultantID != nil {
		t.Fatal("release left consultant assigned")
	}
	if released.MovedToPoolAt == nil {
		t.Fatal("release did not stamp moved_to_pool_at")
	}

	// The pool timestamp only feeds the waiting-time display; it must not
	// gate an immediate reassignment.
	if _, err := f.svc.Take(ctx, customer, consultant, consultant); err != nil {
		t.Fatalf("Take after release = %v, want success", err)
	}

	// Releasing a pool customer conflicts.
	if _, err := f.svc.ReleaseToPool(ctx, f.addCustomer(t, "+905550005001"), consultant); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("ReleaseToPool on pool customer = %v, want Conflict", err)
	}
}

func TestTransferVerifiesOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)

	owner := f.addConsultant(salesRole, true)
	other := f.addConsultant(salesRole, true)
	stranger := f.addConsultant(salesRole, true)
	customer := f.addCustomer(t, "+905550006000")

	if _, err := f.svc.Take(ctx, customer, owner, owner); err != nil {
		t.Fatalf("initial Take: %v", err)
	}

	// A consultant who does not hold the customer cannot transfer them.
	if _, err := f.svc.Transfer(ctx, customer, stranger, other, stranger); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("Transfer by non-owner = %v, want Conflict", err)
	}

	resp, err := f.svc.Transfer(ctx, customer, owner, other, owner)
	if err != nil {
		t.Fatalf("Transfer by owner: %v", err)
	}
	if resp.AssignedConsultantID == nil || *resp.AssignedConsultantID != other {
		t.Error("transfer did not move the customer")
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 1)

	nationalID := "12345678901"
	first := transport.CreateCustomerRequest{
		FullName:   "Ayşe Yılmaz",
		Phone:      "+905550007000",
		NationalID: &nationalID,
		Segment:    repository.SegmentClassic,
	}
	if _, err := f.svc.Create(ctx, first); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	dupPhone := first
	dupPhone.NationalID = nil
	if _, err := f.svc.Create(ctx, dupPhone); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("duplicate phone = %v, want Validation", err)
	}

	dupNationalID := first
	dupNationalID.Phone = "+905550007001"
	if _, err := f.svc.Create(ctx, dupNationalID); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("duplicate national ID = %v, want Validation", err)
	}
}

func TestCreateRejectsUnknownSegment(t *testing.T) {
	f := newFixture(t, 1)
	_, err := f.svc.Create(context.Background(), transport.CreateCustomerRequest{
		FullName: "Test",
		Phone:    "+905550008000",
		Segment:  "Platin",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("unknown segment = %v, want Validation", err)
	}
}
