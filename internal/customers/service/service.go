package service

import (
	"context"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/roles"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/customers/transport"
	directoryrepo "github.com/canerkaradagAI/high5-backoffice-sub000/internal/directory/repository"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/events"
	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/timefmt"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/logger"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/phone"

	"github.com/google/uuid"
)

// ConsultantDirectory is the slice of the user directory the assignment
// flow needs: candidate lookup and the room-elsewhere count.
type ConsultantDirectory interface {
	GetConsultant(ctx context.Context, id uuid.UUID) (directoryrepo.Consultant, error)
	CountOthersWithSpace(ctx context.Context, role string, excludeID uuid.UUID, limit int) (int, error)
}

// CapacityLimitSource resolves the configured per-consultant customer limit.
type CapacityLimitSource interface {
	MaxCustomersPerConsultant(ctx context.Context) int
}

// Service implements customer intake, profile management and the
// consultant assignment flow.
type Service struct {
	repo      repository.Repository
	directory ConsultantDirectory
	limits    CapacityLimitSource
	bus       events.Bus
	log       *logger.Logger
	now       func() time.Time
}

// New creates a customer service.
func New(repo repository.Repository, directory ConsultantDirectory, limits CapacityLimitSource, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:      repo,
		directory: directory,
		limits:    limits,
		bus:       bus,
		log:       log,
		now:       time.Now,
	}
}

// Create registers a customer from the intake form.
func (s *Service) Create(ctx context.Context, req transport.CreateCustomerRequest) (transport.CustomerResponse, error) {
	if !repository.ValidSegment(req.Segment) {
		return transport.CustomerResponse{}, apperr.Validation("unknown customer segment: " + req.Segment)
	}

	customer, err := s.repo.Create(ctx, repository.CreateParams{
		FullName:            req.FullName,
		Phone:               phone.NormalizeE164(req.Phone),
		Email:               req.Email,
		NationalID:          req.NationalID,
		Segment:             req.Segment,
		ConsentPersonalData: req.ConsentPersonalData,
		ConsentMarketing:    req.ConsentMarketing,
		ConsentCall:         req.ConsentCall,
		ConsentProfiling:    req.ConsentProfiling,
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.bus.Publish(ctx, events.CustomerCreated{
		BaseEvent:  events.NewBaseEvent(),
		CustomerID: customer.ID,
		Phone:      customer.Phone,
		Segment:    customer.Segment,
	})
	return s.toResponse(customer), nil
}

// Get fetches one customer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.CustomerResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return s.toResponse(customer), nil
}

// Update patches a customer profile.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateCustomerRequest) (transport.CustomerResponse, error) {
	if req.Segment != nil && !repository.ValidSegment(*req.Segment) {
		return transport.CustomerResponse{}, apperr.Validation("unknown customer segment: " + *req.Segment)
	}
	if req.Phone != nil {
		normalized := phone.NormalizeE164(*req.Phone)
		req.Phone = &normalized
	}

	customer, err := s.repo.Update(ctx, id, repository.UpdateParams{
		FullName:            req.FullName,
		Phone:               req.Phone,
		Email:               req.Email,
		NationalID:          req.NationalID,
		Segment:             req.Segment,
		ConsentPersonalData: req.ConsentPersonalData,
		ConsentMarketing:    req.ConsentMarketing,
		ConsentCall:         req.ConsentCall,
		ConsentProfiling:    req.ConsentProfiling,
	})
	if err != nil {
		return transport.CustomerResponse{}, err
	}
	return s.toResponse(customer), nil
}

// Delete removes a customer record.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// List returns a filtered, paginated customer listing.
func (s *Service) List(ctx context.Context, filter repository.ListFilter) (transport.CustomerListResponse, error) {
	customers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return transport.CustomerListResponse{}, err
	}

	out := make([]transport.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, s.toResponse(c))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return transport.CustomerListResponse{
		Customers: out,
		Total:     total,
		Limit:     limit,
		Offset:    filter.Offset,
	}, nil
}

// Take assigns a pool customer to a consultant after the capacity check.
// A customer already assigned at write time surfaces a Conflict, never a
// silent transfer.
func (s *Service) Take(ctx context.Context, customerID, consultantID, actorID uuid.UUID) (transport.CustomerResponse, error) {
	if err := s.checkCapacity(ctx, consultantID); err != nil {
		return transport.CustomerResponse{}, err
	}

	if err := s.repo.Assign(ctx, customerID, consultantID); err != nil {
		return transport.CustomerResponse{}, err
	}

	customer, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.bus.Publish(ctx, events.CustomerAssigned{
		BaseEvent:    events.NewBaseEvent(),
		CustomerID:   customerID,
		CustomerName: customer.FullName,
		ConsultantID: consultantID,
		AssignedByID: actorID,
	})
	return s.toResponse(customer), nil
}

// Transfer moves a customer between consultants. Ownership is verified by
// the conditional write, so a stale transfer loses with a Conflict.
func (s *Service) Transfer(ctx context.Context, customerID, fromID, toID, actorID uuid.UUID) (transport.CustomerResponse, error) {
	if err := s.checkCapacity(ctx, toID); err != nil {
		return transport.CustomerResponse{}, err
	}

	if err := s.repo.Transfer(ctx, customerID, fromID, toID); err != nil {
		return transport.CustomerResponse{}, err
	}

	customer, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.bus.Publish(ctx, events.CustomerAssigned{
		BaseEvent:            events.NewBaseEvent(),
		CustomerID:           customerID,
		CustomerName:         customer.FullName,
		PreviousConsultantID: &fromID,
		ConsultantID:         toID,
		AssignedByID:         actorID,
	})
	return s.toResponse(customer), nil
}

// ReleaseToPool returns a customer to the pool.
func (s *Service) ReleaseToPool(ctx context.Context, customerID, actorID uuid.UUID) (transport.CustomerResponse, error) {
	if err := s.repo.Release(ctx, customerID); err != nil {
		return transport.CustomerResponse{}, err
	}

	customer, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return transport.CustomerResponse{}, err
	}

	s.bus.Publish(ctx, events.CustomerReleased{
		BaseEvent:    events.NewBaseEvent(),
		CustomerID:   customerID,
		ReleasedByID: actorID,
	})
	return s.toResponse(customer), nil
}

// checkCapacity validates the candidate consultant and applies the
// capacity policy against the configured limit.
func (s *Service) checkCapacity(ctx context.Context, consultantID uuid.UUID) error {
	consultant, err := s.directory.GetConsultant(ctx, consultantID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("consultant not found")
		}
		return err
	}
	if !consultant.IsActive {
		return apperr.Forbidden("consultant is inactive")
	}

	limited := roles.HasRole(consultant.Roles, roles.RoleSalesConsultant) &&
		!roles.HasRole(consultant.Roles, roles.RoleStoreManager)

	limit := s.limits.MaxCustomersPerConsultant(ctx)

	othersWithSpace := 0
	if limited {
		othersWithSpace, err = s.directory.CountOthersWithSpace(ctx, string(roles.RoleSalesConsultant), consultantID, limit)
		if err != nil {
			return err
		}
	}

	decision := CanAssign(limited, limit, consultant.CurrentLoad, othersWithSpace)
	if !decision.Allowed {
		s.log.Info("capacity policy denied assignment",
			"consultant_id", consultantID,
			"load", consultant.CurrentLoad,
			"limit", limit)
		return apperr.Conflict(decision.Reason)
	}
	return nil
}

func (s *Service) toResponse(c repository.Customer) transport.CustomerResponse {
	resp := transport.CustomerResponse{
		ID:                   c.ID,
		FullName:             c.FullName,
		Phone:                c.Phone,
		Email:                c.Email,
		NationalID:           c.NationalID,
		Segment:              c.Segment,
		ConsentPersonalData:  c.ConsentPersonalData,
		ConsentMarketing:     c.ConsentMarketing,
		ConsentCall:          c.ConsentCall,
		ConsentProfiling:     c.ConsentProfiling,
		AssignedConsultantID: c.AssignedConsultantID,
		MovedToPoolAt:        c.MovedToPoolAt,
		TotalSpentCents:      c.TotalSpentCents,
		CreatedAt:            c.CreatedAt,
		UpdatedAt:            c.UpdatedAt,
	}
	if c.AssignedConsultantID == nil {
		since := c.CreatedAt
		if c.MovedToPoolAt != nil {
			since = *c.MovedToPoolAt
		}
		resp.WaitingTime = timefmt.Waiting(since, s.now())
	}
	return resp
}
