package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Segment labels carried over from the store floor vocabulary.
const (
	SegmentProspect = "Aday"
	SegmentClassic  = "Classic"
	SegmentPremium  = "Premium"
	SegmentVIP      = "VIP"
)

// ValidSegment reports whether s is one of the known segments.
func ValidSegment(s string) bool {
	switch s {
	case SegmentProspect, SegmentClassic, SegmentPremium, SegmentVIP:
		return true
	}
	return false
}

// Customer is a retail customer record.
type Customer struct {
	ID                   uuid.UUID
	FullName             string
	Phone                string
	Email                *string
	NationalID           *string
	Segment              string
	ConsentPersonalData  bool
	ConsentMarketing     bool
	ConsentCall          bool
	ConsentProfiling     bool
	AssignedConsultantID *uuid.UUID
	MovedToPoolAt        *time.Time
	TotalSpentCents      int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// CreateParams contains the intake form fields.
type CreateParams struct {
	FullName            string
	Phone               string
	Email               *string
	NationalID          *string
	Segment             string
	ConsentPersonalData bool
	ConsentMarketing    bool
	ConsentCall         bool
	ConsentProfiling    bool
}

// UpdateParams contains profile fields to patch. Nil pointers leave the
// column untouched.
type UpdateParams struct {
	FullName            *string
	Phone               *string
	Email               *string
	NationalID          *string
	Segment             *string
	ConsentPersonalData *bool
	ConsentMarketing    *bool
	ConsentCall         *bool
	ConsentProfiling    *bool
}

// ListFilter narrows and pages customer listings.
type ListFilter struct {
	Query        string
	Segment      string
	PoolOnly     bool
	ConsultantID *uuid.UUID
	Limit        int
	Offset       int
}

// Repository provides customer persistence.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (Customer, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter ListFilter) ([]Customer, int, error)

	// Assign sets the consultant only while the customer is unassigned.
	// A zero-row update surfaces as a Conflict error.
	Assign(ctx context.Context, customerID, consultantID uuid.UUID) error
	// Transfer moves the customer between consultants only while the
	// expected current consultant still holds them.
	Transfer(ctx context.Context, customerID, fromID, toID uuid.UUID) error
	// Release clears the consultant and stamps moved_to_pool_at. Releasing
	// an unassigned customer surfaces as a Conflict error.
	Release(ctx context.Context, customerID uuid.UUID) error
}
