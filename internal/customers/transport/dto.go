package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateCustomerRequest is the intake form payload.
type CreateCustomerRequest struct {
	FullName            string  `json:"fullName" validate:"required,min=2,max=200"`
	Phone               string  `json:"phone" validate:"required"`
	Email               *string `json:"email,omitempty" validate:"omitempty,email"`
	NationalID          *string `json:"nationalId,omitempty" validate:"omitempty,len=11,numeric"`
	Segment             string  `json:"segment" validate:"required"`
	ConsentPersonalData bool    `json:"consentPersonalData"`
	ConsentMarketing    bool    `json:"consentMarketing"`
	ConsentCall         bool    `json:"consentCall"`
	ConsentProfiling    bool    `json:"consentProfiling"`
}

// UpdateCustomerRequest patches profile fields. Absent fields keep their
// current values.
type UpdateCustomerRequest struct {
	FullName            *string `json:"fullName,omitempty" validate:"omitempty,min=2,max=200"`
	Phone               *string `json:"phone,omitempty"`
	Email               *string `json:"email,omitempty" validate:"omitempty,email"`
	NationalID          *string `json:"nationalId,omitempty" validate:"omitempty,len=11,numeric"`
	Segment             *string `json:"segment,omitempty"`
	ConsentPersonalData *bool   `json:"consentPersonalData,omitempty"`
	ConsentMarketing    *bool   `json:"consentMarketing,omitempty"`
	ConsentCall         *bool   `json:"consentCall,omitempty"`
	ConsentProfiling    *bool   `json:"consentProfiling,omitempty"`
}

// TransferRequest moves a customer to another consultant.
type TransferRequest struct {
	ToConsultantID uuid.UUID `json:"toConsultantId" validate:"required"`
}

// CustomerResponse is a customer as returned by the API.
type CustomerResponse struct {
	ID                   uuid.UUID  `json:"id"`
	FullName             string     `json:"fullName"`
	Phone                string     `json:"phone"`
	Email                *string    `json:"email,omitempty"`
	NationalID           *string    `json:"nationalId,omitempty"`
	Segment              string     `json:"segment"`
	ConsentPersonalData  bool       `json:"consentPersonalData"`
	ConsentMarketing     bool       `json:"consentMarketing"`
	ConsentCall          bool       `json:"consentCall"`
	ConsentProfiling     bool       `json:"consentProfiling"`
	AssignedConsultantID *uuid.UUID `json:"assignedConsultantId,omitempty"`
	MovedToPoolAt        *time.Time `json:"movedToPoolAt,omitempty"`
	TotalSpentCents      int64      `json:"totalSpentCents"`
	WaitingTime          string     `json:"waitingTime,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// CustomerListResponse is a paginated customer listing.
type CustomerListResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Total     int                `json:"total"`
	Limit     int                `json:"limit"`
	Offset    int                `json:"offset"`
}
