package transport

import "github.com/google/uuid"

// CreateUserRequest contains data for creating a backoffice user.
type CreateUserRequest struct {
	Email    string   `json:"email" validate:"required,email"`
	FullName string   `json:"fullName" validate:"required,min=2,max=120"`
	Password string   `json:"password" validate:"required,min=8"`
	Roles    []string `json:"roles" validate:"required,min=1"`
}

// SetRolesRequest replaces a user's role set.
type SetRolesRequest struct {
	Roles []string `json:"roles" validate:"required,min=1"`
}

// ConsultantResponse represents a directory user in API responses.
type ConsultantResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	IsActive    bool      `json:"isActive"`
	Roles       []string  `json:"roles"`
	PrimaryRole string    `json:"primaryRole"`
	CurrentLoad int       `json:"currentLoad"`
}

// ConsultantListResponse wraps a list of directory users.
type ConsultantListResponse struct {
	Items []ConsultantResponse `json:"items"`
	Total int                  `json:"total"`
}
