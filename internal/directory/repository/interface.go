package repository

import (
	"context"

	"github.com/google/uuid"
)

// Consultant is a user seen through the directory: identity, activity flag,
// role set, and the derived customer load.
type Consultant struct {
	ID          uuid.UUID
	Email       string
	FullName    string
	IsActive    bool
	Roles       []string
	CurrentLoad int
}

// CreateUserParams contains parameters for creating a user.
type CreateUserParams struct {
	Email        string
	FullName     string
	PasswordHash string
	Roles        []string
}

// Reader provides read operations over the user directory.
type Reader interface {
	// GetConsultant fetches a user with roles and derived customer load.
	GetConsultant(ctx context.Context, id uuid.UUID) (Consultant, error)
	// ListActiveByRole lists active users holding the given role, with loads.
	ListActiveByRole(ctx context.Context, role string) ([]Consultant, error)
	// ListUsers lists all users with roles and loads.
	ListUsers(ctx context.Context) ([]Consultant, error)
	// CountOthersWithSpace counts active users holding the given role, other
	// than excludeID, whose current load is below limit. Holders of the
	// manager role are exempt from capacity and excluded from the count.
	CountOthersWithSpace(ctx context.Context, role string, excludeID uuid.UUID, limit int) (int, error)
}

// Writer provides admin write operations over the user directory.
type Writer interface {
	CreateUser(ctx context.Context, params CreateUserParams) (Consultant, error)
	SetActive(ctx context.Context, id uuid.UUID, isActive bool) error
	SetRoles(ctx context.Context, id uuid.UUID, roles []string) error
}

// Repository combines directory reads and writes.
type Repository interface {
	Reader
	Writer
}
