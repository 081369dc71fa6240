package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/canerkaradagAI/high5-backoffice-sub000/internal/auth/roles"
	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolationCode = "23505"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new directory repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetConsultant fetches a user with their role set and derived load.
// Load is the count of customers whose assigned_consultant_id points at them.
func (r *Repo) GetConsultant(ctx context.Context, id uuid.UUID) (Consultant, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.is_active,
		       COALESCE(array_agg(ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}'),
		       (SELECT COUNT(*) FROM customers c WHERE c.assigned_consultant_id = u.id)
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id`

	var c Consultant
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.Email, &c.FullName, &c.IsActive, &c.Roles, &c.CurrentLoad)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Consultant{}, apperr.NotFound("consultant not found")
		}
		return Consultant{}, fmt.Errorf("get consultant: %w", err)
	}
	return c, nil
}

// ListActiveByRole lists active users holding the given role with their loads.
func (r *Repo) ListActiveByRole(ctx context.Context, role string) ([]Consultant, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.is_active,
		       COALESCE(array_agg(ur2.role) FILTER (WHERE ur2.role IS NOT NULL), '{}'),
		       (SELECT COUNT(*) FROM customers c WHERE c.assigned_consultant_id = u.id)
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id AND ur.role = $1
		LEFT JOIN user_roles ur2 ON ur2.user_id = u.id
		WHERE u.is_active
		GROUP BY u.id
		ORDER BY u.full_name`

	rows, err := r.pool.Query(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("list active by role: %w", err)
	}
	defer rows.Close()

	return scanConsultants(rows)
}

// ListUsers lists every user with roles and loads.
func (r *Repo) ListUsers(ctx context.Context) ([]Consultant, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.is_active,
		       COALESCE(array_agg(ur.role) FILTER (WHERE ur.role IS NOT NULL), '{}'),
		       (SELECT COUNT(*) FROM customers c WHERE c.assigned_consultant_id = u.id)
		FROM users u
		LEFT JOIN user_roles ur ON ur.user_id = u.id
		GROUP BY u.id
		ORDER BY u.full_name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	return scanConsultants(rows)
}

// CountOthersWithSpace counts active holders of the role, excluding excludeID,
// whose derived load is strictly below limit. Users who also hold the manager
// role are not capacity-limited and never count as an alternative.
func (r *Repo) CountOthersWithSpace(ctx context.Context, role string, excludeID uuid.UUID, limit int) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM users u
		JOIN user_roles ur ON ur.user_id = u.id AND ur.role = $1
		WHERE u.is_active
		  AND u.id <> $2
		  AND NOT EXISTS (
		      SELECT 1 FROM user_roles mr WHERE mr.user_id = u.id AND mr.role = $4)
		  AND (SELECT COUNT(*) FROM customers c WHERE c.assigned_consultant_id = u.id) < $3`

	var count int
	if err := r.pool.QueryRow(ctx, query, role, excludeID, limit, string(roles.RoleStoreManager)).Scan(&count); err != nil {
		return 0, fmt.Errorf("count others with space: %w", err)
	}
	return count, nil
}

// CreateUser inserts a user with their role set inside one transaction.
func (r *Repo) CreateUser(ctx context.Context, params CreateUserParams) (Consultant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Consultant{}, fmt.Errorf("begin create user: %w", err)
	}
	defer tx.Rollback(ctx)

	var c Consultant
	err = tx.QueryRow(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, is_active)
		VALUES (gen_random_uuid(), $1, $2, $3, true)
		RETURNING id, email, full_name, is_active`,
		params.Email, params.FullName, params.PasswordHash,
	).Scan(&c.ID, &c.Email, &c.FullName, &c.IsActive)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return Consultant{}, apperr.Conflict("a user with this email already exists")
		}
		return Consultant{}, fmt.Errorf("create user: %w", err)
	}

	for _, role := range params.Roles {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, c.ID, role); err != nil {
			return Consultant{}, fmt.Errorf("assign role: %w", err)
		}
	}
	c.Roles = params.Roles

	if err := tx.Commit(ctx); err != nil {
		return Consultant{}, fmt.Errorf("commit create user: %w", err)
	}
	return c, nil
}

// SetActive toggles a user's active flag.
func (r *Repo) SetActive(ctx context.Context, id uuid.UUID, isActive bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`, id, isActive)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// SetRoles replaces a user's role set.
func (r *Repo) SetRoles(ctx context.Context, id uuid.UUID, roles []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin set roles: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, id); err != nil {
		return fmt.Errorf("clear roles: %w", err)
	}
	for _, role := range roles {
		if _, err := tx.Exec(ctx, `INSERT INTO user_roles (user_id, role) VALUES ($1, $2)`, id, role); err != nil {
			return fmt.Errorf("assign role: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func scanConsultants(rows pgx.Rows) ([]Consultant, error) {
	consultants := make([]Consultant, 0)
	for rows.Next() {
		var c Consultant
		if err := rows.Scan(&c.ID, &c.Email, &c.FullName, &c.IsActive, &c.Roles, &c.CurrentLoad); err != nil {
			return nil, fmt.Errorf("scan consultant: %w", err)
		}
		consultants = append(consultants, c)
	}
	return consultants, rows.Err()
}
