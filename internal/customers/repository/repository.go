package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new customer repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const customerColumns = `
	id, full_name, phone, email, national_id, segment,
	consent_personal_data, consent_marketing, consent_call, consent_profiling,
	assigned_consultant_id, moved_to_pool_at, total_spent_cents,
	created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(
		&c.ID, &c.FullName, &c.Phone, &c.Email, &c.NationalID, &c.Segment,
		&c.ConsentPersonalData, &c.ConsentMarketing, &c.ConsentCall, &c.ConsentProfiling,
		&c.AssignedConsultantID, &c.MovedToPoolAt, &c.TotalSpentCents,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create inserts a new customer from the intake form.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Customer, error) {
	query := `
		INSERT INTO customers (
			id, full_name, phone, email, national_id, segment,
			consent_personal_data, consent_marketing, consent_call, consent_profiling
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + customerColumns

	c, err := scanCustomer(r.pool.QueryRow(ctx, query,
		params.FullName, params.Phone, params.Email, params.NationalID, params.Segment,
		params.ConsentPersonalData, params.ConsentMarketing, params.ConsentCall, params.ConsentProfiling,
	))
	if err != nil {
		return Customer{}, mapUniqueViolation(err, "create customer")
	}
	return c, nil
}

// GetByID fetches one customer.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Update patches the profile fields present in params.
func (r *Repo) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (Customer, error) {
	query := `
		UPDATE customers SET
			full_name             = COALESCE($2, full_name),
			phone                 = COALESCE($3, phone),
			email                 = COALESCE($4, email),
			national_id           = COALESCE($5, national_id),
			segment               = COALESCE($6, segment),
			consent_personal_data = COALESCE($7, consent_personal_data),
			consent_marketing     = COALESCE($8, consent_marketing),
			consent_call          = COALESCE($9, consent_call),
			consent_profiling     = COALESCE($10, consent_profiling),
			updated_at            = now()
		WHERE id = $1
		RETURNING ` + customerColumns

	c, err := scanCustomer(r.pool.QueryRow(ctx, query, id,
		params.FullName, params.Phone, params.Email, params.NationalID, params.Segment,
		params.ConsentPersonalData, params.ConsentMarketing, params.ConsentCall, params.ConsentProfiling,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, apperr.NotFound("customer not found")
		}
		return Customer{}, mapUniqueViolation(err, "update customer")
	}
	return c, nil
}

// Delete removes a customer. Dependent carts and tasks cascade at the
// schema level.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("customer not found")
	}
	return nil
}

// List returns a filtered, paginated page of customers plus the total count.
func (r *Repo) List(ctx context.Context, filter ListFilter) ([]Customer, int, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		conditions = append(conditions, fmt.Sprintf("(full_name ILIKE $%d OR phone LIKE $%d)", len(args), len(args)))
	}
	if filter.Segment != "" {
		args = append(args, filter.Segment)
		conditions = append(conditions, fmt.Sprintf("segment = $%d", len(args)))
	}
	if filter.PoolOnly {
		conditions = append(conditions, "assigned_consultant_id IS NULL")
	}
	if filter.ConsultantID != nil {
		args = append(args, *filter.ConsultantID)
		conditions = append(conditions, fmt.Sprintf("assigned_consultant_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM customers"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM customers%s ORDER BY COALESCE(moved_to_pool_at, created_at) ASC LIMIT $%d OFFSET $%d",
		customerColumns, where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	return customers, total, rows.Err()
}

// Assign claims an unassigned customer for a consultant. The predicate on
// assigned_consultant_id makes concurrent takes lose with a Conflict
// instead of silently overwriting each other.
func (r *Repo) Assign(ctx context.Context, customerID, consultantID uuid.UUID) error {
	query := `
		UPDATE customers
		SET assigned_consultant_id = $2, updated_at = now()
		WHERE id = $1 AND assigned_consultant_id IS NULL`

	tag, err := r.pool.Exec(ctx, query, customerID, consultantID)
	if err != nil {
		return fmt.Errorf("assign customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureExists(ctx, customerID); err != nil {
			return err
		}
		return apperr.Conflict("customer is already assigned")
	}
	return nil
}

// Transfer moves a customer from one consultant to another. The predicate
// on the current consultant verifies ownership at the storage layer.
func (r *Repo) Transfer(ctx context.Context, customerID, fromID, toID uuid.UUID) error {
	query := `
		UPDATE customers
		SET assigned_consultant_id = $3, updated_at = now()
		WHERE id = $1 AND assigned_consultant_id = $2`

	tag, err := r.pool.Exec(ctx, query, customerID, fromID, toID)
	if err != nil {
		return fmt.Errorf("transfer customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureExists(ctx, customerID); err != nil {
			return err
		}
		return apperr.Conflict("customer is not held by the transferring consultant")
	}
	return nil
}

// Release returns the customer to the pool and stamps the release time.
func (r *Repo) Release(ctx context.Context, customerID uuid.UUID) error {
	query := `
		UPDATE customers
		SET assigned_consultant_id = NULL, moved_to_pool_at = now(), updated_at = now()
		WHERE id = $1 AND assigned_consultant_id IS NOT NULL`

	tag, err := r.pool.Exec(ctx, query, customerID)
	if err != nil {
		return fmt.Errorf("release customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureExists(ctx, customerID); err != nil {
			return err
		}
		return apperr.Conflict("customer is already in the pool")
	}
	return nil
}

func (r *Repo) ensureExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check customer: %w", err)
	}
	if !exists {
		return apperr.NotFound("customer not found")
	}
	return nil
}

func mapUniqueViolation(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch pgErr.ConstraintName {
		case "customers_phone_key":
			return apperr.Validation("a customer with this phone number already exists")
		case "customers_national_id_key":
			return apperr.Validation("a customer with this national ID already exists")
		}
		return apperr.Validation("customer violates a uniqueness constraint")
	}
	return fmt.Errorf("%s: %w", op, err)
}
