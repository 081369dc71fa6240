package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new task repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const taskColumns = `
	id, definition_id, customer_id, title, description, target_role,
	product_code, status, assigned_to_id, created_by_id,
	created_at, completed_at, cancelled_at`

func scanTask(row pgx.Row) (Task, error) {
	var t Task
	err := row.Scan(
		&t.ID, &t.DefinitionID, &t.CustomerID, &t.Title, &t.Description, &t.TargetRole,
		&t.ProductCode, &t.Status, &t.AssignedToID, &t.CreatedByID,
		&t.CreatedAt, &t.CompletedAt, &t.CancelledAt,
	)
	return t, err
}

// Create inserts a new task. Pre-assigned tasks start in progress,
// pool tasks start pending.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Task, error) {
	status := StatusPending
	if params.AssignedToID != nil {
		status = StatusInProgress
	}

	query := `
		INSERT INTO tasks (
			id, definition_id, customer_id, title, description, target_role,
			product_code, status, assigned_to_id, created_by_id
		)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + taskColumns

	task, err := scanTask(r.pool.QueryRow(ctx, query,
		params.DefinitionID, params.CustomerID, params.Title, params.Description, params.TargetRole,
		params.ProductCode, status, params.AssignedToID, params.CreatedByID,
	))
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// GetByID fetches one task.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, apperr.NotFound("task not found")
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// List returns tasks matching the filter, oldest first.
func (r *Repo) List(ctx context.Context, filter ListFilter) ([]Task, error) {
	conditions := make([]string, 0, 4)
	args := make([]interface{}, 0, 4)

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			args = append(args, s)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
		}
		conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
	}
	if filter.PoolOnly {
		conditions = append(conditions, "assigned_to_id IS NULL")
	}
	if filter.TargetRole != "" {
		args = append(args, filter.TargetRole)
		conditions = append(conditions, fmt.Sprintf("(target_role IS NULL OR target_role = $%d)", len(args)))
	}
	if filter.AssignedToID != nil {
		args = append(args, *filter.AssignedToID)
		conditions = append(conditions, fmt.Sprintf("assigned_to_id = $%d", len(args)))
	}
	if filter.CreatedByID != nil {
		args = append(args, *filter.CreatedByID)
		conditions = append(conditions, fmt.Sprintf("created_by_id = $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf("SELECT %s FROM tasks%s ORDER BY created_at ASC LIMIT $%d OFFSET $%d",
		taskColumns, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Claim assigns a pending pool task. On zero rows the task was either
// claimed concurrently or is past claiming, both a Conflict.
func (r *Repo) Claim(ctx context.Context, taskID, userID uuid.UUID) error {
	query := `
		UPDATE tasks
		SET assigned_to_id = $2, status = $3
		WHERE id = $1 AND assigned_to_id IS NULL AND status = $4`

	tag, err := r.pool.Exec(ctx, query, taskID, userID, StatusInProgress, StatusPending)
	if err != nil {
		return fmt.Errorf("claim task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureExists(ctx, taskID); err != nil {
			return err
		}
		return apperr.Conflict("task is already assigned")
	}
	return nil
}

// Complete marks an in-progress task done for its assignee.
func (r *Repo) Complete(ctx context.Context, taskID, userID uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = $3, completed_at = now()
		WHERE id = $1 AND assigned_to_id = $2 AND status = $4`

	tag, err := r.pool.Exec(ctx, query, taskID, userID, StatusCompleted, StatusInProgress)
	if err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureExists(ctx, taskID); err != nil {
			return err
		}
		return apperr.Conflict("task is not in progress for this user")
	}
	return nil
}

// Cancel marks a pending unassigned task cancelled, keeping the row.
func (r *Repo) Cancel(ctx context.Context, taskID uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = $2, cancelled_at = now()
		WHERE id = $1 AND assigned_to_id IS NULL AND status = $3`

	tag, err := r.pool.Exec(ctx, query, taskID, StatusCancelled, StatusPending)
	if err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if err := r.ensureExists(ctx, taskID); err != nil {
			return err
		}
		return apperr.Conflict("task is no longer cancellable")
	}
	return nil
}

// ListPendingOlderThan returns pool tasks created before the cutoff.
func (r *Repo) ListPendingOlderThan(ctx context.Context, cutoff time.Time) ([]Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE status = $1 AND assigned_to_id IS NULL AND created_at < $2
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, StatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list pending tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *Repo) ensureExists(ctx context.Context, id uuid.UUID) error {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check task: %w", err)
	}
	if !exists {
		return apperr.NotFound("task not found")
	}
	return nil
}

// CreateDefinition inserts a task definition.
func (r *Repo) CreateDefinition(ctx context.Context, params DefinitionParams) (Definition, error) {
	query := `
		INSERT INTO task_definitions (id, name, default_target_role, requires_product_code)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, name, default_target_role, requires_product_code, created_at`

	var d Definition
	err := r.pool.QueryRow(ctx, query, params.Name, params.DefaultTargetRole, params.RequiresProductCode).
		Scan(&d.ID, &d.Name, &d.DefaultTargetRole, &d.RequiresProductCode, &d.CreatedAt)
	if err != nil {
		return Definition{}, fmt.Errorf("create task definition: %w", err)
	}
	return d, nil
}

// GetDefinition fetches one task definition.
func (r *Repo) GetDefinition(ctx context.Context, id uuid.UUID) (Definition, error) {
	query := `SELECT id, name, default_target_role, requires_product_code, created_at
		FROM task_definitions WHERE id = $1`

	var d Definition
	err := r.pool.QueryRow(ctx, query, id).
		Scan(&d.ID, &d.Name, &d.DefaultTargetRole, &d.RequiresProductCode, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, apperr.NotFound("task definition not found")
		}
		return Definition{}, fmt.Errorf("get task definition: %w", err)
	}
	return d, nil
}

// ListDefinitions returns all task definitions ordered by name.
func (r *Repo) ListDefinitions(ctx context.Context) ([]Definition, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, default_target_role, requires_product_code, created_at
		FROM task_definitions ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list task definitions: %w", err)
	}
	defer rows.Close()

	defs := make([]Definition, 0)
	for rows.Next() {
		var d Definition
		if err := rows.Scan(&d.ID, &d.Name, &d.DefaultTargetRole, &d.RequiresProductCode, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task definition: %w", err)
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// UpdateDefinition replaces a definition's fields.
func (r *Repo) UpdateDefinition(ctx context.Context, id uuid.UUID, params DefinitionParams) (Definition, error) {
	query := `
		UPDATE task_definitions
		SET name = $2, default_target_role = $3, requires_product_code = $4
		WHERE id = $1
		RETURNING id, name, default_target_role, requires_product_code, created_at`

	var d Definition
	err := r.pool.QueryRow(ctx, query, id, params.Name, params.DefaultTargetRole, params.RequiresProductCode).
		Scan(&d.ID, &d.Name, &d.DefaultTargetRole, &d.RequiresProductCode, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Definition{}, apperr.NotFound("task definition not found")
		}
		return Definition{}, fmt.Errorf("update task definition: %w", err)
	}
	return d, nil
}

// DeleteDefinition removes a definition. Existing tasks keep a null
// definition reference.
func (r *Repo) DeleteDefinition(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM task_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task definition: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task definition not found")
	}
	return nil
}
