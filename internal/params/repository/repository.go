package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/canerkaradagAI/high5-backoffice-sub000/platform/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Parameter is a generic string key/value configuration row.
type Parameter struct {
	Key         string
	Value       string
	Description *string
}

// Repository provides parameter persistence.
type Repository interface {
	Get(ctx context.Context, key string) (Parameter, error)
	List(ctx context.Context) ([]Parameter, error)
	Upsert(ctx context.Context, param Parameter) (Parameter, error)
	Delete(ctx context.Context, key string) error
}

// Repo implements Repository with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new parameter repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Get fetches one parameter by key.
func (r *Repo) Get(ctx context.Context, key string) (Parameter, error) {
	query := `SELECT key, value, description FROM parameters WHERE key = $1`

	var p Parameter
	err := r.pool.QueryRow(ctx, query, key).Scan(&p.Key, &p.Value, &p.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Parameter{}, apperr.NotFound("parameter not found")
		}
		return Parameter{}, fmt.Errorf("get parameter: %w", err)
	}
	return p, nil
}

// List returns all parameters ordered by key.
func (r *Repo) List(ctx context.Context) ([]Parameter, error) {
	rows, err := r.pool.Query(ctx, `SELECT key, value, description FROM parameters ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list parameters: %w", err)
	}
	defer rows.Close()

	params := make([]Parameter, 0)
	for rows.Next() {
		var p Parameter
		if err := rows.Scan(&p.Key, &p.Value, &p.Description); err != nil {
			return nil, fmt.Errorf("scan parameter: %w", err)
		}
		params = append(params, p)
	}
	return params, rows.Err()
}

// Upsert inserts or updates a parameter.
func (r *Repo) Upsert(ctx context.Context, param Parameter) (Parameter, error) {
	query := `
		INSERT INTO parameters (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, description = COALESCE(EXCLUDED.description, parameters.description), updated_at = now()
		RETURNING key, value, description`

	var p Parameter
	err := r.pool.QueryRow(ctx, query, param.Key, param.Value, param.Description).Scan(&p.Key, &p.Value, &p.Description)
	if err != nil {
		return Parameter{}, fmt.Errorf("upsert parameter: %w", err)
	}
	return p, nil
}

// Delete removes a parameter.
func (r *Repo) Delete(ctx context.Context, key string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM parameters WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("delete parameter: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("parameter not found")
	}
	return nil
}
