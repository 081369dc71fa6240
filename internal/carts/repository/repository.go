package repository

import (
	"context"
	"errors"
	"fmt"

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

// New creates a new cart repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const cartColumns = `id, customer_id, status, total_cents, share_status, shared_at, created_at, updated_at`

func scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	err := row.Scan(&c.ID, &c.CustomerID, &c.Status, &c.TotalCents,
		&c.ShareStatus, &c.SharedAt, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// GetOrCreateOpen returns the customer's open cart, creating one if
// absent. The partial unique index on open carts turns a concurrent
// create into a unique violation, which resolves to the existing cart.
func (r *Repo) GetOrCreateOpen(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	cart, err := r.findOpen(ctx, customerID)
	if err == nil {
		return r.withItems(ctx, cart)
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return Cart{}, err
	}

	query := `
		INSERT INTO carts (id, customer_id, status)
		VALUES (gen_random_uuid(), $1, $2)
		RETURNING ` + cartColumns

	cart, err = scanCart(r.pool.QueryRow(ctx, query, customerID, StatusOpen))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Lost the race; the concurrent creator's cart is the open one.
			cart, err = r.findOpen(ctx, customerID)
			if err != nil {
				return Cart{}, err
			}
			return r.withItems(ctx, cart)
		}
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Cart{}, apperr.NotFound("customer not found")
		}
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	cart.Items = []Item{}
	return cart, nil
}

func (r *Repo) findOpen(ctx context.Context, customerID uuid.UUID) (Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE customer_id = $1 AND status = $2`
	cart, err := scanCart(r.pool.QueryRow(ctx, query, customerID, StatusOpen))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, apperr.NotFound("no open cart")
		}
		return Cart{}, fmt.Errorf("find open cart: %w", err)
	}
	return cart, nil
}

// GetByID fetches a cart with its items.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`
	cart, err := scanCart(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, apperr.NotFound("cart not found")
		}
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return r.withItems(ctx, cart)
}

func (r *Repo) withItems(ctx context.Context, cart Cart) (Cart, error) {
	items, err := r.listItems(ctx, r.pool, cart.ID)
	if err != nil {
		return Cart{}, err
	}
	cart.Items = items
	return cart, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (r *Repo) listItems(ctx context.Context, q querier, cartID uuid.UUID) ([]Item, error) {
	rows, err := q.Query(ctx, `
		SELECT id, cart_id, sku, title, quantity, unit_price_cents, created_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at ASC`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.SKU, &it.Title, &it.Quantity, &it.UnitPriceCents, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// AddItem appends a new line to an open cart. Each add is its own line,
// even for a repeated sku.
func (r *Repo) AddItem(ctx context.Context, cartID uuid.UUID, params AddItemParams) (Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, sku, title, quantity, unit_price_cents)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5)`,
			cartID, params.SKU, params.Title, params.Quantity, params.UnitPriceCents)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
		return nil
	})
}

// UpdateQuantity changes a line's quantity.
func (r *Repo) UpdateQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE cart_items SET quantity = $3 WHERE id = $2 AND cart_id = $1`,
			cartID, itemID, quantity)
		if err != nil {
			return fmt.Errorf("update cart item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("cart item not found")
		}
		return nil
	})
}

// RemoveItem deletes a line.
func (r *Repo) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (Cart, error) {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $2 AND cart_id = $1`, cartID, itemID)
		if err != nil {
			return fmt.Errorf("delete cart item: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("cart item not found")
		}
		return nil
	})
}

// mutate runs op against an open cart and recomputes the stored total
// from the lines before committing. The cart row is locked for the
// duration so the recomputed total cannot interleave with another write.
func (r *Repo) mutate(ctx context.Context, cartID uuid.UUID, op func(tx pgx.Tx) error) (Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Cart{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM carts WHERE id = $1 FOR UPDATE`, cartID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, apperr.NotFound("cart not found")
		}
		return Cart{}, fmt.Errorf("lock cart: %w", err)
	}
	if status != StatusOpen {
		return Cart{}, apperr.Conflict("cart is not open")
	}

	if err := op(tx); err != nil {
		return Cart{}, err
	}

	cart, err := r.recomputeTotal(ctx, tx, cartID)
	if err != nil {
		return Cart{}, err
	}

	items, err := r.listItems(ctx, tx, cartID)
	if err != nil {
		return Cart{}, err
	}
	cart.Items = items

	if err := tx.Commit(ctx); err != nil {
		return Cart{}, fmt.Errorf("commit: %w", err)
	}
	return cart, nil
}

func (r *Repo) recomputeTotal(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) (Cart, error) {
	query := `
		UPDATE carts
		SET total_cents = (
			SELECT COALESCE(SUM(quantity * unit_price_cents), 0)
			FROM cart_items WHERE cart_id = $1
		), updated_at = now()
		WHERE id = $1
		RETURNING ` + cartColumns

	cart, err := scanCart(tx.QueryRow(ctx, query, cartID))
	if err != nil {
		return Cart{}, fmt.Errorf("recompute cart total: %w", err)
	}
	return cart, nil
}

// Checkout completes an open cart and rolls its total into the
// customer's lifetime spend.
func (r *Repo) Checkout(ctx context.Context, cartID uuid.UUID) (Cart, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Cart{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Recompute before closing so the stored total cannot drift from the
	// lines at the moment of sale.
	if _, err := r.recomputeTotal(ctx, tx, cartID); err != nil {
		return Cart{}, err
	}

	query := `
		UPDATE carts SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING ` + cartColumns

	cart, err := scanCart(tx.QueryRow(ctx, query, cartID, StatusCompleted, StatusOpen))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, apperr.Conflict("cart is not open")
		}
		return Cart{}, fmt.Errorf("checkout cart: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE customers SET total_spent_cents = total_spent_cents + $2, updated_at = now()
		WHERE id = $1`, cart.CustomerID, cart.TotalCents)
	if err != nil {
		return Cart{}, fmt.Errorf("update customer spend: %w", err)
	}

	items, err := r.listItems(ctx, tx, cartID)
	if err != nil {
		return Cart{}, err
	}
	cart.Items = items

	if err := tx.Commit(ctx); err != nil {
		return Cart{}, fmt.Errorf("commit: %w", err)
	}
	return cart, nil
}

// MarkSharePending stamps the cart before the share job is enqueued.
func (r *Repo) MarkSharePending(ctx context.Context, cartID uuid.UUID) error {
	return r.setShareStatus(ctx, cartID, ShareStatusPending, false)
}

// RecordShareOutcome stores the external application's verdict.
func (r *Repo) RecordShareOutcome(ctx context.Context, cartID uuid.UUID, succeeded bool) error {
	status := ShareStatusFailed
	if succeeded {
		status = ShareStatusSent
	}
	return r.setShareStatus(ctx, cartID, status, true)
}

func (r *Repo) setShareStatus(ctx context.Context, cartID uuid.UUID, status string, stamp bool) error {
	query := `UPDATE carts SET share_status = $2, updated_at = now() WHERE id = $1`
	if stamp {
		query = `UPDATE carts SET share_status = $2, shared_at = now(), updated_at = now() WHERE id = $1`
	}
	tag, err := r.pool.Exec(ctx, query, cartID, status)
	if err != nil {
		return fmt.Errorf("set share status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("cart not found")
	}
	return nil
}
