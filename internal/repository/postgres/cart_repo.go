package postgres

import (
	"context"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/gofrs/uuid/v5"
)

// CartRepo implements CartRepository using PostgreSQL.
// Entries carry no foreign key to products: a deleted product simply drops
// out of the resolved cart.
type CartRepo struct{ db *DB }

// NewCartRepo constructs a cart repository.
func NewCartRepo(db *DB) *CartRepo { return &CartRepo{db: db} }

// Add appends an entry.
func (r *CartRepo) Add(ctx context.Context, buyerID, productID uuid.UUID) error {
	const q = `INSERT INTO cart_items (buyer_id, product_id) VALUES ($1, $2)`
	_, err := r.db.Pool.Exec(ctx, q, buyerID, productID)
	return err
}

// Remove deletes the oldest matching entry.
func (r *CartRepo) Remove(ctx context.Context, buyerID, productID uuid.UUID) error {
	const q = `
DELETE FROM cart_items WHERE seq = (
  SELECT seq FROM cart_items WHERE buyer_id=$1 AND product_id=$2 ORDER BY seq LIMIT 1
)`
	tag, err := r.db.Pool.Exec(ctx, q, buyerID, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// List returns product IDs in insertion order.
func (r *CartRepo) List(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error) {
	const q = `SELECT product_id FROM cart_items WHERE buyer_id=$1 ORDER BY seq ASC`
	rows, err := r.db.Pool.Query(ctx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err = rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Clear empties the cart.
func (r *CartRepo) Clear(ctx context.Context, buyerID uuid.UUID) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM cart_items WHERE buyer_id=$1`, buyerID)
	return err
}
