package postgres

import (
	"context"

	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
)

// BidRepo implements BidRepository using PostgreSQL.
type BidRepo struct{ db *DB }

// NewBidRepo constructs a bid repository.
func NewBidRepo(db *DB) *BidRepo { return &BidRepo{db: db} }

// Insert stores a bid only while the product is pending recycling.
func (r *BidRepo) Insert(ctx context.Context, productID uuid.UUID, b model.Bid) error {
	const q = `
INSERT INTO bids (product_id, recycler_id, price, placed_at)
SELECT $1, $2, $3, $4
WHERE EXISTS (SELECT 1 FROM products WHERE id=$1 AND status='pending_recycling')`
	tag, err := r.db.Pool.Exec(ctx, q, productID, b.RecyclerID, b.Price, b.PlacedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return explainMiss(ctx, r.db.Pool, productID)
	}
	return nil
}

// ListByProduct returns bids in placement order.
func (r *BidRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Bid, error) {
	const q = `SELECT recycler_id, price, placed_at FROM bids WHERE product_id=$1 ORDER BY seq ASC`
	rows, err := r.db.Pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Bid
	for rows.Next() {
		var b model.Bid
		if err = rows.Scan(&b.RecyclerID, &b.Price, &b.PlacedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
