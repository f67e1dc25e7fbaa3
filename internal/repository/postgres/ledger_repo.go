package postgres

import (
	"context"

	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TransactionRepo implements TransactionRepository using PostgreSQL.
type TransactionRepo struct{ db *DB }

// NewTransactionRepo constructs a transaction repository.
func NewTransactionRepo(db *DB) *TransactionRepo { return &TransactionRepo{db: db} }

// ListForBuyer returns the buyer's transactions, newest first.
func (r *TransactionRepo) ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Transaction, error) {
	const q = `
SELECT id, buyer_id, product_id, price, status, created_at
FROM transactions WHERE buyer_id=$1
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		var (
			t      model.Transaction
			status string
		)
		if err = rows.Scan(&t.ID, &t.BuyerID, &t.ProductID, &t.Price, &status, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.Status = model.TransactionStatus(status)
		out = append(out, t)
	}
	return out, rows.Err()
}

// ReviewRepo implements ReviewRepository using PostgreSQL.
type ReviewRepo struct{ db *DB }

// NewReviewRepo constructs a review repository.
func NewReviewRepo(db *DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create appends a review.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) error {
	const q = `INSERT INTO reviews (id, product_id, buyer_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, rv.ID, rv.ProductID, rv.BuyerID, rv.Text, rv.CreatedAt)
	return err
}

// ListRecent returns reviews newest first; seq breaks timestamp ties so the
// order always matches insertion order.
func (r *ReviewRepo) ListRecent(ctx context.Context, limit int) ([]model.Review, error) {
	const (
		all     = `SELECT id, product_id, buyer_id, text, created_at FROM reviews ORDER BY created_at DESC, seq DESC`
		limited = all + ` LIMIT $1`
	)
	var args []any
	q := all
	if limit > 0 {
		q = limited
		args = append(args, limit)
	}
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Review
	for rows.Next() {
		var rv model.Review
		if err = rows.Scan(&rv.ID, &rv.ProductID, &rv.BuyerID, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}
