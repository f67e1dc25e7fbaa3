package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// SettlementRepo implements SettlementRepository using PostgreSQL transactions.
type SettlementRepo struct{ db *DB }

// NewSettlementRepo constructs a settlement repository.
func NewSettlementRepo(db *DB) *SettlementRepo { return &SettlementRepo{db: db} }

// AcceptBid settles the winning bid. The winner must still be the highest
// durable bid, otherwise the caller's view is stale and ErrInvalidState is returned.
func (r *SettlementRepo) AcceptBid(
	ctx context.Context, productID uuid.UUID, winner model.Bid,
) (acc model.Acceptance, err error) {
	const (
		sel    = `SELECT seller_id, status FROM products WHERE id=$1 FOR UPDATE`
		maxBid = `SELECT COALESCE(MAX(price), -1) FROM bids WHERE product_id=$1`
		delAll = `DELETE FROM bids WHERE product_id=$1`
		upd    = `UPDATE products SET status='recycling_purchased', acquired_by=$2 WHERE id=$1`
	)
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		var (
			sellerID uuid.UUID
			status   string
		)
		if err := tx.QueryRow(ctx, sel, productID).Scan(&sellerID, &status); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return errs.ErrNotFound
			}
			return err
		}
		if model.ProductStatus(status) != model.StatusPendingRecycling {
			return fmt.Errorf("product is %s: %w", status, errs.ErrInvalidState)
		}
		var top float64
		if err := tx.QueryRow(ctx, maxBid, productID).Scan(&top); err != nil {
			return err
		}
		if top < 0 {
			return fmt.Errorf("no bids: %w", errs.ErrInvalidState)
		}
		if top != winner.Price {
			return fmt.Errorf("stale winning bid %.2f (highest %.2f): %w", winner.Price, top, errs.ErrInvalidState)
		}
		if err := increment(ctx, tx, addSalesSQL, sellerID, winner.Price); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, delAll, productID); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, upd, productID, winner.RecyclerID); err != nil {
			return err
		}
		acc = model.Acceptance{ProductID: productID, SellerID: sellerID, Winner: winner}
		return nil
	})
	if err != nil {
		return model.Acceptance{}, err
	}
	return acc, nil
}

// Purchase sells one product to t.BuyerID. The status guard in the UPDATE is
// the only defence against two buyers purchasing the same item.
func (r *SettlementRepo) Purchase(ctx context.Context, t model.Transaction) (out model.Transaction, err error) {
	const (
		sell = `
UPDATE products SET status='sold'
WHERE id=$1 AND status = ANY($2)
RETURNING price, seller_id`
		ins = `
INSERT INTO transactions (id, buyer_id, product_id, price, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`
		uncart = `DELETE FROM cart_items WHERE buyer_id=$1 AND product_id=$2`
	)
	err = r.db.inTx(ctx, func(tx pgx.Tx) error {
		var (
			price    float64
			sellerID uuid.UUID
		)
		err := tx.QueryRow(ctx, sell, t.ProductID, statusStrings(model.PurchasableStatuses)).Scan(&price, &sellerID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return explainMiss(ctx, tx, t.ProductID)
			}
			return err
		}
		if err := increment(ctx, tx, addSalesSQL, sellerID, price); err != nil {
			return err
		}
		out = t
		out.Price = price
		out.Status = model.TxCompleted
		if _, err := tx.Exec(ctx, ins, out.ID, out.BuyerID, out.ProductID, out.Price, string(out.Status), out.CreatedAt); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, uncart, t.BuyerID, t.ProductID)
		return err
	})
	if err != nil {
		return model.Transaction{}, err
	}
	return out, nil
}

// SubmitProof marks the product recycled and credits recycler and seller.
func (r *SettlementRepo) SubmitProof(ctx context.Context, a model.ProofAward) error {
	const recycle = `
UPDATE products SET status='recycled'
WHERE id=$1 AND status='recycling_purchased' AND acquired_by=$2`
	return r.db.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, recycle, a.ProductID, a.RecyclerID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return explainMiss(ctx, tx, a.ProductID)
		}
		if err := increment(ctx, tx, addCreditsSQL, a.RecyclerID, a.RecyclerShare); err != nil {
			return err
		}
		return increment(ctx, tx, addCreditsSQL, a.SellerID, a.SellerShare)
	})
}
