package repository

import (
	"context"

	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
)

// BidRepository persists recycling bids.
type BidRepository interface {
	// Insert stores a bid while the product is pending recycling.
	Insert(ctx context.Context, productID uuid.UUID, b model.Bid) error
	// ListByProduct returns the product's bids in placement order.
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Bid, error)
}

// CartRepository persists buyer carts as ordered multisets of product IDs.
type CartRepository interface {
	// Add appends a product to the buyer's cart.
	Add(ctx context.Context, buyerID, productID uuid.UUID) error
	// Remove drops the oldest matching entry; errs.ErrNotFound if absent.
	Remove(ctx context.Context, buyerID, productID uuid.UUID) error
	// List returns product IDs in insertion order.
	List(ctx context.Context, buyerID uuid.UUID) ([]uuid.UUID, error)
	// Clear empties the buyer's cart.
	Clear(ctx context.Context, buyerID uuid.UUID) error
}

// TransactionRepository reads the append-only purchase ledger.
type TransactionRepository interface {
	// ListForBuyer returns the buyer's transactions, newest first.
	ListForBuyer(ctx context.Context, buyerID uuid.UUID) ([]model.Transaction, error)
}

// ReviewRepository is the durable review log.
type ReviewRepository interface {
	// Create appends a review.
	Create(ctx context.Context, r *model.Review) error
	// ListRecent returns reviews newest first; limit <= 0 means all.
	ListRecent(ctx context.Context, limit int) ([]model.Review, error)
}

// SettlementRepository runs the multi-store mutations as single transactions.
// Either every effect lands or none does.
type SettlementRepository interface {
	// AcceptBid credits the seller with the winning bid, deletes every bid on the
	// product and moves it to recycling_purchased, owned by the winner.
	AcceptBid(ctx context.Context, productID uuid.UUID, winner model.Bid) (model.Acceptance, error)
	// Purchase marks an available product sold to the buyer, credits the seller,
	// appends a completed transaction and drops the product from the buyer's cart.
	Purchase(ctx context.Context, tx model.Transaction) (model.Transaction, error)
	// SubmitProof marks an acquired product recycled and awards both credit shares.
	SubmitProof(ctx context.Context, award model.ProofAward) error
}
