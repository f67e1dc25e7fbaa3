package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// TransactionStatus is the settlement state of a purchase.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxCompleted TransactionStatus = "completed"
)

// Transaction is an append-only purchase record. Price is a snapshot taken at purchase time.
type Transaction struct {
	ID        uuid.UUID
	BuyerID   uuid.UUID
	ProductID uuid.UUID
	Price     float64
	CreatedAt time.Time
	Status    TransactionStatus
}

// Review is an append-only buyer review.
type Review struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	BuyerID   uuid.UUID
	Text      string
	CreatedAt time.Time
}

// CartEntry is one (buyer, product) membership; a cart may hold the same product twice.
type CartEntry struct {
	BuyerID   uuid.UUID
	ProductID uuid.UUID
}

// CartSnapshot records a removed cart entry for undo.
type CartSnapshot struct {
	BuyerID uuid.UUID
	Product Product
}

// Placeholders shown when a referenced entity no longer exists.
const (
	UnknownProduct = "Unknown Product"
	UnknownBuyer   = "Unknown Buyer"
	UnknownSeller  = "Unknown Seller"
	DeletedProduct = "[Product Deleted]"
)

// ReviewDetail is a feed row with ids resolved to names.
type ReviewDetail struct {
	Review
	ProductName string
	BuyerName   string
	SellerName  string
}

// TransactionDetail is a ledger row with the product name resolved.
type TransactionDetail struct {
	Transaction
	ProductName string
}

// CartView is a buyer's cart resolved against the catalog.
type CartView struct {
	Items []Product
	Total float64
}

// PurchaseReceipt reports the outcome of a cart purchase.
type PurchaseReceipt struct {
	Transactions []Transaction
	Skipped      []uuid.UUID // products no longer purchasable
	Total        float64
}

// Settlement results returned by the atomic repository operations.
type (
	// Acceptance is the outcome of accepting the winning bid.
	Acceptance struct {
		ProductID uuid.UUID
		SellerID  uuid.UUID
		Winner    Bid
	}

	// ProofAward is the credit split for a recycled product.
	ProofAward struct {
		ProductID     uuid.UUID
		SellerID      uuid.UUID
		RecyclerID    uuid.UUID
		SellerShare   float64
		RecyclerShare float64
	}
)
