package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// ProductStatus is the lifecycle state of a listed product.
type ProductStatus string

const (
	StatusAvailable          ProductStatus = "available"
	StatusAvailableNoRecycle ProductStatus = "available_no_recycle"
	StatusSold               ProductStatus = "sold"
	StatusPendingRecycling   ProductStatus = "pending_recycling"
	StatusRecyclingPurchased ProductStatus = "recycling_purchased"
	StatusRecycled           ProductStatus = "recycled"
)

// validTransitions defines the allowed state machine transitions.
// Sold and Recycled are terminal.
var validTransitions = map[ProductStatus][]ProductStatus{
	StatusAvailable:          {StatusAvailableNoRecycle, StatusSold, StatusPendingRecycling},
	StatusAvailableNoRecycle: {StatusSold},
	StatusPendingRecycling:   {StatusRecyclingPurchased},
	StatusRecyclingPurchased: {StatusRecycled},
}

var displayNames = map[ProductStatus]string{
	StatusAvailable:          "Available",
	StatusAvailableNoRecycle: "Available (Recycling Denied)",
	StatusSold:               "Sold",
	StatusPendingRecycling:   "Pending Recycling",
	StatusRecyclingPurchased: "Recycling - Purchased",
	StatusRecycled:           "Recycled",
}

// PurchasableStatuses are the statuses a buyer may purchase from; they are also the only deletable ones.
var PurchasableStatuses = []ProductStatus{StatusAvailable, StatusAvailableNoRecycle}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s ProductStatus) CanTransitionTo(next ProductStatus) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Purchasable reports whether a product in status s can be bought (and deleted).
func (s ProductStatus) Purchasable() bool {
	return s == StatusAvailable || s == StatusAvailableNoRecycle
}

// Terminal reports whether no transition leaves s.
func (s ProductStatus) Terminal() bool { return len(validTransitions[s]) == 0 }

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	_, ok := displayNames[s]
	return ok
}

// DisplayName is the human-readable status.
func (s ProductStatus) DisplayName() string {
	if n, ok := displayNames[s]; ok {
		return n
	}
	return string(s)
}

// Product is a catalog listing owned by one seller.
type Product struct {
	ID          uuid.UUID
	Name        string
	Type        string // lower-cased
	Category    string // lower-cased
	Price       float64
	Description string
	SellerID    uuid.UUID
	Status      ProductStatus
	UploadedAt  time.Time
	AcquiredBy  uuid.UUID // recycler whose bid was accepted; uuid.Nil otherwise
}

// NewProduct is a seller's listing request.
type NewProduct struct {
	Name        string  `validate:"required"`
	Type        string  `validate:"required"`
	Category    string  `validate:"required"`
	Price       float64 `validate:"amount"`
	Description string
}

// ProductUpdate is a seller's edit of an unsold listing.
type ProductUpdate struct {
	Description string
	Price       float64 `validate:"amount"`
}

// ProductFilter selects products from the catalog. Zero fields do not filter.
type ProductFilter struct {
	SellerID    uuid.UUID
	AcquiredBy  uuid.UUID
	Statuses    []ProductStatus
	Category    string
	MinPrice    float64
	MaxPrice    float64 // 0 = unbounded
	SortByPrice bool    // ascending price; newest first otherwise
}

// Bid is an immutable recycling offer on a pending product.
type Bid struct {
	RecyclerID uuid.UUID
	Price      float64
	PlacedAt   time.Time
}
