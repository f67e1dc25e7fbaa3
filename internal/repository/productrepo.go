package repository

import (
	"context"
	"time"

	"github.com/and161185/ecocycle/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ProductRepository provides catalog access. Status writes are guarded by the
// expected current status so concurrent actors cannot both win.
type ProductRepository interface {
	// Create inserts a product; a duplicate ID yields errs.ErrAlreadyExists.
	Create(ctx context.Context, p *model.Product) error
	// Get loads a product by ID.
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	// List returns products matching the filter.
	List(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	// Update edits description and price while the product is in one of the given statuses.
	Update(ctx context.Context, id uuid.UUID, upd model.ProductUpdate, in []model.ProductStatus) error
	// SetStatus moves the product from one status to another; errs.ErrInvalidState if it is no longer in from.
	SetStatus(ctx context.Context, id uuid.UUID, from, to model.ProductStatus) error
	// Delete removes the product while it is in one of the given statuses.
	Delete(ctx context.Context, id uuid.UUID, in []model.ProductStatus) error
	// SetUploadedAt rewrites the listing time (demo seeding only).
	SetUploadedAt(ctx context.Context, id uuid.UUID, at time.Time) error
}
