package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// ListProduct publishes a new available product for the seller in s.
func (m *Marketplace) ListProduct(ctx context.Context, s model.Session, in model.NewProduct) (*model.Product, error) {
	if err := m.authorize(s, model.RoleSeller); err != nil {
		return nil, err
	}
	if err := m.validateInput(in, "product"); err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, m.fault("list product", err)
	}
	p := &model.Product{
		ID:          id,
		Name:        in.Name,
		Type:        strings.ToLower(in.Type),
		Category:    strings.ToLower(in.Category),
		Price:       in.Price,
		Description: in.Description,
		SellerID:    s.UserID,
		Status:      model.StatusAvailable,
		UploadedAt:  m.now().UTC(),
	}
	if err := m.st.Products.Create(ctx, p); err != nil {
		return nil, m.fault("list product", err, zap.String("name", in.Name))
	}
	m.log.Info("product listed", zap.Stringer("product_id", id), zap.Stringer("seller_id", s.UserID))
	return p, nil
}

// UpdateProduct edits description and price of an unsold product.
func (m *Marketplace) UpdateProduct(ctx context.Context, s model.Session, id uuid.UUID, upd model.ProductUpdate) error {
	if err := m.validateInput(upd, "product update"); err != nil {
		return err
	}
	p, err := m.owned(ctx, s, id)
	if err != nil {
		return err
	}
	if !p.Status.Purchasable() {
		return m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	if err := m.st.Products.Update(ctx, id, upd, model.PurchasableStatuses); err != nil {
		return m.fault("update product", err, zap.Stringer("product_id", id))
	}
	return nil
}

// Product returns one product.
func (m *Marketplace) Product(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	return m.product(ctx, id)
}

// MyProducts lists every product of the seller in s, newest first.
func (m *Marketplace) MyProducts(ctx context.Context, s model.Session) ([]model.Product, error) {
	if err := m.authorize(s, model.RoleSeller); err != nil {
		return nil, err
	}
	out, err := m.st.Products.List(ctx, model.ProductFilter{SellerID: s.UserID})
	if err != nil {
		return nil, m.fault("list seller products", err)
	}
	return out, nil
}

// BrowseFilter narrows the buyer catalog. Zero fields do not filter.
type BrowseFilter struct {
	Category    string
	MinPrice    float64
	MaxPrice    float64
	SortByPrice bool
}

// Browse lists purchasable products.
func (m *Marketplace) Browse(ctx context.Context, f BrowseFilter) ([]model.Product, error) {
	if !ValidAmount(f.MinPrice) || !ValidAmount(f.MaxPrice) || (f.MaxPrice > 0 && f.MinPrice > f.MaxPrice) {
		return nil, m.reject(errs.ErrValidation, "invalid price range %.2f-%.2f", f.MinPrice, f.MaxPrice)
	}
	out, err := m.st.Products.List(ctx, model.ProductFilter{
		Statuses:    model.PurchasableStatuses,
		Category:    f.Category,
		MinPrice:    f.MinPrice,
		MaxPrice:    f.MaxPrice,
		SortByPrice: f.SortByPrice,
	})
	if err != nil {
		return nil, m.fault("browse", err)
	}
	return out, nil
}

// EligibleForApproval lists the seller's products that may be approved for recycling now.
func (m *Marketplace) EligibleForApproval(ctx context.Context, s model.Session) ([]model.Product, error) {
	if err := m.authorize(s, model.RoleSeller); err != nil {
		return nil, err
	}
	ps, err := m.st.Products.List(ctx, model.ProductFilter{
		SellerID: s.UserID,
		Statuses: []model.ProductStatus{model.StatusAvailable},
	})
	if err != nil {
		return nil, m.fault("list eligible products", err)
	}
	now := m.now()
	out := ps[:0]
	for i := range ps {
		if IsEligible(&ps[i], now) {
			out = append(out, ps[i])
		}
	}
	return out, nil
}

// Approve sends an eligible available product to the recycling market.
func (m *Marketplace) Approve(ctx context.Context, s model.Session, id uuid.UUID) error {
	p, err := m.owned(ctx, s, id)
	if err != nil {
		return err
	}
	if p.Status != model.StatusAvailable {
		return m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	if !IsEligible(p, m.now()) {
		return m.reject(errs.ErrInvalidState, "product is not yet eligible for recycling (%s after listing)",
			EligibilityThreshold(p.Category))
	}
	return m.setStatus(ctx, id, model.StatusAvailable, model.StatusPendingRecycling)
}

// Deny keeps an available product out of recycling for good.
func (m *Marketplace) Deny(ctx context.Context, s model.Session, id uuid.UUID) error {
	p, err := m.owned(ctx, s, id)
	if err != nil {
		return err
	}
	if p.Status != model.StatusAvailable {
		return m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	return m.setStatus(ctx, id, model.StatusAvailable, model.StatusAvailableNoRecycle)
}

func (m *Marketplace) setStatus(ctx context.Context, id uuid.UUID, from, to model.ProductStatus) error {
	if !from.CanTransitionTo(to) {
		return m.reject(errs.ErrInvalidState, "cannot move from %s to %s", from.DisplayName(), to.DisplayName())
	}
	if err := m.st.Products.SetStatus(ctx, id, from, to); err != nil {
		return m.fault("change product status", err, zap.Stringer("product_id", id))
	}
	m.transitioned(id, from, to)
	return nil
}

// DeleteProduct removes an unsold product and remembers it for UndoDelete.
func (m *Marketplace) DeleteProduct(ctx context.Context, s model.Session, id uuid.UUID) error {
	p, err := m.owned(ctx, s, id)
	if err != nil {
		return err
	}
	if !p.Status.Purchasable() {
		return m.reject(errs.ErrInvalidState, "product is %s and cannot be deleted", p.Status.DisplayName())
	}
	if err := m.st.Products.Delete(ctx, id, model.PurchasableStatuses); err != nil {
		return m.fault("delete product", err, zap.Stringer("product_id", id))
	}
	m.deleted.Push(*p)
	m.log.Info("product deleted", zap.Stringer("product_id", id))
	return nil
}

// UndoDelete restores the most recently deleted product, whoever deleted it.
// If the store rejects the restore the snapshot stays on the stack.
func (m *Marketplace) UndoDelete(ctx context.Context, s model.Session) (*model.Product, error) {
	if err := m.authorize(s, model.RoleSeller); err != nil {
		return nil, err
	}
	p, ok := m.deleted.Pop()
	if !ok {
		return nil, m.reject(errs.ErrNotFound, "nothing to undo")
	}
	if err := m.st.Products.Create(ctx, &p); err != nil {
		m.deleted.Push(p)
		return nil, m.fault("restore product", err, zap.Stringer("product_id", p.ID))
	}
	m.metrics.Undos.WithLabelValues("delete").Inc()
	m.log.Info("product restored", zap.Stringer("product_id", p.ID))
	return &p, nil
}

// CanUndoDelete reports whether UndoDelete has anything to restore.
func (m *Marketplace) CanUndoDelete() bool { return m.deleted.NonEmpty() }
