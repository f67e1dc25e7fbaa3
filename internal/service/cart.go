package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// AddToCart puts a purchasable product in the buyer's cart.
func (m *Marketplace) AddToCart(ctx context.Context, s model.Session, id uuid.UUID) error {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return err
	}
	p, err := m.product(ctx, id)
	if err != nil {
		return err
	}
	if !p.Status.Purchasable() {
		return m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	if err := m.st.Carts.Add(ctx, s.UserID, id); err != nil {
		return m.fault("add to cart", err, zap.Stringer("product_id", id))
	}
	return nil
}

// RemoveFromCart drops one entry of the product and remembers it for UndoCartRemoval.
func (m *Marketplace) RemoveFromCart(ctx context.Context, s model.Session, id uuid.UUID) error {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return err
	}
	snap := model.CartSnapshot{BuyerID: s.UserID, Product: model.Product{ID: id}}
	p, err := m.st.Products.Get(ctx, id)
	switch {
	case err == nil:
		snap.Product = *p
	case !errors.Is(err, errs.ErrNotFound):
		return m.fault("remove from cart", err, zap.Stringer("product_id", id))
	}
	if err := m.st.Carts.Remove(ctx, s.UserID, id); err != nil {
		return m.fault("remove from cart", err, zap.Stringer("product_id", id))
	}
	m.removed.Push(snap)
	return nil
}

// UndoCartRemoval puts the most recently removed entry back in its cart.
// If the store rejects it the snapshot stays on the stack.
func (m *Marketplace) UndoCartRemoval(ctx context.Context, s model.Session) (*model.Product, error) {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return nil, err
	}
	snap, ok := m.removed.Pop()
	if !ok {
		return nil, m.reject(errs.ErrNotFound, "nothing to undo")
	}
	if err := m.st.Carts.Add(ctx, snap.BuyerID, snap.Product.ID); err != nil {
		m.removed.Push(snap)
		return nil, m.fault("restore cart entry", err, zap.Stringer("product_id", snap.Product.ID))
	}
	m.metrics.Undos.WithLabelValues("cart").Inc()
	return &snap.Product, nil
}

// CanUndoCartRemoval reports whether UndoCartRemoval has anything to restore.
func (m *Marketplace) CanUndoCartRemoval() bool { return m.removed.NonEmpty() }

// Cart resolves the buyer's cart against the catalog. Entries whose product
// no longer exists are left out.
func (m *Marketplace) Cart(ctx context.Context, s model.Session) (model.CartView, error) {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return model.CartView{}, err
	}
	ids, err := m.st.Carts.List(ctx, s.UserID)
	if err != nil {
		return model.CartView{}, m.fault("load cart", err)
	}
	var (
		view   model.CartView
		prices []float64
	)
	for _, id := range ids {
		p, err := m.st.Products.Get(ctx, id)
		if errors.Is(err, errs.ErrNotFound) {
			continue
		}
		if err != nil {
			return model.CartView{}, m.fault("load cart", err, zap.Stringer("product_id", id))
		}
		view.Items = append(view.Items, *p)
		prices = append(prices, p.Price)
	}
	view.Total = sum(prices...)
	return view, nil
}

// ClearCart empties the buyer's cart.
func (m *Marketplace) ClearCart(ctx context.Context, s model.Session) error {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return err
	}
	if err := m.st.Carts.Clear(ctx, s.UserID); err != nil {
		return m.fault("clear cart", err)
	}
	return nil
}

// Purchase buys a single product outright.
func (m *Marketplace) Purchase(ctx context.Context, s model.Session, id uuid.UUID) (model.Transaction, error) {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return model.Transaction{}, err
	}
	t, err := m.purchase(ctx, s, id, "single")
	if err != nil {
		return model.Transaction{}, m.fault("purchase", err, zap.Stringer("product_id", id))
	}
	return t, nil
}

// PurchaseCart buys everything in the cart. Products that are gone or no
// longer purchasable are skipped and reported; only a storage failure stops
// the run, leaving the cart with whatever was not bought yet. The cart is
// empty afterwards.
func (m *Marketplace) PurchaseCart(ctx context.Context, s model.Session) (model.PurchaseReceipt, error) {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return model.PurchaseReceipt{}, err
	}
	ids, err := m.st.Carts.List(ctx, s.UserID)
	if err != nil {
		return model.PurchaseReceipt{}, m.fault("load cart", err)
	}
	var (
		rcpt   model.PurchaseReceipt
		prices []float64
		seen   = make(map[uuid.UUID]struct{}, len(ids))
	)
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		t, err := m.purchase(ctx, s, id, "cart")
		switch kind := errs.KindOf(err); {
		case err == nil:
			rcpt.Transactions = append(rcpt.Transactions, t)
			prices = append(prices, t.Price)
		case kind == errs.ErrNotFound || kind == errs.ErrInvalidState:
			m.log.Warn("cart item skipped", zap.Stringer("product_id", id), zap.Error(err))
			rcpt.Skipped = append(rcpt.Skipped, id)
		default:
			rcpt.Total = sum(prices...)
			return rcpt, m.fault("purchase cart", err, zap.Stringer("product_id", id))
		}
	}
	rcpt.Total = sum(prices...)
	if err := m.st.Carts.Clear(ctx, s.UserID); err != nil {
		return rcpt, m.fault("clear cart", err)
	}
	return rcpt, nil
}

func (m *Marketplace) purchase(ctx context.Context, s model.Session, id uuid.UUID, source string) (model.Transaction, error) {
	tid, err := uuid.NewV4()
	if err != nil {
		return model.Transaction{}, err
	}
	t, err := m.st.Settlement.Purchase(ctx, model.Transaction{
		ID:        tid,
		BuyerID:   s.UserID,
		ProductID: id,
		CreatedAt: m.now().UTC(),
	})
	if err != nil {
		return model.Transaction{}, err
	}
	m.metrics.Purchases.WithLabelValues(source).Inc()
	m.metrics.SalesVolume.Add(t.Price)
	m.log.Info("product purchased",
		zap.Stringer("product_id", id),
		zap.Stringer("buyer_id", s.UserID),
		zap.Float64("price", t.Price),
	)
	return t, nil
}

// Transactions lists the buyer's purchases, newest first. Deleted products
// show a placeholder name.
func (m *Marketplace) Transactions(ctx context.Context, s model.Session) ([]model.TransactionDetail, error) {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return nil, err
	}
	ts, err := m.st.Transactions.ListForBuyer(ctx, s.UserID)
	if err != nil {
		return nil, m.fault("list transactions", err)
	}
	out := make([]model.TransactionDetail, 0, len(ts))
	for _, t := range ts {
		d := model.TransactionDetail{Transaction: t, ProductName: model.DeletedProduct}
		p, err := m.st.Products.Get(ctx, t.ProductID)
		switch {
		case err == nil:
			d.ProductName = p.Name
		case !errors.Is(err, errs.ErrNotFound):
			return nil, m.fault("list transactions", err, zap.Stringer("product_id", t.ProductID))
		}
		out = append(out, d)
	}
	return out, nil
}
