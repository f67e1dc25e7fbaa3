package service

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// RecyclingMarket lists every product open for recycling bids.
func (m *Marketplace) RecyclingMarket(ctx context.Context, s model.Session) ([]model.Product, error) {
	if err := m.authorize(s, model.RoleRecycler); err != nil {
		return nil, err
	}
	out, err := m.st.Products.List(ctx, model.ProductFilter{
		Statuses: []model.ProductStatus{model.StatusPendingRecycling},
	})
	if err != nil {
		return nil, m.fault("list recycling market", err)
	}
	return out, nil
}

// PlaceBid offers price for a product pending recycling. Bids below the
// base cost (half the listing price) are rejected.
func (m *Marketplace) PlaceBid(ctx context.Context, s model.Session, id uuid.UUID, price float64) error {
	if err := m.authorize(s, model.RoleRecycler); err != nil {
		return err
	}
	p, err := m.product(ctx, id)
	if err != nil {
		return err
	}
	if p.Status != model.StatusPendingRecycling {
		return m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	if !ValidAmount(price) {
		return m.reject(errs.ErrValidation, "bid %v is not a valid amount", price)
	}
	if !CoversBaseCost(price, p.Price) {
		return m.reject(errs.ErrValidation, "bid %g is below the base cost %g", price, BaseCost(p.Price))
	}
	b := model.Bid{RecyclerID: s.UserID, Price: price, PlacedAt: m.now().UTC()}
	if err := m.st.Bids.Insert(ctx, id, b); err != nil {
		m.book.Forget(id)
		return m.fault("place bid", err, zap.Stringer("product_id", id))
	}
	m.book.Record(id, b)
	m.metrics.Bids.Inc()
	m.log.Info("bid placed", zap.Stringer("product_id", id), zap.Float64("price", price))
	return nil
}

// HighestBid returns the current best bid on a product.
func (m *Marketplace) HighestBid(ctx context.Context, id uuid.UUID) (model.Bid, bool, error) {
	if _, err := m.product(ctx, id); err != nil {
		return model.Bid{}, false, err
	}
	b, ok, err := m.book.Peek(ctx, id)
	if err != nil {
		return model.Bid{}, false, m.fault("load bids", err, zap.Stringer("product_id", id))
	}
	return b, ok, nil
}

// Bids lists a product's bids, highest first.
func (m *Marketplace) Bids(ctx context.Context, id uuid.UUID) ([]model.Bid, error) {
	if _, err := m.product(ctx, id); err != nil {
		return nil, err
	}
	out, err := m.book.Bids(ctx, id)
	if err != nil {
		return nil, m.fault("load bids", err, zap.Stringer("product_id", id))
	}
	return out, nil
}

// BiddableProducts lists the seller's products pending recycling that have at least one bid.
func (m *Marketplace) BiddableProducts(ctx context.Context, s model.Session) ([]model.Product, error) {
	if err := m.authorize(s, model.RoleSeller); err != nil {
		return nil, err
	}
	ps, err := m.st.Products.List(ctx, model.ProductFilter{
		SellerID: s.UserID,
		Statuses: []model.ProductStatus{model.StatusPendingRecycling},
	})
	if err != nil {
		return nil, m.fault("list biddable products", err)
	}
	out := ps[:0]
	for _, p := range ps {
		n, err := m.book.Len(ctx, p.ID)
		if err != nil {
			return nil, m.fault("load bids", err, zap.Stringer("product_id", p.ID))
		}
		if n > 0 {
			out = append(out, p)
		}
	}
	return out, nil
}

// AcceptBid sells a product pending recycling to its highest bidder. The
// seller is credited, every bid is discarded and the product is handed to
// the winning recycler in one durable transaction. On failure the bid cache
// is resynchronised from storage.
func (m *Marketplace) AcceptBid(ctx context.Context, s model.Session, id uuid.UUID) (model.Bid, error) {
	p, err := m.owned(ctx, s, id)
	if err != nil {
		return model.Bid{}, err
	}
	if p.Status != model.StatusPendingRecycling {
		return model.Bid{}, m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	winner, ok, err := m.book.Peek(ctx, id)
	if err != nil {
		return model.Bid{}, m.fault("load bids", err, zap.Stringer("product_id", id))
	}
	if !ok {
		return model.Bid{}, m.reject(errs.ErrInvalidState, "product has no bids")
	}
	if _, err := m.st.Settlement.AcceptBid(ctx, id, winner); err != nil {
		m.book.Forget(id)
		return model.Bid{}, m.fault("accept bid", err, zap.Stringer("product_id", id))
	}
	m.book.Settle(id)
	m.metrics.SalesVolume.Add(winner.Price)
	m.transitioned(id, model.StatusPendingRecycling, model.StatusRecyclingPurchased)
	return winner, nil
}
