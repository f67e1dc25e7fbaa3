package service

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// Acquired lists the products the recycler in s won and has not yet recycled.
func (m *Marketplace) Acquired(ctx context.Context, s model.Session) ([]model.Product, error) {
	if err := m.authorize(s, model.RoleRecycler); err != nil {
		return nil, err
	}
	out, err := m.st.Products.List(ctx, model.ProductFilter{
		AcquiredBy: s.UserID,
		Statuses:   []model.ProductStatus{model.StatusRecyclingPurchased},
	})
	if err != nil {
		return nil, m.fault("list acquired products", err)
	}
	return out, nil
}

// SubmitProof marks an acquired product recycled and awards its carbon
// value: 70% to the recycler, 30% to the seller.
func (m *Marketplace) SubmitProof(ctx context.Context, s model.Session, id uuid.UUID) (model.ProofAward, error) {
	if err := m.authorize(s, model.RoleRecycler); err != nil {
		return model.ProofAward{}, err
	}
	p, err := m.product(ctx, id)
	if err != nil {
		return model.ProofAward{}, err
	}
	if p.Status != model.StatusRecyclingPurchased {
		return model.ProofAward{}, m.reject(errs.ErrInvalidState, "product is %s", p.Status.DisplayName())
	}
	if p.AcquiredBy != s.UserID {
		return model.ProofAward{}, m.reject(errs.ErrUnauthorized, "product was acquired by another recycler")
	}
	r, sl := SplitCredits(CarbonValue(p.Type))
	award := model.ProofAward{
		ProductID:     id,
		SellerID:      p.SellerID,
		RecyclerID:    s.UserID,
		SellerShare:   sl,
		RecyclerShare: r,
	}
	if err := m.st.Settlement.SubmitProof(ctx, award); err != nil {
		return model.ProofAward{}, m.fault("submit recycling proof", err, zap.Stringer("product_id", id))
	}
	m.metrics.CarbonCredits.WithLabelValues(string(model.RoleRecycler)).Add(r)
	m.metrics.CarbonCredits.WithLabelValues(string(model.RoleSeller)).Add(sl)
	m.transitioned(id, model.StatusRecyclingPurchased, model.StatusRecycled)
	return award, nil
}
