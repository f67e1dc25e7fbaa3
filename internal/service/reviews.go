package service

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

// SubmitReview records a buyer review durably and puts it at the front of the feed.
// A feed write failure does not fail the call; the feed is rebuilt instead.
func (m *Marketplace) SubmitReview(ctx context.Context, s model.Session, productID uuid.UUID, text string) (uuid.UUID, error) {
	if err := m.authorize(s, model.RoleBuyer); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, m.fault("submit review", err)
	}
	r := model.Review{
		ID:        id,
		ProductID: productID,
		BuyerID:   s.UserID,
		Text:      text,
		CreatedAt: m.now().UTC(),
	}
	if err := m.st.Reviews.Create(ctx, &r); err != nil {
		return uuid.Nil, m.fault("submit review", err, zap.Stringer("product_id", productID))
	}
	if err := m.feed.Prepend(ctx, r); err != nil {
		m.log.Warn("review feed out of sync, rebuilding", zap.Error(err))
		if err := m.RebuildFeed(ctx); err != nil {
			m.log.Error("rebuild review feed", zap.Error(err))
		}
	}
	return id, nil
}

// RebuildFeed reloads the feed from the durable review log.
func (m *Marketplace) RebuildFeed(ctx context.Context) error {
	rs, err := m.st.Reviews.ListRecent(ctx, 0)
	if err != nil {
		return m.fault("load reviews", err)
	}
	if err := m.feed.Reset(ctx, rs); err != nil {
		return m.fault("reset review feed", err)
	}
	m.log.Info("review feed rebuilt", zap.Int("reviews", len(rs)))
	return nil
}

// Feed returns every review, newest first, with names resolved. Missing
// products and users show placeholders.
func (m *Marketplace) Feed(ctx context.Context) ([]model.ReviewDetail, error) {
	rs, err := m.feed.List(ctx)
	if err != nil {
		return nil, m.fault("load review feed", err)
	}
	n := names{m: m, users: map[uuid.UUID]string{}, products: map[uuid.UUID]*model.Product{}}
	out := make([]model.ReviewDetail, 0, len(rs))
	for _, r := range rs {
		d := model.ReviewDetail{
			Review:      r,
			ProductName: model.UnknownProduct,
			SellerName:  model.UnknownSeller,
		}
		p, err := n.product(ctx, r.ProductID)
		if err != nil {
			return nil, err
		}
		if p != nil {
			d.ProductName = p.Name
			if d.SellerName, err = n.user(ctx, p.SellerID, model.UnknownSeller); err != nil {
				return nil, err
			}
		}
		if d.BuyerName, err = n.user(ctx, r.BuyerID, model.UnknownBuyer); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// names memoises lookups for one Feed call.
type names struct {
	m        *Marketplace
	users    map[uuid.UUID]string
	products map[uuid.UUID]*model.Product
}

func (n names) product(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if p, ok := n.products[id]; ok {
		return p, nil
	}
	p, err := n.m.st.Products.Get(ctx, id)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		return nil, n.m.fault("resolve review product", err, zap.Stringer("product_id", id))
	}
	n.products[id] = p
	return p, nil
}

func (n names) user(ctx context.Context, id uuid.UUID, placeholder string) (string, error) {
	if name, ok := n.users[id]; ok {
		return name, nil
	}
	name := placeholder
	u, err := n.m.st.Users.GetByID(ctx, id)
	switch {
	case err == nil:
		name = u.Username
	case !errors.Is(err, errs.ErrNotFound):
		return "", n.m.fault("resolve review author", err, zap.Stringer("user_id", id))
	}
	n.users[id] = name
	return name, nil
}
