package service

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/ecocycle/internal/metrics"
	"github.com/and161185/ecocycle/internal/model"
)

type harness struct {
	t   *testing.T
	ctx context.Context
	db  *memDB
	m   *Marketplace
	mt  *metrics.Metrics
	now time.Time

	seller, seller2, buyer, buyer2, recycler, recycler2 model.Session
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		t:   t,
		ctx: context.Background(),
		db:  newMemDB(),
		mt:  metrics.New(prometheus.NewRegistry()),
		now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	opts = append([]Option{
		WithClock(func() time.Time { return h.now }),
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(h.mt),
	}, opts...)
	h.m = NewMarketplace(h.db.stores(), opts...)

	h.seller = h.register("seller_A", model.RoleSeller)
	h.seller2 = h.register("seller_B", model.RoleSeller)
	h.buyer = h.register("buyer_X", model.RoleBuyer)
	h.buyer2 = h.register("buyer_Y", model.RoleBuyer)
	h.recycler = h.register("recycler_Z", model.RoleRecycler)
	h.recycler2 = h.register("recycler_W", model.RoleRecycler)
	return h
}

func (h *harness) register(name string, role model.Role) model.Session {
	h.t.Helper()
	_, err := h.m.Register(h.ctx, name, "pass", role)
	require.NoError(h.t, err)
	s, err := h.m.Authenticate(h.ctx, name, "pass")
	require.NoError(h.t, err)
	return s
}

func (h *harness) advance(d time.Duration) { h.now = h.now.Add(d) }

func (h *harness) list(name, kind string, price float64) *model.Product {
	h.t.Helper()
	p, err := h.m.ListProduct(h.ctx, h.seller, model.NewProduct{
		Name: name, Type: kind, Category: kind, Price: price,
	})
	require.NoError(h.t, err)
	return p
}

// pending lists a product and moves it to the recycling market.
func (h *harness) pending(name, kind string, price float64) *model.Product {
	h.t.Helper()
	p := h.list(name, kind, price)
	h.advance(EligibilityThreshold(kind) + time.Second)
	require.NoError(h.t, h.m.Approve(h.ctx, h.seller, p.ID))
	return p
}

func (h *harness) status(id uuid.UUID) model.ProductStatus {
	h.t.Helper()
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	p, ok := h.db.products[id]
	require.True(h.t, ok)
	return p.Status
}

func (h *harness) user(s model.Session) model.User {
	h.t.Helper()
	h.db.mu.Lock()
	defer h.db.mu.Unlock()
	return *h.db.users[s.UserID]
}
