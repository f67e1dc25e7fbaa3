package service

import (
	"math"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

func TestPlaceBid_BaseCost(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Jeans", "clothing", 100)

	err := h.m.PlaceBid(h.ctx, h.recycler, p.ID, 40)
	require.ErrorIs(t, err, errs.ErrValidation)
	_, ok, err := h.m.HighestBid(h.ctx, p.ID)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 50))
	top, ok, err := h.m.HighestBid(h.ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 50.0, top.Price)
	require.Equal(t, h.recycler.UserID, top.RecyclerID)
	require.Equal(t, 1.0, testutil.ToFloat64(h.mt.Bids))
}

func TestPlaceBid_RejectsNonFiniteAmounts(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Laptop", "electronics", 100)
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 60))

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -10} {
		require.ErrorIs(t, h.m.PlaceBid(h.ctx, h.recycler2, p.ID, bad), errs.ErrValidation)
	}
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler2, p.ID, 90))

	top, ok, err := h.m.HighestBid(h.ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 90.0, top.Price)
	bs, err := h.m.Bids(h.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, bs, 2)
}

func TestPlaceBid_BaseCostIsExact(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Mug", "plastic", 10.01)

	err := h.m.PlaceBid(h.ctx, h.recycler, p.ID, 5.004)
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, "bid 5.004 is below the base cost 5.005", errs.Message(err))
	require.ErrorIs(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 5.0), errs.ErrValidation)

	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 5.006))
	top, ok, err := h.m.HighestBid(h.ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 5.006, top.Price)
}

func TestBids_UnknownProduct(t *testing.T) {
	h := newHarness(t)
	missing := uuid.Must(uuid.NewV4())

	_, _, err := h.m.HighestBid(h.ctx, missing)
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = h.m.Bids(h.ctx, missing)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestPlaceBid_Guards(t *testing.T) {
	h := newHarness(t)
	p := h.list("Jeans", "clothing", 100)

	require.ErrorIs(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 80), errs.ErrInvalidState)
	require.ErrorIs(t, h.m.PlaceBid(h.ctx, h.buyer, p.ID, 80), errs.ErrUnauthorized)
	require.ErrorIs(t, h.m.PlaceBid(h.ctx, h.seller, p.ID, 80), errs.ErrUnauthorized)
}

func TestBids_HighestFirstAcrossCacheState(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Laptop", "electronics", 100)

	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 60))
	// The first read loads the heap from storage; later bids are recorded into it.
	_, _, err := h.m.HighestBid(h.ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler2, p.ID, 90))
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 75))

	bs, err := h.m.Bids(h.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, bs, 3)
	require.Equal(t, []float64{90, 75, 60}, []float64{bs[0].Price, bs[1].Price, bs[2].Price})

	biddable, err := h.m.BiddableProducts(h.ctx, h.seller)
	require.NoError(t, err)
	require.Len(t, biddable, 1)

	market, err := h.m.RecyclingMarket(h.ctx, h.recycler)
	require.NoError(t, err)
	require.Len(t, market, 1)
	_, err = h.m.RecyclingMarket(h.ctx, h.buyer)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestAcceptBid_SettlesAtomically(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Laptop", "electronics", 100)
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 60))
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler2, p.ID, 80))

	w, err := h.m.AcceptBid(h.ctx, h.seller, p.ID)
	require.NoError(t, err)
	require.Equal(t, 80.0, w.Price)
	require.Equal(t, h.recycler2.UserID, w.RecyclerID)

	require.Equal(t, model.StatusRecyclingPurchased, h.status(p.ID))
	require.Equal(t, 80.0, h.user(h.seller).TotalSales)
	_, ok, err := h.m.HighestBid(h.ctx, p.ID)
	require.NoError(t, err)
	require.False(t, ok, "every bid is cleared, not only the winner")

	biddable, err := h.m.BiddableProducts(h.ctx, h.seller)
	require.NoError(t, err)
	require.Empty(t, biddable)

	// Never backward.
	_, err = h.m.AcceptBid(h.ctx, h.seller, p.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)
	require.ErrorIs(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 99), errs.ErrInvalidState)
}

func TestAcceptBid_FailureLeavesBidsIntact(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Laptop", "electronics", 100)
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 60))
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler2, p.ID, 80))

	h.db.acceptErr = errDisk
	_, err := h.m.AcceptBid(h.ctx, h.seller, p.ID)
	require.ErrorIs(t, err, errs.ErrStorage)

	require.Equal(t, model.StatusPendingRecycling, h.status(p.ID))
	require.Zero(t, h.user(h.seller).TotalSales)
	bs, err := h.m.Bids(h.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, bs, 2)
	require.Equal(t, 80.0, bs[0].Price)

	h.db.acceptErr = nil
	w, err := h.m.AcceptBid(h.ctx, h.seller, p.ID)
	require.NoError(t, err)
	require.Equal(t, 80.0, w.Price)
	require.Equal(t, 80.0, h.user(h.seller).TotalSales, "no double credit")
}

func TestAcceptBid_Guards(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Laptop", "electronics", 100)

	_, err := h.m.AcceptBid(h.ctx, h.seller, p.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)

	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 60))
	_, err = h.m.AcceptBid(h.ctx, h.seller2, p.ID)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	_, err = h.m.AcceptBid(h.ctx, h.recycler, p.ID)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestSubmitProof_CreditSplit(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Laptop", "electronics", 100)
	require.NoError(t, h.m.PlaceBid(h.ctx, h.recycler, p.ID, 50))
	_, err := h.m.AcceptBid(h.ctx, h.seller, p.ID)
	require.NoError(t, err)

	acquired, err := h.m.Acquired(h.ctx, h.recycler)
	require.NoError(t, err)
	require.Len(t, acquired, 1)
	none, err := h.m.Acquired(h.ctx, h.recycler2)
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = h.m.SubmitProof(h.ctx, h.recycler2, p.ID)
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	award, err := h.m.SubmitProof(h.ctx, h.recycler, p.ID)
	require.NoError(t, err)
	require.Equal(t, 70.0, award.RecyclerShare)
	require.Equal(t, 30.0, award.SellerShare)
	require.Equal(t, 70.0, h.user(h.recycler).CarbonCredits)
	require.Equal(t, 30.0, h.user(h.seller).CarbonCredits)
	require.Equal(t, model.StatusRecycled, h.status(p.ID))

	_, err = h.m.SubmitProof(h.ctx, h.recycler, p.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)
	require.Equal(t, 70.0, h.user(h.recycler).CarbonCredits)
}

func TestSubmitProof_RequiresRecyclingPurchased(t *testing.T) {
	h := newHarness(t)
	p := h.pending("Bottle", "plastic", 10)
	_, err := h.m.SubmitProof(h.ctx, h.recycler, p.ID)
	require.ErrorIs(t, err, errs.ErrInvalidState)
	_, err = h.m.SubmitProof(h.ctx, h.seller, p.ID)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}
