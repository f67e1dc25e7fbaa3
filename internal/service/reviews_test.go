package service

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
)

func reviewTexts(ds []model.ReviewDetail) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Text
	}
	return out
}

func TestFeed_NewestFirstAndRebuild(t *testing.T) {
	h := newHarness(t)
	p := h.list("Lamp", "furniture", 42)

	for _, txt := range []string{"R1", "R2", "R3"} {
		_, err := h.m.SubmitReview(h.ctx, h.buyer, p.ID, txt)
		require.NoError(t, err)
	}
	got, err := h.m.Feed(h.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"R3", "R2", "R1"}, reviewTexts(got))
	require.Equal(t, "Lamp", got[0].ProductName)
	require.Equal(t, "buyer_X", got[0].BuyerName)
	require.Equal(t, "seller_A", got[0].SellerName)

	// A fresh process over the same store sees the same feed.
	restarted := NewMarketplace(h.db.stores())
	require.NoError(t, restarted.RebuildFeed(h.ctx))
	again, err := restarted.Feed(h.ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"R3", "R2", "R1"}, reviewTexts(again))
}

func TestFeed_Placeholders(t *testing.T) {
	h := newHarness(t)
	_, err := h.m.SubmitReview(h.ctx, h.buyer, uuid.Must(uuid.NewV4()), "lost")
	require.NoError(t, err)

	got, err := h.m.Feed(h.ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, model.UnknownProduct, got[0].ProductName)
	require.Equal(t, model.UnknownSeller, got[0].SellerName)
	require.Equal(t, "buyer_X", got[0].BuyerName)

	h.db.mu.Lock()
	delete(h.db.users, h.buyer.UserID)
	h.db.mu.Unlock()
	got, err = h.m.Feed(h.ctx)
	require.NoError(t, err)
	require.Equal(t, model.UnknownBuyer, got[0].BuyerName)
}

func TestSubmitReview_FeedFailureRebuilds(t *testing.T) {
	f := &failingFeed{}
	h := newHarness(t, WithFeed(f))
	p := h.list("Lamp", "furniture", 42)

	id, err := h.m.SubmitReview(h.ctx, h.buyer, p.ID, "solid")
	require.NoError(t, err)
	require.Equal(t, 1, f.resets)

	got, err := h.m.Feed(h.ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, id, got[0].ID)
}

func TestSubmitReview_Errors(t *testing.T) {
	h := newHarness(t)
	p := h.list("Lamp", "furniture", 42)

	_, err := h.m.SubmitReview(h.ctx, h.seller, p.ID, "self praise")
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	h.db.reviewErr = errDisk
	_, err = h.m.SubmitReview(h.ctx, h.buyer, p.ID, "lost")
	require.ErrorIs(t, err, errs.ErrStorage)

	got, err := h.m.Feed(h.ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}
