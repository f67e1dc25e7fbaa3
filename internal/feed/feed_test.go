package feed

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/ecocycle/internal/model"
)

func review(text string, at time.Time) model.Review {
	return model.Review{
		ID:        uuid.Must(uuid.NewV4()),
		ProductID: uuid.Must(uuid.NewV4()),
		BuyerID:   uuid.Must(uuid.NewV4()),
		Text:      text,
		CreatedAt: at.UTC().Truncate(time.Millisecond),
	}
}

func texts(rs []model.Review) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Text
	}
	return out
}

func exerciseFeed(t *testing.T, f Feed) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	r1, r2, r3 := review("R1", now), review("R2", now.Add(time.Second)), review("R3", now.Add(2*time.Second))

	require.NoError(t, f.Reset(ctx, nil))
	for _, r := range []model.Review{r1, r2, r3} {
		require.NoError(t, f.Prepend(ctx, r))
	}
	got, err := f.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"R3", "R2", "R1"}, texts(got))
	require.Equal(t, r3.ID, got[0].ID)
	require.Equal(t, r3.ProductID, got[0].ProductID)
	require.True(t, r3.CreatedAt.Equal(got[0].CreatedAt))

	// Rebuild from newest-first durable order.
	require.NoError(t, f.Reset(ctx, []model.Review{r3, r2, r1}))
	got, err = f.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"R3", "R2", "R1"}, texts(got))

	require.NoError(t, f.Reset(ctx, nil))
	got, err = f.List(ctx)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemory_Ordering(t *testing.T) {
	exerciseFeed(t, NewMemory())
}

func TestMemory_ListIsCopy(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	require.NoError(t, m.Prepend(ctx, review("a", time.Now())))
	got, _ := m.List(ctx)
	got[0].Text = "mutated"
	again, _ := m.List(ctx)
	require.Equal(t, "a", again[0].Text)
}

func TestRedis_Ordering(t *testing.T) {
	addr := os.Getenv("ECOCYCLE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("ECOCYCLE_TEST_REDIS_ADDR not set")
	}
	client, err := Connect(context.Background(), addr, 0)
	require.NoError(t, err)
	defer client.Close()
	exerciseFeed(t, NewRedis(client, "ecocycle:test:feed:"+uuid.Must(uuid.NewV4()).String()))
}

func TestRedis_OrderingInProcess(t *testing.T) {
	srv := miniredis.RunT(t)
	client, err := Connect(context.Background(), srv.Addr(), 0)
	require.NoError(t, err)
	defer client.Close()
	f := NewRedis(client, "")
	exerciseFeed(t, f)

	require.NoError(t, f.Prepend(context.Background(), review("kept", time.Now())))
	stored, err := srv.List(DefaultKey)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestRedis_Codec(t *testing.T) {
	r := review("hello", time.Now())
	b, err := encode(r)
	require.NoError(t, err)
	got, err := decode(string(b))
	require.NoError(t, err)
	require.Equal(t, r.ID, got.ID)
	require.Equal(t, r.BuyerID, got.BuyerID)
	require.Equal(t, "hello", got.Text)
	require.True(t, r.CreatedAt.Equal(got.CreatedAt))

	_, err = decode(`{"id":"nope"}`)
	require.Error(t, err)
}

func TestNewRedis_DefaultKey(t *testing.T) {
	require.Equal(t, DefaultKey, NewRedis(nil, "").key)
	require.Equal(t, "k", NewRedis(nil, "k").key)
}
