package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/ecocycle/internal/model"
)

// DefaultKey is the Redis list holding the feed.
const DefaultKey = "ecocycle:reviews:feed"

const defaultTimeout = 5 * time.Second

// Redis keeps the feed in a Redis list; LPUSH gives O(1) prepend.
type Redis struct {
	client *redis.Client
	key    string
}

// NewRedis wraps client. An empty key selects DefaultKey.
func NewRedis(client *redis.Client, key string) *Redis {
	if key == "" {
		key = DefaultKey
	}
	return &Redis{client: client, key: key}
}

// Connect initialises a Redis client and validates connectivity with a ping.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

type wireReview struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	BuyerID   string    `json:"buyer_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func encode(r model.Review) ([]byte, error) {
	return json.Marshal(wireReview{
		ID:        r.ID.String(),
		ProductID: r.ProductID.String(),
		BuyerID:   r.BuyerID.String(),
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	})
}

func decode(s string) (model.Review, error) {
	var w wireReview
	if err := json.Unmarshal([]byte(s), &w); err != nil {
		return model.Review{}, err
	}
	var r model.Review
	if err := r.ID.UnmarshalText([]byte(w.ID)); err != nil {
		return model.Review{}, fmt.Errorf("review id: %w", err)
	}
	if err := r.ProductID.UnmarshalText([]byte(w.ProductID)); err != nil {
		return model.Review{}, fmt.Errorf("product id: %w", err)
	}
	if err := r.BuyerID.UnmarshalText([]byte(w.BuyerID)); err != nil {
		return model.Review{}, fmt.Errorf("buyer id: %w", err)
	}
	r.Text = w.Text
	r.CreatedAt = w.CreatedAt
	return r, nil
}

// Prepend implements Feed.
func (f *Redis) Prepend(ctx context.Context, r model.Review) error {
	b, err := encode(r)
	if err != nil {
		return fmt.Errorf("encode review: %w", err)
	}
	if err := f.client.LPush(ctx, f.key, b).Err(); err != nil {
		return fmt.Errorf("feed prepend: %w", err)
	}
	return nil
}

// List implements Feed.
func (f *Redis) List(ctx context.Context) ([]model.Review, error) {
	vals, err := f.client.LRange(ctx, f.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("feed list: %w", err)
	}
	out := make([]model.Review, 0, len(vals))
	for _, v := range vals {
		r, err := decode(v)
		if err != nil {
			return nil, fmt.Errorf("feed decode: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// Reset implements Feed. The list is replaced in a single MULTI/EXEC.
func (f *Redis) Reset(ctx context.Context, rs []model.Review) error {
	vals := make([]any, 0, len(rs))
	for _, r := range rs {
		b, err := encode(r)
		if err != nil {
			return fmt.Errorf("encode review: %w", err)
		}
		vals = append(vals, b)
	}
	_, err := f.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, f.key)
		if len(vals) > 0 {
			p.RPush(ctx, f.key, vals...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("feed reset: %w", err)
	}
	return nil
}
