// Package service contains the marketplace engine: product lifecycle,
// bidding, cart settlement, credit distribution, undo and the review feed.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/bids"
	"github.com/and161185/ecocycle/internal/crypto"
	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/feed"
	"github.com/and161185/ecocycle/internal/metrics"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/and161185/ecocycle/internal/repository"
	"github.com/and161185/ecocycle/internal/undo"
)

// Stores bundles the repositories the engine reads and writes.
type Stores struct {
	Users        repository.UserRepository
	Products     repository.ProductRepository
	Bids         repository.BidRepository
	Carts        repository.CartRepository
	Transactions repository.TransactionRepository
	Reviews      repository.ReviewRepository
	Settlement   repository.SettlementRepository
}

// Marketplace is the engine behind every user-facing operation.
// The undo stacks are shared by all sessions of the process.
type Marketplace struct {
	st Stores

	book    *bids.Book
	deleted undo.Stack[model.Product]
	removed undo.Stack[model.CartSnapshot]
	feed    feed.Feed

	creds    crypto.Credentials
	validate *validator.Validate
	now      func() time.Time
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// Option configures a Marketplace.
type Option func(*Marketplace)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option { return func(m *Marketplace) { m.now = now } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(m *Marketplace) { m.log = l } }

// WithMetrics sets the collectors.
func WithMetrics(mt *metrics.Metrics) Option { return func(m *Marketplace) { m.metrics = mt } }

// WithFeed sets the review feed backend.
func WithFeed(f feed.Feed) Option { return func(m *Marketplace) { m.feed = f } }

// WithCredentials sets the credential delegate.
func WithCredentials(c crypto.Credentials) Option { return func(m *Marketplace) { m.creds = c } }

// NewMarketplace constructs the engine. Call RebuildFeed before serving reads.
func NewMarketplace(st Stores, opts ...Option) *Marketplace {
	m := &Marketplace{
		st:       st,
		feed:     feed.NewMemory(),
		creds:    crypto.Plain{},
		validate: newValidator(),
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(m)
	}
	if m.metrics == nil {
		m.metrics = metrics.Discard()
	}
	m.book = bids.NewBook(st.Bids.ListByProduct)
	return m
}

func kindLabel(kind error) string {
	switch kind {
	case errs.ErrNotFound:
		return "not_found"
	case errs.ErrInvalidState:
		return "invalid_state"
	case errs.ErrValidation:
		return "validation"
	case errs.ErrUnauthorized:
		return "unauthorized"
	}
	return "storage"
}

// reject reports a rule violation detected by the engine itself.
func (m *Marketplace) reject(kind error, format string, args ...any) error {
	m.metrics.Failures.WithLabelValues(kindLabel(kind)).Inc()
	return errs.New(kind, format, args...)
}

// fault classifies a repository error. Domain sentinels keep their kind;
// anything else is a storage failure and is logged.
func (m *Marketplace) fault(op string, err error, fields ...zap.Field) error {
	kind := errs.KindOf(err)
	m.metrics.Failures.WithLabelValues(kindLabel(kind)).Inc()
	if kind == errs.ErrStorage {
		m.log.Error(op, append(fields, zap.Error(err))...)
	}
	return errs.Wrap(kind, err, "%s", op)
}

// authorize checks that s is logged in with role.
func (m *Marketplace) authorize(s model.Session, role model.Role) error {
	if s.UserID == uuid.Nil {
		return m.reject(errs.ErrUnauthorized, "not logged in")
	}
	if s.Role != role {
		return m.reject(errs.ErrUnauthorized, "only a %s may do this", role.DisplayName())
	}
	return nil
}

// product loads a product, mapping a miss to ErrNotFound.
func (m *Marketplace) product(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := m.st.Products.Get(ctx, id)
	if err != nil {
		return nil, m.fault("load product", err, zap.Stringer("product_id", id))
	}
	return p, nil
}

// owned loads a product the seller in s owns.
func (m *Marketplace) owned(ctx context.Context, s model.Session, id uuid.UUID) (*model.Product, error) {
	if err := m.authorize(s, model.RoleSeller); err != nil {
		return nil, err
	}
	p, err := m.product(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.SellerID != s.UserID {
		return nil, m.reject(errs.ErrUnauthorized, "product %s belongs to another seller", id)
	}
	return p, nil
}

// transitioned records a committed status change.
func (m *Marketplace) transitioned(id uuid.UUID, from, to model.ProductStatus) {
	m.metrics.Transitions.WithLabelValues(string(from), string(to)).Inc()
	m.log.Info("product status changed",
		zap.Stringer("product_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
	)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		return ValidAmount(fl.Field().Float())
	})
	return v
}

func (m *Marketplace) validateInput(v any, what string) error {
	if err := m.validate.Struct(v); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			return m.reject(errs.ErrValidation, "invalid %s: %s failed %q", what, ve[0].Field(), ve[0].Tag())
		}
		return m.reject(errs.ErrValidation, "invalid %s: %v", what, err)
	}
	return nil
}
