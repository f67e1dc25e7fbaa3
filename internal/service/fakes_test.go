package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/and161185/ecocycle/internal/repository"
)

var errDisk = errors.New("disk failure")

// memDB is an in-memory stand-in for the PostgreSQL store. The typed views
// below implement the repository interfaces over it.
type memDB struct {
	mu       sync.Mutex
	users    map[uuid.UUID]*model.User
	products map[uuid.UUID]*model.Product
	bids     map[uuid.UUID][]model.Bid
	carts    map[uuid.UUID][]uuid.UUID
	txs      []model.Transaction
	reviews  []model.Review

	// failure injection
	createProductErr error
	cartAddErr       error
	acceptErr        error
	purchaseErr      map[uuid.UUID]error
	reviewErr        error
}

func newMemDB() *memDB {
	return &memDB{
		users:       map[uuid.UUID]*model.User{},
		products:    map[uuid.UUID]*model.Product{},
		bids:        map[uuid.UUID][]model.Bid{},
		carts:       map[uuid.UUID][]uuid.UUID{},
		purchaseErr: map[uuid.UUID]error{},
	}
}

func (db *memDB) stores() Stores {
	return Stores{
		Users:        fakeUsers{db},
		Products:     fakeProducts{db},
		Bids:         fakeBids{db},
		Carts:        fakeCarts{db},
		Transactions: fakeTxs{db},
		Reviews:      fakeReviews{db},
		Settlement:   fakeSettlement{db},
	}
}

type (
	fakeUsers      struct{ *memDB }
	fakeProducts   struct{ *memDB }
	fakeBids       struct{ *memDB }
	fakeCarts      struct{ *memDB }
	fakeTxs        struct{ *memDB }
	fakeReviews    struct{ *memDB }
	fakeSettlement struct{ *memDB }
)

var (
	_ repository.UserRepository        = fakeUsers{}
	_ repository.ProductRepository     = fakeProducts{}
	_ repository.BidRepository         = fakeBids{}
	_ repository.CartRepository        = fakeCarts{}
	_ repository.TransactionRepository = fakeTxs{}
	_ repository.ReviewRepository      = fakeReviews{}
	_ repository.SettlementRepository  = fakeSettlement{}
)

func (f fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.users {
		if x.Username == u.Username {
			return errs.ErrAlreadyExists
		}
	}
	c := *u
	f.users[u.ID] = &c
	return nil
}

func (f fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f fakeUsers) GetByUsername(_ context.Context, name string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == name {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f fakeUsers) AdjustCredits(_ context.Context, id uuid.UUID, d float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addCredits(id, d)
}

func (f fakeUsers) AddSales(_ context.Context, id uuid.UUID, d float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addSales(id, d)
}

func (db *memDB) addCredits(id uuid.UUID, d float64) error {
	u, ok := db.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.CarbonCredits += d
	return nil
}

func (db *memDB) addSales(id uuid.UUID, d float64) error {
	u, ok := db.users[id]
	if !ok {
		return errs.ErrNotFound
	}
	u.TotalSales += d
	return nil
}

func (f fakeUsers) Leaderboard(_ context.Context, role model.Role, limit int) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := func(u *model.User) float64 { return u.TotalSales }
	switch role {
	case model.RoleSeller:
	case model.RoleRecycler:
		key = func(u *model.User) float64 { return u.CarbonCredits }
	default:
		return nil, errs.ErrValidation
	}
	var out []model.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if key(&out[i]) != key(&out[j]) {
			return key(&out[i]) > key(&out[j])
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f fakeProducts) Create(_ context.Context, p *model.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createProductErr != nil {
		return f.createProductErr
	}
	if _, ok := f.products[p.ID]; ok {
		return errs.ErrAlreadyExists
	}
	c := *p
	f.products[p.ID] = &c
	return nil
}

func (f fakeProducts) Get(_ context.Context, id uuid.UUID) (*model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *p
	return &c, nil
}

func statusIn(s model.ProductStatus, in []model.ProductStatus) bool {
	for _, x := range in {
		if x == s {
			return true
		}
	}
	return false
}

func (f fakeProducts) List(_ context.Context, flt model.ProductFilter) ([]model.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Product
	for _, p := range f.products {
		switch {
		case flt.SellerID != uuid.Nil && p.SellerID != flt.SellerID,
			flt.AcquiredBy != uuid.Nil && p.AcquiredBy != flt.AcquiredBy,
			len(flt.Statuses) > 0 && !statusIn(p.Status, flt.Statuses),
			flt.Category != "" && p.Category != strings.ToLower(flt.Category),
			flt.MinPrice > 0 && p.Price < flt.MinPrice,
			flt.MaxPrice > 0 && p.Price > flt.MaxPrice:
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if flt.SortByPrice && out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}

// guard mirrors the status-guarded writes of the SQL store.
func (db *memDB) guard(id uuid.UUID, in ...model.ProductStatus) (*model.Product, error) {
	p, ok := db.products[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	if !statusIn(p.Status, in) {
		return nil, errs.ErrInvalidState
	}
	return p, nil
}

func (f fakeProducts) Update(_ context.Context, id uuid.UUID, upd model.ProductUpdate, in []model.ProductStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.guard(id, in...)
	if err != nil {
		return err
	}
	p.Description, p.Price = upd.Description, upd.Price
	return nil
}

func (f fakeProducts) SetStatus(_ context.Context, id uuid.UUID, from, to model.ProductStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.guard(id, from)
	if err != nil {
		return err
	}
	p.Status = to
	return nil
}

func (f fakeProducts) Delete(_ context.Context, id uuid.UUID, in []model.ProductStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.guard(id, in...); err != nil {
		return err
	}
	delete(f.products, id)
	delete(f.bids, id)
	return nil
}

func (f fakeProducts) SetUploadedAt(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return errs.ErrNotFound
	}
	p.UploadedAt = at
	return nil
}

func (f fakeBids) Insert(_ context.Context, id uuid.UUID, b model.Bid) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.guard(id, model.StatusPendingRecycling); err != nil {
		return err
	}
	f.bids[id] = append(f.bids[id], b)
	return nil
}

func (f fakeBids) ListByProduct(_ context.Context, id uuid.UUID) ([]model.Bid, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Bid(nil), f.bids[id]...), nil
}

func (f fakeCarts) Add(_ context.Context, buyer, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cartAddErr != nil {
		return f.cartAddErr
	}
	f.carts[buyer] = append(f.carts[buyer], id)
	return nil
}

func (f fakeCarts) Remove(_ context.Context, buyer, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, x := range f.carts[buyer] {
		if x == id {
			f.carts[buyer] = append(f.carts[buyer][:i], f.carts[buyer][i+1:]...)
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f fakeCarts) List(_ context.Context, buyer uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uuid.UUID(nil), f.carts[buyer]...), nil
}

func (f fakeCarts) Clear(_ context.Context, buyer uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, buyer)
	return nil
}

func (f fakeTxs) ListForBuyer(_ context.Context, buyer uuid.UUID) ([]model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Transaction
	for i := len(f.txs) - 1; i >= 0; i-- {
		if f.txs[i].BuyerID == buyer {
			out = append(out, f.txs[i])
		}
	}
	return out, nil
}

func (f fakeReviews) Create(_ context.Context, r *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reviewErr != nil {
		return f.reviewErr
	}
	f.reviews = append(f.reviews, *r)
	return nil
}

func (f fakeReviews) ListRecent(_ context.Context, limit int) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Review
	for i := len(f.reviews) - 1; i >= 0; i-- {
		out = append(out, f.reviews[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f fakeSettlement) AcceptBid(_ context.Context, id uuid.UUID, winner model.Bid) (model.Acceptance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.guard(id, model.StatusPendingRecycling)
	if err != nil {
		return model.Acceptance{}, err
	}
	// Rolled back: nothing below has happened.
	if f.acceptErr != nil {
		return model.Acceptance{}, f.acceptErr
	}
	if err := f.addSales(p.SellerID, winner.Price); err != nil {
		return model.Acceptance{}, err
	}
	delete(f.bids, id)
	p.Status = model.StatusRecyclingPurchased
	p.AcquiredBy = winner.RecyclerID
	return model.Acceptance{ProductID: id, SellerID: p.SellerID, Winner: winner}, nil
}

func (f fakeSettlement) Purchase(_ context.Context, t model.Transaction) (model.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.purchaseErr[t.ProductID]; err != nil {
		return model.Transaction{}, err
	}
	p, err := f.guard(t.ProductID, model.PurchasableStatuses...)
	if err != nil {
		return model.Transaction{}, err
	}
	if err := f.addSales(p.SellerID, p.Price); err != nil {
		return model.Transaction{}, err
	}
	p.Status = model.StatusSold
	t.Price, t.Status = p.Price, model.TxCompleted
	f.txs = append(f.txs, t)
	kept := f.carts[t.BuyerID][:0]
	for _, x := range f.carts[t.BuyerID] {
		if x != t.ProductID {
			kept = append(kept, x)
		}
	}
	f.carts[t.BuyerID] = kept
	return t, nil
}

func (f fakeSettlement) SubmitProof(_ context.Context, a model.ProofAward) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, err := f.guard(a.ProductID, model.StatusRecyclingPurchased)
	if err != nil {
		return err
	}
	if p.AcquiredBy != a.RecyclerID {
		return errs.ErrInvalidState
	}
	p.Status = model.StatusRecycled
	if err := f.addCredits(a.RecyclerID, a.RecyclerShare); err != nil {
		return err
	}
	return f.addCredits(a.SellerID, a.SellerShare)
}

// failingFeed rejects every Prepend.
type failingFeed struct {
	resets int
	items  []model.Review
}

func (f *failingFeed) Prepend(context.Context, model.Review) error { return errDisk }
func (f *failingFeed) List(context.Context) ([]model.Review, error) {
	return append([]model.Review(nil), f.items...), nil
}
func (f *failingFeed) Reset(_ context.Context, rs []model.Review) error {
	f.resets++
	f.items = append([]model.Review(nil), rs...)
	return nil
}
