// Package seed loads the demo accounts and listings.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/and161185/ecocycle/internal/service"
)

// ErrAlreadySeeded is returned when every demo account and listing exists already.
var ErrAlreadySeeded = errors.New("demo data already present")

// Password is shared by every demo account.
const Password = "pass"

// Demo accounts.
var (
	SellerName   = "seller_A"
	BuyerName    = "buyer_X"
	RecyclerName = "recycler_Z"
)

const (
	laptopName = "Old Laptop"
	jeansName  = "Vintage Jeans"
	toysName   = "Plastic Toys"
)

var listings = []model.NewProduct{
	{Name: laptopName, Type: "Electronics", Category: "Electronics", Price: 15000, Description: "5yr old laptop"},
	{Name: jeansName, Type: "Clothing", Category: "Clothing", Price: 2500, Description: "90s denim"},
	{Name: toysName, Type: "Plastic", Category: "Plastic", Price: 500, Description: "Bag of toys"},
}

// Result describes the demo data after Demo ran.
type Result struct {
	Seller, Buyer, Recycler model.Session
	Products                []model.Product
}

// Demo registers one account per role and lists three products for the
// seller: an available laptop, jeans old enough to be approved for
// recycling right away, and toys already sold.
//
// A previous run that stopped half way is completed: existing accounts and
// listings are reused and only the missing steps run. ErrAlreadySeeded is
// returned when there was nothing left to do.
func Demo(ctx context.Context, m *service.Marketplace, st service.Stores, now func() time.Time) (Result, error) {
	var (
		res     Result
		changed bool
	)
	accounts := []struct {
		name string
		role model.Role
		dst  *model.Session
	}{
		{SellerName, model.RoleSeller, &res.Seller},
		{BuyerName, model.RoleBuyer, &res.Buyer},
		{RecyclerName, model.RoleRecycler, &res.Recycler},
	}
	for _, a := range accounts {
		s, fresh, err := account(ctx, m, st, a.name, a.role)
		if err != nil {
			return Result{}, fmt.Errorf("seed %s: %w", a.name, err)
		}
		*a.dst = s
		changed = changed || fresh
	}

	existing, err := st.Products.List(ctx, model.ProductFilter{SellerID: res.Seller.UserID})
	if err != nil {
		return Result{}, fmt.Errorf("seed list %s: %w", SellerName, err)
	}
	byName := make(map[string]model.Product, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	for _, in := range listings {
		p, ok := byName[in.Name]
		if !ok {
			np, err := m.ListProduct(ctx, res.Seller, in)
			if err != nil {
				return Result{}, fmt.Errorf("seed %s: %w", in.Name, err)
			}
			p, changed = *np, true
			if p.Name == jeansName {
				p.UploadedAt = now().UTC().Add(-(service.EligibilityThreshold(p.Category) + 5*time.Second))
				if err := st.Products.SetUploadedAt(ctx, p.ID, p.UploadedAt); err != nil {
					return Result{}, fmt.Errorf("seed backdate %s: %w", p.Name, err)
				}
			}
		}
		if p.Name == toysName && p.Status == model.StatusAvailable {
			if err := st.Products.SetStatus(ctx, p.ID, model.StatusAvailable, model.StatusSold); err != nil {
				return Result{}, fmt.Errorf("seed mark %s sold: %w", p.Name, err)
			}
			p.Status, changed = model.StatusSold, true
		}
		res.Products = append(res.Products, p)
	}

	if !changed {
		return res, ErrAlreadySeeded
	}
	return res, nil
}

// account registers name, or resolves the existing user when a previous
// run got that far. fresh is true only for a new registration.
func account(ctx context.Context, m *service.Marketplace, st service.Stores, name string, role model.Role) (model.Session, bool, error) {
	id, err := m.Register(ctx, name, Password, role)
	if err == nil {
		return model.Session{UserID: id, Username: name, Role: role}, true, nil
	}
	if !errors.Is(err, errs.ErrAlreadyExists) {
		return model.Session{}, false, err
	}
	u, err := st.Users.GetByUsername(ctx, name)
	if err != nil {
		return model.Session{}, false, err
	}
	if u.Role != role {
		return model.Session{}, false, errs.New(errs.ErrAlreadyExists, "%s is registered as %s", name, u.Role)
	}
	return model.Session{UserID: u.ID, Username: name, Role: role}, false, nil
}
