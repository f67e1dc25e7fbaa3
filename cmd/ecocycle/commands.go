package main

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/and161185/ecocycle/internal/service"
)

func (sh *shell) commands() []command {
	return []command{
		{name: "help", usage: "help", help: "show this list", run: sh.help},
		{name: "quit", usage: "quit", help: "leave the shell", run: func(context.Context, []string) error { return errQuit }},

		// accounts
		{name: "register", usage: "register <user> <password> <seller|buyer|recycler>", help: "create an account", run: sh.register},
		{name: "login", usage: "login <user> <password>", help: "open a session", run: sh.login},
		{name: "logout", usage: "logout", help: "close the session", run: sh.logout},
		{name: "whoami", usage: "whoami", help: "show the current account", run: sh.whoami},
		{name: "leaders", usage: "leaders", help: "top sellers and recyclers", run: sh.leaders},

		// seller
		{name: "sell", usage: "sell <name> <type> <category> <price> [description]", help: "list a product", run: sh.sell},
		{name: "edit", usage: "edit <id> <price> [description]", help: "change price and description", run: sh.edit},
		{name: "mine", usage: "mine", help: "your listings", run: sh.mine},
		{name: "delete", usage: "delete <id>", help: "remove an unsold listing", run: sh.remove},
		{name: "undo-delete", usage: "undo-delete", help: "restore the last deleted listing", run: sh.undoDelete},
		{name: "eligible", usage: "eligible", help: "listings ready for recycling approval", run: sh.eligible},
		{name: "approve", usage: "approve <id>", help: "open a listing for recycler bids", run: sh.approve},
		{name: "deny", usage: "deny <id>", help: "keep a listing out of recycling", run: sh.deny},
		{name: "biddable", usage: "biddable", help: "your pending listings with bids", run: sh.biddable},
		{name: "bids", usage: "bids <id>", help: "bids on a listing, highest first", run: sh.bids},
		{name: "accept", usage: "accept <id>", help: "accept the highest bid", run: sh.accept},

		// buyer
		{name: "browse", usage: "browse [-category c] [-min p] [-max p] [-sort]", help: "products for sale", run: sh.browse},
		{name: "categories", usage: "categories", help: "known product categories", run: sh.categories},
		{name: "show", usage: "show <id>", help: "one product", run: sh.show},
		{name: "add", usage: "add <id>", help: "put a product in the cart", run: sh.addToCart},
		{name: "rm", usage: "rm <id>", help: "take a product out of the cart", run: sh.removeFromCart},
		{name: "undo-rm", usage: "undo-rm", help: "put the last removed product back", run: sh.undoRemove},
		{name: "cart", usage: "cart", help: "cart contents and total", run: sh.cart},
		{name: "clear", usage: "clear", help: "empty the cart", run: sh.clearCart},
		{name: "buy", usage: "buy [id]", help: "buy one product, or the whole cart", run: sh.buy},
		{name: "history", usage: "history", help: "your purchases", run: sh.history},
		{name: "review", usage: "review <id> <text>", help: "review a product", run: sh.review},

		// recycler
		{name: "market", usage: "market", help: "products open for bids", run: sh.market},
		{name: "bid", usage: "bid <id> <price>", help: "bid on a product", run: sh.bid},
		{name: "acquired", usage: "acquired", help: "products you won", run: sh.acquired},
		{name: "proof", usage: "proof <id>", help: "submit recycling proof", run: sh.proof},

		// everyone
		{name: "feed", usage: "feed", help: "latest reviews", run: sh.feed},
		{name: "stats", usage: "stats", help: "marketplace counters", run: sh.printStats},
	}
}

// ---- accounts ----

func (sh *shell) register(ctx context.Context, args []string) error {
	if err := need(args, 3, "register <user> <password> <role>"); err != nil {
		return err
	}
	role, err := model.ParseRole(args[2])
	if err != nil {
		return errs.New(errs.ErrValidation, "unknown role %q", args[2])
	}
	id, err := sh.eng.Register(ctx, args[0], args[1], role)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "registered %s as %s (%s)\n", args[0], role.DisplayName(), id)
	return nil
}

func (sh *shell) login(ctx context.Context, args []string) error {
	if err := need(args, 2, "login <user> <password>"); err != nil {
		return err
	}
	s, err := sh.eng.Authenticate(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	sh.sess = s
	if tok, exp, err := sh.codec.Encode(s); err != nil {
		sh.log.Warn("sign session", zap.Error(err))
	} else if err := sh.tokens.save(tok, exp); err != nil {
		sh.log.Warn("save session", zap.Error(err))
	}
	fmt.Fprintf(sh.out, "logged in as %s (%s)\n", s.Username, s.Role.DisplayName())
	return nil
}

func (sh *shell) logout(context.Context, []string) error {
	sh.sess = model.Session{}
	if err := sh.tokens.clear(); err != nil {
		sh.log.Warn("remove saved session", zap.Error(err))
	}
	fmt.Fprintln(sh.out, "logged out")
	return nil
}

func (sh *shell) whoami(ctx context.Context, _ []string) error {
	if sh.sess.Role == "" {
		return errs.New(errs.ErrUnauthorized, "not logged in")
	}
	u, err := sh.eng.User(ctx, sh.sess.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s (%s)\n", u.Username, u.Role.DisplayName())
	switch u.Role {
	case model.RoleSeller:
		fmt.Fprintf(sh.out, "total sales:    %.2f\ncarbon credits: %.2f\n", u.TotalSales, u.CarbonCredits)
	case model.RoleRecycler:
		fmt.Fprintf(sh.out, "carbon credits: %.2f\n", u.CarbonCredits)
	}
	return nil
}

func (sh *shell) leaders(ctx context.Context, _ []string) error {
	sellers, err := sh.eng.SellerLeaderboard(ctx)
	if err != nil {
		return err
	}
	recyclers, err := sh.eng.RecyclerLeaderboard(ctx)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOP SELLERS\tSALES")
	for _, u := range sellers {
		fmt.Fprintf(w, "%s\t%.2f\n", u.Username, u.TotalSales)
	}
	fmt.Fprintln(w, "\nTOP RECYCLERS\tCREDITS")
	for _, u := range recyclers {
		fmt.Fprintf(w, "%s\t%.2f\n", u.Username, u.CarbonCredits)
	}
	return w.Flush()
}

// ---- seller ----

func (sh *shell) sell(ctx context.Context, args []string) error {
	const usage = "sell <name> <type> <category> <price> [description]"
	if err := need(args, 4, usage); err != nil {
		return err
	}
	price, err := parsePrice(args[3])
	if err != nil {
		return err
	}
	p, err := sh.eng.ListProduct(ctx, sh.sess, model.NewProduct{
		Name: args[0], Type: args[1], Category: args[2], Price: price, Description: rest(args, 4),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "listed %s\n", p.ID)
	return nil
}

func (sh *shell) edit(ctx context.Context, args []string) error {
	if err := need(args, 2, "edit <id> <price> [description]"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	price, err := parsePrice(args[1])
	if err != nil {
		return err
	}
	if err := sh.eng.UpdateProduct(ctx, sh.sess, id, model.ProductUpdate{Price: price, Description: rest(args, 2)}); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "updated")
	return nil
}

func (sh *shell) mine(ctx context.Context, _ []string) error {
	ps, err := sh.eng.MyProducts(ctx, sh.sess)
	if err != nil {
		return err
	}
	return sh.printProducts(ps)
}

func (sh *shell) remove(ctx context.Context, args []string) error {
	if err := need(args, 1, "delete <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := sh.eng.DeleteProduct(ctx, sh.sess, id); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "deleted (undo-delete restores it)")
	return nil
}

func (sh *shell) undoDelete(ctx context.Context, _ []string) error {
	if !sh.eng.CanUndoDelete() {
		return errs.New(errs.ErrNotFound, "nothing to undo")
	}
	p, err := sh.eng.UndoDelete(ctx, sh.sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "restored %s (%s)\n", p.Name, p.ID)
	return nil
}

func (sh *shell) eligible(ctx context.Context, _ []string) error {
	ps, err := sh.eng.EligibleForApproval(ctx, sh.sess)
	if err != nil {
		return err
	}
	return sh.printProducts(ps)
}

func (sh *shell) approve(ctx context.Context, args []string) error {
	if err := need(args, 1, "approve <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := sh.eng.Approve(ctx, sh.sess, id); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "approved for recycling")
	return nil
}

func (sh *shell) deny(ctx context.Context, args []string) error {
	if err := need(args, 1, "deny <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := sh.eng.Deny(ctx, sh.sess, id); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "recycling denied")
	return nil
}

func (sh *shell) biddable(ctx context.Context, _ []string) error {
	ps, err := sh.eng.BiddableProducts(ctx, sh.sess)
	if err != nil {
		return err
	}
	return sh.printProducts(ps)
}

func (sh *shell) bids(ctx context.Context, args []string) error {
	if err := need(args, 1, "bids <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	bs, err := sh.eng.Bids(ctx, id)
	if err != nil {
		return err
	}
	if len(bs) == 0 {
		fmt.Fprintln(sh.out, "no bids")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRICE\tRECYCLER\tPLACED")
	for _, b := range bs {
		fmt.Fprintf(w, "%.2f\t%s\t%s\n", b.Price, b.RecyclerID, b.PlacedAt.Format(time.DateTime))
	}
	return w.Flush()
}

func (sh *shell) accept(ctx context.Context, args []string) error {
	if err := need(args, 1, "accept <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	b, err := sh.eng.AcceptBid(ctx, sh.sess, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "sold to recycler %s for %.2f\n", b.RecyclerID, b.Price)
	return nil
}

// ---- buyer ----

func (sh *shell) browse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	fs.SetOutput(sh.out)
	var f service.BrowseFilter
	fs.StringVar(&f.Category, "category", "", "category")
	fs.Float64Var(&f.MinPrice, "min", 0, "minimum price")
	fs.Float64Var(&f.MaxPrice, "max", 0, "maximum price")
	fs.BoolVar(&f.SortByPrice, "sort", false, "cheapest first")
	if err := fs.Parse(args); err != nil {
		return errs.Wrap(errs.ErrValidation, err, "%v", err)
	}
	ps, err := sh.eng.Browse(ctx, f)
	if err != nil {
		return err
	}
	return sh.printProducts(ps)
}

func (sh *shell) categories(context.Context, []string) error {
	for _, c := range service.Categories() {
		fmt.Fprintf(sh.out, "  %-12s recyclable after %s\n", c, service.EligibilityThreshold(c))
	}
	return nil
}

func (sh *shell) show(ctx context.Context, args []string) error {
	if err := need(args, 1, "show <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	p, err := sh.eng.Product(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s\n  type:     %s\n  category: %s\n  price:    %.2f\n  status:   %s\n  listed:   %s\n",
		p.Name, p.Type, p.Category, p.Price, p.Status.DisplayName(), p.UploadedAt.Format(time.DateTime))
	if p.Description != "" {
		fmt.Fprintf(sh.out, "  %s\n", p.Description)
	}
	if p.Status == model.StatusPendingRecycling {
		if b, ok, err := sh.eng.HighestBid(ctx, id); err != nil {
			return err
		} else if ok {
			fmt.Fprintf(sh.out, "  highest bid: %.2f\n", b.Price)
		}
	}
	return nil
}

func (sh *shell) addToCart(ctx context.Context, args []string) error {
	if err := need(args, 1, "add <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := sh.eng.AddToCart(ctx, sh.sess, id); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "added to cart")
	return nil
}

func (sh *shell) removeFromCart(ctx context.Context, args []string) error {
	if err := need(args, 1, "rm <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := sh.eng.RemoveFromCart(ctx, sh.sess, id); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "removed (undo-rm puts it back)")
	return nil
}

func (sh *shell) undoRemove(ctx context.Context, _ []string) error {
	if !sh.eng.CanUndoCartRemoval() {
		return errs.New(errs.ErrNotFound, "nothing to undo")
	}
	p, err := sh.eng.UndoCartRemoval(ctx, sh.sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "back in cart: %s\n", p.Name)
	return nil
}

func (sh *shell) cart(ctx context.Context, _ []string) error {
	v, err := sh.eng.Cart(ctx, sh.sess)
	if err != nil {
		return err
	}
	if len(v.Items) == 0 {
		fmt.Fprintln(sh.out, "cart is empty")
		return nil
	}
	if err := sh.printProducts(v.Items); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "total: %.2f\n", v.Total)
	return nil
}

func (sh *shell) clearCart(ctx context.Context, _ []string) error {
	if err := sh.eng.ClearCart(ctx, sh.sess); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "cart cleared")
	return nil
}

func (sh *shell) buy(ctx context.Context, args []string) error {
	if len(args) > 0 {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		t, err := sh.eng.Purchase(ctx, sh.sess, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.out, "bought for %.2f (transaction %s)\n", t.Price, t.ID)
		return nil
	}
	r, err := sh.eng.PurchaseCart(ctx, sh.sess)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "bought %d item(s) for %.2f\n", len(r.Transactions), r.Total)
	for _, id := range r.Skipped {
		fmt.Fprintf(sh.out, "skipped %s: no longer for sale\n", id)
	}
	return nil
}

func (sh *shell) history(ctx context.Context, _ []string) error {
	ts, err := sh.eng.Transactions(ctx, sh.sess)
	if err != nil {
		return err
	}
	if len(ts) == 0 {
		fmt.Fprintln(sh.out, "no purchases yet")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tPRODUCT\tPRICE\tSTATUS")
	for _, t := range ts {
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\n", t.CreatedAt.Format(time.DateTime), t.ProductName, t.Price, t.Status)
	}
	return w.Flush()
}

func (sh *shell) review(ctx context.Context, args []string) error {
	if err := need(args, 2, "review <id> <text>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if _, err := sh.eng.SubmitReview(ctx, sh.sess, id, rest(args, 1)); err != nil {
		return err
	}
	fmt.Fprintln(sh.out, "thanks for the review")
	return nil
}

// ---- recycler ----

func (sh *shell) market(ctx context.Context, _ []string) error {
	ps, err := sh.eng.RecyclingMarket(ctx, sh.sess)
	if err != nil {
		return err
	}
	return sh.printProducts(ps)
}

func (sh *shell) bid(ctx context.Context, args []string) error {
	if err := need(args, 2, "bid <id> <price>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	price, err := parsePrice(args[1])
	if err != nil {
		return err
	}
	if err := sh.eng.PlaceBid(ctx, sh.sess, id, price); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "bid %.2f placed\n", price)
	return nil
}

func (sh *shell) acquired(ctx context.Context, _ []string) error {
	ps, err := sh.eng.Acquired(ctx, sh.sess)
	if err != nil {
		return err
	}
	return sh.printProducts(ps)
}

func (sh *shell) proof(ctx context.Context, args []string) error {
	if err := need(args, 1, "proof <id>"); err != nil {
		return err
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	a, err := sh.eng.SubmitProof(ctx, sh.sess, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "recycled: you earned %.2f credits, the seller %.2f\n", a.RecyclerShare, a.SellerShare)
	return nil
}

// ---- everyone ----

func (sh *shell) feed(ctx context.Context, _ []string) error {
	rs, err := sh.eng.Feed(ctx)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		fmt.Fprintln(sh.out, "no reviews yet")
		return nil
	}
	for _, r := range rs {
		fmt.Fprintf(sh.out, "%s  %s on %s (sold by %s)\n    %s\n",
			r.CreatedAt.Format(time.DateTime), r.BuyerName, r.ProductName, r.SellerName, r.Text)
	}
	return nil
}

func (sh *shell) printProducts(ps []model.Product) error {
	if len(ps) == 0 {
		fmt.Fprintln(sh.out, "nothing to show")
		return nil
	}
	w := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTATUS")
	for _, p := range ps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", p.ID, p.Name, p.Category, p.Price, p.Status.DisplayName())
	}
	return w.Flush()
}
