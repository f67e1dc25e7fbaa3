package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/errs"
	"github.com/and161185/ecocycle/internal/model"
	"github.com/and161185/ecocycle/internal/service"
	"github.com/and161185/ecocycle/internal/session"
)

// engine is the part of the marketplace the shell drives.
type engine interface {
	Register(ctx context.Context, username, password string, role model.Role) (uuid.UUID, error)
	Authenticate(ctx context.Context, username, password string) (model.Session, error)
	Resume(ctx context.Context, s model.Session) (model.Session, error)
	User(ctx context.Context, id uuid.UUID) (*model.User, error)
	SellerLeaderboard(ctx context.Context) ([]model.User, error)
	RecyclerLeaderboard(ctx context.Context) ([]model.User, error)

	ListProduct(ctx context.Context, s model.Session, in model.NewProduct) (*model.Product, error)
	UpdateProduct(ctx context.Context, s model.Session, id uuid.UUID, upd model.ProductUpdate) error
	Product(ctx context.Context, id uuid.UUID) (*model.Product, error)
	MyProducts(ctx context.Context, s model.Session) ([]model.Product, error)
	Browse(ctx context.Context, f service.BrowseFilter) ([]model.Product, error)
	EligibleForApproval(ctx context.Context, s model.Session) ([]model.Product, error)
	Approve(ctx context.Context, s model.Session, id uuid.UUID) error
	Deny(ctx context.Context, s model.Session, id uuid.UUID) error
	DeleteProduct(ctx context.Context, s model.Session, id uuid.UUID) error
	UndoDelete(ctx context.Context, s model.Session) (*model.Product, error)
	CanUndoDelete() bool

	RecyclingMarket(ctx context.Context, s model.Session) ([]model.Product, error)
	PlaceBid(ctx context.Context, s model.Session, id uuid.UUID, price float64) error
	HighestBid(ctx context.Context, id uuid.UUID) (model.Bid, bool, error)
	Bids(ctx context.Context, id uuid.UUID) ([]model.Bid, error)
	BiddableProducts(ctx context.Context, s model.Session) ([]model.Product, error)
	AcceptBid(ctx context.Context, s model.Session, id uuid.UUID) (model.Bid, error)
	Acquired(ctx context.Context, s model.Session) ([]model.Product, error)
	SubmitProof(ctx context.Context, s model.Session, id uuid.UUID) (model.ProofAward, error)

	AddToCart(ctx context.Context, s model.Session, id uuid.UUID) error
	RemoveFromCart(ctx context.Context, s model.Session, id uuid.UUID) error
	UndoCartRemoval(ctx context.Context, s model.Session) (*model.Product, error)
	CanUndoCartRemoval() bool
	Cart(ctx context.Context, s model.Session) (model.CartView, error)
	ClearCart(ctx context.Context, s model.Session) error
	Purchase(ctx context.Context, s model.Session, id uuid.UUID) (model.Transaction, error)
	PurchaseCart(ctx context.Context, s model.Session) (model.PurchaseReceipt, error)
	Transactions(ctx context.Context, s model.Session) ([]model.TransactionDetail, error)

	SubmitReview(ctx context.Context, s model.Session, productID uuid.UUID, text string) (uuid.UUID, error)
	Feed(ctx context.Context) ([]model.ReviewDetail, error)
}

var _ engine = (*service.Marketplace)(nil)

type command struct {
	name  string
	usage string
	help  string
	run   handler
}

// shell is the line-oriented front end of the marketplace.
type shell struct {
	eng    engine
	codec  *session.Codec
	tokens *tokenStore
	stats  prometheus.Gatherer
	log    *zap.Logger
	out    io.Writer

	sess  model.Session
	cmds  []command
	index map[string]*command
}

var errQuit = errors.New("quit")

func newShell(eng engine, codec *session.Codec, tokens *tokenStore, stats prometheus.Gatherer, log *zap.Logger, out io.Writer) *shell {
	sh := &shell{eng: eng, codec: codec, tokens: tokens, stats: stats, log: log, out: out}
	sh.cmds = sh.commands()
	sh.index = make(map[string]*command, len(sh.cmds))
	for i := range sh.cmds {
		c := &sh.cmds[i]
		c.run = recovered(log, c.name, logged(log, c.name, c.run))
		sh.index[c.name] = c
	}
	return sh
}

// restore resumes the saved session, if any is still valid.
func (sh *shell) restore(ctx context.Context) {
	tok, err := sh.tokens.load()
	if err != nil {
		if !errors.Is(err, errNoSession) {
			sh.log.Warn("read saved session", zap.Error(err))
		}
		return
	}
	s, err := sh.codec.Decode(tok)
	if err == nil {
		s, err = sh.eng.Resume(ctx, s)
	}
	if err != nil {
		sh.log.Info("saved session discarded", zap.Error(err))
		_ = sh.tokens.clear()
		return
	}
	sh.sess = s
	fmt.Fprintf(sh.out, "welcome back, %s (%s)\n", s.Username, s.Role.DisplayName())
}

func (sh *shell) prompt() string {
	if sh.sess.UserID == uuid.Nil {
		return "ecocycle> "
	}
	return sh.sess.Username + "@ecocycle> "
}

// Run reads commands from in until EOF, quit or ctx is done.
func (sh *shell) Run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(sh.out, sh.prompt())
		if !sc.Scan() {
			fmt.Fprintln(sh.out)
			return sc.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if err := sh.exec(ctx, sc.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			sh.report(err)
		}
	}
}

// exec runs one command line.
func (sh *shell) exec(ctx context.Context, line string) error {
	args, err := tokenize(line)
	if err != nil {
		return errs.Wrap(errs.ErrValidation, err, "%v", err)
	}
	if len(args) == 0 {
		return nil
	}
	c, ok := sh.index[strings.ToLower(args[0])]
	if !ok {
		return errs.New(errs.ErrValidation, "unknown command %q (try help)", args[0])
	}
	return c.run(ctx, args[1:])
}

func (sh *shell) report(err error) {
	if errs.KindOf(err) == errs.ErrStorage {
		fmt.Fprintf(sh.out, "error: %v\n", err)
		return
	}
	fmt.Fprintf(sh.out, "%s: %s\n", kindName(err), errs.Message(err))
}

func (sh *shell) help(context.Context, []string) error {
	for _, c := range sh.cmds {
		fmt.Fprintf(sh.out, "  %-44s %s\n", c.usage, c.help)
	}
	return nil
}

// printStats dumps the marketplace counters.
func (sh *shell) printStats(context.Context, []string) error {
	if sh.stats == nil {
		fmt.Fprintln(sh.out, "metrics disabled")
		return nil
	}
	mfs, err := sh.stats.Gather()
	if err != nil {
		return err
	}
	var lines []string
	for _, mf := range mfs {
		if !strings.HasPrefix(mf.GetName(), "ecocycle_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%-60s %g", name, m.GetCounter().GetValue()))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(sh.out, l)
	}
	return nil
}
