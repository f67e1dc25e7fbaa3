// Command ecocycle is an interactive shell over the EcoCycle marketplace.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/ecocycle/internal/config"
	"github.com/and161185/ecocycle/internal/crypto"
	"github.com/and161185/ecocycle/internal/feed"
	"github.com/and161185/ecocycle/internal/logger"
	"github.com/and161185/ecocycle/internal/metrics"
	"github.com/and161185/ecocycle/internal/migrate"
	"github.com/and161185/ecocycle/internal/repository/postgres"
	"github.com/and161185/ecocycle/internal/seed"
	"github.com/and161185/ecocycle/internal/service"
	"github.com/and161185/ecocycle/internal/session"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

type flags struct {
	dsn     string
	envFile string
	dir     string
	noSeed  bool
	reset   bool
}

func main() {
	var f flags
	flag.StringVar(&f.dsn, "dsn", "", "PostgreSQL DSN (overrides ECOCYCLE_DSN)")
	flag.StringVar(&f.envFile, "env", ".env", "dotenv file to preload")
	flag.StringVar(&f.dir, "config-dir", defaultDir(), "where the last session is kept")
	flag.BoolVar(&f.noSeed, "no-seed", false, "do not load the demo accounts")
	flag.BoolVar(&f.reset, "reset", false, "drop all marketplace data before starting")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, f); err != nil {
		fmt.Fprintln(os.Stderr, "ecocycle:", err)
		os.Exit(1)
	}
}

// run wires configuration, storage and the engine, then serves the shell on stdin.
func run(ctx context.Context, f flags) error {
	cfg, err := config.Load(ctx, f.envFile)
	if err != nil {
		return err
	}
	if f.dsn != "" {
		cfg.DSN = f.dsn
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting", zap.String("version", version), zap.String("buildDate", buildDate))

	if f.reset {
		if err := migrate.Reset(ctx, cfg.DSN); err != nil {
			return fmt.Errorf("migrate reset: %w", err)
		}
		log.Warn("marketplace data wiped")
	}
	if cfg.Migrate || f.reset {
		if err := migrate.Up(ctx, cfg.DSN); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	stores := service.Stores{
		Users:        postgres.NewUserRepo(db),
		Products:     postgres.NewProductRepo(db),
		Bids:         postgres.NewBidRepo(db),
		Carts:        postgres.NewCartRepo(db),
		Transactions: postgres.NewTransactionRepo(db),
		Reviews:      postgres.NewReviewRepo(db),
		Settlement:   postgres.NewSettlementRepo(db),
	}

	var reviews feed.Feed = feed.NewMemory()
	if cfg.Feed == "redis" {
		client, err := feed.Connect(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		reviews = feed.NewRedis(client, "")
	}

	creds, err := crypto.ByName(cfg.Credentials)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := service.NewMarketplace(stores,
		service.WithLogger(log),
		service.WithMetrics(metrics.New(reg)),
		service.WithFeed(reviews),
		service.WithCredentials(creds),
	)

	if !f.noSeed {
		switch _, err := seed.Demo(ctx, m, stores, time.Now); {
		case errors.Is(err, seed.ErrAlreadySeeded):
			log.Debug("demo data already present")
		case err != nil:
			return err
		default:
			log.Info("demo data loaded",
				zap.String("seller", seed.SellerName),
				zap.String("buyer", seed.BuyerName),
				zap.String("recycler", seed.RecyclerName))
		}
	}

	if err := m.RebuildFeed(ctx); err != nil {
		return fmt.Errorf("rebuild review feed: %w", err)
	}

	sh := newShell(m,
		session.NewCodec([]byte(cfg.SessionKey), cfg.SessionTTL),
		&tokenStore{dir: f.dir, now: time.Now},
		reg, log, os.Stdout)
	sh.restore(ctx)
	return sh.Run(ctx, os.Stdin)
}
