package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"

	"github.com/canasta-labs/pricewatch/internal/analysis"
	"github.com/canasta-labs/pricewatch/internal/api"
	"github.com/canasta-labs/pricewatch/internal/backup"
	"github.com/canasta-labs/pricewatch/internal/config"
	"github.com/canasta-labs/pricewatch/internal/feeds/dolarapi"
	"github.com/canasta-labs/pricewatch/internal/feeds/mercadolibre"
	"github.com/canasta-labs/pricewatch/internal/feeds/preciosclaros"
	"github.com/canasta-labs/pricewatch/internal/filter"
	"github.com/canasta-labs/pricewatch/internal/pipeline"
	"github.com/canasta-labs/pricewatch/internal/publisher"
	"github.com/canasta-labs/pricewatch/internal/rate"
	"github.com/canasta-labs/pricewatch/internal/scheduler"
	"github.com/canasta-labs/pricewatch/internal/store"
	"github.com/canasta-labs/pricewatch/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML domain config (optional; built-in defaults otherwise)")
	once := flag.Bool("once", false, "run one collection and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Config errors are the one class that must abort: running with a
		// wrong location would silently collect data for wrong coordinates.
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Infow("starting [pricewatch]",
		"location", cfg.Location,
		"categories", len(cfg.Categories),
		"run_interval", cfg.RunInterval)

	// --- Store ---
	st, err := store.New(ctx, cfg.DatabaseURL, store.PoolConfig{
		MaxConns: int32(cfg.PGMaxConns),
		MinConns: int32(cfg.PGMinConns),
	}, logger.L())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}
	defer st.Close()

	if err := st.EnsureSchema(ctx); err != nil {
		logg.Fatalw("failed to ensure schema", "error", err)
	}

	// --- NATS (optional: runs proceed without a bus) ---
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		if nc, err = nats.Connect(cfg.NATSURL); err != nil {
			logg.Warnw("failed to connect to NATS, events disabled", "error", err)
			nc = nil
		} else {
			defer nc.Close()
		}
	}
	pub := publisher.New(nc, logger.L(), cfg.ServiceName)

	// --- Rate limiter shared across feeds ---
	rateMgr := rate.NewManager(rate.Config{RequestsPerSecond: 5, Burst: 10})

	// --- Feeds ---
	coords := cfg.Coordinates()
	productFeeds := []pipeline.ProductFeed{
		preciosclaros.NewClient(logger.L(), rateMgr, cfg.Feeds.PreciosClarosURL,
			coords.Lat, coords.Lng, cfg.Feeds.Timeout),
		mercadolibre.NewClient(logger.L(), rateMgr, cfg.Feeds.MercadoLibreURL, cfg.Feeds.Timeout),
	}
	quoteFeeds := []pipeline.QuoteFeed{
		dolarapi.NewClient(logger.L(), rateMgr, cfg.Feeds.DolarAPIURL, cfg.Feeds.Timeout),
	}

	// --- Filter, analysis, backup ---
	flt := filter.New(logger.L(), cfg.Filter)
	engine := analysis.New(logger.L(), st, cfg)
	archiver := backup.NewWriter(logger.L(), cfg.BackupDir)

	// --- Pipeline ---
	pl := pipeline.New(logger.L(), cfg, productFeeds, quoteFeeds, flt, st, engine, archiver, pub)

	if *once {
		report := pl.Run(ctx)
		if report.Failed {
			os.Exit(1)
		}
		return
	}

	// --- Scheduler ---
	sched := scheduler.New(logger.L(), func(ctx context.Context) { pl.Run(ctx) }, cfg.RunInterval)
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()

	// --- Fiber HTTP API (read-only dashboard surface) ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	})
	api.RegisterRoutes(app, api.NewHandler(logger.L(), st, engine))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logg.Infow("http server listening", "addr", addr)
		if err := app.Listen(addr); err != nil {
			logg.Errorw("http server stopped", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutdown signal received")

	if err := app.ShutdownWithTimeout(15 * time.Second); err != nil {
		logg.Warnw("http shutdown", "error", err)
	}
	wg.Wait()
	logg.Info("graceful shutdown complete")
}
