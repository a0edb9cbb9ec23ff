// Package main runs the campaign layer server: the REST API over the
// campaign lifecycle plus the background reconciliation runner.
package main

import (
	"context"
	"database/sql"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	app "github.com/forgelight-labs/campaign_layer/internal/app"
	"github.com/forgelight-labs/campaign_layer/internal/app/httpapi"
	"github.com/forgelight-labs/campaign_layer/internal/app/metrics"
	"github.com/forgelight-labs/campaign_layer/internal/app/storage/postgres"
	"github.com/forgelight-labs/campaign_layer/internal/chain"
	"github.com/forgelight-labs/campaign_layer/internal/config"
	"github.com/forgelight-labs/campaign_layer/internal/platform/migrations"
	"github.com/forgelight-labs/campaign_layer/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	addr := flag.String("addr", "", "HTTP listen address (overrides config)")
	rpcURL := flag.String("rpc-url", "", "Asset-ledger RPC endpoint (overrides config)")
	dsn := flag.String("db", "", "PostgreSQL DSN; empty selects the in-memory registry")
	flag.Parse()

	var cfg *config.Config
	if *configPath != "" {
		loaded, err := config.LoadFromPath(*configPath)
		if err != nil {
			logger.NewDefault("campaignserver").WithError(err).Error("load config")
			os.Exit(1)
		}
		cfg = loaded
	} else {
		cfg = config.LoadOrDefault()
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}
	if *rpcURL != "" {
		cfg.Chain.RPCURL = *rpcURL
	}
	if *dsn != "" {
		cfg.Database.DSN = *dsn
	}
	if cfg.Reconcile.Schedule != "" {
		os.Setenv("RECONCILE_SCHEDULE", cfg.Reconcile.Schedule)
	}

	log := logger.New(logger.Config{Component: "campaignserver", Level: cfg.LogLevel})

	client, err := chain.NewClient(chain.Config{
		RPCURL:            cfg.Chain.RPCURL,
		Timeout:           cfg.Chain.Timeout(),
		RequestsPerSecond: cfg.Chain.RequestsPerSecond,
	})
	if err != nil {
		log.WithError(err).Error("configure chain client")
		os.Exit(1)
	}

	var stores app.Stores
	if cfg.Database.DSN != "" {
		db, err := sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrations.Apply(ctx, db); err != nil {
			cancel()
			log.WithError(err).Error("apply migrations")
			os.Exit(1)
		}
		cancel()

		store := postgres.New(db)
		stores.Campaigns = store
		stores.Receipts = store
		log.Info("using postgres registry store")
	} else {
		log.Warn("no database configured; using in-memory registry store")
	}

	application, err := app.New(app.Dependencies{
		Assets: client,
		Ledger: client,
		Tokens: client,
	}, stores, log)
	if err != nil {
		log.WithError(err).Error("build application")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("start application")
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/", httpapi.NewHandler(application))

	cors := httpapi.NewCORS(cfg.HTTP.AllowedOrigins)
	limiter := httpapi.NewRateLimiter(cfg.HTTP.RequestsPerSecond, cfg.HTTP.Burst)
	handler := metrics.InstrumentHandler(cors.Handler(limiter.Handler(mux)))

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.HTTP.Addr).Info("campaign layer listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.WithField("signal", sig.String()).Info("shutting down")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Warn("application shutdown")
	}
}
