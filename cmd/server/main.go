package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"parcel-portal/internal/api"
	"parcel-portal/internal/config"
	"parcel-portal/internal/db"
	"parcel-portal/internal/lots"
	"parcel-portal/internal/odoo"
	"parcel-portal/internal/scheduler"
	"parcel-portal/internal/syncer"
	"parcel-portal/pkg/logger"
)

func main() {
	// Parse command line flags
	envFile := flag.String("env", "", "Path to .env file")
	flag.Parse()

	log := logger.Must(logger.New())
	defer log.Sync()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}

	log.Info("starting parcel portal",
		zap.String("db", cfg.Data.DBPath),
		zap.String("catalog", cfg.Data.CatalogPath),
		zap.String("geometries", cfg.Data.GeometryPath),
		zap.Bool("erp", cfg.Odoo.Enabled()),
	)

	// Initialize database
	database, err := db.New(cfg.Data.DBPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	provider, err := lots.Open(cfg, logger.Named(log, "lots"))
	if err != nil {
		log.Fatal("failed to load lots", zap.Error(err))
	}

	// Serve the last stored inventory until the next sync
	snap, err := database.LatestSnapshot()
	switch {
	case errors.Is(err, db.ErrNotFound):
		log.Info("no stored inventory snapshot, serving the local catalog")
	case err != nil:
		log.Fatal("failed to read latest snapshot", zap.Error(err))
	default:
		provider.Refresh(snap)
	}

	var sync api.SyncRunner
	if cfg.Odoo.Enabled() {
		client := odoo.NewClient(cfg.Odoo)
		s := syncer.New(client, database, provider, syncer.DefaultConfig(), logger.Named(log, "sync"))
		sync = s

		sched, err := scheduler.New("inventory-sync", cfg.Sync.CronSchedule, 2*time.Minute, func(ctx context.Context) error {
			_, err := s.Run(ctx)
			return err
		}, logger.Named(log, "scheduler"))
		if err != nil {
			log.Fatal("failed to create scheduler", zap.Error(err))
		}
		if err := sched.Start(); err != nil {
			log.Fatal("failed to start scheduler", zap.Error(err))
		}
		defer sched.Stop()
	} else {
		log.Warn("ODOO_URL not set, inventory sync disabled")
	}

	// Create router
	handlers := api.NewHandlers(provider, database, sync, logger.Named(log, "api"))
	router := api.NewRouter(handlers, cfg.Server.CORSOrigin, logger.Named(log, "http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", "http://localhost"+srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("received interrupt signal, shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
