package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"parcel-portal/internal/config"
	"parcel-portal/internal/db"
	"parcel-portal/internal/odoo"
	"parcel-portal/internal/syncer"
	"parcel-portal/pkg/logger"
)

func main() {
	// Parse command line flags
	envFile := flag.String("env", "", "Path to .env file")
	attempts := flag.Int("attempts", 3, "Fetch attempts before giving up")
	delay := flag.Duration("delay", 5*time.Second, "Delay between fetch attempts")
	keep := flag.Int("keep", 50, "Snapshots to keep (0 keeps all)")
	timeout := flag.Duration("timeout", 2*time.Minute, "Overall sync timeout")
	flag.Parse()

	log := logger.Must(logger.New())
	defer log.Sync()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("failed to load config", zap.Error(err))
	}
	if !cfg.Odoo.Enabled() {
		log.Fatal("ODOO_URL is required for an inventory sync")
	}

	log.Info("using database", zap.String("path", cfg.Data.DBPath))

	// Initialize database
	database, err := db.New(cfg.Data.DBPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer database.Close()

	// Configure syncer
	syncCfg := syncer.DefaultConfig()
	syncCfg.Attempts = *attempts
	syncCfg.RetryDelay = *delay
	syncCfg.KeepSnapshots = *keep

	s := syncer.New(odoo.NewClient(cfg.Odoo), database, nil, syncCfg, logger.Named(log, "sync"))

	// Setup context with cancellation
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("received interrupt signal, shutting down...")
		cancel()
	}()

	result, err := s.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Info("sync cancelled by user")
			return
		}
		log.Fatal("sync failed", zap.Error(err))
	}

	if !result.Stored {
		log.Info("inventory unchanged since the last snapshot", zap.String("snapshot", result.SnapshotID))
	}
}
