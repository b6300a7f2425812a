package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"parcel-portal/internal/inventory"
)

// Source fetches the current ERP inventory
type Source interface {
	FetchProducts(ctx context.Context) ([]inventory.Record, error)
}

// Store persists inventory snapshots
type Store interface {
	SaveSnapshot(snap inventory.Snapshot) (bool, error)
	PruneSnapshots(keep int) (int64, error)
}

// Refresher rebuilds derived state from a snapshot
type Refresher interface {
	Refresh(snap inventory.Snapshot) bool
}

// Config holds sync settings
type Config struct {
	Attempts      int
	RetryDelay    time.Duration
	KeepSnapshots int
}

// DefaultConfig returns default sync settings
func DefaultConfig() Config {
	return Config{
		Attempts:      3,
		RetryDelay:    5 * time.Second,
		KeepSnapshots: 50,
	}
}

// Result describes one sync run
type Result struct {
	SnapshotID string        `json:"snapshot_id"`
	Records    int           `json:"records"`
	Stored     bool          `json:"stored"`
	Refreshed  bool          `json:"refreshed"`
	Duration   time.Duration `json:"duration"`
}

// ErrRunning is returned when a sync is requested while one is in progress
var ErrRunning = errors.New("sync already running")

// Syncer fetches the ERP inventory, stores it as a snapshot and refreshes
// the merged lot set
type Syncer struct {
	source  Source
	store   Store
	lots    Refresher
	config  Config
	logger  *zap.Logger
	now     func() time.Time
	running sync.Mutex
}

// New creates a Syncer. store and lots may be nil.
func New(source Source, store Store, lots Refresher, config Config, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Attempts < 1 {
		config.Attempts = 1
	}
	return &Syncer{
		source: source,
		store:  store,
		lots:   lots,
		config: config,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one sync. Concurrent calls fail fast with ErrRunning.
func (s *Syncer) Run(ctx context.Context) (Result, error) {
	if !s.running.TryLock() {
		return Result{}, ErrRunning
	}
	defer s.running.Unlock()

	s.logger.Info("starting inventory sync")
	startTime := s.now()

	records, err := s.fetch(ctx)
	if err != nil {
		return Result{}, err
	}

	snap, err := inventory.NewSnapshot(records, s.now())
	if err != nil {
		return Result{}, err
	}
	result := Result{SnapshotID: snap.ID, Records: len(records)}

	if s.store != nil {
		stored, err := s.store.SaveSnapshot(snap)
		if err != nil {
			return result, fmt.Errorf("failed to save snapshot: %w", err)
		}
		result.Stored = stored
		if stored && s.config.KeepSnapshots > 0 {
			if pruned, err := s.store.PruneSnapshots(s.config.KeepSnapshots); err != nil {
				s.logger.Warn("failed to prune snapshots", zap.Error(err))
			} else if pruned > 0 {
				s.logger.Info("pruned old snapshots", zap.Int64("count", pruned))
			}
		}
	}

	if s.lots != nil {
		result.Refreshed = s.lots.Refresh(snap)
	}

	result.Duration = s.now().Sub(startTime)
	s.logger.Info("inventory sync complete",
		zap.String("snapshot", result.SnapshotID),
		zap.Int("records", result.Records),
		zap.Bool("stored", result.Stored),
		zap.Bool("refreshed", result.Refreshed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *Syncer) fetch(ctx context.Context) ([]inventory.Record, error) {
	var lastErr error
	for attempt := 1; attempt <= s.config.Attempts; attempt++ {
		records, err := s.source.FetchProducts(ctx)
		if err == nil {
			return records, nil
		}
		lastErr = err
		s.logger.Warn("inventory fetch failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", s.config.Attempts),
			zap.Error(err),
		)
		if attempt == s.config.Attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.config.RetryDelay):
		}
	}
	return nil, fmt.Errorf("failed to fetch inventory after %d attempts: %w", s.config.Attempts, lastErr)
}
