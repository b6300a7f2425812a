package lots

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"parcel-portal/internal/catalog"
	"parcel-portal/internal/config"
	"parcel-portal/internal/geo"
	"parcel-portal/internal/inventory"
)

// measurementCacheSize bounds the memoised polygon measurements
const measurementCacheSize = 4096

// Open builds a provider from the configured catalog and geometry
// registry. When the measured registry is missing the raw one is used, and
// when both are missing the registry is empty.
func Open(cfg *config.Config, logger *zap.Logger) (*Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	local, err := catalog.Load(cfg.Data.CatalogPath)
	if err != nil {
		return nil, err
	}

	registry, err := loadRegistry(cfg.Data, logger)
	if err != nil {
		return nil, err
	}

	cache, err := geo.NewMeasurementCache(measurementCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement cache: %w", err)
	}

	logger.Info("loaded lot sources",
		zap.Int("catalog", len(local)),
		zap.Int("geometries", registry.Len()),
	)

	opts := inventory.Options{
		MatchSuffixVariants: cfg.Reconcile.MatchSuffixVariants,
		IncludeGeometryOnly: cfg.Reconcile.IncludeGeometryOnly,
	}
	crs := geo.UTM(cfg.Geo.UTMZone, cfg.Geo.UTMSouth)
	return NewProvider(local, registry, cache, crs, opts, logger), nil
}

func loadRegistry(data config.DataConfig, logger *zap.Logger) (*geo.Registry, error) {
	for _, path := range []string{data.GeometryPath, data.RawGeometryPath} {
		if path == "" {
			continue
		}
		registry, err := geo.LoadRegistry(path)
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("geometry registry not found", zap.String("path", path))
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.Info("using geometry registry", zap.String("path", path))
		return registry, nil
	}
	logger.Warn("no geometry registry, continuing without it")
	return geo.NewRegistry(nil), nil
}
