package lots

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"parcel-portal/internal/geo"
	"parcel-portal/internal/inventory"
	"parcel-portal/internal/models"
)

// ErrLotNotFound is returned when no merged lot has the requested code
var ErrLotNotFound = errors.New("lot not found")

// Provider serves the merged lot set. The set is recomputed only when the
// inventory snapshot identity changes; readers always see a complete set.
type Provider struct {
	local    []models.LocalLot
	registry *geo.Registry
	cache    *geo.MeasurementCache
	opts     inventory.Options
	crs      geo.CRS
	logger   *zap.Logger

	mu         sync.RWMutex
	loaded     bool
	snapshotID string
	lots       []models.MergedLot
	byCode     map[string]int
	report     inventory.Report
}

// NewProvider builds a provider over the local catalog and geometry
// registry. Geometries are expressed in crs. The initial set contains the
// local catalog only, until Refresh supplies an inventory snapshot.
func NewProvider(local []models.LocalLot, registry *geo.Registry, cache *geo.MeasurementCache, crs geo.CRS, opts inventory.Options, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Provider{
		local:    local,
		registry: registry,
		cache:    cache,
		opts:     opts,
		crs:      crs,
		logger:   logger,
	}
	p.Refresh(inventory.Snapshot{})
	return p
}

// Refresh reconciles against snap unless it is the snapshot already in use.
// It reports whether the merged set was recomputed.
func (p *Provider) Refresh(snap inventory.Snapshot) bool {
	p.mu.RLock()
	current := p.loaded && p.snapshotID == snap.ID
	p.mu.RUnlock()
	if current {
		return false
	}

	merged, report := inventory.Reconcile(p.local, snap.Records, p.registry, p.opts)
	byCode := make(map[string]int, len(merged))
	for i, lot := range merged {
		if _, dup := byCode[lot.Code]; !dup && lot.Code != "" {
			byCode[lot.Code] = i
		}
	}

	p.mu.Lock()
	p.loaded = true
	p.snapshotID = snap.ID
	p.lots = merged
	p.byCode = byCode
	p.report = report
	p.mu.Unlock()

	p.logger.Info("merged lot set rebuilt",
		zap.String("snapshot", snap.ID),
		zap.Int("lots", len(merged)),
		zap.Int("matched", report.Matched),
		zap.Int("discovered", report.Discovered),
		zap.Int("geometry_only", report.GeometryOnly),
		zap.Int("dropped_no_geometry", report.DroppedNoGeometry),
		zap.Int("dropped_no_code", report.DroppedNoCode),
	)
	if len(report.DroppedCodes) > 0 {
		p.logger.Warn("inventory records without geometry", zap.Strings("codes", report.DroppedCodes))
	}
	return true
}

// SnapshotID returns the identity of the snapshot the set was built from
func (p *Provider) SnapshotID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotID
}

// Report returns the counts of the last reconciliation
func (p *Provider) Report() inventory.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.report
}

// All returns the full merged set in reconciliation order
func (p *Provider) All() []models.MergedLot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.MergedLot, len(p.lots))
	copy(out, p.lots)
	return out
}

// List returns the lots matching f in reconciliation order
func (p *Provider) List(f Filter) []models.MergedLot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]models.MergedLot, 0, len(p.lots))
	for _, lot := range p.lots {
		if f.Matches(&lot) {
			out = append(out, lot)
		}
	}
	return out
}

// Get returns the lot with the given code
func (p *Provider) Get(code string) (models.MergedLot, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	i, ok := p.byCode[models.NormalizeCode(code)]
	if !ok {
		return models.MergedLot{}, ErrLotNotFound
	}
	return p.lots[i], nil
}

// Measurements returns the planar metrics of a lot, preferring the
// registry's precomputed values
func (p *Provider) Measurements(code string) (models.Measurements, error) {
	lot, err := p.Get(code)
	if err != nil {
		return models.Measurements{}, err
	}
	if lot.Measurements != nil {
		return *lot.Measurements, nil
	}
	if p.cache != nil {
		return p.cache.Measure(lot.Geometry), nil
	}
	return geo.Measure(lot.Geometry), nil
}
