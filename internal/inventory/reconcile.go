package inventory

import (
	"strconv"

	"parcel-portal/internal/geo"
	"parcel-portal/internal/models"

	"github.com/paulmach/orb"
)

// GeometryLookup resolves a lot code to its stored boundary
type GeometryLookup interface {
	Lookup(code string) (geo.RegistryEntry, bool)
}

// GeometryIndex is a GeometryLookup that can also enumerate its codes
type GeometryIndex interface {
	GeometryLookup
	Codes() []string
}

// Options enables behaviour beyond the plain merge. The zero value is the
// plain merge.
type Options struct {
	// MatchSuffixVariants retries an unmatched local code with a trailing
	// 'P' added or removed.
	MatchSuffixVariants bool
	// IncludeGeometryOnly appends lots known only to the geometry registry.
	// Requires the registry to implement GeometryIndex.
	IncludeGeometryOnly bool
}

// Report counts what a reconciliation did with its inputs
type Report struct {
	Local             int      `json:"local"`
	Matched           int      `json:"matched"`
	Discovered        int      `json:"discovered"`
	GeometryOnly      int      `json:"geometry_only"`
	DroppedNoGeometry int      `json:"dropped_no_geometry"`
	DroppedNoCode     int      `json:"dropped_no_code"`
	DroppedCodes      []string `json:"dropped_codes,omitempty"`
}

// Reconcile merges the local catalog, the ERP records and the geometry
// registry into the lot set shown to users.
//
// Local lots come first, in input order, with matched ERP fields overlaid.
// ERP records whose code no local lot consumed follow in input order when
// the registry has a boundary for them; the rest are dropped and counted.
// Reconcile never fails: malformed fields fall back to defaults.
func Reconcile(local []models.LocalLot, records []Record, registry GeometryLookup, opts Options) ([]models.MergedLot, Report) {
	report := Report{Local: len(local)}

	// last write wins for duplicate codes
	index := make(map[string]*Record, len(records))
	for i := range records {
		if code := models.NormalizeCode(records[i].Code.String()); code != "" {
			index[code] = &records[i]
		}
	}

	consumed := make(map[string]bool, len(local))
	consumedIDs := make(map[int64]bool)
	merged := make([]models.MergedLot, 0, len(local)+len(records))

	for _, lot := range local {
		code := models.NormalizeCode(lot.Code)
		m := fromLocal(lot, code)

		rec, key := match(index, code, opts)
		if rec == nil {
			merged = append(merged, m)
			continue
		}

		overlay(&m, rec)
		if entry, ok := lookup(registry, code); ok && len(entry.Coordinates) > 0 {
			m.Geometry = entry.Coordinates
			m.Measurements = entry.Measurements
		}
		consumed[key] = true
		if rec.ID != 0 {
			consumedIDs[rec.ID] = true
		}
		report.Matched++
		merged = append(merged, m)
	}

	for i := range records {
		code := models.NormalizeCode(records[i].Code.String())
		if code == "" {
			report.DroppedNoCode++
			continue
		}
		// a variant match consumes the record under another code
		variantConsumed := opts.MatchSuffixVariants && records[i].ID != 0 && consumedIDs[records[i].ID]
		if consumed[code] || variantConsumed {
			continue
		}
		consumed[code] = true

		rec := index[code]
		entry, ok := lookup(registry, code)
		if !ok || len(entry.Coordinates) == 0 {
			report.DroppedNoGeometry++
			report.DroppedCodes = append(report.DroppedCodes, code)
			continue
		}
		if rec.ID != 0 {
			consumedIDs[rec.ID] = true
		}
		merged = append(merged, discovered(rec, code, entry))
		report.Discovered++
	}

	if opts.IncludeGeometryOnly {
		if idx, ok := registry.(GeometryIndex); ok {
			for _, lot := range local {
				consumed[models.NormalizeCode(lot.Code)] = true
			}
			for _, code := range idx.Codes() {
				code = models.NormalizeCode(code)
				if consumed[code] {
					continue
				}
				entry, _ := idx.Lookup(code)
				if len(entry.Coordinates) == 0 {
					continue
				}
				consumed[code] = true
				merged = append(merged, geometryOnly(code, entry))
				report.GeometryOnly++
			}
		}
	}

	return merged, report
}

func match(index map[string]*Record, code string, opts Options) (*Record, string) {
	if code == "" {
		return nil, ""
	}
	if rec, ok := index[code]; ok {
		return rec, code
	}
	if opts.MatchSuffixVariants {
		alt := variantCode(code)
		if rec, ok := index[alt]; ok {
			return rec, alt
		}
	}
	return nil, ""
}

func lookup(registry GeometryLookup, code string) (geo.RegistryEntry, bool) {
	if registry == nil {
		return geo.RegistryEntry{}, false
	}
	return registry.Lookup(code)
}

func fromLocal(lot models.LocalLot, code string) models.MergedLot {
	ring := lot.Geometry
	if ring == nil {
		ring = orb.Ring{}
	}
	return models.MergedLot{
		ID:          lot.ID,
		Code:        code,
		Name:        lot.Name,
		Status:      lot.Status,
		Price:       lot.Price,
		Area:        lot.Area,
		Block:       lot.Block,
		Stage:       lot.Stage,
		LotNumber:   lot.LotNumber,
		Description: lot.Description,
		Source:      models.SourceLocal,
		Geometry:    ring,
	}
}

func overlay(m *models.MergedLot, rec *Record) {
	m.ERPID = rec.ID
	if status := MapStatus(rec.Status.String()); status != models.StatusUndefined {
		m.Status = status
	}
	m.Price = ParseNumber(rec.Price, m.Price)
	m.Area = ParseArea(rec.Area, m.Area)
	m.Block = CoalesceString(rec.Block, m.Block)
	m.Stage = CoalesceString(rec.Stage, m.Stage)
}

func discovered(rec *Record, code string, entry geo.RegistryEntry) models.MergedLot {
	status := MapStatus(rec.Status.String())
	if status == models.StatusUndefined {
		status = models.StatusAvailable
	}
	id := code
	if rec.ID != 0 {
		id = strconv.FormatInt(rec.ID, 10)
	}
	return models.MergedLot{
		ID:           id,
		ERPID:        rec.ID,
		Code:         code,
		Name:         CoalesceString(rec.Name, "Lote "+code),
		Status:       status,
		Price:        ParseNumber(rec.Price, 0),
		Area:         ParseArea(rec.Area, 0),
		Block:        CoalesceString(rec.Block, ""),
		Stage:        CoalesceString(rec.Stage, ""),
		LotNumber:    CoalesceString(rec.Lot, ""),
		Source:       models.SourceInventory,
		Geometry:     entry.Coordinates,
		Measurements: entry.Measurements,
	}
}

func geometryOnly(code string, entry geo.RegistryEntry) models.MergedLot {
	stage, block, lot, _ := ParseCode(code)
	var area float64
	if entry.Measurements != nil {
		area = entry.Measurements.Area
	}
	return models.MergedLot{
		ID:           code,
		Code:         code,
		Name:         "Lote " + code,
		Status:       models.StatusAvailable,
		Area:         area,
		Block:        block,
		Stage:        stage,
		LotNumber:    lot,
		Source:       models.SourceGeometry,
		Geometry:     entry.Coordinates,
		Measurements: entry.Measurements,
	}
}
