package models

import (
	"strings"

	"github.com/paulmach/orb"
)

// Status is the commercial status of a lot
type Status string

const (
	StatusAvailable Status = "available"
	StatusReserved  Status = "reserved"
	StatusSold      Status = "sold"
	StatusUndefined Status = "undefined"
)

// Statuses lists the statuses a merged lot can carry, in display order
var Statuses = []Status{StatusAvailable, StatusReserved, StatusSold}

// Valid reports whether s is one of Statuses
func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// LotSource records which input a merged lot was seeded from
type LotSource string

const (
	SourceLocal     LotSource = "local"     // local catalog entry
	SourceInventory LotSource = "inventory" // discovered from the ERP snapshot
	SourceGeometry  LotSource = "geometry"  // geometry registry only
)

// Measurements are the planar metrics of a lot boundary.
// Sides[i] is the edge from point i to point (i+1) mod n.
type Measurements struct {
	Sides     []float64 `json:"sides"`
	Area      float64   `json:"area"`
	Perimeter float64   `json:"perimeter"`
	Centroid  orb.Point `json:"centroid"`
}

// LocalLot is a lot from the locally curated catalog: identity, geometry and
// the default commercial attributes used when the ERP has nothing better
type LocalLot struct {
	ID          string   `json:"id"`
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Status      Status   `json:"status"`
	Price       float64  `json:"price"`
	Area        float64  `json:"area"`
	Block       string   `json:"block"`
	Stage       string   `json:"stage"`
	LotNumber   string   `json:"lot_number"`
	Description string   `json:"description,omitempty"`
	Geometry    orb.Ring `json:"geometry"`
}

// MergedLot is the reconciled view of a lot that map, list and dashboard
// consumers read. Geometry and Measurements are shared with the inputs and
// must be treated as read-only.
type MergedLot struct {
	ID           string        `json:"id"`
	ERPID        int64         `json:"erp_id,omitempty"`
	Code         string        `json:"code"`
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	Price        float64       `json:"price"`
	Area         float64       `json:"area"`
	Block        string        `json:"block"`
	Stage        string        `json:"stage"`
	LotNumber    string        `json:"lot_number"`
	Description  string        `json:"description,omitempty"`
	Source       LotSource     `json:"source"`
	Geometry     orb.Ring      `json:"geometry"`
	Measurements *Measurements `json:"measurements,omitempty"`
}

// HasShape reports whether the lot has enough points to be drawn or measured
func (l *MergedLot) HasShape() bool {
	return len(l.Geometry) >= 3
}

// NormalizeCode canonicalises a business code for joins: trimmed and upper-cased
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
