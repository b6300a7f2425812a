package inventory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Fields lists the product.template fields a Record is read from
var Fields = []string{"default_code", "name", "list_price", "x_statu", "x_area", "x_mz", "x_etapa", "x_lote"}

// Record is one ERP product. Any field may be absent.
type Record struct {
	ID     int64 `json:"id"`
	Code   Value `json:"default_code"`
	Name   Value `json:"name"`
	Price  Value `json:"list_price"`
	Status Value `json:"x_statu"`
	Area   Value `json:"x_area"`
	Block  Value `json:"x_mz"`
	Stage  Value `json:"x_etapa"`
	Lot    Value `json:"x_lote"`
}

// Snapshot is an immutable set of records fetched at one point in time.
// ID is derived from the record content, so two fetches returning the same
// inventory share an ID.
type Snapshot struct {
	ID        string    `json:"id"`
	FetchedAt time.Time `json:"fetched_at"`
	Records   []Record  `json:"records"`
}

// NewSnapshot wraps records and computes their content identity
func NewSnapshot(records []Record, fetchedAt time.Time) (Snapshot, error) {
	if records == nil {
		records = []Record{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to encode inventory records: %w", err)
	}
	return Snapshot{
		ID:        strconv.FormatUint(xxhash.Sum64(payload), 16),
		FetchedAt: fetchedAt,
		Records:   records,
	}, nil
}
