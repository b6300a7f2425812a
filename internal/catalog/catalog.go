package catalog

import (
	"errors"
	"fmt"
	"os"

	"parcel-portal/internal/inventory"
	"parcel-portal/internal/models"

	"github.com/paulmach/orb"
	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of the local lot catalog
type File struct {
	Project string  `yaml:"project"`
	Lots    []Entry `yaml:"lots"`
}

// Entry is one curated lot. Points are projected [easting, northing] pairs.
type Entry struct {
	ID          string      `yaml:"id"`
	Code        string      `yaml:"code"`
	Name        string      `yaml:"name"`
	Stage       string      `yaml:"stage"`
	Block       string      `yaml:"block"`
	Lot         string      `yaml:"lot"`
	Status      string      `yaml:"status"`
	Price       float64     `yaml:"price"`
	Area        float64     `yaml:"area"`
	Description string      `yaml:"description"`
	Points      [][]float64 `yaml:"points"`
}

// Load reads and converts the catalog at path
func Load(path string) ([]models.LocalLot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a catalog document. Missing codes are built from
// stage/block/lot, missing ids default to the code and an unknown status
// defaults to available.
func Parse(data []byte) ([]models.LocalLot, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	lots := make([]models.LocalLot, 0, len(f.Lots))
	seen := make(map[string]int, len(f.Lots))
	for i, e := range f.Lots {
		lot, err := e.toLocalLot()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i+1, err)
		}
		if prev, ok := seen[lot.ID]; ok {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %q (first used by entry %d)", i+1, lot.ID, prev)
		}
		seen[lot.ID] = i + 1
		lots = append(lots, lot)
	}
	return lots, nil
}

func (e Entry) toLocalLot() (models.LocalLot, error) {
	code := models.NormalizeCode(e.Code)
	if code == "" {
		code = inventory.BuildCode(e.Stage, e.Block, e.Lot)
	}
	id := e.ID
	if id == "" {
		id = code
	}
	if id == "" {
		return models.LocalLot{}, errors.New("lot has neither id nor code")
	}

	status := inventory.MapStatus(e.Status)
	if status == models.StatusUndefined {
		status = models.StatusAvailable
	}

	ring := make(orb.Ring, 0, len(e.Points))
	for j, p := range e.Points {
		if len(p) < 2 {
			return models.LocalLot{}, fmt.Errorf("lot %s: point %d has %d coordinates", id, j+1, len(p))
		}
		ring = append(ring, orb.Point{p[0], p[1]})
	}

	name := e.Name
	if name == "" {
		name = "Lote " + e.Lot
	}

	return models.LocalLot{
		ID:          id,
		Code:        code,
		Name:        name,
		Status:      status,
		Price:       e.Price,
		Area:        e.Area,
		Block:       e.Block,
		Stage:       e.Stage,
		LotNumber:   e.Lot,
		Description: e.Description,
		Geometry:    ring,
	}, nil
}
