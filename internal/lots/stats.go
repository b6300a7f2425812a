package lots

import (
	"parcel-portal/internal/inventory"
	"parcel-portal/internal/models"
)

// StatusStats aggregates the lots sharing one status
type StatusStats struct {
	Count      int     `json:"count"`
	TotalArea  float64 `json:"total_area"`
	TotalValue float64 `json:"total_value"`
}

// Stats is the dashboard summary of the merged set
type Stats struct {
	Total      int                           `json:"total"`
	TotalArea  float64                       `json:"total_area"`
	TotalValue float64                       `json:"total_value"`
	ByStatus   map[models.Status]StatusStats `json:"by_status"`
	SnapshotID string                        `json:"snapshot_id"`
	Report     inventory.Report              `json:"report"`
}

// Stats summarises the lots matching f
func (p *Provider) Stats(f Filter) Stats {
	lots := p.List(f)

	s := Stats{
		Total:      len(lots),
		ByStatus:   make(map[models.Status]StatusStats, len(models.Statuses)),
		SnapshotID: p.SnapshotID(),
		Report:     p.Report(),
	}
	for _, st := range models.Statuses {
		s.ByStatus[st] = StatusStats{}
	}
	for _, lot := range lots {
		st := s.ByStatus[lot.Status]
		st.Count++
		st.TotalArea += lot.Area
		st.TotalValue += lot.Price
		s.ByStatus[lot.Status] = st

		s.TotalArea += lot.Area
		s.TotalValue += lot.Price
	}
	return s
}
