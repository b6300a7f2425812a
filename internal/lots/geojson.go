package lots

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"parcel-portal/internal/geo"
)

// FeatureCollection renders the lots matching f as WGS84 polygons. Lots
// without a drawable ring are left out; points that fail to project are
// logged and drawn at (0,0).
func (p *Provider) FeatureCollection(f Filter) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, lot := range p.List(f) {
		if !lot.HasShape() {
			continue
		}

		ring, errs := geo.ProjectRing(lot.Geometry, p.crs, geo.WGS84)
		if len(errs) > 0 {
			p.logger.Warn("lot geometry did not project cleanly",
				zap.String("code", lot.Code),
				zap.Int("failed_points", len(errs)),
				zap.Error(errs[0]),
			)
		}
		if !ring.Closed() {
			ring = append(ring, ring[0])
		}

		feature := geojson.NewFeature(orb.Polygon{ring})
		feature.ID = lot.Code
		feature.Properties["code"] = lot.Code
		feature.Properties["name"] = lot.Name
		feature.Properties["status"] = string(lot.Status)
		feature.Properties["price"] = lot.Price
		feature.Properties["area"] = lot.Area
		feature.Properties["block"] = lot.Block
		feature.Properties["stage"] = lot.Stage
		feature.Properties["lot"] = lot.LotNumber
		feature.Properties["source"] = string(lot.Source)

		if centroid, err := geo.Project(geo.Centroid(lot.Geometry), p.crs, geo.WGS84); err == nil {
			feature.Properties["label"] = []float64{centroid[0], centroid[1]}
		}

		fc.Append(feature)
	}

	return fc
}
