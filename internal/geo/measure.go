package geo

import (
	"math"

	"parcel-portal/internal/models"

	"github.com/paulmach/orb"
	"github.com/shopspring/decimal"
)

// Measure computes side lengths, area, perimeter and centroid of a closed ring.
// The ring is implicitly closed (last point connects to the first) and any
// winding order is accepted. Units follow the input coordinates.
func Measure(ring orb.Ring) models.Measurements {
	return models.Measurements{
		Sides:     SideLengths(ring),
		Area:      Area(ring),
		Perimeter: Perimeter(ring),
		Centroid:  Centroid(ring),
	}
}

// SideLengths returns the Euclidean length of each edge i -> (i+1) mod n.
// Rings with fewer than 3 points have no sides.
func SideLengths(ring orb.Ring) []float64 {
	n := len(ring)
	if n < 3 {
		return []float64{}
	}
	sides := make([]float64, n)
	for i := range ring {
		a, b := ring[i], ring[(i+1)%n]
		sides[i] = math.Hypot(b[0]-a[0], b[1]-a[1])
	}
	return sides
}

// Area is the absolute shoelace area of the ring
func Area(ring orb.Ring) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	// relative to the first vertex; projected coordinates are large
	o := ring[0]
	var sum float64
	for i := range ring {
		a, b := ring[i], ring[(i+1)%n]
		sum += (a[0]-o[0])*(b[1]-o[1]) - (b[0]-o[0])*(a[1]-o[1])
	}
	return math.Abs(sum) / 2
}

// Perimeter is the sum of the side lengths
func Perimeter(ring orb.Ring) float64 {
	var total float64
	for _, s := range SideLengths(ring) {
		total += s
	}
	return total
}

// Centroid is the arithmetic mean of the vertices (not the area-weighted
// centroid), used as the label anchor of a lot
func Centroid(ring orb.Ring) orb.Point {
	if len(ring) == 0 {
		return orb.Point{}
	}
	var x, y float64
	for _, p := range ring {
		x += p[0]
		y += p[1]
	}
	n := float64(len(ring))
	return orb.Point{x / n, y / n}
}

// Round returns a copy of m with every value rounded to the given decimals
func Round(m models.Measurements, places int32) models.Measurements {
	sides := make([]float64, len(m.Sides))
	for i, s := range m.Sides {
		sides[i] = roundTo(s, places)
	}
	return models.Measurements{
		Sides:     sides,
		Area:      roundTo(m.Area, places),
		Perimeter: roundTo(m.Perimeter, places),
		Centroid:  orb.Point{roundTo(m.Centroid[0], places), roundTo(m.Centroid[1], places)},
	}
}

func roundTo(v float64, places int32) float64 {
	if !finite(v) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}
