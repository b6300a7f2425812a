package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestMeasureUnitSquare(t *testing.T) {
	square := orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}}

	m := Measure(square)
	if m.Area != 1 {
		t.Errorf("Area = %v, want 1", m.Area)
	}
	if m.Perimeter != 4 {
		t.Errorf("Perimeter = %v, want 4", m.Perimeter)
	}
	if len(m.Sides) != 4 {
		t.Fatalf("len(Sides) = %d, want 4", len(m.Sides))
	}
	for i, s := range m.Sides {
		if s != 1 {
			t.Errorf("Sides[%d] = %v, want 1", i, s)
		}
	}
	if m.Centroid != (orb.Point{0.5, 0.5}) {
		t.Errorf("Centroid = %v, want [0.5 0.5]", m.Centroid)
	}
}

func TestMeasureRightTriangle(t *testing.T) {
	m := Measure(orb.Ring{{0, 0}, {3, 0}, {0, 4}})

	want := []float64{3, 5, 4}
	for i, s := range m.Sides {
		if !almostEqual(s, want[i], 1e-12) {
			t.Errorf("Sides[%d] = %v, want %v", i, s, want[i])
		}
	}
	if m.Area != 6 {
		t.Errorf("Area = %v, want 6", m.Area)
	}
	if !almostEqual(m.Perimeter, 12, 1e-12) {
		t.Errorf("Perimeter = %v, want 12", m.Perimeter)
	}
}

func TestMeasureDegenerate(t *testing.T) {
	tests := []struct {
		name     string
		ring     orb.Ring
		centroid orb.Point
	}{
		{"empty", orb.Ring{}, orb.Point{0, 0}},
		{"nil", nil, orb.Point{0, 0}},
		{"single point", orb.Ring{{4, 6}}, orb.Point{4, 6}},
		{"two points", orb.Ring{{0, 0}, {2, 4}}, orb.Point{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Measure(tt.ring)
			if m.Sides == nil || len(m.Sides) != 0 {
				t.Errorf("Sides = %#v, want empty non-nil slice", m.Sides)
			}
			if m.Area != 0 || m.Perimeter != 0 {
				t.Errorf("Area, Perimeter = %v, %v, want 0, 0", m.Area, m.Perimeter)
			}
			if m.Centroid != tt.centroid {
				t.Errorf("Centroid = %v, want %v", m.Centroid, tt.centroid)
			}
		})
	}
}

func TestMeasureWindingInvariant(t *testing.T) {
	ring := orb.Ring{
		{308758.8, 8623079.4},
		{308771.2, 8623085.1},
		{308766.9, 8623097.3},
		{308753.6, 8623091.0},
	}
	reversed := make(orb.Ring, len(ring))
	for i, p := range ring {
		reversed[len(ring)-1-i] = p
	}

	a, b := Measure(ring), Measure(reversed)
	if !almostEqual(a.Area, b.Area, 1e-6) {
		t.Errorf("Area differs by winding: %v vs %v", a.Area, b.Area)
	}
	if !almostEqual(a.Perimeter, b.Perimeter, 1e-9) {
		t.Errorf("Perimeter differs by winding: %v vs %v", a.Perimeter, b.Perimeter)
	}
	if a.Area <= 0 {
		t.Errorf("Area = %v, want positive", a.Area)
	}
}

func TestMeasureCentroidIsVertexMean(t *testing.T) {
	// an extra vertex on one edge moves the vertex mean but not the area
	ring := orb.Ring{{0, 0}, {2, 0}, {4, 0}, {4, 4}, {0, 4}}

	m := Measure(ring)
	if m.Area != 16 {
		t.Errorf("Area = %v, want 16", m.Area)
	}
	want := orb.Point{2, 1.6}
	if !almostEqual(m.Centroid[0], want[0], 1e-12) || !almostEqual(m.Centroid[1], want[1], 1e-12) {
		t.Errorf("Centroid = %v, want %v", m.Centroid, want)
	}
}

func TestRound(t *testing.T) {
	m := Measure(orb.Ring{{0, 0}, {1, 0}, {0, 1}})
	r := Round(m, 2)

	if r.Sides[1] != 1.41 {
		t.Errorf("Sides[1] = %v, want 1.41", r.Sides[1])
	}
	if r.Perimeter != 3.41 {
		t.Errorf("Perimeter = %v, want 3.41", r.Perimeter)
	}
	if r.Centroid != (orb.Point{0.33, 0.33}) {
		t.Errorf("Centroid = %v, want [0.33 0.33]", r.Centroid)
	}
	if m.Sides[1] == r.Sides[1] {
		t.Error("Round modified the input measurements")
	}
}
