package editor

import (
	"testing"

	"cellseg/pkg/geometry"
)

func TestHitRadiusZoomTiers(t *testing.T) {
	const base = 10.0
	tests := []struct {
		zoom float64
		want float64
	}{
		{5, 20},
		{4.5, 20},
		{3.5, 15},
		{1, 10},
		{0.6, 8},
		{0.3, 6},
	}
	for _, tt := range tests {
		if got := HitRadius(base, tt.zoom); !almostEqual(got, tt.want) {
			t.Errorf("HitRadius(%v, %v) = %v, want %v", base, tt.zoom, got, tt.want)
		}
	}
}

// High zoom must be at least as permissive as mid zoom, and mid zoom at
// least as permissive as low zoom, so vertices stay reachable when pixels
// are large.
func TestHitRadiusMonotonicAcrossTiers(t *testing.T) {
	const base = 10.0
	high := HitRadius(base, 5)
	mid := HitRadius(base, 1)
	low := HitRadius(base, 0.3)
	if !(high > mid && mid > low) {
		t.Errorf("want high > mid > low, got %v, %v, %v", high, mid, low)
	}
}

func TestIsNearVertex(t *testing.T) {
	vertex := geometry.Point2D{X: 100, Y: 100}
	tr := Transform{Zoom: 2, TranslateX: 10, TranslateY: 10}
	vx, vy := tr.ImageToScreen(vertex) // (210, 210)

	if !IsNearVertex(vx+3, vy+3, vertex, 10, tr) {
		t.Error("click 3px off the vertex should hit")
	}
	if IsNearVertex(vx+40, vy, vertex, 10, tr) {
		t.Error("click 40px off the vertex should miss")
	}
}

func TestClosestSegmentLinear(t *testing.T) {
	square := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
	}

	hit, ok := ClosestSegment(square, geometry.Point2D{X: 50, Y: -4}, 10, false)
	if !ok {
		t.Fatal("expected a hit on the top edge")
	}
	if hit.Index != 0 {
		t.Errorf("hit edge %d, want 0", hit.Index)
	}
	if !almostEqual(hit.Dist, 4) {
		t.Errorf("hit distance %v, want 4", hit.Dist)
	}
	if !almostEqual(hit.Closest.X, 50) || !almostEqual(hit.Closest.Y, 0) {
		t.Errorf("closest point %+v", hit.Closest)
	}

	if _, ok := ClosestSegment(square, geometry.Point2D{X: 50, Y: -30}, 10, false); ok {
		t.Error("point outside threshold should miss")
	}
	if _, ok := ClosestSegment(square[:1], geometry.Point2D{X: 0, Y: 0}, 10, false); ok {
		t.Error("degenerate ring should miss")
	}
}

// The grid path must agree with the exhaustive scan on a ring large enough
// to trigger it.
func TestClosestSegmentGridMatchesLinear(t *testing.T) {
	ring := geometry.GenerateCirclePoints(500, 500, 300, 128)
	// Queries sit near edge midpoints so a single edge is unambiguously
	// closest.
	queries := []geometry.Point2D{
		{X: 805, Y: 507},
		{X: 492, Y: 806},
		{X: 194, Y: 492},
		{X: 507, Y: 194},
	}

	for _, q := range queries {
		linear, okL := ClosestSegment(ring, q, 15, false)
		grid, okG := ClosestSegment(ring, q, 15, true)
		if okL != okG {
			t.Fatalf("query %+v: linear hit=%v grid hit=%v", q, okL, okG)
		}
		if !okL {
			continue
		}
		if linear.Index != grid.Index {
			t.Errorf("query %+v: linear edge %d, grid edge %d", q, linear.Index, grid.Index)
		}
		if !almostEqual(linear.Dist, grid.Dist) {
			t.Errorf("query %+v: linear dist %v, grid dist %v", q, linear.Dist, grid.Dist)
		}
	}
}

func TestClosestSegmentGridMiss(t *testing.T) {
	ring := geometry.GenerateCirclePoints(500, 500, 300, 128)
	if _, ok := ClosestSegment(ring, geometry.Point2D{X: 500, Y: 500}, 15, true); ok {
		t.Error("circle center is 300 units from the boundary and should miss")
	}
}
