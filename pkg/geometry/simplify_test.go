package geometry

import (
	"testing"
)

func TestSimplifyPathCollinear(t *testing.T) {
	path := []Point2D{{0, 0}, {1, 0.01}, {2, -0.01}, {3, 0}, {4, 0}}
	got := SimplifyPath(path, 0.5)
	if len(got) != 2 {
		t.Fatalf("simplified length = %d, want 2", len(got))
	}
	if got[0] != path[0] || got[1] != path[len(path)-1] {
		t.Errorf("endpoints not preserved: %v", got)
	}
}

func TestSimplifyPathKeepsCorners(t *testing.T) {
	path := []Point2D{{0, 0}, {5, 0.1}, {10, 0}, {10, 5}, {10, 10}}
	got := SimplifyPath(path, 0.5)
	// The corner at (10,0) is far from the chord (0,0)-(10,10) and must survive.
	found := false
	for _, p := range got {
		if p == (Point2D{10, 0}) {
			found = true
		}
	}
	if !found {
		t.Errorf("corner dropped: %v", got)
	}
}

func TestSimplifyPathShort(t *testing.T) {
	path := []Point2D{{0, 0}, {1, 1}}
	got := SimplifyPath(path, 10)
	if len(got) != 2 {
		t.Errorf("short path must remain unchanged, got %v", got)
	}
}

func TestSimplifyRingReducesNoise(t *testing.T) {
	// A circle with 128 vertices simplifies far down at a coarse tolerance
	// but never below 3 usable vertices.
	ring := GenerateCirclePoints(0, 0, 100, 128)
	got := SimplifyRing(ring, 5)
	if len(got) >= len(ring) {
		t.Fatalf("no reduction: %d -> %d", len(ring), len(got))
	}
	if len(got) < 3 {
		t.Fatalf("over-reduced to %d points", len(got))
	}

	// The simplified ring still approximates the original area.
	origArea := PolygonArea(ring)
	newArea := PolygonArea(got)
	if newArea < origArea*0.85 || newArea > origArea*1.05 {
		t.Errorf("area drifted: %v -> %v", origArea, newArea)
	}
}

func TestSimplifyRingIdempotent(t *testing.T) {
	ring := GenerateCirclePoints(50, 50, 40, 64)
	once := SimplifyRing(ring, 2)
	twice := SimplifyRing(once, 2)
	if len(twice) < 3 {
		t.Fatalf("over-reduced to %d points", len(twice))
	}
	// A second pass at the same tolerance must stay within tolerance of the
	// first pass result everywhere.
	for _, p := range once {
		hit, ok := NearestSegment(p, twice)
		if !ok || hit.Dist > 2 {
			t.Errorf("vertex %v drifted %.3f beyond tolerance on re-simplify", p, hit.Dist)
		}
	}
}

func TestSimplifyRingSmallRingUntouched(t *testing.T) {
	tri := []Point2D{{0, 0}, {10, 0}, {0, 10}}
	got := SimplifyRing(tri, 100)
	if len(got) != 3 {
		t.Fatalf("triangle must pass through unchanged, got %d points", len(got))
	}
}
