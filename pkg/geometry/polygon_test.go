package geometry

import (
	"math"
	"testing"
)

var unitSquare = []Point2D{{0, 0}, {100, 0}, {100, 100}, {0, 100}}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name   string
		points []Point2D
		want   float64
	}{
		{"square", unitSquare, 10000},
		{"square reversed winding", []Point2D{{0, 100}, {100, 100}, {100, 0}, {0, 0}}, 10000},
		{"triangle", []Point2D{{0, 0}, {10, 0}, {0, 10}}, 50},
		{"degenerate two points", []Point2D{{0, 0}, {10, 0}}, 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonArea(tt.points); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("PolygonArea() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolygonPerimeter(t *testing.T) {
	tests := []struct {
		name   string
		points []Point2D
		closed bool
		want   float64
	}{
		{"open square path", unitSquare, false, 300},
		{"closed square", unitSquare, true, 400},
		{"single point", []Point2D{{1, 1}}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonPerimeter(tt.points, tt.closed); !almostEqual(got, tt.want, 1e-9) {
				t.Errorf("PolygonPerimeter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsClockwise(t *testing.T) {
	// Image coordinates: Y grows downward, so (0,0)->(100,0)->(100,100) winds clockwise.
	cw := []Point2D{{0, 0}, {100, 0}, {100, 100}, {0, 100}}
	if !IsClockwise(cw) {
		t.Error("expected clockwise winding")
	}
	ccw := []Point2D{{0, 100}, {100, 100}, {100, 0}, {0, 0}}
	if IsClockwise(ccw) {
		t.Error("expected counter-clockwise winding")
	}
}

func TestPointToSegment(t *testing.T) {
	tests := []struct {
		name     string
		p, a, b  Point2D
		wantDist float64
		wantT    float64
	}{
		{"projects onto middle", Point2D{5, 5}, Point2D{0, 0}, Point2D{10, 0}, 5, 0.5},
		{"clamped before start", Point2D{-3, 4}, Point2D{0, 0}, Point2D{10, 0}, 5, 0},
		{"clamped past end", Point2D{13, 4}, Point2D{0, 0}, Point2D{10, 0}, 5, 1},
		{"degenerate segment", Point2D{3, 4}, Point2D{0, 0}, Point2D{0, 0}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, closest, tp := PointToSegment(tt.p, tt.a, tt.b)
			if !almostEqual(dist, tt.wantDist, 1e-9) {
				t.Errorf("dist = %v, want %v", dist, tt.wantDist)
			}
			if !almostEqual(tp, tt.wantT, 1e-9) {
				t.Errorf("t = %v, want %v", tp, tt.wantT)
			}
			if got := tt.p.Distance(closest); !almostEqual(got, dist, 1e-9) {
				t.Errorf("closest point inconsistent with distance: %v vs %v", got, dist)
			}
		})
	}
}

func TestNearestSegment(t *testing.T) {
	hit, ok := NearestSegment(Point2D{50, -7}, unitSquare)
	if !ok {
		t.Fatal("expected a segment hit")
	}
	if hit.Index != 0 {
		t.Errorf("nearest edge index = %d, want 0", hit.Index)
	}
	if !almostEqual(hit.Dist, 7, 1e-9) {
		t.Errorf("dist = %v, want 7", hit.Dist)
	}
	if !almostEqual(hit.Closest.X, 50, 1e-9) || !almostEqual(hit.Closest.Y, 0, 1e-9) {
		t.Errorf("closest = %v, want (50,0)", hit.Closest)
	}

	// Wrap-around edge (last vertex back to first)
	hit, ok = NearestSegment(Point2D{-5, 50}, unitSquare)
	if !ok || hit.Index != 3 {
		t.Errorf("nearest edge index = %d, want wrap-around edge 3", hit.Index)
	}

	if _, ok := NearestSegment(Point2D{0, 0}, []Point2D{{1, 1}}); ok {
		t.Error("expected no hit for a 1-point ring")
	}
}

func TestPointInPolygon(t *testing.T) {
	tests := []struct {
		name string
		p    Point2D
		want bool
	}{
		{"center", Point2D{50, 50}, true},
		{"near corner inside", Point2D{1, 1}, true},
		{"outside right", Point2D{150, 50}, false},
		{"outside above", Point2D{50, -10}, false},
		{"far away", Point2D{-1000, -1000}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointInPolygon(tt.p, unitSquare); got != tt.want {
				t.Errorf("PointInPolygon(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}

	// Convex polygon consistency: interior grid points of a circle are
	// inside, anything outside the bounding box is not.
	circle := GenerateCirclePoints(0, 0, 50, 32)
	for _, p := range []Point2D{{0, 0}, {20, 20}, {-30, 10}} {
		if !PointInPolygon(p, circle) {
			t.Errorf("point %v should be inside the circle polygon", p)
		}
	}
	for _, p := range []Point2D{{60, 0}, {0, -60}, {51, 51}} {
		if PointInPolygon(p, circle) {
			t.Errorf("point %v should be outside the circle polygon", p)
		}
	}

	if PointInPolygon(Point2D{0, 0}, []Point2D{{1, 1}, {2, 2}}) {
		t.Error("ring with <3 points must contain nothing")
	}
}

func TestSegmentIntersection(t *testing.T) {
	pt, tp, sp, ok := SegmentIntersection(
		Point2D{0, 0}, Point2D{10, 10},
		Point2D{0, 10}, Point2D{10, 0},
	)
	if !ok {
		t.Fatal("expected intersection")
	}
	if !almostEqual(pt.X, 5, 1e-9) || !almostEqual(pt.Y, 5, 1e-9) {
		t.Errorf("intersection = %v, want (5,5)", pt)
	}
	if !almostEqual(tp, 0.5, 1e-9) || !almostEqual(sp, 0.5, 1e-9) {
		t.Errorf("t=%v s=%v, want 0.5 each", tp, sp)
	}

	// Parallel segments
	if _, _, _, ok := SegmentIntersection(
		Point2D{0, 0}, Point2D{10, 0},
		Point2D{0, 1}, Point2D{10, 1},
	); ok {
		t.Error("parallel segments must not intersect")
	}

	// Lines cross but outside the segments
	if _, _, _, ok := SegmentIntersection(
		Point2D{0, 0}, Point2D{1, 1},
		Point2D{10, 0}, Point2D{0, 10},
	); ok {
		t.Error("intersection outside segment bounds must be rejected")
	}
}

func TestPolygonsOverlap(t *testing.T) {
	a := unitSquare
	b := []Point2D{{50, 50}, {150, 50}, {150, 150}, {50, 150}}
	c := []Point2D{{200, 200}, {300, 200}, {300, 300}, {200, 300}}

	if !PolygonsOverlap(a, b) {
		t.Error("overlapping squares reported disjoint")
	}
	if PolygonsOverlap(a, c) {
		t.Error("disjoint squares reported overlapping")
	}

	// Cross shapes: edges intersect but no vertex containment
	h := []Point2D{{-10, 40}, {110, 40}, {110, 60}, {-10, 60}}
	v := []Point2D{{40, -10}, {60, -10}, {60, 110}, {40, 110}}
	if !PolygonsOverlap(h, v) {
		t.Error("crossing bars reported disjoint")
	}
}

func TestConvexHull(t *testing.T) {
	points := []Point2D{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {5, 5}, {2, 3}}
	hull := ConvexHull(points)
	if len(hull) != 4 {
		t.Fatalf("hull size = %d, want 4", len(hull))
	}
	if !almostEqual(PolygonArea(hull), 100, 1e-9) {
		t.Errorf("hull area = %v, want 100", PolygonArea(hull))
	}
}

func TestCentroidAndBoundingBox(t *testing.T) {
	c := Centroid(unitSquare)
	if !almostEqual(c.X, 50, 1e-9) || !almostEqual(c.Y, 50, 1e-9) {
		t.Errorf("centroid = %v, want (50,50)", c)
	}

	bb := BoundingBox(unitSquare)
	if bb.X != 0 || bb.Y != 0 || bb.Width != 100 || bb.Height != 100 {
		t.Errorf("bounding box = %+v", bb)
	}

	if (Centroid(nil) != Point2D{}) {
		t.Error("empty centroid should be origin")
	}
}
