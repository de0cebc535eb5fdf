package geometry

import "math"

// parallelEpsilon is the denominator threshold below which two segments are
// treated as parallel and reported as non-intersecting.
const parallelEpsilon = 1e-4

// PolygonArea computes the area of a closed polygon using the shoelace
// formula. The result is always non-negative regardless of winding order.
// Polygons with fewer than 3 points have zero area.
func PolygonArea(points []Point2D) float64 {
	if len(points) < 3 {
		return 0
	}
	area := 0.0
	for i := range points {
		j := (i + 1) % len(points)
		area += points[i].X * points[j].Y
		area -= points[j].X * points[i].Y
	}
	return math.Abs(area / 2)
}

// SignedPolygonArea computes the signed shoelace area. Positive for
// counter-clockwise rings in a Y-down coordinate system.
func SignedPolygonArea(points []Point2D) float64 {
	if len(points) < 3 {
		return 0
	}
	area := 0.0
	for i := range points {
		j := (i + 1) % len(points)
		area += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return area / 2
}

// IsClockwise reports whether the ring winds clockwise in image coordinates
// (Y axis pointing down). Degenerate rings report false.
func IsClockwise(points []Point2D) bool {
	return SignedPolygonArea(points) > 0
}

// PolygonPerimeter computes the total length of the polyline. If closed is
// true the wrap-around segment from the last point back to the first is
// included.
func PolygonPerimeter(points []Point2D, closed bool) float64 {
	if len(points) < 2 {
		return 0
	}
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Distance(points[i-1])
	}
	if closed {
		total += points[0].Distance(points[len(points)-1])
	}
	return total
}

// PointToSegment computes the minimum distance from p to the segment a-b.
// It returns the distance, the closest point on the segment, and the clamped
// projection parameter t in [0,1]. A degenerate segment (a == b) collapses to
// the point distance with t = 0.
func PointToSegment(p, a, b Point2D) (dist float64, closest Point2D, t float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y

	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Distance(a), a, 0
	}

	t = ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}

	closest = Point2D{X: a.X + t*dx, Y: a.Y + t*dy}
	return p.Distance(closest), closest, t
}

// SegmentHit describes the nearest edge of a polygon ring to a query point.
type SegmentHit struct {
	Index   int     // index of the edge's first vertex
	Dist    float64 // distance from the query point to the edge
	Closest Point2D // closest point on the edge
	T       float64 // projection parameter along the edge
}

// NearestSegment scans all edges of the ring (wrapping last to first) and
// returns the globally nearest one. Returns false if the ring has fewer than
// 2 points.
func NearestSegment(p Point2D, ring []Point2D) (SegmentHit, bool) {
	if len(ring) < 2 {
		return SegmentHit{}, false
	}

	best := SegmentHit{Index: -1, Dist: math.Inf(1)}
	for i := range ring {
		j := (i + 1) % len(ring)
		d, closest, t := PointToSegment(p, ring[i], ring[j])
		if d < best.Dist {
			best = SegmentHit{Index: i, Dist: d, Closest: closest, T: t}
		}
	}
	return best, true
}

// PointInPolygon tests if a point is inside a polygon using ray casting with
// the even-odd rule. Behavior for points exactly on an edge is unspecified
// but stable for a given input. Rings with fewer than 3 points contain
// nothing.
func PointInPolygon(p Point2D, polygon []Point2D) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	n := len(polygon)

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pi, pj := polygon[i], polygon[j]

		// Check if ray from p going right intersects edge pi-pj
		if ((pi.Y > p.Y) != (pj.Y > p.Y)) &&
			(p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X) {
			inside = !inside
		}
	}

	return inside
}

// SegmentIntersection computes the intersection of segments p1-p2 and p3-p4
// using the parametric form p1 + t*(p2-p1) = p3 + s*(p4-p3). Returns the
// intersection point and the parameters t and s, or ok=false when the
// segments are near-parallel or the intersection falls outside either
// segment.
func SegmentIntersection(p1, p2, p3, p4 Point2D) (pt Point2D, t, s float64, ok bool) {
	d1x := p2.X - p1.X
	d1y := p2.Y - p1.Y
	d2x := p4.X - p3.X
	d2y := p4.Y - p3.Y

	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < parallelEpsilon {
		return Point2D{}, 0, 0, false
	}

	t = ((p3.X-p1.X)*d2y - (p3.Y-p1.Y)*d2x) / denom
	s = ((p3.X-p1.X)*d1y - (p3.Y-p1.Y)*d1x) / denom

	if t < 0 || t > 1 || s < 0 || s > 1 {
		return Point2D{}, t, s, false
	}

	return Point2D{X: p1.X + t*d1x, Y: p1.Y + t*d1y}, t, s, true
}

// PolygonsOverlap reports whether two polygons overlap, either by vertex
// containment or by edge intersection.
func PolygonsOverlap(a, b []Point2D) bool {
	for _, p := range a {
		if PointInPolygon(p, b) {
			return true
		}
	}
	for _, p := range b {
		if PointInPolygon(p, a) {
			return true
		}
	}

	for i := range a {
		j := (i + 1) % len(a)
		for k := range b {
			l := (k + 1) % len(b)
			if _, _, _, ok := SegmentIntersection(a[i], a[j], b[k], b[l]); ok {
				return true
			}
		}
	}
	return false
}

// ConvexHull computes the convex hull of a set of points using Graham scan.
// Returns the points forming the convex hull in counter-clockwise order.
func ConvexHull(points []Point2D) []Point2D {
	if len(points) < 3 {
		return points
	}

	// Make a copy to avoid modifying the input
	pts := make([]Point2D, len(points))
	copy(pts, points)

	// Find the point with lowest y (and leftmost if tied)
	lowest := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[lowest].Y ||
			(pts[i].Y == pts[lowest].Y && pts[i].X < pts[lowest].X) {
			lowest = i
		}
	}

	pts[0], pts[lowest] = pts[lowest], pts[0]
	pivot := pts[0]

	sorted := make([]Point2D, len(pts)-1)
	copy(sorted, pts[1:])

	// Sort by polar angle with respect to pivot
	for i := 0; i < len(sorted)-1; i++ {
		for j := i + 1; j < len(sorted); j++ {
			cross := crossProduct(pivot, sorted[i], sorted[j])
			if cross < 0 || (cross == 0 && distSq(pivot, sorted[i]) > distSq(pivot, sorted[j])) {
				sorted[i], sorted[j] = sorted[j], sorted[i]
			}
		}
	}

	hull := []Point2D{pivot}
	for _, p := range sorted {
		for len(hull) > 1 && crossProduct(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	return hull
}

// crossProduct computes the cross product of vectors OA and OB.
func crossProduct(o, a, b Point2D) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// distSq computes the squared distance between two points.
func distSq(a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y
	return dx*dx + dy*dy
}
