package segmentation

import (
	"errors"
	"sort"

	"cellseg/pkg/geometry"
)

// Slice validation failures. All leave the input polygon untouched and are
// meant to be shown to the user verbatim.
var (
	ErrLineTooShort         = errors.New("slice line is too short")
	ErrLineSelfIntersecting = errors.New("slice line intersects itself")
	ErrNoIntersection       = errors.New("slice line does not cross the polygon")
	ErrSingleIntersection   = errors.New("slice line must cross the polygon at least twice")
	ErrTooManyIntersections = errors.New("slice line crosses the polygon too many times")
	ErrPieceTooSmall        = errors.New("slice would produce a degenerate piece")
)

const (
	// minSliceLength is the minimum slice line length in image units.
	minSliceLength = 5.0
	// vertexEpsilon rejects intersections that coincide with a polygon
	// vertex, which would produce degenerate splits.
	vertexEpsilon = 1e-4
)

// sliceHit is one crossing of the slice line with the polygon boundary.
type sliceHit struct {
	pt    geometry.Point2D
	edge  int     // index of the crossed edge's first vertex
	edgeT float64 // position along the crossed edge
	lineT float64 // position along the slice line, used for deterministic ordering
}

// SplitIntoTwo slices the polygon along the line a-b and returns both
// resulting polygons. The first piece inherits the original's identity; the
// second gets a fresh ID. The input polygon is never modified.
func SplitIntoTwo(poly Polygon, a, b geometry.Point2D) (Polygon, Polygon, error) {
	first, second, err := splitRing(poly.Points, a, b)
	if err != nil {
		return Polygon{}, Polygon{}, err
	}

	p1 := poly.Clone()
	p1.Points = first

	p2 := poly.Clone()
	p2.ID = NewPolygonID()
	p2.Points = second

	return p1, p2, nil
}

// SliceKeepLarger slices the polygon along the line a-b and keeps only the
// piece with the higher combined perimeter-plus-area score, retaining the
// original's identity.
func SliceKeepLarger(poly Polygon, a, b geometry.Point2D) (Polygon, error) {
	first, second, err := splitRing(poly.Points, a, b)
	if err != nil {
		return Polygon{}, err
	}

	out := poly.Clone()
	if pieceScore(first) >= pieceScore(second) {
		out.Points = first
	} else {
		out.Points = second
	}
	return out, nil
}

// pieceScore ranks candidate pieces by combined perimeter and area.
func pieceScore(ring []geometry.Point2D) float64 {
	return geometry.PolygonPerimeter(ring, true) + geometry.PolygonArea(ring)
}

// splitRing validates the slice line against the ring and splits the ring
// into the two boundary paths between the crossing points. Deterministic:
// crossings are ordered by their parametric position along the slice line.
func splitRing(ring []geometry.Point2D, a, b geometry.Point2D) ([]geometry.Point2D, []geometry.Point2D, error) {
	line := []geometry.Point2D{a, b}

	if geometry.PolygonPerimeter(line, false) < minSliceLength {
		return nil, nil, ErrLineTooShort
	}
	if lineSelfIntersects(line) {
		return nil, nil, ErrLineSelfIntersecting
	}

	hits := ringCrossings(ring, a, b)
	switch len(hits) {
	case 0:
		return nil, nil, ErrNoIntersection
	case 1:
		return nil, nil, ErrSingleIntersection
	case 2:
		// proceed
	default:
		return nil, nil, ErrTooManyIntersections
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].lineT < hits[j].lineT })

	first := boundaryArc(ring, hits[0], hits[1])
	second := boundaryArc(ring, hits[1], hits[0])

	if len(first) < 3 || len(second) < 3 {
		return nil, nil, ErrPieceTooSmall
	}
	return first, second, nil
}

// ringCrossings collects intersections of the line a-b with every edge of
// the ring, skipping near-parallel edges and crossings that land on a
// vertex.
func ringCrossings(ring []geometry.Point2D, a, b geometry.Point2D) []sliceHit {
	var hits []sliceHit
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		pt, lineT, edgeT, ok := geometry.SegmentIntersection(a, b, ring[i], ring[j])
		if !ok {
			continue
		}
		if pt.Distance(ring[i]) < vertexEpsilon || pt.Distance(ring[j]) < vertexEpsilon {
			continue
		}
		hits = append(hits, sliceHit{pt: pt, edge: i, edgeT: edgeT, lineT: lineT})
	}
	return hits
}

// boundaryArc walks the ring boundary from one crossing to the other,
// inserting the crossing points as the new endpoints.
func boundaryArc(ring []geometry.Point2D, from, to sliceHit) []geometry.Point2D {
	n := len(ring)
	pts := []geometry.Point2D{from.pt}

	if from.edge == to.edge && from.edgeT <= to.edgeT {
		return append(pts, to.pt)
	}

	i := (from.edge + 1) % n
	for {
		pts = append(pts, ring[i])
		if i == to.edge {
			break
		}
		i = (i + 1) % n
	}
	return append(pts, to.pt)
}

// lineSelfIntersects checks a polyline for self-intersection between
// non-adjacent segments. Always false for the straight two-point lines the
// editor currently draws; kept for multi-point slice lines.
func lineSelfIntersects(line []geometry.Point2D) bool {
	for i := 0; i+1 < len(line); i++ {
		for j := i + 2; j+1 < len(line); j++ {
			if i == 0 && j+1 == len(line)-1 {
				continue
			}
			if _, _, _, ok := geometry.SegmentIntersection(line[i], line[i+1], line[j], line[j+1]); ok {
				return true
			}
		}
	}
	return false
}

// Simplify reduces the polygon's vertex count with a Douglas-Peucker pass at
// the given tolerance. Fails without modifying anything when the result
// would drop below 3 vertices.
func Simplify(poly Polygon, tolerance float64) (Polygon, error) {
	reduced := geometry.SimplifyRing(poly.Points, tolerance)
	if len(reduced) < 3 {
		return Polygon{}, ErrPieceTooSmall
	}
	out := poly.Clone()
	out.Points = reduced
	return out, nil
}
