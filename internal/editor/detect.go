package editor

import (
	"math"

	"cellseg/pkg/geometry"
)

const (
	// gridCellSize is the default spatial grid cell edge in image units.
	gridCellSize = 50.0
	// gridMinPoints is the ring size below which the linear scan is always
	// used; grids only pay off on large polygons.
	gridMinPoints = 50
)

// HitRadius converts a base hit radius into the effective screen-space
// radius used at the current zoom. The base/zoom midrange compensates for
// model-space tolerance shrinking as the view scales; the extreme-zoom
// overrides widen the target when pixels are huge and narrow it when the
// whole image fits in a few hundred pixels.
func HitRadius(baseRadius, zoom float64) float64 {
	switch {
	case zoom > 4:
		return baseRadius * 2
	case zoom > 3:
		return baseRadius * 1.5
	case zoom < 0.5:
		return baseRadius * 0.6
	case zoom < 0.7:
		return baseRadius * 0.8
	default:
		return baseRadius / zoom
	}
}

// IsNearVertex reports whether the screen position lies within the
// zoom-adjusted hit radius of an image-space point.
func IsNearVertex(sx, sy float64, point geometry.Point2D, baseRadius float64, t Transform) bool {
	px, py := t.ImageToScreen(point)
	dist := math.Hypot(sx-px, sy-py)
	return dist <= HitRadius(baseRadius, t.Zoom)
}

// ClosestSegment finds the polygon edge nearest to an image-space point,
// within threshold. Small rings use the exhaustive scan. Large rings use a
// uniform spatial grid over vertex positions and only evaluate edges
// touching vertices in cells near the query point; an edge whose both
// endpoints fall outside the searched cells can be missed, an accepted
// trade-off for big polygons.
func ClosestSegment(ring []geometry.Point2D, p geometry.Point2D, threshold float64, useGrid bool) (geometry.SegmentHit, bool) {
	if len(ring) < 2 {
		return geometry.SegmentHit{}, false
	}

	if !useGrid || len(ring) < gridMinPoints {
		hit, ok := geometry.NearestSegment(p, ring)
		if !ok || hit.Dist > threshold {
			return geometry.SegmentHit{}, false
		}
		return hit, true
	}

	return gridClosestSegment(ring, p, threshold, gridCellSize)
}

func gridClosestSegment(ring []geometry.Point2D, p geometry.Point2D, threshold, cellSize float64) (geometry.SegmentHit, bool) {
	type cell struct{ x, y int }

	cells := make(map[cell][]int, len(ring))
	for i, v := range ring {
		c := cell{int(math.Floor(v.X / cellSize)), int(math.Floor(v.Y / cellSize))}
		cells[c] = append(cells[c], i)
	}

	rings := int(math.Ceil(threshold * 2 / cellSize))
	center := cell{int(math.Floor(p.X / cellSize)), int(math.Floor(p.Y / cellSize))}

	// Collect candidate edges: each nearby vertex contributes the edge it
	// starts and the edge that ends at it.
	n := len(ring)
	candidates := make(map[int]struct{})
	for dx := -rings; dx <= rings; dx++ {
		for dy := -rings; dy <= rings; dy++ {
			for _, i := range cells[cell{center.x + dx, center.y + dy}] {
				candidates[i] = struct{}{}
				candidates[(i-1+n)%n] = struct{}{}
			}
		}
	}

	best := geometry.SegmentHit{Index: -1, Dist: math.Inf(1)}
	for i := range candidates {
		j := (i + 1) % n
		d, closest, t := geometry.PointToSegment(p, ring[i], ring[j])
		if d < best.Dist || (d == best.Dist && i < best.Index) {
			best = geometry.SegmentHit{Index: i, Dist: d, Closest: closest, T: t}
		}
	}

	if best.Index < 0 || best.Dist > threshold {
		return geometry.SegmentHit{}, false
	}
	return best, true
}
