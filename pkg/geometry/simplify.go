package geometry

import "math"

// SimplifyPath reduces the number of vertices of an open polyline using the
// Douglas-Peucker algorithm. Points within epsilon perpendicular distance of
// the chord between the endpoints of each recursion span are dropped.
func SimplifyPath(path []Point2D, epsilon float64) []Point2D {
	if len(path) <= 2 {
		return path
	}

	// Find point with maximum distance from line between first and last points
	dmax := 0.0
	index := 0
	end := len(path) - 1

	for i := 1; i < end; i++ {
		d := perpendicularDistance(path[i], path[0], path[end])
		if d > dmax {
			dmax = d
			index = i
		}
	}

	if dmax > epsilon {
		left := SimplifyPath(path[:index+1], epsilon)
		right := SimplifyPath(path[index:], epsilon)

		// Build result (avoid duplicating middle point)
		result := make([]Point2D, 0, len(left)+len(right)-1)
		result = append(result, left[:len(left)-1]...)
		result = append(result, right...)
		return result
	}

	// All points between first and last are within epsilon
	return []Point2D{path[0], path[end]}
}

// SimplifyRing simplifies a closed polygon ring. The ring is split at its
// two mutually most distant vertices and each half is simplified as an open
// path, which avoids the arbitrary-anchor artifacts of running
// Douglas-Peucker directly on a closed loop. The result keeps the ring
// closed implicitly (no duplicated first/last point).
func SimplifyRing(ring []Point2D, epsilon float64) []Point2D {
	if len(ring) <= 3 {
		out := make([]Point2D, len(ring))
		copy(out, ring)
		return out
	}

	// Anchor the split at the two most distant vertices so both halves have
	// a stable, geometry-derived chord.
	a, b := farthestPair(ring)
	if a > b {
		a, b = b, a
	}

	first := ring[a : b+1]
	second := make([]Point2D, 0, len(ring)-(b-a)+1)
	second = append(second, ring[b:]...)
	second = append(second, ring[:a+1]...)

	s1 := SimplifyPath(first, epsilon)
	s2 := SimplifyPath(second, epsilon)

	// Join the halves, dropping the shared endpoints.
	result := make([]Point2D, 0, len(s1)+len(s2)-2)
	result = append(result, s1...)
	if len(s2) > 2 {
		result = append(result, s2[1:len(s2)-1]...)
	}
	return result
}

// farthestPair returns the indices of the two approximately most distant
// vertices of the ring. Exact for small rings; sampled for large ones to
// keep the scan linear-ish.
func farthestPair(ring []Point2D) (int, int) {
	step := 1
	if len(ring) > 256 {
		step = len(ring) / 256
	}

	bestA, bestB := 0, len(ring)/2
	best := -1.0
	for i := 0; i < len(ring); i += step {
		for j := i + 1; j < len(ring); j += step {
			if d := distSq(ring[i], ring[j]); d > best {
				best = d
				bestA, bestB = i, j
			}
		}
	}
	return bestA, bestB
}

// perpendicularDistance calculates the perpendicular distance from point p
// to the line through a and b.
func perpendicularDistance(p, a, b Point2D) float64 {
	dx := b.X - a.X
	dy := b.Y - a.Y

	if dx == 0 && dy == 0 {
		return p.Distance(a)
	}

	num := math.Abs(dy*p.X - dx*p.Y + b.X*a.Y - b.Y*a.X)
	den := math.Sqrt(dx*dx + dy*dy)
	return num / den
}
