package segmentation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"cellseg/pkg/geometry"
)

// PolygonMetrics holds the shape descriptors computed for one external
// polygon. Lengths are in pixels unless a microns-per-pixel calibration is
// applied, in which case they are in micrometers (areas in µm²).
type PolygonMetrics struct {
	ID                 string  `json:"id"`
	Area               float64 `json:"area"` // net of holes
	Perimeter          float64 `json:"perimeter"`
	Circularity        float64 `json:"circularity"` // 4πA/P², 1.0 for a circle
	EquivalentDiameter float64 `json:"equivalent_diameter"`
	FeretMax           float64 `json:"feret_max"`
	FeretMin           float64 `json:"feret_min"`
	AspectRatio        float64 `json:"aspect_ratio"`
	Compactness        float64 `json:"compactness"`
	HoleCount          int     `json:"hole_count"`
}

// Summary aggregates metrics across all external polygons in an image.
type Summary struct {
	Count      int     `json:"count"`
	TotalArea  float64 `json:"total_area"`
	MeanArea   float64 `json:"mean_area"`
	MedianArea float64 `json:"median_area"`
	StdDevArea float64 `json:"stddev_area"`
	MeanCirc   float64 `json:"mean_circularity"`
}

// ComputeMetrics derives shape descriptors for every external polygon in the
// segmentation. Hole areas are subtracted from their parent. A positive
// micronsPerPixel converts lengths to µm and areas to µm².
func ComputeMetrics(d *Data, micronsPerPixel float64) []PolygonMetrics {
	scale := micronsPerPixel
	if scale <= 0 {
		scale = 1
	}

	holeArea := make(map[string]float64)
	holeCount := make(map[string]int)
	for _, p := range d.Polygons {
		if p.Type == Internal && p.ParentID != "" {
			holeArea[p.ParentID] += p.Area()
			holeCount[p.ParentID]++
		}
	}

	var out []PolygonMetrics
	for _, p := range d.Polygons {
		if p.Type != External || !p.Valid() {
			continue
		}

		area := p.Area() - holeArea[p.ID]
		if area < 0 {
			area = 0
		}
		perimeter := p.Perimeter()

		m := PolygonMetrics{
			ID:        p.ID,
			Area:      area * scale * scale,
			Perimeter: perimeter * scale,
			HoleCount: holeCount[p.ID],
		}
		if perimeter > 0 {
			m.Circularity = 4 * math.Pi * area / (perimeter * perimeter)
			m.Compactness = perimeter * perimeter / area
		}
		m.EquivalentDiameter = 2 * math.Sqrt(area/math.Pi) * scale

		fMax, fMin := feretDiameters(p.Points)
		m.FeretMax = fMax * scale
		m.FeretMin = fMin * scale
		if fMin > 0 {
			m.AspectRatio = fMax / fMin
		}

		out = append(out, m)
	}
	return out
}

// Summarize aggregates per-polygon metrics using gonum's statistics.
func Summarize(metrics []PolygonMetrics) Summary {
	s := Summary{Count: len(metrics)}
	if len(metrics) == 0 {
		return s
	}

	areas := make([]float64, len(metrics))
	circs := make([]float64, len(metrics))
	for i, m := range metrics {
		areas[i] = m.Area
		circs[i] = m.Circularity
		s.TotalArea += m.Area
	}

	s.MeanArea = stat.Mean(areas, nil)
	s.MeanCirc = stat.Mean(circs, nil)
	if len(areas) > 1 {
		s.StdDevArea = stat.StdDev(areas, nil)
	}

	sorted := make([]float64, len(areas))
	copy(sorted, areas)
	sort.Float64s(sorted)
	s.MedianArea = stat.Quantile(0.5, stat.Empirical, sorted, nil)

	return s
}

// feretDiameters computes the maximum and minimum caliper diameters over the
// polygon's convex hull. The maximum is the largest pairwise hull distance;
// the minimum is the smallest projection width across hull edge directions.
func feretDiameters(ring []geometry.Point2D) (max, min float64) {
	hull := geometry.ConvexHull(ring)
	if len(hull) < 2 {
		return 0, 0
	}

	for i := 0; i < len(hull); i++ {
		for j := i + 1; j < len(hull); j++ {
			if d := hull[i].Distance(hull[j]); d > max {
				max = d
			}
		}
	}

	min = math.Inf(1)
	for i := range hull {
		j := (i + 1) % len(hull)
		ex := hull[j].X - hull[i].X
		ey := hull[j].Y - hull[i].Y
		l := math.Hypot(ex, ey)
		if l == 0 {
			continue
		}
		// Width of the hull projected onto this edge's normal.
		nx, ny := -ey/l, ex/l
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			proj := p.X*nx + p.Y*ny
			if proj < lo {
				lo = proj
			}
			if proj > hi {
				hi = proj
			}
		}
		if w := hi - lo; w < min {
			min = w
		}
	}
	if math.IsInf(min, 1) {
		min = 0
	}
	return max, min
}
