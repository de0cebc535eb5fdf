package segmenter

import (
	"cellseg/internal/segmentation"
	"cellseg/pkg/colorutil"
	"cellseg/pkg/geometry"
)

// PostOptions controls the pure post-processing applied to raw detected
// polygons.
type PostOptions struct {
	MinArea           float64
	SimplifyTolerance float64
}

// PostProcess filters, simplifies and colors raw contour polygons. Holes
// whose parent is filtered out are dropped with it, and of two overlapping
// external outlines only the larger survives.
func PostProcess(polys []segmentation.Polygon, opts PostOptions) []segmentation.Polygon {
	// Externals are judged first so holes can check whether their parent
	// survived regardless of contour ordering.
	surviving := make(map[string]bool, len(polys))
	for _, p := range polys {
		if p.Type != segmentation.External || !p.Valid() {
			continue
		}
		if opts.MinArea > 0 && p.Area() < opts.MinArea {
			continue
		}
		surviving[p.ID] = true
	}

	kept := make([]segmentation.Polygon, 0, len(polys))
	for _, p := range polys {
		switch p.Type {
		case segmentation.External:
			if !surviving[p.ID] {
				continue
			}
		default:
			if !p.Valid() || !surviving[p.ParentID] {
				continue
			}
			if opts.MinArea > 0 && p.Area() < opts.MinArea {
				continue
			}
		}
		if opts.SimplifyTolerance > 0 {
			if out, err := segmentation.Simplify(p, opts.SimplifyTolerance); err == nil {
				p = out
			}
		}
		kept = append(kept, p)
	}

	kept = dropOverlapping(kept)

	for i := range kept {
		if kept[i].Color == "" && kept[i].Type == segmentation.External {
			kept[i].Color = colorutil.IndexHex(i)
		}
	}
	return kept
}

// dropOverlapping removes the smaller of any two overlapping external
// polygons, a duplicate-detection artifact of noisy thresholds. Holes never
// participate; they overlap their parent by construction.
func dropOverlapping(polys []segmentation.Polygon) []segmentation.Polygon {
	removed := make(map[string]bool)
	for i := 0; i < len(polys); i++ {
		if polys[i].Type != segmentation.External || removed[polys[i].ID] {
			continue
		}
		for j := i + 1; j < len(polys); j++ {
			if polys[j].Type != segmentation.External || removed[polys[j].ID] {
				continue
			}
			if !geometry.PolygonsOverlap(polys[i].Points, polys[j].Points) {
				continue
			}
			if polys[i].Area() >= polys[j].Area() {
				removed[polys[j].ID] = true
			} else {
				removed[polys[i].ID] = true
				break
			}
		}
	}

	if len(removed) == 0 {
		return polys
	}
	kept := polys[:0]
	for _, p := range polys {
		if removed[p.ID] || (p.ParentID != "" && removed[p.ParentID]) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}
