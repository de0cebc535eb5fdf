// Package segmentation defines the polygon model for segmented cells and
// spheroids, the operations that edit it (slicing, simplification), and the
// metrics derived from it.
package segmentation

import (
	"fmt"
	"sync/atomic"
	"time"

	"cellseg/pkg/geometry"
)

// PolygonType distinguishes outer contours from holes.
type PolygonType string

const (
	// External marks an outer cell/spheroid contour.
	External PolygonType = "external"
	// Internal marks a hole inside an external polygon.
	Internal PolygonType = "internal"
)

// Polygon is a single closed contour. Points are image-space coordinates and
// are never shared between polygons; every edit produces a fresh slice.
type Polygon struct {
	ID       string             `json:"id"`
	Points   []geometry.Point2D `json:"points"`
	Type     PolygonType        `json:"type"`
	Color    string             `json:"color,omitempty"`
	ParentID string             `json:"parent_id,omitempty"`
}

var polygonCounter atomic.Int64

// NewPolygonID returns a unique polygon identifier.
func NewPolygonID() string {
	return fmt.Sprintf("poly-%d-%03d", time.Now().UnixNano(), polygonCounter.Add(1))
}

// Valid reports whether the polygon has enough points to be rendered.
func (p Polygon) Valid() bool {
	return len(p.Points) >= 3
}

// Area returns the polygon's shoelace area.
func (p Polygon) Area() float64 {
	return geometry.PolygonArea(p.Points)
}

// Perimeter returns the closed-ring perimeter.
func (p Polygon) Perimeter() float64 {
	return geometry.PolygonPerimeter(p.Points, true)
}

// Contains tests whether an image-space point lies inside the polygon.
func (p Polygon) Contains(pt geometry.Point2D) bool {
	return geometry.PointInPolygon(pt, p.Points)
}

// Clone returns a deep copy of the polygon.
func (p Polygon) Clone() Polygon {
	out := p
	out.Points = make([]geometry.Point2D, len(p.Points))
	copy(out.Points, p.Points)
	return out
}

// Metadata describes how a segmentation was produced.
type Metadata struct {
	Source          string    `json:"source,omitempty"` // "auto", "manual", "imported"
	Timestamp       time.Time `json:"timestamp,omitempty"`
	MicronsPerPixel float64   `json:"microns_per_pixel,omitempty"`
}

// Data is the full segmentation of one image. It is treated as an immutable
// snapshot: every edit builds a new Data rather than mutating in place, so
// history snapshots and change detection can rely on reference identity.
type Data struct {
	Polygons    []Polygon `json:"polygons"`
	ImageWidth  int       `json:"image_width"`
	ImageHeight int       `json:"image_height"`
	Metadata    Metadata  `json:"metadata"`
}

// Clone returns a deep copy of the segmentation.
func (d *Data) Clone() *Data {
	if d == nil {
		return nil
	}
	out := &Data{
		Polygons:    make([]Polygon, len(d.Polygons)),
		ImageWidth:  d.ImageWidth,
		ImageHeight: d.ImageHeight,
		Metadata:    d.Metadata,
	}
	for i, p := range d.Polygons {
		out.Polygons[i] = p.Clone()
	}
	return out
}

// Find returns the polygon with the given ID and its index.
func (d *Data) Find(id string) (Polygon, int, bool) {
	for i, p := range d.Polygons {
		if p.ID == id {
			return p, i, true
		}
	}
	return Polygon{}, -1, false
}

// SmallestContaining returns the smallest-area polygon containing the point.
// Choosing the smallest prioritizes holes and nested shapes over the
// polygons that enclose them.
func (d *Data) SmallestContaining(pt geometry.Point2D) (Polygon, bool) {
	var best Polygon
	bestArea := -1.0
	for _, p := range d.Polygons {
		if !p.Valid() || !p.Contains(pt) {
			continue
		}
		if a := p.Area(); bestArea < 0 || a < bestArea {
			best = p
			bestArea = a
		}
	}
	return best, bestArea >= 0
}

// WithPolygon returns a new Data with the polygon appended.
func (d *Data) WithPolygon(p Polygon) *Data {
	out := d.Clone()
	out.Polygons = append(out.Polygons, p)
	return out
}

// WithReplaced returns a new Data with the polygon matching id replaced by
// the given polygons (one for in-place edits, two after a split). Unknown
// ids return the clone unchanged.
func (d *Data) WithReplaced(id string, polys ...Polygon) *Data {
	out := d.Clone()
	for i, p := range out.Polygons {
		if p.ID == id {
			rest := make([]Polygon, 0, len(out.Polygons)+len(polys)-1)
			rest = append(rest, out.Polygons[:i]...)
			rest = append(rest, polys...)
			rest = append(rest, out.Polygons[i+1:]...)
			out.Polygons = rest
			break
		}
	}
	return out
}

// WithSplit returns a new Data with the polygon matching id replaced by the
// two pieces of a cut. Holes of the original polygon are dropped; the new
// outlines no longer enclose them in any well-defined way.
func (d *Data) WithSplit(id string, first, second Polygon) *Data {
	out := d.Clone()
	kept := make([]Polygon, 0, len(out.Polygons)+1)
	for _, p := range out.Polygons {
		switch {
		case p.ID == id:
			kept = append(kept, first, second)
		case p.ParentID == id:
		default:
			kept = append(kept, p)
		}
	}
	out.Polygons = kept
	return out
}

// WithRemoved returns a new Data with the polygon and any holes that
// reference it as parent removed.
func (d *Data) WithRemoved(id string) *Data {
	out := d.Clone()
	kept := out.Polygons[:0]
	for _, p := range out.Polygons {
		if p.ID == id || p.ParentID == id {
			continue
		}
		kept = append(kept, p)
	}
	out.Polygons = kept
	return out
}
