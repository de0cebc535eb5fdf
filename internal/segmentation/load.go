package segmentation

import (
	"encoding/json"
	"fmt"

	"cellseg/pkg/geometry"
)

// rawData accepts both JSON shapes a segmentation can arrive in: the polygon
// form used by this application and the legacy contour form produced by
// OpenCV-based pipelines, where hierarchy rows [next, prev, firstChild,
// parent] encode hole nesting.
type rawData struct {
	Polygons    []Polygon            `json:"polygons"`
	Contours    [][]geometry.Point2D `json:"contours"`
	Hierarchy   [][4]int             `json:"hierarchy"`
	ImageWidth  int                  `json:"image_width"`
	ImageHeight int                  `json:"image_height"`
	Metadata    Metadata             `json:"metadata"`
}

// Parse decodes segmentation JSON, normalizing the legacy contour form into
// the polygon model.
func Parse(data []byte) (*Data, error) {
	var raw rawData
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode segmentation: %w", err)
	}

	out := &Data{
		ImageWidth:  raw.ImageWidth,
		ImageHeight: raw.ImageHeight,
		Metadata:    raw.Metadata,
	}

	if len(raw.Polygons) > 0 {
		out.Polygons = make([]Polygon, len(raw.Polygons))
		for i, p := range raw.Polygons {
			if p.ID == "" {
				p.ID = fmt.Sprintf("poly-%03d", i+1)
			}
			if p.Type == "" {
				p.Type = External
			}
			out.Polygons[i] = p.Clone()
		}
		return out, nil
	}

	if len(raw.Contours) > 0 {
		polys, err := FromContours(raw.Contours, raw.Hierarchy)
		if err != nil {
			return nil, err
		}
		out.Polygons = polys
	}
	return out, nil
}

// FromContours converts OpenCV-style contours plus a hierarchy table into
// polygons. A contour whose hierarchy parent is -1 becomes an external
// polygon; anything with a parent becomes an internal polygon (hole) linked
// to its parent's ID. A missing hierarchy marks every contour external.
func FromContours(contours [][]geometry.Point2D, hierarchy [][4]int) ([]Polygon, error) {
	if len(hierarchy) > 0 && len(hierarchy) != len(contours) {
		return nil, fmt.Errorf("hierarchy rows (%d) do not match contours (%d)", len(hierarchy), len(contours))
	}

	ids := make([]string, len(contours))
	for i := range contours {
		ids[i] = fmt.Sprintf("poly-%03d", i+1)
	}

	polys := make([]Polygon, 0, len(contours))
	for i, ring := range contours {
		points := make([]geometry.Point2D, len(ring))
		copy(points, ring)

		p := Polygon{ID: ids[i], Points: points, Type: External}
		if len(hierarchy) > 0 {
			if parent := hierarchy[i][3]; parent >= 0 {
				if parent >= len(contours) {
					return nil, fmt.Errorf("contour %d references parent %d out of range", i, parent)
				}
				p.Type = Internal
				p.ParentID = ids[parent]
			}
		}
		polys = append(polys, p)
	}
	return polys, nil
}

// Encode serializes a segmentation to indented JSON in the polygon form.
func Encode(d *Data) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
