package segmenter

import (
	"testing"

	"cellseg/internal/segmentation"
	"cellseg/pkg/geometry"
)

func square(id string, x, y, size float64) segmentation.Polygon {
	return segmentation.Polygon{
		ID:   id,
		Type: segmentation.External,
		Points: []geometry.Point2D{
			{X: x, Y: y}, {X: x + size, Y: y},
			{X: x + size, Y: y + size}, {X: x, Y: y + size},
		},
	}
}

func TestPostProcessMinArea(t *testing.T) {
	polys := []segmentation.Polygon{
		square("big", 0, 0, 100),
		square("small", 200, 200, 5),
	}
	out := PostProcess(polys, PostOptions{MinArea: 100})
	if len(out) != 1 || out[0].ID != "big" {
		t.Fatalf("got %d polygons, want only big", len(out))
	}
}

func TestPostProcessDropsOrphanHoles(t *testing.T) {
	parent := square("parent", 200, 200, 8) // below min area
	hole := square("hole", 202, 202, 4)
	hole.Type = segmentation.Internal
	hole.ParentID = "parent"

	out := PostProcess([]segmentation.Polygon{parent, hole}, PostOptions{MinArea: 100})
	if len(out) != 0 {
		t.Fatalf("orphan hole survived: %d polygons", len(out))
	}
}

func TestPostProcessHoleBeforeParent(t *testing.T) {
	parent := square("parent", 0, 0, 100)
	hole := square("hole", 20, 20, 20)
	hole.Type = segmentation.Internal
	hole.ParentID = "parent"

	// Contour order puts the hole first; it must still find its parent.
	out := PostProcess([]segmentation.Polygon{hole, parent}, PostOptions{MinArea: 100})
	if len(out) != 2 {
		t.Fatalf("got %d polygons, want 2", len(out))
	}
}

func TestPostProcessDropsSmallerOverlap(t *testing.T) {
	polys := []segmentation.Polygon{
		square("big", 0, 0, 100),
		square("dup", 10, 10, 40), // nested inside big
		square("separate", 300, 0, 50),
	}
	out := PostProcess(polys, PostOptions{})
	ids := map[string]bool{}
	for _, p := range out {
		ids[p.ID] = true
	}
	if !ids["big"] || !ids["separate"] || ids["dup"] {
		t.Fatalf("kept %v, want big and separate only", ids)
	}
}

func TestPostProcessAssignsColors(t *testing.T) {
	out := PostProcess([]segmentation.Polygon{
		square("a", 0, 0, 50),
		square("b", 100, 0, 50),
	}, PostOptions{})
	if len(out) != 2 {
		t.Fatal("expected both polygons kept")
	}
	if out[0].Color == "" || out[1].Color == "" {
		t.Error("external polygons should get colors")
	}
	if out[0].Color == out[1].Color {
		t.Error("adjacent polygons share a color")
	}
}

func TestPostProcessSimplifies(t *testing.T) {
	// A square with redundant collinear midpoints on each edge.
	ring := []geometry.Point2D{
		{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 100, Y: 0},
		{X: 100, Y: 50}, {X: 100, Y: 100},
		{X: 50, Y: 100}, {X: 0, Y: 100}, {X: 0, Y: 50},
	}
	polys := []segmentation.Polygon{{ID: "sq", Type: segmentation.External, Points: ring}}
	out := PostProcess(polys, PostOptions{SimplifyTolerance: 1})
	if len(out) != 1 {
		t.Fatal("polygon dropped")
	}
	if got := len(out[0].Points); got >= 8 {
		t.Errorf("simplification kept %d points", got)
	}
}
