package editor

import (
	"math"
	"strings"
	"testing"

	"cellseg/internal/segmentation"
	"cellseg/pkg/geometry"
)

func squareData() *segmentation.Data {
	return &segmentation.Data{
		ImageWidth:  200,
		ImageHeight: 200,
		Polygons: []segmentation.Polygon{{
			ID:   "sq",
			Type: segmentation.External,
			Points: []geometry.Point2D{
				{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
			},
		}},
	}
}

func TestCreateDragUndoRedo(t *testing.T) {
	e := New(nil, Config{})

	e.TransitionTo(ModeCreatePolygon)
	e.MouseDown(100, 100)
	e.MouseDown(300, 100)
	e.MouseDown(200, 250)
	if got := len(e.Draft()); got != 3 {
		t.Fatalf("draft has %d points, want 3", got)
	}

	// Clicking near the first point closes the outline.
	e.MouseDown(102, 98)
	if got := len(e.Data().Polygons); got != 1 {
		t.Fatalf("after closing: %d polygons, want 1", got)
	}
	if e.Mode() != ModeEditVertices {
		t.Fatalf("after closing: mode %v, want %v", e.Mode(), ModeEditVertices)
	}
	if e.SelectedID() == "" {
		t.Fatal("new polygon should be selected")
	}
	if !e.CanUndo() {
		t.Fatal("creation should be undoable")
	}

	// Drag the first vertex; intermediate motion stays out of history.
	e.MouseDown(100, 100)
	e.MouseMove(95, 95)
	e.MouseMove(90, 90)
	if id, preview := e.DragPreview(); id == "" || preview[0].X != 90 {
		t.Fatalf("drag preview id=%q first point %+v", id, preview)
	}
	e.MouseUp(90, 90)

	got := e.Data().Polygons[0].Points[0]
	if got.X != 90 || got.Y != 90 {
		t.Fatalf("dragged vertex at %+v, want (90, 90)", got)
	}

	if !e.Undo() {
		t.Fatal("undo of drag failed")
	}
	got = e.Data().Polygons[0].Points[0]
	if got.X != 100 || got.Y != 100 {
		t.Fatalf("after undo vertex at %+v, want (100, 100)", got)
	}

	if !e.Undo() {
		t.Fatal("undo of creation failed")
	}
	if len(e.Data().Polygons) != 0 {
		t.Fatal("after second undo the polygon should be gone")
	}
	if e.Undo() {
		t.Fatal("undo past the floor succeeded")
	}

	if !e.Redo() {
		t.Fatal("redo failed")
	}
	if len(e.Data().Polygons) != 1 {
		t.Fatal("redo did not restore the polygon")
	}
}

func TestDragWithoutMotionCommitsNothing(t *testing.T) {
	e := New(squareData(), Config{})
	e.MouseDown(50, 50) // select via view mode
	e.MouseDown(0, 0)   // grab vertex 0
	e.MouseUp(0, 0)
	if e.CanUndo() {
		t.Error("press-release without motion pushed a history entry")
	}
}

func TestEdgeClickInsertsVertex(t *testing.T) {
	e := New(squareData(), Config{})
	e.MouseDown(50, 50)
	if e.Mode() != ModeEditVertices || e.SelectedID() != "sq" {
		t.Fatalf("selection failed: mode %v selected %q", e.Mode(), e.SelectedID())
	}

	e.MouseDown(50, 2) // near the top edge, far from any vertex
	pts := e.Data().Polygons[0].Points
	if len(pts) != 5 {
		t.Fatalf("polygon has %d points after edge click, want 5", len(pts))
	}
	if pts[1].X != 50 || pts[1].Y != 0 {
		t.Errorf("inserted vertex at %+v, want (50, 0)", pts[1])
	}
}

func TestEmptyClickDeselects(t *testing.T) {
	e := New(squareData(), Config{})
	e.MouseDown(50, 50)
	e.MouseDown(500, 500)
	if e.SelectedID() != "" || e.Mode() != ModeView {
		t.Errorf("empty click left selected=%q mode=%v", e.SelectedID(), e.Mode())
	}
}

func TestDeletePolygonMode(t *testing.T) {
	e := New(squareData(), Config{})
	e.TransitionTo(ModeDeletePolygon)
	e.MouseDown(50, 50)
	if len(e.Data().Polygons) != 0 {
		t.Fatal("click did not delete the polygon")
	}
	if !e.Undo() {
		t.Fatal("deletion should be undoable")
	}
	if len(e.Data().Polygons) != 1 {
		t.Fatal("undo did not restore the polygon")
	}
}

func TestSliceMode(t *testing.T) {
	e := New(squareData(), Config{})
	e.TransitionTo(ModeSlice)

	e.MouseDown(50, 50) // selects
	if e.SelectedID() != "sq" {
		t.Fatalf("slice click selected %q", e.SelectedID())
	}
	e.MouseDown(50, -10)
	if _, ok := e.SliceStart(); !ok {
		t.Fatal("first endpoint not recorded")
	}
	e.MouseDown(50, 110)

	d := e.Data()
	if len(d.Polygons) != 2 {
		t.Fatalf("after slice: %d polygons, want 2", len(d.Polygons))
	}
	for _, p := range d.Polygons {
		if a := p.Area(); math.Abs(a-5000) > 1e-6 {
			t.Errorf("piece %s area %v, want 5000", p.ID, a)
		}
	}
	if e.Mode() != ModeView || e.SelectedID() != "" {
		t.Errorf("after slice: mode %v selected %q", e.Mode(), e.SelectedID())
	}
}

func TestSliceDropsHolesOfPolygon(t *testing.T) {
	d := squareData()
	d.Polygons = append(d.Polygons, segmentation.Polygon{
		ID: "hole", Type: segmentation.Internal, ParentID: "sq",
		Points: []geometry.Point2D{
			{X: 60, Y: 40}, {X: 80, Y: 40}, {X: 80, Y: 60}, {X: 60, Y: 60},
		},
	})
	e := New(d, Config{})
	e.TransitionTo(ModeSlice)

	e.MouseDown(50, 50)
	e.MouseDown(50, -10)
	e.MouseDown(50, 110)

	got := e.Data()
	if len(got.Polygons) != 2 {
		t.Fatalf("after slice: %d polygons, want 2", len(got.Polygons))
	}
	for _, p := range got.Polygons {
		if p.Type == segmentation.Internal {
			t.Errorf("hole %s survived the slice", p.ID)
		}
	}
	// The hole was inside the right piece; neither piece may carry its
	// area deficit once it is gone.
	for _, m := range segmentation.ComputeMetrics(got, 0) {
		if math.Abs(m.Area-5000) > 1e-6 {
			t.Errorf("piece %s area %v, want 5000", m.ID, m.Area)
		}
	}
}

func TestSliceErrorReportsAndKeepsPolygon(t *testing.T) {
	var status string
	e := New(squareData(), Config{})
	e.OnStatus(func(s string) { status = s })
	e.TransitionTo(ModeSlice)

	e.MouseDown(50, 50)
	e.MouseDown(200, -10) // line entirely beside the square
	e.MouseDown(200, 110)

	if len(e.Data().Polygons) != 1 {
		t.Fatal("failed slice modified the data")
	}
	if e.CanUndo() {
		t.Error("failed slice pushed a history entry")
	}
	if !strings.Contains(status, "slice failed") {
		t.Errorf("status %q does not report the failure", status)
	}
	if e.Mode() != ModeSlice {
		t.Errorf("mode %v after failure, want %v", e.Mode(), ModeSlice)
	}
}

func TestAddPointsReplacesArc(t *testing.T) {
	e := New(squareData(), Config{})
	e.TransitionTo(ModeAddPoints)

	e.MouseDown(50, 50)  // selects
	e.MouseDown(0, 0)    // anchor at vertex 0
	e.MouseDown(50, -40) // drawn bump above the top edge
	e.MouseDown(100, 0)  // finish at vertex 1

	d := e.Data()
	if len(d.Polygons) != 1 {
		t.Fatalf("%d polygons after arc replacement, want 1", len(d.Polygons))
	}
	pts := d.Polygons[0].Points
	if len(pts) != 5 {
		t.Fatalf("polygon has %d points, want 5", len(pts))
	}
	// The long way around keeps the square and adds the bump.
	if a := geometry.PolygonArea(pts); math.Abs(a-12000) > 1e-6 {
		t.Errorf("area %v, want 12000", a)
	}
}

func TestSecondaryDeletesVertex(t *testing.T) {
	e := New(squareData(), Config{})
	e.MouseDown(50, 50)
	e.SecondaryDown(0, 0)
	if got := len(e.Data().Polygons[0].Points); got != 3 {
		t.Fatalf("polygon has %d points, want 3", got)
	}

	// The minimum ring size is protected.
	e.SecondaryDown(100, 0)
	if got := len(e.Data().Polygons[0].Points); got != 3 {
		t.Errorf("deletion below 3 points went through, %d left", got)
	}
}

func TestSecondaryCancelsDraft(t *testing.T) {
	e := New(nil, Config{})
	e.TransitionTo(ModeCreatePolygon)
	e.MouseDown(10, 10)
	e.MouseDown(20, 10)
	e.SecondaryDown(400, 400)
	if e.Mode() != ModeView {
		t.Errorf("mode %v after cancel, want %v", e.Mode(), ModeView)
	}
	if len(e.Draft()) != 0 {
		t.Error("cancel kept the draft outline")
	}
}

func TestShiftAutoPoints(t *testing.T) {
	e := New(nil, Config{})
	e.TransitionTo(ModeCreatePolygon)
	e.MouseDown(0, 0)
	e.SetShift(true)

	e.MouseMove(10, 0) // closer than the spacing, skipped
	if got := len(e.Draft()); got != 1 {
		t.Fatalf("draft has %d points, want 1", got)
	}
	e.MouseMove(25, 0)
	e.MouseMove(30, 0) // again too close to the last drop
	e.MouseMove(50, 0)
	if got := len(e.Draft()); got != 3 {
		t.Errorf("draft has %d points, want 3", got)
	}
}

func TestSimplifySelected(t *testing.T) {
	d := &segmentation.Data{Polygons: []segmentation.Polygon{{
		ID:   "sq",
		Type: segmentation.External,
		Points: []geometry.Point2D{
			{X: 0, Y: 0}, {X: 25, Y: 0.2}, {X: 50, Y: 0}, {X: 75, Y: 0.1},
			{X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
		},
	}}}
	e := New(d, Config{SimplifyTolerance: 1})
	e.MouseDown(50, 50)
	if err := e.SimplifySelected(); err != nil {
		t.Fatal(err)
	}
	if got := len(e.Data().Polygons[0].Points); got >= 7 {
		t.Errorf("simplification kept %d points", got)
	}
}

func TestWheelZoomsAroundCursor(t *testing.T) {
	e := New(nil, Config{})
	before := e.Transform().ScreenToImage(200, 200)
	e.Wheel(200, 200, 1)
	if e.Transform().Zoom <= 1 {
		t.Fatalf("zoom %v after wheel in", e.Transform().Zoom)
	}
	after := e.Transform().ScreenToImage(200, 200)
	if !almostEqual(before.X, after.X) || !almostEqual(before.Y, after.Y) {
		t.Errorf("cursor anchor moved from %+v to %+v", before, after)
	}
}

func TestResetDiscardsHistoryAndSelection(t *testing.T) {
	e := New(squareData(), Config{})
	e.MouseDown(50, 50)
	e.DeleteSelected()
	if !e.CanUndo() {
		t.Fatal("expected undo history before reset")
	}

	fresh := squareData()
	e.Reset(fresh)

	if e.CanUndo() || e.CanRedo() {
		t.Error("history survived reset")
	}
	if e.Mode() != ModeView {
		t.Errorf("mode = %v after reset", e.Mode())
	}
	if e.SelectedID() != "" {
		t.Errorf("selection %q survived reset", e.SelectedID())
	}
	if len(e.Data().Polygons) != 1 {
		t.Fatalf("got %d polygons after reset", len(e.Data().Polygons))
	}
	// The editor must own its copy of the new data.
	fresh.Polygons[0].Points[0].X = 999
	if e.Data().Polygons[0].Points[0].X == 999 {
		t.Error("reset shared the caller's point slice")
	}
}

func TestSelectByID(t *testing.T) {
	e := New(squareData(), Config{})

	e.Select("sq")
	if e.SelectedID() != "sq" {
		t.Errorf("selected %q", e.SelectedID())
	}

	e.Select("missing")
	if e.SelectedID() != "" {
		t.Errorf("unknown id left selection %q", e.SelectedID())
	}
}
