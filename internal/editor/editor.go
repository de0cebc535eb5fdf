package editor

import (
	"errors"
	"fmt"

	"cellseg/internal/segmentation"
	"cellseg/pkg/geometry"
)

// Config holds the interaction tolerances of an editing session. All
// distances are screen pixels at zoom 1 unless noted; hit tests rescale them
// through HitRadius.
type Config struct {
	// VertexHitRadius is the base radius for grabbing a vertex.
	VertexHitRadius float64
	// CloseDistance is how near a click must be to the first draft point
	// to close a new polygon.
	CloseDistance float64
	// EdgeHitThreshold is the base distance for edge clicks that insert a
	// vertex.
	EdgeHitThreshold float64
	// AutoPointSpacing is the image-space gap between points dropped while
	// drawing with the modifier held.
	AutoPointSpacing float64
	// SimplifyTolerance is the decimation tolerance for SimplifySelected.
	SimplifyTolerance float64
}

// DefaultConfig returns the tolerances used by the application UI.
func DefaultConfig() Config {
	return Config{
		VertexHitRadius:   10,
		CloseDistance:     15,
		EdgeHitThreshold:  8,
		AutoPointSpacing:  20,
		SimplifyTolerance: 2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VertexHitRadius <= 0 {
		c.VertexHitRadius = d.VertexHitRadius
	}
	if c.CloseDistance <= 0 {
		c.CloseDistance = d.CloseDistance
	}
	if c.EdgeHitThreshold <= 0 {
		c.EdgeHitThreshold = d.EdgeHitThreshold
	}
	if c.AutoPointSpacing <= 0 {
		c.AutoPointSpacing = d.AutoPointSpacing
	}
	if c.SimplifyTolerance <= 0 {
		c.SimplifyTolerance = d.SimplifyTolerance
	}
	return c
}

// dragState tracks an in-progress vertex drag. The preview ring lives
// outside the committed data so intermediate positions never enter history.
type dragState struct {
	active  bool
	polyID  string
	vertex  int
	preview []geometry.Point2D
	origin  geometry.Point2D
	moved   bool
}

// addState tracks the two-phase run of an arc replacement: anchored at a
// start vertex, accumulating drawn points until a second vertex closes it.
type addState struct {
	active bool
	start  int
	points []geometry.Point2D
}

// Editor owns one editing session: the current segmentation snapshot, the
// view transform, the active mode and its transient state, and the undo
// history. It is not safe for concurrent use; the UI drives it from the
// event goroutine.
type Editor struct {
	cfg       Config
	data      *segmentation.Data
	history   *History
	transform Transform
	mode      Mode

	selectedID string
	draft      []geometry.Point2D
	drag       dragState
	add        addState
	sliceStart *geometry.Point2D
	shift      bool

	onChange func(*segmentation.Data)
	onStatus func(string)
}

// New creates an editor over the given segmentation. The initial snapshot
// becomes the undo floor.
func New(data *segmentation.Data, cfg Config) *Editor {
	if data == nil {
		data = &segmentation.Data{}
	}
	d := data.Clone()
	return &Editor{
		cfg:       cfg.withDefaults(),
		data:      d,
		history:   NewHistory(d),
		transform: NewTransform(),
		mode:      ModeView,
	}
}

// Reset replaces the segmentation wholesale, discarding history and any
// in-progress interaction. Used when a new image or auto-segmentation
// result arrives; the view transform is kept.
func (e *Editor) Reset(data *segmentation.Data) {
	if data == nil {
		data = &segmentation.Data{}
	}
	d := data.Clone()
	e.data = d
	e.history = NewHistory(d)
	e.selectedID = ""
	e.draft = nil
	e.drag = dragState{}
	e.add = addState{}
	e.sliceStart = nil
	e.mode = ModeView
}

// OnChange registers the callback fired whenever the committed segmentation
// changes (edits, undo, redo).
func (e *Editor) OnChange(fn func(*segmentation.Data)) { e.onChange = fn }

// OnStatus registers the callback for user-facing status messages.
func (e *Editor) OnStatus(fn func(string)) { e.onStatus = fn }

// Data returns the current committed segmentation. Callers must treat it as
// immutable.
func (e *Editor) Data() *segmentation.Data { return e.data }

// Mode returns the active edit mode.
func (e *Editor) Mode() Mode { return e.mode }

// SelectedID returns the selected polygon's id, or "".
func (e *Editor) SelectedID() string { return e.selectedID }

// Select sets the selected polygon directly, for selection driven from
// outside the canvas (a list panel). Unknown ids clear the selection.
func (e *Editor) Select(id string) {
	if _, _, ok := e.data.Find(id); ok {
		e.selectedID = id
	} else {
		e.selectedID = ""
	}
}

// Transform returns the current view transform.
func (e *Editor) Transform() Transform { return e.transform }

// SetTransform replaces the view transform, clamping zoom.
func (e *Editor) SetTransform(t Transform) {
	e.transform = t.WithZoom(t.Zoom)
}

// Draft returns a copy of the in-progress polygon outline, and the pending
// drawn run in add-points mode.
func (e *Editor) Draft() []geometry.Point2D {
	src := e.draft
	if e.mode == ModeAddPoints {
		src = e.add.points
	}
	out := make([]geometry.Point2D, len(src))
	copy(out, src)
	return out
}

// DragPreview returns the live ring of the polygon being dragged, or nil
// when no drag is in progress.
func (e *Editor) DragPreview() (string, []geometry.Point2D) {
	if !e.drag.active {
		return "", nil
	}
	out := make([]geometry.Point2D, len(e.drag.preview))
	copy(out, e.drag.preview)
	return e.drag.polyID, out
}

// SliceStart returns the first slice endpoint if one has been placed.
func (e *Editor) SliceStart() (geometry.Point2D, bool) {
	if e.sliceStart == nil {
		return geometry.Point2D{}, false
	}
	return *e.sliceStart, true
}

// SetShift records whether the auto-point modifier is held.
func (e *Editor) SetShift(down bool) { e.shift = down }

// Wheel zooms around the cursor position. Positive delta zooms in.
func (e *Editor) Wheel(sx, sy, delta float64) {
	if delta > 0 {
		e.transform = e.transform.ZoomIn(sx, sy)
	} else if delta < 0 {
		e.transform = e.transform.ZoomOut(sx, sy)
	}
}

// Pan shifts the view by a screen-space delta.
func (e *Editor) Pan(dx, dy float64) {
	e.transform = e.transform.Pan(dx, dy)
}

// TransitionTo switches modes, discarding all transient state of the old
// mode. Selection survives the switch; modes that need one will reselect on
// the next click if it is empty.
func (e *Editor) TransitionTo(m Mode) {
	e.draft = nil
	e.drag = dragState{}
	e.add = addState{}
	e.sliceStart = nil
	e.mode = m
	e.status("mode: %s", m)
}

// Cancel aborts whatever the current mode has in flight and returns to view
// mode. Bound to Escape and right-click in empty space.
func (e *Editor) Cancel() {
	e.TransitionTo(ModeView)
}

// MouseDown handles a primary button press at screen position (sx, sy).
func (e *Editor) MouseDown(sx, sy float64) {
	p := e.transform.ScreenToImage(sx, sy)

	switch e.mode {
	case ModeView:
		if poly, ok := e.data.SmallestContaining(p); ok {
			e.selectedID = poly.ID
			e.mode = ModeEditVertices
			e.status("editing %s", poly.ID)
		}

	case ModeCreatePolygon:
		e.createClick(sx, sy, p)

	case ModeEditVertices:
		e.editClick(sx, sy, p)

	case ModeAddPoints:
		e.addClick(sx, sy, p)

	case ModeSlice:
		e.sliceClick(p)

	case ModeDeletePolygon:
		if poly, ok := e.data.SmallestContaining(p); ok {
			if e.selectedID == poly.ID {
				e.selectedID = ""
			}
			e.commit(e.data.WithRemoved(poly.ID))
			e.status("deleted %s", poly.ID)
		}
	}
}

// MouseMove handles pointer motion. During a vertex drag the preview ring
// follows the pointer without touching committed data; while drawing with
// the modifier held, points drop automatically at AutoPointSpacing.
func (e *Editor) MouseMove(sx, sy float64) {
	p := e.transform.ScreenToImage(sx, sy)

	if e.drag.active {
		e.drag.preview[e.drag.vertex] = p
		if p.Distance(e.drag.origin) > 0 {
			e.drag.moved = true
		}
		return
	}

	if e.shift {
		switch e.mode {
		case ModeCreatePolygon:
			e.draft = appendSpaced(e.draft, p, e.cfg.AutoPointSpacing)
		case ModeAddPoints:
			if e.add.active {
				e.add.points = appendSpaced(e.add.points, p, e.cfg.AutoPointSpacing)
			}
		}
	}
}

// MouseUp ends a vertex drag, committing the preview ring as one history
// entry. A press-release with no motion commits nothing.
func (e *Editor) MouseUp(sx, sy float64) {
	if !e.drag.active {
		return
	}
	drag := e.drag
	e.drag = dragState{}
	if !drag.moved {
		return
	}
	poly, _, ok := e.data.Find(drag.polyID)
	if !ok {
		return
	}
	poly.Points = drag.preview
	e.commit(e.data.WithReplaced(drag.polyID, poly))
}

// SecondaryDown handles a right click. In vertex editing it deletes the
// vertex under the cursor; everywhere else it cancels back to view mode.
func (e *Editor) SecondaryDown(sx, sy float64) {
	if e.mode == ModeEditVertices && e.selectedID != "" {
		if poly, _, ok := e.data.Find(e.selectedID); ok {
			if i, ok := e.vertexAt(poly, sx, sy); ok {
				e.deleteVertex(poly, i)
				return
			}
		}
	}
	e.Cancel()
}

// Undo steps the segmentation back one snapshot.
func (e *Editor) Undo() bool {
	d, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(d)
	return true
}

// Redo steps the segmentation forward one snapshot.
func (e *Editor) Redo() bool {
	d, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(d)
	return true
}

// CanUndo and CanRedo report history availability for menu enablement.
func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

// SimplifySelected decimates the selected polygon's outline.
func (e *Editor) SimplifySelected() error {
	poly, _, ok := e.data.Find(e.selectedID)
	if !ok {
		return errors.New("no polygon selected")
	}
	before := len(poly.Points)
	out, err := segmentation.Simplify(poly, e.cfg.SimplifyTolerance)
	if err != nil {
		return err
	}
	e.commit(e.data.WithReplaced(poly.ID, out))
	e.status("simplified %s: %d -> %d points", poly.ID, before, len(out.Points))
	return nil
}

// DeleteSelected removes the selected polygon and its holes.
func (e *Editor) DeleteSelected() {
	if e.selectedID == "" {
		return
	}
	id := e.selectedID
	e.selectedID = ""
	e.commit(e.data.WithRemoved(id))
	e.status("deleted %s", id)
}

// createClick grows the draft outline, closing it into a committed polygon
// when the click lands back on the first point.
func (e *Editor) createClick(sx, sy float64, p geometry.Point2D) {
	if len(e.draft) >= 3 && IsNearVertex(sx, sy, e.draft[0], e.cfg.CloseDistance, e.transform) {
		poly := segmentation.Polygon{
			ID:     segmentation.NewPolygonID(),
			Points: e.draft,
			Type:   segmentation.External,
		}
		e.draft = nil
		e.selectedID = poly.ID
		e.commit(e.data.WithPolygon(poly))
		e.mode = ModeEditVertices
		e.status("created %s (%d points)", poly.ID, len(poly.Points))
		return
	}
	e.draft = append(e.draft, p)
}

// editClick resolves a click in vertex-edit mode: grab a vertex, insert a
// vertex on an edge, reselect another polygon, or deselect on empty space.
func (e *Editor) editClick(sx, sy float64, p geometry.Point2D) {
	poly, _, ok := e.data.Find(e.selectedID)
	if ok {
		if i, hit := e.vertexAt(poly, sx, sy); hit {
			e.drag = dragState{
				active:  true,
				polyID:  poly.ID,
				vertex:  i,
				preview: append([]geometry.Point2D(nil), poly.Points...),
				origin:  poly.Points[i],
			}
			return
		}
		threshold := HitRadius(e.cfg.EdgeHitThreshold, e.transform.Zoom) / e.transform.Zoom
		if hit, found := ClosestSegment(poly.Points, p, threshold, true); found {
			e.insertVertex(poly, hit.Index+1, hit.Closest)
			return
		}
	}

	if other, found := e.data.SmallestContaining(p); found {
		e.selectedID = other.ID
		e.status("editing %s", other.ID)
		return
	}

	e.selectedID = ""
	e.mode = ModeView
}

// addClick runs the two-phase arc replacement: first click anchors a start
// vertex, later clicks collect points, a click on another vertex of the
// same polygon closes the run and swaps it in for one boundary arc.
func (e *Editor) addClick(sx, sy float64, p geometry.Point2D) {
	poly, _, ok := e.data.Find(e.selectedID)
	if !ok {
		if other, found := e.data.SmallestContaining(p); found {
			e.selectedID = other.ID
			e.status("add points to %s: click a start vertex", other.ID)
		}
		return
	}

	i, hit := e.vertexAt(poly, sx, sy)
	if !e.add.active {
		if hit {
			e.add = addState{active: true, start: i}
			e.status("drawing from vertex %d; click another vertex to finish", i)
		}
		return
	}

	if hit && i != e.add.start {
		ring := replaceArc(poly.Points, e.add.start, i, e.add.points)
		e.add = addState{}
		if len(ring) < 3 {
			e.status("replacement would degenerate the polygon")
			return
		}
		poly.Points = ring
		e.commit(e.data.WithReplaced(poly.ID, poly))
		e.status("replaced boundary arc of %s", poly.ID)
		return
	}

	e.add.points = append(e.add.points, p)
}

// sliceClick selects a polygon if none is selected, then takes the two
// endpoints of the cut line and splits the polygon.
func (e *Editor) sliceClick(p geometry.Point2D) {
	if e.selectedID == "" {
		if poly, ok := e.data.SmallestContaining(p); ok {
			e.selectedID = poly.ID
			e.status("slicing %s: click the first endpoint", poly.ID)
		}
		return
	}

	if e.sliceStart == nil {
		start := p
		e.sliceStart = &start
		return
	}

	a := *e.sliceStart
	e.sliceStart = nil
	poly, _, ok := e.data.Find(e.selectedID)
	if !ok {
		e.selectedID = ""
		return
	}

	first, second, err := segmentation.SplitIntoTwo(poly, a, p)
	if err != nil {
		e.status("slice failed: %v", err)
		return
	}
	e.commit(e.data.WithSplit(poly.ID, first, second))
	e.selectedID = ""
	e.mode = ModeView
	e.status("split %s into %s and %s", poly.ID, first.ID, second.ID)
}

func (e *Editor) vertexAt(poly segmentation.Polygon, sx, sy float64) (int, bool) {
	for i, pt := range poly.Points {
		if IsNearVertex(sx, sy, pt, e.cfg.VertexHitRadius, e.transform) {
			return i, true
		}
	}
	return -1, false
}

func (e *Editor) insertVertex(poly segmentation.Polygon, at int, pt geometry.Point2D) {
	ring := make([]geometry.Point2D, 0, len(poly.Points)+1)
	ring = append(ring, poly.Points[:at]...)
	ring = append(ring, pt)
	ring = append(ring, poly.Points[at:]...)
	poly.Points = ring
	e.commit(e.data.WithReplaced(poly.ID, poly))
	e.status("inserted vertex on %s", poly.ID)
}

func (e *Editor) deleteVertex(poly segmentation.Polygon, at int) {
	if len(poly.Points) <= 3 {
		e.status("polygon needs at least 3 points")
		return
	}
	ring := make([]geometry.Point2D, 0, len(poly.Points)-1)
	ring = append(ring, poly.Points[:at]...)
	ring = append(ring, poly.Points[at+1:]...)
	poly.Points = ring
	e.commit(e.data.WithReplaced(poly.ID, poly))
	e.status("deleted vertex from %s", poly.ID)
}

// commit installs a new segmentation snapshot and records it in history.
func (e *Editor) commit(d *segmentation.Data) {
	e.data = d
	e.history.Push(d)
	if e.onChange != nil {
		e.onChange(d)
	}
}

// restore installs a history snapshot without pushing a new entry.
func (e *Editor) restore(d *segmentation.Data) {
	e.data = d
	if _, _, ok := d.Find(e.selectedID); !ok {
		e.selectedID = ""
	}
	if e.onChange != nil {
		e.onChange(d)
	}
}

func (e *Editor) status(format string, args ...any) {
	if e.onStatus != nil {
		e.onStatus(fmt.Sprintf(format, args...))
	}
}

// appendSpaced appends p only when it is at least spacing away from the last
// point, keeping auto-dropped runs evenly spread.
func appendSpaced(pts []geometry.Point2D, p geometry.Point2D, spacing float64) []geometry.Point2D {
	if n := len(pts); n > 0 && pts[n-1].Distance(p) < spacing {
		return pts
	}
	return append(pts, p)
}

// replaceArc swaps one boundary arc of ring for the drawn points. Both
// candidate rings are built, one replacing each arc between the endpoints,
// and the longer-perimeter candidate wins; within 0.1% the larger area
// breaks the tie, keeping the outline's bulk intact.
func replaceArc(ring []geometry.Point2D, start, end int, drawn []geometry.Point2D) []geometry.Point2D {
	keepForward := arcForward(ring, end, start) // end..start, drawn closes start->end
	a := append(append([]geometry.Point2D(nil), keepForward...), drawn...)

	keepBackward := arcForward(ring, start, end) // start..end, drawn runs backwards
	b := append([]geometry.Point2D(nil), keepBackward...)
	for i := len(drawn) - 1; i >= 0; i-- {
		b = append(b, drawn[i])
	}

	pa := geometry.PolygonPerimeter(a, true)
	pb := geometry.PolygonPerimeter(b, true)
	longer, shorter := a, b
	pl, ps := pa, pb
	if pb > pa {
		longer, shorter = b, a
		pl, ps = pb, pa
	}
	if pl > 0 && (pl-ps)/pl < 0.001 {
		if geometry.PolygonArea(shorter) > geometry.PolygonArea(longer) {
			return shorter
		}
	}
	return longer
}

// arcForward returns ring vertices from index a to index b inclusive,
// walking forward and wrapping.
func arcForward(ring []geometry.Point2D, a, b int) []geometry.Point2D {
	n := len(ring)
	out := []geometry.Point2D{ring[a]}
	for i := (a + 1) % n; ; i = (i + 1) % n {
		out = append(out, ring[i])
		if i == b {
			break
		}
	}
	return out
}
