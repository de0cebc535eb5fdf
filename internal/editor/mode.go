package editor

// Mode identifies which interaction state the editor is in. Exactly one
// mode is active at a time; switching modes always clears transient state
// belonging to the previous one.
type Mode int

const (
	// ModeView pans, zooms and selects polygons but never modifies them.
	ModeView Mode = iota
	// ModeCreatePolygon accumulates clicked points into a new outline.
	ModeCreatePolygon
	// ModeEditVertices drags, inserts and deletes vertices of the
	// selected polygon.
	ModeEditVertices
	// ModeAddPoints replaces a boundary arc of the selected polygon with
	// a freshly drawn run of points.
	ModeAddPoints
	// ModeSlice cuts the selected polygon in two along a drawn line.
	ModeSlice
	// ModeDeletePolygon removes whichever polygon is clicked.
	ModeDeletePolygon
)

func (m Mode) String() string {
	switch m {
	case ModeView:
		return "view"
	case ModeCreatePolygon:
		return "create"
	case ModeEditVertices:
		return "edit"
	case ModeAddPoints:
		return "add-points"
	case ModeSlice:
		return "slice"
	case ModeDeletePolygon:
		return "delete"
	default:
		return "unknown"
	}
}
