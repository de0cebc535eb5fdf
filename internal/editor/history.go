package editor

import "cellseg/internal/segmentation"

// DefaultHistoryLimit bounds how many snapshots a History retains before
// the oldest entries are discarded.
const DefaultHistoryLimit = 100

// History is a linear undo stack of segmentation snapshots. Every committed
// edit pushes a full deep copy of the data, so entries never alias live
// state and undo is a straight index move.
type History struct {
	snapshots []*segmentation.Data
	index     int
	limit     int
}

// NewHistory creates a history seeded with an initial snapshot of d.
// The seed counts as the floor of the stack and cannot be undone past.
func NewHistory(d *segmentation.Data) *History {
	return &History{
		snapshots: []*segmentation.Data{d.Clone()},
		index:     0,
		limit:     DefaultHistoryLimit,
	}
}

// Push records d as the new current state. Any redo entries beyond the
// current index are discarded first, so a new edit after an undo starts a
// fresh branch.
func (h *History) Push(d *segmentation.Data) {
	h.snapshots = h.snapshots[:h.index+1]
	h.snapshots = append(h.snapshots, d.Clone())
	h.index++

	if len(h.snapshots) > h.limit {
		drop := len(h.snapshots) - h.limit
		h.snapshots = h.snapshots[drop:]
		h.index -= drop
	}
}

// Undo steps back one snapshot and returns a copy of it. At the floor of
// the stack it returns the current snapshot unchanged and false.
func (h *History) Undo() (*segmentation.Data, bool) {
	if h.index == 0 {
		return h.snapshots[h.index].Clone(), false
	}
	h.index--
	return h.snapshots[h.index].Clone(), true
}

// Redo steps forward one snapshot and returns a copy of it. At the top of
// the stack it returns the current snapshot unchanged and false.
func (h *History) Redo() (*segmentation.Data, bool) {
	if h.index >= len(h.snapshots)-1 {
		return h.snapshots[h.index].Clone(), false
	}
	h.index++
	return h.snapshots[h.index].Clone(), true
}

// Current returns a copy of the snapshot at the current index.
func (h *History) Current() *segmentation.Data {
	return h.snapshots[h.index].Clone()
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return h.index < len(h.snapshots)-1 }

// Len returns the number of retained snapshots.
func (h *History) Len() int { return len(h.snapshots) }

// Reset discards everything and reseeds the history with d.
func (h *History) Reset(d *segmentation.Data) {
	h.snapshots = []*segmentation.Data{d.Clone()}
	h.index = 0
}
