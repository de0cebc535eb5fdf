package panels

import (
	"fmt"

	"cellseg/internal/app"
	"cellseg/internal/segmentation"
	"cellseg/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

// PolygonsPanel lists the external polygons of the current segmentation and
// keeps its selection in sync with the canvas.
type PolygonsPanel struct {
	state  *app.State
	canvas *canvas.ImageCanvas
	box    fyne.CanvasObject

	list       *widget.List
	countLabel *widget.Label

	// rows caches the displayed polygons so List callbacks stay stable
	// while the underlying segmentation is swapped.
	rows []segmentation.Polygon

	// syncing suppresses the selection callback while the list is being
	// updated from a state event.
	syncing bool
}

// NewPolygonsPanel creates the polygon list panel.
func NewPolygonsPanel(state *app.State, cv *canvas.ImageCanvas) *PolygonsPanel {
	pp := &PolygonsPanel{
		state:  state,
		canvas: cv,
	}

	pp.countLabel = widget.NewLabel("No polygons")

	pp.list = widget.NewList(
		func() int { return len(pp.rows) },
		func() fyne.CanvasObject {
			return widget.NewLabel("polygon")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			if id < 0 || id >= len(pp.rows) {
				return
			}
			poly := pp.rows[id]
			obj.(*widget.Label).SetText(fmt.Sprintf("%d    area %.0f px²", id+1, poly.Area()))
		},
	)
	pp.list.OnSelected = func(id widget.ListItemID) {
		if pp.syncing || id < 0 || id >= len(pp.rows) {
			return
		}
		pp.state.SetSelected(pp.rows[id].ID)
		pp.canvas.Refresh()
	}
	pp.list.OnUnselected = func(id widget.ListItemID) {
		if pp.syncing {
			return
		}
		pp.state.SetSelected("")
		pp.canvas.Refresh()
	}

	deleteBtn := widget.NewButton("Delete", func() {
		pp.canvas.Editor().DeleteSelected()
		pp.canvas.Refresh()
	})
	simplifyBtn := widget.NewButton("Simplify", func() {
		if err := pp.canvas.Editor().SimplifySelected(); err == nil {
			pp.canvas.Refresh()
		}
	})

	overlayCheck := widget.NewCheck("Show overlay", func(checked bool) {
		pp.canvas.SetOverlayVisible(checked)
	})
	overlayCheck.SetChecked(true)

	pp.box = container.NewBorder(
		container.NewVBox(pp.countLabel, overlayCheck),
		container.NewHBox(deleteBtn, simplifyBtn),
		nil, nil,
		pp.list,
	)

	state.On(app.EventSegmentationComplete, func(interface{}) { pp.reload() })
	state.On(app.EventSegmentationEdited, func(interface{}) { pp.reload() })
	state.On(app.EventSelectionChanged, func(data interface{}) {
		id, _ := data.(string)
		pp.syncSelection(id)
	})

	return pp
}

// Container returns the panel content.
func (pp *PolygonsPanel) Container() fyne.CanvasObject {
	return pp.box
}

// reload rebuilds the row cache from the current segmentation.
func (pp *PolygonsPanel) reload() {
	pp.rows = pp.rows[:0]
	if d := pp.state.Segmentation(); d != nil {
		for _, poly := range d.Polygons {
			if poly.Type == segmentation.External {
				pp.rows = append(pp.rows, poly)
			}
		}
	}

	if len(pp.rows) == 0 {
		pp.countLabel.SetText("No polygons")
	} else {
		pp.countLabel.SetText(fmt.Sprintf("%d polygons", len(pp.rows)))
	}

	pp.syncSelection(pp.state.SelectedPolygonID)
	pp.list.Refresh()
}

// syncSelection moves the list highlight to the given polygon id without
// echoing the change back into the state.
func (pp *PolygonsPanel) syncSelection(id string) {
	pp.syncing = true
	defer func() { pp.syncing = false }()

	if id == "" {
		pp.list.UnselectAll()
		return
	}
	for i, poly := range pp.rows {
		if poly.ID == id {
			pp.list.Select(i)
			return
		}
	}
	pp.list.UnselectAll()
}
