// Package panels provides the side panel sections of the main window.
package panels

import (
	"cellseg/internal/app"
	"cellseg/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
)

// SidePanel groups the polygon list, the metrics view, and the segmentation
// controls into tabs.
type SidePanel struct {
	state     *app.State
	canvas    *canvas.ImageCanvas
	container *container.AppTabs

	polygonsPanel *PolygonsPanel
	metricsPanel  *MetricsPanel
	segmentPanel  *SegmentPanel
}

// NewSidePanel creates the side panel and wires its tabs to the application
// state.
func NewSidePanel(state *app.State, cv *canvas.ImageCanvas) *SidePanel {
	sp := &SidePanel{
		state:  state,
		canvas: cv,
	}

	sp.polygonsPanel = NewPolygonsPanel(state, cv)
	sp.metricsPanel = NewMetricsPanel(state)
	sp.segmentPanel = NewSegmentPanel(state, cv)

	sp.container = container.NewAppTabs(
		container.NewTabItem("Polygons", sp.polygonsPanel.Container()),
		container.NewTabItem("Metrics", sp.metricsPanel.Container()),
		container.NewTabItem("Segment", sp.segmentPanel.Container()),
	)

	return sp
}

// SetWindow hands the parent window to panels that open dialogs.
func (sp *SidePanel) SetWindow(win fyne.Window) {
	sp.segmentPanel.SetWindow(win)
}

// Container returns the panel for embedding in the window layout.
func (sp *SidePanel) Container() fyne.CanvasObject {
	return sp.container
}

// RunSegmentation triggers automatic segmentation with the panel's current
// parameters. Exposed for the Tools menu.
func (sp *SidePanel) RunSegmentation() {
	sp.container.SelectIndex(2)
	sp.segmentPanel.runSegmentation()
}
