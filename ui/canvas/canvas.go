// Package canvas renders the micrograph with the segmentation overlay and
// feeds pointer events into the polygon editor.
package canvas

import (
	"image"

	"cellseg/internal/editor"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
)

// ImageCanvas displays a micrograph and its segmentation overlay. All view
// state (zoom, pan) lives in the editor's transform; the canvas only draws
// and translates events.
type ImageCanvas struct {
	widget.BaseWidget

	editor *editor.Editor
	img    image.Image

	hideOverlay bool

	raster  *fynecanvas.Raster
	content *draggableContent

	// cursor is the last pointer position in widget coordinates, used for
	// the draft rubber line and the slice preview.
	cursorX, cursorY float64
	cursorValid      bool

	lastOutput *image.RGBA

	onZoomChange  func(zoom float64)
	onInteraction func()
}

// NewImageCanvas creates a canvas bound to the given editor.
func NewImageCanvas(ed *editor.Editor) *ImageCanvas {
	ic := &ImageCanvas{editor: ed}

	ic.raster = fynecanvas.NewRaster(ic.draw)
	ic.raster.ScaleMode = fynecanvas.ImageScalePixels
	ic.raster.SetMinSize(fyne.NewSize(400, 300))

	ic.content = newDraggableContent(ic, ic.raster)
	ic.ExtendBaseWidget(ic)
	return ic
}

// Editor returns the editor driving this canvas.
func (ic *ImageCanvas) Editor() *editor.Editor {
	return ic.editor
}

// SetImage replaces the displayed micrograph. The view transform is left
// alone; call FitToWindow to frame the new image.
func (ic *ImageCanvas) SetImage(img image.Image) {
	ic.img = img
	ic.Refresh()
}

// SetOverlayVisible toggles drawing of the polygon overlay, leaving the
// micrograph visible for inspection.
func (ic *ImageCanvas) SetOverlayVisible(visible bool) {
	ic.hideOverlay = !visible
	ic.Refresh()
}

// Image returns the currently displayed micrograph, or nil.
func (ic *ImageCanvas) Image() image.Image {
	return ic.img
}

// Zoom returns the current zoom factor.
func (ic *ImageCanvas) Zoom() float64 {
	return ic.editor.Transform().Zoom
}

// OnZoomChange sets a callback fired after any zoom adjustment.
func (ic *ImageCanvas) OnZoomChange(fn func(zoom float64)) {
	ic.onZoomChange = fn
}

// OnInteraction sets a callback fired after every click, so the window can
// mirror the editor's mode and selection into the rest of the UI.
func (ic *ImageCanvas) OnInteraction(fn func()) {
	ic.onInteraction = fn
}

func (ic *ImageCanvas) interacted() {
	if ic.onInteraction != nil {
		ic.onInteraction()
	}
}

// ZoomIn steps the zoom anchored on the viewport center.
func (ic *ImageCanvas) ZoomIn() {
	cx, cy := ic.viewCenter()
	ic.editor.SetTransform(ic.editor.Transform().ZoomIn(cx, cy))
	ic.zoomChanged()
}

// ZoomOut steps the zoom anchored on the viewport center.
func (ic *ImageCanvas) ZoomOut() {
	cx, cy := ic.viewCenter()
	ic.editor.SetTransform(ic.editor.Transform().ZoomOut(cx, cy))
	ic.zoomChanged()
}

// ActualSize resets to 1:1 with the image origin at the top left.
func (ic *ImageCanvas) ActualSize() {
	ic.editor.SetTransform(editor.NewTransform())
	ic.zoomChanged()
}

// FitToWindow scales and centers the image inside the viewport.
func (ic *ImageCanvas) FitToWindow() {
	if ic.img == nil {
		return
	}
	bounds := ic.img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return
	}
	size := ic.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return
	}

	zoomX := float64(size.Width) / float64(bounds.Dx())
	zoomY := float64(size.Height) / float64(bounds.Dy())
	zoom := zoomX
	if zoomY < zoomX {
		zoom = zoomY
	}
	zoom *= 0.95 // small margin

	t := editor.NewTransform().WithZoom(zoom)
	// Re-read after clamping.
	zoom = t.Zoom
	t.TranslateX = (float64(size.Width) - float64(bounds.Dx())*zoom) / 2
	t.TranslateY = (float64(size.Height) - float64(bounds.Dy())*zoom) / 2
	ic.editor.SetTransform(t)
	ic.zoomChanged()
}

// GetRenderedOutput returns the last rendered frame for sampling in tests.
func (ic *ImageCanvas) GetRenderedOutput() *image.RGBA {
	return ic.lastOutput
}

// Refresh redraws the raster.
func (ic *ImageCanvas) Refresh() {
	ic.raster.Refresh()
	ic.BaseWidget.Refresh()
}

func (ic *ImageCanvas) viewCenter() (float64, float64) {
	size := ic.Size()
	return float64(size.Width) / 2, float64(size.Height) / 2
}

func (ic *ImageCanvas) zoomChanged() {
	if ic.onZoomChange != nil {
		ic.onZoomChange(ic.editor.Transform().Zoom)
	}
	ic.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (ic *ImageCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &imageCanvasRenderer{canvas: ic}
}

type imageCanvasRenderer struct {
	canvas *ImageCanvas
}

func (r *imageCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.content.Resize(size)
}

func (r *imageCanvasRenderer) MinSize() fyne.Size {
	return fyne.NewSize(100, 100)
}

func (r *imageCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *imageCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.content}
}

func (r *imageCanvasRenderer) Destroy() {}

// draggableContent wraps the raster and routes pointer events to the editor.
type draggableContent struct {
	widget.BaseWidget
	canvas *ImageCanvas
	raster *fynecanvas.Raster
}

var _ desktop.Mouseable = (*draggableContent)(nil)
var _ desktop.Hoverable = (*draggableContent)(nil)
var _ fyne.Draggable = (*draggableContent)(nil)
var _ fyne.Scrollable = (*draggableContent)(nil)

func newDraggableContent(ic *ImageCanvas, raster *fynecanvas.Raster) *draggableContent {
	dc := &draggableContent{canvas: ic, raster: raster}
	dc.ExtendBaseWidget(dc)
	return dc
}

func (dc *draggableContent) CreateRenderer() fyne.WidgetRenderer {
	return &draggableContentRenderer{content: dc}
}

func (dc *draggableContent) MinSize() fyne.Size {
	return dc.raster.MinSize()
}

// MouseDown starts a click or drag gesture.
func (dc *draggableContent) MouseDown(ev *desktop.MouseEvent) {
	x, y := float64(ev.Position.X), float64(ev.Position.Y)
	if ev.Button == desktop.MouseButtonSecondary {
		dc.canvas.editor.SecondaryDown(x, y)
	} else {
		dc.canvas.editor.MouseDown(x, y)
	}
	dc.canvas.interacted()
	dc.canvas.Refresh()
}

// MouseUp completes a gesture; vertex drags commit here.
func (dc *draggableContent) MouseUp(ev *desktop.MouseEvent) {
	if ev.Button == desktop.MouseButtonSecondary {
		return
	}
	dc.canvas.editor.MouseUp(float64(ev.Position.X), float64(ev.Position.Y))
	dc.canvas.interacted()
	dc.canvas.Refresh()
}

func (dc *draggableContent) MouseIn(*desktop.MouseEvent) {}

func (dc *draggableContent) MouseOut() {
	dc.canvas.cursorValid = false
}

// MouseMoved tracks the cursor for previews and feeds hover motion to the
// editor (auto point collection, drag preview).
func (dc *draggableContent) MouseMoved(ev *desktop.MouseEvent) {
	x, y := float64(ev.Position.X), float64(ev.Position.Y)
	dc.canvas.cursorX, dc.canvas.cursorY = x, y
	dc.canvas.cursorValid = true
	dc.canvas.editor.MouseMove(x, y)
	if dc.canvas.editor.Mode() != editor.ModeView {
		dc.canvas.Refresh()
	}
}

// Dragged pans in view mode. In edit modes it mirrors MouseMoved, since
// hover events stop while a button is held.
func (dc *draggableContent) Dragged(ev *fyne.DragEvent) {
	if dc.canvas.editor.Mode() == editor.ModeView {
		dc.canvas.editor.Pan(float64(ev.Dragged.DX), float64(ev.Dragged.DY))
	} else {
		x, y := float64(ev.Position.X), float64(ev.Position.Y)
		dc.canvas.cursorX, dc.canvas.cursorY = x, y
		dc.canvas.cursorValid = true
		dc.canvas.editor.MouseMove(x, y)
	}
	dc.canvas.Refresh()
}

func (dc *draggableContent) DragEnd() {}

// Scrolled zooms around the cursor.
func (dc *draggableContent) Scrolled(ev *fyne.ScrollEvent) {
	dc.canvas.editor.Wheel(float64(ev.Position.X), float64(ev.Position.Y), float64(ev.Scrolled.DY))
	dc.canvas.zoomChanged()
}

type draggableContentRenderer struct {
	content *draggableContent
}

func (r *draggableContentRenderer) Layout(size fyne.Size) {
	r.content.raster.Resize(size)
}

func (r *draggableContentRenderer) MinSize() fyne.Size {
	return r.content.raster.MinSize()
}

func (r *draggableContentRenderer) Refresh() {
	r.content.raster.Refresh()
}

func (r *draggableContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.raster}
}

func (r *draggableContentRenderer) Destroy() {}
