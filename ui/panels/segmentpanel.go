package panels

import (
	"errors"
	"fmt"
	"strconv"

	"cellseg/internal/app"
	"cellseg/internal/log"
	"cellseg/internal/segmenter"
	"cellseg/ui/canvas"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
)

// SegmentPanel holds the automatic segmentation parameters, the run button,
// and the scale calibration controls.
type SegmentPanel struct {
	state  *app.State
	canvas *canvas.ImageCanvas
	window fyne.Window
	box    fyne.CanvasObject

	minAreaEntry   *widget.Entry
	blurEntry      *widget.Entry
	morphEntry     *widget.Entry
	toleranceEntry *widget.Entry
	invertCheck    *widget.Check

	calibrationEntry *widget.Entry
	calibrationLabel *widget.Label

	runBtn  *widget.Button
	running bool
}

// NewSegmentPanel creates the segmentation controls panel.
func NewSegmentPanel(state *app.State, cv *canvas.ImageCanvas) *SegmentPanel {
	sp := &SegmentPanel{
		state:  state,
		canvas: cv,
	}

	defaults := segmenter.DefaultOptions()
	sp.minAreaEntry = numberEntry(fmt.Sprintf("%.0f", defaults.MinArea))
	sp.blurEntry = numberEntry(strconv.Itoa(defaults.BlurKernel))
	sp.morphEntry = numberEntry(strconv.Itoa(defaults.MorphIterations))
	sp.toleranceEntry = numberEntry(fmt.Sprintf("%.1f", defaults.SimplifyTolerance))
	sp.invertCheck = widget.NewCheck("Invert threshold", nil)

	sp.runBtn = widget.NewButton("Run Segmentation", func() { sp.runSegmentation() })

	params := widget.NewForm(
		widget.NewFormItem("Min area (px²)", sp.minAreaEntry),
		widget.NewFormItem("Blur kernel", sp.blurEntry),
		widget.NewFormItem("Morph iterations", sp.morphEntry),
		widget.NewFormItem("Tolerance (px)", sp.toleranceEntry),
	)

	sp.calibrationLabel = widget.NewLabel("uncalibrated")
	sp.calibrationEntry = numberEntry("")
	applyBtn := widget.NewButton("Apply", func() { sp.applyCalibration() })
	scaleBarBtn := widget.NewButton("Read Scale Bar", func() { sp.readScaleBar() })

	calibration := container.NewVBox(
		widget.NewLabelWithStyle("Calibration", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		sp.calibrationLabel,
		container.NewBorder(nil, nil, widget.NewLabel("µm/px:"), applyBtn, sp.calibrationEntry),
		scaleBarBtn,
	)

	sp.box = container.NewVBox(
		widget.NewLabelWithStyle("Segmentation", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		params,
		sp.invertCheck,
		sp.runBtn,
		widget.NewSeparator(),
		calibration,
	)

	state.On(app.EventCalibrationChanged, func(interface{}) { sp.updateCalibrationLabel() })
	state.On(app.EventImageLoaded, func(interface{}) { sp.updateCalibrationLabel() })

	return sp
}

// SetWindow sets the parent window for dialogs.
func (sp *SegmentPanel) SetWindow(win fyne.Window) {
	sp.window = win
}

// Container returns the panel content.
func (sp *SegmentPanel) Container() fyne.CanvasObject {
	return sp.box
}

// options reads the parameter entries, falling back to defaults on bad
// input.
func (sp *SegmentPanel) options() segmenter.Options {
	opts := segmenter.DefaultOptions()
	if v, err := strconv.ParseFloat(sp.minAreaEntry.Text, 64); err == nil && v >= 0 {
		opts.MinArea = v
	}
	if v, err := strconv.Atoi(sp.blurEntry.Text); err == nil && v > 0 {
		opts.BlurKernel = v
	}
	if v, err := strconv.Atoi(sp.morphEntry.Text); err == nil && v >= 0 {
		opts.MorphIterations = v
	}
	if v, err := strconv.ParseFloat(sp.toleranceEntry.Text, 64); err == nil && v >= 0 {
		opts.SimplifyTolerance = v
	}
	opts.InvertThreshold = sp.invertCheck.Checked
	return opts
}

// runSegmentation segments the loaded image in the background and installs
// the result as a fresh segmentation.
func (sp *SegmentPanel) runSegmentation() {
	if sp.running {
		return
	}
	if sp.state.Image == nil {
		sp.showError(errors.New("no image loaded"))
		return
	}

	opts := sp.options()
	img := sp.state.Image.Image
	sp.running = true
	sp.runBtn.Disable()

	go func() {
		defer func() {
			sp.running = false
			sp.runBtn.Enable()
		}()

		result, err := segmenter.SegmentImage(img, opts)
		if err != nil {
			log.WithComponent("ui").Error("segmentation failed", "err", err)
			sp.showError(err)
			return
		}
		log.WithComponent("ui").Info("segmentation complete", "polygons", len(result.Polygons))
		sp.state.SetSegmentation(result, app.EventSegmentationComplete)
		sp.canvas.Refresh()
	}()
}

// readScaleBar runs scale-bar OCR on the loaded image and applies the
// resulting calibration.
func (sp *SegmentPanel) readScaleBar() {
	if sp.state.Image == nil {
		sp.showError(errors.New("no image loaded"))
		return
	}
	img := sp.state.Image.Image

	go func() {
		cal, err := segmenter.NewCalibrator()
		if err != nil {
			sp.showError(err)
			return
		}
		defer cal.Close()

		mat, err := segmenter.ImageToMat(img)
		if err != nil {
			sp.showError(err)
			return
		}
		defer mat.Close()

		mpp, err := cal.MicronsPerPixel(mat)
		if err != nil {
			log.WithComponent("ui").Warn("scale bar detection failed", "err", err)
			sp.showError(err)
			return
		}
		log.WithComponent("ui").Info("scale bar read", "microns_per_pixel", mpp)
		sp.state.SetCalibration(mpp)
	}()
}

// applyCalibration takes the manual µm/px entry.
func (sp *SegmentPanel) applyCalibration() {
	v, err := strconv.ParseFloat(sp.calibrationEntry.Text, 64)
	if err != nil || v <= 0 {
		sp.showError(errors.New("calibration must be a positive number"))
		return
	}
	sp.state.SetCalibration(v)
}

func (sp *SegmentPanel) updateCalibrationLabel() {
	if sp.state.MicronsPerPixel > 0 {
		sp.calibrationLabel.SetText(fmt.Sprintf("%.4f µm/px", sp.state.MicronsPerPixel))
	} else {
		sp.calibrationLabel.SetText("uncalibrated")
	}
}

func (sp *SegmentPanel) showError(err error) {
	if sp.window != nil {
		dialog.ShowError(err, sp.window)
	}
}

func numberEntry(text string) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(text)
	return e
}
