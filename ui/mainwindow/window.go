// Package mainwindow provides the main application window.
package mainwindow

import (
	"fmt"
	"path/filepath"
	"time"

	"cellseg/internal/app"
	"cellseg/internal/config"
	"cellseg/internal/editor"
	"cellseg/internal/log"
	"cellseg/internal/project"
	"cellseg/internal/segmentation"
	"cellseg/internal/version"
	"cellseg/ui/canvas"
	"cellseg/ui/panels"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
)

const (
	prefKeyLastDir     = "lastDirectory"
	prefKeyLastProject = "lastProject"

	projectExt = ".cellseg"
)

// modeOrder fixes the toolbar button layout.
var modeOrder = []editor.Mode{
	editor.ModeView,
	editor.ModeCreatePolygon,
	editor.ModeEditVertices,
	editor.ModeAddPoints,
	editor.ModeSlice,
	editor.ModeDeletePolygon,
}

// modeLabels maps modes to toolbar button captions.
var modeLabels = map[editor.Mode]string{
	editor.ModeView:          "View",
	editor.ModeCreatePolygon: "Draw",
	editor.ModeEditVertices:  "Edit",
	editor.ModeAddPoints:     "Add",
	editor.ModeSlice:         "Slice",
	editor.ModeDeletePolygon: "Delete",
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	state     *app.State
	editor    *editor.Editor
	canvas    *canvas.ImageCanvas
	sidePanel *panels.SidePanel
	statusBar *widget.Label
	zoomLabel *widget.Label

	modeButtons map[editor.Mode]*widget.Button

	// watcher notices external rewrites of the segmentation file, e.g. by
	// a segtool batch run.
	watcher *app.FileWatcher
}

// New creates the main window over the given state.
func New(fyneApp fyne.App, state *app.State, cfg config.AppConfig) *MainWindow {
	win := fyneApp.NewWindow("CellSeg")

	mw := &MainWindow{
		Window: win,
		app:    fyneApp,
		state:  state,
		editor: editor.New(state.Segmentation(), editor.Config{
			VertexHitRadius:   cfg.Editor.VertexHitRadius,
			CloseDistance:     cfg.Editor.CloseDistance,
			EdgeHitThreshold:  cfg.Editor.EdgeHitThreshold,
			AutoPointSpacing:  cfg.Editor.AutoPointSpacing,
			SimplifyTolerance: cfg.Segmentation.SimplifyTolerance,
		}),
		modeButtons: make(map[editor.Mode]*widget.Button),
	}

	mw.setupUI()
	mw.setupMenus()
	mw.setupShortcuts()
	mw.setupEventHandlers()
	mw.restoreLastSession()

	win.Resize(fyne.NewSize(1200, 800))
	return mw
}

// setupUI creates the main layout: side panel | canvas, status bar below.
func (mw *MainWindow) setupUI() {
	mw.canvas = canvas.NewImageCanvas(mw.editor)
	mw.sidePanel = panels.NewSidePanel(mw.state, mw.canvas)
	mw.sidePanel.SetWindow(mw.Window)

	mw.statusBar = widget.NewLabel("Ready")
	mw.zoomLabel = widget.NewLabel("100%")

	mw.editor.OnStatus(func(text string) {
		mw.statusBar.SetText(text)
	})
	mw.editor.OnChange(func(d *segmentation.Data) {
		mw.state.SetSegmentation(d, app.EventSegmentationEdited)
	})
	mw.canvas.OnInteraction(func() {
		mw.state.SetSelected(mw.editor.SelectedID())
		mw.highlightMode(mw.editor.Mode())
	})
	mw.canvas.OnZoomChange(func(zoom float64) {
		mw.zoomLabel.SetText(fmt.Sprintf("%.0f%%", zoom*100))
	})

	toolbar := mw.createToolbar()

	canvasArea := container.NewBorder(
		toolbar,
		nil, nil, nil,
		mw.canvas,
	)

	split := container.NewHSplit(mw.sidePanel.Container(), canvasArea)
	split.SetOffset(0.25)

	content := container.NewBorder(
		nil,
		container.NewPadded(mw.statusBar),
		nil, nil,
		split,
	)

	mw.SetContent(content)
}

// createToolbar builds the mode buttons and zoom controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	items := []fyne.CanvasObject{widget.NewLabel("Mode:")}
	for _, m := range modeOrder {
		mode := m
		btn := widget.NewButton(modeLabels[mode], func() {
			mw.switchMode(mode)
		})
		mw.modeButtons[mode] = btn
		items = append(items, btn)
	}
	mw.highlightMode(editor.ModeView)

	zoomOutBtn := widget.NewButton("-", func() { mw.canvas.ZoomOut() })
	zoomInBtn := widget.NewButton("+", func() { mw.canvas.ZoomIn() })
	fitBtn := widget.NewButton("Fit", func() { mw.canvas.FitToWindow() })
	actualBtn := widget.NewButton("1:1", func() { mw.canvas.ActualSize() })

	items = append(items,
		widget.NewSeparator(),
		widget.NewLabel("Zoom:"),
		zoomOutBtn, zoomInBtn, fitBtn, actualBtn, mw.zoomLabel,
	)

	return container.NewHBox(items...)
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("New Project", mw.onNewProject),
		fyne.NewMenuItem("Open Project...", mw.onOpenProject),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Open Image...", mw.onOpenImage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Save Project", mw.onSaveProject),
		fyne.NewMenuItem("Save Project As...", mw.onSaveProjectAs),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Export Metrics CSV...", mw.onExportCSV),
		fyne.NewMenuItem("Export Report PDF...", mw.onExportPDF),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Undo", mw.onUndo),
		fyne.NewMenuItem("Redo", mw.onRedo),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Delete Polygon", mw.onDeletePolygon),
		fyne.NewMenuItem("Simplify Polygon", mw.onSimplifyPolygon),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { mw.canvas.ZoomIn() }),
		fyne.NewMenuItem("Zoom Out", func() { mw.canvas.ZoomOut() }),
		fyne.NewMenuItem("Fit to Window", func() { mw.canvas.FitToWindow() }),
		fyne.NewMenuItem("Actual Size", func() { mw.canvas.ActualSize() }),
	)

	modeItems := make([]*fyne.MenuItem, 0, len(modeOrder))
	for _, m := range modeOrder {
		mode := m
		modeItems = append(modeItems, fyne.NewMenuItem(modeLabels[mode], func() {
			mw.switchMode(mode)
		}))
	}
	modeMenu := fyne.NewMenu("Mode", modeItems...)

	toolsMenu := fyne.NewMenu("Tools",
		fyne.NewMenuItem("Run Segmentation", mw.sidePanel.RunSegmentation),
	)

	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, modeMenu, toolsMenu, helpMenu))
}

// setupShortcuts registers keyboard handling: undo/redo/save shortcuts,
// escape to cancel, and shift tracking for auto point collection.
func (mw *MainWindow) setupShortcuts() {
	cv := mw.Canvas()

	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onUndo() })
	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl | fyne.KeyModifierShift},
		func(fyne.Shortcut) { mw.onRedo() })
	cv.AddShortcut(&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl},
		func(fyne.Shortcut) { mw.onSaveProject() })

	cv.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			mw.editor.Cancel()
			mw.highlightMode(mw.editor.Mode())
			mw.canvas.Refresh()
		case fyne.KeyDelete, fyne.KeyBackspace:
			mw.onDeletePolygon()
		}
	})

	if deskCanvas, ok := cv.(desktop.Canvas); ok {
		deskCanvas.SetOnKeyDown(func(ev *fyne.KeyEvent) {
			if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
				mw.editor.SetShift(true)
			}
		})
		deskCanvas.SetOnKeyUp(func(ev *fyne.KeyEvent) {
			if ev.Name == desktop.KeyShiftLeft || ev.Name == desktop.KeyShiftRight {
				mw.editor.SetShift(false)
			}
		})
	}
}

// setupEventHandlers registers for application events.
func (mw *MainWindow) setupEventHandlers() {
	mw.state.On(app.EventProjectLoaded, func(data interface{}) {
		if path, ok := data.(string); ok {
			mw.SetTitle("CellSeg - " + filepath.Base(path))
			mw.updateStatus("Project loaded: " + path)
			mw.watchSegmentationFile()
		}
	})

	mw.state.On(app.EventProjectSaved, func(data interface{}) {
		mw.watchSegmentationFile()
	})

	mw.state.On(app.EventImageLoaded, func(data interface{}) {
		if mw.state.Image != nil {
			mw.canvas.SetImage(mw.state.Image.Image)
			mw.canvas.FitToWindow()
		}
		mw.updateStatus("Image loaded")
	})

	mw.state.On(app.EventSegmentationComplete, func(data interface{}) {
		mw.editor.Reset(mw.state.Segmentation())
		mw.highlightMode(editor.ModeView)
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventSelectionChanged, func(data interface{}) {
		id, _ := data.(string)
		mw.editor.Select(id)
		mw.canvas.Refresh()
	})

	mw.state.On(app.EventCalibrationChanged, func(data interface{}) {
		if mpp, ok := data.(float64); ok {
			mw.updateStatus(fmt.Sprintf("Calibration: %.4f µm/px", mpp))
		}
	})

	mw.state.On(app.EventModified, func(data interface{}) {
		if modified, ok := data.(bool); ok && modified {
			title := mw.Title()
			if len(title) > 0 && title[len(title)-1] != '*' {
				mw.SetTitle(title + " *")
			}
		}
	})
}

// watchSegmentationFile (re)starts polling the project's segmentation file
// so results written by a batch run can be pulled in without restarting.
func (mw *MainWindow) watchSegmentationFile() {
	if mw.watcher != nil {
		mw.watcher.Stop()
		mw.watcher = nil
	}
	if mw.state.Project == nil || mw.state.ProjectPath == "" {
		return
	}

	path := mw.state.Project.GetSegmentationPath(mw.state.ProjectPath)
	watcher := app.NewFileWatcher(path, 2*time.Second)
	if watcher == nil {
		return
	}
	watcher.OnChanged(func() {
		mw.offerSegmentationReload(watcher, path)
	})
	watcher.Start()
	mw.watcher = watcher
}

// offerSegmentationReload asks before replacing the in-memory segmentation
// with the externally rewritten file. The watcher that fired is captured
// explicitly; mw.watcher may have been replaced while the dialog was open.
func (mw *MainWindow) offerSegmentationReload(watcher *app.FileWatcher, path string) {
	dialog.ShowConfirm("Segmentation changed on disk",
		"The segmentation file was modified outside the editor.\nReload it and discard unsaved edits?",
		func(reload bool) {
			if reload {
				seg, err := mw.state.Project.LoadSegmentation(mw.state.ProjectPath)
				if err != nil {
					dialog.ShowError(err, mw.Window)
				} else {
					mw.state.SetSegmentation(seg, app.EventSegmentationComplete)
				}
			}
			if mw.watcher != watcher {
				return
			}
			watcher.ResetBaseline()
			// Re-arm; the poll loop exits after each notification.
			watcher.Start()
		}, mw.Window)
}

// switchMode moves the editor into the given mode and updates the toolbar.
func (mw *MainWindow) switchMode(mode editor.Mode) {
	mw.editor.TransitionTo(mode)
	mw.highlightMode(mode)
	mw.canvas.Refresh()
}

// highlightMode marks the active mode's toolbar button.
func (mw *MainWindow) highlightMode(active editor.Mode) {
	for mode, btn := range mw.modeButtons {
		if mode == active {
			btn.Importance = widget.HighImportance
		} else {
			btn.Importance = widget.MediumImportance
		}
		btn.Refresh()
	}
}

func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	uri := storage.NewFileURI(path)
	listable, err := storage.ListerForURI(uri)
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

// restoreLastSession reopens the project from the previous run, if any.
func (mw *MainWindow) restoreLastSession() {
	path := mw.app.Preferences().String(prefKeyLastProject)
	if path == "" {
		return
	}
	if err := mw.state.LoadProject(path); err != nil {
		log.WithComponent("ui").Warn("could not restore last project", "path", path, "err", err)
		mw.app.Preferences().SetString(prefKeyLastProject, "")
	}
}

// Menu action handlers

func (mw *MainWindow) onNewProject() {
	mw.state.ProjectPath = ""
	mw.state.Project = nil
	mw.state.Image = nil
	mw.state.SetSegmentation(&segmentation.Data{}, app.EventSegmentationComplete)
	mw.state.SetModified(false)
	mw.canvas.SetImage(nil)
	mw.SetTitle("CellSeg - New Project")
}

func (mw *MainWindow) onOpenProject() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastProject, path)
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{projectExt}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onOpenImage() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		reader.Close()
		path := reader.URI().Path()
		mw.saveLastDir(path)
		if err := mw.state.LoadImage(path); err != nil {
			dialog.ShowError(err, mw.Window)
		}
	}, mw.Window)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}))
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onSaveProject() {
	if mw.state.ProjectPath == "" {
		mw.onSaveProjectAs()
		return
	}
	if err := mw.state.SaveProject(mw.state.ProjectPath); err != nil {
		dialog.ShowError(err, mw.Window)
		return
	}
	mw.updateStatus("Project saved")
}

func (mw *MainWindow) onSaveProjectAs() {
	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != projectExt {
			path += projectExt
		}
		mw.saveLastDir(path)
		if err := mw.state.SaveProject(path); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.app.Preferences().SetString(prefKeyLastProject, path)
		mw.SetTitle("CellSeg - " + filepath.Base(path))
		mw.updateStatus("Project saved")
	}, mw.Window)
	fd.SetFileName("project" + projectExt)
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportCSV() {
	d := mw.state.Segmentation()
	if d == nil || len(d.Polygons) == 0 {
		mw.updateStatus("Nothing to export")
		return
	}
	metrics := segmentation.ComputeMetrics(d, mw.state.MicronsPerPixel)

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".csv" {
			path += ".csv"
		}
		mw.saveLastDir(path)
		if err := project.ExportMetricsCSV(path, metrics); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Metrics exported: " + path)
	}, mw.Window)
	fd.SetFileName("metrics.csv")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onExportPDF() {
	d := mw.state.Segmentation()
	if d == nil || len(d.Polygons) == 0 {
		mw.updateStatus("Nothing to export")
		return
	}
	metrics := segmentation.ComputeMetrics(d, mw.state.MicronsPerPixel)

	imageName := ""
	if mw.state.Image != nil {
		imageName = filepath.Base(mw.state.Image.Path)
	}

	fd := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		writer.Close()
		path := writer.URI().Path()
		if filepath.Ext(path) != ".pdf" {
			path += ".pdf"
		}
		mw.saveLastDir(path)
		if err := project.ExportMetricsPDF(path, imageName, mw.state.MicronsPerPixel, metrics); err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus("Report exported: " + path)
	}, mw.Window)
	fd.SetFileName("report.pdf")
	if loc := mw.getLastDir(); loc != nil {
		fd.SetLocation(loc)
	}
	fd.Show()
}

func (mw *MainWindow) onUndo() {
	if mw.editor.Undo() {
		mw.state.SetSelected(mw.editor.SelectedID())
		mw.canvas.Refresh()
	}
}

func (mw *MainWindow) onRedo() {
	if mw.editor.Redo() {
		mw.state.SetSelected(mw.editor.SelectedID())
		mw.canvas.Refresh()
	}
}

func (mw *MainWindow) onDeletePolygon() {
	mw.editor.DeleteSelected()
	mw.state.SetSelected("")
	mw.canvas.Refresh()
}

func (mw *MainWindow) onSimplifyPolygon() {
	if err := mw.editor.SimplifySelected(); err != nil {
		mw.updateStatus(err.Error())
		return
	}
	mw.canvas.Refresh()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About CellSeg",
		fmt.Sprintf("CellSeg v%s\n\n"+
			"Interactive segmentation of microscopy images.\n\n"+
			"Built: %s\n"+
			"Commit: %s",
			version.Version, version.BuildTime, version.GitCommit),
		mw.Window)
}
