// cellseg is the interactive segmentation editor for microscopy images.
package main

import (
	"os"

	fyneapp "fyne.io/fyne/v2/app"

	"cellseg/internal/app"
	"cellseg/internal/config"
	"cellseg/internal/log"
	"cellseg/internal/version"
	"cellseg/ui/mainwindow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// A broken config file should not keep the app from starting.
		cfg = config.Defaults()
	}

	log.Init(log.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	logger := log.WithComponent("main")
	logger.Info("starting", "version", version.Version)
	if err != nil {
		logger.Warn("using default configuration", "err", err)
	}

	fyneApp := fyneapp.NewWithID("io.cellseg.app")
	fyneApp.Settings().SetTheme(&app.CellSegTheme{})

	state := app.NewState()
	win := mainwindow.New(fyneApp, state, cfg)

	// A path argument opens an image or a project directly.
	if len(os.Args) > 1 {
		path := os.Args[1]
		var openErr error
		if isProjectPath(path) {
			openErr = state.LoadProject(path)
		} else {
			openErr = state.LoadImage(path)
		}
		if openErr != nil {
			logger.Error("could not open", "path", path, "err", openErr)
		}
	}

	win.ShowAndRun()
}

func isProjectPath(path string) bool {
	const ext = ".cellseg"
	return len(path) >= len(ext) && path[len(path)-len(ext):] == ext
}
