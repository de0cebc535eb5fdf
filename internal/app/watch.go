package app

import (
	"os"
	"time"
)

// FileWatcher polls a data file for external modification, so the UI can
// offer to reload when a batch pipeline rewrites the segmentation on disk.
type FileWatcher struct {
	path          string
	baseline      time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
	onChanged     func()
}

// NewFileWatcher watches the given path. Returns nil when the file cannot
// be stat'd.
func NewFileWatcher(path string, checkInterval time.Duration) *FileWatcher {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	return &FileWatcher{
		path:          path,
		baseline:      info.ModTime(),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
}

// OnChanged sets the callback invoked when the file's mtime advances. The
// callback runs on a background goroutine.
func (w *FileWatcher) OnChanged(callback func()) {
	w.onChanged = callback
}

// Start begins polling in a background goroutine.
func (w *FileWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.watchLoop()
}

// Stop ends the polling goroutine.
func (w *FileWatcher) Stop() {
	close(w.stopCh)
}

func (w *FileWatcher) watchLoop() {
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			if w.changed() && w.onChanged != nil {
				w.onChanged()
				return
			}
		}
	}
}

func (w *FileWatcher) changed() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	return info.ModTime().After(w.baseline)
}

// ResetBaseline accepts the current file state, suppressing further
// notifications until the next external write. Call it when the user
// declines a reload or after reloading.
func (w *FileWatcher) ResetBaseline() {
	if info, err := os.Stat(w.path); err == nil {
		w.baseline = info.ModTime()
	}
}
