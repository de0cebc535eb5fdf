// Package app provides application lifecycle management and events.
package app

import (
	"sync"

	"cellseg/internal/imaging"
	"cellseg/internal/project"
	"cellseg/internal/segmentation"
)

// State holds the application state: the open project, its image, and the
// current segmentation. UI components subscribe to events rather than
// polling.
type State struct {
	mu sync.RWMutex

	ProjectPath string
	Modified    bool

	Project *project.File
	Image   *imaging.Micrograph

	// segmentation is an immutable snapshot; SetSegmentation swaps the
	// whole pointer.
	segmentation *segmentation.Data

	// MicronsPerPixel is the effective calibration: project override,
	// then scale-bar OCR, then image metadata.
	MicronsPerPixel float64

	// SelectedPolygonID tracks the polygon highlighted in panels.
	SelectedPolygonID string

	cache     *segmentation.Cache
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventProjectLoaded EventType = iota
	EventProjectSaved
	EventImageLoaded
	EventSegmentationComplete
	EventSegmentationEdited
	EventSelectionChanged
	EventCalibrationChanged
	EventModified
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// NewState creates a new application state.
func NewState() *State {
	return &State{
		segmentation: &segmentation.Data{},
		cache:        segmentation.NewCache(segmentation.DefaultCacheTTL),
		listeners:    make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// SetModified marks the project as modified and emits an event.
func (s *State) SetModified(modified bool) {
	s.mu.Lock()
	s.Modified = modified
	s.mu.Unlock()
	s.Emit(EventModified, modified)
}

// Segmentation returns the current segmentation snapshot.
func (s *State) Segmentation() *segmentation.Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.segmentation
}

// SetSegmentation installs a new segmentation snapshot. The event
// distinguishes a fresh pipeline run from an interactive edit.
func (s *State) SetSegmentation(d *segmentation.Data, event EventType) {
	s.mu.Lock()
	s.segmentation = d
	if s.Image != nil {
		s.cache.Set(s.Image.Path, d)
	}
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(event, d)
}

// CachedSegmentation returns a previously computed segmentation for an
// image path, sparing a pipeline re-run when the user flips between images.
func (s *State) CachedSegmentation(imagePath string) (*segmentation.Data, bool) {
	return s.cache.Get(imagePath)
}

// SetSelected updates the highlighted polygon.
func (s *State) SetSelected(id string) {
	s.mu.Lock()
	changed := s.SelectedPolygonID != id
	s.SelectedPolygonID = id
	s.mu.Unlock()

	if changed {
		s.Emit(EventSelectionChanged, id)
	}
}

// SetCalibration records the microns-per-pixel scale.
func (s *State) SetCalibration(micronsPerPixel float64) {
	s.mu.Lock()
	s.MicronsPerPixel = micronsPerPixel
	if s.Project != nil {
		s.Project.MicronsPerPixel = micronsPerPixel
	}
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventCalibrationChanged, micronsPerPixel)
}

// LoadImage loads a micrograph and resets the segmentation, reusing a
// cached result when one exists for the path.
func (s *State) LoadImage(path string) error {
	m, err := imaging.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Image = m
	if m.Calibrated() && s.MicronsPerPixel == 0 {
		s.MicronsPerPixel = m.MicronsPerPixel
	}
	cached, ok := s.cache.Get(path)
	if ok {
		s.segmentation = cached
	} else {
		s.segmentation = &segmentation.Data{
			ImageWidth:  m.Width(),
			ImageHeight: m.Height(),
		}
	}
	s.mu.Unlock()

	s.SetModified(true)
	s.Emit(EventImageLoaded, m)
	if ok {
		s.Emit(EventSegmentationComplete, cached)
	}
	return nil
}

// LoadProject opens a project file, then its image and polygon data.
func (s *State) LoadProject(path string) error {
	proj, err := project.Load(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.Project = proj
	s.ProjectPath = path
	s.Modified = false
	s.MicronsPerPixel = proj.MicronsPerPixel
	s.mu.Unlock()

	if imgPath := proj.GetImagePath(path); imgPath != "" {
		if err := s.LoadImage(imgPath); err != nil {
			return err
		}
	}

	seg, err := proj.LoadSegmentation(path)
	if err != nil {
		return err
	}
	if len(seg.Polygons) > 0 {
		s.mu.Lock()
		s.segmentation = seg
		if s.Image != nil {
			s.cache.Set(s.Image.Path, seg)
		}
		s.mu.Unlock()
		s.Emit(EventSegmentationComplete, seg)
	}

	s.mu.Lock()
	s.Modified = false
	s.mu.Unlock()
	s.Emit(EventProjectLoaded, path)
	return nil
}

// SaveProject writes the project and its polygon data.
func (s *State) SaveProject(path string) error {
	s.mu.Lock()
	if s.Project == nil {
		s.Project = project.New("untitled")
	}
	proj := s.Project
	proj.MicronsPerPixel = s.MicronsPerPixel
	if s.Image != nil {
		proj.SetImage(path, s.Image.Path)
	}
	seg := s.segmentation
	s.mu.Unlock()

	if err := proj.Save(path); err != nil {
		return err
	}
	if err := proj.SaveSegmentation(path, seg); err != nil {
		return err
	}

	s.mu.Lock()
	s.ProjectPath = path
	s.Modified = false
	s.mu.Unlock()

	s.Emit(EventProjectSaved, path)
	return nil
}
