package app

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"cellseg/internal/project"
	"cellseg/internal/segmentation"
	"cellseg/pkg/geometry"
)

func triangleData() *segmentation.Data {
	return &segmentation.Data{
		ImageWidth:  64,
		ImageHeight: 64,
		Polygons: []segmentation.Polygon{{
			ID:   "cell-1",
			Type: segmentation.External,
			Points: []geometry.Point2D{
				{X: 5, Y: 5}, {X: 40, Y: 5}, {X: 20, Y: 35},
			},
		}},
	}
}

func writeTestPNG(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 64, 64))); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEventsFire(t *testing.T) {
	s := NewState()

	var edited, modified int
	s.On(EventSegmentationEdited, func(interface{}) { edited++ })
	s.On(EventModified, func(interface{}) { modified++ })

	s.SetSegmentation(triangleData(), EventSegmentationEdited)
	if edited != 1 {
		t.Errorf("edit event fired %d times", edited)
	}
	if modified != 1 {
		t.Errorf("modified event fired %d times", modified)
	}
	if !s.Modified {
		t.Error("state not marked modified")
	}
}

func TestSelectionChangeOnlyFiresOnChange(t *testing.T) {
	s := NewState()
	var fired int
	s.On(EventSelectionChanged, func(interface{}) { fired++ })

	s.SetSelected("cell-1")
	s.SetSelected("cell-1")
	s.SetSelected("cell-2")
	if fired != 2 {
		t.Errorf("selection event fired %d times, want 2", fired)
	}
}

func TestLoadImageUsesCache(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, "plate.png")

	s := NewState()
	if err := s.LoadImage(path); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Segmentation().Polygons); got != 0 {
		t.Fatalf("fresh image came with %d polygons", got)
	}

	s.SetSegmentation(triangleData(), EventSegmentationComplete)

	// Switching away and back finds the cached segmentation.
	other := writeTestPNG(t, dir, "other.png")
	if err := s.LoadImage(other); err != nil {
		t.Fatal(err)
	}
	if len(s.Segmentation().Polygons) != 0 {
		t.Fatal("cache leaked across images")
	}
	if err := s.LoadImage(path); err != nil {
		t.Fatal(err)
	}
	if got := len(s.Segmentation().Polygons); got != 1 {
		t.Errorf("cached segmentation not restored, %d polygons", got)
	}
}

func TestProjectSaveLoadCycle(t *testing.T) {
	dir := t.TempDir()
	imgPath := writeTestPNG(t, dir, "cells.png")
	projPath := filepath.Join(dir, "cells.cellseg")

	s := NewState()
	if err := s.LoadImage(imgPath); err != nil {
		t.Fatal(err)
	}
	s.Project = project.New("cells")
	s.SetCalibration(0.5)
	s.SetSegmentation(triangleData(), EventSegmentationComplete)

	if err := s.SaveProject(projPath); err != nil {
		t.Fatal(err)
	}
	if s.Modified {
		t.Error("state still modified after save")
	}

	restored := NewState()
	var loadedFired bool
	restored.On(EventProjectLoaded, func(interface{}) { loadedFired = true })
	if err := restored.LoadProject(projPath); err != nil {
		t.Fatal(err)
	}

	if !loadedFired {
		t.Error("project loaded event did not fire")
	}
	if restored.MicronsPerPixel != 0.5 {
		t.Errorf("calibration %v after reload", restored.MicronsPerPixel)
	}
	if got := len(restored.Segmentation().Polygons); got != 1 {
		t.Errorf("reloaded %d polygons, want 1", got)
	}
	if restored.Image == nil || restored.Image.Width() != 64 {
		t.Error("image not reloaded with project")
	}
	if restored.Modified {
		t.Error("freshly loaded project marked modified")
	}
}
