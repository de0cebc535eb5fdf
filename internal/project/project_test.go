package project

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"cellseg/internal/segmentation"
	"cellseg/pkg/geometry"
)

func TestProjectRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spheroids.cellseg")

	p := New("spheroids")
	p.MicronsPerPixel = 0.65
	p.SetImage(path, filepath.Join(dir, "plate3.tif"))

	if err := p.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Name != "spheroids" {
		t.Errorf("name %q", loaded.Name)
	}
	if loaded.MicronsPerPixel != 0.65 {
		t.Errorf("calibration %v", loaded.MicronsPerPixel)
	}
	if loaded.ImagePath != "plate3.tif" {
		t.Errorf("image path %q, want relative plate3.tif", loaded.ImagePath)
	}
	if got := loaded.GetImagePath(path); got != filepath.Join(dir, "plate3.tif") {
		t.Errorf("absolute image path %q", got)
	}
	if !loaded.Settings.AutoSegmentOnOpen {
		t.Error("default settings lost")
	}
}

func TestSegmentationPathDefault(t *testing.T) {
	p := New("x")
	got := p.GetSegmentationPath("/work/run7.cellseg")
	if got != "/work/run7_segmentation.json" {
		t.Errorf("default segmentation path %q", got)
	}
}

func TestSegmentationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	projPath := filepath.Join(dir, "run.cellseg")

	d := &segmentation.Data{
		ImageWidth:  640,
		ImageHeight: 480,
		Polygons: []segmentation.Polygon{{
			ID:   "cell-1",
			Type: segmentation.External,
			Points: []geometry.Point2D{
				{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 35, Y: 50},
			},
		}},
	}

	p := New("run")
	if err := p.SaveSegmentation(projPath, d); err != nil {
		t.Fatal(err)
	}

	loaded, err := p.LoadSegmentation(projPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded.Polygons) != 1 || loaded.Polygons[0].ID != "cell-1" {
		t.Fatalf("loaded %+v", loaded.Polygons)
	}
	if loaded.ImageWidth != 640 {
		t.Errorf("image width %d", loaded.ImageWidth)
	}
}

func TestLoadSegmentationMissingFile(t *testing.T) {
	p := New("empty")
	d, err := p.LoadSegmentation(filepath.Join(t.TempDir(), "none.cellseg"))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.Polygons) != 0 {
		t.Error("missing file should yield an empty segmentation")
	}
}

func TestExportMetricsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.csv")
	metrics := []segmentation.PolygonMetrics{
		{ID: "cell-1", Area: 1234.5, Perimeter: 140.2, Circularity: 0.79, HoleCount: 1},
		{ID: "cell-2", Area: 987.1, Perimeter: 120.8, Circularity: 0.85},
	}

	if err := ExportMetricsCSV(path, metrics); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}

	if len(rows) != 3 {
		t.Fatalf("%d rows, want header + 2", len(rows))
	}
	if rows[0][0] != "id" || rows[0][1] != "area" {
		t.Errorf("header %v", rows[0])
	}
	if rows[1][0] != "cell-1" || rows[1][1] != "1234.500" {
		t.Errorf("first row %v", rows[1])
	}
	if rows[1][8] != "1" {
		t.Errorf("hole count column %q", rows[1][8])
	}
}

func TestExportMetricsPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	metrics := []segmentation.PolygonMetrics{
		{ID: "cell-1", Area: 1234.5, Perimeter: 140.2, Circularity: 0.79},
	}

	if err := ExportMetricsPDF(path, "plate3.tif", 0.65, metrics); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() == 0 {
		t.Error("empty PDF written")
	}
}
