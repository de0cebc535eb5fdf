package imaging

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestMicronsFromResolution(t *testing.T) {
	tests := []struct {
		res  float64
		unit uint16
		want float64
	}{
		{25400, 2, 1},      // 25400 dpi = 1 µm pixels
		{2540, 2, 10},      // 2540 dpi = 10 µm pixels
		{10000, 3, 1},      // 10000 px/cm = 1 µm pixels
		{5000, 3, 2},       // 5000 px/cm = 2 µm pixels
		{0, 2, 0},          // missing resolution
		{-5, 3, 0},         // garbage
	}
	for _, tt := range tests {
		if got := MicronsFromResolution(tt.res, tt.unit); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("MicronsFromResolution(%v, %d) = %v, want %v", tt.res, tt.unit, got, tt.want)
		}
	}
}

func TestIsSupportedFormat(t *testing.T) {
	supported := []string{"cells.tif", "plate.TIFF", "a/b/scan.png", "x.jpeg", "y.JPG"}
	for _, p := range supported {
		if !IsSupportedFormat(p) {
			t.Errorf("%q should be supported", p)
		}
	}
	for _, p := range []string{"notes.txt", "raw.czi", "image"} {
		if IsSupportedFormat(p) {
			t.Errorf("%q should not be supported", p)
		}
	}
}

func TestLoadPNG(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cells.png")

	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	m, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Width() != 40 || m.Height() != 30 {
		t.Errorf("loaded %dx%d, want 40x30", m.Width(), m.Height())
	}
	if m.Calibrated() {
		t.Error("PNG should load uncalibrated")
	}
}

func TestThumbnail(t *testing.T) {
	m := &Micrograph{Image: image.NewRGBA(image.Rect(0, 0, 800, 400))}

	thumb := m.Thumbnail(200)
	b := thumb.Bounds()
	if b.Dx() != 200 || b.Dy() != 100 {
		t.Errorf("thumbnail is %dx%d, want 200x100", b.Dx(), b.Dy())
	}

	// Already small enough: returned unscaled.
	small := &Micrograph{Image: image.NewRGBA(image.Rect(0, 0, 50, 50))}
	if got := small.Thumbnail(200); got != small.Image {
		t.Error("small image should be returned as-is")
	}
}
