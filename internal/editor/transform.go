// Package editor implements the interactive polygon editing session: the
// view transform, edit-mode state machine, hit-testing, and undo history
// that sit between raw pointer events and the segmentation model.
package editor

import (
	"cellseg/pkg/geometry"
)

const (
	// MinZoom and MaxZoom bound the view transform. Zoom can never reach
	// zero, so the screen/image conversion is always invertible.
	MinZoom = 0.1
	MaxZoom = 10.0

	// wheelZoomFactor is the multiplicative zoom step per wheel notch.
	wheelZoomFactor = 1.05
)

// Transform maps between screen (canvas pixel) and image coordinates. It is
// a pure value; all methods return a new Transform.
type Transform struct {
	Zoom       float64
	TranslateX float64
	TranslateY float64
}

// NewTransform returns the identity view.
func NewTransform() Transform {
	return Transform{Zoom: 1}
}

// ScreenToImage converts a screen position to image coordinates.
func (t Transform) ScreenToImage(sx, sy float64) geometry.Point2D {
	return geometry.Point2D{
		X: (sx - t.TranslateX) / t.Zoom,
		Y: (sy - t.TranslateY) / t.Zoom,
	}
}

// ImageToScreen converts an image-space point to screen coordinates. It is
// the exact algebraic inverse of ScreenToImage.
func (t Transform) ImageToScreen(p geometry.Point2D) (sx, sy float64) {
	return p.X*t.Zoom + t.TranslateX, p.Y*t.Zoom + t.TranslateY
}

// WithZoom returns the transform with zoom set and clamped to
// [MinZoom, MaxZoom].
func (t Transform) WithZoom(zoom float64) Transform {
	t.Zoom = clampZoom(zoom)
	return t
}

// ZoomAt applies a multiplicative zoom step keeping the image point under
// the screen position (sx, sy) fixed.
func (t Transform) ZoomAt(sx, sy, factor float64) Transform {
	anchor := t.ScreenToImage(sx, sy)
	newZoom := clampZoom(t.Zoom * factor)
	return Transform{
		Zoom:       newZoom,
		TranslateX: sx - anchor.X*newZoom,
		TranslateY: sy - anchor.Y*newZoom,
	}
}

// ZoomIn and ZoomOut step the zoom around the given screen position.
func (t Transform) ZoomIn(sx, sy float64) Transform  { return t.ZoomAt(sx, sy, wheelZoomFactor) }
func (t Transform) ZoomOut(sx, sy float64) Transform { return t.ZoomAt(sx, sy, 1/wheelZoomFactor) }

// Pan returns the transform shifted by a screen-space delta.
func (t Transform) Pan(dx, dy float64) Transform {
	t.TranslateX += dx
	t.TranslateY += dy
	return t
}

func clampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}
