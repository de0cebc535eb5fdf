// Package colorutil provides shared color utilities for polygon overlays.
package colorutil

import (
	"fmt"
	"image/color"
	"math"
)

// Common overlay colors used throughout the application.
var (
	Black   = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Cyan    = color.RGBA{R: 0, G: 255, B: 255, A: 255}
	Magenta = color.RGBA{R: 255, G: 0, B: 255, A: 255}
	Green   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	Yellow  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	Red     = color.RGBA{R: 255, G: 64, B: 64, A: 255}
)

// goldenAngle in degrees; stepping hues by it keeps consecutive overlay
// colors far apart no matter how many polygons an image has.
const goldenAngle = 137.508

// IndexColor returns a visually distinct color for the i-th polygon.
func IndexColor(i int) color.RGBA {
	h := math.Mod(float64(i)*goldenAngle, 360)
	r, g, b := HSVToRGB(h, 0.85, 0.95)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// IndexHex returns IndexColor formatted as "#rrggbb".
func IndexHex(i int) string {
	return ToHex(IndexColor(i))
}

// ToHex formats a color as "#rrggbb".
func ToHex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses "#rrggbb" (or "rrggbb") into an opaque RGBA color.
func ParseHex(s string) (color.RGBA, error) {
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// WithAlpha returns the color with its alpha replaced, for translucent
// polygon fills.
func WithAlpha(c color.RGBA, a uint8) color.RGBA {
	c.A = a
	return c
}

// HSVToRGB converts H in degrees (0-360) and S, V in 0-1 to 8-bit RGB.
func HSVToRGB(h, s, v float64) (r, g, b uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}

	return uint8(math.Round((rf + m) * 255)),
		uint8(math.Round((gf + m) * 255)),
		uint8(math.Round((bf + m) * 255))
}

// RGBToHSV converts 8-bit RGB to H in degrees (0-360) and S, V in 0-1.
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	r /= 255.0
	g /= 255.0
	b /= 255.0

	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	diff := maxC - minC

	v = maxC
	if maxC > 0 {
		s = diff / maxC
	}

	if diff == 0 {
		h = 0
	} else if maxC == r {
		h = 60 * math.Mod((g-b)/diff, 6)
	} else if maxC == g {
		h = 60 * ((b-r)/diff + 2)
	} else {
		h = 60 * ((r-g)/diff + 4)
	}
	if h < 0 {
		h += 360
	}
	return h, s, v
}
