package colorutil

import (
	"math"
	"testing"
)

func TestHexRoundTrip(t *testing.T) {
	for _, s := range []string{"#ff00aa", "#000000", "#ffffff", "#1e90ff"} {
		c, err := ParseHex(s)
		if err != nil {
			t.Fatalf("ParseHex(%q): %v", s, err)
		}
		if got := ToHex(c); got != s {
			t.Errorf("round trip of %q gave %q", s, got)
		}
	}

	if _, err := ParseHex("not-a-color"); err == nil {
		t.Error("garbage hex parsed without error")
	}
}

func TestIndexColorsDistinct(t *testing.T) {
	seen := map[string]int{}
	for i := 0; i < 24; i++ {
		hex := IndexHex(i)
		if prev, dup := seen[hex]; dup {
			t.Errorf("colors %d and %d collide on %s", prev, i, hex)
		}
		seen[hex] = i
	}
}

func TestHSVRGBRoundTrip(t *testing.T) {
	cases := []struct{ h, s, v float64 }{
		{0, 1, 1},
		{120, 0.5, 0.8},
		{240, 0.85, 0.95},
		{300, 0.3, 0.6},
	}
	for _, c := range cases {
		r, g, b := HSVToRGB(c.h, c.s, c.v)
		h, s, v := RGBToHSV(float64(r), float64(g), float64(b))
		if math.Abs(h-c.h) > 2 || math.Abs(s-c.s) > 0.02 || math.Abs(v-c.v) > 0.02 {
			t.Errorf("HSV(%v,%v,%v) -> RGB(%d,%d,%d) -> HSV(%v,%v,%v)",
				c.h, c.s, c.v, r, g, b, h, s, v)
		}
	}
}
