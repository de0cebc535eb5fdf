package segmenter

import (
	"math"
	"testing"
)

func TestParseScaleLabel(t *testing.T) {
	tests := []struct {
		text    string
		want    float64
		wantErr bool
	}{
		{"100 µm", 100, false},
		{"100µm", 100, false},
		{"50 um", 50, false},
		{"0.5 mm", 500, false},
		{"2 mm", 2000, false},
		{"250 nm", 0.25, false},
		{"Scale: 20 um", 20, false},
		{"", 0, true},
		{"hello", 0, true},
		{"µm", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseScaleLabel(tt.text)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseScaleLabel(%q) succeeded with %v, want error", tt.text, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseScaleLabel(%q): %v", tt.text, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseScaleLabel(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
