package segmentation

import (
	"errors"
	"math"
	"testing"

	"cellseg/pkg/geometry"
)

func squarePolygon() Polygon {
	return Polygon{
		ID:   "sq-1",
		Type: External,
		Points: []geometry.Point2D{
			{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100},
		},
	}
}

func TestSplitIntoTwoSquare(t *testing.T) {
	sq := squarePolygon()
	a := geometry.Point2D{X: 50, Y: -10}
	b := geometry.Point2D{X: 50, Y: 110}

	p1, p2, err := SplitIntoTwo(sq, a, b)
	if err != nil {
		t.Fatalf("SplitIntoTwo: %v", err)
	}

	if len(p1.Points) != 4 || len(p2.Points) != 4 {
		t.Fatalf("piece sizes = %d, %d, want 4 and 4", len(p1.Points), len(p2.Points))
	}

	total := p1.Area() + p2.Area()
	if math.Abs(total-10000) > 1e-6 {
		t.Errorf("combined area = %v, want 10000", total)
	}

	if p1.ID != sq.ID {
		t.Errorf("first piece must keep the original ID, got %q", p1.ID)
	}
	if p2.ID == sq.ID || p2.ID == "" {
		t.Errorf("second piece must get a fresh ID, got %q", p2.ID)
	}
	if p2.Type != sq.Type {
		t.Errorf("second piece type = %q, want %q", p2.Type, sq.Type)
	}

	// Original untouched
	if len(sq.Points) != 4 || sq.Points[0] != (geometry.Point2D{X: 0, Y: 0}) {
		t.Error("input polygon was modified")
	}
}

func TestSplitIntoTwoDeterministic(t *testing.T) {
	sq := squarePolygon()
	a := geometry.Point2D{X: 50, Y: -10}
	b := geometry.Point2D{X: 50, Y: 110}

	first1, second1, err := SplitIntoTwo(sq, a, b)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		f, s, err := SplitIntoTwo(sq, a, b)
		if err != nil {
			t.Fatal(err)
		}
		if len(f.Points) != len(first1.Points) || len(s.Points) != len(second1.Points) {
			t.Fatal("piece sizes changed across repeated calls")
		}
		for j := range f.Points {
			if f.Points[j] != first1.Points[j] {
				t.Fatalf("first piece point %d changed: %v vs %v", j, f.Points[j], first1.Points[j])
			}
		}
		for j := range s.Points {
			if s.Points[j] != second1.Points[j] {
				t.Fatalf("second piece point %d changed: %v vs %v", j, s.Points[j], second1.Points[j])
			}
		}
	}

	// Reversing the line endpoints yields the same two pieces; ordering by
	// parametric position along the line flips which piece is first, but the
	// geometry is identical.
	fRev, sRev, err := SplitIntoTwo(sq, b, a)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(fRev.Area()-second1.Area()) > 1e-6 || math.Abs(sRev.Area()-first1.Area()) > 1e-6 {
		t.Error("reversed line produced different pieces")
	}
}

func TestSplitRejections(t *testing.T) {
	sq := squarePolygon()
	tests := []struct {
		name    string
		a, b    geometry.Point2D
		wantErr error
	}{
		{
			"too short",
			geometry.Point2D{X: 50, Y: 50}, geometry.Point2D{X: 52, Y: 50},
			ErrLineTooShort,
		},
		{
			"fully outside",
			geometry.Point2D{X: 200, Y: -10}, geometry.Point2D{X: 200, Y: 110},
			ErrNoIntersection,
		},
		{
			"ends inside, crosses once",
			geometry.Point2D{X: 50, Y: -10}, geometry.Point2D{X: 50, Y: 50},
			ErrSingleIntersection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := SplitIntoTwo(sq, tt.a, tt.b)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSplitTooManyCrossings(t *testing.T) {
	// A U shape: a horizontal line through the middle crosses 4 edges.
	u := Polygon{
		ID:   "u-1",
		Type: External,
		Points: []geometry.Point2D{
			{X: 0, Y: 0}, {X: 30, Y: 0}, {X: 30, Y: 60}, {X: 60, Y: 60},
			{X: 60, Y: 0}, {X: 90, Y: 0}, {X: 90, Y: 100}, {X: 0, Y: 100},
		},
	}
	_, _, err := SplitIntoTwo(u, geometry.Point2D{X: -10, Y: 30}, geometry.Point2D{X: 100, Y: 30})
	if !errors.Is(err, ErrTooManyIntersections) {
		t.Errorf("error = %v, want ErrTooManyIntersections", err)
	}
}

func TestSplitSkipsVertexCoincidence(t *testing.T) {
	// A line through two opposite corners touches only vertices; every
	// crossing is discarded, so the slice is rejected rather than producing
	// a degenerate split.
	sq := squarePolygon()
	_, _, err := SplitIntoTwo(sq, geometry.Point2D{X: -10, Y: -10}, geometry.Point2D{X: 110, Y: 110})
	if err == nil {
		t.Fatal("expected corner-to-corner slice to be rejected")
	}
}

func TestSliceKeepLarger(t *testing.T) {
	sq := squarePolygon()
	// Off-center cut: keep the larger right-hand piece.
	a := geometry.Point2D{X: 20, Y: -10}
	b := geometry.Point2D{X: 20, Y: 110}

	got, err := SliceKeepLarger(sq, a, b)
	if err != nil {
		t.Fatalf("SliceKeepLarger: %v", err)
	}
	if got.ID != sq.ID {
		t.Errorf("ID = %q, want original %q", got.ID, sq.ID)
	}
	if math.Abs(got.Area()-8000) > 1e-6 {
		t.Errorf("kept area = %v, want 8000", got.Area())
	}
}

func TestSimplifyPolygon(t *testing.T) {
	noisy := Polygon{
		ID:     "c-1",
		Type:   External,
		Points: geometry.GenerateCirclePoints(0, 0, 50, 96),
	}

	got, err := Simplify(noisy, 3)
	if err != nil {
		t.Fatalf("Simplify: %v", err)
	}
	if len(got.Points) >= len(noisy.Points) {
		t.Errorf("no reduction: %d -> %d", len(noisy.Points), len(got.Points))
	}
	if len(got.Points) < 3 {
		t.Errorf("reduced below 3 points: %d", len(got.Points))
	}
	if len(noisy.Points) != 96 {
		t.Error("input polygon was modified")
	}

	// A triangle cannot be reduced further at any tolerance.
	tri := Polygon{ID: "t-1", Points: []geometry.Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 10}}}
	got, err = Simplify(tri, 1000)
	if err != nil {
		t.Fatalf("Simplify(triangle): %v", err)
	}
	if len(got.Points) != 3 {
		t.Errorf("triangle reduced to %d points", len(got.Points))
	}
}
