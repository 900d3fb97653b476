package veld

import (
	"math"
	"testing"
)

func rectPath(x0, y0, x1, y1 float64) *Path {
	p := NewPath()
	p.Rectangle(NewRect(x0, y0, x1, y1))
	return p
}

func TestPathBounds(t *testing.T) {
	p := NewPath()
	p.MoveTo(1, 2)
	p.LineTo(5, -3)
	p.QuadraticTo(10, 10, 4, 4)
	b := p.Bounds()
	want := Rect{X0: 1, Y0: -3, X1: 10, Y1: 10}
	if b != want {
		t.Errorf("Bounds = %+v, want %+v", b, want)
	}
}

func TestPathWinding(t *testing.T) {
	rect := rectPath(0, 0, 10, 10)
	two := rectPath(0, 0, 10, 10)
	two.Rectangle(NewRect(2, 2, 8, 8))

	tests := []struct {
		name string
		p    *Path
		pt   Point
		want int
	}{
		{"inside", rect, Pt(5, 5), 1},
		{"outside", rect, Pt(15, 5), 0},
		{"outside above", rect, Pt(5, -1), 0},
		{"nested twice", two, Pt(5, 5), 2},
		{"nested once", two, Pt(1, 5), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Winding(tt.pt); got != tt.want {
				t.Errorf("Winding(%v) = %d, want %d", tt.pt, got, tt.want)
			}
		})
	}
}

func TestPathContainsFillRules(t *testing.T) {
	two := rectPath(0, 0, 10, 10)
	two.Rectangle(NewRect(2, 2, 8, 8))
	if !two.Contains(Pt(5, 5), FillNonZero) {
		t.Error("non-zero should contain doubly wound point")
	}
	if two.Contains(Pt(5, 5), FillEvenOdd) {
		t.Error("even-odd should exclude doubly wound point")
	}
	if !two.Contains(Pt(1, 5), FillEvenOdd) {
		t.Error("even-odd should contain singly wound point")
	}
}

func TestPathFlattenCurves(t *testing.T) {
	p := NewPath()
	p.MoveTo(0, 0)
	p.CubicTo(0, 10, 10, 10, 10, 0)
	polys := p.Flatten(0.1)
	if len(polys) != 1 {
		t.Fatalf("got %d polylines, want 1", len(polys))
	}
	poly := polys[0]
	if len(poly) < 4 {
		t.Fatalf("curve flattened to %d points", len(poly))
	}
	if poly[0] != Pt(0, 0) || poly[len(poly)-1] != Pt(10, 0) {
		t.Errorf("endpoints %v .. %v", poly[0], poly[len(poly)-1])
	}
	// All interior points must stay inside the control hull.
	for _, q := range poly {
		if q.Y < -1e-9 || q.Y > 10+1e-9 || q.X < -1e-9 || q.X > 10+1e-9 {
			t.Errorf("flattened point %v outside hull", q)
		}
	}
}

func TestPathTransformed(t *testing.T) {
	p := rectPath(0, 0, 2, 2)
	q := p.Transformed(Translate(5, 5))
	if b := q.Bounds(); b != (Rect{X0: 5, Y0: 5, X1: 7, Y1: 7}) {
		t.Errorf("transformed bounds %+v", b)
	}
	// The original is untouched.
	if b := p.Bounds(); b != (Rect{X0: 0, Y0: 0, X1: 2, Y1: 2}) {
		t.Errorf("source mutated: %+v", b)
	}
}

func TestDeviceBounds(t *testing.T) {
	p := rectPath(0.2, 0.2, 1.8, 1.8)
	got := p.DeviceBounds(Scale(10, 10))
	want := IntRect{X0: 2, Y0: 2, X1: 18, Y1: 18}
	if got != want {
		t.Errorf("DeviceBounds = %+v, want %+v", got, want)
	}
	if math.IsNaN(float64(got.X0)) {
		t.Fatal("unreachable")
	}
}
