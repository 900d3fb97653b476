package veld

import (
	"math"
	"testing"
)

func TestAffineMulApply(t *testing.T) {
	m := Translate(10, 20).Mul(Scale(2, 3))
	got := m.Apply(Pt(1, 1))
	want := Pt(12, 23)
	if !got.Near(want, 1e-12) {
		t.Errorf("Apply = %+v, want %+v", got, want)
	}
}

func TestAffineInverse(t *testing.T) {
	tests := []struct {
		name string
		m    Affine
		ok   bool
	}{
		{"identity", Identity(), true},
		{"translate", Translate(5, -3), true},
		{"scale", Scale(2, 0.5), true},
		{"rotate", Rotate(math.Pi / 3), true},
		{"composite", Translate(1, 2).Mul(Rotate(0.7)).Mul(Scale(3, 3)), true},
		{"singular", Scale(0, 1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, ok := tt.m.Inverse()
			if ok != tt.ok {
				t.Fatalf("Inverse ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			round := tt.m.Mul(inv)
			if !round.Near(Identity(), 1e-9) {
				t.Errorf("m * m^-1 = %+v, want identity", round)
			}
		})
	}
}

func TestAffineExpansion(t *testing.T) {
	tests := []struct {
		name string
		m    Affine
		want float64
	}{
		{"identity", Identity(), 1},
		{"uniform scale", Scale(3, 3), 3},
		{"non-uniform", Scale(2, 8), 4},
		{"rotation", Rotate(1.1), 1},
		{"reflection", Scale(-2, 2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.m.Expansion(); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Expansion = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAffineTranslationExtraction(t *testing.T) {
	m := Rotate(0.3).WithTranslation(Pt(7, -2))
	if got := m.Translation(); !got.Near(Pt(7, -2), 1e-12) {
		t.Errorf("Translation = %+v", got)
	}
	if got := m.WithoutTranslation().Translation(); got != (Point{}) {
		t.Errorf("WithoutTranslation kept %+v", got)
	}
	if !m.WithoutTranslation().WithTranslation(m.Translation()).Near(m, 0) {
		t.Error("translation round-trip changed the matrix")
	}
}
