package veld

import "math"

// Affine represents a 2D affine transformation matrix.
// It uses a 2x3 matrix in row-major order:
//
//	| a  b  c |
//	| d  e  f |
//
// This represents the transformation:
//
//	x' = a*x + b*y + c
//	y' = d*x + e*y + f
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Identity returns the identity transformation.
func Identity() Affine {
	return Affine{
		A: 1, B: 0, C: 0,
		D: 0, E: 1, F: 0,
	}
}

// Translate creates a translation transform.
func Translate(x, y float64) Affine {
	return Affine{
		A: 1, B: 0, C: x,
		D: 0, E: 1, F: y,
	}
}

// Scale creates a scaling transform.
func Scale(x, y float64) Affine {
	return Affine{
		A: x, B: 0, C: 0,
		D: 0, E: y, F: 0,
	}
}

// Rotate creates a rotation transform (angle in radians).
func Rotate(angle float64) Affine {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Affine{
		A: cos, B: -sin, C: 0,
		D: sin, E: cos, F: 0,
	}
}

// Mul composes two transforms (m applied after other).
func (m Affine) Mul(other Affine) Affine {
	return Affine{
		A: m.A*other.A + m.B*other.D,
		B: m.A*other.B + m.B*other.E,
		C: m.A*other.C + m.B*other.F + m.C,
		D: m.D*other.A + m.E*other.D,
		E: m.D*other.B + m.E*other.E,
		F: m.D*other.C + m.E*other.F + m.F,
	}
}

// Apply applies the transformation to a point.
func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y + m.C,
		Y: m.D*p.X + m.E*p.Y + m.F,
	}
}

// ApplyVector applies only the linear part of the transformation,
// ignoring translation. Used for direction vectors.
func (m Affine) ApplyVector(p Point) Point {
	return Point{
		X: m.A*p.X + m.B*p.Y,
		Y: m.D*p.X + m.E*p.Y,
	}
}

// Det returns the determinant of the linear part.
func (m Affine) Det() float64 {
	return m.A*m.E - m.B*m.D
}

// IsSingular reports whether the transform collapses the plane
// (zero or non-finite determinant).
func (m Affine) IsSingular() bool {
	det := m.Det()
	return det == 0 || math.IsNaN(det) || math.IsInf(det, 0)
}

// Inverse returns the inverse transform. ok is false for singular
// transforms, in which case the identity is returned.
func (m Affine) Inverse() (inv Affine, ok bool) {
	det := m.Det()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Identity(), false
	}
	id := 1 / det
	return Affine{
		A: m.E * id,
		B: -m.B * id,
		C: (m.B*m.F - m.E*m.C) * id,
		D: -m.D * id,
		E: m.A * id,
		F: (m.D*m.C - m.A*m.F) * id,
	}, true
}

// Translation returns the translation component.
func (m Affine) Translation() Point {
	return Point{X: m.C, Y: m.F}
}

// WithoutTranslation returns the transform with the translation zeroed.
func (m Affine) WithoutTranslation() Affine {
	m.C, m.F = 0, 0
	return m
}

// WithTranslation returns the transform with the translation replaced.
func (m Affine) WithTranslation(p Point) Affine {
	m.C, m.F = p.X, p.Y
	return m
}

// ExpansionX returns the length of the transformed unit x vector.
func (m Affine) ExpansionX() float64 {
	return math.Hypot(m.A, m.D)
}

// ExpansionY returns the length of the transformed unit y vector.
func (m Affine) ExpansionY() float64 {
	return math.Hypot(m.B, m.E)
}

// Expansion returns the uniform scale factor of the transform, the
// square root of the absolute determinant. Without shear this equals the
// geometric mean of the two axis expansions; for a similarity transform
// it is the exact scale factor.
func (m Affine) Expansion() float64 {
	return math.Sqrt(math.Abs(m.Det()))
}

// IsIdentity reports whether the transform is exactly the identity.
func (m Affine) IsIdentity() bool {
	return m == Identity()
}

// IsTranslation reports whether the transform is a pure translation.
func (m Affine) IsTranslation() bool {
	return m.A == 1 && m.B == 0 && m.D == 0 && m.E == 1
}

// Near reports whether two transforms are within eps of each other in
// every coefficient.
func (m Affine) Near(o Affine, eps float64) bool {
	return math.Abs(m.A-o.A) <= eps && math.Abs(m.B-o.B) <= eps &&
		math.Abs(m.C-o.C) <= eps && math.Abs(m.D-o.D) <= eps &&
		math.Abs(m.E-o.E) <= eps && math.Abs(m.F-o.F) <= eps
}
