package veld

import "math"

// Rect is an axis-aligned rectangle with float64 coordinates.
// A Rect with X1 < X0 or Y1 < Y0 is empty; EmptyRect returns the
// canonical empty value.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// EmptyRect returns the canonical empty rectangle.
func EmptyRect() Rect {
	return Rect{X0: math.Inf(1), Y0: math.Inf(1), X1: math.Inf(-1), Y1: math.Inf(-1)}
}

// NewRect creates a rectangle from two corner points, normalising the order.
func NewRect(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// IsEmpty reports whether the rectangle contains no points.
func (r Rect) IsEmpty() bool {
	return r.X1 < r.X0 || r.Y1 < r.Y0
}

// Width returns the horizontal extent, or 0 for an empty rectangle.
func (r Rect) Width() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.X1 - r.X0
}

// Height returns the vertical extent, or 0 for an empty rectangle.
func (r Rect) Height() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.Y1 - r.Y0
}

// Area returns the area, or 0 for an empty rectangle.
func (r Rect) Area() float64 {
	return r.Width() * r.Height()
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// UnionPoint returns the rectangle expanded to contain p.
func (r Rect) UnionPoint(p Point) Rect {
	return r.Union(Rect{X0: p.X, Y0: p.Y, X1: p.X, Y1: p.Y})
}

// Intersect returns the intersection of the two rectangles.
func (r Rect) Intersect(o Rect) Rect {
	if r.IsEmpty() || o.IsEmpty() {
		return EmptyRect()
	}
	out := Rect{
		X0: math.Max(r.X0, o.X0),
		Y0: math.Max(r.Y0, o.Y0),
		X1: math.Min(r.X1, o.X1),
		Y1: math.Min(r.Y1, o.Y1),
	}
	if out.IsEmpty() {
		return EmptyRect()
	}
	return out
}

// Intersects reports whether the two rectangles share any point.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersect(o).IsEmpty()
}

// Contains reports whether the point lies inside the rectangle
// (boundary inclusive).
func (r Rect) Contains(p Point) bool {
	return !r.IsEmpty() && p.X >= r.X0 && p.X <= r.X1 && p.Y >= r.Y0 && p.Y <= r.Y1
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	if o.IsEmpty() {
		return true
	}
	return !r.IsEmpty() && o.X0 >= r.X0 && o.X1 <= r.X1 && o.Y0 >= r.Y0 && o.Y1 <= r.Y1
}

// Expanded returns the rectangle grown by d on every side.
// A negative d shrinks the rectangle and may make it empty.
func (r Rect) Expanded(d float64) Rect {
	if r.IsEmpty() {
		return r
	}
	out := Rect{X0: r.X0 - d, Y0: r.Y0 - d, X1: r.X1 + d, Y1: r.Y1 + d}
	if out.IsEmpty() {
		return EmptyRect()
	}
	return out
}

// Translated returns the rectangle shifted by the vector p.
func (r Rect) Translated(p Point) Rect {
	if r.IsEmpty() {
		return r
	}
	return Rect{X0: r.X0 + p.X, Y0: r.Y0 + p.Y, X1: r.X1 + p.X, Y1: r.Y1 + p.Y}
}

// Transformed returns the bounding box of the rectangle under m.
func (r Rect) Transformed(m Affine) Rect {
	if r.IsEmpty() {
		return r
	}
	out := EmptyRect()
	for _, c := range [4]Point{{r.X0, r.Y0}, {r.X1, r.Y0}, {r.X1, r.Y1}, {r.X0, r.Y1}} {
		out = out.UnionPoint(m.Apply(c))
	}
	return out
}

// Min returns the corner with the smallest coordinates.
func (r Rect) Min() Point { return Point{X: r.X0, Y: r.Y0} }

// Max returns the corner with the largest coordinates.
func (r Rect) Max() Point { return Point{X: r.X1, Y: r.Y1} }

// Mid returns the centre point.
func (r Rect) Mid() Point { return Point{X: (r.X0 + r.X1) / 2, Y: (r.Y0 + r.Y1) / 2} }

// Near reports whether two rectangles agree within eps on every side.
func (r Rect) Near(o Rect, eps float64) bool {
	if r.IsEmpty() || o.IsEmpty() {
		return r.IsEmpty() == o.IsEmpty()
	}
	return math.Abs(r.X0-o.X0) <= eps && math.Abs(r.Y0-o.Y0) <= eps &&
		math.Abs(r.X1-o.X1) <= eps && math.Abs(r.Y1-o.Y1) <= eps
}

// RoundOut returns the smallest IntRect containing r.
func (r Rect) RoundOut() IntRect {
	if r.IsEmpty() {
		return IntRect{}
	}
	return IntRect{
		X0: int(math.Floor(r.X0)),
		Y0: int(math.Floor(r.Y0)),
		X1: int(math.Ceil(r.X1)),
		Y1: int(math.Ceil(r.Y1)),
	}
}

// IntRect is an axis-aligned rectangle with integer (device pixel)
// coordinates. The zero IntRect is empty.
type IntRect struct {
	X0, Y0, X1, Y1 int
}

// NewIntRect creates an integer rectangle, normalising the corner order.
func NewIntRect(x0, y0, x1, y1 int) IntRect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return IntRect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

// IsEmpty reports whether the rectangle covers no pixels.
func (r IntRect) IsEmpty() bool {
	return r.X1 <= r.X0 || r.Y1 <= r.Y0
}

// Width returns the horizontal pixel extent.
func (r IntRect) Width() int {
	if r.IsEmpty() {
		return 0
	}
	return r.X1 - r.X0
}

// Height returns the vertical pixel extent.
func (r IntRect) Height() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Y1 - r.Y0
}

// Area returns the pixel count.
func (r IntRect) Area() int {
	return r.Width() * r.Height()
}

// Union returns the smallest rectangle containing both.
func (r IntRect) Union(o IntRect) IntRect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	return IntRect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

// Intersect returns the intersection, or the zero rectangle if disjoint.
func (r IntRect) Intersect(o IntRect) IntRect {
	if r.IsEmpty() || o.IsEmpty() {
		return IntRect{}
	}
	out := IntRect{
		X0: max(r.X0, o.X0),
		Y0: max(r.Y0, o.Y0),
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
	}
	if out.IsEmpty() {
		return IntRect{}
	}
	return out
}

// Intersects reports whether the two rectangles share any pixel.
func (r IntRect) Intersects(o IntRect) bool {
	return !r.Intersect(o).IsEmpty()
}

// Contains reports whether the pixel (x, y) lies inside the rectangle.
func (r IntRect) Contains(x, y int) bool {
	return x >= r.X0 && x < r.X1 && y >= r.Y0 && y < r.Y1
}

// ContainsRect reports whether o lies entirely inside r.
func (r IntRect) ContainsRect(o IntRect) bool {
	if o.IsEmpty() {
		return true
	}
	return !r.IsEmpty() && o.X0 >= r.X0 && o.X1 <= r.X1 && o.Y0 >= r.Y0 && o.Y1 <= r.Y1
}

// Expanded returns the rectangle grown by d pixels on every side.
func (r IntRect) Expanded(d int) IntRect {
	if r.IsEmpty() {
		return r
	}
	out := IntRect{X0: r.X0 - d, Y0: r.Y0 - d, X1: r.X1 + d, Y1: r.Y1 + d}
	if out.IsEmpty() {
		return IntRect{}
	}
	return out
}

// Translated returns the rectangle shifted by (dx, dy).
func (r IntRect) Translated(dx, dy int) IntRect {
	if r.IsEmpty() {
		return r
	}
	return IntRect{X0: r.X0 + dx, Y0: r.Y0 + dy, X1: r.X1 + dx, Y1: r.Y1 + dy}
}

// Rect converts to a float rectangle.
func (r IntRect) Rect() Rect {
	if r.IsEmpty() {
		return EmptyRect()
	}
	return Rect{X0: float64(r.X0), Y0: float64(r.Y0), X1: float64(r.X1), Y1: float64(r.Y1)}
}
