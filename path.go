package veld

import "math"

// FillRule selects how windings are turned into interior area.
type FillRule uint8

// Fill rule constants.
const (
	// FillNonZero fills where the winding number is non-zero.
	FillNonZero FillRule = iota

	// FillEvenOdd fills where the winding number is odd.
	FillEvenOdd

	// FillPositive fills where the winding number is strictly positive.
	FillPositive

	// FillJustDont performs no winding-based filtering at all; only
	// degenerate geometry is discarded.
	FillJustDont
)

// String returns a human-readable name for the fill rule.
func (fr FillRule) String() string {
	switch fr {
	case FillNonZero:
		return "NonZero"
	case FillEvenOdd:
		return "EvenOdd"
	case FillPositive:
		return "Positive"
	case FillJustDont:
		return "JustDont"
	default:
		return "Unknown"
	}
}

// PathElement represents a single element in a path.
type PathElement interface {
	isPathElement()
}

// MoveTo moves to a point without drawing.
type MoveTo struct {
	Point Point
}

func (MoveTo) isPathElement() {}

// LineTo draws a line to a point.
type LineTo struct {
	Point Point
}

func (LineTo) isPathElement() {}

// QuadTo draws a quadratic Bezier curve.
type QuadTo struct {
	Control Point
	Point   Point
}

func (QuadTo) isPathElement() {}

// CubicTo draws a cubic Bezier curve.
type CubicTo struct {
	Control1 Point
	Control2 Point
	Point    Point
}

func (CubicTo) isPathElement() {}

// ClosePath closes the current subpath.
type ClosePath struct{}

func (ClosePath) isPathElement() {}

// Path represents a vector path: an ordered sequence of subpaths built
// from lines and Bezier curves. Path values are cheap to share; the
// drawing tree holds paths behind immutable handles and never mutates a
// path it did not build.
type Path struct {
	elements []PathElement
	start    Point
	current  Point
}

// NewPath creates a new empty path.
func NewPath() *Path {
	return &Path{
		elements: make([]PathElement, 0, 16),
	}
}

// MoveTo starts a new subpath at (x, y).
func (p *Path) MoveTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, MoveTo{Point: pt})
	p.start = pt
	p.current = pt
}

// LineTo draws a line to (x, y).
func (p *Path) LineTo(x, y float64) {
	pt := Pt(x, y)
	p.elements = append(p.elements, LineTo{Point: pt})
	p.current = pt
}

// QuadraticTo draws a quadratic Bezier curve.
func (p *Path) QuadraticTo(cx, cy, x, y float64) {
	p.elements = append(p.elements, QuadTo{Control: Pt(cx, cy), Point: Pt(x, y)})
	p.current = Pt(x, y)
}

// CubicTo draws a cubic Bezier curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	p.elements = append(p.elements, CubicTo{
		Control1: Pt(c1x, c1y),
		Control2: Pt(c2x, c2y),
		Point:    Pt(x, y),
	})
	p.current = Pt(x, y)
}

// Close closes the current subpath.
func (p *Path) Close() {
	p.elements = append(p.elements, ClosePath{})
	p.current = p.start
}

// Rectangle appends a closed rectangular subpath.
func (p *Path) Rectangle(r Rect) {
	if r.IsEmpty() {
		return
	}
	p.MoveTo(r.X0, r.Y0)
	p.LineTo(r.X1, r.Y0)
	p.LineTo(r.X1, r.Y1)
	p.LineTo(r.X0, r.Y1)
	p.Close()
}

// Elements returns the raw element sequence. The returned slice is owned
// by the path and must not be modified.
func (p *Path) Elements() []PathElement {
	return p.elements
}

// IsEmpty reports whether the path has no elements.
func (p *Path) IsEmpty() bool {
	return p == nil || len(p.elements) == 0
}

// Append appends all subpaths of o to p.
func (p *Path) Append(o *Path) {
	if o == nil {
		return
	}
	p.elements = append(p.elements, o.elements...)
	p.start = o.start
	p.current = o.current
}

// Copy returns a deep copy of the path.
func (p *Path) Copy() *Path {
	out := &Path{
		elements: make([]PathElement, len(p.elements)),
		start:    p.start,
		current:  p.current,
	}
	copy(out.elements, p.elements)
	return out
}

// Transformed returns a copy of the path with every coordinate mapped
// through m.
func (p *Path) Transformed(m Affine) *Path {
	out := &Path{elements: make([]PathElement, 0, len(p.elements))}
	for _, e := range p.elements {
		switch e := e.(type) {
		case MoveTo:
			out.elements = append(out.elements, MoveTo{Point: m.Apply(e.Point)})
		case LineTo:
			out.elements = append(out.elements, LineTo{Point: m.Apply(e.Point)})
		case QuadTo:
			out.elements = append(out.elements, QuadTo{Control: m.Apply(e.Control), Point: m.Apply(e.Point)})
		case CubicTo:
			out.elements = append(out.elements, CubicTo{
				Control1: m.Apply(e.Control1),
				Control2: m.Apply(e.Control2),
				Point:    m.Apply(e.Point),
			})
		case ClosePath:
			out.elements = append(out.elements, e)
		}
	}
	return out
}

// Bounds returns the bounding box of the path's control polygon.
// Control points of curves are included, so the result is a conservative
// cover of the exact extent.
func (p *Path) Bounds() Rect {
	out := EmptyRect()
	if p == nil {
		return out
	}
	for _, e := range p.elements {
		switch e := e.(type) {
		case MoveTo:
			out = out.UnionPoint(e.Point)
		case LineTo:
			out = out.UnionPoint(e.Point)
		case QuadTo:
			out = out.UnionPoint(e.Control).UnionPoint(e.Point)
		case CubicTo:
			out = out.UnionPoint(e.Control1).UnionPoint(e.Control2).UnionPoint(e.Point)
		}
	}
	return out
}

// DeviceBounds returns the outwards-rounded device bounds of the path
// under the given transform.
func (p *Path) DeviceBounds(m Affine) IntRect {
	return p.Bounds().Transformed(m).RoundOut()
}

// DefaultFlattenTolerance is the curve flattening tolerance used when 0
// is passed to Flatten.
const DefaultFlattenTolerance = 0.25

// Flatten converts the path to polylines, one per subpath, subdividing
// curves until they deviate from their chords by at most tol.
// Closed subpaths end with a repetition of their first point.
func (p *Path) Flatten(tol float64) [][]Point {
	if tol <= 0 {
		tol = DefaultFlattenTolerance
	}
	var out [][]Point
	var cur []Point
	var start Point
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, e := range p.elements {
		switch e := e.(type) {
		case MoveTo:
			flush()
			start = e.Point
			cur = []Point{e.Point}
		case LineTo:
			cur = append(cur, e.Point)
		case QuadTo:
			if len(cur) == 0 {
				cur = []Point{start}
			}
			cur = flattenQuad(cur, cur[len(cur)-1], e.Control, e.Point, tol)
		case CubicTo:
			if len(cur) == 0 {
				cur = []Point{start}
			}
			cur = flattenCubic(cur, cur[len(cur)-1], e.Control1, e.Control2, e.Point, tol)
		case ClosePath:
			if len(cur) > 1 && cur[len(cur)-1] != start {
				cur = append(cur, start)
			}
			flush()
		}
	}
	flush()
	return out
}

// flattenQuad appends a flattened quadratic Bezier to dst.
func flattenQuad(dst []Point, p0, c, p1 Point, tol float64) []Point {
	n := quadSegments(p0, c, p1, tol)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		a := p0.Lerp(c, t)
		b := c.Lerp(p1, t)
		dst = append(dst, a.Lerp(b, t))
	}
	return dst
}

// flattenCubic appends a flattened cubic Bezier to dst.
func flattenCubic(dst []Point, p0, c1, c2, p1 Point, tol float64) []Point {
	n := cubicSegments(p0, c1, c2, p1, tol)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		a := p0.Lerp(c1, t)
		b := c1.Lerp(c2, t)
		c := c2.Lerp(p1, t)
		ab := a.Lerp(b, t)
		bc := b.Lerp(c, t)
		dst = append(dst, ab.Lerp(bc, t))
	}
	return dst
}

// quadSegments estimates the segment count needed to flatten a quadratic
// Bezier to within tol using the deviation of the control point from the
// chord.
func quadSegments(p0, c, p1 Point, tol float64) int {
	dev := c.Sub(p0.Lerp(p1, 0.5)).Length()
	n := int(math.Ceil(math.Sqrt(dev / tol)))
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}
	return n
}

// cubicSegments estimates the segment count needed to flatten a cubic
// Bezier to within tol.
func cubicSegments(p0, c1, c2, p1 Point, tol float64) int {
	d1 := c1.Sub(p0.Lerp(p1, 1.0/3)).Length()
	d2 := c2.Sub(p0.Lerp(p1, 2.0/3)).Length()
	dev := math.Max(d1, d2)
	n := int(math.Ceil(math.Sqrt(3 * dev / tol)))
	if n < 1 {
		n = 1
	}
	if n > 64 {
		n = 64
	}
	return n
}

// Winding returns the winding number of the path around pt, computed on
// the flattened path with a rightwards ray. A crossing exactly at a
// segment endpoint contributes half a crossing for each incident
// segment, so two segments meeting on the ray count once and a segment
// merely touching the ray counts zero.
func (p *Path) Winding(pt Point) int {
	var w float64
	for _, poly := range p.Flatten(0) {
		w += polylineWinding(poly, pt)
	}
	return int(math.Round(w))
}

// polylineWinding returns the (fractional) winding contribution of one
// polyline around pt.
func polylineWinding(poly []Point, pt Point) float64 {
	var w float64
	n := len(poly)
	if n < 2 {
		return 0
	}
	// Treat the polyline as closed for winding purposes.
	closed := poly
	if poly[0] != poly[n-1] {
		closed = append(append([]Point(nil), poly...), poly[0])
	}
	for i := 0; i+1 < len(closed); i++ {
		w += segmentCrossing(closed[i], closed[i+1], pt)
	}
	return w
}

// segmentCrossing returns the signed crossing contribution of the
// directed segment a->b with the rightwards horizontal ray from pt.
// Endpoints lying exactly on the ray contribute half.
func segmentCrossing(a, b, pt Point) float64 {
	if a.Y == b.Y {
		return 0
	}
	dir := 1.0
	if a.Y > b.Y {
		a, b = b, a
		dir = -1
	}
	// Closed interval, with half-weights at exact endpoint hits.
	if pt.Y < a.Y || pt.Y > b.Y {
		return 0
	}
	// Intersection x of the segment with the horizontal line through pt.
	t := (pt.Y - a.Y) / (b.Y - a.Y)
	x := a.X + t*(b.X-a.X)
	if x <= pt.X {
		return 0
	}
	w := 1.0
	if pt.Y == a.Y || pt.Y == b.Y {
		w = 0.5
	}
	return dir * w
}

// Contains reports whether pt is inside the path under the fill rule.
func (p *Path) Contains(pt Point, rule FillRule) bool {
	w := p.Winding(pt)
	switch rule {
	case FillEvenOdd:
		return w%2 != 0
	case FillPositive:
		return w > 0
	default:
		return w != 0
	}
}
