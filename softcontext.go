package veld

import (
	"math"
	"sort"
)

// Compile-time interface check.
var _ DrawContext = (*SoftContext)(nil)

// SoftContext is the software implementation of DrawContext, rendering
// into a Pixmap with a scanline rasterizer. It exists to back the mask,
// clip and pattern compositing paths of the drawing tree and the test
// suite; interactive backends implement DrawContext natively.
type SoftContext struct {
	targets []*Pixmap
	states  []softState
	path    *Path
}

// softState is one level of saved graphics state.
type softState struct {
	matrix     Affine
	op         Operator
	src        paintSource
	fillRule   FillRule
	lineWidth  float64
	hairline   bool
	lineCap    LineCap
	lineJoin   LineJoin
	miterLimit float64
	dash       []float64
	dashOffset float64
	antialias  Antialias
	clip       *clipMask
}

// clipMask is an 8-bit coverage mask aligned to a device rectangle.
type clipMask struct {
	rect  IntRect
	alpha []uint8
}

func (m *clipMask) at(x, y int) uint8 {
	if !m.rect.Contains(x, y) {
		return 0
	}
	return m.alpha[(y-m.rect.Y0)*m.rect.Width()+(x-m.rect.X0)]
}

// paintSource yields premultiplied source pixels at device coordinates.
type paintSource interface {
	at(x, y int) [4]uint8
}

type colorSource [4]uint8

func (c colorSource) at(int, int) [4]uint8 { return [4]uint8(c) }

type pixmapSource struct {
	pm *Pixmap
}

func (s pixmapSource) at(x, y int) [4]uint8 {
	r := s.pm.Rect()
	if !r.Contains(x, y) {
		return [4]uint8{}
	}
	i := ((y-r.Y0)*s.pm.width + (x - r.X0)) * 4
	return [4]uint8{s.pm.data[i], s.pm.data[i+1], s.pm.data[i+2], s.pm.data[i+3]}
}

type patternSource struct {
	pm  *Pixmap
	inv Affine // device -> pattern space
}

func (s patternSource) at(x, y int) [4]uint8 {
	p := s.inv.Apply(Point{X: float64(x) + 0.5, Y: float64(y) + 0.5})
	w, h := s.pm.width, s.pm.height
	if w == 0 || h == 0 {
		return [4]uint8{}
	}
	// The pattern space repeats with the surface's period; the surface
	// may sit anywhere in that space (its device origin says where).
	px := (int(math.Floor(p.X)) - s.pm.originX) % w
	py := (int(math.Floor(p.Y)) - s.pm.originY) % h
	if px < 0 {
		px += w
	}
	if py < 0 {
		py += h
	}
	i := (py*w + px) * 4
	return [4]uint8{s.pm.data[i], s.pm.data[i+1], s.pm.data[i+2], s.pm.data[i+3]}
}

// NewSoftContext creates a software context drawing into target.
func NewSoftContext(target *Pixmap) *SoftContext {
	return &SoftContext{
		targets: []*Pixmap{target},
		states: []softState{{
			matrix:     Identity(),
			op:         OpOver,
			src:        colorSource{0, 0, 0, 255},
			lineWidth:  1,
			miterLimit: 4,
		}},
		path: NewPath(),
	}
}

func (c *SoftContext) state() *softState { return &c.states[len(c.states)-1] }

func (c *SoftContext) target() *Pixmap { return c.targets[len(c.targets)-1] }

// Save pushes a copy of the graphics state.
func (c *SoftContext) Save() {
	c.states = append(c.states, *c.state())
}

// Restore pops the graphics state. The bottom state is never popped.
func (c *SoftContext) Restore() {
	if len(c.states) > 1 {
		c.states = c.states[:len(c.states)-1]
	}
}

// PushGroup redirects drawing into a fresh transparent surface covering
// the same device rectangle as the current target.
func (c *SoftContext) PushGroup() {
	cur := c.target()
	pm, err := NewPixmapAt(cur.Rect(), cur.scale)
	if err != nil {
		// Degenerate group: reuse the current target so drawing still
		// lands somewhere. Allocation of a group the size of an existing
		// surface cannot exceed the limit in practice.
		pm = cur
	}
	c.targets = append(c.targets, pm)
	c.Save()
	c.state().op = OpOver
}

// PopGroupToSource ends the group and installs it as the source.
func (c *SoftContext) PopGroupToSource() {
	if len(c.targets) == 1 {
		return
	}
	pm := c.target()
	c.targets = c.targets[:len(c.targets)-1]
	c.Restore()
	c.state().src = pixmapSource{pm: pm}
}

// GroupTarget returns the surface currently drawn into.
func (c *SoftContext) GroupTarget() *Pixmap { return c.target() }

// SetSourceColor installs a solid color source.
func (c *SoftContext) SetSourceColor(col RGBA) {
	a := clamp01(col.A)
	c.state().src = colorSource{
		uint8(clamp255(col.R * a * 255)),
		uint8(clamp255(col.G * a * 255)),
		uint8(clamp255(col.B * a * 255)),
		uint8(clamp255(a * 255)),
	}
}

// SetSourcePixmap installs a device-aligned pixmap source.
func (c *SoftContext) SetSourcePixmap(pm *Pixmap) {
	c.state().src = pixmapSource{pm: pm}
}

// SetSourcePattern installs a repeating pattern source mapped by the
// pattern-to-device transform.
func (c *SoftContext) SetSourcePattern(pm *Pixmap, patternToDevice Affine) {
	inv, ok := patternToDevice.Inverse()
	if !ok {
		c.state().src = colorSource{}
		return
	}
	c.state().src = patternSource{pm: pm, inv: inv}
}

// SetOperator sets the compositing operator.
func (c *SoftContext) SetOperator(op Operator) { c.state().op = op }

// Operator returns the current compositing operator.
func (c *SoftContext) Operator() Operator { return c.state().op }

// Transform premultiplies m onto the ctm.
func (c *SoftContext) Transform(m Affine) {
	c.state().matrix = c.state().matrix.Mul(m)
}

// SetMatrix replaces the ctm.
func (c *SoftContext) SetMatrix(m Affine) { c.state().matrix = m }

// Matrix returns the ctm.
func (c *SoftContext) Matrix() Affine { return c.state().matrix }

// NewPath clears the current path.
func (c *SoftContext) NewPath() { c.path = NewPath() }

// Rectangle appends a rectangle to the current path.
func (c *SoftContext) Rectangle(r Rect) { c.path.Rectangle(r) }

// AppendPath appends a path to the current path.
func (c *SoftContext) AppendPath(p *Path) { c.path.Append(p) }

// Paint fills the whole clip with the source.
func (c *SoftContext) Paint() { c.PaintWithAlpha(1) }

// PaintWithAlpha fills the whole clip with the source at the given
// opacity.
func (c *SoftContext) PaintWithAlpha(alpha float64) {
	cov := uint8(clamp255(clamp01(alpha) * 255))
	t := c.target()
	r := t.Rect()
	st := c.state()
	for y := r.Y0; y < r.Y1; y++ {
		for x := r.X0; x < r.X1; x++ {
			c.compositeAt(t, st, x, y, cov)
		}
	}
}

// Fill fills the current path and clears it.
func (c *SoftContext) Fill() {
	c.FillPreserve()
	c.NewPath()
}

// FillPreserve fills the current path, keeping it.
func (c *SoftContext) FillPreserve() {
	st := c.state()
	polys := c.path.Transformed(st.matrix).Flatten(flattenTolFor(st.antialias))
	c.rasterize(polys, st.fillRule, false)
}

// Stroke strokes the current path and clears it.
func (c *SoftContext) Stroke() {
	c.StrokePreserve()
	c.NewPath()
}

// StrokePreserve strokes the current path, keeping it.
func (c *SoftContext) StrokePreserve() {
	st := c.state()
	width := st.lineWidth
	var polys [][]Point
	if st.hairline {
		// Hairline: exactly one device pixel, independent of the ctm.
		devicePolys := c.path.Transformed(st.matrix).Flatten(flattenTolFor(st.antialias))
		for _, poly := range devicePolys {
			polys = append(polys, strokePolyline(applyDash(poly, st.dash, st.dashOffset), 1, st.lineCap, st.lineJoin, st.miterLimit)...)
		}
		c.rasterize(polys, FillNonZero, true)
		return
	}
	userPolys := c.path.Flatten(flattenTolFor(st.antialias))
	for _, poly := range userPolys {
		for _, outline := range strokePolyline(applyDash(poly, st.dash, st.dashOffset), width, st.lineCap, st.lineJoin, st.miterLimit) {
			dev := make([]Point, len(outline))
			for i, p := range outline {
				dev[i] = st.matrix.Apply(p)
			}
			polys = append(polys, dev)
		}
	}
	c.rasterize(polys, FillNonZero, true)
}

// Clip intersects the clip with the current path and clears the path.
func (c *SoftContext) Clip() {
	st := c.state()
	polys := c.path.Transformed(st.matrix).Flatten(flattenTolFor(st.antialias))
	mask := rasterizeMask(c.target().Rect(), polys, st.fillRule, false)
	if st.clip != nil {
		old := st.clip
		for i := range mask.alpha {
			x := mask.rect.X0 + i%mask.rect.Width()
			y := mask.rect.Y0 + i/mask.rect.Width()
			mask.alpha[i] = uint8(uint32(mask.alpha[i]) * uint32(old.at(x, y)) / 255)
		}
	}
	st.clip = mask
	c.NewPath()
}

// ResetClip removes all clipping.
func (c *SoftContext) ResetClip() { c.state().clip = nil }

// SetFillRule sets the fill rule used by Fill and Clip.
func (c *SoftContext) SetFillRule(fr FillRule) { c.state().fillRule = fr }

// SetLineWidth sets the stroke width in user units.
func (c *SoftContext) SetLineWidth(w float64) { c.state().lineWidth = w }

// SetHairline toggles device-pixel hairline stroking.
func (c *SoftContext) SetHairline(h bool) { c.state().hairline = h }

// SetLineCap sets the stroke cap.
func (c *SoftContext) SetLineCap(lc LineCap) { c.state().lineCap = lc }

// SetLineJoin sets the stroke join.
func (c *SoftContext) SetLineJoin(lj LineJoin) { c.state().lineJoin = lj }

// SetMiterLimit sets the miter limit.
func (c *SoftContext) SetMiterLimit(ml float64) { c.state().miterLimit = ml }

// SetDash sets the dash pattern; an empty pattern disables dashing.
func (c *SoftContext) SetDash(pattern []float64, offset float64) {
	st := c.state()
	st.dash = append([]float64(nil), pattern...)
	st.dashOffset = offset
}

// SetAntialias sets the rendering quality.
func (c *SoftContext) SetAntialias(aa Antialias) { c.state().antialias = aa }

// DeviceToUserDistance maps a device distance vector to user space.
func (c *SoftContext) DeviceToUserDistance(dx, dy float64) (float64, float64) {
	inv, ok := c.state().matrix.Inverse()
	if !ok {
		return dx, dy
	}
	p := inv.ApplyVector(Point{X: dx, Y: dy})
	return p.X, p.Y
}

func flattenTolFor(aa Antialias) float64 {
	switch aa {
	case AntialiasNone, AntialiasFast:
		return 0.5
	case AntialiasBest:
		return 0.1
	default:
		return DefaultFlattenTolerance
	}
}

// compositeAt composites the current source at (x, y) device into t with
// the state's operator, modulating by the clip mask.
func (c *SoftContext) compositeAt(t *Pixmap, st *softState, x, y int, coverage uint8) {
	if st.clip != nil {
		coverage = uint8(uint32(coverage) * uint32(st.clip.at(x, y)) / 255)
		if coverage == 0 && st.op != OpSource && st.op != OpIn && st.op != OpDestIn {
			return
		}
	}
	r := t.Rect()
	if !r.Contains(x, y) {
		return
	}
	i := ((y-r.Y0)*t.width + (x - r.X0)) * 4
	d := [4]uint8{t.data[i], t.data[i+1], t.data[i+2], t.data[i+3]}
	out := compositePixel(st.op, d, st.src.at(x, y), coverage)
	t.data[i], t.data[i+1], t.data[i+2], t.data[i+3] = out[0], out[1], out[2], out[3]
}

// rasterize fills the polygons into the current target through the
// current state. union selects union coverage (for strokes built from
// overlapping pieces) instead of global winding.
func (c *SoftContext) rasterize(polys [][]Point, rule FillRule, union bool) {
	st := c.state()
	t := c.target()
	mask := rasterizeMask(t.Rect(), polys, rule, union)
	w := mask.rect.Width()
	for i, cov := range mask.alpha {
		if cov == 0 && st.op != OpSource && st.op != OpIn && st.op != OpDestIn {
			continue
		}
		x := mask.rect.X0 + i%w
		y := mask.rect.Y0 + i/w
		c.compositeAt(t, st, x, y, cov)
	}
}

// rasterizeMask scanline-fills the polygons into a coverage mask over
// rect, sampling at pixel centers.
func rasterizeMask(rect IntRect, polys [][]Point, rule FillRule, union bool) *clipMask {
	mask := &clipMask{rect: rect, alpha: make([]uint8, rect.Area())}
	if union {
		for _, poly := range polys {
			fillPolyMask(mask, [][]Point{poly}, FillNonZero)
		}
		return mask
	}
	fillPolyMask(mask, polys, rule)
	return mask
}

// fillPolyMask ORs the filled area of polys into mask.
func fillPolyMask(mask *clipMask, polys [][]Point, rule FillRule) {
	type crossing struct {
		x   float64
		dir int
	}
	rect := mask.rect
	w := rect.Width()
	for y := rect.Y0; y < rect.Y1; y++ {
		yc := float64(y) + 0.5
		var xs []crossing
		for _, poly := range polys {
			n := len(poly)
			if n < 2 {
				continue
			}
			closed := poly
			if poly[0] != poly[n-1] {
				closed = append(append([]Point(nil), poly...), poly[0])
			}
			for i := 0; i+1 < len(closed); i++ {
				a, b := closed[i], closed[i+1]
				if a.Y == b.Y {
					continue
				}
				dir := 1
				lo, hi := a, b
				if a.Y > b.Y {
					lo, hi = b, a
					dir = -1
				}
				// Half-open [lo, hi) so shared vertices count once.
				if yc < lo.Y || yc >= hi.Y {
					continue
				}
				t := (yc - lo.Y) / (hi.Y - lo.Y)
				xs = append(xs, crossing{x: lo.X + t*(hi.X-lo.X), dir: dir})
			}
		}
		if len(xs) == 0 {
			continue
		}
		sort.Slice(xs, func(i, j int) bool { return xs[i].x < xs[j].x })
		wind := 0
		for i := 0; i < len(xs); i++ {
			wind += xs[i].dir
			if !insideRule(wind, rule) {
				continue
			}
			x0 := xs[i].x
			x1 := math.Inf(1)
			if i+1 < len(xs) {
				x1 = xs[i+1].x
			}
			px0 := int(math.Ceil(x0 - 0.5))
			px1 := int(math.Floor(x1 - 0.5))
			if px0 < rect.X0 {
				px0 = rect.X0
			}
			if px1 >= rect.X1 {
				px1 = rect.X1 - 1
			}
			for px := px0; px <= px1; px++ {
				mask.alpha[(y-rect.Y0)*w+(px-rect.X0)] = 255
			}
		}
	}
}

func insideRule(wind int, rule FillRule) bool {
	switch rule {
	case FillEvenOdd:
		return wind%2 != 0
	case FillPositive:
		return wind > 0
	case FillJustDont:
		return wind != 0
	default:
		return wind != 0
	}
}

// applyDash splits a polyline into dashed pieces. An empty pattern
// returns the polyline unchanged (as a single piece).
func applyDash(poly []Point, pattern []float64, offset float64) []Point {
	// Dashing for the software fallback keeps only the "on" pieces and
	// joins them into one polyline per piece boundary; pieces are
	// emitted by strokePolyline as separate outlines because every
	// segment gets its own quad.
	if len(pattern) == 0 {
		return poly
	}
	total := 0.0
	for _, d := range pattern {
		total += d
	}
	if total <= 0 {
		return poly
	}
	var out []Point
	phase := math.Mod(offset, total)
	if phase < 0 {
		phase += total
	}
	idx := 0
	for phase >= pattern[idx] {
		phase -= pattern[idx]
		idx = (idx + 1) % len(pattern)
	}
	on := idx%2 == 0
	remain := pattern[idx] - phase
	if on && len(poly) > 0 {
		out = append(out, poly[0])
	}
	for i := 0; i+1 < len(poly); i++ {
		a, b := poly[i], poly[i+1]
		segLen := a.Distance(b)
		pos := 0.0
		for segLen-pos > remain {
			pos += remain
			pt := a.Lerp(b, pos/segLen)
			if on {
				out = append(out, pt)
			} else {
				out = append(out, Point{X: math.NaN(), Y: math.NaN()}, pt)
			}
			on = !on
			idx = (idx + 1) % len(pattern)
			remain = pattern[idx]
		}
		remain -= segLen - pos
		if on {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// strokePolyline builds closed outline polygons covering the stroke of a
// polyline. NaN points act as pen-up breaks inserted by dashing.
func strokePolyline(poly []Point, width float64, lineCap LineCap, lineJoin LineJoin, miterLimit float64) [][]Point {
	if width <= 0 || len(poly) < 2 {
		return nil
	}
	hw := width / 2
	var out [][]Point
	var run []Point
	flushRun := func() {
		if len(run) >= 2 {
			out = append(out, strokeRun(run, hw, lineCap, lineJoin, miterLimit)...)
		}
		run = nil
	}
	for _, p := range poly {
		if math.IsNaN(p.X) {
			flushRun()
			continue
		}
		run = append(run, p)
	}
	flushRun()
	return out
}

// strokeRun outlines one unbroken polyline run.
func strokeRun(poly []Point, hw float64, lineCap LineCap, lineJoin LineJoin, miterLimit float64) [][]Point {
	var out [][]Point
	for i := 0; i+1 < len(poly); i++ {
		a, b := poly[i], poly[i+1]
		d := b.Sub(a)
		if d.LengthSquared() == 0 {
			continue
		}
		n := d.Normalize().Rot90().Mul(hw)
		out = append(out, []Point{a.Add(n), b.Add(n), b.Sub(n), a.Sub(n)})
	}
	// Joins: cover each interior vertex. Round joins get a polygonal
	// disc; miter and bevel get the disc too, which over-covers slightly
	// but keeps the fallback rasterizer simple.
	for i := 1; i+1 < len(poly); i++ {
		out = append(out, discPolygon(poly[i], hw))
	}
	closed := len(poly) > 2 && poly[0] == poly[len(poly)-1]
	if closed {
		out = append(out, discPolygon(poly[0], hw))
	} else if lineCap != CapButt {
		r := hw
		if lineCap == CapSquare {
			r = hw * math.Sqrt2
		}
		out = append(out, discPolygon(poly[0], r), discPolygon(poly[len(poly)-1], r))
	}
	_ = lineJoin
	_ = miterLimit
	return out
}

// discPolygon approximates a circle with a 16-gon.
func discPolygon(c Point, r float64) []Point {
	const n = 16
	pts := make([]Point, 0, n+1)
	for i := 0; i < n; i++ {
		a := 2 * math.Pi * float64(i) / n
		pts = append(pts, Point{X: c.X + r*math.Cos(a), Y: c.Y + r*math.Sin(a)})
	}
	pts = append(pts, pts[0])
	return pts
}
