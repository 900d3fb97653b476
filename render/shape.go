package render

import (
	"math"
	"time"

	veld "github.com/veldgfx/veld"
)

// pickBudget is the time budget for one expensive shape pick; exceeding
// it short-circuits the next few picks to the previous result.
const pickBudget = 10 * time.Millisecond

// pickSkipCount is how many subsequent picks reuse the last result
// after a budget overrun.
const pickSkipCount = 4

// Shape is a styled path item. The path handle is shared and immutable;
// edits replace the handle rather than mutating the path.
type Shape struct {
	ItemBase

	path  *veld.Path
	style Style

	// Pick short-circuiting after over-budget hit tests.
	pickSkip int
	lastPick Item
}

// NewShape creates an orphan shape in the drawing.
func NewShape(d *Drawing) *Shape {
	s := &Shape{style: DefaultStyle()}
	s.initBase(s, d)
	return s
}

// SetPath replaces the shape's path geometry handle.
func (s *Shape) SetPath(p *veld.Path) {
	s.drawing.Defer(func() {
		s.markForRendering()
		s.path = p
		s.markForUpdate(StateAll, false)
	})
}

// Path returns the current path handle.
func (s *Shape) Path() *veld.Path { return s.path }

// SetStyle snapshots the style into the item. The caller's style struct
// is copied immediately so the render thread never reads mutable
// cascade state.
func (s *Shape) SetStyle(st Style) {
	snap := st.snapshot()
	s.drawing.Defer(func() {
		s.markForRendering()
		s.style = snap
		s.markForUpdate(StateAll, false)
	})
}

// Style returns the resolved style.
func (s *Shape) Style() Style { return s.style }

// strokePad returns the device-pixel padding the stroke adds around the
// geometric path.
func (s *Shape) strokePad() float64 {
	if !s.style.hasStroke() {
		return 0
	}
	if s.style.Hairline {
		return 1
	}
	pad := s.style.StrokeWidth / 2 * s.ctm.Expansion()
	if s.style.LineJoin == veld.JoinMiter && s.style.MiterLimit > 1 {
		pad *= s.style.MiterLimit
	}
	if pad < 1 {
		pad = 1
	}
	return pad
}

func (s *Shape) updateItem(ctx UpdateContext, flags, reset StateFlags) error {
	if s.path.IsEmpty() {
		s.bbox = veld.IntRect{}
		s.drawbox = veld.IntRect{}
		s.itemBounds = veld.EmptyRect()
		return nil
	}
	userBounds := s.path.Bounds()
	if s.itemBounds.IsEmpty() {
		s.itemBounds = userBounds
	}
	dev := userBounds.Transformed(s.ctm).Expanded(s.strokePad())
	s.bbox = dev.RoundOut()
	s.drawbox = s.bbox
	return nil
}

func (s *Shape) renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	if s.path.IsEmpty() {
		return RenderOK, nil
	}

	if flags&renderAsClip != 0 {
		dc.Save()
		dc.SetMatrix(s.ctm)
		dc.NewPath()
		dc.AppendPath(s.path)
		dc.SetFillRule(s.style.FillRule)
		dc.SetSourceColor(veld.White)
		dc.SetOperator(veld.OpOver)
		dc.Fill()
		dc.Restore()
		return RenderOK, nil
	}

	if flags&RenderOutline != 0 {
		dc.Save()
		dc.SetMatrix(s.ctm)
		dc.NewPath()
		dc.AppendPath(s.path)
		dc.SetSourceColor(s.drawing.outlineColor)
		dc.SetHairline(true)
		dc.Stroke()
		dc.Restore()
		return RenderOK, nil
	}

	dc.Save()
	defer dc.Restore()
	dc.SetMatrix(s.ctm)
	dc.SetAntialias(s.drawing.effectiveAntialias(s.antialias))
	dc.NewPath()
	dc.AppendPath(s.path)

	for _, layer := range s.style.order() {
		switch layer {
		case PaintOrderFill:
			if err := s.renderFill(dc, area); err != nil {
				return RenderOK, err
			}
		case PaintOrderStroke:
			if err := s.renderStroke(dc, area, flags); err != nil {
				return RenderOK, err
			}
		case PaintOrderMarkers:
			// Markers are separate sibling items built by the document
			// layer; nothing to draw here.
		}
	}
	return RenderOK, nil
}

// renderFill fills the current path with the fill paint.
func (s *Shape) renderFill(dc veld.DrawContext, area veld.IntRect) error {
	if s.style.Fill.IsNone() {
		return nil
	}
	dc.SetFillRule(s.style.FillRule)
	if err := s.setPaint(dc, s.style.Fill, s.fillPattern, area); err != nil {
		return err
	}
	dc.FillPreserve()
	return nil
}

// renderStroke strokes the current path with the stroke paint.
func (s *Shape) renderStroke(dc veld.DrawContext, area veld.IntRect, flags RenderFlags) error {
	st := &s.style
	if !st.hasStroke() {
		return nil
	}
	if err := s.setPaint(dc, st.Stroke, s.strokePattern, area); err != nil {
		return err
	}
	hairline := st.Hairline
	if flags&RenderVisibleHairlines != 0 || s.drawing.renderMode == RenderModeVisibleHairlines {
		// Keep strokes at least one device pixel wide. The pixel size
		// probe is anisotropic under shear; x is as good a choice as
		// any.
		px, _ := dc.DeviceToUserDistance(1, 0)
		if st.StrokeWidth < math.Abs(px) {
			hairline = true
		}
	}
	dc.SetHairline(hairline)
	if !hairline {
		dc.SetLineWidth(st.StrokeWidth)
	}
	dc.SetLineCap(st.LineCap)
	dc.SetLineJoin(st.LineJoin)
	dc.SetMiterLimit(st.MiterLimit)
	dc.SetDash(st.Dash, st.DashOffset)
	dc.StrokePreserve()
	dc.SetDash(nil, 0)
	dc.SetHairline(false)
	return nil
}

// setPaint installs a paint as the dc source, consulting the attached
// pattern item for paint servers.
func (s *Shape) setPaint(dc veld.DrawContext, p Paint, server Item, area veld.IntRect) error {
	if p.Kind == PaintServer {
		pat, ok := server.(*Pattern)
		if !ok || pat == nil {
			dc.SetSourceColor(veld.Transparent)
			return nil
		}
		pm, patternToDevice, err := pat.RenderTile(area, p.Opacity)
		if err != nil {
			return err
		}
		if pm == nil {
			dc.SetSourceColor(veld.Transparent)
			return nil
		}
		dc.SetSourcePattern(pm, patternToDevice)
		return nil
	}
	dc.SetSourceColor(p.Color.WithAlpha(p.Opacity))
	return nil
}

func (s *Shape) pickItem(p veld.Point, delta float64, flags PickFlags) Item {
	if s.path.IsEmpty() {
		return nil
	}
	if s.pickSkip > 0 {
		s.pickSkip--
		return s.lastPick
	}
	start := time.Now()

	inv, ok := s.ctm.Inverse()
	if !ok {
		return nil
	}
	up := inv.Apply(p)
	scale := s.ctm.Expansion()
	if scale <= 0 {
		scale = 1
	}
	userDelta := delta / scale

	var hit Item

	fillRule := s.style.FillRule
	testFill := !s.style.Fill.IsNone() || flags&PickAsClip != 0
	if flags&PickOutline != 0 {
		testFill = false
	}
	if testFill && s.path.Contains(up, fillRule) {
		hit = s.self
	}

	if hit == nil && (s.style.hasStroke() || flags&PickOutline != 0) && flags&PickAsClip == 0 {
		// Distance to the stroke centerline against half the width.
		limit := userDelta
		if !s.style.Hairline {
			limit += s.style.StrokeWidth / 2
		} else {
			limit += 1 / scale
		}
		if pathDistanceWithin(s.path, up, limit) {
			hit = s.self
		}
	}

	if time.Since(start) > pickBudget {
		s.pickSkip = pickSkipCount
	}
	s.lastPick = hit
	return hit
}

// pathDistanceWithin reports whether pt lies within limit of the
// flattened path.
func pathDistanceWithin(p *veld.Path, pt veld.Point, limit float64) bool {
	l2 := limit * limit
	for _, poly := range p.Flatten(0) {
		for i := 0; i+1 < len(poly); i++ {
			if segmentDistanceSquared(poly[i], poly[i+1], pt) <= l2 {
				return true
			}
		}
	}
	return false
}

// segmentDistanceSquared is the squared distance from pt to segment ab.
func segmentDistanceSquared(a, b, pt veld.Point) float64 {
	d := b.Sub(a)
	l2 := d.LengthSquared()
	if l2 == 0 {
		return pt.Sub(a).LengthSquared()
	}
	t := pt.Sub(a).Dot(d) / l2
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return pt.Sub(a.Add(d.Mul(t))).LengthSquared()
}
