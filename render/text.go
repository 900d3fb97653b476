package render

import (
	veld "github.com/veldgfx/veld"
)

// Text is a group specialised for glyph sequences, carrying its own
// style block applied to every glyph. Its normal children must be
// Glyph items.
type Text struct {
	Group

	style Style
}

// NewText creates an orphan text item.
func NewText(d *Drawing) *Text {
	t := &Text{style: DefaultStyle()}
	t.initBase(t, d)
	return t
}

// SetStyle snapshots the text style.
func (t *Text) SetStyle(st Style) {
	snap := st.snapshot()
	t.drawing.Defer(func() {
		t.markForRendering()
		t.style = snap
		t.markForUpdate(StateAll, false)
	})
}

// Style returns the resolved text style.
func (t *Text) Style() Style { return t.style }

func (t *Text) updateItem(ctx UpdateContext, flags, reset StateFlags) error {
	for _, child := range t.children {
		if _, ok := child.(*Glyph); !ok {
			return ErrBadChild
		}
	}
	if err := t.Group.updateItem(ctx, flags, reset); err != nil {
		return err
	}
	// Decoration lines can reach outside the glyph boxes.
	if len(t.style.Decorations) > 0 {
		pad := 0.0
		for _, dec := range t.style.Decorations {
			if d := dec.Thickness; d > pad {
				pad = d
			}
		}
		scale := t.ctm.Expansion()
		t.bbox = t.bbox.Expanded(int(pad*scale) + 1)
		t.drawbox = t.drawbox.Union(t.bbox)
	}
	return nil
}

func (t *Text) renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	res, err := t.Group.renderItem(dc, area, flags, stopAt)
	if err != nil || res == RenderStop {
		return res, err
	}
	if flags&(RenderOutline|renderAsClip) != 0 || len(t.style.Decorations) == 0 {
		return res, nil
	}
	t.renderDecorations(dc)
	return res, nil
}

// renderDecorations draws decoration lines along the glyph advances,
// phased by each glyph's phase length so dashed decorations continue
// across glyph boundaries.
func (t *Text) renderDecorations(dc veld.DrawContext) {
	if t.style.Fill.IsNone() {
		return
	}
	dc.Save()
	defer dc.Restore()
	dc.SetMatrix(t.ctm)
	dc.SetSourceColor(t.style.Fill.Color.WithAlpha(t.style.Fill.Opacity))
	phase := 0.0
	for _, child := range t.children {
		g, ok := child.(*Glyph)
		if !ok {
			continue
		}
		origin := veld.Identity()
		if g.transform != nil {
			origin = *g.transform
		}
		x := origin.Translation().X
		y := origin.Translation().Y
		for _, dec := range t.style.Decorations {
			dc.NewPath()
			if len(t.style.Dash) > 0 {
				// Fills ignore the dash pattern, so a dashed decoration
				// is stroked as a butt-capped line of its thickness.
				line := veld.NewPath()
				line.MoveTo(x, y+dec.Offset)
				line.LineTo(x+g.advance, y+dec.Offset)
				dc.AppendPath(line)
				dc.SetLineWidth(dec.Thickness)
				dc.SetLineCap(veld.CapButt)
				dc.SetDash(t.style.Dash, t.style.DashOffset+phase)
				dc.Stroke()
				continue
			}
			dc.Rectangle(veld.NewRect(
				x, y+dec.Offset-dec.Thickness/2,
				x+g.advance, y+dec.Offset+dec.Thickness/2))
			dc.Fill()
		}
		phase += g.phaseLength
	}
}

func (t *Text) pickItem(p veld.Point, delta float64, flags PickFlags) Item {
	// Glyph hits resolve to the text item; glyphs are not individually
	// addressable.
	for i := len(t.children) - 1; i >= 0; i-- {
		if hit := t.children[i].Base().Pick(p, delta, flags|PickSticky); hit != nil {
			return t.self
		}
	}
	return nil
}

// Glyph is a single positioned glyph within a Text. It holds a shared
// immutable outline handle, an optional reference outline used for
// bounding-box picking when the glyph itself is whitespace, an optional
// color bitmap, and metrics.
type Glyph struct {
	ItemBase

	font *FontRef
	gid  uint16
	size float64

	// outline is resolved at update from font, gid and size.
	outline *veld.Path

	// refOutline stands in for empty (whitespace) glyphs during
	// picking.
	refOutline *veld.Path

	// colorBitmap replaces outline rendering for color fonts.
	colorBitmap *veld.Pixmap

	advance     float64
	ascent      float64
	descent     float64
	phaseLength float64
}

// NewGlyph creates an orphan glyph item.
func NewGlyph(d *Drawing) *Glyph {
	g := &Glyph{}
	g.initBase(g, d)
	return g
}

// SetGlyph sets the font, glyph id and size.
func (g *Glyph) SetGlyph(font *FontRef, gid uint16, size float64) {
	g.drawing.Defer(func() {
		g.markForRendering()
		g.font = font
		g.gid = gid
		g.size = size
		g.outline = nil
		g.markForUpdate(StateAll, false)
	})
}

// SetReferenceOutline sets the fallback outline used for picking
// whitespace glyphs.
func (g *Glyph) SetReferenceOutline(p *veld.Path) {
	g.drawing.Defer(func() {
		g.refOutline = p
		g.markForUpdate(StatePick, false)
	})
}

// SetColorBitmap installs a color-glyph bitmap drawn instead of the
// outline.
func (g *Glyph) SetColorBitmap(pm *veld.Pixmap) {
	g.drawing.Defer(func() {
		g.markForRendering()
		g.colorBitmap = pm
		g.markForUpdate(StateAll, false)
	})
}

// SetMetrics sets advance, ascent, descent and the phase length used by
// dashed decorations.
func (g *Glyph) SetMetrics(advance, ascent, descent, phaseLength float64) {
	g.drawing.Defer(func() {
		g.advance = advance
		g.ascent = ascent
		g.descent = descent
		g.phaseLength = phaseLength
		g.markForUpdate(StateBBox, false)
	})
}

// textStyle walks up to the owning text item's style.
func (g *Glyph) textStyle() *Style {
	for cur := g.parent; cur != nil; cur = cur.Base().parent {
		if t, ok := cur.(*Text); ok {
			return &t.style
		}
	}
	return nil
}

func (g *Glyph) updateItem(ctx UpdateContext, flags, reset StateFlags) error {
	if g.font != nil {
		g.outline = g.font.Outline(g.gid, g.size)
		if g.advance == 0 {
			g.advance = g.font.Advance(g.gid, g.size)
		}
	}
	bounds := veld.EmptyRect()
	if !g.outline.IsEmpty() {
		bounds = g.outline.Bounds()
	} else if g.refOutline != nil {
		bounds = g.refOutline.Bounds()
	} else if g.advance > 0 {
		// Whitespace with no reference outline: the advance box.
		bounds = veld.NewRect(0, -g.ascent, g.advance, g.descent)
	}
	g.itemBounds = bounds
	pad := 0.0
	if st := g.textStyle(); st != nil && st.hasStroke() {
		pad = st.StrokeWidth / 2 * g.ctm.Expansion()
		if pad < 1 {
			pad = 1
		}
	}
	g.bbox = bounds.Transformed(g.ctm).Expanded(pad).RoundOut()
	g.drawbox = g.bbox
	return nil
}

func (g *Glyph) renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	st := g.textStyle()
	if st == nil {
		return RenderOK, nil
	}

	if g.colorBitmap != nil && flags&(RenderOutline|renderAsClip) == 0 {
		dc.Save()
		dc.SetMatrix(veld.Identity())
		dc.SetSourcePixmap(g.colorBitmap)
		dc.NewPath()
		dc.Rectangle(g.bbox.Rect())
		dc.Fill()
		dc.Restore()
		return RenderOK, nil
	}

	if g.outline.IsEmpty() {
		return RenderOK, nil
	}

	dc.Save()
	defer dc.Restore()
	dc.SetMatrix(g.ctm)
	dc.SetAntialias(g.drawing.effectiveAntialias(g.antialias))
	dc.NewPath()
	dc.AppendPath(g.outline)

	if flags&renderAsClip != 0 {
		dc.SetSourceColor(veld.White)
		dc.SetFillRule(veld.FillNonZero)
		dc.Fill()
		return RenderOK, nil
	}
	if flags&RenderOutline != 0 {
		dc.SetSourceColor(g.drawing.outlineColor)
		dc.SetHairline(true)
		dc.Stroke()
		return RenderOK, nil
	}

	if !st.Fill.IsNone() {
		dc.SetFillRule(veld.FillNonZero)
		dc.SetSourceColor(st.Fill.Color.WithAlpha(st.Fill.Opacity))
		dc.FillPreserve()
	}
	if st.hasStroke() {
		dc.SetSourceColor(st.Stroke.Color.WithAlpha(st.Stroke.Opacity))
		dc.SetHairline(st.Hairline)
		if !st.Hairline {
			dc.SetLineWidth(st.StrokeWidth)
		}
		dc.SetLineCap(st.LineCap)
		dc.SetLineJoin(st.LineJoin)
		dc.SetMiterLimit(st.MiterLimit)
		dc.Stroke()
	}
	return RenderOK, nil
}

func (g *Glyph) pickItem(p veld.Point, delta float64, flags PickFlags) Item {
	inv, ok := g.ctm.Inverse()
	if !ok {
		return nil
	}
	up := inv.Apply(p)
	outline := g.outline
	if outline.IsEmpty() {
		outline = g.refOutline
	}
	if outline.IsEmpty() {
		if g.itemBounds.Contains(up) {
			return g.self
		}
		return nil
	}
	if outline.Contains(up, veld.FillNonZero) {
		return g.self
	}
	return nil
}
