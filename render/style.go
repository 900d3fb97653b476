package render

import (
	veld "github.com/veldgfx/veld"
)

// PaintKind discriminates a paint.
type PaintKind uint8

// Paint kinds.
const (
	// PaintNone draws nothing.
	PaintNone PaintKind = iota

	// PaintColor is a solid color with alpha.
	PaintColor

	// PaintServer defers to the item's attached pattern child.
	PaintServer
)

// Paint is a resolved fill or stroke paint.
type Paint struct {
	Kind    PaintKind
	Color   veld.RGBA
	Opacity float64
}

// IsNone reports whether the paint draws nothing.
func (p Paint) IsNone() bool {
	return p.Kind == PaintNone || p.Opacity <= 0
}

// PaintOrderLayer names one layer of the paint order.
type PaintOrderLayer uint8

// Paint order layers.
const (
	PaintOrderFill PaintOrderLayer = iota
	PaintOrderStroke
	PaintOrderMarkers
)

// Decoration describes one text decoration line to draw along a text
// item's advance.
type Decoration struct {
	// Offset is the vertical offset of the line from the baseline, in
	// item units (negative above).
	Offset float64

	// Thickness is the line thickness in item units.
	Thickness float64
}

// Style is the resolved style of a shape or text item. Styles are
// snapshotted out of the document's mutable style cascade when applied,
// so the render thread never touches cascade state.
type Style struct {
	Fill   Paint
	Stroke Paint

	StrokeWidth float64
	Dash        []float64
	DashOffset  float64
	LineCap     veld.LineCap
	LineJoin    veld.LineJoin
	MiterLimit  float64
	FillRule    veld.FillRule

	// Hairline forces the stroke to exactly one device pixel.
	Hairline bool

	// PaintOrder lists the layers bottom-to-top. Empty means the
	// default fill, stroke, markers.
	PaintOrder []PaintOrderLayer

	// Decorations are drawn phased along glyph advances.
	Decorations []Decoration
}

// DefaultStyle returns an opaque black fill with no stroke.
func DefaultStyle() Style {
	return Style{
		Fill:        Paint{Kind: PaintColor, Color: veld.Black, Opacity: 1},
		Stroke:      Paint{Kind: PaintNone},
		StrokeWidth: 1,
		MiterLimit:  4,
	}
}

// snapshot deep-copies the style so later caller mutations cannot reach
// the tree.
func (s Style) snapshot() Style {
	s.Dash = append([]float64(nil), s.Dash...)
	s.PaintOrder = append([]PaintOrderLayer(nil), s.PaintOrder...)
	s.Decorations = append([]Decoration(nil), s.Decorations...)
	return s
}

// order returns the effective paint order.
func (s *Style) order() []PaintOrderLayer {
	if len(s.PaintOrder) > 0 {
		return s.PaintOrder
	}
	return []PaintOrderLayer{PaintOrderFill, PaintOrderStroke, PaintOrderMarkers}
}

// hasStroke reports whether any stroke would be drawn.
func (s *Style) hasStroke() bool {
	return !s.Stroke.IsNone() && (s.StrokeWidth > 0 || s.Hairline)
}
