package veld

// Operator is a compositing operator, covering the Porter-Duff subset
// the compositor needs plus the SVG blend modes.
type Operator uint8

// Compositing operators.
const (
	// OpOver composites source over destination.
	OpOver Operator = iota

	// OpIn keeps source where destination alpha is set, scaled by it.
	OpIn

	// OpSource replaces the destination with the source.
	OpSource

	// OpDestIn keeps destination where source alpha is set, scaled by it.
	OpDestIn

	// SVG blend modes. These composite like OpOver but mix colors per
	// the CSS compositing specification.
	OpMultiply
	OpScreen
	OpOverlay
	OpDarken
	OpLighten
	OpColorDodge
	OpColorBurn
	OpHardLight
	OpSoftLight
	OpDifference
	OpExclusion
	OpHue
	OpSaturation
	OpColor
	OpLuminosity
)

// IsBlend reports whether the operator is an SVG blend mode rather than
// a plain Porter-Duff operator.
func (op Operator) IsBlend() bool {
	return op >= OpMultiply
}

// LineCap selects the stroke endpoint shape.
type LineCap uint8

// Line cap constants.
const (
	CapButt LineCap = iota
	CapRound
	CapSquare
)

// LineJoin selects the stroke corner shape.
type LineJoin uint8

// Line join constants.
const (
	JoinMiter LineJoin = iota
	JoinRound
	JoinBevel
)

// Antialias is a rendering quality level.
type Antialias uint8

// Antialias levels, from cheapest to best.
const (
	AntialiasNone Antialias = iota
	AntialiasFast
	AntialiasGood
	AntialiasBest
)

// DrawContext is the stateful drawing target the renderer paints into.
// It follows the Cairo model: a current transformation matrix, a current
// path, a current source, and a stack of groups for intermediate
// compositing. The software implementation is SoftContext; GPU or
// PDF-exporting backends implement the same interface.
type DrawContext interface {
	// Save pushes a copy of the graphics state (matrix, operator,
	// source, clip, stroke parameters). Restore pops it.
	Save()
	Restore()

	// PushGroup redirects drawing into a fresh transparent surface.
	// PopGroupToSource ends the group and installs its surface as the
	// current source. GroupTarget returns the surface currently being
	// drawn into.
	PushGroup()
	PopGroupToSource()
	GroupTarget() *Pixmap

	// Source control.
	SetSourceColor(RGBA)
	// SetSourcePixmap places the pixmap so that its device rectangle
	// aligns with the target's device space.
	SetSourcePixmap(*Pixmap)
	// SetSourcePattern installs a repeating pattern: the pixmap tiles
	// the plane, mapped by the pattern-to-device transform.
	SetSourcePattern(*Pixmap, Affine)

	SetOperator(Operator)
	Operator() Operator

	// Transform state. Transform premultiplies onto the ctm.
	Transform(Affine)
	SetMatrix(Affine)
	Matrix() Affine

	// Path construction, in user space.
	NewPath()
	Rectangle(Rect)
	AppendPath(*Path)

	// Painting.
	Paint()
	PaintWithAlpha(float64)
	Fill()
	FillPreserve()
	Stroke()
	StrokePreserve()

	// Clipping. Clip intersects the clip with the current path (using
	// the current fill rule) and clears the path.
	Clip()
	ResetClip()

	// Fill and stroke parameters.
	SetFillRule(FillRule)
	SetLineWidth(float64)
	SetHairline(bool)
	SetLineCap(LineCap)
	SetLineJoin(LineJoin)
	SetMiterLimit(float64)
	SetDash(pattern []float64, offset float64)
	SetAntialias(Antialias)

	// DeviceToUserDistance maps a device-space distance vector to user
	// space through the inverse of the ctm's linear part.
	DeviceToUserDistance(dx, dy float64) (float64, float64)
}
