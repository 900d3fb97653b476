package render

import (
	veld "github.com/veldgfx/veld"
)

// ImageItem is a raster source with source-rectangle placement: the
// sub-rectangle src of the pixbuf maps onto the user-space rectangle
// dst.
type ImageItem struct {
	ItemBase

	pixbuf *veld.Pixmap
	src    veld.Rect
	dst    veld.Rect
}

// NewImageItem creates an orphan image item.
func NewImageItem(d *Drawing) *ImageItem {
	im := &ImageItem{}
	im.initBase(im, d)
	return im
}

// SetPixbuf installs the raster source. The item shares the pixmap; the
// caller must not mutate it afterwards.
func (im *ImageItem) SetPixbuf(pm *veld.Pixmap) {
	im.drawing.Defer(func() {
		im.markForRendering()
		im.pixbuf = pm
		if pm != nil && im.src.IsEmpty() {
			im.src = veld.NewRect(0, 0, float64(pm.Width()), float64(pm.Height()))
		}
		im.markForUpdate(StateAll, false)
	})
}

// SetSourceRect selects the pixbuf sub-rectangle to display.
func (im *ImageItem) SetSourceRect(r veld.Rect) {
	im.drawing.Defer(func() {
		im.markForRendering()
		im.src = r
		im.markForUpdate(StateAll, false)
	})
}

// SetDestRect places the image in user space.
func (im *ImageItem) SetDestRect(r veld.Rect) {
	im.drawing.Defer(func() {
		im.markForRendering()
		im.dst = r
		im.markForUpdate(StateAll, false)
	})
}

func (im *ImageItem) updateItem(ctx UpdateContext, flags, reset StateFlags) error {
	if im.pixbuf == nil || im.dst.IsEmpty() {
		im.bbox = veld.IntRect{}
		im.drawbox = veld.IntRect{}
		return nil
	}
	im.itemBounds = im.dst
	im.bbox = im.dst.Transformed(im.ctm).RoundOut()
	im.drawbox = im.bbox
	return nil
}

// pixbufToUser maps pixbuf pixel coordinates to user space.
func (im *ImageItem) pixbufToUser() veld.Affine {
	sx := im.dst.Width() / im.src.Width()
	sy := im.dst.Height() / im.src.Height()
	return veld.Translate(im.dst.X0, im.dst.Y0).
		Mul(veld.Scale(sx, sy)).
		Mul(veld.Translate(-im.src.X0, -im.src.Y0))
}

func (im *ImageItem) renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	if im.pixbuf == nil || im.src.IsEmpty() || im.dst.IsEmpty() {
		return RenderOK, nil
	}
	dc.Save()
	defer dc.Restore()
	dc.SetMatrix(im.ctm)
	dc.SetAntialias(im.drawing.effectiveAntialias(im.antialias))
	dc.NewPath()
	dc.Rectangle(im.dst)

	if flags&RenderOutline != 0 {
		dc.SetSourceColor(im.drawing.outlineColor)
		dc.SetHairline(true)
		dc.Stroke()
		return RenderOK, nil
	}
	if flags&renderAsClip != 0 {
		dc.SetSourceColor(veld.White)
		dc.Fill()
		return RenderOK, nil
	}

	dc.SetSourcePattern(im.pixbuf, im.ctm.Mul(im.pixbufToUser()))
	dc.Fill()
	return RenderOK, nil
}

func (im *ImageItem) pickItem(p veld.Point, delta float64, flags PickFlags) Item {
	if im.pixbuf == nil {
		return nil
	}
	inv, ok := im.ctm.Inverse()
	if !ok {
		return nil
	}
	up := inv.Apply(p)
	if !im.dst.Expanded(delta / maxf(im.ctm.Expansion(), 1e-9)).Contains(up) {
		return nil
	}
	if flags&PickAsClip != 0 {
		return im.self
	}
	// Transparent pixels do not pick.
	uinv, ok := im.pixbufToUser().Inverse()
	if !ok {
		return im.self
	}
	pp := uinv.Apply(up)
	c := im.pixbuf.GetPixel(int(pp.X), int(pp.Y))
	if c.A <= 0 {
		return nil
	}
	return im.self
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
