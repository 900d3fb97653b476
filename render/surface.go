package render

import (
	veld "github.com/veldgfx/veld"
)

// itemCache is a device-pixel raster of an item's composited output,
// with a clean region tracking which parts are currently valid. The
// clean region is always a subset of the surface's pixel rectangle.
//
// Access is serialised by the owning item's cache mutex.
type itemCache struct {
	surface *veld.Pixmap

	// clean covers the valid subrectangles of the surface.
	clean veld.Region

	// pending is a transform scheduled at update time, applied to the
	// surface on the next render. Only set between update and render.
	pending    veld.Affine
	hasPending bool
}

// newItemCache allocates a cache surface over the device rectangle.
func newItemCache(rect veld.IntRect, scale float64) (*itemCache, error) {
	pm, err := veld.NewPixmapAt(rect, scale)
	if err != nil {
		return nil, err
	}
	return &itemCache{surface: pm}, nil
}

// rect returns the device rectangle covered by the surface.
func (c *itemCache) rect() veld.IntRect {
	return c.surface.Rect()
}

// sizeBytes returns the surface's memory footprint.
func (c *itemCache) sizeBytes() int {
	return c.surface.SizeBytes()
}

// markClean records that area now holds valid pixels.
func (c *itemCache) markClean(area veld.IntRect) {
	area = area.Intersect(c.rect())
	c.clean.Add(area)
}

// markDirty invalidates area.
func (c *itemCache) markDirty(area veld.IntRect) {
	c.clean.Subtract(area)
}

// dirtyWithin returns the parts of area not covered by the clean
// region.
func (c *itemCache) dirtyWithin(area veld.IntRect) []veld.IntRect {
	area = area.Intersect(c.rect())
	if area.IsEmpty() {
		return nil
	}
	dirty := veld.NewRegion(area)
	for _, r := range c.clean.Rects() {
		dirty.Subtract(r)
	}
	return dirty.Rects()
}

// scheduleTransform records an affine delta to apply to the cached
// pixels before their next use.
func (c *itemCache) scheduleTransform(delta veld.Affine) {
	if c.hasPending {
		c.pending = delta.Mul(c.pending)
	} else {
		c.pending = delta
		c.hasPending = true
	}
}

// applyPendingTransform transforms the cached surface according to the
// scheduled delta. Integer translations shift the content and clean
// region; any other transform dirties everything, leaving the surface
// in place for repainting.
func (c *itemCache) applyPendingTransform() {
	if !c.hasPending {
		return
	}
	delta := c.pending
	c.hasPending = false
	if delta.IsIdentity() {
		return
	}
	t := delta.Translation()
	dx, dy := int(t.X), int(t.Y)
	if delta.IsTranslation() && t.X == float64(dx) && t.Y == float64(dy) {
		moved, err := veld.NewPixmapAt(c.rect(), c.surface.Scale())
		if err != nil {
			c.clean.Clear()
			return
		}
		moved.BlitShifted(c.surface, dx, dy)
		c.surface = moved
		shifted := c.clean.Translated(dx, dy)
		shifted.Intersect(c.rect())
		c.clean = shifted
		return
	}
	// Non-translation deltas cannot reuse pixels faithfully.
	c.clean.Clear()
}

// paintClean paints the clean parts of area from the cache into dc with
// the given operator, returning the still-dirty subrectangles of area.
func (c *itemCache) paintClean(dc veld.DrawContext, area veld.IntRect, op veld.Operator) []veld.IntRect {
	dirty := c.dirtyWithin(area)
	dc.Save()
	dc.SetMatrix(veld.Identity())
	dc.SetOperator(op)
	dc.SetSourcePixmap(c.surface)
	for _, r := range c.clean.Rects() {
		vis := r.Intersect(area)
		if vis.IsEmpty() {
			continue
		}
		dc.NewPath()
		dc.Rectangle(vis.Rect())
		dc.Fill()
	}
	dc.Restore()
	return dirty
}

// storeFrom copies area from src into the cache surface and marks it
// clean.
func (c *itemCache) storeFrom(src *veld.Pixmap, area veld.IntRect) {
	c.surface.BlitRect(src, area)
	c.markClean(area)
}
