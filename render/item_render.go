package render

import (
	veld "github.com/veldgfx/veld"
)

// Render paints the item into dc within area (device pixels). stopAt,
// when non-nil, truncates the traversal for filter-background capture:
// the stop item's subtree is not drawn and its ancestors skip their own
// decorations.
func (b *ItemBase) Render(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	if b.self == stopAt {
		return RenderStop, nil
	}
	if !b.visible {
		return RenderOK, nil
	}
	if b.ctm.IsSingular() {
		return RenderOK, nil
	}
	carea := area.Intersect(b.drawbox)
	if carea.IsEmpty() {
		return RenderOK, nil
	}

	if flags&RenderOutline != 0 {
		return b.self.renderItem(dc, carea, flags, stopAt)
	}

	onStopPath := stopAt != nil && flags&RenderFilterBackground != 0 && b.isAncestorOf(stopAt)

	// Cached surface reuse: transform pixels scheduled at update time,
	// paint the clean parts, and narrow the repaint to what remains.
	usedCache := false
	if !onStopPath && flags&RenderBypassCache == 0 {
		b.cacheMu.Lock()
		if b.cache != nil {
			usedCache = true
			b.cache.applyPendingTransform()
			dirty := b.cache.paintClean(dc, carea, b.blend)
			if len(dirty) == 0 {
				b.cacheMu.Unlock()
				return RenderOK, nil
			}
			bound := veld.IntRect{}
			for _, r := range dirty {
				bound = bound.Union(r)
			}
			carea = bound
		} else if b.wantCache {
			cache, err := newItemCache(b.cacheRect(), b.drawing.deviceScale)
			if err != nil {
				// Allocation failure falls back to uncached painting.
				veld.Logger().Warn("render: cache allocation failed", "err", err)
				b.wantCache = false
			} else {
				b.cache = cache
				usedCache = true
				carea = carea.Intersect(cache.rect())
				if carea.IsEmpty() {
					b.cacheMu.Unlock()
					return RenderOK, nil
				}
			}
		}
		if !usedCache {
			b.cacheMu.Unlock()
		}
	}
	if usedCache {
		defer b.cacheMu.Unlock()
	} else if flags&RenderCacheOnly != 0 {
		return RenderOK, nil
	}

	filtersOn := b.filter != nil && flags&RenderNoFilters == 0 &&
		b.drawing.renderMode != RenderModeNoFilters
	isRoot := b.childType == ChildRoot
	grayRoot := isRoot && b.drawing.colorMode == ColorModeGrayscale

	needsIntermediate := b.clip != nil || b.mask != nil || filtersOn ||
		b.opacity < opaqueOpacityThreshold || b.blend != veld.OpOver ||
		b.isolation || grayRoot || b.containsUnisolatedBlend || usedCache
	if onStopPath {
		// Ancestors of the stop item render bare: their filters, masks
		// and opacity must not contaminate the captured background.
		needsIntermediate = false
	}

	if !needsIntermediate {
		return b.self.renderItem(dc, carea, flags, stopAt)
	}

	res, inter, err := b.renderIntermediate(carea, flags, stopAt, filtersOn, grayRoot)
	if err != nil {
		return res, err
	}

	if usedCache && b.cache != nil {
		b.cache.storeFrom(inter, carea)
	}

	// Composite the intermediate into the destination with the item's
	// blend mode.
	dc.Save()
	dc.SetMatrix(veld.Identity())
	dc.SetOperator(b.blend)
	dc.SetSourcePixmap(inter)
	dc.NewPath()
	dc.Rectangle(carea.Rect())
	dc.Fill()
	dc.Restore()
	return res, nil
}

// renderIntermediate composites the item through an RGBA intermediate
// surface sized to area: the accumulated clip, mask and opacity alpha
// restricts the item's own content, and filters and the grayscale
// matrix apply to the grouped content.
func (b *ItemBase) renderIntermediate(area veld.IntRect, flags RenderFlags, stopAt Item, filtersOn, grayRoot bool) (RenderResult, *veld.Pixmap, error) {
	surface, err := veld.NewPixmapAt(area, b.drawing.deviceScale)
	if err != nil {
		return RenderOK, nil, err
	}
	ic := veld.NewSoftContext(surface)
	ic.SetAntialias(b.drawing.effectiveAntialias(b.antialias))

	// Alpha accumulation: opacity, restricted by the clip silhouette,
	// then by the mask luminance.
	ic.SetOperator(veld.OpSource)
	ic.SetSourceColor(veld.RGBA{A: b.opacity})
	ic.Paint()

	if b.clip != nil {
		ic.PushGroup()
		if _, err := b.clip.Base().Render(ic, area, flags|renderAsClip, nil); err != nil {
			return RenderOK, nil, err
		}
		ic.PopGroupToSource()
		ic.SetOperator(veld.OpIn)
		ic.Paint()
	}

	if b.mask != nil {
		ic.PushGroup()
		if _, err := b.mask.Base().Render(ic, area, flags, nil); err != nil {
			return RenderOK, nil, err
		}
		target := ic.GroupTarget()
		luminanceToAlpha(target)
		ic.PopGroupToSource()
		ic.SetOperator(veld.OpIn)
		ic.Paint()
	}

	// Item content in its own group.
	ic.PushGroup()
	res, err := b.self.renderItem(ic, area, flags, stopAt)
	if err != nil {
		return res, nil, err
	}

	if filtersOn {
		var bgDC veld.DrawContext
		if b.filter.UsesBackground() {
			bgDC, err = b.renderFilterBackground(area)
			if err != nil {
				return res, nil, err
			}
		}
		if err := b.filter.Render(b.self, ic, bgDC); err != nil {
			return res, nil, err
		}
	}

	if grayRoot {
		applyGrayMatrix(ic.GroupTarget(), b.drawing.grayMatrix)
	}

	ic.PopGroupToSource()
	ic.SetOperator(veld.OpIn)
	ic.Paint()
	return res, surface, nil
}

// renderFilterBackground walks to the nearest background root and
// renders everything beneath this item into a fresh surface for
// backdrop-consuming filters.
func (b *ItemBase) renderFilterBackground(area veld.IntRect) (veld.DrawContext, error) {
	root := b.parent
	for root != nil {
		rb := root.Base()
		if rb.childType == ChildRoot || rb.backgroundRoot() {
			break
		}
		root = rb.parent
	}
	if root == nil {
		return nil, nil
	}
	surface, err := veld.NewPixmapAt(area, b.drawing.deviceScale)
	if err != nil {
		return nil, err
	}
	bg := veld.NewSoftContext(surface)
	if _, err := root.Base().Render(bg, area, RenderFilterBackground, b.self); err != nil {
		return nil, err
	}
	return bg, nil
}

// backgroundRoot reports whether the item starts a new filter
// background accumulation. Explicit isolation alone does not.
func (b *ItemBase) backgroundRoot() bool {
	return b.filter != nil && b.filter.UsesBackground()
}

// luminanceToAlpha converts a rendered mask group to an alpha channel
// using integer coefficients summing to 512:
// (r*109 + g*366 + b*37 + 256) >> 9.
func luminanceToAlpha(pm *veld.Pixmap) {
	pm.FilterPixels(func(r, g, bl, a uint8) (uint8, uint8, uint8, uint8) {
		lum := (uint32(r)*109 + uint32(g)*366 + uint32(bl)*37 + 256) >> 9
		return 0, 0, 0, uint8(lum)
	})
}

// applyGrayMatrix applies a 5x4 color matrix to every pixel of the
// surface, unpremultiplying around the transform.
func applyGrayMatrix(pm *veld.Pixmap, m [20]float64) {
	pm.FilterPixels(func(r, g, bl, a uint8) (uint8, uint8, uint8, uint8) {
		if a == 0 {
			return 0, 0, 0, 0
		}
		af := float64(a) / 255
		rf := float64(r) / 255 / af
		gf := float64(g) / 255 / af
		bf := float64(bl) / 255 / af
		nr := m[0]*rf + m[1]*gf + m[2]*bf + m[3]*af + m[4]
		ng := m[5]*rf + m[6]*gf + m[7]*bf + m[8]*af + m[9]
		nb := m[10]*rf + m[11]*gf + m[12]*bf + m[13]*af + m[14]
		na := m[15]*rf + m[16]*gf + m[17]*bf + m[18]*af + m[19]
		na = clampUnit(na)
		return uint8(clampUnit(nr) * na * 255), uint8(clampUnit(ng) * na * 255),
			uint8(clampUnit(nb) * na * 255), uint8(na * 255)
	})
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
