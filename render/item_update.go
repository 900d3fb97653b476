package render

import (
	"math"

	veld "github.com/veldgfx/veld"
)

// Update recomputes the item's derived data within area (device
// pixels). flags selects which state to bring up to date; reset forces
// bits stale before the walk. Children are visited through the
// item-specific hook.
func (b *ItemBase) Update(area veld.IntRect, ctx UpdateContext, flags, reset StateFlags) error {
	// Invisible subtrees are skipped wholesale; edits re-invalidate.
	if !b.visible {
		b.state = StateAll
		return nil
	}

	reset |= b.propagateState
	b.propagateState = 0
	b.state &^= reset
	forceTotalInv := reset&StateTotalInv != 0

	if flags&^b.state == 0 && !forceTotalInv {
		return nil
	}

	// With a current bbox and no overlap with the updated area, there
	// is nothing to recompute here. Items with no visual extent of
	// their own (paint servers) never prune this way.
	if b.state&StateBBox != 0 && !area.IsEmpty() && !b.drawbox.IsEmpty() && !area.Intersects(b.drawbox) {
		return nil
	}

	childCtm := ctx.Transform
	if b.transform != nil {
		childCtm = childCtm.Mul(*b.transform)
	}
	childCtm = applyVectorEffect(b.effect, childCtm)

	// Detect a materially changed total transform and remember the
	// delta for cache surface reuse.
	affineChanged := !b.ctm.Near(childCtm, 1e-9)
	var delta veld.Affine
	if affineChanged {
		if inv, ok := b.ctm.Inverse(); ok {
			delta = childCtm.Mul(inv)
		} else {
			delta = childCtm
		}
	}
	b.ctm = childCtm

	if forceTotalInv {
		b.cacheMu.Lock()
		if b.cache != nil {
			b.cache.markDirty(b.cache.rect())
		}
		b.cacheMu.Unlock()
		b.dropPatternCaches()
	}

	// High-complexity subtrees under a transform change invalidate
	// wholesale rather than tracking fine-grained damage.
	childReset := reset
	if b.updateComplexity >= totalInvComplexity && affineChanged {
		childReset |= StateTotalInv
	}

	b.updateComplexity = 1

	childCtx := UpdateContext{Transform: childCtm}
	if err := b.self.updateItem(childCtx, flags, childReset); err != nil {
		return err
	}

	if flags&StateBBox != 0 {
		b.updateDrawbox(area, childCtx, flags, childReset)
	}

	if flags&StateCache != 0 {
		b.updateCacheState(affineChanged, delta)
	}

	if flags&StateRender != 0 && !b.isContainer() {
		b.markForRendering()
	}

	b.state |= flags
	return nil
}

// applyVectorEffect transforms the child ctm per the vector effect.
func applyVectorEffect(e VectorEffect, m veld.Affine) veld.Affine {
	switch e {
	case EffectFixed:
		return m.WithTranslation(veld.Point{})
	case EffectNonScalingSize:
		ex := m.Expansion()
		if ex > 0 {
			lin := m.WithoutTranslation()
			scale := 1 / ex
			lin = veld.Scale(scale, scale).Mul(lin)
			return lin.WithTranslation(m.Translation())
		}
		return m
	case EffectNonScalingRotate:
		det := m.Det()
		s := math.Sqrt(math.Abs(det))
		if det < 0 {
			s = -s
		}
		return veld.Scale(s, s).WithTranslation(m.Translation())
	default:
		return m
	}
}

// isContainer reports whether the item is a plain grouping node with no
// drawable content of its own.
func (b *ItemBase) isContainer() bool {
	_, isGroup := b.self.(*Group)
	return isGroup
}

// updateDrawbox derives the visual bbox from the geometric one, asking
// the filter for its margin and intersecting with the clip and mask
// extents, which are updated here as well.
func (b *ItemBase) updateDrawbox(area veld.IntRect, ctx UpdateContext, flags, reset StateFlags) {
	b.drawbox = b.bbox
	if b.filter != nil && b.drawing.renderMode != RenderModeNoFilters {
		enlarged := b.filter.AreaEnlarge(b.bbox.Rect(), b.self)
		b.drawbox = enlarged.RoundOut()
		b.filter.Update()
	}
	for _, aux := range []Item{b.clip, b.mask, b.fillPattern, b.strokePattern} {
		if aux == nil {
			continue
		}
		ab := aux.Base()
		if err := ab.Update(area, ctx, flags, reset); err != nil {
			veld.Logger().Warn("render: auxiliary child update failed", "err", err)
			continue
		}
		b.updateComplexity += ab.updateComplexity
	}
	if b.clip != nil {
		b.drawbox = b.drawbox.Intersect(b.clip.Base().bbox)
	}
	if b.mask != nil {
		b.drawbox = b.drawbox.Intersect(b.mask.Base().drawbox)
	}
}

// dropPatternCaches clears the tile caches of attached paint servers.
func (b *ItemBase) dropPatternCaches() {
	for _, aux := range []Item{b.fillPattern, b.strokePattern} {
		if p, ok := aux.(*Pattern); ok {
			p.dropTileCache()
		}
	}
}

// updateCacheState rescores the item for caching and manages its
// existing cache surface across the transform change.
func (b *ItemBase) updateCacheState(affineChanged bool, delta veld.Affine) {
	d := b.drawing
	d.removeCandidate(b)

	cacheable := !b.containsUnisolatedBlend || b.isolated()

	rect := b.cacheRect()
	score := float64(rect.Area())
	if b.filter != nil {
		c := b.filter.Complexity(b.ctm)
		if c > 1 {
			score *= c
		}
	}
	if b.clip != nil {
		score += 0.5 * float64(b.clip.Base().bbox.Area())
	}
	if b.mask != nil {
		score += b.mask.Base().cacheScore
	}
	b.cacheScore = score

	eligible := score >= cacheScoreThreshold && cacheable && !rect.IsEmpty()
	if eligible {
		d.addCandidate(b)
	}

	b.cacheMu.Lock()
	defer b.cacheMu.Unlock()
	if b.cache == nil {
		return
	}
	if b.visible && eligible && !rect.IsEmpty() {
		if affineChanged {
			b.cache.scheduleTransform(delta)
		}
	} else {
		b.cache = nil
		b.wantCache = false
	}
}

// cacheRect is the device rectangle a cache surface for this item would
// cover: the drawbox clipped to the drawing-wide cache limit. For
// filtered items whose drawbox is cut by the limit, the rectangle is
// grown so that a centred inner region of half the area stays within
// the geometric bbox, keeping filter margins correct near the viewport
// edge.
func (b *ItemBase) cacheRect() veld.IntRect {
	limit := b.drawing.cacheLimit
	if limit.IsEmpty() {
		return b.drawbox
	}
	rect := b.drawbox.Intersect(limit)
	if b.filter == nil || rect == b.drawbox || rect.IsEmpty() {
		return rect
	}
	growW := (b.bbox.Width() - rect.Width()) / 4
	growH := (b.bbox.Height() - rect.Height()) / 4
	if growW > 0 {
		rect.X0 -= growW
		rect.X1 += growW
	}
	if growH > 0 {
		rect.Y0 -= growH
		rect.Y1 += growH
	}
	return rect.Intersect(b.drawbox)
}
