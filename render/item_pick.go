package render

import (
	veld "github.com/veldgfx/veld"
)

// Pick returns the topmost sensitive, visible item whose visual extent
// contains p (device pixels) within delta, respecting clip and mask.
func (b *ItemBase) Pick(p veld.Point, delta float64, flags PickFlags) Item {
	if !b.visible {
		return nil
	}
	if flags&PickSticky == 0 && flags&PickAsClip == 0 && !b.sensitive {
		return nil
	}
	box := b.drawbox
	if flags&PickOutline != 0 {
		box = b.bbox
	}
	if !box.Rect().Expanded(delta).Contains(p) {
		return nil
	}
	if b.clip != nil {
		if b.clip.Base().Pick(p, delta, flags|PickAsClip) == nil {
			return nil
		}
	}
	if b.mask != nil && flags&PickAsClip == 0 {
		if b.mask.Base().Pick(p, delta, flags|PickSticky) == nil {
			return nil
		}
	}
	return b.self.pickItem(p, delta, flags)
}
