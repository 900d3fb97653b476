package render

import (
	veld "github.com/veldgfx/veld"
)

// Filter is the interface the filter runtime implements. The drawing
// tree owns no filter primitives itself; it asks the filter for area
// enlargement during update and hands it the intermediate surface
// during render.
type Filter interface {
	// Update refreshes filter-internal derived data after a style or
	// transform change.
	Update()

	// Render applies the filter to the item's intermediate surface in
	// dc. bgDC carries the rendered background when the filter uses
	// one, and is nil otherwise.
	Render(item Item, dc veld.DrawContext, bgDC veld.DrawContext) error

	// AreaEnlarge grows a device-space rectangle by the filter's
	// margin for the given item.
	AreaEnlarge(area veld.Rect, item Item) veld.Rect

	// EffectArea returns the filter effect region for an item-space
	// bbox.
	EffectArea(itemBBox veld.Rect) veld.Rect

	// UsesBackground reports whether the filter reads the backdrop.
	UsesBackground() bool

	// Complexity estimates the per-pixel cost under the given
	// transform, with 1 meaning free. Cache scoring multiplies by it.
	Complexity(ctm veld.Affine) float64
}
