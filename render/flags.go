// Package render implements the drawing tree of the display core: a
// mutable tree of drawable items mirroring an SVG document, maintaining
// derived data (transforms, bounding boxes, invalidation regions) with
// minimal recomputation, and compositing it with clips, masks, filters,
// opacity, blending and patterns into a DrawContext under an adaptive
// per-node cache governed by a memory budget.
package render

// StateFlags tracks which derived data of an item are current. A set
// bit always means the data is valid; mutators clear bits, never set
// them.
type StateFlags uint8

// State flag constants.
const (
	// StateBBox means the geometric bbox and drawbox are current.
	StateBBox StateFlags = 1 << iota

	// StateCache means cache eligibility has been decided.
	StateCache

	// StatePick means pick-related data is current.
	StatePick

	// StateRender means the rendered appearance is current.
	StateRender

	// StateBackground means filter-background accumulation state is
	// current.
	StateBackground

	// StateTotalInv is propagated through descendants to force full
	// cache invalidation below transformed high-complexity nodes.
	StateTotalInv

	// StateAll marks every derived datum current.
	StateAll = StateBBox | StateCache | StatePick | StateRender | StateBackground
)

// RenderFlags alter a render traversal.
type RenderFlags uint8

// Render flag constants.
const (
	// RenderDefault is the normal compositing path.
	RenderDefault RenderFlags = 0

	// RenderCacheOnly repaints only nodes holding a cache surface.
	RenderCacheOnly RenderFlags = 1 << iota

	// RenderBypassCache ignores cache surfaces, painting fresh.
	RenderBypassCache

	// RenderFilterBackground renders for filter background capture:
	// filters, masks and opacity of ancestors of the stop item are
	// skipped.
	RenderFilterBackground

	// RenderOutline draws outlines instead of full styling.
	RenderOutline

	// RenderNoFilters skips filter application.
	RenderNoFilters

	// RenderVisibleHairlines forces strokes to at least one device
	// pixel.
	RenderVisibleHairlines
)

// PickFlags alter a pick traversal.
type PickFlags uint8

// Pick flag constants.
const (
	// PickNormal is the default hit test.
	PickNormal PickFlags = 0

	// PickSticky ignores the sensitive flag.
	PickSticky PickFlags = 1 << iota

	// PickAsClip hit-tests as if items were clip paths (fill only,
	// everything sensitive).
	PickAsClip

	// PickOutline hit-tests outlines rather than filled areas.
	PickOutline
)

// ChildType records how an item hangs off its parent.
type ChildType uint8

// Child type constants.
const (
	// ChildOrphan is an unattached item.
	ChildOrphan ChildType = iota

	// ChildNormal is an ordinary member of the parent's child list.
	ChildNormal

	// ChildClip is attached through the clip slot.
	ChildClip

	// ChildMask is attached through the mask slot.
	ChildMask

	// ChildFill is attached through the fill-pattern slot.
	ChildFill

	// ChildStroke is attached through the stroke-pattern slot.
	ChildStroke

	// ChildRoot is the drawing root.
	ChildRoot
)

// RenderMode selects how the whole drawing is painted.
type RenderMode uint8

// Render modes.
const (
	// RenderModeNormal paints full styling.
	RenderModeNormal RenderMode = iota

	// RenderModeOutline paints outlines only.
	RenderModeOutline

	// RenderModeNoFilters paints full styling but skips filters.
	RenderModeNoFilters

	// RenderModeVisibleHairlines paints full styling with strokes
	// forced to at least one device pixel.
	RenderModeVisibleHairlines
)

// ColorMode selects the drawing-wide color treatment.
type ColorMode uint8

// Color modes.
const (
	// ColorModeNormal leaves colors untouched.
	ColorModeNormal ColorMode = iota

	// ColorModeGrayscale applies the drawing's gray matrix at the root.
	ColorModeGrayscale
)
