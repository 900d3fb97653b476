package render

import (
	"errors"
	"sync"

	veld "github.com/veldgfx/veld"
)

// ErrBadChild reports a violated parent/child type precondition, such
// as a text item containing a non-glyph.
var ErrBadChild = errors.New("render: invalid child type for item")

// renderAsClip is an internal render flag: paint the item as an opaque
// silhouette for clip compositing.
const renderAsClip RenderFlags = 1 << 7

// opaqueOpacityThreshold is the opacity above which an item is treated
// as fully opaque and needs no intermediate surface for it.
const opaqueOpacityThreshold = 0.995

// totalInvComplexity is the update complexity at and above which a
// transformed node totally invalidates its descendants' caches instead
// of tracking fine-grained damage.
const totalInvComplexity = 20

// cacheScoreThreshold is the minimum cache score for an item to enter
// the drawing-wide candidate list.
const cacheScoreThreshold = 50000

// RenderResult signals how a render traversal ended.
type RenderResult uint8

// Render results.
const (
	// RenderOK means the subtree rendered completely.
	RenderOK RenderResult = iota

	// RenderStop means the stop-at item was reached.
	RenderStop
)

// VectorEffect modifies how the ctm reaches an item's children.
type VectorEffect uint8

// Vector effects.
const (
	// EffectNone applies the ctm unchanged.
	EffectNone VectorEffect = iota

	// EffectFixed zeroes the ctm translation.
	EffectFixed

	// EffectNonScalingSize normalises the linear part to unit
	// expansion.
	EffectNonScalingSize

	// EffectNonScalingRotate replaces the linear part by a pure
	// uniform scale preserving the determinant's magnitude and sign.
	EffectNonScalingRotate
)

// UpdateContext carries per-traversal state down an update.
type UpdateContext struct {
	// Transform is the accumulated parent-to-device transform.
	Transform veld.Affine
}

// Item is a node of the drawing tree. Concrete kinds embed ItemBase and
// implement the item-specific hooks.
type Item interface {
	// Base returns the embedded common node state.
	Base() *ItemBase

	// updateItem recomputes item-specific derived data (bounding boxes
	// of own geometry, recursion into children) under the child ctm.
	updateItem(ctx UpdateContext, flags, reset StateFlags) error

	// renderItem paints the item's own content into dc. The generic
	// wrapper has already handled caching, clipping, masking, filters
	// and opacity.
	renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error)

	// pickItem hit-tests the item's own content; the generic wrapper
	// has already handled visibility, sensitivity, clip and mask.
	pickItem(p veld.Point, delta float64, flags PickFlags) Item
}

// ItemBase is the common state of every drawing item.
type ItemBase struct {
	self    Item
	drawing *Drawing
	parent  Item

	// children holds the normal children in z-order: the front of the
	// slice is the bottom of the stack.
	children []Item

	clip          Item
	mask          Item
	fillPattern   Item
	strokePattern Item
	filter        Filter

	childType ChildType

	// transform is the optional incremental transform from parent to
	// this item; nil means identity and is never stored explicitly.
	transform *veld.Affine

	// ctm is the cached total transform, item to device, valid while
	// StateBBox is set.
	ctm veld.Affine

	// effect modifies how the ctm reaches children.
	effect VectorEffect

	// bbox is the stroke-inclusive geometric bounding box in device
	// pixels; drawbox the visual one (filter-enlarged, clip/mask
	// shrunk).
	bbox    veld.IntRect
	drawbox veld.IntRect

	// itemBounds is the item-space bbox used for object-bounding-box
	// paint servers and filter effect regions.
	itemBounds veld.Rect

	opacity   float64
	blend     veld.Operator
	isolation bool
	antialias veld.Antialias
	visible   bool
	sensitive bool

	state          StateFlags
	propagateState StateFlags

	updateComplexity        int
	containsUnisolatedBlend bool

	// pickChildren makes a group return the hit child instead of
	// itself.
	pickChildren bool

	// Cache state. cacheMu serialises access to cache from render and
	// background threads.
	cacheMu    sync.Mutex
	cache      *itemCache
	wantCache  bool
	cacheScore float64
}

// initBase wires the embedded base to its concrete item and drawing.
func (b *ItemBase) initBase(self Item, d *Drawing) {
	b.self = self
	b.drawing = d
	b.opacity = 1
	b.blend = veld.OpOver
	b.antialias = veld.AntialiasGood
	b.visible = true
	b.sensitive = true
	b.childType = ChildOrphan
	b.ctm = veld.Identity()
	b.itemBounds = veld.EmptyRect()
}

// Base returns the node's common state.
func (b *ItemBase) Base() *ItemBase { return b }

// Drawing returns the owning drawing.
func (b *ItemBase) Drawing() *Drawing { return b.drawing }

// Parent returns the owning item, nil for the root and orphans.
func (b *ItemBase) Parent() Item { return b.parent }

// Children returns the normal children bottom-to-top. The slice is
// owned by the item.
func (b *ItemBase) Children() []Item { return b.children }

// BBox returns the geometric bounding box in device pixels.
func (b *ItemBase) BBox() veld.IntRect { return b.bbox }

// Drawbox returns the visual bounding box in device pixels.
func (b *ItemBase) Drawbox() veld.IntRect { return b.drawbox }

// ItemBounds returns the item-space bounding box.
func (b *ItemBase) ItemBounds() veld.Rect { return b.itemBounds }

// Ctm returns the cached total transform.
func (b *ItemBase) Ctm() veld.Affine { return b.ctm }

// Visible reports the visible flag.
func (b *ItemBase) Visible() bool { return b.visible }

// ChildKind reports how the item is attached to its parent.
func (b *ItemBase) ChildKind() ChildType { return b.childType }

// --- Mutation API -----------------------------------------------------
//
// All mutators run through the drawing's deferral: immediate when the
// drawing is not snapshotted, queued otherwise. Appearance-changing
// mutators invalidate the current visual rectangle before the change
// and schedule recomputation after it.

// AppendChild attaches child on top of the normal children.
func (b *ItemBase) AppendChild(child Item) {
	b.drawing.Defer(func() {
		child.Base().attach(b.self, ChildNormal)
		b.children = append(b.children, child)
		b.childAttached(child)
	})
}

// PrependChild attaches child at the bottom of the normal children.
func (b *ItemBase) PrependChild(child Item) {
	b.drawing.Defer(func() {
		child.Base().attach(b.self, ChildNormal)
		b.children = append([]Item{child}, b.children...)
		b.childAttached(child)
	})
}

// ClearChildren detaches and destroys all normal children.
func (b *ItemBase) ClearChildren() {
	b.drawing.Defer(func() {
		b.markForRendering()
		for _, c := range b.children {
			c.Base().destroy()
		}
		b.children = nil
		b.markForUpdate(StateAll, false)
	})
}

// SetZOrder moves child to position pos among the normal children
// (0 = bottom).
func (b *ItemBase) SetZOrder(child Item, pos int) {
	b.drawing.Defer(func() {
		at := -1
		for i, c := range b.children {
			if c == child {
				at = i
				break
			}
		}
		if at < 0 {
			return
		}
		b.markForRendering()
		b.children = append(b.children[:at], b.children[at+1:]...)
		if pos < 0 {
			pos = 0
		}
		if pos > len(b.children) {
			pos = len(b.children)
		}
		b.children = append(b.children[:pos], append([]Item{child}, b.children[pos:]...)...)
		b.markForUpdate(StateRender, false)
	})
}

// SetTransform sets the incremental transform. Identity transforms are
// not stored.
func (b *ItemBase) SetTransform(m veld.Affine) {
	b.drawing.Defer(func() {
		cur := veld.Identity()
		if b.transform != nil {
			cur = *b.transform
		}
		if cur.Near(m, 1e-12) {
			return
		}
		b.markForRendering()
		if m.IsIdentity() {
			b.transform = nil
		} else {
			mm := m
			b.transform = &mm
		}
		b.markForUpdate(StateAll, true)
	})
}

// SetOpacity sets the group opacity in [0, 1].
func (b *ItemBase) SetOpacity(o float64) {
	b.drawing.Defer(func() {
		b.markForRendering()
		b.opacity = o
		b.markForUpdate(StateRender|StateCache, false)
	})
}

// SetAntialias sets the antialiasing level.
func (b *ItemBase) SetAntialias(aa veld.Antialias) {
	b.drawing.Defer(func() {
		b.markForRendering()
		b.antialias = aa
		b.markForUpdate(StateRender, true)
	})
}

// SetIsolation sets explicit isolation.
func (b *ItemBase) SetIsolation(iso bool) {
	b.drawing.Defer(func() {
		b.markForRendering()
		b.isolation = iso
		b.markForUpdate(StateRender|StateCache, false)
	})
}

// SetBlendMode sets the blend operator used to composite the item.
func (b *ItemBase) SetBlendMode(op veld.Operator) {
	b.drawing.Defer(func() {
		b.markForRendering()
		b.blend = op
		b.markForUpdate(StateRender|StateCache, false)
	})
}

// SetVisible sets the visible flag.
func (b *ItemBase) SetVisible(v bool) {
	b.drawing.Defer(func() {
		if b.visible == v {
			return
		}
		b.markForRendering()
		b.visible = v
		b.markForUpdate(StateAll, true)
	})
}

// SetSensitive sets the pick-sensitive flag.
func (b *ItemBase) SetSensitive(s bool) {
	b.drawing.Defer(func() {
		b.sensitive = s
		b.markForUpdate(StatePick, false)
	})
}

// SetVectorEffect sets how the ctm reaches children.
func (b *ItemBase) SetVectorEffect(e VectorEffect) {
	b.drawing.Defer(func() {
		b.markForRendering()
		b.effect = e
		b.markForUpdate(StateAll, true)
	})
}

// SetClip attaches item through the clip slot, destroying any previous
// clip. Pass nil to remove.
func (b *ItemBase) SetClip(item Item) { b.setAux(&b.clip, item, ChildClip) }

// SetMask attaches item through the mask slot.
func (b *ItemBase) SetMask(item Item) { b.setAux(&b.mask, item, ChildMask) }

// SetFillPattern attaches the fill paint server subtree.
func (b *ItemBase) SetFillPattern(item Item) { b.setAux(&b.fillPattern, item, ChildFill) }

// SetStrokePattern attaches the stroke paint server subtree.
func (b *ItemBase) SetStrokePattern(item Item) { b.setAux(&b.strokePattern, item, ChildStroke) }

// SetFilterRenderer installs the filter runtime for this item.
func (b *ItemBase) SetFilterRenderer(f Filter) {
	b.drawing.Defer(func() {
		b.markForRendering()
		b.filter = f
		b.markForUpdate(StateAll, false)
	})
}

// SetItemBounds sets the item-space bounding box used for
// object-bounding-box paint servers and filter regions.
func (b *ItemBase) SetItemBounds(r veld.Rect) {
	b.drawing.Defer(func() {
		b.itemBounds = r
		b.markForUpdate(StateBBox, false)
	})
}

// Unlink removes the item from its parent and destroys its subtree.
func (b *ItemBase) Unlink() {
	b.drawing.Defer(func() {
		b.markForRendering()
		if b.parent != nil {
			pb := b.parent.Base()
			switch b.childType {
			case ChildNormal:
				for i, c := range pb.children {
					if c == b.self {
						pb.children = append(pb.children[:i], pb.children[i+1:]...)
						break
					}
				}
			case ChildClip:
				pb.clip = nil
			case ChildMask:
				pb.mask = nil
			case ChildFill:
				pb.fillPattern = nil
			case ChildStroke:
				pb.strokePattern = nil
			}
			pb.markForUpdate(StateAll, false)
		} else if b.drawing != nil && b.drawing.root == b.self {
			b.drawing.root = nil
		}
		b.destroy()
	})
}

func (b *ItemBase) setAux(slot *Item, item Item, kind ChildType) {
	b.drawing.Defer(func() {
		b.markForRendering()
		if *slot != nil {
			(*slot).Base().destroy()
		}
		*slot = item
		if item != nil {
			item.Base().attach(b.self, kind)
		}
		b.markForUpdate(StateAll, false)
	})
}

// attach transitions an orphan into the tree.
func (b *ItemBase) attach(parent Item, kind ChildType) {
	b.parent = parent
	b.childType = kind
}

// childAttached finishes a normal-child attachment.
func (b *ItemBase) childAttached(child Item) {
	child.Base().markForUpdate(StateAll, true)
	b.markForUpdate(StateAll, false)
	b.markForRendering()
}

// destroy tears down the item and its whole subtree. The tree owns its
// children exclusively; a detached item is destroyed, not recycled.
func (b *ItemBase) destroy() {
	b.drawing.removeCandidate(b)
	b.cacheMu.Lock()
	b.cache = nil
	b.cacheMu.Unlock()
	for _, c := range b.children {
		c.Base().destroy()
	}
	b.children = nil
	for _, aux := range []Item{b.clip, b.mask, b.fillPattern, b.strokePattern} {
		if aux != nil {
			aux.Base().destroy()
		}
	}
	b.clip, b.mask, b.fillPattern, b.strokePattern = nil, nil, nil, nil
	b.parent = nil
	b.childType = ChildOrphan
}

// --- State propagation ------------------------------------------------

// markForUpdate clears the given state bits and, if any were previously
// set, recurses into the parent (never into children). With propagate
// set, the flags are also ORed into propagateState so the next update
// forcibly resets them in every child.
func (b *ItemBase) markForUpdate(flags StateFlags, propagate bool) {
	had := b.state & flags
	b.state &^= flags
	if propagate {
		b.propagateState |= flags
	}
	if had != 0 && b.parent != nil {
		b.parent.Base().markForUpdate(flags, false)
	}
}

// markForRendering invalidates the item's current visual rectangle in
// the drawing's dirty region. Called by mutators before the change so
// the old appearance is repainted away.
func (b *ItemBase) markForRendering() {
	if b.drawing != nil && !b.drawbox.IsEmpty() {
		b.drawing.dirty.Add(b.drawbox)
	}
}

// isAncestorOf reports whether item lies strictly below b, following
// parent pointers; auxiliary children (clip, mask, patterns) count too.
func (b *ItemBase) isAncestorOf(item Item) bool {
	for cur := item; cur != nil; {
		base := cur.Base()
		if base.parent == b.self {
			return true
		}
		cur = base.parent
	}
	return false
}

// isolated reports whether the item forms an isolation boundary for
// blend-mode propagation: a mask, filter, reduced opacity, non-normal
// blend, explicit isolation, or being the tree root all isolate.
// Note that isolation does not by itself make a node a filter
// background root.
func (b *ItemBase) isolated() bool {
	return b.mask != nil || b.filter != nil || b.opacity < opaqueOpacityThreshold ||
		b.blend != veld.OpOver || b.isolation || b.childType == ChildRoot
}
