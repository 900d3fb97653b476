package render

import (
	veld "github.com/veldgfx/veld"
)

// Group is a transparent container item. It may apply an additional
// child transform, used for markers and clip paths whose contents live
// in a different coordinate system than the owning item.
type Group struct {
	ItemBase

	// childTransform is premultiplied into the ctm handed to children;
	// nil means identity.
	childTransform *veld.Affine
}

// NewGroup creates an orphan group in the drawing.
func NewGroup(d *Drawing) *Group {
	g := &Group{}
	g.initBase(g, d)
	return g
}

// SetChildTransform sets the additional transform applied to children.
func (g *Group) SetChildTransform(m veld.Affine) {
	g.drawing.Defer(func() {
		g.markForRendering()
		if m.IsIdentity() {
			g.childTransform = nil
		} else {
			mm := m
			g.childTransform = &mm
		}
		g.markForUpdate(StateAll, true)
	})
}

// SetPickChildren selects whether picking returns the hit child or the
// group itself.
func (g *Group) SetPickChildren(pick bool) {
	g.drawing.Defer(func() {
		g.pickChildren = pick
		g.markForUpdate(StatePick, false)
	})
}

func (g *Group) updateItem(ctx UpdateContext, flags, reset StateFlags) error {
	if g.childTransform != nil {
		ctx.Transform = ctx.Transform.Mul(*g.childTransform)
	}
	bbox := veld.IntRect{}
	drawbox := veld.IntRect{}
	itemBounds := veld.EmptyRect()
	g.containsUnisolatedBlend = false
	for _, child := range g.children {
		cb := child.Base()
		if err := cb.Update(veld.IntRect{}, ctx, flags, reset); err != nil {
			return err
		}
		g.updateComplexity += cb.updateComplexity
		bbox = bbox.Union(cb.bbox)
		drawbox = drawbox.Union(cb.drawbox)
		itemBounds = itemBounds.Union(cb.itemBounds)
		// A non-normal blend escapes upwards until an isolated
		// ancestor stops it.
		if cb.blend != veld.OpOver || (cb.containsUnisolatedBlend && !cb.isolated()) {
			g.containsUnisolatedBlend = true
		}
	}
	g.bbox = bbox
	g.drawbox = drawbox
	if g.itemBounds.IsEmpty() {
		g.itemBounds = itemBounds
	}
	return nil
}

func (g *Group) renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	for _, child := range g.children {
		if child == stopAt {
			return RenderStop, nil
		}
		res, err := child.Base().Render(dc, area, flags, stopAt)
		if err != nil {
			return res, err
		}
		if res == RenderStop {
			return RenderStop, nil
		}
	}
	return RenderOK, nil
}

func (g *Group) pickItem(p veld.Point, delta float64, flags PickFlags) Item {
	for i := len(g.children) - 1; i >= 0; i-- {
		if hit := g.children[i].Base().Pick(p, delta, flags); hit != nil {
			if g.pickChildren {
				return hit
			}
			return g.self
		}
	}
	return nil
}
