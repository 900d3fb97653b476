package render

import (
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	veld "github.com/veldgfx/veld"
)

// OverflowSpec pre-tiles a pattern at render time for overflow:visible
// patterns: the contents are drawn Steps times, starting at Initial and
// advancing by Step between copies.
type OverflowSpec struct {
	Initial veld.Affine
	Steps   int
	Step    veld.Affine
}

// Pattern is a tileable subtree used as a paint server. Its children
// are laid out in pattern content space; a tile rectangle in user
// coordinates defines the repeat cell, rasterised at a device-derived
// resolution into a wrapped tile cache.
//
// The tile cache holds rectangles in tile-coordinate space under the
// torus identification (x, y) ~ (x+W, y+H), each with its raster.
// Reads and writes are serialised by the pattern's mutex.
type Pattern struct {
	Group

	tileRect      veld.Rect
	patternToUser *veld.Affine
	overflow      *OverflowSpec

	// resW and resH are the tile resolution in device pixels,
	// recomputed each update from the current ctm.
	resW, resH int

	mu    sync.Mutex
	tiles []tileEntry
}

// tileEntry is one cached rectangle of the tile, in tile coordinates.
type tileEntry struct {
	rect    veld.IntRect
	surface *veld.Pixmap
}

// NewPattern creates an orphan pattern in the drawing.
func NewPattern(d *Drawing) *Pattern {
	p := &Pattern{}
	p.initBase(p, d)
	return p
}

// SetTileRect sets the repeat cell in user coordinates.
func (p *Pattern) SetTileRect(r veld.Rect) {
	p.drawing.Defer(func() {
		p.markForRendering()
		p.tileRect = r
		p.markForUpdate(StateAll, true)
	})
}

// SetPatternToUser sets the pattern content to user transform.
func (p *Pattern) SetPatternToUser(m veld.Affine) {
	p.drawing.Defer(func() {
		p.markForRendering()
		if m.IsIdentity() {
			p.patternToUser = nil
		} else {
			mm := m
			p.patternToUser = &mm
		}
		p.markForUpdate(StateAll, true)
	})
}

// SetOverflow installs overflow pre-tiling; nil disables it. A step
// count below one is treated as one.
func (p *Pattern) SetOverflow(o *OverflowSpec) {
	p.drawing.Defer(func() {
		p.markForRendering()
		if o != nil && o.Steps < 1 {
			oo := *o
			oo.Steps = 1
			o = &oo
		}
		p.overflow = o
		p.markForUpdate(StateRender, true)
	})
}

// TileResolution returns the current tile resolution in device pixels.
func (p *Pattern) TileResolution() (w, h int) { return p.resW, p.resH }

// userToTile maps user coordinates to tile pixels: the tile min
// translates to the origin, the tile dimensions scale to the tile
// resolution.
func (p *Pattern) userToTile() veld.Affine {
	sx, sy := 1.0, 1.0
	if p.tileRect.Width() > 0 {
		sx = float64(p.resW) / p.tileRect.Width()
	}
	if p.tileRect.Height() > 0 {
		sy = float64(p.resH) / p.tileRect.Height()
	}
	return veld.Scale(sx, sy).Mul(veld.Translate(-p.tileRect.X0, -p.tileRect.Y0))
}

func (p *Pattern) updateItem(ctx UpdateContext, flags, reset StateFlags) error {
	// Tile resolution tracks the device transform.
	w := int(math.Ceil(p.tileRect.Width() * ctx.Transform.ExpansionX()))
	h := int(math.Ceil(p.tileRect.Height() * ctx.Transform.ExpansionY()))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	p.resW, p.resH = w, h

	// The cache is invalid whenever anything below changed.
	p.dropTileCache()

	// Children live in pattern content space and are updated against
	// tile pixels, so tile rendering can reuse the ordinary render
	// path.
	tileCtx := UpdateContext{Transform: p.userToTile()}
	if p.patternToUser != nil {
		tileCtx.Transform = tileCtx.Transform.Mul(*p.patternToUser)
	}
	if p.childTransform != nil {
		tileCtx.Transform = tileCtx.Transform.Mul(*p.childTransform)
	}
	for _, child := range p.children {
		cb := child.Base()
		if err := cb.Update(veld.IntRect{}, tileCtx, flags, reset); err != nil {
			return err
		}
		p.updateComplexity += cb.updateComplexity
	}
	// Patterns are never composited directly; they have no visual
	// extent of their own.
	p.bbox = veld.IntRect{}
	p.drawbox = veld.IntRect{}
	return nil
}

func (p *Pattern) renderItem(dc veld.DrawContext, area veld.IntRect, flags RenderFlags, stopAt Item) (RenderResult, error) {
	// Nothing: patterns paint through RenderTile.
	return RenderOK, nil
}

func (p *Pattern) pickItem(pt veld.Point, delta float64, flags PickFlags) Item {
	return nil
}

// dropTileCache discards all cached tile rasters.
func (p *Pattern) dropTileCache() {
	p.mu.Lock()
	p.tiles = nil
	p.mu.Unlock()
}

// RenderTile returns a repeat-extend source for painting the pattern
// into the given device area at the given opacity: a surface covering
// one full tile and the tile-to-device transform.
func (p *Pattern) RenderTile(area veld.IntRect, opacity float64) (*veld.Pixmap, veld.Affine, error) {
	if p.resW < 1 || p.resH < 1 || p.tileRect.IsEmpty() {
		return nil, veld.Identity(), nil
	}
	full := veld.IntRect{X0: 0, Y0: 0, X1: p.resW, Y1: p.resH}
	surface, err := p.ensureArea(full, opacity)
	if err != nil {
		return nil, veld.Identity(), err
	}
	tileToUser, _ := p.userToTile().Inverse()
	tileToDevice := p.ctm.Mul(tileToUser)
	return surface, tileToDevice, nil
}

// ensureArea makes sure the canonicalised tile-space rectangle is
// rendered, reusing and consolidating previously cached rectangles
// under the torus identification, and returns the surface covering it.
func (p *Pattern) ensureArea(req veld.IntRect, opacity float64) (*veld.Pixmap, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req = p.canonicalRect(req)

	// A cached rectangle already wrapped-containing the request wins.
	for _, t := range p.tiles {
		if p.wrappedContains(t.rect, req) {
			return withOpacity(t.surface, opacity), nil
		}
	}

	// Union the request with every cached rectangle it wrapped-touches,
	// iterating until stable.
	union := req
	consumed := make([]bool, len(p.tiles))
	for changed := true; changed; {
		changed = false
		for i, t := range p.tiles {
			if consumed[i] {
				continue
			}
			if p.wrappedTouches(union, t.rect) {
				union = union.Union(p.canonicalShift(t.rect, union))
				consumed[i] = true
				changed = true
			}
		}
	}
	union = p.clampPeriod(union)

	surface, err := veld.NewPixmapAt(union, 1)
	if err != nil {
		return nil, err
	}
	dirty := veld.NewRegion(union)
	var kept []tileEntry
	for i, t := range p.tiles {
		if !consumed[i] {
			kept = append(kept, t)
			continue
		}
		// Blit the consumed surface at every torus translate
		// overlapping the union, subtracting its footprint from the
		// dirty region.
		for _, off := range p.wrapOffsets(t.rect, union) {
			shifted := t.rect.Translated(off[0], off[1])
			overlap := shifted.Intersect(union)
			if overlap.IsEmpty() {
				continue
			}
			surface.BlitShifted(t.surface, off[0], off[1])
			dirty.Subtract(overlap)
		}
	}
	p.tiles = append(kept, tileEntry{rect: union, surface: surface})

	// Render the remaining dirty pieces, split across the wrap.
	for _, r := range dirty.Rects() {
		for _, piece := range p.splitWrap(r) {
			if err := p.renderPiece(surface, piece); err != nil {
				return nil, err
			}
		}
	}

	return withOpacity(surface, opacity), nil
}

// withOpacity applies opacity to a detached copy; the cache keeps
// full-opacity pixels so later lookups stay correct.
func withOpacity(pm *veld.Pixmap, opacity float64) *veld.Pixmap {
	if opacity >= 1 {
		return pm
	}
	faded := pm.Copy()
	applyOpacity(faded, opacity)
	return faded
}

// renderPiece draws the pattern contents for one tile-space rectangle
// of the surface. The piece may lie outside the canonical period; its
// content is rendered at canonical coordinates into a scratch surface
// and blitted to the wrapped position, since item renderers work in
// canonical tile space.
func (p *Pattern) renderPiece(surface *veld.Pixmap, piece veld.IntRect) error {
	kx := floorDiv(piece.X0, p.resW)
	ky := floorDiv(piece.Y0, p.resH)
	canonical := piece.Translated(-kx*p.resW, -ky*p.resH)

	scratch, err := veld.NewPixmapAt(canonical, 1)
	if err != nil {
		return err
	}
	dc := veld.NewSoftContext(scratch)

	if p.overflow != nil {
		if err := p.renderOverflow(scratch, canonical); err != nil {
			return err
		}
	} else {
		for _, child := range p.children {
			if _, err := child.Base().Render(dc, canonical, RenderDefault, nil); err != nil {
				return err
			}
		}
	}
	surface.BlitShifted(scratch, kx*p.resW, ky*p.resH)
	return nil
}

// renderOverflow pre-tiles the pattern contents: they render once at
// canonical coordinates (bypassing descendant caches, which only hold
// untransformed content), then stamp Steps times through the overflow
// transforms.
func (p *Pattern) renderOverflow(dst *veld.Pixmap, area veld.IntRect) error {
	extent := veld.IntRect{}
	for _, child := range p.children {
		extent = extent.Union(child.Base().Drawbox())
	}
	if extent.IsEmpty() {
		return nil
	}
	content, err := veld.NewPixmapAt(extent, 1)
	if err != nil {
		return err
	}
	cdc := veld.NewSoftContext(content)
	for _, child := range p.children {
		if _, err := child.Base().Render(cdc, extent, RenderBypassCache, nil); err != nil {
			return err
		}
	}

	step := veld.Identity()
	for i := 0; i < p.overflow.Steps; i++ {
		m := p.overflow.Initial.Mul(step)
		transformBlit(dst, content, m)
		step = p.overflow.Step.Mul(step)
	}
	_ = area
	return nil
}

// transformBlit composites src over dst through an affine transform in
// their shared (tile) coordinate space, honouring both surfaces'
// device origins.
func transformBlit(dst, src *veld.Pixmap, m veld.Affine) {
	sx, sy := src.Origin()
	dx, dy := dst.Origin()
	// Map buffer-local src coords through the tile-space transform
	// into buffer-local dst coords.
	full := veld.Translate(-float64(dx), -float64(dy)).
		Mul(m).
		Mul(veld.Translate(float64(sx), float64(sy)))
	xdraw.ApproxBiLinear.Transform(dst, f64.Aff3{
		full.A, full.B, full.C,
		full.D, full.E, full.F,
	}, src, src.Bounds(), xdraw.Over, nil)
}

// applyOpacity multiplies the whole surface by alpha (DestIn with a
// constant source).
func applyOpacity(pm *veld.Pixmap, alpha float64) {
	a := uint32(alpha * 255)
	pm.FilterPixels(func(r, g, b, al uint8) (uint8, uint8, uint8, uint8) {
		return uint8(uint32(r) * a / 255), uint8(uint32(g) * a / 255),
			uint8(uint32(b) * a / 255), uint8(uint32(al) * a / 255)
	})
}

// --- Torus arithmetic -------------------------------------------------

// canonicalRect shifts a tile-space rectangle so its minimum lies in
// [0, W) x [0, H).
func (p *Pattern) canonicalRect(r veld.IntRect) veld.IntRect {
	dx := -floorDiv(r.X0, p.resW) * p.resW
	dy := -floorDiv(r.Y0, p.resH) * p.resH
	return r.Translated(dx, dy)
}

// clampPeriod truncates a rectangle to at most one period per axis.
func (p *Pattern) clampPeriod(r veld.IntRect) veld.IntRect {
	if r.Width() > p.resW {
		r.X1 = r.X0 + p.resW
	}
	if r.Height() > p.resH {
		r.Y1 = r.Y0 + p.resH
	}
	return r
}

// wrappedContains reports whether a contains b under the torus
// identification. An axis whose extent reaches the period always
// contains.
func (p *Pattern) wrappedContains(a, b veld.IntRect) bool {
	return wrappedCovers(a.X0, a.X1, b.X0, b.X1, p.resW) &&
		wrappedCovers(a.Y0, a.Y1, b.Y0, b.Y1, p.resH)
}

// wrappedTouches reports whether a and b overlap, sharing at least one
// pixel, under the torus identification; merely abutting rectangles do
// not count.
func (p *Pattern) wrappedTouches(a, b veld.IntRect) bool {
	return wrappedOverlap(a.X0, a.X1, b.X0, b.X1, p.resW) &&
		wrappedOverlap(a.Y0, a.Y1, b.Y0, b.Y1, p.resH)
}

// canonicalShift translates r by whole periods to lie as close as
// possible to anchor.
func (p *Pattern) canonicalShift(r, anchor veld.IntRect) veld.IntRect {
	dx := nearestPeriodShift(r.X0, anchor.X0, p.resW)
	dy := nearestPeriodShift(r.Y0, anchor.Y0, p.resH)
	return r.Translated(dx, dy)
}

// wrapOffsets lists the period translates of r overlapping target.
func (p *Pattern) wrapOffsets(r, target veld.IntRect) [][2]int {
	var out [][2]int
	for kx := floorDiv(target.X0-r.X1, p.resW); kx*p.resW+r.X0 < target.X1; kx++ {
		for ky := floorDiv(target.Y0-r.Y1, p.resH); ky*p.resH+r.Y0 < target.Y1; ky++ {
			dx, dy := kx*p.resW, ky*p.resH
			if r.Translated(dx, dy).Intersects(target) {
				out = append(out, [2]int{dx, dy})
			}
		}
	}
	return out
}

// splitWrap splits a tile-space rectangle into pieces lying within one
// period, for clip-and-draw.
func (p *Pattern) splitWrap(r veld.IntRect) []veld.IntRect {
	var xs []veld.IntRect
	for x0 := r.X0; x0 < r.X1; {
		x1 := min(r.X1, (floorDiv(x0, p.resW)+1)*p.resW)
		xs = append(xs, veld.IntRect{X0: x0, Y0: r.Y0, X1: x1, Y1: r.Y1})
		x0 = x1
	}
	var out []veld.IntRect
	for _, xr := range xs {
		for y0 := xr.Y0; y0 < xr.Y1; {
			y1 := min(xr.Y1, (floorDiv(y0, p.resH)+1)*p.resH)
			out = append(out, veld.IntRect{X0: xr.X0, Y0: y0, X1: xr.X1, Y1: y1})
			y0 = y1
		}
	}
	return out
}

// wrappedCovers reports whether [a0, a1) covers [b0, b1) modulo period.
func wrappedCovers(a0, a1, b0, b1, period int) bool {
	if a1-a0 >= period {
		return true
	}
	if b1-b0 > a1-a0 {
		return false
	}
	d := mod(b0-a0, period)
	return d+(b1-b0) <= a1-a0
}

// wrappedOverlap reports whether [a0, a1) and [b0, b1) overlap modulo
// period.
func wrappedOverlap(a0, a1, b0, b1, period int) bool {
	if a1-a0 >= period || b1-b0 >= period {
		return true
	}
	d := mod(b0-a0, period)
	return d < a1-a0 || d+(b1-b0) > period
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// nearestPeriodShift returns the multiple of period bringing x closest
// to anchor.
func nearestPeriodShift(x, anchor, period int) int {
	k := floorDiv(anchor-x+(period/2), period)
	return k * period
}
