package render

import (
	"sort"

	veld "github.com/veldgfx/veld"
)

// defaultGrayMatrix is the 5x4 desaturation matrix applied in grayscale
// color mode.
var defaultGrayMatrix = [20]float64{
	0.21, 0.72, 0.07, 0, 0,
	0.21, 0.72, 0.07, 0, 0,
	0.21, 0.72, 0.07, 0, 0,
	0, 0, 0, 1, 0,
}

// Drawing owns a tree of drawing items and the drawing-wide rendering
// state: render and color modes, the cache budget and limit, the
// deferred-mutation log, and the candidate list that decides which
// items hold cache surfaces.
//
// All tree operations (mutation, update, render, pick) run on one
// goroutine. A background renderer snapshots the drawing first; between
// Snapshot and Unsnapshot, mutations queue in the function log instead
// of applying, giving the reader a consistent tree without locks.
type Drawing struct {
	root Item

	snapshotted bool
	log         []func()

	renderMode     RenderMode
	colorMode      ColorMode
	outlineOverlay bool
	outlineColor   veld.RGBA
	clip           *veld.Path

	cacheBudget int
	cacheLimit  veld.IntRect
	candidates  []*ItemBase

	deviceScale float64
	grayMatrix  [20]float64
	exact       bool
	aaOverride  *veld.Antialias

	// dirty accumulates invalidated device rectangles for the client
	// to repaint.
	dirty veld.Region

	prefs veld.Prefs
}

// NewDrawing creates an empty drawing configured from prefs.
func NewDrawing(prefs veld.Prefs) *Drawing {
	d := &Drawing{
		outlineColor: veld.RGBA{R: 0, G: 0.4, B: 1, A: 1},
		deviceScale:  1,
		grayMatrix:   defaultGrayMatrix,
		prefs:        prefs,
		cacheBudget:  prefs.CacheBudgetMB << 20,
	}
	if len(prefs.GrayscaleMatrix) == 20 {
		copy(d.grayMatrix[:], prefs.GrayscaleMatrix)
	}
	return d
}

// Defer runs f immediately when the drawing is not snapshotted, and
// appends it to the mutation log otherwise. All tree mutators funnel
// through here.
func (d *Drawing) Defer(f func()) {
	if d.snapshotted {
		d.log = append(d.log, f)
		return
	}
	f()
}

// Snapshot freezes the tree for a background reader: subsequent
// mutations queue instead of applying.
func (d *Drawing) Snapshot() {
	d.snapshotted = true
}

// Unsnapshot releases the snapshot and replays queued mutations in
// order, on the calling (edit) goroutine.
func (d *Drawing) Unsnapshot() {
	d.snapshotted = false
	log := d.log
	d.log = nil
	for _, f := range log {
		f()
	}
}

// Snapshotted reports whether mutations currently defer.
func (d *Drawing) Snapshotted() bool { return d.snapshotted }

// SetRoot installs the root item.
func (d *Drawing) SetRoot(item Item) {
	d.Defer(func() {
		if d.root != nil && d.root != item {
			d.root.Base().destroy()
		}
		d.root = item
		if item != nil {
			b := item.Base()
			b.attach(nil, ChildRoot)
			b.drawing = d
			b.markForUpdate(StateAll, true)
		}
	})
}

// Root returns the root item.
func (d *Drawing) Root() Item { return d.root }

// SetRenderMode selects outline, filterless or hairline-visible
// rendering.
func (d *Drawing) SetRenderMode(m RenderMode) {
	d.Defer(func() {
		d.renderMode = m
		d.invalidateAll()
	})
}

// RenderMode returns the current render mode.
func (d *Drawing) RenderMode() RenderMode { return d.renderMode }

// SetColorMode selects normal or grayscale output.
func (d *Drawing) SetColorMode(m ColorMode) {
	d.Defer(func() {
		d.colorMode = m
		d.invalidateAll()
	})
}

// SetOutlineOverlay draws outlines on top of normal rendering.
func (d *Drawing) SetOutlineOverlay(on bool) {
	d.Defer(func() {
		d.outlineOverlay = on
		d.invalidateAll()
	})
}

// SetOutlineColor sets the outline stroke color.
func (d *Drawing) SetOutlineColor(c veld.RGBA) {
	d.Defer(func() {
		d.outlineColor = c
		if d.renderMode == RenderModeOutline || d.outlineOverlay {
			d.invalidateAll()
		}
	})
}

// SetCacheBudget sets the item cache budget in bytes.
func (d *Drawing) SetCacheBudget(bytes int) {
	d.Defer(func() {
		d.cacheBudget = bytes
		d.updateCacheList()
	})
}

// SetCacheLimit sets the device rectangle caches are restricted to,
// typically the viewport enlarged.
func (d *Drawing) SetCacheLimit(r veld.IntRect) {
	d.Defer(func() {
		d.cacheLimit = r
		if d.root != nil {
			d.root.Base().markForUpdate(StateCache, true)
		}
	})
}

// SetClip sets a drawing-wide clip path in device space; nil removes
// it.
func (d *Drawing) SetClip(p *veld.Path) {
	d.Defer(func() {
		d.clip = p
		d.invalidateAll()
	})
}

// SetDeviceScale sets the device pixels per css pixel.
func (d *Drawing) SetDeviceScale(scale float64) {
	d.Defer(func() {
		if scale > 0 {
			d.deviceScale = scale
			d.invalidateAll()
		}
	})
}

// SetExact enables high-quality export mode: caches are bypassed and
// the best antialiasing is used regardless of item settings.
func (d *Drawing) SetExact() {
	d.Defer(func() {
		d.exact = true
		d.invalidateAll()
	})
}

// SetAntialiasOverride forces every item to render at the given
// quality; ClearAntialiasOverride restores per-item settings.
func (d *Drawing) SetAntialiasOverride(aa veld.Antialias) {
	d.Defer(func() {
		d.aaOverride = &aa
		d.invalidateAll()
	})
}

// ClearAntialiasOverride removes the drawing-wide antialias override.
func (d *Drawing) ClearAntialiasOverride() {
	d.Defer(func() {
		d.aaOverride = nil
		d.invalidateAll()
	})
}

// effectiveAntialias resolves an item's antialias level against the
// drawing-wide override and export mode.
func (d *Drawing) effectiveAntialias(item veld.Antialias) veld.Antialias {
	if d.exact {
		return veld.AntialiasBest
	}
	if d.aaOverride != nil {
		return *d.aaOverride
	}
	return item
}

// PrefsChanged implements the preferences observer, dispatching changed
// values to the typed setters through the drawing's deferral.
func (d *Drawing) PrefsChanged(p veld.Prefs) {
	d.Defer(func() {
		d.prefs = p
		d.cacheBudget = p.CacheBudgetMB << 20
		if len(p.GrayscaleMatrix) == 20 {
			copy(d.grayMatrix[:], p.GrayscaleMatrix)
		}
		d.updateCacheList()
	})
}

// invalidateAll marks the whole tree for repaint.
func (d *Drawing) invalidateAll() {
	if d.root != nil {
		d.root.Base().markForUpdate(StateRender, true)
		d.dirty.Add(d.root.Base().drawbox)
	}
}

// TakeDirty returns and clears the accumulated invalidation region.
func (d *Drawing) TakeDirty() []veld.IntRect {
	out := append([]veld.IntRect(nil), d.dirty.Rects()...)
	d.dirty.Clear()
	return out
}

// Update brings the tree's derived data up to date within area (pass
// the zero rectangle for everywhere), with affine as the root
// transform. After the walk, cache eligibility is rebalanced against
// the budget.
func (d *Drawing) Update(area veld.IntRect, affine veld.Affine, flags, reset StateFlags) error {
	if d.root == nil {
		return nil
	}
	err := d.root.Base().Update(area, UpdateContext{Transform: affine}, flags, reset)
	if flags&StateCache != 0 {
		d.updateCacheList()
	}
	return err
}

// Render paints the tree into dc within area. The drawing-wide clip,
// render mode and outline overlay apply here.
func (d *Drawing) Render(dc veld.DrawContext, area veld.IntRect, flags RenderFlags) error {
	if d.root == nil {
		return nil
	}
	switch d.renderMode {
	case RenderModeOutline:
		flags |= RenderOutline
	case RenderModeNoFilters:
		flags |= RenderNoFilters
	case RenderModeVisibleHairlines:
		flags |= RenderVisibleHairlines
	}
	if d.exact {
		flags |= RenderBypassCache
	}
	dc.Save()
	defer dc.Restore()
	if d.clip != nil {
		dc.NewPath()
		dc.AppendPath(d.clip)
		dc.Clip()
	}
	if _, err := d.root.Base().Render(dc, area, flags, nil); err != nil {
		return err
	}
	if d.outlineOverlay && flags&RenderOutline == 0 {
		if _, err := d.root.Base().Render(dc, area, flags|RenderOutline|RenderBypassCache, nil); err != nil {
			return err
		}
	}
	return nil
}

// Pick hit-tests the tree at p within delta device pixels.
func (d *Drawing) Pick(p veld.Point, delta float64, flags PickFlags) Item {
	if d.root == nil {
		return nil
	}
	if d.renderMode == RenderModeOutline {
		flags |= PickOutline
	}
	return d.root.Base().Pick(p, delta, flags)
}

// AverageColor renders the drawing over area into a scratch surface and
// returns the average color.
func (d *Drawing) AverageColor(area veld.IntRect) (veld.RGBA, error) {
	pm, err := veld.NewPixmapAt(area, d.deviceScale)
	if err != nil {
		return veld.Transparent, err
	}
	dc := veld.NewSoftContext(pm)
	if err := d.Render(dc, area, RenderDefault); err != nil {
		return veld.Transparent, err
	}
	return pm.AverageColor(area), nil
}

// --- Cache candidate list ---------------------------------------------

// addCandidate appends the item to the candidate list; updateCacheList
// sorts the list by score.
func (d *Drawing) addCandidate(b *ItemBase) {
	d.candidates = append(d.candidates, b)
}

// removeCandidate drops the item from the candidate list.
func (d *Drawing) removeCandidate(b *ItemBase) {
	for i, c := range d.candidates {
		if c == b {
			d.candidates = append(d.candidates[:i], d.candidates[i+1:]...)
			return
		}
	}
}

// updateCacheList walks the candidates in decreasing score order and
// flips items cached or uncached until the byte budget is filled. The
// effective cost of a cache follows its score, so filter-heavy items
// consume proportionally more budget.
func (d *Drawing) updateCacheList() {
	sort.SliceStable(d.candidates, func(i, j int) bool {
		return d.candidates[i].cacheScore > d.candidates[j].cacheScore
	})
	used := 0
	for _, b := range d.candidates {
		size := int(b.cacheScore) * 4
		if used+size <= d.cacheBudget {
			used += size
			b.wantCache = true
			continue
		}
		b.wantCache = false
		b.cacheMu.Lock()
		b.cache = nil
		b.cacheMu.Unlock()
	}
}

// CachedBytes reports the budget currently claimed by cache-eligible
// items.
func (d *Drawing) CachedBytes() int {
	used := 0
	for _, b := range d.candidates {
		if b.wantCache {
			used += int(b.cacheScore) * 4
		}
	}
	return used
}
