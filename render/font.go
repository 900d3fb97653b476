package render

import (
	"fmt"
	"sync"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	veld "github.com/veldgfx/veld"
	"github.com/veldgfx/veld/cache"
)

// FontRef wraps a parsed font for glyph items. Outline extraction goes
// through a shared sfnt buffer guarded by a mutex (sfnt.Buffer is not
// safe for concurrent use) and a sharded LRU of scaled outlines.
type FontRef struct {
	font *sfnt.Font

	mu  sync.Mutex
	buf sfnt.Buffer

	outlines *cache.Sharded[outlineKey, *veld.Path]
}

// outlineKey identifies one scaled glyph outline. Size is quantised to
// 1/64 to keep the key comparable.
type outlineKey struct {
	gid  uint16
	size fixed.Int26_6
}

func hashOutlineKey(k outlineKey) uint64 {
	return uint64(k.gid)<<32 | uint64(uint32(k.size))
}

// ParseFont parses TTF/OTF data into a FontRef.
func ParseFont(data []byte) (*FontRef, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	return &FontRef{
		font:     f,
		outlines: cache.NewSharded[outlineKey, *veld.Path](256, hashOutlineKey),
	}, nil
}

// GlyphIndex returns the glyph id for a rune, 0 when absent.
func (f *FontRef) GlyphIndex(r rune) uint16 {
	f.mu.Lock()
	defer f.mu.Unlock()
	gid, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil {
		return 0
	}
	return uint16(gid)
}

// Outline returns the glyph outline scaled to the given size, in a
// y-down coordinate system with the origin on the baseline. The
// returned path is shared and must not be modified.
func (f *FontRef) Outline(gid uint16, size float64) *veld.Path {
	key := outlineKey{gid: gid, size: floatToFixed(size)}
	return f.outlines.GetOrCreate(key, func() *veld.Path {
		return f.extractOutline(gid, key.size)
	})
}

func (f *FontRef) extractOutline(gid uint16, ppem fixed.Int26_6) *veld.Path {
	f.mu.Lock()
	defer f.mu.Unlock()
	segs, err := f.font.LoadGlyph(&f.buf, sfnt.GlyphIndex(gid), ppem, nil)
	if err != nil {
		return veld.NewPath()
	}
	p := veld.NewPath()
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			p.MoveTo(fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y))
		case sfnt.SegmentOpLineTo:
			p.LineTo(fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y))
		case sfnt.SegmentOpQuadTo:
			p.QuadraticTo(
				fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y),
				fixedToFloat(seg.Args[1].X), fixedToFloat(seg.Args[1].Y))
		case sfnt.SegmentOpCubeTo:
			p.CubicTo(
				fixedToFloat(seg.Args[0].X), fixedToFloat(seg.Args[0].Y),
				fixedToFloat(seg.Args[1].X), fixedToFloat(seg.Args[1].Y),
				fixedToFloat(seg.Args[2].X), fixedToFloat(seg.Args[2].Y))
		}
	}
	return p
}

// Advance returns the horizontal advance of a glyph at the given size.
func (f *FontRef) Advance(gid uint16, size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	adv, err := f.font.GlyphAdvance(&f.buf, sfnt.GlyphIndex(gid), floatToFixed(size), 0)
	if err != nil {
		return 0
	}
	return fixedToFloat(adv)
}

// Metrics returns ascent and descent at the given size, both positive.
func (f *FontRef) Metrics(size float64) (ascent, descent float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.font.Metrics(&f.buf, floatToFixed(size), 0)
	if err != nil {
		return size * 0.8, size * 0.2
	}
	return fixedToFloat(m.Ascent), fixedToFloat(m.Descent)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v*64 + 0.5)
}
