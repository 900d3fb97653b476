package render

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"

	veld "github.com/veldgfx/veld"
)

// LayoutText is a convenience for clients without their own text
// layout: it shapes a single left-to-right run with HarfBuzz-level
// shaping and builds a Text item whose glyphs are positioned along the
// baseline starting at origin.
//
// fontData is raw TTF/OTF bytes; the same bytes feed both the shaper
// and the glyph outline runtime.
func LayoutText(d *Drawing, fontData []byte, textRun string, size float64, origin veld.Point) (*Text, error) {
	goFace, err := font.ParseTTF(bytes.NewReader(fontData))
	if err != nil {
		return nil, fmt.Errorf("render: parse font for shaping: %w", err)
	}
	ref, err := ParseFont(fontData)
	if err != nil {
		return nil, err
	}

	runes := []rune(textRun)
	script := language.LookupScript('a')
	for _, r := range runes {
		if r != ' ' {
			script = language.LookupScript(r)
			break
		}
	}
	shaper := &shaping.HarfbuzzShaper{}
	out := shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Face:      goFace,
		Size:      floatToFixed(size),
		Script:    script,
		Language:  language.NewLanguage("en"),
		Direction: di.DirectionLTR,
	})

	t := NewText(d)
	ascent, descent := ref.Metrics(size)
	pen := origin
	for _, g := range out.Glyphs {
		adv := fixedToFloat(g.Advance)
		glyph := NewGlyph(d)
		glyph.SetGlyph(ref, uint16(g.GlyphID), size)
		glyph.SetMetrics(adv, ascent, descent, adv)
		glyph.SetTransform(veld.Translate(
			pen.X+fixedToFloat(g.XOffset),
			pen.Y-fixedToFloat(g.YOffset)))
		t.AppendChild(glyph)
		pen.X += adv
	}
	return t, nil
}
