package veld

import (
	"errors"
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Compile-time interface checks.
var (
	_ image.Image = (*Pixmap)(nil)
	_ draw.Image  = (*Pixmap)(nil)
)

// ErrPixmapTooLarge is returned when a pixmap allocation would exceed the
// address-space sanity limit.
var ErrPixmapTooLarge = errors.New("veld: pixmap dimensions too large")

// maxPixmapPixels bounds a single allocation to 1 GiB of pixel data.
const maxPixmapPixels = 1 << 28

// Pixmap is a rectangular buffer of premultiplied RGBA pixels with an
// associated device scale and device-space origin. It implements both
// image.Image and draw.Image for interoperability with the standard
// image ecosystem.
//
// The origin places the pixmap in device space: pixel (0,0) of the
// buffer corresponds to device pixel (OriginX, OriginY).
type Pixmap struct {
	width   int
	height  int
	scale   float64
	originX int
	originY int
	data    []uint8 // premultiplied RGBA, 4 bytes per pixel
}

// NewPixmap creates a pixmap with the given dimensions, device scale 1
// and origin (0,0).
func NewPixmap(width, height int) *Pixmap {
	pm, err := NewPixmapAt(IntRect{X0: 0, Y0: 0, X1: width, Y1: height}, 1)
	if err != nil {
		// Callers constructing small fixed-size buffers never hit the
		// limit; mirror image.NewRGBA and panic.
		panic(err)
	}
	return pm
}

// NewPixmapAt creates a pixmap covering the device rectangle r at the
// given device scale. Allocation failures are reported rather than
// panicking so that cache creation can fall back to uncached rendering.
func NewPixmapAt(r IntRect, scale float64) (*Pixmap, error) {
	w, h := r.Width(), r.Height()
	if w < 0 || h < 0 || w*h > maxPixmapPixels {
		return nil, ErrPixmapTooLarge
	}
	if scale <= 0 {
		scale = 1
	}
	return &Pixmap{
		width:   w,
		height:  h,
		scale:   scale,
		originX: r.X0,
		originY: r.Y0,
		data:    make([]uint8, w*h*4),
	}, nil
}

// Width returns the pixel width.
func (p *Pixmap) Width() int { return p.width }

// Height returns the pixel height.
func (p *Pixmap) Height() int { return p.height }

// Scale returns the device scale.
func (p *Pixmap) Scale() float64 { return p.scale }

// Origin returns the device-space origin.
func (p *Pixmap) Origin() (x, y int) { return p.originX, p.originY }

// Rect returns the device rectangle the pixmap covers.
func (p *Pixmap) Rect() IntRect {
	return IntRect{X0: p.originX, Y0: p.originY, X1: p.originX + p.width, Y1: p.originY + p.height}
}

// SetOrigin repositions the pixmap in device space without touching the
// pixel data.
func (p *Pixmap) SetOrigin(x, y int) {
	p.originX, p.originY = x, y
}

// Data returns the raw premultiplied pixel data.
func (p *Pixmap) Data() []uint8 { return p.data }

// SizeBytes returns the memory footprint of the pixel data.
func (p *Pixmap) SizeBytes() int { return len(p.data) }

// SetPixel sets a single pixel from an unpremultiplied color.
// Coordinates are buffer-local.
func (p *Pixmap) SetPixel(x, y int, c RGBA) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	i := (y*p.width + x) * 4
	a := clamp01(c.A)
	p.data[i+0] = uint8(clamp255(c.R * a * 255))
	p.data[i+1] = uint8(clamp255(c.G * a * 255))
	p.data[i+2] = uint8(clamp255(c.B * a * 255))
	p.data[i+3] = uint8(clamp255(a * 255))
}

// GetPixel returns a single pixel as an unpremultiplied color.
// Coordinates are buffer-local.
func (p *Pixmap) GetPixel(x, y int) RGBA {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return Transparent
	}
	i := (y*p.width + x) * 4
	a := float64(p.data[i+3])
	if a == 0 {
		return Transparent
	}
	return RGBA{
		R: float64(p.data[i+0]) / a,
		G: float64(p.data[i+1]) / a,
		B: float64(p.data[i+2]) / a,
		A: a / 255,
	}
}

// Clear fills the entire pixmap with a color.
func (p *Pixmap) Clear(c RGBA) {
	a := clamp01(c.A)
	r := uint8(clamp255(c.R * a * 255))
	g := uint8(clamp255(c.G * a * 255))
	b := uint8(clamp255(c.B * a * 255))
	ab := uint8(clamp255(a * 255))
	for i := 0; i < len(p.data); i += 4 {
		p.data[i+0] = r
		p.data[i+1] = g
		p.data[i+2] = b
		p.data[i+3] = ab
	}
}

// Copy returns a deep copy sharing no pixel data.
func (p *Pixmap) Copy() *Pixmap {
	out := &Pixmap{
		width:   p.width,
		height:  p.height,
		scale:   p.scale,
		originX: p.originX,
		originY: p.originY,
		data:    make([]uint8, len(p.data)),
	}
	copy(out.data, p.data)
	return out
}

// Blit copies src into p wherever their device rectangles overlap,
// replacing destination pixels (Source operator).
func (p *Pixmap) Blit(src *Pixmap) {
	p.BlitShifted(src, 0, 0)
}

// BlitShifted copies src into p as if src were translated by (dx, dy)
// device pixels.
func (p *Pixmap) BlitShifted(src *Pixmap, dx, dy int) {
	overlap := p.Rect().Intersect(src.Rect().Translated(dx, dy))
	if overlap.IsEmpty() {
		return
	}
	for y := overlap.Y0; y < overlap.Y1; y++ {
		sy := y - dy - src.originY
		dyRow := y - p.originY
		si := (sy*src.width + (overlap.X0 - dx - src.originX)) * 4
		di := (dyRow*p.width + (overlap.X0 - p.originX)) * 4
		copy(p.data[di:di+overlap.Width()*4], src.data[si:si+overlap.Width()*4])
	}
}

// BlitRect copies only the device rectangle area from src into p.
func (p *Pixmap) BlitRect(src *Pixmap, area IntRect) {
	overlap := p.Rect().Intersect(src.Rect()).Intersect(area)
	if overlap.IsEmpty() {
		return
	}
	for y := overlap.Y0; y < overlap.Y1; y++ {
		si := ((y-src.originY)*src.width + (overlap.X0 - src.originX)) * 4
		di := ((y-p.originY)*p.width + (overlap.X0 - p.originX)) * 4
		copy(p.data[di:di+overlap.Width()*4], src.data[si:si+overlap.Width()*4])
	}
}

// CompositeOver alpha-composites src over p wherever their device
// rectangles overlap.
func (p *Pixmap) CompositeOver(src *Pixmap) {
	overlap := p.Rect().Intersect(src.Rect())
	if overlap.IsEmpty() {
		return
	}
	for y := overlap.Y0; y < overlap.Y1; y++ {
		for x := overlap.X0; x < overlap.X1; x++ {
			si := ((y-src.originY)*src.width + (x - src.originX)) * 4
			di := ((y-p.originY)*p.width + (x - p.originX)) * 4
			sa := uint32(src.data[si+3])
			if sa == 0 {
				continue
			}
			inv := 255 - sa
			for c := 0; c < 4; c++ {
				p.data[di+c] = uint8(uint32(src.data[si+c]) + uint32(p.data[di+c])*inv/255)
			}
		}
	}
}

// FilterPixels applies fn to every pixel in place. The functor receives
// and returns premultiplied components.
func (p *Pixmap) FilterPixels(fn func(r, g, b, a uint8) (uint8, uint8, uint8, uint8)) {
	for i := 0; i < len(p.data); i += 4 {
		p.data[i], p.data[i+1], p.data[i+2], p.data[i+3] =
			fn(p.data[i], p.data[i+1], p.data[i+2], p.data[i+3])
	}
}

// ScaleTo resamples p into dst using bilinear interpolation.
func (p *Pixmap) ScaleTo(dst *Pixmap) {
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), p, p.Bounds(), xdraw.Src, nil)
}

// ToImage converts to an image.RGBA sharing no data.
func (p *Pixmap) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, p.width, p.height))
	copy(img.Pix, p.data)
	return img
}

// FromImage creates a pixmap from an arbitrary image.
func FromImage(img image.Image) *Pixmap {
	bounds := img.Bounds()
	pm := NewPixmap(bounds.Dx(), bounds.Dy())
	draw.Draw(pm, pm.Bounds(), img, bounds.Min, draw.Src)
	return pm
}

// At implements image.Image. The returned color is premultiplied.
func (p *Pixmap) At(x, y int) color.Color {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return color.RGBA{}
	}
	i := (y*p.width + x) * 4
	return color.RGBA{R: p.data[i], G: p.data[i+1], B: p.data[i+2], A: p.data[i+3]}
}

// Set implements draw.Image.
func (p *Pixmap) Set(x, y int, c color.Color) {
	if x < 0 || x >= p.width || y < 0 || y >= p.height {
		return
	}
	r, g, b, a := c.RGBA()
	i := (y*p.width + x) * 4
	p.data[i+0] = uint8(r >> 8)
	p.data[i+1] = uint8(g >> 8)
	p.data[i+2] = uint8(b >> 8)
	p.data[i+3] = uint8(a >> 8)
}

// Bounds implements image.Image using buffer-local coordinates.
func (p *Pixmap) Bounds() image.Rectangle {
	return image.Rect(0, 0, p.width, p.height)
}

// ColorModel implements image.Image.
func (p *Pixmap) ColorModel() color.Model {
	return color.RGBAModel
}

// AverageColor returns the average unpremultiplied color and alpha over
// the intersection of the device rectangle r with the pixmap.
func (p *Pixmap) AverageColor(r IntRect) RGBA {
	area := r.Intersect(p.Rect())
	if area.IsEmpty() {
		return Transparent
	}
	var sr, sg, sb, sa float64
	for y := area.Y0; y < area.Y1; y++ {
		for x := area.X0; x < area.X1; x++ {
			i := ((y-p.originY)*p.width + (x - p.originX)) * 4
			sr += float64(p.data[i+0])
			sg += float64(p.data[i+1])
			sb += float64(p.data[i+2])
			sa += float64(p.data[i+3])
		}
	}
	n := float64(area.Area())
	if sa == 0 {
		return Transparent
	}
	// Premultiplied sums: divide color sums by the alpha sum.
	return RGBA{R: sr / sa, G: sg / sa, B: sb / sa, A: sa / (255 * n)}
}
