package veld

import "image/color"

// RGBA represents a color with red, green, blue and alpha components.
// Each component is in the range [0, 1]. Components are not
// premultiplied; premultiplication happens at the pixmap boundary.
type RGBA struct {
	R, G, B, A float64
}

// Common colors.
var (
	Transparent = RGBA{0, 0, 0, 0}
	Black       = RGBA{0, 0, 0, 1}
	White       = RGBA{1, 1, 1, 1}
)

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1}
}

// WithAlpha returns the color with its alpha multiplied by a.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A *= a
	return c
}

// Color converts to the standard library color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// FromColor converts a standard library color to RGBA.
func FromColor(c color.Color) RGBA {
	r, g, b, a := c.RGBA()
	if a == 0 {
		return Transparent
	}
	// c.RGBA returns premultiplied components; undo that here.
	return RGBA{
		R: float64(r) / float64(a),
		G: float64(g) / float64(a),
		B: float64(b) / float64(a),
		A: float64(a) / 65535,
	}
}

// Luminance returns the perceptual luminance used for mask alpha,
// matching the integer-coefficient formula of the compositor:
// coefficients summing to 512, (r*109 + g*366 + b*37 + 256) >> 9.
func (c RGBA) Luminance() float64 {
	return (c.R*109 + c.G*366 + c.B*37) / 512
}

func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
