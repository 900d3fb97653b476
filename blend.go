package veld

import "math"

// compositePixel composites the premultiplied source pixel s into the
// premultiplied destination pixel d under the given operator, with the
// source scaled by coverage (0..255).
func compositePixel(op Operator, d, s [4]uint8, coverage uint8) [4]uint8 {
	if coverage == 0 && op != OpSource && op != OpIn {
		return d
	}
	if coverage < 255 {
		for i := range s {
			s[i] = uint8(uint32(s[i]) * uint32(coverage) / 255)
		}
	}
	switch op {
	case OpSource:
		return s
	case OpOver:
		inv := 255 - uint32(s[3])
		var out [4]uint8
		for i := range out {
			out[i] = uint8(uint32(s[i]) + uint32(d[i])*inv/255)
		}
		return out
	case OpIn:
		da := uint32(d[3])
		var out [4]uint8
		for i := range out {
			out[i] = uint8(uint32(s[i]) * da / 255)
		}
		return out
	case OpDestIn:
		sa := uint32(s[3])
		var out [4]uint8
		for i := range out {
			out[i] = uint8(uint32(d[i]) * sa / 255)
		}
		return out
	default:
		return blendPixel(op, d, s)
	}
}

// blendPixel applies an SVG blend mode. Source and destination are
// premultiplied; the blend is computed on unpremultiplied colors per the
// CSS compositing model and then composited Over.
func blendPixel(op Operator, d, s [4]uint8) [4]uint8 {
	sa := float64(s[3]) / 255
	da := float64(d[3]) / 255
	if sa == 0 {
		return d
	}
	var sc, dc [3]float64
	for i := 0; i < 3; i++ {
		sc[i] = float64(s[i]) / 255
		if sa > 0 {
			sc[i] /= sa
		}
		dc[i] = float64(d[i]) / 255
		if da > 0 {
			dc[i] /= da
		}
	}

	var bc [3]float64
	switch op {
	case OpHue, OpSaturation, OpColor, OpLuminosity:
		bc = blendNonSeparable(op, dc, sc)
	default:
		for i := 0; i < 3; i++ {
			bc[i] = blendChannel(op, dc[i], sc[i])
		}
	}

	// Mix the blended color towards the raw source where the backdrop
	// is transparent, then composite Over.
	var out [4]uint8
	ra := sa + da*(1-sa)
	out[3] = uint8(clamp255(ra * 255))
	for i := 0; i < 3; i++ {
		cs := (1-da)*sc[i] + da*bc[i]
		rc := cs*sa + dc[i]*da*(1-sa)
		out[i] = uint8(clamp255(rc * 255))
	}
	return out
}

// blendChannel evaluates a separable blend function on one channel.
func blendChannel(op Operator, b, s float64) float64 {
	switch op {
	case OpMultiply:
		return b * s
	case OpScreen:
		return b + s - b*s
	case OpOverlay:
		return blendChannel(OpHardLight, s, b)
	case OpDarken:
		return math.Min(b, s)
	case OpLighten:
		return math.Max(b, s)
	case OpColorDodge:
		if b == 0 {
			return 0
		}
		if s == 1 {
			return 1
		}
		return math.Min(1, b/(1-s))
	case OpColorBurn:
		if b == 1 {
			return 1
		}
		if s == 0 {
			return 0
		}
		return 1 - math.Min(1, (1-b)/s)
	case OpHardLight:
		if s <= 0.5 {
			return b * 2 * s
		}
		return blendChannel(OpScreen, b, 2*s-1)
	case OpSoftLight:
		if s <= 0.5 {
			return b - (1-2*s)*b*(1-b)
		}
		var dd float64
		if b <= 0.25 {
			dd = ((16*b-12)*b + 4) * b
		} else {
			dd = math.Sqrt(b)
		}
		return b + (2*s-1)*(dd-b)
	case OpDifference:
		return math.Abs(b - s)
	case OpExclusion:
		return b + s - 2*b*s
	default:
		return s
	}
}

// blendNonSeparable evaluates the four non-separable blend modes.
func blendNonSeparable(op Operator, b, s [3]float64) [3]float64 {
	switch op {
	case OpHue:
		return setLum(setSat(s, sat(b)), lum(b))
	case OpSaturation:
		return setLum(setSat(b, sat(s)), lum(b))
	case OpColor:
		return setLum(s, lum(b))
	case OpLuminosity:
		return setLum(b, lum(s))
	default:
		return s
	}
}

func lum(c [3]float64) float64 {
	return 0.3*c[0] + 0.59*c[1] + 0.11*c[2]
}

func sat(c [3]float64) float64 {
	return math.Max(c[0], math.Max(c[1], c[2])) - math.Min(c[0], math.Min(c[1], c[2]))
}

func clipColor(c [3]float64) [3]float64 {
	l := lum(c)
	n := math.Min(c[0], math.Min(c[1], c[2]))
	x := math.Max(c[0], math.Max(c[1], c[2]))
	if n < 0 {
		for i := range c {
			c[i] = l + (c[i]-l)*l/(l-n)
		}
	}
	if x > 1 {
		for i := range c {
			c[i] = l + (c[i]-l)*(1-l)/(x-l)
		}
	}
	return c
}

func setLum(c [3]float64, l float64) [3]float64 {
	d := l - lum(c)
	for i := range c {
		c[i] += d
	}
	return clipColor(c)
}

func setSat(c [3]float64, s float64) [3]float64 {
	// Index channels by magnitude.
	mini, midi, maxi := 0, 1, 2
	ord := []int{0, 1, 2}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if c[ord[j]] < c[ord[i]] {
				ord[i], ord[j] = ord[j], ord[i]
			}
		}
	}
	mini, midi, maxi = ord[0], ord[1], ord[2]
	if c[maxi] > c[mini] {
		c[midi] = (c[midi] - c[mini]) * s / (c[maxi] - c[mini])
		c[maxi] = s
	} else {
		c[midi], c[maxi] = 0, 0
	}
	c[mini] = 0
	return c
}
