package veld

import (
	"math"
	"testing"
)

func TestPixmapPixelRoundTrip(t *testing.T) {
	pm := NewPixmap(4, 4)
	c := RGBA{R: 1, G: 0.5, B: 0.25, A: 0.5}
	pm.SetPixel(1, 2, c)
	got := pm.GetPixel(1, 2)
	if math.Abs(got.A-c.A) > 0.01 || math.Abs(got.R-c.R) > 0.02 ||
		math.Abs(got.G-c.G) > 0.02 || math.Abs(got.B-c.B) > 0.02 {
		t.Errorf("round trip %+v -> %+v", c, got)
	}
	if out := pm.GetPixel(10, 10); out != Transparent {
		t.Errorf("out of bounds read %+v", out)
	}
}

func TestPixmapBlitShifted(t *testing.T) {
	src := NewPixmap(2, 2)
	src.Clear(RGB(1, 0, 0))
	dst := NewPixmap(4, 4)
	dst.BlitShifted(src, 1, 1)
	if got := dst.GetPixel(1, 1); got.R < 0.99 || got.A < 0.99 {
		t.Errorf("blit target pixel %+v", got)
	}
	if got := dst.GetPixel(0, 0); got != Transparent {
		t.Errorf("blit spilled to %+v", got)
	}
}

func TestPixmapDeviceRect(t *testing.T) {
	pm, err := NewPixmapAt(NewIntRect(10, 20, 14, 25), 1)
	if err != nil {
		t.Fatal(err)
	}
	if r := pm.Rect(); r != NewIntRect(10, 20, 14, 25) {
		t.Errorf("Rect = %+v", r)
	}
	if pm.Width() != 4 || pm.Height() != 5 {
		t.Errorf("dims %dx%d", pm.Width(), pm.Height())
	}
}

func TestPixmapTooLarge(t *testing.T) {
	if _, err := NewPixmapAt(NewIntRect(0, 0, 1<<16, 1<<16), 1); err == nil {
		t.Error("expected allocation failure for oversized pixmap")
	}
}

func TestPixmapAverageColor(t *testing.T) {
	pm := NewPixmap(10, 10)
	pm.Clear(RGB(0, 1, 0))
	avg := pm.AverageColor(NewIntRect(0, 0, 10, 10))
	if avg.G < 0.99 || avg.A < 0.99 {
		t.Errorf("average %+v", avg)
	}
	// Half transparent, half green: alpha halves.
	pm2 := NewPixmap(10, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			pm2.SetPixel(x, y, RGB(0, 1, 0))
		}
	}
	avg2 := pm2.AverageColor(NewIntRect(0, 0, 10, 10))
	if math.Abs(avg2.A-0.5) > 0.01 {
		t.Errorf("average alpha %v, want 0.5", avg2.A)
	}
}

func TestLuminanceCoefficients(t *testing.T) {
	// The integer mask coefficients sum to 512 so that pure white maps
	// to full alpha.
	if (109+366+37)%512 != 0 {
		t.Fatal("coefficients do not sum to 512")
	}
	if l := (RGBA{R: 1, G: 1, B: 1, A: 1}).Luminance(); math.Abs(l-1) > 1e-9 {
		t.Errorf("white luminance %v", l)
	}
}
