package veld

import (
	"math"
	"testing"
)

func TestSoftContextFillRect(t *testing.T) {
	pm := NewPixmap(10, 10)
	dc := NewSoftContext(pm)
	dc.SetSourceColor(RGB(1, 0, 0))
	dc.Rectangle(NewRect(2, 2, 8, 8))
	dc.Fill()
	if got := pm.GetPixel(5, 5); got.R < 0.99 {
		t.Errorf("center pixel %+v", got)
	}
	if got := pm.GetPixel(0, 0); got != Transparent {
		t.Errorf("corner pixel %+v", got)
	}
}

func TestSoftContextTransformedFill(t *testing.T) {
	pm := NewPixmap(20, 20)
	dc := NewSoftContext(pm)
	dc.SetMatrix(Scale(2, 2))
	dc.SetSourceColor(RGB(0, 0, 1))
	dc.Rectangle(NewRect(1, 1, 5, 5))
	dc.Fill()
	if got := pm.GetPixel(5, 5); got.B < 0.99 {
		t.Errorf("scaled fill missing at (5,5): %+v", got)
	}
	if got := pm.GetPixel(11, 11); got != Transparent {
		t.Errorf("scaled fill overshoot at (11,11): %+v", got)
	}
}

func TestSoftContextClip(t *testing.T) {
	pm := NewPixmap(10, 10)
	dc := NewSoftContext(pm)
	dc.Rectangle(NewRect(0, 0, 5, 10))
	dc.Clip()
	dc.SetSourceColor(RGB(1, 1, 1))
	dc.Paint()
	if got := pm.GetPixel(2, 5); got.A < 0.99 {
		t.Errorf("inside clip %+v", got)
	}
	if got := pm.GetPixel(7, 5); got.A > 0.01 {
		t.Errorf("outside clip %+v", got)
	}
}

func TestSoftContextGroupIn(t *testing.T) {
	// Alpha accumulation then OpIn against grouped content is the
	// compositor's core sequence.
	pm := NewPixmap(4, 4)
	dc := NewSoftContext(pm)
	dc.SetOperator(OpSource)
	dc.SetSourceColor(RGBA{A: 0.5})
	dc.Paint()
	dc.PushGroup()
	dc.SetOperator(OpOver)
	dc.SetSourceColor(RGB(1, 0, 0))
	dc.Rectangle(NewRect(0, 0, 4, 4))
	dc.Fill()
	dc.PopGroupToSource()
	dc.SetOperator(OpIn)
	dc.Paint()
	got := pm.GetPixel(2, 2)
	if math.Abs(got.A-0.5) > 0.02 || got.R < 0.95 {
		t.Errorf("group-in result %+v, want half-alpha red", got)
	}
}

func TestSoftContextOperators(t *testing.T) {
	tests := []struct {
		name  string
		op    Operator
		wantA float64
	}{
		{"dest-in keeps alpha product", OpDestIn, 0.5},
		{"source replaces", OpSource, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pm := NewPixmap(2, 2)
			pm.Clear(RGB(0, 1, 0))
			dc := NewSoftContext(pm)
			dc.SetOperator(tt.op)
			dc.SetSourceColor(RGBA{R: 1, A: 0.5})
			dc.Paint()
			got := pm.GetPixel(0, 0)
			if math.Abs(got.A-tt.wantA) > 0.02 {
				t.Errorf("alpha = %v, want %v", got.A, tt.wantA)
			}
		})
	}
}

func TestBlendMultiply(t *testing.T) {
	pm := NewPixmap(1, 1)
	pm.Clear(RGBA{R: 0.5, G: 1, B: 0.5, A: 1})
	dc := NewSoftContext(pm)
	dc.SetOperator(OpMultiply)
	dc.SetSourceColor(RGBA{R: 1, G: 0.5, B: 0.5, A: 1})
	dc.Paint()
	got := pm.GetPixel(0, 0)
	if math.Abs(got.R-0.5) > 0.02 || math.Abs(got.G-0.5) > 0.02 || math.Abs(got.B-0.25) > 0.02 {
		t.Errorf("multiply blend %+v", got)
	}
}

func TestSoftContextStroke(t *testing.T) {
	pm := NewPixmap(20, 20)
	dc := NewSoftContext(pm)
	dc.SetSourceColor(RGB(1, 1, 1))
	dc.SetLineWidth(4)
	p := NewPath()
	p.MoveTo(2, 10)
	p.LineTo(18, 10)
	dc.AppendPath(p)
	dc.Stroke()
	if got := pm.GetPixel(10, 10); got.A < 0.99 {
		t.Errorf("stroke center %+v", got)
	}
	if got := pm.GetPixel(10, 2); got.A > 0.01 {
		t.Errorf("far from stroke %+v", got)
	}
}

func TestDeviceToUserDistance(t *testing.T) {
	pm := NewPixmap(1, 1)
	dc := NewSoftContext(pm)
	dc.SetMatrix(Scale(2, 4))
	dx, dy := dc.DeviceToUserDistance(2, 4)
	if math.Abs(dx-1) > 1e-9 || math.Abs(dy-1) > 1e-9 {
		t.Errorf("DeviceToUserDistance = %v, %v", dx, dy)
	}
}
