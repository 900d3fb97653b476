package sweep

import (
	"testing"

	veld "github.com/veldgfx/veld"
)

func TestOffsetRectangleRound(t *testing.T) {
	// A counter-clockwise unit-oriented rectangle grown by 2 with
	// round joins becomes a rounded rectangle spanning (-2,-2)-(12,12).
	src := rectPolygon(t, 0, 0, 10, 10)
	raw := NewShape()
	if err := MakeOffset(raw, src, 2, JoinRound, 4); err != nil {
		t.Fatal(err)
	}
	res := mustConvert(t, raw, veld.FillPositive)
	checkPolygon(t, res)

	if got := res.Bounds(); !got.Near(veld.NewRect(-2, -2, 12, 12), 0.01) {
		t.Errorf("offset bounds %+v, want (-2,-2)-(12,12)", got)
	}
	// The corners are rounded: the bbox corners themselves stay
	// outside the shape.
	if w := res.Winding(veld.Pt(-1.9, -1.9)); w != 0 {
		t.Errorf("corner winding %d, want 0", w)
	}
	if w := res.Winding(veld.Pt(5, -1.5)); w != 1 {
		t.Errorf("edge-band winding %d, want 1", w)
	}
	if w := res.Winding(veld.Pt(5, 5)); w != 1 {
		t.Errorf("interior winding %d, want 1", w)
	}
}

func TestOffsetShrink(t *testing.T) {
	src := rectPolygon(t, 0, 0, 10, 10)
	raw := NewShape()
	if err := MakeOffset(raw, src, -2, JoinStraight, 4); err != nil {
		t.Fatal(err)
	}
	res := mustConvert(t, raw, veld.FillPositive)
	checkPolygon(t, res)
	if got := res.Bounds(); !got.Near(veld.NewRect(2, 2, 8, 8), 0.01) {
		t.Errorf("shrunk bounds %+v, want (2,2)-(8,8)", got)
	}
}

func TestOffsetMiter(t *testing.T) {
	src := rectPolygon(t, 0, 0, 10, 10)
	raw := NewShape()
	if err := MakeOffset(raw, src, 2, JoinPointed, 4); err != nil {
		t.Fatal(err)
	}
	res := mustConvert(t, raw, veld.FillPositive)
	checkPolygon(t, res)
	// Pointed joins restore the sharp corners.
	if got := res.Bounds(); !got.Near(veld.NewRect(-2, -2, 12, 12), 0.01) {
		t.Errorf("miter bounds %+v", got)
	}
	if w := res.Winding(veld.Pt(-1.8, -1.8)); w != 1 {
		t.Errorf("miter corner winding %d, want 1", w)
	}
}

func TestOffsetRejectsRaw(t *testing.T) {
	raw := pathShape(rectShapePath(0, 0, 4, 4))
	dst := NewShape()
	if err := MakeOffset(dst, raw, 1, JoinRound, 4); err != ErrNotPolygon {
		t.Errorf("got %v, want ErrNotPolygon", err)
	}
}

func TestOffsetZero(t *testing.T) {
	src := rectPolygon(t, 0, 0, 4, 4)
	dst := NewShape()
	if err := MakeOffset(dst, src, 0, JoinRound, 4); err != nil {
		t.Fatal(err)
	}
	if len(dst.Eds) != len(src.Eds) {
		t.Errorf("zero offset changed edge count %d -> %d", len(src.Eds), len(dst.Eds))
	}
}

func TestTweakRepel(t *testing.T) {
	src := rectPolygon(t, 0, 0, 10, 10)
	dst := NewShape()
	if err := MakeTweak(dst, src, TweakRepel, 2, 20, veld.Pt(5, 5), veld.Point{}); err != nil {
		t.Fatal(err)
	}
	// Every vertex moved away from the centre.
	for i := range dst.Pts {
		before := src.Pts[i].P.Distance(veld.Pt(5, 5))
		after := dst.Pts[i].P.Distance(veld.Pt(5, 5))
		if after <= before {
			t.Errorf("vertex %d moved inward: %v -> %v", i, before, after)
		}
	}
	res := mustConvert(t, dst, veld.FillNonZero)
	checkPolygon(t, res)
}

func TestTweakOutsideRadius(t *testing.T) {
	src := rectPolygon(t, 0, 0, 10, 10)
	dst := NewShape()
	if err := MakeTweak(dst, src, TweakPush, 5, 0.5, veld.Pt(100, 100), veld.Pt(1, 0)); err != nil {
		t.Fatal(err)
	}
	for i := range dst.Pts {
		if dst.Pts[i].P != src.Pts[i].P {
			t.Errorf("vertex %d moved outside the radius", i)
		}
	}
}
