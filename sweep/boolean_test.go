package sweep

import (
	"testing"

	veld "github.com/veldgfx/veld"
)

func rectPolygon(t *testing.T, x0, y0, x1, y1 float64) *Shape {
	t.Helper()
	return mustConvert(t, pathShape(rectShapePath(x0, y0, x1, y1)), veld.FillNonZero)
}

func mustBoolean(t *testing.T, a, b *Shape, op BoolOp) *Shape {
	t.Helper()
	dst := NewShape()
	if err := Boolean(dst, a, b, op, -1); err != nil {
		t.Fatalf("Boolean(%v): %v", op, err)
	}
	return dst
}

func TestBooleanUnionSharedEdge(t *testing.T) {
	// Two rectangles sharing the x=10 edge fuse into one outline
	// (0,0), (20,0), (20,10), (0,10); the shared edge vanishes.
	a := rectPolygon(t, 0, 0, 10, 10)
	b := rectPolygon(t, 10, 0, 20, 10)
	res := mustBoolean(t, a, b, BoolUnion)
	checkPolygon(t, res)

	if got := res.Bounds(); !got.Near(veld.NewRect(0, 0, 20, 10), 0.01) {
		t.Errorf("union bounds %+v", got)
	}
	// No edge may remain on the shared boundary.
	for i := range res.Eds {
		st := res.Pts[res.Eds[i].St].P
		en := res.Pts[res.Eds[i].En].P
		if st.X == 10 && en.X == 10 {
			t.Errorf("shared edge survived: %v -> %v", st, en)
		}
	}
	cycles := res.Contours()
	if len(cycles) != 1 {
		t.Fatalf("union has %d contours, want 1", len(cycles))
	}
	// Every vertex lies on the fused outline.
	outline := veld.NewRect(0, 0, 20, 10)
	for i := range res.Pts {
		p := res.Pts[i].P
		onX := p.X == outline.X0 || p.X == outline.X1
		onY := p.Y == outline.Y0 || p.Y == outline.Y1
		if !onX && !onY {
			t.Errorf("vertex %v off the outline", p)
		}
	}
	if w := res.Winding(veld.Pt(10, 5)); w != 1 {
		t.Errorf("winding across former seam %d, want 1", w)
	}
}

func TestBooleanIntersection(t *testing.T) {
	a := rectPolygon(t, 0, 0, 10, 10)
	b := rectPolygon(t, 5, 5, 15, 15)
	res := mustBoolean(t, a, b, BoolIntersection)
	checkPolygon(t, res)
	if got := res.Bounds(); !got.Near(veld.NewRect(5, 5, 10, 10), 0.01) {
		t.Errorf("intersection bounds %+v", got)
	}
	if w := res.Winding(veld.Pt(7, 7)); w != 1 {
		t.Errorf("intersection interior winding %d", w)
	}
	if w := res.Winding(veld.Pt(2, 2)); w != 0 {
		t.Errorf("a-only area winding %d", w)
	}
}

func TestBooleanDifference(t *testing.T) {
	a := rectPolygon(t, 0, 0, 10, 10)
	b := rectPolygon(t, 5, 0, 15, 10)
	res := mustBoolean(t, a, b, BoolDifference)
	checkPolygon(t, res)
	if got := res.Bounds(); !got.Near(veld.NewRect(0, 0, 5, 10), 0.01) {
		t.Errorf("difference bounds %+v", got)
	}
	if w := res.Winding(veld.Pt(7, 5)); w != 0 {
		t.Errorf("subtracted area winding %d", w)
	}
	if w := res.Winding(veld.Pt(2, 5)); w != 1 {
		t.Errorf("remaining area winding %d", w)
	}
}

func TestBooleanSymDifference(t *testing.T) {
	a := rectPolygon(t, 0, 0, 10, 10)
	b := rectPolygon(t, 5, 0, 15, 10)
	res := mustBoolean(t, a, b, BoolSymDifference)
	checkPolygon(t, res)
	if w := res.Winding(veld.Pt(7, 5)); w != 0 {
		t.Errorf("overlap winding %d, want 0", w)
	}
	if w := res.Winding(veld.Pt(2, 5)); w != 1 {
		t.Errorf("a-only winding %d", w)
	}
	if w := res.Winding(veld.Pt(12, 5)); w != 1 {
		t.Errorf("b-only winding %d", w)
	}
}

func TestBooleanDisjointUnion(t *testing.T) {
	a := rectPolygon(t, 0, 0, 4, 4)
	b := rectPolygon(t, 10, 10, 14, 14)
	res := mustBoolean(t, a, b, BoolUnion)
	checkPolygon(t, res)
	if len(res.Contours()) != 2 {
		t.Errorf("disjoint union has %d contours, want 2", len(res.Contours()))
	}
}

func TestBooleanEmptyOperands(t *testing.T) {
	a := rectPolygon(t, 0, 0, 4, 4)
	empty := NewShape()
	res := mustBoolean(t, a, empty, BoolUnion)
	if res.Winding(veld.Pt(2, 2)) != 1 {
		t.Error("union with empty lost the operand")
	}
	res2 := mustBoolean(t, empty, empty, BoolUnion)
	if !res2.IsEmpty() {
		t.Error("union of empties is not empty")
	}
}

func TestBooleanSlice(t *testing.T) {
	// Slice keeps only b's edges running through a's interior.
	a := rectPolygon(t, 0, 0, 10, 10)
	b := rectPolygon(t, 4, -5, 6, 15)
	dst := NewShape()
	if err := Boolean(dst, a, b, BoolSlice, 7); err != nil {
		t.Fatal(err)
	}
	if dst.IsEmpty() {
		t.Fatal("slice produced nothing")
	}
	for i := range dst.Eds {
		st := dst.Pts[dst.Eds[i].St].P
		en := dst.Pts[dst.Eds[i].En].P
		mid := st.Lerp(en, 0.5)
		if mid.X < 0 || mid.X > 10 || mid.Y < 0 || mid.Y > 10 {
			t.Errorf("slice edge %v -> %v outside a", st, en)
		}
		if dst.HasBack && dst.Back[i].PathID != 7 {
			t.Errorf("slice edge lacks cut path id: %+v", dst.Back[i])
		}
	}
}

func TestBooleanRejectsRawOperand(t *testing.T) {
	raw := pathShape(rectShapePath(0, 0, 4, 4))
	dst := NewShape()
	if err := Boolean(dst, raw, NewShape(), BoolUnion, -1); err != ErrNotPolygon {
		t.Errorf("got %v, want ErrNotPolygon", err)
	}
}
