package sweep

import (
	"math"
	"sort"
	"testing"

	veld "github.com/veldgfx/veld"
)

// pathShape flattens a path into a raw shape.
func pathShape(p *veld.Path) *Shape {
	s := NewShape()
	s.AppendPath(p, 0, 0.05)
	return s
}

func rectShapePath(x0, y0, x1, y1 float64) *veld.Path {
	p := veld.NewPath()
	p.Rectangle(veld.NewRect(x0, y0, x1, y1))
	return p
}

// mustConvert converts and fails the test on error.
func mustConvert(t *testing.T, src *Shape, rule veld.FillRule) *Shape {
	t.Helper()
	dst := NewShape()
	if err := ConvertToShape(dst, src, rule, false); err != nil {
		t.Fatalf("ConvertToShape: %v", err)
	}
	return dst
}

// checkPolygon asserts the polygon invariants: Eulerian, no crossing
// edges except at shared endpoints, no vertex interior to an edge,
// and side windings consistent with edge weights.
func checkPolygon(t *testing.T, s *Shape) {
	t.Helper()
	if !s.Eulerian() {
		t.Error("polygon is not eulerian")
	}
	for i := range s.Eds {
		if got := s.Eds[i].LeftW - s.Eds[i].RightW; got != s.Eds[i].Weight {
			t.Errorf("edge %d: leftW-rightW = %d, weight %d", i, got, s.Eds[i].Weight)
		}
	}
	for i := range s.Eds {
		for j := i + 1; j < len(s.Eds); j++ {
			a0 := s.Pts[s.Eds[i].St].P
			a1 := s.Pts[s.Eds[i].En].P
			b0 := s.Pts[s.Eds[j].St].P
			b1 := s.Pts[s.Eds[j].En].P
			if _, ta, tb, ok := segmentIntersect(a0, a1, b0, b1); ok {
				const eps = 1e-9
				if ta > eps && ta < 1-eps && tb > eps && tb < 1-eps {
					t.Errorf("edges %d and %d cross at interior points", i, j)
				}
			}
		}
	}
	for v := range s.Pts {
		for e := range s.Eds {
			if s.Eds[e].St == v || s.Eds[e].En == v {
				continue
			}
			if _, on := pointOnEdge(s.Pts[s.Eds[e].St].P, s.Pts[s.Eds[e].En].P, s.Pts[v].P); on {
				t.Errorf("vertex %d lies on edge %d", v, e)
			}
		}
	}
}

func TestRound(t *testing.T) {
	step := math.Ldexp(1, -9)
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 1},
		{step, step},
		{step * 0.4, 0},
		{step * 0.6, step},
		{-step * 0.6, -step},
	}
	for _, tt := range tests {
		if got := Round(tt.in); got != tt.want {
			t.Errorf("Round(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConvertEmptyShape(t *testing.T) {
	dst := NewShape()
	if err := ConvertToShape(dst, NewShape(), veld.FillNonZero, false); err != nil {
		t.Fatalf("empty input errored: %v", err)
	}
	if !dst.IsEmpty() {
		t.Error("empty input produced edges")
	}
}

func TestConvertNonEulerian(t *testing.T) {
	s := NewShape()
	a := s.AddVertex(veld.Pt(0, 0))
	b := s.AddVertex(veld.Pt(10, 0))
	s.AddEdge(a, b) // open arc
	dst := NewShape()
	if err := ConvertToShape(dst, s, veld.FillNonZero, false); err != ErrNotEulerian {
		t.Errorf("got %v, want ErrNotEulerian", err)
	}
	// FillJustDont accepts it.
	if err := ConvertToShape(dst, s, veld.FillJustDont, false); err != nil {
		t.Errorf("just-dont rejected open arc: %v", err)
	}
}

func TestConvertRectangle(t *testing.T) {
	res := mustConvert(t, pathShape(rectShapePath(0, 0, 10, 10)), veld.FillNonZero)
	checkPolygon(t, res)
	if len(res.Eds) != 4 || len(res.Pts) != 4 {
		t.Fatalf("rect polygon has %d vertices, %d edges", len(res.Pts), len(res.Eds))
	}
	if w := res.Winding(veld.Pt(5, 5)); w != 1 {
		t.Errorf("interior winding %d, want 1", w)
	}
	if w := res.Winding(veld.Pt(15, 5)); w != 0 {
		t.Errorf("exterior winding %d, want 0", w)
	}
}

func TestConvertBowtie(t *testing.T) {
	// A self-crossing closed path resolves into two triangles sharing
	// the centre vertex.
	p := veld.NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 10)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()

	res := mustConvert(t, pathShape(p), veld.FillNonZero)
	checkPolygon(t, res)

	if len(res.Pts) != 5 {
		t.Errorf("bowtie has %d vertices, want 5", len(res.Pts))
	}
	if len(res.Eds) != 6 {
		t.Errorf("bowtie has %d edges, want 6", len(res.Eds))
	}
	if w := res.Winding(veld.Pt(5, 5)); w != 0 {
		t.Errorf("winding at centre vertex = %d, want 0 by the half-crossing rule", w)
	}
	if w := res.Winding(veld.Pt(2.5, 2.5)); w != 1 {
		t.Errorf("winding on boundary point = %d, want 1", w)
	}
	if w := res.Winding(veld.Pt(2, 5)); w != 1 {
		t.Errorf("winding inside left triangle = %d, want 1", w)
	}
	if w := res.Winding(veld.Pt(8, 5)); w != 1 {
		t.Errorf("winding inside right triangle = %d, want 1", w)
	}
}

// edgeSet normalises a shape to a sorted list of directed coordinate
// pairs for comparison up to reordering.
func edgeSet(s *Shape) [][4]float64 {
	out := make([][4]float64, 0, len(s.Eds))
	for i := range s.Eds {
		st := s.Pts[s.Eds[i].St].P
		en := s.Pts[s.Eds[i].En].P
		out = append(out, [4]float64{st.X, st.Y, en.X, en.Y})
	}
	sort.Slice(out, func(a, b int) bool {
		for k := 0; k < 4; k++ {
			if out[a][k] != out[b][k] {
				return out[a][k] < out[b][k]
			}
		}
		return false
	})
	return out
}

func TestConvertRoundTrip(t *testing.T) {
	// Converting an already intersection-free polygon must reproduce
	// it up to edge reordering.
	p := veld.NewPath()
	p.MoveTo(0, 0)
	p.LineTo(10, 10)
	p.LineTo(10, 0)
	p.LineTo(0, 10)
	p.Close()
	once := mustConvert(t, pathShape(p), veld.FillNonZero)
	twice := mustConvert(t, once, veld.FillNonZero)
	checkPolygon(t, twice)

	a, b := edgeSet(once), edgeSet(twice)
	if len(a) != len(b) {
		t.Fatalf("round trip changed edge count %d -> %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("edge %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestZeroWeightDoublonsRemoved(t *testing.T) {
	// A contour and its exact reverse cancel to nothing.
	s := pathShape(rectShapePath(0, 0, 10, 10))
	rev := veld.NewPath()
	rev.MoveTo(0, 0)
	rev.LineTo(0, 10)
	rev.LineTo(10, 10)
	rev.LineTo(10, 0)
	rev.Close()
	s.AppendPath(rev, 1, 0.05)

	res := mustConvert(t, s, veld.FillNonZero)
	if !res.IsEmpty() {
		t.Errorf("cancelling contours left %d edges", len(res.Eds))
	}
}

func TestConvertHole(t *testing.T) {
	p := rectShapePath(0, 0, 10, 10)
	inner := veld.NewPath()
	inner.MoveTo(3, 3)
	inner.LineTo(3, 7)
	inner.LineTo(7, 7)
	inner.LineTo(7, 3)
	inner.Close()
	p.Append(inner)

	res := mustConvert(t, pathShape(p), veld.FillNonZero)
	checkPolygon(t, res)
	if w := res.Winding(veld.Pt(5, 5)); w != 0 {
		t.Errorf("hole winding %d, want 0", w)
	}
	if w := res.Winding(veld.Pt(1, 5)); w != 1 {
		t.Errorf("ring winding %d, want 1", w)
	}

	paths, _ := res.ConvertToFormeNested(false)
	if len(paths) != 1 {
		t.Fatalf("nested extraction produced %d paths, want 1", len(paths))
	}
	// The single path carries both contours; even-odd and non-zero
	// agree on it.
	if paths[0].Contains(veld.Pt(5, 5), veld.FillNonZero) {
		t.Error("extracted path fills the hole")
	}
	if !paths[0].Contains(veld.Pt(1, 5), veld.FillNonZero) {
		t.Error("extracted path misses the ring")
	}
}

func TestReoriente(t *testing.T) {
	// A clockwise (negative) rectangle comes out with the interior on
	// the left of every edge.
	rev := veld.NewPath()
	rev.MoveTo(0, 0)
	rev.LineTo(0, 10)
	rev.LineTo(10, 10)
	rev.LineTo(10, 0)
	rev.Close()
	raw := pathShape(rev)
	fixed := NewShape()
	if err := Reoriente(fixed, raw); err != nil {
		t.Fatal(err)
	}
	checkPolygon(t, fixed)
	if w := fixed.Winding(veld.Pt(5, 5)); w != 1 {
		t.Errorf("reoriented interior winding %d, want 1", w)
	}
}

func TestSortEdgesClockwise(t *testing.T) {
	s := NewShape()
	c := s.AddVertex(veld.Pt(0, 0))
	up := s.AddVertex(veld.Pt(0, 10))
	right := s.AddVertex(veld.Pt(10, 0))
	down := s.AddVertex(veld.Pt(0, -10))
	left := s.AddVertex(veld.Pt(-10, 0))
	eUp := s.AddEdge(c, up)
	eRight := s.AddEdge(c, right)
	eDown := s.AddEdge(c, down)
	eLeft := s.AddEdge(c, left)
	s.SortEdges()
	got := s.Pts[c].Edges
	want := []int{eUp, eRight, eDown, eLeft}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("clockwise order %v, want %v", got, want)
		}
	}
}

func TestEventQueue(t *testing.T) {
	q := &eventQueue{}
	n1 := &sweepNode{}
	n2 := &sweepNode{}
	n3 := &sweepNode{}
	e1 := &intersectionEvent{leftNode: n1, rightNode: n2, p: veld.Pt(5, 5)}
	e2 := &intersectionEvent{leftNode: n2, rightNode: n3, p: veld.Pt(1, 2)}
	q.push(e1)
	q.push(e2)
	if q.peek() != e2 {
		t.Fatal("heap order wrong: lowest y first")
	}
	// Removal by identity through the node back-pointers.
	q.remove(n1.evtRight)
	if q.peek() != e2 || len(q.items) != 1 {
		t.Fatal("remove by identity failed")
	}
	if got := q.pop(); got != e2 {
		t.Fatalf("pop = %+v", got)
	}
	if !q.empty() {
		t.Fatal("queue not empty")
	}
	if n2.evtLeft != nil || n2.evtRight != nil {
		t.Error("back-pointers not cleared")
	}
}

func TestPointOnEdge(t *testing.T) {
	tests := []struct {
		name   string
		st, en veld.Point
		p      veld.Point
		want   bool
	}{
		{"midpoint", veld.Pt(0, 0), veld.Pt(10, 0), veld.Pt(5, 0), true},
		{"off edge", veld.Pt(0, 0), veld.Pt(10, 0), veld.Pt(5, 1), false},
		{"at endpoint", veld.Pt(0, 0), veld.Pt(10, 0), veld.Pt(0, 0), false},
		{"past end", veld.Pt(0, 0), veld.Pt(10, 0), veld.Pt(11, 0), false},
		{"diagonal hit", veld.Pt(0, 0), veld.Pt(8, 8), veld.Pt(4, 4), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, on := pointOnEdge(tt.st, tt.en, tt.p)
			if on != tt.want {
				t.Errorf("pointOnEdge = %v, want %v", on, tt.want)
			}
		})
	}
}

func TestTeeJunctionSplits(t *testing.T) {
	// A vertex of one contour lying mid-edge of another must split
	// that edge.
	s := pathShape(rectShapePath(0, 0, 10, 10))
	s.AppendPath(rectShapePath(10, 2, 20, 8), 1, 0.05)
	res := mustConvert(t, s, veld.FillNonZero)
	checkPolygon(t, res)
	if w := res.Winding(veld.Pt(15, 5)); w != 1 {
		t.Errorf("right box winding %d", w)
	}
	if w := res.Winding(veld.Pt(5, 5)); w != 1 {
		t.Errorf("left box winding %d", w)
	}
}
