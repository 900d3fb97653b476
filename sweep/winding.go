package sweep

import (
	"math"

	veld "github.com/veldgfx/veld"
)

// computeWindings fills in the side windings of every edge. One edge
// per connected component is seeded by direct evaluation; the rest are
// propagated algebraically through the clockwise-sorted incidence
// lists, which is both cheaper and exact: consecutive edge-ends around
// a vertex bound a common face, so a known side determines its
// neighbour's side. Along each edge, rightW = leftW - weight.
//
// Incidence lists must be clockwise-sorted (SortEdges) before calling.
func computeWindings(w *Shape) {
	n := len(w.Eds)
	if w.srcW != nil {
		w.dualL = make([][2]int, n)
		w.dualR = make([][2]int, n)
	}
	known := make([]bool, n)
	queue := make([]int, 0, n)

	setEdge := func(e int, left, right [2]int) {
		if known[e] {
			return
		}
		known[e] = true
		if w.srcW != nil {
			w.dualL[e] = left
			w.dualR[e] = right
		}
		w.Eds[e].LeftW = left[0] + left[1]
		w.Eds[e].RightW = right[0] + right[1]
		queue = append(queue, e)
	}

	weightVec := func(e int) [2]int {
		if w.srcW != nil {
			return w.srcW[e]
		}
		return [2]int{w.Eds[e].Weight, 0}
	}

	// left and right return the already assigned windings on either
	// side of edge e.
	left := func(e int) [2]int {
		if w.srcW != nil {
			return w.dualL[e]
		}
		return [2]int{w.Eds[e].LeftW, 0}
	}
	right := func(e int) [2]int {
		if w.srcW != nil {
			return w.dualR[e]
		}
		return [2]int{w.Eds[e].RightW, 0}
	}

	for e := 0; e < n; e++ {
		if known[e] {
			continue
		}
		l := w.probeLeft(e)
		wt := weightVec(e)
		setEdge(e, l, [2]int{l[0] - wt[0], l[1] - wt[1]})

		for len(queue) > 0 {
			cur := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for _, v := range []int{w.Eds[cur].St, w.Eds[cur].En} {
				edges := w.Pts[v].Edges
				m := len(edges)
				for i, a := range edges {
					if a != cur {
						continue
					}
					b := edges[(i+1)%m]
					c := edges[(i-1+m)%m]
					// The face between a and its clockwise successor b
					// lies clockwise-before b's end.
					faceAfter := sideTowardsSuccessor(w, a, v, left, right)
					propagateSide(w, b, v, true, faceAfter, known, setEdge, weightVec)
					// The face between the predecessor c and a lies
					// clockwise-after c's end.
					faceBefore := sideTowardsPredecessor(w, a, v, left, right)
					propagateSide(w, c, v, false, faceBefore, known, setEdge, weightVec)
				}
			}
		}
	}
}

// sideTowardsSuccessor returns the winding of the face lying clockwise
// after edge e's end at vertex v: the right side for an outgoing edge,
// the left side for an incoming one.
func sideTowardsSuccessor(w *Shape, e, v int, left, right func(int) [2]int) [2]int {
	if w.Eds[e].St == v {
		return right(e)
	}
	return left(e)
}

// sideTowardsPredecessor returns the winding of the face lying
// clockwise before edge e's end at vertex v.
func sideTowardsPredecessor(w *Shape, e, v int, left, right func(int) [2]int) [2]int {
	if w.Eds[e].St == v {
		return left(e)
	}
	return right(e)
}

// propagateSide assigns windings to edge e given the winding of the
// face clockwise-before (faceBeforeEnd true) or clockwise-after
// (faceBeforeEnd false) its end at v.
func propagateSide(w *Shape, e, v int, faceBeforeEnd bool, face [2]int, known []bool,
	setEdge func(int, [2]int, [2]int), weightVec func(int) [2]int) {
	if known[e] {
		return
	}
	wt := weightVec(e)
	outgoing := w.Eds[e].St == v
	// The face clockwise-before an edge-end is the left side of an
	// outgoing edge (right of an incoming one); clockwise-after is the
	// opposite side.
	var isLeft bool
	if faceBeforeEnd {
		isLeft = outgoing
	} else {
		isLeft = !outgoing
	}
	if isLeft {
		setEdge(e, face, [2]int{face[0] - wt[0], face[1] - wt[1]})
	} else {
		setEdge(e, [2]int{face[0] + wt[0], face[1] + wt[1]}, face)
	}
}

// probeLeft evaluates the winding just left of edge e's midpoint by
// iterating all edges. Used once per connected component as the
// propagation seed.
func (w *Shape) probeLeft(e int) [2]int {
	st := w.Pts[w.Eds[e].St].P
	en := w.Pts[w.Eds[e].En].P
	mid := st.Lerp(en, 0.5)
	dir := en.Sub(st)
	if dir.LengthSquared() == 0 {
		return [2]int{}
	}
	probe := mid.Add(dir.Normalize().Rot90().Mul(gridStep / 4))
	return w.windingVec(probe)
}

// windingVec computes per-operand winding numbers at pt.
func (w *Shape) windingVec(pt veld.Point) [2]int {
	var acc [2]float64
	for i := range w.Eds {
		e := w.Eds[i]
		c := edgeCrossing(w.Pts[e.St].P, w.Pts[e.En].P, pt)
		if c == 0 {
			continue
		}
		if w.srcW != nil {
			acc[0] += float64(w.srcW[i][0]) * c
			acc[1] += float64(w.srcW[i][1]) * c
		} else {
			acc[0] += float64(e.Weight) * c
		}
	}
	return [2]int{int(math.Round(acc[0])), int(math.Round(acc[1]))}
}

// insideFunc decides interiority from a winding vector.
type insideFunc func(wv [2]int) bool

// ruleInside returns the interiority test for a plain fill rule.
func ruleInside(rule veld.FillRule, invert bool) insideFunc {
	base := func(wv [2]int) bool {
		w := wv[0] + wv[1]
		switch rule {
		case veld.FillEvenOdd:
			return w%2 != 0
		case veld.FillPositive:
			return w > 0
		default:
			return w != 0
		}
	}
	if !invert {
		return base
	}
	return func(wv [2]int) bool { return !base(wv) }
}

// applyFillRule keeps the edges separating interior from exterior,
// oriented with the interior on the left, and drops the rest. The
// resulting boundary windings are those of the kept region: 1 on the
// left of every edge, 0 on the right.
func applyFillRule(w *Shape, rule veld.FillRule, invert bool) {
	w.filterEdges(ruleInside(rule, invert), nil)
}

// filterEdges applies the interiority test to each edge's sides. keep
// may be non-nil to force retention of specific edges (used by the cut
// and slice boolean modes for interior cut lines).
func (w *Shape) filterEdges(inside insideFunc, keep func(e int, li, ri bool) bool) {
	dead := make([]bool, len(w.Eds))
	for i := range w.Eds {
		var lv, rv [2]int
		if w.srcW != nil {
			lv, rv = w.dualL[i], w.dualR[i]
		} else {
			lv = [2]int{w.Eds[i].LeftW, 0}
			rv = [2]int{w.Eds[i].RightW, 0}
		}
		li, ri := inside(lv), inside(rv)
		switch {
		case li && !ri:
			// Interior already on the left.
		case ri && !li:
			w.Eds[i].St, w.Eds[i].En = w.Eds[i].En, w.Eds[i].St
			if w.HasBack {
				w.Back[i].T0, w.Back[i].T1 = w.Back[i].T1, w.Back[i].T0
			}
		default:
			if keep == nil || !keep(i, li, ri) {
				dead[i] = true
				continue
			}
		}
		w.Eds[i].LeftW = 1
		w.Eds[i].RightW = 0
		w.Eds[i].Weight = 1
	}
	w.removeEdges(dead)
	w.srcW = nil
	w.dualL, w.dualR = nil, nil
	w.removeUnusedVertices()
}
