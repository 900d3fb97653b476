package sweep

import (
	"math"
	"sort"

	veld "github.com/veldgfx/veld"
)

// splitRec is a point at which an edge must be cut, with its parametric
// position on the edge.
type splitRec struct {
	t float64
	p veld.Point
}

// ConvertToShape writes into dst the intersection-free polygon obtained
// from src under the given fill rule. The input may self-intersect
// arbitrarily; the result has the filled interior to the left of every
// edge, clockwise-sorted incidence lists and equal in/out degrees at
// every vertex.
//
// invert swaps interior and exterior in the fill-rule test. With
// FillJustDont no winding filtering happens at all; only degenerate
// geometry is removed, and the input need not be Eulerian.
func ConvertToShape(dst, src *Shape, rule veld.FillRule, invert bool) error {
	dst.Reset()
	if src.IsEmpty() {
		return nil
	}
	if rule != veld.FillJustDont && !src.Eulerian() {
		return ErrNotEulerian
	}

	w := NewShape()
	w.CopyFrom(src)
	normalizeGraph(w)

	splits := findIntersections(w)
	applySplits(w, splits)
	mergeCoincidentVertices(w)
	adjacencyPass(w)
	mergeDoubledEdges(w)

	if rule != veld.FillJustDont {
		w.SortEdges()
		computeWindings(w)
		applyFillRule(w, rule, invert)
		mergeDoubledEdges(w)
	}

	w.removeUnusedVertices()
	w.SortEdges()
	if rule != veld.FillJustDont {
		w.Type = TypePolygon
		if !w.Eulerian() {
			// Numerical limit case: report and clear rather than hand
			// out a graph that cannot bound an area.
			veld.Logger().Warn("sweep: conversion produced non-eulerian polygon")
			dst.Reset()
			return ErrNotEulerian
		}
	} else {
		w.Type = TypeRaw
	}
	*dst = *w
	return nil
}

// normalizeGraph rounds all coordinates to the grid, merges coincident
// vertices and removes degenerate edges.
func normalizeGraph(w *Shape) {
	for i := range w.Pts {
		w.Pts[i].P = RoundPoint(w.Pts[i].P)
	}
	mergeCoincidentVertices(w)
}

// mergeCoincidentVertices merges vertices with identical rounded
// coordinates, dropping edges that collapse to a point.
func mergeCoincidentVertices(w *Shape) {
	canon := make(map[veld.Point]int, len(w.Pts))
	remap := make([]int, len(w.Pts))
	for i := range w.Pts {
		w.Pts[i].oldDegree = w.Pts[i].In + w.Pts[i].Out
		if j, ok := canon[w.Pts[i].P]; ok {
			remap[i] = j
		} else {
			canon[w.Pts[i].P] = i
			remap[i] = i
		}
	}
	dead := make([]bool, len(w.Eds))
	for i := range w.Eds {
		w.Eds[i].St = remap[w.Eds[i].St]
		w.Eds[i].En = remap[w.Eds[i].En]
		if w.Eds[i].St == w.Eds[i].En {
			dead[i] = true
		}
	}
	w.removeEdges(dead)
	w.removeUnusedVertices()
}

// sweepEdge pairs an edge with its sweep orientation.
type sweepEdge struct {
	up, down veld.Point
	flipped  bool // true when the edge's start is the lower endpoint
}

func orientEdge(w *Shape, i int) sweepEdge {
	a := w.Pts[w.Eds[i].St].P
	b := w.Pts[w.Eds[i].En].P
	if sweepLess(b, a) {
		return sweepEdge{up: b, down: a, flipped: true}
	}
	return sweepEdge{up: a, down: b, flipped: false}
}

// findIntersections runs the sweepline over the graph and returns, per
// edge, the points where it crosses another edge. It also records, per
// vertex, the edge immediately to its left when the sweep passed it.
func findIntersections(w *Shape) map[int][]splitRec {
	splits := make(map[int][]splitRec)
	if len(w.Eds) == 0 {
		return splits
	}

	// Vertex events in (y, x) order.
	order := make([]int, len(w.Pts))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return sweepLess(w.Pts[order[a]].P, w.Pts[order[b]].P)
	})

	w.leftEdge = make([]int, len(w.Pts))
	for i := range w.leftEdge {
		w.leftEdge[i] = -1
	}

	tree := &sweepTree{}
	queue := &eventQueue{}
	nodes := make([]*sweepNode, len(w.Eds))

	addSplit := func(edge int, t float64, p veld.Point) {
		if t <= 1e-9 || t >= 1-1e-9 {
			return
		}
		splits[edge] = append(splits[edge], splitRec{t: t, p: p})
	}

	// testIntersect checks a neighbour pair and queues the crossing.
	// Crossings at or before the current sweep position only record
	// splits; queueing them would loop.
	testIntersect := func(l, r *sweepNode, cur veld.Point) {
		if l == nil || r == nil || l == r {
			return
		}
		li, ri := l.edge, r.edge
		p, tl, tr, ok := segmentIntersect(
			w.Pts[w.Eds[li].St].P, w.Pts[w.Eds[li].En].P,
			w.Pts[w.Eds[ri].St].P, w.Pts[w.Eds[ri].En].P)
		if !ok {
			return
		}
		rp := RoundPoint(p)
		if sweepLess(rp, cur) || rp == cur {
			addSplit(li, tl, rp)
			addSplit(ri, tr, rp)
			return
		}
		if l.evtRight != nil || r.evtLeft != nil {
			return
		}
		queue.push(&intersectionEvent{leftNode: l, rightNode: r, p: rp, tl: tl, tr: tr})
	}

	vi := 0
	for vi < len(order) || !queue.empty() {
		// Pick the earlier of the next vertex event and the heap top.
		var doIntersection bool
		if vi >= len(order) {
			doIntersection = true
		} else if ev := queue.peek(); ev != nil {
			doIntersection = !sweepLess(w.Pts[order[vi]].P, ev.p)
		}

		if doIntersection {
			ev := queue.pop()
			l, r := ev.leftNode, ev.rightNode
			addSplit(l.edge, ev.tl, ev.p)
			addSplit(r.edge, ev.tr, ev.p)
			if l.next != r {
				// The neighbourhood changed since the event was
				// queued; the splits are recorded, nothing to swap.
				continue
			}
			queue.remove(l.evtLeft)
			queue.remove(r.evtRight)
			// Swap payloads; the nodes keep their tree positions,
			// which now reflect the post-crossing order.
			l.edge, r.edge = r.edge, l.edge
			l.a, r.a = r.a, l.a
			l.b, r.b = r.b, l.b
			nodes[l.edge] = l
			nodes[r.edge] = r
			testIntersect(l.prev, l, ev.p)
			testIntersect(r, r.next, ev.p)
			continue
		}

		v := order[vi]
		vi++
		pos := w.Pts[v].P

		// Remove edges ending (sweep-wise) at this vertex.
		for _, e := range w.Pts[v].Edges {
			se := orientEdge(w, e)
			if se.down != pos || se.up == se.down {
				continue
			}
			node := nodes[e]
			if node == nil {
				continue
			}
			queue.remove(node.evtLeft)
			queue.remove(node.evtRight)
			prev, next := node.prev, node.next
			tree.remove(node)
			nodes[e] = nil
			testIntersect(prev, next, pos)
		}

		// Insert edges starting (sweep-wise) here.
		for _, e := range w.Pts[v].Edges {
			se := orientEdge(w, e)
			if se.up != pos || se.up == se.down {
				continue
			}
			if nodes[e] != nil {
				continue
			}
			node := &sweepNode{edge: e, a: se.up, b: se.down}
			tree.insert(node, pos.Y)
			nodes[e] = node
			if node.prev != nil {
				w.leftEdge[v] = node.prev.edge
			}
			// The old neighbour pair is no longer adjacent; its
			// pending event, if any, is obsolete.
			if node.prev != nil {
				queue.remove(node.prev.evtRight)
			}
			if node.next != nil {
				queue.remove(node.next.evtLeft)
			}
			testIntersect(node.prev, node, pos)
			testIntersect(node, node.next, pos)
		}
	}
	return splits
}

// segmentIntersect intersects two segments, excluding intersections at
// shared endpoints and colinear overlaps (those are resolved by the
// adjacency pass). Returned parameters are relative to each segment's
// own direction.
func segmentIntersect(a0, a1, b0, b1 veld.Point) (p veld.Point, ta, tb float64, ok bool) {
	if a0 == b0 || a0 == b1 || a1 == b0 || a1 == b1 {
		return veld.Point{}, 0, 0, false
	}
	da := a1.Sub(a0)
	db := b1.Sub(b0)
	den := da.Cross(db)
	if den == 0 {
		return veld.Point{}, 0, 0, false
	}
	diff := b0.Sub(a0)
	ta = diff.Cross(db) / den
	tb = diff.Cross(da) / den
	const eps = 1e-12
	if ta < -eps || ta > 1+eps || tb < -eps || tb > 1+eps {
		return veld.Point{}, 0, 0, false
	}
	return a0.Add(da.Mul(ta)), ta, tb, true
}

// applySplits cuts every edge at its recorded split points, preserving
// weights and interpolating back data.
func applySplits(w *Shape, splits map[int][]splitRec) {
	if len(splits) == 0 {
		return
	}
	vertexAt := make(map[veld.Point]int, len(w.Pts))
	for i := range w.Pts {
		vertexAt[w.Pts[i].P] = i
	}
	getVertex := func(p veld.Point) int {
		if i, ok := vertexAt[p]; ok {
			return i
		}
		i := w.AddVertex(p)
		vertexAt[p] = i
		return i
	}

	dead := make([]bool, len(w.Eds))
	for e, recs := range splits {
		sort.Slice(recs, func(a, b int) bool { return recs[a].t < recs[b].t })
		// Drop duplicates and cuts at the endpoints themselves.
		st, en := w.Eds[e].St, w.Eds[e].En
		chain := []int{st}
		ts := []float64{0}
		for _, rec := range recs {
			v := getVertex(rec.p)
			if v == chain[len(chain)-1] || v == en {
				continue
			}
			chain = append(chain, v)
			ts = append(ts, rec.t)
		}
		if len(chain) == 1 {
			continue
		}
		chain = append(chain, en)
		ts = append(ts, 1)
		dead[e] = true
		weight := w.Eds[e].Weight
		var bd BackData
		if w.HasBack {
			bd = w.Back[e]
		}
		var sw [2]int
		if w.srcW != nil {
			sw = w.srcW[e]
		}
		for i := 0; i+1 < len(chain); i++ {
			ni := w.AddWeightedEdge(chain[i], chain[i+1], weight)
			// Keep parallel arrays in step; AddWeightedEdge appended
			// defaults for them.
			if w.HasBack {
				span := bd.T1 - bd.T0
				w.Back[ni] = BackData{
					PathID:  bd.PathID,
					PieceID: bd.PieceID,
					T0:      bd.T0 + span*ts[i],
					T1:      bd.T0 + span*ts[i+1],
				}
			}
			if w.srcW != nil {
				w.srcW[ni] = sw
			}
		}
	}
	for len(dead) < len(w.Eds) {
		dead = append(dead, false)
	}
	w.removeEdges(dead)
}

// adjacencyPass splits edges at vertices that lie on them within the
// narrow grid band, iterating until stable. Together with the sweep it
// guarantees that no vertex ends up in the interior of an edge.
func adjacencyPass(w *Shape) {
	for iter := 0; iter < 8; iter++ {
		splits := make(map[int][]splitRec)
		for e := range w.Eds {
			st := w.Pts[w.Eds[e].St].P
			en := w.Pts[w.Eds[e].En].P
			bb := veld.NewRect(st.X, st.Y, en.X, en.Y).Expanded(2 * gridStep)
			for v := range w.Pts {
				if v == w.Eds[e].St || v == w.Eds[e].En {
					continue
				}
				p := w.Pts[v].P
				if !bb.Contains(p) {
					continue
				}
				if t, on := pointOnEdge(st, en, p); on {
					splits[e] = append(splits[e], splitRec{t: t, p: p})
				}
			}
		}
		if len(splits) == 0 {
			return
		}
		applySplits(w, splits)
		mergeCoincidentVertices(w)
	}
}

// pointOnEdge is the narrow-band adjacency test: the point must lie
// within a grid step and a half of the line, the edge must cross the
// half-grid cell centred on the point, and the parametric position must
// be strictly interior.
func pointOnEdge(st, en, p veld.Point) (t float64, on bool) {
	ed := en.Sub(st)
	len2 := ed.LengthSquared()
	if len2 == 0 {
		return 0, false
	}
	diff := p.Sub(st)
	dist := math.Abs(ed.Cross(diff)) / math.Sqrt(len2)
	if dist >= 1.5*gridStep {
		return 0, false
	}
	// The edge is on the point iff its supporting line separates two
	// opposite corners of the half-grid cell around the point.
	h := gridStep / 2
	c1 := ed.Cross(diff.Add(veld.Pt(-h, -h)))
	c2 := ed.Cross(diff.Add(veld.Pt(h, h)))
	c3 := ed.Cross(diff.Add(veld.Pt(-h, h)))
	c4 := ed.Cross(diff.Add(veld.Pt(h, -h)))
	if c1*c2 > 0 && c3*c4 > 0 {
		return 0, false
	}
	t = diff.Dot(ed) / len2
	if t <= 0 || t >= 1 {
		return 0, false
	}
	return t, true
}

// mergeDoubledEdges merges edges joining the same pair of vertices:
// weights sum when directions agree and cancel when they oppose; edges
// whose weights all reach zero are removed.
func mergeDoubledEdges(w *Shape) {
	type key struct{ lo, hi int }
	first := make(map[key]int, len(w.Eds))
	dead := make([]bool, len(w.Eds))
	for i := range w.Eds {
		st, en := w.Eds[i].St, w.Eds[i].En
		k := key{lo: st, hi: en}
		sign := 1
		if en < st {
			k = key{lo: en, hi: st}
			sign = -1
		}
		if j, ok := first[k]; ok {
			// Accumulate onto the first edge of the pair, oriented
			// lo -> hi.
			w.Eds[j].Weight += sign * w.Eds[i].Weight
			if w.srcW != nil {
				w.srcW[j][0] += sign * w.srcW[i][0]
				w.srcW[j][1] += sign * w.srcW[i][1]
			}
			dead[i] = true
			continue
		}
		// Canonicalise the first occurrence to lo -> hi so later merges
		// accumulate with consistent signs.
		if sign < 0 {
			w.Eds[i].St, w.Eds[i].En = w.Eds[i].En, w.Eds[i].St
			w.Eds[i].Weight = -w.Eds[i].Weight
			if w.srcW != nil {
				w.srcW[i][0] = -w.srcW[i][0]
				w.srcW[i][1] = -w.srcW[i][1]
			}
			if w.HasBack {
				w.Back[i].T0, w.Back[i].T1 = w.Back[i].T1, w.Back[i].T0
			}
		}
		first[k] = i
	}
	// Remove merged-away and fully cancelled edges, restoring positive
	// weight orientation.
	for i := range w.Eds {
		if dead[i] {
			continue
		}
		zero := w.Eds[i].Weight == 0
		if w.srcW != nil {
			zero = zero && w.srcW[i][0] == 0 && w.srcW[i][1] == 0
		}
		if zero {
			dead[i] = true
			continue
		}
		if w.Eds[i].Weight < 0 || (w.Eds[i].Weight == 0 && w.srcW != nil && w.srcW[i][0]+w.srcW[i][1] < 0) {
			w.Eds[i].St, w.Eds[i].En = w.Eds[i].En, w.Eds[i].St
			w.Eds[i].Weight = -w.Eds[i].Weight
			if w.srcW != nil {
				w.srcW[i][0] = -w.srcW[i][0]
				w.srcW[i][1] = -w.srcW[i][1]
			}
			if w.HasBack {
				w.Back[i].T0, w.Back[i].T1 = w.Back[i].T1, w.Back[i].T0
			}
		}
	}
	w.removeEdges(dead)
	w.removeUnusedVertices()
}
