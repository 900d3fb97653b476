package sweep

import veld "github.com/veldgfx/veld"

// Contours decomposes a polygon into closed edge cycles, each edge
// visited exactly once in its own direction. The walk follows, at each
// vertex, the clockwise successor of the incoming edge-end, which
// traces the boundary of the face on the left of every edge.
//
// Incidence lists must be clockwise-sorted; ConvertToShape and Boolean
// leave them that way.
func (s *Shape) Contours() [][]int {
	used := make([]bool, len(s.Eds))
	var out [][]int
	for start := range s.Eds {
		if used[start] {
			continue
		}
		var cycle []int
		cur := start
		for {
			used[cur] = true
			cycle = append(cycle, cur)
			next := s.nextInFace(cur)
			if next < 0 || used[next] {
				break
			}
			cur = next
		}
		if len(cycle) > 0 {
			out = append(out, cycle)
		}
	}
	return out
}

// nextInFace returns the edge continuing the left-face boundary after
// cur, or -1 when the walk cannot continue.
func (s *Shape) nextInFace(cur int) int {
	v := s.Eds[cur].En
	edges := s.Pts[v].Edges
	m := len(edges)
	if m == 0 {
		return -1
	}
	// Locate cur's incoming end in the clockwise list.
	at := -1
	for i, e := range edges {
		if e == cur && s.Eds[e].En == v {
			at = i
			break
		}
	}
	if at < 0 {
		return -1
	}
	// The clockwise successor bounds the same face; skip entries that
	// are not outgoing here (they bound the face from the far side of a
	// degenerate spur).
	for k := 1; k <= m; k++ {
		e := edges[(at+k)%m]
		if s.Eds[e].St == v && e != cur {
			return e
		}
	}
	return -1
}

// ConvertToForme appends the polygon's contours to dest as closed
// subpaths.
func (s *Shape) ConvertToForme(dest *veld.Path) {
	for _, cycle := range s.Contours() {
		s.appendContour(dest, cycle)
	}
}

// ConvertToFormeNested groups the polygon's contours into paths by
// containment: each returned path holds one outer contour followed by
// the contours directly nested inside it. When backData is set, the
// per-contour edge back data is returned alongside, in the same order
// as the emitted contours of each path.
func (s *Shape) ConvertToFormeNested(backData bool) ([]*veld.Path, [][]BackData) {
	cycles := s.Contours()
	if len(cycles) == 0 {
		return nil, nil
	}
	// A contour is a hole iff its own winding just left of its edges is
	// 0: the left side of a hole's edges is the surrounding filled area,
	// outside the hole's cycle, while the left side of an outer boundary
	// lies inside it. Group each hole with the contour that contains it.
	cs := make([]contourInfo, len(cycles))
	for i, cycle := range cycles {
		e := cycle[0]
		st := s.Pts[s.Eds[e].St].P
		en := s.Pts[s.Eds[e].En].P
		d := en.Sub(st)
		rep := st.Lerp(en, 0.5).Add(d.Normalize().Rot90().Mul(gridStep / 4))
		cs[i] = contourInfo{cycle: cycle, rep: rep, outer: s.contourWinding(cycle, rep) != 0}
	}

	var paths []*veld.Path
	var backs [][]BackData
	ownerOf := make(map[int]int)
	for i := range cs {
		if !cs[i].outer {
			continue
		}
		p := veld.NewPath()
		s.appendContour(p, cs[i].cycle)
		ownerOf[i] = len(paths)
		paths = append(paths, p)
		if backData {
			backs = append(backs, s.contourBack(cs[i].cycle))
		}
	}
	if len(paths) == 0 {
		// Degenerate orientation: emit everything flat.
		p := veld.NewPath()
		s.ConvertToForme(p)
		return []*veld.Path{p}, nil
	}
	for i := range cs {
		if cs[i].outer {
			continue
		}
		owner := s.containingContour(cs, i)
		idx := 0
		if owner >= 0 {
			if oi, ok := ownerOf[owner]; ok {
				idx = oi
			}
		}
		s.appendContour(paths[idx], cs[i].cycle)
		if backData {
			backs[idx] = append(backs[idx], s.contourBack(cs[i].cycle)...)
		}
	}
	return paths, backs
}

// contourInfo is a contour cycle with its nesting classification.
type contourInfo struct {
	cycle []int
	outer bool
	rep   veld.Point
}

// containingContour finds the outer contour whose interior contains the
// hole's representative point, preferring the innermost one.
func (s *Shape) containingContour(cs []contourInfo, hole int) int {
	best := -1
	bestLen := 0
	p := cs[hole].rep
	for i := range cs {
		if i == hole || !cs[i].outer {
			continue
		}
		if s.contourWinding(cs[i].cycle, p) == 0 {
			continue
		}
		if best < 0 || len(cs[i].cycle) < bestLen {
			best = i
			bestLen = len(cs[i].cycle)
		}
	}
	return best
}

// contourWinding computes the winding of one cycle around pt.
func (s *Shape) contourWinding(cycle []int, pt veld.Point) int {
	var w float64
	for _, e := range cycle {
		w += edgeCrossing(s.Pts[s.Eds[e].St].P, s.Pts[s.Eds[e].En].P, pt)
	}
	if w < 0 {
		w = -w
	}
	return int(w + 0.5)
}

// appendContour writes one cycle to a path as a closed subpath.
func (s *Shape) appendContour(dest *veld.Path, cycle []int) {
	if len(cycle) == 0 {
		return
	}
	st := s.Pts[s.Eds[cycle[0]].St].P
	dest.MoveTo(st.X, st.Y)
	for _, e := range cycle {
		en := s.Pts[s.Eds[e].En].P
		dest.LineTo(en.X, en.Y)
	}
	dest.Close()
}

// contourBack collects the back data of one cycle's edges.
func (s *Shape) contourBack(cycle []int) []BackData {
	if !s.HasBack {
		return nil
	}
	out := make([]BackData, len(cycle))
	for i, e := range cycle {
		out[i] = s.Back[e]
	}
	return out
}

// Reoriente writes into dst the polygon with every contour oriented so
// that the filled interior lies to the left of its edges, using the
// non-zero rule on the existing windings.
func Reoriente(dst, src *Shape) error {
	return ConvertToShape(dst, src, veld.FillNonZero, false)
}
