package sweep

import veld "github.com/veldgfx/veld"

// BoolOp selects a boolean operation mode.
type BoolOp uint8

// Boolean operation modes.
const (
	// BoolUnion keeps area inside either input.
	BoolUnion BoolOp = iota

	// BoolIntersection keeps area inside both inputs.
	BoolIntersection

	// BoolDifference keeps area of the first input outside the second.
	BoolDifference

	// BoolSymDifference keeps area inside exactly one input.
	BoolSymDifference

	// BoolCut keeps the first input's area but retains the second
	// input's edges crossing it as interior cut lines, labelled with
	// the cut path id.
	BoolCut

	// BoolSlice keeps only the second input's edges where they run
	// through the first input's interior.
	BoolSlice
)

// String returns a human-readable name for the mode.
func (op BoolOp) String() string {
	switch op {
	case BoolUnion:
		return "Union"
	case BoolIntersection:
		return "Intersection"
	case BoolDifference:
		return "Difference"
	case BoolSymDifference:
		return "SymDifference"
	case BoolCut:
		return "Cut"
	case BoolSlice:
		return "Slice"
	default:
		return "Unknown"
	}
}

// Boolean writes into dst the result of the boolean operation between
// two polygons. Inputs must be intersection-free polygons as produced
// by ConvertToShape (interior on the left). Both inputs' edges are
// merged into one sweep, labelled with their source, and the winding
// filter becomes mode-specific on the per-source winding pairs.
//
// cutPathID labels the interior cut lines produced by BoolCut and
// BoolSlice in the result's back data; pass -1 when unused.
func Boolean(dst *Shape, a, b *Shape, op BoolOp, cutPathID int) error {
	dst.Reset()
	if a.IsEmpty() && b.IsEmpty() {
		return nil
	}
	if a.Type != TypePolygon || b.Type != TypePolygon {
		// Raw inputs have ambiguous interiors; callers normalise with
		// ConvertToShape first.
		if !a.IsEmpty() && a.Type != TypePolygon {
			return ErrNotPolygon
		}
		if !b.IsEmpty() && b.Type != TypePolygon {
			return ErrNotPolygon
		}
	}

	w := NewShape()
	w.HasBack = a.HasBack || b.HasBack || op == BoolCut || op == BoolSlice
	if w.HasBack {
		w.Back = w.Back[:0]
	}
	w.srcW = make([][2]int, 0, len(a.Eds)+len(b.Eds))
	appendOperand(w, a, 0)
	appendOperand(w, b, 1)
	normalizeGraph(w)

	splits := findIntersections(w)
	applySplits(w, splits)
	mergeCoincidentVertices(w)
	adjacencyPass(w)
	mergeDoubledEdges(w)
	w.SortEdges()
	computeWindings(w)

	inside := boolInside(op)
	var keep func(e int, li, ri bool) bool
	switch op {
	case BoolCut:
		// Interior cut lines: edges from b with a's area on both
		// sides.
		keep = func(e int, li, ri bool) bool {
			if !li || !ri {
				return false
			}
			if w.srcW[e][1] == 0 {
				return false
			}
			if w.HasBack {
				w.Back[e].PathID = cutPathID
			}
			return true
		}
	case BoolSlice:
		keep = nil
	}

	switch op {
	case BoolSlice:
		// Only the cut lines: b's edges strictly inside a.
		dead := make([]bool, len(w.Eds))
		insideA := func(wv [2]int) bool { return wv[0] != 0 }
		for i := range w.Eds {
			bEdge := w.srcW[i][1] != 0
			if !bEdge || !insideA(w.dualL[i]) || !insideA(w.dualR[i]) {
				dead[i] = true
				continue
			}
			if w.HasBack {
				w.Back[i].PathID = cutPathID
			}
			w.Eds[i].LeftW = 0
			w.Eds[i].RightW = 0
			w.Eds[i].Weight = 1
		}
		w.removeEdges(dead)
		w.srcW = nil
		w.dualL, w.dualR = nil, nil
		w.removeUnusedVertices()
		w.SortEdges()
		w.Type = TypeRaw
		*dst = *w
		return nil
	default:
		w.filterEdges(inside, keep)
	}

	mergeDoubledEdges(w)
	w.removeUnusedVertices()
	w.SortEdges()
	w.Type = TypePolygon
	if op != BoolCut && !w.Eulerian() {
		veld.Logger().Warn("sweep: boolean produced non-eulerian polygon", "op", op.String())
		dst.Reset()
		return ErrNotEulerian
	}
	*dst = *w
	return nil
}

// appendOperand copies an operand's geometry into the working shape,
// tagging each edge's weight under the operand's slot.
func appendOperand(w *Shape, s *Shape, slot int) {
	base := len(w.Pts)
	for i := range s.Pts {
		w.AddVertex(s.Pts[i].P)
	}
	for i := range s.Eds {
		e := s.Eds[i]
		var bd BackData
		hasBD := false
		if s.HasBack {
			bd = s.Back[i]
			hasBD = true
		}
		var idx int
		if w.HasBack && hasBD {
			idx = w.AddEdgeWithBack(e.St+base, e.En+base, bd)
			w.Eds[idx].Weight = e.Weight
		} else {
			idx = w.AddWeightedEdge(e.St+base, e.En+base, e.Weight)
		}
		var sw [2]int
		sw[slot] = e.Weight
		w.srcW[idx] = sw
	}
}

// boolInside returns the interiority predicate of a boolean mode over
// the per-operand winding pair.
func boolInside(op BoolOp) insideFunc {
	switch op {
	case BoolIntersection:
		return func(wv [2]int) bool { return wv[0] != 0 && wv[1] != 0 }
	case BoolDifference:
		return func(wv [2]int) bool { return wv[0] != 0 && wv[1] == 0 }
	case BoolSymDifference:
		return func(wv [2]int) bool { return (wv[0] != 0) != (wv[1] != 0) }
	case BoolCut, BoolSlice:
		return func(wv [2]int) bool { return wv[0] != 0 }
	default: // BoolUnion
		return func(wv [2]int) bool { return wv[0] != 0 || wv[1] != 0 }
	}
}
