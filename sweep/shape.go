package sweep

import (
	"errors"
	"math"
	"sort"

	veld "github.com/veldgfx/veld"
)

// Shape engine errors.
var (
	// ErrNotEulerian reports a graph in which some vertex has unequal
	// in- and out-degree, which cannot bound an area.
	ErrNotEulerian = errors.New("sweep: graph is not eulerian")

	// ErrEmptyInput reports an operation on an empty graph.
	ErrEmptyInput = errors.New("sweep: empty input")

	// ErrBadFillRule reports a fill rule not permitted for the
	// operation.
	ErrBadFillRule = errors.New("sweep: fill rule not permitted here")

	// ErrNotPolygon reports an input that must be an intersection-free
	// polygon but is not.
	ErrNotPolygon = errors.New("sweep: input is not a polygon")
)

// ShapeType records how far a graph has been normalised.
type ShapeType uint8

// Shape type constants.
const (
	// TypeRaw is an arbitrary directed graph, possibly self-crossing.
	TypeRaw ShapeType = iota

	// TypePolygon is intersection-free with the interior on the left of
	// every edge.
	TypePolygon

	// TypePolypatch is a partially normalised graph used as scratch
	// during boolean operations.
	TypePolypatch
)

// Vertex is a node of the graph. Edges lists the incident edge indices;
// an edge appears once for each of its endpoints at this vertex, so a
// loop appears twice. The list is kept clockwise-sorted by SortEdges.
type Vertex struct {
	P veld.Point

	// Edges holds incident edge indices in clockwise order after
	// SortEdges.
	Edges []int

	// In and Out are the incoming and outgoing degree.
	In, Out int

	// oldDegree is scratch used while merging coincident vertices.
	oldDegree int
}

// Edge is a directed weighted edge. The fill of a polygon lies to the
// left of the direction St -> En (left in the mathematical sense:
// the direction vector rotated +90 degrees).
type Edge struct {
	St, En int

	// Weight is the multiplicity of the edge; doubled edges merge by
	// summing weights, opposite edges cancel.
	Weight int

	// LeftW and RightW are the winding numbers on either side, filled
	// in by winding computation during ConvertToShape.
	LeftW, RightW int
}

// BackData records the origin of an edge: the path and piece it was cut
// from and the parametric range of the piece it covers.
type BackData struct {
	PathID  int
	PieceID int
	T0, T1  float64
}

// Shape is a directed planar graph with optional per-edge back data.
type Shape struct {
	Type ShapeType

	Pts []Vertex
	Eds []Edge

	// Back is parallel to Eds when HasBack is set.
	Back    []BackData
	HasBack bool

	// leftEdge records, per vertex, the index of the result edge
	// immediately to the vertex's left at its sweep event, or -1. Winding
	// computation does not read it; it seeds from a direct probe.
	leftEdge []int

	// srcW splits each edge's weight by boolean operand while a boolean
	// operation is in flight; nil otherwise.
	srcW [][2]int

	// dualL and dualR hold per-operand side windings during a boolean
	// operation, parallel to Eds.
	dualL, dualR [][2]int
}

// NewShape creates an empty raw shape.
func NewShape() *Shape {
	return &Shape{Type: TypeRaw}
}

// Reset empties the shape for reuse.
func (s *Shape) Reset() {
	s.Type = TypeRaw
	s.Pts = s.Pts[:0]
	s.Eds = s.Eds[:0]
	s.Back = s.Back[:0]
	s.HasBack = false
	s.leftEdge = s.leftEdge[:0]
	s.srcW = nil
}

// IsEmpty reports whether the shape has no edges.
func (s *Shape) IsEmpty() bool {
	return len(s.Eds) == 0
}

// AddVertex appends a vertex and returns its index.
func (s *Shape) AddVertex(p veld.Point) int {
	s.Pts = append(s.Pts, Vertex{P: p})
	return len(s.Pts) - 1
}

// AddEdge appends a directed edge of weight 1 and returns its index.
func (s *Shape) AddEdge(st, en int) int {
	return s.AddWeightedEdge(st, en, 1)
}

// AddWeightedEdge appends a directed edge with the given weight.
func (s *Shape) AddWeightedEdge(st, en, weight int) int {
	i := len(s.Eds)
	s.Eds = append(s.Eds, Edge{St: st, En: en, Weight: weight})
	s.Pts[st].Edges = append(s.Pts[st].Edges, i)
	s.Pts[st].Out++
	s.Pts[en].Edges = append(s.Pts[en].Edges, i)
	s.Pts[en].In++
	if s.HasBack {
		s.Back = append(s.Back, BackData{PathID: -1, PieceID: -1})
	}
	if s.srcW != nil {
		s.srcW = append(s.srcW, [2]int{})
	}
	return i
}

// AddEdgeWithBack appends an edge carrying back data.
func (s *Shape) AddEdgeWithBack(st, en int, bd BackData) int {
	if !s.HasBack {
		s.EnableBackData()
	}
	i := s.AddEdge(st, en)
	s.Back[i] = bd
	return i
}

// EnableBackData turns on back data storage, back-filling existing
// edges with empty records.
func (s *Shape) EnableBackData() {
	if s.HasBack {
		return
	}
	s.HasBack = true
	s.Back = make([]BackData, len(s.Eds))
	for i := range s.Back {
		s.Back[i] = BackData{PathID: -1, PieceID: -1}
	}
}

// EdgeVector returns the direction vector of edge i.
func (s *Shape) EdgeVector(i int) veld.Point {
	e := s.Eds[i]
	return s.Pts[e.En].P.Sub(s.Pts[e.St].P)
}

// CopyFrom replaces the contents of s with a deep copy of o.
func (s *Shape) CopyFrom(o *Shape) {
	s.Reset()
	s.Type = o.Type
	s.HasBack = o.HasBack
	s.Pts = append(s.Pts[:0], o.Pts...)
	for i := range s.Pts {
		s.Pts[i].Edges = append([]int(nil), o.Pts[i].Edges...)
	}
	s.Eds = append(s.Eds[:0], o.Eds...)
	s.Back = append(s.Back[:0], o.Back...)
}

// Eulerian reports whether every vertex has equal in- and out-degree.
func (s *Shape) Eulerian() bool {
	for i := range s.Pts {
		if s.Pts[i].In != s.Pts[i].Out {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of all vertices.
func (s *Shape) Bounds() veld.Rect {
	out := veld.EmptyRect()
	for i := range s.Pts {
		out = out.UnionPoint(s.Pts[i].P)
	}
	return out
}

// removeEdges drops the edges marked true in dead, compacting indices
// and incidence lists.
func (s *Shape) removeEdges(dead []bool) {
	remap := make([]int, len(s.Eds))
	n := 0
	for i := range s.Eds {
		if dead[i] {
			remap[i] = -1
			continue
		}
		remap[i] = n
		s.Eds[n] = s.Eds[i]
		if s.HasBack {
			s.Back[n] = s.Back[i]
		}
		if s.srcW != nil {
			s.srcW[n] = s.srcW[i]
		}
		n++
	}
	s.Eds = s.Eds[:n]
	if s.HasBack {
		s.Back = s.Back[:n]
	}
	if s.srcW != nil {
		s.srcW = s.srcW[:n]
	}
	s.rebuildIncidence(remap)
}

// rebuildIncidence recomputes per-vertex incidence lists and degrees
// after edges were remapped.
func (s *Shape) rebuildIncidence(remap []int) {
	for i := range s.Pts {
		s.Pts[i].Edges = s.Pts[i].Edges[:0]
		s.Pts[i].In = 0
		s.Pts[i].Out = 0
	}
	_ = remap
	for i := range s.Eds {
		e := s.Eds[i]
		s.Pts[e.St].Edges = append(s.Pts[e.St].Edges, i)
		s.Pts[e.St].Out++
		s.Pts[e.En].Edges = append(s.Pts[e.En].Edges, i)
		s.Pts[e.En].In++
	}
}

// removeUnusedVertices drops vertices with no incident edges.
func (s *Shape) removeUnusedVertices() {
	remap := make([]int, len(s.Pts))
	n := 0
	for i := range s.Pts {
		if len(s.Pts[i].Edges) == 0 {
			remap[i] = -1
			continue
		}
		remap[i] = n
		s.Pts[n] = s.Pts[i]
		if len(s.leftEdge) > i {
			s.leftEdge[n] = s.leftEdge[i]
		}
		n++
	}
	s.Pts = s.Pts[:n]
	if len(s.leftEdge) > n {
		s.leftEdge = s.leftEdge[:n]
	}
	for i := range s.Eds {
		s.Eds[i].St = remap[s.Eds[i].St]
		s.Eds[i].En = remap[s.Eds[i].En]
	}
}

// SortEdges orders every vertex's incidence list clockwise by outgoing
// direction. Edges arriving at the vertex are compared by their negated
// vector, so an edge and its reversal sort adjacently.
func (s *Shape) SortEdges() {
	for v := range s.Pts {
		s.sortEdgesAt(v)
	}
}

func (s *Shape) sortEdgesAt(v int) {
	edges := s.Pts[v].Edges
	sort.SliceStable(edges, func(a, b int) bool {
		va := s.vertexDir(edges[a], v)
		vb := s.vertexDir(edges[b], v)
		return clockwiseLess(va, vb)
	})
}

// vertexDir returns the outgoing direction of edge e as seen from
// vertex v: the edge vector when v is the start, its negation when v is
// the end. For a loop the start role wins.
func (s *Shape) vertexDir(e, v int) veld.Point {
	d := s.EdgeVector(e)
	if s.Eds[e].St == v {
		return d
	}
	return d.Neg()
}

// clockwiseLess orders direction vectors clockwise starting from the
// upward axis (0, 1). Exactly colinear directions compare by length as
// a deterministic fallback; the dot-product tiebreak keeps antiparallel
// coincident edges in a stable order.
func clockwiseLess(a, b veld.Point) bool {
	ha := halfPlane(a)
	hb := halfPlane(b)
	if ha != hb {
		return ha < hb
	}
	cross := a.Cross(b)
	if cross != 0 {
		// Within a half-plane, clockwise order is decreasing angle.
		return cross < 0
	}
	return a.Dot(b) > 0 && a.LengthSquared() < b.LengthSquared()
}

// halfPlane buckets a direction: 0 for the up axis and x > 0, 1 for
// the rest.
// Clockwise from (0,1) visits (1,0) then (0,-1) then (-1,0).
func halfPlane(d veld.Point) int {
	if d.X > 0 || (d.X == 0 && d.Y > 0) {
		return 0
	}
	return 1
}

// Winding returns the winding number of the shape around pt, iterating
// all edges against an upward vertical ray. An edge crossing the ray
// right-to-left contributes +weight, left-to-right -weight. An edge
// endpoint lying exactly on the ray contributes half its weight, with
// the sign determined by the edge's x orientation, so two edges meeting
// at the ray count once; edges passing through pt itself contribute
// nothing, so a shared vertex nets the windings of its wedges.
func (s *Shape) Winding(pt veld.Point) int {
	var w float64
	for i := range s.Eds {
		e := s.Eds[i]
		w += float64(e.Weight) * edgeCrossing(s.Pts[e.St].P, s.Pts[e.En].P, pt)
	}
	return int(math.Round(w))
}

// edgeCrossing is the signed crossing of the directed segment a->b with
// the upward vertical ray from pt, with the half-crossing endpoint
// rule.
func edgeCrossing(a, b, pt veld.Point) float64 {
	if a.X == b.X {
		return 0
	}
	sign := 1.0
	if b.X > a.X {
		sign = -1
	}
	lo, hi := a, b
	if lo.X > hi.X {
		lo, hi = hi, lo
	}
	if pt.X < lo.X || pt.X > hi.X {
		return 0
	}
	t := (pt.X - lo.X) / (hi.X - lo.X)
	y := lo.Y + t*(hi.Y-lo.Y)
	if y <= pt.Y {
		return 0
	}
	w := 1.0
	if pt.X == lo.X || pt.X == hi.X {
		w = 0.5
	}
	return sign * w
}

// AppendPath adds the flattened subpaths of p as closed edge loops,
// recording back data with the given path id when the shape carries
// back data.
func (s *Shape) AppendPath(p *veld.Path, pathID int, tol float64) {
	for pieceID, poly := range p.Flatten(tol) {
		if len(poly) < 2 {
			continue
		}
		closed := poly
		if poly[0] != poly[len(poly)-1] {
			closed = append(append([]veld.Point(nil), poly...), poly[0])
		}
		first := s.AddVertex(closed[0])
		prev := first
		n := len(closed) - 1
		for i := 1; i <= n; i++ {
			var cur int
			if i == n {
				cur = first
			} else {
				cur = s.AddVertex(closed[i])
			}
			if s.HasBack {
				s.AddEdgeWithBack(prev, cur, BackData{
					PathID:  pathID,
					PieceID: pieceID,
					T0:      float64(i-1) / float64(n),
					T1:      float64(i) / float64(n),
				})
			} else {
				s.AddEdge(prev, cur)
			}
			prev = cur
		}
	}
}
