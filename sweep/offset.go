package sweep

import (
	"math"

	veld "github.com/veldgfx/veld"
)

// JoinType selects how offset contours connect around convex corners.
type JoinType uint8

// Join type constants.
const (
	// JoinStraight connects offset edges with a straight segment.
	JoinStraight JoinType = iota

	// JoinRound connects offset edges with a circular arc.
	JoinRound

	// JoinPointed extends the offset edges to their intersection,
	// falling back to a straight join past the miter limit.
	JoinPointed
)

// MakeOffset writes into dst the raw graph of src's contours offset by
// dec. Positive dec grows the shape (the interior lies to the left of
// every edge, so the offset moves edges rightward); negative dec
// shrinks it. The result generally self-intersects and must be passed
// through ConvertToShape with FillPositive by the caller.
//
// miter is the miter limit for JoinPointed, as a multiple of dec.
func MakeOffset(dst, src *Shape, dec float64, join JoinType, miter float64) error {
	dst.Reset()
	if src.IsEmpty() {
		return nil
	}
	if src.Type != TypePolygon {
		return ErrNotPolygon
	}
	if dec == 0 {
		dst.CopyFrom(src)
		dst.Type = TypeRaw
		return nil
	}
	if src.HasBack {
		dst.EnableBackData()
	}

	for _, cycle := range src.Contours() {
		offsetContour(dst, src, cycle, dec, join, miter)
	}
	dst.Type = TypeRaw
	return nil
}

// offsetContour emits the offset of one closed contour into dst.
func offsetContour(dst, src *Shape, cycle []int, dec float64, join JoinType, miter float64) {
	n := len(cycle)
	if n == 0 {
		return
	}
	pts := make([]veld.Point, n)
	dirs := make([]veld.Point, n)
	for i, e := range cycle {
		pts[i] = src.Pts[src.Eds[e].St].P
		d := src.EdgeVector(e)
		if d.LengthSquared() == 0 {
			d = veld.Pt(1, 0)
		}
		dirs[i] = d.Normalize()
	}

	// Right normal: the offset side. The interior is on the left, so
	// positive dec moves outward.
	rightN := func(d veld.Point) veld.Point { return veld.Pt(d.Y, -d.X) }

	var chain []veld.Point
	var backIdx []int // source edge per chain segment start, -1 for joins
	for i := 0; i < n; i++ {
		o := rightN(dirs[i]).Mul(dec)
		a := pts[i].Add(o)
		b := pts[(i+1)%n].Add(o)
		chain = append(chain, a)
		backIdx = append(backIdx, cycle[i])
		chain = append(chain, b)
		backIdx = append(backIdx, -1)

		// Join towards the next edge around the shared vertex.
		next := (i + 1) % n
		cross := dirs[i].Cross(dirs[next])
		v := pts[next]
		oNext := rightN(dirs[next]).Mul(dec)
		if cross*dec > 0 {
			switch join {
			case JoinRound:
				for _, p := range arcPoints(v, o, oNext, cross > 0) {
					chain = append(chain, p)
					backIdx = append(backIdx, -1)
				}
			case JoinPointed:
				if p, ok := miterPoint(v, o, dirs[i], oNext, dirs[next], dec, miter); ok {
					chain = append(chain, p)
					backIdx = append(backIdx, -1)
				}
			}
		}
	}

	// Emit the chain as a closed loop of edges. Coincident neighbours
	// produce zero-length edges that the conversion pass removes.
	first := dst.AddVertex(chain[0])
	prev := first
	for i := 1; i < len(chain); i++ {
		cur := dst.AddVertex(chain[i])
		if dst.HasBack && backIdx[i-1] >= 0 {
			dst.AddEdgeWithBack(prev, cur, src.Back[backIdx[i-1]])
		} else {
			dst.AddEdge(prev, cur)
		}
		prev = cur
	}
	dst.AddEdge(prev, first)
}

// arcPoints emits intermediate points of a circular arc of radius |o|
// around v from direction o to direction oNext, sweeping
// counter-clockwise when ccw is set. The arc endpoints themselves are
// not emitted.
func arcPoints(v, o, oNext veld.Point, ccw bool) []veld.Point {
	r := o.Length()
	if r == 0 {
		return nil
	}
	a0 := math.Atan2(o.Y, o.X)
	a1 := math.Atan2(oNext.Y, oNext.X)
	var sweep float64
	if ccw {
		sweep = a1 - a0
		for sweep < 0 {
			sweep += 2 * math.Pi
		}
	} else {
		sweep = a1 - a0
		for sweep > 0 {
			sweep -= 2 * math.Pi
		}
	}
	steps := int(math.Ceil(math.Abs(sweep) / 0.4))
	var out []veld.Point
	for i := 1; i < steps; i++ {
		a := a0 + sweep*float64(i)/float64(steps)
		out = append(out, veld.Pt(v.X+r*math.Cos(a), v.Y+r*math.Sin(a)))
	}
	return out
}

// miterPoint computes the pointed-join apex: the intersection of the
// two offset lines, accepted while its distance from the vertex stays
// within miter*|dec|.
func miterPoint(v, o, d1, oNext, d2 veld.Point, dec, miter float64) (veld.Point, bool) {
	a := v.Add(o)
	b := v.Add(oNext)
	den := d1.Cross(d2)
	if den == 0 {
		return veld.Point{}, false
	}
	t := b.Sub(a).Cross(d2) / den
	p := a.Add(d1.Mul(t))
	limit := math.Abs(miter * dec)
	if miter > 0 && p.Sub(v).Length() > limit {
		return veld.Point{}, false
	}
	return p, true
}

// TweakMode selects a shape tweak.
type TweakMode uint8

// Tweak modes.
const (
	// TweakPush displaces vertices near the center along a fixed
	// direction.
	TweakPush TweakMode = iota

	// TweakShrink moves vertices inward along the local normal
	// (outward for negative force).
	TweakShrink

	// TweakAttract pulls vertices towards the center.
	TweakAttract

	// TweakRepel pushes vertices away from the center.
	TweakRepel

	// TweakRoughen jitters vertices deterministically.
	TweakRoughen
)

// MakeTweak writes into dst a raw graph whose vertices near center have
// been displaced according to the mode, with a smooth quartic falloff
// over radius. The result may self-intersect; callers normalise it with
// ConvertToShape.
func MakeTweak(dst, src *Shape, mode TweakMode, force, radius float64, center, dir veld.Point) error {
	dst.Reset()
	if src.IsEmpty() {
		return nil
	}
	if radius <= 0 {
		dst.CopyFrom(src)
		dst.Type = TypeRaw
		return nil
	}
	dst.CopyFrom(src)
	dst.Type = TypeRaw
	for i := range dst.Pts {
		p := dst.Pts[i].P
		d := p.Distance(center)
		if d >= radius {
			continue
		}
		t := 1 - (d/radius)*(d/radius)
		wgt := t * t
		var delta veld.Point
		switch mode {
		case TweakPush:
			delta = dir.Mul(force * wgt)
		case TweakShrink:
			delta = dst.vertexNormal(i).Mul(-force * wgt)
		case TweakAttract:
			delta = center.Sub(p).Normalize().Mul(force * wgt)
		case TweakRepel:
			delta = p.Sub(center).Normalize().Mul(force * wgt)
		case TweakRoughen:
			h := uint32(i)*2654435761 + 12345
			jx := float64(h%1024)/512 - 1
			jy := float64((h/1024)%1024)/512 - 1
			delta = veld.Pt(jx, jy).Mul(force * wgt)
		}
		dst.Pts[i].P = p.Add(delta)
	}
	return nil
}

// vertexNormal approximates the outward normal at a vertex as the
// average right normal of its incident edges.
func (s *Shape) vertexNormal(v int) veld.Point {
	var acc veld.Point
	for _, e := range s.Pts[v].Edges {
		d := s.EdgeVector(e)
		if d.LengthSquared() == 0 {
			continue
		}
		d = d.Normalize()
		acc = acc.Add(veld.Pt(d.Y, -d.X))
	}
	if acc.LengthSquared() == 0 {
		return veld.Pt(0, 0)
	}
	return acc.Normalize()
}
