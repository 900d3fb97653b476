// Package sweep builds intersection-free polygons from arbitrary planar
// graphs with a sweepline, and provides the boolean, offset and winding
// operations of the display core on top of them.
//
// A Shape is a directed planar graph of vertices and weighted edges.
// ConvertToShape resolves all crossings and applies a fill rule, leaving
// a polygon in which the interior lies to the left of every edge; such
// polygons feed the boolean operations, offsetting and the tracing
// pipeline.
package sweep

import (
	"math"

	veld "github.com/veldgfx/veld"
)

// roundShift is the binary precision of the coordinate grid: all sweep
// coordinates are snapped to multiples of 2^-roundShift.
const roundShift = 9

// Round snaps a coordinate to the fixed-precision grid,
// ldexp(rint(ldexp(x, 9)), -9). Snapping stabilises intersection
// computations against floating point: two edges crossing near a grid
// point meet exactly at it.
func Round(x float64) float64 {
	return math.Ldexp(math.RoundToEven(math.Ldexp(x, roundShift)), -roundShift)
}

// RoundPoint snaps both coordinates of a point to the grid.
func RoundPoint(p veld.Point) veld.Point {
	return veld.Point{X: Round(p.X), Y: Round(p.Y)}
}

// gridStep is the grid pitch, 2^-roundShift.
var gridStep = math.Ldexp(1, -roundShift)

// sweepLess orders sweep events by (y ascending, then x ascending).
func sweepLess(a, b veld.Point) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
