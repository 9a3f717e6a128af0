package grid

import (
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// RepresentativePoint returns a point guaranteed to lie inside the polygon
// (or on its boundary). The centroid is used when it happens to fall inside;
// otherwise a horizontal scanline through the polygon's vertical midpoint is
// intersected with the exterior ring and the midpoint of the widest interior
// interval is taken. Concave cells (a "C" shape) have centroids outside the
// shape, which is why a plain centroid cannot serve as the anchor.
func RepresentativePoint(poly orb.Polygon) orb.Point {
	if len(poly) == 0 || len(poly[0]) == 0 {
		return orb.Point{}
	}

	centroid, _ := planar.CentroidArea(poly)
	if planar.PolygonContains(poly, centroid) {
		return centroid
	}

	ring := poly[0]
	bound := ring.Bound()

	// Scanline at the vertical bisector, nudged off any vertex so edge
	// crossings are counted cleanly.
	y := (bound.Min[1] + bound.Max[1]) / 2
	eps := (bound.Max[1] - bound.Min[1]) * 1e-7
	if eps == 0 {
		eps = 1e-12
	}
	for touchesVertex(ring, y) {
		y += eps
	}

	xs := ringCrossings(ring, y)
	if len(xs) < 2 {
		// Degenerate ring; the first vertex is the best remaining answer.
		return ring[0]
	}

	// Crossings pair up into interior intervals; the widest one gives the
	// most central anchor.
	bestX, bestWidth := 0.0, -1.0
	for i := 0; i+1 < len(xs); i += 2 {
		if w := xs[i+1] - xs[i]; w > bestWidth {
			bestWidth = w
			bestX = (xs[i] + xs[i+1]) / 2
		}
	}
	return orb.Point{bestX, y}
}

// touchesVertex reports whether any ring vertex lies exactly on the scanline.
func touchesVertex(ring orb.Ring, y float64) bool {
	for _, p := range ring {
		if p[1] == y {
			return true
		}
	}
	return false
}

// ringCrossings returns the sorted x coordinates where the horizontal line
// at y crosses the ring's edges.
func ringCrossings(ring orb.Ring, y float64) []float64 {
	var xs []float64
	for i := 0; i+1 < len(ring); i++ {
		p1, p2 := ring[i], ring[i+1]
		if (p1[1] > y) == (p2[1] > y) {
			continue
		}
		x := p1[0] + (y-p1[1])*(p2[0]-p1[0])/(p2[1]-p1[1])
		xs = append(xs, x)
	}
	sort.Float64s(xs)
	return xs
}
