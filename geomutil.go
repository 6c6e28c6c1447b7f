/*
Copyright © 2026 the urock authors.
This file is part of urock.

urock is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

urock is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with urock.  If not, see <http://www.gnu.org/licenses/>.
*/
package urock

import (
	"math"

	"github.com/ctessum/geom"
)

// snap rounds a coordinate to the nearest multiple of tol, the same
// "treat near-equal coordinates as equal" rule §7 requires of every
// geometric predicate, implemented here as a single snap-rounding helper
// rather than scattering tolerance comparisons through each zone builder.
func snap(v, tol float64) float64 {
	if tol <= 0 {
		return v
	}
	return math.Round(v/tol) * tol
}

func snapPoint(p geom.Point, tol float64) geom.Point {
	return geom.Point{X: snap(p.X, tol), Y: snap(p.Y, tol)}
}

func snapPolygon(p geom.Polygon, tol float64) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		r := make([]geom.Point, len(ring))
		for j, pt := range ring {
			r[j] = snapPoint(pt, tol)
		}
		out[i] = r
	}
	return out
}

// isEmpty reports whether a polygon has no area-bearing rings left, the
// signal C1 uses to silently drop a degenerate zone (§7 ErrDegenerateZone).
func isEmpty(p geom.Polygon) bool {
	for _, ring := range p {
		if len(ring) >= 4 {
			return false
		}
	}
	return true
}

// rectFromBounds builds a closed rectangular ring from b.
func rectFromBounds(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Min.Y},
	}}
}

// unitVector returns the normalized direction from a to b, and its length.
func unitVector(a, b geom.Point) (geom.Point, float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return geom.Point{}, 0
	}
	return geom.Point{X: dx / l, Y: dy / l}, l
}

// rotate rotates vector v by angle radians (counterclockwise).
func rotate(v geom.Point, angle float64) geom.Point {
	c, s := math.Cos(angle), math.Sin(angle)
	return geom.Point{X: v.X*c - v.Y*s, Y: v.X*s + v.Y*c}
}

// buildEllipse discretizes an ellipse centered at center, with the first
// semi-axis (length rx) initially along axis0 and the second (length ry)
// perpendicular to it, both then rotated an additional extra radians
// about center. npoints vertices are emitted, evenly spaced in parametric
// angle, closing the ring.
func buildEllipse(center geom.Point, axis0 geom.Point, rx, ry, extra float64, npoints int) geom.Polygon {
	if npoints < 3 {
		npoints = 3
	}
	a0 := rotate(axis0, extra)
	a1 := rotate(geom.Point{X: -axis0.Y, Y: axis0.X}, extra) // perpendicular axis, same rotation
	ring := make([]geom.Point, npoints+1)
	for i := 0; i < npoints; i++ {
		phi := 2 * math.Pi * float64(i) / float64(npoints)
		cx := rx * math.Cos(phi)
		cy := ry * math.Sin(phi)
		ring[i] = geom.Point{
			X: center.X + cx*a0.X + cy*a1.X,
			Y: center.Y + cx*a0.Y + cy*a1.Y,
		}
	}
	ring[npoints] = ring[0]
	return geom.Polygon{ring}
}

// halfPlane builds a rectangle, far larger than anything it will be
// intersected with, covering one side of the infinite line through a-b.
// keepLeft selects the side to the left of the a->b direction.
func halfPlane(a, b geom.Point, keepLeft bool, pad float64) geom.Polygon {
	dir, length := unitVector(a, b)
	if length == 0 {
		return geom.Polygon{}
	}
	normal := geom.Point{X: -dir.Y, Y: dir.X}
	if !keepLeft {
		normal = geom.Point{X: dir.Y, Y: -dir.X}
	}
	// Extend far beyond the line's endpoints along its own direction too,
	// so the half-plane fully covers anything near the segment.
	ext := geom.Point{X: a.X - dir.X*pad, Y: a.Y - dir.Y*pad}
	ext2 := geom.Point{X: b.X + dir.X*pad, Y: b.Y + dir.Y*pad}
	far1 := geom.Point{X: ext.X + normal.X*pad, Y: ext.Y + normal.Y*pad}
	far2 := geom.Point{X: ext2.X + normal.X*pad, Y: ext2.Y + normal.Y*pad}
	return geom.Polygon{{ext, ext2, far2, far1, ext}}
}

// splitKeepSmallerY returns the part of p lying on the smaller-Y
// (upwind) side of the infinite line through a-b.
func splitKeepSmallerY(p geom.Polygon, a, b geom.Point, pad float64) geom.Polygon {
	left := halfPlane(a, b, true, pad)
	right := halfPlane(a, b, false, pad)
	// whichever half-plane has the smaller average Y is upwind.
	if avgY(left) <= avgY(right) {
		return p.Intersection(left)
	}
	return p.Intersection(right)
}

// splitKeepLargerY is the downwind counterpart of splitKeepSmallerY.
func splitKeepLargerY(p geom.Polygon, a, b geom.Point, pad float64) geom.Polygon {
	left := halfPlane(a, b, true, pad)
	right := halfPlane(a, b, false, pad)
	if avgY(left) >= avgY(right) {
		return p.Intersection(left)
	}
	return p.Intersection(right)
}

func avgY(p geom.Polygon) float64 {
	var sum float64
	var n int
	for _, ring := range p {
		for _, pt := range ring {
			sum += pt.Y
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// envelopePad is large enough to extend a half-plane split well beyond
// any realistic sketch extent.
const envelopePad = 1e6

// verticalLineIntersectY intersects the vertical line x=x with p and
// returns the minimum and maximum Y of the intersection, and whether the
// line hits p at all. Used throughout C3 to find Y_wall and L_zone.
func verticalLineIntersectY(p geom.Polygon, x float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	found := false
	for _, ring := range p {
		for i := 0; i < len(ring)-1; i++ {
			p1, p2 := ring[i], ring[i+1]
			if (p1.X <= x && p2.X >= x) || (p1.X >= x && p2.X <= x) {
				if p1.X == p2.X {
					// Segment is vertical and coincides with the line; both
					// endpoints are on it.
					lo = math.Min(lo, math.Min(p1.Y, p2.Y))
					hi = math.Max(hi, math.Max(p1.Y, p2.Y))
					found = true
					continue
				}
				t := (x - p1.X) / (p2.X - p1.X)
				y := p1.Y + t*(p2.Y-p1.Y)
				lo = math.Min(lo, y)
				hi = math.Max(hi, y)
				found = true
			}
		}
	}
	return lo, hi, found
}
