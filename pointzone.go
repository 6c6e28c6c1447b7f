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
	"github.com/ctessum/geom/index/rtree"
)

// ZoneLocal is one (zone, grid point) association produced by C3: the
// zone-local geometric quantities C4's formulas need, resolved once per
// grid column and shared by every point on that column that falls
// inside the zone (§4.3 Point-to-Zone Mapper).
type ZoneLocal struct {
	Zone  *Zone
	Point GridPoint

	// YWall is the Y-coordinate of the zone's anchor wall on the
	// vertical line through Point.X.
	YWall float64

	// LZone is the length of zone ∩ (vertical line through Point.X)
	// along Y.
	LZone float64

	// CornerRatio is the RooftopCorner-specific normalized distance
	// from Point to the zone's corner anchor; zero for every other kind.
	CornerRatio float64
}

// anchorIsMaxY reports whether a zone kind's Y_wall is the maximum (as
// opposed to minimum) Y of its vertical-line intersection: whichever
// boundary of the intersection sits against the zone's own anchoring
// facade or envelope edge, so that y = |point.Y - Y_wall| is the
// distance from the wall into the zone. Displacement and
// displacement-vortex zones are cut at the facade on their larger-Y
// side (the half ellipse extends upwind, toward smaller Y); the street
// canyon is anchored at the downwind block's facade, also its
// larger-Y side. Cavity, wake and rooftop-perpendicular zones extend
// away from their owning block toward larger Y, so their wall sits on
// the smaller-Y side instead.
func anchorIsMaxY(k ZoneKind) bool {
	switch k {
	case ZoneDisplacement, ZoneDisplacementVortex, ZoneStreetCanyon:
		return true
	}
	return false
}

// MapPointsToZones resolves, for every grid point that falls inside a
// zone footprint, the zone-local quantities C4 needs. Zones are
// spatially indexed so each column only tests the zones whose bounds
// actually reach it; the vertical line per column is then intersected
// against each candidate zone once and its Y_wall/L_zone reused by
// every point on that column inside the zone, per the "precomputed
// once" instruction in §4.3.
func MapPointsToZones(grid *Grid, zones []*Zone, cfg Config) []ZoneLocal {
	tree := rtree.NewTree(25, 50)
	for _, z := range zones {
		tree.Insert(z)
	}

	var out []ZoneLocal
	for ix := 0; ix < grid.Nx; ix++ {
		yMin, yMax := grid.columnBounds(ix)
		x := grid.Points[ix][0].X
		box := &geom.Bounds{
			Min: geom.Point{X: x - cfg.SnappingTolerance, Y: yMin},
			Max: geom.Point{X: x + cfg.SnappingTolerance, Y: yMax},
		}
		for _, cand := range tree.SearchIntersect(box) {
			z := cand.(*Zone)
			lo, hi, ok := verticalLineIntersectY(z.Footprint, x)
			if !ok || hi <= lo {
				continue
			}
			yWall := lo
			if anchorIsMaxY(z.Kind) {
				yWall = hi
			}
			lZone := hi - lo
			for _, p := range grid.Points[ix] {
				if p.Y < lo-cfg.SnappingTolerance || p.Y > hi+cfg.SnappingTolerance {
					continue
				}
				local := ZoneLocal{Zone: z, Point: p, YWall: yWall, LZone: lZone}
				if z.Kind == ZoneRooftopCorner {
					local.CornerRatio = rooftopCornerRatio(z, p, cfg)
				}
				out = append(out, local)
			}
		}
	}
	return out
}

// rooftopCornerRatio computes the RooftopCorner distance-from-anchor
// term (§4.3, last bullet): the point's planar distance to the zone's
// corner anchor, normalized by the configured facade length and an
// angle-dependent cosine correction.
func rooftopCornerRatio(z *Zone, p GridPoint, cfg Config) float64 {
	dx := p.X - z.CornerAnchor.X
	dy := p.Y - z.CornerAnchor.Y
	dist := math.Hypot(dx, dy)
	angleOffset := math.Pi/2 - z.Theta
	if z.Theta > math.Pi/2 {
		angleOffset = z.Theta - math.Pi/2
	}
	denom := z.CornerFacadeLength * math.Cos(angleOffset)
	if denom == 0 {
		return 0
	}
	return dist / denom
}
