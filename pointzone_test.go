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
	"testing"

	"github.com/ctessum/geom"
)

func TestAnchorIsMaxY(t *testing.T) {
	maxY := []ZoneKind{ZoneDisplacement, ZoneDisplacementVortex, ZoneStreetCanyon}
	minY := []ZoneKind{ZoneCavity, ZoneWake, ZoneRooftopPerp, ZoneRooftopCorner, ZoneVegBuilt, ZoneVegOpen}
	for _, k := range maxY {
		if !anchorIsMaxY(k) {
			t.Errorf("%v should anchor at max-Y", k)
		}
	}
	for _, k := range minY {
		if anchorIsMaxY(k) {
			t.Errorf("%v should anchor at min-Y", k)
		}
	}
}

func TestMapPointsToZonesYWallAndLZone(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MeshSize = 2
	grid := &Grid{
		X0: 0, Y0: 0, Dx: 2, Dy: 2, Nx: 1, Ny: 6,
		Points: [][]GridPoint{{
			{IX: 0, IY: 0, X: 0, Y: 0},
			{IX: 0, IY: 1, X: 0, Y: 2},
			{IX: 0, IY: 2, X: 0, Y: 4},
			{IX: 0, IY: 3, X: 0, Y: 6},
			{IX: 0, IY: 4, X: 0, Y: 8},
			{IX: 0, IY: 5, X: 0, Y: 10},
		}},
	}
	zone := &Zone{Kind: ZoneCavity, Footprint: rectPolygon(-1, 2, 1, 8)}

	locals := MapPointsToZones(grid, []*Zone{zone}, cfg)
	if len(locals) == 0 {
		t.Fatal("expected at least one zone-local association")
	}
	for _, l := range locals {
		if l.LZone != 6 {
			t.Errorf("LZone = %g, want 6 (8-2)", l.LZone)
		}
		// Cavity anchors at min-Y.
		if l.YWall != 2 {
			t.Errorf("YWall = %g, want 2 (cavity anchors at min-Y)", l.YWall)
		}
	}
}

func TestMapPointsToZonesDisplacementAnchorsMaxY(t *testing.T) {
	cfg := DefaultConfig()
	grid := &Grid{
		X0: 0, Y0: 0, Dx: 2, Dy: 2, Nx: 1, Ny: 6,
		Points: [][]GridPoint{{
			{IX: 0, IY: 0, X: 0, Y: 0},
			{IX: 0, IY: 1, X: 0, Y: 2},
			{IX: 0, IY: 2, X: 0, Y: 4},
			{IX: 0, IY: 3, X: 0, Y: 6},
			{IX: 0, IY: 4, X: 0, Y: 8},
			{IX: 0, IY: 5, X: 0, Y: 10},
		}},
	}
	zone := &Zone{Kind: ZoneDisplacement, Footprint: rectPolygon(-1, 2, 1, 8)}

	locals := MapPointsToZones(grid, []*Zone{zone}, cfg)
	if len(locals) == 0 {
		t.Fatal("expected at least one zone-local association")
	}
	for _, l := range locals {
		if l.YWall != 8 {
			t.Errorf("YWall = %g, want 8 (displacement anchors at max-Y)", l.YWall)
		}
	}
}

func TestRooftopCornerRatioPerpendicular(t *testing.T) {
	cfg := DefaultConfig()
	z := &Zone{Theta: math.Pi / 2, CornerAnchor: geom.Point{X: 0, Y: 0}, CornerFacadeLength: 4}
	p := GridPoint{X: 3, Y: 0}
	got := rooftopCornerRatio(z, p, cfg)
	want := 3.0 / 4.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("rooftopCornerRatio = %g, want %g", got, want)
	}
}
