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

	"github.com/ctessum/sparse"
)

func onesDense(nx, ny, nz int) *sparse.DenseArray {
	a := sparse.ZerosDense(nx, ny, nz)
	for i := range a.Elements {
		a.Elements[i] = 1
	}
	return a
}

func TestReferenceProfileZeroAtGround(t *testing.T) {
	cfg := DefaultConfig()
	if got := ReferenceProfile(0, cfg); got != 0 {
		t.Errorf("ReferenceProfile(0) = %g, want 0", got)
	}
	if got := ReferenceProfile(-1, cfg); got != 0 {
		t.Errorf("ReferenceProfile(-1) = %g, want 0", got)
	}
}

func TestReferenceProfileAtReferenceHeight(t *testing.T) {
	cfg := DefaultConfig()
	got := ReferenceProfile(cfg.ZRef, cfg)
	if math.Abs(got-cfg.VRef) > 1e-9 {
		t.Errorf("ReferenceProfile(ZRef) = %g, want VRef = %g", got, cfg.VRef)
	}
}

func TestReferenceSpeedStreetCanyonUsesUpstreamHeight(t *testing.T) {
	cfg := DefaultConfig()
	r := ResolvedVoxel{Kind: ZoneStreetCanyon, RefHeightSelector: UpstreamBuildingHeight, OwnerHeight: 5, UpstreamHeight: 20}
	got := referenceSpeed(r, cfg)
	want := ReferenceProfile(20, cfg)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("referenceSpeed for StreetCanyon = %g, want profile at UpstreamHeight = %g", got, want)
	}
}

func TestReferenceSpeedLocalBuildingHeightUsesOwnerHeight(t *testing.T) {
	cfg := DefaultConfig()
	r := ResolvedVoxel{Kind: ZoneCavity, RefHeightSelector: LocalBuildingHeight, OwnerHeight: 12}
	got := referenceSpeed(r, cfg)
	want := ReferenceProfile(12, cfg)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("referenceSpeed = %g, want profile at OwnerHeight = %g", got, want)
	}
}

func TestZeroSolidVelocitiesOnlyTouchesAdjacentFaces(t *testing.T) {
	nx, ny, nz := 3, 3, 3
	vf := &VelocityField{
		Nx: nx, Ny: ny, Nz: nz,
		U: onesDense(nx, ny, nz), V: onesDense(nx, ny, nz), W: onesDense(nx, ny, nz),
		Un: onesDense(nx, ny, nz), Vn: onesDense(nx, ny, nz), Wn: onesDense(nx, ny, nz),
	}
	mask := &SolidMask{Nx: nx, Ny: ny, Nz: nz, Solid: sparse.ZerosDense(nx, ny, nz)}
	mask.Solid.Set(1, 1, 1, 1)

	zeroSolidVelocities(vf, mask)

	if vf.U.Get(1, 1, 1) != 0 || vf.U.Get(2, 1, 1) != 0 {
		t.Error("expected U zeroed on both x-faces touching the solid cell")
	}
	if vf.V.Get(1, 1, 1) != 0 || vf.V.Get(1, 2, 1) != 0 {
		t.Error("expected V zeroed on both y-faces touching the solid cell")
	}
	if vf.W.Get(1, 1, 1) != 0 || vf.W.Get(1, 1, 2) != 0 {
		t.Error("expected W zeroed on both z-faces touching the solid cell")
	}
	// A face that does not touch the solid cell must be untouched.
	if vf.V.Get(2, 1, 1) != 1 {
		t.Error("V at an unrelated face should not have been zeroed")
	}
}

func TestRasterizeSolidMaskMarksBlockInterior(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dz = 5
	cfg.SketchHeight = 10
	blk := testBlock(1)
	grid := &Grid{
		X0: -5, Y0: -5, Dx: 5, Dy: 5, Nx: 5, Ny: 5,
		Points: make([][]GridPoint, 5),
	}
	for ix := 0; ix < 5; ix++ {
		grid.Points[ix] = make([]GridPoint, 5)
		for iy := 0; iy < 5; iy++ {
			grid.Points[ix][iy] = GridPoint{IX: ix, IY: iy, X: grid.X0 + float64(ix)*grid.Dx, Y: grid.Y0 + float64(iy)*grid.Dy}
		}
	}
	mask := rasterizeSolidMask(grid, []*StackedBlock{blk}, cfg)
	// The block spans [0,10]x[0,10]x[0,10]; a cell near its center
	// should be marked solid at a low z-level.
	foundSolid := false
	for ix := 0; ix < mask.Nx; ix++ {
		for iy := 0; iy < mask.Ny; iy++ {
			if mask.isSolid(ix, iy, 0) {
				foundSolid = true
			}
		}
	}
	if !foundSolid {
		t.Error("expected at least one solid cell inside the block's footprint at the lowest z-level")
	}
}
