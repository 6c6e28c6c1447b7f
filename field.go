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
	"github.com/ctessum/sparse"
)

// VelocityField holds the staggered-face velocity arrays C6 produces
// and C7 relaxes. u, v, w are overwritten in place by the solver; un,
// vn, wn hold the initial guess during relaxation (§3 VelocityField,
// §4.7's divergence term reads them) and are recentered to cell
// centers together with u, v, w at the end of SORSolver.Solve.
type VelocityField struct {
	Nx, Ny, Nz int

	U, V, W    *sparse.DenseArray
	Un, Vn, Wn *sparse.DenseArray
}

// SolidMask records which (i, j, k) cells sit fully inside a building,
// used by C6 to zero velocities and by C7 to mask the stencil.
type SolidMask struct {
	Nx, Ny, Nz int
	Solid      *sparse.DenseArray // 1 where solid, 0 otherwise
}

func (m *SolidMask) isSolid(i, j, k int) bool {
	if i < 0 || j < 0 || k < 0 || i >= m.Nx || j >= m.Ny || k >= m.Nz {
		return false
	}
	return m.Solid.Get(i, j, k) != 0
}

// ReferenceProfile evaluates the vertical reference wind speed power
// law V_ref_profile(z) = V_REF·(z/Z_REF)^(0.12·z0+0.18) (§4.6).
func ReferenceProfile(z float64, cfg Config) float64 {
	if z <= 0 {
		return 0
	}
	exp := 0.12*cfg.Z0 + 0.18
	return cfg.VRef * math.Pow(z/cfg.ZRef, exp)
}

// referenceSpeed resolves the scaling speed for one resolved voxel's
// selector (§4.6): UpstreamBuildingHeight and LocalBuildingHeight both
// scale by the profile evaluated at the owning geometry's height,
// except a StreetCanyon voxel under UpstreamBuildingHeight uses the
// upstream block's own height instead of min(H_up, H_down).
func referenceSpeed(r ResolvedVoxel, cfg Config) float64 {
	switch r.RefHeightSelector {
	case ReferenceSensorHeight:
		return cfg.VRef
	case UpstreamBuildingHeight:
		h := r.OwnerHeight
		if r.Kind == ZoneStreetCanyon && r.UpstreamHeight > 0 {
			h = r.UpstreamHeight
		}
		return ReferenceProfile(h, cfg)
	case LocalBuildingHeight:
		return ReferenceProfile(r.OwnerHeight, cfg)
	}
	return cfg.VRef
}

// InitializeField builds the default vertical-profile velocity field,
// overwrites it at every resolved voxel with its scaled factor vector,
// and rasterizes building footprints into a solid-cell mask whose
// touching face velocities are forced to zero (§4.6 Initializer).
func InitializeField(grid *Grid, blocks []*StackedBlock, resolved []ResolvedVoxel, cfg Config) (*VelocityField, *SolidMask) {
	nx, ny, nz := grid.Nx, grid.Ny, ZLevelCount(cfg)
	levels := ZLevels(cfg)

	vf := &VelocityField{
		Nx: nx, Ny: ny, Nz: nz,
		U: sparse.ZerosDense(nx, ny, nz), V: sparse.ZerosDense(nx, ny, nz), W: sparse.ZerosDense(nx, ny, nz),
		Un: sparse.ZerosDense(nx, ny, nz), Vn: sparse.ZerosDense(nx, ny, nz), Wn: sparse.ZerosDense(nx, ny, nz),
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				vf.Vn.Set(ReferenceProfile(levels[k], cfg), i, j, k)
			}
		}
	}

	for _, r := range resolved {
		if r.IX < 0 || r.IX >= nx || r.IY < 0 || r.IY >= ny || r.K < 0 || r.K >= nz {
			continue
		}
		speed := referenceSpeed(r, cfg)
		vf.Un.Set(r.UF*speed, r.IX, r.IY, r.K)
		vf.Vn.Set(r.VF*speed, r.IX, r.IY, r.K)
		vf.Wn.Set(r.WF*speed, r.IX, r.IY, r.K)
	}
	copyDense(vf.U, vf.Un)
	copyDense(vf.V, vf.Vn)
	copyDense(vf.W, vf.Wn)

	mask := rasterizeSolidMask(grid, blocks, cfg)
	zeroSolidVelocities(vf, mask)

	return vf, mask
}

func copyDense(dst, src *sparse.DenseArray) {
	for idx, val := range src.Elements {
		dst.Elements[idx] = val
	}
}

// rasterizeSolidMask marks cells (i, j, k) fully inside a building.
// Footprints are shifted by (+Δx/2, +Δy/2), the staggered-grid
// correction noted in §4.6 and §9, before testing cell-center
// containment against the grid's unshifted point positions.
func rasterizeSolidMask(grid *Grid, blocks []*StackedBlock, cfg Config) *SolidMask {
	nz := ZLevelCount(cfg)
	levels := ZLevels(cfg)
	mask := &SolidMask{Nx: grid.Nx, Ny: grid.Ny, Nz: nz, Solid: sparse.ZerosDense(grid.Nx, grid.Ny, nz)}

	dx2, dy2 := grid.Dx/2, grid.Dy/2
	for _, b := range blocks {
		shifted := shiftPolygon(b.Footprint, dx2, dy2)
		env := shifted.Bounds()
		if env == nil || env.Empty() {
			continue
		}
		for i := 0; i < grid.Nx; i++ {
			x := grid.Points[i][0].X
			if x < env.Min.X || x > env.Max.X {
				continue
			}
			lo, hi, ok := verticalLineIntersectY(shifted, x)
			if !ok {
				continue
			}
			for j := 0; j < grid.Ny; j++ {
				y := grid.Points[i][j].Y
				if y < lo || y > hi {
					continue
				}
				for k := 0; k < nz; k++ {
					if levels[k] > b.BaseHeight && levels[k] <= b.TopHeight {
						mask.Solid.Set(1, i, j, k)
					}
				}
			}
		}
	}
	return mask
}

func shiftPolygon(p geom.Polygon, dx, dy float64) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, ring := range p {
		r := make([]geom.Point, len(ring))
		for j, pt := range ring {
			r[j] = geom.Point{X: pt.X + dx, Y: pt.Y + dy}
		}
		out[i] = r
	}
	return out
}

// zeroSolidVelocities forces to zero the six staggered face velocities
// touching each solid cell: u on its low/high-x faces, v on its
// low/high-y faces, w on its low/high-z faces.
func zeroSolidVelocities(vf *VelocityField, mask *SolidMask) {
	for i := 0; i < mask.Nx; i++ {
		for j := 0; j < mask.Ny; j++ {
			for k := 0; k < mask.Nz; k++ {
				if !mask.isSolid(i, j, k) {
					continue
				}
				zeroFace(vf.U, vf.Un, i, j, k)
				if i+1 < mask.Nx {
					zeroFace(vf.U, vf.Un, i+1, j, k)
				}
				zeroFace(vf.V, vf.Vn, i, j, k)
				if j+1 < mask.Ny {
					zeroFace(vf.V, vf.Vn, i, j+1, k)
				}
				zeroFace(vf.W, vf.Wn, i, j, k)
				if k+1 < mask.Nz {
					zeroFace(vf.W, vf.Wn, i, j, k+1)
				}
			}
		}
	}
}

func zeroFace(a, an *sparse.DenseArray, i, j, k int) {
	a.Set(0, i, j, k)
	an.Set(0, i, j, k)
}
