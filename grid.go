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
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// GridPoint is one horizontal grid node (§3 Grid). Z-levels are not
// stored per point; they are shared across the whole grid and generated
// by ZLevels.
type GridPoint struct {
	IX, IY int
	X, Y   float64
}

// Grid is the uniform horizontal point mesh produced by C2, covering the
// padded envelope of every obstacle footprint. Points are indexed
// [ix][iy]; Y increases with iy. Because every geometric predicate in
// this package works directly off point.Y rather than off iy, the
// upwind/downwind sense of a row follows from its Y coordinate alone
// (smaller Y is upwind, wind blowing along +Y) and does not depend on
// which row is stored first.
type Grid struct {
	X0, Y0 float64
	Dx, Dy float64
	Nx, Ny int

	Points [][]GridPoint // Points[ix][iy]
}

// columnBounds returns the Y range spanned by column ix, used to build
// the vertical line for that column once (§4.3) and reuse it across zones.
func (g *Grid) columnBounds(ix int) (yMin, yMax float64) {
	col := g.Points[ix]
	return col[0].Y, col[len(col)-1].Y
}

// BuildGrid computes the axis-aligned envelope of the union of every
// block footprint and vegetation patch, pads it per cfg, and emits a
// regular MeshSize-spaced point grid (C2).
func BuildGrid(blocks []*StackedBlock, veg []*VegetationPatch, cfg Config) (*Grid, error) {
	b := geom.NewBounds()
	for _, blk := range blocks {
		b.Extend(blk.Footprint.Bounds())
	}
	for _, v := range veg {
		b.Extend(v.Footprint.Bounds())
	}
	if b.Empty() {
		return nil, fmt.Errorf("urock: BuildGrid: %w: no obstacle geometry", ErrInvalidGeometry)
	}
	b.Min.X -= cfg.CrossWindZoneExtend
	b.Max.X += cfg.CrossWindZoneExtend
	b.Min.Y -= cfg.AlongWindZoneExtend
	b.Max.Y += cfg.AlongWindZoneExtend

	nx := int(math.Ceil((b.Max.X-b.Min.X)/cfg.MeshSize)) + 1
	ny := int(math.Ceil((b.Max.Y-b.Min.Y)/cfg.MeshSize)) + 1
	nz := ZLevelCount(cfg)
	if cap := cfg.MaxCells; cap > 0 && nx*ny*nz > cap {
		return nil, fmt.Errorf("urock: BuildGrid: %w: nx*ny*nz=%d exceeds cap %d", ErrGridTooLarge, nx*ny*nz, cap)
	}

	g := &Grid{X0: b.Min.X, Y0: b.Min.Y, Dx: cfg.MeshSize, Dy: cfg.MeshSize, Nx: nx, Ny: ny}
	g.Points = make([][]GridPoint, nx)
	for ix := 0; ix < nx; ix++ {
		col := make([]GridPoint, ny)
		for iy := 0; iy < ny; iy++ {
			col[iy] = GridPoint{
				IX: ix, IY: iy,
				X: g.X0 + float64(ix)*g.Dx,
				Y: g.Y0 + float64(iy)*g.Dy,
			}
		}
		g.Points[ix] = col
	}
	return g, nil
}

// ZLevelCount returns the number of vertical cell-center levels spanning
// [0, cfg.SketchHeight].
func ZLevelCount(cfg Config) int {
	return int(math.Ceil(cfg.SketchHeight/cfg.Dz)) + 1
}

// ZLevels returns the cell-centered z coordinates z_k = (k-1/2)*Dz for k=1..nz.
func ZLevels(cfg Config) []float64 {
	n := ZLevelCount(cfg)
	z := make([]float64, n)
	for k := 0; k < n; k++ {
		z[k] = (float64(k)+0.5)*cfg.Dz
	}
	return z
}
