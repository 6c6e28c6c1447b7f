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
	"runtime"
	"sync"
)

// VoxelFactor is one zone's contribution to a single (point, z-level)
// voxel, produced by C4 and consumed by C5's superimposition passes.
// Multiple VoxelFactors can share the same (IX, IY, K): resolving them
// to one is C5's job, not this one's.
type VoxelFactor struct {
	IX, IY, K int

	UF, VF, WF float64

	// YWall is the originating zone's Y_wall at this point's column,
	// the first key of C5's lexicographic tie-break.
	YWall float64

	RefHeightSelector RefHeightSelector
	PriorityRank      int
	Kind              ZoneKind

	// OwnerHeight and UpstreamHeight feed C6's reference-speed scaling;
	// for a StreetCanyon voxel under UpstreamBuildingHeight scaling,
	// UpstreamHeight (the upstream block's own height) is used in place
	// of OwnerHeight (which holds min(H_up, H_down) for the canyon's own
	// vertical extent test).
	OwnerHeight    float64
	UpstreamHeight float64
}

// EvaluateWindFactors applies each zone kind's analytical formula at
// every z-level up to its vertical extent, for every (zone, point)
// local computed by C3 (§4.4 Wind-Factor Evaluator).
//
// Locals are embarrassingly parallel (§5): each is evaluated against
// every z-level independently of every other, so the work is striped
// across GOMAXPROCS goroutines the same way the teacher's
// Calculations strides a fixed worker count over d.Cells, rather than
// spawning one goroutine per local.
func EvaluateWindFactors(locals []ZoneLocal, cfg Config) []VoxelFactor {
	levels := ZLevels(cfg)
	nprocs := runtime.GOMAXPROCS(0)
	if nprocs > len(locals) {
		nprocs = len(locals)
	}
	if nprocs <= 1 {
		return evaluateWindFactorsRange(locals, 0, 1, levels, cfg)
	}

	partials := make([][]VoxelFactor, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			partials[pp] = evaluateWindFactorsRange(locals, pp, nprocs, levels, cfg)
		}(pp)
	}
	wg.Wait()

	var total int
	for _, p := range partials {
		total += len(p)
	}
	out := make([]VoxelFactor, 0, total)
	for _, p := range partials {
		out = append(out, p...)
	}
	return out
}

// evaluateWindFactorsRange evaluates locals[start], locals[start+stride], ...
func evaluateWindFactorsRange(locals []ZoneLocal, start, stride int, levels []float64, cfg Config) []VoxelFactor {
	var out []VoxelFactor
	for i := start; i < len(locals); i += stride {
		l := locals[i]
		for k, z := range levels {
			uf, vf, wf, ok := evaluateZoneFormula(l, z, cfg)
			if !ok {
				continue
			}
			out = append(out, VoxelFactor{
				IX: l.Point.IX, IY: l.Point.IY, K: k,
				UF: uf, VF: vf, WF: wf,
				YWall:             l.YWall,
				RefHeightSelector: l.Zone.RefHeightSelector,
				PriorityRank:      l.Zone.PriorityRank,
				Kind:              l.Zone.Kind,
				OwnerHeight:       l.Zone.OwnerHeight,
				UpstreamHeight:    l.Zone.UpstreamHeight,
			})
		}
	}
	return out
}

// evaluateZoneFormula dispatches to the per-kind formula and reports
// whether z falls inside that zone's vertical extent at this point.
func evaluateZoneFormula(l ZoneLocal, z float64, cfg Config) (uf, vf, wf float64, ok bool) {
	switch l.Zone.Kind {
	case ZoneDisplacement:
		return displacementFactor(l, z, cfg)
	case ZoneDisplacementVortex:
		return displacementVortexFactor(l, z)
	case ZoneCavity:
		return cavityFactor(l, z)
	case ZoneWake:
		return wakeFactor(l, z)
	case ZoneStreetCanyon:
		return streetCanyonFactor(l, z)
	case ZoneRooftopPerp:
		return rooftopPerpFactor(l, z, cfg)
	case ZoneRooftopCorner:
		return rooftopCornerFactor(l, z, cfg)
	case ZoneVegBuilt:
		return vegFactor(l, z, 0, cfg)
	case ZoneVegOpen:
		return vegFactor(l, z, cfg.D, cfg)
	}
	return 0, 0, 0, false
}

func displacementFactor(l ZoneLocal, z float64, cfg Config) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	if h <= 0 || l.LZone <= 0 {
		return 0, 0, 0, false
	}
	y := z2y(l)
	ratio := y / l.LZone
	inside := 1 - ratio*ratio
	if inside <= 0 {
		return 0, 0, 0, false
	}
	uThresh := 0.6 * h * math.Sqrt(inside)
	if z >= uThresh {
		return 0, 0, 0, false
	}
	return 0, cfg.CDz * math.Pow(z/h, cfg.PDz), 0, true
}

func displacementVortexFactor(l ZoneLocal, z float64) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	if h <= 0 || l.LZone <= 0 {
		return 0, 0, 0, false
	}
	y := z2y(l)
	r := y / l.LZone
	inside := 1 - r*r
	if inside <= 0 {
		return 0, 0, 0, false
	}
	amplitude := 0.5 * h * math.Sqrt(inside)
	if amplitude <= 0 || z >= 0.6*h*math.Sqrt(inside) {
		return 0, 0, 0, false
	}
	hPrime := z / amplitude
	vf = -(0.6*math.Cos(math.Pi*r) + 0.05) * 0.6 * math.Sin(math.Pi*hPrime)
	wf = -0.1*math.Cos(math.Pi*hPrime) - 0.05
	return 0, vf, wf, true
}

func cavityFactor(l ZoneLocal, z float64) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	if h <= 0 || l.LZone <= 0 {
		return 0, 0, 0, false
	}
	y := z2y(l)
	r := y / l.LZone
	inside := 1 - r*r
	if inside <= 0 {
		return 0, 0, 0, false
	}
	if z >= h*math.Sqrt(inside) {
		return 0, 0, 0, false
	}
	zRatio := z / h
	denom := math.Sqrt(1 - zRatio*zRatio)
	if denom == 0 {
		return 0, 0, 0, false
	}
	term := 1 - r/denom
	return 0, -term * term, 0, true
}

func wakeFactor(l ZoneLocal, z float64) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	if h <= 0 || l.LZone <= 0 {
		return 0, 0, 0, false
	}
	y := z2y(l)
	r := y / l.LZone
	inside := 1 - r*r
	if inside <= 0 {
		return 0, 0, 0, false
	}
	if z >= h*math.Sqrt(inside) {
		return 0, 0, 0, false
	}
	zTerm := 1 - (z/h)*(z/h)
	if zTerm < 0 {
		zTerm = 0
	}
	vf = 1 - math.Pow(l.Zone.SecondaryLength/l.LZone, 1.5)*math.Pow(zTerm, 1.5)
	return 0, vf, 0, true
}

func streetCanyonFactor(l ZoneLocal, z float64) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	if h <= 0 || l.LZone <= 0 {
		return 0, 0, 0, false
	}
	if z >= h {
		return 0, 0, 0, false
	}
	dy := l.YWall - l.Point.Y
	theta := l.Zone.Theta
	half := 0.5 * l.LZone
	uf = math.Sin(2*(theta-math.Pi/2)) * (0.5 + dy*(l.LZone-dy)/(0.5*l.LZone*l.LZone))
	vf = 1 - math.Pow(math.Cos(theta-math.Pi/2), 2)*(1+dy*(l.LZone-dy)/(0.25*l.LZone*l.LZone))
	wf = -math.Abs(0.5*(1-dy/half)) * (1 - (l.LZone-dy)/half)
	return uf, vf, wf, true
}

func rooftopPerpFactor(l ZoneLocal, z float64, cfg Config) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	y := z2y(l)
	lPerp := cfg.RooftopPerpLength
	if lPerp <= 0 {
		return 0, 0, 0, false
	}
	inside := 1 - math.Pow((y-lPerp/2)/lPerp, 2)
	if inside <= 0 {
		return 0, 0, 0, false
	}
	dHPerp := cfg.RooftopPerpHeight * math.Sqrt(inside)
	if dHPerp <= 0 || z <= h || z >= h+dHPerp {
		return 0, 0, 0, false
	}
	rem := h + dHPerp - z
	vf = -math.Pow(rem/cfg.ZRef, cfg.PRtp) * math.Abs(rem) / dHPerp
	return 0, vf, 0, true
}

func rooftopCornerFactor(l ZoneLocal, z float64, cfg Config) (uf, vf, wf float64, ok bool) {
	h := l.Zone.OwnerHeight
	// ΔH_corner is this point's own corner-vortex height, the
	// CornerRatio (§4.3's point-to-anchor distance term) scaled by the
	// zone's Lc_corner, not the unrelated rooftop-perpendicular height.
	dHCorner := l.CornerRatio * l.Zone.CornerLength
	if dHCorner <= 0 || z <= h || z >= h+dHCorner {
		return 0, 0, 0, false
	}
	rem := h + dHCorner - z
	decay := math.Pow(rem/cfg.ZRef, cfg.PRtp) * math.Abs(rem) / dHCorner
	kappa := l.CornerRatio
	theta := l.Zone.Theta
	uf = -kappa * math.Sin(2*theta) * decay
	vf = -kappa * math.Sin(theta) * math.Sin(theta) * decay
	return uf, vf, 0, true
}

// vegFactor is shared by VegBuilt (d=0) and VegOpen (d=cfg.D); z0 comes
// from cfg and the crown bounds from the zone itself.
func vegFactor(l ZoneLocal, z, d float64, cfg Config) (uf, vf, wf float64, ok bool) {
	zt, zb, a := l.Zone.CrownTop, l.Zone.CrownBase, l.Zone.Attenuation
	z0 := cfg.Z0
	if z <= 0 || z0 <= 0 || zt <= d {
		return 0, 0, 0, false
	}
	profile := math.Log((zt-d)/z0) / math.Log(z/z0)
	switch {
	case z > zt:
		vf = profile
	case z < zb:
		vf = profile * math.Exp(z/zt-1)
	default:
		vf = profile * math.Exp(a*(z/zt-1))
	}
	if vf < 0 {
		vf = 0
	}
	if vf > 1 {
		vf = 1
	}
	return 1, vf, 1, true
}

// z2y returns the non-negative distance from the zone's anchor wall
// (§4.3's y, oriented so it grows away from the wall into the zone)
// for every kind except StreetCanyon, which uses dy directly instead.
func z2y(l ZoneLocal) float64 {
	return math.Abs(l.Point.Y - l.YWall)
}
