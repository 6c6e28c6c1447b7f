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

import "sort"

// ResolvedVoxel is the single surviving factor tuple for one voxel
// after C5's three passes.
type ResolvedVoxel struct {
	IX, IY, K int

	UF, VF, WF float64

	RefHeightSelector RefHeightSelector
	OwnerHeight       float64
	UpstreamHeight    float64
	Kind              ZoneKind
}

type voxelKey struct{ ix, iy, k int }

// lexKey is the (Y_wall, owner_height, priority_rank) tie-break tuple
// C5 Pass 1 and Pass 2 both use to pick a winner among the candidates
// covering the same voxel (§4.5): the greatest Y_wall first, then the
// tallest owner, then the highest explicit rank.
type lexKey struct {
	yWall, ownerHeight float64
	priorityRank       int
}

func (a lexKey) less(b lexKey) bool {
	if a.yWall != b.yWall {
		return a.yWall < b.yWall
	}
	if a.ownerHeight != b.ownerHeight {
		return a.ownerHeight < b.ownerHeight
	}
	return a.priorityRank < b.priorityRank
}

func isPriorityKind(k ZoneKind) bool {
	switch k {
	case ZoneDisplacement, ZoneCavity, ZoneWake, ZoneStreetCanyon, ZoneRooftopPerp, ZoneRooftopCorner:
		return true
	}
	return false
}

func isWeightingKind(k ZoneKind) bool {
	switch k {
	case ZoneWake, ZoneDisplacementVortex:
		return true
	}
	return false
}

func isVegKind(k ZoneKind) bool {
	return k == ZoneVegBuilt || k == ZoneVegOpen
}

func keyOf(f VoxelFactor) lexKey {
	return lexKey{yWall: f.YWall, ownerHeight: f.OwnerHeight, priorityRank: f.PriorityRank}
}

// Superimpose reduces every zone's candidate VoxelFactors down to at
// most one resolved tuple per voxel, via the priority, upstream
// weighting and downstream vegetation-weighting passes of §4.5.
func Superimpose(factors []VoxelFactor) []ResolvedVoxel {
	byVoxel := make(map[voxelKey][]VoxelFactor, len(factors))
	for _, f := range factors {
		vk := voxelKey{ix: f.IX, iy: f.IY, k: f.K}
		byVoxel[vk] = append(byVoxel[vk], f)
	}

	resolved := make(map[voxelKey]*ResolvedVoxel, len(byVoxel))
	priorityKey := make(map[voxelKey]lexKey, len(byVoxel))

	// Pass 1: priority zones.
	for vk, cands := range byVoxel {
		best, ok := bestOf(cands, isPriorityKind)
		if !ok {
			continue
		}
		resolved[vk] = &ResolvedVoxel{
			IX: vk.ix, IY: vk.iy, K: vk.k,
			UF: best.UF, VF: best.VF, WF: best.WF,
			RefHeightSelector: best.RefHeightSelector,
			OwnerHeight:       best.OwnerHeight,
			UpstreamHeight:    best.UpstreamHeight,
			Kind:              best.Kind,
		}
		priorityKey[vk] = keyOf(best)
	}

	// Pass 2: upstream weighting zones.
	for vk, cands := range byVoxel {
		best, ok := bestOf(cands, isWeightingKind)
		if !ok {
			continue
		}
		r, hasPriority := resolved[vk]
		if !hasPriority {
			resolved[vk] = &ResolvedVoxel{
				IX: vk.ix, IY: vk.iy, K: vk.k,
				UF: best.UF, VF: best.VF, WF: best.WF,
				RefHeightSelector: ReferenceSensorHeight,
				OwnerHeight:       best.OwnerHeight,
				UpstreamHeight:    best.UpstreamHeight,
				Kind:              best.Kind,
			}
			continue
		}
		bestKey := keyOf(best)
		pk := priorityKey[vk]
		moreUpstreamOrTaller := bestKey.yWall < pk.yWall ||
			(bestKey.yWall == pk.yWall && bestKey.ownerHeight > pk.ownerHeight)
		if moreUpstreamOrTaller {
			r.UF *= best.UF
			r.VF *= best.VF
			r.WF *= best.WF
			r.RefHeightSelector = ReferenceSensorHeight
		}
	}

	// Pass 3: downstream vegetation weighting.
	for vk, cands := range byVoxel {
		veg, ok := firstOf(cands, isVegKind)
		if !ok {
			continue
		}
		r, ok := resolved[vk]
		if !ok {
			// No priority/weighting candidate at this voxel: veg.UF/WF
			// are the multiplicative identity (1) meant to leave an
			// existing u_f/w_f untouched, not a value to introduce on
			// their own. Leaving them at the zero value here keeps
			// u_f = w_f = 0 for a vegetation-only voxel (§8 "vegetation
			// patch only, no buildings: u ≡ w ≡ 0"). VF itself seeds at
			// the multiplicative identity so the *= below picks up
			// veg.VF rather than collapsing to zero.
			r = &ResolvedVoxel{
				IX: vk.ix, IY: vk.iy, K: vk.k,
				VF:                1,
				RefHeightSelector: ReferenceSensorHeight,
				Kind:              veg.Kind,
			}
			resolved[vk] = r
		}
		r.VF *= veg.VF
	}

	out := make([]ResolvedVoxel, 0, len(resolved))
	for _, r := range resolved {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IX != out[j].IX {
			return out[i].IX < out[j].IX
		}
		if out[i].IY != out[j].IY {
			return out[i].IY < out[j].IY
		}
		return out[i].K < out[j].K
	})
	return out
}

// bestOf returns the candidate of cands (filtered by keep) with the
// greatest lexKey, or ok=false if none match.
func bestOf(cands []VoxelFactor, keep func(ZoneKind) bool) (VoxelFactor, bool) {
	var best VoxelFactor
	var bestKey lexKey
	found := false
	for _, c := range cands {
		if !keep(c.Kind) {
			continue
		}
		k := keyOf(c)
		if !found || bestKey.less(k) {
			best, bestKey, found = c, k, true
		}
	}
	return best, found
}

func firstOf(cands []VoxelFactor, keep func(ZoneKind) bool) (VoxelFactor, bool) {
	for _, c := range cands {
		if keep(c.Kind) {
			return c, true
		}
	}
	return VoxelFactor{}, false
}
