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

	"github.com/ctessum/geom"
)

// StackedBlock is one constant-height slab of a decomposed building.
type StackedBlock struct {
	ID int

	// Footprint is the slab's footprint polygon in wind-aligned
	// coordinates (wind blows along +Y).
	Footprint geom.Polygon

	// BaseHeight and TopHeight bound the slab vertically [m]; BaseHeight
	// must be strictly less than TopHeight.
	BaseHeight, TopHeight float64

	// Ld, Lc, Lw are the effective displacement, cavity, and wake lengths
	// along the wind direction [m]; all must be positive, and Lw >= Lc.
	Ld, Lc, Lw float64

	// LdVortex is the displacement-vortex length parameter, a separate
	// effective length from Ld supplied by the same upstream
	// effective-length computation (out of scope here). It is only
	// consulted for near-perpendicular facets.
	LdVortex float64
}

// Height is the slab thickness TopHeight-BaseHeight.
func (b *StackedBlock) Height() float64 { return b.TopHeight - b.BaseHeight }

// validate checks the StackedBlock invariants from §3 of the specification.
func (b *StackedBlock) validate() error {
	if b.BaseHeight >= b.TopHeight {
		return fmt.Errorf("urock: block %d: %w (base=%g top=%g)", b.ID, ErrInconsistentHeights, b.BaseHeight, b.TopHeight)
	}
	if len(b.Footprint) == 0 {
		return fmt.Errorf("urock: block %d: %w: empty footprint", b.ID, ErrInvalidGeometry)
	}
	if b.Ld <= 0 || b.Lc <= 0 || b.Lw <= 0 || b.LdVortex <= 0 {
		return fmt.Errorf("urock: block %d: %w: Ld=%g Lc=%g Lw=%g LdVortex=%g must be positive", b.ID, ErrInvalidGeometry, b.Ld, b.Lc, b.Lw, b.LdVortex)
	}
	return nil
}

// UpwindFacet is one facade segment of a StackedBlock that faces into the
// wind (its outward normal has a positive component against the wind
// vector, i.e. a negative-Y component since wind blows along +Y).
type UpwindFacet struct {
	FacetID        int
	StackedBlockID int

	// Segment is the two-point facade line in wind-aligned coordinates.
	Segment geom.LineString

	// Theta is the wind-relative angle in (0, π); π/2 means the facade is
	// perpendicular to the wind.
	Theta float64
}

// Length is the facade segment length.
func (f *UpwindFacet) Length() float64 { return f.Segment.Length() }

// midpoint returns the facade's midpoint.
func (f *UpwindFacet) midpoint() geom.Point {
	a, b := f.Segment[0], f.Segment[1]
	return geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// VegetationPatch is a 2-D crown footprint with a vertical extent and an
// attenuation factor.
type VegetationPatch struct {
	VegID int

	Footprint geom.Polygon

	// CrownBase, CrownTop bound the canopy vertically [m]; 0 <= CrownBase < CrownTop.
	CrownBase, CrownTop float64

	// Attenuation is the dimensionless crown attenuation factor a >= 0.
	Attenuation float64
}

func (v *VegetationPatch) validate() error {
	if len(v.Footprint) == 0 {
		return fmt.Errorf("urock: vegetation %d: %w: empty footprint", v.VegID, ErrInvalidGeometry)
	}
	if !(v.CrownBase >= 0 && v.CrownBase < v.CrownTop) {
		return fmt.Errorf("urock: vegetation %d: %w: crown base=%g top=%g", v.VegID, ErrInvalidGeometry, v.CrownBase, v.CrownTop)
	}
	return nil
}

// ZoneKind identifies the analytical wind-correction region a Zone
// represents. This is a closed variant tag rather than a string key so
// that the superimposition passes (C5) can fold over a plain slice of
// priority-ranked kinds instead of a map keyed by name.
type ZoneKind int

const (
	ZoneDisplacement ZoneKind = iota
	ZoneDisplacementVortex
	ZoneCavity
	ZoneWake
	ZoneStreetCanyon
	ZoneRooftopPerp
	ZoneRooftopCorner
	ZoneVegBuilt
	ZoneVegOpen
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneDisplacement:
		return "Displacement"
	case ZoneDisplacementVortex:
		return "DisplacementVortex"
	case ZoneCavity:
		return "Cavity"
	case ZoneWake:
		return "Wake"
	case ZoneStreetCanyon:
		return "StreetCanyon"
	case ZoneRooftopPerp:
		return "RooftopPerp"
	case ZoneRooftopCorner:
		return "RooftopCorner"
	case ZoneVegBuilt:
		return "VegBuilt"
	case ZoneVegOpen:
		return "VegOpen"
	default:
		return "Unknown"
	}
}

// RefHeightSelector names which reference speed a resolved voxel factor
// should be scaled by during initialization (C6).
type RefHeightSelector int

const (
	UpstreamBuildingHeight RefHeightSelector = iota
	ReferenceSensorHeight
	LocalBuildingHeight
)

// Zone is one analytical Röckle-zone footprint plus the kind-specific
// attributes its wind-factor formula needs. OwnerID is the originating
// StackedBlock.ID (or VegetationPatch.VegID for vegetation zones).
type Zone struct {
	Kind      ZoneKind
	Footprint geom.Polygon
	OwnerID   int

	// OwnerHeight is H for building zones (TopHeight, or for
	// StreetCanyon min(H_up, H_down) of the two blocks' TopHeights); it is unused (0) for
	// vegetation zones, which carry CrownBase/CrownTop instead.
	OwnerHeight float64

	// RefHeightSelector selects the reference speed scaling used by C6.
	RefHeightSelector RefHeightSelector

	// PriorityRank is the declared integer rank used as the last
	// tie-break key in C5 Pass 1/2 (higher wins).
	PriorityRank int

	// Theta is the originating facet angle, used by Displacement,
	// DisplacementVortex, StreetCanyon, RooftopPerp and RooftopCorner.
	Theta float64

	// LengthParam is Ld (Displacement), the vortex length
	// (DisplacementVortex), Lc (Cavity), Lw (Wake), or unused otherwise.
	LengthParam float64

	// SecondaryLength carries the owning block's cavity length Lc for a
	// Wake zone, needed alongside the wake's own L_zone by the wake
	// wind-factor formula. Unused by every other kind.
	SecondaryLength float64

	// UpstreamHeight is H_up for StreetCanyon zones (the upstream
	// block's TopHeight); UpstreamBlockID identifies that block.
	UpstreamHeight  float64
	UpstreamBlockID int

	// CornerAnchor and CornerFacadeLength serve RooftopCorner's
	// point-to-anchor distance calculation (§4.3). CornerLength is the
	// zone's own Lc_corner = 2·L_facet·tan(2.94·exp(0.0297·|π/2−θ|))
	// (§4.1 Rooftop corner), reused by C4 as the ΔH_corner scale factor
	// instead of an unrelated rooftop-perpendicular constant.
	CornerAnchor       geom.Point
	CornerFacadeLength float64
	CornerLength       float64

	// CrownBase, CrownTop, Attenuation carry vegetation crown data for
	// VegBuilt/VegOpen zones.
	CrownBase, CrownTop, Attenuation float64
}

// Bounds satisfies the interface expected by rtree.Rtree.Insert/SearchIntersect.
func (z *Zone) Bounds() *geom.Bounds { return z.Footprint.Bounds() }
