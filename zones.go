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

// Priority ranks for the C5 Pass 1 tie-break key. Declared here, next to
// the builders that stamp them onto each Zone, rather than in Config:
// they are a property of the zone kind, not a per-run tuning parameter.
// The spec leaves the concrete integers to the implementer; higher wins
// ties after (Y_wall, owner_height).
const (
	rankDisplacement  = 10
	rankWake          = 20
	rankCavity        = 30
	rankStreetCanyon  = 40
	rankRooftopPerp   = 50
	rankRooftopCorner = 60
)

// Wind blows along +Y throughout this file. Facades with outward normal
// pointing toward -Y are upwind; cavity/wake recirculation sits on the
// +Y (downwind) side of a block, matching the Grid Builder's row
// convention and the upwind-facet rule. The source this package is
// descended from centers the cavity ellipse on a building's minimum-Y
// edge and calls it the "downwind edge" in a different, south-origin
// coordinate convention; ported here with +Y consistently downwind, the
// anchor edge becomes the block's maximum-Y edge instead.

// BuildDisplacementZones constructs the displacement zone for every
// upwind facet whose effective length clears the minimum ellipsoid
// size (§4.1 Displacement zone).
func BuildDisplacementZones(facets []*UpwindFacet, blocks map[int]*StackedBlock, cfg Config) ([]*Zone, error) {
	var out []*Zone
	for _, f := range facets {
		blk, ok := blocks[f.StackedBlockID]
		if !ok {
			return nil, fmt.Errorf("urock: displacement zone: facet %d: %w: unknown block %d", f.FacetID, ErrInvalidGeometry, f.StackedBlockID)
		}
		z, ok := buildDisplacementLikeZone(f, blk, blk.Ld, ZoneDisplacement, rankDisplacement, cfg)
		if ok {
			out = append(out, z)
		}
	}
	return out, nil
}

// BuildDisplacementVortexZones constructs the displacement-vortex zone,
// emitted only for facades nearly perpendicular to the wind (§4.1
// Displacement-vortex zone).
func BuildDisplacementVortexZones(facets []*UpwindFacet, blocks map[int]*StackedBlock, cfg Config) ([]*Zone, error) {
	var out []*Zone
	for _, f := range facets {
		if math.Abs(f.Theta-math.Pi/2) >= cfg.PerpendicularThreshold {
			continue
		}
		blk, ok := blocks[f.StackedBlockID]
		if !ok {
			return nil, fmt.Errorf("urock: displacement-vortex zone: facet %d: %w: unknown block %d", f.FacetID, ErrInvalidGeometry, f.StackedBlockID)
		}
		z, ok := buildDisplacementLikeZone(f, blk, blk.LdVortex, ZoneDisplacementVortex, 0, cfg)
		if ok {
			z.RefHeightSelector = UpstreamBuildingHeight
			out = append(out, z)
		}
	}
	return out, nil
}

// buildDisplacementLikeZone shares the ellipse-build-split-keep-upwind
// construction between the displacement and displacement-vortex zones;
// only the effective length differs.
func buildDisplacementLikeZone(f *UpwindFacet, blk *StackedBlock, length float64, kind ZoneKind, rank int, cfg Config) (*Zone, bool) {
	ry := length * math.Sin(f.Theta) * math.Sin(f.Theta)
	if ry <= cfg.EllipsoidMinLength {
		return nil, false
	}
	rx := f.Length() / 2
	if rx <= 0 {
		return nil, false
	}
	tangent, _ := unitVector(f.Segment[0], f.Segment[1])
	center := f.midpoint()
	extra := math.Pi/2 - f.Theta
	ellipse := buildEllipse(center, tangent, rx, ry, extra, cfg.NPointsEllipse)
	ellipse = snapPolygon(ellipse, cfg.SnappingTolerance)
	half := splitKeepSmallerY(ellipse, f.Segment[0], f.Segment[1], envelopePad)
	if isEmpty(half) {
		return nil, false
	}
	return &Zone{
		Kind:              kind,
		Footprint:         half,
		OwnerID:           blk.ID,
		OwnerHeight:       blk.TopHeight,
		RefHeightSelector: ReferenceSensorHeight,
		PriorityRank:      rank,
		Theta:             f.Theta,
		LengthParam:       length,
	}, true
}

// buildCavityLikeZone is shared by the cavity and wake builders: an
// ellipse centered on the block's downwind envelope edge, unioned with
// the envelope, snapped, and differenced against the footprint to keep
// only the protruding downwind lobe (§4.1 Cavity/wake zone).
func buildCavityLikeZone(blk *StackedBlock, length float64, kind ZoneKind, rank int, cfg Config) (*Zone, bool) {
	env := blk.Footprint.Bounds()
	if env == nil || env.Empty() {
		return nil, false
	}
	width := env.Max.X - env.Min.X
	if width <= 0 || length <= 0 {
		return nil, false
	}
	center := geom.Point{X: (env.Min.X + env.Max.X) / 2, Y: env.Max.Y}
	ellipse := buildEllipse(center, geom.Point{X: 1, Y: 0}, width, length, 0, cfg.NPointsEllipse)
	envRect := rectFromBounds(env)
	union := ellipse.Union(envRect)
	union = snapPolygon(union, cfg.SnappingTolerance)
	diff := union.Difference(blk.Footprint)
	if isEmpty(diff) {
		return nil, false
	}
	// Keep only the lobe beyond the envelope's downwind edge; the
	// difference can also leave slivers along the envelope's other
	// sides when the footprint is non-rectangular.
	downwind := splitKeepLargerY(diff,
		geom.Point{X: env.Min.X, Y: env.Max.Y},
		geom.Point{X: env.Max.X, Y: env.Max.Y},
		envelopePad)
	if isEmpty(downwind) {
		return nil, false
	}
	return &Zone{
		Kind:              kind,
		Footprint:         downwind,
		OwnerID:           blk.ID,
		OwnerHeight:       blk.TopHeight,
		RefHeightSelector: LocalBuildingHeight,
		PriorityRank:      rank,
		LengthParam:       length,
	}, true
}

// BuildCavityZones and BuildWakeZones construct the recirculation bubble
// and its enclosing wake for every stacked block (§4.1 Cavity/wake
// zone). Because both share a center and footprint and only differ in
// the ellipse's downwind semi-axis, and Lw >= Lc is a StackedBlock
// invariant, the wake footprint always encloses the cavity footprint.
func BuildCavityZones(blocks []*StackedBlock, cfg Config) []*Zone {
	var out []*Zone
	for _, b := range blocks {
		if z, ok := buildCavityLikeZone(b, b.Lc, ZoneCavity, rankCavity, cfg); ok {
			out = append(out, z)
		}
	}
	return out
}

func BuildWakeZones(blocks []*StackedBlock, cfg Config) []*Zone {
	var out []*Zone
	for _, b := range blocks {
		if z, ok := buildCavityLikeZone(b, b.Lw, ZoneWake, rankWake, cfg); ok {
			z.SecondaryLength = b.Lc
			out = append(out, z)
		}
	}
	return out
}

// segmentThinPolygon approximates a line segment as a thin rectangle,
// used where this package needs a line-vs-polygon intersection test and
// the geometry kernel only exposes polygon operations.
func segmentThinPolygon(a, b geom.Point, halfWidth float64) geom.Polygon {
	dir, length := unitVector(a, b)
	if length == 0 {
		return geom.Polygon{}
	}
	n := geom.Point{X: -dir.Y, Y: dir.X}
	p1 := geom.Point{X: a.X + n.X*halfWidth, Y: a.Y + n.Y*halfWidth}
	p2 := geom.Point{X: b.X + n.X*halfWidth, Y: b.Y + n.Y*halfWidth}
	p3 := geom.Point{X: b.X - n.X*halfWidth, Y: b.Y - n.Y*halfWidth}
	p4 := geom.Point{X: a.X - n.X*halfWidth, Y: a.Y - n.Y*halfWidth}
	return geom.Polygon{{p1, p2, p3, p4, p1}}
}

// inwardNormal returns the unit normal to tangent that points toward
// +Y (into the roof / downwind), used by the rooftop builders to
// extrude a footprint away from its anchoring facade.
func inwardNormal(tangent geom.Point) geom.Point {
	n := geom.Point{X: -tangent.Y, Y: tangent.X}
	if n.Y < 0 {
		n = geom.Point{X: -n.X, Y: -n.Y}
	}
	return n
}

// BuildStreetCanyonZones constructs the street-canyon zone between a
// downwind block's upwind facet and an upstream block's cavity zone
// (§4.1 Street-canyon zone).
func BuildStreetCanyonZones(facets []*UpwindFacet, blocks map[int]*StackedBlock, cavityZones []*Zone, cfg Config) ([]*Zone, error) {
	var out []*Zone
	for _, f := range facets {
		down, ok := blocks[f.StackedBlockID]
		if !ok {
			return nil, fmt.Errorf("urock: street canyon: facet %d: %w: unknown block %d", f.FacetID, ErrInvalidGeometry, f.StackedBlockID)
		}
		thin := segmentThinPolygon(f.Segment[0], f.Segment[1], cfg.SnappingTolerance)
		for _, cz := range cavityZones {
			if cz.OwnerID == down.ID {
				continue
			}
			up, ok := blocks[cz.OwnerID]
			if !ok {
				continue
			}
			if isEmpty(thin.Intersection(cz.Footprint)) {
				continue
			}
			upEnv := up.Footprint.Bounds()
			depth := upEnv.Max.Y - upEnv.Min.Y
			extrude := depth + up.Lc
			tangent, _ := unitVector(f.Segment[0], f.Segment[1])
			n := inwardNormal(tangent)
			// extrude upwind, i.e. opposite the inward (downwind) normal
			a, b := f.Segment[0], f.Segment[1]
			a2 := geom.Point{X: a.X - n.X*extrude, Y: a.Y - n.Y*extrude}
			b2 := geom.Point{X: b.X - n.X*extrude, Y: b.Y - n.Y*extrude}
			trapezoid := geom.Polygon{{a, b, b2, a2, a}}
			canyon := trapezoid.Difference(up.Footprint)
			if isEmpty(canyon) {
				continue
			}
			out = append(out, &Zone{
				Kind:              ZoneStreetCanyon,
				Footprint:         canyon,
				OwnerID:           down.ID,
				OwnerHeight:       math.Min(up.TopHeight, down.TopHeight),
				RefHeightSelector: UpstreamBuildingHeight,
				PriorityRank:      rankStreetCanyon,
				Theta:             f.Theta,
				UpstreamHeight:    up.TopHeight,
				UpstreamBlockID:   up.ID,
			})
		}
	}
	return out, nil
}

// BuildRooftopPerpZones constructs the rooftop-perpendicular
// recirculation rectangle for every near-perpendicular facade (§4.1
// Rooftop perpendicular).
func BuildRooftopPerpZones(facets []*UpwindFacet, blocks map[int]*StackedBlock, cfg Config) ([]*Zone, error) {
	var out []*Zone
	for _, f := range facets {
		if math.Abs(f.Theta-math.Pi/2) >= cfg.PerpendicularThreshold {
			continue
		}
		blk, ok := blocks[f.StackedBlockID]
		if !ok {
			return nil, fmt.Errorf("urock: rooftop-perp zone: facet %d: %w: unknown block %d", f.FacetID, ErrInvalidGeometry, f.StackedBlockID)
		}
		tangent, _ := unitVector(f.Segment[0], f.Segment[1])
		n := inwardNormal(tangent)
		a, b := f.Segment[0], f.Segment[1]
		L := cfg.RooftopPerpLength
		a2 := geom.Point{X: a.X + n.X*L, Y: a.Y + n.Y*L}
		b2 := geom.Point{X: b.X + n.X*L, Y: b.Y + n.Y*L}
		rect := geom.Polygon{{a, b, b2, a2, a}}
		clipped := rect.Intersection(blk.Footprint)
		if isEmpty(clipped) {
			continue
		}
		out = append(out, &Zone{
			Kind:              ZoneRooftopPerp,
			Footprint:         clipped,
			OwnerID:           blk.ID,
			OwnerHeight:       blk.TopHeight,
			RefHeightSelector: ReferenceSensorHeight,
			PriorityRank:      rankRooftopPerp,
			Theta:             f.Theta,
		})
	}
	return out, nil
}

// BuildRooftopCornerZones constructs the rooftop corner-vortex wedge for
// facades whose wind-relative angle falls strictly between the
// configured corner thresholds (§4.1 Rooftop corner).
func BuildRooftopCornerZones(facets []*UpwindFacet, blocks map[int]*StackedBlock, cfg Config) ([]*Zone, error) {
	var out []*Zone
	for _, f := range facets {
		offset := math.Abs(math.Pi/2 - f.Theta)
		if !(offset > cfg.CornerThresholdLo && offset < cfg.CornerThresholdHi) {
			continue
		}
		blk, ok := blocks[f.StackedBlockID]
		if !ok {
			return nil, fmt.Errorf("urock: rooftop-corner zone: facet %d: %w: unknown block %d", f.FacetID, ErrInvalidGeometry, f.StackedBlockID)
		}
		// The offset enters the fit in degrees and the fit yields the
		// vortex angle in degrees.
		offsetDeg := offset * 180 / math.Pi
		lcCorner := 2 * f.Length() * math.Tan(degToRad(2.94*math.Exp(0.0297*offsetDeg)))
		if lcCorner <= 0 {
			continue
		}
		tangent, _ := unitVector(f.Segment[0], f.Segment[1])
		n := inwardNormal(tangent)
		sign := 1.0
		anchor := f.Segment[0]
		if f.Theta > math.Pi/2 {
			sign = -1.0
			anchor = f.Segment[1]
		}
		along := geom.Point{X: anchor.X + tangent.X*sign*lcCorner, Y: anchor.Y + tangent.Y*sign*lcCorner}
		inward := geom.Point{X: anchor.X + n.X*lcCorner, Y: anchor.Y + n.Y*lcCorner}
		wedge := geom.Polygon{{anchor, along, inward, anchor}}
		clipped := wedge.Intersection(blk.Footprint)
		if isEmpty(clipped) {
			continue
		}
		out = append(out, &Zone{
			Kind:               ZoneRooftopCorner,
			Footprint:          clipped,
			OwnerID:            blk.ID,
			OwnerHeight:        blk.TopHeight,
			RefHeightSelector:  ReferenceSensorHeight,
			PriorityRank:       rankRooftopCorner,
			Theta:              f.Theta,
			CornerAnchor:       anchor,
			CornerFacadeLength: cfg.RooftopCornerFacadeLength,
			CornerLength:       lcCorner,
		})
	}
	return out, nil
}

// BuildVegetationZones splits every vegetation patch into a built
// component (intersected with the union of all wake footprints) and an
// open component (the remainder), per §4.1 Vegetation.
func BuildVegetationZones(veg []*VegetationPatch, wakeZones []*Zone, cfg Config) []*Zone {
	var wakeUnion geom.Polygon
	for i, wz := range wakeZones {
		if i == 0 {
			wakeUnion = wz.Footprint
			continue
		}
		wakeUnion = wakeUnion.Union(wz.Footprint)
	}
	var out []*Zone
	for _, v := range veg {
		built := geom.Polygon{}
		if wakeUnion != nil {
			built = v.Footprint.Intersection(wakeUnion)
			built = snapPolygon(built, cfg.SnappingTolerance)
		}
		if !isEmpty(built) {
			out = append(out, &Zone{
				Kind:        ZoneVegBuilt,
				Footprint:   built,
				OwnerID:     v.VegID,
				CrownBase:   v.CrownBase,
				CrownTop:    v.CrownTop,
				Attenuation: v.Attenuation,
			})
		}
		open := v.Footprint
		if !isEmpty(built) {
			open = v.Footprint.Difference(built)
		}
		if !isEmpty(open) {
			out = append(out, &Zone{
				Kind:        ZoneVegOpen,
				Footprint:   open,
				OwnerID:     v.VegID,
				CrownBase:   v.CrownBase,
				CrownTop:    v.CrownTop,
				Attenuation: v.Attenuation,
			})
		}
	}
	return out
}

// BuildAllZones runs every C1 builder and concatenates their results,
// the shape C3 consumes. Blocks that fail validation are skipped with
// their error collected rather than aborting the whole run, matching
// §7's "skip the entity with a warning" rule for InvalidGeometry.
func BuildAllZones(blocks []*StackedBlock, facets []*UpwindFacet, veg []*VegetationPatch, cfg Config) ([]*Zone, []error) {
	var skipped []error
	byID := make(map[int]*StackedBlock, len(blocks))
	var validBlocks []*StackedBlock
	for _, b := range blocks {
		if err := b.validate(); err != nil {
			skipped = append(skipped, err)
			continue
		}
		byID[b.ID] = b
		validBlocks = append(validBlocks, b)
	}
	var validVeg []*VegetationPatch
	for _, v := range veg {
		if err := v.validate(); err != nil {
			skipped = append(skipped, err)
			continue
		}
		validVeg = append(validVeg, v)
	}
	var validFacets []*UpwindFacet
	for _, f := range facets {
		if _, ok := byID[f.StackedBlockID]; ok {
			validFacets = append(validFacets, f)
		}
	}

	var all []*Zone
	disp, err := BuildDisplacementZones(validFacets, byID, cfg)
	if err != nil {
		skipped = append(skipped, err)
	}
	all = append(all, disp...)

	vortex, err := BuildDisplacementVortexZones(validFacets, byID, cfg)
	if err != nil {
		skipped = append(skipped, err)
	}
	all = append(all, vortex...)

	cavity := BuildCavityZones(validBlocks, cfg)
	all = append(all, cavity...)

	wake := BuildWakeZones(validBlocks, cfg)
	all = append(all, wake...)

	canyon, err := BuildStreetCanyonZones(validFacets, byID, cavity, cfg)
	if err != nil {
		skipped = append(skipped, err)
	}
	all = append(all, canyon...)

	perp, err := BuildRooftopPerpZones(validFacets, byID, cfg)
	if err != nil {
		skipped = append(skipped, err)
	}
	all = append(all, perp...)

	corner, err := BuildRooftopCornerZones(validFacets, byID, cfg)
	if err != nil {
		skipped = append(skipped, err)
	}
	all = append(all, corner...)

	all = append(all, BuildVegetationZones(validVeg, wake, cfg)...)

	return all, skipped
}
