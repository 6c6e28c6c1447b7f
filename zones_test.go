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
	"errors"
	"math"
	"testing"

	"github.com/ctessum/geom"
)

func rectPolygon(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0},
		{X: x1, Y: y0},
		{X: x1, Y: y1},
		{X: x0, Y: y1},
		{X: x0, Y: y0},
	}}
}

func testBlock(id int) *StackedBlock {
	return &StackedBlock{
		ID:        id,
		Footprint: rectPolygon(0, 0, 10, 10),
		BaseHeight: 0, TopHeight: 10,
		Ld: 5, Lc: 5, Lw: 15, LdVortex: 5,
	}
}

func TestBuildCavityAndWakeZonesEnclosure(t *testing.T) {
	cfg := DefaultConfig()
	blk := testBlock(1)

	cavity := BuildCavityZones([]*StackedBlock{blk}, cfg)
	wake := BuildWakeZones([]*StackedBlock{blk}, cfg)
	if len(cavity) != 1 || len(wake) != 1 {
		t.Fatalf("expected one cavity and one wake zone, got %d and %d", len(cavity), len(wake))
	}

	cavityArea := cavity[0].Footprint.Area()
	wakeArea := wake[0].Footprint.Area()
	if wakeArea <= cavityArea {
		t.Errorf("wake area %g should exceed cavity area %g (Lw=%g > Lc=%g)", wakeArea, cavityArea, blk.Lw, blk.Lc)
	}

	if wake[0].SecondaryLength != blk.Lc {
		t.Errorf("wake SecondaryLength = %g, want owner's Lc = %g", wake[0].SecondaryLength, blk.Lc)
	}

	// Both zones should sit downwind, i.e. beyond the block's max-Y edge.
	cavBounds := cavity[0].Footprint.Bounds()
	if cavBounds.Max.Y <= blk.Footprint.Bounds().Max.Y {
		t.Errorf("cavity zone max Y = %g should extend beyond block's max Y = %g", cavBounds.Max.Y, blk.Footprint.Bounds().Max.Y)
	}
}

func TestBuildDisplacementZonesSkipsDegenerate(t *testing.T) {
	cfg := DefaultConfig()
	blk := testBlock(1)
	blocks := map[int]*StackedBlock{1: blk}

	// A facet parallel to the wind (theta near 0) yields ry ~ 0, below
	// EllipsoidMinLength, and should be silently skipped rather than
	// producing a degenerate zone.
	facets := []*UpwindFacet{{
		FacetID: 1, StackedBlockID: 1,
		Segment: geom.LineString{{X: 0, Y: 0}, {X: 0, Y: 10}},
		Theta:   1e-4,
	}}
	zones, err := BuildDisplacementZones(facets, blocks, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 0 {
		t.Errorf("expected nearly-parallel facet to yield no displacement zone, got %d", len(zones))
	}
}

func TestBuildDisplacementZonesUnknownBlock(t *testing.T) {
	cfg := DefaultConfig()
	facets := []*UpwindFacet{{
		FacetID: 1, StackedBlockID: 99,
		Segment: geom.LineString{{X: 0, Y: 0}, {X: 0, Y: 10}},
		Theta:   1.4,
	}}
	_, err := BuildDisplacementZones(facets, map[int]*StackedBlock{}, cfg)
	if !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("expected ErrInvalidGeometry for unknown block, got %v", err)
	}
}

func TestBuildAllZonesSkipsInvalidBlock(t *testing.T) {
	cfg := DefaultConfig()
	good := testBlock(1)
	bad := &StackedBlock{ID: 2, Footprint: rectPolygon(20, 0, 30, 10), BaseHeight: 5, TopHeight: 5, Ld: 1, Lc: 1, Lw: 1, LdVortex: 1}

	zones, skipped := BuildAllZones([]*StackedBlock{good, bad}, nil, nil, cfg)
	if len(skipped) != 1 || !errors.Is(skipped[0], ErrInconsistentHeights) {
		t.Fatalf("expected one ErrInconsistentHeights, got %v", skipped)
	}
	for _, z := range zones {
		if z.OwnerID == bad.ID {
			t.Errorf("zone %v built from invalid block %d should have been skipped", z.Kind, bad.ID)
		}
	}
}

func TestBuildVegetationZonesPartition(t *testing.T) {
	cfg := DefaultConfig()
	patch := &VegetationPatch{VegID: 1, Footprint: rectPolygon(0, 0, 10, 10), CrownBase: 2, CrownTop: 8, Attenuation: 0.1}
	wake := []*Zone{{Kind: ZoneWake, Footprint: rectPolygon(5, 0, 15, 10)}}

	zones := BuildVegetationZones([]*VegetationPatch{patch}, wake, cfg)
	var builtArea, openArea float64
	for _, z := range zones {
		switch z.Kind {
		case ZoneVegBuilt:
			builtArea += z.Footprint.Area()
		case ZoneVegOpen:
			openArea += z.Footprint.Area()
		default:
			t.Errorf("unexpected zone kind %v from BuildVegetationZones", z.Kind)
		}
	}
	if builtArea <= 0 || openArea <= 0 {
		t.Errorf("expected both a built and an open component, got built=%g open=%g", builtArea, openArea)
	}
	if total := builtArea + openArea; total < patch.Footprint.Area()*0.99 || total > patch.Footprint.Area()*1.01 {
		t.Errorf("built+open area %g should approximately equal patch area %g", total, patch.Footprint.Area())
	}
}

func TestBuildRooftopCornerZonesCarriesCornerLength(t *testing.T) {
	cfg := DefaultConfig()
	blk := testBlock(1)
	blocks := map[int]*StackedBlock{1: blk}
	offset := cfg.CornerThresholdLo + (cfg.CornerThresholdHi-cfg.CornerThresholdLo)/2
	theta := math.Pi/2 - offset
	facets := []*UpwindFacet{{
		FacetID: 1, StackedBlockID: 1,
		Segment: geom.LineString{{X: 0, Y: 0}, {X: 10, Y: 0}},
		Theta:   theta,
	}}

	zones, err := BuildRooftopCornerZones(facets, blocks, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected one rooftop-corner zone, got %d", len(zones))
	}
	offsetDeg := offset * 180 / math.Pi
	wantLen := 2 * facets[0].Length() * math.Tan(degToRad(2.94*math.Exp(0.0297*offsetDeg)))
	if got := zones[0].CornerLength; math.Abs(got-wantLen) > 1e-9 {
		t.Errorf("CornerLength = %g, want %g (2*L*tan(2.94*exp(0.0297*offset)) in degrees)", got, wantLen)
	}
}
