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

import "math"

// Config holds the scalar parameters and tuning constants for a run. It is
// populated directly by the caller; unlike VarGridConfig in the
// InMAP-style codebases this package is descended from, urock does not
// parse it from a file or flags — geometry loading and configuration
// parsing are the caller's responsibility.
type Config struct {
	// MeshSize is the horizontal grid spacing Δx = Δy [m].
	MeshSize float64

	// Dz is the vertical grid spacing [m].
	Dz float64

	// SketchHeight is the top of the domain [m]; z-levels are generated
	// from 0 up to (at least) this height.
	SketchHeight float64

	// Z0 is the aerodynamic roughness length [m].
	Z0 float64

	// D is the domain zero-plane displacement length [m], used by the
	// open-vegetation wind factor and (as zero) by the built-vegetation one.
	D float64

	// VRef is the reference wind speed [m/s] at height ZRef.
	VRef float64

	// ZRef is the reference height [m] for VRef and for zones whose
	// RefHeightSelector is ReferenceSensorHeight.
	ZRef float64

	// Iterations is the maximum number of SOR sweeps. The solver also
	// stops early on convergence (see SORSolver.Solve).
	Iterations int

	// MaxCells caps nx*ny*nz; exceeding it is ErrGridTooLarge.
	MaxCells int

	// CrossWindZoneExtend pads the obstacle envelope on ±X [m] (§ Grid Builder).
	CrossWindZoneExtend float64

	// AlongWindZoneExtend pads the obstacle envelope on ±Y [m] (§ Grid Builder).
	AlongWindZoneExtend float64

	// PerpendicularThreshold is the angular tolerance [radians] around
	// θ=π/2 within which a facade is treated as perpendicular to the wind
	// (controls DisplacementVortex and RooftopPerp emission).
	PerpendicularThreshold float64

	// CornerThresholdLo, CornerThresholdHi bound |π/2-θ| [radians] within
	// which a rooftop corner vortex is emitted.
	CornerThresholdLo, CornerThresholdHi float64

	// NPointsEllipse is the number of vertices used to discretize a
	// half-ellipse footprint (displacement and displacement-vortex zones).
	NPointsEllipse int

	// EllipsoidMinLength is the minimum Ld·sin²θ [m] below which a
	// displacement zone is not built (too small to matter).
	EllipsoidMinLength float64

	// SnappingTolerance is the coordinate tolerance [m] below which two
	// points are treated as coincident in all geometric predicates.
	SnappingTolerance float64

	// RooftopPerpLength, RooftopPerpHeight size the rooftop-perpendicular
	// recirculation zone [m].
	RooftopPerpLength, RooftopPerpHeight float64

	// RooftopCornerFacadeLength is the facade-length normalization used
	// when locating points within a rooftop-corner zone [m].
	RooftopCornerFacadeLength float64

	// CDz, PDz parametrize the displacement zone v-factor: C_DZ·(z/H)^P_DZ.
	CDz, PDz float64

	// PRtp is the rooftop-zone exponent applied to (Δheight/ZRef).
	PRtp float64

	// DefaultVegAttenuationFactor is a default crown attenuation factor.
	// The vegetation zone builders read each patch's own Attenuation and
	// do not consult this field.
	DefaultVegAttenuationFactor float64
}

// DefaultConfig returns a Config populated with the constants named in
// the specification, using the values implied by the original URock
// Python implementation where the distilled specification does not fix
// a concrete number.
func DefaultConfig() Config {
	return Config{
		MeshSize:                    3,
		Dz:                          3,
		SketchHeight:                50,
		Z0:                          0.5,
		D:                           0,
		VRef:                        5,
		ZRef:                        10,
		Iterations:                  500,
		MaxCells:                    20_000_000,
		CrossWindZoneExtend:         20,
		AlongWindZoneExtend:         20,
		PerpendicularThreshold:      degToRad(10),
		CornerThresholdLo:           degToRad(10),
		CornerThresholdHi:           degToRad(40),
		NPointsEllipse:              40,
		EllipsoidMinLength:          1e-6,
		SnappingTolerance:           0.01,
		RooftopPerpLength:           3,
		RooftopPerpHeight:           1.5,
		RooftopCornerFacadeLength:   3,
		CDz:                         0.6,
		PDz:                         2,
		PRtp:                        0.2,
		DefaultVegAttenuationFactor: 0.1,
	}
}

func degToRad(deg float64) float64 { return deg * math.Pi / 180 }
