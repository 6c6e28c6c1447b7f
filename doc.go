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
// Package urock computes a diagnostic three-dimensional urban wind field
// over a sketch of stacked rectangular building blocks and vegetation
// patches, following the Röckle family of models (Kaplan & Dinar 1996;
// Nelson et al. 2008; Pol et al. 2006; Bagal et al. 2004).
//
// Around each obstacle, analytical "Röckle zones" (displacement, cavity,
// wake, street canyon, rooftop recirculation and corner vortex, and
// vegetation attenuation) give an initial guess of the wind vector at
// every point in a regular grid. A successive-over-relaxation solver then
// relaxes that guess to a mass-conserving (approximately divergence-free)
// field that respects solid obstacle boundaries.
//
// The package does not load geometry from disk, rotate it to be
// wind-aligned, or compute effective obstacle dimensions; callers are
// expected to do that and pass in already-prepared StackedBlock,
// UpwindFacet, and VegetationPatch values with wind blowing along +Y.
package urock
