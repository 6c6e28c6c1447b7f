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

import "errors"

// Sentinel error kinds. Callers use errors.Is to distinguish them; each
// is wrapped with call-specific context via fmt.Errorf("urock: ...: %w", ...).
var (
	// ErrInvalidGeometry marks a self-intersecting or empty input polygon.
	// The offending entity is skipped; the run continues.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInconsistentHeights marks a StackedBlock with BaseHeight >= TopHeight.
	// The block is rejected.
	ErrInconsistentHeights = errors.New("inconsistent heights")

	// ErrDegenerateZone marks a zone construction that yielded an empty
	// footprint (e.g. a facet nearly parallel to the wind). A missing
	// zone is not a run-level error; the zone is silently skipped.
	ErrDegenerateZone = errors.New("degenerate zone")

	// ErrGridTooLarge marks a grid whose nx*ny*nz exceeds a caller-supplied
	// cap. The run aborts.
	ErrGridTooLarge = errors.New("grid too large")

	// ErrSolverDiverged marks a SOR run where sum(|lambda'|) became zero
	// or non-finite. The run aborts.
	ErrSolverDiverged = errors.New("solver diverged")
)
