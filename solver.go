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

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// convergenceTolerance is the Σ|λ'-λ|/Σ|λ'| threshold below which the
// solver declares convergence (§4.7).
const convergenceTolerance = 5e-3

// overRelaxation is ω, the SOR mixing parameter (§4.7).
const overRelaxation = 1.78

// LambdaState is the solver's own scalar fields, kept separate from
// VelocityField so a caller can resume a run across calls to Solve
// (an original-source-grounded addition the distilled spec's C7
// section does not itself name; see DESIGN.md).
type LambdaState struct {
	Nx, Ny, Nz int
	Lambda     *sparse.DenseArray
	LambdaP    *sparse.DenseArray
}

// NewLambdaState allocates λ, λ' initialized to 1 on every interior
// cell and 0 on all six domain faces (§4.7).
func NewLambdaState(nx, ny, nz int) *LambdaState {
	s := &LambdaState{Nx: nx, Ny: ny, Nz: nz, Lambda: sparse.ZerosDense(nx, ny, nz), LambdaP: sparse.ZerosDense(nx, ny, nz)}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				if isDomainFace(i, j, k, nx, ny, nz) {
					continue
				}
				s.Lambda.Set(1, i, j, k)
				s.LambdaP.Set(1, i, j, k)
			}
		}
	}
	return s
}

func isDomainFace(i, j, k, nx, ny, nz int) bool {
	return i == 0 || i == nx-1 || j == 0 || j == ny-1 || k == 0 || k == nz-1
}

// stencil holds the nine boundary-coefficient arrays e,f,g,h,m,n,o,p,q
// (§4.7), each shape (nx, ny, nz) and initialized to 1.
type stencil struct {
	e, f, g, h, m, n, o, p, q *sparse.DenseArray
}

// buildStencil derives the stencil from the solid mask: each solid
// cell zeroes its neighbors' inflow coefficients and half-weights the
// neighbors' o/p/q terms, per §4.7's boundary rule. The n/q axis is
// asymmetric relative to e/f/g/h/o/p by design (a ceiling cell is
// penalized looking down from above but not from below); this is
// reproduced verbatim from the rule as stated, not rebalanced.
func buildStencil(mask *SolidMask) *stencil {
	nx, ny, nz := mask.Nx, mask.Ny, mask.Nz
	ones := func() *sparse.DenseArray {
		a := sparse.ZerosDense(nx, ny, nz)
		for i := range a.Elements {
			a.Elements[i] = 1
		}
		return a
	}
	st := &stencil{e: ones(), f: ones(), g: ones(), h: ones(), m: ones(), n: ones(), o: ones(), p: ones(), q: ones()}

	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				if !mask.isSolid(i, j, k) {
					continue
				}
				if i-1 >= 0 {
					st.e.Set(0, i-1, j, k)
					st.o.Set(0.5, i-1, j, k)
				}
				if i+1 < nx {
					st.f.Set(0, i+1, j, k)
					st.o.Set(0.5, i+1, j, k)
				}
				if j-1 >= 0 {
					st.g.Set(0, i, j-1, k)
					st.p.Set(0.5, i, j-1, k)
				}
				if j+1 < ny {
					st.h.Set(0, i, j+1, k)
					st.p.Set(0.5, i, j+1, k)
				}
				if k+1 < nz {
					st.n.Set(0, i, j, k+1)
					st.q.Set(0.5, i, j, k+1)
				}
			}
		}
	}
	return st
}

// SORSolver drives the mass-conservation relaxation (C7).
type SORSolver struct {
	Grid *Grid
	Mask *SolidMask
	Cfg  Config
}

// Solve runs up to maxIterations SOR sweeps (or until convergence),
// then applies the final velocity correction and cell-center
// recentering (§4.7). Passing maxIterations=0 skips the relaxation
// loop entirely and goes straight to the correction, the round-trip
// scenario §8 names.
func (s *SORSolver) Solve(vf *VelocityField, state *LambdaState, maxIterations int) (iterations int, converged bool, err error) {
	st := buildStencil(s.Mask)
	dx, dy, dz := s.Grid.Dx, s.Grid.Dy, s.Cfg.Dz
	const alpha1, alpha2 = 1.0, 1.0
	A := (dx * dx) / (dy * dy)
	B := (alpha1 * alpha1 * dx * dx) / (dz * dz)

	for iterations = 0; iterations < maxIterations; iterations++ {
		copy(state.Lambda.Elements, state.LambdaP.Elements)
		sweep(state, st, vf, dx, dy, dz, alpha1, A, B, overRelaxation)

		sumDiff, sumAbs, err2 := convergenceSums(state)
		if err2 != nil {
			return iterations + 1, false, err2
		}
		if sumDiff/sumAbs < convergenceTolerance {
			converged = true
			iterations++
			break
		}
	}

	applyCorrection(vf, state, dx, dy, dz, alpha1, alpha2)
	zeroSolidVelocities(vf, s.Mask)
	recenter(vf)

	return iterations, converged, nil
}

func sweep(state *LambdaState, st *stencil, vf *VelocityField, dx, dy, dz, alpha1, A, B, omega float64) {
	nx, ny, nz := state.Nx, state.Ny, state.Nz
	for i := 1; i < nx-1; i++ {
		for j := 1; j < ny-1; j++ {
			for k := 1; k < nz-1; k++ {
				div := (vf.Un.Get(i+1, j, k)-vf.Un.Get(i, j, k))/dx +
					(vf.Vn.Get(i, j+1, k)-vf.Vn.Get(i, j, k))/dy +
					(vf.Wn.Get(i, j, k+1)-vf.Wn.Get(i, j, k))/dz

				num := 2*alpha1*alpha1*dx*dx*div +
					st.e.Get(i, j, k)*state.Lambda.Get(i+1, j, k) + st.f.Get(i, j, k)*state.LambdaP.Get(i-1, j, k) +
					A*(st.g.Get(i, j, k)*state.Lambda.Get(i, j+1, k)+st.h.Get(i, j, k)*state.LambdaP.Get(i, j-1, k)) +
					B*(st.m.Get(i, j, k)*state.Lambda.Get(i, j, k+1)+st.n.Get(i, j, k)*state.LambdaP.Get(i, j, k-1))
				den := 2 * (st.o.Get(i, j, k) + A*st.p.Get(i, j, k) + B*st.q.Get(i, j, k))

				val := omega*num/den + (1-omega)*state.LambdaP.Get(i, j, k)
				state.LambdaP.Set(val, i, j, k)
			}
		}
	}
}

// convergenceSums computes Σ|λ'-λ| and Σ|λ'|, reporting ErrSolverDiverged
// if the latter is zero or non-finite (§4.7, §7).
func convergenceSums(state *LambdaState) (sumDiff, sumAbs float64, err error) {
	n := len(state.Lambda.Elements)
	diffs := make([]float64, n)
	abss := make([]float64, n)
	for idx := range diffs {
		diffs[idx] = math.Abs(state.LambdaP.Elements[idx] - state.Lambda.Elements[idx])
		abss[idx] = math.Abs(state.LambdaP.Elements[idx])
	}
	sumDiff = floats.Sum(diffs)
	sumAbs = floats.Sum(abss)
	if sumAbs == 0 || math.IsNaN(sumAbs) || math.IsInf(sumAbs, 0) {
		return sumDiff, sumAbs, fmt.Errorf("urock: SOR solve: %w: sum(|lambda'|)=%g", ErrSolverDiverged, sumAbs)
	}
	return sumDiff, sumAbs, nil
}

// applyCorrection updates the face velocities from the converged (or
// iteration-capped) λ' field (§4.7 Correction).
func applyCorrection(vf *VelocityField, state *LambdaState, dx, dy, dz, alpha1, alpha2 float64) {
	nx, ny, nz := state.Nx, state.Ny, state.Nz
	for i := 1; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				val := vf.Un.Get(i, j, k) + 0.5/(alpha1*alpha1)*(state.LambdaP.Get(i, j, k)-state.LambdaP.Get(i-1, j, k))/dx
				vf.U.Set(val, i, j, k)
			}
		}
	}
	for i := 0; i < nx; i++ {
		for j := 1; j < ny; j++ {
			for k := 0; k < nz; k++ {
				val := vf.Vn.Get(i, j, k) + 0.5/(alpha1*alpha1)*(state.LambdaP.Get(i, j, k)-state.LambdaP.Get(i, j-1, k))/dy
				vf.V.Set(val, i, j, k)
			}
		}
	}
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 1; k < nz; k++ {
				val := vf.Wn.Get(i, j, k) + 0.5/(alpha2*alpha2)*(state.LambdaP.Get(i, j, k)-state.LambdaP.Get(i, j, k-1))/dz
				vf.W.Set(val, i, j, k)
			}
		}
	}
}

// recenter averages each staggered face pair back to cell centers for
// every velocity array, including the initial-guess arrays (§4.7).
func recenter(vf *VelocityField) {
	recenterAxis(vf.U, 0, vf.Nx, vf.Ny, vf.Nz)
	recenterAxis(vf.Un, 0, vf.Nx, vf.Ny, vf.Nz)
	recenterAxis(vf.V, 1, vf.Nx, vf.Ny, vf.Nz)
	recenterAxis(vf.Vn, 1, vf.Nx, vf.Ny, vf.Nz)
	recenterAxis(vf.W, 2, vf.Nx, vf.Ny, vf.Nz)
	recenterAxis(vf.Wn, 2, vf.Nx, vf.Ny, vf.Nz)
}

func recenterAxis(a *sparse.DenseArray, axis, nx, ny, nz int) {
	switch axis {
	case 0:
		for i := 0; i < nx-1; i++ {
			for j := 0; j < ny; j++ {
				for k := 0; k < nz; k++ {
					a.Set((a.Get(i, j, k)+a.Get(i+1, j, k))/2, i, j, k)
				}
			}
		}
	case 1:
		for i := 0; i < nx; i++ {
			for j := 0; j < ny-1; j++ {
				for k := 0; k < nz; k++ {
					a.Set((a.Get(i, j, k)+a.Get(i, j+1, k))/2, i, j, k)
				}
			}
		}
	case 2:
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				for k := 0; k < nz-1; k++ {
					a.Set((a.Get(i, j, k)+a.Get(i, j, k+1))/2, i, j, k)
				}
			}
		}
	}
}
