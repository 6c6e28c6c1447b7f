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
	"time"

	"github.com/sirupsen/logrus"
)

// Domain holds everything one solve needs: the input sketch, the
// derived grid, and the velocity/solid-mask fields the manipulators
// operate on. It plays the role InMAPdata plays for InMAP's chemistry
// run: a single struct threaded through a pipeline of composable steps.
type Domain struct {
	Cfg Config

	Blocks []*StackedBlock
	Facets []*UpwindFacet
	Veg    []*VegetationPatch

	Grid *Grid

	Zones  []*Zone
	Locals []ZoneLocal

	Field *VelocityField
	Mask  *SolidMask

	lambda *LambdaState

	// Iteration and Converged report the outcome of the most recent
	// Relax call.
	Iteration int
	Converged bool

	// SkippedErrors accumulates the non-fatal errors BuildAllZones or
	// block/patch validation produced; the run continues past them.
	SkippedErrors []error

	Log *logrus.Logger
}

// DomainManipulator is one composable step of a run, mirroring the
// functional-pipeline style used to sequence a solve: build the grid,
// build the zones, superimpose them, initialize the field, relax it.
type DomainManipulator func(d *Domain) error

// NewDomain constructs an empty Domain for the given sketch and
// configuration. Call Run with a sequence of DomainManipulators to
// actually produce a field.
func NewDomain(blocks []*StackedBlock, facets []*UpwindFacet, veg []*VegetationPatch, cfg Config) *Domain {
	log := logrus.New()
	return &Domain{Cfg: cfg, Blocks: blocks, Facets: facets, Veg: veg, Log: log}
}

// Run executes each manipulator in sequence, stopping at the first
// error.
func (d *Domain) Run(manipulators ...DomainManipulator) error {
	for _, m := range manipulators {
		if err := m(d); err != nil {
			return err
		}
	}
	return nil
}

// BuildGridStep constructs the domain's regular grid from the sketch's
// combined obstacle and vegetation envelope (C2 Grid Builder).
func BuildGridStep() DomainManipulator {
	return func(d *Domain) error {
		g, err := BuildGrid(d.Blocks, d.Veg, d.Cfg)
		if err != nil {
			return fmt.Errorf("urock: build grid: %w", err)
		}
		if n := g.Nx * g.Ny * ZLevelCount(d.Cfg); n > d.Cfg.MaxCells {
			return fmt.Errorf("urock: build grid: %w: %d cells exceeds MaxCells=%d", ErrGridTooLarge, n, d.Cfg.MaxCells)
		}
		d.Grid = g
		d.Log.WithFields(logrus.Fields{"nx": g.Nx, "ny": g.Ny, "nz": ZLevelCount(d.Cfg)}).Info("built grid")
		return nil
	}
}

// BuildZonesStep constructs every Röckle zone around the sketch's
// obstacles and vegetation (C1 Zone Geometry Builder), collecting but
// not failing on per-entity errors.
func BuildZonesStep() DomainManipulator {
	return func(d *Domain) error {
		zones, errs := BuildAllZones(d.Blocks, d.Facets, d.Veg, d.Cfg)
		d.Zones = zones
		d.SkippedErrors = append(d.SkippedErrors, errs...)
		for _, e := range errs {
			d.Log.WithError(e).Warn("skipped entity")
		}
		d.Log.WithField("zones", len(zones)).Info("built zones")
		return nil
	}
}

// MapAndEvaluateStep maps every grid point into its overlapping zones
// (C3), evaluates each zone's analytical wind-factor formula there
// (C4), and resolves the per-voxel candidates down to one factor per
// voxel (C5).
func MapAndEvaluateStep() DomainManipulator {
	return func(d *Domain) error {
		d.Locals = MapPointsToZones(d.Grid, d.Zones, d.Cfg)
		factors := EvaluateWindFactors(d.Locals, d.Cfg)
		resolved := Superimpose(factors)
		d.Log.WithFields(logrus.Fields{"locals": len(d.Locals), "factors": len(factors), "resolved": len(resolved)}).Info("evaluated wind factors")
		d.initializeFrom(resolved)
		return nil
	}
}

func (d *Domain) initializeFrom(resolved []ResolvedVoxel) {
	d.Field, d.Mask = InitializeField(d.Grid, d.Blocks, resolved, d.Cfg)
}

// RelaxStep runs the SOR solver to mass-conservation. When logEvery > 0
// it logs one summary line (iterations, convergence, elapsed time) after
// the solve finishes; no per-iteration progress is logged, and the value
// of logEvery beyond its sign is not used. A fresh LambdaState is allocated on first
// use and reused across repeated RelaxStep calls, so a caller can
// extend a run that did not converge within its first budget.
func RelaxStep(logEvery int) DomainManipulator {
	return func(d *Domain) error {
		if d.lambda == nil {
			d.lambda = NewLambdaState(d.Grid.Nx, d.Grid.Ny, ZLevelCount(d.Cfg))
		}
		solver := &SORSolver{Grid: d.Grid, Mask: d.Mask, Cfg: d.Cfg}

		start := time.Now()
		iters, converged, err := solver.Solve(d.Field, d.lambda, d.Cfg.Iterations)
		if err != nil {
			return fmt.Errorf("urock: relax: %w", err)
		}
		d.Iteration += iters
		d.Converged = converged
		if logEvery > 0 {
			d.Log.WithFields(logrus.Fields{
				"iterations": d.Iteration,
				"converged":  d.Converged,
				"elapsed":    time.Since(start),
			}).Info("relaxation finished")
		}
		return nil
	}
}

// Solve runs the full pipeline: grid, zones, mapping/evaluation/
// superimposition, field initialization, and relaxation.
func Solve(blocks []*StackedBlock, facets []*UpwindFacet, veg []*VegetationPatch, cfg Config) (*Domain, error) {
	d := NewDomain(blocks, facets, veg, cfg)
	err := d.Run(
		BuildGridStep(),
		BuildZonesStep(),
		MapAndEvaluateStep(),
		RelaxStep(50),
	)
	return d, err
}
