package ReactingFlow

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvm"
)

/*
SolveSpecies solves one transport equation per specie in table order,
skipping the inert and the inactive species:

	ddt(rho,Yi) + div(phi,Yi) + Yflux(Yi) == R(Yi) + fvOptions(rho,Yi)

Each equation is relaxed, constrained, solved with the "Yi" controls,
corrected, then clipped at zero. The returned Yt is the sum of the solved
fractions.
*/
func (c *Case) SolveSpecies() (Yt []float64, err error) {
	var (
		st    = c.Species
		final = c.Pimple.FinalIter()
		ctrl  = c.Solution.SolverControls("Yi", final)
	)
	Yt = make([]float64, c.Mesh.NCells)
	for i, Yi := range c.Y {
		if !st.Solved(i) {
			continue
		}
		var (
			eq   *fvm.Matrix
			perf fvm.SolverPerformance
		)
		if eq, err = c.specieEquation(i, Yi); err != nil {
			return
		}
		eq.Relax(c.specieRelaxation(Yi.Name, final))
		c.FvOptions.Constrain(eq)
		if perf, err = eq.Solve(ctrl); err != nil {
			return nil, fmt.Errorf("solving %s: %w", Yi.Name, err)
		}
		c.logSolve(perf, ctrl)
		c.Pimple.Record("Yi", perf)
		if err = c.FvOptions.Correct(Yi); err != nil {
			return nil, fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
		}
		Yi.ClipMin(0)
		for celli, y := range Yi.Values {
			Yt[celli] += y
		}
	}
	return
}

func (c *Case) specieEquation(i int, Yi *fvm.ScalarField) (eq *fvm.Matrix, err error) {
	var src *fvm.Matrix
	if src, err = c.FvOptions.Apply(c.Rho, Yi); err != nil {
		return nil, fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
	}
	eq = fvm.Ddt(c.Rho, Yi).
		Add(fvm.Div(c.Phi, Yi)).
		Add(c.Transport.Yflux(i, Yi)).
		Sub(c.Combustion.R(i, Yi)).
		Sub(src)
	return
}

// specieRelaxation looks for a factor under the specie name, then under Yi
func (c *Case) specieRelaxation(name string, final bool) float64 {
	key := name
	if final {
		key += "Final"
	}
	if _, ok := c.Solution.Relaxation.Equations[key]; ok {
		return c.Solution.EquationRelaxation(name, final)
	}
	return c.Solution.EquationRelaxation("Yi", final)
}

/*
Closure sets the inert fraction to 1 - Yt in the cells and on the patches,
clipped at zero. No other specie is rescaled, so a solved sum above one
leaves the total above one.
*/
func (c *Case) Closure(Yt []float64) {
	var (
		st    = c.Species
		inert = c.Y[st.Inert]
	)
	for celli := range inert.Values {
		inert.Values[celli] = 1 - Yt[celli]
	}
	for p, pf := range inert.Boundary {
		for k := range pf.Value {
			sum := 0.
			for i, Y := range c.Y {
				if i != st.Inert {
					sum += Y.Boundary[p].Value[k]
				}
			}
			pf.Value[k] = 1 - sum
		}
	}
	inert.ClipMin(0)
}

// ReportSpecies logs min/ave/max of every specie
func (c *Case) ReportSpecies() {
	for _, Y := range c.Y {
		mn, ave, mx := c.reportBounds(Y.Name, Y)
		c.Metrics.SpecieBounds(Y.Name, mn, ave, mx)
	}
}

func (c *Case) logSolve(perf fvm.SolverPerformance, ctrl fvm.SolverControls) {
	c.Metrics.LinearSolve(perf)
	fields := logrus.Fields{
		"field":           perf.FieldName,
		"initialResidual": perf.InitialResidual,
		"finalResidual":   perf.FinalResidual,
		"iterations":      perf.NIterations,
	}
	if !perf.Converged {
		c.log.WithFields(fields).Warnf("%s not converged to tolerance %g", perf.FieldName, ctrl.Tolerance)
		return
	}
	c.log.WithFields(fields).Debug(perf.String())
}
