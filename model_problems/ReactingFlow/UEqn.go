package ReactingFlow

import (
	"fmt"

	"github.com/notargets/gocombust/fvc"
	"github.com/notargets/gocombust/fvm"
)

/*
MomentumEquations assembles one relaxed and constrained equation per velocity
component, without the pressure gradient:

	ddt(rho,U) + div(phi,U) - lap(muEff,U) == rho*g + fvOptions(rho,U)

With the momentum predictor on the equations are solved against -grad(p).
The returned equations are kept for the pressure correctors.
*/
func (c *Case) MomentumEquations() (UEqn [3]*fvm.Matrix, err error) {
	var (
		final = c.Pimple.FinalIter()
		muEff = c.Transport.MuEff()
		alpha = c.Solution.EquationRelaxation("U", final)
		src   *fvm.Matrix
	)
	for d, Ud := range c.U.Comp {
		if src, err = c.FvOptions.Apply(c.Rho, Ud); err != nil {
			return UEqn, fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
		}
		eq := fvm.Ddt(c.Rho, Ud).
			Add(fvm.Div(c.Phi, Ud)).
			Sub(fvm.Laplacian(muEff, Ud))
		if g := c.Gravity[d]; g != 0 {
			rhog := make([]float64, c.Mesh.NCells)
			for i, rho := range c.Rho.Values {
				rhog[i] = rho * g
			}
			eq.Equals("rho*g", rhog)
		}
		eq.Sub(src).Relax(alpha)
		c.FvOptions.Constrain(eq)
		UEqn[d] = eq
	}
	if !c.Pimple.MomentumPredictor {
		return
	}
	var (
		ctrl  = c.Solution.SolverControls("U", final)
		gradp = fvc.Grad(c.Thermo.P)
		perf  fvm.SolverPerformance
	)
	for d, eq := range UEqn {
		mgradp := make([]float64, c.Mesh.NCells)
		for i := range mgradp {
			mgradp[i] = -gradp[i][d]
		}
		if perf, err = eq.Clone().Equals("-grad(p)", mgradp).Solve(ctrl); err != nil {
			return UEqn, fmt.Errorf("solving %s: %w", c.U.Comp[d].Name, err)
		}
		c.logSolve(perf, ctrl)
		c.Pimple.Record("U", perf)
		if err = c.FvOptions.Correct(c.U.Comp[d]); err != nil {
			return UEqn, fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
		}
	}
	c.updateK()
	return
}
