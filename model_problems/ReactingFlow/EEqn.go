package ReactingFlow

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvc"
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/utils"
)

/*
EnergyEquation assembles the equation of the energy variable he:

	ddt(rho,he) + div(phi,he) + ddt(rho,K) + div(phi,K)
	  + [e: div(phiv,p) - lap(alphaE,he) + Econduction]
	  + [h: -dpdt - lap(alpha,he) + Hconduction]
	  + JHs
	== Sh + radiation Sh + fvOptions(rho,he)

The low Mach number form drops the kinetic energy and dpdt terms.
*/
func (c *Case) EnergyEquation() (eq *fvm.Matrix, err error) {
	var (
		th  = c.Thermo
		he  = th.HE
		src *fvm.Matrix
		tr  = c.Transport
	)
	eq = fvm.Ddt(c.Rho, he).Add(fvm.Div(c.Phi, he))
	if !c.LowMach {
		var (
			dt      = c.Mesh.Time.DeltaT
			ddtRhoK = fvc.DdtRhoK(c.Rho.Values, c.Rho.OldTime(), c.K.Values, c.K.OldTime(), dt)
		)
		eq.AddExplicit("ddt(rho,K)", ddtRhoK).AddExplicit("div(phi,K)", fvc.Div(c.Phi, c.K))
	}
	switch th.Energy {
	case thermo.SensibleInternalEnergy:
		eq.AddExplicit("div(phiv,p)", fvc.Div(c.phiv(), th.P)).
			Sub(fvm.Laplacian(tr.AlphaE(), he)).
			AddExplicit("Econduction", tr.Econduction(he))
	default:
		if !c.LowMach {
			eq.Equals("dpdt", c.Dpdt.Values)
		}
		eq.Sub(fvm.Laplacian(tr.Alpha(), he)).
			AddExplicit("Hconduction", tr.Hconduction(he))
	}
	eq.AddExplicit("JHs", tr.JHs())
	if src, err = c.FvOptions.Apply(c.Rho, he); err != nil {
		return nil, fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
	}
	eq.Equals("Sh", c.Combustion.Sh()).
		Sub(c.Radiation.Sh(th, he)).
		Sub(src)
	return
}

// phiv is the volumetric flux phi/interpolate(rho)
func (c *Case) phiv() *fvm.SurfaceField {
	return c.Phi.Combine("phiv", fvc.Interpolate(c.Rho),
		func(phi, rho float64) float64 { return phi / rho })
}

/*
SolveEnergy solves the energy equation then re-derives the thermodynamic
state from the new energy field. The radiative diagnostic dQrad = Ru - Rp*T^4
is refreshed beforehand and never enters the balance.
*/
func (c *Case) SolveEnergy() (err error) {
	var (
		th    = c.Thermo
		final = c.Pimple.FinalIter()
		name  = th.HE.Name
		ctrl  = c.Solution.SolverControls(name, final)
		eq    *fvm.Matrix
		perf  fvm.SolverPerformance
	)
	c.updateDQrad()
	if eq, err = c.EnergyEquation(); err != nil {
		return
	}
	eq.Relax(c.Solution.EquationRelaxation(name, final))
	c.FvOptions.Constrain(eq)
	if perf, err = eq.Solve(ctrl); err != nil {
		return fmt.Errorf("solving %s: %w", name, err)
	}
	c.logSolve(perf, ctrl)
	c.Pimple.Record(name, perf)
	if err = c.FvOptions.Correct(th.HE); err != nil {
		return fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
	}
	if err = th.Correct(); err != nil {
		return fmt.Errorf("%w: thermo: %w", ErrCollaborator, err)
	}
	Tmin, Tmax := th.T.Min(), th.T.Max()
	c.log.WithFields(logrus.Fields{"min": Tmin, "max": Tmax}).Infof("min/max(T) = %g, %g", Tmin, Tmax)
	c.Metrics.Temperature(Tmin, Tmax)
	return
}

func (c *Case) updateDQrad() {
	var (
		T  = c.Thermo.T.Values
		Ru = c.Radiation.Ru()
		Rp = c.Radiation.Rp()
	)
	for i := range c.DQrad.Values {
		c.DQrad.Values[i] = Ru[i] - Rp[i]*utils.POW(T[i], 4)
	}
}
