package ReactingFlow

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvc"
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/thermo"
)

/*
CorrectPressure is one pressure corrector pass of the compressible PIMPLE
algorithm:

	rAU     = 1/A(UEqn), HbyA = rAU*H(UEqn)
	phiHbyA = interpolate(rho)*(Sf & HbyA)
	ddt(psi,p) + div(phiHbyA) - lap(interpolate(rho*rAU), p) == fvOptions

followed by the flux update, the continuity equation, explicit pressure
relaxation and the velocity correction U = HbyA - rAU*grad(p).
*/
func (c *Case) CorrectPressure(UEqn [3]*fvm.Matrix) (err error) {
	var (
		th      = c.Thermo
		p       = th.P
		mesh    = c.Mesh
		rAU     = make([]float64, mesh.NCells)
		rhorAU  = make([]float64, mesh.NCells)
		HbyA    [3]*fvm.ScalarField
		final   = c.Pimple.FinalIter()
		ctrl    = c.Solution.SolverControls("p", c.Pimple.FinalInnerIter())
		src, eq *fvm.Matrix
		perf    fvm.SolverPerformance
	)
	p.StorePrevIter()
	th.UpdateRho(c.Rho)
	for _, eqd := range UEqn {
		for i, a := range eqd.A() {
			rAU[i] += a / 3
		}
	}
	for i, a := range rAU {
		rAU[i] = 1 / a
		rhorAU[i] = c.Rho.Values[i] * rAU[i]
	}
	rhorAUf := fvc.InterpolateValues("rhorAUf", rhorAU, mesh)
	for d, eqd := range UEqn {
		h := eqd.H()
		for i := range h {
			h[i] *= rAU[i]
		}
		// Fixed velocity patches keep their value
		HbyA[d] = c.U.Comp[d].Clone("HbyA" + c.U.Comp[d].Name[1:])
		HbyA[d].Assign(h)
	}
	HbyAv := &fvm.VectorField{Name: "HbyA", Comp: HbyA}
	phiHbyA := fvc.Flux(HbyAv).Combine("phiHbyA", fvc.Interpolate(c.Rho),
		func(flux, rho float64) float64 { return flux * rho })

	if src, err = c.FvOptions.Apply(c.Rho, p); err != nil {
		return fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
	}
	eq = fvm.Ddt(th.Psi, p).
		AddExplicit("div(phiHbyA)", fvc.DivFlux(phiHbyA)).
		Sub(fvm.Laplacian(rhorAUf, p)).
		Sub(src)
	c.FvOptions.Constrain(eq)
	if perf, err = eq.Solve(ctrl); err != nil {
		return fmt.Errorf("solving p: %w", err)
	}
	c.logSolve(perf, ctrl)
	c.Pimple.Record("p", perf)

	// phi = phiHbyA + pEqn.flux()
	sn := fvc.SnGrad(p)
	for f := range c.Phi.Internal {
		c.Phi.Internal[f] = phiHbyA.Internal[f] - rhorAUf.Internal[f]*mesh.MagSf[f]*sn.Internal[f]
	}
	for pi, patch := range mesh.Patches {
		for i := range patch.FaceCells {
			c.Phi.Boundary[pi][i] = phiHbyA.Boundary[pi][i] - rhorAUf.Boundary[pi][i]*patch.MagSf[i]*sn.Boundary[pi][i]
		}
	}

	c.SolveContinuity()
	c.ContinuityErrors()

	p.Relax(c.Solution.FieldRelaxation("p", final))
	th.UpdateRho(c.Rho)

	gradp := fvc.Grad(p)
	for d, Ud := range c.U.Comp {
		U := make([]float64, mesh.NCells)
		for i := range U {
			U[i] = HbyA[d].Values[i] - rAU[i]*gradp[i][d]
		}
		Ud.Assign(U)
		if err = c.FvOptions.Correct(Ud); err != nil {
			return fmt.Errorf("%w: fvOptions: %w", ErrCollaborator, err)
		}
	}
	c.updateK()
	if !c.LowMach && th.Energy == thermo.SensibleEnthalpy {
		c.Dpdt.Assign(fvc.Ddt(nil, p))
	}
	return
}

// SolveContinuity is the explicit continuity equation ddt(rho) + div(phi) == 0
func (c *Case) SolveContinuity() {
	var (
		dt     = c.Mesh.Time.DeltaT
		rho0   = c.Rho.OldTime()
		divPhi = fvc.DivFlux(c.Phi)
	)
	for i := range c.Rho.Values {
		c.Rho.Values[i] = rho0[i] - dt*divPhi[i]
	}
}

// ContinuityErrors compares the transported density with the equation of state
func (c *Case) ContinuityErrors() (sumLocal, global float64) {
	var (
		mesh      = c.Mesh
		rhoThermo = c.Thermo.Rho()
		totalMass float64
	)
	for i, rho := range c.Rho.Values {
		totalMass += rho * mesh.V[i]
		sumLocal += math.Abs(rho-rhoThermo[i]) * mesh.V[i]
		global += (rho - rhoThermo[i]) * mesh.V[i]
	}
	sumLocal /= totalMass
	global /= totalMass
	c.cumulativeContErr += global
	c.log.WithFields(logrus.Fields{
		"sumLocal":   sumLocal,
		"global":     global,
		"cumulative": c.cumulativeContErr,
	}).Info("time step continuity errors")
	return
}

// CourantNumber returns the mean and maximum Courant numbers 0.5*sum|phi|/(rho*V)*dt
func (c *Case) CourantNumber() (mean, mx float64) {
	var (
		mesh   = c.Mesh
		dt     = mesh.Time.DeltaT
		sumPhi = make([]float64, mesh.NCells)
		sumV   float64
		sum    float64
	)
	for f, P := range mesh.Owner {
		a := math.Abs(c.Phi.Internal[f])
		sumPhi[P] += a
		sumPhi[mesh.Neighbour[f]] += a
	}
	for pi, patch := range mesh.Patches {
		for i, celli := range patch.FaceCells {
			sumPhi[celli] += math.Abs(c.Phi.Boundary[pi][i])
		}
	}
	for i, s := range sumPhi {
		s /= c.Rho.Values[i]
		mx = math.Max(mx, 0.5*s/mesh.V[i]*dt)
		sum += s
		sumV += mesh.V[i]
	}
	mean = 0.5 * sum / sumV * dt
	return
}
