package thermo

import (
	"fmt"
	"math"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/types"
	"github.com/notargets/gocombust/utils"
)

type EnergyVariable uint8

const (
	SensibleEnthalpy EnergyVariable = iota
	SensibleInternalEnergy
)

var EnergyVariableNames = map[string]EnergyVariable{
	"h":                      SensibleEnthalpy,
	"e":                      SensibleInternalEnergy,
	"sensibleEnthalpy":       SensibleEnthalpy,
	"sensibleInternalEnergy": SensibleInternalEnergy,
}

func (ev EnergyVariable) String() string {
	if ev == SensibleInternalEnergy {
		return "e"
	}
	return "h"
}

func NewEnergyVariable(name string) (ev EnergyVariable, err error) {
	var ok bool
	if ev, ok = EnergyVariableNames[name]; !ok {
		err = fmt.Errorf("unknown energy variable %q, use h or e", name)
	}
	return
}

type Options struct {
	TLow  float64 `json:"TLow"`
	THigh float64 `json:"THigh"`
	Mu    float64 `json:"mu"` // Laminar viscosity, kg/(m s)
	Pr    float64 `json:"Pr"`
}

var DefaultOptions = Options{TLow: 200, THigh: 5000, Mu: 1.8e-5, Pr: 0.7}

/*
PsiThermo is a multi-component perfect gas with constant specie heat
capacities. rho = psi*p with psi = 1/(R*T). The energy variable is the
sensible enthalpy hs = Cp*(T - Tstd) or the sensible internal energy
es = hs - R*T, chosen once at construction.
*/
type PsiThermo struct {
	Species        *SpeciesTable
	Y              []*fvm.ScalarField
	P, T, HE       *fvm.ScalarField
	Psi, Mu, Alpha *fvm.ScalarField
	Energy         EnergyVariable
	TLow, THigh    float64
	Mu0, Pr        float64
}

func NewPsiThermo(species *SpeciesTable, Y []*fvm.ScalarField, p, T *fvm.ScalarField,
	energy EnergyVariable, opts Options) (th *PsiThermo, err error) {
	if len(Y) != species.Len() {
		err = fmt.Errorf("have %d specie fields for %d species", len(Y), species.Len())
		return
	}
	if opts.TLow <= 0 || opts.THigh <= opts.TLow {
		err = fmt.Errorf("invalid temperature bounds [%g, %g]", opts.TLow, opts.THigh)
		return
	}
	th = &PsiThermo{
		Species: species,
		Y:       Y,
		P:       p,
		T:       T,
		Energy:  energy,
		TLow:    opts.TLow,
		THigh:   opts.THigh,
		Mu0:     opts.Mu,
		Pr:      opts.Pr,
	}
	var (
		mesh       = T.Mesh
		calculated = func() (bcs []*fvm.PatchField) {
			for _, patch := range mesh.Patches {
				bcs = append(bcs, fvm.Calculated(patch.Size(), 0))
			}
			return
		}
		heBCs []*fvm.PatchField
	)
	for p, patch := range mesh.Patches {
		pf := fvm.Mixed(patch.Size(), 0, 0, 0)
		pf.Updater = &energyPatch{th: th, patchI: p}
		heBCs = append(heBCs, pf)
	}
	th.HE = fvm.NewScalarField(energy.String(), types.DimSpecificE, mesh, 0, heBCs)
	th.Psi = fvm.NewScalarField("psi", types.DimCompress, mesh, 0, calculated())
	th.Mu = fvm.NewScalarField("mu", types.DimViscosity, mesh, 0, calculated())
	th.Alpha = fvm.NewScalarField("alpha", types.DimViscosity, mesh, 0, calculated())
	th.InitHE()
	err = th.Correct()
	return
}

func (th *PsiThermo) heOfT(cp, R, T float64) float64 {
	if th.Energy == SensibleInternalEnergy {
		return cp*(T-Tstd) - R*T
	}
	return cp * (T - Tstd)
}

func (th *PsiThermo) cpv(cp, R float64) float64 {
	if th.Energy == SensibleInternalEnergy {
		return cp - R
	}
	return cp
}

func (th *PsiThermo) mixture(yAt func(i int) float64) (cp, R float64) {
	for i, s := range th.Species.Species {
		y := yAt(i)
		cp += y * s.Cp
		R += y * s.R()
	}
	return
}

func (th *PsiThermo) cellMixture(celli int) (cp, R float64) {
	return th.mixture(func(i int) float64 { return th.Y[i].Values[celli] })
}

func (th *PsiThermo) faceMixture(patchI, facei int) (cp, R float64) {
	return th.mixture(func(i int) float64 { return th.Y[i].Boundary[patchI].Value[facei] })
}

// TofHE inverts the energy variable by Newton iteration from T0
func (th *PsiThermo) TofHE(he, T0, cp, R float64) (T float64, err error) {
	const (
		tol     = 1.e-4
		maxIter = 100
	)
	T = T0
	for it := 0; it < maxIter; it++ {
		Tnew := utils.Clip(T-(th.heOfT(cp, R, T)-he)/th.cpv(cp, R), th.TLow, th.THigh)
		if math.Abs(Tnew-T) < tol {
			return Tnew, nil
		}
		T = Tnew
	}
	err = fmt.Errorf("temperature from %s = %g did not converge in %d iterations, T = %g",
		th.Energy, he, maxIter, T)
	return
}

// HEofT returns the energy variable of cell celli at temperature T
func (th *PsiThermo) HEofT(celli int, T float64) float64 {
	cp, R := th.cellMixture(celli)
	return th.heOfT(cp, R, T)
}

// InitHE sets the energy variable from the temperature field
func (th *PsiThermo) InitHE() {
	for celli, T := range th.T.Values {
		th.HE.Values[celli] = th.HEofT(celli, T)
	}
	th.HE.CorrectBoundaryConditions()
}

/*
Correct re-derives T from the energy variable, then psi, mu and alpha in
the cells and on the patches.
*/
func (th *PsiThermo) Correct() (err error) {
	var (
		mesh = th.T.Mesh
		errs = make([]error, mesh.Partitions.ParallelDegree)
	)
	mesh.Partitions.Apply(func(kMin, kMax int) {
		bn, _, _ := mesh.Partitions.GetBucket(kMin)
		for celli := kMin; celli < kMax; celli++ {
			cp, R := th.cellMixture(celli)
			T, err := th.TofHE(th.HE.Values[celli], th.T.Values[celli], cp, R)
			if err != nil {
				errs[bn] = fmt.Errorf("cell %d: %w", celli, err)
				return
			}
			th.T.Values[celli] = T
			th.Psi.Values[celli] = 1. / (R * T)
			th.Mu.Values[celli] = th.Mu0
			th.Alpha.Values[celli] = th.Mu0 / th.Pr
		}
	})
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	th.T.CorrectBoundaryConditions()
	th.HE.CorrectBoundaryConditions()
	for p, patch := range mesh.Patches {
		for i := 0; i < patch.Size(); i++ {
			_, R := th.faceMixture(p, i)
			th.Psi.Boundary[p].Value[i] = 1. / (R * th.T.Boundary[p].Value[i])
			th.Mu.Boundary[p].Value[i] = th.Mu0
			th.Alpha.Boundary[p].Value[i] = th.Mu0 / th.Pr
		}
	}
	return
}

// UpdateRho sets rho = psi*p in the cells and on the patches
func (th *PsiThermo) UpdateRho(rho *fvm.ScalarField) {
	for i := range rho.Values {
		rho.Values[i] = th.Psi.Values[i] * th.P.Values[i]
	}
	for p, pf := range rho.Boundary {
		for i := range pf.Value {
			pf.Value[i] = th.Psi.Boundary[p].Value[i] * th.P.Boundary[p].Value[i]
		}
	}
}

func (th *PsiThermo) Rho() (rho []float64) {
	rho = make([]float64, len(th.Psi.Values))
	for i := range rho {
		rho[i] = th.Psi.Values[i] * th.P.Values[i]
	}
	return
}

func (th *PsiThermo) cellProperty(f func(cp, R float64) float64) (v []float64) {
	v = make([]float64, len(th.T.Values))
	for celli := range v {
		v[celli] = f(th.cellMixture(celli))
	}
	return
}

func (th *PsiThermo) Cp() []float64 {
	return th.cellProperty(func(cp, R float64) float64 { return cp })
}

func (th *PsiThermo) Cv() []float64 {
	return th.cellProperty(func(cp, R float64) float64 { return cp - R })
}

// Cpv is Cp for the enthalpy variable and Cv for internal energy
func (th *PsiThermo) Cpv() []float64 {
	return th.cellProperty(th.cpv)
}

// Kappa is the thermal conductivity alpha*Cp
func (th *PsiThermo) Kappa() (kappa []float64) {
	kappa = th.Cp()
	for i := range kappa {
		kappa[i] *= th.Alpha.Values[i]
	}
	return
}

// Hs returns the sensible enthalpy of specie i at T
func (th *PsiThermo) Hs(i int, T float64) float64 {
	return th.Species.Species[i].Hs(T)
}

// energyPatch carries the temperature boundary condition over to the energy variable
type energyPatch struct {
	th     *PsiThermo
	patchI int
}

func (ep *energyPatch) UpdateCoeffs(pf *fvm.PatchField, patch *fvm.Patch) {
	Tp := ep.th.T.Boundary[ep.patchI]
	for i := range pf.Value {
		cp, R := ep.th.faceMixture(ep.patchI, i)
		pf.ValueFraction[i] = Tp.ValueFraction[i]
		pf.RefValue[i] = ep.th.heOfT(cp, R, Tp.RefValue[i])
		pf.RefGrad[i] = ep.th.cpv(cp, R) * Tp.RefGrad[i]
	}
}
