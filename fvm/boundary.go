package fvm

import (
	"fmt"
	"math"
)

type BCKind uint8

const (
	FixedValueBC BCKind = iota
	ZeroGradientBC
	FixedGradientBC
	MixedBC
	CalculatedBC
	TotalFlowRateAdvectiveDiffusiveBC
)

var BCKindNames = map[string]BCKind{
	"fixedValue":                      FixedValueBC,
	"zeroGradient":                    ZeroGradientBC,
	"fixedGradient":                   FixedGradientBC,
	"mixed":                           MixedBC,
	"calculated":                      CalculatedBC,
	"totalFlowRateAdvectiveDiffusive": TotalFlowRateAdvectiveDiffusiveBC,
}

func (k BCKind) String() string {
	for name, kk := range BCKindNames {
		if kk == k {
			return name
		}
	}
	return "unknown"
}

func NewBCKind(name string) (k BCKind, err error) {
	var ok bool
	if k, ok = BCKindNames[name]; !ok {
		err = fmt.Errorf("unknown boundary condition type %q", name)
	}
	return
}

/*
PatchField holds every boundary condition in the mixed form:

	psi_b   = f*RefValue + (1-f)*(psi_P + RefGrad/delta)
	snGrad  = f*delta*(RefValue - psi_P) + (1-f)*RefGrad

A fixed value is f == 1, a gradient condition f == 0. A calculated patch
carries values assigned from outside and acts as a fixed value in equations.
*/
type PatchField struct {
	Kind          BCKind
	RefValue      []float64
	RefGrad       []float64
	ValueFraction []float64
	Value         []float64
	Updater       CoeffUpdater
}

// CoeffUpdater refreshes the mixed coefficients ahead of evaluation
type CoeffUpdater interface {
	UpdateCoeffs(pf *PatchField, patch *Patch)
}

func newPatchField(kind BCKind, n int, ref, grad, frac float64) *PatchField {
	pf := &PatchField{
		Kind:          kind,
		RefValue:      make([]float64, n),
		RefGrad:       make([]float64, n),
		ValueFraction: make([]float64, n),
		Value:         make([]float64, n),
	}
	for i := 0; i < n; i++ {
		pf.RefValue[i], pf.RefGrad[i], pf.ValueFraction[i] = ref, grad, frac
		pf.Value[i] = ref
	}
	return pf
}

func FixedValue(n int, value float64) *PatchField {
	return newPatchField(FixedValueBC, n, value, 0, 1)
}

func ZeroGradient(n int) *PatchField {
	return newPatchField(ZeroGradientBC, n, 0, 0, 0)
}

func FixedGradient(n int, grad float64) *PatchField {
	return newPatchField(FixedGradientBC, n, 0, grad, 0)
}

func Mixed(n int, refValue, refGrad, valueFraction float64) *PatchField {
	return newPatchField(MixedBC, n, refValue, refGrad, valueFraction)
}

// TotalFlowRate is a mixed patch fed by u, starting as a fixed value of the feed fraction
func TotalFlowRate(n int, u *TotalFlowRateAdvectiveDiffusive) (pf *PatchField) {
	pf = newPatchField(TotalFlowRateAdvectiveDiffusiveBC, n, u.MassFluxFraction, 0, 1)
	pf.Updater = u
	return
}

func Calculated(n int, value float64) *PatchField {
	return newPatchField(CalculatedBC, n, value, 0, 1)
}

func (pf *PatchField) Size() int { return len(pf.Value) }

func (pf *PatchField) Clone() (c *PatchField) {
	c = &PatchField{
		Kind:          pf.Kind,
		RefValue:      append([]float64{}, pf.RefValue...),
		RefGrad:       append([]float64{}, pf.RefGrad...),
		ValueFraction: append([]float64{}, pf.ValueFraction...),
		Value:         append([]float64{}, pf.Value...),
		Updater:       pf.Updater,
	}
	return
}

// Fixed reports whether every face of the patch is value constrained
func (pf *PatchField) Fixed() bool {
	for _, f := range pf.ValueFraction {
		if f < 1 {
			return false
		}
	}
	return true
}

// AssignValue sets a calculated or fixed patch to the given face values
func (pf *PatchField) AssignValue(values []float64) {
	copy(pf.RefValue, values)
	copy(pf.Value, values)
}

func (pf *PatchField) Evaluate(internal []float64, patch *Patch) {
	if pf.Updater != nil {
		pf.Updater.UpdateCoeffs(pf, patch)
	}
	for i, celli := range patch.FaceCells {
		a, b := pf.ValueCoeffs(i, patch.DeltaCoeffs[i])
		pf.Value[i] = a*internal[celli] + b
	}
}

// ValueCoeffs returns (a, b) with psi_b = a*psi_P + b
func (pf *PatchField) ValueCoeffs(i int, delta float64) (a, b float64) {
	f := pf.ValueFraction[i]
	a = 1 - f
	b = f*pf.RefValue[i] + (1-f)*pf.RefGrad[i]/delta
	return
}

// GradientCoeffs returns (c, d) with snGrad = c*psi_P + d
func (pf *PatchField) GradientCoeffs(i int, delta float64) (c, d float64) {
	f := pf.ValueFraction[i]
	c = -f * delta
	d = f*delta*pf.RefValue[i] + (1-f)*pf.RefGrad[i]
	return
}

/*
TotalFlowRateAdvectiveDiffusive fixes the total (advective plus diffusive)
specie mass flux through an inlet to MassFluxFraction of the mixture flux.
Alpha returns the face diffusivity (rho*D) on the patch.
*/
type TotalFlowRateAdvectiveDiffusive struct {
	MassFluxFraction float64
	Phi              *SurfaceField
	PatchI           int
	Alpha            func(patchI, facei int) float64
}

func (t *TotalFlowRateAdvectiveDiffusive) UpdateCoeffs(pf *PatchField, patch *Patch) {
	const small = 1.e-15
	for i := range patch.FaceCells {
		var (
			phip  = t.Phi.Boundary[t.PatchI][i]
			alpha = 0.
		)
		if t.Alpha != nil {
			alpha = t.Alpha(t.PatchI, i)
		}
		pf.ValueFraction[i] = 1. / (1. + alpha*patch.DeltaCoeffs[i]*patch.MagSf[i]/math.Max(math.Abs(phip), small))
		pf.RefValue[i] = t.MassFluxFraction
		pf.RefGrad[i] = 0
	}
}
