package ReactingFlow

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/InputParameters"
	"github.com/notargets/gocombust/fvc"
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models/combustion"
	"github.com/notargets/gocombust/models/fvoptions"
	"github.com/notargets/gocombust/models/radiation"
	"github.com/notargets/gocombust/models/transport"
	"github.com/notargets/gocombust/models/turbulence"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/types"
)

/*
Case is the context of a run: it owns the mesh, the registered fields, the
species table and the collaborators, and every solver stage reads and writes
through it.
*/
type Case struct {
	Title           string
	RunID           uuid.UUID
	Mesh            *fvm.Mesh
	Fields          *FieldTable
	Species         *thermo.SpeciesTable
	Thermo          *thermo.PsiThermo
	Y               []*fvm.ScalarField
	U               *fvm.VectorField
	Phi             *fvm.SurfaceField
	Rho, K, Dpdt    *fvm.ScalarField
	DQ, DQrad, Ft   *fvm.ScalarField // Diagnostics, Ft is nil without a mixture fraction
	Combustion      Combustion
	Radiation       Radiation
	Transport       Transport
	FvOptions       FvOptions
	MoleFractions   MoleFractions
	Turbulence      Turbulence
	Pimple          *PimpleControl
	Solution        Solution
	LowMach         bool
	Gravity         [3]float64
	TimeControls    InputParameters.TimeControls
	MixtureFraction InputParameters.MixtureFraction
	Writer          *Writer // nil disables checkpoints
	Metrics         Recorder
	// Species stoichiometry for the mixture fraction
	stoichS           float64
	oxIndex           int
	cumulativeContErr float64
	startClock        time.Time
	executionTime     time.Duration
	log               logrus.FieldLogger
}

func NewCase(ip *InputParameters.CaseParameters, parallelDegree int, log logrus.FieldLogger) (c *Case, err error) {
	if err = ip.Validate(); err != nil {
		return
	}
	var (
		left, right types.BCFLAG
		energy      thermo.EnergyVariable
		st          *thermo.SpeciesTable
	)
	if left, err = types.NewBCFLAG(ip.Mesh.Left); err != nil {
		return
	}
	if right, err = types.NewBCFLAG(ip.Mesh.Right); err != nil {
		return
	}
	if energy, err = thermo.NewEnergyVariable(ip.Energy); err != nil {
		return
	}
	if st, err = thermo.NewSpeciesTable(ip.Species, ip.InertSpecie, ip.Fuel); err != nil {
		err = fmt.Errorf("species: %w", err)
		return
	}
	mesh := fvm.NewLineMesh(ip.Mesh.NCells, ip.Mesh.Length, ip.Mesh.Area, left, right, parallelDegree)
	mesh.Time.DeltaT, mesh.Time.DeltaT0 = ip.Time.DeltaT, ip.Time.DeltaT
	c = &Case{
		Title:           ip.Title,
		RunID:           uuid.New(),
		Mesh:            mesh,
		Fields:          NewFieldTable(),
		Species:         st,
		Pimple:          NewPimpleControl(ip.Pimple),
		Solution:        Solution{Solvers: ip.Solvers, Relaxation: ip.Relaxation},
		LowMach:         ip.LowMach,
		Gravity:         ip.Gravity,
		TimeControls:    ip.Time,
		MixtureFraction: ip.MixtureFraction,
		Metrics:         nullRecorder{},
		oxIndex:         -1,
		startClock:      time.Now(),
		log:             log,
	}
	c.log = log.WithField("run", c.RunID.String())
	var (
		p, T *fvm.ScalarField
		X    *thermo.MoleFraction
		tm   *transport.Model
		turb turbulence.Model
	)
	c.U = fvm.NewVectorField("U", types.DimVelocity, mesh, ip.Initial.U, c.velocityBCs(ip))
	c.Phi = fvm.NewSurfaceField("phi", types.DimMassFlux, mesh, 0)
	if c.Y, err = c.specieFields(ip, func(i, patchI, facei int) float64 {
		if tm == nil {
			return 0
		}
		return tm.PatchRhoD(i, patchI, facei)
	}); err != nil {
		return
	}
	p = fvm.NewScalarField("p", types.DimPressure, mesh, ip.Initial.P,
		c.scalarBCs(ip, types.BC_Out, func(pv InputParameters.PatchValues) *float64 { return pv.P }, ip.Initial.P))
	T = fvm.NewScalarField("T", types.DimTemperature, mesh, ip.Initial.T,
		c.scalarBCs(ip, types.BC_In, func(pv InputParameters.PatchValues) *float64 { return pv.T }, ip.Initial.T))
	if c.Thermo, err = thermo.NewPsiThermo(st, c.Y, p, T, energy, ip.Thermo); err != nil {
		return
	}
	c.Rho = fvm.NewScalarField("rho", types.DimDensity, mesh, 0, calculatedBCs(mesh))
	c.Thermo.UpdateRho(c.Rho)
	c.updatePhi()
	c.K = fvm.NewScalarField("K", types.DimSpecificE, mesh, 0, calculatedBCs(mesh))
	c.updateK()
	c.Dpdt = fvm.NewScalarField("dpdt", types.DimPressureRate, mesh, 0, calculatedBCs(mesh))
	c.DQ = fvm.NewScalarField("dQ", types.DimPowerDensity, mesh, 0, calculatedBCs(mesh))
	c.DQrad = fvm.NewScalarField("dQrad", types.DimPowerDensity, mesh, 0, calculatedBCs(mesh))

	X = thermo.NewMoleFraction(st, c.Y)
	c.MoleFractions = X
	if turb, err = turbulence.New(ip.Turbulence, c.Rho, c.U, log); err != nil {
		return
	}
	c.Turbulence = turb
	if tm, err = transport.New(ip.Transport, c.Thermo, X.X, c.Rho, turb, log); err != nil {
		return
	}
	c.Transport = tm
	for _, Y := range c.Y {
		Y.CorrectBoundaryConditions()
	}
	var comb combustion.Model
	if comb, err = combustion.New(ip.Combustion, st, c.Y, c.Rho, T, log); err != nil {
		return
	}
	c.Combustion = comb
	if c.Radiation, err = radiation.New(ip.Radiation, st, X.X, p, T, log); err != nil {
		return
	}
	if c.FvOptions, err = fvoptions.New(ip.FvOptions, c.Thermo, log); err != nil {
		return
	}
	if ss, ok := comb.(*combustion.SingleStep); ok && ip.MixtureFraction.YFInf > 0 {
		c.stoichS, c.oxIndex = ss.S, ss.Ox
		c.Ft = fvm.NewScalarField("ft", types.DimLess, mesh, 0, calculatedBCs(mesh))
		c.updateMixtureFraction()
	}

	for _, f := range []*fvm.ScalarField{c.Rho, p, T, c.Thermo.HE} {
		if err = c.Fields.Register(f); err != nil {
			return
		}
	}
	if err = c.Fields.RegisterVector(c.U); err != nil {
		return
	}
	if err = c.Fields.Register(c.Y...); err != nil {
		return
	}
	if err = c.Fields.Register(X.X...); err != nil {
		return
	}
	if err = c.Fields.Register(c.K, c.Dpdt, c.DQ, c.DQrad); err != nil {
		return
	}
	if c.Ft != nil {
		err = c.Fields.Register(c.Ft)
	}
	return
}

func calculatedBCs(mesh *fvm.Mesh) (bcs []*fvm.PatchField) {
	for _, patch := range mesh.Patches {
		bcs = append(bcs, fvm.Calculated(patch.Size(), 0))
	}
	return
}

func patchValues(ip *InputParameters.CaseParameters, patch *fvm.Patch) InputParameters.PatchValues {
	return ip.Boundary[patch.Name]
}

/*
scalarBCs fixes the value on patches of type fixedOn, and on any patch with
a given value, at that value or the initial one. Every other patch is
zeroGradient.
*/
func (c *Case) scalarBCs(ip *InputParameters.CaseParameters, fixedOn types.BCFLAG,
	value func(pv InputParameters.PatchValues) *float64, init float64) (bcs []*fvm.PatchField) {
	for _, patch := range c.Mesh.Patches {
		v := value(patchValues(ip, patch))
		switch {
		case v != nil:
			bcs = append(bcs, fvm.FixedValue(patch.Size(), *v))
		case patch.Type == fixedOn:
			bcs = append(bcs, fvm.FixedValue(patch.Size(), init))
		default:
			bcs = append(bcs, fvm.ZeroGradient(patch.Size()))
		}
	}
	return
}

// velocityBCs are fixed on inlets (initial U unless given) and walls (zero unless given)
func (c *Case) velocityBCs(ip *InputParameters.CaseParameters) (bcs [3][]*fvm.PatchField) {
	for _, patch := range c.Mesh.Patches {
		var (
			pv    = patchValues(ip, patch)
			U     = ip.Initial.U
			fixed = true
		)
		switch {
		case pv.U != nil:
			U = *pv.U
		case patch.Type == types.BC_Wall:
			U = [3]float64{}
		case patch.Type != types.BC_In:
			fixed = false
		}
		for d := 0; d < 3; d++ {
			if fixed {
				bcs[d] = append(bcs[d], fvm.FixedValue(patch.Size(), U[d]))
			} else {
				bcs[d] = append(bcs[d], fvm.ZeroGradient(patch.Size()))
			}
		}
	}
	return
}

/*
specieFields builds the mass fractions. The inert takes whatever the others
leave and carries calculated patches; inlets with given fractions fix the
total specie flux there.
*/
func (c *Case) specieFields(ip *InputParameters.CaseParameters, rhoD func(i, patchI, facei int) float64) (Y []*fvm.ScalarField, err error) {
	var (
		st   = c.Species
		mesh = c.Mesh
		y0   = make([]float64, st.Len())
		sum  float64
	)
	for name := range ip.Initial.Y {
		if _, ok := st.Index(name); !ok {
			return nil, fmt.Errorf("initial fraction of %s: %w", name, ErrMissingSpecie)
		}
	}
	for i, s := range st.Species {
		if i == st.Inert || s.Inactive {
			continue
		}
		y0[i] = ip.Initial.Y[s.Name]
		sum += y0[i]
	}
	y0[st.Inert] = 1 - sum
	if y0[st.Inert] < 0 {
		return nil, fmt.Errorf("initial fractions sum to %g > 1", sum)
	}
	for i, s := range st.Species {
		var bcs []*fvm.PatchField
		for p, patch := range mesh.Patches {
			fractions := patchValues(ip, patch).Y
			frac, given := fractions[s.Name]
			switch {
			case i == st.Inert:
				bcs = append(bcs, fvm.Calculated(patch.Size(), y0[i]))
			case s.Inactive:
				bcs = append(bcs, fvm.FixedValue(patch.Size(), 0))
			case patch.Type == types.BC_In && fractions != nil:
				specie := i
				bcs = append(bcs, fvm.TotalFlowRate(patch.Size(), &fvm.TotalFlowRateAdvectiveDiffusive{
					MassFluxFraction: frac,
					Phi:              c.Phi,
					PatchI:           p,
					Alpha:            func(patchI, facei int) float64 { return rhoD(specie, patchI, facei) },
				}))
			case given:
				bcs = append(bcs, fvm.FixedValue(patch.Size(), frac))
			default:
				bcs = append(bcs, fvm.ZeroGradient(patch.Size()))
			}
		}
		Y = append(Y, fvm.NewScalarField(s.Name, types.DimLess, mesh, y0[i], bcs))
	}
	return
}

// updatePhi sets the mass flux interpolate(rho)*(Sf & U)
func (c *Case) updatePhi() {
	c.Phi.Assign(fvc.Flux(c.U).Combine("phi", fvc.Interpolate(c.Rho),
		func(flux, rho float64) float64 { return flux * rho }))
}

// updateK sets K = |U|^2/2 in the cells and on the patches
func (c *Case) updateK() {
	for i, m := range c.U.MagSqr() {
		c.K.Values[i] = 0.5 * m
	}
	for p, pf := range c.K.Boundary {
		for i := range pf.Value {
			Ub := c.U.BoundaryAt(p, i)
			pf.Value[i] = 0.5 * fvm.Dot(Ub, Ub)
		}
	}
}

// updateMixtureFraction is ft = (Yfuel - Yox/s + YO2Inf/s)/(YFInf + YO2Inf/s)
func (c *Case) updateMixtureFraction() {
	var (
		mf    = c.MixtureFraction
		s     = c.stoichS
		fu    = c.Y[c.Species.Fuel]
		ox    = c.Y[c.oxIndex]
		denom = mf.YFInf + mf.YO2Inf/s
	)
	for i := range c.Ft.Values {
		c.Ft.Values[i] = (fu.Values[i] - ox.Values[i]/s + mf.YO2Inf/s) / denom
	}
	for p, pf := range c.Ft.Boundary {
		for i := range pf.Value {
			pf.Value[i] = (fu.Boundary[p].Value[i] - ox.Boundary[p].Value[i]/s + mf.YO2Inf/s) / denom
		}
	}
}

func (c *Case) reportBounds(name string, f *fvm.ScalarField) (mn, ave, mx float64) {
	mn, ave, mx = math.Inf(1), f.Average(), math.Inf(-1)
	for _, v := range f.Values {
		mn, mx = math.Min(mn, v), math.Max(mx, v)
	}
	c.log.WithFields(logrus.Fields{"min": mn, "ave": ave, "max": mx}).Infof("%8s min/ave/max", name)
	return
}
