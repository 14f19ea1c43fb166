package ReactingFlow

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocombust/InputParameters"
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/thermo"
)

const boxCase = `
Title: "closed box"
Mesh:
  NCells: 8
  Length: 0.08
  Left: wall
  Right: wall
Species:
  - {name: CH4, W: 16.043, Cp: 2226, sigma: 3.746, epsilonByK: 141.4}
  - {name: O2, W: 31.999, Cp: 918, sigma: 3.458, epsilonByK: 107.4}
  - {name: N2, W: 28.014, Cp: 1040, sigma: 3.621, epsilonByK: 97.53}
inertSpecie: N2
fuel: CH4
energy: %s
LowMach: %v
initial:
  U: [0, 0, 0]
  T: 300
  p: 100000
  massFractions: {CH4: 0.05, O2: 0.2}
PIMPLE:
  nOuterCorrectors: 3
  nCorrectors: 2
time:
  deltaT: 1.0e-4
  endTime: 3.0e-4
`

func newBoxParameters(t *testing.T, energy string, lowMach bool) (ip *InputParameters.CaseParameters) {
	ip = &InputParameters.CaseParameters{}
	require.NoError(t, ip.Parse([]byte(fmt.Sprintf(boxCase, energy, lowMach))))
	return
}

func newBox(t *testing.T, energy string, lowMach bool) (c *Case, hook *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	c, err := NewCase(newBoxParameters(t, energy, lowMach), 2, log)
	require.NoError(t, err)
	return
}

type countingRecorder struct {
	nullRecorder
	outer, steps int
	solves       []string
}

func (cr *countingRecorder) OuterIteration() { cr.outer++ }
func (cr *countingRecorder) LinearSolve(perf fvm.SolverPerformance) {
	cr.solves = append(cr.solves, perf.FieldName)
}
func (cr *countingRecorder) Step(float64, time.Duration) { cr.steps++ }

// The fakes append their calls to a shared trace
type fakeCombustion struct {
	trace *[]string
	err   error
	q     map[int]float64 // Explicit reaction rate per specie
}

func (fc *fakeCombustion) Correct() error {
	*fc.trace = append(*fc.trace, "combustion.Correct")
	return fc.err
}

func (fc *fakeCombustion) R(i int, Yi *fvm.ScalarField) *fvm.Matrix {
	*fc.trace = append(*fc.trace, "R("+Yi.Name+")")
	m := fvm.NewMatrix(Yi)
	if q, ok := fc.q[i]; ok {
		rate := make([]float64, len(Yi.Values))
		for celli := range rate {
			rate[celli] = q
		}
		m.AddExplicit("R", rate)
	}
	return m
}

func (fc *fakeCombustion) Sh() []float64 { return make([]float64, 8) }

type fakeRadiation struct {
	trace *[]string
}

func (fr *fakeRadiation) Correct() error {
	*fr.trace = append(*fr.trace, "radiation.Correct")
	return nil
}
func (fr *fakeRadiation) Ru() []float64 { return make([]float64, 8) }
func (fr *fakeRadiation) Rp() []float64 { return make([]float64, 8) }
func (fr *fakeRadiation) Sh(th *thermo.PsiThermo, he *fvm.ScalarField) *fvm.Matrix {
	*fr.trace = append(*fr.trace, "radiation.Sh")
	return fvm.NewMatrix(he)
}

func TestNewCase(t *testing.T) {
	{ // Fields, in registration order, and the inert closure of the initial state
		c, _ := newBox(t, "h", false)
		names := c.Fields.Names()
		assert.Equal(t, []string{"rho", "p", "T", "h", "Ux", "Uy", "Uz"}, names[:7])
		assert.Contains(t, names, "dQrad")
		assert.Nil(t, c.Ft)
		N2 := c.Fields.MustLookup("N2")
		assert.InDelta(t, 0.75, N2.Values[3], 1.e-12)
		assert.Equal(t, fvm.CalculatedBC, N2.Boundary[0].Kind)
		assert.InDelta(t, 1.e5/(c.Thermo.T.Values[0]*rMix(c)), c.Rho.Values[0], 1.e-9)
	}
	{ // A missing inert specie fails before any field is built
		ip := newBoxParameters(t, "h", false)
		ip.InertSpecie = "Ar"
		log, _ := test.NewNullLogger()
		_, err := NewCase(ip, 1, log)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingSpecie))
	}
	{ // So does an initial fraction of an unknown specie
		ip := newBoxParameters(t, "h", false)
		ip.Initial.Y["H2"] = 0.01
		log, _ := test.NewNullLogger()
		_, err := NewCase(ip, 1, log)
		assert.True(t, errors.Is(err, ErrMissingSpecie))
	}
	{ // Inlet species carry the total flow rate condition, the inert stays calculated
		ip := newBoxParameters(t, "h", false)
		ip.Mesh.Left, ip.Mesh.Right = "inlet", "outlet"
		ip.Initial.U = [3]float64{0.1, 0, 0}
		ip.Boundary = map[string]InputParameters.PatchValues{"left": {Y: map[string]float64{"CH4": 0.1, "O2": 0.2}}}
		log, _ := test.NewNullLogger()
		c, err := NewCase(ip, 1, log)
		require.NoError(t, err)
		for _, name := range []string{"CH4", "O2"} {
			Y := c.Fields.MustLookup(name)
			assert.Equal(t, fvm.TotalFlowRateAdvectiveDiffusiveBC, Y.Boundary[0].Kind, name)
			assert.Equal(t, fvm.ZeroGradientBC, Y.Boundary[1].Kind, name)
		}
		assert.Equal(t, fvm.CalculatedBC, c.Fields.MustLookup("N2").Boundary[0].Kind)
	}
	{ // And an unknown model
		ip := newBoxParameters(t, "h", false)
		ip.Combustion.Model = "eddyBreakUp"
		log, _ := test.NewNullLogger()
		_, err := NewCase(ip, 1, log)
		assert.True(t, errors.Is(err, ErrUnknownModel))
	}
}

// rMix is the mixture gas constant of cell 0
func rMix(c *Case) (R float64) {
	for i, s := range c.Species.Species {
		R += c.Y[i].Values[0] / s.W
	}
	return R * thermo.RUniversal
}

func TestClosure(t *testing.T) {
	c, _ := newBox(t, "h", false)
	Yt := make([]float64, c.Mesh.NCells)
	for i := range Yt {
		Yt[i] = 0.25
	}
	Yt[0] = 0.3 + 0.55
	Yt[1] = 1.2
	c.Closure(Yt)
	N2 := c.Y[c.Species.Inert]
	assert.InDelta(t, 0.15, N2.Values[0], 1.e-12)
	assert.Equal(t, 0., N2.Values[1])
	assert.InDelta(t, 0.75, N2.Values[5], 1.e-12)
	// Patches close on the other species' patch values
	for p := range N2.Boundary {
		assert.InDelta(t, 0.75, N2.Boundary[p].Value[0], 1.e-12)
	}
}

func TestSolveSpeciesClipsAtZero(t *testing.T) {
	c, _ := newBox(t, "h", false)
	var trace []string
	c.Combustion = &fakeCombustion{trace: &trace, q: map[int]float64{0: -1.e6}}
	Yt, err := c.SolveSpecies()
	require.NoError(t, err)
	for _, Y := range c.Y {
		for _, y := range Y.Values {
			assert.GreaterOrEqual(t, y, 0.)
		}
	}
	// The inert is neither solved nor summed
	assert.Equal(t, []string{"R(CH4)", "R(O2)"}, trace)
	assert.InDelta(t, 0.2, Yt[4], 1.e-9)
}

func TestStepConservesClosedBox(t *testing.T) {
	c, _ := newBox(t, "h", false)
	var (
		rec   = &countingRecorder{}
		mass0 = c.Rho.VolIntegrate()
	)
	c.Metrics = rec
	require.NoError(t, c.Step())
	assert.InDelta(t, 1.e-4, c.Mesh.Time.Value, 1.e-15)
	for i, y0 := range []float64{0.05, 0.2, 0.75} {
		for _, y := range c.Y[i].Values {
			assert.InDelta(t, y0, y, 1.e-9)
		}
	}
	for _, T := range c.Thermo.T.Values {
		assert.InDelta(t, 300, T, 1.e-6)
	}
	assert.InDelta(t, mass0, c.Rho.VolIntegrate(), 1.e-9*mass0)
	assert.Equal(t, 3, rec.outer)
	assert.Equal(t, 1, rec.steps)
}

// specieMass is the integral of rho*Yi over the mesh
func specieMass(c *Case, i int) (m float64) {
	for celli, y := range c.Y[i].Values {
		m += c.Rho.Values[celli] * y * c.Mesh.V[celli]
	}
	return
}

func TestStepConservesNonUniformBox(t *testing.T) {
	c, _ := newBox(t, "h", false)
	// Fuel in the left half only, the inert closes the composition
	for celli := range c.Y[0].Values {
		if celli < c.Mesh.NCells/2 {
			c.Y[0].Values[celli] = 0.1
		} else {
			c.Y[0].Values[celli] = 0
		}
		c.Y[2].Values[celli] = 1 - c.Y[0].Values[celli] - c.Y[1].Values[celli]
	}
	for _, Y := range c.Y {
		Y.CorrectBoundaryConditions()
	}
	c.Thermo.InitHE()
	require.NoError(t, c.Thermo.Correct())
	c.Thermo.UpdateRho(c.Rho)
	require.NoError(t, c.MoleFractions.Update())
	var (
		mass0 = c.Rho.VolIntegrate()
		Y0    = make([]float64, len(c.Y))
		left  = c.Y[0].Values[3]
		right = c.Y[0].Values[4]
	)
	for i := range c.Y {
		Y0[i] = specieMass(c, i)
	}
	for step := 0; step < 3; step++ {
		require.NoError(t, c.Step())
	}
	assert.InDelta(t, mass0, c.Rho.VolIntegrate(), 1.e-7*mass0)
	for i, Y := range c.Y {
		assert.InEpsilon(t, Y0[i], specieMass(c, i), 1.e-5, Y.Name)
	}
	for celli := range c.Y[0].Values {
		sum := 0.
		for _, Y := range c.Y {
			assert.GreaterOrEqual(t, Y.Values[celli], 0.)
			sum += Y.Values[celli]
		}
		assert.InDelta(t, 1., sum, 1.e-12)
		assert.InDelta(t, 300., c.Thermo.T.Values[celli], 1.)
	}
	// The fuel diffused across the step
	assert.Less(t, c.Y[0].Values[3], left)
	assert.Greater(t, c.Y[0].Values[4], right)
}

func TestRepeatedClosedBoxSteps(t *testing.T) {
	// The quiescent box solves its pressure system to round off on every
	// corrector; assembly order varies between runs
	for run := 0; run < 10; run++ {
		c, _ := newBox(t, "h", false)
		for step := 0; step < 3; step++ {
			require.NoError(t, c.Step(), "run %d step %d", run, step)
		}
		for _, p := range c.Thermo.P.Values {
			assert.InDelta(t, 1.e5, p, 1.e-3)
		}
	}
}

func TestInitialCompositionClosure(t *testing.T) {
	newCase := func() (c *Case) {
		ip := newBoxParameters(t, "h", false)
		ip.Initial.Y = map[string]float64{"CH4": 0.3, "O2": 0.55}
		log, _ := test.NewNullLogger()
		c, err := NewCase(ip, 1, log)
		require.NoError(t, err)
		return
	}
	{ // Transport of a uniform state keeps the inert at the remainder
		c := newCase()
		N2 := c.Y[c.Species.Inert]
		assert.InDelta(t, 0.15, N2.Values[0], 1.e-12)
		Yt, err := c.SolveSpecies()
		require.NoError(t, err)
		c.Closure(Yt)
		for celli, y := range N2.Values {
			assert.InDelta(t, 0.15, y, 1.e-9)
			assert.InDelta(t, 0.85, Yt[celli], 1.e-9)
		}
	}
	{ // Produced oxygen pushes the solved sum past 1 and the inert clips at zero
		c := newCase()
		var trace []string
		c.Combustion = &fakeCombustion{trace: &trace, q: map[int]float64{1: 1.e4}}
		Yt, err := c.SolveSpecies()
		require.NoError(t, err)
		c.Closure(Yt)
		for celli, y := range c.Y[c.Species.Inert].Values {
			assert.Greater(t, Yt[celli], 1.)
			assert.Equal(t, 0., y)
		}
		for _, pf := range c.Y[c.Species.Inert].Boundary {
			assert.GreaterOrEqual(t, pf.Value[0], 0.)
		}
	}
}

func TestOuterLoop(t *testing.T) {
	{ // Without residual control every outer corrector runs
		c, _ := newBox(t, "h", false)
		rec := &countingRecorder{}
		c.Metrics = rec
		require.NoError(t, c.Step())
		require.NoError(t, c.Step())
		assert.Equal(t, 6, rec.outer)
		// Per pass: two species, energy, two pressure correctors
		assert.Equal(t, []string{"CH4", "O2", "h", "p", "p"}, rec.solves[:5])
	}
	{ // A satisfied residual control makes the next pass the final one
		ip := newBoxParameters(t, "h", false)
		ip.Pimple.NOuterCorrectors = 5
		ip.Pimple.ResidualControl = map[string]InputParameters.ResidualControl{"p": {Tolerance: 1}}
		log, _ := test.NewNullLogger()
		c, err := NewCase(ip, 1, log)
		require.NoError(t, err)
		rec := &countingRecorder{}
		c.Metrics = rec
		require.NoError(t, c.Step())
		assert.Equal(t, 2, rec.outer)
	}
	{ // A single corrector is a single pass
		ip := newBoxParameters(t, "h", false)
		ip.Pimple.NOuterCorrectors = 1
		log, _ := test.NewNullLogger()
		c, err := NewCase(ip, 1, log)
		require.NoError(t, err)
		rec := &countingRecorder{}
		c.Metrics = rec
		require.NoError(t, c.Step())
		assert.Equal(t, 1, rec.outer)
	}
}

func TestCallOrder(t *testing.T) {
	c, _ := newBox(t, "h", false)
	var trace []string
	c.Combustion = &fakeCombustion{trace: &trace}
	c.Radiation = &fakeRadiation{trace: &trace}
	require.NoError(t, c.Step())
	// Sources are corrected on the first pass only, species come before the energy assembly
	first := []string{"combustion.Correct", "R(CH4)", "R(O2)", "radiation.Correct", "radiation.Sh"}
	later := []string{"R(CH4)", "R(O2)", "radiation.Sh"}
	assert.Equal(t, append(append(first, later...), later...), trace)
}

func TestCollaboratorErrorAbortsStep(t *testing.T) {
	c, _ := newBox(t, "h", false)
	var (
		trace []string
		boom  = errors.New("boom")
	)
	c.Combustion = &fakeCombustion{trace: &trace, err: boom}
	err := c.Step()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCollaborator))
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, []string{"combustion.Correct"}, trace)
}

func TestEnergyEquationTerms(t *testing.T) {
	{ // Enthalpy keeps dpdt
		c, _ := newBox(t, "h", false)
		eq, err := c.EnergyEquation()
		require.NoError(t, err)
		assert.True(t, eq.HasTerm("dpdt"))
		assert.True(t, eq.HasTerm("Hconduction"))
		assert.True(t, eq.HasTerm("ddt(rho,K)"))
		assert.False(t, eq.HasTerm("div(phiv,p)"))
	}
	{ // Internal energy carries the pressure work instead
		c, _ := newBox(t, "e", false)
		eq, err := c.EnergyEquation()
		require.NoError(t, err)
		assert.Equal(t, "e", c.Thermo.HE.Name)
		assert.True(t, eq.HasTerm("div(phiv,p)"))
		assert.True(t, eq.HasTerm("Econduction"))
		assert.False(t, eq.HasTerm("dpdt"))
	}
	{ // Low Mach number drops the kinetic energy and dpdt
		c, _ := newBox(t, "h", true)
		eq, err := c.EnergyEquation()
		require.NoError(t, err)
		assert.False(t, eq.HasTerm("dpdt"))
		assert.False(t, eq.HasTerm("ddt(rho,K)"))
		assert.False(t, eq.HasTerm("div(phi,K)"))
		assert.True(t, eq.HasTerm("Sh"))
	}
}

func TestSolveWritesCheckpoints(t *testing.T) {
	c, _ := newBox(t, "h", false)
	dir := t.TempDir()
	c.Writer = NewWriter(dir, c.TimeControls.WriteInterval/3)
	require.NoError(t, c.Solve())
	assert.Equal(t, 3, c.Mesh.Time.Index)
	for _, tn := range []string{"0", "0.0001", "0.0002", "0.0003"} {
		assert.FileExists(t, filepath.Join(dir, tn, CheckpointFile))
	}
	cp, err := ReadCheckpoint(filepath.Join(dir, "0.0003", CheckpointFile))
	require.NoError(t, err)
	assert.Equal(t, c.RunID.String(), cp.RunID)
	assert.Equal(t, 3, cp.Index)
	require.Len(t, cp.Fields, len(c.Fields.Names()))
	for i, name := range c.Fields.Names() {
		assert.Equal(t, name, cp.Fields[i].Name)
		assert.Equal(t, c.Fields.MustLookup(name).Values, cp.Fields[i].Values)
	}
}

func TestWriterDue(t *testing.T) {
	w := NewWriter("unused", 0.1)
	assert.False(t, w.Due(0.05, 0.05))
	assert.True(t, w.Due(0.1, 0.05))
	assert.False(t, w.Due(0.15, 0.05))
	assert.True(t, w.Due(0.2-1.e-12, 0.05))
	assert.Equal(t, "0.0003", TimeName(1.e-4+1.e-4+1.e-4))
}

func TestFieldTable(t *testing.T) {
	c, _ := newBox(t, "h", false)
	ft := NewFieldTable()
	require.NoError(t, ft.Register(c.Rho))
	assert.Error(t, ft.Register(c.Rho))
	require.NoError(t, ft.RegisterVector(c.U))
	names := ft.Names()
	assert.Equal(t, []string{"rho", "Ux", "Uy", "Uz"}, names)
	names[0] = "changed"
	assert.Equal(t, "rho", ft.Names()[0])
	_, ok := ft.Lookup("p")
	assert.False(t, ok)
	assert.Panics(t, func() { ft.MustLookup("p") })
}

func TestCourantNumber(t *testing.T) {
	c, _ := newBox(t, "h", false)
	mean, mx := c.CourantNumber()
	assert.Equal(t, 0., mean)
	assert.Equal(t, 0., mx)
	c.Phi.Internal[3] = c.Rho.Values[3] * c.Mesh.V[3] / c.Mesh.Time.DeltaT
	_, mx = c.CourantNumber()
	assert.InDelta(t, 0.5, mx, 1.e-9)
}
