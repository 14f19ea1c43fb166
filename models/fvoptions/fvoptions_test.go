package fvoptions

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/types"
)

func newThermo(t *testing.T) (th *thermo.PsiThermo, rho *fvm.ScalarField) {
	var (
		mesh = fvm.NewLineMesh(5, 1., 1., types.BC_In, types.BC_Out, 1)
		Y    []*fvm.ScalarField
	)
	st, err := thermo.NewSpeciesTable([]thermo.Specie{
		{Name: "O2", W: 31.999, Cp: 918},
		{Name: "N2", W: 28.014, Cp: 1040},
	}, "N2", "")
	require.NoError(t, err)
	for i, y0 := range []float64{0.23, 0.77} {
		Y = append(Y, fvm.NewScalarField(st.Species[i].Name, types.DimLess, mesh, y0, nil))
	}
	p := fvm.NewScalarField("p", types.DimPressure, mesh, 1.e5, nil)
	T := fvm.NewScalarField("T", types.DimTemperature, mesh, 300, nil)
	th, err = thermo.NewPsiThermo(st, Y, p, T, thermo.SensibleEnthalpy, thermo.DefaultOptions)
	require.NoError(t, err)
	rho = fvm.NewScalarField("rho", types.DimDensity, mesh, 1.2, nil)
	return
}

func ptr(x float64) *float64 { return &x }

func TestSemiImplicitSource(t *testing.T) {
	th, rho := newThermo(t)
	log, _ := test.NewNullLogger()
	l, err := New([]Config{{
		Type:     "semiImplicitSource",
		XMin:     ptr(0.25),
		XMax:     ptr(0.75),
		Explicit: map[string]string{"h": "1000*rho*exp(0) + 2*x"},
		Implicit: map[string]float64{"h": -3},
	}}, th, log)
	require.NoError(t, err)
	require.Len(t, l.Options, 1)
	assert.Equal(t, []int{1, 2, 3}, l.Options[0].(*SemiImplicitSource).Cells)

	eq, err := l.Apply(rho, th.HE)
	require.NoError(t, err)
	assert.True(t, eq.HasTerm("semiImplicitSource0:Su"))
	assert.True(t, eq.HasTerm("semiImplicitSource0:Sp"))
	V := th.T.Mesh.V
	for celli, x := range []float64{0.1, 0.3, 0.5, 0.7, 0.9} {
		if celli == 0 || celli == 4 {
			assert.Equal(t, 0., eq.Source[celli])
			assert.Equal(t, 0., eq.Diag[celli])
			continue
		}
		assert.InDelta(t, -(1200+2*x)*V[celli], eq.Source[celli], 1.e-9)
		assert.InDelta(t, -3*V[celli], eq.Diag[celli], 1.e-12)
	}
	{ // Other fields are untouched
		eq, err = l.Apply(rho, th.Y[0])
		require.NoError(t, err)
		assert.Empty(t, eq.Terms())
	}
}

func TestConfigErrors(t *testing.T) {
	th, _ := newThermo(t)
	log, _ := test.NewNullLogger()
	_, err := New([]Config{{Type: "semiImplicitSource", Explicit: map[string]string{"h": "2*q"}}}, th, log)
	assert.Error(t, err)
	_, err = New([]Config{{Type: "semiImplicitSource", Explicit: map[string]string{"h": "2*("}}}, th, log)
	assert.Error(t, err)
	_, err = New([]Config{{Type: "limitTemperature", TMin: 500, TMax: 400}}, th, log)
	assert.Error(t, err)
	_, err = New([]Config{{Type: "sponge"}}, th, log)
	assert.True(t, errors.Is(err, models.ErrUnknownModel))
}

func TestFixedValueConstraint(t *testing.T) {
	th, _ := newThermo(t)
	log, hook := test.NewNullLogger()
	l, err := New([]Config{{
		Type:   "fixedValueConstraint",
		XMax:   ptr(0.2),
		Values: map[string]float64{"O2": 0.1},
	}}, th, log)
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)

	Y := th.Y[0]
	eq := fvm.Ddt(nil, Y)
	eq.Sub(fvm.Laplacian(fvm.NewSurfaceField("D", types.DimLess, Y.Mesh, 1.e-2), Y))
	l.Constrain(eq)
	_, err = eq.Solve(fvm.SolverControls{Solver: "direct", Tolerance: 1.e-12})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, Y.Values[0], 1.e-12)
	assert.Less(t, Y.Values[1], 0.23)
	assert.Greater(t, Y.Values[1], 0.1)
}

func TestLimitTemperature(t *testing.T) {
	th, _ := newThermo(t)
	log, _ := test.NewNullLogger()
	l, err := New([]Config{{Type: "limitTemperature", TMin: 250, TMax: 2000}}, th, log)
	require.NoError(t, err)
	he := th.HE
	he.Values[0] = th.HEofT(0, 100)
	he.Values[2] = th.HEofT(2, 3000)
	h1 := he.Values[1]
	require.NoError(t, l.Correct(he))
	assert.InDelta(t, th.HEofT(0, 250), he.Values[0], 1.e-9)
	assert.InDelta(t, th.HEofT(2, 2000), he.Values[2], 1.e-9)
	assert.Equal(t, h1, he.Values[1])
	require.NoError(t, th.Correct())
	assert.InDelta(t, 250, th.T.Values[0], 1.e-3)
	assert.InDelta(t, 2000, th.T.Values[2], 1.e-3)
	// Species are not limited
	require.NoError(t, l.Correct(th.Y[0]))
}
