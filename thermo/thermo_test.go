package thermo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/types"
)

func testSpecies() []Specie {
	return []Specie{
		{Name: "CH4", W: 16.043, Cp: 2226, Sigma: 3.746, EpsilonByK: 141.4},
		{Name: "O2", W: 31.999, Cp: 918, Sigma: 3.458, EpsilonByK: 107.4},
		{Name: "N2", W: 28.014, Cp: 1040, Sigma: 3.621, EpsilonByK: 97.53},
	}
}

func testThermo(t *testing.T, energy EnergyVariable) (th *PsiThermo) {
	var (
		mesh = fvm.NewLineMesh(5, 1., 1., types.BC_In, types.BC_Out, 2)
		Y    []*fvm.ScalarField
		err  error
	)
	st, err := NewSpeciesTable(testSpecies(), "N2", "CH4")
	require.NoError(t, err)
	for i, y0 := range []float64{0.05, 0.22, 0.73} {
		Y = append(Y, fvm.NewScalarField(st.Species[i].Name, types.DimLess, mesh, y0, nil))
	}
	p := fvm.NewScalarField("p", types.DimPressure, mesh, 1.e5, nil)
	T := fvm.NewScalarField("T", types.DimTemperature, mesh, 300,
		[]*fvm.PatchField{fvm.FixedValue(1, 400), nil})
	th, err = NewPsiThermo(st, Y, p, T, energy, DefaultOptions)
	require.NoError(t, err)
	return
}

func TestSpeciesTable(t *testing.T) {
	st, err := NewSpeciesTable(testSpecies(), "N2", "")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Inert)
	assert.Equal(t, -1, st.Fuel)
	assert.Equal(t, []string{"CH4", "O2", "N2"}, st.Names())
	i, ok := st.Index("O2")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	assert.True(t, st.Solved(0))
	assert.False(t, st.Solved(2))
	assert.Panics(t, func() { st.MustIndex("Ar") })
	{
		_, err = NewSpeciesTable(testSpecies(), "Ar", "")
		assert.True(t, errors.Is(err, ErrMissingSpecie))
		_, err = NewSpeciesTable(testSpecies(), "N2", "C3H8")
		assert.True(t, errors.Is(err, ErrMissingSpecie))
	}
	{
		sp := testSpecies()
		sp[0].Inactive = true
		st, err = NewSpeciesTable(sp, "N2", "CH4")
		require.NoError(t, err)
		assert.False(t, st.Solved(0))
		sp[2].Inactive = true
		_, err = NewSpeciesTable(sp, "N2", "CH4")
		assert.Error(t, err)
	}
	{
		sp := append(testSpecies(), Specie{Name: "O2", W: 32, Cp: 900})
		_, err = NewSpeciesTable(sp, "N2", "")
		assert.Error(t, err)
	}
}

func TestEnergyInversion(t *testing.T) {
	for _, energy := range []EnergyVariable{SensibleEnthalpy, SensibleInternalEnergy} {
		th := testThermo(t, energy)
		// Set he from a temperature profile, perturb T and recover it
		for celli := range th.T.Values {
			th.HE.Values[celli] = th.HEofT(celli, 300+100*float64(celli))
			th.T.Values[celli] = 1000
		}
		require.NoError(t, th.Correct())
		for celli, T := range th.T.Values {
			assert.InDelta(t, 300+100*float64(celli), T, 1.e-6, energy.String())
		}
		// Fixed temperature inlet carries over to the energy variable
		assert.Equal(t, 400., th.T.Boundary[0].Value[0])
		cp, R := th.faceMixture(0, 0)
		assert.InDelta(t, th.heOfT(cp, R, 400), th.HE.Boundary[0].Value[0], 1.e-9)
		// Outlet is zero gradient in both
		assert.InDelta(t, th.HE.Values[4], th.HE.Boundary[1].Value[0], 1.e-9)
		assert.InDelta(t, th.T.Values[4], th.T.Boundary[1].Value[0], 1.e-9)
	}
	{ // The e formulation sits R*T below h at the same state
		h, e := testThermo(t, SensibleEnthalpy), testThermo(t, SensibleInternalEnergy)
		_, R := h.cellMixture(0)
		assert.InDelta(t, h.HE.Values[0]-R*300, e.HE.Values[0], 1.e-9)
		assert.InDelta(t, h.Cp()[0]-R, e.Cpv()[0], 1.e-12)
		assert.Equal(t, h.Cp(), h.Cpv())
		assert.Equal(t, h.Cv(), e.Cpv())
	}
}

func TestEquationOfState(t *testing.T) {
	th := testThermo(t, SensibleEnthalpy)
	_, R := th.cellMixture(0)
	rho := th.Rho()
	assert.InDelta(t, 1.e5/(R*300), rho[0], 1.e-9)
	field := fvm.NewScalarField("rho", types.DimDensity, th.T.Mesh, 0,
		[]*fvm.PatchField{fvm.Calculated(1, 0), fvm.Calculated(1, 0)})
	th.UpdateRho(field)
	assert.Equal(t, rho, field.Values)
	assert.InDelta(t, 1.e5/(R*400), field.Boundary[0].Value[0], 1.e-9)
	assert.InDelta(t, th.Mu0/th.Pr*th.Cp()[0], th.Kappa()[0], 1.e-15)
	assert.InDelta(t, 2226*(500-Tstd), th.Hs(0, 500), 1.e-9)
	{ // Temperature stays inside its bounds
		th.HE.Values[0] = th.HEofT(0, 1.e5)
		require.NoError(t, th.Correct())
		assert.Equal(t, th.THigh, th.T.Values[0])
	}
	{
		_, err := NewEnergyVariable("s")
		assert.Error(t, err)
		ev, err := NewEnergyVariable("sensibleInternalEnergy")
		assert.NoError(t, err)
		assert.Equal(t, "e", ev.String())
	}
}

func TestMoleFraction(t *testing.T) {
	th := testThermo(t, SensibleEnthalpy)
	mf := NewMoleFraction(th.Species, th.Y)
	var sum float64
	for _, x := range mf.X {
		sum += x.Values[2]
		assert.Equal(t, x.Values[2], x.Boundary[0].Value[0])
	}
	assert.InDelta(t, 1., sum, 1.e-14)
	nMix := 0.05/16.043 + 0.22/31.999 + 0.73/28.014
	assert.InDelta(t, 0.05/16.043/nMix, mf.X[0].Values[0], 1.e-14)
	th.Y[0].Values[0], th.Y[2].Values[0] = 0, 0.78
	require.NoError(t, mf.Update())
	assert.Equal(t, 0., mf.X[0].Values[0])
}
