package fvc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/types"
)

func linearField(m *fvm.Mesh) *fvm.ScalarField {
	T := fvm.NewScalarField("T", types.DimTemperature, m, 0,
		[]*fvm.PatchField{fvm.FixedValue(1, 0), fvm.FixedValue(1, 3)})
	for i, c := range m.C {
		T.Values[i] = 3 * c[0]
	}
	T.CorrectBoundaryConditions()
	return T
}

func TestExplicitOperators(t *testing.T) {
	var (
		m = fvm.NewLineMesh(10, 1., 2., types.BC_Wall, types.BC_Wall, 2)
		T = linearField(m)
	)
	{
		Tf := Interpolate(T)
		for f := range Tf.Internal {
			assert.InDelta(t, 3*m.Cf[f][0], Tf.Internal[f], 1.e-12)
		}
		assert.Equal(t, 3., Tf.Boundary[1][0])
	}
	{
		sn := SnGrad(T)
		for _, v := range sn.Internal {
			assert.InDelta(t, 3., v, 1.e-12)
		}
		// Outward normal gradients
		assert.InDelta(t, -3., sn.Boundary[0][0], 1.e-12)
		assert.InDelta(t, 3., sn.Boundary[1][0], 1.e-12)
	}
	{
		for _, g := range Grad(T) {
			assert.InDelta(t, 3., g[0], 1.e-10)
			assert.Equal(t, 0., g[1])
		}
	}
	{
		gamma := fvm.NewSurfaceField("k", types.DimLess, m, 1)
		for _, v := range Laplacian(gamma, T) {
			assert.InDelta(t, 0., v, 1.e-9)
		}
	}
	{ // Uniform flux through the line is divergence free
		phi := fvm.NewSurfaceField("phi", types.DimMassFlux, m, 0.5)
		phi.Boundary[0][0] = -0.5
		for _, v := range DivFlux(phi) {
			assert.InDelta(t, 0., v, 1.e-12)
		}
		// Upwind convection of a linear profile: phi*(T_P - T_{P-1})/V
		div := Div(phi, T)
		for i := 1; i < m.NCells-1; i++ {
			assert.InDelta(t, 0.5*0.3/m.V[i], div[i], 1.e-10)
		}
	}
}

func TestFluxAndDdt(t *testing.T) {
	m := fvm.NewLineMesh(4, 1., 2., types.BC_In, types.BC_Out, 1)
	U := fvm.NewVectorField("U", types.DimVelocity, m, [3]float64{1.5, 0, 0}, [3][]*fvm.PatchField{})
	phi := Flux(U)
	for _, v := range phi.Internal {
		assert.InDelta(t, 3., v, 1.e-14)
	}
	assert.InDelta(t, -3., phi.Boundary[0][0], 1.e-14)
	assert.InDelta(t, 3., phi.Boundary[1][0], 1.e-14)

	m.Time.DeltaT = 0.5
	rho := fvm.NewScalarField("rho", types.DimDensity, m, 1, nil)
	Y := fvm.NewScalarField("Y", types.DimLess, m, 0.2, nil)
	rho.StoreOldTime()
	Y.StoreOldTime()
	rho.Values[0] = 2
	Y.Values[0] = 0.3
	d := Ddt(rho, Y)
	assert.InDelta(t, (0.6-0.2)/0.5, d[0], 1.e-14)
	assert.Equal(t, 0., d[1])
	assert.InDelta(t, 0.2, Ddt(nil, Y)[0], 1.e-14)
	assert.Equal(t, []float64{1}, DdtRhoK([]float64{1}, []float64{1}, []float64{3}, []float64{2}, 1))

	k := InterpolateValues("k", []float64{1, 3, 5, 7}, m)
	assert.Equal(t, []float64{2, 4, 6}, k.Internal)
	assert.Equal(t, 7., k.Boundary[1][0])
	assert.Equal(t, []float64{4, 16, 36}, Scale("k2", k, k).Internal)
}
