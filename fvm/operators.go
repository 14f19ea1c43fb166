package fvm

import "fmt"

// Implicit operators. Each returns a new Matrix in psi carrying its term name.

// Ddt is the Euler implicit rate of change of rho*psi, rho nil meaning unity
func Ddt(rho, psi *ScalarField) (m *Matrix) {
	var (
		mesh   = psi.Mesh
		rDt    = 1. / mesh.Time.DeltaT
		psi0   = psi.OldTime()
		name   = fmt.Sprintf("ddt(%s)", psi.Name)
		rhoN   = func(i int) float64 { return 1 }
		rhoOld = func(i int) float64 { return 1 }
	)
	if rho != nil {
		rho0 := rho.OldTime()
		rhoN = func(i int) float64 { return rho.Values[i] }
		rhoOld = func(i int) float64 { return rho0[i] }
		name = fmt.Sprintf("ddt(%s,%s)", rho.Name, psi.Name)
	}
	m = NewMatrix(psi)
	mesh.Partitions.Apply(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			m.Diag[i] = rDt * rhoN(i) * mesh.V[i]
			m.Source[i] = rDt * rhoOld(i) * psi0[i] * mesh.V[i]
		}
	})
	return m.named(name)
}

// Div is the upwind convection of psi by the face flux phi
func Div(phi *SurfaceField, psi *ScalarField) (m *Matrix) {
	mesh := psi.Mesh
	m = NewMatrix(psi)
	for f, P := range mesh.Owner {
		var (
			N = mesh.Neighbour[f]
			F = phi.Internal[f]
		)
		if F >= 0 {
			m.Diag[P] += F
			m.Lower[f] -= F
		} else {
			m.Upper[f] += F
			m.Diag[N] -= F
		}
	}
	for p, patch := range mesh.Patches {
		pf := psi.Boundary[p]
		for i := range patch.FaceCells {
			a, b := pf.ValueCoeffs(i, patch.DeltaCoeffs[i])
			F := phi.Boundary[p][i]
			m.InternalCoeffs[p][i] += F * a
			m.BoundaryCoeffs[p][i] -= F * b
		}
	}
	return m.named(fmt.Sprintf("div(%s,%s)", phi.Name, psi.Name))
}

// Laplacian is div(gamma*grad(psi)) with gamma given on faces
func Laplacian(gamma *SurfaceField, psi *ScalarField) (m *Matrix) {
	mesh := psi.Mesh
	m = NewMatrix(psi)
	for f, P := range mesh.Owner {
		var (
			N = mesh.Neighbour[f]
			g = gamma.Internal[f] * mesh.MagSf[f] * mesh.DeltaCoeffs[f]
		)
		m.Upper[f] += g
		m.Lower[f] += g
		m.Diag[P] -= g
		m.Diag[N] -= g
	}
	for p, patch := range mesh.Patches {
		pf := psi.Boundary[p]
		for i := range patch.FaceCells {
			c, d := pf.GradientCoeffs(i, patch.DeltaCoeffs[i])
			g := gamma.Boundary[p][i] * patch.MagSf[i]
			m.InternalCoeffs[p][i] += g * c
			m.BoundaryCoeffs[p][i] -= g * d
		}
	}
	return m.named(fmt.Sprintf("laplacian(%s,%s)", gamma.Name, psi.Name))
}

// Sp is the implicit source coeff*psi, coeff per volume
func Sp(name string, coeff []float64, psi *ScalarField) (m *Matrix) {
	mesh := psi.Mesh
	m = NewMatrix(psi)
	for i, c := range coeff {
		m.Diag[i] = c * mesh.V[i]
	}
	return m.named(name)
}

// Su is an explicit per volume source carried as a matrix
func Su(name string, q []float64, psi *ScalarField) (m *Matrix) {
	return NewMatrix(psi).AddExplicit(name, q)
}
