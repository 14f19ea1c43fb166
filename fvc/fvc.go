// Package fvc evaluates explicit finite volume operators on current field
// values. Cell results are per unit volume.
package fvc

import (
	"fmt"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/types"
)

// Interpolate is linear face interpolation, boundary faces take patch values
func Interpolate(psi *fvm.ScalarField) (sf *fvm.SurfaceField) {
	mesh := psi.Mesh
	sf = fvm.NewSurfaceField(psi.Name+"f", psi.Dim, mesh, 0)
	for f, P := range mesh.Owner {
		w := mesh.Weights[f]
		sf.Internal[f] = w*psi.Values[P] + (1-w)*psi.Values[mesh.Neighbour[f]]
	}
	for p, pf := range psi.Boundary {
		copy(sf.Boundary[p], pf.Value)
	}
	return
}

// InterpolateValues interpolates a bare cell array, boundary faces take the owner value
func InterpolateValues(name string, values []float64, mesh *fvm.Mesh) (sf *fvm.SurfaceField) {
	sf = fvm.NewSurfaceField(name, types.DimLess, mesh, 0)
	for f, P := range mesh.Owner {
		w := mesh.Weights[f]
		sf.Internal[f] = w*values[P] + (1-w)*values[mesh.Neighbour[f]]
	}
	for p, patch := range mesh.Patches {
		for i, celli := range patch.FaceCells {
			sf.Boundary[p][i] = values[celli]
		}
	}
	return
}

// Flux returns Sf & U on faces
func Flux(U *fvm.VectorField) (phi *fvm.SurfaceField) {
	mesh := U.Mesh()
	phi = fvm.NewSurfaceField("phi("+U.Name+")", types.DimVelocity.Mul(types.Dimensions{0, 2, 0, 0, 0}), mesh, 0)
	var Uf [3]*fvm.SurfaceField
	for d := range Uf {
		Uf[d] = Interpolate(U.Comp[d])
	}
	for f := range phi.Internal {
		phi.Internal[f] = fvm.Dot(mesh.Sf[f], [3]float64{Uf[0].Internal[f], Uf[1].Internal[f], Uf[2].Internal[f]})
	}
	for p, patch := range mesh.Patches {
		for i := range patch.FaceCells {
			phi.Boundary[p][i] = fvm.Dot(patch.Sf[i], U.BoundaryAt(p, i))
		}
	}
	return
}

// SnGrad is the face normal gradient
func SnGrad(psi *fvm.ScalarField) (sf *fvm.SurfaceField) {
	mesh := psi.Mesh
	sf = fvm.NewSurfaceField("snGrad("+psi.Name+")", psi.Dim.Div(types.DimLength), mesh, 0)
	for f, P := range mesh.Owner {
		sf.Internal[f] = mesh.DeltaCoeffs[f] * (psi.Values[mesh.Neighbour[f]] - psi.Values[P])
	}
	for p, patch := range mesh.Patches {
		pf := psi.Boundary[p]
		for i, celli := range patch.FaceCells {
			c, d := pf.GradientCoeffs(i, patch.DeltaCoeffs[i])
			sf.Boundary[p][i] = c*psi.Values[celli] + d
		}
	}
	return
}

// Grad is the Gauss linear cell gradient
func Grad(psi *fvm.ScalarField) (g [][3]float64) {
	var (
		mesh = psi.Mesh
		psif = Interpolate(psi)
	)
	g = make([][3]float64, mesh.NCells)
	for f, P := range mesh.Owner {
		N := mesh.Neighbour[f]
		for d := 0; d < 3; d++ {
			flux := mesh.Sf[f][d] * psif.Internal[f]
			g[P][d] += flux
			g[N][d] -= flux
		}
	}
	for p, patch := range mesh.Patches {
		for i, celli := range patch.FaceCells {
			for d := 0; d < 3; d++ {
				g[celli][d] += patch.Sf[i][d] * psif.Boundary[p][i]
			}
		}
	}
	for i := range g {
		for d := 0; d < 3; d++ {
			g[i][d] /= mesh.V[i]
		}
	}
	return
}

// Surface integrates a face flux to the cells: sum of outgoing flux over V
func Surface(flux *fvm.SurfaceField) (div []float64) {
	mesh := flux.Mesh
	div = make([]float64, mesh.NCells)
	for f, P := range mesh.Owner {
		div[P] += flux.Internal[f]
		div[mesh.Neighbour[f]] -= flux.Internal[f]
	}
	for p, patch := range mesh.Patches {
		for i, celli := range patch.FaceCells {
			div[celli] += flux.Boundary[p][i]
		}
	}
	for i := range div {
		div[i] /= mesh.V[i]
	}
	return
}

// DivFlux is div of a face flux, an alias of Surface matching the operator name
func DivFlux(flux *fvm.SurfaceField) []float64 { return Surface(flux) }

// Div is the explicit upwind convection of psi by phi
func Div(phi *fvm.SurfaceField, psi *fvm.ScalarField) []float64 {
	var (
		mesh = psi.Mesh
		flux = fvm.NewSurfaceField(fmt.Sprintf("div(%s,%s)", phi.Name, psi.Name), psi.Dim, mesh, 0)
	)
	for f, P := range mesh.Owner {
		F := phi.Internal[f]
		if F >= 0 {
			flux.Internal[f] = F * psi.Values[P]
		} else {
			flux.Internal[f] = F * psi.Values[mesh.Neighbour[f]]
		}
	}
	for p, pf := range psi.Boundary {
		for i, v := range pf.Value {
			flux.Boundary[p][i] = phi.Boundary[p][i] * v
		}
	}
	return Surface(flux)
}

// Laplacian is div(gamma*grad(psi)) with gamma on faces
func Laplacian(gamma *fvm.SurfaceField, psi *fvm.ScalarField) []float64 {
	sn := SnGrad(psi)
	mesh := psi.Mesh
	for f := range sn.Internal {
		sn.Internal[f] *= gamma.Internal[f] * mesh.MagSf[f]
	}
	for p, patch := range mesh.Patches {
		for i := range patch.FaceCells {
			sn.Boundary[p][i] *= gamma.Boundary[p][i] * patch.MagSf[i]
		}
	}
	return Surface(sn)
}

// Ddt is the Euler rate of change of rho*psi, rho nil meaning unity
func Ddt(rho, psi *fvm.ScalarField) (d []float64) {
	var (
		rDt  = 1. / psi.Mesh.Time.DeltaT
		psi0 = psi.OldTime()
	)
	d = make([]float64, len(psi.Values))
	for i, v := range psi.Values {
		if rho == nil {
			d[i] = rDt * (v - psi0[i])
		} else {
			d[i] = rDt * (rho.Values[i]*v - rho.OldTime()[i]*psi0[i])
		}
	}
	return
}

// DdtRhoK is the Euler rate of change of rho*K for bare cell arrays
func DdtRhoK(rho, rho0, k, k0 []float64, dt float64) (d []float64) {
	d = make([]float64, len(k))
	for i := range k {
		d[i] = (rho[i]*k[i] - rho0[i]*k0[i]) / dt
	}
	return
}

// Scale multiplies face values, returning a new field
func Scale(name string, a *fvm.SurfaceField, b *fvm.SurfaceField) *fvm.SurfaceField {
	return a.Combine(name, b, func(x, y float64) float64 { return x * y })
}
