// Package transport provides the diffusive transport collaborators: species
// diffusion fluxes with a mass conserving correction flux, conduction
// deferred corrections for either energy variable and the species enthalpy
// flux.
package transport

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvc"
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/types"
	"github.com/notargets/gocombust/utils"
)

// TurbulentViscosity is what the transport needs from a turbulence model
type TurbulentViscosity interface {
	Mut() []float64
}

type Options struct {
	Model string  `json:"model"`
	Sct   float64 `json:"Sct"`
	Prt   float64 `json:"Prt"`
}

var (
	ModelNames     = []string{"constant", "mixtureAveraged"}
	DefaultOptions = Options{Model: "mixtureAveraged", Sct: 0.7, Prt: 0.85}
)

/*
Model holds cell values of the laminar properties, refreshed by Update,
then interpolated to the faces on request. The constant model takes mu and
alpha from the thermo and gives every specie unity Lewis number; the mixture
averaged model computes them from the composition.
*/
type Model struct {
	Thermo         *thermo.PsiThermo
	X              []*fvm.ScalarField
	Rho            *fvm.ScalarField
	Turbulence     TurbulentViscosity
	MixtureAverage bool
	Sct, Prt       float64
	Mu, Kappa      []float64
	Cp, Cv         []float64
	RhoDCell       [][]float64
	log            logrus.FieldLogger
}

func New(opts Options, th *thermo.PsiThermo, X []*fvm.ScalarField, rho *fvm.ScalarField,
	turb TurbulentViscosity, log logrus.FieldLogger) (m *Model, err error) {
	switch opts.Model {
	case "", "mixtureAveraged", "constant":
	default:
		err = fmt.Errorf("transport: %w %q, have %v", models.ErrUnknownModel, opts.Model, ModelNames)
		return
	}
	if opts.Sct <= 0 {
		opts.Sct = DefaultOptions.Sct
	}
	if opts.Prt <= 0 {
		opts.Prt = DefaultOptions.Prt
	}
	var (
		n  = rho.Mesh.NCells
		ns = th.Species.Len()
	)
	m = &Model{
		Thermo:         th,
		X:              X,
		Rho:            rho,
		Turbulence:     turb,
		MixtureAverage: opts.Model != "constant",
		Sct:            opts.Sct,
		Prt:            opts.Prt,
		Mu:             make([]float64, n),
		Kappa:          make([]float64, n),
		RhoDCell:       make([][]float64, ns),
		log:            log,
	}
	for i := range m.RhoDCell {
		m.RhoDCell[i] = make([]float64, n)
	}
	if m.MixtureAverage {
		for _, s := range th.Species.Species {
			if s.Sigma <= 0 || s.EpsilonByK <= 0 {
				err = fmt.Errorf("mixtureAveraged transport needs Lennard-Jones sigma and epsilonByK for %s", s.Name)
				return
			}
		}
	}
	err = m.Update()
	return
}

func (m *Model) mut() []float64 {
	if m.Turbulence == nil {
		return make([]float64, len(m.Mu))
	}
	return m.Turbulence.Mut()
}

// Update recomputes the laminar properties and the specie diffusivities
func (m *Model) Update() (err error) {
	var (
		th   = m.Thermo
		mesh = m.Rho.Mesh
		sp   = th.Species.Species
		ns   = len(sp)
		mut  = m.mut()
	)
	m.Cp, m.Cv = th.Cp(), th.Cv()
	mesh.Partitions.Apply(func(kMin, kMax int) {
		var (
			X, Y    = make([]float64, ns), make([]float64, ns)
			W       = make([]float64, ns)
			muS, kS = make([]float64, ns), make([]float64, ns)
			Dij     = make([][]float64, ns)
		)
		for i := range Dij {
			Dij[i] = make([]float64, ns)
			W[i] = sp[i].W
		}
		for celli := kMin; celli < kMax; celli++ {
			var (
				T   = th.T.Values[celli]
				p   = th.P.Values[celli]
				rho = m.Rho.Values[celli]
			)
			if !m.MixtureAverage {
				m.Mu[celli] = th.Mu.Values[celli]
				m.Kappa[celli] = th.Alpha.Values[celli] * m.Cp[celli]
				for i := 0; i < ns; i++ {
					m.RhoDCell[i][celli] = th.Alpha.Values[celli] + mut[celli]/m.Sct
				}
				continue
			}
			for i := 0; i < ns; i++ {
				X[i], Y[i] = m.X[i].Values[celli], th.Y[i].Values[celli]
				muS[i] = SpecieViscosity(sp[i], T)
				kS[i] = SpecieConductivity(sp[i], muS[i])
				for j := 0; j <= i; j++ {
					Dij[i][j] = BinaryDiffusivity(sp[i], sp[j], T, p)
					Dij[j][i] = Dij[i][j]
				}
			}
			m.Mu[celli] = wilke(X, muS, muS, W)
			m.Kappa[celli] = wilke(X, kS, muS, W)
			for i := 0; i < ns; i++ {
				m.RhoDCell[i][celli] = rho*MixtureDiffusivity(i, X, Y, Dij) + mut[celli]/m.Sct
			}
		}
	})
	if utils.IsNan(m.Mu) || utils.IsNan(m.Kappa) || utils.IsNan(m.RhoDCell) {
		err = fmt.Errorf("transport properties are not numbers")
		return
	}
	m.log.WithFields(logrus.Fields{
		"mixtureAveraged": m.MixtureAverage,
		"maxMu":           floatsMax(m.Mu),
		"maxKappa":        floatsMax(m.Kappa),
	}).Debug("transport update")
	return
}

func floatsMax(v []float64) (mx float64) {
	mx = -math.MaxFloat64
	for _, x := range v {
		mx = math.Max(mx, x)
	}
	return
}

func (m *Model) face(name string, dim types.Dimensions, cell func(i int) float64) (sf *fvm.SurfaceField) {
	var (
		mesh = m.Rho.Mesh
		v    = make([]float64, mesh.NCells)
	)
	for i := range v {
		v[i] = cell(i)
	}
	sf = fvc.InterpolateValues(name, v, mesh)
	sf.Dim = dim
	return
}

// RhoD is the effective face diffusivity of specie i, kg/(m s)
func (m *Model) RhoD(i int) *fvm.SurfaceField {
	return m.face("rhoD_"+m.Thermo.Species.Species[i].Name, types.DimViscosity,
		func(celli int) float64 { return m.RhoDCell[i][celli] })
}

// PatchRhoD is the diffusivity of specie i on face facei of patch patchI
func (m *Model) PatchRhoD(i, patchI, facei int) float64 {
	return m.RhoDCell[i][m.Rho.Mesh.Patches[patchI].FaceCells[facei]]
}

// Alpha is the effective enthalpy diffusivity kappa/Cp + mut/Prt
func (m *Model) Alpha() *fvm.SurfaceField {
	mut := m.mut()
	return m.face("alphaEff", types.DimViscosity,
		func(i int) float64 { return m.Kappa[i]/m.Cp[i] + mut[i]/m.Prt })
}

// AlphaE is the effective internal energy diffusivity kappa/Cv + mut/Prt
func (m *Model) AlphaE() *fvm.SurfaceField {
	mut := m.mut()
	return m.face("alphaEffE", types.DimViscosity,
		func(i int) float64 { return m.Kappa[i]/m.Cv[i] + mut[i]/m.Prt })
}

func (m *Model) kappaEff() *fvm.SurfaceField {
	mut := m.mut()
	return m.face("kappaEff", types.DimViscosity,
		func(i int) float64 { return m.Kappa[i] + m.Cp[i]*mut[i]/m.Prt })
}

func (m *Model) MuEff() *fvm.SurfaceField {
	mut := m.mut()
	return m.face("muEff", types.DimViscosity, func(i int) float64 { return m.Mu[i] + mut[i] })
}

/*
correctionFlux is phiC = sum_j rhoD_j*snGrad(Y_j)*|Sf|, the face mass flux
that returns the net diffusive flux of all species to zero.
*/
func (m *Model) correctionFlux() (phiC *fvm.SurfaceField) {
	mesh := m.Rho.Mesh
	phiC = fvm.NewSurfaceField("phiC", types.DimMassFlux, mesh, 0)
	for j, Y := range m.Thermo.Y {
		var (
			rhoD = m.RhoD(j)
			sn   = fvc.SnGrad(Y)
		)
		for f := range phiC.Internal {
			phiC.Internal[f] += rhoD.Internal[f] * sn.Internal[f] * mesh.MagSf[f]
		}
		for p, patch := range mesh.Patches {
			for i := range patch.FaceCells {
				phiC.Boundary[p][i] += rhoD.Boundary[p][i] * sn.Boundary[p][i] * patch.MagSf[i]
			}
		}
	}
	return
}

// Yflux is the divergence of the diffusive flux of specie i: -lap(rhoD_i, Y_i) + div(phiC, Y_i)
func (m *Model) Yflux(i int, Yi *fvm.ScalarField) *fvm.Matrix {
	return fvm.Div(m.correctionFlux(), Yi).Sub(fvm.Laplacian(m.RhoD(i), Yi))
}

func (m *Model) conduction(alpha *fvm.SurfaceField, he *fvm.ScalarField) (q []float64) {
	q = fvc.Laplacian(alpha, he)
	lapT := fvc.Laplacian(m.kappaEff(), m.Thermo.T)
	for i := range q {
		q[i] -= lapT[i]
	}
	return
}

// Hconduction is lap(alpha, he) - lap(kappa, T), the deferred correction from
// enthalpy diffusion to Fourier conduction
func (m *Model) Hconduction(he *fvm.ScalarField) []float64 {
	return m.conduction(m.Alpha(), he)
}

func (m *Model) Econduction(he *fvm.ScalarField) []float64 {
	return m.conduction(m.AlphaE(), he)
}

// JHs is div(sum_i hs_i*J_i), the enthalpy carried by the diffusive species fluxes
func (m *Model) JHs() []float64 {
	var (
		mesh = m.Rho.Mesh
		th   = m.Thermo
		Tf   = fvc.Interpolate(th.T)
		phiC = m.correctionFlux()
		flux = fvm.NewSurfaceField("JHs", types.DimPowerDensity, mesh, 0)
	)
	for i, Y := range th.Y {
		var (
			s    = th.Species.Species[i]
			rhoD = m.RhoD(i)
			sn   = fvc.SnGrad(Y)
			Yf   = fvc.Interpolate(Y)
		)
		for f := range flux.Internal {
			J := -rhoD.Internal[f]*sn.Internal[f]*mesh.MagSf[f] + Yf.Internal[f]*phiC.Internal[f]
			flux.Internal[f] += s.Hs(Tf.Internal[f]) * J
		}
		for p, patch := range mesh.Patches {
			for k := range patch.FaceCells {
				J := -rhoD.Boundary[p][k]*sn.Boundary[p][k]*patch.MagSf[k] + Yf.Boundary[p][k]*phiC.Boundary[p][k]
				flux.Boundary[p][k] += s.Hs(Tf.Boundary[p][k]) * J
			}
		}
	}
	return fvc.Surface(flux)
}
