// Package radiation provides the radiative heat source collaborators.
package radiation

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/utils"
)

type Model interface {
	Correct() error
	Ru() []float64 // Emission source, W/m^3
	Rp() []float64 // Absorption coefficient of T^4, W/(m^3 K^4)
	Sh(th *thermo.PsiThermo, he *fvm.ScalarField) *fvm.Matrix
}

type Options struct {
	Model string  `json:"model"`
	TInf  float64 `json:"TInf"` // Surroundings temperature, K
}

var ModelNames = []string{"none", "opticallyThin"}

func New(opts Options, species *thermo.SpeciesTable, X []*fvm.ScalarField, p, T *fvm.ScalarField,
	log logrus.FieldLogger) (m Model, err error) {
	switch opts.Model {
	case "", "none":
		m = &None{nCells: T.Mesh.NCells}
	case "opticallyThin":
		if opts.TInf <= 0 {
			err = fmt.Errorf("opticallyThin needs a positive TInf, have %g", opts.TInf)
			return
		}
		m = NewOpticallyThin(species, X, p, T, opts.TInf)
		log.WithFields(logrus.Fields{"model": opts.Model, "TInf": opts.TInf}).Info("radiation")
	default:
		err = fmt.Errorf("radiation: %w %q, have %v", models.ErrUnknownModel, opts.Model, ModelNames)
	}
	return
}

/*
Sh linearises the radiative source about the current temperature for an
energy variable he with dhe/dT = Cpv:

	Sh = Ru - Sp(4*Rp*T^3/Cpv, he) - Rp*T^3*(T - 4*he/Cpv)
*/
func Sh(m Model, th *thermo.PsiThermo, he *fvm.ScalarField) (eq *fvm.Matrix) {
	var (
		Ru, Rp = m.Ru(), m.Rp()
		Cpv    = th.Cpv()
		T      = th.T.Values
		n      = len(T)
		coeff  = make([]float64, n)
		expl   = make([]float64, n)
	)
	for i := 0; i < n; i++ {
		T3 := T[i] * T[i] * T[i]
		coeff[i] = 4 * Rp[i] * T3 / Cpv[i]
		expl[i] = Ru[i] - Rp[i]*T3*(T[i]-4*he.Values[i]/Cpv[i])
	}
	eq = fvm.Sp("Sp(Rp)", coeff, he).Neg()
	return eq.AddExplicit("Ru", expl)
}

type None struct {
	nCells int
}

func (n *None) Correct() error { return nil }
func (n *None) Ru() []float64  { return make([]float64, n.nCells) }
func (n *None) Rp() []float64  { return make([]float64, n.nCells) }

func (n *None) Sh(th *thermo.PsiThermo, he *fvm.ScalarField) *fvm.Matrix {
	return fvm.Su("radiation", make([]float64, n.nCells), he)
}

/*
OpticallyThin exchanges with surroundings at TInf through a grey gas of
Planck mean absorption a = sum_i X_i*a_i*p/pAtm, with Rp = 4*sigma*a and
Ru = 4*sigma*a*TInf^4.
*/
type OpticallyThin struct {
	Species *thermo.SpeciesTable
	X       []*fvm.ScalarField
	P, T    *fvm.ScalarField
	TInf    float64
	a       []float64
}

func NewOpticallyThin(species *thermo.SpeciesTable, X []*fvm.ScalarField, p, T *fvm.ScalarField, TInf float64) (ot *OpticallyThin) {
	ot = &OpticallyThin{
		Species: species,
		X:       X,
		P:       p,
		T:       T,
		TInf:    TInf,
		a:       make([]float64, T.Mesh.NCells),
	}
	return
}

func (ot *OpticallyThin) Correct() (err error) {
	const pAtm = 101325.
	for celli := range ot.a {
		var a float64
		for i, s := range ot.Species.Species {
			a += ot.X[i].Values[celli] * s.Absorption
		}
		ot.a[celli] = a * ot.P.Values[celli] / pAtm
	}
	if utils.IsNan(ot.a) {
		err = fmt.Errorf("absorption coefficient is not a number")
	}
	return
}

func (ot *OpticallyThin) Absorption() []float64 { return ot.a }

func (ot *OpticallyThin) Rp() (rp []float64) {
	rp = make([]float64, len(ot.a))
	for i, a := range ot.a {
		rp[i] = 4 * thermo.StefanBoltzmann * a
	}
	return
}

func (ot *OpticallyThin) Ru() (ru []float64) {
	T4 := utils.POW(ot.TInf, 4)
	ru = ot.Rp()
	for i := range ru {
		ru[i] *= T4
	}
	return
}

func (ot *OpticallyThin) Sh(th *thermo.PsiThermo, he *fvm.ScalarField) *fvm.Matrix {
	return Sh(ot, th, he)
}
