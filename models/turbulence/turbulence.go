// Package turbulence provides the turbulent viscosity collaborators.
package turbulence

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvc"
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
)

const (
	Kappa = 0.41 // von Karman
	Cmu   = 0.09
)

type Model interface {
	Correct() error
	Mut() []float64
}

type Options struct {
	Model string  `json:"model"`
	Delta float64 `json:"delta"` // Mixing layer width, m
}

var ModelNames = []string{"laminar", "mixingLength"}

func New(opts Options, rho *fvm.ScalarField, U *fvm.VectorField, log logrus.FieldLogger) (m Model, err error) {
	switch opts.Model {
	case "", "laminar":
		m = &Laminar{mut: make([]float64, rho.Mesh.NCells)}
	case "mixingLength":
		if opts.Delta <= 0 {
			err = fmt.Errorf("mixingLength needs a positive delta, have %g", opts.Delta)
			return
		}
		m = NewMixingLength(rho, U, opts.Delta)
		log.WithFields(logrus.Fields{"model": opts.Model, "lm": m.(*MixingLength).Lm}).Info("turbulence")
	default:
		err = fmt.Errorf("turbulence: %w %q, have %v", models.ErrUnknownModel, opts.Model, ModelNames)
	}
	return
}

type Laminar struct {
	mut []float64
}

func (l *Laminar) Correct() error { return nil }
func (l *Laminar) Mut() []float64 { return l.mut }

/*
MixingLength is the Prandtl model mut = rho*lm^2*sqrt(2*S:S) with the mixing
length lm = Kappa*Cmu^0.25*delta set from the layer width.
*/
type MixingLength struct {
	Rho *fvm.ScalarField
	U   *fvm.VectorField
	Lm  float64
	mut []float64
}

func NewMixingLength(rho *fvm.ScalarField, U *fvm.VectorField, delta float64) *MixingLength {
	return &MixingLength{
		Rho: rho,
		U:   U,
		Lm:  Kappa * math.Pow(Cmu, 0.25) * delta,
		mut: make([]float64, rho.Mesh.NCells),
	}
}

func (ml *MixingLength) Correct() error {
	var gradU [3][][3]float64
	for d := 0; d < 3; d++ {
		gradU[d] = fvc.Grad(ml.U.Comp[d])
	}
	for celli := range ml.mut {
		var SS float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				s := 0.5 * (gradU[i][celli][j] + gradU[j][celli][i])
				SS += s * s
			}
		}
		ml.mut[celli] = ml.Rho.Values[celli] * ml.Lm * ml.Lm * math.Sqrt(2*SS)
	}
	for _, v := range ml.mut {
		if math.IsNaN(v) {
			return fmt.Errorf("turbulent viscosity is not a number")
		}
	}
	return nil
}

func (ml *MixingLength) Mut() []float64 { return ml.mut }
