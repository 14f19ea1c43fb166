package ReactingFlow

import (
	"errors"
	"time"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
	"github.com/notargets/gocombust/thermo"
)

var (
	ErrMissingSpecie = thermo.ErrMissingSpecie
	ErrUnknownModel  = models.ErrUnknownModel
	ErrCollaborator  = errors.New("collaborator failed")
)

/*
The collaborators are queried for their terms during assembly and asked to
correct their own state separately, never in the middle of a solve.
*/

type Combustion interface {
	Correct() error
	R(i int, Yi *fvm.ScalarField) *fvm.Matrix // Reaction source of specie i
	Sh() []float64                            // Heat release, W/m^3
}

type Radiation interface {
	Correct() error
	Ru() []float64
	Rp() []float64
	Sh(th *thermo.PsiThermo, he *fvm.ScalarField) *fvm.Matrix
}

type Transport interface {
	Update() error
	Yflux(i int, Yi *fvm.ScalarField) *fvm.Matrix
	Alpha() *fvm.SurfaceField
	AlphaE() *fvm.SurfaceField
	Hconduction(he *fvm.ScalarField) []float64
	Econduction(he *fvm.ScalarField) []float64
	JHs() []float64
	MuEff() *fvm.SurfaceField
}

type FvOptions interface {
	Apply(rho, psi *fvm.ScalarField) (*fvm.Matrix, error)
	Constrain(eq *fvm.Matrix)
	Correct(psi *fvm.ScalarField) error
}

type MoleFractions interface {
	Update() error
}

type Turbulence interface {
	Correct() error
}

// Recorder receives solver telemetry
type Recorder interface {
	OuterIteration()
	LinearSolve(perf fvm.SolverPerformance)
	SpecieBounds(name string, min, ave, max float64)
	Temperature(min, max float64)
	Step(t float64, elapsed time.Duration)
}

type nullRecorder struct{}

func (nullRecorder) OuterIteration()                                {}
func (nullRecorder) LinearSolve(fvm.SolverPerformance)              {}
func (nullRecorder) SpecieBounds(string, float64, float64, float64) {}
func (nullRecorder) Temperature(float64, float64)                   {}
func (nullRecorder) Step(float64, time.Duration)                    {}
