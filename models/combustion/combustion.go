// Package combustion provides the reaction source collaborators: a null
// model and two single step global reaction models. Rates are computed once
// per time step in Correct and only read by R and Sh.
package combustion

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/utils"
)

type Model interface {
	Correct() error
	R(i int, Y *fvm.ScalarField) *fvm.Matrix
	Sh() []float64
}

type Options struct {
	Model     string             `json:"model"`
	C         float64            `json:"C"`  // infinitelyFastChemistry mixing time scale factor
	A         float64            `json:"A"`  // singleStepArrhenius pre-exponential, m^3/(kg s)
	Ta        float64            `json:"Ta"` // Activation temperature, K
	Oxidiser  string             `json:"oxidiser"`
	Reactants map[string]float64 `json:"reactants"` // Molar coefficients
	Products  map[string]float64 `json:"products"`
}

var ModelNames = []string{"none", "infinitelyFastChemistry", "singleStepArrhenius"}

// New selects a model by name
func New(opts Options, species *thermo.SpeciesTable, Y []*fvm.ScalarField, rho, T *fvm.ScalarField,
	log logrus.FieldLogger) (m Model, err error) {
	switch opts.Model {
	case "", "none":
		m = &None{nCells: rho.Mesh.NCells}
	case "infinitelyFastChemistry", "singleStepArrhenius":
		var ss *SingleStep
		if ss, err = NewSingleStep(opts, species, Y, rho, T); err != nil {
			return
		}
		log.WithFields(logrus.Fields{
			"model": opts.Model,
			"fuel":  species.Species[species.Fuel].Name,
			"s":     ss.S,
			"qFuel": ss.QFuel,
		}).Info("combustion")
		m = ss
	default:
		err = fmt.Errorf("combustion: %w %q, have %v", models.ErrUnknownModel, opts.Model, ModelNames)
	}
	return
}

// None releases no heat and consumes nothing
type None struct {
	nCells int
}

func (n *None) Correct() error { return nil }

func (n *None) R(i int, Y *fvm.ScalarField) *fvm.Matrix {
	return fvm.Su("R("+Y.Name+")", make([]float64, n.nCells), Y)
}

func (n *None) Sh() []float64 { return make([]float64, n.nCells) }

/*
SingleStep is the global reaction fuel + s*oxidiser -> products with mass
based stoichiometry. The fuel consumption rate wFuel [kg/(m^3 s)] is either
mixing limited (infinitelyFastChemistry)

	wFuel = rho/(dt*C) * min(Yfuel, Yox/s)

or finite rate (singleStepArrhenius) capped by the same availability

	wFuel = min(A*rho^2*Yfuel*Yox*exp(-Ta/T), rho/dt*min(Yfuel, Yox/s))
*/
type SingleStep struct {
	Species      *thermo.SpeciesTable
	Y            []*fvm.ScalarField
	Rho, T       *fvm.ScalarField
	Arrhenius    bool
	C, A, Ta     float64
	Fuel, Ox     int
	StoichCoeffs []float64 // kg of specie per kg of fuel, negative for reactants
	S            float64   // kg oxidiser per kg fuel
	QFuel        float64   // J per kg fuel
	WFuel        []float64
}

func NewSingleStep(opts Options, species *thermo.SpeciesTable, Y []*fvm.ScalarField,
	rho, T *fvm.ScalarField) (ss *SingleStep, err error) {
	if species.Fuel < 0 {
		err = fmt.Errorf("combustion model %s needs a fuel: %w", opts.Model, thermo.ErrMissingSpecie)
		return
	}
	oxName := opts.Oxidiser
	if oxName == "" {
		oxName = "O2"
	}
	ox, ok := species.Index(oxName)
	if !ok {
		err = fmt.Errorf("oxidiser %q: %w", oxName, thermo.ErrMissingSpecie)
		return
	}
	ss = &SingleStep{
		Species:      species,
		Y:            Y,
		Rho:          rho,
		T:            T,
		Arrhenius:    opts.Model == "singleStepArrhenius",
		C:            opts.C,
		A:            opts.A,
		Ta:           opts.Ta,
		Fuel:         species.Fuel,
		Ox:           ox,
		StoichCoeffs: make([]float64, species.Len()),
		WFuel:        make([]float64, rho.Mesh.NCells),
	}
	switch {
	case ss.Arrhenius:
	case opts.C < 0:
		err = fmt.Errorf("infinitelyFastChemistry C must be positive, have %g", opts.C)
		return
	case opts.C == 0:
		ss.C = 5
	}
	if err = ss.setStoichiometry(opts.Reactants, opts.Products); err != nil {
		ss = nil
	}
	return
}

func (ss *SingleStep) setStoichiometry(reactants, products map[string]float64) (err error) {
	var (
		fuel  = ss.Species.Species[ss.Fuel]
		nuF   = reactants[fuel.Name]
		names = make([]string, 0, len(reactants)+len(products))
	)
	if nuF <= 0 {
		return fmt.Errorf("fuel %s missing from the reactants", fuel.Name)
	}
	if reactants[ss.Species.Species[ss.Ox].Name] <= 0 {
		return fmt.Errorf("oxidiser %s missing from the reactants", ss.Species.Species[ss.Ox].Name)
	}
	for name := range reactants {
		names = append(names, name)
	}
	for name := range products {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		i, ok := ss.Species.Index(name)
		if !ok {
			return fmt.Errorf("reaction specie %q: %w", name, thermo.ErrMissingSpecie)
		}
		nu := products[name] - reactants[name]
		ss.StoichCoeffs[i] = nu * ss.Species.Species[i].W / (nuF * fuel.W)
	}
	ss.S = -ss.StoichCoeffs[ss.Ox]
	var massBalance float64
	for i, sc := range ss.StoichCoeffs {
		massBalance += sc
		ss.QFuel -= sc * ss.Species.Species[i].Hf
	}
	if math.Abs(massBalance) > 1.e-3 {
		return fmt.Errorf("reaction does not conserve mass, net %g kg per kg fuel", massBalance)
	}
	return
}

func (ss *SingleStep) Correct() (err error) {
	var (
		mesh = ss.Rho.Mesh
		dt   = mesh.Time.DeltaT
		YF   = ss.Y[ss.Fuel].Values
		YO   = ss.Y[ss.Ox].Values
	)
	mesh.Partitions.Apply(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			var (
				rho       = ss.Rho.Values[i]
				available = rho / dt * math.Max(0, math.Min(YF[i], YO[i]/ss.S))
			)
			if ss.Arrhenius {
				w := ss.A * rho * rho * math.Max(YF[i], 0) * math.Max(YO[i], 0) * math.Exp(-ss.Ta/ss.T.Values[i])
				ss.WFuel[i] = math.Min(w, available)
			} else {
				ss.WFuel[i] = available / ss.C
			}
		}
	})
	if utils.IsNan(ss.WFuel) {
		err = fmt.Errorf("fuel consumption rate is not a number")
	}
	return
}

// R is the explicit production rate of specie i
func (ss *SingleStep) R(i int, Y *fvm.ScalarField) *fvm.Matrix {
	w := make([]float64, len(ss.WFuel))
	for celli, wf := range ss.WFuel {
		w[celli] = ss.StoichCoeffs[i] * wf
	}
	return fvm.Su("R("+Y.Name+")", w, Y)
}

func (ss *SingleStep) Sh() (sh []float64) {
	sh = make([]float64, len(ss.WFuel))
	for i, wf := range ss.WFuel {
		sh[i] = ss.QFuel * wf
	}
	return
}
