package thermo

import (
	"errors"
	"fmt"
)

var ErrMissingSpecie = errors.New("specie not in the species table")

const (
	RUniversal      = 8314.47     // J/(kmol K)
	Tstd            = 298.15      // K
	Pstd            = 1.e5        // Pa
	StefanBoltzmann = 5.670374e-8 // W/(m^2 K^4)
)

type Specie struct {
	Name       string  `json:"name"`
	W          float64 `json:"W"`          // kg/kmol
	Cp         float64 `json:"Cp"`         // J/(kg K)
	Hf         float64 `json:"Hf"`         // J/kg
	Sigma      float64 `json:"sigma"`      // Lennard-Jones diameter, Angstrom
	EpsilonByK float64 `json:"epsilonByK"` // Lennard-Jones well depth, K
	Absorption float64 `json:"absorption"` // Planck mean absorption, 1/(m atm)
	Inactive   bool    `json:"inactive"`
}

func (s Specie) R() float64 { return RUniversal / s.W }

// Hs is the sensible enthalpy at T
func (s Specie) Hs(T float64) float64 { return s.Cp * (T - Tstd) }

/*
SpeciesTable is the ordered species registry. The inert specie is derived
by closure and never solved. Fuel is optional, -1 when unset.
*/
type SpeciesTable struct {
	Species     []Specie
	Inert, Fuel int
	index       map[string]int
}

func NewSpeciesTable(species []Specie, inert, fuel string) (st *SpeciesTable, err error) {
	st = &SpeciesTable{
		Species: species,
		Inert:   -1,
		Fuel:    -1,
		index:   make(map[string]int, len(species)),
	}
	for i, s := range species {
		if _, dup := st.index[s.Name]; dup {
			err = fmt.Errorf("specie %s listed twice", s.Name)
			return
		}
		if s.W <= 0 || s.Cp <= 0 {
			err = fmt.Errorf("specie %s needs positive W and Cp, have %g, %g", s.Name, s.W, s.Cp)
			return
		}
		st.index[s.Name] = i
	}
	var ok bool
	if st.Inert, ok = st.index[inert]; !ok {
		err = fmt.Errorf("inert specie %q: %w", inert, ErrMissingSpecie)
		return
	}
	if st.Species[st.Inert].Inactive {
		err = fmt.Errorf("inert specie %s cannot be inactive", inert)
		return
	}
	if fuel != "" {
		if st.Fuel, ok = st.index[fuel]; !ok {
			err = fmt.Errorf("fuel specie %q: %w", fuel, ErrMissingSpecie)
			return
		}
	}
	return
}

func (st *SpeciesTable) Len() int { return len(st.Species) }

func (st *SpeciesTable) Index(name string) (i int, ok bool) {
	i, ok = st.index[name]
	return
}

// MustIndex panics on unknown names, for use after validation
func (st *SpeciesTable) MustIndex(name string) int {
	i, ok := st.index[name]
	if !ok {
		panic(fmt.Errorf("specie %s: %w", name, ErrMissingSpecie))
	}
	return i
}

func (st *SpeciesTable) Names() (names []string) {
	names = make([]string, len(st.Species))
	for i, s := range st.Species {
		names[i] = s.Name
	}
	return
}

func (st *SpeciesTable) Active(i int) bool { return !st.Species[i].Inactive }

func (st *SpeciesTable) IsInert(i int) bool { return i == st.Inert }

// Solved reports whether specie i gets its own transport equation
func (st *SpeciesTable) Solved(i int) bool { return !st.IsInert(i) && st.Active(i) }
