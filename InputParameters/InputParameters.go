package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models/combustion"
	"github.com/notargets/gocombust/models/fvoptions"
	"github.com/notargets/gocombust/models/radiation"
	"github.com/notargets/gocombust/models/transport"
	"github.com/notargets/gocombust/models/turbulence"
	"github.com/notargets/gocombust/thermo"
	"github.com/notargets/gocombust/types"
)

type MeshParameters struct {
	NCells int     `json:"NCells"`
	Length float64 `json:"Length"` // m
	Area   float64 `json:"Area"`   // Cross section, m^2
	Left   string  `json:"Left"`   // Patch types: inlet, outlet or wall
	Right  string  `json:"Right"`
}

// PatchValues are the boundary values of a patch, unset entries take the patch type default
type PatchValues struct {
	U *[3]float64        `json:"U"`
	T *float64           `json:"T"`
	P *float64           `json:"p"`
	Y map[string]float64 `json:"massFractions"` // Inlet mass flux fractions
}

type InitialConditions struct {
	U [3]float64         `json:"U"`
	T float64            `json:"T"`
	P float64            `json:"p"`
	Y map[string]float64 `json:"massFractions"`
}

type ResidualControl struct {
	Tolerance float64 `json:"tolerance"`
	RelTol    float64 `json:"relTol"`
}

type PimpleParameters struct {
	NOuterCorrectors    int                        `json:"nOuterCorrectors"`
	NCorrectors         int                        `json:"nCorrectors"`
	MomentumPredictor   bool                       `json:"momentumPredictor"`
	TurbOnFinalIterOnly bool                       `json:"turbOnFinalIterOnly"`
	ResidualControl     map[string]ResidualControl `json:"residualControl"`
}

type RelaxationFactors struct {
	Fields    map[string]float64 `json:"fields"`
	Equations map[string]float64 `json:"equations"`
}

type TimeControls struct {
	DeltaT         float64 `json:"deltaT"`
	EndTime        float64 `json:"endTime"`
	WriteInterval  float64 `json:"writeInterval"`
	AdjustTimeStep bool    `json:"adjustTimeStep"`
	MaxCo          float64 `json:"maxCo"`
	MaxDeltaT      float64 `json:"maxDeltaT"`
	MaxSteps       int     `json:"maxSteps"`
}

// Free stream fractions for the mixture fraction diagnostic, off when YFInf is zero
type MixtureFraction struct {
	YO2Inf float64 `json:"YO2Inf"`
	YFInf  float64 `json:"YFInf"`
}

// Parameters obtained from the YAML case file
type CaseParameters struct {
	Title           string                        `json:"Title"`
	Mesh            MeshParameters                `json:"Mesh"`
	Species         []thermo.Specie               `json:"Species"`
	InertSpecie     string                        `json:"inertSpecie"`
	Fuel            string                        `json:"fuel"`
	Energy          string                        `json:"energy"` // h or e
	LowMach         bool                          `json:"LowMach"`
	Thermo          thermo.Options                `json:"thermo"`
	Combustion      combustion.Options            `json:"combustion"`
	Radiation       radiation.Options             `json:"radiation"`
	Transport       transport.Options             `json:"transport"`
	Turbulence      turbulence.Options            `json:"turbulence"`
	FvOptions       []fvoptions.Config            `json:"fvOptions"`
	Gravity         [3]float64                    `json:"g"`
	Initial         InitialConditions             `json:"initial"`
	Boundary        map[string]PatchValues        `json:"boundary"` // Keyed by patch name, left or right
	Pimple          PimpleParameters              `json:"PIMPLE"`
	Solvers         map[string]fvm.SolverControls `json:"solvers"`
	Relaxation      RelaxationFactors             `json:"relaxationFactors"`
	Time            TimeControls                  `json:"time"`
	MixtureFraction MixtureFraction               `json:"mixtureFraction"`
}

func (cp *CaseParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, cp)
}

/*
Validate checks everything that can be checked without building the case
and fills in defaults. Errors here are configuration errors, fatal before
time stepping.
*/
func (cp *CaseParameters) Validate() (err error) {
	if cp.Mesh.NCells < 1 || cp.Mesh.Length <= 0 {
		return fmt.Errorf("mesh needs NCells > 0 and Length > 0, have %d, %g", cp.Mesh.NCells, cp.Mesh.Length)
	}
	if cp.Mesh.Area <= 0 {
		cp.Mesh.Area = 1
	}
	for _, pt := range []*string{&cp.Mesh.Left, &cp.Mesh.Right} {
		if *pt == "" {
			*pt = "wall"
		}
		if _, err = types.NewBCFLAG(*pt); err != nil {
			return
		}
	}
	for name := range cp.Boundary {
		if name != "left" && name != "right" {
			return fmt.Errorf("boundary values for unknown patch %q, have left and right", name)
		}
	}
	if len(cp.Species) == 0 {
		return fmt.Errorf("no species defined")
	}
	if cp.InertSpecie == "" {
		return fmt.Errorf("inertSpecie is required")
	}
	if cp.Energy == "" {
		cp.Energy = "h"
	}
	if _, err = thermo.NewEnergyVariable(cp.Energy); err != nil {
		return
	}
	if cp.Thermo.TLow == 0 && cp.Thermo.THigh == 0 {
		cp.Thermo.TLow, cp.Thermo.THigh = thermo.DefaultOptions.TLow, thermo.DefaultOptions.THigh
	}
	if cp.Thermo.Mu == 0 {
		cp.Thermo.Mu = thermo.DefaultOptions.Mu
	}
	if cp.Thermo.Pr == 0 {
		cp.Thermo.Pr = thermo.DefaultOptions.Pr
	}
	if cp.Initial.T <= 0 || cp.Initial.P <= 0 {
		return fmt.Errorf("initial T and p must be positive, have %g, %g", cp.Initial.T, cp.Initial.P)
	}
	if cp.Pimple.NOuterCorrectors < 1 {
		cp.Pimple.NOuterCorrectors = 1
	}
	if cp.Pimple.NCorrectors < 1 {
		cp.Pimple.NCorrectors = 1
	}
	for name, ctrl := range cp.Solvers {
		if !fvm.ValidSolver(ctrl.Solver) {
			return fmt.Errorf("unknown linear solver %q for %s", ctrl.Solver, name)
		}
	}
	for _, factors := range []map[string]float64{cp.Relaxation.Fields, cp.Relaxation.Equations} {
		for name, alpha := range factors {
			if alpha <= 0 || alpha > 1 {
				return fmt.Errorf("relaxation factor for %s must be in (0, 1], have %g", name, alpha)
			}
		}
	}
	tc := &cp.Time
	if tc.DeltaT <= 0 || tc.EndTime <= 0 {
		return fmt.Errorf("time controls need deltaT > 0 and endTime > 0, have %g, %g", tc.DeltaT, tc.EndTime)
	}
	if tc.WriteInterval <= 0 {
		tc.WriteInterval = tc.EndTime
	}
	if tc.AdjustTimeStep {
		if tc.MaxCo <= 0 {
			return fmt.Errorf("adjustTimeStep needs a positive maxCo")
		}
		if tc.MaxDeltaT <= 0 {
			tc.MaxDeltaT = tc.EndTime
		}
	}
	return
}

func (cp *CaseParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%d, %8.5f, %8.5f]\t= Mesh NCells, Length, Area\n", cp.Mesh.NCells, cp.Mesh.Length, cp.Mesh.Area)
	fmt.Printf("[%s, %s]\t\t= Patch types left, right\n", cp.Mesh.Left, cp.Mesh.Right)
	fmt.Printf("%v\t= Species\n", speciesNames(cp.Species))
	fmt.Printf("[%s]\t\t\t= Inert specie\n", cp.InertSpecie)
	fmt.Printf("[%s]\t\t\t= Fuel\n", cp.Fuel)
	fmt.Printf("[%s]\t\t\t= Energy variable, LowMach = %v\n", cp.Energy, cp.LowMach)
	fmt.Printf("[%s]\t= Combustion\n", orNone(cp.Combustion.Model))
	fmt.Printf("[%s]\t\t\t= Radiation\n", orNone(cp.Radiation.Model))
	fmt.Printf("[%s]\t= Transport\n", cp.Transport.Model)
	fmt.Printf("[%s]\t\t= Turbulence\n", cp.Turbulence.Model)
	fmt.Printf("[%d, %d]\t\t\t= PIMPLE outer, pressure correctors\n", cp.Pimple.NOuterCorrectors, cp.Pimple.NCorrectors)
	fmt.Printf("%8.5g\t\t= deltaT\n", cp.Time.DeltaT)
	fmt.Printf("%8.5g\t\t= endTime\n", cp.Time.EndTime)
	keys := make([]string, len(cp.Solvers))
	i := 0
	for k := range cp.Solvers {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("Solvers[%s] = %v\n", key, cp.Solvers[key])
	}
	for _, fvo := range cp.FvOptions {
		fmt.Printf("fvOptions[%s]\n", fvo.Type)
	}
}

func speciesNames(species []thermo.Specie) (names []string) {
	for _, s := range species {
		names = append(names, s.Name)
	}
	return
}

func orNone(name string) string {
	if name == "" {
		return "none"
	}
	return name
}
