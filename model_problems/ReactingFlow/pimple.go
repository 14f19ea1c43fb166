package ReactingFlow

import (
	"github.com/notargets/gocombust/InputParameters"
	"github.com/notargets/gocombust/fvm"
)

/*
PimpleControl is the outer loop state of one time step. Loop runs between 1
and NOuterCorrectors passes; with residual control the pass after the
criteria are met is the final one. Correct runs the pressure correctors of
a pass.
*/
type PimpleControl struct {
	NOuterCorrectors    int
	NCorrectors         int
	MomentumPredictor   bool
	TurbOnFinalIterOnly bool
	ResidualControl     map[string]InputParameters.ResidualControl
	corr, corrPISO      int
	converged           bool
	first, current      map[string]float64 // Initial residuals of the first and current pass
}

func NewPimpleControl(pp InputParameters.PimpleParameters) *PimpleControl {
	return &PimpleControl{
		NOuterCorrectors:    max(1, pp.NOuterCorrectors),
		NCorrectors:         max(1, pp.NCorrectors),
		MomentumPredictor:   pp.MomentumPredictor,
		TurbOnFinalIterOnly: pp.TurbOnFinalIterOnly,
		ResidualControl:     pp.ResidualControl,
		first:               make(map[string]float64),
		current:             make(map[string]float64),
	}
}

func (pc *PimpleControl) Loop() bool {
	if pc.corr > 0 && pc.FinalIter() {
		pc.corr, pc.corrPISO, pc.converged = 0, 0, false
		pc.first, pc.current = make(map[string]float64), make(map[string]float64)
		return false
	}
	if pc.corr > 0 && pc.criteriaSatisfied() {
		pc.converged = true
	}
	pc.corr++
	pc.current = make(map[string]float64)
	return true
}

func (pc *PimpleControl) Corr() int { return pc.corr }

func (pc *PimpleControl) FinalIter() bool {
	return pc.corr >= pc.NOuterCorrectors || pc.converged
}

func (pc *PimpleControl) Converged() bool { return pc.converged }

func (pc *PimpleControl) Correct() bool {
	if pc.corrPISO >= pc.NCorrectors {
		pc.corrPISO = 0
		return false
	}
	pc.corrPISO++
	return true
}

func (pc *PimpleControl) FinalInnerIter() bool {
	return pc.FinalIter() && pc.corrPISO == pc.NCorrectors
}

func (pc *PimpleControl) TurbCorr() bool {
	return !pc.TurbOnFinalIterOnly || pc.FinalIter()
}

// Record keeps the largest initial residual of a controlled key in the current pass
func (pc *PimpleControl) Record(key string, perf fvm.SolverPerformance) {
	if _, ok := pc.ResidualControl[key]; !ok {
		return
	}
	if r, ok := pc.current[key]; !ok || perf.InitialResidual > r {
		pc.current[key] = perf.InitialResidual
	}
	if pc.corr == 1 {
		pc.first[key] = pc.current[key]
	}
}

func (pc *PimpleControl) criteriaSatisfied() bool {
	if len(pc.ResidualControl) == 0 {
		return false
	}
	checked := false
	for key, rc := range pc.ResidualControl {
		r, ok := pc.current[key]
		if !ok {
			continue
		}
		checked = true
		absCheck := r < rc.Tolerance
		relCheck := false
		if first := pc.first[key]; rc.RelTol > 0 && first > 0 {
			relCheck = r/first < rc.RelTol
		}
		if !absCheck && !relCheck {
			return false
		}
	}
	return checked
}

/*
Solution looks up linear solver controls and relaxation factors by field
name. On the final outer pass the "Final" entries apply; without one the
solver controls drop relTol and the equation is not relaxed. An
unconfigured factor reads as 0, which Relax ignores, so matrices without
a factor keep their diagonal as assembled.
*/
type Solution struct {
	Solvers    map[string]fvm.SolverControls
	Relaxation InputParameters.RelaxationFactors
}

func (s Solution) SolverControls(name string, final bool) (ctrl fvm.SolverControls) {
	var ok bool
	if final {
		if ctrl, ok = s.Solvers[name+"Final"]; ok {
			return
		}
	}
	if ctrl, ok = s.Solvers[name]; !ok {
		ctrl = fvm.DefaultSolverControls
	}
	if final {
		ctrl.RelTol = 0
	}
	return
}

func (s Solution) EquationRelaxation(name string, final bool) float64 {
	return lookupFactor(s.Relaxation.Equations, name, final)
}

func (s Solution) FieldRelaxation(name string, final bool) float64 {
	return lookupFactor(s.Relaxation.Fields, name, final)
}

func lookupFactor(factors map[string]float64, name string, final bool) float64 {
	if final {
		name += "Final"
	}
	if alpha, ok := factors[name]; ok {
		return alpha
	}
	return 0
}
