package ReactingFlow

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/utils"
)

func (c *Case) Solve() (err error) {
	var (
		steps    int
		elapsed  time.Duration
		finished bool
	)
	c.PrintInitialization()
	c.startClock = time.Now()
	if c.Writer != nil {
		if err = c.Writer.Write(c); err != nil {
			return
		}
	}
	for !finished {
		start := time.Now()
		if err = c.Step(); err != nil {
			return
		}
		elapsed += time.Since(start)
		steps++
		finished = c.CheckIfFinished(steps)
	}
	c.PrintFinal(elapsed, steps)
	return
}

func (c *Case) CheckIfFinished(steps int) (finished bool) {
	var (
		tc = c.TimeControls
		rt = c.Mesh.Time
	)
	if rt.Value >= tc.EndTime-1.e-9*rt.DeltaT || (tc.MaxSteps > 0 && steps >= tc.MaxSteps) {
		finished = true
	}
	return
}

/*
Step advances one time step:

	rho equation, transport update
	outer loop: momentum, species and energy, mole fractions,
	            pressure correctors, turbulence
	rho = thermo rho, checkpoint, clocks
*/
func (c *Case) Step() (err error) {
	var (
		start = time.Now()
		rt    = c.Mesh.Time
		UEqn  [3]*fvm.Matrix
	)
	rt.Advance(c.setDeltaT())
	c.storeOldTime()
	c.log.WithField("deltaT", rt.DeltaT).Infof("Time = %g", rt.Value)

	c.SolveContinuity()
	if err = c.Transport.Update(); err != nil {
		return fmt.Errorf("%w: transport: %w", ErrCollaborator, err)
	}
	for c.Pimple.Loop() {
		c.Metrics.OuterIteration()
		if UEqn, err = c.MomentumEquations(); err != nil {
			return
		}
		if err = c.SolveSpeciesAndEnergy(c.Pimple.Corr() == 1); err != nil {
			return
		}
		if err = c.MoleFractions.Update(); err != nil {
			return fmt.Errorf("%w: mole fractions: %w", ErrCollaborator, err)
		}
		for c.Pimple.Correct() {
			if err = c.CorrectPressure(UEqn); err != nil {
				return
			}
		}
		if c.Pimple.TurbCorr() {
			if err = c.Turbulence.Correct(); err != nil {
				return fmt.Errorf("%w: turbulence: %w", ErrCollaborator, err)
			}
		}
	}
	c.Thermo.UpdateRho(c.Rho)

	written := false
	if c.Writer != nil && (c.Writer.Due(rt.Value, rt.DeltaT) || c.CheckIfFinished(0)) {
		if err = c.Writer.Write(c); err != nil {
			return
		}
		written = true
	}
	c.Metrics.Step(rt.Value, time.Since(start))
	c.executionTime += time.Since(start)
	c.log.WithFields(logrus.Fields{
		"written": written,
		"mem":     utils.GetMemUsage(),
	}).Infof("ExecutionTime = %.3f s  ClockTime = %.3f s",
		c.executionTime.Seconds(), time.Since(c.startClock).Seconds())
	return
}

/*
SolveSpeciesAndEnergy runs the scalar transport of one outer pass. The
combustion and radiation models are corrected on the first pass of a time
step only; later passes reuse their state.
*/
func (c *Case) SolveSpeciesAndEnergy(correctSources bool) (err error) {
	if correctSources {
		if err = c.Combustion.Correct(); err != nil {
			return fmt.Errorf("%w: combustion: %w", ErrCollaborator, err)
		}
	}
	c.DQ.Assign(c.Combustion.Sh())
	var Yt []float64
	if Yt, err = c.SolveSpecies(); err != nil {
		return
	}
	c.Closure(Yt)
	c.ReportSpecies()
	if c.Ft != nil {
		c.updateMixtureFraction()
	}
	if correctSources {
		if err = c.Radiation.Correct(); err != nil {
			return fmt.Errorf("%w: radiation: %w", ErrCollaborator, err)
		}
	}
	return c.SolveEnergy()
}

func (c *Case) storeOldTime() {
	for _, f := range []*fvm.ScalarField{c.Rho, c.Thermo.Psi, c.Thermo.P, c.Thermo.HE, c.K} {
		f.StoreOldTime()
	}
	for _, Y := range c.Y {
		Y.StoreOldTime()
	}
	c.U.StoreOldTime()
}

/*
setDeltaT returns the next time step. With adjustTimeStep the step follows
maxCo, growing by at most 20% per step and capped by maxDeltaT. The step is
shortened to land on endTime.
*/
func (c *Case) setDeltaT() (dt float64) {
	var (
		tc            = c.TimeControls
		rt            = c.Mesh.Time
		meanCo, maxCo = c.CourantNumber()
	)
	dt = rt.DeltaT
	c.log.WithFields(logrus.Fields{"mean": meanCo, "max": maxCo}).Info("Courant Number")
	if tc.AdjustTimeStep {
		maxDeltaFact := tc.MaxCo / (maxCo + math.SmallestNonzeroFloat64)
		deltaTFact := math.Min(math.Min(maxDeltaFact, 1+0.1*maxDeltaFact), 1.2)
		dt = math.Min(deltaTFact*dt, tc.MaxDeltaT)
	}
	if remaining := tc.EndTime - rt.Value; dt > remaining && remaining > 0 {
		dt = remaining
	}
	return
}

func (c *Case) PrintInitialization() {
	var (
		tc = c.TimeControls
		pc = c.Pimple
	)
	fmt.Printf("Reacting flow case \"%s\", run %s\n", c.Title, c.RunID)
	fmt.Printf("Using %d go routines in parallel\n", c.Mesh.Partitions.ParallelDegree)
	fmt.Printf("Cells = %d, Species = %v, inert = %s\n",
		c.Mesh.NCells, c.Species.Names(), c.Species.Species[c.Species.Inert].Name)
	fmt.Printf("Energy variable = %s, LowMach = %v\n", c.Thermo.Energy, c.LowMach)
	fmt.Printf("PIMPLE: nOuterCorrectors = %d, nCorrectors = %d, momentumPredictor = %v\n",
		pc.NOuterCorrectors, pc.NCorrectors, pc.MomentumPredictor)
	fmt.Printf("Solving until endTime = %8.5g, deltaT = %8.5g\n\n", tc.EndTime, tc.DeltaT)
}

func (c *Case) PrintFinal(elapsed time.Duration, steps int) {
	rate := float64(elapsed.Microseconds()) / float64(c.Mesh.NCells*max(1, steps))
	fmt.Printf("\nRate of execution = %8.5f us/(cell*step) over %d steps\n", rate, steps)
	fmt.Printf("End\n")
}
