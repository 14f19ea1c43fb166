package fvm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gocombust/utils"
)

type SolverControls struct {
	Solver    string  `json:"solver"`
	Tolerance float64 `json:"tolerance"`
	RelTol    float64 `json:"relTol"`
	MaxIter   int     `json:"maxIter"`
	MinIter   int     `json:"minIter"`
}

var DefaultSolverControls = SolverControls{
	Solver:    "PBiCGStab",
	Tolerance: 1.e-8,
	RelTol:    0,
	MaxIter:   1000,
}

type SolverPerformance struct {
	SolverName      string
	FieldName       string
	InitialResidual float64
	FinalResidual   float64
	NIterations     int
	Converged       bool
}

func (sp SolverPerformance) String() string {
	return fmt.Sprintf("%s:  Solving for %s, Initial residual = %8.5g, Final residual = %8.5g, No Iterations %d",
		sp.SolverName, sp.FieldName, sp.InitialResidual, sp.FinalResidual, sp.NIterations)
}

type linearSolver func(m *Matrix, A utils.CSR, x, b []float64, ctrl SolverControls, perf *SolverPerformance) error

var solvers = map[string]linearSolver{
	"PBiCGStab":    solvePBiCGStab,
	"GaussSeidel":  solveGaussSeidel,
	"smoothSolver": solveGaussSeidel,
	"direct":       solveDirect,
}

func ValidSolver(name string) bool {
	_, ok := solvers[name]
	return ok
}

func SolverNames() (names []string) {
	for name := range solvers {
		names = append(names, name)
	}
	sort.Strings(names)
	return
}

// assemble freezes the LDU form, boundary contributions included, into CSR
func (m *Matrix) assemble() (A utils.CSR, b []float64) {
	var (
		mesh = m.Psi.Mesh
		n    = mesh.NCells
		D    = m.diagWithBoundary()
		dok  = utils.NewDOK(n, n)
	)
	for i, d := range D {
		dok.Set(i, i, d)
	}
	for f, P := range mesh.Owner {
		N := mesh.Neighbour[f]
		dok.AddAt(P, N, m.Upper[f])
		dok.AddAt(N, P, m.Lower[f])
	}
	dok.SetReadOnly("A(" + m.Psi.Name + ")")
	A = dok.ToCSR()
	b = m.fullSource()
	return
}

/*
Solve inverts the matrix for psi in place and re-evaluates its boundary
conditions. Residuals are normalised so that a converged field reads near
zero independent of its magnitude.
*/
func (m *Matrix) Solve(ctrl SolverControls) (perf SolverPerformance, err error) {
	var (
		solve, ok = solvers[ctrl.Solver]
		x         = append([]float64{}, m.Psi.Values...)
	)
	perf = SolverPerformance{SolverName: ctrl.Solver, FieldName: m.Psi.Name}
	if !ok {
		err = fmt.Errorf("unknown linear solver %q for field %s", ctrl.Solver, m.Psi.Name)
		return
	}
	A, b := m.assemble()
	perf.InitialResidual = m.normalisedResidual(x, b)
	perf.FinalResidual = perf.InitialResidual
	if converged(perf, ctrl) && ctrl.MinIter == 0 {
		perf.Converged = true
		return
	}
	if err = solve(m, A, x, b, ctrl, &perf); err != nil {
		return
	}
	if utils.IsNan(x) {
		err = fmt.Errorf("solution for %s diverged after %d iterations", m.Psi.Name, perf.NIterations)
		return
	}
	perf.Converged = converged(perf, ctrl)
	m.Psi.Assign(x)
	return
}

func converged(perf SolverPerformance, ctrl SolverControls) bool {
	return perf.FinalResidual == 0 || perf.FinalResidual < ctrl.Tolerance ||
		(ctrl.RelTol > 0 && perf.FinalResidual < ctrl.RelTol*perf.InitialResidual)
}

func maxIter(ctrl SolverControls) int {
	if ctrl.MaxIter <= 0 {
		return DefaultSolverControls.MaxIter
	}
	return ctrl.MaxIter
}

const vSmall = 1.e-300

// breakdown reports a dot product too small relative to its operands to divide by
func breakdown(dot float64, a, b []float64) bool {
	mag := math.Sqrt(floats.Dot(a, a) * floats.Dot(b, b))
	return math.Abs(dot) < vSmall || math.Abs(dot) < 1.e-15*mag || math.IsNaN(dot)
}

func solvePBiCGStab(m *Matrix, A utils.CSR, x, b []float64, ctrl SolverControls, perf *SolverPerformance) (err error) {
	var (
		n     = len(x)
		pm    = m.Psi.Mesh.Partitions
		rD    = make([]float64, n)
		r     = make([]float64, n)
		r0    = make([]float64, n)
		p     = make([]float64, n)
		v     = make([]float64, n)
		s     = make([]float64, n)
		t     = make([]float64, n)
		y     = make([]float64, n)
		z     = make([]float64, n)
		rho   = 1.
		alpha = 1.
		omega = 1.
	)
	raw := A.RawMatrix()
	for i := 0; i < n; i++ {
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			if raw.Ind[jj] == i {
				rD[i] = 1. / raw.Data[jj]
			}
		}
	}
	precondition := func(dst, src []float64) { floats.MulTo(dst, rD, src) }
	A.MulVec(x, r, pm)
	floats.SubTo(r, b, r)
	copy(r0, r)
	for it := 0; it < maxIter(ctrl); it++ {
		rhoOld := rho
		rho = floats.Dot(r0, r)
		if breakdown(rho, r0, r) {
			break
		}
		if it == 0 {
			copy(p, r)
		} else {
			beta := (rho / rhoOld) * (alpha / omega)
			// p = r + beta*(p - omega*v)
			floats.AddScaled(p, -omega, v)
			floats.Scale(beta, p)
			floats.Add(p, r)
		}
		precondition(y, p)
		A.MulVec(y, v, pm)
		r0v := floats.Dot(r0, v)
		if breakdown(r0v, r0, v) {
			break
		}
		alpha = rho / r0v
		floats.AddScaledTo(s, r, -alpha, v)
		floats.AddScaled(x, alpha, y)
		perf.NIterations = it + 1
		if perf.FinalResidual = m.normalisedResidual(x, b); converged(*perf, ctrl) && perf.NIterations >= ctrl.MinIter {
			return
		}
		precondition(z, s)
		A.MulVec(z, t, pm)
		tt := floats.Dot(t, t)
		if tt < vSmall {
			return
		}
		if omega = floats.Dot(t, s) / tt; omega == 0 {
			// Stagnation, the next beta would divide by zero
			return
		}
		floats.AddScaled(x, omega, z)
		floats.AddScaledTo(r, s, -omega, t)
		if perf.FinalResidual = m.normalisedResidual(x, b); converged(*perf, ctrl) && perf.NIterations >= ctrl.MinIter {
			return
		}
	}
	return
}

func solveGaussSeidel(m *Matrix, A utils.CSR, x, b []float64, ctrl SolverControls, perf *SolverPerformance) (err error) {
	var (
		raw = A.RawMatrix()
		n   = len(x)
	)
	for it := 0; it < maxIter(ctrl); it++ {
		for i := 0; i < n; i++ {
			var (
				sum  = b[i]
				diag float64
			)
			for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
				if j := raw.Ind[jj]; j == i {
					diag = raw.Data[jj]
				} else {
					sum -= raw.Data[jj] * x[j]
				}
			}
			if diag == 0 {
				return fmt.Errorf("zero diagonal in row %d of %s", i, m.Psi.Name)
			}
			x[i] = sum / diag
		}
		perf.NIterations = it + 1
		if perf.FinalResidual = m.normalisedResidual(x, b); converged(*perf, ctrl) && perf.NIterations >= ctrl.MinIter {
			break
		}
	}
	return
}

func solveDirect(m *Matrix, A utils.CSR, x, b []float64, ctrl SolverControls, perf *SolverPerformance) (err error) {
	var (
		lu  mat.LU
		n   = len(x)
		sol = mat.NewVecDense(n, nil)
	)
	lu.Factorize(A.ToDense())
	err = lu.SolveVecTo(sol, false, mat.NewVecDense(n, append([]float64{}, b...)))
	if _, illConditioned := err.(mat.Condition); illConditioned {
		err = nil
	}
	if err != nil {
		err = fmt.Errorf("direct solve for %s: %w", m.Psi.Name, err)
		return
	}
	copy(x, sol.RawVector().Data)
	perf.NIterations = 1
	perf.FinalResidual = m.normalisedResidual(x, b)
	return
}
