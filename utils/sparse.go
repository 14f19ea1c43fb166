package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// DOK is the assembly form: coefficients are accumulated by (i,j) and then
// frozen into CSR for the iterative solvers.
type DOK struct {
	M        *sparse.DOK
	readOnly bool
	name     string
}

func NewDOK(nr, nc int) (R DOK) {
	R = DOK{
		sparse.NewDOK(nr, nc),
		false,
		"unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m DOK) Dims() (r, c int)    { return m.M.Dims() }
func (m DOK) At(i, j int) float64 { return m.M.At(i, j) }
func (m DOK) T() mat.Matrix       { return m.M.T() }

func (m *DOK) SetReadOnly(name ...string) DOK {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return *m
}

// AddAt accumulates val into (i,j)
func (m DOK) AddAt(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, m.M.At(i, j)+val)
	return m
}

func (m DOK) Set(i, j int, val float64) DOK { // Changes receiver
	m.checkWritable()
	m.M.Set(i, j, val)
	return m
}

func (m DOK) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m DOK) ToCSR() CSR {
	return CSR{
		M:    m.M.ToCSR(),
		name: m.name,
	}
}

type CSR struct {
	M    *sparse.CSR
	name string
}

// Dims, At and T minimally satisfy the mat.Matrix interface.
func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) T() mat.Matrix                 { return m.M.T() }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) Data() []float64 {
	return m.RawMatrix().Data
}

// MulVec computes y = A*x over the CSR rows, partitioned by pm when pm is
// not nil. y must not alias x.
func (m CSR) MulVec(x, y []float64, pm *PartitionMap) []float64 {
	var (
		raw    = m.RawMatrix()
		nr, nc = m.Dims()
	)
	if len(x) != nc || len(y) != nr {
		panic(fmt.Errorf("dimension mismatch in MulVec: A is %dx%d, len(x) = %d, len(y) = %d",
			nr, nc, len(x), len(y)))
	}
	rows := func(iMin, iMax int) {
		for i := iMin; i < iMax; i++ {
			var sum float64
			for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
				sum += raw.Data[jj] * x[raw.Ind[jj]]
			}
			y[i] = sum
		}
	}
	if pm == nil {
		rows(0, nr)
	} else {
		pm.Apply(rows)
	}
	return y
}

// ToDense copies into a gonum dense matrix, used by the direct solver
func (m CSR) ToDense() *mat.Dense {
	var (
		nr, nc = m.Dims()
		raw    = m.RawMatrix()
		D      = mat.NewDense(nr, nc, nil)
	)
	for i := 0; i < nr; i++ {
		for jj := raw.Indptr[i]; jj < raw.Indptr[i+1]; jj++ {
			D.Set(i, raw.Ind[jj], D.At(i, raw.Ind[jj])+raw.Data[jj])
		}
	}
	return D
}
