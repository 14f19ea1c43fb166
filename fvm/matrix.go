package fvm

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gocombust/utils"
)

/*
Matrix is the volume integrated discrete form of an equation in psi:

	expression = A*psi - Source

with A split into Diag, Lower and Upper, LDU addressed by the mesh faces.
Upper[f] couples row Owner[f] to column Neighbour[f], Lower[f] the reverse.
Boundary faces add InternalCoeffs to the diagonal and BoundaryCoeffs to the
source at solve time.
*/
type Matrix struct {
	Psi            *ScalarField
	Diag           []float64
	Lower, Upper   []float64
	Source         []float64
	InternalCoeffs [][]float64
	BoundaryCoeffs [][]float64
	terms          []string
}

func NewMatrix(psi *ScalarField) (m *Matrix) {
	var (
		mesh = psi.Mesh
		nf   = mesh.NInternalFaces()
	)
	m = &Matrix{
		Psi:            psi,
		Diag:           make([]float64, mesh.NCells),
		Lower:          make([]float64, nf),
		Upper:          make([]float64, nf),
		Source:         make([]float64, mesh.NCells),
		InternalCoeffs: make([][]float64, len(mesh.Patches)),
		BoundaryCoeffs: make([][]float64, len(mesh.Patches)),
	}
	for p, patch := range mesh.Patches {
		m.InternalCoeffs[p] = make([]float64, patch.Size())
		m.BoundaryCoeffs[p] = make([]float64, patch.Size())
	}
	return
}

// Terms lists the names of the terms assembled into the matrix, signed
func (m *Matrix) Terms() []string { return m.terms }

func (m *Matrix) HasTerm(name string) bool {
	for _, t := range m.terms {
		if strings.TrimLeft(t, "+-") == name {
			return true
		}
	}
	return false
}

func (m *Matrix) named(name string) *Matrix {
	m.terms = append(m.terms, "+"+name)
	return m
}

func (m *Matrix) checkPsi(b *Matrix) {
	if m.Psi != b.Psi {
		panic(fmt.Errorf("incompatible matrices for fields %s and %s", m.Psi.Name, b.Psi.Name))
	}
}

func (m *Matrix) Clone() (c *Matrix) {
	c = NewMatrix(m.Psi)
	copy(c.Diag, m.Diag)
	copy(c.Lower, m.Lower)
	copy(c.Upper, m.Upper)
	copy(c.Source, m.Source)
	for p := range m.InternalCoeffs {
		copy(c.InternalCoeffs[p], m.InternalCoeffs[p])
		copy(c.BoundaryCoeffs[p], m.BoundaryCoeffs[p])
	}
	c.terms = append([]string{}, m.terms...)
	return
}

func (m *Matrix) axpy(alpha float64, b *Matrix) *Matrix {
	m.checkPsi(b)
	floats.AddScaled(m.Diag, alpha, b.Diag)
	floats.AddScaled(m.Lower, alpha, b.Lower)
	floats.AddScaled(m.Upper, alpha, b.Upper)
	floats.AddScaled(m.Source, alpha, b.Source)
	for p := range m.InternalCoeffs {
		floats.AddScaled(m.InternalCoeffs[p], alpha, b.InternalCoeffs[p])
		floats.AddScaled(m.BoundaryCoeffs[p], alpha, b.BoundaryCoeffs[p])
	}
	for _, t := range b.terms {
		if alpha < 0 {
			t = flipSign(t)
		}
		m.terms = append(m.terms, t)
	}
	return m
}

// Add merges b into m in place and returns m
func (m *Matrix) Add(b *Matrix) *Matrix { return m.axpy(1, b) }

// Sub subtracts b from m in place, also used for "m == b" with b implicit
func (m *Matrix) Sub(b *Matrix) *Matrix { return m.axpy(-1, b) }

func (m *Matrix) Neg() *Matrix {
	floats.Scale(-1, m.Diag)
	floats.Scale(-1, m.Lower)
	floats.Scale(-1, m.Upper)
	floats.Scale(-1, m.Source)
	for p := range m.InternalCoeffs {
		floats.Scale(-1, m.InternalCoeffs[p])
		floats.Scale(-1, m.BoundaryCoeffs[p])
	}
	for i, t := range m.terms {
		m.terms[i] = flipSign(t)
	}
	return m
}

// AddExplicit adds a per volume explicit term q to the expression
func (m *Matrix) AddExplicit(name string, q []float64) *Matrix {
	for i, v := range q {
		m.Source[i] -= v * m.Psi.Mesh.V[i]
	}
	return m.named(name)
}

// Equals moves a per volume explicit right hand side q into the matrix
func (m *Matrix) Equals(name string, q []float64) *Matrix {
	for i, v := range q {
		m.Source[i] += v * m.Psi.Mesh.V[i]
	}
	m.terms = append(m.terms, "-"+name)
	return m
}

// diagWithBoundary is the diagonal including boundary internal coefficients
func (m *Matrix) diagWithBoundary() (D []float64) {
	D = append([]float64{}, m.Diag...)
	for p, patch := range m.Psi.Mesh.Patches {
		for i, celli := range patch.FaceCells {
			D[celli] += m.InternalCoeffs[p][i]
		}
	}
	return
}

/*
Relax applies implicit under-relaxation and enforces diagonal dominance:

	D' = max(|D|, sum|offdiag|)/alpha,  Source += (D' - D)*psi

alpha outside (0, 1] leaves the matrix unchanged.
*/
func (m *Matrix) Relax(alpha float64) *Matrix {
	if alpha <= 0 || alpha > 1 {
		return m
	}
	var (
		mesh   = m.Psi.Mesh
		D      = m.diagWithBoundary()
		sumOff = make([]float64, mesh.NCells)
	)
	for f, P := range mesh.Owner {
		N := mesh.Neighbour[f]
		sumOff[P] += math.Abs(m.Upper[f])
		sumOff[N] += math.Abs(m.Lower[f])
	}
	for i := range D {
		Dn := math.Max(math.Abs(D[i]), sumOff[i]) / alpha
		m.Source[i] += (Dn - D[i]) * m.Psi.Values[i]
		m.Diag[i] += Dn - D[i]
	}
	return m
}

// SetValues constrains psi in cells to values, eliminating their couplings
func (m *Matrix) SetValues(cells []int, values []float64) {
	var (
		mesh  = m.Psi.Mesh
		fixed = make(map[int]float64, len(cells))
	)
	for i, c := range cells {
		fixed[c] = values[i]
		m.Psi.Values[c] = values[i]
	}
	for f, P := range mesh.Owner {
		N := mesh.Neighbour[f]
		if v, ok := fixed[P]; ok {
			if _, nFixed := fixed[N]; !nFixed {
				m.Source[N] -= m.Lower[f] * v
			}
			m.Lower[f], m.Upper[f] = 0, 0
		}
		if v, ok := fixed[N]; ok {
			if _, pFixed := fixed[P]; !pFixed {
				m.Source[P] -= m.Upper[f] * v
			}
			m.Lower[f], m.Upper[f] = 0, 0
		}
	}
	D := m.diagWithBoundary()
	for p, patch := range mesh.Patches {
		for i, celli := range patch.FaceCells {
			if _, ok := fixed[celli]; ok {
				m.BoundaryCoeffs[p][i] = 0
			}
		}
	}
	for c, v := range fixed {
		if D[c] == 0 {
			m.Diag[c] = mesh.V[c]
			D[c] = mesh.V[c]
		}
		m.Source[c] = D[c] * v
	}
}

// A is the per volume diagonal
func (m *Matrix) A() (a []float64) {
	a = m.diagWithBoundary()
	for i := range a {
		a[i] /= m.Psi.Mesh.V[i]
	}
	return
}

// H is the per volume off diagonal residual: (b - offdiag*psi)/V
func (m *Matrix) H() (h []float64) {
	var (
		mesh = m.Psi.Mesh
		psi  = m.Psi.Values
	)
	h = m.fullSource()
	for f, P := range mesh.Owner {
		N := mesh.Neighbour[f]
		h[P] -= m.Upper[f] * psi[N]
		h[N] -= m.Lower[f] * psi[P]
	}
	for i := range h {
		h[i] /= mesh.V[i]
	}
	return
}

func (m *Matrix) fullSource() (b []float64) {
	b = append([]float64{}, m.Source...)
	for p, patch := range m.Psi.Mesh.Patches {
		for i, celli := range patch.FaceCells {
			b[celli] += m.BoundaryCoeffs[p][i]
		}
	}
	return
}

// Amul returns A*x including boundary internal coefficients
func (m *Matrix) Amul(x []float64) (y []float64) {
	var (
		mesh = m.Psi.Mesh
		D    = m.diagWithBoundary()
	)
	y = make([]float64, len(x))
	mesh.Partitions.Apply(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			y[i] = D[i] * x[i]
		}
	})
	for f, P := range mesh.Owner {
		N := mesh.Neighbour[f]
		y[P] += m.Upper[f] * x[N]
		y[N] += m.Lower[f] * x[P]
	}
	return
}

// Residual is the normalised residual of psi
func (m *Matrix) Residual() float64 {
	return m.normalisedResidual(m.Psi.Values, m.fullSource())
}

func (m *Matrix) normalisedResidual(x, b []float64) float64 {
	var (
		n    = len(x)
		xRef = 0.
		Ax   = m.Amul(x)
		res   = 0.
		norm  = 0.
		scale = 0.
	)
	for _, v := range x {
		xRef += v
	}
	xRef /= float64(n)
	pA := m.Amul(utils.ConstArray(n, xRef))
	for i := range x {
		res += math.Abs(b[i] - Ax[i])
		norm += math.Abs(Ax[i]-pA[i]) + math.Abs(b[i]-pA[i])
		scale += math.Abs(b[i]) + math.Abs(Ax[i])
	}
	// res <= norm, so a norm at round off of the source means psi is uniform
	// and already satisfies the system
	if norm <= 1.e-12*scale {
		return 0
	}
	return res / (norm + 1.e-20)
}

func flipSign(t string) string {
	switch {
	case strings.HasPrefix(t, "+"):
		return "-" + t[1:]
	case strings.HasPrefix(t, "-"):
		return "+" + t[1:]
	}
	return "-" + t
}
