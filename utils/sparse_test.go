package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSparse(t *testing.T) {
	{ // Assemble a tridiagonal system and multiply
		var (
			N = 5
			A = NewDOK(N, N)
		)
		for i := 0; i < N; i++ {
			A.AddAt(i, i, 2)
			if i > 0 {
				A.AddAt(i, i-1, -1)
			}
			if i < N-1 {
				A.AddAt(i, i+1, -1)
			}
		}
		A.AddAt(0, 0, 1) // accumulate on an existing entry
		assert.Equal(t, 3., A.At(0, 0))
		C := A.ToCSR()
		x := []float64{1, 1, 1, 1, 1}
		y := C.MulVec(x, make([]float64, N), nil)
		assert.InDeltaSlice(t, []float64{2, 0, 0, 0, 1}, y, 1.e-14)
		yp := C.MulVec(x, make([]float64, N), NewPartitionMap(3, N))
		assert.InDeltaSlice(t, y, yp, 1.e-14)
		D := C.ToDense()
		for i := 0; i < N; i++ {
			for j := 0; j < N; j++ {
				assert.Equal(t, A.At(i, j), D.At(i, j))
			}
		}
	}
	{ // Read only matrices refuse writes
		A := NewDOK(2, 2)
		A.SetReadOnly("A")
		assert.Panics(t, func() { A.Set(0, 0, 1) })
	}
}
