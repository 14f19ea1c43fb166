package utils

import (
	"math"
)

func ConstArray(N int, val float64) (v []float64) {
	v = make([]float64, N)
	for i := range v {
		v[i] = val
	}
	return
}

// POW is x^p for integer p by repeated squaring, small powers like T^4 stay exact
func POW(x float64, p int) (y float64) {
	if p > 32 || p < -32 {
		return math.Pow(x, float64(p))
	}
	n := p
	if n < 0 {
		n = -n
	}
	y = 1
	for b := x; n > 0; n >>= 1 {
		if n&1 == 1 {
			y *= b
		}
		b *= b
	}
	if p < 0 {
		y = 1 / y
	}
	return
}

// Clip bounds x to [lo, hi]
func Clip(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
