package types

import (
	"fmt"
	"strings"
)

// Dimensions holds SI exponents: [kg, m, s, K, mol]
type Dimensions [5]int8

var (
	DimLess         = Dimensions{}
	DimMass         = Dimensions{1, 0, 0, 0, 0}
	DimLength       = Dimensions{0, 1, 0, 0, 0}
	DimTime         = Dimensions{0, 0, 1, 0, 0}
	DimTemperature  = Dimensions{0, 0, 0, 1, 0}
	DimMoles        = Dimensions{0, 0, 0, 0, 1}
	DimDensity      = Dimensions{1, -3, 0, 0, 0}
	DimVelocity     = Dimensions{0, 1, -1, 0, 0}
	DimPressure     = Dimensions{1, -1, -2, 0, 0}
	DimEnergy       = Dimensions{1, 2, -2, 0, 0}
	DimSpecificE    = Dimensions{0, 2, -2, 0, 0}  // J/kg
	DimPowerDensity = Dimensions{1, -1, -3, 0, 0} // W/m^3
	DimMassFlux     = Dimensions{1, 0, -1, 0, 0}  // kg/s through a face
	DimPressureRate = Dimensions{1, -1, -3, 0, 0} // Pa/s
	DimCompress     = Dimensions{0, -2, 2, 0, 0}  // s^2/m^2
	DimViscosity    = Dimensions{1, -1, -1, 0, 0} // kg/m/s
)

func (d Dimensions) Mul(o Dimensions) (r Dimensions) {
	for i := range d {
		r[i] = d[i] + o[i]
	}
	return
}

func (d Dimensions) Div(o Dimensions) (r Dimensions) {
	for i := range d {
		r[i] = d[i] - o[i]
	}
	return
}

func (d Dimensions) String() string {
	var parts = make([]string, len(d))
	for i, v := range d {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
