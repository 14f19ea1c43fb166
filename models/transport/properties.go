package transport

import (
	"math"

	"github.com/notargets/gocombust/thermo"
)

// Neufeld, Janzen and Aziz fits of the Lennard-Jones collision integrals
func omega22(Tstar float64) float64 {
	return 1.16145*math.Pow(Tstar, -0.14874) +
		0.52487*math.Exp(-0.77320*Tstar) +
		2.16178*math.Exp(-2.43787*Tstar)
}

func omega11(Tstar float64) float64 {
	return 1.06036*math.Pow(Tstar, -0.15610) +
		0.19300*math.Exp(-0.47635*Tstar) +
		1.03587*math.Exp(-1.52996*Tstar) +
		1.76474*math.Exp(-3.89411*Tstar)
}

// SpecieViscosity is the Chapman-Enskog viscosity, kg/(m s)
func SpecieViscosity(s thermo.Specie, T float64) float64 {
	return 2.6693e-6 * math.Sqrt(s.W*T) / (s.Sigma * s.Sigma * omega22(T/s.EpsilonByK))
}

// SpecieConductivity is the modified Eucken conductivity, W/(m K)
func SpecieConductivity(s thermo.Specie, mu float64) float64 {
	return mu * (s.Cp + 1.25*s.R())
}

// BinaryDiffusivity is the Chapman-Enskog binary diffusion coefficient, m^2/s
func BinaryDiffusivity(si, sj thermo.Specie, T, p float64) float64 {
	const pAtm = 101325.
	var (
		sigma = 0.5 * (si.Sigma + sj.Sigma)
		eps   = math.Sqrt(si.EpsilonByK * sj.EpsilonByK)
	)
	// 0.0018583 gives cm^2/s with p in atm
	return 1.e-4 * 0.0018583 * math.Sqrt(T*T*T*(1/si.W+1/sj.W)) /
		(p / pAtm * sigma * sigma * omega11(T/eps))
}

// wilke mixes specie properties phi_i, weighted by the viscosity ratios
func wilke(X, phi, mu, W []float64) (mix float64) {
	for i := range X {
		var denom float64
		for j := range X {
			var (
				a = 1 + math.Sqrt(mu[i]/mu[j])*math.Pow(W[j]/W[i], 0.25)
				b = math.Sqrt(8 * (1 + W[i]/W[j]))
			)
			denom += X[j] * a * a / b
		}
		if denom > 0 {
			mix += X[i] * phi[i] / denom
		}
	}
	return
}

/*
MixtureDiffusivity is the mixture averaged diffusivity of specie i:

	D_i = (1 - Y_i) / sum_{j != i} X_j/D_ij

falling back to the self diffusivity D_ii where specie i is pure.
*/
func MixtureDiffusivity(i int, X, Y []float64, Dij [][]float64) float64 {
	const small = 1.e-12
	var sum float64
	for j := range X {
		if j != i {
			sum += X[j] / Dij[i][j]
		}
	}
	if sum < small || 1-Y[i] < small {
		return Dij[i][i]
	}
	return (1 - Y[i]) / sum
}
