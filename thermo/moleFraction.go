package thermo

import (
	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/types"
)

// MoleFraction keeps X_i = (Y_i/W_i) / sum_j (Y_j/W_j) in step with Y
type MoleFraction struct {
	Species *SpeciesTable
	Y       []*fvm.ScalarField
	X       []*fvm.ScalarField
}

func NewMoleFraction(species *SpeciesTable, Y []*fvm.ScalarField) (mf *MoleFraction) {
	mf = &MoleFraction{
		Species: species,
		Y:       Y,
		X:       make([]*fvm.ScalarField, len(Y)),
	}
	for i, y := range Y {
		bcs := make([]*fvm.PatchField, len(y.Boundary))
		for p, pf := range y.Boundary {
			bcs[p] = fvm.Calculated(pf.Size(), 0)
		}
		mf.X[i] = fvm.NewScalarField("X_"+species.Species[i].Name, types.DimLess, y.Mesh, 0, bcs)
	}
	mf.Update()
	return
}

func (mf *MoleFraction) Update() error {
	var (
		mesh = mf.Y[0].Mesh
		W    = make([]float64, len(mf.Y))
	)
	for i, s := range mf.Species.Species {
		W[i] = s.W
	}
	convert := func(yAt func(i int) float64, xSet func(i int, x float64)) {
		var sum float64
		for i := range mf.Y {
			sum += yAt(i) / W[i]
		}
		for i := range mf.Y {
			if sum > 0 {
				xSet(i, yAt(i)/W[i]/sum)
			} else {
				xSet(i, 0)
			}
		}
	}
	mesh.Partitions.Apply(func(kMin, kMax int) {
		for celli := kMin; celli < kMax; celli++ {
			convert(func(i int) float64 { return mf.Y[i].Values[celli] },
				func(i int, x float64) { mf.X[i].Values[celli] = x })
		}
	})
	for p, patch := range mesh.Patches {
		for facei := 0; facei < patch.Size(); facei++ {
			convert(func(i int) float64 { return mf.Y[i].Boundary[p].Value[facei] },
				func(i int, x float64) { mf.X[i].Boundary[p].Value[facei] = x })
		}
	}
	return nil
}
