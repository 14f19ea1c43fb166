// Package fvm holds the finite volume layer used by the reacting flow solver:
// an owner/neighbour (LDU addressed) mesh, cell and face fields with boundary
// conditions, the implicit equation descriptor and the linear solvers that
// invert it.
package fvm

import (
	"fmt"
	"math"

	"github.com/notargets/gocombust/types"
	"github.com/notargets/gocombust/utils"
)

// Time carries the run clock shared by every field on a mesh
type Time struct {
	Value, DeltaT, DeltaT0 float64
	Index                  int
}

func (rt *Time) Advance(dt float64) {
	rt.DeltaT0 = rt.DeltaT
	if rt.Index == 0 {
		rt.DeltaT0 = dt
	}
	rt.DeltaT = dt
	rt.Value += dt
	rt.Index++
}

type Patch struct {
	Name        string
	Type        types.BCFLAG
	FaceCells   []int
	Sf          [][3]float64 // Outward area vectors
	MagSf       []float64
	DeltaCoeffs []float64 // 1/|Cf - C[owner]|
	Cf          [][3]float64
}

func (p *Patch) Size() int { return len(p.FaceCells) }

/*
Mesh stores internal faces in owner/neighbour order, Owner[f] < Neighbour[f].
Face area vectors point from owner to neighbour. Boundary faces belong to
patches.
*/
type Mesh struct {
	NCells           int
	Owner, Neighbour []int
	Sf, Cf           [][3]float64
	MagSf            []float64
	DeltaCoeffs      []float64
	Weights          []float64 // Owner side linear interpolation weight
	V                []float64
	C                [][3]float64
	Patches          []*Patch
	Partitions       *utils.PartitionMap
	Time             *Time
}

func NewMesh(C [][3]float64, V []float64, owner, neighbour []int, Sf, Cf [][3]float64,
	patches []*Patch, parallelDegree int) (m *Mesh, err error) {
	var (
		NCells = len(V)
		NFaces = len(owner)
	)
	if len(C) != NCells {
		err = fmt.Errorf("cell centres and volumes differ in length: %d, %d", len(C), NCells)
		return
	}
	if len(neighbour) != NFaces || len(Sf) != NFaces || len(Cf) != NFaces {
		err = fmt.Errorf("internal face arrays differ in length, owner has %d faces", NFaces)
		return
	}
	m = &Mesh{
		NCells:      NCells,
		Owner:       owner,
		Neighbour:   neighbour,
		Sf:          Sf,
		Cf:          Cf,
		MagSf:       make([]float64, NFaces),
		DeltaCoeffs: make([]float64, NFaces),
		Weights:     make([]float64, NFaces),
		V:           V,
		C:           C,
		Patches:     patches,
		Partitions:  utils.NewPartitionMap(parallelDegree, NCells),
		Time:        &Time{DeltaT: 1, DeltaT0: 1},
	}
	for f := 0; f < NFaces; f++ {
		P, N := owner[f], neighbour[f]
		if P < 0 || P >= NCells || N < 0 || N >= NCells || P >= N {
			err = fmt.Errorf("face %d has invalid addressing: owner %d, neighbour %d", f, P, N)
			return
		}
		m.MagSf[f] = mag(Sf[f])
		dP, dN := distance(Cf[f], C[P]), distance(Cf[f], C[N])
		m.DeltaCoeffs[f] = 1. / distance(C[N], C[P])
		m.Weights[f] = dN / (dP + dN)
	}
	for _, p := range patches {
		p.MagSf = make([]float64, p.Size())
		p.DeltaCoeffs = make([]float64, p.Size())
		for i, celli := range p.FaceCells {
			p.MagSf[i] = mag(p.Sf[i])
			p.DeltaCoeffs[i] = 1. / distance(p.Cf[i], C[celli])
		}
	}
	return
}

/*
NewLineMesh builds a uniform one dimensional mesh of N cells along x, with
cross section area. The left patch outward normal is -x, the right +x.
*/
func NewLineMesh(N int, length, area float64, left, right types.BCFLAG, parallelDegree int) (m *Mesh) {
	var (
		dx        = length / float64(N)
		C         = make([][3]float64, N)
		V         = utils.ConstArray(N, dx*area)
		owner     = make([]int, N-1)
		neighbour = make([]int, N-1)
		Sf        = make([][3]float64, N-1)
		Cf        = make([][3]float64, N-1)
		err       error
	)
	for i := 0; i < N; i++ {
		C[i] = [3]float64{(float64(i) + 0.5) * dx, 0, 0}
	}
	for f := 0; f < N-1; f++ {
		owner[f], neighbour[f] = f, f+1
		Sf[f] = [3]float64{area, 0, 0}
		Cf[f] = [3]float64{float64(f+1) * dx, 0, 0}
	}
	patches := []*Patch{
		{Name: "left", Type: left, FaceCells: []int{0},
			Sf: [][3]float64{{-area, 0, 0}}, Cf: [][3]float64{{0, 0, 0}}},
		{Name: "right", Type: right, FaceCells: []int{N - 1},
			Sf: [][3]float64{{area, 0, 0}}, Cf: [][3]float64{{length, 0, 0}}},
	}
	if m, err = NewMesh(C, V, owner, neighbour, Sf, Cf, patches, parallelDegree); err != nil {
		panic(err)
	}
	return
}

func (m *Mesh) NInternalFaces() int { return len(m.Owner) }

func (m *Mesh) PatchIndex(name string) int {
	for i, p := range m.Patches {
		if p.Name == name {
			return i
		}
	}
	return -1
}

func (m *Mesh) TotalVolume() (vol float64) {
	for _, v := range m.V {
		vol += v
	}
	return
}

func mag(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

func distance(a, b [3]float64) float64 {
	return mag([3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]})
}

func Dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
