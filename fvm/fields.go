package fvm

import (
	"fmt"
	"math"

	"github.com/notargets/gocombust/types"
)

// ScalarField is a cell centred field with one PatchField per mesh patch
type ScalarField struct {
	Name     string
	Dim      types.Dimensions
	Mesh     *Mesh
	Values   []float64
	Boundary []*PatchField
	Old      []float64
	PrevIter []float64
	OldBC    [][]float64
}

/*
NewScalarField creates a uniform field. Nil entries in bcs become zero
gradient patches. Boundary values are evaluated before return.
*/
func NewScalarField(name string, dim types.Dimensions, mesh *Mesh, init float64, bcs []*PatchField) (sf *ScalarField) {
	sf = &ScalarField{
		Name:     name,
		Dim:      dim,
		Mesh:     mesh,
		Values:   make([]float64, mesh.NCells),
		Boundary: make([]*PatchField, len(mesh.Patches)),
	}
	for i := range sf.Values {
		sf.Values[i] = init
	}
	for p, patch := range mesh.Patches {
		if p < len(bcs) && bcs[p] != nil {
			if bcs[p].Size() != patch.Size() {
				panic(fmt.Errorf("field %s patch %s has %d faces, boundary condition has %d",
					name, patch.Name, patch.Size(), bcs[p].Size()))
			}
			sf.Boundary[p] = bcs[p]
		} else {
			sf.Boundary[p] = ZeroGradient(patch.Size())
		}
	}
	sf.CorrectBoundaryConditions()
	return
}

// Clone returns a deep copy under a new name
func (sf *ScalarField) Clone(name string) (c *ScalarField) {
	c = &ScalarField{
		Name:     name,
		Dim:      sf.Dim,
		Mesh:     sf.Mesh,
		Values:   append([]float64{}, sf.Values...),
		Boundary: make([]*PatchField, len(sf.Boundary)),
	}
	for p, pf := range sf.Boundary {
		c.Boundary[p] = pf.Clone()
	}
	if sf.Old != nil {
		c.Old = append([]float64{}, sf.Old...)
	}
	return
}

func (sf *ScalarField) CorrectBoundaryConditions() {
	for p, pf := range sf.Boundary {
		if pf.Kind == CalculatedBC {
			continue
		}
		pf.Evaluate(sf.Values, sf.Mesh.Patches[p])
	}
}

func (sf *ScalarField) StoreOldTime() {
	if sf.Old == nil {
		sf.Old = make([]float64, len(sf.Values))
	}
	copy(sf.Old, sf.Values)
	if sf.OldBC == nil {
		sf.OldBC = make([][]float64, len(sf.Boundary))
	}
	for p, pf := range sf.Boundary {
		sf.OldBC[p] = append(sf.OldBC[p][:0], pf.Value...)
	}
}

// OldTime returns the previous time level, the current values before the first store
func (sf *ScalarField) OldTime() []float64 {
	if sf.Old == nil {
		return sf.Values
	}
	return sf.Old
}

func (sf *ScalarField) StorePrevIter() {
	if sf.PrevIter == nil {
		sf.PrevIter = make([]float64, len(sf.Values))
	}
	copy(sf.PrevIter, sf.Values)
}

// Relax blends the field with its previous iteration, explicit relaxation
func (sf *ScalarField) Relax(alpha float64) {
	if sf.PrevIter == nil || alpha >= 1 || alpha <= 0 {
		return
	}
	for i, prev := range sf.PrevIter {
		sf.Values[i] = prev + alpha*(sf.Values[i]-prev)
	}
	sf.CorrectBoundaryConditions()
}

func (sf *ScalarField) Assign(values []float64) {
	copy(sf.Values, values)
	sf.CorrectBoundaryConditions()
}

// ClipMin bounds internal and boundary values from below
func (sf *ScalarField) ClipMin(lo float64) {
	for i, v := range sf.Values {
		sf.Values[i] = math.Max(v, lo)
	}
	for _, pf := range sf.Boundary {
		for i, v := range pf.Value {
			pf.Value[i] = math.Max(v, lo)
		}
	}
}

// Max and Min include boundary values
func (sf *ScalarField) Max() (mx float64) {
	mx = -math.MaxFloat64
	for _, v := range sf.Values {
		mx = math.Max(mx, v)
	}
	for _, pf := range sf.Boundary {
		for _, v := range pf.Value {
			mx = math.Max(mx, v)
		}
	}
	return
}

func (sf *ScalarField) Min() (mn float64) {
	mn = math.MaxFloat64
	for _, v := range sf.Values {
		mn = math.Min(mn, v)
	}
	for _, pf := range sf.Boundary {
		for _, v := range pf.Value {
			mn = math.Min(mn, v)
		}
	}
	return
}

// Average is the arithmetic mean over cells
func (sf *ScalarField) Average() (ave float64) {
	for _, v := range sf.Values {
		ave += v
	}
	if len(sf.Values) != 0 {
		ave /= float64(len(sf.Values))
	}
	return
}

// WeightedAverage is the volume weighted mean over cells
func (sf *ScalarField) WeightedAverage() float64 {
	return sf.VolIntegrate() / sf.Mesh.TotalVolume()
}

func (sf *ScalarField) VolIntegrate() (sum float64) {
	for i, v := range sf.Values {
		sum += v * sf.Mesh.V[i]
	}
	return
}

// VectorField is stored as three component fields
type VectorField struct {
	Name string
	Comp [3]*ScalarField
}

func NewVectorField(name string, dim types.Dimensions, mesh *Mesh, init [3]float64, bcs [3][]*PatchField) (vf *VectorField) {
	vf = &VectorField{Name: name}
	for d, cName := range []string{"x", "y", "z"} {
		vf.Comp[d] = NewScalarField(name+cName, dim, mesh, init[d], bcs[d])
	}
	return
}

func (vf *VectorField) Mesh() *Mesh { return vf.Comp[0].Mesh }

func (vf *VectorField) At(i int) [3]float64 {
	return [3]float64{vf.Comp[0].Values[i], vf.Comp[1].Values[i], vf.Comp[2].Values[i]}
}

func (vf *VectorField) BoundaryAt(patchI, facei int) [3]float64 {
	return [3]float64{
		vf.Comp[0].Boundary[patchI].Value[facei],
		vf.Comp[1].Boundary[patchI].Value[facei],
		vf.Comp[2].Boundary[patchI].Value[facei],
	}
}

func (vf *VectorField) StoreOldTime() {
	for _, c := range vf.Comp {
		c.StoreOldTime()
	}
}

func (vf *VectorField) StorePrevIter() {
	for _, c := range vf.Comp {
		c.StorePrevIter()
	}
}

func (vf *VectorField) CorrectBoundaryConditions() {
	for _, c := range vf.Comp {
		c.CorrectBoundaryConditions()
	}
}

// MagSqr returns |v|^2 per cell
func (vf *VectorField) MagSqr() (m []float64) {
	m = make([]float64, vf.Mesh().NCells)
	for i := range m {
		v := vf.At(i)
		m[i] = Dot(v, v)
	}
	return
}

// MaxMag is the largest velocity magnitude over cells
func (vf *VectorField) MaxMag() (mx float64) {
	for _, msq := range vf.MagSqr() {
		mx = math.Max(mx, math.Sqrt(msq))
	}
	return
}

// SurfaceField holds one value per internal face and per boundary face
type SurfaceField struct {
	Name     string
	Dim      types.Dimensions
	Mesh     *Mesh
	Internal []float64
	Boundary [][]float64
}

func NewSurfaceField(name string, dim types.Dimensions, mesh *Mesh, init float64) (sf *SurfaceField) {
	sf = &SurfaceField{
		Name:     name,
		Dim:      dim,
		Mesh:     mesh,
		Internal: make([]float64, mesh.NInternalFaces()),
		Boundary: make([][]float64, len(mesh.Patches)),
	}
	for f := range sf.Internal {
		sf.Internal[f] = init
	}
	for p, patch := range mesh.Patches {
		sf.Boundary[p] = make([]float64, patch.Size())
		for i := range sf.Boundary[p] {
			sf.Boundary[p][i] = init
		}
	}
	return
}

func (sf *SurfaceField) Clone(name string) (c *SurfaceField) {
	c = &SurfaceField{
		Name:     name,
		Dim:      sf.Dim,
		Mesh:     sf.Mesh,
		Internal: append([]float64{}, sf.Internal...),
		Boundary: make([][]float64, len(sf.Boundary)),
	}
	for p := range sf.Boundary {
		c.Boundary[p] = append([]float64{}, sf.Boundary[p]...)
	}
	return
}

// Combine returns op(a, b) face by face
func (sf *SurfaceField) Combine(name string, b *SurfaceField, op func(x, y float64) float64) (c *SurfaceField) {
	c = sf.Clone(name)
	for f := range c.Internal {
		c.Internal[f] = op(sf.Internal[f], b.Internal[f])
	}
	for p := range c.Boundary {
		for i := range c.Boundary[p] {
			c.Boundary[p][i] = op(sf.Boundary[p][i], b.Boundary[p][i])
		}
	}
	return
}

func (sf *SurfaceField) Scale(a float64) {
	for f := range sf.Internal {
		sf.Internal[f] *= a
	}
	for p := range sf.Boundary {
		for i := range sf.Boundary[p] {
			sf.Boundary[p][i] *= a
		}
	}
}

// Assign copies the values of b
func (sf *SurfaceField) Assign(b *SurfaceField) {
	copy(sf.Internal, b.Internal)
	for p := range sf.Boundary {
		copy(sf.Boundary[p], b.Boundary[p])
	}
}
