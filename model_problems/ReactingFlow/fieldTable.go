package ReactingFlow

import (
	"fmt"

	"github.com/notargets/gocombust/fvm"
)

// FieldTable owns the registered fields of a case in registration order
type FieldTable struct {
	order  []string
	fields map[string]*fvm.ScalarField
}

func NewFieldTable() *FieldTable {
	return &FieldTable{fields: make(map[string]*fvm.ScalarField)}
}

func (ft *FieldTable) Register(fields ...*fvm.ScalarField) (err error) {
	for _, f := range fields {
		if _, ok := ft.fields[f.Name]; ok {
			return fmt.Errorf("field %s registered twice", f.Name)
		}
		ft.fields[f.Name] = f
		ft.order = append(ft.order, f.Name)
	}
	return
}

func (ft *FieldTable) RegisterVector(vf *fvm.VectorField) error {
	return ft.Register(vf.Comp[0], vf.Comp[1], vf.Comp[2])
}

func (ft *FieldTable) Lookup(name string) (f *fvm.ScalarField, ok bool) {
	f, ok = ft.fields[name]
	return
}

func (ft *FieldTable) MustLookup(name string) *fvm.ScalarField {
	f, ok := ft.fields[name]
	if !ok {
		panic(fmt.Errorf("no field named %s", name))
	}
	return f
}

func (ft *FieldTable) Names() []string { return append([]string{}, ft.order...) }
