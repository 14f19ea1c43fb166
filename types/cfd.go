package types

import (
	"fmt"
	"strings"
)

// BCFLAG is the geometric type of a mesh boundary patch. The per-field
// boundary conditions applied on a patch are chosen separately.
type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_In
	BC_Out
	BC_Wall
	BC_Symmetry
	BC_Empty
)

var BCNameMap = map[string]BCFLAG{
	"inflow":   BC_In,
	"in":       BC_In,
	"inlet":    BC_In,
	"out":      BC_Out,
	"outflow":  BC_Out,
	"outlet":   BC_Out,
	"wall":     BC_Wall,
	"symmetry": BC_Symmetry,
	"empty":    BC_Empty,
}

func (bf BCFLAG) String() string {
	switch bf {
	case BC_In:
		return "Inlet"
	case BC_Out:
		return "Outlet"
	case BC_Wall:
		return "Wall"
	case BC_Symmetry:
		return "Symmetry"
	case BC_Empty:
		return "Empty"
	}
	return "None"
}

// NewBCFLAG parses a patch type name, case insensitive
func NewBCFLAG(name string) (bf BCFLAG, err error) {
	var ok bool
	if bf, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		err = fmt.Errorf("unknown patch type: %q", name)
	}
	return
}
