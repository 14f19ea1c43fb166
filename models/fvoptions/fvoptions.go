// Package fvoptions provides the source injection and constraint
// collaborators: semi implicit volumetric sources, fixed value constraints
// and temperature limiting, each acting on a selection of cells.
package fvoptions

import (
	"fmt"
	"math"
	"sort"

	"github.com/Knetic/govaluate"
	"github.com/sirupsen/logrus"

	"github.com/notargets/gocombust/fvm"
	"github.com/notargets/gocombust/models"
	"github.com/notargets/gocombust/thermo"
)

type Config struct {
	Type string   `json:"type"`
	XMin *float64 `json:"xMin"` // Cell selection by centre, all cells when unset
	XMax *float64 `json:"xMax"`
	// semiImplicitSource, per field: explicit expressions in x, y, z, t, T and
	// rho (per volume), implicit coefficients multiplying the field
	Explicit map[string]string  `json:"explicit"`
	Implicit map[string]float64 `json:"implicit"`
	// fixedValueConstraint
	Values map[string]float64 `json:"values"`
	// limitTemperature
	TMin float64 `json:"TMin"`
	TMax float64 `json:"TMax"`
}

var TypeNames = []string{"semiImplicitSource", "fixedValueConstraint", "limitTemperature"}

type Option interface {
	Name() string
	Apply(rho, psi *fvm.ScalarField, eq *fvm.Matrix) error
	Constrain(eq *fvm.Matrix)
	Correct(psi *fvm.ScalarField) error
}

/*
List applies every option in order. Apply returns the summed source for the
right hand side of an equation in psi, Constrain and Correct run before and
after its solve.
*/
type List struct {
	Options []Option
	Thermo  *thermo.PsiThermo
	log     logrus.FieldLogger
}

func New(configs []Config, th *thermo.PsiThermo, log logrus.FieldLogger) (l *List, err error) {
	l = &List{Thermo: th, log: log}
	for n, cfg := range configs {
		var (
			opt   Option
			cells = selectCells(th.T.Mesh, cfg)
		)
		switch cfg.Type {
		case "semiImplicitSource":
			opt, err = newSemiImplicitSource(n, cfg, cells, th)
		case "fixedValueConstraint":
			opt = &FixedValueConstraint{name: fmt.Sprintf("fixedValueConstraint%d", n), Cells: cells, Values: cfg.Values}
		case "limitTemperature":
			if cfg.TMin <= 0 || cfg.TMax <= cfg.TMin {
				err = fmt.Errorf("limitTemperature needs 0 < TMin < TMax, have %g, %g", cfg.TMin, cfg.TMax)
			}
			opt = &LimitTemperature{name: fmt.Sprintf("limitTemperature%d", n), Cells: cells,
				TMin: cfg.TMin, TMax: cfg.TMax, Thermo: th}
		default:
			err = fmt.Errorf("fvOptions: %w %q, have %v", models.ErrUnknownModel, cfg.Type, TypeNames)
		}
		if err != nil {
			return
		}
		log.WithFields(logrus.Fields{"option": opt.Name(), "cells": len(cells)}).Info("fvOptions")
		l.Options = append(l.Options, opt)
	}
	return
}

func selectCells(mesh *fvm.Mesh, cfg Config) (cells []int) {
	for i, c := range mesh.C {
		if cfg.XMin != nil && c[0] < *cfg.XMin {
			continue
		}
		if cfg.XMax != nil && c[0] > *cfg.XMax {
			continue
		}
		cells = append(cells, i)
	}
	return
}

func (l *List) Apply(rho, psi *fvm.ScalarField) (eq *fvm.Matrix, err error) {
	eq = fvm.NewMatrix(psi)
	for _, opt := range l.Options {
		if err = opt.Apply(rho, psi, eq); err != nil {
			err = fmt.Errorf("%s applied to %s: %w", opt.Name(), psi.Name, err)
			return
		}
	}
	return
}

func (l *List) Constrain(eq *fvm.Matrix) {
	for _, opt := range l.Options {
		opt.Constrain(eq)
	}
}

func (l *List) Correct(psi *fvm.ScalarField) (err error) {
	for _, opt := range l.Options {
		if err = opt.Correct(psi); err != nil {
			return fmt.Errorf("%s correcting %s: %w", opt.Name(), psi.Name, err)
		}
	}
	return
}

var functions = map[string]govaluate.ExpressionFunction{
	"exp":  unary("exp", math.Exp),
	"sin":  unary("sin", math.Sin),
	"cos":  unary("cos", math.Cos),
	"sqrt": unary("sqrt", math.Sqrt),
}

func unary(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) != 1 {
			return nil, fmt.Errorf("got %d arguments for function '%s', but needs 1", len(arg), name)
		}
		x, ok := arg[0].(float64)
		if !ok {
			return nil, fmt.Errorf("function '%s' needs a number", name)
		}
		return f(x), nil
	}
}

// SemiImplicitSource adds Su + Sp*psi per volume on its cells
type SemiImplicitSource struct {
	name     string
	Cells    []int
	Thermo   *thermo.PsiThermo
	Explicit map[string]*govaluate.EvaluableExpression
	Implicit map[string]float64
}

func newSemiImplicitSource(n int, cfg Config, cells []int, th *thermo.PsiThermo) (s *SemiImplicitSource, err error) {
	s = &SemiImplicitSource{
		name:     fmt.Sprintf("semiImplicitSource%d", n),
		Cells:    cells,
		Thermo:   th,
		Explicit: make(map[string]*govaluate.EvaluableExpression),
		Implicit: cfg.Implicit,
	}
	fields := make([]string, 0, len(cfg.Explicit))
	for field := range cfg.Explicit {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		var expr *govaluate.EvaluableExpression
		if expr, err = govaluate.NewEvaluableExpressionWithFunctions(cfg.Explicit[field], functions); err != nil {
			err = fmt.Errorf("%s explicit source for %s: %w", s.name, field, err)
			return
		}
		for _, v := range expr.Vars() {
			switch v {
			case "x", "y", "z", "t", "T", "rho":
			default:
				err = fmt.Errorf("%s explicit source for %s: undefined variable '%s'", s.name, field, v)
				return
			}
		}
		s.Explicit[field] = expr
	}
	return
}

func (s *SemiImplicitSource) Name() string { return s.name }

func (s *SemiImplicitSource) Apply(rho, psi *fvm.ScalarField, eq *fvm.Matrix) (err error) {
	var (
		expr, hasExpl = s.Explicit[psi.Name]
		sp, hasImpl   = s.Implicit[psi.Name]
		mesh          = psi.Mesh
	)
	if hasExpl {
		var (
			su     = make([]float64, mesh.NCells)
			params = make(map[string]interface{}, 6)
			result interface{}
		)
		params["t"] = mesh.Time.Value
		for _, celli := range s.Cells {
			params["x"], params["y"], params["z"] = mesh.C[celli][0], mesh.C[celli][1], mesh.C[celli][2]
			params["T"] = s.Thermo.T.Values[celli]
			params["rho"] = rho.Values[celli]
			if result, err = expr.Evaluate(params); err != nil {
				return
			}
			v, ok := result.(float64)
			if !ok {
				return fmt.Errorf("explicit source for %s is not a number: %v", psi.Name, result)
			}
			su[celli] = v
		}
		eq.AddExplicit(s.name+":Su", su)
	}
	if hasImpl {
		coeff := make([]float64, mesh.NCells)
		for _, celli := range s.Cells {
			coeff[celli] = sp
		}
		eq.Add(fvm.Sp(s.name+":Sp", coeff, psi))
	}
	return
}

func (s *SemiImplicitSource) Constrain(eq *fvm.Matrix)           {}
func (s *SemiImplicitSource) Correct(psi *fvm.ScalarField) error { return nil }

// FixedValueConstraint holds named fields at fixed values on its cells
type FixedValueConstraint struct {
	name   string
	Cells  []int
	Values map[string]float64
}

func (fc *FixedValueConstraint) Name() string { return fc.name }

func (fc *FixedValueConstraint) Apply(rho, psi *fvm.ScalarField, eq *fvm.Matrix) error { return nil }

func (fc *FixedValueConstraint) Constrain(eq *fvm.Matrix) {
	v, ok := fc.Values[eq.Psi.Name]
	if !ok || len(fc.Cells) == 0 {
		return
	}
	values := make([]float64, len(fc.Cells))
	for i := range values {
		values[i] = v
	}
	eq.SetValues(fc.Cells, values)
}

func (fc *FixedValueConstraint) Correct(psi *fvm.ScalarField) error { return nil }

// LimitTemperature clamps T on its cells after the energy solve and resets the energy variable to match
type LimitTemperature struct {
	name       string
	Cells      []int
	TMin, TMax float64
	Thermo     *thermo.PsiThermo
}

func (lt *LimitTemperature) Name() string { return lt.name }

func (lt *LimitTemperature) Apply(rho, psi *fvm.ScalarField, eq *fvm.Matrix) error { return nil }

func (lt *LimitTemperature) Constrain(eq *fvm.Matrix) {}

func (lt *LimitTemperature) Correct(psi *fvm.ScalarField) (err error) {
	th := lt.Thermo
	if psi != th.HE {
		return
	}
	var nClipped int
	for _, celli := range lt.Cells {
		hMin, hMax := th.HEofT(celli, lt.TMin), th.HEofT(celli, lt.TMax)
		switch he := psi.Values[celli]; {
		case he < hMin:
			psi.Values[celli], th.T.Values[celli] = hMin, lt.TMin
		case he > hMax:
			psi.Values[celli], th.T.Values[celli] = hMax, lt.TMax
		default:
			continue
		}
		nClipped++
	}
	if nClipped > 0 {
		psi.CorrectBoundaryConditions()
	}
	return
}
