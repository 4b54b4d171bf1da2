package convert

import (
	"fmt"

	"github.com/dd0wney/cluso-cellml/pkg/cellml"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/native"
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// ToNative flattens a validated CellML model into a native model. Only
// variables that own their set's equation or initial value survive, plus one
// conversion variable per referenced alias whose unit differs from its set's
// source. Pure pass-through aliases are dropped.
func ToNative(m *cellml.Model) (*native.Model, error) {
	if _, err := m.Validate(); err != nil {
		return nil, fmt.Errorf("model is not convertible: %w", err)
	}
	clone := m.Clone()
	voi := clone.VariableOfIntegration()

	// Give the variable of integration and every free set a zero initial
	// value so every surviving variable has a defining source.
	zeroed := make(map[*cellml.Variable]bool)
	for _, v := range clone.Variables() {
		set := v.Set()
		if !set.IsFree() || len(set.Members) == 0 || zeroed[set.Members[0]] {
			continue
		}
		zeroed[set.Members[0]] = true
		target := set.Members[0]
		if voi != nil && set.Contains(voi) {
			target = voi
		}
		if err := target.SetInitialValue(0.0); err != nil {
			return nil, err
		}
	}

	t := &toNative{
		m:          clone,
		n:          native.NewModel(clone.Name()),
		referenced: make(map[*cellml.Variable]bool),
		emitted:    make(map[*cellml.Variable]*native.Variable),
	}

	t.census()
	if err := t.createVariables(); err != nil {
		return nil, err
	}
	if err := t.populate(); err != nil {
		return nil, err
	}

	if voi != nil {
		t.n.SetTime(t.emitted[voi])
	}
	if err := t.n.Validate(); err != nil {
		return nil, fmt.Errorf("converted native model failed validation: %w", err)
	}
	return t.n, nil
}

type toNative struct {
	m *cellml.Model
	n *native.Model

	referenced map[*cellml.Variable]bool
	emitted    map[*cellml.Variable]*native.Variable
}

// census marks every variable named on some set equation's right side. Since
// equations are local to their owning component, references resolve there.
func (t *toNative) census() {
	for _, v := range t.m.Variables() {
		set := v.Set()
		if !set.HasEquation() || set.EquationOwner != v {
			continue
		}
		comp := v.Component()
		for name := range expr.Vars(set.Equation.RHS) {
			if u, ok := comp.Variable(name); ok && u != v {
				t.referenced[u] = true
			}
		}
		if d, ok := set.Equation.LHS.(*expr.DerivLHS); ok && d.Wrt != "" {
			if u, ok := comp.Variable(d.Wrt); ok {
				t.referenced[u] = true
			}
		}
	}
}

// sourceOf returns the set member that supplies the set's defining equation,
// or failing that its initial value. After the zero-initial pass every set
// has one.
func sourceOf(set *cellml.ConnectedSet) *cellml.Variable {
	if set.HasEquation() {
		return set.EquationOwner
	}
	return set.InitialOwner
}

// needsConversion reports whether a non-local referenced variable must become
// its own native variable holding a unit-conversion equation.
func (t *toNative) needsConversion(v *cellml.Variable) bool {
	if v.IsLocal() || !t.referenced[v] {
		return false
	}
	source := sourceOf(v.Set())
	return source != nil && !source.UnitsValue().Equal(v.UnitsValue())
}

func (t *toNative) createVariables() error {
	comps := make(map[*cellml.Component]*native.Component)
	for _, v := range t.m.Variables() {
		if !v.IsLocal() && !t.needsConversion(v) {
			continue
		}
		comp := v.Component()
		nc, ok := comps[comp]
		if !ok {
			var err error
			nc, err = t.n.AddComponent(comp.Name())
			if err != nil {
				return err
			}
			comps[comp] = nc
		}
		nv, err := nc.AddVariable(v.Name())
		if err != nil {
			return err
		}
		nv.SetUnit(v.UnitsValue())
		t.emitted[v] = nv
	}
	return nil
}

// nativeFor resolves a CellML variable to the native variable its references
// should point at: itself when emitted, otherwise its set's source.
func (t *toNative) nativeFor(v *cellml.Variable) *native.Variable {
	if nv, ok := t.emitted[v]; ok {
		return nv
	}
	return t.emitted[sourceOf(v.Set())]
}

func (t *toNative) populate() error {
	timeName := ""
	if voi := t.m.VariableOfIntegration(); voi != nil {
		if nv := t.nativeFor(voi); nv != nil {
			timeName = nv.QualifiedName()
		}
	}

	for _, v := range t.m.Variables() {
		nv, ok := t.emitted[v]
		if !ok {
			continue
		}
		set := v.Set()

		if t.needsConversion(v) {
			source := sourceOf(set)
			factor, err := units.ConversionFactor(source.UnitsValue(), v.UnitsValue())
			if err != nil {
				return fmt.Errorf("conversion for %s: %w", v.QualifiedName(), err)
			}
			nv.SetEquation(&expr.Binary{
				Op: expr.OpMul,
				X:  &expr.Var{Name: t.nativeFor(source).QualifiedName()},
				Y:  &expr.Number{Value: factor},
			})
			continue
		}

		if !set.HasEquation() {
			if initial, ok := v.InitialValue(); ok {
				nv.SetInitial(initial)
			}
			continue
		}

		eq, _ := v.Equation()
		rhs := t.rewrite(eq.RHS, v.Component(), timeName)
		if eq.IsDerivative() {
			initial, _ := v.InitialValue()
			nv.PromoteToState(initial)
		}
		nv.SetEquation(rhs)
		if err := t.defineLiteralUnits(rhs); err != nil {
			return err
		}
	}
	return nil
}

// rewrite substitutes component-local references with qualified native names
// and fills in missing derivative bound variables.
func (t *toNative) rewrite(rhs expr.Expr, comp *cellml.Component, timeName string) expr.Expr {
	subst := make(map[string]string)
	for name := range expr.Vars(rhs) {
		if u, ok := comp.Variable(name); ok {
			if nv := t.nativeFor(u); nv != nil {
				subst[name] = nv.QualifiedName()
			}
		}
	}
	out := expr.Rename(rhs, subst)
	expr.Walk(out, func(e expr.Expr) {
		if d, ok := e.(*expr.Deriv); ok && d.Wrt == "" {
			d.Wrt = timeName
		}
	})
	return out
}

func (t *toNative) defineLiteralUnits(rhs expr.Expr) error {
	var err error
	expr.Walk(rhs, func(e expr.Expr) {
		n, ok := e.(*expr.Number)
		if !ok || n.Units == "" || err != nil {
			return
		}
		value, resolveErr := t.m.UnitsValue(n.Units)
		if resolveErr != nil {
			err = resolveErr
			return
		}
		t.n.DefineUnit(n.Units, value)
	})
	return err
}
