// Package convert translates between the CellML entity graph and the flat
// native equation model. FromNative builds a CellML model out of a native
// one, inferring units and interfaces; ToNative flattens a CellML model back,
// inserting unit-conversion variables and dropping pass-through aliases.
package convert

import (
	"fmt"
	"sort"

	"github.com/dd0wney/cluso-cellml/pkg/cellml"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/native"
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// FromNative builds an equivalent CellML model from a validated native model.
func FromNative(n *native.Model) (*cellml.Model, error) {
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("native model is not convertible: %w", err)
	}
	m, err := cellml.NewModel(n.Name())
	if err != nil {
		return nil, err
	}

	f := &fromNative{
		n:         n,
		m:         m,
		unitMemo:  make(map[*native.Variable]units.Value),
		inferring: make(map[*native.Variable]bool),
		promoted:   make(map[*native.Variable]bool),
		aliases:    make(map[*native.Component]map[*native.Variable]string),
		aliasOrder: make(map[*native.Component][]*native.Variable),
		vars:       make(map[*native.Variable]*cellml.Variable),
	}

	f.analyze()
	if err := f.buildVariables(); err != nil {
		return nil, err
	}
	if err := f.registerLiteralUnits(); err != nil {
		return nil, err
	}
	if err := f.buildEquations(); err != nil {
		return nil, err
	}
	if err := f.buildConnections(); err != nil {
		return nil, err
	}

	if tv := n.Time(); tv != nil {
		if err := m.SetVariableOfIntegration(f.vars[tv]); err != nil {
			return nil, err
		}
	}
	if _, err := m.Validate(); err != nil {
		return nil, fmt.Errorf("converted model failed validation: %w", err)
	}
	return m, nil
}

type fromNative struct {
	n *native.Model
	m *cellml.Model

	unitMemo  map[*native.Variable]units.Value
	inferring map[*native.Variable]bool

	// promoted marks variables referenced from outside their component;
	// aliases records, per referencing component, the local name each outside
	// source is imported under. aliasOrder keeps import order deterministic.
	promoted   map[*native.Variable]bool
	aliases    map[*native.Component]map[*native.Variable]string
	aliasOrder map[*native.Component][]*native.Variable

	vars map[*native.Variable]*cellml.Variable
}

// unitOf resolves a variable's unit: declared when present, otherwise
// inferred from its defining expression. Inference is tolerant; anything
// unresolvable is dimensionless. A state variable's right side carries a
// per-time rate, so the time unit is multiplied back in.
func (f *fromNative) unitOf(v *native.Variable) units.Value {
	if u, ok := v.Unit(); ok {
		return u
	}
	if u, ok := f.unitMemo[v]; ok {
		return u
	}
	if f.inferring[v] {
		return units.Dimensionless()
	}
	f.inferring[v] = true
	defer delete(f.inferring, v)

	u := units.Dimensionless()
	if rhs, ok := v.Equation(); ok {
		resolver := expr.UnitResolver{
			VarUnit: func(name string) (units.Value, bool) {
				target, ok := f.n.Resolve(name)
				if !ok {
					return units.Value{}, false
				}
				return f.unitOf(target), true
			},
			UnitByName: f.n.LiteralUnit,
		}
		if inferred, ok := expr.InferUnit(rhs, resolver); ok {
			u = inferred
		}
		if v.IsState() {
			if tv := f.n.Time(); tv != nil {
				u = u.Times(f.unitOf(tv))
			}
		}
	}
	f.unitMemo[v] = u
	return u
}

// analyze finds every cross-component reference. A referenced outside
// variable is promoted to a public interface and gets an alias in the
// referencing component. Derivative references and state equations also pull
// in the time variable.
func (f *fromNative) analyze() {
	tv := f.n.Time()
	for _, v := range f.n.Variables() {
		rhs, ok := v.Equation()
		if !ok {
			continue
		}
		comp := v.Component()

		refs := make([]string, 0)
		for ref := range expr.Vars(rhs) {
			refs = append(refs, ref)
		}
		sort.Strings(refs)
		for _, ref := range refs {
			target, ok := f.n.Resolve(ref)
			if !ok {
				continue
			}
			if target.Component() != comp {
				f.importVariable(comp, target)
			}
		}

		needsTime := v.IsState()
		expr.Walk(rhs, func(e expr.Expr) {
			if d, ok := e.(*expr.Deriv); ok && d.Wrt == "" {
				needsTime = true
			}
		})
		if needsTime && tv != nil && tv.Component() != comp {
			f.importVariable(comp, tv)
		}
	}
}

func (f *fromNative) importVariable(comp *native.Component, source *native.Variable) {
	f.promoted[source] = true
	byComp := f.aliases[comp]
	if byComp == nil {
		byComp = make(map[*native.Variable]string)
		f.aliases[comp] = byComp
	}
	if _, ok := byComp[source]; ok {
		return
	}

	used := make(map[string]bool)
	for _, v := range f.n.Variables() {
		if v.Component() == comp {
			used[v.LocalPath()] = true
		}
	}
	for _, name := range byComp {
		used[name] = true
	}
	name := source.LocalPath()
	if used[name] {
		name = source.Component().Name() + "_" + name
	}
	for i := 2; used[name]; i++ {
		name = fmt.Sprintf("%s_%s_%d", source.Component().Name(), source.LocalPath(), i)
	}
	byComp[source] = name
	f.aliasOrder[comp] = append(f.aliasOrder[comp], source)
}

// buildVariables creates one CellML component per native component, a flat
// sibling variable per native variable (nested sub-variables included) and
// the alias variables the analysis called for.
func (f *fromNative) buildVariables() error {
	comps := make(map[*native.Component]*cellml.Component)
	for _, nc := range f.n.Components() {
		cc, err := f.m.AddComponent(nc.Name())
		if err != nil {
			return err
		}
		comps[nc] = cc
	}

	for _, v := range f.n.Variables() {
		unitsName, err := f.unitsName(f.unitOf(v))
		if err != nil {
			return err
		}
		iface := cellml.InterfaceNone
		if f.promoted[v] {
			iface = cellml.InterfacePublic
		}
		cv, err := comps[v.Component()].AddVariable(v.LocalPath(), unitsName, iface)
		if err != nil {
			return fmt.Errorf("variable %s: %w", v.QualifiedName(), err)
		}
		f.vars[v] = cv
	}

	for _, nc := range f.n.Components() {
		for _, source := range f.aliasOrder[nc] {
			name := f.aliases[nc][source]
			unitsName, err := f.unitsName(f.unitOf(source))
			if err != nil {
				return err
			}
			if _, err := comps[nc].AddVariable(name, unitsName, cellml.InterfacePublic); err != nil {
				return fmt.Errorf("alias %s.%s: %w", nc.Name(), name, err)
			}
		}
	}
	return nil
}

// unitsName finds or registers a name for a unit value, reusing model and
// predefined names for exact matches.
func (f *fromNative) unitsName(v units.Value) (string, error) {
	if name, ok := f.m.UnitsNameFor(v); ok {
		return name, nil
	}
	base := units.SuggestName(v)
	name := base
	for i := 2; ; i++ {
		_, err := f.m.AddUnitsValue(name, v)
		if err == nil {
			return name, nil
		}
		if !cellml.IsKind(err, cellml.ErrDuplicateName) {
			return "", err
		}
		name = fmt.Sprintf("%s_%d", base, i)
	}
}

// registerLiteralUnits makes every unit name attached to a numeric literal
// resolvable in the CellML model.
func (f *fromNative) registerLiteralUnits() error {
	var err error
	for _, v := range f.n.Variables() {
		rhs, ok := v.Equation()
		if !ok {
			continue
		}
		expr.Walk(rhs, func(e expr.Expr) {
			n, isNum := e.(*expr.Number)
			if !isNum || n.Units == "" || err != nil {
				return
			}
			if _, resolveErr := f.m.UnitsValue(n.Units); resolveErr == nil {
				return
			}
			value, known := f.n.LiteralUnit(n.Units)
			if !known {
				err = fmt.Errorf("literal unit %q of %s is not defined in the native model",
					n.Units, v.QualifiedName())
				return
			}
			_, err = f.m.AddUnitsValue(n.Units, value)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (f *fromNative) buildEquations() error {
	tv := f.n.Time()
	for _, v := range f.n.Variables() {
		if v == tv {
			continue
		}
		cv := f.vars[v]
		rhs, hasRHS := v.Equation()

		if !hasRHS {
			if initial, ok := v.Initial(); ok {
				if err := cv.SetInitialValue(initial); err != nil {
					return err
				}
			}
			continue
		}

		// A literal-only right side on a plain variable is an initial value,
		// not an equation.
		if value, isLiteral := expr.Literal(rhs); isLiteral && !v.IsState() {
			if err := cv.SetInitialValue(value); err != nil {
				return err
			}
			continue
		}

		comp := v.Component()
		timeLocal := f.localName(comp, tv)
		renamed := expr.Rename(rhs, f.substitution(comp))
		expr.Walk(renamed, func(e expr.Expr) {
			if d, ok := e.(*expr.Deriv); ok && d.Wrt == "" {
				d.Wrt = timeLocal
			}
		})

		var lhs expr.LHS
		if v.IsState() {
			lhs = &expr.DerivLHS{Name: v.LocalPath(), Wrt: timeLocal}
		} else {
			lhs = &expr.VarLHS{Name: v.LocalPath()}
		}
		if err := cv.SetEquation(&expr.Equation{LHS: lhs, RHS: renamed}); err != nil {
			return fmt.Errorf("equation of %s: %w", v.QualifiedName(), err)
		}
		if v.IsState() {
			initial, _ := v.Initial()
			if err := cv.SetInitialValue(initial); err != nil {
				return err
			}
		}
	}
	return nil
}

// substitution maps qualified native names to the referencing component's
// local names: the flat sibling name for in-component targets, the alias name
// for outside ones.
func (f *fromNative) substitution(comp *native.Component) map[string]string {
	subst := make(map[string]string)
	for _, u := range f.n.Variables() {
		if u.Component() == comp {
			subst[u.QualifiedName()] = u.LocalPath()
		}
	}
	for source, name := range f.aliases[comp] {
		subst[source.QualifiedName()] = name
	}
	return subst
}

func (f *fromNative) localName(comp *native.Component, v *native.Variable) string {
	if v == nil {
		return ""
	}
	if v.Component() == comp {
		return v.LocalPath()
	}
	return f.aliases[comp][v]
}

func (f *fromNative) buildConnections() error {
	for _, nc := range f.n.Components() {
		for _, source := range f.aliasOrder[nc] {
			name := f.aliases[nc][source]
			cc, _ := f.m.Component(nc.Name())
			alias, _ := cc.Variable(name)
			if err := f.m.AddConnection(f.vars[source], alias); err != nil {
				return fmt.Errorf("connecting %s to %s.%s: %w",
					f.vars[source].QualifiedName(), nc.Name(), name, err)
			}
		}
	}
	return nil
}
