// Package native implements the flat equation-based model representation the
// conversion engine translates to and from. A native model is a set of
// components holding variables; every variable is identified globally by its
// qualified name, carries at most one defining right-hand side, and may be a
// state variable integrated over the model's time binding. Variables may nest
// sub-variables; consumers flatten them by qualified name.
package native

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

var namePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Model is a flat equation-based model.
type Model struct {
	name       string
	components []*Component
	index      map[string]*Component
	timeVar    *Variable
	unitTable  map[string]units.Value
}

// Component groups variables under one namespace segment.
type Component struct {
	name      string
	model     *Model
	variables []*Variable
	index     map[string]*Variable
}

// Variable is one named quantity. A state variable's RHS is the derivative
// of the variable with respect to the model's time binding.
type Variable struct {
	name      string
	component *Component
	parent    *Variable
	subs      []*Variable
	subIndex  map[string]*Variable

	unit     units.Value
	hasUnit  bool
	rhs      expr.Expr
	initial  float64
	hasInit  bool
	state    bool
}

// NewModel creates an empty native model.
func NewModel(name string) *Model {
	return &Model{
		name:      name,
		index:     make(map[string]*Component),
		unitTable: make(map[string]units.Value),
	}
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Components returns the components in creation order.
func (m *Model) Components() []*Component {
	return append([]*Component(nil), m.components...)
}

// AddComponent creates a component with a unique valid name.
func (m *Model) AddComponent(name string) (*Component, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid component name %q", name)
	}
	if _, exists := m.index[name]; exists {
		return nil, fmt.Errorf("component %q already exists", name)
	}
	c := &Component{name: name, model: m, index: make(map[string]*Variable)}
	m.components = append(m.components, c)
	m.index[name] = c
	return c, nil
}

// Component looks up a component by name.
func (m *Model) Component(name string) (*Component, bool) {
	c, ok := m.index[name]
	return c, ok
}

// SetTime designates the model's time binding.
func (m *Model) SetTime(v *Variable) { m.timeVar = v }

// Time returns the model's time binding, nil when unset.
func (m *Model) Time() *Variable { return m.timeVar }

// DefineUnit registers a unit name usable by numeric literals in equations.
func (m *Model) DefineUnit(name string, value units.Value) {
	m.unitTable[name] = value
}

// LiteralUnit resolves a literal's unit name.
func (m *Model) LiteralUnit(name string) (units.Value, bool) {
	if v, ok := m.unitTable[name]; ok {
		return v, true
	}
	if v, err := units.Predefined(name); err == nil {
		return v, true
	}
	return units.Value{}, false
}

// Variables returns every variable of the model including nested
// sub-variables, in definition order.
func (m *Model) Variables() []*Variable {
	var out []*Variable
	for _, c := range m.components {
		for _, v := range c.variables {
			out = appendTree(out, v)
		}
	}
	return out
}

func appendTree(out []*Variable, v *Variable) []*Variable {
	out = append(out, v)
	for _, s := range v.subs {
		out = appendTree(out, s)
	}
	return out
}

// Resolve finds a variable by its qualified name.
func (m *Model) Resolve(qualified string) (*Variable, bool) {
	parts := strings.Split(qualified, ".")
	if len(parts) < 2 {
		return nil, false
	}
	c, ok := m.index[parts[0]]
	if !ok {
		return nil, false
	}
	v, ok := c.index[parts[1]]
	if !ok {
		return nil, false
	}
	for _, part := range parts[2:] {
		v, ok = v.subIndex[part]
		if !ok {
			return nil, false
		}
	}
	return v, true
}

// Name returns the component name.
func (c *Component) Name() string { return c.name }

// Variables returns the component's top-level variables.
func (c *Component) Variables() []*Variable {
	return append([]*Variable(nil), c.variables...)
}

// AddVariable creates a top-level variable in the component.
func (c *Component) AddVariable(name string) (*Variable, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid variable name %q", name)
	}
	if _, exists := c.index[name]; exists {
		return nil, fmt.Errorf("variable %q already exists in component %q", name, c.name)
	}
	v := &Variable{name: name, component: c, subIndex: make(map[string]*Variable)}
	c.variables = append(c.variables, v)
	c.index[name] = v
	return v, nil
}

// Name returns the variable's local name.
func (v *Variable) Name() string { return v.name }

// Component returns the owning component.
func (v *Variable) Component() *Component { return v.component }

// Parent returns the enclosing variable for a sub-variable, nil otherwise.
func (v *Variable) Parent() *Variable { return v.parent }

// Subs returns nested sub-variables in definition order.
func (v *Variable) Subs() []*Variable {
	return append([]*Variable(nil), v.subs...)
}

// AddSub creates a nested sub-variable.
func (v *Variable) AddSub(name string) (*Variable, error) {
	if !namePattern.MatchString(name) {
		return nil, fmt.Errorf("invalid variable name %q", name)
	}
	if _, exists := v.subIndex[name]; exists {
		return nil, fmt.Errorf("sub-variable %q already exists under %q", name, v.QualifiedName())
	}
	s := &Variable{name: name, component: v.component, parent: v, subIndex: make(map[string]*Variable)}
	v.subs = append(v.subs, s)
	v.subIndex[name] = s
	return s, nil
}

// QualifiedName returns the globally-unique dotted name of the variable.
func (v *Variable) QualifiedName() string {
	parts := []string{v.name}
	for p := v.parent; p != nil; p = p.parent {
		parts = append([]string{p.name}, parts...)
	}
	return v.component.name + "." + strings.Join(parts, ".")
}

// LocalPath returns the variable's name path within its component, joined
// with underscores; this is the flat sibling name the converter uses.
func (v *Variable) LocalPath() string {
	parts := []string{v.name}
	for p := v.parent; p != nil; p = p.parent {
		parts = append([]string{p.name}, parts...)
	}
	return strings.Join(parts, "_")
}

// SetUnit declares the variable's unit.
func (v *Variable) SetUnit(u units.Value) {
	v.unit, v.hasUnit = u, true
}

// Unit returns the declared unit.
func (v *Variable) Unit() (units.Value, bool) { return v.unit, v.hasUnit }

// SetEquation sets the defining right-hand side. For a state variable this is
// the derivative's right-hand side.
func (v *Variable) SetEquation(rhs expr.Expr) { v.rhs = rhs }

// Equation returns the defining right-hand side.
func (v *Variable) Equation() (expr.Expr, bool) {
	if v.rhs == nil {
		return nil, false
	}
	return v.rhs, true
}

// SetInitial sets the variable's initial value.
func (v *Variable) SetInitial(f float64) {
	v.initial, v.hasInit = f, true
}

// Initial returns the initial value.
func (v *Variable) Initial() (float64, bool) { return v.initial, v.hasInit }

// PromoteToState marks the variable as a state integrated over time, with
// the given initial value.
func (v *Variable) PromoteToState(initial float64) {
	v.state = true
	v.SetInitial(initial)
}

// IsState reports whether the variable is a state.
func (v *Variable) IsState() bool { return v.state }

// References returns the qualified names referenced by the variable's
// right-hand side.
func (v *Variable) References() map[string]bool {
	if v.rhs == nil {
		return map[string]bool{}
	}
	return expr.Vars(v.rhs)
}

// Validate performs the full upfront model check the conversion engine
// requires: every reference must resolve, every state needs an initial value
// and a time binding, and the time binding must not define itself.
func (m *Model) Validate() error {
	hasState := false
	for _, v := range m.Variables() {
		if v.state {
			hasState = true
			if !v.hasInit {
				return fmt.Errorf("state variable %s has no initial value", v.QualifiedName())
			}
		}
		for ref := range v.References() {
			if _, ok := m.Resolve(ref); !ok {
				return fmt.Errorf("variable %s references unknown variable %q", v.QualifiedName(), ref)
			}
		}
	}
	if hasState && m.timeVar == nil {
		return fmt.Errorf("model has state variables but no time binding")
	}
	if m.timeVar != nil && m.timeVar.rhs != nil {
		return fmt.Errorf("time variable %s must not have a defining equation", m.timeVar.QualifiedName())
	}
	return nil
}
