package cellml

import (
	"strconv"

	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// Variable is a named quantity owned by a component. Its effective equation
// and initial value resolve through its connected set; every variable belongs
// to exactly one set at all times.
type Variable struct {
	name       string
	component  *Component
	unitsName  string
	unitsValue units.Value
	iface      Interface
	id         int

	// ID is the document-wide id attribute, tracked for round-trips.
	ID   string
	Meta map[string]string
}

// Name returns the variable's component-local name.
func (v *Variable) Name() string { return v.name }

// QualifiedName returns the component-qualified name "component.variable".
func (v *Variable) QualifiedName() string { return v.component.name + "." + v.name }

// Component returns the owning component.
func (v *Variable) Component() *Component { return v.component }

// UnitsName returns the name of the variable's units.
func (v *Variable) UnitsName() string { return v.unitsName }

// UnitsValue returns the variable's resolved unit value.
func (v *Variable) UnitsValue() units.Value { return v.unitsValue }

// Interface returns the declared interface mode.
func (v *Variable) Interface() Interface { return v.iface }

// SetInterface changes the declared interface mode.
func (v *Variable) SetInterface(i Interface) { v.iface = i }

// Set returns the connected set the variable currently belongs to.
func (v *Variable) Set() *ConnectedSet {
	return v.component.model.sets.view(v.id)
}

// IsLocal reports whether this variable itself supplies its set's defining
// equation, or failing that its initial value.
func (v *Variable) IsLocal() bool {
	set := v.Set()
	if set.HasEquation() {
		return set.EquationOwner == v
	}
	if set.HasInitialValue() {
		return set.InitialOwner == v
	}
	return false
}

// IsState reports whether the set's equation, if any, defines a derivative.
func (v *Variable) IsState() bool {
	set := v.Set()
	return set.HasEquation() && set.Equation.IsDerivative()
}

// SetEquation attaches the defining equation for this variable's connected
// set, attributed to this variable. The left side must reference this
// variable; every reference must name a variable of the same component; every
// numeric literal must carry a unit known to the model, or it is substituted
// with dimensionless.
func (v *Variable) SetEquation(eq *expr.Equation) error {
	if eq.Target() != v.name {
		return newError(ErrBadValue, v.QualifiedName(),
			"equation left side references %q, not this variable", eq.Target())
	}

	for name := range expr.EquationVars(eq) {
		if _, ok := v.component.Variable(name); !ok {
			return newError(ErrBadValue, v.QualifiedName(),
				"equation references %q, which is not a variable of component %q (equations are local to one component)",
				name, v.component.name)
		}
	}

	eq = eq.Clone()
	var unitErr error
	expr.Walk(eq.RHS, func(e expr.Expr) {
		n, ok := e.(*expr.Number)
		if !ok || unitErr != nil {
			return
		}
		if n.Units == "" {
			n.Units = "dimensionless"
			return
		}
		if _, err := v.component.model.UnitsValue(n.Units); err != nil {
			unitErr = newError(ErrUnknownUnits, v.QualifiedName(),
				"literal %g carries unit %q, which is not known to the model", n.Value, n.Units)
		}
	})
	if unitErr != nil {
		return unitErr
	}

	return v.component.model.sets.setEquation(v.id, eq)
}

// UnsetEquation removes the set's equation if this variable owns it.
func (v *Variable) UnsetEquation() {
	v.component.model.sets.unsetEquation(v.id)
}

// SetInitialValue attaches the initial value for this variable's connected
// set, attributed to this variable. Accepts a real-number string, float64 or
// int; anything else is rejected.
func (v *Variable) SetInitialValue(value any) error {
	var raw string
	switch x := value.(type) {
	case string:
		if _, err := strconv.ParseFloat(x, 64); err != nil {
			return newError(ErrBadValue, v.QualifiedName(), "initial value %q is not a real number", x)
		}
		raw = x
	case float64:
		raw = strconv.FormatFloat(x, 'g', -1, 64)
	case int:
		raw = strconv.Itoa(x)
	default:
		return newError(ErrBadValue, v.QualifiedName(), "initial value %v has unsupported type %T", value, value)
	}
	return v.component.model.sets.setInitial(v.id, raw)
}

// UnsetInitialValue removes the set's initial value if this variable owns it.
func (v *Variable) UnsetInitialValue() {
	v.component.model.sets.unsetInitial(v.id)
}

// conversionFromOwner returns the factor converting the owner's units into
// this variable's units, 1 when they are identical.
func (v *Variable) conversionFromOwner(owner *Variable) float64 {
	if owner == v || owner.unitsValue.Equal(v.unitsValue) {
		return 1
	}
	factor, err := units.ConversionFactor(owner.unitsValue, v.unitsValue)
	if err != nil {
		// Connections guarantee convertibility; an unconnected owner is this
		// variable itself, handled above.
		return 1
	}
	return factor
}

// Equation returns the set's equation rewritten into this variable's own
// units: when the owning variable's units differ, the right-hand side is
// multiplied by the conversion factor.
func (v *Variable) Equation() (*expr.Equation, bool) {
	set := v.Set()
	if !set.HasEquation() {
		return nil, false
	}
	factor := v.conversionFromOwner(set.EquationOwner)
	eq := set.Equation.Clone()
	eq.RHS = expr.Scale(eq.RHS, factor)
	return eq, true
}

// InitialValue returns the set's initial value converted into this
// variable's own units.
func (v *Variable) InitialValue() (float64, bool) {
	set := v.Set()
	if !set.HasInitialValue() {
		return 0, false
	}
	raw, err := strconv.ParseFloat(set.InitialValue, 64)
	if err != nil {
		return 0, false
	}
	return raw * v.conversionFromOwner(set.InitialOwner), true
}
