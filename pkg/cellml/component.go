package cellml

// Component owns an ordered collection of uniquely-named variables and
// occupies one position in its model's encapsulation forest.
type Component struct {
	name      string
	model     *Model
	variables []*Variable
	varIndex  map[string]*Variable
	parent    *Component
	children  []*Component

	// ID is the document-wide id attribute, tracked for round-trips.
	ID   string
	Meta map[string]string
}

// Name returns the component name, unique within its model.
func (c *Component) Name() string { return c.name }

// Model returns the owning model.
func (c *Component) Model() *Model { return c.model }

// Parent returns the encapsulation parent, nil for a top-level component.
func (c *Component) Parent() *Component { return c.parent }

// Children returns the encapsulation children in attachment order.
func (c *Component) Children() []*Component {
	return append([]*Component(nil), c.children...)
}

// Variables returns the component's variables in declaration order.
func (c *Component) Variables() []*Variable {
	return append([]*Variable(nil), c.variables...)
}

// Variable looks up a variable by its component-local name.
func (c *Component) Variable(name string) (*Variable, bool) {
	v, ok := c.varIndex[name]
	return v, ok
}

// AddVariable creates a variable in this component. The name must be a valid
// identifier unique within the component, and the units name must resolve
// against the model scope or the predefined catalog.
func (c *Component) AddVariable(name, unitsName string, iface Interface) (*Variable, error) {
	entity := c.name + "." + name
	if err := checkIdentifier(name, entity); err != nil {
		return nil, err
	}
	if _, exists := c.varIndex[name]; exists {
		return nil, newError(ErrDuplicateName, entity, "component %q already has a variable named %q", c.name, name)
	}
	value, err := c.model.UnitsValue(unitsName)
	if err != nil {
		return nil, newError(ErrUnknownUnits, entity, "units %q are not defined in the model or predefined", unitsName)
	}

	v := &Variable{
		name:       name,
		component:  c,
		unitsName:  unitsName,
		unitsValue: value,
		iface:      iface,
	}
	v.id = c.model.sets.add(v)
	c.variables = append(c.variables, v)
	c.varIndex[name] = v
	return v, nil
}

// SetParent re-parents the component within the encapsulation forest, or
// detaches it when parent is nil. Both the old and the new parent's child
// sets are updated. A parent from a different model is rejected.
func (c *Component) SetParent(parent *Component) error {
	if parent != nil && parent.model != c.model {
		return newError(ErrBadConnection, c.name,
			"cannot parent component %q to %q from a different model", c.name, parent.name)
	}
	if parent == c {
		return newError(ErrCyclicEncapsulation, c.name, "component %q cannot be its own parent", c.name)
	}

	if c.parent != nil {
		siblings := c.parent.children
		for i, sib := range siblings {
			if sib == c {
				c.parent.children = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}
	c.parent = parent
	if parent != nil {
		parent.children = append(parent.children, c)
	}
	return nil
}

// validate walks the parent chain looking for a cycle back to this component.
func (c *Component) validate() error {
	seen := map[*Component]bool{c: true}
	for p := c.parent; p != nil; p = p.parent {
		if seen[p] {
			return newError(ErrCyclicEncapsulation, c.name,
				"component %q is its own encapsulation ancestor", c.name)
		}
		seen[p] = true
	}
	return nil
}

// hasStateVariable reports whether any variable of the component defines a
// derivative equation for its set.
func (c *Component) hasStateVariable() bool {
	for _, v := range c.variables {
		set := v.Set()
		if set.HasEquation() && set.Equation.IsDerivative() && set.EquationOwner.component == c {
			return true
		}
	}
	return false
}
