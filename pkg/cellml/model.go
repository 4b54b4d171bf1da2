package cellml

import (
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// Version is the only CellML format version this model supports.
const Version = "2.0"

// Connection is one raw variable pair as declared in the document. The list
// of raw pairs is kept separately from the merged set structure so a parsed
// model writes back out with its original connections.
type Connection struct {
	V1, V2 *Variable
	// ID is the map_variables document id, tracked for round-trips.
	ID string
}

// Model is the top-level aggregate: components, model-scoped units, recorded
// connections and an optional variable of integration.
type Model struct {
	name           string
	components     []*Component
	componentIndex map[string]*Component
	unitsDefs      []*UnitsDef
	unitsIndex     map[string]*UnitsDef
	nameByValue    map[units.Value]string
	connections    []Connection
	voi            *Variable
	sets           *setIndex

	// ID is the document-wide id attribute, tracked for round-trips.
	ID   string
	Meta map[string]string
}

// NewModel creates an empty model. The name must be a valid identifier.
func NewModel(name string) (*Model, error) {
	if err := checkIdentifier(name, "model"); err != nil {
		return nil, err
	}
	return &Model{
		name:           name,
		componentIndex: make(map[string]*Component),
		unitsIndex:     make(map[string]*UnitsDef),
		nameByValue:    make(map[units.Value]string),
		sets:           newSetIndex(),
	}, nil
}

// Name returns the model name.
func (m *Model) Name() string { return m.name }

// Components returns the components in creation order.
func (m *Model) Components() []*Component {
	return append([]*Component(nil), m.components...)
}

// Component looks up a component by name.
func (m *Model) Component(name string) (*Component, bool) {
	c, ok := m.componentIndex[name]
	return c, ok
}

// Variables returns every variable of every component, in component then
// declaration order.
func (m *Model) Variables() []*Variable {
	var out []*Variable
	for _, c := range m.components {
		out = append(out, c.variables...)
	}
	return out
}

// Connections returns the raw connection pairs in declaration order.
func (m *Model) Connections() []Connection {
	return append([]Connection(nil), m.connections...)
}

// AddComponent creates a component with a valid identifier name unique within
// the model.
func (m *Model) AddComponent(name string) (*Component, error) {
	if err := checkIdentifier(name, "component"); err != nil {
		return nil, err
	}
	if _, exists := m.componentIndex[name]; exists {
		return nil, newError(ErrDuplicateName, name, "model already has a component named %q", name)
	}
	c := &Component{
		name:     name,
		model:    m,
		varIndex: make(map[string]*Variable),
	}
	m.components = append(m.components, c)
	m.componentIndex[name] = c
	return c, nil
}

// AddUnits registers a named units definition built from unit rows. Each
// row's base name must already resolve in the model scope or the predefined
// catalog; definition order therefore matters.
func (m *Model) AddUnits(name string, rows []UnitRow) (*UnitsDef, error) {
	value := units.Dimensionless()
	for i, row := range rows {
		base, err := m.UnitsValue(row.Units)
		if err != nil {
			return nil, newError(ErrUnknownUnits, name,
				"unit row %d references %q, which is not defined at this point", i, row.Units)
		}
		composed, err := units.Compose(base, row.Prefix, row.Exponent, row.Multiplier)
		if err != nil {
			return nil, newError(ErrBadValue, name, "unit row %d: %v", i, err)
		}
		value = value.Times(composed)
	}
	return m.addUnitsDef(&UnitsDef{Name: name, Rows: rows, Value: value})
}

// AddUnitsValue registers a units definition directly from a resolved value,
// synthesizing its rows. Used when building a model programmatically.
func (m *Model) AddUnitsValue(name string, value units.Value) (*UnitsDef, error) {
	return m.addUnitsDef(&UnitsDef{Name: name, Rows: rowsFromValue(value), Value: value})
}

func (m *Model) addUnitsDef(def *UnitsDef) (*UnitsDef, error) {
	if err := checkIdentifier(def.Name, "units"); err != nil {
		return nil, err
	}
	if units.IsPredefined(def.Name) {
		predef, _ := units.Predefined(def.Name)
		if !predef.Equal(def.Value) {
			return nil, newError(ErrDuplicateName, def.Name,
				"units %q would shadow the predefined unit with a different value", def.Name)
		}
	}
	if _, exists := m.unitsIndex[def.Name]; exists {
		return nil, newError(ErrDuplicateName, def.Name, "model already defines units named %q", def.Name)
	}
	m.unitsDefs = append(m.unitsDefs, def)
	m.unitsIndex[def.Name] = def
	// Reverse lookup is last-write-wins on value collisions.
	m.nameByValue[def.Value] = def.Name
	return def, nil
}

// UnitsDefs returns the model-scoped units definitions in creation order.
func (m *Model) UnitsDefs() []*UnitsDef {
	return append([]*UnitsDef(nil), m.unitsDefs...)
}

// UnitsValue resolves a units name against the model scope first, then the
// predefined catalog.
func (m *Model) UnitsValue(name string) (units.Value, error) {
	if def, ok := m.unitsIndex[name]; ok {
		return def.Value, nil
	}
	return units.Predefined(name)
}

// HasUnits reports whether the model itself defines units with this name.
func (m *Model) HasUnits(name string) bool {
	_, ok := m.unitsIndex[name]
	return ok
}

// UnitsNameFor finds a name for a resolved unit value: model-scoped names
// first, then the predefined catalog.
func (m *Model) UnitsNameFor(value units.Value) (string, bool) {
	if name, ok := m.nameByValue[value]; ok {
		return name, true
	}
	return units.PredefinedNameFor(value)
}

// requiredSides computes the interface side each variable must offer for a
// connection, from the two components' relative position in the encapsulation
// forest: siblings need public on both sides, a parent/child pair needs
// public on the child and private on the parent.
func requiredSides(c1, c2 *Component) (side1, side2 Interface, err error) {
	switch {
	case c1.parent == c2.parent:
		return InterfacePublic, InterfacePublic, nil
	case c1.parent == c2:
		return InterfacePublic, InterfacePrivate, nil
	case c2.parent == c1:
		return InterfacePrivate, InterfacePublic, nil
	}
	return "", "", newError(ErrBadConnection, c1.name,
		"components %q and %q are neither siblings nor in a parent/child relationship", c1.name, c2.name)
}

// AddConnection connects two variables, merging their connected sets and
// recording the raw pair. See the interface and unit rules in requiredSides
// and units.ConversionFactor.
func (m *Model) AddConnection(v1, v2 *Variable) error {
	if v1 == v2 {
		return newError(ErrBadConnection, v1.QualifiedName(), "cannot connect a variable to itself")
	}
	if v1.component == v2.component {
		return newError(ErrBadConnection, v1.QualifiedName(),
			"cannot connect %q and %q within the same component", v1.name, v2.name)
	}
	if v1.component.model != m || v2.component.model != m {
		return newError(ErrBadConnection, v1.QualifiedName(), "variables belong to a different model")
	}
	for _, conn := range m.connections {
		if (conn.V1 == v1 && conn.V2 == v2) || (conn.V1 == v2 && conn.V2 == v1) {
			return newError(ErrDuplicateConnection, v1.QualifiedName(),
				"%s and %s are already connected", v1.QualifiedName(), v2.QualifiedName())
		}
	}

	side1, side2, err := requiredSides(v1.component, v2.component)
	if err != nil {
		return err
	}
	if !v1.iface.Offers(side1) {
		return newError(ErrInterfaceMismatch, v1.QualifiedName(),
			"variable %s must offer a %s interface for this connection, but declares %q",
			v1.QualifiedName(), side1, v1.iface)
	}
	if !v2.iface.Offers(side2) {
		return newError(ErrInterfaceMismatch, v2.QualifiedName(),
			"variable %s must offer a %s interface for this connection, but declares %q",
			v2.QualifiedName(), side2, v2.iface)
	}

	if !v1.unitsValue.Compatible(v2.unitsValue) {
		return newError(ErrIncompatibleUnits, v1.QualifiedName(),
			"units %q of %s are not convertible to units %q of %s",
			v1.unitsName, v1.QualifiedName(), v2.unitsName, v2.QualifiedName())
	}

	if err := m.sets.union(v1.id, v2.id); err != nil {
		return err
	}
	m.connections = append(m.connections, Connection{V1: v1, V2: v2})
	return nil
}

// AddConnectionWithID is AddConnection with a document id recorded on the
// raw pair.
func (m *Model) AddConnectionWithID(v1, v2 *Variable, id string) error {
	if err := m.AddConnection(v1, v2); err != nil {
		return err
	}
	m.connections[len(m.connections)-1].ID = id
	return nil
}

// SetVariableOfIntegration designates the model's independent variable. The
// first call wins; later calls must name a variable already in the same
// connected set as the current one.
func (m *Model) SetVariableOfIntegration(v *Variable) error {
	if m.voi == nil {
		m.voi = v
		return nil
	}
	if m.sets.find(m.voi.id) != m.sets.find(v.id) {
		return newError(ErrBadValue, v.QualifiedName(),
			"variable of integration is already %s, and %s is not connected to it",
			m.voi.QualifiedName(), v.QualifiedName())
	}
	return nil
}

// VariableOfIntegration returns the effective variable of integration: among
// the stored variable's connected set, a member whose component has no state
// variables is preferred; otherwise the stored one is returned.
func (m *Model) VariableOfIntegration() *Variable {
	if m.voi == nil {
		return nil
	}
	set := m.voi.Set()
	if len(set.Members) == 0 {
		return nil
	}
	for _, member := range set.Members {
		if !member.component.hasStateVariable() {
			return member
		}
	}
	return m.voi
}
