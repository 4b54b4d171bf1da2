package cellml

import (
	"strings"
	"testing"

	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

func mustModel(t *testing.T, name string) *Model {
	t.Helper()
	m, err := NewModel(name)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	return m
}

func mustComponent(t *testing.T, m *Model, name string) *Component {
	t.Helper()
	c, err := m.AddComponent(name)
	if err != nil {
		t.Fatalf("AddComponent(%q) failed: %v", name, err)
	}
	return c
}

func mustVariable(t *testing.T, c *Component, name, unitsName string, iface Interface) *Variable {
	t.Helper()
	v, err := c.AddVariable(name, unitsName, iface)
	if err != nil {
		t.Fatalf("AddVariable(%q) failed: %v", name, err)
	}
	return v
}

// TestModel_Identifiers verifies identifier syntax checks across entities
func TestModel_Identifiers(t *testing.T) {
	if _, err := NewModel("2fast"); !IsKind(err, ErrInvalidIdentifier) {
		t.Errorf("model name starting with digit: err = %v", err)
	}

	m := mustModel(t, "m")
	if _, err := m.AddComponent("has space"); !IsKind(err, ErrInvalidIdentifier) {
		t.Errorf("component with space: err = %v", err)
	}
	c := mustComponent(t, m, "a")
	if _, err := c.AddVariable("", "volt", InterfaceNone); !IsKind(err, ErrInvalidIdentifier) {
		t.Errorf("empty variable name: err = %v", err)
	}
}

// TestModel_DuplicateNames verifies uniqueness scopes
func TestModel_DuplicateNames(t *testing.T) {
	m := mustModel(t, "m")
	c := mustComponent(t, m, "a")

	if _, err := m.AddComponent("a"); !IsKind(err, ErrDuplicateName) {
		t.Errorf("duplicate component: err = %v", err)
	}

	mustVariable(t, c, "x", "volt", InterfaceNone)
	if _, err := c.AddVariable("x", "volt", InterfaceNone); !IsKind(err, ErrDuplicateName) {
		t.Errorf("duplicate variable: err = %v", err)
	}

	// Same variable name in a different component is fine.
	b := mustComponent(t, m, "b")
	mustVariable(t, b, "x", "volt", InterfaceNone)
}

// TestModel_Units verifies model-scoped unit definitions and predefined shadowing
func TestModel_Units(t *testing.T) {
	m := mustModel(t, "m")

	def, err := m.AddUnits("millivolt", []UnitRow{{Units: "volt", Prefix: "milli"}})
	if err != nil {
		t.Fatalf("AddUnits failed: %v", err)
	}
	volt, _ := units.Predefined("volt")
	if !def.Value.Equal(volt.Scale(1e-3)) {
		t.Errorf("millivolt = %s", def.Value)
	}

	// A later definition may reference an earlier one.
	if _, err := m.AddUnits("microvolt", []UnitRow{{Units: "millivolt", Prefix: "milli"}}); err != nil {
		t.Fatalf("chained AddUnits failed: %v", err)
	}

	// Forward reference fails.
	if _, err := m.AddUnits("bad", []UnitRow{{Units: "notyet"}}); !IsKind(err, ErrUnknownUnits) {
		t.Errorf("forward unit reference: err = %v", err)
	}

	// Redefining a predefined name with a different value fails.
	if _, err := m.AddUnits("volt", []UnitRow{{Units: "metre"}}); !IsKind(err, ErrDuplicateName) {
		t.Errorf("shadowing volt: err = %v", err)
	}
	// Redefining it with the identical value is allowed.
	if _, err := m.AddUnits("volt", []UnitRow{{Units: "volt"}}); err != nil {
		t.Errorf("identical predefined redefinition: err = %v", err)
	}

	if _, err := m.AddUnits("millivolt", []UnitRow{{Units: "volt"}}); !IsKind(err, ErrDuplicateName) {
		t.Errorf("duplicate units name: err = %v", err)
	}
}

// TestModel_UnitsReverseLookup verifies value->name lookup is last-write-wins
func TestModel_UnitsReverseLookup(t *testing.T) {
	m := mustModel(t, "m")
	rows := []UnitRow{{Units: "volt", Prefix: "milli"}}
	if _, err := m.AddUnits("mv_a", rows); err != nil {
		t.Fatal(err)
	}
	if _, err := m.AddUnits("mv_b", rows); err != nil {
		t.Fatal(err)
	}

	volt, _ := units.Predefined("volt")
	name, ok := m.UnitsNameFor(volt.Scale(1e-3))
	if !ok || name != "mv_b" {
		t.Errorf("UnitsNameFor = %q, %v; want mv_b", name, ok)
	}

	// Predefined values resolve through the catalog.
	if name, ok := m.UnitsNameFor(volt); !ok || name != "volt" {
		t.Errorf("UnitsNameFor(volt) = %q, %v", name, ok)
	}
}

// TestVariable_UnknownUnits verifies units resolve at construction time
func TestVariable_UnknownUnits(t *testing.T) {
	m := mustModel(t, "m")
	c := mustComponent(t, m, "a")
	if _, err := c.AddVariable("x", "parsecs", InterfaceNone); !IsKind(err, ErrUnknownUnits) {
		t.Errorf("unknown units: err = %v", err)
	}
}

// TestConnection_Siblings verifies the sibling public/public rule
func TestConnection_Siblings(t *testing.T) {
	m := mustModel(t, "m")
	a := mustComponent(t, m, "a")
	b := mustComponent(t, m, "b")
	x := mustVariable(t, a, "x", "volt", InterfacePublic)
	y := mustVariable(t, b, "y", "volt", InterfacePublic)

	if err := m.AddConnection(x, y); err != nil {
		t.Fatalf("AddConnection failed: %v", err)
	}
	if len(m.Connections()) != 1 {
		t.Errorf("connections = %d, want 1", len(m.Connections()))
	}
	if !x.Set().Contains(y) {
		t.Error("Expected x and y to share a connected set")
	}
}

// TestConnection_InterfaceMismatch verifies a missing interface side always fails
func TestConnection_InterfaceMismatch(t *testing.T) {
	m := mustModel(t, "m")
	a := mustComponent(t, m, "a")
	b := mustComponent(t, m, "b")
	x := mustVariable(t, a, "x", "volt", InterfaceNone)
	y := mustVariable(t, b, "y", "volt", InterfacePublic)

	err := m.AddConnection(x, y)
	if !IsKind(err, ErrInterfaceMismatch) {
		t.Fatalf("Expected interface mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "a.x") {
		t.Errorf("error does not name the offending variable: %v", err)
	}
	// The failed connection left no trace.
	if len(m.Connections()) != 0 || x.Set().Contains(y) {
		t.Error("Failed connection mutated the model")
	}
}

// TestConnection_ParentChildSides verifies the private/public split
func TestConnection_ParentChildSides(t *testing.T) {
	m := mustModel(t, "m")
	parent := mustComponent(t, m, "parent")
	child := mustComponent(t, m, "child")
	if err := child.SetParent(parent); err != nil {
		t.Fatalf("SetParent failed: %v", err)
	}

	p := mustVariable(t, parent, "p", "volt", InterfacePrivate)
	q := mustVariable(t, child, "q", "volt", InterfacePublic)
	if err := m.AddConnection(p, q); err != nil {
		t.Fatalf("parent/child connection failed: %v", err)
	}

	// Reversed declaration: parent side offering public instead of private.
	p2 := mustVariable(t, parent, "p2", "volt", InterfacePublic)
	q2 := mustVariable(t, child, "q2", "volt", InterfacePublic)
	if err := m.AddConnection(p2, q2); !IsKind(err, ErrInterfaceMismatch) {
		t.Errorf("parent offering public: err = %v", err)
	}
}

// TestConnection_Rejections covers self, same-component, distance, duplicates
func TestConnection_Rejections(t *testing.T) {
	m := mustModel(t, "m")
	a := mustComponent(t, m, "a")
	b := mustComponent(t, m, "b")
	c := mustComponent(t, m, "c")
	if err := c.SetParent(b); err != nil {
		t.Fatal(err)
	}

	x := mustVariable(t, a, "x", "volt", InterfacePublicPrivate)
	x2 := mustVariable(t, a, "x2", "volt", InterfacePublicPrivate)
	z := mustVariable(t, c, "z", "volt", InterfacePublicPrivate)

	if err := m.AddConnection(x, x); !IsKind(err, ErrBadConnection) {
		t.Errorf("self connection: err = %v", err)
	}
	if err := m.AddConnection(x, x2); !IsKind(err, ErrBadConnection) {
		t.Errorf("same-component connection: err = %v", err)
	}
	// a and c are neither siblings nor parent/child (c is under b).
	if err := m.AddConnection(x, z); !IsKind(err, ErrBadConnection) {
		t.Errorf("distant components: err = %v", err)
	}

	y := mustVariable(t, b, "y", "volt", InterfacePublicPrivate)
	if err := m.AddConnection(x, y); err != nil {
		t.Fatal(err)
	}
	if err := m.AddConnection(y, x); !IsKind(err, ErrDuplicateConnection) {
		t.Errorf("duplicate (reversed) connection: err = %v", err)
	}
}

// TestConnection_UnitConvertibility verifies convertibility, not equality
func TestConnection_UnitConvertibility(t *testing.T) {
	m := mustModel(t, "m")
	if _, err := m.AddUnits("millivolt", []UnitRow{{Units: "volt", Prefix: "milli"}}); err != nil {
		t.Fatal(err)
	}
	a := mustComponent(t, m, "a")
	b := mustComponent(t, m, "b")
	x := mustVariable(t, a, "x", "volt", InterfacePublic)
	y := mustVariable(t, b, "y", "millivolt", InterfacePublic)
	w := mustVariable(t, b, "w", "second", InterfacePublic)

	if err := m.AddConnection(x, y); err != nil {
		t.Fatalf("convertible units rejected: %v", err)
	}
	if err := m.AddConnection(x, w); !IsKind(err, ErrIncompatibleUnits) {
		t.Errorf("volt-second connection: err = %v", err)
	}
}

// TestConnection_UnitConversionFactor covers the volt -> millivolt 1000x view
func TestConnection_UnitConversionFactor(t *testing.T) {
	m := mustModel(t, "m")
	if _, err := m.AddUnits("millivolt", []UnitRow{{Units: "volt", Prefix: "milli"}}); err != nil {
		t.Fatal(err)
	}
	a := mustComponent(t, m, "a")
	b := mustComponent(t, m, "b")
	x := mustVariable(t, a, "x", "volt", InterfacePublic)
	y := mustVariable(t, b, "y", "millivolt", InterfacePublic)
	if err := m.AddConnection(x, y); err != nil {
		t.Fatal(err)
	}

	if err := x.SetInitialValue("0.08"); err != nil {
		t.Fatal(err)
	}

	got, ok := y.InitialValue()
	if !ok {
		t.Fatal("Expected y to see the initial value through the connection")
	}
	if !almostEqual(got, 80) {
		t.Errorf("y initial value = %g, want 80 (1000x of 0.08)", got)
	}
	// The owner sees it unconverted.
	if own, _ := x.InitialValue(); !almostEqual(own, 0.08) {
		t.Errorf("x initial value = %g, want 0.08", own)
	}
}

// TestVariable_SetEquationRules verifies locality and literal-unit checks
func TestVariable_SetEquationRules(t *testing.T) {
	m := mustModel(t, "m")
	a := mustComponent(t, m, "a")
	x := mustVariable(t, a, "x", "volt", InterfaceNone)
	mustVariable(t, a, "k", "dimensionless", InterfaceNone)

	// LHS must reference the variable itself.
	err := x.SetEquation(&expr.Equation{LHS: &expr.VarLHS{Name: "k"}, RHS: &expr.Number{Value: 1}})
	if !IsKind(err, ErrBadValue) {
		t.Errorf("foreign LHS: err = %v", err)
	}

	// References outside the component are rejected.
	err = x.SetEquation(&expr.Equation{
		LHS: &expr.VarLHS{Name: "x"},
		RHS: &expr.Var{Name: "elsewhere"},
	})
	if !IsKind(err, ErrBadValue) {
		t.Errorf("unknown reference: err = %v", err)
	}

	// A literal with an unknown unit is rejected; a bare literal becomes
	// dimensionless.
	err = x.SetEquation(&expr.Equation{
		LHS: &expr.VarLHS{Name: "x"},
		RHS: &expr.Number{Value: 1, Units: "mystery"},
	})
	if !IsKind(err, ErrUnknownUnits) {
		t.Errorf("unknown literal unit: err = %v", err)
	}

	if err := x.SetEquation(&expr.Equation{
		LHS: &expr.VarLHS{Name: "x"},
		RHS: &expr.Binary{Op: expr.OpMul, X: &expr.Var{Name: "k"}, Y: &expr.Number{Value: 2}},
	}); err != nil {
		t.Fatalf("valid equation rejected: %v", err)
	}

	eq, ok := x.Equation()
	if !ok {
		t.Fatal("Expected equation")
	}
	n := eq.RHS.(*expr.Binary).Y.(*expr.Number)
	if n.Units != "dimensionless" {
		t.Errorf("bare literal units = %q, want dimensionless", n.Units)
	}
	if !x.IsLocal() {
		t.Error("Equation owner should be local")
	}
}

// TestVariable_SetInitialValueTypes verifies accepted and rejected forms
func TestVariable_SetInitialValueTypes(t *testing.T) {
	m := mustModel(t, "m")
	a := mustComponent(t, m, "a")
	x := mustVariable(t, a, "x", "volt", InterfaceNone)

	if err := x.SetInitialValue("1.5e-3"); err != nil {
		t.Errorf("numeric string rejected: %v", err)
	}
	x.UnsetInitialValue()
	if err := x.SetInitialValue(2.5); err != nil {
		t.Errorf("float rejected: %v", err)
	}
	x.UnsetInitialValue()
	if err := x.SetInitialValue(3); err != nil {
		t.Errorf("int rejected: %v", err)
	}
	x.UnsetInitialValue()
	if err := x.SetInitialValue("x0"); !IsKind(err, ErrBadValue) {
		t.Errorf("non-numeric string: err = %v", err)
	}
	if err := x.SetInitialValue(true); !IsKind(err, ErrBadValue) {
		t.Errorf("bool: err = %v", err)
	}
}

// TestVariableOfIntegration covers first-call-wins and the component preference
func TestVariableOfIntegration(t *testing.T) {
	m := mustModel(t, "m")
	a := mustComponent(t, m, "a")
	b := mustComponent(t, m, "b")
	ta := mustVariable(t, a, "t", "second", InterfacePublic)
	tb := mustVariable(t, b, "t", "second", InterfacePublic)
	if err := m.AddConnection(ta, tb); err != nil {
		t.Fatal(err)
	}

	if err := m.SetVariableOfIntegration(ta); err != nil {
		t.Fatal(err)
	}
	// Re-setting within the same set is fine; first call wins.
	if err := m.SetVariableOfIntegration(tb); err != nil {
		t.Errorf("connected re-set rejected: %v", err)
	}

	// A disconnected variable is rejected.
	other := mustVariable(t, a, "u", "second", InterfaceNone)
	if err := m.SetVariableOfIntegration(other); !IsKind(err, ErrBadValue) {
		t.Errorf("disconnected VOI: err = %v", err)
	}

	// Give component a a state variable; the getter should then prefer tb.
	x := mustVariable(t, a, "x", "volt", InterfaceNone)
	if err := x.SetEquation(&expr.Equation{
		LHS: &expr.DerivLHS{Name: "x", Wrt: "t"},
		RHS: &expr.Number{Value: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if got := m.VariableOfIntegration(); got != tb {
		t.Errorf("VariableOfIntegration = %v, want b.t", got.QualifiedName())
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	scale := a
	if scale < 0 {
		scale = -scale
	}
	if scale < 1 {
		scale = 1
	}
	return diff <= 1e-9*scale
}
