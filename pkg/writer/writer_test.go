package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-cellml/pkg/cellml"
	"github.com/dd0wney/cluso-cellml/pkg/parser"
)

const sampleDocument = `<?xml version="1.0" encoding="UTF-8"?>
<model xmlns="http://www.cellml.org/cellml/2.0#" xmlns:cellml="http://www.cellml.org/cellml/2.0#" name="hh" id="doc">
  <units name="millivolt">
    <unit units="volt" prefix="milli" id="row1"/>
  </units>
  <units name="ampere_per_area">
    <unit units="ampere"/>
    <unit units="metre" exponent="-2"/>
  </units>
  <component name="env">
    <variable name="time" units="second" interface="public"/>
  </component>
  <component name="membrane">
    <variable name="time" units="second" interface="public"/>
    <variable name="V" units="millivolt" initial_value="-80"/>
    <math xmlns="http://www.w3.org/1998/Math/MathML">
      <apply><eq/>
        <apply><diff/><bvar><ci>time</ci></bvar><ci>V</ci></apply>
        <cn cellml:units="millivolt">1</cn>
      </apply>
    </math>
  </component>
  <connection component_1="env" component_2="membrane">
    <map_variables variable_1="time" variable_2="time" id="conn1"/>
  </connection>
</model>
`

func render(t *testing.T, m *cellml.Model) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m))
	return buf.String()
}

// TestRoundTrip_Stable verifies write(parse(D)) reaches a fixed point: writing
// the reparsed output reproduces the first output byte for byte
func TestRoundTrip_Stable(t *testing.T) {
	m1, _, err := parser.Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)
	out1 := render(t, m1)

	m2, _, err := parser.Parse(strings.NewReader(out1))
	require.NoError(t, err)
	out2 := render(t, m2)

	require.Equal(t, out1, out2)
}

// TestRoundTrip_PreservesStructure verifies the reparsed model matches the
// original in every tracked dimension
func TestRoundTrip_PreservesStructure(t *testing.T) {
	m1, _, err := parser.Parse(strings.NewReader(sampleDocument))
	require.NoError(t, err)

	m2, _, err := parser.Parse(strings.NewReader(render(t, m1)))
	require.NoError(t, err)

	require.Equal(t, m1.Name(), m2.Name())
	require.Equal(t, m1.ID, m2.ID)
	require.Len(t, m2.UnitsDefs(), len(m1.UnitsDefs()))
	require.Len(t, m2.Components(), len(m1.Components()))
	require.Len(t, m2.Connections(), len(m1.Connections()))
	require.Equal(t, "conn1", m2.Connections()[0].ID)

	for _, c1 := range m1.Components() {
		c2, ok := m2.Component(c1.Name())
		require.True(t, ok, "component %s lost", c1.Name())
		for _, v1 := range c1.Variables() {
			v2, ok := c2.Variable(v1.Name())
			require.True(t, ok, "variable %s lost", v1.QualifiedName())
			require.Equal(t, v1.UnitsName(), v2.UnitsName())
			require.Equal(t, v1.Interface(), v2.Interface())
			require.Equal(t, v1.IsState(), v2.IsState())

			iv1, ok1 := v1.InitialValue()
			iv2, ok2 := v2.InitialValue()
			require.Equal(t, ok1, ok2)
			require.InDelta(t, iv1, iv2, 1e-12)
		}
	}

	require.NotNil(t, m2.VariableOfIntegration())
	require.Equal(t,
		m1.VariableOfIntegration().QualifiedName(),
		m2.VariableOfIntegration().QualifiedName())
}

// TestWriteModel_CanonicalOrdering verifies units come out sorted by name
// while components keep creation order
func TestWriteModel_CanonicalOrdering(t *testing.T) {
	m, err := cellml.NewModel("m")
	require.NoError(t, err)
	_, err = m.AddUnits("zeta", []cellml.UnitRow{{Units: "second"}})
	require.NoError(t, err)
	_, err = m.AddUnits("alpha", []cellml.UnitRow{{Units: "metre"}})
	require.NoError(t, err)
	_, err = m.AddComponent("zz")
	require.NoError(t, err)
	_, err = m.AddComponent("aa")
	require.NoError(t, err)

	root := WriteModel(m)
	unitsEls := root.ChildrenNamed("units")
	require.Len(t, unitsEls, 2)
	require.Equal(t, "alpha", unitsEls[0].AttrOr("name", ""))
	require.Equal(t, "zeta", unitsEls[1].AttrOr("name", ""))

	compEls := root.ChildrenNamed("component")
	require.Len(t, compEls, 2)
	require.Equal(t, "zz", compEls[0].AttrOr("name", ""))
	require.Equal(t, "aa", compEls[1].AttrOr("name", ""))
}

// TestWrite_Encapsulation verifies the component_ref forest round-trips
func TestWrite_Encapsulation(t *testing.T) {
	m, err := cellml.NewModel("m")
	require.NoError(t, err)
	parent, err := m.AddComponent("parent")
	require.NoError(t, err)
	child, err := m.AddComponent("child")
	require.NoError(t, err)
	require.NoError(t, child.SetParent(parent))

	m2, _, err := parser.Parse(strings.NewReader(render(t, m)))
	require.NoError(t, err)
	c2, ok := m2.Component("child")
	require.True(t, ok)
	require.NotNil(t, c2.Parent())
	require.Equal(t, "parent", c2.Parent().Name())
}

// TestWrite_MetaAttributes verifies foreign attributes are written back out
func TestWrite_MetaAttributes(t *testing.T) {
	m, err := cellml.NewModel("m")
	require.NoError(t, err)
	m.Meta = map[string]string{"source": "digitized"}

	root := WriteModel(m)
	require.Equal(t, "digitized", root.AttrOr("source", ""))
}
