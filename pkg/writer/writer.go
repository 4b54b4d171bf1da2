// Package writer serializes a cellml.Model back into document form. Output is
// canonical: units definitions are sorted by name, components and variables
// keep creation order, connections are grouped per component pair, and the
// encapsulation forest is written in attachment order. Parsing the output of
// Write yields a model equivalent to the input.
package writer

import (
	"io"
	"sort"

	"github.com/dd0wney/cluso-cellml/pkg/cellml"
	"github.com/dd0wney/cluso-cellml/pkg/document"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/mathml"
)

// Namespace is the CellML 2.0 namespace URI.
const Namespace = "http://www.cellml.org/cellml/2.0#"

// Write serializes the model as an XML document.
func Write(w io.Writer, m *cellml.Model) error {
	return document.Write(w, WriteModel(m))
}

// WriteModel builds the document tree for the model.
func WriteModel(m *cellml.Model) *document.Element {
	root := element("model", m.ID, m.Meta)
	root.SetAttr("xmlns", Namespace)
	// The cellml prefix carries the units attribute on cn literals.
	root.Attrs = append(root.Attrs, document.Attr{Space: "xmlns", Name: "cellml", Value: Namespace})
	root.SetAttr("name", m.Name())

	defs := m.UnitsDefs()
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	for _, def := range defs {
		root.AddChild(unitsElement(def))
	}

	for _, comp := range m.Components() {
		root.AddChild(componentElement(m, comp))
	}

	if enc := encapsulationElement(m); enc != nil {
		root.AddChild(enc)
	}

	for _, conn := range connectionElements(m) {
		root.AddChild(conn)
	}

	return root
}

func element(name, id string, meta map[string]string) *document.Element {
	el := document.NewElement(Namespace, name)
	if id != "" {
		el.SetAttr("id", id)
	}
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		el.SetAttr(k, meta[k])
	}
	return el
}

func unitsElement(def *cellml.UnitsDef) *document.Element {
	el := element("units", def.ID, def.Meta)
	el.SetAttr("name", def.Name)
	for _, row := range def.Rows {
		unit := document.NewElement(Namespace, "unit")
		unit.SetAttr("units", row.Units)
		if row.Prefix != "" {
			unit.SetAttr("prefix", row.Prefix)
		}
		if row.Exponent != "" {
			unit.SetAttr("exponent", row.Exponent)
		}
		if row.Multiplier != "" {
			unit.SetAttr("multiplier", row.Multiplier)
		}
		if row.ID != "" {
			unit.SetAttr("id", row.ID)
		}
		el.AddChild(unit)
	}
	return el
}

func componentElement(m *cellml.Model, comp *cellml.Component) *document.Element {
	el := element("component", comp.ID, comp.Meta)
	el.SetAttr("name", comp.Name())

	var eqs []*expr.Equation
	for _, v := range comp.Variables() {
		varEl := element("variable", v.ID, v.Meta)
		varEl.SetAttr("name", v.Name())
		varEl.SetAttr("units", v.UnitsName())
		if v.Interface() != cellml.InterfaceNone {
			varEl.SetAttr("interface", string(v.Interface()))
		}
		set := v.Set()
		if set.HasInitialValue() && set.InitialOwner == v {
			varEl.SetAttr("initial_value", set.InitialValue)
		}
		el.AddChild(varEl)

		// Each set's equation is written once, in its owner's component.
		if set.HasEquation() && set.EquationOwner == v {
			eqs = append(eqs, set.Equation)
		}
	}

	if len(eqs) > 0 {
		el.AddChild(mathElement(m, comp, eqs))
	}
	return el
}

func mathElement(m *cellml.Model, comp *cellml.Component, eqs []*expr.Equation) *document.Element {
	// Derivative left sides without a recorded bound variable fall back to
	// this component's member of the variable-of-integration set.
	timeVar := ""
	if voi := m.VariableOfIntegration(); voi != nil {
		timeVar = voi.Name()
		for _, member := range voi.Set().Members {
			if member.Component() == comp {
				timeVar = member.Name()
				break
			}
		}
	}
	identity := func(n string) string { return n }
	return mathml.WriteMath(eqs, identity, identity, timeVar)
}

func encapsulationElement(m *cellml.Model) *document.Element {
	enc := document.NewElement(Namespace, "encapsulation")
	for _, comp := range m.Components() {
		if comp.Parent() == nil && len(comp.Children()) > 0 {
			enc.AddChild(componentRef(comp))
		}
	}
	if len(enc.Children) == 0 {
		return nil
	}
	return enc
}

func componentRef(comp *cellml.Component) *document.Element {
	ref := document.NewElement(Namespace, "component_ref")
	ref.SetAttr("component", comp.Name())
	for _, child := range comp.Children() {
		ref.AddChild(componentRef(child))
	}
	return ref
}

// connectionElements groups the raw connection pairs by component pair, in
// order of each pair's first appearance, keeping that first pair's
// orientation.
func connectionElements(m *cellml.Model) []*document.Element {
	type pairKey struct{ c1, c2 *cellml.Component }
	var order []pairKey
	grouped := make(map[pairKey]*document.Element)

	for _, conn := range m.Connections() {
		c1, c2 := conn.V1.Component(), conn.V2.Component()
		key := pairKey{c1, c2}
		flipped := false
		if el, ok := grouped[pairKey{c2, c1}]; ok && el != nil {
			key = pairKey{c2, c1}
			flipped = true
		}
		el, ok := grouped[key]
		if !ok {
			el = document.NewElement(Namespace, "connection")
			el.SetAttr("component_1", key.c1.Name())
			el.SetAttr("component_2", key.c2.Name())
			grouped[key] = el
			order = append(order, key)
		}

		mv := document.NewElement(Namespace, "map_variables")
		v1, v2 := conn.V1, conn.V2
		if flipped {
			v1, v2 = v2, v1
		}
		mv.SetAttr("variable_1", v1.Name())
		mv.SetAttr("variable_2", v2.Name())
		if conn.ID != "" {
			mv.SetAttr("id", conn.ID)
		}
		el.AddChild(mv)
	}

	out := make([]*document.Element, 0, len(order))
	for _, key := range order {
		out = append(out, grouped[key])
	}
	return out
}
