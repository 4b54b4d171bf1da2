// Package parser builds a validated cellml.Model from a structured document.
// It performs the fine-grained structural checks the data model does not:
// required attributes, allowed-child enumeration, unit-definition ordering
// and document-wide id uniqueness. Construction follows a strict phase order:
// units, then components and variables, then encapsulation, then connections,
// and finally equations and initial values.
package parser

import (
	"fmt"
	"io"

	"github.com/dd0wney/cluso-cellml/pkg/cellml"
	"github.com/dd0wney/cluso-cellml/pkg/document"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
	"github.com/dd0wney/cluso-cellml/pkg/mathml"
)

// Namespace is the CellML 2.0 namespace URI.
const Namespace = "http://www.cellml.org/cellml/2.0#"

// ParseError wraps a data-model or structural error with document position
// context.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }

func errAt(el *document.Element, err error) error {
	return &ParseError{Line: el.Line, Err: err}
}

func errAtf(el *document.Element, format string, args ...any) error {
	return &ParseError{Line: el.Line, Err: fmt.Errorf(format, args...)}
}

// Parse reads one document and builds the model. On error no model is
// returned, however far construction got.
func Parse(r io.Reader) (*cellml.Model, []cellml.Warning, error) {
	root, err := document.Read(r)
	if err != nil {
		return nil, nil, &ParseError{Err: err}
	}
	return ParseDocument(root)
}

// ParseDocument builds the model from an already-read document tree.
func ParseDocument(root *document.Element) (*cellml.Model, []cellml.Warning, error) {
	p := &parser{ids: make(map[string]*document.Element)}
	model, err := p.parseModel(root)
	if err != nil {
		return nil, nil, err
	}
	return model, p.warnings, nil
}

type parser struct {
	model    *cellml.Model
	warnings []cellml.Warning
	ids      map[string]*document.Element
}

var modelChildren = map[string]bool{
	"units": true, "component": true, "connection": true, "encapsulation": true,
}

func (p *parser) parseModel(root *document.Element) (*cellml.Model, error) {
	if root.Name != "model" {
		return nil, errAtf(root, "root element is %q, expected model", root.Name)
	}
	if root.Space != "" && root.Space != Namespace {
		return nil, errAtf(root, "root element is in namespace %q, expected %q", root.Space, Namespace)
	}
	name, ok := root.Attr("name")
	if !ok {
		return nil, errAtf(root, "model element has no name attribute")
	}

	if err := p.collectIDs(root); err != nil {
		return nil, err
	}

	model, err := cellml.NewModel(name)
	if err != nil {
		return nil, errAt(root, err)
	}
	model.ID = root.AttrOr("id", "")
	model.Meta = meta(root, "name")
	p.model = model

	for _, child := range root.Children {
		if child.Name == "import" {
			return nil, errAt(child, &cellml.Error{
				Kind: cellml.ErrUnsupported, Entity: "import",
				Message: "import elements are not supported",
			})
		}
		if !modelChildren[child.Name] {
			return nil, errAtf(child, "element %q is not allowed inside model", child.Name)
		}
	}

	if err := p.unitsPhase(root); err != nil {
		return nil, err
	}
	if err := p.componentsPhase(root); err != nil {
		return nil, err
	}
	if err := p.encapsulationPhase(root); err != nil {
		return nil, err
	}
	if err := p.connectionsPhase(root); err != nil {
		return nil, err
	}
	if err := p.mathPhase(root); err != nil {
		return nil, err
	}

	warnings, err := model.Validate()
	p.warnings = append(p.warnings, warnings...)
	if err != nil {
		return nil, errAt(root, err)
	}
	return model, nil
}

// collectIDs enforces document-wide uniqueness of the optional id attribute.
func (p *parser) collectIDs(el *document.Element) error {
	if id, ok := el.Attr("id"); ok && id != "" {
		if prev, dup := p.ids[id]; dup {
			return errAtf(el, "id %q is already used at line %d", id, prev.Line)
		}
		p.ids[id] = el
	}
	for _, child := range el.Children {
		if err := p.collectIDs(child); err != nil {
			return err
		}
	}
	return nil
}

// unitsPhase registers model-scoped units in document order. A row may
// reference units defined earlier in the same scope; referencing a name that
// appears later (or itself) is a hard error, while a name that appears
// nowhere at all is a warning and resolves to dimensionless.
func (p *parser) unitsPhase(root *document.Element) error {
	unitsEls := root.ChildrenNamed("units")

	declared := make(map[string]bool)
	for _, el := range unitsEls {
		if name, ok := el.Attr("name"); ok {
			declared[name] = true
		}
	}

	defined := make(map[string]bool)
	for _, el := range unitsEls {
		name, ok := el.Attr("name")
		if !ok {
			return errAtf(el, "units element has no name attribute")
		}

		var rows []cellml.UnitRow
		for _, child := range el.Children {
			if child.Name != "unit" {
				return errAtf(child, "element %q is not allowed inside units", child.Name)
			}
			base, ok := child.Attr("units")
			if !ok {
				return errAtf(child, "unit element has no units attribute")
			}
			row := cellml.UnitRow{
				Units:      base,
				Prefix:     child.AttrOr("prefix", ""),
				Exponent:   child.AttrOr("exponent", ""),
				Multiplier: child.AttrOr("multiplier", ""),
				ID:         child.AttrOr("id", ""),
			}
			if !p.rowResolvable(base, defined) {
				if declared[base] {
					return errAtf(child, "units %q references %q before its definition", name, base)
				}
				p.warnings = append(p.warnings, cellml.Warning{
					Code:    cellml.WarnUnresolvedUnits,
					Entity:  name,
					Message: fmt.Sprintf("unit row references unknown units %q, substituting dimensionless", base),
				})
				row = cellml.UnitRow{Units: "dimensionless"}
			}
			rows = append(rows, row)
		}

		def, err := p.model.AddUnits(name, rows)
		if err != nil {
			return errAt(el, err)
		}
		def.ID = el.AttrOr("id", "")
		def.Meta = meta(el, "name")
		defined[name] = true
	}
	return nil
}

// meta collects attributes outside the recognized set, so foreign annotations
// survive a parse/write round-trip.
func meta(el *document.Element, known ...string) map[string]string {
	isKnown := func(name string) bool {
		if name == "id" || name == "xmlns" {
			return true
		}
		for _, k := range known {
			if name == k {
				return true
			}
		}
		return false
	}
	var out map[string]string
	for _, attr := range el.Attrs {
		if attr.Space != "" || isKnown(attr.Name) {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[attr.Name] = attr.Value
	}
	return out
}

func (p *parser) rowResolvable(base string, defined map[string]bool) bool {
	if defined[base] {
		return true
	}
	_, err := p.model.UnitsValue(base)
	return err == nil
}

var componentChildren = map[string]bool{"variable": true, "math": true}

func (p *parser) componentsPhase(root *document.Element) error {
	for _, el := range root.ChildrenNamed("component") {
		name, ok := el.Attr("name")
		if !ok {
			return errAtf(el, "component element has no name attribute")
		}
		comp, err := p.model.AddComponent(name)
		if err != nil {
			return errAt(el, err)
		}
		comp.ID = el.AttrOr("id", "")
		comp.Meta = meta(el, "name")

		mathCount := 0
		for _, child := range el.Children {
			if !componentChildren[child.Name] {
				return errAtf(child, "element %q is not allowed inside component", child.Name)
			}
			if child.Name == "math" {
				mathCount++
				if mathCount > 1 {
					return errAtf(child, "component %q has more than one math element", name)
				}
				continue
			}

			varName, ok := child.Attr("name")
			if !ok {
				return errAtf(child, "variable element has no name attribute")
			}
			unitsName, ok := child.Attr("units")
			if !ok {
				return errAtf(child, "variable %q has no units attribute", varName)
			}
			iface, err := cellml.ParseInterface(child.AttrOr("interface", ""))
			if err != nil {
				return errAt(child, err)
			}
			v, err := comp.AddVariable(varName, unitsName, iface)
			if err != nil {
				return errAt(child, err)
			}
			v.ID = child.AttrOr("id", "")
			v.Meta = meta(child, "name", "units", "interface", "initial_value")
		}
	}
	return nil
}

func (p *parser) encapsulationPhase(root *document.Element) error {
	encEls := root.ChildrenNamed("encapsulation")
	if len(encEls) == 0 {
		return nil
	}
	if len(encEls) > 1 {
		return errAtf(encEls[1], "model has more than one encapsulation element")
	}

	seen := make(map[string]bool)
	for _, ref := range encEls[0].Children {
		if err := p.componentRef(ref, nil, seen); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) componentRef(el *document.Element, parent *cellml.Component, seen map[string]bool) error {
	if el.Name != "component_ref" {
		return errAtf(el, "element %q is not allowed inside encapsulation", el.Name)
	}
	name, ok := el.Attr("component")
	if !ok {
		return errAtf(el, "component_ref has no component attribute")
	}
	comp, ok := p.model.Component(name)
	if !ok {
		return errAtf(el, "component_ref names unknown component %q", name)
	}
	if seen[name] {
		return errAtf(el, "component %q appears more than once in the encapsulation", name)
	}
	seen[name] = true

	if parent != nil {
		if err := comp.SetParent(parent); err != nil {
			return errAt(el, err)
		}
	}
	for _, child := range el.Children {
		if err := p.componentRef(child, comp, seen); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) connectionsPhase(root *document.Element) error {
	for _, el := range root.ChildrenNamed("connection") {
		name1, ok1 := el.Attr("component_1")
		name2, ok2 := el.Attr("component_2")
		if !ok1 || !ok2 {
			return errAtf(el, "connection element needs component_1 and component_2 attributes")
		}
		c1, ok := p.model.Component(name1)
		if !ok {
			return errAtf(el, "connection names unknown component %q", name1)
		}
		c2, ok := p.model.Component(name2)
		if !ok {
			return errAtf(el, "connection names unknown component %q", name2)
		}

		maps := el.ChildrenNamed("map_variables")
		if len(maps) == 0 {
			return errAtf(el, "connection between %q and %q has no map_variables", name1, name2)
		}
		for _, child := range el.Children {
			if child.Name != "map_variables" {
				return errAtf(child, "element %q is not allowed inside connection", child.Name)
			}
			var1, ok1 := child.Attr("variable_1")
			var2, ok2 := child.Attr("variable_2")
			if !ok1 || !ok2 {
				return errAtf(child, "map_variables needs variable_1 and variable_2 attributes")
			}
			v1, ok := c1.Variable(var1)
			if !ok {
				return errAtf(child, "component %q has no variable %q", name1, var1)
			}
			v2, ok := c2.Variable(var2)
			if !ok {
				return errAtf(child, "component %q has no variable %q", name2, var2)
			}
			if err := p.model.AddConnectionWithID(v1, v2, child.AttrOr("id", "")); err != nil {
				return errAt(child, err)
			}
		}
	}
	return nil
}

// mathPhase populates equations and initial values last, after the static
// structure is fixed.
func (p *parser) mathPhase(root *document.Element) error {
	for _, el := range root.ChildrenNamed("component") {
		comp, _ := p.model.Component(el.AttrOr("name", ""))

		for _, child := range el.ChildrenNamed("variable") {
			if raw, ok := child.Attr("initial_value"); ok {
				v, _ := comp.Variable(child.AttrOr("name", ""))
				if err := v.SetInitialValue(raw); err != nil {
					return errAt(child, err)
				}
			}
		}

		mathEl, ok := el.FirstChild("math")
		if !ok {
			continue
		}
		resolve := func(name string) error {
			if _, ok := comp.Variable(name); !ok {
				return fmt.Errorf("component %q has no variable %q", comp.Name(), name)
			}
			return nil
		}
		number := func(value float64, unitsName string) (*expr.Number, error) {
			return &expr.Number{Value: value, Units: unitsName}, nil
		}
		eqs, err := mathml.ParseMath(mathEl, resolve, number)
		if err != nil {
			return errAt(mathEl, err)
		}
		for _, eq := range eqs {
			target, ok := comp.Variable(eq.Target())
			if !ok {
				return errAtf(mathEl, "equation targets unknown variable %q", eq.Target())
			}
			if err := target.SetEquation(eq); err != nil {
				return errAt(mathEl, err)
			}
			if deriv, isDeriv := eq.LHS.(*expr.DerivLHS); isDeriv {
				wrt, _ := comp.Variable(deriv.Wrt)
				if err := p.model.SetVariableOfIntegration(wrt); err != nil {
					return errAt(mathEl, err)
				}
			}
		}
	}
	return nil
}
