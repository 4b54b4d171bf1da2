package mathml

import (
	"strconv"

	"github.com/dd0wney/cluso-cellml/pkg/document"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
)

// NameFunc maps a variable identifier to the name written into a ci element.
type NameFunc func(name string) string

// UnitFunc maps a stored literal unit name to the name written into the cn
// units attribute; an empty result omits the attribute.
type UnitFunc func(name string) string

// WriteMath serializes equations into a math element carrying the MathML
// namespace declaration. timeVar supplies the bound variable for derivative
// left sides whose own record lacks one.
func WriteMath(eqs []*expr.Equation, name NameFunc, unit UnitFunc, timeVar string) *document.Element {
	math := document.NewElement(Namespace, "math")
	math.SetAttr("xmlns", Namespace)
	for _, eq := range eqs {
		math.AddChild(writeEquation(eq, name, unit, timeVar))
	}
	return math
}

func writeEquation(eq *expr.Equation, name NameFunc, unit UnitFunc, timeVar string) *document.Element {
	apply := document.NewElement(Namespace, "apply")
	apply.AddChild(document.NewElement(Namespace, "eq"))

	switch l := eq.LHS.(type) {
	case *expr.VarLHS:
		apply.AddChild(ci(name(l.Name)))
	case *expr.DerivLHS:
		wrt := l.Wrt
		if wrt == "" {
			wrt = timeVar
		}
		apply.AddChild(diffApply(name(l.Name), name(wrt)))
	}

	apply.AddChild(writeExpr(eq.RHS, name, unit, timeVar))
	return apply
}

func writeExpr(e expr.Expr, name NameFunc, unit UnitFunc, timeVar string) *document.Element {
	switch n := e.(type) {
	case *expr.Number:
		cn := document.NewElement(Namespace, "cn")
		cn.Text = strconv.FormatFloat(n.Value, 'g', -1, 64)
		if n.Units != "" {
			if u := unit(n.Units); u != "" {
				cn.Attrs = append(cn.Attrs, document.Attr{
					Space: "http://www.cellml.org/cellml/2.0#",
					Name:  "units",
					Value: u,
				})
			}
		}
		return cn
	case *expr.Var:
		return ci(name(n.Name))
	case *expr.Const:
		return document.NewElement(Namespace, n.Name)
	case *expr.Deriv:
		wrt := n.Wrt
		if wrt == "" {
			wrt = timeVar
		}
		return diffApply(name(n.Name), name(wrt))
	case *expr.Neg:
		apply := document.NewElement(Namespace, "apply")
		apply.AddChild(document.NewElement(Namespace, "minus"))
		apply.AddChild(writeExpr(n.X, name, unit, timeVar))
		return apply
	case *expr.Binary:
		apply := document.NewElement(Namespace, "apply")
		apply.AddChild(document.NewElement(Namespace, string(n.Op)))
		apply.AddChild(writeExpr(n.X, name, unit, timeVar))
		apply.AddChild(writeExpr(n.Y, name, unit, timeVar))
		return apply
	case *expr.Call:
		apply := document.NewElement(Namespace, "apply")
		apply.AddChild(document.NewElement(Namespace, n.Fn))
		for _, a := range n.Args {
			apply.AddChild(writeExpr(a, name, unit, timeVar))
		}
		return apply
	}
	return document.NewElement(Namespace, "cn")
}

func ci(name string) *document.Element {
	el := document.NewElement(Namespace, "ci")
	el.Text = name
	return el
}

func diffApply(name, wrt string) *document.Element {
	apply := document.NewElement(Namespace, "apply")
	apply.AddChild(document.NewElement(Namespace, "diff"))
	bvar := document.NewElement(Namespace, "bvar")
	bvar.AddChild(ci(wrt))
	apply.AddChild(bvar)
	apply.AddChild(ci(name))
	return apply
}
