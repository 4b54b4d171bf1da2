// Package mathml converts between a content-MathML subset and the native
// equation objects in pkg/expr. Supported: apply with the arithmetic
// operators, the common analytic functions, first-order diff/bvar, ci, cn
// (with a cellml:units attribute), and the pi/exponentiale constants.
package mathml

import (
	"fmt"
	"strconv"

	"github.com/dd0wney/cluso-cellml/pkg/document"
	"github.com/dd0wney/cluso-cellml/pkg/expr"
)

// Namespace is the MathML namespace URI.
const Namespace = "http://www.w3.org/1998/Math/MathML"

// Resolver validates a ci variable name and may reject unknown names.
type Resolver func(name string) error

// NumberFactory builds a numeric literal, attaching the unit named by the
// cn element's units attribute (empty when absent).
type NumberFactory func(value float64, unitsName string) (*expr.Number, error)

var binaryOps = map[string]expr.Op{
	"plus":   expr.OpAdd,
	"minus":  expr.OpSub,
	"times":  expr.OpMul,
	"divide": expr.OpDiv,
	"power":  expr.OpPow,
	"root":   expr.OpRoot,
}

var knownFns = map[string]bool{
	"exp": true, "ln": true, "log": true, "abs": true,
	"floor": true, "ceiling": true,
	"sin": true, "cos": true, "tan": true,
	"sec": true, "csc": true, "cot": true,
	"sinh": true, "cosh": true, "tanh": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"arcsinh": true, "arccosh": true, "arctanh": true,
}

// ParseMath parses every apply child of a math element into an equation.
func ParseMath(math *document.Element, resolve Resolver, number NumberFactory) ([]*expr.Equation, error) {
	var eqs []*expr.Equation
	for _, child := range math.Children {
		if child.Name != "apply" {
			return nil, errAt(child, "unexpected element %q inside math, only apply is allowed", child.Name)
		}
		eq, err := ParseApply(child, resolve, number)
		if err != nil {
			return nil, err
		}
		eqs = append(eqs, eq)
	}
	return eqs, nil
}

// ParseApply parses one eq-wrapped apply element into an equation.
func ParseApply(apply *document.Element, resolve Resolver, number NumberFactory) (*expr.Equation, error) {
	if len(apply.Children) != 3 || apply.Children[0].Name != "eq" {
		return nil, errAt(apply, "top-level apply must be <apply><eq/>lhs rhs</apply>")
	}

	lhs, err := parseLHS(apply.Children[1], resolve)
	if err != nil {
		return nil, err
	}
	rhs, err := parseExpr(apply.Children[2], resolve, number)
	if err != nil {
		return nil, err
	}
	return &expr.Equation{LHS: lhs, RHS: rhs}, nil
}

func parseLHS(el *document.Element, resolve Resolver) (expr.LHS, error) {
	switch el.Name {
	case "ci":
		name := el.Text
		if err := resolve(name); err != nil {
			return nil, errAt(el, "%v", err)
		}
		return &expr.VarLHS{Name: name}, nil
	case "apply":
		name, wrt, err := parseDiff(el, resolve)
		if err != nil {
			return nil, err
		}
		return &expr.DerivLHS{Name: name, Wrt: wrt}, nil
	}
	return nil, errAt(el, "equation left side must be a ci or a diff apply, got %q", el.Name)
}

// parseDiff decodes <apply><diff/><bvar><ci>t</ci></bvar><ci>x</ci></apply>.
func parseDiff(el *document.Element, resolve Resolver) (name, wrt string, err error) {
	if len(el.Children) != 3 || el.Children[0].Name != "diff" {
		return "", "", errAt(el, "expected a first-order diff apply")
	}
	bvar := el.Children[1]
	if bvar.Name != "bvar" || len(bvar.Children) == 0 || bvar.Children[0].Name != "ci" {
		return "", "", errAt(el, "diff is missing its bvar bound variable")
	}
	if _, hasDegree := bvar.FirstChild("degree"); hasDegree || len(bvar.Children) > 1 {
		return "", "", errAt(el, "higher-order derivatives are not supported")
	}
	target := el.Children[2]
	if target.Name != "ci" {
		return "", "", errAt(el, "diff target must be a ci, got %q", target.Name)
	}
	wrt = bvar.Children[0].Text
	name = target.Text
	if err := resolve(wrt); err != nil {
		return "", "", errAt(bvar, "%v", err)
	}
	if err := resolve(name); err != nil {
		return "", "", errAt(target, "%v", err)
	}
	return name, wrt, nil
}

func parseExpr(el *document.Element, resolve Resolver, number NumberFactory) (expr.Expr, error) {
	switch el.Name {
	case "ci":
		name := el.Text
		if err := resolve(name); err != nil {
			return nil, errAt(el, "%v", err)
		}
		return &expr.Var{Name: name}, nil
	case "cn":
		value, err := strconv.ParseFloat(el.Text, 64)
		if err != nil {
			return nil, errAt(el, "cn content %q is not a number", el.Text)
		}
		unitsName, _ := el.Attr("units")
		n, err := number(value, unitsName)
		if err != nil {
			return nil, errAt(el, "%v", err)
		}
		return n, nil
	case "pi", "exponentiale":
		return &expr.Const{Name: el.Name}, nil
	case "apply":
		return parseApplyExpr(el, resolve, number)
	}
	return nil, errAt(el, "unsupported MathML element %q", el.Name)
}

func parseApplyExpr(el *document.Element, resolve Resolver, number NumberFactory) (expr.Expr, error) {
	if len(el.Children) < 2 {
		return nil, errAt(el, "apply needs an operator and at least one operand")
	}
	op := el.Children[0]
	operands := el.Children[1:]

	if op.Name == "diff" {
		name, wrt, err := parseDiff(el, resolve)
		if err != nil {
			return nil, err
		}
		return &expr.Deriv{Name: name, Wrt: wrt}, nil
	}

	if op.Name == "minus" && len(operands) == 1 {
		x, err := parseExpr(operands[0], resolve, number)
		if err != nil {
			return nil, err
		}
		return &expr.Neg{X: x}, nil
	}

	if binOp, ok := binaryOps[op.Name]; ok {
		if len(operands) < 2 {
			return nil, errAt(el, "%s needs at least two operands", op.Name)
		}
		// n-ary plus/times fold left.
		acc, err := parseExpr(operands[0], resolve, number)
		if err != nil {
			return nil, err
		}
		for _, operand := range operands[1:] {
			y, err := parseExpr(operand, resolve, number)
			if err != nil {
				return nil, err
			}
			acc = &expr.Binary{Op: binOp, X: acc, Y: y}
		}
		return acc, nil
	}

	if knownFns[op.Name] {
		if len(operands) != 1 {
			return nil, errAt(el, "%s takes exactly one operand", op.Name)
		}
		arg, err := parseExpr(operands[0], resolve, number)
		if err != nil {
			return nil, err
		}
		return &expr.Call{Fn: op.Name, Args: []expr.Expr{arg}}, nil
	}

	return nil, errAt(el, "unsupported MathML operator %q", op.Name)
}

func errAt(el *document.Element, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if el.Line > 0 {
		return fmt.Errorf("line %d: %s", el.Line, msg)
	}
	return fmt.Errorf("%s", msg)
}
