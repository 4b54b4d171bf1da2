package expr

import (
	"github.com/dd0wney/cluso-cellml/pkg/units"
)

// UnitResolver answers unit lookups during inference: VarUnit resolves a
// variable identifier, UnitByName resolves a unit name attached to a literal.
// Either may report false when the answer is unknown; inference is tolerant
// and simply gives up on that branch.
type UnitResolver struct {
	VarUnit    func(name string) (units.Value, bool)
	UnitByName func(name string) (units.Value, bool)
}

// dimensionless-result functions: their argument unit is discarded.
var dimensionlessFns = map[string]bool{
	"sin": true, "cos": true, "tan": true,
	"sec": true, "csc": true, "cot": true,
	"sinh": true, "cosh": true, "tanh": true,
	"arcsin": true, "arccos": true, "arctan": true,
	"arcsinh": true, "arccosh": true, "arctanh": true,
	"exp": true, "ln": true, "log": true,
}

// unit-preserving functions: the result carries the argument's unit.
var preservingFns = map[string]bool{
	"abs": true, "floor": true, "ceiling": true,
}

// InferUnit derives the unit of an expression where possible. It is tolerant:
// unresolvable branches report false instead of failing, and additive
// expressions take the unit of the first resolvable operand.
func InferUnit(e Expr, r UnitResolver) (units.Value, bool) {
	switch n := e.(type) {
	case *Number:
		if n.Units == "" {
			return units.Value{}, false
		}
		return r.UnitByName(n.Units)
	case *Var:
		return r.VarUnit(n.Name)
	case *Const:
		return units.Dimensionless(), true
	case *Neg:
		return InferUnit(n.X, r)
	case *Deriv:
		num, ok1 := r.VarUnit(n.Name)
		den, ok2 := r.VarUnit(n.Wrt)
		if !ok1 || !ok2 {
			return units.Value{}, false
		}
		return num.Over(den), true
	case *Binary:
		switch n.Op {
		case OpAdd, OpSub:
			if u, ok := InferUnit(n.X, r); ok {
				return u, true
			}
			return InferUnit(n.Y, r)
		case OpMul:
			x, ok1 := InferUnit(n.X, r)
			y, ok2 := InferUnit(n.Y, r)
			if ok1 && ok2 {
				return x.Times(y), true
			}
			// A literal without units multiplies without changing dimensions.
			if ok1 && isUnitlessLiteral(n.Y) {
				return x, true
			}
			if ok2 && isUnitlessLiteral(n.X) {
				return y, true
			}
			return units.Value{}, false
		case OpDiv:
			x, ok1 := InferUnit(n.X, r)
			y, ok2 := InferUnit(n.Y, r)
			if ok1 && ok2 {
				return x.Over(y), true
			}
			if ok1 && isUnitlessLiteral(n.Y) {
				return x, true
			}
			return units.Value{}, false
		case OpPow:
			base, ok := InferUnit(n.X, r)
			if !ok {
				return units.Value{}, false
			}
			p, isLit := Literal(n.Y)
			if !isLit {
				return units.Value{}, false
			}
			return base.Pow(p), true
		case OpRoot:
			base, ok := InferUnit(n.X, r)
			if !ok {
				return units.Value{}, false
			}
			p, isLit := Literal(n.Y)
			if !isLit || p == 0 {
				return units.Value{}, false
			}
			return base.Pow(1 / p), true
		}
	case *Call:
		if dimensionlessFns[n.Fn] {
			return units.Dimensionless(), true
		}
		if preservingFns[n.Fn] && len(n.Args) == 1 {
			return InferUnit(n.Args[0], r)
		}
	}
	return units.Value{}, false
}

func isUnitlessLiteral(e Expr) bool {
	n, ok := e.(*Number)
	return ok && n.Units == ""
}
