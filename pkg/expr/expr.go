// Package expr provides the algebraic expression objects shared by the CellML
// model, the MathML codec and the native flat-equation model. Variables are
// referenced by identifier; each model interprets identifiers in its own
// namespace.
package expr

import (
	"fmt"
	"strconv"
	"strings"
)

// Op identifies a binary arithmetic operator.
type Op string

const (
	OpAdd Op = "plus"
	OpSub Op = "minus"
	OpMul Op = "times"
	OpDiv Op = "divide"
	OpPow Op = "power"
	OpRoot Op = "root"
)

// Expr is an algebraic expression node.
type Expr interface {
	// Clone returns a deep copy of the expression.
	Clone() Expr
	// String renders the expression in infix debugging form.
	String() string
	isExpr()
}

// Number represents a numeric literal with an optional unit name.
type Number struct {
	Value float64
	// Units is the unit name attached to the literal, empty when absent.
	Units string
}

// Var represents a reference to a variable by identifier.
type Var struct {
	Name string
}

// Const represents a named mathematical constant (pi, exponentiale).
type Const struct {
	Name string
}

// Neg represents unary negation.
type Neg struct {
	X Expr
}

// Binary represents a binary arithmetic operation.
type Binary struct {
	Op   Op
	X, Y Expr
}

// Call represents a function application (sin, exp, ln, abs, ...).
type Call struct {
	Fn   string
	Args []Expr
}

// Deriv represents a first-order derivative reference d(Name)/d(Wrt)
// appearing inside an expression.
type Deriv struct {
	Name string
	Wrt  string
}

func (*Number) isExpr() {}
func (*Var) isExpr()    {}
func (*Const) isExpr()  {}
func (*Neg) isExpr()    {}
func (*Binary) isExpr() {}
func (*Call) isExpr()   {}
func (*Deriv) isExpr()  {}

// Clone implementations

func (n *Number) Clone() Expr { c := *n; return &c }
func (v *Var) Clone() Expr    { c := *v; return &c }
func (c *Const) Clone() Expr  { d := *c; return &d }
func (n *Neg) Clone() Expr    { return &Neg{X: n.X.Clone()} }
func (b *Binary) Clone() Expr { return &Binary{Op: b.Op, X: b.X.Clone(), Y: b.Y.Clone()} }
func (d *Deriv) Clone() Expr  { c := *d; return &c }

func (c *Call) Clone() Expr {
	args := make([]Expr, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.Clone()
	}
	return &Call{Fn: c.Fn, Args: args}
}

// String implementations

func (n *Number) String() string {
	s := strconv.FormatFloat(n.Value, 'g', -1, 64)
	if n.Units != "" {
		s += "{" + n.Units + "}"
	}
	return s
}

func (v *Var) String() string   { return v.Name }
func (c *Const) String() string { return c.Name }
func (n *Neg) String() string   { return "-(" + n.X.String() + ")" }

var opSymbols = map[Op]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpPow: "^", OpRoot: "root",
}

func (b *Binary) String() string {
	return "(" + b.X.String() + " " + opSymbols[b.Op] + " " + b.Y.String() + ")"
}

func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return c.Fn + "(" + strings.Join(parts, ", ") + ")"
}

func (d *Deriv) String() string {
	return fmt.Sprintf("d(%s)/d(%s)", d.Name, d.Wrt)
}

// LHS is the left-hand side of an equation: a plain variable reference or a
// first-order derivative.
type LHS interface {
	CloneLHS() LHS
	String() string
	isLHS()
}

// VarLHS is an equation left side naming a variable directly.
type VarLHS struct {
	Name string
}

// DerivLHS is an equation left side of the form d(Name)/d(Wrt).
type DerivLHS struct {
	Name string
	Wrt  string
}

func (*VarLHS) isLHS()   {}
func (*DerivLHS) isLHS() {}

func (l *VarLHS) CloneLHS() LHS   { c := *l; return &c }
func (l *DerivLHS) CloneLHS() LHS { c := *l; return &c }

func (l *VarLHS) String() string   { return l.Name }
func (l *DerivLHS) String() string { return fmt.Sprintf("d(%s)/d(%s)", l.Name, l.Wrt) }

// Equation pairs a left side with its defining expression.
type Equation struct {
	LHS LHS
	RHS Expr
}

// Clone returns a deep copy of the equation.
func (e *Equation) Clone() *Equation {
	return &Equation{LHS: e.LHS.CloneLHS(), RHS: e.RHS.Clone()}
}

// IsDerivative reports whether the equation defines a derivative.
func (e *Equation) IsDerivative() bool {
	_, ok := e.LHS.(*DerivLHS)
	return ok
}

// Target returns the variable name the equation defines.
func (e *Equation) Target() string {
	switch l := e.LHS.(type) {
	case *VarLHS:
		return l.Name
	case *DerivLHS:
		return l.Name
	}
	return ""
}

func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}
