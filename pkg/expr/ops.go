package expr

// Walk calls fn for every node of the expression tree in depth-first order.
func Walk(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch n := e.(type) {
	case *Neg:
		Walk(n.X, fn)
	case *Binary:
		Walk(n.X, fn)
		Walk(n.Y, fn)
	case *Call:
		for _, a := range n.Args {
			Walk(a, fn)
		}
	}
}

// Vars returns the set of variable identifiers referenced by the expression,
// including the variable and bound variable of derivative references.
func Vars(e Expr) map[string]bool {
	vars := make(map[string]bool)
	Walk(e, func(n Expr) {
		switch v := n.(type) {
		case *Var:
			vars[v.Name] = true
		case *Deriv:
			vars[v.Name] = true
			if v.Wrt != "" {
				vars[v.Wrt] = true
			}
		}
	})
	return vars
}

// EquationVars returns all variable identifiers an equation touches, left side
// included.
func EquationVars(eq *Equation) map[string]bool {
	vars := Vars(eq.RHS)
	switch l := eq.LHS.(type) {
	case *VarLHS:
		vars[l.Name] = true
	case *DerivLHS:
		vars[l.Name] = true
		if l.Wrt != "" {
			vars[l.Wrt] = true
		}
	}
	return vars
}

// Rename returns a copy of the expression with variable identifiers replaced
// according to the substitution map. Identifiers absent from the map are kept.
func Rename(e Expr, subst map[string]string) Expr {
	switch n := e.(type) {
	case *Number, *Const:
		return e.Clone()
	case *Var:
		if to, ok := subst[n.Name]; ok {
			return &Var{Name: to}
		}
		return n.Clone()
	case *Deriv:
		d := &Deriv{Name: n.Name, Wrt: n.Wrt}
		if to, ok := subst[d.Name]; ok {
			d.Name = to
		}
		if to, ok := subst[d.Wrt]; ok {
			d.Wrt = to
		}
		return d
	case *Neg:
		return &Neg{X: Rename(n.X, subst)}
	case *Binary:
		return &Binary{Op: n.Op, X: Rename(n.X, subst), Y: Rename(n.Y, subst)}
	case *Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Rename(a, subst)
		}
		return &Call{Fn: n.Fn, Args: args}
	}
	return e.Clone()
}

// RenameEquation applies Rename to both sides of an equation.
func RenameEquation(eq *Equation, subst map[string]string) *Equation {
	out := &Equation{RHS: Rename(eq.RHS, subst)}
	switch l := eq.LHS.(type) {
	case *VarLHS:
		name := l.Name
		if to, ok := subst[name]; ok {
			name = to
		}
		out.LHS = &VarLHS{Name: name}
	case *DerivLHS:
		name, wrt := l.Name, l.Wrt
		if to, ok := subst[name]; ok {
			name = to
		}
		if to, ok := subst[wrt]; ok {
			wrt = to
		}
		out.LHS = &DerivLHS{Name: name, Wrt: wrt}
	}
	return out
}

// Scale multiplies the expression by a constant factor. A factor of 1 returns
// the expression unchanged.
func Scale(e Expr, factor float64) Expr {
	if factor == 1 {
		return e
	}
	return &Binary{Op: OpMul, X: &Number{Value: factor}, Y: e}
}

// Literal extracts the numeric value of a literal-only expression. A bare
// number or a negated number qualifies; anything referencing a variable does
// not.
func Literal(e Expr) (float64, bool) {
	switch n := e.(type) {
	case *Number:
		return n.Value, true
	case *Neg:
		if v, ok := Literal(n.X); ok {
			return -v, true
		}
	}
	return 0, false
}

// Equal reports structural equality of two expressions.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case *Number:
		y, ok := b.(*Number)
		return ok && x.Value == y.Value && x.Units == y.Units
	case *Var:
		y, ok := b.(*Var)
		return ok && x.Name == y.Name
	case *Const:
		y, ok := b.(*Const)
		return ok && x.Name == y.Name
	case *Deriv:
		y, ok := b.(*Deriv)
		return ok && x.Name == y.Name && x.Wrt == y.Wrt
	case *Neg:
		y, ok := b.(*Neg)
		return ok && Equal(x.X, y.X)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.X, y.X) && Equal(x.Y, y.Y)
	case *Call:
		y, ok := b.(*Call)
		if !ok || x.Fn != y.Fn || len(x.Args) != len(y.Args) {
			return false
		}
		for i := range x.Args {
			if !Equal(x.Args[i], y.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}
