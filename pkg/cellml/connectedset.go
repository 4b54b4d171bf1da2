package cellml

import (
	"sort"

	"github.com/dd0wney/cluso-cellml/pkg/expr"
)

// ownership records which member of a connected set defines its equation and
// initial value. A connected set holds at most one of each, each attributed
// to the member that supplied it.
type ownership struct {
	eqOwner  int // variable id, -1 when unset
	equation *expr.Equation
	ivOwner  int // variable id, -1 when unset
	initial  string
}

// setIndex is a union-find structure over model-wide variable ids. Ownership
// lives on class roots; union-by-size folds the ownership-conflict check into
// the union step.
type setIndex struct {
	parent []int
	size   []int
	vars   []*Variable
	owner  []ownership
}

func newSetIndex() *setIndex {
	return &setIndex{}
}

// add registers a variable and creates its singleton set, returning its id.
func (s *setIndex) add(v *Variable) int {
	id := len(s.vars)
	s.parent = append(s.parent, id)
	s.size = append(s.size, 1)
	s.vars = append(s.vars, v)
	s.owner = append(s.owner, ownership{eqOwner: -1, ivOwner: -1})
	return id
}

// find returns the class root for a variable id, compressing paths.
func (s *setIndex) find(id int) int {
	for s.parent[id] != id {
		s.parent[id] = s.parent[s.parent[id]]
		id = s.parent[id]
	}
	return id
}

// union merges the classes of a and b. The merged class takes the equation
// and initial value from whichever input class has one; it fails when both
// classes already own a conflicting equation, or both own a conflicting
// initial value. Merging a class with itself is a no-op.
func (s *setIndex) union(a, b int) error {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return nil
	}

	oa, ob := s.owner[ra], s.owner[rb]
	if oa.eqOwner >= 0 && ob.eqOwner >= 0 {
		return newError(ErrOverdetermined, s.vars[oa.eqOwner].QualifiedName(),
			"cannot connect: %s and %s both define an equation for the same connected set",
			s.vars[oa.eqOwner].QualifiedName(), s.vars[ob.eqOwner].QualifiedName())
	}
	if oa.ivOwner >= 0 && ob.ivOwner >= 0 {
		return newError(ErrOverdetermined, s.vars[oa.ivOwner].QualifiedName(),
			"cannot connect: %s and %s both define an initial value for the same connected set",
			s.vars[oa.ivOwner].QualifiedName(), s.vars[ob.ivOwner].QualifiedName())
	}

	merged := ownership{eqOwner: -1, ivOwner: -1}
	if oa.eqOwner >= 0 {
		merged.eqOwner, merged.equation = oa.eqOwner, oa.equation
	} else if ob.eqOwner >= 0 {
		merged.eqOwner, merged.equation = ob.eqOwner, ob.equation
	}
	if oa.ivOwner >= 0 {
		merged.ivOwner, merged.initial = oa.ivOwner, oa.initial
	} else if ob.ivOwner >= 0 {
		merged.ivOwner, merged.initial = ob.ivOwner, ob.initial
	}

	// Union by size.
	if s.size[ra] < s.size[rb] {
		ra, rb = rb, ra
	}
	s.parent[rb] = ra
	s.size[ra] += s.size[rb]
	s.owner[ra] = merged
	return nil
}

// setEquation assigns the class equation to the given member. Fails when a
// different member already owns one.
func (s *setIndex) setEquation(id int, eq *expr.Equation) error {
	root := s.find(id)
	o := &s.owner[root]
	if o.eqOwner >= 0 && o.eqOwner != id {
		return newError(ErrOverdetermined, s.vars[id].QualifiedName(),
			"connected variable %s already defines the equation",
			s.vars[o.eqOwner].QualifiedName())
	}
	o.eqOwner, o.equation = id, eq
	return nil
}

// unsetEquation clears the class equation if the given member owns it.
func (s *setIndex) unsetEquation(id int) {
	root := s.find(id)
	o := &s.owner[root]
	if o.eqOwner == id {
		o.eqOwner, o.equation = -1, nil
	}
}

// setInitial assigns the class initial value to the given member. Fails when
// a different member already owns one.
func (s *setIndex) setInitial(id int, raw string) error {
	root := s.find(id)
	o := &s.owner[root]
	if o.ivOwner >= 0 && o.ivOwner != id {
		return newError(ErrOverdetermined, s.vars[id].QualifiedName(),
			"connected variable %s already defines the initial value",
			s.vars[o.ivOwner].QualifiedName())
	}
	o.ivOwner, o.initial = id, raw
	return nil
}

// unsetInitial clears the class initial value if the given member owns it.
func (s *setIndex) unsetInitial(id int) {
	root := s.find(id)
	o := &s.owner[root]
	if o.ivOwner == id {
		o.ivOwner, o.initial = -1, ""
	}
}

// members returns the variables in the class of id, ordered by id.
func (s *setIndex) members(id int) []*Variable {
	root := s.find(id)
	var out []*Variable
	for i := range s.vars {
		if s.find(i) == root {
			out = append(out, s.vars[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// roots returns one representative id per distinct class, in id order.
func (s *setIndex) roots() []int {
	var out []int
	for i := range s.vars {
		if s.find(i) == i {
			out = append(out, i)
		}
	}
	return out
}

// ConnectedSet is a read-only view of one equivalence class of transitively
// connected variables.
type ConnectedSet struct {
	Members       []*Variable
	EquationOwner *Variable
	Equation      *expr.Equation
	InitialOwner  *Variable
	InitialValue  string
}

// view materializes the class of id.
func (s *setIndex) view(id int) *ConnectedSet {
	root := s.find(id)
	o := s.owner[root]
	set := &ConnectedSet{Members: s.members(id)}
	if o.eqOwner >= 0 {
		set.EquationOwner = s.vars[o.eqOwner]
		set.Equation = o.equation
	}
	if o.ivOwner >= 0 {
		set.InitialOwner = s.vars[o.ivOwner]
		set.InitialValue = o.initial
	}
	return set
}

// HasEquation reports whether any member defines an equation.
func (c *ConnectedSet) HasEquation() bool { return c.EquationOwner != nil }

// HasInitialValue reports whether any member defines an initial value.
func (c *ConnectedSet) HasInitialValue() bool { return c.InitialOwner != nil }

// IsFree reports whether the set has neither an equation nor an initial value.
func (c *ConnectedSet) IsFree() bool { return !c.HasEquation() && !c.HasInitialValue() }

// Contains reports whether v is a member of the set.
func (c *ConnectedSet) Contains(v *Variable) bool {
	for _, m := range c.Members {
		if m == v {
			return true
		}
	}
	return false
}

// Validate checks the equation/initial-value pairing rules for one set: a
// derivative equation requires an initial value in the same set, and a plain
// equation may not coexist with one. Messages attribute each side to the
// member that supplied it.
func (c *ConnectedSet) Validate() error {
	if !c.HasEquation() {
		return nil
	}
	if c.Equation.IsDerivative() {
		if !c.HasInitialValue() {
			return newError(ErrMissingInitialValue, c.EquationOwner.QualifiedName(),
				"state variable %s has a derivative equation but its connected set has no initial value",
				c.EquationOwner.QualifiedName())
		}
		return nil
	}
	if c.HasInitialValue() {
		return newError(ErrOverdetermined, c.InitialOwner.QualifiedName(),
			"%s defines an equation while %s defines an initial value for the same connected set",
			c.EquationOwner.QualifiedName(), c.InitialOwner.QualifiedName())
	}
	return nil
}
