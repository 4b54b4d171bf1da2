package cellml

import "fmt"

// Validate checks the whole graph: encapsulation cycles, every distinct
// connected set's equation/initial-value pairing, the free-set census, and
// the variable of integration's status. It returns the non-fatal warnings
// alongside any hard error.
func (m *Model) Validate() ([]Warning, error) {
	var warnings []Warning

	for _, c := range m.components {
		if err := c.validate(); err != nil {
			return warnings, err
		}
	}

	voiRoot := -1
	if m.voi != nil {
		voiRoot = m.sets.find(m.voi.id)
	}

	var freeReps []*Variable
	for _, root := range m.sets.roots() {
		set := m.sets.view(root)
		if err := set.Validate(); err != nil {
			return warnings, err
		}
		if set.IsFree() && root != voiRoot {
			freeReps = append(freeReps, set.Members[0])
		}
	}

	// The variable of integration must stay free: nothing in its connected
	// set may supply an equation or an initial value. The message names the
	// member that did, which can differ from the variable of integration
	// itself when the value arrived through a connection.
	if m.voi != nil {
		set := m.voi.Set()
		if set.HasEquation() {
			return warnings, newError(ErrOverdetermined, m.voi.QualifiedName(),
				"variable of integration %s must be free, but %s supplies an equation%s",
				m.voi.QualifiedName(), set.EquationOwner.QualifiedName(),
				attribution(m.voi, set.EquationOwner))
		}
		if set.HasInitialValue() {
			return warnings, newError(ErrOverdetermined, m.voi.QualifiedName(),
				"variable of integration %s must be free, but %s supplies an initial value%s",
				m.voi.QualifiedName(), set.InitialOwner.QualifiedName(),
				attribution(m.voi, set.InitialOwner))
		}
	}

	for _, rep := range freeReps {
		warnings = append(warnings, Warning{
			Code:    WarnFreeVariable,
			Entity:  rep.QualifiedName(),
			Message: fmt.Sprintf("variable %s has neither an equation nor an initial value and is not the variable of integration", rep.QualifiedName()),
		})
	}
	if len(freeReps) > 1 {
		warnings = append(warnings, Warning{
			Code:    WarnMultipleFreeVariables,
			Message: fmt.Sprintf("model has %d connected sets without a defining value", len(freeReps)),
		})
	}

	return warnings, nil
}

func attribution(v, owner *Variable) string {
	if v == owner {
		return ""
	}
	return " (via connection)"
}
