package cellml

import "regexp"

// identifierPattern matches a valid CellML identifier: letters, digits and
// underscores, not starting with a digit.
var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// checkIdentifier validates an entity name, reporting the entity description
// in the error.
func checkIdentifier(name, entity string) error {
	if name == "" {
		return newError(ErrInvalidIdentifier, entity, "name is empty")
	}
	if !identifierPattern.MatchString(name) {
		return newError(ErrInvalidIdentifier, entity, "name %q contains invalid characters", name)
	}
	return nil
}
