package dag

import (
	"fmt"
	"strings"
)

// UnknownUnitError reports a reference to a unit that was not declared.
type UnknownUnitError struct {
	// Unit is the declaring unit.
	Unit string
	// Ref is the undeclared name it references.
	Ref string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unit %q references undeclared unit %q", e.Unit, e.Ref)
}

// CycleError reports a dependency cycle. Members are listed in traversal
// order; each member depends on the next and the last depends on the first.
type CycleError struct {
	Members []string
}

func (e *CycleError) Error() string {
	if len(e.Members) == 0 {
		return "dependency cycle detected"
	}
	path := append(append([]string(nil), e.Members...), e.Members[0])
	return "dependency cycle detected: " + strings.Join(path, " -> ")
}

// DuplicateDeclarationError reports two units declared with the same name.
type DuplicateDeclarationError struct {
	Unit string
}

func (e *DuplicateDeclarationError) Error() string {
	return fmt.Sprintf("unit %q is declared more than once", e.Unit)
}
