// Package unit defines the static declaration of a deployable unit: its name,
// the contract it instantiates, and the constructor arguments it is built with.
//
// Units are created once when a grid is loaded and are never mutated during a
// run. Run-scoped state such as Status lives in the executor.
package unit

import (
	"fmt"
	"strings"
	"time"
)

// Unit is a named deployable entity.
type Unit struct {
	// Name is unique within a grid.
	Name string
	// Contract is the artifact the unit instantiates. Empty means Name.
	Contract string
	// Args are the ordered constructor argument specs.
	Args []Arg
	// DependsOn lists units that must be deployed first without contributing
	// an argument.
	DependsOn []string
	// Timeout overrides the executor's per-unit timeout when non-zero.
	Timeout time.Duration
	// Index is the position of the unit in declaration order.
	Index int
}

// ContractName returns the artifact name, falling back to the unit name.
func (u *Unit) ContractName() string {
	if u.Contract != "" {
		return u.Contract
	}
	return u.Name
}

// References returns the names of every unit this unit depends on, argument
// references first (in argument order) followed by explicit DependsOn entries.
// Duplicates are removed.
func (u *Unit) References() []string {
	seen := make(map[string]struct{})
	var refs []string
	add := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		refs = append(refs, name)
	}
	for _, a := range u.Args {
		if a.IsRef() {
			add(a.Ref())
		}
	}
	for _, d := range u.DependsOn {
		add(d)
	}
	return refs
}

func (u *Unit) String() string {
	parts := make([]string, len(u.Args))
	for i, a := range u.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", u.Name, strings.Join(parts, ", "))
}

// Arg is a constructor argument: either a literal value or a reference
// to another unit's deployment result.
type Arg struct {
	value any
	ref   string
}

// Literal returns an argument that passes v through unchanged.
func Literal(v any) Arg {
	return Arg{value: v}
}

// Ref returns an argument that resolves to the named unit's identifier.
func Ref(name string) Arg {
	return Arg{ref: name}
}

// IsRef reports whether the argument references another unit.
func (a Arg) IsRef() bool { return a.ref != "" }

// Ref returns the referenced unit name, or "" for literals.
func (a Arg) Ref() string { return a.ref }

// Value returns the literal value, or nil for references.
func (a Arg) Value() any { return a.value }

func (a Arg) String() string {
	if a.IsRef() {
		return "unit." + a.ref + ".address"
	}
	if s, ok := a.value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", a.value)
}
