package domain

import (
	"errors"
	"fmt"
)

// =============================================================================
// Dependency Errors
// =============================================================================

var (
	// ErrDependencyNameEmpty is returned for a constraint with no package name.
	ErrDependencyNameEmpty = errors.New("dependency name is empty")

	// ErrDependencyBadOperator is returned for an unrecognized comparison
	// operator in a constraint.
	ErrDependencyBadOperator = errors.New("unrecognized version operator")

	// ErrDependencyVersionEmpty is returned when an operator is present but
	// the version is missing.
	ErrDependencyVersionEmpty = errors.New("dependency version is empty")
)

// =============================================================================
// Dependency Constraint
// =============================================================================

// Dependency is a single package constraint from the manifest,
// name[operator]version. Operator and Version are empty for an unpinned
// dependency.
type Dependency struct {
	Name     string
	Operator string
	Version  string
}

// KnownOperators are the comparison operators accepted in a manifest line,
// longest first so that parsing matches ">=" before ">".
var KnownOperators = []string{"===", "==", ">=", "<=", "!=", "~=", ">", "<"}

// Validate checks the constraint is well-formed.
func (d Dependency) Validate() error {
	if d.Name == "" {
		return ErrDependencyNameEmpty
	}
	if d.Operator != "" {
		if !validOperator(d.Operator) {
			return fmt.Errorf("%s: %q: %w", d.Name, d.Operator, ErrDependencyBadOperator)
		}
		if d.Version == "" {
			return fmt.Errorf("%s: %w", d.Name, ErrDependencyVersionEmpty)
		}
	}
	return nil
}

// Pinned reports whether the constraint fixes an exact version.
func (d Dependency) Pinned() bool {
	return d.Operator == "==" || d.Operator == "==="
}

// String renders the constraint back to its manifest form.
func (d Dependency) String() string {
	return d.Name + d.Operator + d.Version
}

func validOperator(op string) bool {
	for _, known := range KnownOperators {
		if op == known {
			return true
		}
	}
	return false
}

// =============================================================================
// Dependency Set
// =============================================================================

// DependencySet is the full collection of constraints from one manifest.
// It is installed as a unit; order is preserved from the manifest.
type DependencySet struct {
	// ManifestPath is the manifest file the set was parsed from.
	ManifestPath string

	// Dependencies are the parsed constraints in manifest order.
	Dependencies []Dependency
}

// Validate checks every constraint in the set.
func (s DependencySet) Validate() error {
	for _, d := range s.Dependencies {
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Pinned reports whether every dependency in the set is pinned to an exact
// version, the condition for a fully reproducible install.
func (s DependencySet) Pinned() bool {
	for _, d := range s.Dependencies {
		if !d.Pinned() {
			return false
		}
	}
	return len(s.Dependencies) > 0
}
