package domain

import (
	"fmt"
	"strings"
)

// ParseDependency reads the arrow notation "a, b -> c, d". Columns are
// separated by commas or whitespace; the arrow may also be written "→".
func ParseDependency(s string) (Dependency, error) {
	lhs, rhs, ok := strings.Cut(strings.ReplaceAll(s, "→", "->"), "->")
	if !ok {
		return Dependency{}, fmt.Errorf("dependency %q: missing \"->\"", s)
	}
	d := Dependency{Determinant: splitColumns(lhs), Dependent: splitColumns(rhs)}
	if len(d.Determinant) == 0 || len(d.Dependent) == 0 {
		return Dependency{}, fmt.Errorf("dependency %q: both sides need at least one column", s)
	}
	return d, nil
}

func (d Dependency) String() string {
	return strings.Join(d.Determinant, ", ") + " -> " + strings.Join(d.Dependent, ", ")
}

func splitColumns(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '{' || r == '}'
	})
}
