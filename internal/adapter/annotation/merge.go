package annotation

import (
	"fmt"
	"maps"
	"slices"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// Merge adds the annotations of f to def. Declarations already in def take
// precedence: annotated keys and dependencies are added only when not
// declared, and keys that contain another key are pruned. Annotating a
// table or column def does not have is an error.
func Merge(def *domain.Definition, f *File) error {
	byName := make(map[string]*domain.TableDef, len(def.Tables))
	for i := range def.Tables {
		byName[def.Tables[i].Name] = &def.Tables[i]
	}

	for _, table := range slices.Sorted(maps.Keys(f.Tables)) {
		td, ok := byName[table]
		if !ok {
			return fmt.Errorf("annotated table %q: %w", table, domain.ErrUnknownTable)
		}
		if err := mergeTable(td, f.Tables[table]); err != nil {
			return err
		}
	}
	return nil
}

func mergeTable(td *domain.TableDef, tn TableNote) error {
	for col, cn := range tn.Columns {
		i := slices.IndexFunc(td.Columns, func(c domain.Column) bool { return c.Name == col })
		if i < 0 {
			return fmt.Errorf("annotated column %q %w in table %q", col, domain.ErrUnknownColumn, td.Name)
		}
		if cn.Multivalued {
			td.Columns[i].Multivalued = true
		}
	}

	if len(tn.Keys) > 0 {
		keys := slices.Clone(td.Keys)
		for _, k := range tn.Keys {
			if !slices.ContainsFunc(keys, func(have []string) bool { return sameColumns(have, k) }) {
				keys = append(keys, k)
			}
		}
		td.Keys = domain.PruneSuperkeys(keys)
	}

	for _, d := range tn.Dependencies {
		dep := domain.Dependency(d)
		declared := slices.ContainsFunc(td.Dependencies, func(have domain.Dependency) bool {
			return sameColumns(have.Determinant, dep.Determinant) && sameColumns(have.Dependent, dep.Dependent)
		})
		if !declared {
			td.Dependencies = append(td.Dependencies, dep)
		}
	}
	return nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(a, b)
}
