package domain

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Column describes one table column.
type Column struct {
	Name        string
	Type        string
	Nullable    bool
	Multivalued bool // a single cell may hold several logical values
}

// ForeignKey maps local columns onto columns of a referenced table.
type ForeignKey struct {
	Columns           []string
	References        string
	ReferencedColumns []string
}

// Dependency is a declared functional dependency Determinant → Dependent.
type Dependency struct {
	Determinant []string
	Dependent   []string
}

// TableDef is the declarative description of a table, as read by an adapter.
type TableDef struct {
	Name         string
	Columns      []Column
	Keys         [][]string
	ForeignKeys  []ForeignKey
	Dependencies []Dependency
}

// Definition is the declarative description of a whole schema.
type Definition struct {
	Tables []TableDef
}

// Schema is a validated, immutable set of tables. All accessors return
// copies, so a Schema may be shared between goroutines.
type Schema struct {
	tables []*Table
	byName map[string]*Table
}

// Table is a validated table together with its dependency analysis.
type Table struct {
	name         string
	columns      []Column
	index        map[string]int
	declaredKeys []attrSet
	foreignKeys  []ForeignKey
	dependencies []Dependency

	all       attrSet
	declared  []fd // declared dependencies only
	effective []fd // declared dependencies plus key → all columns
	keys      []attrSet
	prime     attrSet
}

// NewSchema validates def and runs the dependency analysis for every table.
// Any structural problem is reported as a *SchemaError.
func NewSchema(def Definition) (*Schema, error) {
	s := &Schema{byName: make(map[string]*Table, len(def.Tables))}

	for _, td := range def.Tables {
		if strings.TrimSpace(td.Name) == "" {
			return nil, schemaErr("", "", "table with empty name")
		}
		if _, dup := s.byName[td.Name]; dup {
			return nil, schemaErr(td.Name, "", "table declared more than once")
		}
		t, err := newTable(td)
		if err != nil {
			return nil, err
		}
		s.tables = append(s.tables, t)
		s.byName[t.name] = t
	}

	// Foreign keys may point at tables declared later in the definition.
	for _, t := range s.tables {
		if err := s.validateForeignKeys(t); err != nil {
			return nil, err
		}
	}

	return s, nil
}

func newTable(td TableDef) (*Table, error) {
	if len(td.Columns) == 0 {
		return nil, schemaErr(td.Name, "", "table has no columns")
	}
	if len(td.Columns) > MaxColumns {
		return nil, schemaErr(td.Name, "", "table has %d columns, at most %d are supported", len(td.Columns), MaxColumns)
	}

	t := &Table{
		name:    td.Name,
		columns: make([]Column, 0, len(td.Columns)),
		index:   make(map[string]int, len(td.Columns)),
	}
	for _, c := range td.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return nil, schemaErr(td.Name, "", "column with empty name")
		}
		if _, dup := t.index[c.Name]; dup {
			return nil, schemaErr(td.Name, c.Name, "column declared more than once")
		}
		t.index[c.Name] = len(t.columns)
		t.columns = append(t.columns, c)
	}
	t.all = fullSet(len(t.columns))

	for _, key := range td.Keys {
		set, err := t.declaredSet(key, "candidate key")
		if err != nil {
			return nil, err
		}
		if slices.Contains(t.declaredKeys, set) {
			return nil, schemaErr(td.Name, "", "candidate key %s declared more than once", formatColumns(key))
		}
		t.declaredKeys = append(t.declaredKeys, set)
	}

	for _, dep := range td.Dependencies {
		lhs, err := t.declaredSet(dep.Determinant, "dependency determinant")
		if err != nil {
			return nil, err
		}
		rhs, err := t.declaredSet(dep.Dependent, "dependency dependent")
		if err != nil {
			return nil, err
		}
		t.declared = append(t.declared, fd{lhs: lhs, rhs: rhs})
		t.dependencies = append(t.dependencies, Dependency{
			Determinant: slices.Clone(dep.Determinant),
			Dependent:   slices.Clone(dep.Dependent),
		})
	}

	for _, fk := range td.ForeignKeys {
		t.foreignKeys = append(t.foreignKeys, ForeignKey{
			Columns:           slices.Clone(fk.Columns),
			References:        fk.References,
			ReferencedColumns: slices.Clone(fk.ReferencedColumns),
		})
	}

	t.effective = slices.Clone(t.declared)
	for _, k := range t.declaredKeys {
		t.effective = append(t.effective, fd{lhs: k, rhs: t.all})
	}

	for _, k := range t.declaredKeys {
		if core := t.minimize(k); core != k {
			return nil, schemaErr(td.Name, "",
				"candidate key %s is not minimal: %s already determines every column",
				formatColumns(t.names(k)), formatColumns(t.names(core)))
		}
	}

	t.keys = t.discoverKeys()
	for _, k := range t.keys {
		t.prime |= k
	}

	return t, nil
}

// declaredSet resolves a non-empty list of column names without repeats.
func (t *Table) declaredSet(columns []string, what string) (attrSet, error) {
	if len(columns) == 0 {
		return 0, schemaErr(t.name, "", "empty %s", what)
	}
	var set attrSet
	for _, name := range columns {
		i, ok := t.index[name]
		if !ok {
			return 0, schemaErr(t.name, name, "%s references unknown column", what)
		}
		if set.has(i) {
			return 0, schemaErr(t.name, name, "%s lists column twice", what)
		}
		set = set.with(i)
	}
	return set, nil
}

func (s *Schema) validateForeignKeys(t *Table) error {
	for _, fk := range t.foreignKeys {
		if len(fk.Columns) == 0 {
			return schemaErr(t.name, "", "foreign key without columns")
		}
		for _, c := range fk.Columns {
			if _, ok := t.index[c]; !ok {
				return schemaErr(t.name, c, "foreign key references unknown local column")
			}
		}
		ref, ok := s.byName[fk.References]
		if !ok {
			return schemaErr(t.name, "", "foreign key %s references unknown table %q", formatColumns(fk.Columns), fk.References)
		}
		if len(fk.ReferencedColumns) != len(fk.Columns) {
			return schemaErr(t.name, "", "foreign key %s has %d columns but references %d",
				formatColumns(fk.Columns), len(fk.Columns), len(fk.ReferencedColumns))
		}
		for _, c := range fk.ReferencedColumns {
			if _, ok := ref.index[c]; !ok {
				return schemaErr(t.name, "", "foreign key %s references unknown column %q of table %q",
					formatColumns(fk.Columns), c, ref.name)
			}
		}
	}
	return nil
}

// Tables returns the tables in declaration order.
func (s *Schema) Tables() []*Table {
	return slices.Clone(s.tables)
}

// Table looks a table up by name.
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Definition returns the declarative form the schema was built from.
func (s *Schema) Definition() Definition {
	def := Definition{Tables: make([]TableDef, 0, len(s.tables))}
	for _, t := range s.tables {
		def.Tables = append(def.Tables, TableDef{
			Name:         t.name,
			Columns:      t.Columns(),
			Keys:         t.DeclaredKeys(),
			ForeignKeys:  t.ForeignKeys(),
			Dependencies: t.Dependencies(),
		})
	}
	return def
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []Column { return slices.Clone(t.columns) }

// Column looks a column up by name.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, false
	}
	return t.columns[i], true
}

// DeclaredKeys returns the candidate keys as written in the declaration.
func (t *Table) DeclaredKeys() [][]string {
	var out [][]string
	for _, k := range t.declaredKeys {
		out = append(out, t.names(k))
	}
	return out
}

func (t *Table) ForeignKeys() []ForeignKey {
	var out []ForeignKey
	for _, fk := range t.foreignKeys {
		out = append(out, ForeignKey{
			Columns:           slices.Clone(fk.Columns),
			References:        fk.References,
			ReferencedColumns: slices.Clone(fk.ReferencedColumns),
		})
	}
	return out
}

func (t *Table) Dependencies() []Dependency {
	var out []Dependency
	for _, d := range t.dependencies {
		out = append(out, Dependency{
			Determinant: slices.Clone(d.Determinant),
			Dependent:   slices.Clone(d.Dependent),
		})
	}
	return out
}

// CandidateKeys returns every minimal key, smallest first.
func (t *Table) CandidateKeys() [][]string {
	out := make([][]string, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.names(k))
	}
	return out
}

// PrimeColumns returns the columns that belong to at least one candidate key.
func (t *Table) PrimeColumns() []string {
	return t.names(t.prime)
}

// Analyzable reports whether the table has a candidate key, which the 2NF
// and 3NF checks require.
func (t *Table) Analyzable() bool {
	return len(t.keys) > 0
}

// names returns the column names in s, in table order.
func (t *Table) names(s attrSet) []string {
	members := s.members()
	out := make([]string, 0, len(members))
	for _, i := range members {
		out = append(out, t.columns[i].Name)
	}
	return out
}

// resolve maps column names to a set, rejecting unknown names.
func (t *Table) resolve(columns []string) (attrSet, error) {
	var set attrSet
	for _, name := range columns {
		i, ok := t.index[name]
		if !ok {
			return 0, fmt.Errorf("column %q %w in table %q", name, ErrUnknownColumn, t.name)
		}
		set = set.with(i)
	}
	return set, nil
}

// PruneSuperkeys drops keys that repeat or contain another key of the list.
// Adapters use it for UNIQUE constraints that merely extend the primary key.
func PruneSuperkeys(keys [][]string) [][]string {
	sets := make([]map[string]bool, len(keys))
	for i, k := range keys {
		sets[i] = make(map[string]bool, len(k))
		for _, c := range k {
			sets[i][c] = true
		}
	}
	contains := func(outer, inner map[string]bool) bool {
		for c := range inner {
			if !outer[c] {
				return false
			}
		}
		return true
	}

	var out [][]string
	for i, k := range keys {
		redundant := false
		for j := range keys {
			if i == j || !contains(sets[i], sets[j]) {
				continue
			}
			// Strict superset, or an equal set already kept earlier.
			if len(sets[j]) < len(sets[i]) || j < i {
				redundant = true
				break
			}
		}
		if !redundant {
			out = append(out, slices.Clone(k))
		}
	}
	return out
}

func formatColumns(cols []string) string {
	return "(" + strings.Join(cols, ", ") + ")"
}

// sortedNames returns the keys of m in lexical order.
func sortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
