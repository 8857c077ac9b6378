package domain

import (
	"fmt"
	"strings"
)

// ViolationKind names the normal form a violation breaks.
type ViolationKind string

const (
	OneNF   ViolationKind = "1NF"
	TwoNF   ViolationKind = "2NF"
	ThreeNF ViolationKind = "3NF"
)

// NormalForm is the highest normal form a table satisfies.
type NormalForm string

const (
	NotNormalized NormalForm = "0NF"
	FirstNF       NormalForm = "1NF"
	SecondNF      NormalForm = "2NF"
	ThirdNF       NormalForm = "3NF"
)

// Violation is one normal-form problem found in a table.
type Violation struct {
	Kind        ViolationKind
	Table       string
	Columns     []string // offending columns
	Key         []string // candidate key involved (2NF, 3NF)
	Determinant []string // determinant the columns depend on (2NF, 3NF)
	Heuristic   bool     // found from sample data rather than the declaration
	Explanation string
	Example     *Example
}

// Warning is a non-fatal remark about the analysis.
type Warning struct {
	Table   string
	Column  string
	Message string
}

// TableReport holds the analysis of one table.
type TableReport struct {
	Table         string
	NormalForm    NormalForm
	CandidateKeys [][]string
	Violations    []Violation
	Warnings      []Warning
}

// Report is the analysis of a whole schema, in table declaration order.
type Report struct {
	Tables   []TableReport
	Warnings []Warning // not tied to a table in the schema
}

// Violations returns every violation of every table.
func (r *Report) Violations() []Violation {
	var out []Violation
	for _, t := range r.Tables {
		out = append(out, t.Violations...)
	}
	return out
}

// AllWarnings returns report-level warnings followed by per-table warnings.
func (r *Report) AllWarnings() []Warning {
	out := append([]Warning{}, r.Warnings...)
	for _, t := range r.Tables {
		out = append(out, t.Warnings...)
	}
	return out
}

// AllIn3NF reports whether every table reaches third normal form.
func (r *Report) AllIn3NF() bool {
	for _, t := range r.Tables {
		if t.NormalForm != ThirdNF {
			return false
		}
	}
	return true
}

// Counts returns the number of violations per kind.
func (r *Report) Counts() map[ViolationKind]int {
	counts := map[ViolationKind]int{OneNF: 0, TwoNF: 0, ThreeNF: 0}
	for _, t := range r.Tables {
		for _, v := range t.Violations {
			counts[v.Kind]++
		}
	}
	return counts
}

// Check analyzes every table of s. samples is optional; rows for tables
// that are not in the schema produce a warning and are otherwise ignored.
func Check(s *Schema, samples SampleData) *Report {
	r := &Report{Tables: make([]TableReport, 0, len(s.tables))}
	for _, t := range s.tables {
		r.Tables = append(r.Tables, CheckTable(t, samples[t.name]))
	}
	for _, name := range sortedNames(samples) {
		if _, ok := s.byName[name]; !ok {
			r.Warnings = append(r.Warnings, Warning{
				Table:   name,
				Message: "sample data given for a table that is not in the schema",
			})
		}
	}
	return r
}

// CheckTable runs the 1NF, 2NF and 3NF checks on t. The checks are
// independent and their violations accumulate in that order.
func CheckTable(t *Table, rows []Row) TableReport {
	tr := TableReport{
		Table:         t.name,
		CandidateKeys: t.CandidateKeys(),
	}
	tr.Warnings = append(tr.Warnings, t.unknownSampleColumns(rows)...)

	first, heuristic := t.checkFirst(rows)
	tr.Violations = append(tr.Violations, first...)
	tr.Warnings = append(tr.Warnings, heuristic...)

	if !t.Analyzable() {
		tr.Warnings = append(tr.Warnings, Warning{
			Table:   t.name,
			Message: "table has no candidate key: declare a key or dependencies to check 2NF and 3NF",
		})
	} else {
		tr.Violations = append(tr.Violations, t.checkSecond(rows)...)
		tr.Violations = append(tr.Violations, t.checkThird(rows)...)
	}

	tr.NormalForm = t.normalForm(tr.Violations)
	return tr
}

func (t *Table) normalForm(vs []Violation) NormalForm {
	var has [4]bool
	for _, v := range vs {
		switch v.Kind {
		case OneNF:
			has[1] = true
		case TwoNF:
			has[2] = true
		case ThreeNF:
			has[3] = true
		}
	}
	switch {
	case has[1]:
		return NotNormalized
	case !t.Analyzable(), has[2]:
		return FirstNF
	case has[3]:
		return SecondNF
	default:
		return ThirdNF
	}
}

// checkFirst reports declared multivalued columns, then columns whose sample
// values look like packed lists. Each heuristic finding also yields a warning.
func (t *Table) checkFirst(rows []Row) ([]Violation, []Warning) {
	var (
		vs []Violation
		ws []Warning
	)
	for _, c := range t.columns {
		if !c.Multivalued {
			continue
		}
		ex, _ := firstListCell(rows, c.Name)
		vs = append(vs, Violation{
			Kind:    OneNF,
			Table:   t.name,
			Columns: []string{c.Name},
			Explanation: fmt.Sprintf("%s.%s is declared multivalued: one cell holds several values, so the table is not in 1NF",
				t.name, c.Name),
			Example: ex,
		})
	}

	if len(rows) == 0 {
		return vs, ws
	}
	for _, c := range t.columns {
		if c.Multivalued {
			continue
		}
		ex, n := firstListCell(rows, c.Name)
		if n == 0 {
			continue
		}
		msg := fmt.Sprintf("%s.%s looks like a list in %d of %d sample rows: store one value per row in a separate table",
			t.name, c.Name, n, len(rows))
		vs = append(vs, Violation{
			Kind:        OneNF,
			Table:       t.name,
			Columns:     []string{c.Name},
			Heuristic:   true,
			Explanation: msg,
			Example:     ex,
		})
		ws = append(ws, Warning{Table: t.name, Column: c.Name, Message: "possible repeating group (heuristic): " + msg})
	}
	return vs, ws
}

// checkSecond reports non-prime columns that depend on a proper subset of a
// composite candidate key.
func (t *Table) checkSecond(rows []Row) []Violation {
	var vs []Violation
	for _, k := range t.keys {
		if k.len() < 2 {
			continue
		}
		for _, a := range t.all.members() {
			if t.prime.has(a) {
				continue
			}
			part, ok := t.partialDeterminant(k, a)
			if !ok {
				continue
			}
			col := t.columns[a].Name
			det := t.names(part)
			key := t.names(k)
			vs = append(vs, Violation{
				Kind:        TwoNF,
				Table:       t.name,
				Columns:     []string{col},
				Key:         key,
				Determinant: det,
				Explanation: fmt.Sprintf("%s.%s depends on %s, a proper subset of candidate key %s (partial dependency)",
					t.name, col, formatColumns(det), formatColumns(key)),
				Example: redundantPair(rows, det, col),
			})
		}
	}
	return vs
}

// partialDeterminant returns a minimal proper subset of k whose closure
// contains column a.
func (t *Table) partialDeterminant(k attrSet, a int) (attrSet, bool) {
	for _, i := range k.members() {
		sub := k.without(i)
		if !t.closure(sub).has(a) {
			continue
		}
		for _, j := range sub.members() {
			if smaller := sub.without(j); t.closure(smaller).has(a) {
				sub = smaller
			}
		}
		return sub, true
	}
	return 0, false
}

// checkThird reports non-prime columns reached from a declared determinant
// that is neither a superkey nor part of a single candidate key. Partial
// dependencies are left to checkSecond.
func (t *Table) checkThird(rows []Row) []Violation {
	var vs []Violation
	for _, k := range t.keys {
		for _, a := range t.all.members() {
			if t.prime.has(a) {
				continue
			}
			x, ok := t.transitiveDeterminant(a)
			if !ok {
				continue
			}
			col := t.columns[a].Name
			det := t.names(x)
			key := t.names(k)
			vs = append(vs, Violation{
				Kind:        ThreeNF,
				Table:       t.name,
				Columns:     []string{col},
				Key:         key,
				Determinant: det,
				Explanation: fmt.Sprintf("%s.%s depends on %s, which is not a key, so it reaches candidate key %s only transitively",
					t.name, col, formatColumns(det), formatColumns(key)),
				Example: redundantPair(rows, det, col),
			})
		}
	}
	return vs
}

// transitiveDeterminant picks the declared determinant that makes column a
// transitively dependent. Determinants naming a directly win over ones that
// reach it through the closure.
func (t *Table) transitiveDeterminant(a int) (attrSet, bool) {
	for _, direct := range []bool{true, false} {
		for _, f := range t.declared {
			if direct && !f.rhs.has(a) {
				continue
			}
			if t.transitiveVia(f.lhs, a) {
				return f.lhs, true
			}
		}
	}
	return 0, false
}

func (t *Table) transitiveVia(x attrSet, a int) bool {
	return !x.has(a) &&
		!t.isSuperkey(x) &&
		!t.inSomeKey(x) &&
		t.closure(x).has(a)
}

// unknownSampleColumns warns once per sample column the table does not have.
func (t *Table) unknownSampleColumns(rows []Row) []Warning {
	unknown := make(map[string]struct{})
	for _, row := range rows {
		for name := range row {
			if _, ok := t.index[name]; !ok {
				unknown[name] = struct{}{}
			}
		}
	}
	ws := make([]Warning, 0, len(unknown))
	for _, name := range sortedNames(unknown) {
		ws = append(ws, Warning{
			Table:   t.name,
			Column:  name,
			Message: "sample rows name a column that is not in the table",
		})
	}
	return ws
}

// String renders a violation as a single sentence.
func (v Violation) String() string {
	var b strings.Builder
	b.WriteString(string(v.Kind))
	if v.Heuristic {
		b.WriteString(" (heuristic)")
	}
	b.WriteString(": ")
	b.WriteString(v.Explanation)
	return b.String()
}
