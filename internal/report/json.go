package report

import (
	"encoding/json"
	"io"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// Document is the JSON form of a report.
type Document struct {
	Source   string    `json:"source"`
	Tables   []Table   `json:"tables"`
	Warnings []Warning `json:"warnings,omitempty"`
	Summary  Summary   `json:"summary"`
}

type Table struct {
	Table         string      `json:"table"`
	NormalForm    string      `json:"normal_form"`
	CandidateKeys [][]string  `json:"candidate_keys"`
	Violations    []Violation `json:"violations"`
	Warnings      []Warning   `json:"warnings"`
}

type Violation struct {
	Kind        string   `json:"kind"`
	Columns     []string `json:"columns"`
	Key         []string `json:"key,omitempty"`
	Determinant []string `json:"determinant,omitempty"`
	Heuristic   bool     `json:"heuristic"`
	Explanation string   `json:"explanation"`
	Example     *Example `json:"example,omitempty"`
}

type Example struct {
	Columns []string     `json:"columns"`
	Rows    []ExampleRow `json:"rows"`
}

type ExampleRow struct {
	Index  int            `json:"index"`
	Values map[string]any `json:"values"`
}

type Warning struct {
	Table   string `json:"table,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

type Summary struct {
	Tables     int            `json:"tables"`
	Violations map[string]int `json:"violations"`
	Warnings   int            `json:"warnings"`
	AllIn3NF   bool           `json:"all_in_3nf"`
}

// NewDocument converts a report into its JSON form.
func NewDocument(source string, r *domain.Report) Document {
	doc := Document{
		Source: source,
		Tables: make([]Table, 0, len(r.Tables)),
		Summary: Summary{
			Tables:     len(r.Tables),
			Violations: make(map[string]int),
			Warnings:   len(r.AllWarnings()),
			AllIn3NF:   r.AllIn3NF(),
		},
	}
	for kind, n := range r.Counts() {
		doc.Summary.Violations[string(kind)] = n
	}
	for _, w := range r.Warnings {
		doc.Warnings = append(doc.Warnings, toWarning(w))
	}

	for _, tr := range r.Tables {
		t := Table{
			Table:         tr.Table,
			NormalForm:    string(tr.NormalForm),
			CandidateKeys: tr.CandidateKeys,
			Violations:    make([]Violation, 0, len(tr.Violations)),
			Warnings:      make([]Warning, 0, len(tr.Warnings)),
		}
		if t.CandidateKeys == nil {
			t.CandidateKeys = [][]string{}
		}
		for _, v := range tr.Violations {
			t.Violations = append(t.Violations, Violation{
				Kind:        string(v.Kind),
				Columns:     v.Columns,
				Key:         v.Key,
				Determinant: v.Determinant,
				Heuristic:   v.Heuristic,
				Explanation: v.Explanation,
				Example:     toExample(v.Example),
			})
		}
		for _, w := range tr.Warnings {
			t.Warnings = append(t.Warnings, toWarning(w))
		}
		doc.Tables = append(doc.Tables, t)
	}
	return doc
}

func toWarning(w domain.Warning) Warning {
	return Warning{Table: w.Table, Column: w.Column, Message: w.Message}
}

// toExample keeps only the columns the example is about.
func toExample(ex *domain.Example) *Example {
	if ex == nil {
		return nil
	}
	out := &Example{Columns: ex.Columns, Rows: make([]ExampleRow, 0, len(ex.Rows))}
	for _, row := range ex.Rows {
		values := make(map[string]any, len(ex.Columns))
		for _, c := range ex.Columns {
			values[c] = row.Values[c]
		}
		out.Rows = append(out.Rows, ExampleRow{Index: row.Index, Values: values})
	}
	return out
}

// JSONFormatter writes the report as one indented JSON document.
type JSONFormatter struct {
	writer io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

func (f *JSONFormatter) Format(source string, r *domain.Report) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(source, r))
}
