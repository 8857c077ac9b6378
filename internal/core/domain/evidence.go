package domain

import (
	"fmt"
	"maps"
	"strings"
)

// Row is one sample row keyed by column name.
type Row map[string]any

// SampleData holds sample rows per table name. It is used for heuristic 1NF
// detection and for examples only, never to infer dependencies.
type SampleData map[string][]Row

// Example points at sample rows that illustrate a violation.
type Example struct {
	Columns []string     // columns worth showing, determinant first
	Rows    []ExampleRow // one or two rows
}

// ExampleRow is a sample row and its zero-based position in the input.
type ExampleRow struct {
	Index  int
	Values Row
}

// redundantPair finds the first two rows that agree on every determinant
// column. Rows with a missing or NULL determinant value never agree.
func redundantPair(rows []Row, determinant []string, dependent string) *Example {
	seen := make(map[string]int, len(rows))
	for i, row := range rows {
		key, ok := rowKey(row, determinant)
		if !ok {
			continue
		}
		if j, dup := seen[key]; dup {
			cols := append(append([]string{}, determinant...), dependent)
			return &Example{
				Columns: cols,
				Rows: []ExampleRow{
					{Index: j, Values: maps.Clone(rows[j])},
					{Index: i, Values: maps.Clone(row)},
				},
			}
		}
		seen[key] = i
	}
	return nil
}

// firstListCell returns the first row whose column value looks like a list.
func firstListCell(rows []Row, column string) (*Example, int) {
	var ex *Example
	matches := 0
	for i, row := range rows {
		if !looksLikeList(row[column]) {
			continue
		}
		matches++
		if ex == nil {
			ex = &Example{
				Columns: []string{column},
				Rows:    []ExampleRow{{Index: i, Values: maps.Clone(row)}},
			}
		}
	}
	return ex, matches
}

func rowKey(row Row, columns []string) (string, bool) {
	var b strings.Builder
	for _, c := range columns {
		v, ok := row[c]
		if !ok || v == nil {
			return "", false
		}
		fmt.Fprintf(&b, "%v\x1f", v)
	}
	return b.String(), true
}
