package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// TextFormatter writes a human-readable report, one block per table.
type TextFormatter struct {
	writer io.Writer

	passFmt  func(a ...any) string
	failFmt  func(a ...any) string
	warnFmt  func(a ...any) string
	tableFmt func(a ...any) string
	dimFmt   func(a ...any) string
}

// NewTextFormatter returns a text formatter. With colored false the output
// carries no escape sequences whatever the terminal.
func NewTextFormatter(w io.Writer, colored bool) *TextFormatter {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return &TextFormatter{
		writer:   w,
		passFmt:  mk(color.FgGreen, color.Bold),
		failFmt:  mk(color.FgRed, color.Bold),
		warnFmt:  mk(color.FgYellow),
		tableFmt: mk(color.FgBlue, color.Bold),
		dimFmt:   mk(color.Faint),
	}
}

func (f *TextFormatter) Format(source string, r *domain.Report) error {
	w := f.writer
	_, _ = fmt.Fprintf(w, "Normal-form audit of %s\n", source)

	for _, tr := range r.Tables {
		_, _ = fmt.Fprintln(w)
		f.formatTable(tr)
	}

	if len(r.Warnings) > 0 {
		_, _ = fmt.Fprintln(w)
		for _, warn := range r.Warnings {
			_, _ = fmt.Fprintf(w, "%s %s: %s\n", f.warnFmt("warning"), warn.Table, warn.Message)
		}
	}

	_, _ = fmt.Fprintln(w)
	_, err := fmt.Fprintln(w, f.summary(r))
	return err
}

func (f *TextFormatter) formatTable(tr domain.TableReport) {
	w := f.writer

	nf := string(tr.NormalForm)
	if tr.NormalForm == domain.ThirdNF {
		nf = f.passFmt(nf)
	} else {
		nf = f.failFmt(nf)
	}
	_, _ = fmt.Fprintf(w, "TABLE %s  %s\n", f.tableFmt(tr.Table), nf)

	if len(tr.CandidateKeys) > 0 {
		keys := make([]string, len(tr.CandidateKeys))
		for i, k := range tr.CandidateKeys {
			keys[i] = "(" + strings.Join(k, ", ") + ")"
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", f.dimFmt("keys:"), strings.Join(keys, " "))
	}

	for _, v := range tr.Violations {
		label := string(v.Kind)
		if v.Heuristic {
			label += " (heuristic)"
		}
		_, _ = fmt.Fprintf(w, "  %s %s\n", f.failFmt(label), v.Explanation)
		if v.Example != nil {
			for _, row := range v.Example.Rows {
				_, _ = fmt.Fprintf(w, "      %s %s\n", f.dimFmt(fmt.Sprintf("row %d:", row.Index)), formatRow(v.Example.Columns, row.Values))
			}
		}
	}

	for _, warn := range tr.Warnings {
		_, _ = fmt.Fprintf(w, "  %s %s\n", f.warnFmt("warning"), warn.Message)
	}
}

func (f *TextFormatter) summary(r *domain.Report) string {
	counts := r.Counts()
	total := counts[domain.OneNF] + counts[domain.TwoNF] + counts[domain.ThreeNF]
	line := fmt.Sprintf("%d tables, %d violations (1NF %d, 2NF %d, 3NF %d), %d warnings",
		len(r.Tables), total, counts[domain.OneNF], counts[domain.TwoNF], counts[domain.ThreeNF], len(r.AllWarnings()))
	if r.AllIn3NF() {
		return f.passFmt("PASS") + " " + line
	}
	return f.failFmt("FAIL") + " " + line
}

func formatRow(columns []string, values domain.Row) string {
	parts := make([]string, len(columns))
	for i, c := range columns {
		v, ok := values[c]
		if !ok || v == nil {
			parts[i] = c + "=NULL"
			continue
		}
		parts[i] = fmt.Sprintf("%s=%v", c, v)
	}
	return strings.Join(parts, ", ")
}
