// Package report renders audit reports for people and programs.
package report

import (
	"fmt"
	"io"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// Format names an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat accepts "text" and "json".
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (want text or json)", s)
	}
}

// Formatter writes one report.
type Formatter interface {
	Format(source string, r *domain.Report) error
}

// New returns the formatter for f. colored only affects the text format.
func New(f Format, w io.Writer, colored bool) Formatter {
	if f == FormatJSON {
		return NewJSONFormatter(w)
	}
	return NewTextFormatter(w, colored)
}
