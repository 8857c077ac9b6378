package mcp

import (
	"context"
	"fmt"
	"maps"
	"regexp"
	"strings"

	"github.com/guillermoBallester/nfaudit/internal/adapter/ddl"
	"github.com/guillermoBallester/nfaudit/internal/adapter/yamlschema"
	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/guillermoBallester/nfaudit/internal/core/port"
)

// inlineSource is a schema passed as text in a tool call.
type inlineSource struct {
	text   string
	format string // "yaml", "sql" or "" to detect
	data   string // optional sample rows, YAML or JSON
}

func (s inlineSource) Load(context.Context) (*port.Input, error) {
	format := s.format
	if format == "" {
		format = detectFormat(s.text)
	}

	var (
		def     domain.Definition
		samples domain.SampleData
		err     error
	)
	switch format {
	case "sql":
		def, samples, err = ddl.Parse(s.text)
	case "yaml", "json":
		def, samples, err = yamlschema.Decode([]byte(s.text))
	default:
		return nil, fmt.Errorf("unknown schema format %q (want yaml or sql)", format)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(s.data) != "" {
		extra, err := yamlschema.DecodeSamples([]byte(s.data))
		if err != nil {
			return nil, err
		}
		if samples == nil {
			samples = make(domain.SampleData, len(extra))
		}
		maps.Copy(samples, extra)
	}

	return &port.Input{Source: "inline", Definition: def, Samples: samples}, nil
}

var (
	reTablesKey   = regexp.MustCompile(`(?m)^tables\s*:`)
	reCreateTable = regexp.MustCompile(`(?im)(^|;)\s*CREATE\s+(\w+\s+)?TABLE\b`)
)

// detectFormat treats text with a top-level "tables" key as YAML (or JSON),
// then text where a statement starts with CREATE TABLE as SQL. Anything else
// goes to the YAML decoder, which reports the error.
func detectFormat(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") || reTablesKey.MatchString(text) {
		return "yaml"
	}
	if reCreateTable.MatchString(text) {
		return "sql"
	}
	return "yaml"
}
