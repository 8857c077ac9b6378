package ddl

import (
	"context"
	"fmt"
	"os"

	"github.com/guillermoBallester/nfaudit/internal/core/port"
)

// FileSource reads a SQL script from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) (*port.Input, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading SQL script: %w", err)
	}
	def, samples, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return &port.Input{Source: s.Path, Definition: def, Samples: samples}, nil
}
