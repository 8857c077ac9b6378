package yamlschema

import (
	"context"
	"fmt"
	"maps"
	"os"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"github.com/guillermoBallester/nfaudit/internal/core/port"
)

// FileSource reads a schema document from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Load(_ context.Context) (*port.Input, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	def, samples, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return &port.Input{Source: s.Path, Definition: def, Samples: samples}, nil
}

// SampleOverlay decorates a SchemaSource with rows read from a sample data
// file. Rows from the file replace any rows the inner source found for the
// same table.
type SampleOverlay struct {
	Inner port.SchemaSource
	Path  string
}

func (o SampleOverlay) Load(ctx context.Context) (*port.Input, error) {
	in, err := o.Inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	extra, err := LoadSamples(o.Path)
	if err != nil {
		return nil, err
	}
	if in.Samples == nil {
		in.Samples = make(domain.SampleData, len(extra))
	}
	maps.Copy(in.Samples, extra)
	return in, nil
}
