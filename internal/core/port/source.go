package port

import (
	"context"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// Input is a schema declaration together with optional sample rows.
type Input struct {
	Source     string // file path, DSN host or tool name, for reports and logs
	Definition domain.Definition
	Samples    domain.SampleData
	Masks      domain.Masks // applied to report examples only
}

// SchemaSource loads a schema declaration from a file, a script or a database.
type SchemaSource interface {
	Load(ctx context.Context) (*Input, error)
}

// StaticSource serves an Input that is already in memory.
type StaticSource struct {
	In *Input
}

func (s StaticSource) Load(context.Context) (*Input, error) {
	return s.In, nil
}
