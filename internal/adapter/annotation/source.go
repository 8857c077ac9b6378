package annotation

import (
	"context"
	"maps"

	"github.com/guillermoBallester/nfaudit/internal/core/port"
)

// Overlay decorates a SchemaSource with the declarations of an annotation
// file and the example masks it names.
type Overlay struct {
	inner port.SchemaSource
	file  *File
}

var _ port.SchemaSource = (*Overlay)(nil)

// NewOverlay wraps inner with the annotations of f.
func NewOverlay(inner port.SchemaSource, f *File) *Overlay {
	return &Overlay{inner: inner, file: f}
}

func (o *Overlay) Load(ctx context.Context) (*port.Input, error) {
	in, err := o.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := Merge(&in.Definition, o.file); err != nil {
		return nil, err
	}

	masks := o.file.Masks()
	if in.Masks == nil {
		in.Masks = masks
	} else {
		maps.Copy(in.Masks, masks)
	}
	return in, nil
}
