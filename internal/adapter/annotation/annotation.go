// Package annotation reads a side file of declarations that a schema source
// cannot express: dependencies and keys for a live database without "fd:"
// comments, multivalued marks, and masks for sensitive example values.
package annotation

import (
	"fmt"

	"github.com/guillermoBallester/nfaudit/internal/adapter/ddl"
	"github.com/guillermoBallester/nfaudit/internal/adapter/yamlschema"
	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// File holds annotations per table name.
//
//	tables:
//	  bad_orders:
//	    keys: [[order_id, product_id]]
//	    dependencies:
//	      - product_id -> product_name
//	    columns:
//	      phones: multivalued
//	      email: {mask: hash}
type File struct {
	Tables map[string]TableNote `yaml:"tables"`
}

type TableNote struct {
	Keys         [][]string                 `yaml:"keys,omitempty"`
	Dependencies []yamlschema.DependencyDoc `yaml:"dependencies,omitempty"`
	Columns      map[string]ColumnNote      `yaml:"columns,omitempty"`
}

// ColumnNote marks a column multivalued and/or masks it in report examples.
type ColumnNote struct {
	Multivalued bool            `yaml:"multivalued,omitempty"`
	Mask        domain.MaskType `yaml:"mask,omitempty"`
}

// UnmarshalYAML accepts the comment directive as a plain string as well as
// the mapping form.
//
//	columns:
//	  phones: multivalued
//	  email: {mask: hash}
func (cn *ColumnNote) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		if !ddl.MultivaluedDirective(value.Value) {
			return fmt.Errorf("line %d: unknown column annotation %q", value.Line, value.Value)
		}
		cn.Multivalued = true
		return nil
	}
	type alias ColumnNote
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column annotation: %w", err)
	}
	*cn = ColumnNote(a)
	return nil
}

// Masks returns the example masks declared in f.
func (f *File) Masks() domain.Masks {
	masks := make(domain.Masks)
	for table, tn := range f.Tables {
		for col, cn := range tn.Columns {
			if cn.Mask == "" {
				continue
			}
			if masks[table] == nil {
				masks[table] = make(map[string]domain.MaskType)
			}
			masks[table][col] = cn.Mask
		}
	}
	return masks
}
