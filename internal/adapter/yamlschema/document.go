package yamlschema

import (
	"fmt"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a schema declaration. JSON documents
// decode too, since JSON is a subset of YAML.
type Document struct {
	Tables  []TableDoc                  `yaml:"tables"`
	Samples map[string][]map[string]any `yaml:"samples,omitempty"`
}

type TableDoc struct {
	Name         string          `yaml:"name"`
	Columns      []ColumnDoc     `yaml:"columns"`
	Keys         [][]string      `yaml:"keys,omitempty"`
	ForeignKeys  []ForeignKeyDoc `yaml:"foreign_keys,omitempty"`
	Dependencies []DependencyDoc `yaml:"dependencies,omitempty"`
}

type ColumnDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Nullable    bool   `yaml:"nullable,omitempty"`
	Multivalued bool   `yaml:"multivalued,omitempty"`
}

type ForeignKeyDoc struct {
	Columns           []string `yaml:"columns"`
	References        string   `yaml:"references"`
	ReferencedColumns []string `yaml:"referenced_columns"`
}

type DependencyDoc struct {
	Determinant []string `yaml:"determinant"`
	Dependent   []string `yaml:"dependent"`
}

// UnmarshalYAML accepts a bare column name as well as the mapping form.
//
//	columns:
//	  - order_id                      # bare name, type unknown
//	  - {name: phones, multivalued: true}
func (c *ColumnDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		c.Name = value.Value
		return nil
	}
	type alias ColumnDoc
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding column: %w", err)
	}
	*c = ColumnDoc(a)
	return nil
}

// UnmarshalYAML accepts the arrow notation as well as the mapping form.
//
//	dependencies:
//	  - product_id -> product_name
//	  - {determinant: [zipcode], dependent: [city]}
func (d *DependencyDoc) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		dep, err := domain.ParseDependency(value.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", value.Line, err)
		}
		*d = DependencyDoc(dep)
		return nil
	}
	type alias DependencyDoc
	var a alias
	if err := value.Decode(&a); err != nil {
		return fmt.Errorf("decoding dependency: %w", err)
	}
	*d = DependencyDoc(a)
	return nil
}

func (t TableDoc) definition() domain.TableDef {
	td := domain.TableDef{Name: t.Name, Keys: t.Keys}
	for _, c := range t.Columns {
		td.Columns = append(td.Columns, domain.Column(c))
	}
	for _, fk := range t.ForeignKeys {
		td.ForeignKeys = append(td.ForeignKeys, domain.ForeignKey(fk))
	}
	for _, d := range t.Dependencies {
		td.Dependencies = append(td.Dependencies, domain.Dependency(d))
	}
	return td
}

func tableDoc(td domain.TableDef) TableDoc {
	t := TableDoc{Name: td.Name, Keys: td.Keys}
	for _, c := range td.Columns {
		t.Columns = append(t.Columns, ColumnDoc(c))
	}
	for _, fk := range td.ForeignKeys {
		t.ForeignKeys = append(t.ForeignKeys, ForeignKeyDoc(fk))
	}
	for _, d := range td.Dependencies {
		t.Dependencies = append(t.Dependencies, DependencyDoc(d))
	}
	return t
}

// Decode parses a schema document. Samples embedded under "samples" are
// returned alongside the definition. The definition is not validated here;
// domain.NewSchema does that.
func Decode(data []byte) (domain.Definition, domain.SampleData, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Definition{}, nil, fmt.Errorf("parsing schema YAML: %w", err)
	}
	if len(doc.Tables) == 0 {
		return domain.Definition{}, nil, fmt.Errorf("parsing schema YAML: no tables declared")
	}

	var def domain.Definition
	for _, t := range doc.Tables {
		def.Tables = append(def.Tables, t.definition())
	}
	return def, samples(doc.Samples), nil
}

// Encode writes def in the form Decode reads.
func Encode(def domain.Definition) ([]byte, error) {
	doc := Document{Tables: make([]TableDoc, 0, len(def.Tables))}
	for _, td := range def.Tables {
		doc.Tables = append(doc.Tables, tableDoc(td))
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding schema YAML: %w", err)
	}
	return out, nil
}

// DecodeSamples parses a sample data file: a mapping of table name to a
// list of rows. A full schema document is accepted too, in which case only
// its "samples" section is used.
func DecodeSamples(data []byte) (domain.SampleData, error) {
	var probe map[string]yaml.Node
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("parsing sample data: %w", err)
	}
	if _, ok := probe["tables"]; ok {
		var doc Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing sample data: %w", err)
		}
		return samples(doc.Samples), nil
	}

	var raw map[string][]map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing sample data: %w", err)
	}
	return samples(raw), nil
}

func samples(raw map[string][]map[string]any) domain.SampleData {
	if len(raw) == 0 {
		return nil
	}
	out := make(domain.SampleData, len(raw))
	for table, rows := range raw {
		converted := make([]domain.Row, 0, len(rows))
		for _, r := range rows {
			converted = append(converted, domain.Row(r))
		}
		out[table] = converted
	}
	return out
}
