package annotation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFromFile reads a YAML annotation file and returns a validated File.
func LoadFromFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading annotation file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing annotation YAML: %w", err)
	}

	if err := validate(&f); err != nil {
		return nil, fmt.Errorf("validating annotations: %w", err)
	}

	return &f, nil
}

func validate(f *File) error {
	for table, tn := range f.Tables {
		if table == "" {
			return fmt.Errorf("tables contains an empty key")
		}
		for col, cn := range tn.Columns {
			if col == "" {
				return fmt.Errorf("tables[%q].columns contains an empty key", table)
			}
			if !cn.Mask.Valid() {
				return fmt.Errorf("tables[%q].columns[%q].mask: invalid value %q (allowed: redact, hash, partial, null)", table, col, cn.Mask)
			}
		}
		for i, k := range tn.Keys {
			if len(k) == 0 {
				return fmt.Errorf("tables[%q].keys[%d] is empty", table, i)
			}
		}
	}
	return nil
}
