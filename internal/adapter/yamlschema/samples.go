package yamlschema

import (
	"fmt"
	"os"

	"github.com/guillermoBallester/nfaudit/internal/core/domain"
)

// LoadSamples reads a YAML or JSON sample data file.
func LoadSamples(path string) (domain.SampleData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sample file: %w", err)
	}
	samples, err := DecodeSamples(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return samples, nil
}
