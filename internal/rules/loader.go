package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile loads and parses a YAML facet file from the given path.
func LoadFile(path string) (*FacetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read facet file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a FacetFile.
func Parse(data []byte) (*FacetFile, error) {
	var ff FacetFile

	err := yaml.Unmarshal(data, &ff)
	if err != nil {
		return nil, fmt.Errorf("failed to parse facet YAML: %w", err)
	}

	applyDefaults(&ff)

	return &ff, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(ff *FacetFile) {
	if ff.Version == "" {
		ff.Version = "1"
	}

	for i := range ff.Facets {
		decl := &ff.Facets[i]
		for j := range decl.Overrides {
			o := &decl.Overrides[j]
			if o.Source == "" {
				o.Source = o.Field
			}
		}
	}
}

// Marshal serializes a FacetFile to YAML.
func Marshal(ff *FacetFile) ([]byte, error) {
	return yaml.Marshal(ff)
}

// WriteFile writes a FacetFile to the given path.
func WriteFile(ff *FacetFile, path string) error {
	data, err := Marshal(ff)
	if err != nil {
		return fmt.Errorf("failed to marshal facet file: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write facet file %s: %w", path, err)
	}

	return nil
}
