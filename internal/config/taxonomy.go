package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

// LoadTaxonomy returns the taxonomy from the YAML file at path, or the stock
// set when path is empty. The file is an ordered list so tie-break order is
// explicit in the config, not an accident of map iteration:
//
//   - category: Aadhar
//     phrases: ["aadhar", "uidai"]
//   - category: Certificates
//     phrases: ["certificate", "completion"]
func LoadTaxonomy(path string) (domain.Taxonomy, error) {
	if path == "" {
		return domain.DefaultTaxonomy(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("read taxonomy file: %w", err)
	}

	var entries []domain.TaxonomyEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return domain.Taxonomy{}, fmt.Errorf("parse taxonomy yaml: %w", err)
	}

	taxonomy, err := domain.NewTaxonomy(entries)
	if err != nil {
		return domain.Taxonomy{}, fmt.Errorf("validate taxonomy %s: %w", path, err)
	}
	return taxonomy, nil
}
