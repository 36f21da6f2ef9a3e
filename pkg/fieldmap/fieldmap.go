// Package fieldmap holds the per-collection static configuration the sync
// core runs on: the mapping from UI field identifiers to canonical record
// keys, the required/optional field partitions used for quality scoring, the
// force-include list for save payloads, the searchable fields, and the
// missing-information taxonomy.
//
// Built-in tables cover the five stock collections. A deployment can override
// or extend them with a YAML file (see LoadFile), which is how new
// collections are rolled out without a binary release.
package fieldmap

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/showroom/pkg/model"
)

// Schema describes one collection's field configuration.
type Schema struct {
	Collection model.Collection `yaml:"collection"`

	// Fields maps UI field identifiers (form input names) to canonical
	// record keys. Identity mappings may be omitted; Resolve falls back to
	// the identifier itself.
	Fields map[string]string `yaml:"fields,omitempty"`

	// Required and Optional partition the fields that feed quality scoring.
	// Required fill ratio carries 80% of the score, optional 20%.
	Required []string `yaml:"required,omitempty"`
	Optional []string `yaml:"optional,omitempty"`

	// ForceInclude lists canonical keys that are always written on save,
	// even when empty. An empty value for these fields is itself meaningful
	// (clearing an image list clears the remote cell).
	ForceInclude []string `yaml:"force_include,omitempty"`

	// Searchable lists the canonical keys the free-text filter matches on.
	Searchable []string `yaml:"searchable,omitempty"`
}

// Resolve maps a UI field identifier to its canonical record key.
func (s Schema) Resolve(uiField string) string {
	if s.Fields != nil {
		if key, ok := s.Fields[uiField]; ok && key != "" {
			return key
		}
	}
	return uiField
}

// IsForced reports whether key must be included in save payloads even when
// its value is empty.
func (s Schema) IsForced(key string) bool {
	for _, f := range s.ForceInclude {
		if f == key {
			return true
		}
	}
	return false
}

// ScoringConfigured reports whether the schema carries required/optional
// lists. When it does not, scoring falls back to the identity fields.
func (s Schema) ScoringConfigured() bool {
	return len(s.Required) > 0 || len(s.Optional) > 0
}

// MissingCategory names one axis of the "what's missing" taxonomy.
type MissingCategory string

const (
	MissingSpecification MissingCategory = "specification"
	MissingDimensions    MissingCategory = "dimensions"
	MissingAdditional    MissingCategory = "additional"
	MissingSEO           MissingCategory = "seo"
	MissingContent       MissingCategory = "content"
	MissingDocuments     MissingCategory = "documents"
)

// AllMissingCategories lists the taxonomy in display order.
func AllMissingCategories() []MissingCategory {
	return []MissingCategory{
		MissingSpecification,
		MissingDimensions,
		MissingAdditional,
		MissingSEO,
		MissingContent,
		MissingDocuments,
	}
}

// ParseMissingCategory validates a user-supplied category name.
func ParseMissingCategory(s string) (MissingCategory, error) {
	c := MissingCategory(s)
	for _, known := range AllMissingCategories() {
		if c == known {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown missing-info category %q", s)
}

// Table is the full set of schemas, keyed by collection.
type Table map[model.Collection]Schema

// Lookup returns the schema for a collection. The second result is false
// when the collection has no configured schema; callers then operate in
// fallback mode (identity fields only, no field aliasing).
func (t Table) Lookup(c model.Collection) (Schema, bool) {
	s, ok := t[c]
	return s, ok
}

// Collections returns the configured collections in sorted order.
func (t Table) Collections() []model.Collection {
	out := make([]model.Collection, 0, len(t))
	for c := range t {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LoadFile reads schema overrides from a YAML file and merges them over the
// built-in defaults. Collections present in the file replace the default
// schema wholesale; absent collections keep their defaults.
func LoadFile(path string) (Table, error) {
	table := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return table, fmt.Errorf("reading field map: %w", err)
	}

	var file struct {
		Schemas []Schema `yaml:"schemas"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return table, fmt.Errorf("parsing field map: %w", err)
	}

	for _, s := range file.Schemas {
		if s.Collection == "" {
			return table, fmt.Errorf("field map schema missing collection name")
		}
		table[s.Collection] = s
	}
	return table, nil
}
