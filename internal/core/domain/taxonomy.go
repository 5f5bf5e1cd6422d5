package domain

import (
	"fmt"
	"strings"
)

// TaxonomyEntry is one category with its trigger phrases. Phrases are matched
// as substrings of lowercased extracted text, never tokenized.
type TaxonomyEntry struct {
	Category string   `yaml:"category"`
	Phrases  []string `yaml:"phrases"`
}

// Taxonomy is an explicit ordered sequence of entries. Order matters: when
// two categories score the same confidence, the one listed first wins, so the
// representation is a slice rather than a map.
type Taxonomy struct {
	entries []TaxonomyEntry
}

// NewTaxonomy validates and builds a taxonomy. Every category needs at least
// one phrase and category names must be unique. Phrases are normalized to
// lowercase once here so classification never has to.
func NewTaxonomy(entries []TaxonomyEntry) (Taxonomy, error) {
	if len(entries) == 0 {
		return Taxonomy{}, fmt.Errorf("taxonomy needs at least one category")
	}
	seen := make(map[string]struct{}, len(entries))
	normalized := make([]TaxonomyEntry, 0, len(entries))
	for _, e := range entries {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			return Taxonomy{}, fmt.Errorf("taxonomy category name is empty")
		}
		if name == CategoryUnclassified {
			return Taxonomy{}, fmt.Errorf("category %q is reserved", CategoryUnclassified)
		}
		if _, dup := seen[name]; dup {
			return Taxonomy{}, fmt.Errorf("duplicate taxonomy category %q", name)
		}
		seen[name] = struct{}{}
		if len(e.Phrases) == 0 {
			return Taxonomy{}, fmt.Errorf("category %q has no trigger phrases", name)
		}
		phrases := make([]string, len(e.Phrases))
		for i, p := range e.Phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				return Taxonomy{}, fmt.Errorf("category %q has an empty trigger phrase", name)
			}
			phrases[i] = p
		}
		normalized = append(normalized, TaxonomyEntry{Category: name, Phrases: phrases})
	}
	return Taxonomy{entries: normalized}, nil
}

// DefaultTaxonomy returns the stock category set for Indian student document
// sorting. Hindi phrases are included because OCR runs with Devanagari
// trained data alongside English.
func DefaultTaxonomy() Taxonomy {
	t, err := NewTaxonomy([]TaxonomyEntry{
		{Category: "Aadhar", Phrases: []string{"aadhar", "uidai", "govt of india", "government of india", "आधार"}},
		{Category: "10th", Phrases: []string{"10th", "class 10", "class x", "ssc", "high school", "हाई स्कूल", "दसवीं"}},
		{Category: "12th", Phrases: []string{"12th", "class 12", "class xii", "hsc", "senior secondary", "इंटरमीडिएट", "बारहवीं"}},
		{Category: "Semester Marksheets", Phrases: []string{"semester", "1st sem", "2nd sem", "3rd sem", "sgpa", "cgpa", "marks obtained"}},
		{Category: "NPTEL", Phrases: []string{"nptel", "motivated learners", "online certification", "discipline stars"}},
		{Category: "Certificates", Phrases: []string{"certificate", "completion", "recommendation", "achievement", "letter"}},
	})
	if err != nil {
		panic(fmt.Sprintf("default taxonomy invalid: %v", err))
	}
	return t
}

// Entries returns the ordered entries. The slice is a copy; the taxonomy is
// immutable after construction.
func (t Taxonomy) Entries() []TaxonomyEntry {
	out := make([]TaxonomyEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Categories returns category names in taxonomy order.
func (t Taxonomy) Categories() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Category
	}
	return out
}

// Len returns the number of categories.
func (t Taxonomy) Len() int { return len(t.entries) }
