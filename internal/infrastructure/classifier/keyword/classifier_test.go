package keyword

import (
	"context"
	"math"
	"testing"

	"github.com/kunalbhatia/docsort/internal/core/domain"
)

func TestClassifyAadharScenario(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), 0)

	cls, err := c.Classify(context.Background(), "this is an aadhar card issued by uidai government of india")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Category != "Aadhar" {
		t.Fatalf("expected Aadhar, got %q", cls.Category)
	}
	// Matches aadhar, uidai, government of india: 3 of 5 phrases.
	if math.Abs(cls.Confidence-0.6) > 1e-9 {
		t.Fatalf("expected confidence 0.6, got %v", cls.Confidence)
	}
}

func TestClassifyNoMatchIsUnclassified(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), 0)

	cls, err := c.Classify(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Category != domain.CategoryUnclassified || cls.Confidence != 0 {
		t.Fatalf("expected (Unclassified, 0), got (%q, %v)", cls.Category, cls.Confidence)
	}
}

func TestClassifyLowConfidenceFloor(t *testing.T) {
	taxonomy, err := domain.NewTaxonomy([]domain.TaxonomyEntry{
		{Category: "Wide", Phrases: []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa", "lambda", "mu"}},
	})
	if err != nil {
		t.Fatalf("NewTaxonomy() error = %v", err)
	}
	c := NewClassifier(taxonomy, DefaultMinConfidence)

	// One of twelve phrases matches: 1/12 < 0.1, overridden to unclassified.
	cls, err := c.Classify(context.Background(), "we found alpha here")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Category != domain.CategoryUnclassified || cls.Confidence != 0 {
		t.Fatalf("expected floor override, got (%q, %v)", cls.Category, cls.Confidence)
	}
}

func TestClassifyTieBreaksToFirstCategory(t *testing.T) {
	taxonomy, err := domain.NewTaxonomy([]domain.TaxonomyEntry{
		{Category: "First", Phrases: []string{"shared"}},
		{Category: "Second", Phrases: []string{"shared"}},
	})
	if err != nil {
		t.Fatalf("NewTaxonomy() error = %v", err)
	}
	c := NewClassifier(taxonomy, 0)

	cls, err := c.Classify(context.Background(), "a shared phrase")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Category != "First" {
		t.Fatalf("tie should resolve to first taxonomy entry, got %q", cls.Category)
	}
}

func TestClassifyNormalizesCase(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), 0)

	upper, err := c.Classify(context.Background(), "AADHAR CARD FROM UIDAI")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	lower, err := c.Classify(context.Background(), "aadhar card from uidai")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if upper != lower {
		t.Fatalf("case should not matter: %+v vs %+v", upper, lower)
	}
}

func TestClassifyRepeatedPhraseCountsOnce(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), 0)

	cls, err := c.Classify(context.Background(), "aadhar aadhar aadhar aadhar aadhar")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if math.Abs(cls.Confidence-0.2) > 1e-9 {
		t.Fatalf("repetition should count once: expected 1/5, got %v", cls.Confidence)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), DefaultMinConfidence)
	const text = "semester marksheet with sgpa and cgpa, marks obtained listed"

	first, err := c.Classify(context.Background(), text)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for range 10 {
		again, err := c.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if again != first {
			t.Fatalf("classifier not deterministic: %+v vs %+v", again, first)
		}
	}
}

func TestClassifyConfidenceAlwaysInRange(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), DefaultMinConfidence)
	inputs := []string{
		"",
		"certificate of completion and achievement letter of recommendation",
		"10th class 10 class x ssc high school हाई स्कूल दसवीं",
		"random noise \x00\x01 binary-ish",
	}
	for _, text := range inputs {
		cls, err := c.Classify(context.Background(), text)
		if err != nil {
			t.Fatalf("Classify(%q) error = %v", text, err)
		}
		if cls.Confidence < 0 || cls.Confidence > 1 {
			t.Fatalf("confidence out of range for %q: %v", text, cls.Confidence)
		}
	}
}

func TestClassifyDevanagariPhrases(t *testing.T) {
	c := NewClassifier(domain.DefaultTaxonomy(), 0)

	cls, err := c.Classify(context.Background(), "यह आधार कार्ड है")
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Category != "Aadhar" {
		t.Fatalf("expected Devanagari phrase match for Aadhar, got %q", cls.Category)
	}
}
